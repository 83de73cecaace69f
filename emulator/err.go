package emulator

import (
	"github.com/ezrec/lc3sim/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Address uint16
	Err     error
}

func (err *ErrRuntime) Error() string {
	return f("x%04X: %v", err.Address, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
