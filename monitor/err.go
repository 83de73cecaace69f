package monitor

import (
	"errors"

	"github.com/ezrec/lc3sim/numeric"
	"github.com/ezrec/lc3sim/translate"
)

var f = translate.From

var (
	ErrValueRange = errors.New(f("value does not fit in a word"))
)

// ErrValue records the offending value of an ErrValueRange.
type ErrValue int

func (ev ErrValue) Error() string {
	return f("value %v", numeric.Hex(int(ev)))
}

// ErrScript indicates the script a monitor error came from.
type ErrScript struct {
	Filename string
	Err      error
}

func (err *ErrScript) Error() string {
	return f("%v: %v", err.Filename, err.Err)
}

func (err *ErrScript) Unwrap() error {
	return err.Err
}
