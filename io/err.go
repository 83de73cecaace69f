package io

import (
	"errors"

	"github.com/ezrec/lc3sim/translate"
)

var f = translate.From

var (
	// Tape errors
	ErrTapeEmpty = errors.New(f("tape input exhausted"))
)

// ErrNewlineMode is returned for an unknown newline mode name.
type ErrNewlineMode string

func (err ErrNewlineMode) Error() string {
	return f("'%v' is not a newline mode", string(err))
}
