package numeric

import (
	"github.com/ezrec/lc3sim/translate"
)

var f = translate.From

// ErrMalformedNumber is returned for text that is not a number.
type ErrMalformedNumber string

func (err ErrMalformedNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

func (err ErrMalformedNumber) Is(target error) (ok bool) {
	_, ok = target.(ErrMalformedNumber)
	return
}
