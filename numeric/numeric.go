// Package numeric parses and formats the LC-3's two numeric notations:
// signed decimal ("-123") and 'x'-prefixed hexadecimal ("x3000").
package numeric

import (
	"strconv"
	"strings"
)

const (
	HEX_DIGITS = 4   // Default minimum hex digits.
	HEX_PREFIX = "x" // Default hex prefix.
)

// ParseNumber parses an optionally negated decimal or 'x'-prefixed hex number.
func ParseNumber(text string) (value int, err error) {
	body := text
	negative := false
	if strings.HasPrefix(body, "-") {
		negative = true
		body = body[1:]
	}

	base := 10
	if len(body) > 0 && body[0] == 'x' {
		base = 16
		body = body[1:]
	}

	if len(body) == 0 {
		err = ErrMalformedNumber(text)
		return
	}

	for _, c := range body {
		if !isDigit(c, base) {
			err = ErrMalformedNumber(text)
			return
		}
	}

	v64, perr := strconv.ParseInt(body, base, 64)
	if perr != nil {
		err = ErrMalformedNumber(text)
		return
	}

	value = int(v64)
	if negative {
		value = -value
	}

	return
}

// isDigit is stricter than strconv, which would accept '_' and signs.
func isDigit(c rune, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16 && c >= 'a' && c <= 'f':
		return true
	case base == 16 && c >= 'A' && c <= 'F':
		return true
	}
	return false
}

// ToHexString renders value in upper case hex, zero padded to at least
// digits digits, after prefix. Values wider than digits are not clipped.
func ToHexString(value int, digits int, prefix string) string {
	if digits < 1 {
		digits = HEX_DIGITS
	}

	negative := value < 0
	if negative {
		value = -value
	}

	hex := strings.ToUpper(strconv.FormatInt(int64(value), 16))
	if len(hex) < digits {
		hex = strings.Repeat("0", digits-len(hex)) + hex
	}

	if negative {
		return "-" + prefix + hex
	}

	return prefix + hex
}

// Hex is ToHexString with the default width and prefix.
func Hex(value int) string {
	return ToHexString(value, HEX_DIGITS, HEX_PREFIX)
}

// ToDecimalString renders a word as a signed (two's complement) decimal.
func ToDecimalString(word uint16) string {
	return strconv.Itoa(int(int16(word)))
}
