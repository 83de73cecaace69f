package cpu

// Processor status register fields.
const (
	PSR_USER          = uint16(0x8000) // Set in user mode, clear in supervisor mode.
	PSR_PRIORITY_MASK = uint16(0x0700) // Priority level.
	PSR_CC_MASK       = uint16(0x0007) // Condition codes.

	CC_N = uint16(0b100) // Negative
	CC_Z = uint16(0b010) // Zero
	CC_P = uint16(0b001) // Positive

	PSR_DEFAULT = PSR_USER | CC_Z // Power-on PSR.
)

// ConditionCode returns -1, 0 or 1 for an N, Z or P psr. Any other
// combination of the condition code bits is ErrConditionCode.
func ConditionCode(psr uint16) (cc int, err error) {
	switch psr & PSR_CC_MASK {
	case CC_N:
		cc = -1
	case CC_Z:
		cc = 0
	case CC_P:
		cc = 1
	default:
		err = ErrConditionCode
	}
	return
}

// FormatConditionCode returns "N", "Z", "P" or "Invalid".
func FormatConditionCode(psr uint16) string {
	cc, err := ConditionCode(psr)
	if err != nil {
		return "Invalid"
	}

	switch cc {
	case -1:
		return "N"
	case 1:
		return "P"
	}
	return "Z"
}

// SetConditionCode replaces the condition codes of psr with the sign of
// result, read as a two's complement word.
func SetConditionCode(psr uint16, result uint16) uint16 {
	var cc uint16
	switch {
	case result == 0:
		cc = CC_Z
	case result&0x8000 != 0:
		cc = CC_N
	default:
		cc = CC_P
	}

	return (psr &^ PSR_CC_MASK) | cc
}
