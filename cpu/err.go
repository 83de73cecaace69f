package cpu

import (
	"errors"

	"github.com/ezrec/lc3sim/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted          = errors.New(f("halted"))
	ErrPrivilege       = errors.New(f("privilege mode violation"))
	ErrConditionCode   = errors.New(f("invalid condition code"))
	ErrRegisterUnknown = errors.New(f("register unknown"))

	// Instruction decode errors
	ErrOpcodeReserved = errors.New(f("reserved opcode"))
	ErrOpcodeBits     = errors.New(f("reserved bits set"))
	ErrTrapVector     = errors.New(f("trap vector unknown"))

	// Program image errors
	ErrDeviceOverlap = errors.New(f("program overlaps device registers"))
	ErrObjectFormat  = errors.New(f("object image malformed"))
)

// ErrIllegalInstruction reports an instruction that could not be executed.
type ErrIllegalInstruction struct {
	Address uint16 // Address the instruction was fetched from.
	Code    Code   // Raw instruction word.
	Err     error
}

func (err ErrIllegalInstruction) Error() string {
	return f("illegal instruction x%04X at x%04X: %v", uint16(err.Code), err.Address, err.Err)
}

func (err ErrIllegalInstruction) Unwrap() error {
	return err.Err
}

func (err ErrIllegalInstruction) Is(target error) (ok bool) {
	_, ok = target.(ErrIllegalInstruction)
	return
}
