package cpu

import (
	"fmt"
)

// CodeOp is the opcode in the top four bits of an instruction.
type CodeOp int

//go:generate go tool stringer -linecomment -type=CodeOp
const (
	OP_BR   = CodeOp(0b0000) // BR
	OP_ADD  = CodeOp(0b0001) // ADD
	OP_LD   = CodeOp(0b0010) // LD
	OP_ST   = CodeOp(0b0011) // ST
	OP_JSR  = CodeOp(0b0100) // JSR
	OP_AND  = CodeOp(0b0101) // AND
	OP_LDR  = CodeOp(0b0110) // LDR
	OP_STR  = CodeOp(0b0111) // STR
	OP_RTI  = CodeOp(0b1000) // RTI
	OP_NOT  = CodeOp(0b1001) // NOT
	OP_LDI  = CodeOp(0b1010) // LDI
	OP_STI  = CodeOp(0b1011) // STI
	OP_JMP  = CodeOp(0b1100) // JMP
	OP_RES  = CodeOp(0b1101) // RES
	OP_LEA  = CodeOp(0b1110) // LEA
	OP_TRAP = CodeOp(0b1111) // TRAP
)

// Code is a single instruction word.
type Code uint16

// sext sign extends the low bits of value.
func sext(value uint16, bits uint) int {
	shift := 16 - bits
	return int(int16(value<<shift) >> shift)
}

func makeCode(op CodeOp, operands uint16) Code {
	return Code((uint16(op) << 12) | (operands & 0x0fff))
}

func field(value int, bits uint) uint16 {
	return uint16(value) & ((1 << bits) - 1)
}

// MakeCodeAdd creates a register form ADD.
func MakeCodeAdd(dr, sr1, sr2 Register) Code {
	return makeCode(OP_ADD, uint16(dr)<<9|uint16(sr1)<<6|uint16(sr2))
}

// MakeCodeAddImm creates an immediate form ADD.
func MakeCodeAddImm(dr, sr1 Register, imm5 int) Code {
	return makeCode(OP_ADD, uint16(dr)<<9|uint16(sr1)<<6|1<<5|field(imm5, 5))
}

// MakeCodeAnd creates a register form AND.
func MakeCodeAnd(dr, sr1, sr2 Register) Code {
	return makeCode(OP_AND, uint16(dr)<<9|uint16(sr1)<<6|uint16(sr2))
}

// MakeCodeAndImm creates an immediate form AND.
func MakeCodeAndImm(dr, sr1 Register, imm5 int) Code {
	return makeCode(OP_AND, uint16(dr)<<9|uint16(sr1)<<6|1<<5|field(imm5, 5))
}

// MakeCodeNot creates a NOT.
func MakeCodeNot(dr, sr Register) Code {
	return makeCode(OP_NOT, uint16(dr)<<9|uint16(sr)<<6|0x3f)
}

// MakeCodeBr creates a conditional branch on any of the nzp codes.
func MakeCodeBr(nzp uint16, offset9 int) Code {
	return makeCode(OP_BR, (nzp&PSR_CC_MASK)<<9|field(offset9, 9))
}

// MakeCodeJmp creates a JMP.
func MakeCodeJmp(base Register) Code {
	return makeCode(OP_JMP, uint16(base)<<6)
}

// MakeCodeRet creates a RET, aka JMP R7.
func MakeCodeRet() Code {
	return MakeCodeJmp(REG_R7)
}

// MakeCodeJsr creates a PC relative JSR.
func MakeCodeJsr(offset11 int) Code {
	return makeCode(OP_JSR, 1<<11|field(offset11, 11))
}

// MakeCodeJsrr creates a register JSRR.
func MakeCodeJsrr(base Register) Code {
	return makeCode(OP_JSR, uint16(base)<<6)
}

// MakeCodeLd creates a PC relative LD.
func MakeCodeLd(dr Register, offset9 int) Code {
	return makeCode(OP_LD, uint16(dr)<<9|field(offset9, 9))
}

// MakeCodeLdi creates a PC relative indirect LDI.
func MakeCodeLdi(dr Register, offset9 int) Code {
	return makeCode(OP_LDI, uint16(dr)<<9|field(offset9, 9))
}

// MakeCodeLdr creates a base+offset LDR.
func MakeCodeLdr(dr, base Register, offset6 int) Code {
	return makeCode(OP_LDR, uint16(dr)<<9|uint16(base)<<6|field(offset6, 6))
}

// MakeCodeLea creates a LEA.
func MakeCodeLea(dr Register, offset9 int) Code {
	return makeCode(OP_LEA, uint16(dr)<<9|field(offset9, 9))
}

// MakeCodeSt creates a PC relative ST.
func MakeCodeSt(sr Register, offset9 int) Code {
	return makeCode(OP_ST, uint16(sr)<<9|field(offset9, 9))
}

// MakeCodeSti creates a PC relative indirect STI.
func MakeCodeSti(sr Register, offset9 int) Code {
	return makeCode(OP_STI, uint16(sr)<<9|field(offset9, 9))
}

// MakeCodeStr creates a base+offset STR.
func MakeCodeStr(sr, base Register, offset6 int) Code {
	return makeCode(OP_STR, uint16(sr)<<9|uint16(base)<<6|field(offset6, 6))
}

// MakeCodeRti creates an RTI.
func MakeCodeRti() Code {
	return makeCode(OP_RTI, 0)
}

// MakeCodeTrap creates a TRAP.
func MakeCodeTrap(vector uint16) Code {
	return makeCode(OP_TRAP, vector&0xff)
}

// Op returns the opcode.
func (code Code) Op() CodeOp {
	return CodeOp(uint16(code) >> 12)
}

// DR returns the destination (or store source) register in bits 11..9.
func (code Code) DR() Register {
	return Register((uint16(code) >> 9) & 0x7)
}

// SR1 returns the first source or base register in bits 8..6.
func (code Code) SR1() Register {
	return Register((uint16(code) >> 6) & 0x7)
}

// SR2 returns the second source register in bits 2..0.
func (code Code) SR2() Register {
	return Register(uint16(code) & 0x7)
}

// Immediate returns true for the imm5 forms of ADD and AND.
func (code Code) Immediate() bool {
	return (uint16(code)>>5)&1 == 1
}

// Imm5 returns the sign extended 5-bit immediate.
func (code Code) Imm5() int {
	return sext(uint16(code), 5)
}

// Offset6 returns the sign extended base register offset.
func (code Code) Offset6() int {
	return sext(uint16(code), 6)
}

// PCOffset9 returns the sign extended 9-bit PC offset.
func (code Code) PCOffset9() int {
	return sext(uint16(code), 9)
}

// PCOffset11 returns the sign extended 11-bit PC offset of JSR.
func (code Code) PCOffset11() int {
	return sext(uint16(code), 11)
}

// NZP returns the branch condition mask.
func (code Code) NZP() uint16 {
	return (uint16(code) >> 9) & PSR_CC_MASK
}

// Long returns true for JSR, false for JSRR.
func (code Code) Long() bool {
	return (uint16(code)>>11)&1 == 1
}

// TrapVector returns the 8-bit trap vector.
func (code Code) TrapVector() uint16 {
	return uint16(code) & 0xff
}

// Check verifies the opcode is defined and that every bit the
// instruction format fixes has its required value.
func (code Code) Check() (err error) {
	word := uint16(code)

	switch code.Op() {
	case OP_ADD, OP_AND:
		if !code.Immediate() && (word&0x0018) != 0 {
			err = ErrOpcodeBits
		}
	case OP_NOT:
		if (word & 0x003f) != 0x003f {
			err = ErrOpcodeBits
		}
	case OP_JMP:
		if (word & 0x0e3f) != 0 {
			err = ErrOpcodeBits
		}
	case OP_JSR:
		if !code.Long() && (word&0x063f) != 0 {
			err = ErrOpcodeBits
		}
	case OP_RTI:
		if (word & 0x0fff) != 0 {
			err = ErrOpcodeBits
		}
	case OP_TRAP:
		if (word & 0x0f00) != 0 {
			err = ErrOpcodeBits
		}
	case OP_RES:
		err = ErrOpcodeReserved
	}

	return
}

// Target returns the address a PC relative instruction at addr refers to.
func (code Code) Target(addr uint16) (target int, ok bool) {
	pc := int(addr) + 1
	switch code.Op() {
	case OP_BR, OP_LD, OP_LDI, OP_LEA, OP_ST, OP_STI:
		return pc + code.PCOffset9(), true
	case OP_JSR:
		if code.Long() {
			return pc + code.PCOffset11(), true
		}
	}
	return
}

var trapName = map[uint16]string{
	TRAP_GETC:  "GETC",
	TRAP_OUT:   "OUT",
	TRAP_PUTS:  "PUTS",
	TRAP_IN:    "IN",
	TRAP_PUTSP: "PUTSP",
	TRAP_HALT:  "HALT",
}

// String returns the assembly language representation of this instruction.
// Words that do not decode are shown as data.
func (code Code) String() (out string) {
	if code.Check() != nil {
		return fmt.Sprintf(".FILL x%04X", uint16(code))
	}

	op := code.Op()

	switch op {
	case OP_ADD, OP_AND:
		if code.Immediate() {
			out = fmt.Sprintf("%v %v, %v, #%d", op, code.DR(), code.SR1(), code.Imm5())
		} else {
			out = fmt.Sprintf("%v %v, %v, %v", op, code.DR(), code.SR1(), code.SR2())
		}
	case OP_NOT:
		out = fmt.Sprintf("%v %v, %v", op, code.DR(), code.SR1())
	case OP_BR:
		nzp := code.NZP()
		if nzp == 0 {
			out = "NOP"
			break
		}
		cond := ""
		for n, ch := range "nzp" {
			if nzp&(CC_N>>n) != 0 {
				cond += string(ch)
			}
		}
		out = fmt.Sprintf("BR%v #%d", cond, code.PCOffset9())
	case OP_JMP:
		if code.SR1() == REG_R7 {
			out = "RET"
		} else {
			out = fmt.Sprintf("%v %v", op, code.SR1())
		}
	case OP_JSR:
		if code.Long() {
			out = fmt.Sprintf("%v #%d", op, code.PCOffset11())
		} else {
			out = fmt.Sprintf("JSRR %v", code.SR1())
		}
	case OP_LD, OP_LDI, OP_LEA, OP_ST, OP_STI:
		out = fmt.Sprintf("%v %v, #%d", op, code.DR(), code.PCOffset9())
	case OP_LDR, OP_STR:
		out = fmt.Sprintf("%v %v, %v, #%d", op, code.DR(), code.SR1(), code.Offset6())
	case OP_RTI:
		out = op.String()
	case OP_TRAP:
		name, ok := trapName[code.TrapVector()]
		if ok {
			out = name
		} else {
			out = fmt.Sprintf("%v x%02X", op, code.TrapVector())
		}
	}

	return
}
