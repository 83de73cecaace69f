package cpu

import (
	"iter"
	"strings"
)

// Register names a member of the register file.
type Register int

//go:generate go tool stringer -linecomment -type=Register
const (
	REG_R0  = Register(0)  // R0
	REG_R1  = Register(1)  // R1
	REG_R2  = Register(2)  // R2
	REG_R3  = Register(3)  // R3
	REG_R4  = Register(4)  // R4
	REG_R5  = Register(5)  // R5
	REG_R6  = Register(6)  // R6
	REG_R7  = Register(7)  // R7
	REG_PC  = Register(8)  // PC
	REG_IR  = Register(9)  // IR
	REG_PSR = Register(10) // PSR
	REG_MAR = Register(11) // MAR
	REG_MDR = Register(12) // MDR
	REG_SSP = Register(13) // SSP
	REG_USP = Register(14) // USP
)

// REG_COUNT is the size of the register file.
const REG_COUNT = 15

// RegisterFile holds every register, indexed by Register.
type RegisterFile [REG_COUNT]uint16

// ParseRegister looks up a register by name, ignoring case.
func ParseRegister(name string) (reg Register, err error) {
	for r := range Registers() {
		if strings.EqualFold(r.String(), name) {
			reg = r
			return
		}
	}

	err = ErrRegisterUnknown
	return
}

// Registers iterates over the register file in index order.
func Registers() iter.Seq[Register] {
	return func(yield func(reg Register) bool) {
		for n := range REG_COUNT {
			if !yield(Register(n)) {
				return
			}
		}
	}
}

// All iterates over each register and its value.
func (rf *RegisterFile) All() iter.Seq2[Register, uint16] {
	return func(yield func(reg Register, value uint16) bool) {
		for reg := range Registers() {
			if !yield(reg, rf[reg]) {
				return
			}
		}
	}
}
