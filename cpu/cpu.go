package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/lc3sim/io"
	"github.com/ezrec/lc3sim/memory"
)

// Memory map landmarks.
const (
	TRAP_VECTOR_TABLE = uint16(0x0000) // Trap service routine addresses.
	INT_VECTOR_TABLE  = uint16(0x0100) // Interrupt and exception routine addresses.
	SYSTEM_SPACE      = uint16(0x0200) // Operating system.
	USER_SPACE        = uint16(0x3000) // User programs, and the power-on PC.
	DEVICE_SPACE      = uint16(0xFE00) // Device registers.
)

var _cpu_defines = map[string]string{
	"TRAP_VECTOR_TABLE": fmt.Sprintf("0x%04X", TRAP_VECTOR_TABLE),
	"INT_VECTOR_TABLE":  fmt.Sprintf("0x%04X", INT_VECTOR_TABLE),
	"SYSTEM_SPACE":      fmt.Sprintf("0x%04X", SYSTEM_SPACE),
	"USER_SPACE":        fmt.Sprintf("0x%04X", USER_SPACE),
	"DEVICE_SPACE":      fmt.Sprintf("0x%04X", DEVICE_SPACE),
	"PSR_USER":          fmt.Sprintf("0x%04X", PSR_USER),
	"TRAP_GETC":         fmt.Sprintf("0x%02X", TRAP_GETC),
	"TRAP_OUT":          fmt.Sprintf("0x%02X", TRAP_OUT),
	"TRAP_PUTS":         fmt.Sprintf("0x%02X", TRAP_PUTS),
	"TRAP_IN":           fmt.Sprintf("0x%02X", TRAP_IN),
	"TRAP_PUTSP":        fmt.Sprintf("0x%02X", TRAP_PUTSP),
	"TRAP_HALT":         fmt.Sprintf("0x%02X", TRAP_HALT),
}

// Defines for the cpu
func Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Cpu is the simulation context of an LC-3 processor, its memory and
// its console.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory   memory.Memory // Address space storage.
	Register RegisterFile  // Register bank.
	Console  io.Console    // Keyboard and display state.
	Halted   bool          // Set by HALT, or by clearing the MCR clock enable.
	Waiting  bool          // Set while an input trap waits for Stdin.
}

// NewCpu creates a CPU in its power-on state.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.Reset()

	return
}

// Reset the CPU state.
// - Zeros memory and every register.
// - Sets PC to USER_SPACE and PSR to PSR_DEFAULT.
// - Empties the console.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Memory = memory.Memory{}
	clear(cpu.Register[:])
	cpu.Register[REG_PC] = USER_SPACE
	cpu.Register[REG_PSR] = PSR_DEFAULT
	cpu.Console = io.Console{}
	cpu.Halted = false
	cpu.Waiting = false
}

// Clone returns an independent copy of the CPU. Memory pages are shared
// until either copy writes them.
func (cpu *Cpu) Clone() (clone *Cpu) {
	mem := cpu.Memory.Clone()
	clone = &Cpu{}
	*clone = *cpu
	clone.Memory = mem

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	for reg, val := range cpu.Register.All() {
		text += fmt.Sprintf("% 5s: x%04X\n", reg.String(), val)
	}
	text += fmt.Sprintf("% 5s: %v\n", "cc", FormatConditionCode(cpu.Register[REG_PSR]))

	return
}

// Load writes a program image into memory. Registers are untouched.
func (cpu *Cpu) Load(prog *Program) (err error) {
	err = prog.Check()
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.Printf("cpu: load %d words at x%04X", len(prog.Code), prog.Origin)
	}

	for addr, code := range prog.Codes() {
		cpu.Memory.Poke(addr, uint16(code))
	}

	return
}

// Peek returns what a read of addr would return, without side effects.
func (cpu *Cpu) Peek(addr uint16) (value uint16) {
	if addr == io.MCR {
		if !cpu.Halted {
			value = io.STATUS_READY
		}
		return
	}

	value, ok := cpu.Console.Peek(addr)
	if !ok {
		value = cpu.Memory.Peek(addr)
	}

	return
}

// Read performs an instruction's read of addr. Reading KBDR consumes
// a character from the console.
func (cpu *Cpu) Read(addr uint16) (value uint16) {
	value, ok := cpu.Console.Read(addr)
	if ok {
		if cpu.Verbose {
			log.Printf("cpu: device read x%04X = x%04X", addr, value)
		}
		return
	}

	return cpu.Peek(addr)
}

// Write performs an instruction's write of addr.
func (cpu *Cpu) Write(addr uint16, value uint16) {
	if addr == io.MCR {
		if (value & io.STATUS_READY) == 0 {
			cpu.Halted = true
		}
		cpu.Memory.Poke(addr, value)
		return
	}

	if cpu.Console.Write(addr, value) {
		if cpu.Verbose {
			log.Printf("cpu: device write x%04X = x%04X", addr, value)
		}
		return
	}

	cpu.Memory.Poke(addr, value)
}

// load reads addr through MAR and MDR.
func (cpu *Cpu) load(addr uint16) (value uint16) {
	cpu.Register[REG_MAR] = addr
	value = cpu.Read(addr)
	cpu.Register[REG_MDR] = value

	return
}

// store writes addr through MAR and MDR.
func (cpu *Cpu) store(addr uint16, value uint16) {
	cpu.Register[REG_MAR] = addr
	cpu.Register[REG_MDR] = value
	cpu.Write(addr, value)
}

// address computes base+offset, which must not leave memory.
func address(base int, offset int) (addr uint16, err error) {
	ea := base + offset
	err = memory.Check(ea)
	if err != nil {
		return
	}

	addr = uint16(ea)
	return
}

// setResult writes a register and derives the condition codes from it.
func (cpu *Cpu) setResult(dr Register, value uint16) {
	cpu.Register[dr] = value
	cpu.Register[REG_PSR] = SetConditionCode(cpu.Register[REG_PSR], value)
}

// Fetch loads the instruction at PC into IR and increments PC.
func (cpu *Cpu) Fetch() (code Code, err error) {
	if cpu.Halted {
		err = ErrHalted
		return
	}

	pc := cpu.Register[REG_PC]
	next, err := address(int(pc), 1)
	if err != nil {
		return
	}

	code = Code(cpu.load(pc))
	cpu.Register[REG_IR] = uint16(code)
	cpu.Register[REG_PC] = next

	return
}

// Tick executes a single instruction cycle. The CPU is updated in place
// and may be partially updated if an error is returned; see Step.
func (cpu *Cpu) Tick() (err error) {
	addr := cpu.Register[REG_PC]

	code, err := cpu.Fetch()
	if err != nil {
		return
	}

	err = cpu.Execute(code)
	if errors.Is(err, ErrOpcodeReserved) || errors.Is(err, ErrOpcodeBits) ||
		errors.Is(err, ErrTrapVector) || errors.Is(err, ErrPrivilege) {
		err = ErrIllegalInstruction{Address: addr, Code: code, Err: err}
	}

	return
}

// Step executes a single instruction cycle atomically: on error the CPU
// is left exactly as it was.
func (cpu *Cpu) Step() (err error) {
	next := cpu.Clone()

	err = next.Tick()
	if err != nil {
		return
	}

	*cpu = *next

	return
}

// Execute executes a single decoded instruction. PC must already point
// past the instruction.
func (cpu *Cpu) Execute(code Code) (err error) {
	if cpu.Verbose {
		log.Printf("x%04X: %v", cpu.Register[REG_PC]-1, code)
	}

	err = code.Check()
	if err != nil {
		return
	}

	reg := &cpu.Register
	pc := int(reg[REG_PC])
	cpu.Waiting = false

	switch code.Op() {
	case OP_ADD:
		value := reg[code.SR2()]
		if code.Immediate() {
			value = uint16(code.Imm5())
		}
		cpu.setResult(code.DR(), reg[code.SR1()]+value)
	case OP_AND:
		value := reg[code.SR2()]
		if code.Immediate() {
			value = uint16(code.Imm5())
		}
		cpu.setResult(code.DR(), reg[code.SR1()]&value)
	case OP_NOT:
		cpu.setResult(code.DR(), ^reg[code.SR1()])
	case OP_BR:
		if (code.NZP() & reg[REG_PSR]) == 0 {
			break
		}
		var target uint16
		target, err = address(pc, code.PCOffset9())
		if err != nil {
			return
		}
		reg[REG_PC] = target
	case OP_JMP:
		reg[REG_PC] = reg[code.SR1()]
	case OP_JSR:
		target := reg[code.SR1()]
		if code.Long() {
			target, err = address(pc, code.PCOffset11())
			if err != nil {
				return
			}
		}
		reg[REG_R7] = uint16(pc)
		reg[REG_PC] = target
	case OP_LD:
		var ea uint16
		ea, err = address(pc, code.PCOffset9())
		if err != nil {
			return
		}
		cpu.setResult(code.DR(), cpu.load(ea))
	case OP_LDI:
		var ea uint16
		ea, err = address(pc, code.PCOffset9())
		if err != nil {
			return
		}
		cpu.setResult(code.DR(), cpu.load(cpu.load(ea)))
	case OP_LDR:
		var ea uint16
		ea, err = address(int(reg[code.SR1()]), code.Offset6())
		if err != nil {
			return
		}
		cpu.setResult(code.DR(), cpu.load(ea))
	case OP_LEA:
		var ea uint16
		ea, err = address(pc, code.PCOffset9())
		if err != nil {
			return
		}
		cpu.setResult(code.DR(), ea)
	case OP_ST:
		var ea uint16
		ea, err = address(pc, code.PCOffset9())
		if err != nil {
			return
		}
		cpu.store(ea, reg[code.DR()])
	case OP_STI:
		var ea uint16
		ea, err = address(pc, code.PCOffset9())
		if err != nil {
			return
		}
		cpu.store(cpu.load(ea), reg[code.DR()])
	case OP_STR:
		var ea uint16
		ea, err = address(int(reg[code.SR1()]), code.Offset6())
		if err != nil {
			return
		}
		cpu.store(ea, reg[code.DR()])
	case OP_RTI:
		err = cpu.rti()
	case OP_TRAP:
		err = cpu.trap(code.TrapVector())
	default:
		err = ErrOpcodeReserved
	}

	return
}

// rti returns from an interrupt or trap service routine, popping PC and
// PSR from the supervisor stack.
func (cpu *Cpu) rti() (err error) {
	reg := &cpu.Register

	if (reg[REG_PSR] & PSR_USER) != 0 {
		err = ErrPrivilege
		return
	}

	sp := int(reg[REG_R6])
	_, err = address(sp, 2)
	if err != nil {
		return
	}

	pc := cpu.load(uint16(sp))
	psr := cpu.load(uint16(sp + 1))
	_, err = ConditionCode(psr)
	if err != nil {
		return
	}

	reg[REG_R6] = uint16(sp + 2)
	reg[REG_PC] = pc
	reg[REG_PSR] = psr

	if (psr & PSR_USER) != 0 {
		reg[REG_SSP] = reg[REG_R6]
		reg[REG_R6] = reg[REG_USP]
	}

	return
}
