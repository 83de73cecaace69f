// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator is the boundary of the simulator. A Machine is an
// immutable snapshot; every operation that changes it returns a new
// Machine, leaving the receiver as it was. Any number of goroutines may
// read or derive machines from the same snapshot at once.
package emulator

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/lc3sim/cpu"
	"github.com/ezrec/lc3sim/internal"
	"github.com/ezrec/lc3sim/io"
	"github.com/ezrec/lc3sim/memory"
)

var _emulator_defines = map[string]string{
	"MEMORY_SIZE":   fmt.Sprintf("0x%05X", memory.MEMORY_SIZE),
	"HISTORY_LIMIT": fmt.Sprintf("%v", HISTORY_LIMIT),
}

// Machine is a snapshot of the LC-3: CPU, memory, console and symbols.
type Machine struct {
	Verbose bool // If set, enables verbose logging.

	cpu     *cpu.Cpu
	symbols map[string]uint16
}

// NewMachine creates a machine in its power-on state.
func NewMachine() (mach *Machine) {
	mach = &Machine{
		cpu:     cpu.NewCpu(),
		symbols: map[string]uint16{},
	}

	return
}

// clone returns a copy that may be modified without affecting mach.
// The symbol table is shared until a merge replaces it.
func (mach *Machine) clone() (next *Machine) {
	next = &Machine{
		Verbose: mach.Verbose,
		cpu:     mach.cpu.Clone(),
		symbols: mach.symbols,
	}
	next.cpu.Verbose = mach.Verbose

	return
}

// Defines returns an iterator over all of the defines
func (mach *Machine) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		cpu.Defines(),
		io.Defines(),
	)
}

// MergeProgram writes a program image into memory and merges its symbols,
// the program's symbols replacing any of the same name.
func (mach *Machine) MergeProgram(prog *cpu.Program) (next *Machine, err error) {
	next = mach.clone()

	err = next.cpu.Load(prog)
	if err != nil {
		next = mach
		return
	}

	if len(prog.Symbols) != 0 {
		next.symbols = maps.Clone(mach.symbols)
		if next.symbols == nil {
			next.symbols = map[string]uint16{}
		}
		maps.Copy(next.symbols, prog.Symbols)
	}

	if mach.Verbose {
		log.Printf("emulator: merged %d words, %d symbols", len(prog.Code), len(prog.Symbols))
	}

	return
}

// Step executes one instruction. On error the receiver is returned and
// the error is an ErrRuntime.
func (mach *Machine) Step() (next *Machine, err error) {
	next = mach.clone()

	err = next.cpu.Tick()
	if err != nil {
		err = &ErrRuntime{Address: mach.cpu.Register[cpu.REG_PC], Err: err}
		next = mach
		return
	}

	return
}

// SetRegister sets a register by name.
func (mach *Machine) SetRegister(name string, value uint16) (next *Machine, err error) {
	reg, err := cpu.ParseRegister(name)
	if err != nil {
		next = mach
		return
	}

	next = mach.clone()
	next.cpu.Register[reg] = value

	return
}

// SetPC sets the program counter.
func (mach *Machine) SetPC(addr int) (next *Machine, err error) {
	err = memory.Check(addr)
	if err != nil {
		next = mach
		return
	}

	next = mach.clone()
	next.cpu.Register[cpu.REG_PC] = uint16(addr)

	return
}

// SetMemory stores value at addr. The store goes directly to memory, so
// device registers are not triggered.
func (mach *Machine) SetMemory(addr int, value uint16) (next *Machine, err error) {
	err = memory.Check(addr)
	if err != nil {
		next = mach
		return
	}

	next = mach.clone()
	next.cpu.Memory.Poke(uint16(addr), value)

	return
}

// EnqueueStdin appends text to the keyboard queue.
func (mach *Machine) EnqueueStdin(text string) (next *Machine) {
	next = mach.clone()
	next.cpu.Console.Enqueue(text)
	return
}

// ClearStdin empties the keyboard queue.
func (mach *Machine) ClearStdin() (next *Machine) {
	next = mach.clone()
	next.cpu.Console.ClearStdin()
	return
}

// ClearStdout empties the display buffer.
func (mach *Machine) ClearStdout() (next *Machine) {
	next = mach.clone()
	next.cpu.Console.ClearStdout()
	return
}

// SetNewlineMode selects the sequence that later EnqueueStdin calls
// substitute for newlines.
func (mach *Machine) SetNewlineMode(mode io.NewlineMode) (next *Machine) {
	next = mach.clone()
	next.cpu.Console.Newline = mode
	return
}

// Register returns a register by name.
func (mach *Machine) Register(name string) (value uint16, err error) {
	reg, err := cpu.ParseRegister(name)
	if err != nil {
		return
	}

	value = mach.cpu.Register[reg]
	return
}

// Registers iterates over every register and its value.
func (mach *Machine) Registers() iter.Seq2[cpu.Register, uint16] {
	return mach.cpu.Register.All()
}

// PC returns the program counter.
func (mach *Machine) PC() uint16 {
	return mach.cpu.Register[cpu.REG_PC]
}

// ConditionCode returns -1, 0 or 1 from the PSR.
func (mach *Machine) ConditionCode() (int, error) {
	return cpu.ConditionCode(mach.cpu.Register[cpu.REG_PSR])
}

// Peek returns the value at addr as an instruction would read it,
// without side effects.
func (mach *Machine) Peek(addr int) (value uint16, err error) {
	err = memory.Check(addr)
	if err != nil {
		return
	}

	value = mach.cpu.Peek(uint16(addr))
	return
}

// Stdin returns the characters not yet read.
func (mach *Machine) Stdin() string {
	return mach.cpu.Console.Stdin
}

// Stdout returns the characters written.
func (mach *Machine) Stdout() string {
	return mach.cpu.Console.Stdout
}

// NewlineMode returns the current newline mode.
func (mach *Machine) NewlineMode() io.NewlineMode {
	return mach.cpu.Console.Newline
}

// Symbol looks up a label.
func (mach *Machine) Symbol(name string) (addr uint16, ok bool) {
	addr, ok = mach.symbols[name]
	return
}

// Symbols iterates over the labels in name order.
func (mach *Machine) Symbols() iter.Seq2[string, uint16] {
	return internal.IterSortedMap(mach.symbols)
}

// Halted returns true once the machine has stopped.
func (mach *Machine) Halted() bool {
	return mach.cpu.Halted
}

// AwaitingInput returns true if the last step is blocked in GETC or IN
// for want of input.
func (mach *Machine) AwaitingInput() bool {
	return mach.cpu.Waiting
}

// Disassemble returns the instruction stored at addr.
func (mach *Machine) Disassemble(addr int) (text string, err error) {
	err = memory.Check(addr)
	if err != nil {
		return
	}

	text = cpu.Code(mach.cpu.Memory.Peek(uint16(addr))).String()
	return
}

// String returns the register state.
func (mach *Machine) String() string {
	return mach.cpu.String()
}
