// Package monitor drives an emulator.Machine from Starlark scripts:
// stepping, inspecting and editing the machine, and undoing changes.
package monitor

import (
	"fmt"
	"io"
	"log"
	"strconv"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/lc3sim/emulator"
)

const (
	RUN_LIMIT = 100000 // Default instruction limit of run().
)

// Monitor holds the current machine of a scripted session, and the
// snapshots that undo() returns to.
type Monitor struct {
	Verbose bool // If set, enables verbose logging.

	Machine *emulator.Machine // Current machine.
	History emulator.History  // Earlier machines, most recent last.
	Output  io.Writer         // Destination of print(), may be nil.
}

// NewMonitor creates a monitor of mach.
func NewMonitor(mach *emulator.Machine) (mon *Monitor) {
	mon = &Monitor{
		Machine: mach,
	}

	return
}

// update records the current machine for undo, and replaces it.
func (mon *Monitor) update(next *emulator.Machine) {
	if next == mon.Machine {
		return
	}

	mon.History.Push(mon.Machine)
	mon.Machine = next
}

// Undo restores the previous machine. It returns false if there is none.
func (mon *Monitor) Undo() (ok bool) {
	prior, ok := mon.History.Pop()
	if ok {
		mon.Machine = prior
	}

	return
}

// Step executes up to count instructions, stopping early once the machine
// halts or waits for input. A step that parks in GETC or IN for want of
// input is counted, as it changes the machine.
func (mon *Monitor) Step(count int) (steps int, err error) {
	for steps < count {
		if mon.Machine.Halted() {
			break
		}

		var next *emulator.Machine
		next, err = mon.Machine.Step()
		if err != nil {
			return
		}

		mon.update(next)
		steps++
		if next.AwaitingInput() {
			break
		}
	}

	if mon.Verbose {
		log.Printf("monitor: %d steps, pc x%04X", steps, mon.Machine.PC())
	}

	return
}

// Predeclared returns the monitor's builtins and the machine's defines.
func (mon *Monitor) Predeclared() (pred starlark.StringDict) {
	pred = starlark.StringDict{}

	for key, str := range mon.Machine.Defines() {
		value, err := strconv.ParseInt(str, 0, 64)
		if err != nil {
			// Only numeric defines are made available.
			continue
		}
		pred[key] = starlark.MakeInt64(value)
	}

	for name, fn := range mon.builtins() {
		pred[name] = starlark.NewBuiltin(name, fn)
	}

	return
}

// Run executes a Starlark script. src may be a string, []byte or
// io.Reader; if nil, filename is read.
func (mon *Monitor) Run(filename string, src any) (globals starlark.StringDict, err error) {
	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			if mon.Output != nil {
				fmt.Fprintln(mon.Output, msg)
			}
		},
	}
	opts := syntax.FileOptions{
		While:           true,
		TopLevelControl: true,
	}

	if mon.Verbose {
		log.Printf("monitor: run %v", filename)
	}

	globals, err = starlark.ExecFileOptions(&opts, thread, filename, src, mon.Predeclared())
	if err != nil {
		err = &ErrScript{Filename: filename, Err: err}
	}

	return
}
