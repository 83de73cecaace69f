package monitor

import (
	"errors"

	"go.starlark.net/starlark"

	"github.com/ezrec/lc3sim/cpu"
	"github.com/ezrec/lc3sim/numeric"

	lc3io "github.com/ezrec/lc3sim/io"
)

type builtinFunc func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

// word converts a script integer to a machine word. Negative values
// down to -x8000 are taken as two's complement.
func word(value int) (w uint16, err error) {
	if value < -0x8000 || value > 0xffff {
		err = errors.Join(ErrValueRange, ErrValue(value))
		return
	}

	w = uint16(value)
	return
}

func (mon *Monitor) builtins() map[string]builtinFunc {
	return map[string]builtinFunc{
		"step":         mon.builtinStep,
		"run":          mon.builtinRun,
		"reg":          mon.builtinReg,
		"set_reg":      mon.builtinSetReg,
		"set_pc":       mon.builtinSetPC,
		"peek":         mon.builtinPeek,
		"poke":         mon.builtinPoke,
		"input":        mon.builtinInput,
		"output":       mon.builtinOutput,
		"clear_input":  mon.builtinClearInput,
		"clear_output": mon.builtinClearOutput,
		"newline":      mon.builtinNewline,
		"halted":       mon.builtinHalted,
		"waiting":      mon.builtinWaiting,
		"cc":           mon.builtinCC,
		"symbol":       mon.builtinSymbol,
		"disassemble":  mon.builtinDisassemble,
		"undo":         mon.builtinUndo,
		"hex":          builtinHex,
		"number":       builtinNumber,
	}
}

// step(n=1) executes up to n instructions, returning the count executed,
// including a final step left waiting for input.
func (mon *Monitor) builtinStep(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	count := 1
	err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &count)
	if err != nil {
		return nil, err
	}

	steps, err := mon.Step(count)
	if err != nil {
		return nil, err
	}

	return starlark.MakeInt(steps), nil
}

// run(limit=RUN_LIMIT) executes until the machine halts or waits for input,
// returning the count executed as step() does.
func (mon *Monitor) builtinRun(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	limit := RUN_LIMIT
	err := starlark.UnpackArgs(b.Name(), args, kwargs, "limit?", &limit)
	if err != nil {
		return nil, err
	}

	steps, err := mon.Step(limit)
	if err != nil {
		return nil, err
	}

	return starlark.MakeInt(steps), nil
}

func (mon *Monitor) builtinReg(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name)
	if err != nil {
		return nil, err
	}

	value, err := mon.Machine.Register(name)
	if err != nil {
		return nil, err
	}

	return starlark.MakeInt(int(value)), nil
}

func (mon *Monitor) builtinSetReg(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var value int
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &name, &value)
	if err != nil {
		return nil, err
	}

	w, err := word(value)
	if err != nil {
		return nil, err
	}

	next, err := mon.Machine.SetRegister(name, w)
	if err != nil {
		return nil, err
	}
	mon.update(next)

	return starlark.None, nil
}

func (mon *Monitor) builtinSetPC(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr int
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addr)
	if err != nil {
		return nil, err
	}

	next, err := mon.Machine.SetPC(addr)
	if err != nil {
		return nil, err
	}
	mon.update(next)

	return starlark.None, nil
}

func (mon *Monitor) builtinPeek(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr int
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addr)
	if err != nil {
		return nil, err
	}

	value, err := mon.Machine.Peek(addr)
	if err != nil {
		return nil, err
	}

	return starlark.MakeInt(int(value)), nil
}

func (mon *Monitor) builtinPoke(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr, value int
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &addr, &value)
	if err != nil {
		return nil, err
	}

	w, err := word(value)
	if err != nil {
		return nil, err
	}

	next, err := mon.Machine.SetMemory(addr, w)
	if err != nil {
		return nil, err
	}
	mon.update(next)

	return starlark.None, nil
}

func (mon *Monitor) builtinInput(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &text)
	if err != nil {
		return nil, err
	}

	mon.update(mon.Machine.EnqueueStdin(text))

	return starlark.None, nil
}

// output(clear=False) returns the display buffer.
func (mon *Monitor) builtinOutput(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var clear bool
	err := starlark.UnpackArgs(b.Name(), args, kwargs, "clear?", &clear)
	if err != nil {
		return nil, err
	}

	text := mon.Machine.Stdout()
	if clear {
		mon.update(mon.Machine.ClearStdout())
	}

	return starlark.String(text), nil
}

func (mon *Monitor) builtinClearInput(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0)
	if err != nil {
		return nil, err
	}

	mon.update(mon.Machine.ClearStdin())

	return starlark.None, nil
}

func (mon *Monitor) builtinClearOutput(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0)
	if err != nil {
		return nil, err
	}

	mon.update(mon.Machine.ClearStdout())

	return starlark.None, nil
}

// newline(mode) selects "lf", "cr" or "crlf" for later input().
func (mon *Monitor) builtinNewline(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &text)
	if err != nil {
		return nil, err
	}

	mode, err := lc3io.ParseNewlineMode(text)
	if err != nil {
		return nil, err
	}

	mon.update(mon.Machine.SetNewlineMode(mode))

	return starlark.None, nil
}

func (mon *Monitor) builtinHalted(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0)
	if err != nil {
		return nil, err
	}

	return starlark.Bool(mon.Machine.Halted()), nil
}

func (mon *Monitor) builtinWaiting(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0)
	if err != nil {
		return nil, err
	}

	return starlark.Bool(mon.Machine.AwaitingInput()), nil
}

// cc() returns "N", "Z", "P" or "Invalid".
func (mon *Monitor) builtinCC(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0)
	if err != nil {
		return nil, err
	}

	psr, err := mon.Machine.Register(cpu.REG_PSR.String())
	if err != nil {
		return nil, err
	}

	return starlark.String(cpu.FormatConditionCode(psr)), nil
}

// symbol(name) returns the address of a label, or None.
func (mon *Monitor) builtinSymbol(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name)
	if err != nil {
		return nil, err
	}

	addr, ok := mon.Machine.Symbol(name)
	if !ok {
		return starlark.None, nil
	}

	return starlark.MakeInt(int(addr)), nil
}

func (mon *Monitor) builtinDisassemble(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr int
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addr)
	if err != nil {
		return nil, err
	}

	text, err := mon.Machine.Disassemble(addr)
	if err != nil {
		return nil, err
	}

	return starlark.String(text), nil
}

// undo() restores the machine before the last change, returning False if
// there is no earlier machine.
func (mon *Monitor) builtinUndo(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0)
	if err != nil {
		return nil, err
	}

	return starlark.Bool(mon.Undo()), nil
}

// hex(value, digits=4, prefix="x")
func builtinHex(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value int
	digits := numeric.HEX_DIGITS
	prefix := numeric.HEX_PREFIX
	err := starlark.UnpackArgs(b.Name(), args, kwargs, "value", &value, "digits?", &digits, "prefix?", &prefix)
	if err != nil {
		return nil, err
	}

	return starlark.String(numeric.ToHexString(value, digits, prefix)), nil
}

// number(text) parses decimal or x-prefixed hex.
func builtinNumber(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &text)
	if err != nil {
		return nil, err
	}

	value, err := numeric.ParseNumber(text)
	if err != nil {
		return nil, err
	}

	return starlark.MakeInt(value), nil
}
