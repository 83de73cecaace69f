package cpu

import (
	"encoding/binary"
	"errors"
	"io"
	"iter"

	"github.com/ezrec/lc3sim/memory"

	lc3io "github.com/ezrec/lc3sim/io"
)

// Program is a loadable memory image: machine code to place at Origin,
// and the labels it defines.
type Program struct {
	Origin  int               // Address of the first word of Code.
	Code    []uint16          // Machine code.
	Symbols map[string]uint16 // Labels, may be nil.
}

// Codes iterates over each address of the program and its code.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(addr uint16, code Code) bool) {
		for n, word := range prog.Code {
			if !yield(uint16(prog.Origin+n), Code(word)) {
				return
			}
		}
	}
}

// Check verifies the program fits in memory without covering a device
// register.
func (prog *Program) Check() (err error) {
	end := prog.Origin + len(prog.Code)
	if prog.Origin < 0 {
		err = errors.Join(memory.ErrOutOfRange, memory.ErrAddress(prog.Origin))
		return
	}
	if end > memory.MEMORY_SIZE {
		err = errors.Join(memory.ErrOutOfRange, memory.ErrAddress(end-1))
		return
	}

	for addr := range prog.Codes() {
		if lc3io.IsDevice(addr) {
			err = errors.Join(ErrDeviceOverlap, memory.ErrAddress(addr))
			return
		}
	}

	return
}

// ReadObject reads an object image: a big-endian origin word followed by
// big-endian code words.
func ReadObject(r io.Reader) (prog *Program, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	if len(data) < 2 || len(data)%2 != 0 {
		err = ErrObjectFormat
		return
	}

	prog = &Program{
		Origin: int(binary.BigEndian.Uint16(data)),
		Code:   make([]uint16, 0, len(data)/2-1),
	}

	for n := 2; n < len(data); n += 2 {
		prog.Code = append(prog.Code, binary.BigEndian.Uint16(data[n:]))
	}

	err = prog.Check()
	if err != nil {
		prog = nil
	}

	return
}

// WriteObject writes the program as an object image.
func (prog *Program) WriteObject(w io.Writer) (err error) {
	err = prog.Check()
	if err != nil {
		return
	}

	data := make([]byte, 0, 2*(len(prog.Code)+1))
	data = binary.BigEndian.AppendUint16(data, uint16(prog.Origin))
	for _, word := range prog.Code {
		data = binary.BigEndian.AppendUint16(data, word)
	}

	_, err = w.Write(data)
	return
}
