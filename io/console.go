// Package io provides the LC-3 console: the keyboard and display
// device registers, the console buffers behind them, and the host Tape
// adapter that connects the console to real readers and writers.
package io

import (
	"fmt"
	"iter"
	"maps"
	"strings"
)

// Memory mapped device register addresses.
const (
	KBSR = uint16(0xFE00) // Keyboard status register.
	KBDR = uint16(0xFE02) // Keyboard data register.
	DSR  = uint16(0xFE04) // Display status register.
	DDR  = uint16(0xFE06) // Display data register.
	MCR  = uint16(0xFFFE) // Machine control register.

	STATUS_READY = uint16(0x8000) // Ready bit of KBSR and DSR, clock enable of MCR.
)

var _io_defines = map[string]string{
	"KBSR":         fmt.Sprintf("0x%04X", KBSR),
	"KBDR":         fmt.Sprintf("0x%04X", KBDR),
	"DSR":          fmt.Sprintf("0x%04X", DSR),
	"DDR":          fmt.Sprintf("0x%04X", DDR),
	"MCR":          fmt.Sprintf("0x%04X", MCR),
	"STATUS_READY": fmt.Sprintf("0x%04X", STATUS_READY),
}

// Defines returns an iterator over the device register names.
func Defines() iter.Seq2[string, string] {
	return maps.All(_io_defines)
}

// IsDevice returns true if addr is a device register rather than storage.
func IsDevice(addr uint16) bool {
	switch addr {
	case KBSR, KBDR, DSR, DDR, MCR:
		return true
	}
	return false
}

// NewlineMode selects the character sequence queued for a typed newline.
type NewlineMode int

const (
	NEWLINE_LF   = NewlineMode(0) // lf
	NEWLINE_CR   = NewlineMode(1) // cr
	NEWLINE_CRLF = NewlineMode(2) // crlf
)

var newlineName = map[NewlineMode]string{
	NEWLINE_LF:   "lf",
	NEWLINE_CR:   "cr",
	NEWLINE_CRLF: "crlf",
}

var newlineText = map[NewlineMode]string{
	NEWLINE_LF:   "\n",
	NEWLINE_CR:   "\r",
	NEWLINE_CRLF: "\r\n",
}

func (nm NewlineMode) String() string {
	name, ok := newlineName[nm]
	if !ok {
		return fmt.Sprintf("NewlineMode(%d)", int(nm))
	}
	return name
}

// ParseNewlineMode parses "lf", "cr" or "crlf".
func ParseNewlineMode(text string) (mode NewlineMode, err error) {
	for mode, name := range newlineName {
		if strings.EqualFold(name, text) {
			return mode, nil
		}
	}
	err = ErrNewlineMode(text)
	return
}

// Console is the state behind the keyboard and display registers.
// Stdin is the FIFO of bytes not yet read through KBDR, Stdout
// everything written through DDR or the console traps.
type Console struct {
	Stdin   string
	Stdout  string
	Newline NewlineMode
}

// Enqueue appends text to Stdin, rewriting newlines for the newline mode.
func (con *Console) Enqueue(text string) {
	nl, ok := newlineText[con.Newline]
	if !ok {
		nl = "\n"
	}

	var sb strings.Builder
	sb.WriteString(con.Stdin)
	for n := 0; n < len(text); n++ {
		switch text[n] {
		case '\r':
			if n+1 < len(text) && text[n+1] == '\n' {
				n++
			}
			sb.WriteString(nl)
		case '\n':
			sb.WriteString(nl)
		default:
			sb.WriteByte(text[n])
		}
	}

	con.Stdin = sb.String()
}

// Ready returns true if a character is waiting in Stdin.
func (con *Console) Ready() bool {
	return len(con.Stdin) > 0
}

// Status is the live value of KBSR.
func (con *Console) Status() (status uint16) {
	if con.Ready() {
		status = STATUS_READY
	}
	return
}

// NextKey returns the next Stdin byte without consuming it.
func (con *Console) NextKey() (key uint16, ok bool) {
	if !con.Ready() {
		return
	}
	key = uint16(con.Stdin[0])
	ok = true
	return
}

// ReadKey consumes the next Stdin byte. An empty queue yields 0 and
// is left untouched.
func (con *Console) ReadKey() (key uint16, ok bool) {
	key, ok = con.NextKey()
	if ok {
		con.Stdin = con.Stdin[1:]
	}
	return
}

// WriteChar appends the low byte of value to Stdout.
func (con *Console) WriteChar(value uint16) {
	con.Stdout += string([]byte{byte(value)})
}

// WriteString appends text to Stdout.
func (con *Console) WriteString(text string) {
	con.Stdout += text
}

// ClearStdin drops all queued input.
func (con *Console) ClearStdin() {
	con.Stdin = ""
}

// ClearStdout drops all buffered output.
func (con *Console) ClearStdout() {
	con.Stdout = ""
}

// Peek returns the value a read of a console register would give,
// without side effects. ok is false if addr is not a console register.
func (con *Console) Peek(addr uint16) (value uint16, ok bool) {
	ok = true
	switch addr {
	case KBSR:
		value = con.Status()
	case KBDR:
		value, _ = con.NextKey()
	case DSR:
		value = STATUS_READY
	case DDR:
		value = 0
	default:
		ok = false
	}
	return
}

// Read performs a console register read. Reading KBDR consumes a
// character. ok is false if addr is not a console register.
func (con *Console) Read(addr uint16) (value uint16, ok bool) {
	if addr == KBDR {
		value, _ = con.ReadKey()
		ok = true
		return
	}
	return con.Peek(addr)
}

// Write performs a console register write. Writing DDR displays a
// character; the status registers are read only. ok is false if addr is
// not a console register.
func (con *Console) Write(addr uint16, value uint16) (ok bool) {
	switch addr {
	case DDR:
		con.WriteChar(value)
		ok = true
	case KBSR, KBDR, DSR:
		ok = true
	}
	return
}
