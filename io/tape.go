package io

import (
	"io"
	"log"
)

const (
	TAPE_BUFFER = 256 // Bytes per host read.
)

// Tape connects a console to host streams. Input is read by a background
// goroutine and handed over between instruction steps, so the console
// itself is only ever touched by the stepping goroutine.
type Tape struct {
	Verbose bool
	Input   io.Reader
	Output  io.Writer

	keys   chan string
	closed bool
}

// Start begins reading Input. A nil Input behaves as an empty tape.
func (tc *Tape) Start() {
	tc.keys = make(chan string, 16)

	if tc.Input == nil {
		close(tc.keys)
		return
	}

	go func() {
		defer close(tc.keys)
		buf := make([]byte, TAPE_BUFFER)
		for {
			n, err := tc.Input.Read(buf)
			if n > 0 {
				tc.keys <- string(buf[:n])
			}
			if err != nil {
				if err != io.EOF && tc.Verbose {
					log.Printf("tape: %v", err)
				}
				return
			}
		}
	}()
}

// Receive returns input read since the last call. If wait is set it
// blocks until some input arrives. ErrTapeEmpty is returned once Input is
// exhausted and all of it has been received.
func (tc *Tape) Receive(wait bool) (text string, err error) {
	if tc.closed || tc.keys == nil {
		err = ErrTapeEmpty
		return
	}

	if wait {
		chunk, ok := <-tc.keys
		if !ok {
			tc.closed = true
			err = ErrTapeEmpty
			return
		}
		text = chunk
	}

	for {
		select {
		case chunk, ok := <-tc.keys:
			if !ok {
				tc.closed = true
				if len(text) == 0 {
					err = ErrTapeEmpty
				}
				return
			}
			text += chunk
		default:
			return
		}
	}
}

// Send writes console output to Output.
func (tc *Tape) Send(text string) (err error) {
	if len(text) == 0 || tc.Output == nil {
		return
	}

	_, err = io.WriteString(tc.Output, text)
	return
}
