package io

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTape_Receive(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{Input: strings.NewReader("hello")}
	tape.Start()

	var text string
	for {
		chunk, err := tape.Receive(true)
		if err != nil {
			assert.Equal(ErrTapeEmpty, err)
			break
		}
		text += chunk
	}
	assert.Equal("hello", text)

	// Stays exhausted.
	_, err := tape.Receive(false)
	assert.Equal(ErrTapeEmpty, err)
}

func TestTape_NilInput(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{}
	tape.Start()

	_, err := tape.Receive(true)
	assert.Equal(ErrTapeEmpty, err)
}

func TestTape_Send(t *testing.T) {
	assert := assert.New(t)

	out := &bytes.Buffer{}
	tape := &Tape{Output: out}

	assert.NoError(tape.Send("abc"))
	assert.NoError(tape.Send(""))
	assert.Equal("abc", out.String())

	tape = &Tape{}
	assert.NoError(tape.Send("dropped"))
}
