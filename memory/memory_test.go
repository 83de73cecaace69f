package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}

	assert.Equal(MEMORY_SIZE, mem.Len())
	assert.Equal(uint16(0), mem.Peek(0x3000))
	assert.Equal(uint16(0), mem.Peek(0xffff))

	mem.Poke(0x3000, 0x1234)
	mem.Poke(0xffff, 0xabcd)
	assert.Equal(uint16(0x1234), mem.Peek(0x3000))
	assert.Equal(uint16(0xabcd), mem.Peek(0xffff))
	assert.Equal(uint16(0), mem.Peek(0x3001))
	assert.Equal(PAGE_COUNT-2, mem.Shared())
}

func TestMemory_Clone(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem.Poke(0x3000, 1)

	clone := mem.Clone()
	assert.Equal(PAGE_COUNT, clone.Shared())
	assert.Equal(uint16(1), clone.Peek(0x3000))

	clone.Poke(0x3000, 2)
	clone.Poke(0x4000, 3)
	assert.Equal(uint16(1), mem.Peek(0x3000))
	assert.Equal(uint16(0), mem.Peek(0x4000))
	assert.Equal(uint16(2), clone.Peek(0x3000))
	assert.Equal(uint16(3), clone.Peek(0x4000))

	// Writes to the original after a clone do not leak either.
	mem.Poke(0x3001, 4)
	assert.Equal(uint16(0), clone.Peek(0x3001))
	assert.Equal(uint16(4), mem.Peek(0x3001))
}

func TestMemory_CloneReceiver(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem.Poke(0x3000, 1)
	assert.Equal(PAGE_COUNT-1, mem.Shared())

	// Cloning leaves the receiver's fields as they were.
	pages := mem.pages
	owned := mem.owned
	first := mem.Clone()
	second := mem.Clone()
	assert.Equal(pages, mem.pages)
	assert.Equal(owned, mem.owned)

	// Every page is now shared by all three.
	assert.Equal(PAGE_COUNT, mem.Shared())
	assert.Equal(PAGE_COUNT, first.Shared())

	first.Poke(0x3000, 2)
	second.Poke(0x3000, 3)
	mem.Poke(0x3000, 4)
	assert.Equal(uint16(2), first.Peek(0x3000))
	assert.Equal(uint16(3), second.Peek(0x3000))
	assert.Equal(uint16(4), mem.Peek(0x3000))

	// A clone of a clone does not leak into its parent.
	third := first.Clone()
	third.Poke(0x3000, 5)
	first.Poke(0x3001, 6)
	assert.Equal(uint16(2), first.Peek(0x3000))
	assert.Equal(uint16(0), third.Peek(0x3001))
	assert.Equal(uint16(0), mem.Peek(0x3001))
}

func TestMemory_CloneConcurrent(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem.Poke(0x3000, 0xffff)

	clones := make([]Memory, 8)

	var wg sync.WaitGroup
	for n := range clones {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clone := mem.Clone()
			clone.Poke(0x3000, uint16(n))
			clones[n] = clone
		}()
	}
	wg.Wait()

	for n := range clones {
		assert.Equal(uint16(n), clones[n].Peek(0x3000))
	}
	assert.Equal(uint16(0xffff), mem.Peek(0x3000))
}

func TestMemory_Range(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem.Poke(0x2fff, 7)
	mem.Poke(0x3000, 8)

	words, err := mem.Range(0x2ffe, 0x3002)
	assert.NoError(err)
	assert.Equal([]uint16{0, 7, 8, 0}, words)

	words, err = mem.Range(0xfffe, MEMORY_SIZE)
	assert.NoError(err)
	assert.Len(words, 2)

	_, err = mem.Range(0xfffe, MEMORY_SIZE+1)
	assert.True(errors.Is(err, ErrOutOfRange))

	_, err = mem.Range(-1, 2)
	assert.True(errors.Is(err, ErrOutOfRange))
}

func TestCheck(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(Check(0))
	assert.NoError(Check(0xffff))

	err := Check(0x10000)
	assert.True(errors.Is(err, ErrOutOfRange))
	assert.True(errors.Is(err, ErrAddress(0x10000)))

	assert.True(errors.Is(Check(-1), ErrOutOfRange))
}

func TestMemory_All(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem.Poke(5, 9)

	count := 0
	for addr, value := range mem.All() {
		if addr == 5 {
			assert.Equal(uint16(9), value)
		} else if value != 0 {
			t.Fatalf("unexpected 0x%04x at 0x%04x", value, addr)
		}
		count++
	}
	assert.Equal(MEMORY_SIZE, count)
}
