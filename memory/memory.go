// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package memory implements the LC-3's 64K word address space.
//
// The address space is split into pages which are shared between clones
// and copied on the first write, so every machine snapshot keeps its own
// view of memory without copying all 128KiB per instruction.
package memory

import (
	"errors"
	"iter"
	"sync/atomic"

	"github.com/ezrec/lc3sim/translate"
)

var f = translate.From

const (
	MEMORY_SIZE = 1 << 16 // Words of addressable memory.
	PAGE_SHIFT  = 8
	PAGE_SIZE   = 1 << PAGE_SHIFT // Words per page.
	PAGE_MASK   = PAGE_SIZE - 1
	PAGE_COUNT  = MEMORY_SIZE / PAGE_SIZE
)

var (
	ErrOutOfRange = errors.New(f("address out of range"))
)

// ErrAddress records the offending address of an ErrOutOfRange.
type ErrAddress int

func (ea ErrAddress) Error() string {
	return f("address 0x%X", int(ea))
}

type page [PAGE_SIZE]uint16

var zeroPage = &page{}

// Memory is the address space. The zero value is all zeros.
//
// A page may be written in place only if this Memory copied it in the
// current generation of its lineage. Clone starts a new generation, so
// every page either copy holds becomes shared, and Clone only reads the
// receiver apart from an atomic increment.
type Memory struct {
	pages   [PAGE_COUNT]*page
	owned   [PAGE_COUNT]uint64 // Generation in which the page was copied.
	lineage *atomic.Uint64     // Generation counter shared by all clones.
}

// Check returns ErrOutOfRange if addr is not a valid address.
func Check(addr int) (err error) {
	if addr < 0 || addr >= MEMORY_SIZE {
		err = errors.Join(ErrOutOfRange, ErrAddress(addr))
	}
	return
}

// Len is always MEMORY_SIZE.
func (mem *Memory) Len() int {
	return MEMORY_SIZE
}

// Peek returns the stored word at addr.
func (mem *Memory) Peek(addr uint16) (value uint16) {
	pg := mem.pages[addr>>PAGE_SHIFT]
	if pg != nil {
		value = pg[addr&PAGE_MASK]
	}
	return
}

// Poke stores value at addr, copying the page first if it is shared.
func (mem *Memory) Poke(addr uint16, value uint16) {
	index := addr >> PAGE_SHIFT
	if !mem.owns(index) {
		if mem.lineage == nil {
			mem.lineage = &atomic.Uint64{}
			mem.lineage.Store(1)
		}
		pg := mem.pages[index]
		if pg == nil {
			pg = zeroPage
		}
		clone := *pg
		mem.pages[index] = &clone
		mem.owned[index] = mem.lineage.Load()
	}
	mem.pages[index][addr&PAGE_MASK] = value
}

// owns returns true if the page at index may be written in place.
func (mem *Memory) owns(index uint16) bool {
	if mem.lineage == nil {
		return false
	}
	owned := mem.owned[index]
	return owned != 0 && owned == mem.lineage.Load()
}

// Clone returns a copy of memory. Both copies share all pages until written.
// Clones of the same Memory may be taken concurrently.
func (mem *Memory) Clone() (clone Memory) {
	clone = *mem
	clear(clone.owned[:])
	if mem.lineage != nil {
		mem.lineage.Add(1)
	}
	return
}

// Range returns the words in [from, to).
func (mem *Memory) Range(from, to int) (words []uint16, err error) {
	if from > to {
		from, to = to, from
	}
	err = Check(from)
	if err != nil {
		return
	}
	if to > MEMORY_SIZE {
		err = errors.Join(ErrOutOfRange, ErrAddress(to))
		return
	}

	words = make([]uint16, 0, to-from)
	for addr := from; addr < to; addr++ {
		words = append(words, mem.Peek(uint16(addr)))
	}

	return
}

// All iterates over every address and its stored word.
func (mem *Memory) All() iter.Seq2[uint16, uint16] {
	return func(yield func(addr uint16, value uint16) bool) {
		for addr := range MEMORY_SIZE {
			if !yield(uint16(addr), mem.Peek(uint16(addr))) {
				return
			}
		}
	}
}

// Shared returns the number of pages not yet copied by this Memory.
func (mem *Memory) Shared() (count int) {
	for index := range PAGE_COUNT {
		if !mem.owns(uint16(index)) {
			count++
		}
	}
	return
}
