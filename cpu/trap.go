package cpu

import (
	"log"
	"strings"

	"github.com/ezrec/lc3sim/memory"
)

// Trap vectors of the console service routines.
const (
	TRAP_GETC  = uint16(0x20) // Read a character into R0, no echo.
	TRAP_OUT   = uint16(0x21) // Write the character in R0.
	TRAP_PUTS  = uint16(0x22) // Write the word string at R0.
	TRAP_IN    = uint16(0x23) // Prompt, read and echo a character into R0.
	TRAP_PUTSP = uint16(0x24) // Write the byte packed string at R0.
	TRAP_HALT  = uint16(0x25) // Halt the machine.
)

const (
	IN_PROMPT    = "\nInput a character> "
	HALT_MESSAGE = "\n--- halting the LC-3 ---\n"
)

// trap enters the service routine for vector. A routine installed in the
// trap vector table is jumped to; otherwise the console routines are
// serviced in a single step.
func (cpu *Cpu) trap(vector uint16) (err error) {
	reg := &cpu.Register
	pc := reg[REG_PC]

	routine := cpu.Memory.Peek(TRAP_VECTOR_TABLE + vector)
	if routine != 0 {
		reg[REG_R7] = pc
		reg[REG_PC] = routine
		return
	}

	if cpu.Verbose {
		log.Printf("cpu: trap x%02X", vector)
	}

	switch vector {
	case TRAP_GETC, TRAP_IN:
		key, ok := cpu.Console.ReadKey()
		if !ok {
			// Re-execute the TRAP once input arrives.
			reg[REG_PC] = pc - 1
			cpu.Waiting = true
			return
		}
		if vector == TRAP_IN {
			cpu.Console.WriteString(IN_PROMPT)
			cpu.Console.WriteChar(key)
			cpu.Console.WriteString("\n")
		}
		cpu.setResult(REG_R0, key)
	case TRAP_OUT:
		cpu.Console.WriteChar(reg[REG_R0])
	case TRAP_PUTS, TRAP_PUTSP:
		var text string
		text, err = cpu.readString(reg[REG_R0], vector == TRAP_PUTSP)
		if err != nil {
			return
		}
		cpu.Console.WriteString(text)
	case TRAP_HALT:
		cpu.Console.WriteString(HALT_MESSAGE)
		cpu.Halted = true
	default:
		err = ErrTrapVector
		return
	}

	reg[REG_R7] = pc

	return
}

// readString collects a zero terminated string starting at addr, one
// character per word, or two per word (low byte first) if packed.
func (cpu *Cpu) readString(addr uint16, packed bool) (text string, err error) {
	var sb strings.Builder

	for ea := int(addr); ; ea++ {
		err = memory.Check(ea)
		if err != nil {
			return
		}

		word := cpu.Peek(uint16(ea))
		if word == 0 {
			break
		}

		sb.WriteByte(byte(word))
		if packed && (word>>8) != 0 {
			sb.WriteByte(byte(word >> 8))
		}
	}

	text = sb.String()
	return
}
