package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/lc3sim/io"
	"github.com/ezrec/lc3sim/memory"
)

// newTestCpu creates a CPU with codes loaded at USER_SPACE.
func newTestCpu(t *testing.T, codes ...Code) (cpu *Cpu) {
	cpu = NewCpu()

	prog := &Program{Origin: int(USER_SPACE)}
	for _, code := range codes {
		prog.Code = append(prog.Code, uint16(code))
	}

	err := cpu.Load(prog)
	assert.NoError(t, err)

	return
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	assert.Equal(USER_SPACE, cpu.Register[REG_PC])
	assert.Equal(PSR_DEFAULT, cpu.Register[REG_PSR])
	assert.False(cpu.Halted)
	assert.False(cpu.Waiting)

	cc, err := ConditionCode(cpu.Register[REG_PSR])
	assert.NoError(err)
	assert.Equal(0, cc)

	for reg, value := range cpu.Register.All() {
		switch reg {
		case REG_PC, REG_PSR:
		default:
			assert.Equal(uint16(0), value, reg.String())
		}
	}

	cpu.Register[REG_R3] = 0x1234
	cpu.Memory.Poke(0x4000, 0x5678)
	cpu.Console.Enqueue("abc")
	cpu.Halted = true
	cpu.Reset()
	assert.Equal(uint16(0), cpu.Register[REG_R3])
	assert.Equal(uint16(0), cpu.Memory.Peek(0x4000))
	assert.Equal("", cpu.Console.Stdin)
	assert.False(cpu.Halted)
}

func TestCpu_Execute(t *testing.T) {
	table := [](struct {
		name  string
		codes []Code
		setup func(cpu *Cpu)
		steps int
		check func(assert *assert.Assertions, cpu *Cpu)
	}){
		{
			name:  "add-immediate",
			codes: []Code{MakeCodeAddImm(REG_R2, REG_R1, -3)},
			setup: func(cpu *Cpu) { cpu.Register[REG_R1] = 5 },
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(2), cpu.Register[REG_R2])
				assert.Equal(PSR_USER|CC_P, cpu.Register[REG_PSR])
				assert.Equal(uint16(0x3001), cpu.Register[REG_PC])
				assert.Equal(uint16(0x147D), cpu.Register[REG_IR])
				assert.Equal(uint16(0x3000), cpu.Register[REG_MAR])
				assert.Equal(uint16(0x147D), cpu.Register[REG_MDR])
			},
		},
		{
			name:  "add-register-overflow",
			codes: []Code{MakeCodeAdd(REG_R3, REG_R1, REG_R2)},
			setup: func(cpu *Cpu) {
				cpu.Register[REG_R1] = 0x7fff
				cpu.Register[REG_R2] = 1
			},
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x8000), cpu.Register[REG_R3])
				assert.Equal(PSR_USER|CC_N, cpu.Register[REG_PSR])
			},
		},
		{
			name:  "and-clear",
			codes: []Code{MakeCodeAndImm(REG_R2, REG_R1, 0)},
			setup: func(cpu *Cpu) { cpu.Register[REG_R1] = 0x00ff },
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0), cpu.Register[REG_R2])
				assert.Equal(PSR_USER|CC_Z, cpu.Register[REG_PSR])
			},
		},
		{
			name:  "and-mask",
			codes: []Code{MakeCodeAndImm(REG_R2, REG_R1, -1), MakeCodeAnd(REG_R3, REG_R1, REG_R4)},
			setup: func(cpu *Cpu) {
				cpu.Register[REG_R1] = 0x00ff
				cpu.Register[REG_R4] = 0x0f0f
			},
			steps: 2,
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x00ff), cpu.Register[REG_R2])
				assert.Equal(uint16(0x000f), cpu.Register[REG_R3])
				assert.Equal(PSR_USER|CC_P, cpu.Register[REG_PSR])
			},
		},
		{
			name:  "not",
			codes: []Code{MakeCodeNot(REG_R2, REG_R1)},
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0xffff), cpu.Register[REG_R2])
				assert.Equal(PSR_USER|CC_N, cpu.Register[REG_PSR])
			},
		},
		{
			name:  "br-taken",
			codes: []Code{MakeCodeBr(CC_Z, 2)},
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x3003), cpu.Register[REG_PC])
				assert.Equal(PSR_DEFAULT, cpu.Register[REG_PSR])
			},
		},
		{
			name:  "br-not-taken",
			codes: []Code{MakeCodeBr(CC_N|CC_P, 2)},
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x3001), cpu.Register[REG_PC])
			},
		},
		{
			name:  "br-backward",
			codes: []Code{MakeCodeAddImm(REG_R0, REG_R0, 1), MakeCodeBr(CC_P, -2)},
			steps: 2,
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x3000), cpu.Register[REG_PC])
				assert.Equal(uint16(1), cpu.Register[REG_R0])
			},
		},
		{
			name:  "nop",
			codes: []Code{MakeCodeBr(0, 5)},
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x3001), cpu.Register[REG_PC])
			},
		},
		{
			name:  "jmp",
			codes: []Code{MakeCodeJmp(REG_R3)},
			setup: func(cpu *Cpu) { cpu.Register[REG_R3] = 0x4000 },
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x4000), cpu.Register[REG_PC])
				assert.Equal(PSR_DEFAULT, cpu.Register[REG_PSR])
			},
		},
		{
			name:  "ret",
			codes: []Code{MakeCodeRet()},
			setup: func(cpu *Cpu) { cpu.Register[REG_R7] = 0x3010 },
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x3010), cpu.Register[REG_PC])
			},
		},
		{
			name:  "jsr",
			codes: []Code{MakeCodeJsr(5)},
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x3001), cpu.Register[REG_R7])
				assert.Equal(uint16(0x3006), cpu.Register[REG_PC])
			},
		},
		{
			name:  "jsrr",
			codes: []Code{MakeCodeJsrr(REG_R3)},
			setup: func(cpu *Cpu) { cpu.Register[REG_R3] = 0x5000 },
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x3001), cpu.Register[REG_R7])
				assert.Equal(uint16(0x5000), cpu.Register[REG_PC])
			},
		},
		{
			name:  "jsrr-r7",
			codes: []Code{MakeCodeJsrr(REG_R7)},
			setup: func(cpu *Cpu) { cpu.Register[REG_R7] = 0x5000 },
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x3001), cpu.Register[REG_R7])
				assert.Equal(uint16(0x5000), cpu.Register[REG_PC])
			},
		},
		{
			name:  "ld",
			codes: []Code{MakeCodeLd(REG_R0, 1), 0, 0x8000},
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x8000), cpu.Register[REG_R0])
				assert.Equal(PSR_USER|CC_N, cpu.Register[REG_PSR])
				assert.Equal(uint16(0x3002), cpu.Register[REG_MAR])
				assert.Equal(uint16(0x8000), cpu.Register[REG_MDR])
			},
		},
		{
			name:  "ldi",
			codes: []Code{MakeCodeLdi(REG_R0, 1), 0, 0x4000},
			setup: func(cpu *Cpu) { cpu.Memory.Poke(0x4000, 0x0042) },
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x0042), cpu.Register[REG_R0])
				assert.Equal(PSR_USER|CC_P, cpu.Register[REG_PSR])
				assert.Equal(uint16(0x4000), cpu.Register[REG_MAR])
				assert.Equal(uint16(0x0042), cpu.Register[REG_MDR])
			},
		},
		{
			name:  "ldr",
			codes: []Code{MakeCodeLdr(REG_R0, REG_R1, -1)},
			setup: func(cpu *Cpu) {
				cpu.Register[REG_R1] = 0x4001
				cpu.Memory.Poke(0x4000, 7)
			},
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(7), cpu.Register[REG_R0])
				assert.Equal(PSR_USER|CC_P, cpu.Register[REG_PSR])
			},
		},
		{
			name:  "lea",
			codes: []Code{MakeCodeLea(REG_R0, -1)},
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x3000), cpu.Register[REG_R0])
				assert.Equal(PSR_USER|CC_P, cpu.Register[REG_PSR])
			},
		},
		{
			name:  "st",
			codes: []Code{MakeCodeSt(REG_R1, 1)},
			setup: func(cpu *Cpu) { cpu.Register[REG_R1] = 0x1234 },
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x1234), cpu.Memory.Peek(0x3002))
				assert.Equal(PSR_DEFAULT, cpu.Register[REG_PSR])
				assert.Equal(uint16(0x3002), cpu.Register[REG_MAR])
				assert.Equal(uint16(0x1234), cpu.Register[REG_MDR])
			},
		},
		{
			name:  "sti",
			codes: []Code{MakeCodeSti(REG_R1, 1), 0, 0x4000},
			setup: func(cpu *Cpu) { cpu.Register[REG_R1] = 0x8765 },
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x8765), cpu.Memory.Peek(0x4000))
				assert.Equal(uint16(0x4000), cpu.Memory.Peek(0x3002))
				assert.Equal(PSR_DEFAULT, cpu.Register[REG_PSR])
			},
		},
		{
			name:  "str",
			codes: []Code{MakeCodeStr(REG_R1, REG_R2, 2)},
			setup: func(cpu *Cpu) {
				cpu.Register[REG_R1] = 0xbeef
				cpu.Register[REG_R2] = 0x4000
			},
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0xbeef), cpu.Memory.Peek(0x4002))
			},
		},
		{
			name:  "keyboard",
			codes: []Code{MakeCodeLdr(REG_R0, REG_R1, 0), MakeCodeLdr(REG_R2, REG_R1, 2)},
			setup: func(cpu *Cpu) {
				cpu.Register[REG_R1] = io.KBSR
				cpu.Console.Enqueue("ab")
			},
			steps: 2,
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(io.STATUS_READY, cpu.Register[REG_R0])
				assert.Equal(uint16('a'), cpu.Register[REG_R2])
				assert.Equal("b", cpu.Console.Stdin)
			},
		},
		{
			name:  "keyboard-empty",
			codes: []Code{MakeCodeLdr(REG_R0, REG_R1, 0), MakeCodeLdr(REG_R2, REG_R1, 2)},
			setup: func(cpu *Cpu) {
				cpu.Register[REG_R1] = io.KBSR
				cpu.Register[REG_R2] = 0x1234
			},
			steps: 2,
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0), cpu.Register[REG_R0])
				assert.Equal(uint16(0), cpu.Register[REG_R2])
				assert.Equal(PSR_USER|CC_Z, cpu.Register[REG_PSR])
			},
		},
		{
			name:  "display",
			codes: []Code{MakeCodeLdr(REG_R3, REG_R1, 4), MakeCodeStr(REG_R0, REG_R1, 6)},
			setup: func(cpu *Cpu) {
				cpu.Register[REG_R0] = 'H'
				cpu.Register[REG_R1] = io.KBSR
			},
			steps: 2,
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(io.STATUS_READY, cpu.Register[REG_R3])
				assert.Equal("H", cpu.Console.Stdout)
				assert.Equal(uint16(0), cpu.Memory.Peek(io.DDR))
			},
		},
		{
			name:  "machine-control",
			codes: []Code{MakeCodeLdr(REG_R2, REG_R1, 0), MakeCodeStr(REG_R0, REG_R1, 0)},
			setup: func(cpu *Cpu) { cpu.Register[REG_R1] = io.MCR },
			steps: 2,
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(io.STATUS_READY, cpu.Register[REG_R2])
				assert.True(cpu.Halted)
				assert.Equal(uint16(0), cpu.Peek(io.MCR))
			},
		},
		{
			name:  "rti-to-user",
			codes: []Code{MakeCodeRti()},
			setup: func(cpu *Cpu) {
				cpu.Register[REG_PSR] = CC_Z
				cpu.Register[REG_R6] = 0x2FFE
				cpu.Register[REG_USP] = 0xF000
				cpu.Memory.Poke(0x2FFE, 0x3100)
				cpu.Memory.Poke(0x2FFF, PSR_USER|CC_P)
			},
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x3100), cpu.Register[REG_PC])
				assert.Equal(PSR_USER|CC_P, cpu.Register[REG_PSR])
				assert.Equal(uint16(0x3000), cpu.Register[REG_SSP])
				assert.Equal(uint16(0xF000), cpu.Register[REG_R6])
			},
		},
		{
			name:  "rti-to-supervisor",
			codes: []Code{MakeCodeRti()},
			setup: func(cpu *Cpu) {
				cpu.Register[REG_PSR] = CC_Z
				cpu.Register[REG_R6] = 0x2FFE
				cpu.Register[REG_USP] = 0xF000
				cpu.Memory.Poke(0x2FFE, 0x0400)
				cpu.Memory.Poke(0x2FFF, CC_N)
			},
			check: func(assert *assert.Assertions, cpu *Cpu) {
				assert.Equal(uint16(0x0400), cpu.Register[REG_PC])
				assert.Equal(CC_N, cpu.Register[REG_PSR])
				assert.Equal(uint16(0x3000), cpu.Register[REG_R6])
				assert.Equal(uint16(0), cpu.Register[REG_SSP])
			},
		},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			cpu := newTestCpu(t, entry.codes...)
			if entry.setup != nil {
				entry.setup(cpu)
			}

			steps := max(entry.steps, 1)
			for range steps {
				err := cpu.Step()
				assert.NoError(err)
			}

			cc, err := ConditionCode(cpu.Register[REG_PSR])
			assert.NoError(err)
			assert.Contains([]int{-1, 0, 1}, cc)

			entry.check(assert, cpu)
		})
	}
}

func TestCpu_Illegal(t *testing.T) {
	table := [](struct {
		name  string
		word  uint16
		setup func(cpu *Cpu)
		err   error
	}){
		{name: "reserved", word: 0xD000, err: ErrOpcodeReserved},
		{name: "add-bits", word: 0x1048, err: ErrOpcodeBits},
		{name: "not-bits", word: 0x9240, err: ErrOpcodeBits},
		{name: "jmp-bits", word: 0xC1C1, err: ErrOpcodeBits},
		{name: "trap-bits", word: 0xF125, err: ErrOpcodeBits},
		{name: "trap-unknown", word: 0xF026, err: ErrTrapVector},
		{name: "rti-user", word: 0x8000, err: ErrPrivilege},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			cpu := newTestCpu(t, Code(entry.word))
			cpu.Register[REG_R1] = 0x1111
			before := cpu.Clone()

			err := cpu.Step()
			assert.ErrorIs(err, ErrIllegalInstruction{})
			assert.ErrorIs(err, entry.err)

			var illegal ErrIllegalInstruction
			assert.True(errors.As(err, &illegal))
			assert.Equal(USER_SPACE, illegal.Address)
			assert.Equal(Code(entry.word), illegal.Code)

			assert.Equal(before, cpu.Clone())
		})
	}
}

func TestCpu_Errors(t *testing.T) {
	table := [](struct {
		name  string
		setup func(cpu *Cpu)
		err   error
	}){
		{
			name: "fetch-end-of-memory",
			setup: func(cpu *Cpu) {
				cpu.Register[REG_PC] = 0xFFFF
			},
			err: memory.ErrOutOfRange,
		},
		{
			name: "ld-past-end",
			setup: func(cpu *Cpu) {
				cpu.Memory.Poke(0xFFF0, uint16(MakeCodeLd(REG_R0, 255)))
				cpu.Register[REG_PC] = 0xFFF0
			},
			err: memory.ErrOutOfRange,
		},
		{
			name: "ldr-past-end",
			setup: func(cpu *Cpu) {
				cpu.Memory.Poke(0x3000, uint16(MakeCodeLdr(REG_R0, REG_R1, 1)))
				cpu.Register[REG_R1] = 0xFFFF
			},
			err: memory.ErrOutOfRange,
		},
		{
			name: "br-before-start",
			setup: func(cpu *Cpu) {
				cpu.Memory.Poke(0x0000, uint16(MakeCodeBr(CC_Z, -2)))
				cpu.Register[REG_PC] = 0x0000
			},
			err: memory.ErrOutOfRange,
		},
		{
			name: "rti-bad-psr",
			setup: func(cpu *Cpu) {
				cpu.Memory.Poke(0x3000, uint16(MakeCodeRti()))
				cpu.Register[REG_PSR] = CC_Z
				cpu.Register[REG_R6] = 0x2FFE
				cpu.Memory.Poke(0x2FFE, 0x3100)
				cpu.Memory.Poke(0x2FFF, PSR_USER)
			},
			err: ErrConditionCode,
		},
		{
			name: "rti-stack-end",
			setup: func(cpu *Cpu) {
				cpu.Memory.Poke(0x3000, uint16(MakeCodeRti()))
				cpu.Register[REG_PSR] = CC_Z
				cpu.Register[REG_R6] = 0xFFFF
			},
			err: memory.ErrOutOfRange,
		},
		{
			name: "halted",
			setup: func(cpu *Cpu) {
				cpu.Halted = true
			},
			err: ErrHalted,
		},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			cpu := NewCpu()
			entry.setup(cpu)
			before := cpu.Clone()

			err := cpu.Step()
			assert.ErrorIs(err, entry.err)
			assert.Equal(before, cpu.Clone())
		})
	}
}

func TestCpu_Step(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(t,
		MakeCodeAndImm(REG_R1, REG_R1, 0),
		MakeCodeAddImm(REG_R1, REG_R1, 2),
		MakeCodeSt(REG_R1, 2),
		MakeCodeTrap(TRAP_HALT),
	)

	prior := cpu.Clone()
	for range 3 {
		err := cpu.Step()
		assert.NoError(err)
	}

	assert.Equal(uint16(2), cpu.Register[REG_R1])
	assert.Equal(uint16(2), cpu.Memory.Peek(0x3005))

	// The earlier snapshot does not see the store.
	assert.Equal(uint16(0), prior.Memory.Peek(0x3005))
	assert.Equal(uint16(0), prior.Register[REG_R1])

	err := cpu.Step()
	assert.NoError(err)
	assert.True(cpu.Halted)

	err = cpu.Step()
	assert.ErrorIs(err, ErrHalted)
}

func TestCpu_Peek(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Console.Enqueue("k")
	cpu.Memory.Poke(0x4000, 0x1234)

	assert.Equal(uint16(0x1234), cpu.Peek(0x4000))
	assert.Equal(io.STATUS_READY, cpu.Peek(io.KBSR))
	assert.Equal(uint16('k'), cpu.Peek(io.KBDR))
	assert.Equal(uint16('k'), cpu.Peek(io.KBDR))
	assert.Equal(io.STATUS_READY, cpu.Peek(io.DSR))
	assert.Equal(uint16(0), cpu.Peek(io.DDR))
	assert.Equal(io.STATUS_READY, cpu.Peek(io.MCR))
	assert.Equal("k", cpu.Console.Stdin)

	assert.Equal(uint16('k'), cpu.Read(io.KBDR))
	assert.Equal(uint16(0), cpu.Read(io.KBDR))
	assert.Equal(uint16(0), cpu.Peek(io.KBSR))
}

func TestCpu_Load(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	err := cpu.Load(&Program{Origin: 0x3000, Code: []uint16{0x5260, 0x1468}})
	assert.NoError(err)
	assert.Equal(uint16(0x5260), cpu.Memory.Peek(0x3000))
	assert.Equal(uint16(0x1468), cpu.Memory.Peek(0x3001))
	assert.Equal(USER_SPACE, cpu.Register[REG_PC])

	err = cpu.Load(&Program{Origin: 0xFDFF, Code: []uint16{1, 2}})
	assert.ErrorIs(err, ErrDeviceOverlap)
	assert.Equal(uint16(0), cpu.Memory.Peek(0xFDFF))

	err = cpu.Load(&Program{Origin: 0xFFFF, Code: []uint16{1, 2}})
	assert.ErrorIs(err, memory.ErrOutOfRange)
}
