// Package cpu implements the LC-3 processor.
//
// The processor consists of eight 16-bit general-purpose registers (R0-R7),
// a program counter, an instruction register, a processor status register
// (PSR) holding the privilege mode, priority and N/Z/P condition codes,
// and the memory address/data registers of the last data access. Memory
// is a 64K word address space with the console devices mapped at xFE00.
//
// A Cpu executes one instruction per Tick. The console traps (GETC, OUT,
// PUTS, IN, PUTSP and HALT) are serviced directly unless a routine has
// been installed in the trap vector table.
package cpu
