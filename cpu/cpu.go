// Package cpu implements a cycle-counted functional emulator of the
// Intel 8080: the instruction decoder, executor, flag engine and
// interrupt/halt state machine described in the project spec. Memory
// is a flat 64K address space (see the memory package); I/O ports are
// a no-op unless a device bus (see the io package) is attached.
package cpu

import (
	"fmt"

	"github.com/gocpu/i8080/io"
	"github.com/gocpu/i8080/memory"
)

// CPUType enumerates the processor variants this package knows about.
// Only CPU_8080 is implemented; the enumeration exists (mirroring how
// 65xx-family emulators distinguish NMOS/CMOS/Ricoh variants) so a
// future 8085-style extension has a seam without speculatively
// implementing opcodes this spec never asks for.
type CPUType int

const (
	CPU_UNIMPLEMENTED CPUType = iota
	CPU_8080
	CPU_MAX
)

// Flag bit positions in the F register. Bit layout (bit 7 high):
// S Z 0 AC 0 P 1 C. Bits 5 and 3 are always 0; bit 1 is always 1.
const (
	FlagS  = uint8(0x80)
	FlagZ  = uint8(0x40)
	Flag5  = uint8(0x20) // always 0
	FlagAC = uint8(0x10)
	Flag3  = uint8(0x08) // always 0
	FlagP  = uint8(0x04)
	Flag1  = uint8(0x02) // always 1
	FlagC  = uint8(0x01)
)

// latchState is the three-state interrupt-enable latch. A plain bool
// cannot represent the one-instruction delay after EI, so this is
// modeled as its own small state machine per spec.
type latchState int

const (
	latchDisabled latchState = iota
	latchEnabling
	latchEnabled
)

// Chip is an 8080 CPU plus the 64K memory it executes against.
type Chip struct {
	A, B, C, D, E, H, L uint8
	PC, SP              uint16
	F                   uint8

	// Mem is the memory this CPU executes against. Exported for
	// direct access by the loader, the CP/M trampoline, and tests —
	// spec.md §6 requires this.
	Mem memory.Bank

	// Bus is an optional host-supplied I/O device collaborator for
	// IN/OUT. If nil, IN/OUT are no-ops against CPU state.
	Bus io.Bus

	// Strict, if true, makes Step return ErrUndefinedOpcode for the
	// twelve undocumented alias bytes instead of aliasing them.
	Strict bool

	cpuType CPUType
	halted  bool
	latch   latchState
}

// New returns a powered-on 8080 with a fresh, zeroed 64K memory and
// PC set to initialPC, as spec.md §6 describes: zeroed registers,
// F == 0x02, interrupt latch Disabled.
func New(initialPC uint16) *Chip {
	return NewWithMemory(initialPC, memory.NewFlat())
}

// NewWithMemory is like New but lets the caller supply (and retain a
// reference to) the Bank the CPU executes against — used by the CP/M
// trampoline and by tests that want to inspect memory independently.
func NewWithMemory(initialPC uint16, mem memory.Bank) *Chip {
	return &Chip{
		PC:      initialPC,
		F:       Flag1,
		Mem:     mem,
		cpuType: CPU_8080,
		latch:   latchDisabled,
	}
}

// CPUType returns the processor variant this Chip implements.
func (c *Chip) CPUType() CPUType {
	return c.cpuType
}

// Halted reports whether the CPU is currently stopped on a HLT.
func (c *Chip) Halted() bool {
	return c.halted
}

// BC, DE, HL and PSW return the named register pair per the fixed
// high-register-first packing described in spec.md §3.
func (c *Chip) BC() uint16 { return uint16(c.B)<<8 | uint16(c.C) }
func (c *Chip) DE() uint16 { return uint16(c.D)<<8 | uint16(c.E) }
func (c *Chip) HL() uint16 { return uint16(c.H)<<8 | uint16(c.L) }
func (c *Chip) PSW() uint16 { return uint16(c.A)<<8 | uint16(c.F) }

func (c *Chip) setBC(v uint16) { c.B, c.C = uint8(v>>8), uint8(v) }
func (c *Chip) setDE(v uint16) { c.D, c.E = uint8(v>>8), uint8(v) }
func (c *Chip) setHL(v uint16) { c.H, c.L = uint8(v>>8), uint8(v) }

// setPSW loads A and F from a 16-bit value, forcing F's fixed bits
// per spec.md §3: bit 1 on, bits 3 and 5 off, regardless of what was
// on the stack.
func (c *Chip) setPSW(v uint16) {
	c.A = uint8(v >> 8)
	c.F = (uint8(v) | Flag1) &^ (Flag3 | Flag5)
}

// parityTable is precomputed once at init time rather than recomputed
// per call, grounded on the same technique the Z80 optimizer pack repo
// uses for its Sz53pTable/ParityTable (pkg/cpu/flags.go): loop all 256
// byte values once, popcount each, cache the flag bit.
var parityTable [256]bool

func init() {
	for i := 0; i < 256; i++ {
		bits := 0
		for v := i; v != 0; v &= v - 1 {
			bits++
		}
		parityTable[i] = bits%2 == 0
	}
}

func parity(v uint8) bool {
	return parityTable[v]
}

// setSZP updates the Sign, Zero and Parity flags from an 8-bit result,
// as every arithmetic/logical instruction does.
func (c *Chip) setSZP(result uint8) {
	c.setFlag(FlagS, result&0x80 != 0)
	c.setFlag(FlagZ, result == 0)
	c.setFlag(FlagP, parity(result))
}

func (c *Chip) setFlag(mask uint8, set bool) {
	if set {
		c.F |= mask
	} else {
		c.F &^= mask
	}
}

func (c *Chip) flag(mask uint8) bool {
	return c.F&mask != 0
}

// String implements fmt.Stringer for compact debugging/trace output.
func (c *Chip) String() string {
	return fmt.Sprintf("PC=%04X SP=%04X A=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X F=%02X halted=%v",
		c.PC, c.SP, c.A, c.B, c.C, c.D, c.E, c.H, c.L, c.F, c.halted)
}
