// Package cpm drives the emulator the way a CP/M 2.2 BIOS would: it
// loads a .COM image at 0x0100, patches the two low-memory addresses a
// CP/M program calls through (0x0000 for warm boot, 0x0005 for BDOS),
// and interprets the handful of BDOS calls the classic 8080 diagnostic
// ROMs (TST8080, 8080PRE, CPUTEST, 8080EXM) use to report results:
// C=2 (console output, char in E) and C=9 (print $-terminated string
// at DE). This mirrors the table-driven ROM-driving ("endCheck" /
// "successCheck") loop the 6502 pack tests its own functional ROM
// against, adapted to the instruction-granularity Step the 8080 core
// exposes instead of stepping one clock tick at a time.
package cpm

import (
	"fmt"
	"strings"

	"github.com/gocpu/i8080/cpu"
	"github.com/gocpu/i8080/loader"
	"github.com/gocpu/i8080/memory"
)

const (
	// loadAddr is where CP/M loads a .COM's code/data segment.
	loadAddr = 0x0100
	// bdosEntry is the fixed address every CP/M program CALLs for
	// system services.
	bdosEntry = 0x0005
	// warmBoot is the fixed address every CP/M program returns to.
	warmBoot = 0x0000
	// defaultSP sits well above any diagnostic ROM's code/data so a
	// deep CALL/PUSH chain doesn't run into the loaded image.
	defaultSP = 0xF000
)

// Machine wraps a Chip configured to run one CP/M-hosted .COM image
// and accumulates whatever it writes to the console via BDOS C=2/C=9.
type Machine struct {
	CPU     *cpu.Chip
	Console strings.Builder

	maxBDOSString int
}

// New loads the .COM image at path into a fresh 64K address space and
// returns a Machine ready to Run.
func New(path string) (*Machine, error) {
	mem := memory.NewFlat()
	if _, err := loader.Load(mem, loadAddr, path); err != nil {
		return nil, fmt.Errorf("cpm: %w", err)
	}
	return newMachine(mem), nil
}

// NewWithBytes is New without the filesystem round trip, for embedding
// a diagnostic image directly or for tests.
func NewWithBytes(data []byte) *Machine {
	mem := memory.NewFlat()
	if _, err := loader.LoadBytes(mem, loadAddr, data); err != nil {
		panic(err) // only possible if data itself is larger than the address space
	}
	return newMachine(mem)
}

func newMachine(mem memory.Bank) *Machine {
	mem.Write(warmBoot, 0x76) // HLT: Run's loop treats reaching this as a clean finish
	mem.Write(bdosEntry, 0xC9) // RET: defensive default if BDOS is ever reached without interception below

	c := cpu.NewWithMemory(loadAddr, mem)
	c.SP = defaultSP
	return &Machine{CPU: c, maxBDOSString: 1 << 16}
}

// ErrLooping is returned by Run when the instruction budget is
// exhausted without the program reaching warm boot — almost always a
// sign the CPU under test failed a diagnostic and fell into a trap
// loop instead of returning cleanly.
type ErrLooping struct {
	PC           uint16
	Instructions int
}

func (e ErrLooping) Error() string {
	return fmt.Sprintf("cpm: still running after %d instructions, stuck at PC=0x%04X", e.Instructions, e.PC)
}

// Run steps the CPU until it reaches warm boot (a clean CP/M program
// exit) or the instruction budget is exhausted, intercepting BDOS
// calls along the way. It returns the total clock states consumed.
func (m *Machine) Run(maxInstructions int) (int, error) {
	totalStates := 0
	for i := 0; i < maxInstructions; i++ {
		if m.CPU.PC == bdosEntry {
			m.handleBDOS()
			continue
		}
		_, states, err := m.CPU.Step()
		if err != nil {
			return totalStates, fmt.Errorf("cpm: CPU error at PC=0x%04X after %d instructions: %w", m.CPU.PC, i, err)
		}
		totalStates += states
		if m.CPU.Halted() && m.CPU.PC == warmBoot+1 {
			return totalStates, nil
		}
	}
	return totalStates, ErrLooping{PC: m.CPU.PC, Instructions: maxInstructions}
}

// handleBDOS services one CALL 5 without running it through Step: the
// action happens directly against CPU state and the stacked return
// address is popped by hand, exactly what the patched RET at 0x0005
// would have done.
func (m *Machine) handleBDOS() {
	switch m.CPU.C {
	case 2:
		m.Console.WriteByte(m.CPU.E)
	case 9:
		addr := m.CPU.DE()
		for i := 0; i < m.maxBDOSString; i++ {
			ch := m.CPU.Mem.Read(addr + uint16(i))
			if ch == '$' {
				break
			}
			m.Console.WriteByte(ch)
		}
	}
	lo := m.CPU.Mem.Read(m.CPU.SP)
	hi := m.CPU.Mem.Read(m.CPU.SP + 1)
	m.CPU.SP += 2
	m.CPU.PC = uint16(hi)<<8 | uint16(lo)
}
