package cpm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// assembleBDOSPrint builds a tiny CP/M .COM image: print a string via
// BDOS C=9, then RET to warm boot.
func assembleBDOSPrint(msg string) []byte {
	var prog []byte
	const strAddr = 0x0120
	// LXI D,strAddr
	prog = append(prog, 0x11, byte(strAddr), byte(strAddr>>8))
	// MVI C,9
	prog = append(prog, 0x0E, 0x09)
	// CALL 0x0005
	prog = append(prog, 0xCD, 0x05, 0x00)
	// RET (to warm boot at 0x0000, which Machine pre-patches to HLT)
	prog = append(prog, 0xC9)
	// Pad out to strAddr (0x0120) relative to load address 0x0100.
	for len(prog) < strAddr-loadAddr {
		prog = append(prog, 0x00)
	}
	prog = append(prog, []byte(msg)...)
	prog = append(prog, '$')
	return prog
}

func TestRunPrintsBDOSString(t *testing.T) {
	m := NewWithBytes(assembleBDOSPrint("HELLO"))
	_, err := m.Run(1000)
	require.NoError(t, err)
	require.Equal(t, "HELLO", m.Console.String())
}

func TestRunConsoleOutputChar(t *testing.T) {
	var prog []byte
	// MVI E,'A'
	prog = append(prog, 0x1E, 'A')
	// MVI C,2
	prog = append(prog, 0x0E, 0x02)
	// CALL 0x0005
	prog = append(prog, 0xCD, 0x05, 0x00)
	// RET
	prog = append(prog, 0xC9)

	m := NewWithBytes(prog)
	_, err := m.Run(1000)
	require.NoError(t, err)
	require.Equal(t, "A", m.Console.String())
}

func TestRunLoopingBudgetExceeded(t *testing.T) {
	// JMP to self: never reaches warm boot.
	prog := []byte{0xC3, 0x00, 0x01}
	m := NewWithBytes(prog)
	_, err := m.Run(50)
	require.Error(t, err)
	var looping ErrLooping
	require.ErrorAs(t, err, &looping)
}
