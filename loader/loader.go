// Package loader reads raw binary images from disk into a memory.Bank,
// the way the 6502 pack's convertprg/hand_asm commands build RAM images
// from disk data — but returning plain errors instead of calling
// log.Fatalf, since this is a library the cmd/i8080 and cpm packages
// both call rather than a command in its own right.
package loader

import (
	"fmt"
	"os"

	"github.com/gocpu/i8080/memory"
)

// ErrFileNotFound wraps an os.ReadFile failure caused by the path not
// existing.
type ErrFileNotFound struct {
	Path string
	Err  error
}

func (e ErrFileNotFound) Error() string {
	return fmt.Sprintf("loader: cannot read %q: %v", e.Path, e.Err)
}

func (e ErrFileNotFound) Unwrap() error { return e.Err }

// ErrIO wraps any other os.ReadFile failure: permission denied, the
// path naming a directory, and so on. Distinct from ErrFileNotFound
// per spec.md §7's error taxonomy, which calls these out as separate
// loader-only kinds.
type ErrIO struct {
	Path string
	Err  error
}

func (e ErrIO) Error() string {
	return fmt.Sprintf("loader: i/o error reading %q: %v", e.Path, e.Err)
}

func (e ErrIO) Unwrap() error { return e.Err }

// Load reads each path in order and writes its bytes sequentially into
// mem starting at addr, returning the address immediately past the
// last byte written. Each file is placed directly after the previous
// one, mirroring how CP/M loads a single COM image but generalized to
// concatenate several files for multi-part test ROMs.
func Load(mem memory.Bank, addr uint16, paths ...string) (uint16, error) {
	next := addr
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				return addr, ErrFileNotFound{Path: p, Err: err}
			}
			return addr, ErrIO{Path: p, Err: err}
		}
		next, err = memory.Load(mem, next, data)
		if err != nil {
			return addr, fmt.Errorf("loader: loading %q at 0x%04X: %w", p, next, err)
		}
	}
	return next, nil
}

// LoadBytes is Load without the filesystem round-trip, for callers
// (tests, embedded images) that already have the bytes in hand.
func LoadBytes(mem memory.Bank, addr uint16, data []byte) (uint16, error) {
	next, err := memory.Load(mem, addr, data)
	if err != nil {
		return addr, fmt.Errorf("loader: loading %d bytes at 0x%04X: %w", len(data), addr, err)
	}
	return next, nil
}
