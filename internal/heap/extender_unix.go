//go:build unix

package heap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// newArena reserves capacity bytes of address space with PROT_NONE and
// returns a commit function that upgrades everything up to hi to
// PROT_READ|PROT_WRITE — the same reserve-then-commit idiom as a real
// brk/mmap-backed heap, so the managed region only costs physical memory
// for the bytes the break has actually passed over.
//
// mprotect requires its addr argument to be page-aligned; block offsets are
// not, so the commit function tracks its own high-water mark (always a
// multiple of the page size) instead of trusting the caller's lo. Extend
// only ever grows hi, so this mark only ever moves forward, and hi values
// that land on already-committed pages are a no-op rather than a redundant
// Mprotect call.
func newArena(capacity uintptr) ([]byte, func(lo, hi uintptr) error, error) {
	data, err := unix.Mmap(-1, 0, int(capacity), unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap reserve %d bytes: %w", capacity, err)
	}

	pageSize := uintptr(unix.Getpagesize())
	var committed uintptr // [0, committed) already carries PROT_READ|PROT_WRITE

	commit := func(_, hi uintptr) error {
		if hi <= committed {
			return nil
		}

		target := (hi + pageSize - 1) &^ (pageSize - 1)
		if target > uintptr(len(data)) {
			target = uintptr(len(data))
		}

		if target <= committed {
			return nil
		}

		if err := unix.Mprotect(data[committed:target], unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return fmt.Errorf("mprotect [%d,%d): %w", committed, target, err)
		}

		committed = target

		return nil
	}

	return data, commit, nil
}
