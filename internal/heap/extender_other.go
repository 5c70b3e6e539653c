//go:build !unix

package heap

// newArena allocates a single fully-committed slice as the managed region.
// Platforms without an mmap/mprotect-style reserve-then-commit primitive
// pay for the whole reservation up front; the observable contract (Extend,
// CurrentBreak, ErrOutOfMemory past capacity) is identical to the unix
// backend.
func newArena(capacity uintptr) ([]byte, func(lo, hi uintptr) error, error) {
	data := make([]byte, capacity)
	commit := func(lo, hi uintptr) error { return nil }

	return data, commit, nil
}
