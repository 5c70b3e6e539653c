// Package freelist implements the singly-linked chain of free blocks
// threaded through block.Header.Next, rooted at a caller-supplied List. The
// same implementation backs both the process-global list (LL) and each
// goroutine's private list (NL); only which List a caller hands it differs.
package freelist

import "github.com/lschmidt-dev/tsmalloc/internal/block"

// Nil is the sentinel offset meaning "no block" — re-exported from block so
// callers of this package never need to import block.NoNext directly.
const Nil = block.NoNext

// List is a singly-linked chain of free blocks. A list is empty when Head is
// Nil; the zero value is not empty (its Head is offset 0), so every root is
// created with Head set to Nil.
type List struct {
	Head int64
}

// SearchBestFit scans the list for the smallest free block able to satisfy
// size, returning its offset and the offset of its predecessor (Nil if the
// match is the head). An exact-size match short-circuits the scan
// immediately. Ties among non-exact matches resolve to whichever was
// encountered first. match is Nil if no block satisfies size.
func (l *List) SearchBestFit(arena []byte, size uint64) (pred int64, match int64) {
	pred, match = Nil, Nil

	bestPred, bestMatch := Nil, Nil

	var bestSize uint64

	prev, cur := Nil, l.Head
	for cur != Nil {
		h := block.At(arena, uintptr(cur))
		if h.Size == size {
			return prev, cur
		}

		if h.Size > size && (bestMatch == Nil || h.Size < bestSize) {
			bestPred, bestMatch, bestSize = prev, cur, h.Size
		}

		prev = cur
		cur = h.Next
	}

	return bestPred, bestMatch
}

// Unlink removes the node following pred (or the head, if pred is Nil) from
// the list, marks it allocated, and returns its offset.
func (l *List) Unlink(arena []byte, pred int64) int64 {
	var removed int64

	if pred == Nil {
		removed = l.Head
		l.Head = block.At(arena, uintptr(removed)).Next
	} else {
		ph := block.At(arena, uintptr(pred))
		removed = ph.Next
		ph.Next = block.At(arena, uintptr(removed)).Next
	}

	rh := block.At(arena, uintptr(removed))
	rh.SetAvailable(false)
	rh.Next = Nil

	return removed
}

// PushHead inserts the block at off at the head of the list and marks it
// free.
func (l *List) PushHead(arena []byte, off int64) {
	h := block.At(arena, uintptr(off))
	h.SetAvailable(true)
	h.Next = l.Head
	l.Head = off
}

// FindPredecessor reports whether off is reachable from the head, and if
// so, the offset of its predecessor (Nil if off is the head itself).
func (l *List) FindPredecessor(arena []byte, off int64) (pred int64, ok bool) {
	if l.Head == off {
		return Nil, true
	}

	cur := l.Head
	for cur != Nil {
		h := block.At(arena, uintptr(cur))
		if h.Next == off {
			return cur, true
		}

		cur = h.Next
	}

	return Nil, false
}

// Len walks the list and counts its nodes. It exists for tests and
// invariant checks; the hot allocation path never needs a length.
func (l *List) Len(arena []byte) int {
	n := 0
	for cur := l.Head; cur != Nil; cur = block.At(arena, uintptr(cur)).Next {
		n++
	}

	return n
}
