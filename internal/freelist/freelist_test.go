package freelist

import (
	"testing"

	"github.com/lschmidt-dev/tsmalloc/internal/block"
)

// layout lays out blocks of the given sizes back-to-back starting at offset
// 0, threading them onto a List in the given order (by index into sizes),
// and returns the list plus each block's header offset indexed by the
// original sizes order.
func layout(t *testing.T, arena []byte, sizes []uint64, order []int) (*List, []int64) {
	t.Helper()

	offsets := make([]int64, len(sizes))

	var cursor uintptr
	for i, size := range sizes {
		offsets[i] = int64(cursor)
		h := block.At(arena, cursor)
		h.Size = size
		h.SetAvailable(false)
		h.Next = Nil
		cursor = block.End(cursor, size)
	}

	l := &List{Head: Nil}
	for _, idx := range order {
		l.PushHead(arena, offsets[idx])
	}

	return l, offsets
}

func TestSearchBestFitExactMatchShortCircuits(t *testing.T) {
	arena := make([]byte, 4096)
	l, offsets := layout(t, arena, []uint64{64, 32, 32, 128}, []int{0, 1, 2, 3})
	// push order gives head=3 -> 2 -> 1 -> 0, so block 2 is the first 32

	_, match := l.SearchBestFit(arena, 32)
	if match != offsets[2] {
		t.Fatalf("exact match = offset %d, want first encountered offset %d", match, offsets[2])
	}
}

func TestSearchBestFitPicksSmallestSufficient(t *testing.T) {
	arena := make([]byte, 4096)
	l, offsets := layout(t, arena, []uint64{128, 256, 64}, []int{0, 1, 2})

	_, match := l.SearchBestFit(arena, 100)
	if match != offsets[0] {
		t.Fatalf("best fit = offset %d, want offset %d (size 128)", match, offsets[0])
	}
}

func TestSearchBestFitNoCandidate(t *testing.T) {
	arena := make([]byte, 4096)
	l, _ := layout(t, arena, []uint64{16, 32}, []int{0, 1})

	_, match := l.SearchBestFit(arena, 1000)
	if match != Nil {
		t.Fatalf("expected no match, got offset %d", match)
	}
}

func TestUnlinkHead(t *testing.T) {
	arena := make([]byte, 4096)
	l, offsets := layout(t, arena, []uint64{16, 32}, []int{0, 1})
	// push order [0,1] -> head is 1, then 0

	removed := l.Unlink(arena, Nil)
	if removed != offsets[1] {
		t.Fatalf("removed = %d, want head offset %d", removed, offsets[1])
	}

	if l.Head != offsets[0] {
		t.Fatalf("new head = %d, want %d", l.Head, offsets[0])
	}

	rh := block.At(arena, uintptr(removed))
	if rh.IsAvailable() || rh.Next != Nil {
		t.Fatal("unlinked block should be marked allocated with no next")
	}
}

func TestUnlinkMiddle(t *testing.T) {
	arena := make([]byte, 4096)
	l, offsets := layout(t, arena, []uint64{16, 32, 48}, []int{0, 1, 2})
	// push order gives head=2 -> 1 -> 0

	removed := l.Unlink(arena, offsets[2])
	if removed != offsets[1] {
		t.Fatalf("removed = %d, want %d", removed, offsets[1])
	}

	ph := block.At(arena, uintptr(offsets[2]))
	if ph.Next != offsets[0] {
		t.Fatalf("predecessor now points at %d, want %d", ph.Next, offsets[0])
	}
}

func TestFindPredecessorHeadAndMiddle(t *testing.T) {
	arena := make([]byte, 4096)
	l, offsets := layout(t, arena, []uint64{16, 32, 48}, []int{0, 1, 2})
	// head=2 -> 1 -> 0

	if pred, ok := l.FindPredecessor(arena, offsets[2]); !ok || pred != Nil {
		t.Fatalf("head predecessor = (%d, %v), want (Nil, true)", pred, ok)
	}

	if pred, ok := l.FindPredecessor(arena, offsets[0]); !ok || pred != offsets[1] {
		t.Fatalf("predecessor of tail = (%d, %v), want (%d, true)", pred, ok, offsets[1])
	}

	if _, ok := l.FindPredecessor(arena, 99999); ok {
		t.Fatal("expected unreachable offset to report not found")
	}
}

func TestPushHeadAndLen(t *testing.T) {
	arena := make([]byte, 4096)
	l := &List{Head: Nil}

	h0 := block.At(arena, 0)
	h0.Size = 8
	l.PushHead(arena, 0)

	off1 := int64(block.End(0, 8))
	h1 := block.At(arena, uintptr(off1))
	h1.Size = 8
	l.PushHead(arena, off1)

	if l.Len(arena) != 2 {
		t.Fatalf("Len = %d, want 2", l.Len(arena))
	}

	if l.Head != off1 {
		t.Fatalf("Head = %d, want most recently pushed %d", l.Head, off1)
	}

	if !block.At(arena, 0).IsAvailable() {
		t.Fatal("pushed block should be marked available")
	}
}
