package tsmalloc

import (
	"sync"
	"testing"

	"github.com/lschmidt-dev/tsmalloc/internal/freelist"
)

func TestThreadRegistryReturnsSameListForSameGoroutine(t *testing.T) {
	r := threadRegistry{lists: make(map[uint64]*freelist.List)}

	first := r.listFor()
	second := r.listFor()

	if first != second {
		t.Fatal("calling listFor twice from the same goroutine should return the same list")
	}
}

func TestThreadRegistryGivesDistinctGoroutinesDistinctLists(t *testing.T) {
	r := threadRegistry{lists: make(map[uint64]*freelist.List)}

	const n = 8

	lists := make([]*freelist.List, n)

	var wg sync.WaitGroup

	wg.Add(n)

	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()

			lists[i] = r.listFor()
		}(i)
	}

	wg.Wait()

	seen := make(map[*freelist.List]bool, n)
	for _, l := range lists {
		if seen[l] {
			t.Fatal("two goroutines were handed the same free list")
		}

		seen[l] = true
	}
}

func TestCurrentGoroutineIDIsStableWithinAGoroutine(t *testing.T) {
	if currentGoroutineID() != currentGoroutineID() {
		t.Fatal("currentGoroutineID should be stable across calls on the same goroutine")
	}
}
