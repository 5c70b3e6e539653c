package tsmalloc

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"

	"github.com/lschmidt-dev/tsmalloc/internal/freelist"
)

// threadRegistry hands out a private free list per calling goroutine, the
// closest Go equivalent to the C allocator's __thread free-list root. Go
// has no pthread-style TLS; the registry keys on the calling goroutine's
// id instead, the same technique third-party goroutine-local-storage
// shims use, since the runtime does not export one directly.
//
// The registry's own mutex only ever guards map bookkeeping: every listFor
// call holds it briefly to look up the calling goroutine's entry, creating
// the entry the first time that goroutine calls in. It is not the "global
// allocator mutex": the allocate/free work on the returned list runs after
// listFor has released it. Unlocked calls from different goroutines
// therefore still serialize on this lookup.
type threadRegistry struct {
	mu    sync.Mutex
	lists map[uint64]*freelist.List
}

// listFor returns the calling goroutine's private free list, creating an
// empty one on first use.
func (r *threadRegistry) listFor() *freelist.List {
	gid := currentGoroutineID()

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lists[gid]
	if !ok {
		l = &freelist.List{Head: freelist.Nil}
		r.lists[gid] = l
	}

	return l
}

// currentGoroutineID extracts the calling goroutine's id from the header
// line runtime.Stack prints ("goroutine 37 [running]: ..."). It is a well
// worn hack, not a supported API, but it is the only way to approximate
// per-goroutine identity without cgo-based real thread-local storage.
func currentGoroutineID() uint64 {
	var buf [64]byte

	n := runtime.Stack(buf[:], false)

	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}

	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}

	return id
}
