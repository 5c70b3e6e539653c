package tsmalloc

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/lschmidt-dev/tsmalloc/internal/block"
	"github.com/lschmidt-dev/tsmalloc/internal/freelist"
	"github.com/lschmidt-dev/tsmalloc/internal/heap"
)

// Allocator owns one managed heap region and the state both the LL and NL
// facades share against it: the extender, the global free list, the
// per-goroutine free lists, and the accounting counters.
type Allocator struct {
	extender *heap.Extender

	mu     sync.Mutex // the global allocator mutex; guards global only
	global freelist.List

	threads threadRegistry

	// total and freed are signed so both LL and NL can adjust freed by a
	// negative delta on allocation without the twos-complement dance
	// atomic.AddUint64 would otherwise require; callers only ever observe
	// them through DataSegmentSize/DataSegmentFreeSpaceSize, which convert
	// to the unsigned byte counts the spec describes.
	total atomic.Int64
	freed atomic.Int64
}

// config collects the options NewAllocator accepts.
type config struct {
	capacity uintptr
}

// Option configures an Allocator at construction time.
type Option func(*config)

// WithCapacity sets the managed region's fixed reservation size. The
// default, selected by omitting this option, is heap.DefaultCapacity.
func WithCapacity(capacity uintptr) Option {
	return func(c *config) { c.capacity = capacity }
}

// NewAllocator reserves a fresh managed region and returns an Allocator
// ready to serve both the LL and NL facades against it.
func NewAllocator(opts ...Option) (*Allocator, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	ext, err := heap.NewExtender(cfg.capacity)
	if err != nil {
		return nil, err
	}

	a := &Allocator{extender: ext}
	a.global.Head = freelist.Nil
	a.threads.lists = make(map[uint64]*freelist.List)

	return a, nil
}

// DataSegmentSize returns the cumulative bytes, including headers, ever
// obtained from the heap extender.
func (a *Allocator) DataSegmentSize() uint64 {
	return uint64(a.total.Load())
}

// DataSegmentFreeSpaceSize returns the bytes, including headers, currently
// sitting on any free list (global or per-goroutine).
func (a *Allocator) DataSegmentFreeSpaceSize() uint64 {
	return uint64(a.freed.Load())
}

// payloadPointer converts a header offset into the address handed back to
// callers: the first byte past the header. The uintptr(Pointer)->arithmetic
// ->Pointer conversion is kept in one expression, as unsafe.Pointer requires,
// rather than staged through an intermediate uintptr variable.
func (a *Allocator) payloadPointer(off int64) unsafe.Pointer {
	arena := a.extender.Arena()

	return unsafe.Pointer(uintptr(unsafe.Pointer(&arena[0])) + uintptr(off) + block.HeaderSize)
}

// headerOffset recovers a block's header offset from a payload pointer
// previously returned by payloadPointer.
func (a *Allocator) headerOffset(ptr unsafe.Pointer) uintptr {
	arena := a.extender.Arena()

	return uintptr(ptr) - uintptr(unsafe.Pointer(&arena[0])) - block.HeaderSize
}

// allocateFrom runs the common allocate algorithm (search, split or
// consume, or extend on a miss) against list. Callers are responsible for
// whatever serialization list requires: the global mutex for the LL list,
// none for a goroutine's own list.
func (a *Allocator) allocateFrom(list *freelist.List, size uint64) unsafe.Pointer {
	arena := a.extender.Arena()

	pred, match := list.SearchBestFit(arena, size)
	if match != freelist.Nil {
		mh := block.At(arena, uintptr(match))

		switch {
		case mh.Size == size:
			list.Unlink(arena, pred)
			a.freed.Add(-int64(size + uint64(block.HeaderSize)))

			return a.payloadPointer(match)
		case mh.Size > size+uint64(block.HeaderSize):
			tail := splitTail(arena, match, size)
			a.freed.Add(-int64(size + uint64(block.HeaderSize)))

			return a.payloadPointer(tail)
		default:
			list.Unlink(arena, pred)
			a.freed.Add(-int64(mh.Size + uint64(block.HeaderSize)))

			return a.payloadPointer(match)
		}
	}

	off, err := a.extender.Extend(block.HeaderSize + uintptr(size))
	if err != nil {
		return nil
	}

	h := block.At(arena, off)
	h.Size = size
	h.SetAvailable(false)
	h.Next = freelist.Nil

	a.total.Add(int64(size + uint64(block.HeaderSize)))

	return a.payloadPointer(int64(off))
}

// deallocateTo runs the common deallocate algorithm (idempotence guard,
// forward coalesce, or push-head) against list.
func (a *Allocator) deallocateTo(list *freelist.List, ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	arena := a.extender.Arena()
	off := int64(a.headerOffset(ptr))
	h := block.At(arena, uintptr(off))

	if h.IsAvailable() {
		return // double free, silently ignored
	}

	a.freed.Add(int64(h.Size + uint64(block.HeaderSize)))
	coalesceOrPush(arena, a.extender, list, off)
}

// splitTail shrinks the free block at off by size+HeaderSize and carves an
// allocated block out of its tail, returning the tail's offset. off remains
// on whatever list it was already threaded into, at its original offset,
// with its original links — only its Size changes.
func splitTail(arena []byte, off int64, size uint64) int64 {
	h := block.At(arena, uintptr(off))
	h.Size -= size + uint64(block.HeaderSize)

	tailOff := block.End(uintptr(off), h.Size)
	th := block.At(arena, tailOff)
	th.Size = size
	th.SetAvailable(false)
	th.Next = freelist.Nil

	return int64(tailOff)
}

// coalesceOrPush implements the forward-only coalesce rule from the design:
// merge freed block l with its forward neighbor r when r is in range, free,
// not the list head, and reachable by walking list; otherwise push l at the
// head.
func coalesceOrPush(arena []byte, ext *heap.Extender, list *freelist.List, l int64) {
	lh := block.At(arena, uintptr(l))
	r := int64(block.End(uintptr(l), lh.Size))

	if uintptr(r) < ext.CurrentBreak() && r != list.Head {
		rh := block.At(arena, uintptr(r))
		if rh.IsAvailable() {
			if pred, ok := list.FindPredecessor(arena, r); ok {
				mergeForward(arena, list, pred, l, r)
				return
			}
		}
	}

	list.PushHead(arena, l)
}

// mergeForward absorbs r into l at l's address and splices l into r's
// former position in list.
func mergeForward(arena []byte, list *freelist.List, pred, l, r int64) {
	lh := block.At(arena, uintptr(l))
	rh := block.At(arena, uintptr(r))

	lh.Size = lh.Size + rh.Size + uint64(block.HeaderSize)
	lh.SetAvailable(true)
	lh.Next = rh.Next

	if pred == freelist.Nil {
		// Only reachable if the head-exclusion check in coalesceOrPush is
		// ever relaxed; kept so this function stays correct on its own.
		list.Head = l
	} else {
		block.At(arena, uintptr(pred)).Next = l
	}

	rh.SetAvailable(false)
	rh.Next = freelist.Nil
}
