package tsmalloc

import (
	"sync"
	"unsafe"
)

// MallocLocked allocates size bytes against a.'s process-wide free list,
// guarded by a.'s global mutex across the whole operation: search,
// split-or-unlink, or extend. It returns nil if size is 0 or the managed
// region is exhausted.
func (a *Allocator) MallocLocked(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	return a.allocateFrom(&a.global, uint64(size))
}

// FreeLocked returns ptr, previously returned by MallocLocked, to a.'s
// global free list. A double free is silently ignored.
func (a *Allocator) FreeLocked(ptr unsafe.Pointer) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.deallocateTo(&a.global, ptr)
}

// MallocUnlocked allocates size bytes against the calling goroutine's
// private free list. No global mutex is taken; the heap extender's internal
// break mutex is shared with every other caller, LL or NL, and the
// per-goroutine registry's mutex is held briefly to look up the list.
func (a *Allocator) MallocUnlocked(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	return a.allocateFrom(a.threads.listFor(), uint64(size))
}

// FreeUnlocked returns ptr, previously returned by MallocUnlocked on the
// same goroutine, to that goroutine's private free list. A double free is
// silently ignored. Freeing from a different goroutine than the one that
// allocated ptr is out of contract.
func (a *Allocator) FreeUnlocked(ptr unsafe.Pointer) {
	a.deallocateTo(a.threads.listFor(), ptr)
}

var (
	defaultOnce  sync.Once
	defaultAlloc *Allocator
)

// defaultAllocator lazily constructs the package-level default Allocator,
// mirroring the teacher's GlobalAllocator convenience wrapper. Failing to
// reserve the default region is treated as unrecoverable, exactly as the
// teacher's package-level Alloc/Free panic when GlobalAllocator was never
// initialized.
func defaultAllocator() *Allocator {
	defaultOnce.Do(func() {
		a, err := NewAllocator()
		if err != nil {
			panic(err)
		}

		defaultAlloc = a
	})

	return defaultAlloc
}

// MallocLocked allocates from the package-level default Allocator's LL
// facade. See (*Allocator).MallocLocked.
func MallocLocked(size uintptr) unsafe.Pointer { return defaultAllocator().MallocLocked(size) }

// FreeLocked frees to the package-level default Allocator's LL facade. See
// (*Allocator).FreeLocked.
func FreeLocked(ptr unsafe.Pointer) { defaultAllocator().FreeLocked(ptr) }

// MallocUnlocked allocates from the package-level default Allocator's NL
// facade. See (*Allocator).MallocUnlocked.
func MallocUnlocked(size uintptr) unsafe.Pointer { return defaultAllocator().MallocUnlocked(size) }

// FreeUnlocked frees to the package-level default Allocator's NL facade.
// See (*Allocator).FreeUnlocked.
func FreeUnlocked(ptr unsafe.Pointer) { defaultAllocator().FreeUnlocked(ptr) }

// DataSegmentSize reports the package-level default Allocator's cumulative
// bytes obtained from the OS.
func DataSegmentSize() uint64 { return defaultAllocator().DataSegmentSize() }

// DataSegmentFreeSpaceSize reports the package-level default Allocator's
// bytes currently on any free list.
func DataSegmentFreeSpaceSize() uint64 { return defaultAllocator().DataSegmentFreeSpaceSize() }
