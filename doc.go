// Package tsmalloc implements a thread-safe general-purpose heap allocator
// on top of a raw, fixed-capacity heap-break primitive. It reuses freed
// memory through an in-heap free list rather than returning it to the OS.
//
// Two variants share the same managed region:
//
//   - MallocLocked/FreeLocked serialize every allocation and deallocation
//     through a single process-wide free list guarded by one mutex (LL).
//   - MallocUnlocked/FreeUnlocked give each goroutine its own free list so
//     the free-list work of allocation and deallocation never contends with
//     other goroutines; the heap extension and the brief lookup of the
//     calling goroutine's list are still serialized (NL).
//
// Blocks allocated through the unlocked path must be freed through the
// unlocked path, by the same goroutine; mixing variants on one pointer is
// out of contract.
package tsmalloc
