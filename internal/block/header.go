// Package block defines the on-heap layout shared by every allocator
// variant: a fixed-size header overlaid directly onto arena bytes, followed
// by the block's payload.
package block

import "unsafe"

// NoNext marks the end of a free-list chain, or an allocated block's unused
// next_free link.
const NoNext int64 = -1

// Header is the fixed-size metadata prefixing every block. It is never
// allocated on its own; it is overlaid in place onto arena bytes via At, so
// its field layout (not its Go size after padding) is what callers reason
// about through HeaderSize.
type Header struct {
	Size      uint64 // payload size in bytes, not counting the header
	Available uint32 // non-zero iff the block currently sits on a free list
	_         uint32 // padding, keeps Next 8-byte aligned on 32-bit platforms
	Next      int64  // free-list successor offset, or NoNext
}

// HeaderSize is the number of arena bytes a header occupies.
const HeaderSize = uintptr(unsafe.Sizeof(Header{}))

// At returns the header view of the block starting at offset within arena.
// The caller is responsible for offset being a previously-established block
// boundary; At performs no validation beyond a bounds-checked slice index.
func At(arena []byte, offset uintptr) *Header {
	return (*Header)(unsafe.Pointer(&arena[offset]))
}

// PayloadOffset returns the offset of the payload belonging to the block
// whose header starts at offset.
func PayloadOffset(offset uintptr) uintptr {
	return offset + HeaderSize
}

// End returns the offset one past the end of a block with the given header
// offset and payload size — the offset its forward neighbor, if any, starts
// at.
func End(offset uintptr, size uint64) uintptr {
	return offset + HeaderSize + uintptr(size)
}

// IsAvailable reports whether h currently sits on a free list.
func (h *Header) IsAvailable() bool {
	return h.Available != 0
}

// SetAvailable updates h's availability flag.
func (h *Header) SetAvailable(available bool) {
	if available {
		h.Available = 1
	} else {
		h.Available = 0
	}
}
