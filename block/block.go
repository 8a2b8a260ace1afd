// Package block implements the on-heap layout of a single allocator block:
// header/footer encoding, flag bits, and navigation between physically
// adjacent blocks. Every function here is pure pointer arithmetic over a
// byte buffer plus an integer offset — there are no raw pointers, per the
// "byte buffer plus offsets" convention used throughout this module.
package block

import "encoding/binary"

const (
	// HeaderSize is the width, in bytes, of a header or footer word.
	HeaderSize = 8

	// MinSize is the minimum legal block size, including header.
	MinSize = 32

	// flagMask isolates the three low flag bits from the size field.
	flagMask = 0x7

	// ThisAllocated marks the block itself as allocated.
	ThisAllocated = 1 << 0
	// PrevAllocated marks the physically preceding block as allocated.
	PrevAllocated = 1 << 1
	// InQuickList marks a block that logically sits in a quick list.
	// Such blocks are tagged ThisAllocated so coalescing skips them.
	InQuickList = 1 << 2
)

// Header is a decoded header/footer word.
type Header struct {
	Size          uint64
	ThisAllocated bool
	PrevAllocated bool
	InQuickList   bool
}

// Decode unpacks a raw header/footer word.
func Decode(raw uint64) Header {
	return Header{
		Size:          raw &^ flagMask,
		ThisAllocated: raw&ThisAllocated != 0,
		PrevAllocated: raw&PrevAllocated != 0,
		InQuickList:   raw&InQuickList != 0,
	}
}

// Encode packs a header/footer word from its fields.
func (h Header) Encode() uint64 {
	raw := h.Size &^ flagMask
	if h.ThisAllocated {
		raw |= ThisAllocated
	}
	if h.PrevAllocated {
		raw |= PrevAllocated
	}
	if h.InQuickList {
		raw |= InQuickList
	}
	return raw
}

// ReadHeader reads the header/footer word at off.
func ReadHeader(data []byte, off int) Header {
	return Decode(binary.LittleEndian.Uint64(data[off : off+HeaderSize]))
}

// WriteHeader writes h as the header/footer word at off.
func WriteHeader(data []byte, off int, h Header) {
	binary.LittleEndian.PutUint64(data[off:off+HeaderSize], h.Encode())
}

// FooterOffset returns the offset of the footer word of a block of the
// given size starting at off.
func FooterOffset(off int, size uint64) int {
	return off + int(size) - HeaderSize
}

// WriteFooter writes a footer identical to the header, for a free block.
// Per spec, the footer is a verbatim copy of the header for boundary-tag
// coalescing; it is only meaningful while the block is free and not in a
// quick list.
func WriteFooter(data []byte, off int, h Header) {
	WriteHeader(data, FooterOffset(off, h.Size), h)
}

// NextOffset returns the offset of the physically next block.
func NextOffset(off int, size uint64) int {
	return off + int(size)
}

// PrevFooter reads the footer word of the physically preceding block,
// located immediately before off. The caller must already know (via this
// block's PrevAllocated bit) that the predecessor is free, since an
// allocated or quick-listed predecessor does not maintain a footer.
func PrevFooter(data []byte, off int) Header {
	return ReadHeader(data, off-HeaderSize)
}

// Align8 rounds n up to the next multiple of 8.
func Align8(n int) int {
	return (n + 7) &^ 7
}
