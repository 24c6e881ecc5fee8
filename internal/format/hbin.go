package format

import (
	"fmt"

	"github.com/joshuapare/hivetrace/internal/buf"
)

// HBIN is a decoded hive bin header.
//
//	Offset  Size  Field
//	0x00    4     'h' 'b' 'i' 'n'
//	0x04    4     Offset of this bin relative to the first bin
//	0x08    4     Size of the bin, multiple of 0x1000
//	0x14    8     Timestamp (first bin only)
type HBIN struct {
	FileOffset uint32
	Size       uint32
}

// DecodeHBIN validates the header at off within b. The size must be a
// positive multiple of 0x1000 and the whole bin must fit in b.
func DecodeHBIN(b []byte, off int) (HBIN, error) {
	head, ok := buf.Slice(b, off, HBINHeaderSize)
	if !ok {
		return HBIN{}, fmt.Errorf("hbin at %#x: %w", off, ErrOutOfBounds)
	}
	if !hasSignature(head, HBINSignature) {
		return HBIN{}, fmt.Errorf("hbin at %#x: %w: signature %q", off, ErrBadHeader, head[:4])
	}
	size := buf.U32LE(head[HBINSizeOffset:])
	if size == 0 || size%HBINAlignment != 0 {
		return HBIN{}, fmt.Errorf("hbin at %#x: %w: invalid size %#x", off, ErrBadHeader, size)
	}
	if !buf.Has(b, off, int(size)) {
		return HBIN{}, fmt.Errorf("hbin at %#x: size %#x: %w", off, size, ErrOutOfBounds)
	}
	return HBIN{
		FileOffset: buf.U32LE(head[HBINFileOffsetField:]),
		Size:       size,
	}, nil
}
