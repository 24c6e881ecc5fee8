package format

import (
	"fmt"

	"github.com/joshuapare/hivetrace/internal/buf"
)

// Cell is a single allocation within a hive bin.
//
//	Offset  Size  Description
//	0x00    4     Signed size. Negative => allocated, positive => free.
//	              The absolute value includes the 4-byte header.
//	0x04    ...   Payload. The first two bytes form the record tag.
type Cell struct {
	Size int
	Free bool
	Data []byte
}

// Tag returns the two-byte record tag, or "" when the payload is too short.
func (c Cell) Tag() string {
	if len(c.Data) < SignatureSize {
		return ""
	}
	return string(c.Data[:SignatureSize])
}

// ParseCell decodes the cell header at the start of b. The declared size is
// validated against len(b) which callers limit to the end of the owning bin.
func ParseCell(b []byte) (Cell, error) {
	if len(b) < CellHeaderSize {
		return Cell{}, fmt.Errorf("cell: %w", ErrTruncated)
	}
	raw := buf.I32LE(b)
	if raw == 0 {
		return Cell{}, fmt.Errorf("cell: zero size: %w", ErrTruncated)
	}
	free := raw > 0
	size := int(raw)
	if !free {
		size = -size
	}
	if size < CellHeaderSize || size > len(b) {
		return Cell{}, fmt.Errorf("cell: declared size %d, room %d: %w", size, len(b), ErrOutOfBounds)
	}
	return Cell{
		Size: size,
		Free: free,
		Data: b[CellHeaderSize:size],
	}, nil
}
