package hive

import (
	"fmt"

	"github.com/joshuapare/hivetrace/internal/format"
)

// Abs converts a relative cell offset to an absolute file offset.
func (h *Hive) Abs(rel uint32) uint64 {
	return uint64(rel) + format.HeaderSize
}

// Resolve returns the payload of the allocated cell at relative offset rel,
// without the 4-byte size header.
//
// The offset must land inside an indexed bin, past its header, and the cell
// must not cross the end of that bin. Callers check for format.InvalidOffset
// before calling; passing it yields ErrOutOfBounds.
func (h *Hive) Resolve(rel uint32) ([]byte, error) {
	c, err := h.cell(rel)
	if err != nil {
		return nil, err
	}
	if c.Free {
		return nil, fmt.Errorf("cell %#x: %w", rel, ErrFreeCell)
	}
	return c.Data, nil
}

func (h *Hive) cell(rel uint32) (format.Cell, error) {
	if rel == format.InvalidOffset {
		return format.Cell{}, fmt.Errorf("cell: sentinel offset: %w", ErrOutOfBounds)
	}
	abs := h.Abs(rel)
	if abs >= uint64(len(h.data)) {
		return format.Cell{}, fmt.Errorf("cell %#x: absolute %#x past end %#x: %w", rel, abs, len(h.data), ErrOutOfBounds)
	}
	bin, ok := findBin(h.bins, abs)
	if !ok {
		return format.Cell{}, fmt.Errorf("cell %#x: absolute %#x not in any bin: %w", rel, abs, ErrOutOfBounds)
	}
	if abs < bin.Offset+format.HBINHeaderSize {
		return format.Cell{}, fmt.Errorf("cell %#x: inside bin header at %#x: %w", rel, bin.Offset, ErrOutOfBounds)
	}
	c, err := format.ParseCell(h.data[abs:bin.End()])
	if err != nil {
		return format.Cell{}, fmt.Errorf("cell %#x: %w", rel, err)
	}
	return c, nil
}
