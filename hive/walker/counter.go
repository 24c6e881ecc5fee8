package walker

import (
	"fmt"

	"github.com/joshuapare/hivetrace/hive"
	"github.com/joshuapare/hivetrace/internal/format"
)

// CellStats counts the cells found by a linear scan of every bin. Unlike a
// walk it also sees free cells and cells no key refers to any more.
type CellStats struct {
	TotalCells uint64
	FreeCells  uint64
	FreeBytes  uint64
	UsedBytes  uint64

	// Allocated cells by tag
	NKCells    uint64
	VKCells    uint64
	SKCells    uint64
	LFCells    uint64
	LHCells    uint64
	LICells    uint64
	RICells    uint64
	DBCells    uint64
	OtherCells uint64 // data, value lists, blocklists, class names

	// BadCells counts positions where a cell header could not be parsed;
	// the rest of that bin is skipped.
	BadCells uint64
}

// CountCells scans every indexed bin of h cell by cell.
func CountCells(h *hive.Hive) CellStats {
	var st CellStats
	data := h.Bytes()
	for _, bin := range h.Bins() {
		off := bin.Offset + format.HBINHeaderSize
		for off < bin.End() {
			c, err := format.ParseCell(data[off:bin.End()])
			if err != nil {
				st.BadCells++
				break
			}
			st.TotalCells++
			if c.Free {
				st.FreeCells++
				st.FreeBytes += uint64(c.Size)
			} else {
				st.UsedBytes += uint64(c.Size)
				st.countTag(c.Tag())
			}
			off += uint64(c.Size)
		}
	}
	return st
}

func (st *CellStats) countTag(tag string) {
	switch tag {
	case "nk":
		st.NKCells++
	case "vk":
		st.VKCells++
	case "sk":
		st.SKCells++
	case "lf":
		st.LFCells++
	case "lh":
		st.LHCells++
	case "li":
		st.LICells++
	case "ri":
		st.RICells++
	case "db":
		st.DBCells++
	default:
		st.OtherCells++
	}
}

// String returns a human-readable summary of the cell statistics.
func (st CellStats) String() string {
	return fmt.Sprintf(
		"Total: %d cells (%d free, %d bytes free, %d bytes used)\n"+
			"  NK: %d, VK: %d, SK: %d\n"+
			"  LF: %d, LH: %d, LI: %d, RI: %d\n"+
			"  DB: %d, Other: %d, Bad: %d",
		st.TotalCells, st.FreeCells, st.FreeBytes, st.UsedBytes,
		st.NKCells, st.VKCells, st.SKCells,
		st.LFCells, st.LHCells, st.LICells, st.RICells,
		st.DBCells, st.OtherCells, st.BadCells,
	)
}
