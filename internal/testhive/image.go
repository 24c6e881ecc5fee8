package testhive

import (
	"encoding/binary"
	"fmt"

	"github.com/joshuapare/hivetrace/internal/format"
)

// Image is a built hive plus the relative offsets of its cells.
type Image struct {
	Data []byte

	// Keys maps a key path (ROOT\A\B) to its NK cell.
	Keys map[string]uint32
	// Lists maps a key path to its subkey list cell (the ri when ri is used).
	Lists map[string]uint32
	// ListKinds maps a key path to the encoding of Lists[path].
	ListKinds map[string]format.ListKind
	// Leaves maps a key path to the leaf lists under its ri, if any.
	Leaves map[string][]uint32
	// ValueLists maps a key path to its value list cell.
	ValueLists map[string]uint32
	// Values maps "path:name" to the VK cell.
	Values map[string]uint32
}

// Bytes returns a copy of the hive so tests can corrupt it independently.
func (im *Image) Bytes() []byte {
	out := make([]byte, len(im.Data))
	copy(out, im.Data)
	return out
}

// Abs converts a relative cell offset plus a payload offset to an absolute
// file offset.
func Abs(rel uint32, payloadOff int) int {
	return format.HeaderSize + int(rel) + format.CellHeaderSize + payloadOff
}

// PutU32 overwrites a uint32 inside the payload of the cell at rel.
func (im *Image) PutU32(rel uint32, payloadOff int, v uint32) {
	binary.LittleEndian.PutUint32(im.Data[Abs(rel, payloadOff):], v)
}

// PutU16 overwrites a uint16 inside the payload of the cell at rel.
func (im *Image) PutU16(rel uint32, payloadOff int, v uint16) {
	binary.LittleEndian.PutUint16(im.Data[Abs(rel, payloadOff):], v)
}

// PutBytes overwrites bytes inside the payload of the cell at rel.
func (im *Image) PutBytes(rel uint32, payloadOff int, b []byte) {
	copy(im.Data[Abs(rel, payloadOff):], b)
}

// SetListEntry rewrites the i-th offset of the subkey list owned by path.
// For ri lists this is the i-th leaf list.
func (im *Image) SetListEntry(path string, i int, v uint32) {
	rel, ok := im.Lists[path]
	if !ok {
		panic(fmt.Sprintf("testhive: %s has no subkey list", path))
	}
	im.PutU32(rel, format.ListHeaderSize+i*entrySize(im.ListKinds[path]), v)
}

// SetLeafEntry rewrites entry i of leaf list leaf under path's ri.
func (im *Image) SetLeafEntry(path string, leaf, i int, v uint32) {
	im.PutU32(im.Leaves[path][leaf], format.ListHeaderSize+i*format.LHEntrySize, v)
}

// Key returns the NK offset for path or panics.
func (im *Image) Key(path string) uint32 {
	rel, ok := im.Keys[path]
	if !ok {
		panic(fmt.Sprintf("testhive: no key %s", path))
	}
	return rel
}

func entrySize(kind format.ListKind) int {
	switch kind {
	case format.ListLI:
		return format.LIEntrySize
	case format.ListRI:
		return format.RIEntrySize
	default:
		return format.LFEntrySize
	}
}
