package format

import (
	"fmt"

	"github.com/joshuapare/hivetrace/internal/buf"
)

// DBRecord is a big data header used for values longer than DBChunkSize.
//
//	Offset  Size  Field
//	0x00    2     'd' 'b'
//	0x02    2     Number of data blocks
//	0x04    4     Offset of the blocklist cell
//	0x08    4     Unknown
//
// The blocklist cell is an array of block offsets. Concatenating the first
// DBChunkSize bytes of each block reproduces the value.
type DBRecord struct {
	NumBlocks       uint16
	BlocklistOffset uint32
}

// IsDBRecord reports whether b starts with the "db" signature.
func IsDBRecord(b []byte) bool {
	return hasSignature(b, DBSignature)
}

// DecodeDB decodes a big data header.
func DecodeDB(b []byte) (DBRecord, error) {
	if len(b) < DBHeaderSize {
		return DBRecord{}, fmt.Errorf("db: %w (have %d, need %d)", ErrTruncated, len(b), DBHeaderSize)
	}
	if !IsDBRecord(b) {
		return DBRecord{}, fmt.Errorf("db: %w: got %q", ErrBadSignature, b[:SignatureSize])
	}
	rec := DBRecord{
		NumBlocks:       buf.U16LE(b[DBCountOffset:]),
		BlocklistOffset: buf.U32LE(b[DBListOffset:]),
	}
	if rec.NumBlocks == 0 {
		return DBRecord{}, fmt.Errorf("db: zero blocks: %w", ErrTruncated)
	}
	return rec, nil
}

// DecodeBlocklist reads n block offsets from a blocklist cell payload.
func DecodeBlocklist(b []byte, n int) ([]uint32, error) {
	if _, err := buf.CheckListBounds(len(b), 0, n, OffsetFieldSize); err != nil {
		return nil, fmt.Errorf("db blocklist: %w: %w", ErrTruncated, err)
	}
	out := make([]uint32, n)
	for i := range n {
		out[i] = buf.U32LE(b[i*OffsetFieldSize:])
	}
	return out, nil
}
