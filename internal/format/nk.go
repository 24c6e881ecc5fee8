package format

import (
	"fmt"

	"github.com/joshuapare/hivetrace/internal/buf"
)

// NKRecord is a decoded key node. NK cells describe registry keys:
//
//	Offset  Size  Field
//	0x00    2     'n' 'k'
//	0x02    2     Flags (0x20 => compressed 8-bit name)
//	0x04    8     Last write time (FILETIME)
//	0x10    4     Parent cell offset
//	0x14    4     Number of subkeys
//	0x1C    4     Offset to subkey list
//	0x24    4     Number of values
//	0x28    4     Offset to value list
//	0x2C    4     Security offset
//	0x30    4     Class name offset
//	0x48    2     Name length (bytes)
//	0x4A    2     Class length (bytes)
//	0x4C    n     Name bytes
type NKRecord struct {
	Flags            uint16
	LastWriteRaw     uint64
	ParentOffset     uint32
	SubkeyCount      uint32
	SubkeyListOffset uint32
	ValueCount       uint32
	ValueListOffset  uint32
	SecurityOffset   uint32
	ClassNameOffset  uint32
	ClassLength      uint16
	NameRaw          []byte
}

// NameIsCompressed reports whether the name is stored in 8-bit form.
func (nk NKRecord) NameIsCompressed() bool {
	return nk.Flags&NKFlagCompressedName != 0
}

// HasSubkeyList reports whether the key references a subkey list at all.
func (nk NKRecord) HasSubkeyList() bool {
	return nk.SubkeyCount > 0 && nk.SubkeyListOffset != InvalidOffset
}

// HasValueList reports whether the key references a value list at all.
func (nk NKRecord) HasValueList() bool {
	return nk.ValueCount > 0 && nk.ValueListOffset != InvalidOffset
}

// DecodeNK decodes an NK payload and returns the record along with the bytes
// that follow the name within the cell.
func DecodeNK(b []byte) (NKRecord, []byte, error) {
	if len(b) < NKFixedHeaderSize {
		return NKRecord{}, nil, fmt.Errorf("nk: %w (have %d, need %d)", ErrTruncated, len(b), NKFixedHeaderSize)
	}
	if !hasSignature(b, NKSignature) {
		return NKRecord{}, nil, fmt.Errorf("nk: %w: got %q", ErrBadSignature, b[:SignatureSize])
	}

	nk := NKRecord{
		Flags:            buf.U16LE(b[NKFlagsOffset:]),
		LastWriteRaw:     buf.U64LE(b[NKLastWriteOffset:]),
		ParentOffset:     buf.U32LE(b[NKParentOffset:]),
		SubkeyCount:      buf.U32LE(b[NKSubkeyCountOffset:]),
		SubkeyListOffset: buf.U32LE(b[NKSubkeyListOffset:]),
		ValueCount:       buf.U32LE(b[NKValueCountOffset:]),
		ValueListOffset:  buf.U32LE(b[NKValueListOffset:]),
		SecurityOffset:   buf.U32LE(b[NKSecurityOffset:]),
		ClassNameOffset:  buf.U32LE(b[NKClassNameOffset:]),
		ClassLength:      buf.U16LE(b[NKClassLenOffset:]),
	}
	if nk.SubkeyCount > MaxSubkeyCount {
		return NKRecord{}, nil, fmt.Errorf("nk subkey count %d exceeds limit %d: %w",
			nk.SubkeyCount, MaxSubkeyCount, ErrSanityLimit)
	}
	if nk.ValueCount > MaxValueCount {
		return NKRecord{}, nil, fmt.Errorf("nk value count %d exceeds limit %d: %w",
			nk.ValueCount, MaxValueCount, ErrSanityLimit)
	}
	if int(nk.ClassLength) > MaxClassLen {
		return NKRecord{}, nil, fmt.Errorf("nk class len %d exceeds limit %d: %w",
			nk.ClassLength, MaxClassLen, ErrSanityLimit)
	}

	nameLen := int(buf.U16LE(b[NKNameLenOffset:]))
	if nameLen > MaxNameLen {
		return NKRecord{}, nil, fmt.Errorf("nk name len %d exceeds limit %d: %w",
			nameLen, MaxNameLen, ErrSanityLimit)
	}
	name, ok := buf.Slice(b, NKNameOffset, nameLen)
	if !ok {
		return NKRecord{}, nil, fmt.Errorf("nk name: %w (need %d bytes from %#x, have %d)",
			ErrTruncated, nameLen, NKNameOffset, len(b))
	}
	nk.NameRaw = name
	return nk, b[NKNameOffset+nameLen:], nil
}
