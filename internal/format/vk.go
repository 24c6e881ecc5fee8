package format

import (
	"fmt"

	"github.com/joshuapare/hivetrace/internal/buf"
)

// VKRecord is a decoded value node.
//
//	Offset  Size  Field
//	0x00    2     'v' 'k'
//	0x02    2     Name length
//	0x04    4     Data length (high bit => inline)
//	0x08    4     Data offset, or the data itself when inline
//	0x0C    4     Value type
//	0x10    2     Flags (0x0001 => 8-bit name)
//	0x14    n     Name bytes
type VKRecord struct {
	DataLength uint32
	DataOffset uint32
	Type       uint32
	Flags      uint16
	NameRaw    []byte
}

// NameIsASCII reports whether the name is stored as 8-bit bytes.
func (vk VKRecord) NameIsASCII() bool {
	return vk.Flags&VKFlagASCIIName != 0
}

// DataInline reports whether the data lives in the offset field.
func (vk VKRecord) DataInline() bool {
	return vk.DataLength&VKDataInlineBit != 0
}

// Length returns the data length with the inline bit masked off.
func (vk VKRecord) Length() int {
	return int(vk.DataLength & VKDataLengthMask)
}

// InlineData returns the bytes stored in the offset field. Only meaningful
// when DataInline is true; the length is clamped to four bytes.
func (vk VKRecord) InlineData() []byte {
	n := vk.Length()
	if n > VKMaxInlineBytes {
		n = VKMaxInlineBytes
	}
	raw := []byte{
		byte(vk.DataOffset),
		byte(vk.DataOffset >> 8),
		byte(vk.DataOffset >> 16),
		byte(vk.DataOffset >> 24),
	}
	return raw[:n]
}

// DecodeVK decodes a VK payload and returns the bytes after the name.
func DecodeVK(b []byte) (VKRecord, []byte, error) {
	if len(b) < VKFixedHeaderSize {
		return VKRecord{}, nil, fmt.Errorf("vk: %w (have %d, need %d)", ErrTruncated, len(b), VKFixedHeaderSize)
	}
	if !hasSignature(b, VKSignature) {
		return VKRecord{}, nil, fmt.Errorf("vk: %w: got %q", ErrBadSignature, b[:SignatureSize])
	}

	vk := VKRecord{
		DataLength: buf.U32LE(b[VKDataLenOffset:]),
		DataOffset: buf.U32LE(b[VKDataOffOffset:]),
		Type:       buf.U32LE(b[VKTypeOffset:]),
		Flags:      buf.U16LE(b[VKFlagsOffset:]),
	}
	if vk.Length() > MaxValueDataLen {
		return VKRecord{}, nil, fmt.Errorf("vk data len %d exceeds limit %d: %w",
			vk.Length(), MaxValueDataLen, ErrSanityLimit)
	}

	nameLen := int(buf.U16LE(b[VKNameLenOffset:]))
	if nameLen > MaxNameLen {
		return VKRecord{}, nil, fmt.Errorf("vk name len %d exceeds limit %d: %w",
			nameLen, MaxNameLen, ErrSanityLimit)
	}
	name, ok := buf.Slice(b, VKNameOffset, nameLen)
	if !ok {
		return VKRecord{}, nil, fmt.Errorf("vk name: %w (need %d bytes from %#x, have %d)",
			ErrTruncated, nameLen, VKNameOffset, len(b))
	}
	vk.NameRaw = name
	return vk, b[VKNameOffset+nameLen:], nil
}
