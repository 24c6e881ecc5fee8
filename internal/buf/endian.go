// Package buf contains bounds-checked slicing and endian helpers shared by
// the hive decoders. Nothing here panics on short input.
package buf

import "encoding/binary"

type word interface {
	uint16 | uint32 | uint64
}

// fixed decodes the leading width bytes of b with get. Short input yields 0,
// which every REGF field reader treats as "absent".
func fixed[T word](b []byte, width int, get func([]byte) T) T {
	if len(b) < width {
		return 0
	}
	return get(b)
}

func U16LE(b []byte) uint16 { return fixed(b, 2, binary.LittleEndian.Uint16) }
func U32LE(b []byte) uint32 { return fixed(b, 4, binary.LittleEndian.Uint32) }
func U64LE(b []byte) uint64 { return fixed(b, 8, binary.LittleEndian.Uint64) }

// U32BE is for REG_DWORD_BIG_ENDIAN data.
func U32BE(b []byte) uint32 { return fixed(b, 4, binary.BigEndian.Uint32) }

// I32LE reads a cell size header: negative for allocated cells.
func I32LE(b []byte) int32 { return int32(U32LE(b)) }
