package format

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nkPayload(name []byte, flags uint16) []byte {
	b := make([]byte, NKFixedHeaderSize+len(name)+6)
	copy(b, NKSignature)
	binary.LittleEndian.PutUint16(b[NKFlagsOffset:], flags)
	binary.LittleEndian.PutUint64(b[NKLastWriteOffset:], 0x01D0000000000000)
	binary.LittleEndian.PutUint32(b[NKParentOffset:], InvalidOffset)
	binary.LittleEndian.PutUint32(b[NKSubkeyCountOffset:], 1)
	binary.LittleEndian.PutUint32(b[NKSubkeyListOffset:], 0x200)
	binary.LittleEndian.PutUint32(b[NKValueCountOffset:], 2)
	binary.LittleEndian.PutUint32(b[NKValueListOffset:], 0x300)
	binary.LittleEndian.PutUint32(b[NKSecurityOffset:], 0x400)
	binary.LittleEndian.PutUint32(b[NKClassNameOffset:], InvalidOffset)
	binary.LittleEndian.PutUint16(b[NKNameLenOffset:], uint16(len(name)))
	copy(b[NKNameOffset:], name)
	return b
}

func TestDecodeNK(t *testing.T) {
	nk, rest, err := DecodeNK(nkPayload([]byte("ROOT"), NKFlagCompressedName))
	require.NoError(t, err)
	assert.Equal(t, "ROOT", string(nk.NameRaw))
	assert.True(t, nk.NameIsCompressed())
	assert.Equal(t, uint32(1), nk.SubkeyCount)
	assert.Equal(t, uint32(0x200), nk.SubkeyListOffset)
	assert.Equal(t, uint32(2), nk.ValueCount)
	assert.Equal(t, uint32(0x300), nk.ValueListOffset)
	assert.Equal(t, uint32(0x400), nk.SecurityOffset)
	assert.True(t, nk.HasSubkeyList())
	assert.True(t, nk.HasValueList())
	assert.Len(t, rest, 6, "remaining bytes follow the name")
}

func TestDecodeNKSentinelLists(t *testing.T) {
	b := nkPayload([]byte("leaf"), NKFlagCompressedName)
	binary.LittleEndian.PutUint32(b[NKSubkeyListOffset:], InvalidOffset)
	binary.LittleEndian.PutUint32(b[NKValueListOffset:], InvalidOffset)

	nk, _, err := DecodeNK(b)
	require.NoError(t, err)
	assert.False(t, nk.HasSubkeyList())
	assert.False(t, nk.HasValueList())
}

func TestDecodeNKErrors(t *testing.T) {
	tests := []struct {
		name string
		data func() []byte
		want error
	}{
		{"empty", func() []byte { return nil }, ErrTruncated},
		{"short", func() []byte { return []byte("nk") }, ErrTruncated},
		{"signature", func() []byte {
			b := nkPayload([]byte("X"), 0)
			copy(b, "vk")
			return b
		}, ErrBadSignature},
		{"name past end", func() []byte {
			b := nkPayload([]byte("X"), 0)
			binary.LittleEndian.PutUint16(b[NKNameLenOffset:], 0x100)
			return b
		}, ErrTruncated},
		{"absurd subkey count", func() []byte {
			b := nkPayload([]byte("X"), 0)
			binary.LittleEndian.PutUint32(b[NKSubkeyCountOffset:], 0xFFFFFFF0)
			return b
		}, ErrSanityLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeNK(tt.data())
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func vkPayload(name string, typ uint32, length, off uint32, flags uint16) []byte {
	b := make([]byte, VKFixedHeaderSize+len(name))
	copy(b, VKSignature)
	binary.LittleEndian.PutUint16(b[VKNameLenOffset:], uint16(len(name)))
	binary.LittleEndian.PutUint32(b[VKDataLenOffset:], length)
	binary.LittleEndian.PutUint32(b[VKDataOffOffset:], off)
	binary.LittleEndian.PutUint32(b[VKTypeOffset:], typ)
	binary.LittleEndian.PutUint16(b[VKFlagsOffset:], flags)
	copy(b[VKNameOffset:], name)
	return b
}

func TestDecodeVK(t *testing.T) {
	vk, rest, err := DecodeVK(vkPayload("ImagePath", 2, 40, 0x1234, VKFlagASCIIName))
	require.NoError(t, err)
	assert.Equal(t, "ImagePath", string(vk.NameRaw))
	assert.True(t, vk.NameIsASCII())
	assert.False(t, vk.DataInline())
	assert.Equal(t, 40, vk.Length())
	assert.Equal(t, uint32(0x1234), vk.DataOffset)
	assert.Equal(t, uint32(2), vk.Type)
	assert.Empty(t, rest)
}

func TestDecodeVKInline(t *testing.T) {
	vk, _, err := DecodeVK(vkPayload("Start", 4, VKDataInlineBit|4, 0x00000002, VKFlagASCIIName))
	require.NoError(t, err)
	assert.True(t, vk.DataInline())
	assert.Equal(t, []byte{2, 0, 0, 0}, vk.InlineData())

	vk, _, err = DecodeVK(vkPayload("b", 3, VKDataInlineBit|2, 0xBBAA, VKFlagASCIIName))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, vk.InlineData())

	vk, _, err = DecodeVK(vkPayload("odd", 3, VKDataInlineBit|9, 0x04030201, VKFlagASCIIName))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, vk.InlineData(), "inline length clamps to four bytes")
}

func TestDecodeVKErrors(t *testing.T) {
	_, _, err := DecodeVK([]byte("vk"))
	require.ErrorIs(t, err, ErrTruncated)

	b := vkPayload("x", 1, 0, 0, 0)
	copy(b, "nk")
	_, _, err = DecodeVK(b)
	require.ErrorIs(t, err, ErrBadSignature)

	b = vkPayload("x", 1, 0, 0, 0)
	binary.LittleEndian.PutUint16(b[VKNameLenOffset:], 50)
	_, _, err = DecodeVK(b)
	require.ErrorIs(t, err, ErrTruncated)

	_, _, err = DecodeVK(vkPayload("x", 1, 0x7FFFFFFF, 0, 0))
	require.ErrorIs(t, err, ErrSanityLimit)
}

func TestDecodeDB(t *testing.T) {
	b := make([]byte, DBHeaderSize)
	copy(b, DBSignature)
	binary.LittleEndian.PutUint16(b[DBCountOffset:], 3)
	binary.LittleEndian.PutUint32(b[DBListOffset:], 0x880)

	require.True(t, IsDBRecord(b))
	db, err := DecodeDB(b)
	require.NoError(t, err)
	assert.Equal(t, uint16(3), db.NumBlocks)
	assert.Equal(t, uint32(0x880), db.BlocklistOffset)

	_, err = DecodeDB(b[:6])
	require.ErrorIs(t, err, ErrTruncated)

	binary.LittleEndian.PutUint16(b[DBCountOffset:], 0)
	_, err = DecodeDB(b)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeBlocklist(t *testing.T) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b, 0x10)
	binary.LittleEndian.PutUint32(b[4:], 0x20)

	got, err := DecodeBlocklist(b, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x10, 0x20}, got)

	_, err = DecodeBlocklist(b, 3)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestFiletime(t *testing.T) {
	ts := time.Date(2021, 6, 1, 12, 30, 45, 123456700, time.UTC)
	assert.True(t, ts.Equal(FiletimeToTime(TimeToFiletime(ts))))
	assert.Equal(t, time.Unix(0, 0).UTC(), FiletimeToTime(0))
	assert.Equal(t, time.Unix(0, 0).UTC(), FiletimeToTime(filetimeOffset))
}
