package format

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listPayload(sig []byte, entrySize int, pairs ...uint32) []byte {
	per := entrySize / OffsetFieldSize
	count := len(pairs) / per
	b := make([]byte, ListHeaderSize+count*entrySize)
	copy(b, sig)
	binary.LittleEndian.PutUint16(b[ListCountOffset:], uint16(count))
	for i, v := range pairs {
		binary.LittleEndian.PutUint32(b[ListHeaderSize+i*OffsetFieldSize:], v)
	}
	return b
}

func TestDecodeSubkeyListVariants(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		kind      ListKind
		offsets   []uint32
		hints     []uint32
		decodeFun func([]byte) (SubkeyList, []byte, error)
	}{
		{
			name:      "li",
			data:      listPayload(LISignature, LIEntrySize, 0x20, 0x40),
			kind:      ListLI,
			offsets:   []uint32{0x20, 0x40},
			decodeFun: DecodeLI,
		},
		{
			name:      "lf",
			data:      listPayload(LFSignature, LFEntrySize, 0x20, LFHint("Abc"), 0x40, LFHint("Zed")),
			kind:      ListLF,
			offsets:   []uint32{0x20, 0x40},
			hints:     []uint32{LFHint("Abc"), LFHint("Zed")},
			decodeFun: DecodeLF,
		},
		{
			name:      "lh",
			data:      listPayload(LHSignature, LHEntrySize, 0x60, LHHash("Services")),
			kind:      ListLH,
			offsets:   []uint32{0x60},
			hints:     []uint32{LHHash("Services")},
			decodeFun: DecodeLH,
		},
		{
			name:      "ri",
			data:      listPayload(RISignature, RIEntrySize, 0x1000, 0x2000, 0x3000),
			kind:      ListRI,
			offsets:   []uint32{0x1000, 0x2000, 0x3000},
			decodeFun: DecodeRI,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			direct, _, err := tt.decodeFun(tt.data)
			require.NoError(t, err)

			list, rest, err := DecodeSubkeyList(tt.data)
			require.NoError(t, err)
			assert.Equal(t, direct, list)
			assert.Equal(t, tt.kind, list.Kind)
			assert.Equal(t, tt.offsets, list.Offsets)
			assert.Equal(t, tt.hints, list.Hints)
			assert.False(t, list.Truncated)
			assert.Empty(t, rest)
		})
	}
}

func TestDecodeSubkeyListUnknown(t *testing.T) {
	_, _, err := DecodeSubkeyList([]byte{'z', 'z', 0, 0})
	require.ErrorIs(t, err, ErrUnknownList)

	_, _, err = DecodeSubkeyList([]byte{'l'})
	require.ErrorIs(t, err, ErrTruncated)

	_, _, err = DecodeLI(listPayload(LFSignature, LFEntrySize, 1, 2))
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestDecodeSubkeyListTruncated(t *testing.T) {
	b := listPayload(LHSignature, LHEntrySize, 0x20, 1, 0x40, 2)
	binary.LittleEndian.PutUint16(b[ListCountOffset:], 5)

	list, _, err := DecodeLH(b)
	require.NoError(t, err)
	assert.True(t, list.Truncated)
	assert.Equal(t, uint16(5), list.Count)
	assert.Equal(t, []uint32{0x20, 0x40}, list.Offsets)
}

func TestDecodeValueList(t *testing.T) {
	b := make([]byte, 12)
	binary.LittleEndian.PutUint32(b, 0x100)
	binary.LittleEndian.PutUint32(b[4:], 0x200)
	binary.LittleEndian.PutUint32(b[8:], 0x300)

	got, err := DecodeValueList(b, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x100, 0x200, 0x300}, got)

	got, err = DecodeValueList(b, 4)
	require.ErrorIs(t, err, ErrTruncated)
	assert.Len(t, got, 3, "entries that fit are still returned")

	got, err = DecodeValueList(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListKindString(t *testing.T) {
	assert.Equal(t, "lh", ListLH.String())
	assert.Equal(t, "unknown", ListUnknown.String())
	assert.Equal(t, ListRI, DetectListKind([]byte("ri\x00\x00")))
	assert.Equal(t, ListUnknown, DetectListKind(nil))
}

func TestHintRulesOut(t *testing.T) {
	lh := LHHash("Services")
	assert.False(t, HintRulesOut(ListLH, lh, "services"), "lh hash is case-insensitive")
	assert.True(t, HintRulesOut(ListLH, lh, "Control"))

	lf := LFHint("Select")
	assert.False(t, HintRulesOut(ListLF, lf, "SELECT"))
	assert.False(t, HintRulesOut(ListLF, lf, "Selection"), "prefix match is inconclusive")
	assert.True(t, HintRulesOut(ListLF, lf, "Setup"))

	assert.False(t, HintRulesOut(ListLI, 0, "anything"))
	assert.False(t, HintRulesOut(ListLH, lh, "Sërvices"), "non-ascii targets are never ruled out")
}
