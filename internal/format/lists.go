package format

import (
	"fmt"

	"github.com/joshuapare/hivetrace/internal/buf"
)

// ListKind identifies one of the four subkey list encodings.
type ListKind uint8

const (
	ListUnknown ListKind = iota
	ListLI               // leaf index: offsets only
	ListLF               // fast leaf: offset + first four name characters
	ListLH               // hash leaf: offset + name hash
	ListRI               // index root: offsets of other lists
)

func (k ListKind) String() string {
	switch k {
	case ListLI:
		return "li"
	case ListLF:
		return "lf"
	case ListLH:
		return "lh"
	case ListRI:
		return "ri"
	default:
		return "unknown"
	}
}

// SubkeyList is the normalized form of every subkey list encoding.
//
// For li/lf/lh, Offsets are child NK cells. For ri, Offsets are other
// subkey lists. Hints is parallel to Offsets for lf (packed name prefix) and
// lh (name hash) and nil otherwise. Hints are only good for ruling a child
// out; a hint match still requires decoding the child's name.
//
// Truncated is set when the declared count did not fit in the cell; Offsets
// then holds the entries that did.
type SubkeyList struct {
	Kind      ListKind
	Count     uint16
	Offsets   []uint32
	Hints     []uint32
	Truncated bool
}

// DetectListKind classifies a list payload by its signature.
func DetectListKind(b []byte) ListKind {
	switch {
	case hasSignature(b, LISignature):
		return ListLI
	case hasSignature(b, LFSignature):
		return ListLF
	case hasSignature(b, LHSignature):
		return ListLH
	case hasSignature(b, RISignature):
		return ListRI
	default:
		return ListUnknown
	}
}

// DecodeSubkeyList dispatches on the signature. Unrecognized signatures
// return ErrUnknownList.
func DecodeSubkeyList(b []byte) (SubkeyList, []byte, error) {
	switch DetectListKind(b) {
	case ListLI:
		return DecodeLI(b)
	case ListLF:
		return DecodeLF(b)
	case ListLH:
		return DecodeLH(b)
	case ListRI:
		return DecodeRI(b)
	}
	if len(b) < SignatureSize {
		return SubkeyList{}, nil, fmt.Errorf("subkey list: %w", ErrTruncated)
	}
	return SubkeyList{}, nil, fmt.Errorf("subkey list: %w: %q", ErrUnknownList, b[:SignatureSize])
}

// DecodeLI decodes an "li" list.
func DecodeLI(b []byte) (SubkeyList, []byte, error) {
	return decodeList(b, LISignature, ListLI, LIEntrySize, false)
}

// DecodeLF decodes an "lf" list.
func DecodeLF(b []byte) (SubkeyList, []byte, error) {
	return decodeList(b, LFSignature, ListLF, LFEntrySize, true)
}

// DecodeLH decodes an "lh" list.
func DecodeLH(b []byte) (SubkeyList, []byte, error) {
	return decodeList(b, LHSignature, ListLH, LHEntrySize, true)
}

// DecodeRI decodes an "ri" list whose entries point at other lists.
func DecodeRI(b []byte) (SubkeyList, []byte, error) {
	return decodeList(b, RISignature, ListRI, RIEntrySize, false)
}

func decodeList(b, sig []byte, kind ListKind, entrySize int, hinted bool) (SubkeyList, []byte, error) {
	if len(b) < ListHeaderSize {
		return SubkeyList{}, nil, fmt.Errorf("%s list: %w", kind, ErrTruncated)
	}
	if !hasSignature(b, sig) {
		return SubkeyList{}, nil, fmt.Errorf("%s list: %w: got %q", kind, ErrBadSignature, b[:SignatureSize])
	}

	count := buf.U16LE(b[ListCountOffset:])
	n := int(count)
	truncated := false
	if _, err := buf.CheckListBounds(len(b), ListHeaderSize, n, entrySize); err != nil {
		n = (len(b) - ListHeaderSize) / entrySize
		truncated = true
	}

	list := SubkeyList{
		Kind:      kind,
		Count:     count,
		Offsets:   make([]uint32, n),
		Truncated: truncated,
	}
	if hinted {
		list.Hints = make([]uint32, n)
	}
	for i := range n {
		at := ListHeaderSize + i*entrySize
		list.Offsets[i] = buf.U32LE(b[at:])
		if hinted {
			list.Hints[i] = buf.U32LE(b[at+OffsetFieldSize:])
		}
	}
	return list, b[ListHeaderSize+n*entrySize:], nil
}

// DecodeValueList reads count VK offsets from a value list cell. Value lists
// carry no header. When the cell is shorter than count entries the entries
// that fit are returned together with an ErrTruncated error.
func DecodeValueList(b []byte, count uint32) ([]uint32, error) {
	if count > MaxValueCount {
		return nil, fmt.Errorf("value list count %d exceeds limit %d: %w", count, MaxValueCount, ErrSanityLimit)
	}
	n := int(count)
	var err error
	if _, berr := buf.CheckListBounds(len(b), 0, n, OffsetFieldSize); berr != nil {
		n = len(b) / OffsetFieldSize
		err = fmt.Errorf("value list: %w (declared %d, room for %d)", ErrTruncated, count, n)
	}
	out := make([]uint32, n)
	for i := range n {
		out[i] = buf.U32LE(b[i*OffsetFieldSize:])
	}
	return out, err
}
