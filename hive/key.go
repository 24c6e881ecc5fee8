package hive

import (
	"fmt"
	"time"

	"github.com/joshuapare/hivetrace/internal/buf"
	"github.com/joshuapare/hivetrace/internal/format"
	"github.com/joshuapare/hivetrace/internal/textenc"
)

// Key is a decoded key node. Name is always valid UTF-8 and owned by the
// Key; the remaining fields are plain numbers.
type Key struct {
	Offset           uint32 // relative offset of the NK cell
	Name             string
	LastWritten      time.Time
	Flags            uint16
	ParentOffset     uint32
	SubkeyCount      uint32
	SubkeyListOffset uint32
	ValueCount       uint32
	ValueListOffset  uint32
	SecurityOffset   uint32
	ClassNameOffset  uint32
	ClassLength      uint16
}

// HasSubkeyList reports whether the key points at a subkey list.
func (k Key) HasSubkeyList() bool {
	return k.SubkeyCount > 0 && k.SubkeyListOffset != format.InvalidOffset
}

// HasValueList reports whether the key points at a value list.
func (k Key) HasValueList() bool {
	return k.ValueCount > 0 && k.ValueListOffset != format.InvalidOffset
}

// IsRoot reports whether the NK carries the hive root flag.
func (k Key) IsRoot() bool {
	return k.Flags&format.NKFlagRoot != 0
}

// DecodeKeyName decodes an NK name: Windows-1252 when compressed, UTF-16LE
// otherwise.
func DecodeKeyName(raw []byte, compressed bool) string {
	if compressed {
		return textenc.Windows1252(raw)
	}
	return textenc.UTF16(raw)
}

// DecodeValueName decodes a VK name: Windows-1252 when the ASCII flag is
// set, UTF-16LE otherwise.
func DecodeValueName(raw []byte, ascii bool) string {
	return DecodeKeyName(raw, ascii)
}

// Key decodes the NK cell at relative offset rel.
func (h *Hive) Key(rel uint32) (Key, error) {
	payload, err := h.Resolve(rel)
	if err != nil {
		return Key{}, err
	}
	nk, _, err := format.DecodeNK(payload)
	if err != nil {
		return Key{}, fmt.Errorf("key %#x: %w", rel, err)
	}
	return Key{
		Offset:           rel,
		Name:             DecodeKeyName(nk.NameRaw, nk.NameIsCompressed()),
		LastWritten:      format.FiletimeToTime(nk.LastWriteRaw),
		Flags:            nk.Flags,
		ParentOffset:     nk.ParentOffset,
		SubkeyCount:      nk.SubkeyCount,
		SubkeyListOffset: nk.SubkeyListOffset,
		ValueCount:       nk.ValueCount,
		ValueListOffset:  nk.ValueListOffset,
		SecurityOffset:   nk.SecurityOffset,
		ClassNameOffset:  nk.ClassNameOffset,
		ClassLength:      nk.ClassLength,
	}, nil
}

// Root decodes the root key named by the base block.
func (h *Hive) Root() (Key, error) {
	return h.Key(h.RootOffset())
}

// ClassName decodes the key's class name. Keys without a class return "".
func (h *Hive) ClassName(k Key) (string, error) {
	if k.ClassLength == 0 || k.ClassNameOffset == format.InvalidOffset {
		return "", nil
	}
	payload, err := h.Resolve(k.ClassNameOffset)
	if err != nil {
		return "", fmt.Errorf("class of %q: %w", k.Name, err)
	}
	raw, ok := buf.Slice(payload, 0, int(k.ClassLength))
	if !ok {
		return "", fmt.Errorf("class of %q: %w", k.Name, ErrTruncated)
	}
	return textenc.UTF16(raw), nil
}

// SubkeyList decodes the list cell at rel without following ri entries.
func (h *Hive) SubkeyList(rel uint32) (format.SubkeyList, error) {
	payload, err := h.Resolve(rel)
	if err != nil {
		return format.SubkeyList{}, err
	}
	list, _, err := format.DecodeSubkeyList(payload)
	if err != nil {
		return format.SubkeyList{}, fmt.Errorf("list %#x: %w", rel, err)
	}
	return list, nil
}
