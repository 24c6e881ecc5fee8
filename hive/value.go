package hive

import (
	"errors"
	"fmt"

	"github.com/joshuapare/hivetrace/internal/buf"
	"github.com/joshuapare/hivetrace/internal/format"
	"github.com/joshuapare/hivetrace/pkg/types"
)

// ErrValueData marks failures to recover a value's data after its header
// decoded. The value itself is still usable.
var ErrValueData = errors.New("hive: value data unavailable")

// ValueNode is a decoded VK header. Data is fetched separately with
// (*Hive).ValueData so a damaged data cell does not hide the value.
type ValueNode struct {
	Offset     uint32
	Name       string
	Type       types.RegType
	Length     int
	Inline     bool
	DataOffset uint32
	inline     []byte
}

// ValueOffsets returns the VK offsets listed by k. Zero and sentinel entries
// are dropped. A truncated list yields the entries that fit plus an error.
func (h *Hive) ValueOffsets(k Key) ([]uint32, error) {
	if !k.HasValueList() {
		return nil, nil
	}
	payload, err := h.Resolve(k.ValueListOffset)
	if err != nil {
		return nil, fmt.Errorf("value list of %q: %w", k.Name, err)
	}
	raw, err := format.DecodeValueList(payload, k.ValueCount)
	out := raw[:0]
	for _, off := range raw {
		if off != 0 && off != format.InvalidOffset {
			out = append(out, off)
		}
	}
	if err != nil {
		return out, fmt.Errorf("value list of %q: %w", k.Name, err)
	}
	return out, nil
}

// ValueNode decodes the VK cell at rel.
func (h *Hive) ValueNode(rel uint32) (ValueNode, error) {
	payload, err := h.Resolve(rel)
	if err != nil {
		return ValueNode{}, err
	}
	vk, _, err := format.DecodeVK(payload)
	if err != nil {
		return ValueNode{}, fmt.Errorf("value %#x: %w", rel, err)
	}
	vn := ValueNode{
		Offset:     rel,
		Name:       DecodeValueName(vk.NameRaw, vk.NameIsASCII()),
		Type:       types.RegType(vk.Type),
		Length:     vk.Length(),
		Inline:     vk.DataInline(),
		DataOffset: vk.DataOffset,
	}
	if vn.Inline {
		vn.inline = vk.InlineData()
	}
	return vn, nil
}

// ValueData returns a copy of the value's data. Inline data, plain data
// cells and big data (db) chains are all handled. Errors wrap ErrValueData.
func (h *Hive) ValueData(vn ValueNode) ([]byte, error) {
	switch {
	case vn.Inline:
		return buf.Clone(vn.inline), nil
	case vn.Length == 0:
		return []byte{}, nil
	case vn.DataOffset == format.InvalidOffset:
		return nil, fmt.Errorf("%w: %q declares %d bytes but no data cell", ErrValueData, vn.Name, vn.Length)
	}

	payload, err := h.Resolve(vn.DataOffset)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrValueData, vn.Name, err)
	}
	if vn.Length > format.DBThreshold && format.IsDBRecord(payload) {
		data, err := h.bigData(payload, vn.Length)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrValueData, vn.Name, err)
		}
		return data, nil
	}
	data, ok := buf.Slice(payload, 0, vn.Length)
	if !ok {
		return nil, fmt.Errorf("%w: %q: cell holds %d of %d bytes: %w",
			ErrValueData, vn.Name, len(payload), vn.Length, ErrTruncated)
	}
	return buf.Clone(data), nil
}

// Value decodes the VK at rel together with its data. A failure to read the
// data is returned alongside the header so callers can keep the value.
func (h *Hive) Value(rel uint32) (types.Value, error) {
	vn, err := h.ValueNode(rel)
	if err != nil {
		return types.Value{}, err
	}
	v := types.Value{Name: vn.Name, Type: vn.Type}
	v.Data, err = h.ValueData(vn)
	return v, err
}

func (h *Hive) bigData(payload []byte, length int) ([]byte, error) {
	db, err := format.DecodeDB(payload)
	if err != nil {
		return nil, err
	}
	listPayload, err := h.Resolve(db.BlocklistOffset)
	if err != nil {
		return nil, fmt.Errorf("db blocklist: %w", err)
	}
	blocks, err := format.DecodeBlocklist(listPayload, int(db.NumBlocks))
	if err != nil {
		return nil, err
	}

	capacity := len(blocks) * format.DBChunkSize
	if length > capacity {
		return nil, fmt.Errorf("db: %d blocks carry at most %d of %d bytes: %w", len(blocks), capacity, length, ErrTruncated)
	}

	out := make([]byte, 0, length)
	for i, off := range blocks {
		if len(out) == length {
			break
		}
		block, err := h.Resolve(off)
		if err != nil {
			return nil, fmt.Errorf("db block %d: %w", i, err)
		}
		n := min(length-len(out), format.DBChunkSize, len(block))
		out = append(out, block[:n]...)
	}
	if len(out) < length {
		return nil, fmt.Errorf("db: assembled %d of %d bytes: %w", len(out), length, ErrTruncated)
	}
	return out, nil
}
