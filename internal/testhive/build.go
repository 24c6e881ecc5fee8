package testhive

import (
	"encoding/binary"

	"github.com/joshuapare/hivetrace/internal/format"
	"github.com/joshuapare/hivetrace/internal/textenc"
)

// allocator hands out cells inside 4 KiB aligned bins. Offsets are relative
// to the first bin; bins grow to fit cells larger than a page.
type allocator struct {
	bins     []byte
	binStart int
	cur      int
	binEnd   int
}

func align(n, to int) int {
	return (n + to - 1) &^ (to - 1)
}

func (a *allocator) alloc(payload int) uint32 {
	size := align(format.CellHeaderSize+payload, 8)
	if a.cur+size > a.binEnd || len(a.bins) == 0 {
		a.closeBin()
		binSize := align(size+format.HBINHeaderSize, format.HBINAlignment)
		a.binStart = len(a.bins)
		a.bins = append(a.bins, make([]byte, binSize)...)
		copy(a.bins[a.binStart:], format.HBINSignature)
		binary.LittleEndian.PutUint32(a.bins[a.binStart+format.HBINFileOffsetField:], uint32(a.binStart))
		binary.LittleEndian.PutUint32(a.bins[a.binStart+format.HBINSizeOffset:], uint32(binSize))
		a.cur = a.binStart + format.HBINHeaderSize
		a.binEnd = a.binStart + binSize
	}
	rel := a.cur
	binary.LittleEndian.PutUint32(a.bins[rel:], uint32(-int32(size)))
	a.cur += size
	return uint32(rel)
}

// closeBin marks the unused tail of the current bin as one free cell.
func (a *allocator) closeBin() {
	if rest := a.binEnd - a.cur; rest >= format.CellHeaderSize {
		binary.LittleEndian.PutUint32(a.bins[a.cur:], uint32(rest))
		a.cur = a.binEnd
	}
}

// payload returns the writable payload of the cell at rel.
func (a *allocator) payload(rel uint32) []byte {
	size := -int32(binary.LittleEndian.Uint32(a.bins[rel:]))
	return a.bins[int(rel)+format.CellHeaderSize : int(rel)+int(size)]
}

func (a *allocator) write(b []byte) uint32 {
	rel := a.alloc(len(b))
	copy(a.payload(rel), b)
	return rel
}

// Build lays out the tree and returns the finished image.
func (b *Builder) Build() *Image {
	im := &Image{
		Keys:       map[string]uint32{},
		Lists:      map[string]uint32{},
		ListKinds:  map[string]format.ListKind{},
		Leaves:     map[string][]uint32{},
		ValueLists: map[string]uint32{},
		Values:     map[string]uint32{},
	}
	a := &allocator{}

	var keys []*Key
	var collect func(k *Key)
	collect = func(k *Key) {
		keys = append(keys, k)
		for _, c := range k.children {
			collect(c)
		}
	}
	collect(b.root)

	names := make([][]byte, len(keys))
	compressed := make([]bool, len(keys))
	for i, k := range keys {
		names[i], compressed[i] = encodeName(k.name, k.utf16)
		k.nkRel = a.alloc(format.NKFixedHeaderSize + len(names[i]))
		im.Keys[k.PathName()] = k.nkRel
	}

	for _, k := range keys {
		b.writeValues(a, im, k)
		b.writeSubkeys(a, im, k)
	}

	for i, k := range keys {
		b.writeNK(a, k, names[i], compressed[i])
	}
	a.closeBin()

	root := b.root.nkRel
	im.Data = append(baseBlock(root, len(a.bins)), a.bins...)
	return im
}

func (b *Builder) writeValues(a *allocator, im *Image, k *Key) {
	k.valueList = format.InvalidOffset
	if len(k.values) == 0 {
		return
	}
	list := make([]byte, len(k.values)*format.OffsetFieldSize)
	for i := range k.values {
		v := &k.values[i]
		raw, ascii := encodeName(v.name, false)
		vk := make([]byte, format.VKFixedHeaderSize+len(raw))
		copy(vk, format.VKSignature)
		binary.LittleEndian.PutUint16(vk[format.VKNameLenOffset:], uint16(len(raw)))
		binary.LittleEndian.PutUint32(vk[format.VKTypeOffset:], uint32(v.typ))
		if ascii {
			binary.LittleEndian.PutUint16(vk[format.VKFlagsOffset:], format.VKFlagASCIIName)
		}
		copy(vk[format.VKNameOffset:], raw)

		length := uint32(len(v.data))
		switch {
		case len(v.data) <= format.VKMaxInlineBytes:
			var inline [4]byte
			copy(inline[:], v.data)
			binary.LittleEndian.PutUint32(vk[format.VKDataLenOffset:], length|format.VKDataInlineBit)
			copy(vk[format.VKDataOffOffset:], inline[:])
		case len(v.data) > format.DBThreshold:
			binary.LittleEndian.PutUint32(vk[format.VKDataLenOffset:], length)
			binary.LittleEndian.PutUint32(vk[format.VKDataOffOffset:], writeBigData(a, v.data))
		default:
			binary.LittleEndian.PutUint32(vk[format.VKDataLenOffset:], length)
			binary.LittleEndian.PutUint32(vk[format.VKDataOffOffset:], a.write(v.data))
		}
		v.vkRel = a.write(vk)
		im.Values[k.PathName()+":"+v.name] = v.vkRel
		binary.LittleEndian.PutUint32(list[i*format.OffsetFieldSize:], v.vkRel)
	}
	k.valueList = a.write(list)
	im.ValueLists[k.PathName()] = k.valueList
}

func writeBigData(a *allocator, data []byte) uint32 {
	var blocks []uint32
	for off := 0; off < len(data); off += format.DBChunkSize {
		end := min(off+format.DBChunkSize, len(data))
		blocks = append(blocks, a.write(data[off:end]))
	}
	list := make([]byte, len(blocks)*format.OffsetFieldSize)
	for i, rel := range blocks {
		binary.LittleEndian.PutUint32(list[i*format.OffsetFieldSize:], rel)
	}
	listRel := a.write(list)

	db := make([]byte, format.DBHeaderSize)
	copy(db, format.DBSignature)
	binary.LittleEndian.PutUint16(db[format.DBCountOffset:], uint16(len(blocks)))
	binary.LittleEndian.PutUint32(db[format.DBListOffset:], listRel)
	return a.write(db)
}

func (b *Builder) writeSubkeys(a *allocator, im *Image, k *Key) {
	k.listRel = format.InvalidOffset
	if len(k.children) == 0 {
		return
	}
	kind := k.listKind
	if kind == format.ListUnknown {
		kind = b.listKind
	}
	path := k.PathName()
	if kind == format.ListRI {
		var ri []uint32
		for start := 0; start < len(k.children); start += b.riChunk {
			end := min(start+b.riChunk, len(k.children))
			ri = append(ri, a.write(leafList(format.ListLH, k.children[start:end])))
		}
		k.riLeaves = ri
		body := make([]byte, format.ListHeaderSize+len(ri)*format.RIEntrySize)
		copy(body, format.RISignature)
		binary.LittleEndian.PutUint16(body[format.ListCountOffset:], uint16(len(ri)))
		for i, rel := range ri {
			binary.LittleEndian.PutUint32(body[format.ListHeaderSize+i*format.RIEntrySize:], rel)
		}
		k.listRel = a.write(body)
		im.Leaves[path] = ri
	} else {
		k.listRel = a.write(leafList(kind, k.children))
	}
	im.Lists[path] = k.listRel
	im.ListKinds[path] = kind
}

func leafList(kind format.ListKind, children []*Key) []byte {
	sig, size := format.LHSignature, format.LHEntrySize
	switch kind {
	case format.ListLI:
		sig, size = format.LISignature, format.LIEntrySize
	case format.ListLF:
		sig, size = format.LFSignature, format.LFEntrySize
	}
	body := make([]byte, format.ListHeaderSize+len(children)*size)
	copy(body, sig)
	binary.LittleEndian.PutUint16(body[format.ListCountOffset:], uint16(len(children)))
	for i, c := range children {
		at := format.ListHeaderSize + i*size
		binary.LittleEndian.PutUint32(body[at:], c.nkRel)
		switch kind {
		case format.ListLF:
			binary.LittleEndian.PutUint32(body[at+4:], format.LFHint(c.name))
		case format.ListLH:
			binary.LittleEndian.PutUint32(body[at+4:], format.LHHash(c.name))
		}
	}
	return body
}

func (b *Builder) writeNK(a *allocator, k *Key, name []byte, compressed bool) {
	p := a.payload(k.nkRel)
	copy(p, format.NKSignature)
	var flags uint16
	if compressed {
		flags |= format.NKFlagCompressedName
	}
	parent := uint32(format.InvalidOffset)
	if k.parent == nil {
		flags |= format.NKFlagRoot
	} else {
		parent = k.parent.nkRel
	}
	binary.LittleEndian.PutUint16(p[format.NKFlagsOffset:], flags)
	binary.LittleEndian.PutUint64(p[format.NKLastWriteOffset:], format.TimeToFiletime(k.written))
	binary.LittleEndian.PutUint32(p[format.NKParentOffset:], parent)
	binary.LittleEndian.PutUint32(p[format.NKSubkeyCountOffset:], uint32(len(k.children)))
	binary.LittleEndian.PutUint32(p[format.NKSubkeyListOffset:], k.listRel)
	binary.LittleEndian.PutUint32(p[format.NKSubkeyListOffset+4:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(p[format.NKValueCountOffset:], uint32(len(k.values)))
	binary.LittleEndian.PutUint32(p[format.NKValueListOffset:], k.valueList)
	binary.LittleEndian.PutUint32(p[format.NKSecurityOffset:], format.InvalidOffset)

	classRel := uint32(format.InvalidOffset)
	if k.class != "" {
		raw := textenc.EncodeUTF16(k.class)
		classRel = a.write(raw)
		// the allocation may have moved the backing array
		p = a.payload(k.nkRel)
		binary.LittleEndian.PutUint16(p[format.NKClassLenOffset:], uint16(len(raw)))
	}
	binary.LittleEndian.PutUint32(p[format.NKClassNameOffset:], classRel)
	binary.LittleEndian.PutUint16(p[format.NKNameLenOffset:], uint16(len(name)))
	copy(p[format.NKNameOffset:], name)
}

func baseBlock(rootRel uint32, dataSize int) []byte {
	h := make([]byte, format.HeaderSize)
	copy(h, format.REGFSignature)
	binary.LittleEndian.PutUint32(h[format.REGFPrimarySeqOffset:], 1)
	binary.LittleEndian.PutUint32(h[format.REGFSecondarySeqOffset:], 1)
	binary.LittleEndian.PutUint64(h[format.REGFTimeStampOffset:], format.TimeToFiletime(DefaultTime))
	binary.LittleEndian.PutUint32(h[format.REGFMajorVersionOffset:], 1)
	binary.LittleEndian.PutUint32(h[format.REGFMinorVersionOffset:], 5)
	binary.LittleEndian.PutUint32(h[format.REGFRootCellOffset:], rootRel)
	binary.LittleEndian.PutUint32(h[format.REGFDataSizeOffset:], uint32(dataSize))
	binary.LittleEndian.PutUint32(h[format.REGFChecksumOffset:], format.HeaderChecksum(h))
	return h
}
