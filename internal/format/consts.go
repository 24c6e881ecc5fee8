// Package format houses the stateless decoders for the Windows Registry hive
// file format: the REGF base block, hive bin headers, cell headers and the
// record types stored inside cells (nk, vk, li, lf, lh, ri, db).
//
// Every decoder takes a byte slice and returns a typed record plus an error
// wrapping one of the sentinels in errors.go. Decoders never panic on short
// or garbage input.
package format

var (
	// REGFSignature opens every hive file.
	REGFSignature = []byte{'r', 'e', 'g', 'f'}
	// HBINSignature opens every hive bin.
	HBINSignature = []byte{'h', 'b', 'i', 'n'}

	NKSignature = []byte{'n', 'k'}
	VKSignature = []byte{'v', 'k'}
	LISignature = []byte{'l', 'i'}
	LFSignature = []byte{'l', 'f'}
	LHSignature = []byte{'l', 'h'}
	RISignature = []byte{'r', 'i'}
	DBSignature = []byte{'d', 'b'}
)

const (
	// HeaderSize is the size of the REGF base block. Relative cell offsets
	// are measured from the end of it.
	HeaderSize = 0x1000

	// HBINAlignment is the required alignment and size granularity of bins.
	HBINAlignment = 0x1000

	HBINHeaderSize = 0x20
	CellHeaderSize = 4
	SignatureSize  = 2

	// InvalidOffset is the on-disk "no cell" marker.
	InvalidOffset = 0xFFFFFFFF

	OffsetFieldSize = 4
)

// REGF base block field offsets.
const (
	REGFSignatureSize      = 4
	REGFPrimarySeqOffset   = 0x04
	REGFSecondarySeqOffset = 0x08
	REGFTimeStampOffset    = 0x0C
	REGFMajorVersionOffset = 0x14
	REGFMinorVersionOffset = 0x18
	REGFTypeOffset         = 0x1C
	REGFRootCellOffset     = 0x24
	REGFDataSizeOffset     = 0x28
	REGFFileNameOffset     = 0x30
	REGFFileNameSize       = 64
	REGFChecksumOffset     = 0x1FC

	// REGFChecksumSpan is the number of leading bytes covered by the XOR checksum.
	REGFChecksumSpan = 0x1FC
)

// HBIN header field offsets.
const (
	HBINFileOffsetField = 0x04
	HBINSizeOffset      = 0x08
)

// NK field offsets (payload starts at the "nk" tag).
const (
	NKFlagsOffset       = 0x02
	NKLastWriteOffset   = 0x04
	NKParentOffset      = 0x10
	NKSubkeyCountOffset = 0x14
	NKSubkeyListOffset  = 0x1C
	NKValueCountOffset  = 0x24
	NKValueListOffset   = 0x28
	NKSecurityOffset    = 0x2C
	NKClassNameOffset   = 0x30
	NKNameLenOffset     = 0x48
	NKClassLenOffset    = 0x4A
	NKNameOffset        = 0x4C

	NKFixedHeaderSize = NKNameOffset

	// NKFlagCompressedName marks an 8-bit (Windows-1252) key name.
	NKFlagCompressedName = 0x20
	// NKFlagRoot marks the hive root key.
	NKFlagRoot = 0x04
)

// VK field offsets.
const (
	VKNameLenOffset = 0x02
	VKDataLenOffset = 0x04
	VKDataOffOffset = 0x08
	VKTypeOffset    = 0x0C
	VKFlagsOffset   = 0x10
	VKNameOffset    = 0x14

	VKFixedHeaderSize = VKNameOffset

	// VKFlagASCIIName marks an 8-bit value name.
	VKFlagASCIIName = 0x0001

	// VKDataInlineBit set in the length field means the data lives in the
	// offset field itself (at most four bytes).
	VKDataInlineBit  = 0x80000000
	VKDataLengthMask = 0x7FFFFFFF
	VKMaxInlineBytes = 4
)

// Subkey list layout shared by li, lf, lh and ri.
const (
	ListCountOffset = 0x02
	ListHeaderSize  = 0x04
	LIEntrySize     = 4
	LFEntrySize     = 8
	LHEntrySize     = 8
	RIEntrySize     = 4
	LFHintSize      = 4
)

// Big data (db) record layout.
const (
	DBCountOffset = 0x02
	DBListOffset  = 0x04
	DBHeaderSize  = 0x0C

	// DBChunkSize is the payload carried by each big data block.
	DBChunkSize = 16344

	// DBThreshold is the data length above which values are stored as db.
	DBThreshold = DBChunkSize
)
