package format

import (
	"fmt"

	"github.com/joshuapare/hivetrace/internal/buf"
)

// Header captures the REGF base block fields the traversal needs.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x000   4    'r' 'e' 'g' 'f'
//	 0x004   4    Primary sequence number
//	 0x008   4    Secondary sequence number
//	 0x00C   8    Last write timestamp (FILETIME)
//	 0x014   4    Major version
//	 0x018   4    Minor version
//	 0x01C   4    Type (0 = primary)
//	 0x024   4    Root cell offset (relative to first HBIN)
//	 0x028   4    Total size of HBIN data
//	 0x030  64    Embedded file name (UTF-16LE, partial)
//	 0x1FC   4    XOR checksum of the first 0x1FC bytes
type Header struct {
	PrimarySequence   uint32
	SecondarySequence uint32
	LastWriteRaw      uint64
	MajorVersion      uint32
	MinorVersion      uint32
	Type              uint32
	RootCellOffset    uint32
	HiveBinsDataSize  uint32
	FileNameRaw       []byte
	Checksum          uint32
}

// Dirty reports whether the sequence numbers disagree, which means the hive
// was not cleanly flushed and a transaction log may hold newer data.
func (h Header) Dirty() bool {
	return h.PrimarySequence != h.SecondarySequence
}

// ParseHeader validates the regf signature and extracts the base block fields.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("regf header: %w (have %d, need %d)", ErrTruncated, len(b), HeaderSize)
	}
	if !hasSignature(b, REGFSignature) {
		return Header{}, fmt.Errorf("regf header: %w: signature %q", ErrBadHeader, b[:REGFSignatureSize])
	}
	return Header{
		PrimarySequence:   buf.U32LE(b[REGFPrimarySeqOffset:]),
		SecondarySequence: buf.U32LE(b[REGFSecondarySeqOffset:]),
		LastWriteRaw:      buf.U64LE(b[REGFTimeStampOffset:]),
		MajorVersion:      buf.U32LE(b[REGFMajorVersionOffset:]),
		MinorVersion:      buf.U32LE(b[REGFMinorVersionOffset:]),
		Type:              buf.U32LE(b[REGFTypeOffset:]),
		RootCellOffset:    buf.U32LE(b[REGFRootCellOffset:]),
		HiveBinsDataSize:  buf.U32LE(b[REGFDataSizeOffset:]),
		FileNameRaw:       b[REGFFileNameOffset : REGFFileNameOffset+REGFFileNameSize],
		Checksum:          buf.U32LE(b[REGFChecksumOffset:]),
	}, nil
}

// HeaderChecksum computes the XOR-32 checksum over the first 0x1FC bytes.
// Windows substitutes 1 for a result of 0 and -2 for a result of -1.
func HeaderChecksum(b []byte) uint32 {
	if len(b) < REGFChecksumSpan {
		return 0
	}
	var sum uint32
	for i := 0; i < REGFChecksumSpan; i += 4 {
		sum ^= buf.U32LE(b[i:])
	}
	switch sum {
	case 0:
		return 1
	case 0xFFFFFFFF:
		return 0xFFFFFFFE
	}
	return sum
}
