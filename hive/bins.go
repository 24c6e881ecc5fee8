package hive

import (
	"fmt"
	"sort"

	"github.com/joshuapare/hivetrace/internal/buf"
	"github.com/joshuapare/hivetrace/internal/format"
	"github.com/joshuapare/hivetrace/pkg/types"
)

// Bin is a hive bin: a 4 KiB aligned allocation unit holding cells.
type Bin struct {
	Offset uint64 // absolute file offset of the bin header
	Size   uint32 // total size including the 0x20 byte header
}

// End returns the absolute offset one past the bin.
func (b Bin) End() uint64 { return b.Offset + uint64(b.Size) }

// ReadBinHeader decodes the bin header at absolute offset off.
// It fails with ErrOutOfBounds when the header or the declared bin does not
// fit in data and with ErrBadHeader when the signature or size is invalid.
func ReadBinHeader(data []byte, off int) (Bin, error) {
	h, err := format.DecodeHBIN(data, off)
	if err != nil {
		return Bin{}, err
	}
	return Bin{Offset: uint64(off), Size: h.Size}, nil
}

// BytesAt returns data[abs:abs+n] or ErrOutOfBounds.
func BytesAt(data []byte, abs, n int) ([]byte, error) {
	b, ok := buf.Slice(data, abs, n)
	if !ok {
		return nil, fmt.Errorf("read %d bytes at %#x (len %#x): %w", n, abs, len(data), ErrOutOfBounds)
	}
	return b, nil
}

// ScanBins indexes the bins that follow the base block, in file order.
// A bin header that fails validation is reported and skipped; scanning
// resumes at the next 4 KiB boundary so damage in one bin does not hide the
// bins after it. limit bounds the scan (usually the base block data size).
func ScanBins(data []byte, limit int) ([]Bin, *types.DiagnosticReport) {
	report := types.NewDiagnosticReport()
	end := len(data)
	if limit > 0 && limit < end {
		end = limit
	}

	var bins []Bin
	for off := format.HeaderSize; off+format.HBINHeaderSize <= end; {
		bin, err := ReadBinHeader(data[:end], off)
		if err != nil {
			report.Add(types.Diagnostic{
				Severity:  types.SevWarning,
				Category:  types.DiagStructure,
				Offset:    uint64(off),
				Structure: "HBIN",
				Issue:     err.Error(),
			})
			off += format.HBINAlignment
			continue
		}
		if echo := buf.U32LE(data[off+format.HBINFileOffsetField:]); uint64(echo)+format.HeaderSize != bin.Offset {
			report.Add(types.Diagnostic{
				Severity:  types.SevInfo,
				Category:  types.DiagIntegrity,
				Offset:    uint64(off),
				Structure: "HBIN",
				Issue:     "bin offset field disagrees with position",
				Expected:  bin.Offset - format.HeaderSize,
				Actual:    echo,
			})
		}
		bins = append(bins, bin)
		off += int(bin.Size)
	}
	return bins, report
}

// findBin returns the bin containing abs.
func findBin(bins []Bin, abs uint64) (Bin, bool) {
	i := sort.Search(len(bins), func(i int) bool { return bins[i].End() > abs })
	if i == len(bins) || bins[i].Offset > abs {
		return Bin{}, false
	}
	return bins[i], true
}
