package hive

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/joshuapare/hivetrace/internal/format"
	"github.com/joshuapare/hivetrace/internal/mmfile"
	"github.com/joshuapare/hivetrace/pkg/types"
)

// Re-exported decode sentinels so callers outside the module can use
// errors.Is without reaching into internal packages.
var (
	ErrOutOfBounds  = format.ErrOutOfBounds
	ErrBadHeader    = format.ErrBadHeader
	ErrBadSignature = format.ErrBadSignature
	ErrTruncated    = format.ErrTruncated
	ErrFreeCell     = format.ErrFreeCell
	ErrUnknownList  = format.ErrUnknownList
)

// Hive is an immutable view over the bytes of one hive file.
type Hive struct {
	name    string
	data    []byte
	header  format.Header
	bins    []Bin
	diags   *types.DiagnosticReport
	release func() error
}

// New wraps data, which the caller must not modify while the Hive is in use.
// The base block must parse; bins that fail validation are recorded as
// diagnostics rather than rejected.
func New(data []byte) (*Hive, error) {
	header, err := format.ParseHeader(data)
	if err != nil {
		return nil, types.NewError(types.KindParser, "hive base block", err)
	}

	h := &Hive{data: data, header: header}
	limit := 0
	if header.HiveBinsDataSize > 0 {
		limit = format.HeaderSize + int(header.HiveBinsDataSize)
	}
	h.bins, h.diags = ScanBins(data, limit)

	if header.HiveBinsDataSize > 0 && limit > len(data) {
		h.diags.Add(types.Diagnostic{
			Severity:  types.SevWarning,
			Category:  types.DiagStructure,
			Offset:    format.REGFDataSizeOffset,
			Structure: "REGF",
			Issue:     "hive data size exceeds file length",
			Expected:  len(data) - format.HeaderSize,
			Actual:    header.HiveBinsDataSize,
		})
	}
	if sum := format.HeaderChecksum(data); sum != header.Checksum {
		h.diags.Add(types.Diagnostic{
			Severity:  types.SevInfo,
			Category:  types.DiagIntegrity,
			Offset:    format.REGFChecksumOffset,
			Structure: "REGF",
			Issue:     "base block checksum mismatch",
			Expected:  sum,
			Actual:    header.Checksum,
		})
	}
	if header.Dirty() {
		h.diags.Add(types.Diagnostic{
			Severity:  types.SevInfo,
			Category:  types.DiagIntegrity,
			Offset:    format.REGFPrimarySeqOffset,
			Structure: "REGF",
			Issue:     "sequence numbers differ; hive was not cleanly flushed",
			Expected:  header.PrimarySequence,
			Actual:    header.SecondarySequence,
		})
	}
	if len(h.bins) == 0 {
		return nil, types.NewError(types.KindParser, "hive has no valid bins", ErrBadHeader)
	}
	return h, nil
}

// Open memory-maps the hive at path. Close releases the mapping.
func Open(path string) (*Hive, error) {
	data, release, err := mmfile.Map(path)
	if err != nil {
		return nil, types.NewError(types.KindReadRegistry, "open "+path, err)
	}
	h, err := New(data)
	if err != nil {
		return nil, errors.Join(err, release())
	}
	h.name = path
	h.release = release
	return h, nil
}

// Load reads the hive at path from fsys into memory.
func Load(fsys afero.Fs, path string) (*Hive, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, types.NewError(types.KindReadRegistry, "read "+path, err)
	}
	h, err := New(data)
	if err != nil {
		return nil, err
	}
	h.name = path
	return h, nil
}

// Close releases the underlying mapping, if any. Entries produced from the
// hive stay valid; everything they hold was copied out.
func (h *Hive) Close() error {
	if h == nil || h.release == nil {
		return nil
	}
	err := h.release()
	h.release = nil
	h.data = nil
	return err
}

// Name returns the path the hive was loaded from, or "".
func (h *Hive) Name() string { return h.name }

// Bytes returns the raw hive buffer.
func (h *Hive) Bytes() []byte { return h.data }

// Size returns the length of the hive buffer.
func (h *Hive) Size() int { return len(h.data) }

// Header returns the decoded base block.
func (h *Hive) Header() format.Header { return h.header }

// Bins returns the indexed hive bins in file order.
func (h *Hive) Bins() []Bin { return h.bins }

// RootOffset returns the relative offset of the root key.
func (h *Hive) RootOffset() uint32 { return h.header.RootCellOffset }

// LastWritten returns the base block timestamp.
func (h *Hive) LastWritten() time.Time { return format.FiletimeToTime(h.header.LastWriteRaw) }

// Version returns the format version as "major.minor".
func (h *Hive) Version() string {
	return fmt.Sprintf("%d.%d", h.header.MajorVersion, h.header.MinorVersion)
}

// Diagnostics returns issues found while opening the hive.
func (h *Hive) Diagnostics() *types.DiagnosticReport { return h.diags }
