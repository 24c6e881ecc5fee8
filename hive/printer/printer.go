// Package printer renders walker output.
//
// Entries are printed in the order they are given, which for a walk is
// pre-order. Three formats are supported:
//
//	text  indented key names with their values
//	json  a single document holding every entry
//	reg   a Windows Registry Editor 5.00 export
//
// Example:
//
//	entries, _ := walker.Walk(ctx, h, walker.Options{})
//	p := printer.New(os.Stdout, printer.DefaultOptions())
//	if err := p.Print(entries); err != nil { ... }
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/joshuapare/hivetrace/pkg/types"
)

// Format specifies the output format.
type Format int

const (
	// FormatText is indented human-readable output.
	FormatText Format = iota
	// FormatJSON is a single JSON document.
	FormatJSON
	// FormatReg is Windows .reg export syntax.
	FormatReg
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatReg:
		return "reg"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps a format name to a Format, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "reg":
		return FormatReg, nil
	default:
		return 0, fmt.Errorf("unknown output format %q", s)
	}
}

const (
	DefaultIndentSize    = 2
	DefaultMaxValueBytes = 32
)

// Options controls formatting.
type Options struct {
	Format Format

	// IndentSize is the number of spaces per depth level in text output.
	IndentSize int

	ShowValues     bool
	ShowTimestamps bool
	ShowValueTypes bool

	// MaxValueBytes cuts binary data in text and JSON output. 0 prints
	// everything. The reg format always writes complete data.
	MaxValueBytes int

	// PrintMetadata adds subkey and value counts, depth and the security
	// offset.
	PrintMetadata bool

	// DocumentID identifies a JSON document. A zero ID is replaced with a
	// random one.
	DocumentID uuid.UUID

	// RegRoot replaces the hive's root key name in reg output, e.g.
	// HKEY_LOCAL_MACHINE\SYSTEM. Empty means DefaultRegRoot.
	RegRoot string
}

// DefaultRegRoot prefixes reg output when Options.RegRoot is empty.
const DefaultRegRoot = "HKEY_LOCAL_MACHINE"

// DefaultOptions returns text output with values, types and timestamps.
func DefaultOptions() Options {
	return Options{
		Format:         FormatText,
		IndentSize:     DefaultIndentSize,
		ShowValues:     true,
		ShowTimestamps: true,
		ShowValueTypes: true,
		MaxValueBytes:  DefaultMaxValueBytes,
	}
}

// Printer writes entries to an io.Writer.
type Printer struct {
	opts   Options
	writer io.Writer
}

// New creates a Printer writing to w.
func New(w io.Writer, opts Options) *Printer {
	if opts.IndentSize < 0 {
		opts.IndentSize = 0
	}
	return &Printer{opts: opts, writer: w}
}

// Print renders entries in the configured format. Write failures are
// returned as types.KindOutput errors and encoding failures as
// types.KindSerialize.
func (p *Printer) Print(entries []types.RegistryEntry) error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printJSON(entries)
	case FormatReg:
		return p.printReg(entries)
	default:
		return p.printText(entries)
	}
}

// errWriter keeps the first write error so printers can format freely and
// check once at the end.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) write(b []byte) {
	if ew.err != nil {
		return
	}
	_, ew.err = ew.w.Write(b)
}

func (ew *errWriter) result() error {
	if ew.err != nil {
		return types.NewError(types.KindOutput, "write output", ew.err)
	}
	return nil
}

// valueName returns the display name of a value.
func valueName(v types.Value) string {
	if v.Name == "" {
		return DefaultValueName
	}
	return v.Name
}

// DefaultValueName is shown for the unnamed default value.
const DefaultValueName = "(Default)"
