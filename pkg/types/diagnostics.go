package types

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Severity classifies how serious a diagnostic issue is.
type Severity int

const (
	SevInfo     Severity = iota // unusual but valid
	SevWarning                   // something was skipped, the rest is intact
	SevError                     // a key or value is inaccessible
	SevCritical                  // the hive cannot be traversed
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	case SevCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// DiagCategory classifies the type of issue found.
type DiagCategory int

const (
	DiagStructure DiagCategory = iota // REGF/HBIN/cell structure problems
	DiagData                          // value data corruption or truncation
	DiagIntegrity                     // checksums, broken references, cycles
)

func (c DiagCategory) String() string {
	switch c {
	case DiagStructure:
		return "STRUCTURE"
	case DiagData:
		return "DATA"
	case DiagIntegrity:
		return "INTEGRITY"
	default:
		return "UNKNOWN"
	}
}

// Diagnostic is a single issue found while reading a hive.
type Diagnostic struct {
	Severity  Severity     `json:"severity"`
	Category  DiagCategory `json:"category"`
	Offset    uint64       `json:"offset"`    // absolute byte offset in the file
	Structure string       `json:"structure"` // "REGF", "HBIN", "NK", "VK", "LH", "DB", ...
	Issue     string       `json:"issue"`
	Expected  any          `json:"expected,omitempty"`
	Actual    any          `json:"actual,omitempty"`
	KeyPath   string       `json:"key_path,omitempty"`
}

// DiagnosticReport collects diagnostics in the order they were found.
type DiagnosticReport struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
	Summary     DiagSummary  `json:"summary"`
}

// DiagSummary counts diagnostics by severity.
type DiagSummary struct {
	Critical int `json:"critical"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// NewDiagnosticReport creates an empty report.
func NewDiagnosticReport() *DiagnosticReport {
	return &DiagnosticReport{}
}

// Add appends d and updates the summary.
func (r *DiagnosticReport) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
	switch d.Severity {
	case SevCritical:
		r.Summary.Critical++
	case SevError:
		r.Summary.Errors++
	case SevWarning:
		r.Summary.Warnings++
	case SevInfo:
		r.Summary.Info++
	}
}

// Merge appends every diagnostic of other.
func (r *DiagnosticReport) Merge(other *DiagnosticReport) {
	if other == nil {
		return
	}
	for _, d := range other.Diagnostics {
		r.Add(d)
	}
}

// Len returns the number of diagnostics.
func (r *DiagnosticReport) Len() int {
	return len(r.Diagnostics)
}

// HasErrors returns true if any errors or critical issues were found.
func (r *DiagnosticReport) HasErrors() bool {
	return r.Summary.Critical > 0 || r.Summary.Errors > 0
}

// ByOffset returns the diagnostics sorted by file offset. The report itself
// keeps discovery order.
func (r *DiagnosticReport) ByOffset() []Diagnostic {
	out := make([]Diagnostic, len(r.Diagnostics))
	copy(out, r.Diagnostics)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// WriteText writes one line per diagnostic followed by a summary line.
func (r *DiagnosticReport) WriteText(w io.Writer) error {
	var sb strings.Builder
	for _, d := range r.ByOffset() {
		fmt.Fprintf(&sb, "[%s] %s @ %#x: %s", d.Severity, d.Structure, d.Offset, d.Issue)
		if d.Expected != nil || d.Actual != nil {
			fmt.Fprintf(&sb, " (expected %v, got %v)", d.Expected, d.Actual)
		}
		if d.KeyPath != "" {
			fmt.Fprintf(&sb, " key=%s", d.KeyPath)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "%d critical, %d errors, %d warnings, %d info\n",
		r.Summary.Critical, r.Summary.Errors, r.Summary.Warnings, r.Summary.Info)
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteJSON writes the report as indented JSON.
func (r *DiagnosticReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
