package engine

import (
	"math"

	"github.com/wippyai/typworld/errors"
	"github.com/wippyai/typworld/typeset"
)

const (
	// ABISection is the custom section carrying the guest's ABI version.
	ABISection = "typworld-abi"
	// HostModule is the import module name of the world functions.
	HostModule = "typworld"
	// DefaultABIConstraint accepts guests built for this host interface.
	DefaultABIConstraint = "^1.0.0"
)

// Guest exports.
const (
	exportMemory    = "memory"
	exportAlloc     = "alloc"
	exportCompile   = "compile"
	exportPageCount = "page_count"
	exportSVG       = "render_svg"
	exportPDF       = "render_pdf"
	exportDrop      = "drop"
)

var requiredFunctions = []string{
	exportAlloc,
	exportCompile,
	exportPageCount,
	exportSVG,
	exportPDF,
	exportDrop,
}

// Statuses returned to the guest in place of a packed buffer.
const (
	StatusNotFound     int64 = -1
	StatusNotSource    int64 = -2
	StatusAccessDenied int64 = -3
	StatusFailed       int64 = -4
)

// MaxMemoryPages caps guest memory at 2GiB so every guest pointer fits in
// the non-negative half of a packed reference.
const MaxMemoryPages uint32 = 32768

// pack combines a guest pointer and length. ok is false when ptr would make
// the reference negative and so indistinguishable from a status.
func pack(ptr, length uint32) (ref int64, ok bool) {
	if ptr > math.MaxInt32 {
		return StatusFailed, false
	}
	return int64(uint64(ptr)<<32 | uint64(length)), true
}

// unpack splits a packed buffer reference.
func unpack(v int64) (ptr, length uint32) {
	return uint32(uint64(v) >> 32), uint32(uint64(v))
}

// statusOf maps a world lookup error, or one wrapping it, to a guest status.
func statusOf(err error) int64 {
	switch {
	case errors.IsKind(err, errors.KindNotFound):
		return StatusNotFound
	case errors.IsKind(err, errors.KindNotSource):
		return StatusNotSource
	case errors.IsKind(err, errors.KindAccessDenied):
		return StatusAccessDenied
	default:
		return StatusFailed
	}
}

// encodeDate packs d, or returns StatusNotFound when it does not fit.
func encodeDate(d typeset.Date, ok bool) int64 {
	if !ok || d.Year < 0 || d.Year > 0xFFFF {
		return StatusNotFound
	}
	return int64(d.Year)<<16 | int64(d.Month)<<8 | int64(d.Day)
}

// wireDiagnostic is the JSON shape of a diagnostic reported by the guest.
type wireDiagnostic struct {
	Message  string   `json:"message"`
	Severity string   `json:"severity"`
	File     string   `json:"file,omitempty"`
	Hints    []string `json:"hints,omitempty"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
}

func (w wireDiagnostic) diagnostic() typeset.Diagnostic {
	span := typeset.Detached()
	if w.File != "" {
		span = typeset.Span{File: typeset.NewFileID(w.File), Start: w.Start, End: w.End}
	}
	d := typeset.Diagnostic{Message: w.Message, Hints: w.Hints, Span: span}
	if w.Severity == "warning" {
		d.Severity = typeset.SeverityWarning
	}
	return d
}

type wireLibrary struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Functions []string `json:"functions"`
}

type wireFont struct {
	Family         string  `json:"family"`
	Subfamily      string  `json:"subfamily"`
	FullName       string  `json:"full_name"`
	PostScriptName string  `json:"postscript_name"`
	Style          string  `json:"style"`
	Weight         int     `json:"weight"`
	Stretch        float64 `json:"stretch"`
	Glyphs         int     `json:"glyphs"`
	UnitsPerEm     int     `json:"units_per_em"`
	Monospace      bool    `json:"monospace"`
}

func fontOf(info typeset.FontInfo) wireFont {
	return wireFont{
		Family:         info.Family,
		Subfamily:      info.Subfamily,
		FullName:       info.FullName,
		PostScriptName: info.PostScriptName,
		Style:          info.Variant.Style.String(),
		Weight:         info.Variant.Weight,
		Stretch:        info.Variant.Stretch,
		Glyphs:         info.NumGlyphs,
		UnitsPerEm:     info.UnitsPerEm,
		Monospace:      info.Monospace,
	}
}

type wirePDFOptions struct {
	Timestamp  *int64 `json:"timestamp"`
	Identifier string `json:"identifier,omitempty"`
}

func pdfOptionsOf(opts typeset.PDFOptions) wirePDFOptions {
	w := wirePDFOptions{Identifier: opts.Identifier}
	if opts.Timestamp != nil {
		ts := opts.Timestamp.Unix()
		w.Timestamp = &ts
	}
	return w
}
