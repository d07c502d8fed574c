package typeset

import "fmt"

// Severity classifies a diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Span is a byte range [Start, End) in a file. A span with a detached File
// points nowhere.
type Span struct {
	File  FileID
	Start int
	End   int
}

// Detached returns a span that refers to no file.
func Detached() Span {
	return Span{}
}

// IsDetached reports whether the span refers to no file.
func (s Span) IsDetached() bool {
	return s.File.IsDetached()
}

func (s Span) String() string {
	if s.IsDetached() {
		return "detached"
	}
	return fmt.Sprintf("%s@%d-%d", s.File.Rootless(), s.Start, s.End)
}

// Diagnostic is one issue reported by an engine.
type Diagnostic struct {
	Message  string
	Hints    []string
	Span     Span
	Severity Severity
}

// Errorf creates an error diagnostic at span.
func Errorf(span Span, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Warningf creates a warning diagnostic at span.
func Warningf(span Span, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Span: span, Message: fmt.Sprintf(format, args...)}
}

// WithHint returns a copy of d with hint appended.
func (d Diagnostic) WithHint(hint string) Diagnostic {
	d.Hints = append(append([]string(nil), d.Hints...), hint)
	return d
}
