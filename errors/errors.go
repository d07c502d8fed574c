package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseStore   Phase = "store"   // virtual file store access
	PhaseWorld   Phase = "world"   // engine-facing world queries
	PhaseCompile Phase = "compile" // engine compilation
	PhaseRender  Phase = "render"  // svg/pdf output
	PhaseLoad    Phase = "load"    // fonts, guest modules, host files
	PhaseHost    Phase = "host"    // host function calls from a guest engine
	PhaseConfig  Phase = "config"  // project configuration
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindNotSource     Kind = "not_source"
	KindAccessDenied  Kind = "access_denied"
	KindCompilation   Kind = "compilation"
	KindSerialization Kind = "serialization"
	KindInvalidInput  Kind = "invalid_input"
	KindInvalidData   Kind = "invalid_data"
	KindUnsupported   Kind = "unsupported"
	KindInstantiation Kind = "instantiation"
	KindMissingExport Kind = "missing_export"
	KindIncompatible  Kind = "incompatible"
	KindOutOfBounds   Kind = "out_of_bounds"
)

// Error is the structured error type used throughout the module
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Path   string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether any *Error in err's chain has the given kind,
// regardless of phase.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the virtual or host path the error refers to
func (b *Builder) Path(path string) *Builder {
	b.err.Path = path
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// File error constructors

// NotFound creates a not-found error for a virtual path
func NotFound(phase Phase, path string) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindNotFound,
		Path:  path,
	}
}

// NotSource creates an error for a binary entry requested as source text
func NotSource(phase Phase, path string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotSource,
		Path:   path,
		Detail: "entry is binary",
	}
}

// AccessDenied creates an error for a store that can no longer be locked
func AccessDenied(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAccessDenied,
		Detail: detail,
	}
}

// Pipeline constructors

// Compilation creates an error for an engine-reported failure set
func Compilation(count int) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindCompilation,
		Detail: fmt.Sprintf("%d error(s)", count),
	}
}

// Serialization creates an error for a failed document encoding
func Serialization(format string, cause error) *Error {
	return &Error{
		Phase:  PhaseRender,
		Kind:   KindSerialization,
		Detail: fmt.Sprintf("encode %s", format),
		Cause:  cause,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Guest engine constructors

// Load creates a loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindInstantiation,
		Detail: "instantiate engine module",
		Cause:  cause,
	}
}

// Incompatible creates an ABI version mismatch error
func Incompatible(have, want string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindIncompatible,
		Detail: fmt.Sprintf("engine abi %s does not satisfy %s", have, want),
	}
}

// MissingExportsError is returned when a guest engine module lacks exports
// the host requires.
type MissingExportsError struct {
	Exports []string
}

// NewMissingExportsError creates an error listing the missing export names
func NewMissingExportsError(exports []string) *MissingExportsError {
	sorted := append([]string(nil), exports...)
	sort.Strings(sorted)
	return &MissingExportsError{Exports: sorted}
}

func (e *MissingExportsError) Error() string {
	if len(e.Exports) == 0 {
		return "[load] missing_export: no exports specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("engine module is missing %d export(s):", len(e.Exports)))
	for _, name := range e.Exports {
		b.WriteString("\n  - ")
		b.WriteString(name)
	}
	return b.String()
}

// Is reports whether target matches this error type
func (e *MissingExportsError) Is(target error) bool {
	switch t := target.(type) {
	case *MissingExportsError:
		return true
	case *Error:
		return t.Phase == PhaseLoad && t.Kind == KindMissingExport
	}
	return false
}
