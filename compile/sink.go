package compile

import (
	"sync"

	"github.com/wippyai/typworld/typeset"
)

// Set classifies the diagnostics of the latest run.
type Set uint8

const (
	// SetNone means no run has happened yet.
	SetNone Set = iota
	// SetFailure holds errors of a run that produced no output.
	SetFailure
	// SetWarning holds warnings of a run that produced a document.
	SetWarning
)

func (s Set) String() string {
	switch s {
	case SetFailure:
		return "failure"
	case SetWarning:
		return "warning"
	default:
		return "none"
	}
}

// Report is a snapshot of the sink. Lines holds the diagnostics formatted
// against the sources as they were when the run was recorded.
type Report struct {
	RunID       string
	Diagnostics []typeset.Diagnostic
	Lines       []string
	Set         Set
}

// Failed reports whether the latest run produced no output.
func (r Report) Failed() bool {
	return r.Set == SetFailure
}

// Sink holds the diagnostics of the most recent run. Each record replaces
// the previous one wholesale.
type Sink struct {
	world  typeset.World
	report Report
	mu     sync.RWMutex
}

// NewSink creates an empty sink. Spans are resolved through w when a run is
// recorded; w may be nil.
func NewSink(w typeset.World) *Sink {
	return &Sink{world: w}
}

// SetNone clears the sink.
func (s *Sink) SetNone() {
	s.store(Report{})
}

// SetFailure records the errors of a failed run.
func (s *Sink) SetFailure(run string, diags []typeset.Diagnostic) {
	s.store(Report{RunID: run, Set: SetFailure, Diagnostics: diags})
}

// SetWarning records the warnings of a successful run.
func (s *Sink) SetWarning(run string, diags []typeset.Diagnostic) {
	s.store(Report{RunID: run, Set: SetWarning, Diagnostics: diags})
}

// Escalate turns the record of run into a failure with d appended. The
// lines already recorded are kept as formatted. It is a no-op when run is no
// longer the latest record.
func (s *Sink) Escalate(run string, d typeset.Diagnostic) {
	line := Format(s.world, d)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report.RunID != run {
		return
	}
	s.report = Report{
		RunID:       run,
		Set:         SetFailure,
		Diagnostics: append(clone(s.report.Diagnostics), d),
		Lines:       append(clone(s.report.Lines), line),
	}
}

// Report returns a copy of the current record.
func (s *Sink) Report() Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.report
	r.Diagnostics = clone(s.report.Diagnostics)
	r.Lines = clone(s.report.Lines)
	return r
}

func (s *Sink) store(r Report) {
	r.Diagnostics = clone(r.Diagnostics)
	r.Lines = make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		r.Lines[i] = Format(s.world, d)
	}
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()
}

func clone[T any](s []T) []T {
	return append([]T(nil), s...)
}
