package compile

import (
	"fmt"
	"strings"

	"github.com/wippyai/typworld/typeset"
)

// Format renders one diagnostic as
// "SPAN: <location> ||| MSG: <message> ||| HINT: <hints>".
func Format(w typeset.World, d typeset.Diagnostic) string {
	return fmt.Sprintf("SPAN: %s ||| MSG: %s ||| HINT: %s",
		Locate(w, d.Span), d.Message, strings.Join(d.Hints, ", "))
}

// Locate resolves span to "path:line:col-line:col". Spans into files the
// world can no longer provide fall back to "path@start-end"; detached spans
// yield "detached".
func Locate(w typeset.World, span typeset.Span) string {
	if span.IsDetached() {
		return "detached"
	}
	if w == nil {
		return span.String()
	}
	src, err := w.Source(span.File)
	if err != nil || span.Start > src.Len() || span.End > src.Len() {
		return span.String()
	}
	l1, c1 := src.Position(span.Start)
	l2, c2 := src.Position(span.End)
	return fmt.Sprintf("%s:%d:%d-%d:%d", span.File.Rootless(), l1, c1, l2, c2)
}
