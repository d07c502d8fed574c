package plain

import (
	"regexp"
	"strings"
)

var (
	identRe   = regexp.MustCompile(`^#([A-Za-z_][A-Za-z0-9_-]*(?:\.[A-Za-z_][A-Za-z0-9_-]*)*)`)
	headingRe = regexp.MustCompile(`^(=+)\s+(.*)$`)

	includeRe   = regexp.MustCompile(`^#include\s+"([^"]*)"\s*$`)
	pathCallRe  = regexp.MustCompile(`^#(?:image|read)\(\s*"([^"]*)"\s*\)\s*$`)
	pagebreakRe = regexp.MustCompile(`^#pagebreak\(\s*\)\s*$`)
	setTextRe   = regexp.MustCompile(`^#set\s+text\(\s*font:\s*"([^"]*)"\s*\)\s*$`)
	todayArgsRe = regexp.MustCompile(`^\(\s*(?:offset:\s*(-?\d+)\s*)?\)`)
)

// block directives and the syntax they expect
var usage = map[string]string{
	"include":   `#include "path"`,
	"image":     `#image("path")`,
	"read":      `#read("path")`,
	"pagebreak": `#pagebreak()`,
	"set":       `#set text(font: "Family")`,
}

// libraryName maps a directive to the library function it needs.
func libraryName(directive string) string {
	if directive == "set" {
		return "set text"
	}
	return directive
}

// leadingIdent returns the identifier after a leading '#', if any.
func leadingIdent(s string) (string, bool) {
	m := identRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// headingLevel splits "== Title" into 2 and "Title".
func headingLevel(s string) (int, string, int, bool) {
	m := headingRe.FindStringSubmatchIndex(s)
	if m == nil {
		return 0, "", 0, false
	}
	return m[3] - m[2], s[m[4]:m[5]], m[4], true
}

func isComment(s string) bool {
	return strings.HasPrefix(s, "//")
}
