package typeset

import "sort"

// Library is the capability table an engine consults to decide which
// functions a document may call. It is constant for a world's lifetime.
type Library struct {
	functions map[string]struct{}
	Name      string
	Version   string
}

// NewLibrary creates a library exposing the given function names.
func NewLibrary(name, version string, functions ...string) *Library {
	lib := &Library{
		Name:      name,
		Version:   version,
		functions: make(map[string]struct{}, len(functions)),
	}
	for _, fn := range functions {
		lib.functions[fn] = struct{}{}
	}
	return lib
}

// DefaultLibrary returns the standard capability table.
func DefaultLibrary() *Library {
	return NewLibrary("std", "1.0.0",
		"include",
		"image",
		"read",
		"datetime.today",
		"pagebreak",
		"set text",
	)
}

// Has reports whether fn is part of the library.
func (l *Library) Has(fn string) bool {
	if l == nil {
		return false
	}
	_, ok := l.functions[fn]
	return ok
}

// Functions returns the sorted function names.
func (l *Library) Functions() []string {
	if l == nil {
		return nil
	}
	out := make([]string, 0, len(l.functions))
	for fn := range l.functions {
		out = append(out, fn)
	}
	sort.Strings(out)
	return out
}
