package typeset

import (
	"path"
	"strings"
)

// FileID identifies a file in the single virtual root. Two ids are equal iff
// their normalized paths are equal, so FileID is usable as a map key.
// The zero FileID is detached and refers to no file.
type FileID struct {
	path string
}

// NewFileID derives the id for a logical name. The name is rooted at "/" and
// cleaned lexically; ".." never escapes the root.
func NewFileID(name string) FileID {
	return FileID{path: path.Clean("/" + name)}
}

// Path returns the rooted path, e.g. "/main.typ".
func (id FileID) Path() string {
	return id.path
}

// Rootless returns the path without its leading slash, e.g. "main.typ".
func (id FileID) Rootless() string {
	return strings.TrimPrefix(id.path, "/")
}

// IsDetached reports whether id is the zero FileID.
func (id FileID) IsDetached() bool {
	return id.path == ""
}

// Join resolves name against the directory of id. Absolute names resolve
// against the root.
func (id FileID) Join(name string) FileID {
	if strings.HasPrefix(name, "/") || id.IsDetached() {
		return NewFileID(name)
	}
	return NewFileID(path.Join(path.Dir(id.path), name))
}

func (id FileID) String() string {
	if id.IsDetached() {
		return "detached"
	}
	return id.Rootless()
}
