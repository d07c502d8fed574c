package vfs

import "github.com/wippyai/typworld/typeset"

// Entry is the content stored for one file: Text or Binary.
type Entry interface {
	// Size returns the content length in bytes.
	Size() int
	entry()
}

// Text is UTF-8 source content.
type Text struct {
	Source typeset.Source
}

// Binary is opaque content such as an image or a font.
type Binary struct {
	Data []byte
}

func (t Text) Size() int   { return t.Source.Len() }
func (b Binary) Size() int { return len(b.Data) }

func (Text) entry()   {}
func (Binary) entry() {}

// Kind names an entry variant.
type Kind uint8

const (
	KindText Kind = iota
	KindBinary
)

func (k Kind) String() string {
	if k == KindBinary {
		return "binary"
	}
	return "text"
}

// Info describes a stored entry without its content.
type Info struct {
	ID   typeset.FileID
	Kind Kind
	Size int
}

func infoOf(id typeset.FileID, e Entry) Info {
	info := Info{ID: id, Size: e.Size()}
	if _, ok := e.(Binary); ok {
		info.Kind = KindBinary
	}
	return info
}
