package typeset

import "time"

// Page is one laid-out page. Content is owned by the engine that produced it.
type Page struct {
	Content any
	Number  int
	Width   float64 // points
	Height  float64 // points
}

// Document is a compiled document. Handle is engine state backing the pages;
// when it implements io.Closer the consumer closes it after rendering.
type Document struct {
	Handle any
	Title  string
	Pages  []Page
}

// PDFOptions controls binary encoding. The zero value is the default.
type PDFOptions struct {
	Timestamp  *time.Time
	Identifier string
}
