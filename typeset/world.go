package typeset

import "context"

// World is the environment an engine compiles against.
//
// Source and File fail with errors of kind KindNotFound, KindNotSource or
// KindAccessDenied. Font panics for an index outside Book; engines only pass
// indices they obtained from Book.
type World interface {
	Library() *Library
	Book() *FontBook
	Main() FileID
	Source(id FileID) (Source, error)
	File(id FileID) ([]byte, error)
	Font(index int) Font
	Today(offset *int64) (Date, bool)
}

// Result is the outcome of one compilation. Document is nil iff Errors is
// non-empty.
type Result struct {
	Document *Document
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// Compiler turns a world into a document.
type Compiler interface {
	Compile(ctx context.Context, w World) Result
}

// SVGRenderer renders one page as a standalone SVG document.
type SVGRenderer interface {
	SVG(ctx context.Context, page Page) string
}

// PDFEncoder serializes a whole document.
type PDFEncoder interface {
	PDF(ctx context.Context, doc *Document, opts PDFOptions) ([]byte, error)
}

// Engine is a complete typesetting engine.
type Engine interface {
	Compiler
	SVGRenderer
	PDFEncoder
}
