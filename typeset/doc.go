// Package typeset defines the contract between a typesetting engine and the
// environment it compiles against.
//
// An engine never touches the operating system. Everything it needs comes
// from a World:
//
//	Library()   capability table (the functions a document may call)
//	Book()      searchable font metadata
//	Main()      entrypoint file
//	Source(id)  UTF-8 source text of a file
//	File(id)    raw bytes of a file
//	Font(i)     font face i of the Book
//	Today(off)  calendar date, optionally at a UTC hour offset
//
// File lookups fail with the errors package taxonomy (KindNotFound,
// KindNotSource, KindAccessDenied); engines turn those into Diagnostics
// attached to the span that referenced the file.
//
// An Engine compiles a World into a Document, renders pages as SVG and
// encodes whole documents as PDF. Engines depend on World structurally;
// world.Adapter is the in-memory implementation.
package typeset
