// Package plain is a small line-oriented typesetting engine.
//
// It understands a handful of constructs, each answered through the world:
//
//	= Heading                      heading, level by '=' count
//	#include "chapter.typ"         splice another source file
//	#image("logo.png")             reference a binary asset
//	#read("data.txt")              splice a UTF-8 file verbatim
//	#set text(font: "Go Mono")     switch font family
//	#pagebreak()                   start a new page
//	#datetime.today(offset: 2)     inline date, offset in hours
//	// comment                     ignored
//
// Any other #name is reported as an unknown variable. Pages are A4 and
// break every 48 lines. SVG output is produced with svgo, PDF output with
// fpdf embedding the catalog faces actually used.
package plain
