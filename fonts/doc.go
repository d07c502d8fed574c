// Package fonts builds the immutable font catalog of a world.
//
// Load scans font files, enumerates every face each file holds (collections
// hold several) and records the faces in discovery order together with a
// parallel typeset.FontBook. Book entry i always describes Font(i).
//
// Bundled returns the default font set, the Go font family from
// golang.org/x/image/font/gofont.
package fonts
