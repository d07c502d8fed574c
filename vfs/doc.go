// Package vfs implements the in-memory file store a world serves files from.
//
// A Store maps typeset.FileID to an Entry, which is either Text (a source
// snapshot) or Binary (opaque bytes). Every operation holds the store mutex
// for its whole critical section, so a lookup copies the entry before any
// concurrent write can replace it. Writing an id again replaces the entry.
//
// A closed store, or one whose critical section panicked, is poisoned: all
// later operations, reads and writes alike, fail with KindAccessDenied.
package vfs
