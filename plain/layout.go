package plain

import "github.com/wippyai/typworld/typeset"

// line is one positioned run of text.
type line struct {
	text   string
	family string
	face   int // catalog index, -1 when the world has no fonts
	size   float64
	x, y   float64
	bold   bool
	italic bool
}

type page struct {
	lines []line
}

// handle backs a compiled document with the faces its pages use.
type handle struct {
	faces map[int]typeset.Font
}

// Close drops the face references.
func (h *handle) Close() error {
	h.faces = nil
	return nil
}

type layout struct {
	pages        []*page
	y            float64
	linesPerPage int
}

func newLayout(linesPerPage int) *layout {
	l := &layout{linesPerPage: linesPerPage}
	l.newPage()
	return l
}

func (l *layout) current() *page {
	return l.pages[len(l.pages)-1]
}

func (l *layout) newPage() {
	l.pages = append(l.pages, &page{})
	l.y = margin
}

// add places ln below the previous line, breaking the page when it is full.
func (l *layout) add(ln line) {
	advance := ln.size * leading
	p := l.current()
	if len(p.lines) >= l.linesPerPage || l.y+advance > PageHeight-margin {
		l.newPage()
		p = l.current()
	}
	l.y += advance
	ln.x = margin
	ln.y = l.y
	p.lines = append(p.lines, ln)
}

// skip leaves vertical space without counting a line.
func (l *layout) skip(size float64) {
	l.y += size * leading / 2
}

func (l *layout) document(title string, faces map[int]typeset.Font) *typeset.Document {
	doc := &typeset.Document{
		Title:  title,
		Handle: &handle{faces: faces},
		Pages:  make([]typeset.Page, len(l.pages)),
	}
	for i, p := range l.pages {
		doc.Pages[i] = typeset.Page{
			Content: p,
			Number:  i + 1,
			Width:   PageWidth,
			Height:  PageHeight,
		}
	}
	return doc
}
