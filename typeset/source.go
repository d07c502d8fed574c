package typeset

import (
	"sort"
	"sync"
	"unicode/utf8"
)

// Source is the text of one source file. It is immutable once created;
// replacing a file's text means creating a new Source.
type Source struct {
	lines *lineIndex
	id    FileID
	text  string
}

type lineIndex struct {
	once   sync.Once
	starts []int
}

// NewSource creates a source snapshot for id.
func NewSource(id FileID, text string) Source {
	return Source{id: id, text: text, lines: &lineIndex{}}
}

// ID returns the file the source belongs to.
func (s Source) ID() FileID {
	return s.id
}

// Text returns the full source text.
func (s Source) Text() string {
	return s.text
}

// Len returns the text length in bytes.
func (s Source) Len() int {
	return len(s.text)
}

// LineCount returns the number of lines, counting a trailing partial line.
func (s Source) LineCount() int {
	return len(s.lineStarts())
}

// Position converts a byte offset into a 1-based line and column, the column
// counted in runes. Offsets past the end clamp to the end.
func (s Source) Position(offset int) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s.text) {
		offset = len(s.text)
	}
	starts := s.lineStarts()
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, utf8.RuneCountInString(s.text[starts[i]:offset]) + 1
}

// LineRange returns the byte range [start, end) of 1-based line n without its
// line terminator.
func (s Source) LineRange(n int) (start, end int, ok bool) {
	starts := s.lineStarts()
	if n < 1 || n > len(starts) {
		return 0, 0, false
	}
	start = starts[n-1]
	end = len(s.text)
	if n < len(starts) {
		end = starts[n] - 1
	}
	if end > start && s.text[end-1] == '\r' {
		end--
	}
	return start, end, true
}

func (s Source) lineStarts() []int {
	if s.lines == nil {
		return computeLineStarts(s.text)
	}
	s.lines.once.Do(func() {
		s.lines.starts = computeLineStarts(s.text)
	})
	return s.lines.starts
}

func computeLineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
