package typeset

import (
	"sort"
	"strings"
)

// FontStyle is the slant of a face.
type FontStyle uint8

const (
	StyleNormal FontStyle = iota
	StyleItalic
	StyleOblique
)

func (s FontStyle) String() string {
	switch s {
	case StyleItalic:
		return "italic"
	case StyleOblique:
		return "oblique"
	default:
		return "normal"
	}
}

// Common weights.
const (
	WeightThin       = 100
	WeightExtraLight = 200
	WeightLight      = 300
	WeightRegular    = 400
	WeightMedium     = 500
	WeightSemiBold   = 600
	WeightBold       = 700
	WeightExtraBold  = 800
	WeightBlack      = 900
)

// FontVariant locates a face within its family.
type FontVariant struct {
	Style   FontStyle
	Weight  int
	Stretch float64 // 1.0 is normal width
}

// NormalVariant is regular weight, upright, normal width.
var NormalVariant = FontVariant{Style: StyleNormal, Weight: WeightRegular, Stretch: 1}

// FontInfo is the searchable metadata of one face.
type FontInfo struct {
	Family         string
	Subfamily      string
	FullName       string
	PostScriptName string
	Variant        FontVariant
	NumGlyphs      int
	UnitsPerEm     int
	Monospace      bool
}

// Font is one loadable face. Data holds the complete font file the face was
// found in; Index selects the face inside a collection file.
type Font struct {
	Data  []byte
	Info  FontInfo
	Index int
}

// FontBook is the metadata index over a world's fonts. Entry i describes the
// font the world returns for Font(i).
type FontBook struct {
	infos []FontInfo
}

// NewFontBook creates an empty book.
func NewFontBook() *FontBook {
	return &FontBook{}
}

// Push appends info and returns its index.
func (b *FontBook) Push(info FontInfo) int {
	b.infos = append(b.infos, info)
	return len(b.infos) - 1
}

// Len returns the number of faces.
func (b *FontBook) Len() int {
	if b == nil {
		return 0
	}
	return len(b.infos)
}

// Info returns the metadata of face i.
func (b *FontBook) Info(i int) (FontInfo, bool) {
	if b == nil || i < 0 || i >= len(b.infos) {
		return FontInfo{}, false
	}
	return b.infos[i], true
}

// Families returns the distinct family names in sorted order.
func (b *FontBook) Families() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, info := range b.infos {
		if _, ok := seen[info.Family]; ok {
			continue
		}
		seen[info.Family] = struct{}{}
		out = append(out, info.Family)
	}
	sort.Strings(out)
	return out
}

// Select returns the index of the face in family (case-insensitive) closest
// to variant: matching style first, then nearest weight, then nearest
// stretch. Ties keep the earliest face.
func (b *FontBook) Select(family string, variant FontVariant) (int, bool) {
	best, bestScore := -1, 0.0
	for i, info := range b.infos {
		if !strings.EqualFold(info.Family, family) {
			continue
		}
		score := variantDistance(info.Variant, variant)
		if best < 0 || score < bestScore {
			best, bestScore = i, score
		}
	}
	return best, best >= 0
}

func variantDistance(have, want FontVariant) float64 {
	var d float64
	if have.Style != want.Style {
		d += 10000
		if have.Style == StyleNormal || want.Style == StyleNormal {
			d += 10000
		}
	}
	w := have.Weight - want.Weight
	if w < 0 {
		w = -w
	}
	d += float64(w)
	s := have.Stretch - want.Stretch
	if s < 0 {
		s = -s
	}
	return d + s*100
}
