package fonts

import (
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/wippyai/typworld/errors"
	"github.com/wippyai/typworld/internal/logging"
	"github.com/wippyai/typworld/typeset"
)

// Catalog is an ordered list of faces plus their metadata index.
type Catalog struct {
	book  *typeset.FontBook
	fonts []typeset.Font
}

// Default loads the bundled fonts followed by extra.
func Default(extra ...[]byte) *Catalog {
	return Load(append(Bundled(), extra...)...)
}

// Load scans every blob and collects all faces in discovery order. Blobs
// that are not valid SFNT data are skipped.
func Load(blobs ...[]byte) *Catalog {
	log := logging.Named("fonts")
	c := &Catalog{book: typeset.NewFontBook()}
	var buf sfnt.Buffer

	for i, blob := range blobs {
		faces, err := scan(&buf, blob)
		if err != nil {
			log.Warn("skipping font file", zap.Int("blob", i), zap.Error(err))
			continue
		}
		for _, f := range faces {
			c.book.Push(f.Info)
			c.fonts = append(c.fonts, f)
		}
	}

	log.Debug("catalog built", zap.Int("files", len(blobs)), zap.Int("faces", len(c.fonts)))
	return c
}

// Book returns the metadata index.
func (c *Catalog) Book() *typeset.FontBook {
	return c.book
}

// Len returns the number of faces.
func (c *Catalog) Len() int {
	return len(c.fonts)
}

// Font returns face i. It panics when i is out of range.
func (c *Catalog) Font(i int) typeset.Font {
	return c.fonts[i]
}

func scan(buf *sfnt.Buffer, blob []byte) ([]typeset.Font, error) {
	coll, err := sfnt.ParseCollection(blob)
	if err != nil {
		return nil, errors.Load("parse font", err)
	}

	faces := make([]typeset.Font, 0, coll.NumFonts())
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			return nil, errors.Load("parse font face", err)
		}
		faces = append(faces, typeset.Font{
			Data:  blob,
			Index: i,
			Info:  describe(buf, f),
		})
	}
	return faces, nil
}

func describe(buf *sfnt.Buffer, f *sfnt.Font) typeset.FontInfo {
	name := func(ids ...sfnt.NameID) string {
		for _, id := range ids {
			if s, err := f.Name(buf, id); err == nil && s != "" {
				return s
			}
		}
		return ""
	}

	info := typeset.FontInfo{
		Family:         name(sfnt.NameIDTypographicFamily, sfnt.NameIDFamily),
		Subfamily:      name(sfnt.NameIDTypographicSubfamily, sfnt.NameIDSubfamily),
		FullName:       name(sfnt.NameIDFull),
		PostScriptName: name(sfnt.NameIDPostScript),
		NumGlyphs:      f.NumGlyphs(),
		UnitsPerEm:     int(f.UnitsPerEm()),
	}
	info.Variant = parseVariant(info.Subfamily)
	info.Monospace = isMonospace(buf, f)
	return info
}

// isMonospace compares the advances of a narrow and a wide glyph.
func isMonospace(buf *sfnt.Buffer, f *sfnt.Font) bool {
	ppem := fixed.I(int(f.UnitsPerEm()))
	advance := func(r rune) (fixed.Int26_6, bool) {
		gi, err := f.GlyphIndex(buf, r)
		if err != nil || gi == 0 {
			return 0, false
		}
		a, err := f.GlyphAdvance(buf, gi, ppem, font.HintingNone)
		return a, err == nil
	}
	narrow, ok1 := advance('i')
	wide, ok2 := advance('W')
	return ok1 && ok2 && narrow == wide
}
