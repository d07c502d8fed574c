package plain

import (
	"bytes"
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/wippyai/typworld/errors"
	"github.com/wippyai/typworld/typeset"
)

// fallbackFont is the core font used for lines without a catalog face.
const fallbackFont = "Helvetica"

// PDF encodes doc, embedding every catalog face its pages use.
func (e *Engine) PDF(ctx context.Context, doc *typeset.Document, opts typeset.PDFOptions) ([]byte, error) {
	h, ok := doc.Handle.(*handle)
	if !ok || h.faces == nil {
		return nil, errors.InvalidInput(errors.PhaseRender, "document was not produced by this engine or was released")
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(true)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("typworld plain", true)
	if opts.Identifier != "" {
		pdf.SetKeywords(opts.Identifier, true)
	}
	var stamp time.Time
	if opts.Timestamp != nil {
		stamp = *opts.Timestamp
	}
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)

	indices := make([]int, 0, len(h.faces))
	for idx := range h.faces {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		f := h.faces[idx]
		if f.Index != 0 {
			return nil, errors.Unsupported(errors.PhaseRender, "embedding a face from a font collection")
		}
		pdf.AddUTF8FontFromBytes(faceName(idx), "", f.Data)
	}
	if err := pdf.Error(); err != nil {
		return nil, errors.Wrap(errors.PhaseRender, errors.KindInvalidData, err, "embed font")
	}

	translate := pdf.UnicodeTranslatorFromDescriptor("")
	for _, pg := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pdf.AddPage()
		p, ok := pg.Content.(*page)
		if !ok {
			continue
		}
		for _, ln := range p.lines {
			if ln.text == "" {
				continue
			}
			text := ln.text
			if ln.face >= 0 {
				pdf.SetFont(faceName(ln.face), "", ln.size)
			} else {
				style := ""
				if ln.bold {
					style = "B"
				}
				pdf.SetFont(fallbackFont, style, ln.size)
				text = translate(text)
			}
			pdf.Text(ln.x, ln.y, text)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func faceName(idx int) string {
	return "face" + strconv.Itoa(idx)
}
