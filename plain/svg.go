package plain

import (
	"context"
	"fmt"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/wippyai/typworld/typeset"
)

// SVG renders one page as a standalone SVG document.
func (e *Engine) SVG(_ context.Context, pg typeset.Page) string {
	var b strings.Builder
	canvas := svg.New(&b)

	w, h := int(pg.Width), int(pg.Height)
	if w <= 0 || h <= 0 {
		w, h = PageWidth, PageHeight
	}
	canvas.Start(w, h)
	canvas.Rect(0, 0, w, h, "fill:white")

	if p, ok := pg.Content.(*page); ok {
		for _, ln := range p.lines {
			if ln.text == "" {
				continue
			}
			canvas.Text(int(ln.x), int(ln.y), ln.text, textStyle(ln))
		}
	}
	canvas.End()
	return b.String()
}

func textStyle(ln line) string {
	var b strings.Builder
	if ln.family != "" {
		fmt.Fprintf(&b, "font-family:'%s';", ln.family)
	}
	fmt.Fprintf(&b, "font-size:%gpx;fill:black", ln.size)
	if ln.bold {
		b.WriteString(";font-weight:bold")
	}
	if ln.italic {
		b.WriteString(";font-style:italic")
	}
	return b.String()
}
