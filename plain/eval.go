package plain

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/typworld/errors"
	"github.com/wippyai/typworld/typeset"
)

// evaluator walks the main file and its includes, feeding the layout.
type evaluator struct {
	ctx      context.Context
	world    typeset.World
	layout   *layout
	faces    map[int]typeset.Font
	active   map[typeset.FileID]bool
	family   string
	heading  string
	errors   []typeset.Diagnostic
	warnings []typeset.Diagnostic
	maxDepth int
}

func newEvaluator(ctx context.Context, e *Engine, w typeset.World) *evaluator {
	ev := &evaluator{
		ctx:      ctx,
		world:    w,
		layout:   newLayout(e.linesPerPage),
		faces:    make(map[int]typeset.Font),
		active:   make(map[typeset.FileID]bool),
		maxDepth: e.maxDepth,
	}
	if info, ok := w.Book().Info(0); ok {
		ev.family = info.Family
	}
	return ev
}

func (ev *evaluator) run() {
	main := ev.world.Main()
	src, err := ev.world.Source(main)
	if err != nil {
		ev.fail(fileError(typeset.Detached(), main, err))
		return
	}
	ev.file(src, 0)
}

func (ev *evaluator) title() string {
	if ev.heading != "" {
		return ev.heading
	}
	return ev.world.Main().Rootless()
}

func (ev *evaluator) fail(d typeset.Diagnostic) {
	ev.errors = append(ev.errors, d)
}

func (ev *evaluator) warn(d typeset.Diagnostic) {
	ev.warnings = append(ev.warnings, d)
}

// file evaluates every line of src.
func (ev *evaluator) file(src typeset.Source, depth int) {
	id := src.ID()
	ev.active[id] = true
	defer delete(ev.active, id)

	for n := 1; n <= src.LineCount(); n++ {
		if err := ev.ctx.Err(); err != nil {
			ev.fail(typeset.Errorf(typeset.Detached(), "compilation cancelled: %v", err))
			return
		}
		start, end, _ := src.LineRange(n)
		raw := src.Text()[start:end]
		body := strings.TrimSpace(raw)
		offset := start + strings.Index(raw, body)
		if body == "" {
			offset = start
		}
		ev.line(id, body, offset, depth)
	}
}

func (ev *evaluator) line(id typeset.FileID, s string, offset, depth int) {
	span := typeset.Span{File: id, Start: offset, End: offset + len(s)}

	switch {
	case s == "":
		ev.layout.skip(bodySize)
		return
	case isComment(s):
		return
	}

	if level, text, at, ok := headingLevel(s); ok {
		text = ev.inline(id, text, offset+at)
		if ev.heading == "" {
			ev.heading = text
		}
		ev.emit(text, headingSize(level), true)
		return
	}

	if name, ok := leadingIdent(s); ok {
		if _, block := usage[name]; block {
			ev.directive(name, s, span, depth)
			return
		}
	}

	ev.emit(ev.inline(id, s, offset), bodySize, false)
}

func (ev *evaluator) directive(name, s string, span typeset.Span, depth int) {
	if !ev.world.Library().Has(libraryName(name)) {
		ev.fail(typeset.Errorf(span, "unknown variable: %s", name))
		return
	}

	malformed := func() {
		ev.fail(typeset.Errorf(span, "malformed %s call", name).
			WithHint("expected " + usage[name]))
	}

	switch name {
	case "include":
		m := includeRe.FindStringSubmatch(s)
		if m == nil {
			malformed()
			return
		}
		ev.include(span, m[1], depth)

	case "image", "read":
		m := pathCallRe.FindStringSubmatch(s)
		if m == nil {
			malformed()
			return
		}
		target := span.File.Join(m[1])
		data, err := ev.world.File(target)
		if err != nil {
			ev.fail(fileError(span, target, err))
			return
		}
		if name == "image" {
			ev.emit("[image "+target.Rootless()+", "+strconv.Itoa(len(data))+" bytes]", bodySize, false)
			return
		}
		if !utf8.Valid(data) {
			ev.fail(typeset.Errorf(span, "file is not valid utf-8"))
			return
		}
		for _, l := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			ev.emit(strings.TrimRight(l, "\r"), bodySize, false)
		}

	case "pagebreak":
		if !pagebreakRe.MatchString(s) {
			malformed()
			return
		}
		ev.layout.newPage()

	case "set":
		m := setTextRe.FindStringSubmatch(s)
		if m == nil {
			malformed()
			return
		}
		ev.setFont(span, m[1])
	}
}

func (ev *evaluator) include(span typeset.Span, name string, depth int) {
	target := span.File.Join(name)
	if ev.active[target] {
		ev.fail(typeset.Errorf(span, "cyclic include of %s", target.Rootless()))
		return
	}
	if depth+1 > ev.maxDepth {
		ev.fail(typeset.Errorf(span, "maximum include depth exceeded").
			WithHint("includes nest at most " + strconv.Itoa(ev.maxDepth) + " levels"))
		return
	}
	src, err := ev.world.Source(target)
	if err != nil {
		ev.fail(fileError(span, target, err))
		return
	}
	ev.file(src, depth+1)
}

func (ev *evaluator) setFont(span typeset.Span, family string) {
	book := ev.world.Book()
	idx, ok := book.Select(family, typeset.NormalVariant)
	if !ok {
		d := typeset.Warningf(span, "unknown font family: %s", strings.ToLower(family))
		if families := book.Families(); len(families) > 0 {
			d = d.WithHint("available families: " + strings.Join(families, ", "))
		}
		ev.warn(d)
		return
	}
	info, _ := book.Info(idx)
	if ev.world.Font(idx).Index != 0 {
		ev.warn(typeset.Warningf(span, "font family %s cannot be embedded: it is part of a font collection", info.Family).
			WithHint("add the face as a single font file"))
		return
	}
	ev.family = info.Family
}

// inline expands #datetime.today calls in s and reports any other #name.
// offset is the source position of s.
func (ev *evaluator) inline(id typeset.FileID, s string, offset int) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == '#' {
			b.WriteByte('#')
			i += 2
			continue
		}
		if c != '#' {
			b.WriteByte(c)
			i++
			continue
		}

		name, ok := leadingIdent(s[i:])
		if !ok {
			b.WriteByte(c)
			i++
			continue
		}
		end := i + 1 + len(name)
		span := typeset.Span{File: id, Start: offset + i, End: offset + end}

		if name != "datetime.today" || !ev.world.Library().Has(name) {
			ev.fail(typeset.Errorf(span, "unknown variable: %s", name))
			i = end
			continue
		}

		m := todayArgsRe.FindStringSubmatchIndex(s[end:])
		if m == nil {
			ev.fail(typeset.Errorf(span, "expected arguments after %s", name).
				WithHint("write #datetime.today() or #datetime.today(offset: 2)"))
			i = end
			continue
		}
		span.End = offset + end + m[1]

		var offsetHours *int64
		if m[2] >= 0 {
			h, err := strconv.ParseInt(s[end+m[2]:end+m[3]], 10, 64)
			if err != nil {
				ev.fail(typeset.Errorf(span, "offset is out of range"))
				i = end + m[1]
				continue
			}
			offsetHours = &h
		}
		if date, ok := ev.world.Today(offsetHours); ok {
			b.WriteString(date.String())
		} else {
			ev.fail(typeset.Errorf(span, "unable to get the current date"))
		}
		i = end + m[1]
	}
	return b.String()
}

// face selects and loads the current family's face closest to variant.
// Faces inside font collections cannot be embedded and are never selected.
func (ev *evaluator) face(variant typeset.FontVariant) (int, bool) {
	idx, ok := ev.world.Book().Select(ev.family, variant)
	if !ok {
		return 0, false
	}
	if _, loaded := ev.faces[idx]; !loaded {
		f := ev.world.Font(idx)
		if f.Index != 0 {
			return 0, false
		}
		ev.faces[idx] = f
	}
	return idx, true
}

// emit adds a line set in the current family.
func (ev *evaluator) emit(text string, size float64, bold bool) {
	ln := line{text: text, size: size, bold: bold, face: -1, family: ev.family}
	variant := typeset.NormalVariant
	if bold {
		variant.Weight = typeset.WeightBold
	}
	if idx, ok := ev.face(variant); ok {
		f := ev.faces[idx]
		ln.face = idx
		ln.bold = f.Info.Variant.Weight >= typeset.WeightSemiBold
		ln.italic = f.Info.Variant.Style != typeset.StyleNormal
	}
	ev.layout.add(ln)
}

func headingSize(level int) float64 {
	switch level {
	case 1:
		return 22
	case 2:
		return 17
	default:
		return 14
	}
}

// fileError turns a world lookup failure into a diagnostic.
func fileError(span typeset.Span, id typeset.FileID, err error) typeset.Diagnostic {
	switch {
	case errors.IsKind(err, errors.KindNotFound):
		return typeset.Errorf(span, "file not found (searched at %s)", id.Rootless())
	case errors.IsKind(err, errors.KindNotSource):
		return typeset.Errorf(span, "file is not a source file").
			WithHint(id.Rootless() + " was attached as binary data")
	case errors.IsKind(err, errors.KindAccessDenied):
		return typeset.Errorf(span, "failed to load file (access denied)")
	default:
		return typeset.Errorf(span, "failed to load file (%v)", err)
	}
}
