package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/wippyai/typworld/clock"
	"github.com/wippyai/typworld/compile"
	"github.com/wippyai/typworld/errors"
	"github.com/wippyai/typworld/typeset"
	"github.com/wippyai/typworld/world"
)

func newEngine(t *testing.T, o guestOptions, cfg *Config) *WazeroEngine {
	t.Helper()
	ctx := context.Background()
	e, err := NewWazeroEngine(ctx, guestModule(o), cfg)
	if err != nil {
		t.Fatalf("NewWazeroEngine failed: %v", err)
	}
	t.Cleanup(func() { _ = e.Close(ctx) })
	return e
}

func TestNewWazeroEngineWithConfig(t *testing.T) {
	tests := []struct {
		cfg  *Config
		name string
	}{
		{nil, "nil config"},
		{&Config{}, "default config"},
		{&Config{MemoryLimitPages: 256}, "16MB limit"},
		{&Config{ABIConstraint: ">=1.2, <2"}, "explicit constraint"},
		{&Config{EnableWASI: true}, "wasi"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newEngine(t, guestOptions{abi: "1.2.0"}, tc.cfg)
			if e.ABIVersion().String() != "1.2.0" {
				t.Errorf("ABIVersion() = %s", e.ABIVersion())
			}
		})
	}
}

func TestNewWazeroEngine_Rejects(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		guest []byte
		cfg   *Config
		check func(error) bool
	}{
		{
			name:  "invalid bytes",
			guest: []byte("not wasm"),
			check: func(err error) bool { return errors.IsKind(err, errors.KindInvalidData) },
		},
		{
			name:  "missing abi section",
			guest: guestModule(guestOptions{}),
			check: func(err error) bool { return errors.IsKind(err, errors.KindIncompatible) },
		},
		{
			name:  "malformed abi version",
			guest: guestModule(guestOptions{abi: "one"}),
			check: func(err error) bool { return errors.IsKind(err, errors.KindInvalidData) },
		},
		{
			name:  "incompatible abi",
			guest: guestModule(guestOptions{abi: "0.9.0"}),
			check: func(err error) bool {
				return errors.IsKind(err, errors.KindIncompatible) && strings.Contains(err.Error(), "0.9.0")
			},
		},
		{
			name:  "bad constraint",
			guest: guestModule(guestOptions{abi: "1.0.0"}),
			cfg:   &Config{ABIConstraint: "not a constraint"},
			check: func(err error) bool { return errors.IsKind(err, errors.KindInvalidInput) },
		},
		{
			name:  "missing exports",
			guest: guestModule(guestOptions{abi: "1.0.0", without: map[string]bool{"render_pdf": true, "memory": true}}),
			check: func(err error) bool {
				var missing *errors.MissingExportsError
				return stderrors.As(err, &missing) &&
					len(missing.Exports) == 2 &&
					missing.Exports[0] == "memory" && missing.Exports[1] == "render_pdf"
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, err := NewWazeroEngine(ctx, tc.guest, tc.cfg)
			if err == nil {
				_ = e.Close(ctx)
				t.Fatal("expected error")
			}
			if !tc.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWazeroEngine_Compile(t *testing.T) {
	e := newEngine(t, guestOptions{abi: "1.0.0"}, nil)
	w := world.New()

	res := e.Compile(context.Background(), w)
	if res.Document == nil {
		t.Fatalf("compile failed: %+v", res.Errors)
	}
	defer res.Document.Handle.(*guestDoc).Close()

	if len(res.Document.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(res.Document.Pages))
	}
	if got := e.SVG(context.Background(), res.Document.Pages[1]); got != guestSVG {
		t.Errorf("SVG() = %q", got)
	}
	pdf, err := e.PDF(context.Background(), res.Document, typeset.PDFOptions{})
	if err != nil || string(pdf) != guestPDF {
		t.Errorf("PDF() = %q, %v", pdf, err)
	}
}

func TestWazeroEngine_CompileMissingMain(t *testing.T) {
	e := newEngine(t, guestOptions{abi: "1.0.0"}, nil)
	w := world.New()
	_ = w.Delete(world.DefaultMain)

	res := e.Compile(context.Background(), w)
	if res.Document != nil {
		t.Fatal("compile should fail when the guest cannot read main")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0].Message, "without diagnostics") {
		t.Errorf("errors = %+v", res.Errors)
	}
}

func TestWazeroEngine_Diagnostics(t *testing.T) {
	e := newEngine(t, guestOptions{abi: "1.0.0", fail: true}, nil)
	w := world.New()

	p := compile.New(w, e)
	if out := p.SVG(context.Background()); out != "" {
		t.Errorf("SVG() = %q", out)
	}
	errs := p.Errors()
	want := "SPAN: main.typ:1:1-1:5 ||| MSG: boom ||| HINT: check input"
	if len(errs) != 1 || errs[0] != want {
		t.Errorf("Errors() = %q, want %q", errs, want)
	}
}

func TestWazeroEngine_Pipeline(t *testing.T) {
	e := newEngine(t, guestOptions{abi: "1.1.0"}, nil)
	p := compile.New(world.New(), e)

	if got := p.SVG(context.Background()); got != guestSVG+guestSVG {
		t.Errorf("SVG() = %q", got)
	}
	if got := string(p.PDF(context.Background())); got != guestPDF {
		t.Errorf("PDF() = %q", got)
	}
	if errs := p.Errors(); len(errs) != 0 {
		t.Errorf("Errors() = %v", errs)
	}
}

func TestGuestDoc_Released(t *testing.T) {
	e := newEngine(t, guestOptions{abi: "1.0.0"}, nil)
	res := e.Compile(context.Background(), world.New())
	doc := res.Document.Handle.(*guestDoc)
	if err := doc.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := doc.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if _, err := e.PDF(context.Background(), res.Document, typeset.PDFOptions{}); err == nil {
		t.Error("PDF of a released document should fail")
	}
	if got := e.SVG(context.Background(), res.Document.Pages[0]); got != "" {
		t.Errorf("SVG of a released document = %q", got)
	}
}

func TestPack_HighPointer(t *testing.T) {
	for _, ptr := range []uint32{0x80000000, 0xffffffff} {
		if v, ok := pack(ptr, 1); ok || v != StatusFailed {
			t.Errorf("pack(%#x, 1) = %d, %v; want StatusFailed, false", ptr, v, ok)
		}
	}
}

func TestMemoryLimit(t *testing.T) {
	tests := []struct {
		pages, want uint32
	}{
		{0, MaxMemoryPages},
		{256, 256},
		{MaxMemoryPages, MaxMemoryPages},
		{65536, MaxMemoryPages},
	}
	for _, tt := range tests {
		if got := memoryLimit(tt.pages); got != tt.want {
			t.Errorf("memoryLimit(%d) = %d, want %d", tt.pages, got, tt.want)
		}
	}
}

func TestPackUnpack(t *testing.T) {
	tests := []struct {
		ptr, length uint32
	}{
		{0, 0},
		{1024, 17},
		{0x7fffffff, 0xffffffff},
	}
	for _, tt := range tests {
		v, ok := pack(tt.ptr, tt.length)
		if !ok || v < 0 {
			t.Errorf("pack(%d, %d) = %d, %v; should be non-negative", tt.ptr, tt.length, v, ok)
		}
		ptr, length := unpack(v)
		if ptr != tt.ptr || length != tt.length {
			t.Errorf("unpack(pack(%d, %d)) = %d, %d", tt.ptr, tt.length, ptr, length)
		}
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int64
	}{
		{errors.NotFound(errors.PhaseWorld, "a"), StatusNotFound},
		{errors.NotSource(errors.PhaseWorld, "a"), StatusNotSource},
		{errors.AccessDenied(errors.PhaseStore, "closed"), StatusAccessDenied},
		{errors.Wrap(errors.PhaseWorld, errors.KindInvalidData, errors.NotSource(errors.PhaseStore, "a"), "lookup"), StatusNotSource},
		{fmt.Errorf("world: %w", errors.NotFound(errors.PhaseStore, "a")), StatusNotFound},
		{stderrors.New("other"), StatusFailed},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestEncodeDate(t *testing.T) {
	d, ok := typeset.NewDate(2024, time.February, 29)
	got := encodeDate(d, ok)
	if got != 2024<<16|2<<8|29 {
		t.Errorf("encodeDate = %#x", got)
	}
	if encodeDate(typeset.Date{}, false) != StatusNotFound {
		t.Error("unavailable date should encode as not found")
	}

	c := clock.New(clock.Fixed(time.Date(2030, time.December, 31, 23, 0, 0, 0, time.UTC)))
	offset := int64(1)
	if got := encodeDate(c.Today(&offset)); got != 2031<<16|1<<8|1 {
		t.Errorf("encodeDate(offset) = %#x", got)
	}
}

func TestWireDiagnostic(t *testing.T) {
	d := wireDiagnostic{Message: "m", Severity: "warning"}.diagnostic()
	if d.Severity != typeset.SeverityWarning || !d.Span.IsDetached() {
		t.Errorf("diagnostic = %+v", d)
	}
	d = wireDiagnostic{Message: "m", Severity: "error", File: "a.typ", Start: 1, End: 3}.diagnostic()
	if d.Severity != typeset.SeverityError || d.Span.File != typeset.NewFileID("a.typ") || d.Span.End != 3 {
		t.Errorf("diagnostic = %+v", d)
	}
}
