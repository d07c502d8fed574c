package compile

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/typworld/errors"
	"github.com/wippyai/typworld/internal/logging"
	"github.com/wippyai/typworld/typeset"
)

// Pipeline compiles one world with one engine and records diagnostics.
type Pipeline struct {
	world  typeset.World
	engine typeset.Engine
	sink   *Sink
	log    *zap.Logger
	mu     sync.Mutex
}

// New creates a pipeline. The sink starts out empty.
func New(w typeset.World, e typeset.Engine) *Pipeline {
	return &Pipeline{
		world:  w,
		engine: e,
		sink:   NewSink(w),
		log:    logging.Named("compile"),
	}
}

// World returns the world the pipeline compiles.
func (p *Pipeline) World() typeset.World {
	return p.world
}

// Engine returns the engine the pipeline drives.
func (p *Pipeline) Engine() typeset.Engine {
	return p.engine
}

// Sink returns the diagnostics sink.
func (p *Pipeline) Sink() *Sink {
	return p.sink
}

// Report returns a copy of the latest run's diagnostics.
func (p *Pipeline) Report() Report {
	return p.sink.Report()
}

// Errors returns the latest run's diagnostics, formatted when the run was
// recorded. Later edits to the world do not change them.
func (p *Pipeline) Errors() []string {
	lines := p.sink.Report().Lines
	if lines == nil {
		lines = []string{}
	}
	return lines
}

// SVG compiles and renders every page, concatenated in page order. It
// returns "" when compilation fails.
func (p *Pipeline) SVG(ctx context.Context) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	run, doc := p.compile(ctx)
	if doc == nil {
		return ""
	}
	defer release(doc)

	var b strings.Builder
	for _, page := range doc.Pages {
		b.WriteString(p.engine.SVG(ctx, page))
	}
	p.log.Debug("rendered svg", zap.String("run", run), zap.Int("pages", len(doc.Pages)), zap.Int("bytes", b.Len()))
	return b.String()
}

// PDF compiles and encodes the document. It returns an empty slice when
// compilation or encoding fails; an encoding failure is recorded as an
// export error alongside the compile warnings.
func (p *Pipeline) PDF(ctx context.Context) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	run, doc := p.compile(ctx)
	if doc == nil {
		return []byte{}
	}
	defer release(doc)

	data, err := p.engine.PDF(ctx, doc, typeset.PDFOptions{})
	if err != nil {
		p.log.Warn("pdf export failed", zap.String("run", run), zap.Error(err))
		p.sink.Escalate(run, typeset.Errorf(typeset.Detached(), "export: %v", err).
			WithHint("the document compiled but could not be encoded as pdf"))
		return []byte{}
	}
	if data == nil {
		data = []byte{}
	}
	p.log.Debug("rendered pdf", zap.String("run", run), zap.Int("bytes", len(data)))
	return data
}

// compile runs the engine and records its diagnostics. doc is nil when the
// run failed.
func (p *Pipeline) compile(ctx context.Context) (string, *typeset.Document) {
	run := uuid.NewString()
	log := p.log.With(zap.String("run", run))
	log.Debug("compile started", zap.String("main", p.world.Main().Path()))

	res := p.engine.Compile(ctx, p.world)
	if res.Document == nil {
		errs := res.Errors
		if len(errs) == 0 {
			errs = []typeset.Diagnostic{typeset.Errorf(typeset.Detached(), "compilation produced no document")}
		}
		p.sink.SetFailure(run, errs)
		log.Debug("compile failed", zap.Error(errors.Compilation(len(errs))))
		return run, nil
	}

	p.sink.SetWarning(run, res.Warnings)
	log.Debug("compile succeeded",
		zap.Int("pages", len(res.Document.Pages)),
		zap.Int("warnings", len(res.Warnings)))
	return run, res.Document
}

// release closes engine state backing doc.
func release(doc *typeset.Document) {
	if c, ok := doc.Handle.(io.Closer); ok {
		_ = c.Close()
	}
}
