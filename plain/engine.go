package plain

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/typworld/internal/logging"
	"github.com/wippyai/typworld/typeset"
)

const (
	// PageWidth and PageHeight are A4 in points.
	PageWidth  = 595
	PageHeight = 842

	// DefaultLinesPerPage is the line count after which a page breaks.
	DefaultLinesPerPage = 48
	// DefaultMaxDepth bounds nested includes.
	DefaultMaxDepth = 16

	margin   = 40.0
	bodySize = 11.0
	leading  = 1.4
)

// Config controls layout limits. The zero value uses the defaults.
type Config struct {
	LinesPerPage int
	MaxDepth     int
}

// Engine implements typeset.Engine.
type Engine struct {
	log          *zap.Logger
	linesPerPage int
	maxDepth     int
}

var _ typeset.Engine = (*Engine)(nil)

// New creates an engine. cfg may be nil.
func New(cfg *Config) *Engine {
	e := &Engine{
		linesPerPage: DefaultLinesPerPage,
		maxDepth:     DefaultMaxDepth,
		log:          logging.Named("plain"),
	}
	if cfg != nil {
		if cfg.LinesPerPage > 0 {
			e.linesPerPage = cfg.LinesPerPage
		}
		if cfg.MaxDepth > 0 {
			e.maxDepth = cfg.MaxDepth
		}
	}
	return e
}

// Compile evaluates the main file of w and lays it out.
func (e *Engine) Compile(ctx context.Context, w typeset.World) typeset.Result {
	ev := newEvaluator(ctx, e, w)
	ev.run()

	if len(ev.errors) > 0 {
		e.log.Debug("compile failed", zap.Int("errors", len(ev.errors)))
		return typeset.Result{Errors: ev.errors, Warnings: ev.warnings}
	}

	doc := ev.layout.document(ev.title(), ev.faces)
	e.log.Debug("compiled",
		zap.Int("pages", len(doc.Pages)),
		zap.Int("faces", len(ev.faces)),
		zap.Int("warnings", len(ev.warnings)))
	return typeset.Result{Document: doc, Warnings: ev.warnings}
}
