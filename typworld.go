package typworld

import (
	"context"

	"github.com/wippyai/typworld/clock"
	"github.com/wippyai/typworld/compile"
	"github.com/wippyai/typworld/plain"
	"github.com/wippyai/typworld/typeset"
	"github.com/wippyai/typworld/world"
)

// Instance is a world plus the pipeline compiling it.
type Instance struct {
	world    *world.Adapter
	pipeline *compile.Pipeline
}

type config struct {
	engine typeset.Engine
	world  []world.Option
}

// Option configures an Instance.
type Option func(*config)

// WithEngine sets the typesetting engine. Defaults to the plain engine.
func WithEngine(e typeset.Engine) Option {
	return func(c *config) { c.engine = e }
}

// WithMain sets the main file name. Defaults to "main.typ".
func WithMain(name string) Option {
	return func(c *config) { c.world = append(c.world, world.WithMain(name)) }
}

// WithPlaceholder sets the initial body of the main file.
func WithPlaceholder(text string) Option {
	return func(c *config) { c.world = append(c.world, world.WithPlaceholder(text)) }
}

// WithFonts adds font files after the bundled set. Every face of a
// collection file is listed in the book, but the plain engine embeds only
// single-face files in pdf output; it never selects collection faces.
func WithFonts(blobs ...[]byte) Option {
	return func(c *config) { c.world = append(c.world, world.WithFonts(blobs...)) }
}

// WithClock sets the clock provider.
func WithClock(p *clock.Provider) Option {
	return func(c *config) { c.world = append(c.world, world.WithClock(p)) }
}

// WithLibrary sets the capability library.
func WithLibrary(lib *typeset.Library) Option {
	return func(c *config) { c.world = append(c.world, world.WithLibrary(lib)) }
}

// New creates an instance whose store holds only the main file.
func New(opts ...Option) *Instance {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	if c.engine == nil {
		c.engine = plain.New(nil)
	}

	w := world.New(c.world...)
	return &Instance{
		world:    w,
		pipeline: compile.New(w, c.engine),
	}
}

// Write stores source text under name, replacing any previous entry.
func (i *Instance) Write(name, text string) error {
	return i.world.Write(name, text)
}

// Attach stores binary data under name, replacing any previous entry.
func (i *Instance) Attach(name string, data []byte) error {
	return i.world.Attach(name, data)
}

// Delete removes name. Deleting an unknown name is a no-op.
func (i *Instance) Delete(name string) error {
	return i.world.Delete(name)
}

// List returns the stored file names in no particular order. It returns nil
// once the instance is closed.
func (i *Instance) List() []string {
	paths, err := i.world.List()
	if err != nil {
		return nil
	}
	return paths
}

// Errors returns the formatted diagnostics of the latest compilation.
func (i *Instance) Errors() []string {
	return i.pipeline.Errors()
}

// SVG compiles and renders all pages. It returns "" on failure.
func (i *Instance) SVG(ctx context.Context) string {
	return i.pipeline.SVG(ctx)
}

// PDF compiles and encodes the document. It returns an empty slice on
// failure.
func (i *Instance) PDF(ctx context.Context) []byte {
	return i.pipeline.PDF(ctx)
}

// Report returns the latest compilation's diagnostics unformatted.
func (i *Instance) Report() compile.Report {
	return i.pipeline.Report()
}

// World returns the underlying world.
func (i *Instance) World() *world.Adapter {
	return i.world
}

// Pipeline returns the compilation pipeline.
func (i *Instance) Pipeline() *compile.Pipeline {
	return i.pipeline
}

// Close poisons the store. Later writes fail and compilations report the
// main file as inaccessible.
func (i *Instance) Close() {
	i.world.Close()
}
