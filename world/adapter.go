package world

import (
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/typworld/clock"
	"github.com/wippyai/typworld/errors"
	"github.com/wippyai/typworld/fonts"
	"github.com/wippyai/typworld/internal/logging"
	"github.com/wippyai/typworld/typeset"
	"github.com/wippyai/typworld/vfs"
)

const (
	// DefaultMain is the main file name used when none is configured.
	DefaultMain = "main.typ"
	// Placeholder is the body of the main file right after construction.
	Placeholder = "typworld is ready"
)

// Adapter is the in-memory world. It is safe for concurrent use.
type Adapter struct {
	store   *vfs.Store
	catalog *fonts.Catalog
	clock   *clock.Provider
	library *typeset.Library
	main    typeset.FileID
}

var _ typeset.World = (*Adapter)(nil)

type options struct {
	catalog     *fonts.Catalog
	clock       *clock.Provider
	library     *typeset.Library
	main        string
	placeholder string
	extraFonts  [][]byte
}

// Option configures an Adapter.
type Option func(*options)

// WithMain sets the main file name.
func WithMain(name string) Option {
	return func(o *options) { o.main = name }
}

// WithPlaceholder sets the initial body of the main file.
func WithPlaceholder(text string) Option {
	return func(o *options) { o.placeholder = text }
}

// WithFonts adds font files after the bundled set. Every face of a
// collection file is listed in the book, but the plain engine embeds only
// single-face files in pdf output; it never selects collection faces.
func WithFonts(blobs ...[]byte) Option {
	return func(o *options) { o.extraFonts = append(o.extraFonts, blobs...) }
}

// WithCatalog replaces the font catalog entirely. Extra fonts are ignored.
func WithCatalog(c *fonts.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithClock sets the clock provider.
func WithClock(p *clock.Provider) Option {
	return func(o *options) { o.clock = p }
}

// WithLibrary sets the capability library.
func WithLibrary(lib *typeset.Library) Option {
	return func(o *options) { o.library = lib }
}

// New creates an adapter whose store holds only the main file with its
// placeholder body.
func New(opts ...Option) *Adapter {
	o := options{main: DefaultMain, placeholder: Placeholder}
	for _, opt := range opts {
		opt(&o)
	}

	if o.catalog == nil {
		o.catalog = fonts.Default(o.extraFonts...)
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	if o.library == nil {
		o.library = typeset.DefaultLibrary()
	}

	a := &Adapter{
		store:   vfs.NewStore(),
		catalog: o.catalog,
		clock:   o.clock,
		library: o.library,
		main:    typeset.NewFileID(o.main),
	}
	// A fresh store cannot be poisoned.
	_ = a.store.InsertText(o.main, o.placeholder)

	logging.Named("world").Debug("world created",
		zap.String("main", a.main.Path()),
		zap.Int("fonts", a.catalog.Len()))
	return a
}

// Library returns the capability library.
func (a *Adapter) Library() *typeset.Library {
	return a.library
}

// Book returns the font metadata index.
func (a *Adapter) Book() *typeset.FontBook {
	return a.catalog.Book()
}

// Main returns the main file id.
func (a *Adapter) Main() typeset.FileID {
	return a.main
}

// Source returns the source text stored for id.
func (a *Adapter) Source(id typeset.FileID) (typeset.Source, error) {
	src, err := a.store.Source(id)
	return src, lift(err)
}

// File returns the raw bytes stored for id. Text entries are returned as
// UTF-8.
func (a *Adapter) File(id typeset.FileID) ([]byte, error) {
	data, err := a.store.Bytes(id)
	return data, lift(err)
}

// Font returns face index. It panics when index is out of range.
func (a *Adapter) Font(index int) typeset.Font {
	return a.catalog.Font(index)
}

// Today returns the snapshot date, shifted to UTC+offset hours when offset
// is non-nil.
func (a *Adapter) Today(offset *int64) (typeset.Date, bool) {
	return a.clock.Today(offset)
}

// Now returns the clock snapshot.
func (a *Adapter) Now() time.Time {
	return a.clock.Now()
}

// Write stores text under name, replacing any previous entry.
func (a *Adapter) Write(name, text string) error {
	return a.store.InsertText(name, text)
}

// Attach stores a copy of data under name, replacing any previous entry.
func (a *Adapter) Attach(name string, data []byte) error {
	return a.store.InsertBinary(name, data)
}

// Delete removes name. Deleting an unknown name is a no-op. The main file
// may be deleted; compiling afterwards reports it as missing.
func (a *Adapter) Delete(name string) error {
	return a.store.Remove(name)
}

// List returns the stored paths without leading slash, unordered.
func (a *Adapter) List() ([]string, error) {
	return a.store.Paths()
}

// Stat describes the entry stored under name.
func (a *Adapter) Stat(name string) (vfs.Info, error) {
	info, err := a.store.Stat(typeset.NewFileID(name))
	return info, lift(err)
}

// Store returns the underlying file store.
func (a *Adapter) Store() *vfs.Store {
	return a.store
}

// Catalog returns the font catalog.
func (a *Adapter) Catalog() *fonts.Catalog {
	return a.catalog
}

// Close poisons the store. Later queries fail with KindAccessDenied.
func (a *Adapter) Close() {
	a.store.Close()
}

// lift re-tags store errors as world errors keeping kind and path.
func lift(err error) error {
	if err == nil {
		return nil
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return err
	}
	return errors.New(errors.PhaseWorld, e.Kind).Path(e.Path).Detail("%s", e.Detail).Build()
}
