package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/typworld/errors"
	"github.com/wippyai/typworld/internal/logging"
	"github.com/wippyai/typworld/typeset"
)

// Config holds configuration for engine creation
type Config struct {
	// ABIConstraint is the semver constraint the guest's ABI version must
	// satisfy. Empty means DefaultABIConstraint.
	ABIConstraint string

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means MaxMemoryPages (2GB); larger values are clamped to it.
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// EnableWASI instantiates wasi_snapshot_preview1 for guests built
	// against a WASI libc. Guests get no preopened directories.
	EnableWASI bool

	// EnableThreads enables the WebAssembly threads proposal (experimental).
	EnableThreads bool
}

// WazeroEngine implements typeset.Engine by running a wasm guest.
type WazeroEngine struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	version  *semver.Version
	log      *zap.Logger
}

var _ typeset.Engine = (*WazeroEngine)(nil)

// NewWazeroEngine compiles guest and checks its ABI version and exports.
// cfg may be nil.
func NewWazeroEngine(ctx context.Context, guest []byte, cfg *Config) (*WazeroEngine, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	constraintText := cfg.ABIConstraint
	if constraintText == "" {
		constraintText = DefaultABIConstraint
	}
	constraint, err := semver.NewConstraint(constraintText)
	if err != nil {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Cause(err).
			Detail("abi constraint %q", constraintText).
			Build()
	}

	runtimeCfg := wazero.NewRuntimeConfig().
		WithCustomSections(true).
		WithMemoryLimitPages(memoryLimit(cfg.MemoryLimitPages))
	if cfg.EnableThreads {
		runtimeCfg = runtimeCfg.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
	}

	log := logging.Named("engine")
	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	e := &WazeroEngine{runtime: runtime, log: log}

	if err := e.load(ctx, guest, constraint, cfg.EnableWASI); err != nil {
		_ = runtime.Close(ctx)
		return nil, err
	}

	log.Debug("engine loaded", zap.String("abi", e.version.String()))
	return e, nil
}

func memoryLimit(pages uint32) uint32 {
	if pages == 0 || pages > MaxMemoryPages {
		return MaxMemoryPages
	}
	return pages
}

func (e *WazeroEngine) load(ctx context.Context, guest []byte, constraint *semver.Constraints, wasi bool) error {
	compiled, err := e.runtime.CompileModule(ctx, guest)
	if err != nil {
		return errors.Load("compile engine module", err)
	}
	e.compiled = compiled

	version, err := abiVersion(compiled)
	if err != nil {
		return err
	}
	if !constraint.Check(version) {
		return errors.Incompatible(version.String(), constraint.String())
	}
	e.version = version

	if missing := missingExports(compiled); len(missing) > 0 {
		return errors.NewMissingExportsError(missing)
	}

	if wasi {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, e.runtime); err != nil {
			return errors.Instantiation(fmt.Errorf("instantiate WASI: %w", err))
		}
	}
	if _, err := instantiateHost(ctx, e.runtime, e.log); err != nil {
		return errors.Instantiation(fmt.Errorf("instantiate host module: %w", err))
	}
	return nil
}

func abiVersion(compiled wazero.CompiledModule) (*semver.Version, error) {
	for _, sec := range compiled.CustomSections() {
		if sec.Name() != ABISection {
			continue
		}
		v, err := semver.NewVersion(string(sec.Data()))
		if err != nil {
			return nil, errors.Load("parse "+ABISection+" section", err)
		}
		return v, nil
	}
	return nil, errors.New(errors.PhaseLoad, errors.KindIncompatible).
		Detail("engine module has no %s section", ABISection).
		Build()
}

func missingExports(compiled wazero.CompiledModule) []string {
	var missing []string
	if _, ok := compiled.ExportedMemories()[exportMemory]; !ok {
		missing = append(missing, exportMemory)
	}
	funcs := compiled.ExportedFunctions()
	for _, name := range requiredFunctions {
		if _, ok := funcs[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// ABIVersion returns the guest's declared ABI version.
func (e *WazeroEngine) ABIVersion() *semver.Version {
	return e.version
}

// Close releases the runtime and every instance still alive.
func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Compile runs the guest's compile export against w in a fresh instance.
func (e *WazeroEngine) Compile(ctx context.Context, w typeset.World) typeset.Result {
	c := &call{world: w}
	ctx = withCall(ctx, c)

	modConfig := wazero.NewModuleConfig().
		WithName(""). // anonymous for parallel instantiation
		WithStartFunctions("_initialize")
	mod, err := e.runtime.InstantiateModule(ctx, e.compiled, modConfig)
	if err != nil {
		return failure(c, typeset.Errorf(typeset.Detached(), "failed to start engine: %v", errors.Instantiation(err)))
	}

	res, err := mod.ExportedFunction(exportCompile).Call(ctx)
	if err != nil {
		_ = mod.Close(ctx)
		return failure(c, typeset.Errorf(typeset.Detached(), "engine trapped: %v", err))
	}
	if c.err != nil {
		_ = mod.Close(ctx)
		return failure(c, typeset.Errorf(typeset.Detached(), "engine host call failed: %v", c.err))
	}

	handle := api.DecodeI32(res[0])
	if handle < 0 || len(c.errors) > 0 {
		_ = mod.Close(ctx)
		if len(c.errors) == 0 {
			return failure(c, typeset.Errorf(typeset.Detached(), "engine reported failure without diagnostics"))
		}
		return typeset.Result{Errors: c.errors, Warnings: c.warnings}
	}

	res, err = mod.ExportedFunction(exportPageCount).Call(ctx, api.EncodeI32(handle))
	if err != nil {
		_ = mod.Close(ctx)
		return failure(c, typeset.Errorf(typeset.Detached(), "engine trapped: %v", err))
	}
	pages := int(api.DecodeI32(res[0]))
	if pages < 0 {
		pages = 0
	}

	doc := &guestDoc{mod: mod, handle: handle, world: w, log: e.log}
	out := &typeset.Document{
		Title:  w.Main().Rootless(),
		Handle: doc,
		Pages:  make([]typeset.Page, pages),
	}
	for i := range out.Pages {
		out.Pages[i] = typeset.Page{Content: &guestPage{doc: doc, index: i}, Number: i + 1}
	}

	e.log.Debug("guest compiled",
		zap.Int32("handle", handle),
		zap.Int("pages", pages),
		zap.Int("warnings", len(c.warnings)))
	return typeset.Result{Document: out, Warnings: c.warnings}
}

func failure(c *call, d typeset.Diagnostic) typeset.Result {
	return typeset.Result{Errors: append(c.errors, d), Warnings: c.warnings}
}

// SVG renders one page through the guest's render_svg export. It returns ""
// when the page did not come from this engine or rendering fails.
func (e *WazeroEngine) SVG(ctx context.Context, page typeset.Page) string {
	p, ok := page.Content.(*guestPage)
	if !ok {
		return ""
	}
	out, err := p.doc.invoke(ctx, exportSVG, func(context.Context, *call) ([]uint64, error) {
		return []uint64{api.EncodeI32(p.doc.handle), api.EncodeI32(int32(p.index))}, nil
	})
	if err != nil {
		e.log.Warn("svg render failed", zap.Int("page", p.index), zap.Error(err))
		return ""
	}
	return string(out)
}

// PDF encodes doc through the guest's render_pdf export.
func (e *WazeroEngine) PDF(ctx context.Context, doc *typeset.Document, opts typeset.PDFOptions) ([]byte, error) {
	d, ok := doc.Handle.(*guestDoc)
	if !ok {
		return nil, errors.InvalidInput(errors.PhaseRender, "document was not produced by this engine")
	}
	return d.invoke(ctx, exportPDF, func(ctx context.Context, c *call) ([]uint64, error) {
		ref := (&host{log: e.log}).giveJSON(ctx, c, d.mod, pdfOptionsOf(opts))
		if ref < 0 {
			if c.err == nil {
				return nil, errors.InvalidData(errors.PhaseHost, "", "pass pdf options to guest")
			}
			return nil, c.err
		}
		ptr, length := unpack(ref)
		return []uint64{api.EncodeI32(d.handle), api.EncodeU32(ptr), api.EncodeU32(length)}, nil
	})
}

// guestDoc keeps the instance that compiled a document alive for rendering.
type guestDoc struct {
	mod    api.Module
	world  typeset.World
	log    *zap.Logger
	mu     sync.Mutex
	handle int32
}

type guestPage struct {
	doc   *guestDoc
	index int
}

// invoke calls a render export with arguments built by args and returns
// what the guest emitted.
func (d *guestDoc) invoke(ctx context.Context, name string, args func(context.Context, *call) ([]uint64, error)) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mod == nil {
		return nil, errors.InvalidInput(errors.PhaseRender, "document was released")
	}
	c := &call{world: d.world}
	ctx = withCall(ctx, c)

	params, err := args(ctx, c)
	if err != nil {
		return nil, errors.Serialization(name, err)
	}
	res, err := d.mod.ExportedFunction(name).Call(ctx, params...)
	if err != nil {
		return nil, errors.Serialization(name, err)
	}
	if c.err != nil {
		return nil, errors.Serialization(name, c.err)
	}
	if status := api.DecodeI32(res[0]); status != 0 {
		return nil, errors.Serialization(name, fmt.Errorf("engine returned status %d", status))
	}
	return c.out.Bytes(), nil
}

// Close drops the document in the guest and closes its instance.
func (d *guestDoc) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mod == nil {
		return nil
	}
	ctx := context.Background()
	if _, err := d.mod.ExportedFunction(exportDrop).Call(ctx, api.EncodeI32(d.handle)); err != nil {
		d.log.Warn("drop failed", zap.Int32("handle", d.handle), zap.Error(err))
	}
	err := d.mod.Close(ctx)
	d.mod = nil
	return err
}
