package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"math"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/typworld/errors"
	"github.com/wippyai/typworld/typeset"
)

// call is the state of one guest invocation. It travels in the context so
// host functions can reach the world being compiled.
type call struct {
	world    typeset.World
	err      error
	errors   []typeset.Diagnostic
	warnings []typeset.Diagnostic
	out      bytes.Buffer
}

type callKey struct{}

func withCall(ctx context.Context, c *call) context.Context {
	return context.WithValue(ctx, callKey{}, c)
}

func callFrom(ctx context.Context) *call {
	c, _ := ctx.Value(callKey{}).(*call)
	return c
}

// fail records the first host-side failure of the call.
func (c *call) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

// instantiateHost registers the world functions as the "typworld" module.
func instantiateHost(ctx context.Context, r wazero.Runtime, log *zap.Logger) (api.Module, error) {
	h := &host{log: log}
	builder := r.NewHostModuleBuilder(HostModule)

	export := func(name string, fn api.GoModuleFunc, params, results []api.ValueType) {
		builder = builder.NewFunctionBuilder().
			WithGoModuleFunction(fn, params, results).
			Export(name)
	}

	export("main", h.main, nil, []api.ValueType{i64})
	export("source", h.source, []api.ValueType{i32, i32}, []api.ValueType{i64})
	export("file", h.file, []api.ValueType{i32, i32}, []api.ValueType{i64})
	export("library", h.library, nil, []api.ValueType{i64})
	export("book", h.book, nil, []api.ValueType{i64})
	export("font", h.font, []api.ValueType{i32}, []api.ValueType{i64})
	export("font_face", h.fontFace, []api.ValueType{i32}, []api.ValueType{i32})
	export("today", h.today, []api.ValueType{i32, i64}, []api.ValueType{i64})
	export("diagnostic", h.diagnostic, []api.ValueType{i32, i32}, nil)
	export("emit", h.emit, []api.ValueType{i32, i32}, nil)

	return builder.Instantiate(ctx)
}

type host struct {
	log *zap.Logger
}

// give copies data into a guest buffer and returns its packed reference.
func (h *host) give(ctx context.Context, c *call, mod api.Module, data []byte) int64 {
	alloc := mod.ExportedFunction(exportAlloc)
	if alloc == nil {
		c.fail(errors.NewMissingExportsError([]string{exportAlloc}))
		return StatusFailed
	}
	res, err := alloc.Call(ctx, uint64(len(data)))
	if err != nil {
		c.fail(errors.Wrap(errors.PhaseHost, errors.KindInvalidData, err, "guest alloc"))
		return StatusFailed
	}
	ptr := api.DecodeU32(res[0])
	if !mod.Memory().Write(ptr, data) {
		c.fail(errors.OutOfBounds(errors.PhaseHost, int(ptr)+len(data), int(mod.Memory().Size())))
		return StatusFailed
	}
	ref, ok := pack(ptr, uint32(len(data)))
	if !ok {
		c.fail(errors.OutOfBounds(errors.PhaseHost, int(ptr), math.MaxInt32))
	}
	return ref
}

// read copies a guest buffer.
func read(c *call, mod api.Module, ptr, length uint32) ([]byte, bool) {
	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		c.fail(errors.OutOfBounds(errors.PhaseHost, int(ptr)+int(length), int(mod.Memory().Size())))
		return nil, false
	}
	return bytes.Clone(data), true
}

func (h *host) giveJSON(ctx context.Context, c *call, mod api.Module, v any) int64 {
	data, err := json.Marshal(v)
	if err != nil {
		c.fail(errors.Wrap(errors.PhaseHost, errors.KindInvalidData, err, "encode host data"))
		return StatusFailed
	}
	return h.give(ctx, c, mod, data)
}

func (h *host) main(ctx context.Context, mod api.Module, stack []uint64) {
	c := callFrom(ctx)
	if c == nil {
		stack[0] = api.EncodeI64(StatusFailed)
		return
	}
	stack[0] = api.EncodeI64(h.give(ctx, c, mod, []byte(c.world.Main().Path())))
}

// lookup reads the path argument and answers it with fetch.
func (h *host) lookup(ctx context.Context, mod api.Module, stack []uint64, fetch func(typeset.World, typeset.FileID) ([]byte, error)) {
	c := callFrom(ctx)
	if c == nil {
		stack[0] = api.EncodeI64(StatusFailed)
		return
	}
	name, ok := read(c, mod, api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
	if !ok {
		stack[0] = api.EncodeI64(StatusFailed)
		return
	}
	id := typeset.NewFileID(string(name))
	data, err := fetch(c.world, id)
	if err != nil {
		h.log.Debug("guest lookup failed", zap.String("path", id.Path()), zap.Error(err))
		stack[0] = api.EncodeI64(statusOf(err))
		return
	}
	stack[0] = api.EncodeI64(h.give(ctx, c, mod, data))
}

func (h *host) source(ctx context.Context, mod api.Module, stack []uint64) {
	h.lookup(ctx, mod, stack, func(w typeset.World, id typeset.FileID) ([]byte, error) {
		src, err := w.Source(id)
		if err != nil {
			return nil, err
		}
		return []byte(src.Text()), nil
	})
}

func (h *host) file(ctx context.Context, mod api.Module, stack []uint64) {
	h.lookup(ctx, mod, stack, func(w typeset.World, id typeset.FileID) ([]byte, error) {
		return w.File(id)
	})
}

func (h *host) library(ctx context.Context, mod api.Module, stack []uint64) {
	c := callFrom(ctx)
	if c == nil {
		stack[0] = api.EncodeI64(StatusFailed)
		return
	}
	lib := c.world.Library()
	stack[0] = api.EncodeI64(h.giveJSON(ctx, c, mod, wireLibrary{
		Name:      lib.Name,
		Version:   lib.Version,
		Functions: lib.Functions(),
	}))
}

func (h *host) book(ctx context.Context, mod api.Module, stack []uint64) {
	c := callFrom(ctx)
	if c == nil {
		stack[0] = api.EncodeI64(StatusFailed)
		return
	}
	book := c.world.Book()
	fonts := make([]wireFont, book.Len())
	for i := range fonts {
		info, _ := book.Info(i)
		fonts[i] = fontOf(info)
	}
	stack[0] = api.EncodeI64(h.giveJSON(ctx, c, mod, fonts))
}

// face resolves a font index argument, or returns false when it is outside
// the book.
func face(c *call, arg uint64) (typeset.Font, bool) {
	i := int(api.DecodeI32(arg))
	if c == nil || i < 0 || i >= c.world.Book().Len() {
		return typeset.Font{}, false
	}
	return c.world.Font(i), true
}

func (h *host) font(ctx context.Context, mod api.Module, stack []uint64) {
	c := callFrom(ctx)
	f, ok := face(c, stack[0])
	if !ok {
		stack[0] = api.EncodeI64(StatusNotFound)
		return
	}
	stack[0] = api.EncodeI64(h.give(ctx, c, mod, f.Data))
}

func (h *host) fontFace(ctx context.Context, _ api.Module, stack []uint64) {
	f, ok := face(callFrom(ctx), stack[0])
	if !ok {
		stack[0] = api.EncodeI32(int32(StatusNotFound))
		return
	}
	stack[0] = api.EncodeI32(int32(f.Index))
}

func (h *host) today(ctx context.Context, _ api.Module, stack []uint64) {
	c := callFrom(ctx)
	if c == nil {
		stack[0] = api.EncodeI64(StatusFailed)
		return
	}
	var offset *int64
	if api.DecodeI32(stack[0]) != 0 {
		o := int64(stack[1])
		offset = &o
	}
	stack[0] = api.EncodeI64(encodeDate(c.world.Today(offset)))
}

func (h *host) diagnostic(ctx context.Context, mod api.Module, stack []uint64) {
	c := callFrom(ctx)
	if c == nil {
		return
	}
	data, ok := read(c, mod, api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
	if !ok {
		return
	}
	var w wireDiagnostic
	if err := json.Unmarshal(data, &w); err != nil {
		c.fail(errors.InvalidData(errors.PhaseHost, "", "malformed diagnostic: "+err.Error()))
		return
	}
	d := w.diagnostic()
	if d.Severity == typeset.SeverityWarning {
		c.warnings = append(c.warnings, d)
	} else {
		c.errors = append(c.errors, d)
	}
}

func (h *host) emit(ctx context.Context, mod api.Module, stack []uint64) {
	c := callFrom(ctx)
	if c == nil {
		return
	}
	data, ok := mod.Memory().Read(api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
	if !ok {
		c.fail(errors.OutOfBounds(errors.PhaseHost, int(api.DecodeU32(stack[0])), int(mod.Memory().Size())))
		return
	}
	c.out.Write(data)
}
