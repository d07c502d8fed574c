package engine

// Hand-assembled guest modules for the bridge tests.

const (
	valI32 = 0x7f
	valI64 = 0x7e
)

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		out = append(out, b)
		if done {
			return out
		}
	}
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func vec(items ...[]byte) []byte {
	return concat(uleb(uint64(len(items))), concat(items...))
}

func name(s string) []byte {
	return concat(uleb(uint64(len(s))), []byte(s))
}

func section(id byte, body []byte) []byte {
	return concat([]byte{id}, uleb(uint64(len(body))), body)
}

func functype(params, results []byte) []byte {
	return concat([]byte{0x60}, vec(bytesOf(params)...), vec(bytesOf(results)...))
}

func bytesOf(b []byte) [][]byte {
	out := make([][]byte, len(b))
	for i := range b {
		out[i] = b[i : i+1]
	}
	return out
}

func i32Const(v int64) []byte {
	return concat([]byte{0x41}, sleb(v))
}

func body(locals []byte, code ...[]byte) []byte {
	b := concat(locals, concat(code...), []byte{0x0b})
	return concat(uleb(uint64(len(b))), b)
}

// guest data layout
const (
	svgOffset  = 16
	pdfOffset  = 64
	diagOffset = 128
	heapStart  = 1024
)

const (
	guestSVG  = "<svg>page</svg>"
	guestPDF  = "%PDF-1.7 guest"
	guestDiag = `{"message":"boom","hints":["check input"],"severity":"error","file":"main.typ","start":0,"end":4}`
)

type guestOptions struct {
	abi     string // empty omits the ABI section
	fail    bool   // compile reports a diagnostic and fails
	without map[string]bool
}

// guestModule builds an engine that reads its main source through the host
// and renders fixed output.
//
// imports:  0 main, 1 emit, 2 diagnostic, 3 source
// defined:  4 alloc, 5 compile, 6 page_count, 7 render_svg, 8 render_pdf, 9 drop
func guestModule(o guestOptions) []byte {
	mod := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	if o.abi != "" {
		mod = concat(mod, section(0, concat(name(ABISection), []byte(o.abi))))
	}

	types := section(1, vec(
		functype(nil, []byte{valI64}),                            // 0 () -> i64
		functype([]byte{valI32, valI32}, nil),                    // 1 (i32, i32)
		functype([]byte{valI32}, []byte{valI32}),                 // 2 (i32) -> i32
		functype(nil, []byte{valI32}),                            // 3 () -> i32
		functype([]byte{valI32, valI32}, []byte{valI32}),         // 4 (i32, i32) -> i32
		functype([]byte{valI32, valI32, valI32}, []byte{valI32}), // 5 (i32, i32, i32) -> i32
		functype([]byte{valI32}, nil),                            // 6 (i32)
		functype([]byte{valI32, valI32}, []byte{valI64}),         // 7 (i32, i32) -> i64
	))

	imports := section(2, vec(
		concat(name(HostModule), name("main"), []byte{0x00}, uleb(0)),
		concat(name(HostModule), name("emit"), []byte{0x00}, uleb(1)),
		concat(name(HostModule), name("diagnostic"), []byte{0x00}, uleb(1)),
		concat(name(HostModule), name("source"), []byte{0x00}, uleb(7)),
	))

	funcs := section(3, vec(uleb(2), uleb(3), uleb(2), uleb(4), uleb(5), uleb(6)))
	memory := section(5, vec([]byte{0x00, 0x01}))
	globals := section(6, vec(concat([]byte{valI32, 0x01}, i32Const(heapStart), []byte{0x0b})))

	var exports [][]byte
	add := func(n string, kind byte, idx uint64) {
		if !o.without[n] {
			exports = append(exports, concat(name(n), []byte{kind}, uleb(idx)))
		}
	}
	add("memory", 0x02, 0)
	add("alloc", 0x00, 4)
	add("compile", 0x00, 5)
	add("page_count", 0x00, 6)
	add("render_svg", 0x00, 7)
	add("render_pdf", 0x00, 8)
	add("drop", 0x00, 9)
	exportSec := section(7, vec(exports...))

	noLocals := []byte{0x00}

	alloc := body(noLocals,
		[]byte{0x23, 0x00}, // global.get 0
		[]byte{0x23, 0x00}, // global.get 0
		[]byte{0x20, 0x00}, // local.get 0
		[]byte{0x6a},       // i32.add
		[]byte{0x24, 0x00}, // global.set 0
	)

	compile := body(concat(uleb(1), uleb(1), []byte{valI64}),
		[]byte{0x10, 0x00}, // call main
		[]byte{0x22, 0x00}, // local.tee 0
		[]byte{0x42, 0x20}, // i64.const 32
		[]byte{0x88},       // i64.shr_u
		[]byte{0xa7},       // i32.wrap_i64
		[]byte{0x20, 0x00}, // local.get 0
		[]byte{0xa7},       // i32.wrap_i64
		[]byte{0x10, 0x03}, // call source
		[]byte{0x42, 0x00}, // i64.const 0
		[]byte{0x53},       // i64.lt_s
		[]byte{0x04, 0x40}, // if
		i32Const(-1),
		[]byte{0x0f}, // return
		[]byte{0x0b}, // end
		i32Const(0),
	)
	if o.fail {
		compile = body(noLocals,
			i32Const(diagOffset),
			i32Const(int64(len(guestDiag))),
			[]byte{0x10, 0x02}, // call diagnostic
			i32Const(-1),
		)
	}

	pageCount := body(noLocals, i32Const(2))
	renderSVG := body(noLocals,
		i32Const(svgOffset), i32Const(int64(len(guestSVG))),
		[]byte{0x10, 0x01}, // call emit
		i32Const(0),
	)
	renderPDF := body(noLocals,
		i32Const(pdfOffset), i32Const(int64(len(guestPDF))),
		[]byte{0x10, 0x01},
		i32Const(0),
	)
	drop := body(noLocals)

	code := section(10, vec(alloc, compile, pageCount, renderSVG, renderPDF, drop))

	segment := func(offset int64, data string) []byte {
		return concat([]byte{0x00}, i32Const(offset), []byte{0x0b}, name(data))
	}
	data := section(11, vec(
		segment(svgOffset, guestSVG),
		segment(pdfOffset, guestPDF),
		segment(diagOffset, guestDiag),
	))

	return concat(mod, types, imports, funcs, memory, globals, exportSec, code, data)
}
