// Package typworld runs a typesetting engine against an in-memory world.
//
// Instead of an OS filesystem and wall clock, the engine's questions ("read
// file X", "which fonts exist", "what is today's date") are answered from
// memory. Hosts load sources and assets programmatically and ask for SVG or
// PDF output; diagnostics of the latest compilation are kept for inspection.
//
// # Architecture Overview
//
//	typworld/            Host facade: Instance with write/attach/delete/list/errors/svg/pdf
//	├── typeset/         Contract between world and engine (FileID, Source, FontBook, World, Engine)
//	├── vfs/             Mutex-guarded virtual file store
//	├── fonts/           Font catalog built from bundled and extra font files
//	├── clock/           Lazily captured clock snapshot
//	├── world/           WorldAdapter composing store, catalog, clock and library
//	├── compile/         Compilation pipeline and diagnostics sink
//	├── plain/           Small line-oriented reference engine (svgo, fpdf)
//	├── engine/          Bridge hosting a WebAssembly engine in wazero
//	├── config/          YAML project file
//	├── preview/         Live SVG preview over websockets
//	├── errors/          Structured error types
//	├── internal/        Module logger and host directory mirror
//	└── cmd/typworld/    CLI with watch, preview and interactive modes
//
// # Quick Start
//
//	inst := typworld.New()
//	defer inst.Close()
//
//	_ = inst.Write("main.typ", "= Hello\nToday is #datetime.today().")
//	svg := inst.SVG(ctx)
//	if svg == "" {
//	    for _, e := range inst.Errors() {
//	        fmt.Println(e)
//	    }
//	}
//
// # Thread Safety
//
// An Instance is safe for concurrent use. Compilations are serialized; file
// mutations made while a compilation runs are visible to the engine queries
// that happen after them.
package typworld
