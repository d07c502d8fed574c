// Package engine hosts a typesetting engine compiled to WebAssembly.
//
// The guest is a core wasm module. It declares the host interface version it
// was built against in a custom section named "typworld-abi" holding a
// semantic version, and exports:
//
//	memory                                      linear memory
//	alloc(size i32) i32                         buffer for host-provided data
//	compile() i32                               document handle, negative on failure
//	page_count(doc i32) i32
//	render_svg(doc i32, page i32) i32           0 on success, output via emit
//	render_pdf(doc i32, opts i32, len i32) i32  0 on success, output via emit
//	drop(doc i32)
//
// The world is exposed as the host module "typworld":
//
//	main() i64                   main file path
//	source(path i32, len i32) i64
//	file(path i32, len i32) i64
//	library() i64                JSON {"name","version","functions"}
//	book() i64                   JSON array of face metadata
//	font(index i32) i64          font file bytes
//	font_face(index i32) i32     face index inside the font file
//	today(has i32, offset i64) i64
//	diagnostic(ptr i32, len i32) JSON diagnostic
//	emit(ptr i32, len i32)       append to the current output
//
// Functions returning i64 hand data to the guest in a buffer obtained from
// its alloc export, packed as ptr<<32 | len. Negative results are statuses:
//
//	-1  not found
//	-2  not a source file
//	-3  access denied
//	-4  any other failure
//
// today packs year<<16 | month<<8 | day.
//
// Every Compile runs in a fresh anonymous instance of the guest. The
// instance lives until the document's handle is closed, so pages can be
// rendered after compilation.
package engine
