// Package world implements the environment a typesetting engine compiles
// against.
//
// An Adapter composes a virtual file store, a font catalog, a clock
// snapshot, a capability library and a fixed main file id. Engines see it
// through the typeset.World interface; hosts mutate it with Write, Attach
// and Delete between compilations.
//
//	w := world.New(world.WithMain("report.typ"))
//	_ = w.Write("report.typ", "= Quarterly report")
//	_ = w.Attach("logo.png", png)
package world
