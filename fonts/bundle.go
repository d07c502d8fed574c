package fonts

import (
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
)

// Bundled returns the default font files in a fixed order.
func Bundled() [][]byte {
	return [][]byte{
		goregular.TTF,
		gobold.TTF,
		goitalic.TTF,
		gobolditalic.TTF,
		gomedium.TTF,
		gomediumitalic.TTF,
		gomono.TTF,
		gomonobold.TTF,
		gomonoitalic.TTF,
		gomonobolditalic.TTF,
		gosmallcaps.TTF,
		gosmallcapsitalic.TTF,
	}
}
