package fonts

import (
	"strings"

	"github.com/wippyai/typworld/typeset"
)

var weightNames = []struct {
	name   string
	weight int
}{
	// longest first so "extrabold" wins over "bold"
	{"extralight", typeset.WeightExtraLight},
	{"ultralight", typeset.WeightExtraLight},
	{"extrabold", typeset.WeightExtraBold},
	{"ultrabold", typeset.WeightExtraBold},
	{"semibold", typeset.WeightSemiBold},
	{"demibold", typeset.WeightSemiBold},
	{"medium", typeset.WeightMedium},
	{"black", typeset.WeightBlack},
	{"heavy", typeset.WeightBlack},
	{"light", typeset.WeightLight},
	{"thin", typeset.WeightThin},
	{"bold", typeset.WeightBold},
}

var stretchNames = []struct {
	name    string
	stretch float64
}{
	{"ultracondensed", 0.5},
	{"extracondensed", 0.625},
	{"semicondensed", 0.875},
	{"condensed", 0.75},
	{"ultraexpanded", 2},
	{"extraexpanded", 1.5},
	{"semiexpanded", 1.125},
	{"expanded", 1.25},
}

// parseVariant derives a variant from a subfamily name such as
// "Semi Bold Italic".
func parseVariant(subfamily string) typeset.FontVariant {
	s := strings.ToLower(subfamily)
	s = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)

	v := typeset.NormalVariant
	switch {
	case strings.Contains(s, "italic"):
		v.Style = typeset.StyleItalic
	case strings.Contains(s, "oblique"):
		v.Style = typeset.StyleOblique
	}
	for _, w := range weightNames {
		if strings.Contains(s, w.name) {
			v.Weight = w.weight
			break
		}
	}
	for _, st := range stretchNames {
		if strings.Contains(s, st.name) {
			v.Stretch = st.stretch
			break
		}
	}
	return v
}
