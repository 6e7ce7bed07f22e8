// Package colorspace converts small PDF colour arrays into a
// normalized RGB triple, the one colour operation the cross-reference/
// catalog layer needs (outline item colours).
package colorspace

// RGB holds a colour's red, green and blue components, each clamped to
// [0, 1].
type RGB struct {
	R, G, B float64
}

// Black is the default colour for an outline item with no /C entry.
var Black = RGB{}

// FromComponents builds an RGB from a PDF /C array's three numbers,
// clamping each to [0, 1] the way ColorSpace.singletons.rgb.getRgb
// does for out-of-range input.
func FromComponents(c [3]float64) RGB {
	return RGB{clamp(c[0]), clamp(c[1]), clamp(c[2])}
}

// IsDefault reports whether rgb is indistinguishable from Black, the
// default outline colour.
func (rgb RGB) IsDefault() bool {
	return rgb.R == 0 && rgb.G == 0 && rgb.B == 0
}

func clamp(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
