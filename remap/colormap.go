package remap

import (
	"errors"
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrUnknownColormap reports an unrecognized colormap name.
var ErrUnknownColormap = errors.New("remap: unknown colormap")

// Colormap maps 8-bit display values to colors by interpolating between
// fixed stops in Luv space, which keeps the perceived brightness ramp even.
type Colormap struct {
	name  string
	stops []colorful.Color
}

// LookupColormap returns the named colormap: "gray", "viridis" or "hot".
func LookupColormap(name string) (Colormap, error) {
	switch name {
	case "gray", "":
		return Gray, nil
	case "viridis":
		return Viridis, nil
	case "hot":
		return Hot, nil
	default:
		return Colormap{}, fmt.Errorf("%w: %q", ErrUnknownColormap, name)
	}
}

// Name returns the colormap's lookup name.
func (c Colormap) Name() string { return c.name }

// At returns the color for display value v.
func (c Colormap) At(v uint8) color.Color {
	t := float64(v) / 255
	n := len(c.stops)
	if n == 1 || t <= 0 {
		return c.stops[0]
	}
	if t >= 1 {
		return c.stops[n-1]
	}
	pos := t * float64(n-1)
	lower := int(pos)
	upper := lower + 1
	if upper >= n {
		upper = n - 1
	}
	return c.stops[lower].BlendLuv(c.stops[upper], pos-float64(lower)).Clamped()
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic("remap: bad colormap stop " + s)
	}
	return c
}

// Gray is the plain intensity ramp.
var Gray = Colormap{name: "gray", stops: []colorful.Color{
	mustHex("#000000"),
	mustHex("#ffffff"),
}}

// Viridis approximates the matplotlib viridis ramp.
var Viridis = Colormap{name: "viridis", stops: []colorful.Color{
	mustHex("#440154"),
	mustHex("#404387"),
	mustHex("#29788e"),
	mustHex("#22a784"),
	mustHex("#79d151"),
	mustHex("#fde724"),
}}

// Hot runs black through red and yellow to white.
var Hot = Colormap{name: "hot", stops: []colorful.Color{
	mustHex("#000000"),
	mustHex("#b20000"),
	mustHex("#ff8c00"),
	mustHex("#ffff66"),
	mustHex("#ffffff"),
}}
