// Package remap converts complex image chips into display-ready 8-bit
// values for quicklook rendering.
//
// SAR amplitude data has enormous dynamic range; a handful of bright
// scatterers would otherwise push the rest of the scene to black. The
// remaps here compress that range: Linear scales between the data extremes,
// Log compresses multiplicative speckle, and Density clips at a high
// percentile before scaling, which is the usual choice for visual review.
package remap

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrUnknownRemap reports an unrecognized remap name.
var ErrUnknownRemap = errors.New("remap: unknown remap")

// densityClip is the percentile Density clips bright returns at.
const densityClip = 0.99

// Func converts a complex chip to row-major 8-bit display values.
type Func func(data *mat.CDense) []uint8

// Lookup returns the named remap: "linear", "log" or "density".
func Lookup(name string) (Func, error) {
	switch name {
	case "linear":
		return Linear, nil
	case "log":
		return Log, nil
	case "density", "":
		return Density, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRemap, name)
	}
}

// Amplitude returns |z| for every sample, row-major.
func Amplitude(data *mat.CDense) []float64 {
	rows, cols := data.Dims()
	out := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = cmplx.Abs(data.At(i, j))
		}
	}
	return out
}

// Linear scales amplitude linearly between the data extremes.
func Linear(data *mat.CDense) []uint8 {
	amp := Amplitude(data)
	lo, hi := extremes(amp)
	return scale(amp, lo, hi)
}

// Log scales log-amplitude between the data extremes, compressing the
// multiplicative speckle that dominates SAR scenes.
func Log(data *mat.CDense) []uint8 {
	amp := Amplitude(data)
	for i, v := range amp {
		amp[i] = math.Log1p(v)
	}
	lo, hi := extremes(amp)
	return scale(amp, lo, hi)
}

// Density clips amplitude at the 99th percentile before scaling so that a
// few bright scatterers cannot darken the whole scene.
func Density(data *mat.CDense) []uint8 {
	amp := Amplitude(data)
	if len(amp) == 0 {
		return []uint8{}
	}
	sorted := append([]float64(nil), amp...)
	sort.Float64s(sorted)
	hi := stat.Quantile(densityClip, stat.Empirical, sorted, nil)
	return scale(amp, sorted[0], hi)
}

func extremes(vals []float64) (lo, hi float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func scale(vals []float64, lo, hi float64) []uint8 {
	out := make([]uint8, len(vals))
	span := hi - lo
	if span <= 0 {
		return out
	}
	for i, v := range vals {
		t := (v - lo) / span
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
		out[i] = uint8(math.Round(t * 255))
	}
	return out
}
