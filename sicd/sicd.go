// Package sicd provides random-access reading and writing of complex-valued
// SAR raster data.
//
// Files that store complex imagery rarely match the orientation an analyst
// expects: the byte order, band interleaving, and row/column orientation are
// all file-specific. This package presents a logical (rows, columns, complex
// samples) view over such data. A Chipper translates logical sub-region
// requests into physical storage addresses under a declared symmetry
// transform and converts raw samples to complex values; a Reader aggregates
// one or more (metadata, chipper) pairs behind uniform indexed access; a
// Writer validates metadata sufficiency and places complex chips at logical
// offsets through a format-specific backend.
//
// Concrete file backends implement the RawReader and RawWriter interfaces.
// See the rawfile and blockfile packages for flat and block-compressed
// implementations.
package sicd

// Version identifies this library in provenance records.
const Version = "1.0.0"

// Size is an ordered (rows, columns) pair.
type Size struct {
	Rows, Cols int
}

// Symmetry describes the transform between raw storage order and logical
// analysis order. The flips apply to the raw axes before the swap.
type Symmetry struct {
	// FlipRows indicates storage axis 0 is reversed relative to logical order.
	FlipRows bool

	// FlipCols indicates storage axis 1 is reversed relative to logical order.
	FlipCols bool

	// SwapAxes indicates the two axes are transposed between physical and
	// logical order, applied after the flips are resolved.
	SwapAxes bool
}

// Identity reports whether the symmetry leaves data untouched.
func (s Symmetry) Identity() bool {
	return !s.FlipRows && !s.FlipCols && !s.SwapAxes
}
