package sicd

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Complex conversion errors
var (
	ErrRawShape  = errors.New("sicd: raw sample buffer does not match its declared shape")
	ErrBandCount = errors.New("sicd: cannot collapse multi-band data to a single complex image")
	ErrOddBands  = errors.New("sicd: interleaved real/imaginary data requires an even band count")
	ErrNoSamples = errors.New("sicd: raw data carries neither complex nor real samples")
)

// Raw holds samples as fetched from storage, with the band index leading
// ("band sequential"), regardless of how the data is interleaved on disk.
// Exactly one of Cplx and Real is populated, except for empty regions.
type Raw struct {
	Bands, Rows, Cols int

	// Cplx is set when the backend yields complex samples directly.
	Cplx []complex128

	// Real is set otherwise: Bands planes of Rows*Cols samples each.
	Real []float32
}

func (r *Raw) check() error {
	n := r.Bands * r.Rows * r.Cols
	if r.Cplx == nil && r.Real == nil && n > 0 {
		return ErrNoSamples
	}
	if r.Cplx != nil {
		if len(r.Cplx) != n {
			return ErrRawShape
		}
		return nil
	}
	if len(r.Real) != n {
		return ErrRawShape
	}
	return nil
}

// Transform converts raw band-sequential samples into a complex chip.
type Transform func(*Raw) (*mat.CDense, error)

// ComplexPolicy fixes how raw samples are reconstructed into complex
// samples. It is one of Identity, InterleavedRealImag, or Custom. The
// policy is applied uniformly to every read.
type ComplexPolicy struct {
	kind policyKind
	fn   Transform
}

type policyKind uint8

const (
	policyIdentity policyKind = iota
	policyInterleaved
	policyCustom
)

// Identity passes samples through unchanged: the storage already holds one
// complex band (or one real band, which becomes complex with zero
// imaginary parts).
var Identity = ComplexPolicy{kind: policyIdentity}

// InterleavedRealImag combines adjacent raw real bands into complex bands:
// band 2k holds real components and band 2k+1 the matching imaginary
// components. Backends that already yield complex samples pass through
// unchanged.
var InterleavedRealImag = ComplexPolicy{kind: policyInterleaved}

// Custom wraps a caller-supplied raw-to-complex transform.
func Custom(fn Transform) ComplexPolicy {
	return ComplexPolicy{kind: policyCustom, fn: fn}
}

// apply converts raw samples to a single complex band. Multi-band results
// are rejected: this codec models one complex sample per pixel.
func (p ComplexPolicy) apply(raw *Raw) (*mat.CDense, error) {
	if err := raw.check(); err != nil {
		return nil, err
	}
	if p.kind == policyCustom {
		return p.fn(raw)
	}
	// Complex-typed raw data needs no reconstruction under either
	// remaining policy.
	if raw.Cplx != nil {
		if raw.Bands != 1 {
			return nil, fmt.Errorf("%w: got %d complex bands", ErrBandCount, raw.Bands)
		}
		return newCDense(raw.Rows, raw.Cols, raw.Cplx), nil
	}
	switch p.kind {
	case policyInterleaved:
		if raw.Bands%2 != 0 {
			return nil, fmt.Errorf("%w: got %d bands", ErrOddBands, raw.Bands)
		}
		if raw.Bands != 2 {
			return nil, fmt.Errorf("%w: got %d band pairs", ErrBandCount, raw.Bands/2)
		}
		n := raw.Rows * raw.Cols
		out := make([]complex128, n)
		re, im := raw.Real[:n], raw.Real[n:]
		for i := range out {
			out[i] = complex(float64(re[i]), float64(im[i]))
		}
		return newCDense(raw.Rows, raw.Cols, out), nil
	default: // policyIdentity
		if raw.Bands != 1 {
			return nil, fmt.Errorf("%w: got %d real bands", ErrBandCount, raw.Bands)
		}
		out := make([]complex128, len(raw.Real))
		for i, v := range raw.Real {
			out[i] = complex(float64(v), 0)
		}
		return newCDense(raw.Rows, raw.Cols, out), nil
	}
}

// newCDense builds a dense matrix over row-major data, tolerating empty
// regions, which gonum rejects as dimensions.
func newCDense(rows, cols int, data []complex128) *mat.CDense {
	if rows == 0 || cols == 0 {
		return &mat.CDense{}
	}
	return mat.NewCDense(rows, cols, data)
}
