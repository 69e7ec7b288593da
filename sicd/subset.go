package sicd

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Subset construction errors
var (
	ErrNilParent    = errors.New("sicd: subset requires a parent chipper")
	ErrSubsetBounds = errors.New("sicd: subset bounds must satisfy 0 <= lower <= upper <= parent size")
)

// Bounds is a half-open [Lower, Upper) interval along one axis.
type Bounds struct {
	Lower, Upper int
}

func (b Bounds) width() int { return b.Upper - b.Lower }

func (b Bounds) within(limit int) bool {
	return 0 <= b.Lower && b.Lower <= b.Upper && b.Upper <= limit
}

// NewSubsetChipper carves a rectangular sub-region out of a parent chipper
// without materializing the parent's full extent. The bounds are expressed
// in the parent's logical coordinate space. The result is an ordinary
// Chipper with identity symmetry and pass-through conversion, since the
// parent already performs those transforms; it holds a non-owning reference
// to the parent, which must outlive it.
func NewSubsetChipper(parent *Chipper, bounds0, bounds1 Bounds) (*Chipper, error) {
	if parent == nil {
		return nil, ErrNilParent
	}
	size := parent.DataSize()
	if !bounds0.within(size.Rows) || !bounds1.within(size.Cols) {
		return nil, fmt.Errorf("%w: got [%d, %d), [%d, %d) against %dx%d",
			ErrSubsetBounds, bounds0.Lower, bounds0.Upper, bounds1.Lower, bounds1.Upper,
			size.Rows, size.Cols)
	}
	src := &subsetSource{
		parent: parent,
		shift0: bounds0.Lower,
		shift1: bounds1.Lower,
	}
	return NewChipper(Size{Rows: bounds0.width(), Cols: bounds1.width()}, Symmetry{}, Identity, src)
}

// subsetSource forwards resolved spans to the parent chipper's public Read,
// shifted into the parent's address space. Going through Read rather than
// the parent's raw reader keeps the parent's own symmetry handling in
// effect exactly once.
type subsetSource struct {
	parent         *Chipper // non-owning; the parent must outlive the subset
	shift0, shift1 int
}

func (s *subsetSource) ReadRaw(span0, span1 Span) (*Raw, error) {
	sel0, mirror0 := shiftSpan(span0, s.shift0)
	sel1, mirror1 := shiftSpan(span1, s.shift1)
	data, err := s.parent.Read(sel0, sel1)
	if err != nil {
		return nil, err
	}
	if mirror0 || mirror1 {
		data = mirror(data, mirror0, mirror1)
	}
	rows, cols := data.Dims()
	out := make([]complex128, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = data.At(i, j)
		}
	}
	return &Raw{Bands: 1, Rows: rows, Cols: cols, Cplx: out}, nil
}

// shiftSpan translates a span resolved against the subset's own bounds into
// a parent selection. Descending spans are fetched ascending and mirrored
// by the caller, since a shifted exclusive stop below zero would read as a
// from-the-end offset in the parent.
func shiftSpan(sp Span, shift int) (Selection, bool) {
	n := sp.Count()
	if sp.Step >= 0 {
		return Stride(sp.Start+shift, sp.Stop+shift, sp.Step), false
	}
	if n == 0 {
		return Stride(shift, shift, 1), false
	}
	low := sp.Start + (n-1)*sp.Step
	return Stride(low+shift, sp.Start+1+shift, -sp.Step), true
}

func mirror(m *mat.CDense, rows, cols bool) *mat.CDense {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return m
	}
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		si := i
		if rows {
			si = r - 1 - i
		}
		for j := 0; j < c; j++ {
			sj := j
			if cols {
				sj = c - 1 - j
			}
			out.Set(i, j, m.At(si, sj))
		}
	}
	return out
}
