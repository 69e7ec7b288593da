package sicd

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// memSource serves a physical grid whose sample at storage position (r, c)
// is complex(r, c), so tests can read physical coordinates straight out of
// the returned values.
type memSource struct {
	rows, cols   int
	last0, last1 Span
}

func (m *memSource) ReadRaw(span0, span1 Span) (*Raw, error) {
	m.last0, m.last1 = span0, span1
	n0, n1 := span0.Count(), span1.Count()
	out := make([]complex128, 0, n0*n1)
	for i, r := 0, span0.Start; i < n0; i, r = i+1, r+span0.Step {
		for j, c := 0, span1.Start; j < n1; j, c = j+1, c+span1.Step {
			out = append(out, complex(float64(r), float64(c)))
		}
	}
	return &Raw{Bands: 1, Rows: n0, Cols: n1, Cplx: out}, nil
}

// pairSource serves the same grid as two real band planes, real parts first.
type pairSource struct {
	rows, cols int
}

func (p *pairSource) ReadRaw(span0, span1 Span) (*Raw, error) {
	n0, n1 := span0.Count(), span1.Count()
	re := make([]float32, 0, n0*n1)
	im := make([]float32, 0, n0*n1)
	for i, r := 0, span0.Start; i < n0; i, r = i+1, r+span0.Step {
		for j, c := 0, span1.Start; j < n1; j, c = j+1, c+span1.Step {
			re = append(re, float32(r))
			im = append(im, float32(c))
		}
	}
	return &Raw{Bands: 2, Rows: n0, Cols: n1, Real: append(re, im...)}, nil
}

func TestSymmetryIdentity(t *testing.T) {
	if !(Symmetry{}).Identity() {
		t.Error("zero symmetry is not identity")
	}
	for _, sym := range []Symmetry{
		{FlipRows: true},
		{FlipCols: true},
		{SwapAxes: true},
	} {
		if sym.Identity() {
			t.Errorf("%+v reported as identity", sym)
		}
	}
}

func TestNewChipperErrors(t *testing.T) {
	if _, err := NewChipper(Size{Rows: -1, Cols: 4}, Symmetry{}, Identity, &memSource{}); !errors.Is(err, ErrNegativeSize) {
		t.Errorf("negative rows: err = %v, want ErrNegativeSize", err)
	}
	if _, err := NewChipper(Size{Rows: 4, Cols: 4}, Symmetry{}, Identity, nil); !errors.Is(err, ErrNilRawReader) {
		t.Errorf("nil reader: err = %v, want ErrNilRawReader", err)
	}
}

func TestChipperDataSize(t *testing.T) {
	src := &memSource{rows: 6, cols: 9}
	c, err := NewChipper(Size{Rows: 6, Cols: 9}, Symmetry{}, Identity, src)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.DataSize(); got != (Size{Rows: 6, Cols: 9}) {
		t.Errorf("DataSize = %+v", got)
	}

	swapped, err := NewChipper(Size{Rows: 6, Cols: 9}, Symmetry{SwapAxes: true}, Identity, src)
	if err != nil {
		t.Fatal(err)
	}
	if got := swapped.DataSize(); got != (Size{Rows: 9, Cols: 6}) {
		t.Errorf("swapped DataSize = %+v, want axes traded", got)
	}
}

func TestChipperReadIdentity(t *testing.T) {
	src := &memSource{rows: 5, cols: 7}
	c, err := NewChipper(Size{Rows: 5, Cols: 7}, Symmetry{}, Identity, src)
	if err != nil {
		t.Fatal(err)
	}
	chip, err := c.Read(Range(1, 4), Range(2, 6))
	if err != nil {
		t.Fatal(err)
	}
	r, cl := chip.Dims()
	if r != 3 || cl != 4 {
		t.Fatalf("chip dims = (%d, %d), want (3, 4)", r, cl)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < cl; j++ {
			want := complex(float64(1+i), float64(2+j))
			if got := chip.At(i, j); got != want {
				t.Errorf("chip(%d,%d) = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestChipperFlipRows(t *testing.T) {
	// With the row axis flipped on 100 physical rows, logical rows [0, 10)
	// come from physical rows 99 down to 90.
	src := &memSource{rows: 100, cols: 50}
	c, err := NewChipper(Size{Rows: 100, Cols: 50}, Symmetry{FlipRows: true}, Identity, src)
	if err != nil {
		t.Fatal(err)
	}
	chip, err := c.Read(Range(0, 10), All())
	if err != nil {
		t.Fatal(err)
	}
	r, cl := chip.Dims()
	if r != 10 || cl != 50 {
		t.Fatalf("chip dims = (%d, %d), want (10, 50)", r, cl)
	}
	if got := (Span{Start: 99, Stop: 89, Step: -1}); src.last0 != got {
		t.Errorf("physical row span = %+v, want %+v", src.last0, got)
	}
	for i := 0; i < 10; i++ {
		want := complex(float64(99-i), 0)
		if got := chip.At(i, 0); got != want {
			t.Errorf("logical row %d reads physical row %v, want %v", i, real(got), real(want))
		}
	}
}

func TestChipperFlipCols(t *testing.T) {
	src := &memSource{rows: 4, cols: 8}
	c, err := NewChipper(Size{Rows: 4, Cols: 8}, Symmetry{FlipCols: true}, Identity, src)
	if err != nil {
		t.Fatal(err)
	}
	chip, err := c.Read(All(), At(0))
	if err != nil {
		t.Fatal(err)
	}
	// Logical column 0 is physical column 7.
	if got := chip.At(0, 0); got != complex(0, 7) {
		t.Errorf("chip(0,0) = %v, want (0+7i)", got)
	}
}

func TestChipperSwapAxes(t *testing.T) {
	// Reading the swapped view must equal the transpose of the plain view
	// with the selections traded.
	src := &memSource{rows: 6, cols: 9}
	plain, err := NewChipper(Size{Rows: 6, Cols: 9}, Symmetry{}, Identity, src)
	if err != nil {
		t.Fatal(err)
	}
	swapped, err := NewChipper(Size{Rows: 6, Cols: 9}, Symmetry{SwapAxes: true}, Identity, src)
	if err != nil {
		t.Fatal(err)
	}

	got, err := swapped.Read(Range(2, 7), Range(1, 5))
	if err != nil {
		t.Fatal(err)
	}
	want, err := plain.Read(Range(1, 5), Range(2, 7))
	if err != nil {
		t.Fatal(err)
	}
	gr, gc := got.Dims()
	wr, wc := want.Dims()
	if gr != wc || gc != wr {
		t.Fatalf("swapped dims = (%d, %d), plain dims = (%d, %d)", gr, gc, wr, wc)
	}
	for i := 0; i < gr; i++ {
		for j := 0; j < gc; j++ {
			if got.At(i, j) != want.At(j, i) {
				t.Errorf("swapped(%d,%d) = %v, plain(%d,%d) = %v", i, j, got.At(i, j), j, i, want.At(j, i))
			}
		}
	}
}

func TestChipperRangeErrorAxis(t *testing.T) {
	src := &memSource{rows: 6, cols: 9}
	c, err := NewChipper(Size{Rows: 6, Cols: 9}, Symmetry{}, Identity, src)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Read(All(), At(9))
	var rerr *RangeError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want *RangeError", err)
	}
	if rerr.Axis != 1 {
		t.Errorf("RangeError.Axis = %d, want 1", rerr.Axis)
	}

	// Under swapped axes the error still names the caller's axis.
	swapped, err := NewChipper(Size{Rows: 6, Cols: 9}, Symmetry{SwapAxes: true}, Identity, src)
	if err != nil {
		t.Fatal(err)
	}
	_, err = swapped.Read(At(9), All()) // logical rows bound is 9, At(9) is out
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want *RangeError", err)
	}
	if rerr.Axis != 0 {
		t.Errorf("swapped RangeError.Axis = %d, want 0", rerr.Axis)
	}
	if rerr.Bound != 9 {
		t.Errorf("swapped RangeError.Bound = %d, want logical bound 9", rerr.Bound)
	}
}

func TestChipperSlice(t *testing.T) {
	src := &memSource{rows: 4, cols: 4}
	c, err := NewChipper(Size{Rows: 4, Cols: 4}, Symmetry{}, Identity, src)
	if err != nil {
		t.Fatal(err)
	}
	full, err := c.Slice()
	if err != nil {
		t.Fatal(err)
	}
	if r, cl := full.Dims(); r != 4 || cl != 4 {
		t.Errorf("Slice() dims = (%d, %d), want full image", r, cl)
	}
	row, err := c.Slice(At(2))
	if err != nil {
		t.Fatal(err)
	}
	if r, cl := row.Dims(); r != 1 || cl != 4 {
		t.Errorf("Slice(At(2)) dims = (%d, %d), want (1, 4)", r, cl)
	}
	if _, err := c.Slice(All(), All(), All()); !errors.Is(err, ErrTooManySelectors) {
		t.Errorf("three selectors: err = %v, want ErrTooManySelectors", err)
	}
}

func TestChipperEmptySelection(t *testing.T) {
	src := &memSource{rows: 4, cols: 4}
	c, err := NewChipper(Size{Rows: 4, Cols: 4}, Symmetry{}, Identity, src)
	if err != nil {
		t.Fatal(err)
	}
	chip, err := c.Read(Range(2, 2), All())
	if err != nil {
		t.Fatal(err)
	}
	if r, _ := chip.Dims(); r != 0 {
		t.Errorf("empty selection rows = %d, want 0", r)
	}
}

func TestInterleavedPolicy(t *testing.T) {
	src := &pairSource{rows: 3, cols: 5}
	c, err := NewChipper(Size{Rows: 3, Cols: 5}, Symmetry{}, InterleavedRealImag, src)
	if err != nil {
		t.Fatal(err)
	}
	chip, err := c.Read(All(), All())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 5; j++ {
			want := complex(float64(i), float64(j))
			if got := chip.At(i, j); got != want {
				t.Errorf("chip(%d,%d) = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestInterleavedPassesComplexThrough(t *testing.T) {
	// A backend that already yields complex samples is served as-is even
	// under the interleaved policy.
	src := &memSource{rows: 3, cols: 3}
	c, err := NewChipper(Size{Rows: 3, Cols: 3}, Symmetry{}, InterleavedRealImag, src)
	if err != nil {
		t.Fatal(err)
	}
	chip, err := c.Read(At(1), At(2))
	if err != nil {
		t.Fatal(err)
	}
	if got := chip.At(0, 0); got != complex(1, 2) {
		t.Errorf("chip = %v, want (1+2i)", got)
	}
}

type bandSource struct {
	bands int
}

func (b *bandSource) ReadRaw(span0, span1 Span) (*Raw, error) {
	n := span0.Count() * span1.Count()
	return &Raw{
		Bands: b.bands,
		Rows:  span0.Count(),
		Cols:  span1.Count(),
		Real:  make([]float32, b.bands*n),
	}, nil
}

func TestPolicyBandErrors(t *testing.T) {
	tests := []struct {
		name   string
		bands  int
		policy ComplexPolicy
		want   error
	}{
		{"identity rejects two bands", 2, Identity, ErrBandCount},
		{"interleaved rejects odd bands", 3, InterleavedRealImag, ErrOddBands},
		{"interleaved rejects two pairs", 4, InterleavedRealImag, ErrBandCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewChipper(Size{Rows: 2, Cols: 2}, Symmetry{}, tt.policy, &bandSource{bands: tt.bands})
			if err != nil {
				t.Fatal(err)
			}
			if _, err := c.Read(All(), All()); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

// hollowSource declares a shape but carries no sample slices at all.
type hollowSource struct{}

func (hollowSource) ReadRaw(span0, span1 Span) (*Raw, error) {
	return &Raw{Bands: 1, Rows: span0.Count(), Cols: span1.Count()}, nil
}

func TestPolicyRejectsMissingSamples(t *testing.T) {
	c, err := NewChipper(Size{Rows: 2, Cols: 2}, Symmetry{}, Identity, hollowSource{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Read(All(), All()); !errors.Is(err, ErrNoSamples) {
		t.Errorf("err = %v, want ErrNoSamples", err)
	}

	// An empty region legitimately carries no samples.
	chip, err := c.Read(Range(0, 0), All())
	if err != nil {
		t.Fatalf("empty region: %v", err)
	}
	if r, _ := chip.Dims(); r != 0 {
		t.Errorf("empty region rows = %d, want 0", r)
	}
}

func TestCustomPolicy(t *testing.T) {
	// Magnitude-squared of interleaved bands stored in the real component.
	magSq := func(raw *Raw) (*mat.CDense, error) {
		n := raw.Rows * raw.Cols
		re, im := raw.Real[:n], raw.Real[n:]
		out := make([]complex128, n)
		for i := range out {
			out[i] = complex(float64(re[i]*re[i]+im[i]*im[i]), 0)
		}
		return mat.NewCDense(raw.Rows, raw.Cols, out), nil
	}
	src := &pairSource{rows: 2, cols: 2}
	c, err := NewChipper(Size{Rows: 2, Cols: 2}, Symmetry{}, Custom(magSq), src)
	if err != nil {
		t.Fatal(err)
	}
	chip, err := c.Read(All(), All())
	if err != nil {
		t.Fatal(err)
	}
	if got := chip.At(1, 1); got != complex(2, 0) {
		t.Errorf("chip(1,1) = %v, want (2+0i)", got)
	}
}
