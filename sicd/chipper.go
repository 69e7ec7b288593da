package sicd

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Chipper construction and read errors
var (
	ErrNegativeSize     = errors.New("sicd: data size entries must be non-negative")
	ErrNilRawReader     = errors.New("sicd: chipper requires a raw reader")
	ErrTooManySelectors = errors.New("sicd: cannot slice on more than two dimensions")
)

// RawReader is the extension point a concrete file backend supplies. It
// receives already physically-resolved spans and returns raw samples before
// complex conversion, with the band index leading. Implementations that are
// safe for concurrent reads make the owning Chipper safe for concurrent
// reads; the Chipper itself holds no mutable state.
type RawReader interface {
	ReadRaw(span0, span1 Span) (*Raw, error)
}

// Chipper extracts rectangular sub-regions of complex pixel data from an
// addressable source, applying a fixed symmetry transform and complex
// conversion policy. Chippers are immutable after construction.
type Chipper struct {
	size   Size // logical size, post-symmetry
	sym    Symmetry
	policy ComplexPolicy
	raw    RawReader
}

// NewChipper builds a chipper over raw storage of the given physical size.
// The physical size is the shape as stored; the logical size visible
// through DataSize has its axes swapped when sym.SwapAxes is set.
func NewChipper(physical Size, sym Symmetry, policy ComplexPolicy, raw RawReader) (*Chipper, error) {
	if physical.Rows < 0 || physical.Cols < 0 {
		return nil, ErrNegativeSize
	}
	if raw == nil {
		return nil, ErrNilRawReader
	}
	size := physical
	if sym.SwapAxes {
		size = Size{Rows: physical.Cols, Cols: physical.Rows}
	}
	return &Chipper{size: size, sym: sym, policy: policy, raw: raw}, nil
}

// DataSize returns the logical (rows, columns) shape visible to callers,
// after any symmetry transformation.
func (c *Chipper) DataSize() Size { return c.size }

// Symmetry returns the storage-to-logical transform.
func (c *Chipper) Symmetry() Symmetry { return c.sym }

// Read fetches the logical sub-region selected by range0 (rows) and range1
// (columns). The returned matrix always has the shape of the requested
// logical region. Out-of-bound or zero-step selections return a RangeError.
func (c *Chipper) Read(range0, range1 Selection) (*mat.CDense, error) {
	span0, span1, err := c.resolve(range0, range1)
	if err != nil {
		return nil, err
	}
	raw, err := c.raw.ReadRaw(span0, span1)
	if err != nil {
		return nil, err
	}
	data, err := c.policy.apply(raw)
	if err != nil {
		return nil, err
	}
	if c.sym.SwapAxes {
		data = transpose(data)
	}
	return data, nil
}

// ReadChip is an alias for Read.
func (c *Chipper) ReadChip(range0, range1 Selection) (*mat.CDense, error) {
	return c.Read(range0, range1)
}

// Slice reads with up to two axis selectors; missing selectors default to
// the full axis, so c.Slice() reads the whole image.
func (c *Chipper) Slice(sels ...Selection) (*mat.CDense, error) {
	if len(sels) > 2 {
		return nil, ErrTooManySelectors
	}
	var range0, range1 Selection
	if len(sels) > 0 {
		range0 = sels[0]
	}
	if len(sels) > 1 {
		range1 = sels[1]
	}
	return c.Read(range0, range1)
}

// resolve translates logical selections into physical spans. When the axes
// are swapped, the selections trade places and each resolves against the
// other logical bound, which is the matching physical bound.
func (c *Chipper) resolve(range0, range1 Selection) (Span, Span, error) {
	lim0, lim1 := c.size.Rows, c.size.Cols
	axis0, axis1 := 0, 1
	if c.sym.SwapAxes {
		range0, range1 = range1, range0
		lim0, lim1 = c.size.Cols, c.size.Rows
		axis0, axis1 = 1, 0
	}
	span0, err := Resolve(range0, lim0, c.sym.FlipRows)
	if err != nil {
		return Span{}, Span{}, onAxis(err, axis0)
	}
	span1, err := Resolve(range1, lim1, c.sym.FlipCols)
	if err != nil {
		return Span{}, Span{}, onAxis(err, axis1)
	}
	return span0, span1, nil
}

func onAxis(err error, axis int) error {
	var rerr *RangeError
	if errors.As(err, &rerr) {
		rerr.Axis = axis
	}
	return err
}

func transpose(m *mat.CDense) *mat.CDense {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return m
	}
	out := mat.NewCDense(cols, rows, nil)
	out.Copy(m.T())
	return out
}
