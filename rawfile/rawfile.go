// Package rawfile reads and writes headerless flat files of complex SAR
// samples.
//
// A flat file stores pixels row-major with the real and imaginary
// components of each pixel adjacent ("band interleaved by pixel"), at a
// declared byte order and byte offset. The layout is not self-describing,
// so the caller supplies it; the package then exposes the file through the
// sicd.RawReader and sicd.RawWriter capabilities.
package rawfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mrjoshuak/go-sicd/internal/samples"
	"github.com/mrjoshuak/go-sicd/sicd"
	"github.com/mrjoshuak/go-sicd/sicdmeta"
)

// Layout and read errors
var (
	ErrLayoutSize = errors.New("rawfile: layout rows and cols must be positive")
	ErrPixelType  = errors.New("rawfile: unsupported pixel type")
	ErrTruncated  = errors.New("rawfile: file is shorter than the layout requires")
	ErrBadOffset  = errors.New("rawfile: layout data offset must be non-negative")
	ErrChipExtent = errors.New("rawfile: chip does not fit within the layout extent")
)

// Layout describes how samples are arranged in a flat file.
type Layout struct {
	// Rows and Cols give the stored (physical) extent.
	Rows, Cols int

	// PixelType is a sicdmeta pixel type identifier. RE32F_IM32F and
	// RE16I_IM16I are supported.
	PixelType string

	// Order is the component byte order. Nil defaults to big-endian, the
	// NITF convention.
	Order binary.ByteOrder

	// DataOffset is the byte position of pixel (0, 0).
	DataOffset int64
}

func (l Layout) validate() error {
	if l.Rows <= 0 || l.Cols <= 0 {
		return ErrLayoutSize
	}
	if l.DataOffset < 0 {
		return ErrBadOffset
	}
	switch l.PixelType {
	case sicdmeta.RE32FIM32F, sicdmeta.RE16IIM16I:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrPixelType, l.PixelType)
	}
}

func (l Layout) order() binary.ByteOrder {
	if l.Order == nil {
		return binary.BigEndian
	}
	return l.Order
}

func (l Layout) bytesPerPixel() int {
	return sicdmeta.BytesPerPixel(l.PixelType)
}

func (l Layout) extent() int64 {
	return l.DataOffset + int64(l.Rows)*int64(l.Cols)*int64(l.bytesPerPixel())
}

// Reader implements sicd.RawReader over a flat file using positioned reads.
// It is safe for concurrent reads.
type Reader struct {
	src    io.ReaderAt
	closer io.Closer
	layout Layout
}

// NewReader wraps an existing byte source in a Reader. The source must
// cover the layout's extent; short sources surface as read errors.
func NewReader(src io.ReaderAt, layout Layout) (*Reader, error) {
	if err := layout.validate(); err != nil {
		return nil, err
	}
	return &Reader{src: src, layout: layout}, nil
}

// OpenReader opens a flat file for reading.
func OpenReader(path string, layout Layout) (*Reader, error) {
	if err := layout.validate(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() < layout.extent() {
		f.Close()
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrTruncated, info.Size(), layout.extent())
	}
	return &Reader{src: f, closer: f, layout: layout}, nil
}

// Layout returns the layout the reader was opened with.
func (r *Reader) Layout() Layout { return r.layout }

// Close releases the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Chipper wraps the reader in a chipper carrying the given symmetry. The
// returned chipper reads through the interleaved real/imaginary policy,
// which also passes natively complex samples through untouched.
func (r *Reader) Chipper(sym sicd.Symmetry) (*sicd.Chipper, error) {
	physical := sicd.Size{Rows: r.layout.Rows, Cols: r.layout.Cols}
	return sicd.NewChipper(physical, sym, sicd.InterleavedRealImag, r)
}

// ReadRaw fetches the samples addressed by two physically-resolved spans.
// RE32F_IM32F files yield one complex band; RE16I_IM16I files yield two
// real bands (real plane, then imaginary plane).
func (r *Reader) ReadRaw(span0, span1 sicd.Span) (*sicd.Raw, error) {
	rows, cols := span0.Count(), span1.Count()
	if rows == 0 || cols == 0 {
		return emptyRaw(r.layout.PixelType, rows, cols), nil
	}

	bpp := r.layout.bytesPerPixel()
	order := r.layout.order()
	lo, hi := spanExtremes(span1)
	width := hi - lo + 1
	rowBuf := make([]byte, width*bpp)

	floatPixels := r.layout.PixelType == sicdmeta.RE32FIM32F
	var cplx, winCplx []complex128
	var re, im, winRe, winIm []float32
	if floatPixels {
		cplx = make([]complex128, rows*cols)
		winCplx = make([]complex128, width)
	} else {
		re = make([]float32, rows*cols)
		im = make([]float32, rows*cols)
		winRe = make([]float32, width)
		winIm = make([]float32, width)
	}

	rIdx := span0.Start
	for i := 0; i < rows; i++ {
		off := r.layout.DataOffset + (int64(rIdx)*int64(r.layout.Cols)+int64(lo))*int64(bpp)
		if _, err := r.src.ReadAt(rowBuf, off); err != nil {
			return nil, fmt.Errorf("rawfile: read row %d: %w", rIdx, err)
		}
		if floatPixels {
			samples.DecodeRE32F(rowBuf, order, winCplx)
		} else {
			samples.DecodeRE16I(rowBuf, order, winRe, winIm)
		}
		cIdx := span1.Start
		for j := 0; j < cols; j++ {
			k := i*cols + j
			if floatPixels {
				cplx[k] = winCplx[cIdx-lo]
			} else {
				re[k] = winRe[cIdx-lo]
				im[k] = winIm[cIdx-lo]
			}
			cIdx += span1.Step
		}
		rIdx += span0.Step
	}

	if floatPixels {
		return &sicd.Raw{Bands: 1, Rows: rows, Cols: cols, Cplx: cplx}, nil
	}
	return &sicd.Raw{Bands: 2, Rows: rows, Cols: cols, Real: append(re, im...)}, nil
}

func emptyRaw(pixelType string, rows, cols int) *sicd.Raw {
	if pixelType == sicdmeta.RE32FIM32F {
		return &sicd.Raw{Bands: 1, Rows: rows, Cols: cols, Cplx: []complex128{}}
	}
	return &sicd.Raw{Bands: 2, Rows: rows, Cols: cols, Real: []float32{}}
}

// spanExtremes returns the smallest and largest index a non-empty span
// visits.
func spanExtremes(s sicd.Span) (lo, hi int) {
	n := s.Count()
	last := s.Start + (n-1)*s.Step
	if s.Step > 0 {
		return s.Start, last
	}
	return last, s.Start
}
