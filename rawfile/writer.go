package rawfile

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/mrjoshuak/go-sicd/internal/samples"
	"github.com/mrjoshuak/go-sicd/sicd"
	"github.com/mrjoshuak/go-sicd/sicdmeta"
)

// Writer implements sicd.RawWriter, encoding complex chips into a flat
// file at logical offsets. It is single-owner: concurrent use requires
// external synchronization.
type Writer struct {
	f      *os.File
	layout Layout
}

// NewWriter opens or creates a flat file for writing under the given
// layout. Existing bytes at untouched positions are preserved, so chips
// may be placed in any order.
func NewWriter(path string, layout Layout) (*Writer, error) {
	if err := layout.validate(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return &Writer{f: f, layout: layout}, nil
}

// Layout returns the layout the writer was opened with.
func (w *Writer) Layout() Layout { return w.layout }

// WriteChip writes data so that its first element lands at logical offset
// (startRow, startCol). The chip must fit within the layout extent.
func (w *Writer) WriteChip(data *mat.CDense, startRow, startCol int) error {
	rows, cols := data.Dims()
	if rows == 0 || cols == 0 {
		return nil
	}
	if startRow < 0 || startCol < 0 ||
		startRow+rows > w.layout.Rows || startCol+cols > w.layout.Cols {
		return fmt.Errorf("%w: %dx%d at (%d, %d) against %dx%d",
			ErrChipExtent, rows, cols, startRow, startCol, w.layout.Rows, w.layout.Cols)
	}

	bpp := w.layout.bytesPerPixel()
	order := w.layout.order()
	rowVals := make([]complex128, cols)
	rowBuf := make([]byte, cols*bpp)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			rowVals[j] = data.At(i, j)
		}
		if w.layout.PixelType == sicdmeta.RE32FIM32F {
			samples.EncodeRE32F(rowVals, order, rowBuf)
		} else {
			samples.EncodeRE16I(rowVals, order, rowBuf)
		}
		off := w.layout.DataOffset +
			(int64(startRow+i)*int64(w.layout.Cols)+int64(startCol))*int64(bpp)
		if _, err := w.f.WriteAt(rowBuf, off); err != nil {
			return fmt.Errorf("rawfile: write row %d: %w", startRow+i, err)
		}
	}
	return nil
}

// Close flushes and releases the file. It is safe to call multiple times.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	f := w.f
	w.f = nil
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// CreateWriter validates meta, derives the flat layout from it, and wraps
// the backend in a managed sicd.Writer targeting path.
func CreateWriter(path string, meta *sicdmeta.Meta) (*sicd.Writer, error) {
	validated, err := sicd.ValidateForWriting(meta)
	if err != nil {
		return nil, err
	}
	layout := Layout{
		Rows:      validated.ImageData.NumRows,
		Cols:      validated.ImageData.NumCols,
		PixelType: validated.ImageData.PixelType,
	}
	backend, err := NewWriter(path, layout)
	if err != nil {
		return nil, err
	}
	w, err := sicd.NewWriter(path, validated, backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return w, nil
}
