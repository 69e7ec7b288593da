package blockfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"

	"github.com/mrjoshuak/go-sicd/internal/samples"
	"github.com/mrjoshuak/go-sicd/sicd"
	"github.com/mrjoshuak/go-sicd/sicdmeta"
)

// Writer errors
var (
	ErrNoExtent   = errors.New("blockfile: writer metadata must populate NumRows and NumCols")
	ErrChipExtent = errors.New("blockfile: chip does not fit within the image extent")
	ErrClosed     = errors.New("blockfile: writer is closed")
)

// Writer implements sicd.RawWriter for the block container. Chips are
// staged into row blocks in memory and the container is assembled on
// Close, so chips may arrive at arbitrary offsets and in any order. Rows
// never touched by a chip are written as zero samples.
type Writer struct {
	path      string
	meta      *sicdmeta.Meta
	rows      int
	cols      int
	blockRows int
	staged    map[int][]complex128
	enc       *zstd.Encoder
	closed    bool
	err       error
}

// NewWriter prepares a block container writer targeting path. The image
// extent comes from the metadata, which also travels in the file.
// blockRows <= 0 selects DefaultBlockRows.
func NewWriter(path string, meta *sicdmeta.Meta, blockRows int) (*Writer, error) {
	if meta == nil || meta.ImageData == nil ||
		meta.ImageData.NumRows <= 0 || meta.ImageData.NumCols <= 0 {
		return nil, ErrNoExtent
	}
	if blockRows <= 0 {
		blockRows = DefaultBlockRows
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	return &Writer{
		path:      path,
		meta:      meta,
		rows:      meta.ImageData.NumRows,
		cols:      meta.ImageData.NumCols,
		blockRows: blockRows,
		staged:    map[int][]complex128{},
		enc:       enc,
	}, nil
}

// WriteChip stages data so that its first element lands at logical offset
// (startRow, startCol). The chip must fit within the image extent.
func (w *Writer) WriteChip(data *mat.CDense, startRow, startCol int) error {
	if w.closed {
		return ErrClosed
	}
	rows, cols := data.Dims()
	if rows == 0 || cols == 0 {
		return nil
	}
	if startRow < 0 || startCol < 0 || startRow+rows > w.rows || startCol+cols > w.cols {
		return fmt.Errorf("%w: %dx%d at (%d, %d) against %dx%d",
			ErrChipExtent, rows, cols, startRow, startCol, w.rows, w.cols)
	}
	for i := 0; i < rows; i++ {
		r := startRow + i
		block := w.blockFor(r / w.blockRows)
		rowVals := block[(r%w.blockRows)*w.cols:]
		for j := 0; j < cols; j++ {
			rowVals[startCol+j] = data.At(i, j)
		}
	}
	return nil
}

func (w *Writer) blockFor(i int) []complex128 {
	if block, ok := w.staged[i]; ok {
		return block
	}
	block := make([]complex128, w.blockRowCount(i)*w.cols)
	w.staged[i] = block
	return block
}

// blockRowCount returns the number of rows stored in block i, which may be
// short for the last block.
func (w *Writer) blockRowCount(i int) int {
	if (i+1)*w.blockRows > w.rows {
		return w.rows - i*w.blockRows
	}
	return w.blockRows
}

// Close compresses the staged blocks and writes the container. It is
// idempotent: later calls return the first outcome.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	w.err = w.assemble()
	w.enc.Close()
	return w.err
}

func (w *Writer) assemble() error {
	metaXML, err := sicdmeta.Marshal(w.meta)
	if err != nil {
		return fmt.Errorf("blockfile: metadata: %w", err)
	}

	nBlocks := (w.rows + w.blockRows - 1) / w.blockRows
	comp := make([][]byte, nBlocks)
	rawLens := make([]int, nBlocks)
	for i := 0; i < nBlocks; i++ {
		block, ok := w.staged[i]
		if !ok {
			block = make([]complex128, w.blockRowCount(i)*w.cols)
		}
		raw := samples.EncodeRE32F(block, binary.LittleEndian, nil)
		rawLens[i] = len(raw)
		comp[i] = w.enc.EncodeAll(raw, nil)
	}

	f, err := os.Create(w.path)
	if err != nil {
		return err
	}
	defer f.Close()
	buf := bufio.NewWriter(f)

	buf.Write(magic[:])
	var fixed [20]byte
	binary.LittleEndian.PutUint32(fixed[0:], uint32(w.rows))
	binary.LittleEndian.PutUint32(fixed[4:], uint32(w.cols))
	binary.LittleEndian.PutUint32(fixed[8:], uint32(w.blockRows))
	binary.LittleEndian.PutUint32(fixed[12:], uint32(len(metaXML)))
	binary.LittleEndian.PutUint32(fixed[16:], uint32(nBlocks))
	buf.Write(fixed[:])
	buf.Write(metaXML)

	offset := int64(len(magic) + len(fixed) + len(metaXML) + nBlocks*16)
	entry := make([]byte, 16)
	for i := 0; i < nBlocks; i++ {
		binary.LittleEndian.PutUint64(entry[0:], uint64(offset))
		binary.LittleEndian.PutUint32(entry[8:], uint32(len(comp[i])))
		binary.LittleEndian.PutUint32(entry[12:], uint32(rawLens[i]))
		buf.Write(entry)
		offset += int64(len(comp[i]))
	}
	for i := 0; i < nBlocks; i++ {
		buf.Write(comp[i])
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// Create validates meta and wraps a block container backend in a managed
// sicd.Writer targeting path.
func Create(path string, meta *sicdmeta.Meta) (*sicd.Writer, error) {
	validated, err := sicd.ValidateForWriting(meta)
	if err != nil {
		return nil, err
	}
	backend, err := NewWriter(path, validated, 0)
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
