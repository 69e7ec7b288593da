// Package blockfile reads and writes a block-compressed container for
// complex SAR rasters.
//
// The container stores the image as fixed-height row blocks, each
// compressed independently with zstd, behind an offset table, so any
// sub-region can be decoded without touching the rest of the file. The
// image metadata travels in the file as an XML segment.
//
// File layout, little-endian:
//
//	magic    8 bytes  "SARBLK1\n"
//	rows     uint32
//	cols     uint32
//	blockRows uint32  rows per block
//	metaLen  uint32   followed by metaLen bytes of XML metadata
//	nBlocks  uint32
//	index    nBlocks * {offset uint64, compLen uint32, rawLen uint32}
//	blocks   zstd frames of RE32F_IM32F rows
package blockfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/mrjoshuak/go-sicd/internal/samples"
	"github.com/mrjoshuak/go-sicd/sicd"
	"github.com/mrjoshuak/go-sicd/sicdmeta"
)

// Container format errors
var (
	ErrMagic     = errors.New("blockfile: not a block container (bad magic)")
	ErrCorrupted = errors.New("blockfile: corrupted container")
	ErrBlockSize = errors.New("blockfile: decoded block has the wrong size")
)

var magic = [8]byte{'S', 'A', 'R', 'B', 'L', 'K', '1', '\n'}

// DefaultBlockRows is the block height used when a writer does not choose
// one.
const DefaultBlockRows = 64

// cacheBlocks bounds the decoded blocks kept hot per reader.
const cacheBlocks = 16

type blockRef struct {
	offset  int64
	compLen int
	rawLen  int
}

// Reader implements sicd.RawReader over a block container. Decoded blocks
// are kept in a small LRU cache. It is safe for concurrent reads.
type Reader struct {
	f         *os.File
	meta      *sicdmeta.Meta
	rows      int
	cols      int
	blockRows int
	index     []blockRef
	dec       *zstd.Decoder
	cache     *lru.Cache[int, []complex128]
}

// Open opens a block container and parses its header and offset table.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := newReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func newReader(f *os.File) (*Reader, error) {
	var mg [8]byte
	if _, err := io.ReadFull(f, mg[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMagic, err)
	}
	if mg != magic {
		return nil, ErrMagic
	}

	var fixed [20]byte
	if _, err := io.ReadFull(f, fixed[:]); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrCorrupted, err)
	}
	rows := int(binary.LittleEndian.Uint32(fixed[0:]))
	cols := int(binary.LittleEndian.Uint32(fixed[4:]))
	blockRows := int(binary.LittleEndian.Uint32(fixed[8:]))
	metaLen := int(binary.LittleEndian.Uint32(fixed[12:]))
	nBlocks := int(binary.LittleEndian.Uint32(fixed[16:]))

	if rows <= 0 || cols <= 0 || blockRows <= 0 {
		return nil, fmt.Errorf("%w: non-positive extent", ErrCorrupted)
	}
	if want := (rows + blockRows - 1) / blockRows; nBlocks != want {
		return nil, fmt.Errorf("%w: %d blocks indexed, extent needs %d", ErrCorrupted, nBlocks, want)
	}

	metaXML := make([]byte, metaLen)
	if _, err := io.ReadFull(f, metaXML); err != nil {
		return nil, fmt.Errorf("%w: short metadata: %v", ErrCorrupted, err)
	}
	var meta *sicdmeta.Meta
	if metaLen > 0 {
		m, err := sicdmeta.Unmarshal(metaXML)
		if err != nil {
			return nil, fmt.Errorf("%w: metadata: %v", ErrCorrupted, err)
		}
		meta = m
	}

	index := make([]blockRef, nBlocks)
	entry := make([]byte, 16)
	for i := range index {
		if _, err := io.ReadFull(f, entry); err != nil {
			return nil, fmt.Errorf("%w: short index: %v", ErrCorrupted, err)
		}
		index[i] = blockRef{
			offset:  int64(binary.LittleEndian.Uint64(entry[0:])),
			compLen: int(binary.LittleEndian.Uint32(entry[8:])),
			rawLen:  int(binary.LittleEndian.Uint32(entry[12:])),
		}
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[int, []complex128](cacheBlocks)
	if err != nil {
		dec.Close()
		return nil, err
	}
	return &Reader{
		f:         f,
		meta:      meta,
		rows:      rows,
		cols:      cols,
		blockRows: blockRows,
		index:     index,
		dec:       dec,
		cache:     cache,
	}, nil
}

// Meta returns the metadata embedded in the container, or nil.
func (r *Reader) Meta() *sicdmeta.Meta { return r.meta }

// DataSize returns the stored (physical) extent.
func (r *Reader) DataSize() sicd.Size { return sicd.Size{Rows: r.rows, Cols: r.cols} }

// Close releases the file and the decoder.
func (r *Reader) Close() error {
	r.dec.Close()
	return r.f.Close()
}

// Chipper wraps the reader in a chipper carrying the given symmetry.
func (r *Reader) Chipper(sym sicd.Symmetry) (*sicd.Chipper, error) {
	physical := sicd.Size{Rows: r.rows, Cols: r.cols}
	return sicd.NewChipper(physical, sym, sicd.InterleavedRealImag, r)
}

// ReadRaw fetches the samples addressed by two physically-resolved spans,
// decoding only the blocks the row span touches.
func (r *Reader) ReadRaw(span0, span1 sicd.Span) (*sicd.Raw, error) {
	rows, cols := span0.Count(), span1.Count()
	out := make([]complex128, rows*cols)
	rIdx := span0.Start
	for i := 0; i < rows; i++ {
		blockVals, err := r.block(rIdx / r.blockRows)
		if err != nil {
			return nil, err
		}
		rowVals := blockVals[(rIdx%r.blockRows)*r.cols:]
		cIdx := span1.Start
		for j := 0; j < cols; j++ {
			out[i*cols+j] = rowVals[cIdx]
			cIdx += span1.Step
		}
		rIdx += span0.Step
	}
	return &sicd.Raw{Bands: 1, Rows: rows, Cols: cols, Cplx: out}, nil
}

// block returns the decoded samples of block i, consulting the cache first.
func (r *Reader) block(i int) ([]complex128, error) {
	if vals, ok := r.cache.Get(i); ok {
		return vals, nil
	}
	ref := r.index[i]
	comp := make([]byte, ref.compLen)
	if _, err := r.f.ReadAt(comp, ref.offset); err != nil {
		return nil, fmt.Errorf("blockfile: read block %d: %w", i, err)
	}
	raw, err := r.dec.DecodeAll(comp, make([]byte, 0, ref.rawLen))
	if err != nil {
		return nil, fmt.Errorf("blockfile: decode block %d: %w", i, err)
	}
	if len(raw) != ref.rawLen {
		return nil, fmt.Errorf("%w: block %d: %d bytes, expected %d", ErrBlockSize, i, len(raw), ref.rawLen)
	}
	vals := samples.DecodeRE32F(raw, binary.LittleEndian, nil)
	r.cache.Add(i, vals)
	return vals, nil
}
