package sicd

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mrjoshuak/go-sicd/sicdmeta"
)

// Reader construction and dispatch errors
var (
	ErrNoChippers       = errors.New("sicd: reader requires at least one chipper")
	ErrNilChipper       = errors.New("sicd: reader chipper entries must be non-nil")
	ErrMetaCount        = errors.New("sicd: metadata and chipper sequences must have equal length")
	ErrSingleImageIndex = errors.New("sicd: cannot index a single-image reader")
	ErrIndexSelector    = errors.New("sicd: the third selector must pick a single image index")
	ErrReaderSelectors  = errors.New("sicd: cannot slice on more than three dimensions")
	ErrSubsetParent     = errors.New("sicd: subset readers require a single-image parent")
)

// IndexError reports an image index outside a multi-image reader's range.
type IndexError struct {
	Index, Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("sicd: image index %d out of range [%d, %d)", e.Index, -e.Count, e.Count)
}

// Reader exposes uniform indexed access over one or more (metadata,
// chipper) pairs. Readers are immutable after construction; a reader built
// from a single pair has implicit image index 0 and rejects any other.
type Reader struct {
	metas  []*sicdmeta.Meta
	chips  []*Chipper
	sizes  []Size
	single bool
}

// NewReader builds a single-image reader. The metadata may be nil when the
// source carries none.
func NewReader(meta *sicdmeta.Meta, chipper *Chipper) (*Reader, error) {
	if chipper == nil {
		return nil, ErrNilChipper
	}
	var metas []*sicdmeta.Meta
	if meta != nil {
		metas = []*sicdmeta.Meta{meta}
	}
	return &Reader{
		metas:  metas,
		chips:  []*Chipper{chipper},
		sizes:  []Size{chipper.DataSize()},
		single: true,
	}, nil
}

// NewMultiReader builds a reader over a fixed sequence of images. The
// metadata sequence may be nil; when present its length must match the
// chipper sequence, tying entries by position.
func NewMultiReader(metas []*sicdmeta.Meta, chippers []*Chipper) (*Reader, error) {
	if len(chippers) == 0 {
		return nil, ErrNoChippers
	}
	if metas != nil && len(metas) != len(chippers) {
		return nil, fmt.Errorf("%w: %d metadata, %d chippers", ErrMetaCount, len(metas), len(chippers))
	}
	sizes := make([]Size, len(chippers))
	for i, ch := range chippers {
		if ch == nil {
			return nil, ErrNilChipper
		}
		sizes[i] = ch.DataSize()
	}
	return &Reader{
		metas: append([]*sicdmeta.Meta(nil), metas...),
		chips: append([]*Chipper(nil), chippers...),
		sizes: sizes,
	}, nil
}

// Images returns the number of images behind the reader.
func (r *Reader) Images() int { return len(r.chips) }

// Meta returns the metadata of the first image, or nil if none was supplied.
func (r *Reader) Meta() *sicdmeta.Meta {
	if len(r.metas) == 0 {
		return nil
	}
	return r.metas[0]
}

// MetaSeq returns the metadata as a sequence regardless of single or multi
// construction, or nil if none was supplied.
func (r *Reader) MetaSeq() []*sicdmeta.Meta {
	if r.metas == nil {
		return nil
	}
	return append([]*sicdmeta.Meta(nil), r.metas...)
}

// DataSize returns the logical size of the first image.
func (r *Reader) DataSize() Size { return r.sizes[0] }

// DataSizeSeq returns the logical sizes as a sequence regardless of single
// or multi construction.
func (r *Reader) DataSizeSeq() []Size {
	return append([]Size(nil), r.sizes...)
}

// validateIndex normalizes an image index. Single-image readers accept only
// 0; multi-image readers accept [-n, n) with negatives counted from the end.
func (r *Reader) validateIndex(index int) (int, error) {
	if r.single {
		if index != 0 {
			return 0, ErrSingleImageIndex
		}
		return 0, nil
	}
	n := len(r.chips)
	if index < -n || index >= n {
		return 0, &IndexError{Index: index, Count: n}
	}
	if index < 0 {
		index += n
	}
	return index, nil
}

// Read fetches the logical sub-region of the image at the given index.
// Note that reader.Read(r0, r1, index) and reader.ReadChip(r0, r1, index)
// are equivalent.
func (r *Reader) Read(range0, range1 Selection, index int) (*mat.CDense, error) {
	i, err := r.validateIndex(index)
	if err != nil {
		return nil, err
	}
	return r.chips[i].Read(range0, range1)
}

// ReadChip is an alias for Read.
func (r *Reader) ReadChip(range0, range1 Selection, index int) (*mat.CDense, error) {
	return r.Read(range0, range1, index)
}

// Slice reads with up to three axis selectors. The third selector, when
// present, must be a single At index and picks which image is read; its
// absence defaults to index 0. Missing spatial selectors default to the
// full axis.
func (r *Reader) Slice(sels ...Selection) (*mat.CDense, error) {
	if len(sels) > 3 {
		return nil, ErrReaderSelectors
	}
	index := 0
	if len(sels) == 3 {
		if sels[2].kind != selIndex {
			return nil, ErrIndexSelector
		}
		index = sels[2].start
	}
	var range0, range1 Selection
	if len(sels) > 0 {
		range0 = sels[0]
	}
	if len(sels) > 1 {
		range1 = sels[1]
	}
	return r.Read(range0, range1, index)
}

// NewSubsetReader narrows a single-image parent reader to a rectangular
// sub-region, pairing the derived subset chipper with caller-supplied
// metadata that describes the narrowed region. The parent must remain valid
// for the lifetime of the subset.
func NewSubsetReader(parent *Reader, meta *sicdmeta.Meta, bounds0, bounds1 Bounds) (*Reader, error) {
	if parent == nil || !parent.single {
		return nil, ErrSubsetParent
	}
	chipper, err := NewSubsetChipper(parent.chips[0], bounds0, bounds1)
	if err != nil {
		return nil, err
	}
	return NewReader(meta, chipper)
}
