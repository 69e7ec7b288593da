package sicd

import (
	"errors"
	"log"
	"os"
	"runtime"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/mrjoshuak/go-sicd/sicdmeta"
)

// Writer construction errors
var (
	ErrNilBackend  = errors.New("sicd: writer requires a backend")
	ErrNilMeta     = errors.New("sicd: writer requires metadata")
	ErrNoImageData = errors.New("sicd: metadata ImageData is unpopulated, nothing useful can be inferred")
	ErrNoImageSize = errors.New("sicd: metadata ImageData has unpopulated NumRows or NumCols")
)

// RawWriter is the encode capability a concrete file backend supplies: it
// places a complex chip so that its first element lands at the given
// logical offset, and finalizes the target on Close.
type RawWriter interface {
	WriteChip(data *mat.CDense, startRow, startCol int) error
	Close() error
}

// Writer owns a target file and validated metadata and places complex chips
// through a format-specific backend. A Writer must not be used concurrently
// without external synchronization.
type Writer struct {
	path    string
	meta    *sicdmeta.Meta
	backend RawWriter
	closed  bool
	cleanup runtime.Cleanup
}

// NewWriter validates meta for writing and takes ownership of the backend.
// If nothing exists at path an empty file is created to reserve the
// location; header and metadata serialization remain the backend's
// responsibility. The caller's metadata object is never modified: the
// Writer owns a validated deep copy.
func NewWriter(path string, meta *sicdmeta.Meta, backend RawWriter) (*Writer, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	validated, err := ValidateForWriting(meta)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}
	w := &Writer{path: path, meta: validated, backend: backend}
	// Last-resort finalization if the writer is dropped without Close.
	// Not guaranteed to run under forced process termination.
	w.cleanup = runtime.AddCleanup(w, func(b RawWriter) { b.Close() }, backend)
	return w, nil
}

// Path returns the target file path.
func (w *Writer) Path() string { return w.path }

// Meta returns the writer's validated metadata copy.
func (w *Writer) Meta() *sicdmeta.Meta { return w.meta }

// WriteChip writes data so that its first element lands at logical offset
// (startRow, startCol). Note that w.WriteChip(data, r, c) delegates
// directly to the backend; extent checks are the backend's, since total
// output extent may not be known until write time for streaming backends.
func (w *Writer) WriteChip(data *mat.CDense, startRow, startCol int) error {
	return w.backend.WriteChip(data, startRow, startCol)
}

// Close finalizes the target file. It is idempotent and safe to call
// multiple times.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.cleanup.Stop()
	return w.backend.Close()
}

// Do runs fn against the writer and guarantees Close on every exit path,
// including panics. On abnormal exit a warning naming the concrete backend
// and target path is logged and the original failure propagates unchanged;
// it is never swallowed.
func (w *Writer) Do(fn func(*Writer) error) (err error) {
	defer func() {
		r := recover()
		if r != nil || err != nil {
			log.Printf("sicd: the %T writer failed during processing; the file %s may be only partially generated and corrupt",
				w.backend, w.path)
		}
		if cerr := w.Close(); cerr != nil && err == nil && r == nil {
			err = cerr
		}
		if r != nil {
			panic(r)
		}
	}()
	return fn(w)
}

// ValidateForWriting ensures the provided metadata carries enough
// information to support file writing and returns a deep copy with a few
// basic items populated: a missing pixel type defaults to RE32F_IM32F with
// a logged warning, and the creation provenance record is populated or
// refreshed. The caller's object is never modified.
func ValidateForWriting(meta *sicdmeta.Meta) (*sicdmeta.Meta, error) {
	if meta == nil {
		return nil, ErrNilMeta
	}
	if meta.ImageData == nil {
		return nil, ErrNoImageData
	}
	if meta.ImageData.NumRows <= 0 || meta.ImageData.NumCols <= 0 {
		return nil, ErrNoImageSize
	}
	out := meta.Copy()
	if out.ImageData.PixelType == "" {
		log.Printf("sicd: the metadata pixel type is unset, defaulting to %s", sicdmeta.RE32FIM32F)
		out.ImageData.PixelType = sicdmeta.RE32FIM32F
	}
	profile := "go-sicd " + Version
	now := time.Now().UTC()
	if out.ImageCreation == nil {
		out.ImageCreation = &sicdmeta.ImageCreation{
			Application: profile,
			DateTime:    now,
			Profile:     profile,
		}
	} else {
		out.ImageCreation.Profile = profile
		if out.ImageCreation.DateTime.IsZero() {
			out.ImageCreation.DateTime = now
		}
	}
	return out, nil
}
