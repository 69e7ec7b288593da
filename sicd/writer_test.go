package sicd

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/mrjoshuak/go-sicd/sicdmeta"
)

// fakeBackend records chip placements and close calls.
type fakeBackend struct {
	chips    int
	closes   int
	closeErr error
	writeErr error
}

func (b *fakeBackend) WriteChip(data *mat.CDense, startRow, startCol int) error {
	if b.writeErr != nil {
		return b.writeErr
	}
	b.chips++
	return nil
}

func (b *fakeBackend) Close() error {
	b.closes++
	return b.closeErr
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(old) })
	return &buf
}

func writableMeta() *sicdmeta.Meta {
	return &sicdmeta.Meta{
		ImageData: &sicdmeta.ImageData{
			PixelType: sicdmeta.RE32FIM32F,
			NumRows:   10,
			NumCols:   12,
		},
	}
}

func TestValidateForWritingErrors(t *testing.T) {
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	if _, err := ValidateForWriting(nil); !errors.Is(err, ErrNilMeta) {
		t.Errorf("nil meta: err = %v, want ErrNilMeta", err)
	}
	if _, err := ValidateForWriting(&sicdmeta.Meta{}); !errors.Is(err, ErrNoImageData) {
		t.Errorf("no image data: err = %v, want ErrNoImageData", err)
	}
	m := &sicdmeta.Meta{ImageData: &sicdmeta.ImageData{NumRows: 10}}
	if _, err := ValidateForWriting(m); !errors.Is(err, ErrNoImageSize) {
		t.Errorf("no columns: err = %v, want ErrNoImageSize", err)
	}
}

func TestValidateForWritingDefaultsPixelType(t *testing.T) {
	buf := captureLog(t)
	caller := &sicdmeta.Meta{
		ImageData: &sicdmeta.ImageData{NumRows: 4, NumCols: 4},
	}
	out, err := ValidateForWriting(caller)
	if err != nil {
		t.Fatal(err)
	}
	if out.ImageData.PixelType != sicdmeta.RE32FIM32F {
		t.Errorf("pixel type = %q, want default %q", out.ImageData.PixelType, sicdmeta.RE32FIM32F)
	}
	if caller.ImageData.PixelType != "" {
		t.Error("caller metadata was modified")
	}
	if !strings.Contains(buf.String(), "pixel type is unset") {
		t.Errorf("missing default warning, log: %q", buf.String())
	}
}

func TestValidateForWritingProvenance(t *testing.T) {
	out, err := ValidateForWriting(writableMeta())
	if err != nil {
		t.Fatal(err)
	}
	if out.ImageCreation == nil {
		t.Fatal("ImageCreation not populated")
	}
	want := "go-sicd " + Version
	if out.ImageCreation.Profile != want {
		t.Errorf("Profile = %q, want %q", out.ImageCreation.Profile, want)
	}
	if out.ImageCreation.DateTime.IsZero() {
		t.Error("DateTime not populated")
	}

	// Existing provenance keeps its timestamp but refreshes the profile.
	meta := writableMeta()
	meta.ImageCreation = &sicdmeta.ImageCreation{Application: "upstream", Profile: "old"}
	out, err = ValidateForWriting(meta)
	if err != nil {
		t.Fatal(err)
	}
	if out.ImageCreation.Application != "upstream" {
		t.Errorf("Application = %q, want preserved", out.ImageCreation.Application)
	}
	if out.ImageCreation.Profile != want {
		t.Errorf("Profile = %q, want refreshed to %q", out.ImageCreation.Profile, want)
	}
}

func TestNewWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.raw")
	backend := &fakeBackend{}
	w, err := NewWriter(path, writableMeta(), backend)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("target file not reserved: %v", err)
	}
	if w.Path() != path {
		t.Errorf("Path = %q", w.Path())
	}
	if w.Meta() == nil || w.Meta().ImageCreation == nil {
		t.Error("writer metadata not validated")
	}

	if err := w.WriteChip(mat.NewCDense(2, 2, nil), 0, 0); err != nil {
		t.Fatal(err)
	}
	if backend.chips != 1 {
		t.Errorf("backend chips = %d, want 1", backend.chips)
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if backend.closes != 1 {
		t.Errorf("backend closes = %d, want exactly 1", backend.closes)
	}

	if _, err := NewWriter(path, writableMeta(), nil); !errors.Is(err, ErrNilBackend) {
		t.Errorf("nil backend: err = %v, want ErrNilBackend", err)
	}
}

func TestWriterDo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.raw")

	t.Run("clean run closes quietly", func(t *testing.T) {
		buf := captureLog(t)
		backend := &fakeBackend{}
		w, err := NewWriter(path, writableMeta(), backend)
		if err != nil {
			t.Fatal(err)
		}
		err = w.Do(func(w *Writer) error {
			return w.WriteChip(mat.NewCDense(2, 2, nil), 0, 0)
		})
		if err != nil {
			t.Fatal(err)
		}
		if backend.closes != 1 {
			t.Errorf("backend closes = %d, want 1", backend.closes)
		}
		if buf.Len() != 0 {
			t.Errorf("unexpected log output: %q", buf.String())
		}
	})

	t.Run("error propagates unchanged with warning", func(t *testing.T) {
		buf := captureLog(t)
		backend := &fakeBackend{}
		w, err := NewWriter(path, writableMeta(), backend)
		if err != nil {
			t.Fatal(err)
		}
		boom := errors.New("disk full")
		err = w.Do(func(*Writer) error { return boom })
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want the original failure", err)
		}
		if backend.closes != 1 {
			t.Errorf("backend closes = %d, want 1", backend.closes)
		}
		msg := buf.String()
		if !strings.Contains(msg, path) || !strings.Contains(msg, "partially generated") {
			t.Errorf("warning missing path or wording: %q", msg)
		}
	})

	t.Run("panic closes and re-panics", func(t *testing.T) {
		captureLog(t)
		backend := &fakeBackend{}
		w, err := NewWriter(path, writableMeta(), backend)
		if err != nil {
			t.Fatal(err)
		}
		defer func() {
			if r := recover(); r != "bad chip" {
				t.Errorf("recover = %v, want the original panic", r)
			}
			if backend.closes != 1 {
				t.Errorf("backend closes = %d, want 1", backend.closes)
			}
		}()
		w.Do(func(*Writer) error { panic("bad chip") })
	})

	t.Run("close error surfaces on clean run", func(t *testing.T) {
		captureLog(t)
		closeErr := errors.New("flush failed")
		w, err := NewWriter(path, writableMeta(), &fakeBackend{closeErr: closeErr})
		if err != nil {
			t.Fatal(err)
		}
		if err := w.Do(func(*Writer) error { return nil }); !errors.Is(err, closeErr) {
			t.Errorf("err = %v, want the close failure", err)
		}
	})
}
