//go:build !windows
// +build !windows

package rawfile

import (
	"fmt"
	"os"
	"syscall"
)

// mmapSource provides zero-copy file access via memory mapping.
type mmapSource struct {
	data []byte
	file *os.File
}

func newMmapSource(f *os.File) (*mmapSource, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &mmapSource{data: nil, file: f}, nil
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, err
	}

	return &mmapSource{data: data, file: f}, nil
}

// ReadAt implements io.ReaderAt with zero-copy access to mmap'd data.
func (m *mmapSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.data)) {
		return 0, syscall.EINVAL
	}
	n := copy(p, m.data[off:])
	return n, nil
}

// Size returns the size of the mapped file.
func (m *mmapSource) Size() int64 {
	return int64(len(m.data))
}

// Close unmaps the file and closes the underlying file handle.
func (m *mmapSource) Close() error {
	if m.data != nil {
		if err := syscall.Munmap(m.data); err != nil {
			return err
		}
		m.data = nil
	}
	if m.file != nil {
		return m.file.Close()
	}
	return nil
}

// OpenReaderMmap opens a flat file for reading through a memory mapping,
// which gives the best random-access performance for large files. The
// returned Reader must be closed to release the mapping.
func OpenReaderMmap(path string, layout Layout) (*Reader, error) {
	if err := layout.validate(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	mm, err := newMmapSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if mm.Size() < layout.extent() {
		mm.Close()
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrTruncated, mm.Size(), layout.extent())
	}
	return &Reader{src: mm, closer: mm, layout: layout}, nil
}
