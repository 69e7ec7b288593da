//go:build windows
// +build windows

package rawfile

// OpenReaderMmap falls back to positioned reads on Windows, where the
// mapping would need per-view management to stay portable across handles.
func OpenReaderMmap(path string, layout Layout) (*Reader, error) {
	return OpenReader(path, layout)
}
