//go:build !linux

package fs

// Datasync falls back to a full Sync where fdatasync is not available.
func Datasync(f File) error {
	return f.Sync()
}
