//go:build linux

package fs

import (
	"os"

	"golang.org/x/sys/unix"
)

// Datasync flushes file data to stable storage without forcing metadata that
// is not needed to read the data back (atime/mtime).
//
// Files that are not backed by an *os.File fall back to Sync.
func Datasync(f File) error {
	osf, ok := f.(*os.File)
	if !ok {
		return f.Sync()
	}
	if err := unix.Fdatasync(int(osf.Fd())); err != nil {
		return &os.PathError{Op: "fdatasync", Path: osf.Name(), Err: err}
	}
	return nil
}
