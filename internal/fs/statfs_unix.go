//go:build linux || darwin || freebsd || openbsd

package fs

import (
	"os"

	"golang.org/x/sys/unix"
)

// VolumeAvailable returns the bytes available to unprivileged users on the
// volume holding path.
func VolumeAvailable(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, &os.PathError{Op: "statfs", Path: path, Err: err}
	}

	return uint64(stat.Bavail) * uint64(stat.Bsize), nil //nolint:gosec,unconvert // field widths differ per GOOS
}
