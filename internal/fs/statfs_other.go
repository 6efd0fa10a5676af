//go:build !(linux || darwin || freebsd || openbsd)

package fs

import (
	"errors"
	"os"
)

// VolumeAvailable is not supported on this platform.
func VolumeAvailable(path string) (uint64, error) {
	return 0, &os.PathError{Op: "statfs", Path: path, Err: errors.ErrUnsupported}
}
