package asyncfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"

	"github.com/hupe1980/asyncfile/internal/dispatch"
	"github.com/hupe1980/asyncfile/internal/resource"
)

var (
	// ErrNotFound is returned when a path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a path that must not exist already does.
	ErrAlreadyExists = errors.New("already exists")

	// ErrPermissionDenied is returned for EACCES/EPERM/EROFS and for writes on a read-only handle.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrIsADirectory is returned when a regular file was expected but a directory was found.
	ErrIsADirectory = errors.New("is a directory")

	// ErrDirectoryNotEmpty is returned when removing a directory that still has entries.
	ErrDirectoryNotEmpty = errors.New("directory not empty")

	// ErrCrossDevice is returned when a rename crosses filesystem boundaries.
	ErrCrossDevice = errors.New("cross-device link")

	// ErrOutOfSpace is returned when the simulated disk quota or the real device is full.
	ErrOutOfSpace = errors.New("out of space")

	// ErrSchedulerUnavailable is returned when blocking work cannot be handed to a worker.
	// It points at the runtime itself, not the filesystem, and is not retryable on
	// the same Runtime.
	ErrSchedulerUnavailable = errors.New("scheduler unavailable")

	// ErrIo is the catch-all for device-level and handle failures.
	ErrIo = errors.New("i/o error")

	// ErrAlreadyInitialized is returned by InitDiskAvailables on its second call.
	ErrAlreadyInitialized = errors.New("disk availables already initialized")
)

// IsRetryable reports whether err may succeed when the same operation is
// attempted again on the same Runtime.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrSchedulerUnavailable)
}

// translateError maps err into the taxonomy while keeping the cause reachable
// through errors.Is / errors.As.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	// Abandoned waits are the caller's own doing, not a filesystem failure.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if kind := classify(err); kind != nil {
		if errors.Is(err, kind) {
			return err
		}
		return fmt.Errorf("%w: %w", kind, err)
	}
	return fmt.Errorf("%w: %w", ErrIo, err)
}

func classify(err error) error {
	switch {
	case errors.Is(err, dispatch.ErrUnavailable):
		return ErrSchedulerUnavailable
	case errors.Is(err, resource.ErrDiskQuotaExceeded),
		errors.Is(err, syscall.ENOSPC),
		errors.Is(err, syscall.EDQUOT):
		return ErrOutOfSpace
	case errors.Is(err, syscall.ENOTEMPTY):
		return ErrDirectoryNotEmpty
	case errors.Is(err, syscall.EISDIR):
		return ErrIsADirectory
	case errors.Is(err, syscall.EXDEV):
		return ErrCrossDevice
	case errors.Is(err, syscall.EROFS),
		errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrExist):
		return ErrAlreadyExists
	}

	for _, kind := range []error{
		ErrNotFound, ErrAlreadyExists, ErrPermissionDenied, ErrIsADirectory,
		ErrDirectoryNotEmpty, ErrCrossDevice, ErrOutOfSpace, ErrSchedulerUnavailable, ErrIo,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// wrapPathErr wraps err into *fs.PathError unless it already is one.
func wrapPathErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return err
	}
	return &fs.PathError{Op: op, Path: path, Err: err}
}

// wrapLinkErr wraps err into *os.LinkError unless it already is one.
func wrapLinkErr(op, oldpath, newpath string, err error) error {
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return err
	}
	return &os.LinkError{Op: op, Old: oldpath, New: newpath, Err: err}
}
