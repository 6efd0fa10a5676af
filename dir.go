package asyncfile

import (
	"context"
	iofs "io/fs"
	"os"
	"syscall"

	"github.com/hupe1980/asyncfile/internal/fs"
)

const defaultDirPerm = 0o755

// CreateDir creates a single directory. The parent must exist.
//
// Errors: ErrAlreadyExists, ErrNotFound (missing parent), ErrPermissionDenied.
func CreateDir(ctx context.Context, rt *Runtime, path string) error {
	return pathOp(ctx, rt, "mkdir", path, func(fsys fs.FileSystem) error {
		return fsys.Mkdir(path, defaultDirPerm)
	})
}

// CreateDirAll creates path along with any missing parents. An existing
// directory is not an error.
func CreateDirAll(ctx context.Context, rt *Runtime, path string) error {
	return pathOp(ctx, rt, "mkdir", path, func(fsys fs.FileSystem) error {
		return fsys.MkdirAll(path, defaultDirPerm)
	})
}

// RemoveDir removes an empty directory.
//
// Errors: ErrNotFound, ErrDirectoryNotEmpty, ErrIo when path is not a directory.
func RemoveDir(ctx context.Context, rt *Runtime, path string) error {
	return pathOp(ctx, rt, "rmdir", path, func(fsys fs.FileSystem) error {
		fi, err := fsys.Lstat(path)
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			return &iofs.PathError{Op: "rmdir", Path: path, Err: syscall.ENOTDIR}
		}
		return fsys.Remove(path)
	})
}

// RemoveFile removes a file or symbolic link. Directories are refused with
// ErrIsADirectory.
func RemoveFile(ctx context.Context, rt *Runtime, path string) error {
	return pathOp(ctx, rt, "remove", path, func(fsys fs.FileSystem) error {
		fi, err := fsys.Lstat(path)
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return &iofs.PathError{Op: "remove", Path: path, Err: syscall.EISDIR}
		}
		return fsys.Remove(path)
	})
}

// Rename moves from to to, replacing an existing file at to. The move is
// atomic within one volume; across volumes it fails with ErrCrossDevice.
//
// Errors: ErrNotFound, ErrCrossDevice, ErrPermissionDenied, ErrIsADirectory.
func Rename(ctx context.Context, rt *Runtime, from, to string) error {
	if from == "" || to == "" {
		return translateError(&os.LinkError{Op: "rename", Old: from, New: to, Err: syscall.ENOENT})
	}
	return observe(ctx, rt, "rename", from+" -> "+to, func() error {
		return exec(ctx, rt, func(fsys fs.FileSystem) error {
			return wrapLinkErr("rename", from, to, fsys.Rename(from, to))
		})
	})
}

// pathOp runs a single-path operation on a worker.
func pathOp(ctx context.Context, rt *Runtime, op, path string, fn func(fsys fs.FileSystem) error) error {
	if path == "" {
		return translateError(&iofs.PathError{Op: op, Path: path, Err: syscall.ENOENT})
	}
	return observe(ctx, rt, op, path, func() error {
		return exec(ctx, rt, func(fsys fs.FileSystem) error {
			return wrapPathErr(op, path, fn(fsys))
		})
	})
}

// observe times, records and logs a path-level operation.
func observe(ctx context.Context, rt *Runtime, op, path string, fn func() error) error {
	if rt == nil {
		return fn()
	}
	start := rt.clock.Now()
	err := fn()
	rt.metrics.RecordPathOp(op, rt.clock.Since(start), err)
	rt.logger.LogOp(ctx, op, path, err)
	return err
}
