package asyncfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"slices"
	"syscall"

	"github.com/hupe1980/asyncfile/internal/fs"
)

// minReadChunk is the smallest first buffer a Read allocates.
const minReadChunk = 4 << 10

// Read reads up to maxLen bytes starting at offset.
//
// The returned slice is shorter than maxLen only at end of file; a read at or
// past the end returns an empty slice. The slice is never retained by the File.
func (f *File) Read(ctx context.Context, offset int64, maxLen int) ([]byte, error) {
	if offset < 0 || maxLen < 0 {
		return nil, fmt.Errorf("%w: %w", ErrIo, &iofs.PathError{Op: "read", Path: f.path, Err: syscall.EINVAL})
	}
	if maxLen == 0 {
		return []byte{}, nil
	}

	start := f.rt.clock.Now()
	unlock := f.lock(false)
	buf, pending, err := call(ctx, f, func(h fs.File) ([]byte, error) {
		fi, err := h.Stat()
		if err != nil {
			return nil, wrapPathErr("read", f.path, err)
		}

		// The stat size only sizes the first buffer; procfs and similar
		// files report 0 while holding content.
		initial := min(maxLen, minReadChunk)
		if hint := fi.Size() - offset; hint > int64(initial) {
			initial = int(min(hint, int64(maxLen)))
		}

		buf := make([]byte, 0, initial)
		for len(buf) < maxLen {
			if len(buf) == cap(buf) {
				buf = slices.Grow(buf, min(len(buf), maxLen-len(buf)))
			}
			chunk := buf[len(buf):min(cap(buf), maxLen)]
			m, eof, err := readFull(h, chunk, offset+int64(len(buf)))
			buf = buf[:len(buf)+m]
			if err != nil {
				return nil, wrapPathErr("read", f.path, err)
			}
			if err := f.rt.limits.AcquireIO(ctx, m); err != nil {
				return nil, err
			}
			if eof {
				break
			}
		}
		return buf, nil
	})
	unlock(pending)
	f.rt.metrics.RecordRead(len(buf), f.rt.clock.Since(start), err)

	if err != nil {
		f.rt.logger.LogOp(ctx, "read", f.path, err)
		return nil, err
	}
	return buf, nil
}

// readFull fills buf from off. eof reports that the file ended before buf
// was full.
func readFull(h fs.File, buf []byte, off int64) (n int, eof bool, err error) {
	for n < len(buf) {
		m, err := h.ReadAt(buf[n:], off+int64(n))
		n += m
		if err != nil {
			// afero's in-memory files report a read starting past the end as
			// io.ErrUnexpectedEOF.
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return n, true, nil
			}
			return n, false, err
		}
		if m == 0 {
			return n, true, nil
		}
	}
	return n, false, nil
}

// Write writes all of data at offset and returns the number of bytes written.
//
// The length of data is reserved against the disk quota before any syscall;
// a reservation that does not fit fails with ErrOutOfSpace and leaves the file
// untouched. Short writes are retried until data is written or an error
// occurs. On error, the bytes that were not written go back to the quota.
func (f *File) Write(ctx context.Context, offset int64, data []byte, opts WriteOptions) (int, error) {
	if f.onlyRead {
		err := fmt.Errorf("%w: %w", ErrPermissionDenied,
			&iofs.PathError{Op: "write", Path: f.path, Err: syscall.EBADF})
		f.rt.logger.LogWrite(ctx, f.path, offset, 0, opts, err)
		return 0, err
	}
	if offset < 0 {
		err := fmt.Errorf("%w: %w", ErrIo, &iofs.PathError{Op: "write", Path: f.path, Err: syscall.EINVAL})
		f.rt.logger.LogWrite(ctx, f.path, offset, 0, opts, err)
		return 0, err
	}

	start := f.rt.clock.Now()
	unlock := f.lock(opts.truncates())
	n, pending, err := call(ctx, f, func(h fs.File) (int, error) {
		return f.write(ctx, h, offset, data, opts)
	})
	unlock(pending)
	f.rt.metrics.RecordWrite(n, f.rt.clock.Since(start), err)

	f.rt.logger.LogWrite(ctx, f.path, offset, n, opts, err)
	return n, err
}

func (f *File) write(ctx context.Context, h fs.File, offset int64, data []byte, opts WriteOptions) (n int, err error) {
	quota := f.rt.diskQuota()
	if err := quota.Reserve(uint64(len(data))); err != nil {
		return 0, &iofs.PathError{Op: "write", Path: f.path, Err: err}
	}
	defer func() {
		if err != nil {
			quota.Release(uint64(len(data) - n))
		}
	}()

	if err := f.rt.limits.AcquireIO(ctx, len(data)); err != nil {
		return 0, err
	}

	n, err = writeFull(h, data, offset)
	if err != nil {
		return n, wrapPathErr("write", f.path, err)
	}

	end := offset + int64(n)
	if opts.truncates() {
		if err := h.Truncate(end); err != nil {
			return n, wrapPathErr("truncate", f.path, err)
		}
		f.size.Store(end)
	} else {
		f.growSize(end)
	}

	switch opts.syncLevel() {
	case syncData:
		err = fs.Datasync(h)
	case syncFull:
		err = h.Sync()
	}
	// Every byte is on the file by now, so a failed barrier releases nothing.
	if err != nil {
		return n, wrapPathErr("sync", f.path, err)
	}
	return n, nil
}

// writeFull writes all of data at off, retrying short writes.
func writeFull(h fs.File, data []byte, off int64) (int, error) {
	var n int
	for n < len(data) {
		m, err := h.WriteAt(data[n:], off+int64(n))
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, io.ErrShortWrite
		}
	}
	return n, nil
}

// growSize raises the cached size to end if it is larger.
func (f *File) growSize(end int64) {
	for {
		cur := f.size.Load()
		if end <= cur || f.size.CompareAndSwap(cur, end) {
			return
		}
	}
}

// Truncate sets the file length to size. It is atomic with respect to every
// other operation on this File.
func (f *File) Truncate(ctx context.Context, size int64) error {
	if f.onlyRead {
		err := fmt.Errorf("%w: %w", ErrPermissionDenied,
			&iofs.PathError{Op: "truncate", Path: f.path, Err: syscall.EBADF})
		f.rt.logger.LogOp(ctx, "truncate", f.path, err)
		return err
	}
	if size < 0 {
		return fmt.Errorf("%w: %w", ErrIo, &iofs.PathError{Op: "truncate", Path: f.path, Err: syscall.EINVAL})
	}

	start := f.rt.clock.Now()
	unlock := f.lock(true)
	_, pending, err := call(ctx, f, func(h fs.File) (struct{}, error) {
		if err := h.Truncate(size); err != nil {
			return struct{}{}, wrapPathErr("truncate", f.path, err)
		}
		f.size.Store(size)
		return struct{}{}, nil
	})
	unlock(pending)
	f.rt.metrics.RecordFileOp("truncate", f.rt.clock.Since(start), err)

	f.rt.logger.LogOp(ctx, "truncate", f.path, err)
	return err
}

// Sync flushes file data to stable storage. With all set, metadata is flushed
// too (fsync); otherwise fdatasync is used where the platform has it.
func (f *File) Sync(ctx context.Context, all bool) error {
	start := f.rt.clock.Now()
	unlock := f.lock(false)
	_, pending, err := call(ctx, f, func(h fs.File) (struct{}, error) {
		var err error
		if all {
			err = h.Sync()
		} else {
			err = fs.Datasync(h)
		}
		return struct{}{}, wrapPathErr("sync", f.path, err)
	})
	unlock(pending)
	f.rt.metrics.RecordSync(f.rt.clock.Since(start), err)

	f.rt.logger.LogOp(ctx, "sync", f.path, err)
	return err
}
