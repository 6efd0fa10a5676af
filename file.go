package asyncfile

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/hupe1980/asyncfile/internal/fs"
)

// Kind is the file type captured when a File is opened or refreshed.
type Kind uint8

const (
	KindOther Kind = iota
	KindFile
	KindDir
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

const defaultFilePerm = 0o644

type fileMeta struct {
	kind Kind
	perm os.FileMode
}

// File is an open file whose blocking calls run on the workers of a Runtime.
//
// The OS handle is exclusively owned and released exactly once by Close. Size
// is authoritative right after Open, Refresh, or a write/truncate through this
// File. Operations issued sequentially and each awaited run in issue order;
// concurrent operations have no relative order, except that a truncating
// write or Truncate is atomic with respect to every other operation on this
// File.
type File struct {
	rt       *Runtime
	handle   fs.File
	path     string
	mode     OpenMode
	onlyRead bool

	size atomic.Int64
	meta atomic.Pointer[fileMeta]

	// mu is held exclusively by truncating mutations, shared by everything else.
	mu sync.RWMutex

	closeMu  sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
	cleanup  runtime.Cleanup
}

type openResult struct {
	handle fs.File
	path   string
	meta   fileMeta
	size   int64
}

// Open opens path with mode, running the open(2) and the metadata query on
// the runtime's workers.
//
// Errors: ErrNotFound (missing path under ReadOnly, empty path),
// ErrPermissionDenied, ErrIsADirectory, ErrIo, ErrSchedulerUnavailable.
func Open(ctx context.Context, rt *Runtime, path string, mode OpenMode) (*File, error) {
	if rt == nil {
		return open(ctx, rt, path, mode)
	}

	start := rt.clock.Now()
	f, err := open(ctx, rt, path, mode)
	rt.metrics.RecordOpen(rt.clock.Since(start), err)

	var size int64
	if f != nil {
		size = f.Size()
	}
	rt.logger.LogOpen(ctx, path, mode, size, err)
	return f, err
}

func open(ctx context.Context, rt *Runtime, path string, mode OpenMode) (*File, error) {
	if path == "" {
		return nil, translateError(&iofs.PathError{Op: "open", Path: path, Err: syscall.ENOENT})
	}
	if !mode.valid() {
		return nil, fmt.Errorf("%w: invalid open mode %d", ErrIo, int(mode))
	}

	// Hand-off guards against a handle opened after the caller stopped waiting.
	var (
		handoffMu sync.Mutex
		abandoned bool
		delivered bool
	)
	fut, err := submit(ctx, rt, func(fsys fs.FileSystem) (openResult, error) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return openResult{}, wrapPathErr("open", path, err)
		}
		h, err := fsys.OpenFile(abs, mode.flags(), defaultFilePerm)
		if err != nil {
			return openResult{}, wrapPathErr("open", abs, err)
		}
		meta, size, err := statHandle(fsys, abs, h)
		if err != nil {
			_ = h.Close()
			return openResult{}, err
		}

		handoffMu.Lock()
		defer handoffMu.Unlock()
		if abandoned {
			_ = h.Close()
			return openResult{}, context.Canceled
		}
		delivered = true
		return openResult{handle: h, path: abs, meta: meta, size: size}, nil
	})
	if err != nil {
		return nil, err
	}

	res, err := fut.Await(ctx)
	if err != nil {
		handoffMu.Lock()
		abandoned = true
		late := delivered
		handoffMu.Unlock()
		// The handle was handed over before the flag was set; nobody else owns it.
		if late {
			if res, lerr := fut.Await(context.Background()); lerr == nil {
				_ = res.handle.Close()
			}
		}
		return nil, translateError(err)
	}

	f := &File{
		rt:       rt,
		handle:   res.handle,
		path:     res.path,
		mode:     mode,
		onlyRead: mode.onlyRead(),
	}
	f.size.Store(res.size)
	f.meta.Store(&res.meta)

	// Safety net for files that are dropped without Close.
	f.cleanup = runtime.AddCleanup(f, func(h fs.File) { _ = h.Close() }, res.handle)

	return f, nil
}

// statHandle queries size and permissions through the handle and the link
// kind through the path. A directory is rejected with EISDIR.
func statHandle(fsys fs.FileSystem, path string, h fs.File) (fileMeta, int64, error) {
	fi, err := h.Stat()
	if err != nil {
		return fileMeta{}, 0, wrapPathErr("stat", path, err)
	}
	if fi.IsDir() {
		return fileMeta{}, 0, &iofs.PathError{Op: "open", Path: path, Err: syscall.EISDIR}
	}

	meta := fileMeta{kind: kindOf(fi.Mode()), perm: fi.Mode().Perm()}

	// The path may have been renamed away since open; the handle stays authoritative.
	if lfi, err := fsys.Lstat(path); err == nil && lfi.Mode()&os.ModeSymlink != 0 {
		meta.kind = KindSymlink
	}
	return meta, fi.Size(), nil
}

func kindOf(m os.FileMode) Kind {
	switch {
	case m.IsRegular():
		return KindFile
	case m.IsDir():
		return KindDir
	case m&os.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}

// Path returns the absolute path the file was opened with.
func (f *File) Path() string { return f.path }

// Mode returns the open mode.
func (f *File) Mode() OpenMode { return f.mode }

// Size returns the cached size in bytes.
func (f *File) Size() int64 { return f.size.Load() }

// Kind returns the cached file kind.
func (f *File) Kind() Kind { return f.meta.Load().kind }

// Perm returns the cached permission bits.
func (f *File) Perm() os.FileMode { return f.meta.Load().perm }

// IsFile reports whether the file was a regular file when last queried.
func (f *File) IsFile() bool { return f.Kind() == KindFile }

// IsSymlink reports whether the path was a symbolic link when last queried.
func (f *File) IsSymlink() bool { return f.Kind() == KindSymlink }

// IsOnlyRead reports whether the file was opened with ReadOnly.
func (f *File) IsOnlyRead() bool { return f.onlyRead }

func (f *File) String() string {
	return fmt.Sprintf("asyncfile.File{path: %q, mode: %s, size: %d}", f.path, f.mode, f.Size())
}

// Refresh re-queries kind, permissions and size.
func (f *File) Refresh(ctx context.Context) error {
	start := f.rt.clock.Now()
	unlock := f.lock(false)
	type refreshed struct {
		meta fileMeta
		size int64
	}
	res, pending, err := call(ctx, f, func(h fs.File) (refreshed, error) {
		meta, size, err := statHandle(f.rt.fsys, f.path, h)
		return refreshed{meta: meta, size: size}, err
	})
	unlock(pending)
	f.rt.metrics.RecordFileOp("refresh", f.rt.clock.Since(start), err)
	if err != nil {
		return err
	}
	f.meta.Store(&res.meta)
	f.size.Store(res.size)
	return nil
}

// Close releases the OS handle exactly once. It waits for dispatched calls on
// this File that are still running, including ones whose callers gave up.
func (f *File) Close() error {
	f.closeMu.Lock()
	if f.closed {
		f.closeMu.Unlock()
		return nil
	}
	f.closed = true
	f.closeMu.Unlock()

	f.cleanup.Stop()

	f.inflight.Wait()

	closeHandle := func(fs.FileSystem) error {
		return wrapPathErr("close", f.path, f.handle.Close())
	}
	err := exec(context.Background(), f.rt, closeHandle)
	if errors.Is(err, ErrSchedulerUnavailable) {
		err = translateError(closeHandle(nil))
	}
	f.rt.logger.LogOp(context.Background(), "close", f.path, err)
	return err
}

// acquire registers a dispatched call so Close can wait for it.
func (f *File) acquire(op string) error {
	f.closeMu.RLock()
	defer f.closeMu.RUnlock()
	if f.closed {
		return fmt.Errorf("%w: %w", ErrIo, &iofs.PathError{Op: op, Path: f.path, Err: os.ErrClosed})
	}
	f.inflight.Add(1)
	return nil
}

// lock takes f.mu and returns its release. If the caller stopped waiting on
// a dispatched call, pending is that call's completion and the lock is held
// until it fires.
func (f *File) lock(exclusive bool) func(pending <-chan struct{}) {
	unlock := f.mu.RUnlock
	if exclusive {
		f.mu.Lock()
		unlock = f.mu.Unlock
	} else {
		f.mu.RLock()
	}

	return func(pending <-chan struct{}) {
		if pending == nil {
			unlock()
			return
		}
		go func() {
			<-pending
			unlock()
		}()
	}
}

// call dispatches op against the handle and waits for it. When the wait is
// abandoned while op still runs, the returned channel closes once it returns.
func call[T any](ctx context.Context, f *File, op func(h fs.File) (T, error)) (T, <-chan struct{}, error) {
	var zero T
	if err := f.acquire("dispatch"); err != nil {
		return zero, nil, err
	}

	fut, err := submit(ctx, f.rt, func(fs.FileSystem) (T, error) {
		defer f.inflight.Done()
		return op(f.handle)
	})
	if err != nil {
		f.inflight.Done()
		return zero, nil, err
	}

	v, err := fut.Await(ctx)
	if err != nil && ctx.Err() != nil {
		select {
		case <-fut.Done():
			// Finished while the wait was being abandoned; its result stands.
			v, err = fut.Await(context.Background())
		default:
			return zero, fut.Done(), err
		}
	}
	return v, nil, translateError(err)
}
