package asyncfile

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/asyncfile/internal/dispatch"
	"github.com/hupe1980/asyncfile/internal/fs"
	"github.com/hupe1980/asyncfile/internal/resource"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
)

// Scheduler is the task scheduler blocking work is handed to.
//
// Spawn enqueues one unit of work on a worker; Every schedules a recurring
// background task and returns a function that stops it.
type Scheduler interface {
	Spawn(ctx context.Context, task func()) error
	Every(interval time.Duration, task func()) (stop func(), err error)
}

var _ Scheduler = (*dispatch.Pool)(nil)

// FileSystem is the set of blocking filesystem calls a Runtime dispatches.
type FileSystem = fs.FileSystem

// FileHandle is an open file as seen by a FileSystem.
type FileHandle = fs.File

// OSFileSystem returns the local filesystem.
func OSFileSystem() FileSystem { return fs.Default }

// AferoFileSystem adapts any afero.Fs, e.g. afero.NewMemMapFs().
func AferoFileSystem(fsys afero.Fs) FileSystem { return fs.NewAferoFS(fsys) }

// Runtime is the handle every file operation borrows to route its blocking
// work onto workers. It is shared, never owned, by the files opened through it
// and must outlive them.
type Runtime struct {
	sched   Scheduler
	pool    *dispatch.Pool // nil when an external scheduler is used
	fsys    fs.FileSystem
	logger  *Logger
	metrics MetricsCollector
	clock   clockwork.Clock
	limits  *resource.Controller
	disk    atomic.Pointer[resource.DiskQuota]
	closed  atomic.Bool

	stopsMu sync.Mutex
	stops   []func()
}

// NewRuntime creates a Runtime. Without WithScheduler it starts its own worker pool.
func NewRuntime(optFns ...Option) *Runtime {
	opts := options{
		fileSystem: fs.Default,
		logger:     NewLogger(nil),
		clock:      clockwork.NewRealClock(),
		metrics:    NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	rt := &Runtime{
		sched:   opts.scheduler,
		fsys:    opts.fileSystem,
		logger:  opts.logger,
		metrics: opts.metrics,
		clock:   opts.clock,
		limits:  resource.NewController(resource.Config{
			MaxInFlight:        opts.maxInFlight,
			IOLimitBytesPerSec: opts.ioLimit,
		}),
	}

	if rt.sched == nil {
		rt.pool = dispatch.NewPool(opts.workers, func(o *dispatch.PoolOptions) {
			o.Clock = opts.clock
		})
		rt.sched = rt.pool
	}

	cfg := rt.limits.Config()
	rt.logger.LogRuntime(context.Background(), rt.pool.Workers(), cfg.MaxInFlight, cfg.IOLimitBytesPerSec)

	return rt
}

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *Logger { return rt.logger }

// FileSystem returns the filesystem blocking calls are issued against.
func (rt *Runtime) FileSystem() FileSystem { return rt.fsys }

// every schedules a recurring task whose lifetime is bound to the runtime.
func (rt *Runtime) every(interval time.Duration, task func()) error {
	rt.stopsMu.Lock()
	defer rt.stopsMu.Unlock()

	if rt.closed.Load() {
		return fmt.Errorf("%w: runtime closed", ErrSchedulerUnavailable)
	}
	stop, err := rt.sched.Every(interval, task)
	if err != nil {
		return translateError(err)
	}
	rt.stops = append(rt.stops, stop)
	return nil
}

func (rt *Runtime) diskQuota() *resource.DiskQuota {
	return rt.disk.Load()
}

// submit is the single chokepoint through which every blocking call is pushed
// to a worker. If it returns an error, op never runs.
func submit[T any](ctx context.Context, rt *Runtime, op func(fsys fs.FileSystem) (T, error)) (*dispatch.Future[T], error) {
	if rt == nil || rt.closed.Load() {
		return nil, fmt.Errorf("%w: runtime closed", ErrSchedulerUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := rt.limits.AcquireInFlight(ctx); err != nil {
		return nil, err
	}

	f, err := dispatch.Go(ctx, rt.sched, func() (T, error) {
		defer rt.limits.ReleaseInFlight()
		return op(rt.fsys)
	})
	if err != nil {
		rt.limits.ReleaseInFlight()
		return nil, translateError(err)
	}
	return f, nil
}

// run dispatches op and waits for it. The caller waits on the result without
// holding a worker.
func run[T any](ctx context.Context, rt *Runtime, op func(fsys fs.FileSystem) (T, error)) (T, error) {
	f, err := submit(ctx, rt, op)
	if err != nil {
		var zero T
		return zero, err
	}

	v, err := f.Await(ctx)
	if err != nil {
		return v, translateError(err)
	}
	return v, nil
}

// exec is run for operations without a result value.
func exec(ctx context.Context, rt *Runtime, op func(fsys fs.FileSystem) error) error {
	_, err := run(ctx, rt, func(fsys fs.FileSystem) (struct{}, error) {
		return struct{}{}, op(fsys)
	})
	return err
}
