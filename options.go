package asyncfile

import (
	"github.com/c2h5oh/datasize"
	"github.com/hupe1980/asyncfile/internal/fs"
	"github.com/jonboulle/clockwork"
)

type options struct {
	scheduler   Scheduler
	workers     int
	fileSystem  fs.FileSystem
	logger      *Logger
	ioLimit     datasize.ByteSize
	maxInFlight int64
	clock       clockwork.Clock
	metrics     MetricsCollector
}

// Option configures NewRuntime.
type Option func(*options)

// WithScheduler runs blocking work on an external scheduler instead of the
// runtime's own worker pool. The runtime never closes an external scheduler.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithWorkers sets the size of the runtime's own worker pool.
// Ignored when WithScheduler is used.
//
// If n <= 0, 2x GOMAXPROCS workers are started.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithFileSystem replaces the local filesystem every blocking call goes to.
//
// If nil is passed, fs.Default is used.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fileSystem = fsys
	}
}

// WithLogger configures the logger. Pass nil to disable logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithIOLimit throttles read and write bytes across the runtime.
// Zero disables throttling.
func WithIOLimit(bytesPerSec datasize.ByteSize) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithMaxInFlight bounds how many blocking calls may be dispatched at once.
// Useful with an external scheduler whose capacity is unbounded.
// Zero disables the bound.
func WithMaxInFlight(n int64) Option {
	return func(o *options) {
		o.maxInFlight = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &asyncfile.BasicMetricsCollector{}
//	rt := asyncfile.NewRuntime(asyncfile.WithMetricsCollector(metrics))
//	// ... perform file operations ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithClock sets the clock that drives recurring tasks of the runtime's own pool
// and times operations for the metrics collector.
//
// If nil is passed, the real clock is used.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c == nil {
			c = clockwork.NewRealClock()
		}
		o.clock = c
	}
}
