package asyncfile

import (
	"context"
	"log/slog"
	"os"

	"github.com/c2h5oh/datasize"
)

// Logger wraps slog.Logger with asyncfile-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// LogOp logs a dispatched filesystem operation.
func (l *Logger) LogOp(ctx context.Context, op, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "file operation failed",
			"op", op,
			"path", path,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "file operation completed",
			"op", op,
			"path", path,
		)
	}
}

// LogOpen logs an open.
func (l *Logger) LogOpen(ctx context.Context, path string, mode OpenMode, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"path", path,
			"mode", mode.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "open completed",
			"path", path,
			"mode", mode.String(),
			"size", size,
		)
	}
}

// LogWrite logs a write.
func (l *Logger) LogWrite(ctx context.Context, path string, offset int64, written int, opts WriteOptions, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"path", path,
			"offset", offset,
			"written", written,
			"options", opts.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "write completed",
			"path", path,
			"offset", offset,
			"written", written,
			"options", opts.String(),
		)
	}
}

// LogRuntime logs the limits a runtime was created with. workers is 0 when
// an external scheduler is used.
func (l *Logger) LogRuntime(ctx context.Context, workers int, maxInFlight int64, ioLimit datasize.ByteSize) {
	l.DebugContext(ctx, "runtime started",
		"workers", workers,
		"max_in_flight", maxInFlight,
		"io_limit", ioLimit.HumanReadable(),
	)
}

// LogDiskQuota logs installation of the disk-capacity simulator.
func (l *Logger) LogDiskQuota(ctx context.Context, headroom, total datasize.ByteSize, volumePath string) {
	l.InfoContext(ctx, "disk availables initialized",
		"reserved_headroom", headroom.HumanReadable(),
		"total_quota", total.HumanReadable(),
		"volume", volumePath,
	)
}

// LogVolumeProbe logs a failed probe of real volume space.
func (l *Logger) LogVolumeProbe(ctx context.Context, volumePath string, err error) {
	l.WarnContext(ctx, "volume probe failed",
		"volume", volumePath,
		"error", err,
	)
}
