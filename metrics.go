package asyncfile

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Methods are called on the caller's goroutine after the operation resolved.
// An abandoned wait is recorded with the context error.
type MetricsCollector interface {
	// RecordOpen is called after each Open.
	RecordOpen(duration time.Duration, err error)

	// RecordRead is called after each Read. bytes is the length returned.
	RecordRead(bytes int, duration time.Duration, err error)

	// RecordWrite is called after each Write. bytes is the length written,
	// which may be non-zero on error.
	RecordWrite(bytes int, duration time.Duration, err error)

	// RecordSync is called after each Sync on a File.
	RecordSync(duration time.Duration, err error)

	// RecordFileOp is called after other operations on an open File
	// (truncate, refresh).
	RecordFileOp(op string, duration time.Duration, err error)

	// RecordPathOp is called after each path-level operation
	// (mkdir, rmdir, remove, rename).
	RecordPathOp(op string, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOpen(time.Duration, error)           {}
func (NoopMetricsCollector) RecordRead(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordWrite(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordSync(time.Duration, error)           {}
func (NoopMetricsCollector) RecordFileOp(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordPathOp(string, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	OpenCount       atomic.Int64
	OpenErrors      atomic.Int64
	ReadCount       atomic.Int64
	ReadErrors      atomic.Int64
	ReadBytes       atomic.Int64
	ReadTotalNanos  atomic.Int64
	WriteCount      atomic.Int64
	WriteErrors     atomic.Int64
	WriteBytes      atomic.Int64
	WriteTotalNanos atomic.Int64
	SyncCount       atomic.Int64
	SyncErrors      atomic.Int64
	FileOpCount     atomic.Int64
	FileOpErrors    atomic.Int64
	PathOpCount     atomic.Int64
	PathOpErrors    atomic.Int64
}

// RecordOpen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOpen(_ time.Duration, err error) {
	b.OpenCount.Add(1)
	if err != nil {
		b.OpenErrors.Add(1)
	}
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(bytes int, duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadBytes.Add(int64(bytes))
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(bytes int, duration time.Duration, err error) {
	b.WriteCount.Add(1)
	b.WriteBytes.Add(int64(bytes))
	b.WriteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteErrors.Add(1)
	}
}

// RecordSync implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSync(_ time.Duration, err error) {
	b.SyncCount.Add(1)
	if err != nil {
		b.SyncErrors.Add(1)
	}
}

// RecordFileOp implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFileOp(_ string, _ time.Duration, err error) {
	b.FileOpCount.Add(1)
	if err != nil {
		b.FileOpErrors.Add(1)
	}
}

// RecordPathOp implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPathOp(_ string, _ time.Duration, err error) {
	b.PathOpCount.Add(1)
	if err != nil {
		b.PathOpErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		OpenCount:     b.OpenCount.Load(),
		OpenErrors:    b.OpenErrors.Load(),
		ReadCount:     b.ReadCount.Load(),
		ReadErrors:    b.ReadErrors.Load(),
		ReadBytes:     b.ReadBytes.Load(),
		ReadAvgNanos:  avgNanos(b.ReadTotalNanos.Load(), b.ReadCount.Load()),
		WriteCount:    b.WriteCount.Load(),
		WriteErrors:   b.WriteErrors.Load(),
		WriteBytes:    b.WriteBytes.Load(),
		WriteAvgNanos: avgNanos(b.WriteTotalNanos.Load(), b.WriteCount.Load()),
		SyncCount:     b.SyncCount.Load(),
		SyncErrors:    b.SyncErrors.Load(),
		FileOpCount:   b.FileOpCount.Load(),
		FileOpErrors:  b.FileOpErrors.Load(),
		PathOpCount:   b.PathOpCount.Load(),
		PathOpErrors:  b.PathOpErrors.Load(),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	OpenCount     int64
	OpenErrors    int64
	ReadCount     int64
	ReadErrors    int64
	ReadBytes     int64
	ReadAvgNanos  int64
	WriteCount    int64
	WriteErrors   int64
	WriteBytes    int64
	WriteAvgNanos int64
	SyncCount     int64
	SyncErrors    int64
	FileOpCount   int64
	FileOpErrors  int64
	PathOpCount   int64
	PathOpErrors  int64
}
