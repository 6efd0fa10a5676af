package asyncfile

import (
	"fmt"
	"os"
)

// OpenMode selects how Open treats the target file.
type OpenMode int

const (
	// ReadOnly opens an existing file for reading. A missing file fails with ErrNotFound.
	ReadOnly OpenMode = iota
	// ReadWrite opens for reading and writing, creating the file if missing and
	// preserving existing content.
	ReadWrite
	// TruncateReadWrite is ReadWrite that discards existing content as part of
	// the open call itself (O_TRUNC), not as a separate truncate step.
	TruncateReadWrite
)

func (m OpenMode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	case TruncateReadWrite:
		return "truncate-read-write"
	default:
		return fmt.Sprintf("OpenMode(%d)", int(m))
	}
}

func (m OpenMode) valid() bool {
	return m >= ReadOnly && m <= TruncateReadWrite
}

// flags returns the os.OpenFile flags for m.
func (m OpenMode) flags() int {
	switch m {
	case ReadWrite:
		return os.O_RDWR | os.O_CREATE
	case TruncateReadWrite:
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC
	default:
		return os.O_RDONLY
	}
}

func (m OpenMode) onlyRead() bool { return m == ReadOnly }

type writeKind uint8

const (
	writeNone writeKind = iota
	writeSync
	writeSyncAll
	writeTruncate
)

// WriteOptions selects durability and truncation behavior of File.Write.
//
// Build values with NoSync, Sync, SyncAll or Truncate.
type WriteOptions struct {
	kind    writeKind
	barrier bool
}

// NoSync hands the data to the OS and returns without a durability barrier.
func NoSync() WriteOptions { return WriteOptions{kind: writeNone} }

// Sync flushes file data. With barrier set, fdatasync(2) is issued before the
// write resolves; without it the data is only handed to the OS.
func Sync(barrier bool) WriteOptions { return WriteOptions{kind: writeSync, barrier: barrier} }

// SyncAll flushes file data and metadata (size, timestamps). With barrier set,
// fsync(2) is issued before the write resolves.
func SyncAll(barrier bool) WriteOptions { return WriteOptions{kind: writeSyncAll, barrier: barrier} }

// Truncate sets the file length to offset+written after the write, discarding
// trailing bytes of prior content. It does not force durability.
func Truncate() WriteOptions { return WriteOptions{kind: writeTruncate} }

func (o WriteOptions) truncates() bool { return o.kind == writeTruncate }

type syncLevel uint8

const (
	syncNone syncLevel = iota
	syncData           // fdatasync
	syncFull           // fsync
)

func (o WriteOptions) syncLevel() syncLevel {
	if !o.barrier {
		return syncNone
	}
	switch o.kind {
	case writeSync:
		return syncData
	case writeSyncAll:
		return syncFull
	default:
		return syncNone
	}
}

func (o WriteOptions) String() string {
	switch o.kind {
	case writeSync:
		return fmt.Sprintf("Sync(%t)", o.barrier)
	case writeSyncAll:
		return fmt.Sprintf("SyncAll(%t)", o.barrier)
	case writeTruncate:
		return "Truncate"
	default:
		return "NoSync"
	}
}
