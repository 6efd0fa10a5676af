// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: An open file with positioned read/write, truncate, sync and stat
//   - [FileSystem]: Path-level operations (open, stat, mkdir, remove, rename)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using the standard os package
//   - [AferoFS]: Any afero.Fs backend (e.g. afero.NewMemMapFs for tests)
//   - [FaultyFS]: Test utility for fault injection (I/O errors, short writes)
//
// # Durability and capacity helpers
//
//   - [Datasync]: fdatasync(2) on Linux, fsync elsewhere
//   - [VolumeAvailable]: statfs(2)-based free space of the volume holding a path
//
// # Design Notes
//
// This package is deliberately synchronous and has no context.Context parameters.
// Every call here blocks; callers that must not block hand these calls to a
// worker through the dispatch package.
package fs
