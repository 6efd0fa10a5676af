// Package asyncfile provides non-blocking file access for context-driven Go
// programs.
//
// Every blocking filesystem call (open, read, write, truncate, fsync, mkdir,
// remove, rename) is handed to a worker of a Runtime and awaited with a
// context. The caller waits without holding a worker, and a caller that stops
// waiting leaves the call to finish on its worker.
//
// # Quick Start
//
//	rt := asyncfile.NewRuntime()
//	defer rt.Close()
//
//	f, err := asyncfile.Open(ctx, rt, "data.bin", asyncfile.ReadWrite)
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//
//	if _, err := f.Write(ctx, 0, payload, asyncfile.SyncAll(true)); err != nil {
//		return err
//	}
//	buf, err := f.Read(ctx, 0, 4096)
//
// # Open Modes
//
//   - ReadOnly: the file must exist.
//   - ReadWrite: created if missing, content preserved.
//   - TruncateReadWrite: created if missing, content discarded at open.
//
// # Write Options
//
//	asyncfile.NoSync()      // hand data to the OS
//	asyncfile.Sync(true)    // fdatasync before Write returns
//	asyncfile.SyncAll(true) // fsync before Write returns
//	asyncfile.Truncate()    // file length becomes offset+written
//
// # Disk Capacity Simulation
//
// InitDiskAvailables installs a byte budget on a Runtime. Each write reserves
// its length before any syscall and fails with ErrOutOfSpace when the budget
// cannot cover it:
//
//	_ = asyncfile.InitDiskAvailables(rt, 64<<20, 1<<30)
//
// # Errors
//
// Errors are classified into ErrNotFound, ErrAlreadyExists,
// ErrPermissionDenied, ErrIsADirectory, ErrDirectoryNotEmpty, ErrCrossDevice,
// ErrOutOfSpace, ErrSchedulerUnavailable and ErrIo. The underlying
// *fs.PathError or *os.LinkError stays reachable with errors.As.
//
// # Testing
//
// WithFileSystem swaps the backing filesystem, e.g. an afero.MemMapFs through
// AferoFileSystem.
package asyncfile
