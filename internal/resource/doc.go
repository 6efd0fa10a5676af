// Package resource implements runtime-wide limits for dispatched file I/O.
//
// Two independent pieces live here:
//
//   - [Controller]: bounds concurrent dispatched calls and throttles IO bytes
//   - [DiskQuota]: the disk-capacity simulator consulted before every write
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                          Runtime                            │
//	├──────────────────┬──────────────────┬───────────────────────┤
//	│  In-flight slots │  IO rate limiter │  Disk quota           │
//	│  (semaphore)     │  (token bucket)  │  (fail-fast sem)      │
//	├──────────────────┼──────────────────┼───────────────────────┤
//	│  AcquireInFlight │  AcquireIO       │  Reserve              │
//	│  ReleaseInFlight │                  │  Release              │
//	│                  │                  │  SetVolumeAvailable   │
//	└──────────────────┴──────────────────┴───────────────────────┘
//
// # Disk Quota
//
// The quota uses a weighted semaphore sized to TotalQuota - ReservedHeadroom.
// Reserve is non-blocking and returns ErrDiskQuotaExceeded immediately if the
// bytes do not fit, so two concurrent writers can never both succeed against
// the same remaining budget:
//
//	q := resource.NewDiskQuota(10, 5000) // 4990 bytes of budget
//
//	if err := q.Reserve(uint64(len(buf))); err != nil {
//	    // ErrDiskQuotaExceeded - no syscall was made
//	}
//
// # Thread Safety
//
// All methods are safe for concurrent use.
//
// # Nil Safety
//
// All methods handle a nil receiver gracefully - they become no-ops. A runtime
// without an installed quota simply holds a nil *DiskQuota.
package resource
