package resource

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/c2h5oh/datasize"
	"golang.org/x/sync/semaphore"
)

// ErrDiskQuotaExceeded is returned when a reservation does not fit the remaining disk budget.
var ErrDiskQuotaExceeded = errors.New("disk quota exceeded")

// DiskQuota simulates constrained disk capacity.
//
// The budget is TotalQuota minus ReservedHeadroom. Every write reserves its
// length before touching the disk. Reservations of writes that succeed are
// never returned; failed writes release what they did not write.
//
// When a volume probe is attached (SetVolumeAvailable), a reservation must
// also leave ReservedHeadroom free on the real volume.
type DiskQuota struct {
	headroom uint64
	total    uint64
	budget   uint64

	sem  *semaphore.Weighted
	used atomic.Uint64

	// volumeAvail is the last probed free space; probed reports whether a probe ran.
	volumeAvail atomic.Uint64
	probed      atomic.Bool
}

// NewDiskQuota creates a quota with the given headroom and total, both in bytes.
func NewDiskQuota(reservedHeadroom, totalQuota uint64) *DiskQuota {
	var budget uint64
	if totalQuota > reservedHeadroom {
		budget = min(totalQuota-reservedHeadroom, math.MaxInt64)
	}

	q := &DiskQuota{
		headroom: reservedHeadroom,
		total:    totalQuota,
		budget:   budget,
	}
	if budget > 0 {
		q.sem = semaphore.NewWeighted(int64(budget)) //nolint:gosec // clamped to MaxInt64
	}
	return q
}

// Reserve provisionally consumes bytes from the budget.
// Returns ErrDiskQuotaExceeded without side effects if it does not fit.
// Non-blocking - callers control retry policy.
func (q *DiskQuota) Reserve(bytes uint64) error {
	if q == nil || bytes == 0 {
		return nil
	}
	if q.sem == nil || bytes > q.budget {
		return ErrDiskQuotaExceeded
	}

	if q.probed.Load() {
		avail := q.volumeAvail.Load()
		if avail <= q.headroom || avail-q.headroom < bytes {
			return ErrDiskQuotaExceeded
		}
	}

	if !q.sem.TryAcquire(int64(bytes)) { //nolint:gosec // bounded by budget above
		return ErrDiskQuotaExceeded
	}
	q.used.Add(bytes)
	return nil
}

// Release returns bytes of an earlier reservation to the budget.
func (q *DiskQuota) Release(bytes uint64) {
	if q == nil || bytes == 0 || q.sem == nil {
		return
	}
	q.sem.Release(int64(bytes)) //nolint:gosec // never more than reserved
	q.used.Add(^(bytes - 1))
}

// SetVolumeAvailable records the latest probed free space of the real volume.
func (q *DiskQuota) SetVolumeAvailable(bytes uint64) {
	if q == nil {
		return
	}
	q.volumeAvail.Store(bytes)
	q.probed.Store(true)
}

// Used returns the reserved bytes.
func (q *DiskQuota) Used() uint64 {
	if q == nil {
		return 0
	}
	return q.used.Load()
}

// Available returns the bytes left in the simulated budget.
func (q *DiskQuota) Available() uint64 {
	if q == nil {
		return 0
	}
	return q.budget - q.Used()
}

// Headroom returns the configured reserved headroom.
func (q *DiskQuota) Headroom() datasize.ByteSize {
	if q == nil {
		return 0
	}
	return datasize.ByteSize(q.headroom)
}

// Total returns the configured total quota.
func (q *DiskQuota) Total() datasize.ByteSize {
	if q == nil {
		return 0
	}
	return datasize.ByteSize(q.total)
}
