package asyncfile

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/asyncfile/internal/fs"
	"github.com/hupe1980/asyncfile/internal/resource"
)

// DefaultVolumeRefreshInterval is how often a volume probe runs when
// DiskOptions.RefreshInterval is unset.
const DefaultVolumeRefreshInterval = time.Second

// DiskOptions configures InitDiskAvailables.
type DiskOptions struct {
	// VolumePath, if set, ties the quota to the free space of the volume
	// holding this path. Writes are rejected once free space minus the
	// reserved headroom would not fit them.
	VolumePath string

	// RefreshInterval is the volume probe period.
	RefreshInterval time.Duration

	probe func(path string) (uint64, error)
}

// InitDiskAvailables installs the disk-capacity simulator on rt. From then
// on every write first reserves its length out of totalQuota minus
// reservedHeadroom and fails with ErrOutOfSpace when it does not fit.
//
// It may be called once per Runtime; later calls return ErrAlreadyInitialized.
func InitDiskAvailables(rt *Runtime, reservedHeadroom, totalQuota uint64, optFns ...func(*DiskOptions)) error {
	if rt == nil || rt.closed.Load() {
		return fmt.Errorf("%w: runtime closed", ErrSchedulerUnavailable)
	}

	opts := DiskOptions{
		RefreshInterval: DefaultVolumeRefreshInterval,
		probe:           fs.VolumeAvailable,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	q := resource.NewDiskQuota(reservedHeadroom, totalQuota)

	ctx := context.Background()
	if opts.VolumePath != "" {
		// The first probe runs before install so no write slips past an empty volume.
		avail, err := opts.probe(opts.VolumePath)
		if err != nil {
			return translateError(err)
		}
		q.SetVolumeAvailable(avail)
	}

	if !rt.disk.CompareAndSwap(nil, q) {
		return ErrAlreadyInitialized
	}

	if opts.VolumePath != "" {
		refresh := func() {
			avail, err := opts.probe(opts.VolumePath)
			if err != nil {
				rt.logger.LogVolumeProbe(ctx, opts.VolumePath, err)
				return
			}
			q.SetVolumeAvailable(avail)
		}
		if err := rt.every(opts.RefreshInterval, refresh); err != nil {
			rt.disk.CompareAndSwap(q, nil)
			return err
		}
	}

	rt.logger.LogDiskQuota(ctx, q.Headroom(), q.Total(), opts.VolumePath)
	return nil
}

// DiskAvailable returns the bytes left in the simulated disk budget. The
// second result is false if InitDiskAvailables has not been called.
func (rt *Runtime) DiskAvailable() (uint64, bool) {
	q := rt.diskQuota()
	if q == nil {
		return 0, false
	}
	return q.Available(), true
}
