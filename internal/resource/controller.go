package resource

import (
	"context"

	"github.com/c2h5oh/datasize"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds dispatch limits.
type Config struct {
	// MaxInFlight is the maximum number of blocking calls handed to workers at once.
	// If 0, no limit is enforced beyond the scheduler's own capacity.
	MaxInFlight int64

	// IOLimitBytesPerSec is the maximum read/write throughput across the runtime.
	// If 0, unlimited.
	IOLimitBytesPerSec datasize.ByteSize
}

// Controller manages runtime-wide dispatch resources (concurrency, IO).
type Controller struct {
	cfg Config

	// Concurrency
	inflight *semaphore.Weighted // nil if unlimited

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MaxInFlight > 0 {
		c.inflight = semaphore.NewWeighted(cfg.MaxInFlight)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		limit := int(cfg.IOLimitBytesPerSec.Bytes()) //nolint:gosec // config value
		c.ioLimiter = rate.NewLimiter(rate.Limit(limit), limit)
	}

	return c
}

// Config returns the configuration the controller was built with.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// AcquireInFlight reserves a dispatch slot, blocking while all slots are busy.
func (c *Controller) AcquireInFlight(ctx context.Context) error {
	if c == nil || c.inflight == nil {
		return nil
	}
	return c.inflight.Acquire(ctx, 1)
}

// ReleaseInFlight releases a dispatch slot.
func (c *Controller) ReleaseInFlight() {
	if c == nil || c.inflight == nil {
		return
	}
	c.inflight.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
//
// Requests larger than the bucket are split into bucket-sized waits so a
// single large write is throttled instead of rejected.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil || bytes <= 0 {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
