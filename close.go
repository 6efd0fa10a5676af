package asyncfile

// Close releases resources held by this Runtime.
//
// It stops recurring tasks started through the runtime (volume probes) and,
// when the runtime owns its worker pool, drains and stops the pool. Later
// operations fail with ErrSchedulerUnavailable. Close is idempotent.
func (rt *Runtime) Close() error {
	if rt == nil {
		return nil
	}

	rt.stopsMu.Lock()
	if !rt.closed.CompareAndSwap(false, true) {
		rt.stopsMu.Unlock()
		return nil
	}
	stops := rt.stops
	rt.stops = nil
	rt.stopsMu.Unlock()

	for _, stop := range stops {
		stop()
	}
	if rt.pool != nil {
		rt.pool.Close()
	}
	return nil
}
