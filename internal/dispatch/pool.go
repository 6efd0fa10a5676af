package dispatch

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// PoolOptions configures a Pool.
type PoolOptions struct {
	// QueueSize is the capacity of the pending-work channel.
	// If 0, defaults to 2x the number of workers.
	QueueSize int

	// Clock drives recurring tasks started with Every.
	// If nil, the real clock is used.
	Clock clockwork.Clock
}

// Pool manages a fixed pool of goroutines that run blocking work.
type Pool struct {
	numWorkers int
	workCh     chan func() // Channel carries work closures
	stopCh     chan struct{}
	wg         sync.WaitGroup
	closed     atomic.Bool // Tracks if pool is closed
	submitMu   sync.RWMutex
	clock      clockwork.Clock

	tickersMu sync.Mutex
	tickers   map[int]func()
	nextTick  int
}

// NewPool creates a worker pool with numWorkers goroutines.
//
// Recommended sizing: file I/O is blocking, so 2-4x GOMAXPROCS keeps the
// pool busy while some workers sit in syscalls.
func NewPool(numWorkers int, optFns ...func(o *PoolOptions)) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0) * 2
	}

	opts := PoolOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = numWorkers * 2 // 2x buffer for pipelining
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	p := &Pool{
		numWorkers: numWorkers,
		workCh:     make(chan func(), opts.QueueSize),
		stopCh:     make(chan struct{}),
		clock:      opts.Clock,
		tickers:    make(map[int]func()),
	}

	// Start worker goroutines
	p.wg.Add(numWorkers)
	for range numWorkers {
		go p.worker()
	}

	return p
}

// Workers returns the number of worker goroutines. A nil pool has none.
func (p *Pool) Workers() int {
	if p == nil {
		return 0
	}
	return p.numWorkers
}

// worker processes work closures from the work channel.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			// Drain remaining work before exiting
			for {
				select {
				case task, ok := <-p.workCh:
					if !ok {
						return
					}
					task()
				default:
					return
				}
			}
		case task, ok := <-p.workCh:
			if !ok {
				return
			}
			task()
		}
	}
}

// Spawn submits a task to the worker pool.
//
// The function returns immediately after enqueueing the work.
//
// Error conditions:
//   - Returns ErrUnavailable if pool is closed
//   - Returns ctx.Err() if context is cancelled before enqueueing
func (p *Pool) Spawn(ctx context.Context, task func()) error {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()

	// Check if closed first
	if p.closed.Load() {
		return ErrUnavailable
	}

	// Enqueue work (with backpressure)
	select {
	case p.workCh <- task:
		return nil
	case <-p.stopCh:
		return ErrUnavailable
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Every runs task every interval on a dedicated goroutine until the returned
// stop function is called or the pool is closed. stop is idempotent and waits
// for a running task to return.
func (p *Pool) Every(interval time.Duration, task func()) (func(), error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	p.tickersMu.Lock()
	if p.closed.Load() {
		p.tickersMu.Unlock()
		return nil, ErrUnavailable
	}

	ticker := p.clock.NewTicker(interval)
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.Chan():
				task()
			}
		}
	}()

	var once sync.Once
	id := p.nextTick
	p.nextTick++
	stop := func() {
		once.Do(func() {
			close(done)
			<-exited

			p.tickersMu.Lock()
			delete(p.tickers, id)
			p.tickersMu.Unlock()
		})
	}
	p.tickers[id] = stop
	p.tickersMu.Unlock()

	return stop, nil
}

// Close stops recurring tasks and shuts down the worker pool gracefully.
// Work already queued is drained before Close returns.
func (p *Pool) Close() {
	p.tickersMu.Lock()
	// Mark as closed (atomic, idempotent)
	if !p.closed.CompareAndSwap(false, true) {
		p.tickersMu.Unlock()
		return
	}
	stops := make([]func(), 0, len(p.tickers))
	for _, stop := range p.tickers {
		stops = append(stops, stop)
	}
	p.tickersMu.Unlock()

	for _, stop := range stops {
		stop()
	}

	p.submitMu.Lock()
	close(p.stopCh)
	close(p.workCh)
	p.submitMu.Unlock()

	p.wg.Wait()
}
