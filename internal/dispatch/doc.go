// Package dispatch moves blocking calls off the caller onto worker goroutines.
//
// [Pool] is a fixed set of workers fed through a bounded channel; [Go] and
// [Do] wrap one blocking operation into a [Future] the caller waits on.
//
//	pool := dispatch.NewPool(8)
//	defer pool.Close()
//
//	n, err := dispatch.Do(ctx, pool, func() (int, error) {
//	    return f.WriteAt(buf, off)
//	})
//
// Every operation runs exactly once. Panics are recovered on the worker and
// returned as *PanicError. Cancelling ctx only abandons the wait.
package dispatch
