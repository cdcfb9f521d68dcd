package client

import "sync"

// refresher is the single-flight state for session refresh.
// The queue is non-empty only while refreshing is set, and settle drains it
// before clearing the flag.
type refresher struct {
	mu         sync.Mutex
	refreshing bool
	queue      []chan error
}

// join either elects the caller as refresh leader or enqueues it behind the
// in-flight refresh. Waiters receive exactly one value: nil on success or the
// refresh error.
func (r *refresher) join() (leader bool, wait <-chan error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refreshing {
		ch := make(chan error, 1)
		r.queue = append(r.queue, ch)
		return false, ch
	}
	r.refreshing = true
	return true, nil
}

// settle releases every queued caller in enqueue order and resets the state.
// It returns the number of callers released.
func (r *refresher) settle(err error) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.queue)
	for _, ch := range r.queue {
		ch <- err
	}
	r.queue = nil
	r.refreshing = false
	return n
}

func (r *refresher) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}
