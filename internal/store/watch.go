package store

import "sync"

// watcher fans out change signals to live-subscription consumers.
// Signal channels are buffered with capacity 1 and sends never block:
// a watcher that has not drained its channel keeps exactly one pending
// signal, which is enough because consumers re-query the full set.
type watcher struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan struct{}
}

func newWatcher() *watcher {
	return &watcher{
		subs: make(map[string]map[int]chan struct{}),
	}
}

// subscribe registers a signal channel for a collection and returns it
// together with a cancel func that releases the subscription.
func (w *watcher) subscribe(collection string) (<-chan struct{}, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.subs[collection] == nil {
		w.subs[collection] = make(map[int]chan struct{})
	}

	id := w.next
	w.next++

	ch := make(chan struct{}, 1)
	w.subs[collection][id] = ch

	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs[collection], id)
	}

	return ch, cancel
}

// notify pings every subscriber of a collection without blocking.
func (w *watcher) notify(collection string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ch := range w.subs[collection] {
		select {
		case ch <- struct{}{}:
		default:
			// A signal is already pending; coalesce.
		}
	}
}
