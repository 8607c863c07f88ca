// Package feed implements the notification aggregation engine: live
// subscription sources over the store, normalization of notifications
// and invitations into one item shape, a recomputing aggregator, and
// the action coordinator that executes mark-read/accept/decline with
// per-item in-flight guards.
package feed

import (
	"context"
	"fmt"
	"time"
)

// Snapshot is one emission from a subscription source: the full current
// matching set, never a diff. Version increases by one per emission.
// Err is set when the underlying query failed; Items is empty then and
// the aggregator treats the source as contributing nothing until a
// later snapshot clears the error.
type Snapshot[T any] struct {
	Items   []T
	Version uint64
	Err     error
}

// QueryFunc runs the source's store query and returns the full current
// matching set. Owner scope, predicate, and ordering are baked in by
// whoever constructs the source.
type QueryFunc[T any] func(ctx context.Context) ([]T, error)

// Source wraps one live query against the store. It re-runs the query
// whenever the store signals a change on the watched collection, and on
// a fallback ticker that also serves as the retry path after a failed
// query.
type Source[T any] struct {
	name     string
	query    QueryFunc[T]
	changes  <-chan struct{}
	interval time.Duration
	out      chan Snapshot[T]
}

// NewSource creates a subscription source. changes is the store's
// change-signal channel for the queried collection; interval is the
// fallback re-query period.
func NewSource[T any](
	name string,
	query QueryFunc[T],
	changes <-chan struct{},
	interval time.Duration,
) *Source[T] {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Source[T]{
		name:     name,
		query:    query,
		changes:  changes,
		interval: interval,
		out:      make(chan Snapshot[T], 1),
	}
}

// Snapshots returns the emission channel. It carries the latest
// snapshot only: an undrained emission is replaced, not queued. The
// channel closes when Run returns.
func (s *Source[T]) Snapshots() <-chan Snapshot[T] {
	return s.out
}

// Run executes the subscription loop until ctx ends. An initial
// snapshot is emitted immediately; afterwards the source re-queries on
// every change signal and ticker tick. Nothing is emitted after
// cancellation.
func (s *Source[T]) Run(ctx context.Context) {
	defer close(s.out)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var version uint64

	emit := func() {
		items, err := s.query(ctx)
		if ctx.Err() != nil {
			// Torn down while the query was in flight.
			return
		}

		version++
		snap := Snapshot[T]{Items: items, Version: version}
		if err != nil {
			snap.Items = nil
			snap.Err = fmt.Errorf("%s subscription: %w", s.name, err)
		}
		s.send(snap)
	}

	emit()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.changes:
			emit()
		case <-ticker.C:
			emit()
		}
	}
}

// send delivers a snapshot without blocking, replacing any undelivered
// previous one. Run is the only sender, so drain-then-send is safe.
func (s *Source[T]) send(snap Snapshot[T]) {
	select {
	case s.out <- snap:
	default:
		select {
		case <-s.out:
		default:
		}
		s.out <- snap
	}
}
