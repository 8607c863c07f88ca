package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/nhle/teamdeck/internal/model"
)

// State is the aggregated feed published to presentation callers. It is
// rebuilt as a pure function of the latest source snapshots on every
// emission; items are never created or destroyed individually.
type State struct {
	// Items is the unified list, sorted by creation time descending.
	// On equal timestamps notification items precede invite items.
	Items []model.UnifiedNotification

	// RawInvitations are the invitation records behind the invite
	// items, kept so the action coordinator can accept/decline with
	// full record context and no second read.
	RawInvitations []model.Invitation

	// Loading is true until every source has delivered its first
	// snapshot. The engine layers identity resolution on top: before
	// a session exists the published state is also loading.
	Loading bool

	// Err is the first subscription error across sources; the
	// notification source wins when both fail.
	Err error

	// Version increases by one per recomputation.
	Version uint64
}

// Count returns the number of items in the aggregated list.
func (s State) Count() int {
	return len(s.Items)
}

// Invitation returns the raw invitation record with the given id, if it
// is present in the latest snapshot.
func (s State) Invitation(id string) (model.Invitation, bool) {
	for _, inv := range s.RawInvitations {
		if inv.ID == id {
			return inv, true
		}
	}
	return model.Invitation{}, false
}

// Aggregator merges the latest snapshot of the notification source and
// the invitation source into one deduplicated, time-ordered list. The
// two sources are independent: the aggregator recomputes on every
// emission and treats a source that has not delivered yet as an empty
// contribution rather than a blocking condition.
type Aggregator struct {
	mu      sync.Mutex
	notifs  *Snapshot[model.Notification]
	invs    *Snapshot[model.Invitation]
	state   State
	version uint64

	updates chan State
}

// NewAggregator creates an Aggregator whose initial state is loading
// and empty.
func NewAggregator() *Aggregator {
	return &Aggregator{
		state:   State{Loading: true},
		updates: make(chan State, 1),
	}
}

// Updates returns the recomputation channel. It carries the latest
// state only: an unconsumed state is replaced, not queued. The channel
// closes when Run returns, so range consumers terminate with it.
func (a *Aggregator) Updates() <-chan State {
	return a.updates
}

// Current returns the latest aggregated state. Safe to call while an
// action write is in flight; the state always reflects the latest known
// snapshots, never a cached stale pair.
func (a *Aggregator) Current() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Run consumes both snapshot channels until ctx ends or both channels
// close, recomputing the aggregated state on every emission. On return
// it closes the updates channel; Run is the only sender, so the close
// cannot race a publish.
func (a *Aggregator) Run(
	ctx context.Context,
	notifCh <-chan Snapshot[model.Notification],
	invCh <-chan Snapshot[model.Invitation],
) {
	defer close(a.updates)

	for notifCh != nil || invCh != nil {
		select {
		case <-ctx.Done():
			return

		case snap, ok := <-notifCh:
			if !ok {
				notifCh = nil
				continue
			}
			a.mu.Lock()
			a.notifs = &snap
			state := a.recompute()
			a.mu.Unlock()
			a.publish(state)

		case snap, ok := <-invCh:
			if !ok {
				invCh = nil
				continue
			}
			a.mu.Lock()
			a.invs = &snap
			state := a.recompute()
			a.mu.Unlock()
			a.publish(state)
		}
	}
}

// recompute rebuilds the aggregated state from the latest snapshots.
// Caller must hold a.mu.
func (a *Aggregator) recompute() State {
	var items []model.UnifiedNotification
	var raw []model.Invitation

	// Notifications first, then invitations: combined with the stable
	// sort below this fixes the tie-break for equal timestamps.
	if a.notifs != nil {
		for _, n := range a.notifs.Items {
			items = append(items, NormalizeNotification(n))
		}
	}
	if a.invs != nil {
		for _, inv := range a.invs.Items {
			// The subscription filter only admits pending rows; skip
			// anything else so a lagging emission cannot resurface a
			// resolved invitation.
			if inv.Status != model.InvitationPending {
				continue
			}
			items = append(items, NormalizeInvitation(inv))
			raw = append(raw, inv)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	var err error
	switch {
	case a.notifs != nil && a.notifs.Err != nil:
		err = a.notifs.Err
	case a.invs != nil && a.invs.Err != nil:
		err = a.invs.Err
	}

	a.version++
	a.state = State{
		Items:          items,
		RawInvitations: raw,
		Loading:        a.notifs == nil || a.invs == nil,
		Err:            err,
		Version:        a.version,
	}
	return a.state
}

// publish delivers a state without blocking, replacing any unconsumed
// previous one. Run is the only sender.
func (a *Aggregator) publish(state State) {
	select {
	case a.updates <- state:
	default:
		select {
		case <-a.updates:
		default:
		}
		a.updates <- state
	}
}
