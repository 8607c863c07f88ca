package feed

import (
	"context"
	"sync"
	"time"

	"github.com/nhle/teamdeck/internal/identity"
	"github.com/nhle/teamdeck/internal/model"
	"github.com/nhle/teamdeck/internal/store"
)

// session is one logged-in user's aggregation pipeline: both
// subscription sources, the aggregator, and a coordinator bound to that
// user. It dies as a unit when the user logs out or changes.
type session struct {
	user   model.User
	agg    *Aggregator
	coord  *Coordinator
	cancel context.CancelFunc
}

// Engine owns the feed lifecycle. It watches the identity provider,
// builds a session per resolved user, tears the session down on logout
// (cancelling both subscriptions), and republishes aggregator states on
// a latest-wins channel for the presentation layer. All operations are
// nil-safe no-ops while logged out.
type Engine struct {
	store    store.Store
	identity *identity.Provider
	refresh  time.Duration

	mu      sync.Mutex
	session *session
	state   State

	updates chan State
}

// NewEngine creates an Engine. refresh is the fallback re-query
// interval handed to each subscription source.
func NewEngine(st store.Store, idp *identity.Provider, refresh time.Duration) *Engine {
	return &Engine{
		store:    st,
		identity: idp,
		refresh:  refresh,
		// Loading until identity resolves for the first time.
		state:   State{Loading: true},
		updates: make(chan State, 1),
	}
}

// Updates returns the state channel consumed by presentation. It
// carries the latest state only.
func (e *Engine) Updates() <-chan State {
	return e.updates
}

// Current returns the latest published state.
func (e *Engine) Current() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Run drives the engine until ctx ends. It consumes identity
// transitions and swaps sessions accordingly.
func (e *Engine) Run(ctx context.Context) {
	users := e.identity.Watch()

	for {
		select {
		case <-ctx.Done():
			e.teardown()
			return
		case user := <-users:
			e.switchUser(ctx, user)
		}
	}
}

// switchUser tears down the current session and, for a non-nil user,
// starts a fresh one.
func (e *Engine) switchUser(ctx context.Context, user *model.User) {
	e.teardown()

	if user == nil {
		// Logged out: inert, empty, not loading.
		e.publish(State{})
		return
	}

	e.startSession(ctx, *user)
}

// startSession builds and launches the aggregation pipeline for a user.
func (e *Engine) startSession(ctx context.Context, user model.User) {
	sctx, cancel := context.WithCancel(ctx)

	notifChanges, cancelNotifWatch := e.store.Watch(store.CollectionNotifications)
	invChanges, cancelInvWatch := e.store.Watch(store.CollectionInvitations)

	notifSource := NewSource(
		"notifications",
		func(qctx context.Context) ([]model.Notification, error) {
			return e.store.ListUnreadNotifications(qctx, user.ID)
		},
		notifChanges,
		e.refresh,
	)
	invSource := NewSource(
		"invitations",
		func(qctx context.Context) ([]model.Invitation, error) {
			return e.store.ListPendingInvitations(qctx, user.Email)
		},
		invChanges,
		e.refresh,
	)

	agg := NewAggregator()

	sess := &session{
		user:  user,
		agg:   agg,
		coord: NewCoordinator(e.store, agg, user.ID),
		cancel: func() {
			cancel()
			cancelNotifWatch()
			cancelInvWatch()
		},
	}

	e.mu.Lock()
	e.session = sess
	e.mu.Unlock()

	// Publish loading before the pipeline starts so a fast first
	// aggregator emission cannot be overwritten by it.
	e.publish(State{Loading: true})

	go notifSource.Run(sctx)
	go invSource.Run(sctx)
	go agg.Run(sctx, notifSource.Snapshots(), invSource.Snapshots())
	go e.pump(sess)
}

// pump forwards a session's aggregator states to the engine channel for
// as long as that session is current. A stale session's late states are
// dropped rather than written into the replacement session's view.
func (e *Engine) pump(sess *session) {
	for state := range sess.agg.Updates() {
		e.mu.Lock()
		if e.session != sess {
			e.mu.Unlock()
			return
		}
		e.state = state
		e.mu.Unlock()

		e.send(state)
	}
}

// teardown cancels the current session, if any.
func (e *Engine) teardown() {
	e.mu.Lock()
	sess := e.session
	e.session = nil
	e.mu.Unlock()

	if sess != nil {
		sess.cancel()
	}
}

// publish records and sends a state produced by the engine itself
// (session boundaries), as opposed to aggregator output.
func (e *Engine) publish(state State) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
	e.send(state)
}

// send delivers a state without blocking, replacing any unconsumed one.
func (e *Engine) send(state State) {
	select {
	case e.updates <- state:
	default:
		select {
		case <-e.updates:
		default:
		}
		e.updates <- state
	}
}

// coordinator returns the current session's coordinator, or nil when
// logged out.
func (e *Engine) coordinator() *Coordinator {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	return e.session.coord
}

// MarkRead forwards to the session coordinator. No-op while logged out.
func (e *Engine) MarkRead(ctx context.Context, item model.UnifiedNotification) error {
	c := e.coordinator()
	if c == nil {
		return nil
	}
	return c.MarkRead(ctx, item)
}

// MarkAllRead forwards to the session coordinator. No-op while logged out.
func (e *Engine) MarkAllRead(ctx context.Context) error {
	c := e.coordinator()
	if c == nil {
		return nil
	}
	return c.MarkAllRead(ctx)
}

// AcceptInvitation forwards to the session coordinator. No-op while
// logged out.
func (e *Engine) AcceptInvitation(ctx context.Context, invitationID string) error {
	c := e.coordinator()
	if c == nil {
		return nil
	}
	return c.AcceptInvitation(ctx, invitationID)
}

// DeclineInvitation forwards to the session coordinator. No-op while
// logged out.
func (e *Engine) DeclineInvitation(ctx context.Context, invitationID string) error {
	c := e.coordinator()
	if c == nil {
		return nil
	}
	return c.DeclineInvitation(ctx, invitationID)
}

// Busy reports whether an action on the given unified item id is in
// flight in the current session.
func (e *Engine) Busy(itemID string) bool {
	c := e.coordinator()
	if c == nil {
		return false
	}
	return c.Busy(itemID)
}
