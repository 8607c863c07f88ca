// Package identity resolves the current user asynchronously and lets
// consumers observe login/logout transitions. A nil user on the watch
// channel means logged out; consumers owning live subscriptions must
// retract them when they see it.
package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/nhle/teamdeck/internal/credential"
	"github.com/nhle/teamdeck/internal/model"
	"github.com/nhle/teamdeck/internal/store"
)

// Provider resolves and tracks the current user. Resolution happens off
// the caller's goroutine: construct, call Resolve, then consume Watch.
type Provider struct {
	store store.Store

	mu      sync.Mutex
	current *model.User
	// resolved flips once the initial session lookup has finished,
	// whatever its outcome.
	resolved bool
	watchers []chan *model.User
}

// NewProvider creates a Provider backed by the given store.
func NewProvider(s store.Store) *Provider {
	return &Provider{store: s}
}

// Resolve looks up the persisted session in the background and
// publishes the result to all watchers. Safe to call once at startup.
func (p *Provider) Resolve(ctx context.Context) {
	go func() {
		user := p.lookupSession(ctx)

		p.mu.Lock()
		p.current = user
		p.resolved = true
		p.mu.Unlock()

		p.publish(user)
	}()
}

// lookupSession loads the saved user id from the keyring and resolves
// it against the users table. Any failure means logged out.
func (p *Provider) lookupSession(ctx context.Context) *model.User {
	userID, err := credential.Get(credential.KeySessionUser)
	if err != nil || userID == "" {
		return nil
	}

	user, err := p.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil
	}

	return user
}

// Current returns the current user (nil when logged out) and whether
// the initial resolution has completed.
func (p *Provider) Current() (*model.User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.resolved
}

// Watch registers a channel that receives the user on every identity
// transition, including the initial resolution. The channel is buffered;
// a slow consumer only ever misses intermediate states, never the
// latest one, because each send is preceded by a drain.
func (p *Provider) Watch() <-chan *model.User {
	ch := make(chan *model.User, 1)

	p.mu.Lock()
	// Deliver the known state before registering, while holding the
	// lock: the fresh buffered channel cannot block, and publish cannot
	// fill it first, so Watch never hangs on a racing transition.
	if p.resolved {
		ch <- p.current
	}
	p.watchers = append(p.watchers, ch)
	p.mu.Unlock()

	return ch
}

// Login records the given user as the local session and publishes the
// transition. The user row is upserted so invitations addressed to the
// email can resolve a membership later.
func (p *Provider) Login(ctx context.Context, user model.User) (*model.User, error) {
	if err := p.store.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}

	// UpsertUser keeps the existing row id when the email is already
	// known; re-read to get the canonical record.
	saved, err := p.store.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("reloading user %s: %w", user.Email, err)
	}

	if err := credential.Set(credential.KeySessionUser, saved.ID); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	p.mu.Lock()
	p.current = saved
	p.resolved = true
	p.mu.Unlock()

	p.publish(saved)
	return saved, nil
}

// Logout clears the session and publishes a nil user. Consumers react
// by tearing down their subscriptions.
func (p *Provider) Logout() {
	_ = credential.Delete(credential.KeySessionUser)

	p.mu.Lock()
	p.current = nil
	p.resolved = true
	p.mu.Unlock()

	p.publish(nil)
}

// publish sends the user to every watcher, replacing any undelivered
// previous value so watchers always see the latest state.
func (p *Provider) publish(user *model.User) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ch := range p.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- user
	}
}
