package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nhle/teamdeck/internal/model"
	"github.com/nhle/teamdeck/internal/store"
)

// ActionStore is the subset of store operations the coordinator issues.
type ActionStore interface {
	MarkNotificationRead(ctx context.Context, id string) error
	MarkNotificationsRead(ctx context.Context, ids []string) error
	AcceptInvitation(ctx context.Context, id string, userID string) error
	DeclineInvitation(ctx context.Context, id string) error
}

// Coordinator executes user actions against the aggregated feed. A busy
// table keyed by unified item id gives each item mutual exclusion: the
// flag is set before the store write begins and cleared when it
// resolves, success or failure, so two rapid invocations on the same
// item never both reach the store. Bulk mark-all-read is guarded by a
// single process-wide flag instead; per-item mark-read stays permitted
// while a bulk write runs.
type Coordinator struct {
	store  ActionStore
	agg    *Aggregator
	userID string

	mu   sync.Mutex
	busy map[string]bool
	bulk bool
}

// NewCoordinator creates a Coordinator acting on behalf of userID.
func NewCoordinator(st ActionStore, agg *Aggregator, userID string) *Coordinator {
	return &Coordinator{
		store:  st,
		agg:    agg,
		userID: userID,
		busy:   make(map[string]bool),
	}
}

// Busy reports whether an action on the given unified item id is in
// flight.
func (c *Coordinator) Busy(itemID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[itemID]
}

// BulkInProgress reports whether a mark-all-read write is in flight.
func (c *Coordinator) BulkInProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bulk
}

// acquire atomically sets the busy flag for an item. Returns false when
// the item is already busy, in which case the caller must not proceed.
func (c *Coordinator) acquire(itemID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[itemID] {
		return false
	}
	c.busy[itemID] = true
	return true
}

// release clears the busy flag for an item.
func (c *Coordinator) release(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busy, itemID)
}

// MarkRead marks a single notification item read. Invite-kind items and
// items with an action already in flight are a no-op. The item leaves
// the feed on the next subscription emission; the coordinator never
// removes it locally.
func (c *Coordinator) MarkRead(ctx context.Context, item model.UnifiedNotification) error {
	if item.IsInvite() {
		return nil
	}
	if !c.acquire(item.ID) {
		return nil
	}
	defer c.release(item.ID)

	if err := c.store.MarkNotificationRead(ctx, NotificationRecordID(item.ID)); err != nil {
		return fmt.Errorf("marking %s read: %w", item.ID, err)
	}
	return nil
}

// MarkAllRead marks every currently known non-invite item read in one
// batch write. With no eligible items, or with a bulk write already in
// flight, no write is issued.
func (c *Coordinator) MarkAllRead(ctx context.Context) error {
	c.mu.Lock()
	if c.bulk {
		c.mu.Unlock()
		return nil
	}

	var ids []string
	for _, item := range c.agg.Current().Items {
		if item.IsInvite() {
			continue
		}
		ids = append(ids, NotificationRecordID(item.ID))
	}
	if len(ids) == 0 {
		c.mu.Unlock()
		return nil
	}

	c.bulk = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.bulk = false
		c.mu.Unlock()
	}()

	if err := c.store.MarkNotificationsRead(ctx, ids); err != nil {
		return fmt.Errorf("marking %d notifications read: %w", len(ids), err)
	}
	return nil
}

// AcceptInvitation accepts the pending invitation with the given record
// id. An id absent from the latest raw snapshot means another actor
// already resolved it: that is a benign no-op, not an error, because
// the live feed is the source of truth. On failure the invitation stays
// pending and the error is returned; the busy flag clears either way.
func (c *Coordinator) AcceptInvitation(ctx context.Context, invitationID string) error {
	inv, ok := c.agg.Current().Invitation(invitationID)
	if !ok {
		return nil
	}

	itemID := InviteItemID(invitationID)
	if !c.acquire(itemID) {
		return nil
	}
	defer c.release(itemID)

	err := c.store.AcceptInvitation(ctx, inv.ID, c.userID)
	if errors.Is(err, store.ErrInvitationNotPending) {
		// Resolved concurrently between snapshot and write.
		return nil
	}
	if err != nil {
		return fmt.Errorf("accepting invitation %s: %w", invitationID, err)
	}
	return nil
}

// DeclineInvitation declines the pending invitation with the given
// record id, under the same no-op and busy rules as AcceptInvitation.
func (c *Coordinator) DeclineInvitation(ctx context.Context, invitationID string) error {
	if _, ok := c.agg.Current().Invitation(invitationID); !ok {
		return nil
	}

	itemID := InviteItemID(invitationID)
	if !c.acquire(itemID) {
		return nil
	}
	defer c.release(itemID)

	err := c.store.DeclineInvitation(ctx, invitationID)
	if errors.Is(err, store.ErrInvitationNotPending) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("declining invitation %s: %w", invitationID, err)
	}
	return nil
}
