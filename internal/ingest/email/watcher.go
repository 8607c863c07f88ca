// Package email watches an IMAP mailbox for project invitation mail
// and records pending invitations in the local store. Invitations that
// arrive by mail are deduplicated by Message-ID so repeated sweeps of
// the same inbox never create a second record.
package email

import (
	"context"
	"log"
	"time"

	"github.com/nhle/teamdeck/internal/model"
)

// fetchTimeout is the maximum time allowed for a single mailbox sweep.
const fetchTimeout = 30 * time.Second

// sweepLimit caps how many recent envelopes a sweep examines.
const sweepLimit = 100

// InviteStore is the slice of the store the watcher writes through.
type InviteStore interface {
	HasInvitationFromMessage(ctx context.Context, messageID string) (bool, error)
	CreateInvitation(ctx context.Context, inv model.Invitation) error
}

// Watcher polls the mailbox on an interval, parses invitation mail,
// and creates pending invitation records for the account owner.
type Watcher struct {
	client    *IMAPClient
	store     InviteStore
	recipient string
	interval  time.Duration
	triggerCh chan struct{}
}

// NewWatcher creates a mailbox watcher for the given recipient email.
func NewWatcher(
	client *IMAPClient,
	store InviteStore,
	recipient string,
	interval time.Duration,
) *Watcher {
	if interval <= 0 {
		interval = 300 * time.Second
	}
	return &Watcher{
		client:    client,
		store:     store,
		recipient: recipient,
		interval:  interval,
		triggerCh: make(chan struct{}, 1),
	}
}

// Trigger requests an immediate sweep without blocking.
func (w *Watcher) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run sweeps the mailbox once immediately, then on every tick or
// trigger until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		case <-w.triggerCh:
			w.sweep(ctx)
		}
	}
}

// sweep fetches recent envelopes and records any new invitations.
func (w *Watcher) sweep(ctx context.Context) {
	sctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	envelopes, err := w.client.FetchEnvelopes(sctx, sweepLimit)
	if err != nil {
		log.Printf("mailwatch: fetching envelopes: %v", err)
		return
	}

	for _, env := range envelopes {
		if env.Seen || env.MessageID == "" {
			continue
		}
		if !inviteSubjectRe.MatchString(env.Subject) {
			continue
		}
		if err := w.processEnvelope(sctx, env); err != nil {
			log.Printf("mailwatch: message %s: %v", env.MessageID, err)
		}
	}
}

// processEnvelope fetches the body of a candidate message and records
// the invitation unless one already exists for its Message-ID.
func (w *Watcher) processEnvelope(ctx context.Context, env Envelope) error {
	seen, err := w.store.HasInvitationFromMessage(ctx, env.MessageID)
	if err != nil {
		return err
	}
	if seen {
		// Already recorded; just stop the message from showing up again.
		return w.client.MarkSeen(ctx, env.UID)
	}

	body, err := w.client.FetchBody(ctx, env.UID)
	if err != nil {
		return err
	}

	invite, ok := ParseInvite(env, body)
	if !ok {
		return nil
	}

	sentAt := invite.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}

	err = w.store.CreateInvitation(ctx, model.Invitation{
		ProjectID:       invite.ProjectID,
		ProjectName:     invite.ProjectName,
		InviterName:     invite.InviterName,
		RecipientEmail:  w.recipient,
		Status:          model.InvitationPending,
		SourceMessageID: invite.MessageID,
		CreatedAt:       sentAt,
	})
	if err != nil {
		return err
	}

	return w.client.MarkSeen(ctx, env.UID)
}
