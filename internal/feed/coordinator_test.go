package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nhle/teamdeck/internal/model"
	"github.com/nhle/teamdeck/internal/store"
)

// fakeActionStore counts writes and can fail or block on demand.
type fakeActionStore struct {
	mu sync.Mutex

	markReadCalls  []string
	markBatchCalls [][]string
	acceptCalls    []string
	declineCalls   []string

	failWith error
	// blockCh, when set, is closed-waited on before any write returns.
	blockCh chan struct{}
}

func (f *fakeActionStore) wait() {
	f.mu.Lock()
	ch := f.blockCh
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

func (f *fakeActionStore) MarkNotificationRead(_ context.Context, id string) error {
	f.mu.Lock()
	f.markReadCalls = append(f.markReadCalls, id)
	err := f.failWith
	f.mu.Unlock()
	f.wait()
	return err
}

func (f *fakeActionStore) MarkNotificationsRead(_ context.Context, ids []string) error {
	f.mu.Lock()
	f.markBatchCalls = append(f.markBatchCalls, ids)
	err := f.failWith
	f.mu.Unlock()
	f.wait()
	return err
}

func (f *fakeActionStore) AcceptInvitation(_ context.Context, id, _ string) error {
	f.mu.Lock()
	f.acceptCalls = append(f.acceptCalls, id)
	err := f.failWith
	f.mu.Unlock()
	f.wait()
	return err
}

func (f *fakeActionStore) DeclineInvitation(_ context.Context, id string) error {
	f.mu.Lock()
	f.declineCalls = append(f.declineCalls, id)
	err := f.failWith
	f.mu.Unlock()
	f.wait()
	return err
}

// feedFixture builds a coordinator whose aggregator has already seen
// the given records.
func feedFixture(
	t *testing.T,
	fake *fakeActionStore,
	notifs []model.Notification,
	invs []model.Invitation,
) *Coordinator {
	t.Helper()

	agg, notifCh, invCh := startAggregator(t)
	notifCh <- Snapshot[model.Notification]{Items: notifs, Version: 1}
	invCh <- Snapshot[model.Invitation]{Items: invs, Version: 1}
	waitForState(t, agg, func(s State) bool { return !s.Loading })

	return NewCoordinator(fake, agg, "u1")
}

func TestMarkReadWritesThrough(t *testing.T) {
	fake := &fakeActionStore{}
	c := feedFixture(t, fake,
		[]model.Notification{{ID: "n1", CreatedAt: time.Now()}}, nil)

	item := NormalizeNotification(model.Notification{ID: "n1"})
	if err := c.MarkRead(context.Background(), item); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	if len(fake.markReadCalls) != 1 || fake.markReadCalls[0] != "n1" {
		t.Errorf("markReadCalls = %v, want [n1]", fake.markReadCalls)
	}
	if c.Busy(item.ID) {
		t.Error("Busy = true after MarkRead returned")
	}
}

func TestMarkReadIgnoresInviteItems(t *testing.T) {
	fake := &fakeActionStore{}
	c := feedFixture(t, fake, nil, nil)

	item := NormalizeInvitation(model.Invitation{
		ID: "i1", ProjectName: "X", Status: model.InvitationPending,
	})
	if err := c.MarkRead(context.Background(), item); err != nil {
		t.Fatalf("MarkRead on invite item: %v", err)
	}
	if len(fake.markReadCalls) != 0 {
		t.Errorf("markReadCalls = %v, want none", fake.markReadCalls)
	}
}

func TestMarkReadBusyGate(t *testing.T) {
	fake := &fakeActionStore{blockCh: make(chan struct{})}
	c := feedFixture(t, fake,
		[]model.Notification{{ID: "n1", CreatedAt: time.Now()}}, nil)

	item := NormalizeNotification(model.Notification{ID: "n1"})

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- c.MarkRead(context.Background(), item)
	}()

	// Wait until the first write is in flight.
	deadline := time.After(2 * time.Second)
	for !c.Busy(item.ID) {
		select {
		case <-deadline:
			t.Fatal("first MarkRead never became busy")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// Second invocation must be a no-op, not a second write.
	if err := c.MarkRead(context.Background(), item); err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}
	if got := len(fake.markReadCalls); got != 1 {
		t.Errorf("store writes while busy = %d, want 1", got)
	}

	close(fake.blockCh)
	if err := <-firstDone; err != nil {
		t.Fatalf("first MarkRead: %v", err)
	}
	if c.Busy(item.ID) {
		t.Error("Busy = true after write resolved")
	}
}

func TestMarkReadFailureClearsBusyAndSurfaces(t *testing.T) {
	writeErr := errors.New("disk full")
	fake := &fakeActionStore{failWith: writeErr}
	c := feedFixture(t, fake,
		[]model.Notification{{ID: "n1", CreatedAt: time.Now()}}, nil)

	item := NormalizeNotification(model.Notification{ID: "n1"})
	err := c.MarkRead(context.Background(), item)
	if !errors.Is(err, writeErr) {
		t.Fatalf("MarkRead error = %v, want wrapped %v", err, writeErr)
	}
	if c.Busy(item.ID) {
		t.Error("Busy = true after failed write")
	}
}

func TestMarkAllReadBatchesNotificationsOnly(t *testing.T) {
	fake := &fakeActionStore{}
	c := feedFixture(t, fake,
		[]model.Notification{
			{ID: "n1", CreatedAt: time.Now()},
			{ID: "n2", CreatedAt: time.Now().Add(-time.Minute)},
		},
		[]model.Invitation{
			{ID: "i1", ProjectName: "X", Status: model.InvitationPending, CreatedAt: time.Now()},
		},
	)

	if err := c.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}

	if len(fake.markBatchCalls) != 1 {
		t.Fatalf("batch writes = %d, want 1", len(fake.markBatchCalls))
	}
	ids := fake.markBatchCalls[0]
	if len(ids) != 2 {
		t.Fatalf("batch ids = %v, want the two notification ids", ids)
	}
	for _, id := range ids {
		if id != "n1" && id != "n2" {
			t.Errorf("batch contains %q, want only notification record ids", id)
		}
	}
	if len(fake.acceptCalls)+len(fake.declineCalls) != 0 {
		t.Error("MarkAllRead touched invitations")
	}
}

func TestMarkAllReadEmptyFeedIsNoop(t *testing.T) {
	fake := &fakeActionStore{}
	c := feedFixture(t, fake, nil, nil)

	if err := c.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if len(fake.markBatchCalls) != 0 {
		t.Errorf("batch writes = %d, want 0 for an empty feed", len(fake.markBatchCalls))
	}
}

func TestMarkAllReadBulkGate(t *testing.T) {
	fake := &fakeActionStore{blockCh: make(chan struct{})}
	c := feedFixture(t, fake,
		[]model.Notification{{ID: "n1", CreatedAt: time.Now()}}, nil)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- c.MarkAllRead(context.Background())
	}()

	deadline := time.After(2 * time.Second)
	for !c.BulkInProgress() {
		select {
		case <-deadline:
			t.Fatal("bulk write never became in-flight")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if err := c.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("second MarkAllRead: %v", err)
	}
	if got := len(fake.markBatchCalls); got != 1 {
		t.Errorf("batch writes while bulk in flight = %d, want 1", got)
	}

	close(fake.blockCh)
	if err := <-firstDone; err != nil {
		t.Fatalf("first MarkAllRead: %v", err)
	}
	if c.BulkInProgress() {
		t.Error("BulkInProgress = true after write resolved")
	}
}

func TestAcceptInvitationWritesThrough(t *testing.T) {
	fake := &fakeActionStore{}
	c := feedFixture(t, fake, nil, []model.Invitation{
		{ID: "i1", ProjectName: "X", Status: model.InvitationPending, CreatedAt: time.Now()},
	})

	if err := c.AcceptInvitation(context.Background(), "i1"); err != nil {
		t.Fatalf("AcceptInvitation: %v", err)
	}
	if len(fake.acceptCalls) != 1 || fake.acceptCalls[0] != "i1" {
		t.Errorf("acceptCalls = %v, want [i1]", fake.acceptCalls)
	}
	if c.Busy(InviteItemID("i1")) {
		t.Error("Busy = true after accept returned")
	}
}

func TestAcceptInvitationUnknownIDIsNoop(t *testing.T) {
	fake := &fakeActionStore{}
	c := feedFixture(t, fake, nil, nil)

	if err := c.AcceptInvitation(context.Background(), "ghost"); err != nil {
		t.Fatalf("AcceptInvitation on unknown id: %v", err)
	}
	if len(fake.acceptCalls) != 0 {
		t.Errorf("acceptCalls = %v, want none", fake.acceptCalls)
	}
}

func TestAcceptInvitationNotPendingIsBenign(t *testing.T) {
	fake := &fakeActionStore{failWith: store.ErrInvitationNotPending}
	c := feedFixture(t, fake, nil, []model.Invitation{
		{ID: "i1", ProjectName: "X", Status: model.InvitationPending, CreatedAt: time.Now()},
	})

	if err := c.AcceptInvitation(context.Background(), "i1"); err != nil {
		t.Fatalf("AcceptInvitation racing a concurrent resolve: %v", err)
	}
	if c.Busy(InviteItemID("i1")) {
		t.Error("Busy = true after benign no-op")
	}
}

func TestDeclineInvitationFailureSurfaces(t *testing.T) {
	writeErr := errors.New("database is locked")
	fake := &fakeActionStore{failWith: writeErr}
	c := feedFixture(t, fake, nil, []model.Invitation{
		{ID: "i1", ProjectName: "X", Status: model.InvitationPending, CreatedAt: time.Now()},
	})

	err := c.DeclineInvitation(context.Background(), "i1")
	if !errors.Is(err, writeErr) {
		t.Fatalf("DeclineInvitation error = %v, want wrapped %v", err, writeErr)
	}
	if c.Busy(InviteItemID("i1")) {
		t.Error("Busy = true after failed decline")
	}
}

func TestAcceptAndDeclineShareBusyKey(t *testing.T) {
	fake := &fakeActionStore{blockCh: make(chan struct{})}
	c := feedFixture(t, fake, nil, []model.Invitation{
		{ID: "i1", ProjectName: "X", Status: model.InvitationPending, CreatedAt: time.Now()},
	})

	acceptDone := make(chan error, 1)
	go func() {
		acceptDone <- c.AcceptInvitation(context.Background(), "i1")
	}()

	deadline := time.After(2 * time.Second)
	for !c.Busy(InviteItemID("i1")) {
		select {
		case <-deadline:
			t.Fatal("accept never became busy")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// A decline racing the in-flight accept must not reach the store.
	if err := c.DeclineInvitation(context.Background(), "i1"); err != nil {
		t.Fatalf("racing DeclineInvitation: %v", err)
	}
	if len(fake.declineCalls) != 0 {
		t.Errorf("declineCalls = %v, want none while accept in flight", fake.declineCalls)
	}

	close(fake.blockCh)
	if err := <-acceptDone; err != nil {
		t.Fatalf("AcceptInvitation: %v", err)
	}
}
