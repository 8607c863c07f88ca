package store

import (
	"context"
	"errors"

	"github.com/nhle/teamdeck/internal/model"
)

// Collection names used with Watch. Every write to a collection pings
// its watchers, which is what live subscriptions hang off.
const (
	CollectionNotifications = "notifications"
	CollectionInvitations   = "invitations"
	CollectionProjects      = "projects"
	CollectionTasks         = "tasks"
)

// ErrInvitationNotPending is returned when accept/decline targets an
// invitation that already left the pending state.
var ErrInvitationNotPending = errors.New("invitation is not pending")

// ErrNotFound is returned when a single-record lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// Store defines the persistence interface for the collaboration
// workspace: notifications, invitations, users, projects, and tasks.
type Store interface {
	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	// ListUnreadNotifications returns the user's unread notifications
	// ordered by creation time descending.
	ListUnreadNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	// MarkNotificationsRead marks the given id set read in one batch
	// write. An empty id set is a no-op.
	MarkNotificationsRead(ctx context.Context, ids []string) error

	// === Invitations ===

	CreateInvitation(ctx context.Context, inv model.Invitation) error
	// ListPendingInvitations returns pending invitations addressed to
	// the given email, in no particular order.
	ListPendingInvitations(ctx context.Context, email string) ([]model.Invitation, error)
	// HasInvitationFromMessage reports whether an invitation was already
	// ingested from the email with the given Message-ID.
	HasInvitationFromMessage(ctx context.Context, messageID string) (bool, error)
	// AcceptInvitation flips a pending invitation to accepted and
	// provisions the project membership for userID in one transaction.
	// Returns ErrInvitationNotPending if the row already left pending.
	AcceptInvitation(ctx context.Context, id string, userID string) error
	// DeclineInvitation flips a pending invitation to declined.
	// Returns ErrInvitationNotPending if the row already left pending.
	DeclineInvitation(ctx context.Context, id string) error

	// === Users ===

	UpsertUser(ctx context.Context, u model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// === Projects and membership ===

	CreateProject(ctx context.Context, p model.Project) error
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	GetProjects(ctx context.Context, includeArchived bool) ([]model.Project, error)
	AddProjectMember(ctx context.Context, m model.ProjectMember) error
	GetProjectMembers(ctx context.Context, projectID string) ([]model.ProjectMember, error)

	// === Tasks ===

	CreateTask(ctx context.Context, t model.Task) error
	GetProjectTasks(ctx context.Context, projectID string) ([]model.Task, error)

	// === Change signals ===

	// Watch subscribes to change signals for a collection. The returned
	// channel receives a ping after any write to that collection;
	// signals are coalesced, not queued. The cancel func releases the
	// subscription.
	Watch(collection string) (<-chan struct{}, func())
}
