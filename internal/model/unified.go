package model

import "time"

// KindProjectInvite is the display kind for invitation-backed items in
// the unified feed. It is distinct from every NotificationKind.
const KindProjectInvite NotificationKind = "project_invite"

// UnifiedNotification is the common representation used to display
// either a notification or a pending invitation in one list. It is
// derived, never persisted: the aggregator rebuilds the full list from
// the latest source snapshots on every change.
type UnifiedNotification struct {
	// ID is the source record's id namespaced by source kind
	// ("notification-<id>" or "invite-<id>") so the two id spaces
	// cannot collide.
	ID string `json:"id"`

	// Kind is a notification kind, or KindProjectInvite for
	// invitation-backed items.
	Kind NotificationKind `json:"kind"`

	// Message is the display text.
	Message string `json:"message"`

	// Read is the read flag; invitations are always unread.
	Read bool `json:"read"`

	// ProjectID and ProjectName identify the related project.
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`

	// TaskID optionally links the item to a task.
	TaskID string `json:"task_id,omitempty"`

	// InvitationID is set only for invite-kind items and routes
	// accept/decline back to the invitation record.
	InvitationID string `json:"invitation_id,omitempty"`

	// CreatedAt orders the aggregated feed (descending).
	CreatedAt time.Time `json:"created_at"`
}

// IsInvite reports whether the item is backed by an invitation record.
func (u UnifiedNotification) IsInvite() bool {
	return u.Kind == KindProjectInvite
}
