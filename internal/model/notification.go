package model

import "time"

// NotificationKind identifies what event produced a notification.
type NotificationKind string

const (
	KindTaskAssigned   NotificationKind = "task_assigned"
	KindCommentMention NotificationKind = "comment_mention"
	KindTaskCompleted  NotificationKind = "task_completed"
	KindMemberJoined   NotificationKind = "member_joined"
)

// Notification is a direct notification addressed to a single user.
// Records are created when the user is the target of an event (task
// assignment, mention, ...) and are only ever mutated by read-state
// transitions; deletion and retention are handled outside this subsystem.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// UserID is the user this notification is addressed to.
	UserID string `json:"user_id" db:"user_id"`

	// Kind identifies the event type (use Kind* constants).
	Kind NotificationKind `json:"kind" db:"kind"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`

	// SenderName is the display name of the user who caused the event.
	SenderName string `json:"sender_name" db:"sender_name"`

	// SenderAvatar is an optional avatar reference for the sender.
	SenderAvatar string `json:"sender_avatar" db:"sender_avatar"`

	// ProjectID is the project this notification relates to.
	ProjectID string `json:"project_id" db:"project_id"`

	// ProjectName is the project name, denormalized so the feed can
	// render without a second lookup.
	ProjectName string `json:"project_name" db:"project_name"`

	// TaskID optionally links the notification to a task.
	TaskID string `json:"task_id" db:"task_id"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
