package model

import "time"

// Invitation status constants. An invitation leaves "pending" exactly
// once; accepted and declined are terminal.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

// Invitation asks a person, identified by email, to join a project.
// Records are created by another member (or arrive via the mail ingest)
// and are resolved exactly once by the action coordinator. Non-pending
// invitations never re-enter the live feed; the subscription filter
// excludes them.
type Invitation struct {
	// ID is the unique identifier for this invitation.
	ID string `json:"id" db:"id"`

	// ProjectID is the project the recipient is invited to.
	ProjectID string `json:"project_id" db:"project_id"`

	// ProjectName is the denormalized project name for display.
	ProjectName string `json:"project_name" db:"project_name"`

	// InviterName is the display name of the inviting member.
	InviterName string `json:"inviter_name" db:"inviter_name"`

	// InviterAvatar is an optional avatar reference for the inviter.
	InviterAvatar string `json:"inviter_avatar" db:"inviter_avatar"`

	// RecipientEmail is the email address the invitation targets.
	RecipientEmail string `json:"recipient_email" db:"recipient_email"`

	// Status is pending, accepted, or declined.
	Status string `json:"status" db:"status"`

	// SourceMessageID is the Message-ID of the originating email when
	// the invitation arrived via the mail ingest; used for deduplication.
	SourceMessageID string `json:"source_message_id,omitempty" db:"source_message_id"`

	// CreatedAt is when the invitation was issued.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
