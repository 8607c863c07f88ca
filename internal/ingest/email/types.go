package email

import "time"

// Envelope holds the parsed envelope data from an IMAP message.
type Envelope struct {
	MessageID string
	Subject   string
	From      string
	Date      time.Time
	Seen      bool
	UID       uint32
}

// Invite is an invitation extracted from a teamdeck invitation email.
type Invite struct {
	InviterName string
	ProjectName string
	ProjectID   string
	MessageID   string
	SentAt      time.Time
}
