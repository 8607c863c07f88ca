package email

import (
	"testing"
	"time"
)

func TestParseInvite(t *testing.T) {
	sentAt := time.Date(2026, 6, 2, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		subject string
		body    string
		want    Invite
		wantOK  bool
	}{
		{
			name:    "well-formed invitation",
			subject: "[teamdeck] Dana invited you to Website Redesign",
			body:    "Hi!\n\nProject-ID: p-123\n\nSee you there.",
			want: Invite{
				InviterName: "Dana",
				ProjectName: "Website Redesign",
				ProjectID:   "p-123",
				MessageID:   "<m1@mail.example.com>",
				SentAt:      sentAt,
			},
			wantOK: true,
		},
		{
			name:    "subject with surrounding whitespace",
			subject: "  [teamdeck] Lee invited you to App  ",
			body:    "Project-ID: p-9",
			want: Invite{
				InviterName: "Lee",
				ProjectName: "App",
				ProjectID:   "p-9",
				MessageID:   "<m1@mail.example.com>",
				SentAt:      sentAt,
			},
			wantOK: true,
		},
		{
			name:    "unrelated subject",
			subject: "Weekly status report",
			body:    "Project-ID: p-123",
			wantOK:  false,
		},
		{
			name:    "missing project id line",
			subject: "[teamdeck] Dana invited you to Website",
			body:    "No identifiers here.",
			wantOK:  false,
		},
		{
			name:    "project id must be its own line",
			subject: "[teamdeck] Dana invited you to Website",
			body:    "see Project-ID: p-123 inline",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Envelope{
				MessageID: "<m1@mail.example.com>",
				Subject:   tt.subject,
				Date:      sentAt,
			}

			got, ok := ParseInvite(env, tt.body)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got != tt.want {
				t.Errorf("ParseInvite = %+v, want %+v", got, tt.want)
			}
		})
	}
}
