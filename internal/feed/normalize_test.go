package feed

import (
	"testing"
	"time"

	"github.com/nhle/teamdeck/internal/model"
)

func TestNormalizeNotification(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	n := model.Notification{
		ID:          "n1",
		UserID:      "u1",
		Kind:        model.KindTaskAssigned,
		Message:     "Dana assigned you to Fix login flow",
		Read:        false,
		ProjectID:   "p1",
		ProjectName: "Website",
		TaskID:      "t1",
		CreatedAt:   created,
	}

	got := NormalizeNotification(n)

	if got.ID != "notification-n1" {
		t.Errorf("ID = %q, want %q", got.ID, "notification-n1")
	}
	if got.Kind != model.KindTaskAssigned {
		t.Errorf("Kind = %q, want %q", got.Kind, model.KindTaskAssigned)
	}
	if got.Message != n.Message {
		t.Errorf("Message = %q, want %q", got.Message, n.Message)
	}
	if got.InvitationID != "" {
		t.Errorf("InvitationID = %q, want empty", got.InvitationID)
	}
	if got.TaskID != "t1" {
		t.Errorf("TaskID = %q, want %q", got.TaskID, "t1")
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if got.IsInvite() {
		t.Error("IsInvite() = true for a notification item")
	}
}

func TestNormalizeInvitation(t *testing.T) {
	tests := []struct {
		name        string
		inviterName string
		wantMessage string
	}{
		{
			name:        "named inviter",
			inviterName: "Dana",
			wantMessage: "Dana invited you to Website",
		},
		{
			name:        "empty inviter falls back",
			inviterName: "",
			wantMessage: "Someone invited you to Website",
		},
		{
			name:        "whitespace inviter falls back",
			inviterName: "   ",
			wantMessage: "Someone invited you to Website",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := model.Invitation{
				ID:             "i1",
				ProjectID:      "p1",
				ProjectName:    "Website",
				InviterName:    tt.inviterName,
				RecipientEmail: "you@example.com",
				Status:         model.InvitationPending,
				CreatedAt:      time.Now(),
			}

			got := NormalizeInvitation(inv)

			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
			if got.ID != "invite-i1" {
				t.Errorf("ID = %q, want %q", got.ID, "invite-i1")
			}
			if got.Kind != model.KindProjectInvite {
				t.Errorf("Kind = %q, want %q", got.Kind, model.KindProjectInvite)
			}
			if got.Read {
				t.Error("Read = true; invitations are always unread")
			}
			if got.InvitationID != "i1" {
				t.Errorf("InvitationID = %q, want %q", got.InvitationID, "i1")
			}
			if !got.IsInvite() {
				t.Error("IsInvite() = false for an invite item")
			}
		})
	}
}

func TestInviteItemID(t *testing.T) {
	inv := model.Invitation{ID: "abc", ProjectName: "X", Status: model.InvitationPending}
	if got, want := InviteItemID("abc"), NormalizeInvitation(inv).ID; got != want {
		t.Errorf("InviteItemID = %q, normalizer produced %q", got, want)
	}
}

func TestNotificationRecordID(t *testing.T) {
	if got := NotificationRecordID("notification-n42"); got != "n42" {
		t.Errorf("NotificationRecordID = %q, want %q", got, "n42")
	}
}
