package feed

import (
	"fmt"
	"strings"

	"github.com/nhle/teamdeck/internal/model"
)

// Unified item id prefixes. Namespacing keeps a notification id and an
// invitation id from ever colliding in the aggregated list.
const (
	notificationIDPrefix = "notification-"
	inviteIDPrefix       = "invite-"
)

// FallbackInviterName is used when an invitation carries no inviter
// display name. Never an empty string.
const FallbackInviterName = "Someone"

// NormalizeNotification converts a notification record into the unified
// item shape.
func NormalizeNotification(n model.Notification) model.UnifiedNotification {
	return model.UnifiedNotification{
		ID:          notificationIDPrefix + n.ID,
		Kind:        n.Kind,
		Message:     n.Message,
		Read:        n.Read,
		ProjectID:   n.ProjectID,
		ProjectName: n.ProjectName,
		TaskID:      n.TaskID,
		CreatedAt:   n.CreatedAt,
	}
}

// NormalizeInvitation converts a pending invitation record into the
// unified item shape. Invitations are always unread, carry the
// project_invite kind, and keep their record id in InvitationID so
// accept/decline can route back.
func NormalizeInvitation(inv model.Invitation) model.UnifiedNotification {
	inviter := strings.TrimSpace(inv.InviterName)
	if inviter == "" {
		inviter = FallbackInviterName
	}

	return model.UnifiedNotification{
		ID:           inviteIDPrefix + inv.ID,
		Kind:         model.KindProjectInvite,
		Message:      fmt.Sprintf("%s invited you to %s", inviter, inv.ProjectName),
		Read:         false,
		ProjectID:    inv.ProjectID,
		ProjectName:  inv.ProjectName,
		InvitationID: inv.ID,
		CreatedAt:    inv.CreatedAt,
	}
}

// InviteItemID returns the unified item id for an invitation record id.
// The coordinator keys busy state by unified id, so both the item-based
// and the invitation-id-based paths must agree on it.
func InviteItemID(invitationID string) string {
	return inviteIDPrefix + invitationID
}

// NotificationRecordID recovers the notification record id from a
// unified item id.
func NotificationRecordID(itemID string) string {
	return strings.TrimPrefix(itemID, notificationIDPrefix)
}
