package email

import (
	"regexp"
	"strings"
)

// Invitation mail contract: the subject line carries the inviter and
// project names, and the plain-text body carries a Project-ID header
// line pointing at the project record.
var (
	inviteSubjectRe = regexp.MustCompile(
		`^\[teamdeck\]\s+(.+?)\s+invited you to\s+(.+)$`,
	)
	projectIDRe = regexp.MustCompile(`(?m)^Project-ID:\s*(\S+)\s*$`)
)

// ParseInvite extracts an Invite from an invitation email. It returns
// false when the message is not an invitation (wrong subject shape or
// missing Project-ID line).
func ParseInvite(env Envelope, body string) (Invite, bool) {
	m := inviteSubjectRe.FindStringSubmatch(strings.TrimSpace(env.Subject))
	if m == nil {
		return Invite{}, false
	}

	pid := projectIDRe.FindStringSubmatch(body)
	if pid == nil {
		return Invite{}, false
	}

	return Invite{
		InviterName: strings.TrimSpace(m[1]),
		ProjectName: strings.TrimSpace(m[2]),
		ProjectID:   pid[1],
		MessageID:   env.MessageID,
		SentAt:      env.Date,
	}, true
}
