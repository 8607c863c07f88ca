package model

import "time"

// Membership role constants.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Project is a collaboration container for related tasks and members.
type Project struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Color       string    `json:"color" db:"color"`
	Archived    bool      `json:"archived" db:"archived"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProjectMember records a user's membership in a project. Accepting an
// invitation provisions exactly one of these in the same transaction
// that resolves the invitation.
type ProjectMember struct {
	ProjectID string    `json:"project_id" db:"project_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Role      string    `json:"role" db:"role"`
	JoinedAt  time.Time `json:"joined_at" db:"joined_at"`
}
