package auth

import "time"

// Roles recognised by the access policy. Members and admins are scoped to
// their organisation; superadmins see across tenants.
const (
	RoleMember     = "member"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// User is a login identity. OrganisationID stays empty between
// registration and the create-organisation onboarding step.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role"`
	OrganisationID *string   `json:"organisation_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Principal is the identity reconstructed from a verified token. It lives
// for a single request and is never persisted.
type Principal struct {
	UserID         string
	Email          string
	Role           string
	OrganisationID string // empty until onboarding completes
	IssuedAt       time.Time
	ExpiresAt      time.Time
}

// Onboarded reports whether the principal has acquired a tenant.
func (p Principal) Onboarded() bool {
	return p.OrganisationID != ""
}
