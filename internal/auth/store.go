package auth

import "context"

// UserStore describes persistence operations required by the auth service.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	SetOrganisation(ctx context.Context, userID, organisationID string) error
}

// OrganisationDirectory answers whether a tenant exists. The CRM store
// satisfies it; the auth service only needs this one question answered.
type OrganisationDirectory interface {
	OrganisationExists(ctx context.Context, id string) (bool, error)
}
