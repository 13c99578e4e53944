package crm

import (
	"context"
	"time"

	"propdesk.org/internal/auth"
)

// Store describes persistence operations for the CRM resources. Every
// listing method takes the caller's tenant scope so rows outside the
// tenant are never fetched.
type Store interface {
	Organisations(ctx context.Context) OrganisationStore
	Contacts(ctx context.Context) ContactStore
	Properties(ctx context.Context) PropertyStore
	Deals(ctx context.Context) DealStore
	TeamMembers(ctx context.Context) TeamMemberStore
	Tasks(ctx context.Context) TaskStore
	Meetings(ctx context.Context) MeetingStore
	Documents(ctx context.Context) DocumentStore
}

type OrganisationStore interface {
	Create(ctx context.Context, org *Organisation) error
	Find(ctx context.Context, id string) (*Organisation, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, scope auth.Scope) ([]*OrganisationSummary, error)
	Update(ctx context.Context, id string, upd OrganisationUpdate) (*Organisation, error)
	Delete(ctx context.Context, id string) error
	MemberCount(ctx context.Context, id string) (int, error)
	PropertyCount(ctx context.Context, id string) (int, error)
}

type ContactStore interface {
	Create(ctx context.Context, c *Contact) error
	Find(ctx context.Context, id string) (*Contact, error)
	List(ctx context.Context, scope auth.Scope, filter ContactFilter) ([]*Contact, error)
	Update(ctx context.Context, id string, upd ContactUpdate) (*Contact, error)
	Delete(ctx context.Context, id string) error
	PropertyCount(ctx context.Context, contactID string) (int, error)
}

type PropertyStore interface {
	Create(ctx context.Context, p *Property) error
	Find(ctx context.Context, id string) (*Property, error)
	List(ctx context.Context, scope auth.Scope, filter PropertyFilter) ([]*Property, error)
	Update(ctx context.Context, id string, upd PropertyUpdate) (*Property, error)
	Delete(ctx context.Context, id string) error
	DealCount(ctx context.Context, propertyID string) (int, error)
}

type DealStore interface {
	Create(ctx context.Context, d *Deal) error
	Find(ctx context.Context, id string) (*Deal, error)
	List(ctx context.Context, scope auth.Scope, filter DealFilter) ([]*Deal, error)
	Update(ctx context.Context, id string, upd DealUpdate) (*Deal, error)
	Delete(ctx context.Context, id string) error
}

type TeamMemberStore interface {
	Create(ctx context.Context, m *TeamMember) error
	Find(ctx context.Context, id string) (*TeamMember, error)
	List(ctx context.Context, scope auth.Scope) ([]*TeamMember, error)
	Update(ctx context.Context, id string, upd TeamMemberUpdate) (*TeamMember, error)
	Delete(ctx context.Context, id string) error
	DealCount(ctx context.Context, memberID string) (int, error)
	TaskCount(ctx context.Context, memberID string) (int, error)
}

type TaskStore interface {
	Create(ctx context.Context, t *Task) error
	Find(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, scope auth.Scope, filter TaskFilter) ([]*Task, error)
	Update(ctx context.Context, id string, upd TaskUpdate) (*Task, error)
	Delete(ctx context.Context, id string) error
}

type MeetingStore interface {
	Create(ctx context.Context, m *Meeting) error
	Find(ctx context.Context, id string) (*Meeting, error)
	List(ctx context.Context, scope auth.Scope, filter MeetingFilter) ([]*Meeting, error)
	Update(ctx context.Context, id string, upd MeetingUpdate) (*Meeting, error)
	// Delete removes the meeting and its notes in one transaction.
	Delete(ctx context.Context, id string) error
	AddNote(ctx context.Context, n *MeetingNote) error
	ListNotes(ctx context.Context, meetingID string) ([]*MeetingNote, error)
}

type DocumentStore interface {
	Create(ctx context.Context, d *Document) error
	Find(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context, scope auth.Scope, filter DocumentFilter) ([]*Document, error)
	Delete(ctx context.Context, id string) error
}

// List filters mirror the query parameters of the original API.

type ContactFilter struct {
	Search string // matches name or email
}

type PropertyFilter struct {
	Status  string
	OwnerID string
}

type DealFilter struct {
	PropertyID string
	AssignedTo string
	Status     string
}

type TaskFilter struct {
	Status     string
	AssignedTo string
	DealID     string
}

type MeetingFilter struct {
	DealID string
	After  *time.Time
}

type DocumentFilter struct {
	PropertyID string
	DealID     string
}

// Update payloads use pointer fields: nil leaves a column untouched.

type OrganisationUpdate struct {
	Name *string
}

type ContactUpdate struct {
	Name  *string
	Email *string
	Phone *string
}

type PropertyUpdate struct {
	Name    *string
	Address *string
	OwnerID *string
	Status  *string
}

type DealUpdate struct {
	Name       *string
	PropertyID *string
	AssignedTo *string
	Status     *string
	Value      *float64
}

type TeamMemberUpdate struct {
	Name  *string
	Email *string
}

type TaskUpdate struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *string
	AssignedTo  *string
	DealID      *string
}

type MeetingUpdate struct {
	Datetime    *time.Time
	Title       *string
	Description *string
	Location    *string
	DealID      *string
}
