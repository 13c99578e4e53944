package crm

import "time"

// Organisation is the tenant: the unit of data isolation for everything
// else in this package.
type Organisation struct {
	ID        string    `json:"id"`
	Name      string    `json:"organisation_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrganisationSummary augments an organisation with the counts shown on
// the organisations list.
type OrganisationSummary struct {
	Organisation
	TeamMemberCount int `json:"team_member_count"`
	PropertyCount   int `json:"property_count"`
}

// Contact is a client or prospect. Contacts own properties.
type Contact struct {
	ID             string    `json:"id"`
	OrganisationID string    `json:"organisation_id"`
	Name           string    `json:"name"`
	Email          *string   `json:"email"`
	Phone          *string   `json:"phone"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Property statuses mirror the board columns in the original client.
const (
	PropertyStatusAvailable = "Available"
	PropertyStatusPending   = "Pending"
	PropertyStatusSold      = "Sold"
)

type Property struct {
	ID             string    `json:"id"`
	OrganisationID string    `json:"organisation_id"`
	Name           string    `json:"name"`
	Address        *string   `json:"address"`
	OwnerID        *string   `json:"owner_id"` // owning contact
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const DealStatusNew = "New"

type Deal struct {
	ID             string    `json:"id"`
	OrganisationID string    `json:"organisation_id"`
	Name           string    `json:"name"`
	PropertyID     *string   `json:"property_id"`
	AssignedTo     *string   `json:"assigned_to"` // team member
	Status         string    `json:"status"`
	Value          *float64  `json:"value"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TeamMember is a directory entry within an organisation, optionally
// linked to a login identity.
type TeamMember struct {
	ID             string    `json:"id"`
	OrganisationID string    `json:"organisation_id"`
	Name           string    `json:"team_member_name"`
	Email          string    `json:"team_member_email_id"`
	UserID         *string   `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const TaskStatusPending = "Pending"

type Task struct {
	ID             string     `json:"id"`
	OrganisationID string     `json:"organisation_id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	DueDate        *time.Time `json:"due_date"`
	Status         string     `json:"status"`
	AssignedTo     *string    `json:"assigned_to"`
	DealID         *string    `json:"deal_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Meeting struct {
	ID             string    `json:"id"`
	OrganisationID string    `json:"organisation_id"`
	Datetime       time.Time `json:"datetime"`
	DealID         *string   `json:"deal_id"`
	TeamMemberID   *string   `json:"team_member_id"`
	Title          *string   `json:"title"`
	Description    *string   `json:"description"`
	Location       *string   `json:"location"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MeetingNote is a composition of its meeting: notes are deleted with the
// meeting rather than blocking its deletion.
type MeetingNote struct {
	ID             string    `json:"id"`
	MeetingID      string    `json:"meeting_id"`
	OrganisationID string    `json:"organisation_id"`
	Timestamp      time.Time `json:"timestamp"`
	Content        string    `json:"content"`
	TeamMemberID   *string   `json:"team_member_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type Document struct {
	ID             string    `json:"id"`
	OrganisationID string    `json:"organisation_id"`
	Name           string    `json:"name"`
	URL            string    `json:"url"`
	PropertyID     *string   `json:"property_id"`
	DealID         *string   `json:"deal_id"`
	UploadedBy     *string   `json:"uploaded_by"` // team member
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
