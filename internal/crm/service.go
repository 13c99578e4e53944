package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"propdesk.org/internal/auth"
	"propdesk.org/internal/stream"
)

// Service applies the access policy on top of the store. Every operation
// takes the caller's principal; tenant checks happen here, before or while
// touching the store, so handlers cannot forget them.
type Service struct {
	store Store
	feed  *stream.Feed
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithFeed publishes resource-change events to the given feed.
func WithFeed(feed *stream.Feed) ServiceOption {
	return func(s *Service) { s.feed = feed }
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the CRM service around an injected store.
func NewService(store Store, opts ...ServiceOption) *Service {
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) publish(p auth.Principal, resource, action, id, organisationID string) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(stream.Event{
		Resource:       resource,
		Action:         action,
		ResourceID:     id,
		OrganisationID: organisationID,
		ActorID:        p.UserID,
		Timestamp:      s.now().UTC(),
	})
}

func requireMutate(p auth.Principal, organisationID string) error {
	if !auth.CanMutate(p, organisationID) {
		return ErrForbidden
	}
	return nil
}

// tenantOf resolves the tenant a create lands in: always the principal's
// own organisation. A principal still mid-onboarding owns no tenant and
// cannot create tenant-scoped records.
func tenantOf(p auth.Principal) (string, error) {
	if p.OrganisationID == "" {
		return "", fmt.Errorf("%w: principal has no organisation", ErrInvalidInput)
	}
	return p.OrganisationID, nil
}

// Organisations -------------------------------------------------------------

const (
	minOrganisationName = 2
	maxOrganisationName = 50
)

// CreateOrganisation is open to any authenticated principal; it is the
// onboarding step for tenantless users. Attaching the creator to the new
// tenant is the auth service's job, driven by the handler.
func (s *Service) CreateOrganisation(ctx context.Context, p auth.Principal, name string) (*Organisation, error) {
	name = strings.TrimSpace(name)
	if len(name) < minOrganisationName || len(name) > maxOrganisationName {
		return nil, fmt.Errorf("%w: organisation name must be between %d and %d characters",
			ErrInvalidInput, minOrganisationName, maxOrganisationName)
	}
	org := &Organisation{Name: name}
	if err := s.store.Organisations(ctx).Create(ctx, org); err != nil {
		return nil, err
	}
	s.publish(p, "organisation", "created", org.ID, org.ID)
	return s.store.Organisations(ctx).Find(ctx, org.ID)
}

func (s *Service) ListOrganisations(ctx context.Context, p auth.Principal) ([]*OrganisationSummary, error) {
	return s.store.Organisations(ctx).List(ctx, auth.ScopeFor(p))
}

func (s *Service) GetOrganisation(ctx context.Context, p auth.Principal, id string) (*Organisation, error) {
	org, err := s.store.Organisations(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanView(p, org.ID) {
		return nil, ErrForbidden
	}
	return org, nil
}

func (s *Service) UpdateOrganisation(ctx context.Context, p auth.Principal, id string, upd OrganisationUpdate) (*Organisation, error) {
	if _, err := s.mutableOrganisation(ctx, p, id); err != nil {
		return nil, err
	}
	org, err := s.store.Organisations(ctx).Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.publish(p, "organisation", "updated", org.ID, org.ID)
	return org, nil
}

func (s *Service) mutableOrganisation(ctx context.Context, p auth.Principal, id string) (*Organisation, error) {
	org, err := s.store.Organisations(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireMutate(p, org.ID); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *Service) DeleteOrganisation(ctx context.Context, p auth.Principal, id string) error {
	if _, err := s.mutableOrganisation(ctx, p, id); err != nil {
		return err
	}
	orgs := s.store.Organisations(ctx)
	members, err := orgs.MemberCount(ctx, id)
	if err != nil {
		return err
	}
	if members > 0 {
		return &DependentError{Resource: "team member", Count: members}
	}
	properties, err := orgs.PropertyCount(ctx, id)
	if err != nil {
		return err
	}
	if properties > 0 {
		return &DependentError{Resource: "property", Count: properties}
	}
	if err := orgs.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(p, "organisation", "deleted", id, id)
	return nil
}

// Contacts ------------------------------------------------------------------

type NewContact struct {
	Name  string
	Email *string
	Phone *string
}

func (s *Service) CreateContact(ctx context.Context, p auth.Principal, in NewContact) (*Contact, error) {
	orgID, err := tenantOf(p)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: contact name is required", ErrInvalidInput)
	}
	contact := &Contact{
		OrganisationID: orgID,
		Name:           strings.TrimSpace(in.Name),
		Email:          in.Email,
		Phone:          in.Phone,
	}
	if err := s.store.Contacts(ctx).Create(ctx, contact); err != nil {
		return nil, err
	}
	s.publish(p, "contact", "created", contact.ID, orgID)
	return s.store.Contacts(ctx).Find(ctx, contact.ID)
}

func (s *Service) ListContacts(ctx context.Context, p auth.Principal, filter ContactFilter) ([]*Contact, error) {
	return s.store.Contacts(ctx).List(ctx, auth.ScopeFor(p), filter)
}

func (s *Service) GetContact(ctx context.Context, p auth.Principal, id string) (*Contact, error) {
	contact, err := s.store.Contacts(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanView(p, contact.OrganisationID) {
		return nil, ErrForbidden
	}
	return contact, nil
}

func (s *Service) UpdateContact(ctx context.Context, p auth.Principal, id string, upd ContactUpdate) (*Contact, error) {
	existing, err := s.store.Contacts(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireMutate(p, existing.OrganisationID); err != nil {
		return nil, err
	}
	contact, err := s.store.Contacts(ctx).Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.publish(p, "contact", "updated", id, existing.OrganisationID)
	return contact, nil
}

// DeleteContact refuses when the contact still owns properties and reports
// how many block the delete.
func (s *Service) DeleteContact(ctx context.Context, p auth.Principal, id string) error {
	existing, err := s.store.Contacts(ctx).Find(ctx, id)
	if err != nil {
		return err
	}
	if err := requireMutate(p, existing.OrganisationID); err != nil {
		return err
	}
	count, err := s.store.Contacts(ctx).PropertyCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &DependentError{Resource: "property", Count: count}
	}
	if err := s.store.Contacts(ctx).Delete(ctx, id); err != nil {
		return err
	}
	s.publish(p, "contact", "deleted", id, existing.OrganisationID)
	return nil
}

// Properties ----------------------------------------------------------------

type NewProperty struct {
	Name    string
	Address *string
	OwnerID *string
	Status  string
}

func (s *Service) CreateProperty(ctx context.Context, p auth.Principal, in NewProperty) (*Property, error) {
	orgID, err := tenantOf(p)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: property name is required", ErrInvalidInput)
	}
	if in.OwnerID != nil {
		if err := s.checkContact(ctx, orgID, *in.OwnerID); err != nil {
			return nil, err
		}
	}
	property := &Property{
		OrganisationID: orgID,
		Name:           strings.TrimSpace(in.Name),
		Address:        in.Address,
		OwnerID:        in.OwnerID,
		Status:         in.Status,
	}
	if err := s.store.Properties(ctx).Create(ctx, property); err != nil {
		return nil, err
	}
	s.publish(p, "property", "created", property.ID, orgID)
	return s.store.Properties(ctx).Find(ctx, property.ID)
}

func (s *Service) ListProperties(ctx context.Context, p auth.Principal, filter PropertyFilter) ([]*Property, error) {
	return s.store.Properties(ctx).List(ctx, auth.ScopeFor(p), filter)
}

func (s *Service) GetProperty(ctx context.Context, p auth.Principal, id string) (*Property, error) {
	property, err := s.store.Properties(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanView(p, property.OrganisationID) {
		return nil, ErrForbidden
	}
	return property, nil
}

func (s *Service) UpdateProperty(ctx context.Context, p auth.Principal, id string, upd PropertyUpdate) (*Property, error) {
	existing, err := s.store.Properties(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireMutate(p, existing.OrganisationID); err != nil {
		return nil, err
	}
	if upd.OwnerID != nil {
		if err := s.checkContact(ctx, existing.OrganisationID, *upd.OwnerID); err != nil {
			return nil, err
		}
	}
	property, err := s.store.Properties(ctx).Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.publish(p, "property", "updated", id, existing.OrganisationID)
	return property, nil
}

// DeleteProperty refuses when deals still reference the property.
func (s *Service) DeleteProperty(ctx context.Context, p auth.Principal, id string) error {
	existing, err := s.store.Properties(ctx).Find(ctx, id)
	if err != nil {
		return err
	}
	if err := requireMutate(p, existing.OrganisationID); err != nil {
		return err
	}
	count, err := s.store.Properties(ctx).DealCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &DependentError{Resource: "deal", Count: count}
	}
	if err := s.store.Properties(ctx).Delete(ctx, id); err != nil {
		return err
	}
	s.publish(p, "property", "deleted", id, existing.OrganisationID)
	return nil
}

// Deals ---------------------------------------------------------------------

type NewDeal struct {
	Name       string
	PropertyID *string
	AssignedTo *string
	Status     string
	Value      *float64
}

func (s *Service) CreateDeal(ctx context.Context, p auth.Principal, in NewDeal) (*Deal, error) {
	orgID, err := tenantOf(p)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: deal name is required", ErrInvalidInput)
	}
	if in.PropertyID != nil {
		if err := s.checkProperty(ctx, orgID, *in.PropertyID); err != nil {
			return nil, err
		}
	}
	if in.AssignedTo != nil {
		if err := s.checkTeamMember(ctx, orgID, *in.AssignedTo); err != nil {
			return nil, err
		}
	}
	deal := &Deal{
		OrganisationID: orgID,
		Name:           strings.TrimSpace(in.Name),
		PropertyID:     in.PropertyID,
		AssignedTo:     in.AssignedTo,
		Status:         in.Status,
		Value:          in.Value,
	}
	if err := s.store.Deals(ctx).Create(ctx, deal); err != nil {
		return nil, err
	}
	s.publish(p, "deal", "created", deal.ID, orgID)
	return s.store.Deals(ctx).Find(ctx, deal.ID)
}

func (s *Service) ListDeals(ctx context.Context, p auth.Principal, filter DealFilter) ([]*Deal, error) {
	return s.store.Deals(ctx).List(ctx, auth.ScopeFor(p), filter)
}

func (s *Service) GetDeal(ctx context.Context, p auth.Principal, id string) (*Deal, error) {
	deal, err := s.store.Deals(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanView(p, deal.OrganisationID) {
		return nil, ErrForbidden
	}
	return deal, nil
}

func (s *Service) UpdateDeal(ctx context.Context, p auth.Principal, id string, upd DealUpdate) (*Deal, error) {
	existing, err := s.store.Deals(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireMutate(p, existing.OrganisationID); err != nil {
		return nil, err
	}
	if upd.PropertyID != nil {
		if err := s.checkProperty(ctx, existing.OrganisationID, *upd.PropertyID); err != nil {
			return nil, err
		}
	}
	if upd.AssignedTo != nil {
		if err := s.checkTeamMember(ctx, existing.OrganisationID, *upd.AssignedTo); err != nil {
			return nil, err
		}
	}
	deal, err := s.store.Deals(ctx).Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.publish(p, "deal", "updated", id, existing.OrganisationID)
	return deal, nil
}

func (s *Service) DeleteDeal(ctx context.Context, p auth.Principal, id string) error {
	existing, err := s.store.Deals(ctx).Find(ctx, id)
	if err != nil {
		return err
	}
	if err := requireMutate(p, existing.OrganisationID); err != nil {
		return err
	}
	if err := s.store.Deals(ctx).Delete(ctx, id); err != nil {
		return err
	}
	s.publish(p, "deal", "deleted", id, existing.OrganisationID)
	return nil
}

func (s *Service) checkTeamMember(ctx context.Context, orgID, memberID string) error {
	member, err := s.store.TeamMembers(ctx).Find(ctx, memberID)
	if err != nil {
		return fmt.Errorf("%w: unknown team member", ErrInvalidInput)
	}
	if member.OrganisationID != orgID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) checkContact(ctx context.Context, orgID, contactID string) error {
	contact, err := s.store.Contacts(ctx).Find(ctx, contactID)
	if err != nil {
		return fmt.Errorf("%w: unknown contact", ErrInvalidInput)
	}
	if contact.OrganisationID != orgID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) checkProperty(ctx context.Context, orgID, propertyID string) error {
	property, err := s.store.Properties(ctx).Find(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("%w: unknown property", ErrInvalidInput)
	}
	if property.OrganisationID != orgID {
		return ErrForbidden
	}
	return nil
}

// Team members --------------------------------------------------------------

type NewTeamMember struct {
	Name   string
	Email  string
	UserID *string
}

func (s *Service) CreateTeamMember(ctx context.Context, p auth.Principal, in NewTeamMember) (*TeamMember, error) {
	orgID, err := tenantOf(p)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return nil, fmt.Errorf("%w: team member name and email are required", ErrInvalidInput)
	}
	member := &TeamMember{
		OrganisationID: orgID,
		Name:           strings.TrimSpace(in.Name),
		Email:          auth.NormalizeEmail(in.Email),
		UserID:         in.UserID,
	}
	if err := s.store.TeamMembers(ctx).Create(ctx, member); err != nil {
		return nil, err
	}
	s.publish(p, "team_member", "created", member.ID, orgID)
	return s.store.TeamMembers(ctx).Find(ctx, member.ID)
}

func (s *Service) ListTeamMembers(ctx context.Context, p auth.Principal) ([]*TeamMember, error) {
	return s.store.TeamMembers(ctx).List(ctx, auth.ScopeFor(p))
}

func (s *Service) GetTeamMember(ctx context.Context, p auth.Principal, id string) (*TeamMember, error) {
	member, err := s.store.TeamMembers(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanView(p, member.OrganisationID) {
		return nil, ErrForbidden
	}
	return member, nil
}

func (s *Service) UpdateTeamMember(ctx context.Context, p auth.Principal, id string, upd TeamMemberUpdate) (*TeamMember, error) {
	existing, err := s.store.TeamMembers(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireMutate(p, existing.OrganisationID); err != nil {
		return nil, err
	}
	member, err := s.store.TeamMembers(ctx).Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.publish(p, "team_member", "updated", id, existing.OrganisationID)
	return member, nil
}

// DeleteTeamMember refuses while deals or tasks are still assigned.
func (s *Service) DeleteTeamMember(ctx context.Context, p auth.Principal, id string) error {
	existing, err := s.store.TeamMembers(ctx).Find(ctx, id)
	if err != nil {
		return err
	}
	if err := requireMutate(p, existing.OrganisationID); err != nil {
		return err
	}
	members := s.store.TeamMembers(ctx)
	deals, err := members.DealCount(ctx, id)
	if err != nil {
		return err
	}
	if deals > 0 {
		return &DependentError{Resource: "deal", Count: deals}
	}
	tasks, err := members.TaskCount(ctx, id)
	if err != nil {
		return err
	}
	if tasks > 0 {
		return &DependentError{Resource: "task", Count: tasks}
	}
	if err := members.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(p, "team_member", "deleted", id, existing.OrganisationID)
	return nil
}

// Tasks ---------------------------------------------------------------------

type NewTask struct {
	Title       string
	Description *string
	DueDate     *time.Time
	Status      string
	AssignedTo  *string
	DealID      *string
}

func (s *Service) CreateTask(ctx context.Context, p auth.Principal, in NewTask) (*Task, error) {
	orgID, err := tenantOf(p)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: task title is required", ErrInvalidInput)
	}
	if in.AssignedTo != nil {
		if err := s.checkTeamMember(ctx, orgID, *in.AssignedTo); err != nil {
			return nil, err
		}
	}
	if in.DealID != nil {
		if err := s.checkDeal(ctx, orgID, *in.DealID); err != nil {
			return nil, err
		}
	}
	task := &Task{
		OrganisationID: orgID,
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		DueDate:        in.DueDate,
		Status:         in.Status,
		AssignedTo:     in.AssignedTo,
		DealID:         in.DealID,
	}
	if err := s.store.Tasks(ctx).Create(ctx, task); err != nil {
		return nil, err
	}
	s.publish(p, "task", "created", task.ID, orgID)
	return s.store.Tasks(ctx).Find(ctx, task.ID)
}

func (s *Service) ListTasks(ctx context.Context, p auth.Principal, filter TaskFilter) ([]*Task, error) {
	return s.store.Tasks(ctx).List(ctx, auth.ScopeFor(p), filter)
}

func (s *Service) GetTask(ctx context.Context, p auth.Principal, id string) (*Task, error) {
	task, err := s.store.Tasks(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanView(p, task.OrganisationID) {
		return nil, ErrForbidden
	}
	return task, nil
}

func (s *Service) UpdateTask(ctx context.Context, p auth.Principal, id string, upd TaskUpdate) (*Task, error) {
	existing, err := s.store.Tasks(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireMutate(p, existing.OrganisationID); err != nil {
		return nil, err
	}
	if upd.AssignedTo != nil {
		if err := s.checkTeamMember(ctx, existing.OrganisationID, *upd.AssignedTo); err != nil {
			return nil, err
		}
	}
	if upd.DealID != nil {
		if err := s.checkDeal(ctx, existing.OrganisationID, *upd.DealID); err != nil {
			return nil, err
		}
	}
	task, err := s.store.Tasks(ctx).Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.publish(p, "task", "updated", id, existing.OrganisationID)
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, p auth.Principal, id string) error {
	existing, err := s.store.Tasks(ctx).Find(ctx, id)
	if err != nil {
		return err
	}
	if err := requireMutate(p, existing.OrganisationID); err != nil {
		return err
	}
	if err := s.store.Tasks(ctx).Delete(ctx, id); err != nil {
		return err
	}
	s.publish(p, "task", "deleted", id, existing.OrganisationID)
	return nil
}

func (s *Service) checkDeal(ctx context.Context, orgID, dealID string) error {
	deal, err := s.store.Deals(ctx).Find(ctx, dealID)
	if err != nil {
		return fmt.Errorf("%w: unknown deal", ErrInvalidInput)
	}
	if deal.OrganisationID != orgID {
		return ErrForbidden
	}
	return nil
}

// Meetings ------------------------------------------------------------------

type NewMeeting struct {
	Datetime     time.Time
	DealID       *string
	TeamMemberID *string
	Title        *string
	Description  *string
	Location     *string
}

func (s *Service) CreateMeeting(ctx context.Context, p auth.Principal, in NewMeeting) (*Meeting, error) {
	orgID, err := tenantOf(p)
	if err != nil {
		return nil, err
	}
	if in.Datetime.IsZero() {
		return nil, fmt.Errorf("%w: meeting datetime is required", ErrInvalidInput)
	}
	if in.DealID != nil {
		if err := s.checkDeal(ctx, orgID, *in.DealID); err != nil {
			return nil, err
		}
	}
	if in.TeamMemberID != nil {
		if err := s.checkTeamMember(ctx, orgID, *in.TeamMemberID); err != nil {
			return nil, err
		}
	}
	meeting := &Meeting{
		OrganisationID: orgID,
		Datetime:       in.Datetime,
		DealID:         in.DealID,
		TeamMemberID:   in.TeamMemberID,
		Title:          in.Title,
		Description:    in.Description,
		Location:       in.Location,
	}
	if err := s.store.Meetings(ctx).Create(ctx, meeting); err != nil {
		return nil, err
	}
	s.publish(p, "meeting", "created", meeting.ID, orgID)
	return s.store.Meetings(ctx).Find(ctx, meeting.ID)
}

func (s *Service) ListMeetings(ctx context.Context, p auth.Principal, filter MeetingFilter) ([]*Meeting, error) {
	return s.store.Meetings(ctx).List(ctx, auth.ScopeFor(p), filter)
}

func (s *Service) GetMeeting(ctx context.Context, p auth.Principal, id string) (*Meeting, error) {
	meeting, err := s.store.Meetings(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanView(p, meeting.OrganisationID) {
		return nil, ErrForbidden
	}
	return meeting, nil
}

func (s *Service) UpdateMeeting(ctx context.Context, p auth.Principal, id string, upd MeetingUpdate) (*Meeting, error) {
	existing, err := s.store.Meetings(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireMutate(p, existing.OrganisationID); err != nil {
		return nil, err
	}
	if upd.DealID != nil {
		if err := s.checkDeal(ctx, existing.OrganisationID, *upd.DealID); err != nil {
			return nil, err
		}
	}
	meeting, err := s.store.Meetings(ctx).Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.publish(p, "meeting", "updated", id, existing.OrganisationID)
	return meeting, nil
}

// DeleteMeeting removes the meeting together with its notes: notes are a
// composition of the meeting, not a blocking dependent.
func (s *Service) DeleteMeeting(ctx context.Context, p auth.Principal, id string) error {
	existing, err := s.store.Meetings(ctx).Find(ctx, id)
	if err != nil {
		return err
	}
	if err := requireMutate(p, existing.OrganisationID); err != nil {
		return err
	}
	if err := s.store.Meetings(ctx).Delete(ctx, id); err != nil {
		return err
	}
	s.publish(p, "meeting", "deleted", id, existing.OrganisationID)
	return nil
}

func (s *Service) AddMeetingNote(ctx context.Context, p auth.Principal, meetingID, content string, teamMemberID *string) (*MeetingNote, error) {
	meeting, err := s.store.Meetings(ctx).Find(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if err := requireMutate(p, meeting.OrganisationID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: note content is required", ErrInvalidInput)
	}
	note := &MeetingNote{
		MeetingID:      meetingID,
		OrganisationID: meeting.OrganisationID,
		Timestamp:      s.now().UTC(),
		Content:        content,
		TeamMemberID:   teamMemberID,
	}
	if err := s.store.Meetings(ctx).AddNote(ctx, note); err != nil {
		return nil, err
	}
	s.publish(p, "meeting_note", "created", note.ID, meeting.OrganisationID)
	return note, nil
}

func (s *Service) ListMeetingNotes(ctx context.Context, p auth.Principal, meetingID string) ([]*MeetingNote, error) {
	if _, err := s.GetMeeting(ctx, p, meetingID); err != nil {
		return nil, err
	}
	return s.store.Meetings(ctx).ListNotes(ctx, meetingID)
}

// Documents -----------------------------------------------------------------

type NewDocument struct {
	Name       string
	URL        string
	PropertyID *string
	DealID     *string
	UploadedBy *string
}

func (s *Service) CreateDocument(ctx context.Context, p auth.Principal, in NewDocument) (*Document, error) {
	orgID, err := tenantOf(p)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.URL) == "" {
		return nil, fmt.Errorf("%w: document name and url are required", ErrInvalidInput)
	}
	if in.PropertyID != nil {
		if err := s.checkProperty(ctx, orgID, *in.PropertyID); err != nil {
			return nil, err
		}
	}
	if in.DealID != nil {
		if err := s.checkDeal(ctx, orgID, *in.DealID); err != nil {
			return nil, err
		}
	}
	// uploaded_by references the team-member directory, not the login
	// identity behind the token.
	if in.UploadedBy != nil {
		if err := s.checkTeamMember(ctx, orgID, *in.UploadedBy); err != nil {
			return nil, err
		}
	}
	doc := &Document{
		OrganisationID: orgID,
		Name:           strings.TrimSpace(in.Name),
		URL:            strings.TrimSpace(in.URL),
		PropertyID:     in.PropertyID,
		DealID:         in.DealID,
		UploadedBy:     in.UploadedBy,
	}
	if err := s.store.Documents(ctx).Create(ctx, doc); err != nil {
		return nil, err
	}
	s.publish(p, "document", "created", doc.ID, orgID)
	return s.store.Documents(ctx).Find(ctx, doc.ID)
}

func (s *Service) ListDocuments(ctx context.Context, p auth.Principal, filter DocumentFilter) ([]*Document, error) {
	return s.store.Documents(ctx).List(ctx, auth.ScopeFor(p), filter)
}

func (s *Service) GetDocument(ctx context.Context, p auth.Principal, id string) (*Document, error) {
	doc, err := s.store.Documents(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanView(p, doc.OrganisationID) {
		return nil, ErrForbidden
	}
	return doc, nil
}

func (s *Service) DeleteDocument(ctx context.Context, p auth.Principal, id string) error {
	existing, err := s.store.Documents(ctx).Find(ctx, id)
	if err != nil {
		return err
	}
	if err := requireMutate(p, existing.OrganisationID); err != nil {
		return err
	}
	if err := s.store.Documents(ctx).Delete(ctx, id); err != nil {
		return err
	}
	s.publish(p, "document", "deleted", id, existing.OrganisationID)
	return nil
}
