package crm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"propdesk.org/internal/auth"
	"propdesk.org/internal/stream"
)

var (
	member = auth.Principal{UserID: "user-1", Email: "agent@example.com", Role: auth.RoleMember, OrganisationID: "org-1"}
	boss   = auth.Principal{UserID: "user-9", Email: "boss@example.com", Role: auth.RoleSuperadmin}
	noOrg  = auth.Principal{UserID: "user-2", Email: "fresh@example.com", Role: auth.RoleMember}
)

func newServiceWithMock(t *testing.T, opts ...ServiceOption) (*Service, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewService(NewPGStore(db), opts...), mock, func() { db.Close() }
}

func contactRows(id, orgID, name string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "organisation_id", "name", "email", "phone", "created_at", "updated_at"}).
		AddRow(id, orgID, name, nil, nil, now, now)
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestDeleteContactBlockedByProperties(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	mock.ExpectQuery("from contacts where id=").
		WithArgs("contact-1").
		WillReturnRows(contactRows("contact-1", "org-1", "Jane Seller"))
	mock.ExpectQuery("select count").
		WithArgs("contact-1").
		WillReturnRows(countRows(3))

	err := svc.DeleteContact(context.Background(), member, "contact-1")
	if !errors.Is(err, ErrHasDependents) {
		t.Fatalf("want ErrHasDependents, got %v", err)
	}
	var dep *DependentError
	if !errors.As(err, &dep) {
		t.Fatalf("want *DependentError, got %T", err)
	}
	if dep.Resource != "property" || dep.Count != 3 {
		t.Fatalf("unexpected dependents: %+v", dep)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteContactPublishesEvent(t *testing.T) {
	feed := stream.New()
	svc, mock, done := newServiceWithMock(t, WithFeed(feed))
	defer done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := feed.Subscribe(ctx, "org-1")

	mock.ExpectQuery("from contacts where id=").
		WithArgs("contact-1").
		WillReturnRows(contactRows("contact-1", "org-1", "Jane Seller"))
	mock.ExpectQuery("select count").
		WithArgs("contact-1").
		WillReturnRows(countRows(0))
	mock.ExpectExec("delete from contacts where id=").
		WithArgs("contact-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.DeleteContact(context.Background(), member, "contact-1"); err != nil {
		t.Fatalf("DeleteContact: %v", err)
	}
	select {
	case evt := <-events:
		if evt.Resource != "contact" || evt.Action != "deleted" || evt.OrganisationID != "org-1" {
			t.Fatalf("unexpected event: %+v", evt)
		}
	default:
		t.Fatal("expected a deletion event on the feed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetContactCrossTenant(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	mock.ExpectQuery("from contacts where id=").
		WithArgs("contact-2").
		WillReturnRows(contactRows("contact-2", "org-2", "Foreign Contact"))

	if _, err := svc.GetContact(context.Background(), member, "contact-2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-tenant read: want ErrForbidden, got %v", err)
	}

	mock.ExpectQuery("from contacts where id=").
		WithArgs("contact-2").
		WillReturnRows(contactRows("contact-2", "org-2", "Foreign Contact"))

	if _, err := svc.GetContact(context.Background(), boss, "contact-2"); err != nil {
		t.Fatalf("superadmin read: %v", err)
	}
}

func TestListContactsScopedToTenant(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	mock.ExpectQuery("from contacts where organisation_id=").
		WithArgs("org-1").
		WillReturnRows(contactRows("contact-1", "org-1", "Jane Seller"))

	contacts, err := svc.ListContacts(context.Background(), member, ContactFilter{})
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].OrganisationID != "org-1" {
		t.Fatalf("unexpected result: %+v", contacts)
	}

	// Superadmin lists without a tenant predicate.
	mock.ExpectQuery("from contacts order by created_at asc").
		WillReturnRows(contactRows("contact-2", "org-2", "Foreign Contact"))
	if _, err := svc.ListContacts(context.Background(), boss, ContactFilter{}); err != nil {
		t.Fatalf("superadmin ListContacts: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateContactRequiresTenant(t *testing.T) {
	svc, _, done := newServiceWithMock(t)
	defer done()

	_, err := svc.CreateContact(context.Background(), noOrg, NewContact{Name: "Jane Seller"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("tenantless create: want ErrInvalidInput, got %v", err)
	}
}

func TestCreateOrganisationValidatesName(t *testing.T) {
	svc, _, done := newServiceWithMock(t)
	defer done()

	if _, err := svc.CreateOrganisation(context.Background(), noOrg, "x"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("short name: want ErrInvalidInput, got %v", err)
	}
}

func TestCreatePropertyRejectsForeignOwner(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	mock.ExpectQuery("from contacts where id=").
		WithArgs("contact-2").
		WillReturnRows(contactRows("contact-2", "org-2", "Foreign Contact"))

	owner := "contact-2"
	_, err := svc.CreateProperty(context.Background(), member, NewProperty{Name: "Hillside Villa", OwnerID: &owner})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign owner: want ErrForbidden, got %v", err)
	}
}

func TestDeleteTeamMemberBlockedByTasks(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("from team_members where id=").
		WithArgs("member-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organisation_id", "team_member_name", "team_member_email_id", "user_id", "created_at", "updated_at",
		}).AddRow("member-1", "org-1", "Ana Agent", "ana@example.com", nil, now, now))
	mock.ExpectQuery("select count").
		WithArgs("member-1").
		WillReturnRows(countRows(0)) // deals
	mock.ExpectQuery("select count").
		WithArgs("member-1").
		WillReturnRows(countRows(2)) // tasks

	err := svc.DeleteTeamMember(context.Background(), member, "member-1")
	var dep *DependentError
	if !errors.As(err, &dep) {
		t.Fatalf("want *DependentError, got %v", err)
	}
	if dep.Resource != "task" || dep.Count != 2 {
		t.Fatalf("unexpected dependents: %+v", dep)
	}
}

func TestDeleteMeetingCascadesNotes(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("from meetings where id=").
		WithArgs("meeting-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organisation_id", "datetime", "deal_id", "team_member_id", "title", "description", "location", "created_at", "updated_at",
		}).AddRow("meeting-1", "org-1", now, nil, nil, nil, nil, nil, now, now))
	mock.ExpectBegin()
	mock.ExpectExec("delete from meeting_notes where meeting_id=").
		WithArgs("meeting-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("delete from meetings where id=").
		WithArgs("meeting-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := svc.DeleteMeeting(context.Background(), member, "meeting-1"); err != nil {
		t.Fatalf("DeleteMeeting: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func strPtr(s string) *string { return &s }

func dealRows(id, orgID, name string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "organisation_id", "name", "property_id", "assigned_to", "status", "value", "created_at", "updated_at",
	}).AddRow(id, orgID, name, nil, nil, DealStatusNew, nil, now, now)
}

func propertyRows(id, orgID, name string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "organisation_id", "name", "address", "owner_id", "status", "created_at", "updated_at",
	}).AddRow(id, orgID, name, nil, nil, PropertyStatusAvailable, now, now)
}

func TestUpdateDealRejectsForeignProperty(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	mock.ExpectQuery("from deals where id=").
		WithArgs("deal-1").
		WillReturnRows(dealRows("deal-1", "org-1", "Loft sale"))
	mock.ExpectQuery("from properties where id=").
		WithArgs("prop-9").
		WillReturnRows(propertyRows("prop-9", "org-2", "Foreign Loft"))

	_, err := svc.UpdateDeal(context.Background(), member, "deal-1", DealUpdate{PropertyID: strPtr("prop-9")})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdatePropertyRejectsForeignOwner(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	mock.ExpectQuery("from properties where id=").
		WithArgs("prop-1").
		WillReturnRows(propertyRows("prop-1", "org-1", "Harbourview Loft"))
	mock.ExpectQuery("from contacts where id=").
		WithArgs("contact-9").
		WillReturnRows(contactRows("contact-9", "org-2", "Foreign Owner"))

	_, err := svc.UpdateProperty(context.Background(), member, "prop-1", PropertyUpdate{OwnerID: strPtr("contact-9")})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestUpdateTaskRejectsForeignDeal(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("from tasks where id=").
		WithArgs("task-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organisation_id", "title", "description", "due_date", "status", "assigned_to", "deal_id", "created_at", "updated_at",
		}).AddRow("task-1", "org-1", "Call the notary", nil, nil, TaskStatusPending, nil, nil, now, now))
	mock.ExpectQuery("from deals where id=").
		WithArgs("deal-9").
		WillReturnRows(dealRows("deal-9", "org-2", "Foreign deal"))

	_, err := svc.UpdateTask(context.Background(), member, "task-1", TaskUpdate{DealID: strPtr("deal-9")})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestUpdateMeetingRejectsUnknownDeal(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("from meetings where id=").
		WithArgs("meeting-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organisation_id", "datetime", "deal_id", "team_member_id", "title", "description", "location", "created_at", "updated_at",
		}).AddRow("meeting-1", "org-1", now, nil, nil, nil, nil, nil, now, now))
	mock.ExpectQuery("from deals where id=").
		WithArgs("deal-404").
		WillReturnError(ErrNotFound)

	_, err := svc.UpdateMeeting(context.Background(), member, "meeting-1", MeetingUpdate{DealID: strPtr("deal-404")})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestCreateDocumentRejectsForeignUploader(t *testing.T) {
	svc, mock, done := newServiceWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("from team_members where id=").
		WithArgs("member-9").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organisation_id", "team_member_name", "team_member_email_id", "user_id", "created_at", "updated_at",
		}).AddRow("member-9", "org-2", "Foreign Agent", "foreign@example.com", nil, now, now))

	_, err := svc.CreateDocument(context.Background(), member, NewDocument{
		Name:       "Deed",
		URL:        "https://files.example.com/deed.pdf",
		UploadedBy: strPtr("member-9"),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}
