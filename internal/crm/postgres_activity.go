package crm

import (
	"context"
	"database/sql"
	"fmt"

	"propdesk.org/internal/auth"
	"propdesk.org/internal/ids"
)

// Meeting store -------------------------------------------------------------

type meetingStore struct{ db *sql.DB }

const meetingColumns = `id, organisation_id, datetime, deal_id, team_member_id, title, description, location, created_at, updated_at`

func (s *meetingStore) Create(ctx context.Context, m *Meeting) error {
	if m.ID == "" {
		m.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into meetings(id, organisation_id, datetime, deal_id, team_member_id, title, description, location) values($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.ID, m.OrganisationID, m.Datetime, m.DealID, m.TeamMemberID, m.Title, m.Description, m.Location,
	)
	return err
}

func (s *meetingStore) Find(ctx context.Context, id string) (*Meeting, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+meetingColumns+` from meetings where id=$1`, id)
	return scanMeeting(row.Scan)
}

func (s *meetingStore) List(ctx context.Context, scope auth.Scope, filter MeetingFilter) ([]*Meeting, error) {
	var c condSet
	c.addScope(scope)
	if filter.DealID != "" {
		c.add("deal_id", filter.DealID)
	}
	if filter.After != nil {
		c.conds = append(c.conds, fmt.Sprintf("datetime >= $%d", len(c.args)+1))
		c.args = append(c.args, *filter.After)
	}
	query := `select ` + meetingColumns + ` from meetings` + c.where() + ` order by datetime asc`
	rows, err := s.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, meeting)
	}
	return res, rows.Err()
}

func (s *meetingStore) Update(ctx context.Context, id string, upd MeetingUpdate) (*Meeting, error) {
	var set setClause
	if upd.Datetime != nil {
		set.add("datetime", *upd.Datetime)
	}
	if upd.Title != nil {
		set.add("title", *upd.Title)
	}
	if upd.Description != nil {
		set.add("description", *upd.Description)
	}
	if upd.Location != nil {
		set.add("location", *upd.Location)
	}
	if upd.DealID != nil {
		set.add("deal_id", *upd.DealID)
	}
	if !set.empty() {
		if err := set.apply(ctx, s.db, "meetings", id); err != nil {
			return nil, err
		}
	}
	return s.Find(ctx, id)
}

// Delete removes the meeting together with its notes. Notes are owned by
// the meeting, so they never block deletion the way deals block a property.
func (s *meetingStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from meeting_notes where meeting_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `delete from meetings where id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *meetingStore) AddNote(ctx context.Context, n *MeetingNote) error {
	if n.ID == "" {
		n.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into meeting_notes(id, meeting_id, organisation_id, timestamp, content, team_member_id) values($1,$2,$3,$4,$5,$6)`,
		n.ID, n.MeetingID, n.OrganisationID, n.Timestamp, n.Content, n.TeamMemberID,
	)
	return err
}

func (s *meetingStore) ListNotes(ctx context.Context, meetingID string) ([]*MeetingNote, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, meeting_id, organisation_id, timestamp, content, team_member_id, created_at
		 from meeting_notes where meeting_id=$1 order by timestamp asc`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*MeetingNote
	for rows.Next() {
		var (
			n      MeetingNote
			member sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.MeetingID, &n.OrganisationID, &n.Timestamp, &n.Content, &member, &n.CreatedAt); err != nil {
			return nil, err
		}
		if member.Valid {
			n.TeamMemberID = &member.String
		}
		res = append(res, &n)
	}
	return res, rows.Err()
}

func scanMeeting(scan func(...any) error) (*Meeting, error) {
	var (
		m                          Meeting
		dealID, memberID           sql.NullString
		title, desc, location      sql.NullString
	)
	if err := scan(&m.ID, &m.OrganisationID, &m.Datetime, &dealID, &memberID, &title, &desc, &location, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, mapRowErr(err)
	}
	if dealID.Valid {
		m.DealID = &dealID.String
	}
	if memberID.Valid {
		m.TeamMemberID = &memberID.String
	}
	if title.Valid {
		m.Title = &title.String
	}
	if desc.Valid {
		m.Description = &desc.String
	}
	if location.Valid {
		m.Location = &location.String
	}
	return &m, nil
}

// Document store ------------------------------------------------------------

type documentStore struct{ db *sql.DB }

const documentColumns = `id, organisation_id, name, url, property_id, deal_id, uploaded_by, created_at, updated_at`

func (s *documentStore) Create(ctx context.Context, d *Document) error {
	if d.ID == "" {
		d.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into documents(id, organisation_id, name, url, property_id, deal_id, uploaded_by) values($1,$2,$3,$4,$5,$6,$7)`,
		d.ID, d.OrganisationID, d.Name, d.URL, d.PropertyID, d.DealID, d.UploadedBy,
	)
	return err
}

func (s *documentStore) Find(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+documentColumns+` from documents where id=$1`, id)
	return scanDocument(row.Scan)
}

func (s *documentStore) List(ctx context.Context, scope auth.Scope, filter DocumentFilter) ([]*Document, error) {
	var c condSet
	c.addScope(scope)
	if filter.PropertyID != "" {
		c.add("property_id", filter.PropertyID)
	}
	if filter.DealID != "" {
		c.add("deal_id", filter.DealID)
	}
	query := `select ` + documentColumns + ` from documents` + c.where() + ` order by created_at asc`
	rows, err := s.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, doc)
	}
	return res, rows.Err()
}

func (s *documentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from documents where id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocument(scan func(...any) error) (*Document, error) {
	var (
		d                            Document
		propertyID, dealID, uploader sql.NullString
	)
	if err := scan(&d.ID, &d.OrganisationID, &d.Name, &d.URL, &propertyID, &dealID, &uploader, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, mapRowErr(err)
	}
	if propertyID.Valid {
		d.PropertyID = &propertyID.String
	}
	if dealID.Valid {
		d.DealID = &dealID.String
	}
	if uploader.Valid {
		d.UploadedBy = &uploader.String
	}
	return &d, nil
}
