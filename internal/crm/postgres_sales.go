package crm

import (
	"context"
	"database/sql"

	"propdesk.org/internal/auth"
	"propdesk.org/internal/ids"
)

// Deal store ----------------------------------------------------------------

type dealStore struct{ db *sql.DB }

const dealColumns = `id, organisation_id, name, property_id, assigned_to, status, value, created_at, updated_at`

func (s *dealStore) Create(ctx context.Context, d *Deal) error {
	if d.ID == "" {
		d.ID = ids.New()
	}
	if d.Status == "" {
		d.Status = DealStatusNew
	}
	_, err := s.db.ExecContext(ctx,
		`insert into deals(id, organisation_id, name, property_id, assigned_to, status, value) values($1,$2,$3,$4,$5,$6,$7)`,
		d.ID, d.OrganisationID, d.Name, d.PropertyID, d.AssignedTo, d.Status, d.Value,
	)
	return err
}

func (s *dealStore) Find(ctx context.Context, id string) (*Deal, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+dealColumns+` from deals where id=$1`, id)
	return scanDeal(row.Scan)
}

func (s *dealStore) List(ctx context.Context, scope auth.Scope, filter DealFilter) ([]*Deal, error) {
	var c condSet
	c.addScope(scope)
	if filter.PropertyID != "" {
		c.add("property_id", filter.PropertyID)
	}
	if filter.AssignedTo != "" {
		c.add("assigned_to", filter.AssignedTo)
	}
	if filter.Status != "" {
		c.add("status", filter.Status)
	}
	query := `select ` + dealColumns + ` from deals` + c.where() + ` order by created_at asc`
	rows, err := s.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Deal
	for rows.Next() {
		deal, err := scanDeal(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, deal)
	}
	return res, rows.Err()
}

func (s *dealStore) Update(ctx context.Context, id string, upd DealUpdate) (*Deal, error) {
	var set setClause
	if upd.Name != nil {
		set.add("name", *upd.Name)
	}
	if upd.PropertyID != nil {
		set.add("property_id", *upd.PropertyID)
	}
	if upd.AssignedTo != nil {
		set.add("assigned_to", *upd.AssignedTo)
	}
	if upd.Status != nil {
		set.add("status", *upd.Status)
	}
	if upd.Value != nil {
		set.add("value", *upd.Value)
	}
	if !set.empty() {
		if err := set.apply(ctx, s.db, "deals", id); err != nil {
			return nil, err
		}
	}
	return s.Find(ctx, id)
}

func (s *dealStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from deals where id=$1`, id)
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

func scanDeal(scan func(...any) error) (*Deal, error) {
	var (
		d                    Deal
		propertyID, assigned sql.NullString
		value                sql.NullFloat64
	)
	if err := scan(&d.ID, &d.OrganisationID, &d.Name, &propertyID, &assigned, &d.Status, &value, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, mapRowErr(err)
	}
	if propertyID.Valid {
		d.PropertyID = &propertyID.String
	}
	if assigned.Valid {
		d.AssignedTo = &assigned.String
	}
	if value.Valid {
		d.Value = &value.Float64
	}
	return &d, nil
}

// Team member store ---------------------------------------------------------

type teamMemberStore struct{ db *sql.DB }

const teamMemberColumns = `id, organisation_id, team_member_name, team_member_email_id, user_id, created_at, updated_at`

func (s *teamMemberStore) Create(ctx context.Context, m *TeamMember) error {
	if m.ID == "" {
		m.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into team_members(id, organisation_id, team_member_name, team_member_email_id, user_id) values($1,$2,$3,$4,$5)`,
		m.ID, m.OrganisationID, m.Name, m.Email, m.UserID,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *teamMemberStore) Find(ctx context.Context, id string) (*TeamMember, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+teamMemberColumns+` from team_members where id=$1`, id)
	return scanTeamMember(row.Scan)
}

func (s *teamMemberStore) List(ctx context.Context, scope auth.Scope) ([]*TeamMember, error) {
	var c condSet
	c.addScope(scope)
	query := `select ` + teamMemberColumns + ` from team_members` + c.where() + ` order by created_at asc`
	rows, err := s.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*TeamMember
	for rows.Next() {
		member, err := scanTeamMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, member)
	}
	return res, rows.Err()
}

func (s *teamMemberStore) Update(ctx context.Context, id string, upd TeamMemberUpdate) (*TeamMember, error) {
	var set setClause
	if upd.Name != nil {
		set.add("team_member_name", *upd.Name)
	}
	if upd.Email != nil {
		set.add("team_member_email_id", *upd.Email)
	}
	if !set.empty() {
		if err := set.apply(ctx, s.db, "team_members", id); err != nil {
			return nil, err
		}
	}
	return s.Find(ctx, id)
}

func (s *teamMemberStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from team_members where id=$1`, id)
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

func (s *teamMemberStore) DealCount(ctx context.Context, memberID string) (int, error) {
	return countRow(ctx, s.db, `select count(*) from deals where assigned_to=$1`, memberID)
}

func (s *teamMemberStore) TaskCount(ctx context.Context, memberID string) (int, error) {
	return countRow(ctx, s.db, `select count(*) from tasks where assigned_to=$1`, memberID)
}

func scanTeamMember(scan func(...any) error) (*TeamMember, error) {
	var (
		m      TeamMember
		userID sql.NullString
	)
	if err := scan(&m.ID, &m.OrganisationID, &m.Name, &m.Email, &userID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, mapRowErr(err)
	}
	if userID.Valid {
		m.UserID = &userID.String
	}
	return &m, nil
}

// Task store ----------------------------------------------------------------

type taskStore struct{ db *sql.DB }

const taskColumns = `id, organisation_id, title, description, due_date, status, assigned_to, deal_id, created_at, updated_at`

func (s *taskStore) Create(ctx context.Context, t *Task) error {
	if t.ID == "" {
		t.ID = ids.New()
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	_, err := s.db.ExecContext(ctx,
		`insert into tasks(id, organisation_id, title, description, due_date, status, assigned_to, deal_id) values($1,$2,$3,$4,$5,$6,$7,$8)`,
		t.ID, t.OrganisationID, t.Title, t.Description, t.DueDate, t.Status, t.AssignedTo, t.DealID,
	)
	return err
}

func (s *taskStore) Find(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+taskColumns+` from tasks where id=$1`, id)
	return scanTask(row.Scan)
}

func (s *taskStore) List(ctx context.Context, scope auth.Scope, filter TaskFilter) ([]*Task, error) {
	var c condSet
	c.addScope(scope)
	if filter.Status != "" {
		c.add("status", filter.Status)
	}
	if filter.AssignedTo != "" {
		c.add("assigned_to", filter.AssignedTo)
	}
	if filter.DealID != "" {
		c.add("deal_id", filter.DealID)
	}
	query := `select ` + taskColumns + ` from tasks` + c.where() + ` order by created_at asc`
	rows, err := s.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Task
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, task)
	}
	return res, rows.Err()
}

func (s *taskStore) Update(ctx context.Context, id string, upd TaskUpdate) (*Task, error) {
	var set setClause
	if upd.Title != nil {
		set.add("title", *upd.Title)
	}
	if upd.Description != nil {
		set.add("description", *upd.Description)
	}
	if upd.DueDate != nil {
		set.add("due_date", *upd.DueDate)
	}
	if upd.Status != nil {
		set.add("status", *upd.Status)
	}
	if upd.AssignedTo != nil {
		set.add("assigned_to", *upd.AssignedTo)
	}
	if upd.DealID != nil {
		set.add("deal_id", *upd.DealID)
	}
	if !set.empty() {
		if err := set.apply(ctx, s.db, "tasks", id); err != nil {
			return nil, err
		}
	}
	return s.Find(ctx, id)
}

func (s *taskStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from tasks where id=$1`, id)
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

func scanTask(scan func(...any) error) (*Task, error) {
	var (
		t                 Task
		desc, assigned    sql.NullString
		dealID            sql.NullString
		dueDate           sql.NullTime
	)
	if err := scan(&t.ID, &t.OrganisationID, &t.Title, &desc, &dueDate, &t.Status, &assigned, &dealID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, mapRowErr(err)
	}
	if desc.Valid {
		t.Description = &desc.String
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	if assigned.Valid {
		t.AssignedTo = &assigned.String
	}
	if dealID.Valid {
		t.DealID = &dealID.String
	}
	return &t, nil
}
