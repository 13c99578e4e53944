package crm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"propdesk.org/internal/auth"
	"propdesk.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. It is constructed once at
// process start and shared read-only across requests.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Organisations(context.Context) OrganisationStore { return &orgStore{db: s.db} }
func (s *PGStore) Contacts(context.Context) ContactStore           { return &contactStore{db: s.db} }
func (s *PGStore) Properties(context.Context) PropertyStore        { return &propertyStore{db: s.db} }
func (s *PGStore) Deals(context.Context) DealStore                 { return &dealStore{db: s.db} }
func (s *PGStore) TeamMembers(context.Context) TeamMemberStore     { return &teamMemberStore{db: s.db} }
func (s *PGStore) Tasks(context.Context) TaskStore                 { return &taskStore{db: s.db} }
func (s *PGStore) Meetings(context.Context) MeetingStore           { return &meetingStore{db: s.db} }
func (s *PGStore) Documents(context.Context) DocumentStore         { return &documentStore{db: s.db} }

// OrganisationExists satisfies auth.OrganisationDirectory.
func (s *PGStore) OrganisationExists(ctx context.Context, id string) (bool, error) {
	return (&orgStore{db: s.db}).Exists(ctx, id)
}

// query assembly helpers ----------------------------------------------------

type condSet struct {
	conds []string
	args  []any
}

func (c *condSet) add(column string, value any) {
	c.conds = append(c.conds, fmt.Sprintf("%s=$%d", column, len(c.args)+1))
	c.args = append(c.args, value)
}

func (c *condSet) addScope(scope auth.Scope) {
	if scope.All {
		return
	}
	c.add("organisation_id", scope.OrganisationID)
}

func (c *condSet) where() string {
	if len(c.conds) == 0 {
		return ""
	}
	return " where " + strings.Join(c.conds, " and ")
}

type setClause struct {
	sets []string
	args []any
}

func (s *setClause) add(column string, value any) {
	s.sets = append(s.sets, fmt.Sprintf("%s=$%d", column, len(s.args)+1))
	s.args = append(s.args, value)
}

func (s *setClause) empty() bool { return len(s.sets) == 0 }

func (s *setClause) apply(ctx context.Context, db *sql.DB, table, id string) error {
	s.sets = append(s.sets, "updated_at=now()")
	query := fmt.Sprintf("update %s set %s where id=$%d", table, strings.Join(s.sets, ", "), len(s.args)+1)
	res, err := db.ExecContext(ctx, query, append(s.args, id)...)
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

func countRow(ctx context.Context, db *sql.DB, query string, args ...any) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func mapRowErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Organisation store --------------------------------------------------------

type orgStore struct{ db *sql.DB }

func (s *orgStore) Create(ctx context.Context, org *Organisation) error {
	if org.ID == "" {
		org.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into organisations(id, organisation_name) values($1,$2)`,
		org.ID, org.Name,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *orgStore) Find(ctx context.Context, id string) (*Organisation, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, organisation_name, created_at, updated_at from organisations where id=$1`, id)
	var org Organisation
	if err := row.Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return nil, mapRowErr(err)
	}
	return &org, nil
}

func (s *orgStore) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `select 1 from organisations where id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *orgStore) List(ctx context.Context, scope auth.Scope) ([]*OrganisationSummary, error) {
	var c condSet
	if !scope.All {
		c.add("o.id", scope.OrganisationID)
	}
	query := `select o.id, o.organisation_name, o.created_at, o.updated_at,
		(select count(*) from team_members m where m.organisation_id=o.id),
		(select count(*) from properties p where p.organisation_id=o.id)
		from organisations o` + c.where() + ` order by o.created_at asc`
	rows, err := s.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*OrganisationSummary
	for rows.Next() {
		var o OrganisationSummary
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt, &o.TeamMemberCount, &o.PropertyCount); err != nil {
			return nil, err
		}
		res = append(res, &o)
	}
	return res, rows.Err()
}

func (s *orgStore) Update(ctx context.Context, id string, upd OrganisationUpdate) (*Organisation, error) {
	var set setClause
	if upd.Name != nil {
		set.add("organisation_name", *upd.Name)
	}
	if !set.empty() {
		if err := set.apply(ctx, s.db, "organisations", id); err != nil {
			return nil, err
		}
	}
	return s.Find(ctx, id)
}

func (s *orgStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from organisations where id=$1`, id)
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

func (s *orgStore) MemberCount(ctx context.Context, id string) (int, error) {
	return countRow(ctx, s.db, `select count(*) from team_members where organisation_id=$1`, id)
}

func (s *orgStore) PropertyCount(ctx context.Context, id string) (int, error) {
	return countRow(ctx, s.db, `select count(*) from properties where organisation_id=$1`, id)
}

// Contact store -------------------------------------------------------------

type contactStore struct{ db *sql.DB }

const contactColumns = `id, organisation_id, name, email, phone, created_at, updated_at`

func (s *contactStore) Create(ctx context.Context, c *Contact) error {
	if c.ID == "" {
		c.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into contacts(id, organisation_id, name, email, phone) values($1,$2,$3,$4,$5)`,
		c.ID, c.OrganisationID, c.Name, c.Email, c.Phone,
	)
	return err
}

func (s *contactStore) Find(ctx context.Context, id string) (*Contact, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+contactColumns+` from contacts where id=$1`, id)
	return scanContact(row.Scan)
}

func (s *contactStore) List(ctx context.Context, scope auth.Scope, filter ContactFilter) ([]*Contact, error) {
	var c condSet
	c.addScope(scope)
	if filter.Search != "" {
		c.conds = append(c.conds, fmt.Sprintf("(name ilike $%d or email ilike $%d)", len(c.args)+1, len(c.args)+1))
		c.args = append(c.args, "%"+filter.Search+"%")
	}
	query := `select ` + contactColumns + ` from contacts` + c.where() + ` order by created_at asc`
	rows, err := s.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Contact
	for rows.Next() {
		contact, err := scanContact(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, contact)
	}
	return res, rows.Err()
}

func (s *contactStore) Update(ctx context.Context, id string, upd ContactUpdate) (*Contact, error) {
	var set setClause
	if upd.Name != nil {
		set.add("name", *upd.Name)
	}
	if upd.Email != nil {
		set.add("email", *upd.Email)
	}
	if upd.Phone != nil {
		set.add("phone", *upd.Phone)
	}
	if !set.empty() {
		if err := set.apply(ctx, s.db, "contacts", id); err != nil {
			return nil, err
		}
	}
	return s.Find(ctx, id)
}

func (s *contactStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from contacts where id=$1`, id)
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

func (s *contactStore) PropertyCount(ctx context.Context, contactID string) (int, error) {
	return countRow(ctx, s.db, `select count(*) from properties where owner_id=$1`, contactID)
}

func scanContact(scan func(...any) error) (*Contact, error) {
	var (
		c            Contact
		email, phone sql.NullString
	)
	if err := scan(&c.ID, &c.OrganisationID, &c.Name, &email, &phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, mapRowErr(err)
	}
	if email.Valid {
		c.Email = &email.String
	}
	if phone.Valid {
		c.Phone = &phone.String
	}
	return &c, nil
}

// Property store ------------------------------------------------------------

type propertyStore struct{ db *sql.DB }

const propertyColumns = `id, organisation_id, name, address, owner_id, status, created_at, updated_at`

func (s *propertyStore) Create(ctx context.Context, p *Property) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	if p.Status == "" {
		p.Status = PropertyStatusAvailable
	}
	_, err := s.db.ExecContext(ctx,
		`insert into properties(id, organisation_id, name, address, owner_id, status) values($1,$2,$3,$4,$5,$6)`,
		p.ID, p.OrganisationID, p.Name, p.Address, p.OwnerID, p.Status,
	)
	return err
}

func (s *propertyStore) Find(ctx context.Context, id string) (*Property, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+propertyColumns+` from properties where id=$1`, id)
	return scanProperty(row.Scan)
}

func (s *propertyStore) List(ctx context.Context, scope auth.Scope, filter PropertyFilter) ([]*Property, error) {
	var c condSet
	c.addScope(scope)
	if filter.Status != "" {
		c.add("status", filter.Status)
	}
	if filter.OwnerID != "" {
		c.add("owner_id", filter.OwnerID)
	}
	query := `select ` + propertyColumns + ` from properties` + c.where() + ` order by created_at asc`
	rows, err := s.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Property
	for rows.Next() {
		property, err := scanProperty(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, property)
	}
	return res, rows.Err()
}

func (s *propertyStore) Update(ctx context.Context, id string, upd PropertyUpdate) (*Property, error) {
	var set setClause
	if upd.Name != nil {
		set.add("name", *upd.Name)
	}
	if upd.Address != nil {
		set.add("address", *upd.Address)
	}
	if upd.OwnerID != nil {
		set.add("owner_id", *upd.OwnerID)
	}
	if upd.Status != nil {
		set.add("status", *upd.Status)
	}
	if !set.empty() {
		if err := set.apply(ctx, s.db, "properties", id); err != nil {
			return nil, err
		}
	}
	return s.Find(ctx, id)
}

func (s *propertyStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from properties where id=$1`, id)
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

func (s *propertyStore) DealCount(ctx context.Context, propertyID string) (int, error) {
	return countRow(ctx, s.db, `select count(*) from deals where property_id=$1`, propertyID)
}

func scanProperty(scan func(...any) error) (*Property, error) {
	var (
		p              Property
		address, owner sql.NullString
	)
	if err := scan(&p.ID, &p.OrganisationID, &p.Name, &address, &owner, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, mapRowErr(err)
	}
	if address.Valid {
		p.Address = &address.String
	}
	if owner.Valid {
		p.OwnerID = &owner.String
	}
	return &p, nil
}
