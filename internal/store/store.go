package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"gitlab.com/dirk.krummacker/surf-contacts/internal/model"
)

// ErrNotFound is returned when no contact matches a lookup.
var ErrNotFound = errors.New("contact not found")

// contactColumns lists the columns of the contacts table in the order of model.Contact.
const contactColumns = `id, name, phone, email, website, address, category, rating, reviews,
	google_maps_url, contacted, contacted_at, invite_code, created_at, updated_at`

// Store is the handle to the contacts table. It is safe for concurrent use.
type Store struct {
	db  *sqlx.DB
	now func() time.Time

	// insert is a prepared statement for creating a contact.
	insert *sqlx.NamedStmt

	// update is a prepared statement for overwriting the imported fields of a contact.
	update *sqlx.NamedStmt

	// selectWhereId is a prepared statement for selecting a contact by id.
	selectWhereId *sqlx.Stmt

	// selectWherePhone is a prepared statement for selecting a contact by phone number.
	selectWherePhone *sqlx.Stmt

	// selectWhereInviteCode is a prepared statement for selecting the holder of an invite code.
	selectWhereInviteCode *sqlx.Stmt
}

// New wraps the specified sql database and prepares all statements. The database argument can
// be a real database for production use or a mock database within unit tests. The driver name
// only selects the placeholder style of sqlx.
func New(sqlDB *sql.DB, driverName string) (*Store, error) {
	s := &Store{
		db:  sqlx.NewDb(sqlDB, driverName),
		now: time.Now,
	}

	var err error
	s.insert, err = s.db.PrepareNamed(`
		INSERT INTO contacts (name, phone, email, website, address, category, rating, reviews,
			google_maps_url, contacted, created_at, updated_at)
		VALUES (:name, :phone, :email, :website, :address, :category, :rating, :reviews,
			:google_maps_url, :contacted, :created_at, :updated_at)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	s.update, err = s.db.PrepareNamed(`
		UPDATE contacts SET name = :name, email = :email, website = :website,
			address = :address, category = :category, rating = :rating, reviews = :reviews,
			google_maps_url = :google_maps_url, updated_at = :updated_at
		WHERE id = :id
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare update: %w", err)
	}
	s.selectWhereId, err = s.db.Preparex(`SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`)
	if err != nil {
		return nil, fmt.Errorf("prepare select by id: %w", err)
	}
	s.selectWherePhone, err = s.db.Preparex(`SELECT ` + contactColumns + ` FROM contacts WHERE phone = ?`)
	if err != nil {
		return nil, fmt.Errorf("prepare select by phone: %w", err)
	}
	s.selectWhereInviteCode, err = s.db.Preparex(`SELECT ` + contactColumns + ` FROM contacts WHERE invite_code = ?`)
	if err != nil {
		return nil, fmt.Errorf("prepare select by invite code: %w", err)
	}
	return s, nil
}

// Close releases the prepared statements. The underlying database stays open.
func (s *Store) Close() error {
	return errors.Join(
		s.insert.Close(),
		s.update.Close(),
		s.selectWhereId.Close(),
		s.selectWherePhone.Close(),
		s.selectWhereInviteCode.Close(),
	)
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// timestamp is the current time at the precision every supported database keeps.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func getContact(ctx context.Context, stmt *sqlx.Stmt, arg any) (*model.Contact, error) {
	var contact model.Contact
	if err := stmt.GetContext(ctx, &contact, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &contact, nil
}

// FindByID returns the contact with the given id or ErrNotFound.
func (s *Store) FindByID(ctx context.Context, id int64) (*model.Contact, error) {
	contact, err := getContact(ctx, s.selectWhereId, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("select contact %d: %w", id, err)
	}
	return contact, err
}

// FindByPhone returns the contact with the given phone number or ErrNotFound.
func (s *Store) FindByPhone(ctx context.Context, phone string) (*model.Contact, error) {
	contact, err := getContact(ctx, s.selectWherePhone, phone)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("select contact by phone: %w", err)
	}
	return contact, err
}

// Create inserts a new contact with the given fields. It is not contacted and has no invite code.
func (s *Store) Create(ctx context.Context, fields model.ContactFields) (*model.Contact, error) {
	now := s.timestamp()
	contact := model.Contact{CreatedAt: now, UpdatedAt: now}
	contact.Apply(fields)

	result, err := s.insert.ExecContext(ctx, &contact)
	if err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	contact.Id = id
	return &contact, nil
}

// Update writes the imported fields of the contact back to the database. Status and invite
// code are left untouched.
func (s *Store) Update(ctx context.Context, contact *model.Contact) error {
	contact.UpdatedAt = s.timestamp()
	if _, err := s.update.ExecContext(ctx, contact); err != nil {
		return fmt.Errorf("update contact %d: %w", contact.Id, err)
	}
	return nil
}

// SetContacted stores the contacted flag. The timestamp is set to now when contacted is true
// and cleared otherwise. It returns the timestamp that was written.
func (s *Store) SetContacted(ctx context.Context, id int64, contacted bool) (*time.Time, error) {
	now := s.timestamp()
	var contactedAt *time.Time
	if contacted {
		contactedAt = &now
	}
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE contacts SET contacted = ?, contacted_at = ?, updated_at = ? WHERE id = ?`),
		contacted, contactedAt, now, id)
	if err != nil {
		return nil, fmt.Errorf("update contacted status of %d: %w", id, err)
	}
	return contactedAt, nil
}

// InviteCodeTaken reports whether any contact already holds the code.
func (s *Store) InviteCodeTaken(ctx context.Context, code string) (bool, error) {
	_, err := getContact(ctx, s.selectWhereInviteCode, code)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	}
	return false, fmt.Errorf("select contact by invite code: %w", err)
}

// AssignInviteCode stores the code on the contact unless it already has one, and returns the
// code the contact holds afterwards.
func (s *Store) AssignInviteCode(ctx context.Context, id int64, code string) (string, error) {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE contacts SET invite_code = ?, updated_at = ? WHERE id = ? AND invite_code IS NULL`),
		code, s.timestamp(), id)
	if err != nil {
		return "", fmt.Errorf("assign invite code to %d: %w", id, err)
	}
	contact, err := s.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if contact.InviteCode == nil {
		return "", fmt.Errorf("assign invite code to %d: code was not stored", id)
	}
	return *contact.InviteCode, nil
}

// whereClause builds the filter shared by the page query and the count query.
func whereClause(filter model.ListFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Contacted != nil {
		clauses = append(clauses, "contacted = ?")
		args = append(args, *filter.Contacted)
	}
	if filter.Search != "" {
		clauses = append(clauses,
			"(INSTR(LOWER(name), LOWER(?)) > 0 OR INSTR(LOWER(category), LOWER(?)) > 0 OR INSTR(phone, ?) > 0)")
		args = append(args, filter.Search, filter.Search, filter.Search)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns one page of contacts, newest first, and the number of all matching contacts.
func (s *Store) List(ctx context.Context, filter model.ListFilter) (model.ContactPage, error) {
	where, args := whereClause(filter)
	pageArgs := append(append([]any{}, args...), filter.Limit, filter.Offset())

	contacts := []model.Contact{}
	var total int64

	g, gctx := errgroup.WithContext(ctx)
	// A page whose offset does not fit an int lies past the end of any table.
	if !filter.OffsetOverflows() {
		g.Go(func() error {
			query := s.db.Rebind(`SELECT ` + contactColumns + ` FROM contacts` + where +
				` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
			if err := s.db.SelectContext(gctx, &contacts, query, pageArgs...); err != nil {
				return fmt.Errorf("select contacts: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		query := s.db.Rebind(`SELECT COUNT(*) FROM contacts` + where)
		if err := s.db.GetContext(gctx, &total, query, args...); err != nil {
			return fmt.Errorf("count contacts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.ContactPage{}, err
	}

	return model.ContactPage{
		Contacts:   contacts,
		Pagination: model.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// Stats counts all contacts and the contacted ones.
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	var stats model.Stats
	err := s.db.GetContext(ctx, &stats, `
		SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN contacted THEN 1 ELSE 0 END), 0) AS contacted
		FROM contacts`)
	if err != nil {
		return model.Stats{}, fmt.Errorf("count contacts: %w", err)
	}
	stats.NotContacted = stats.Total - stats.Contacted
	return stats, nil
}
