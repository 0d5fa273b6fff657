// Package sqlite provides a SQLite-backed contact store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/smileynet/rolodex/internal/contact"
	"github.com/smileynet/rolodex/internal/storage"
	"github.com/smileynet/rolodex/internal/storage/sqlite/migrations"
	"github.com/smileynet/rolodex/internal/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store persists contact records in a local SQLite file.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite contact store and applies embedded migrations.
// conn may be a bare file path or an sqlite:// connection string, e.g.
// "contacts.db" or "sqlite:///contacts.db".
func Open(conn string) (*Store, error) {
	path := normalizePath(conn)
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// normalizePath strips an sqlite:// scheme prefix. Three slashes mean a
// relative path, four an absolute one, matching common connection
// string conventions.
func normalizePath(conn string) string {
	path := strings.TrimSpace(conn)
	rest, ok := strings.CutPrefix(path, "sqlite://")
	if !ok {
		return path
	}
	return strings.TrimPrefix(rest, "/")
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Add validates the fields, inserts a new record, and returns it with
// its assigned id. Nothing is persisted when validation fails.
func (s *Store) Add(ctx context.Context, name, email, phone string) (contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return contact.Contact{}, err
	}
	if s == nil || s.sqlDB == nil {
		return contact.Contact{}, fmt.Errorf("storage is not configured")
	}
	if err := contact.ValidateNew(name, email, phone); err != nil {
		return contact.Contact{}, err
	}

	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO contacts (name, email, phone) VALUES (?, ?, ?)`,
		name, email, phone,
	)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("add contact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return contact.Contact{}, fmt.Errorf("add contact id: %w", err)
	}
	return contact.Contact{ID: id, Name: name, Email: email, Phone: phone}, nil
}

// GetByID returns the record with the given id.
func (s *Store) GetByID(ctx context.Context, id int64) (contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return contact.Contact{}, err
	}
	if s == nil || s.sqlDB == nil {
		return contact.Contact{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, email, phone FROM contacts WHERE id = ?`,
		id,
	)
	return scanContact(row)
}

// List returns one page of records ordered by id ascending, plus the
// total record count. A page past the end yields an empty page.
func (s *Store) List(ctx context.Context, page, perPage int) (storage.Page, error) {
	if err := ctx.Err(); err != nil {
		return storage.Page{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Page{}, fmt.Errorf("storage is not configured")
	}
	if page < 1 {
		return storage.Page{}, fmt.Errorf("page must be at least 1, got %d", page)
	}
	if perPage < 1 {
		return storage.Page{}, fmt.Errorf("per-page must be at least 1, got %d", perPage)
	}

	var total int64
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&total); err != nil {
		return storage.Page{}, fmt.Errorf("count contacts: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, name, email, phone FROM contacts ORDER BY id ASC LIMIT ? OFFSET ?`,
		perPage, (page-1)*perPage,
	)
	if err != nil {
		return storage.Page{}, fmt.Errorf("list contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	contacts, err := collectContacts(rows)
	if err != nil {
		return storage.Page{}, fmt.Errorf("list contacts: %w", err)
	}
	return storage.Page{Contacts: contacts, TotalCount: total}, nil
}

// Update applies the supplied fields to one record and returns the
// updated record. The row is untouched on any failure.
func (s *Store) Update(ctx context.Context, id int64, fields storage.UpdateFields) (contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return contact.Contact{}, err
	}
	if s == nil || s.sqlDB == nil {
		return contact.Contact{}, fmt.Errorf("storage is not configured")
	}
	if fields.Email == nil && fields.Phone == nil {
		return contact.Contact{}, contact.ErrNoFields
	}
	if fields.Email != nil && !contact.ValidateEmail(*fields.Email) {
		return contact.Contact{}, &contact.ValidationError{Field: "email", Reason: "must look like local@domain.tld"}
	}
	if fields.Phone != nil && !contact.ValidatePhone(*fields.Phone) {
		return contact.Contact{}, &contact.ValidationError{Field: "phone", Reason: "must contain at least 7 digits with only +, spaces, hyphens, dots, or parentheses"}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(
		ctx,
		`SELECT id, name, email, phone FROM contacts WHERE id = ?`,
		id,
	)
	current, err := scanContact(row)
	if err != nil {
		return contact.Contact{}, err
	}

	if fields.Email != nil {
		current.Email = *fields.Email
	}
	if fields.Phone != nil {
		current.Phone = *fields.Phone
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE contacts SET email = ?, phone = ? WHERE id = ?`,
		current.Email, current.Phone, current.ID,
	); err != nil {
		return contact.Contact{}, fmt.Errorf("update contact: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return contact.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	return current, nil
}

// Delete permanently removes one record. Deleting an absent id reports
// ErrNotFound, including repeated deletes of the same id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Search returns records matching every supplied criterion as a
// case-insensitive substring, ordered by id ascending.
func (s *Store) Search(ctx context.Context, filter storage.SearchFilter) ([]contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if filter.Empty() {
		return nil, contact.ErrNoCriteria
	}

	query := `SELECT id, name, email, phone FROM contacts`
	var clauses []string
	var args []any
	for _, criterion := range []struct {
		column string
		value  string
	}{
		{"name", filter.Name},
		{"email", filter.Email},
		{"phone", filter.Phone},
	} {
		if criterion.value == "" {
			continue
		}
		clauses = append(clauses, fmt.Sprintf(`LOWER(%s) LIKE '%%' || LOWER(?) || '%%'`, criterion.column))
		args = append(args, criterion.value)
	}
	query += " WHERE " + strings.Join(clauses, " AND ") + " ORDER BY id ASC"

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	contacts, err := collectContacts(rows)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	return contacts, nil
}

// scanContact reads one contact row, translating sql.ErrNoRows to
// storage.ErrNotFound.
func scanContact(row *sql.Row) (contact.Contact, error) {
	var c contact.Contact
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contact.Contact{}, storage.ErrNotFound
		}
		return contact.Contact{}, fmt.Errorf("scan contact: %w", err)
	}
	return c, nil
}

func collectContacts(rows *sql.Rows) ([]contact.Contact, error) {
	var contacts []contact.Contact
	for rows.Next() {
		var c contact.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

var _ storage.ContactStore = (*Store)(nil)
