// Package storage defines the persistence contract for contact records.
package storage

import (
	"context"
	"errors"

	"github.com/smileynet/rolodex/internal/contact"
)

// ErrNotFound indicates a requested contact record is missing.
var ErrNotFound = errors.New("contact not found")

// Page holds one page of contact records plus the total record count,
// so callers can compute the number of pages.
type Page struct {
	Contacts   []contact.Contact
	TotalCount int64
}

// UpdateFields names the mutable contact fields for an update. A nil
// field is left untouched. Name is immutable after creation.
type UpdateFields struct {
	Email *string
	Phone *string
}

// SearchFilter holds substring criteria for a contact search. Empty
// fields are not filtered on; supplied criteria are AND-combined and
// matched case-insensitively.
type SearchFilter struct {
	Name  string
	Email string
	Phone string
}

// Empty reports whether no criterion is supplied.
func (f SearchFilter) Empty() bool {
	return f.Name == "" && f.Email == "" && f.Phone == ""
}

// ContactStore persists contact records.
//
// Every mutation is atomic: on failure the store is left exactly as it
// was before the call. Validation failures surface as
// *contact.ValidationError; missing records as ErrNotFound.
type ContactStore interface {
	// Add validates the fields, persists a new record, and returns it
	// with its assigned id.
	Add(ctx context.Context, name, email, phone string) (contact.Contact, error)

	// GetByID returns the record with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (contact.Contact, error)

	// List returns records ordered by id ascending. page and perPage
	// are 1-based; a page past the end yields an empty slice, not an
	// error. TotalCount is always the full table count.
	List(ctx context.Context, page, perPage int) (Page, error)

	// Update applies the supplied fields to the record with the given
	// id and returns the updated record. At least one field must be
	// supplied (contact.ErrNoFields otherwise).
	Update(ctx context.Context, id int64, fields UpdateFields) (contact.Contact, error)

	// Delete permanently removes the record with the given id.
	Delete(ctx context.Context, id int64) error

	// Search returns records matching all supplied criteria, ordered
	// by id ascending. An empty filter yields contact.ErrNoCriteria.
	Search(ctx context.Context, filter SearchFilter) ([]contact.Contact, error)
}
