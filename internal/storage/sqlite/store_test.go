package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/smileynet/rolodex/internal/contact"
	"github.com/smileynet/rolodex/internal/storage"
)

// openTestStore opens a store on a fresh temp-dir database.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "contacts.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// mustAdd inserts a contact or fails the test.
func mustAdd(t *testing.T, store *Store, name, email, phone string) contact.Contact {
	t.Helper()
	c, err := store.Add(context.Background(), name, email, phone)
	if err != nil {
		t.Fatalf("Add(%q) error = %v", name, err)
	}
	return c
}

func count(t *testing.T, store *Store) int64 {
	t.Helper()
	page, err := store.List(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	return page.TotalCount
}

func TestOpen_MissingPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("Open(blank) should return error")
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		conn string
		want string
	}{
		{"contacts.db", "contacts.db"},
		{"sqlite://contacts.db", "contacts.db"},
		{"sqlite:///contacts.db", "contacts.db"},
		{"sqlite:////var/lib/contacts.db", "/var/lib/contacts.db"},
		{"  contacts.db  ", "contacts.db"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.conn); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.conn, got, tt.want)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	added := mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopening must not re-run migrations destructively.
	store, err = Open(path)
	if err != nil {
		t.Fatalf("Open() reopen error = %v", err)
	}
	defer func() { _ = store.Close() }()

	got, err := store.GetByID(context.Background(), added.ID)
	if err != nil {
		t.Fatalf("GetByID() after reopen error = %v", err)
	}
	if got != added {
		t.Errorf("after reopen got %+v, want %+v", got, added)
	}
}

func TestAdd_RoundTrip(t *testing.T) {
	store := openTestStore(t)

	added := mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")
	if added.ID == 0 {
		t.Fatal("Add() should assign a non-zero id")
	}

	got, err := store.GetByID(context.Background(), added.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != added {
		t.Errorf("GetByID() = %+v, want %+v", got, added)
	}
}

func TestAdd_ValidationFailuresPersistNothing(t *testing.T) {
	store := openTestStore(t)
	mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")

	tests := []struct {
		name    string
		contact [3]string
		field   string
	}{
		{"empty name", [3]string{"", "a@b.io", "555-1234"}, "name"},
		{"bad email", [3]string{"Jane", "jane-at-example", "555-1234"}, "email"},
		{"short phone", [3]string{"Jane", "jane@example.com", "123"}, "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := count(t, store)
			_, err := store.Add(context.Background(), tt.contact[0], tt.contact[1], tt.contact[2])
			var ve *contact.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Add() error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("failing field = %q, want %q", ve.Field, tt.field)
			}
			if after := count(t, store); after != before {
				t.Errorf("record count changed %d -> %d on failed add", before, after)
			}
		})
	}
}

func TestAdd_AllowsDuplicates(t *testing.T) {
	store := openTestStore(t)
	first := mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")
	second := mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")
	if first.ID == second.ID {
		t.Error("duplicate contacts should get distinct ids")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetByID(context.Background(), 42)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByID(absent) error = %v, want ErrNotFound", err)
	}
}

func TestList_Pagination(t *testing.T) {
	store := openTestStore(t)
	names := []string{"Alice", "Bob", "Carol", "Dave", "Eve"}
	for _, name := range names {
		mustAdd(t, store, name, "x@example.com", "555-1234")
	}

	page, err := store.List(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.TotalCount != 5 {
		t.Errorf("TotalCount = %d, want 5", page.TotalCount)
	}
	if len(page.Contacts) != 2 {
		t.Fatalf("page 1 size = %d, want 2", len(page.Contacts))
	}
	if page.Contacts[0].Name != "Alice" || page.Contacts[1].Name != "Bob" {
		t.Errorf("page 1 = %q, %q; want Alice, Bob", page.Contacts[0].Name, page.Contacts[1].Name)
	}

	page, err = store.List(context.Background(), 3, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page.Contacts) != 1 || page.Contacts[0].Name != "Eve" {
		t.Errorf("page 3 = %+v, want single Eve", page.Contacts)
	}
}

func TestList_OrderedByID(t *testing.T) {
	store := openTestStore(t)
	for _, name := range []string{"Zoe", "Amy", "Mia"} {
		mustAdd(t, store, name, "x@example.com", "555-1234")
	}

	page, err := store.List(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	for i := 1; i < len(page.Contacts); i++ {
		if page.Contacts[i-1].ID >= page.Contacts[i].ID {
			t.Fatalf("contacts not ordered by id ascending: %+v", page.Contacts)
		}
	}
}

func TestList_OutOfRangePage(t *testing.T) {
	store := openTestStore(t)
	mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")

	page, err := store.List(context.Background(), 99, 10)
	if err != nil {
		t.Fatalf("List(out-of-range) error = %v, want empty page", err)
	}
	if len(page.Contacts) != 0 {
		t.Errorf("out-of-range page returned %d contacts, want 0", len(page.Contacts))
	}
	if page.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", page.TotalCount)
	}
}

func TestList_InvalidBounds(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.List(context.Background(), 0, 10); err == nil {
		t.Error("List(page=0) should return error")
	}
	if _, err := store.List(context.Background(), 1, 0); err == nil {
		t.Error("List(perPage=0) should return error")
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	store := openTestStore(t)
	added := mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")

	email := "new@example.com"
	updated, err := store.Update(context.Background(), added.ID, storage.UpdateFields{Email: &email})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Email != email {
		t.Errorf("email = %q, want %q", updated.Email, email)
	}
	if updated.Name != added.Name {
		t.Errorf("name changed to %q, want untouched %q", updated.Name, added.Name)
	}
	if updated.Phone != added.Phone {
		t.Errorf("phone changed to %q, want untouched %q", updated.Phone, added.Phone)
	}

	got, err := store.GetByID(context.Background(), added.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != updated {
		t.Errorf("persisted %+v, want %+v", got, updated)
	}
}

func TestUpdate_BothFields(t *testing.T) {
	store := openTestStore(t)
	added := mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")

	email := "both@example.com"
	phone := "+1 (555) 987-6543"
	updated, err := store.Update(context.Background(), added.ID, storage.UpdateFields{Email: &email, Phone: &phone})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Email != email || updated.Phone != phone {
		t.Errorf("updated = %+v, want email %q phone %q", updated, email, phone)
	}
}

func TestUpdate_NoFields(t *testing.T) {
	store := openTestStore(t)
	added := mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")

	_, err := store.Update(context.Background(), added.ID, storage.UpdateFields{})
	if !errors.Is(err, contact.ErrNoFields) {
		t.Errorf("Update(no fields) error = %v, want ErrNoFields", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	store := openTestStore(t)
	email := "new@example.com"
	_, err := store.Update(context.Background(), 42, storage.UpdateFields{Email: &email})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Update(absent) error = %v, want ErrNotFound", err)
	}
}

func TestUpdate_ValidationLeavesRowUntouched(t *testing.T) {
	store := openTestStore(t)
	added := mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")

	bad := "not-an-email"
	_, err := store.Update(context.Background(), added.ID, storage.UpdateFields{Email: &bad})
	var ve *contact.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Update(bad email) error = %v, want *ValidationError", err)
	}

	got, err := store.GetByID(context.Background(), added.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != added {
		t.Errorf("row changed to %+v after failed update, want %+v", got, added)
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)
	added := mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")

	if err := store.Delete(context.Background(), added.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := store.GetByID(context.Background(), added.ID)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByID(deleted) error = %v, want ErrNotFound", err)
	}

	// Repeated delete of the same id keeps reporting not-found.
	if err := store.Delete(context.Background(), added.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("repeat Delete() error = %v, want ErrNotFound", err)
	}
}

func TestDelete_AbsentLeavesCountUnchanged(t *testing.T) {
	store := openTestStore(t)
	mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")

	before := count(t, store)
	if err := store.Delete(context.Background(), 42); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Delete(absent) error = %v, want ErrNotFound", err)
	}
	if after := count(t, store); after != before {
		t.Errorf("record count changed %d -> %d on failed delete", before, after)
	}
}

func TestDelete_IDsNotReused(t *testing.T) {
	store := openTestStore(t)
	first := mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")

	if err := store.Delete(context.Background(), first.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	second := mustAdd(t, store, "Jane Smith", "jane.smith@example.com", "555-5678")
	if second.ID <= first.ID {
		t.Errorf("new id %d should be greater than deleted id %d", second.ID, first.ID)
	}
}

func TestSearch(t *testing.T) {
	store := openTestStore(t)
	john := mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")
	jane := mustAdd(t, store, "Jane Smith", "jane.smith@other.org", "555-5678")

	t.Run("partial name", func(t *testing.T) {
		got, err := store.Search(context.Background(), storage.SearchFilter{Name: "John"})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != john.ID {
			t.Errorf("Search(name=John) = %+v, want only John Doe", got)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		got, err := store.Search(context.Background(), storage.SearchFilter{Name: "jOhN"})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != john.ID {
			t.Errorf("Search(name=jOhN) = %+v, want only John Doe", got)
		}
	})

	t.Run("partial email domain", func(t *testing.T) {
		got, err := store.Search(context.Background(), storage.SearchFilter{Email: "other.org"})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != jane.ID {
			t.Errorf("Search(email=other.org) = %+v, want only Jane Smith", got)
		}
	})

	t.Run("criteria are ANDed", func(t *testing.T) {
		got, err := store.Search(context.Background(), storage.SearchFilter{Name: "J", Phone: "5678"})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != jane.ID {
			t.Errorf("Search(name=J AND phone=5678) = %+v, want only Jane Smith", got)
		}
	})

	t.Run("ordered by id", func(t *testing.T) {
		got, err := store.Search(context.Background(), storage.SearchFilter{Phone: "555"})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 2 || got[0].ID != john.ID || got[1].ID != jane.ID {
			t.Errorf("Search(phone=555) = %+v, want John then Jane", got)
		}
	})

	t.Run("no match", func(t *testing.T) {
		got, err := store.Search(context.Background(), storage.SearchFilter{Name: "Nobody"})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Search(no match) = %+v, want empty", got)
		}
	})

	t.Run("no criteria", func(t *testing.T) {
		_, err := store.Search(context.Background(), storage.SearchFilter{})
		if !errors.Is(err, contact.ErrNoCriteria) {
			t.Errorf("Search(empty filter) error = %v, want ErrNoCriteria", err)
		}
	})
}

func TestCancelledContext(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Add(ctx, "John", "a@b.io", "555-1234"); !errors.Is(err, context.Canceled) {
		t.Errorf("Add(cancelled ctx) error = %v, want context.Canceled", err)
	}
	if _, err := store.List(ctx, 1, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("List(cancelled ctx) error = %v, want context.Canceled", err)
	}
}

// TestScenario pins the end-to-end add/list/delete sequence.
func TestScenario(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	john := mustAdd(t, store, "John Doe", "john.doe@example.com", "555-1234")
	if john.ID != 1 {
		t.Errorf("first id = %d, want 1", john.ID)
	}
	jane := mustAdd(t, store, "Jane Smith", "jane.smith@example.com", "555-5678")
	if jane.ID != 2 {
		t.Errorf("second id = %d, want 2", jane.ID)
	}

	page, err := store.List(ctx, 1, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page.Contacts) != 2 || page.Contacts[0].ID != 1 || page.Contacts[1].ID != 2 {
		t.Fatalf("List() = %+v, want ids 1, 2 in order", page.Contacts)
	}

	if err := store.Delete(ctx, jane.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	page, err = store.List(ctx, 1, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page.Contacts) != 1 || page.Contacts[0].ID != 1 {
		t.Errorf("List() after delete = %+v, want only id 1", page.Contacts)
	}
}
