// Package lifecycle implements the item record lifecycle: adding and editing
// active items, moving them to the recycle bin, restoring them and purging
// them for good.
//
// Every operation validates its input, runs each item's change in its own
// transaction and reports failures as one of the error kinds in errors.go.
// Confirmations and conflict decisions are supplied by the caller, so the
// manager never talks to the user directly.
package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/erazemk/revival/internal/model"
	"github.com/erazemk/revival/internal/photo"
	"github.com/erazemk/revival/internal/schema"
	"github.com/erazemk/revival/internal/store"
)

// ConflictCheck selects how Edit detects that the new (name, category) is
// already taken.
type ConflictCheck string

// Conflict checks.
const (
	// ConflictExact rejects an edit when another active item already has the
	// new name and category.
	ConflictExact ConflictCheck = "exact"
	// ConflictLegacy reproduces the check of the first release, which also
	// rejects edits whenever an item of another category exists.
	ConflictLegacy ConflictCheck = "legacy"
)

// ParseConflictCheck validates a configured conflict check name.
func ParseConflictCheck(s string) (ConflictCheck, error) {
	switch c := ConflictCheck(strings.ToLower(strings.TrimSpace(s))); c {
	case "", ConflictExact:
		return ConflictExact, nil
	case ConflictLegacy:
		return c, nil
	default:
		return "", fmt.Errorf("unknown edit conflict check %q (want %q or %q)", s, ConflictExact, ConflictLegacy)
	}
}

// Manager applies lifecycle operations to the record store.
type Manager struct {
	DB            *sql.DB
	Logger        *slog.Logger
	ConflictCheck ConflictCheck
	Photos        photo.Processor
}

// NewManager returns a manager with default settings.
func NewManager(db *sql.DB) *Manager {
	return &Manager{DB: db, ConflictCheck: ConflictExact}
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

// prepare trims user input, canonicalises the category and reduces the
// attributes to the category's schema.
func prepare(f model.Fields) model.Fields {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.Address = strings.TrimSpace(f.Address)
	f.ContactPhone = strings.TrimSpace(f.ContactPhone)
	f.ContactEmail = strings.TrimSpace(f.ContactEmail)
	f.Category = schema.ParseCategory(string(f.Category))
	f.Attributes = schema.Normalize(f.Category, f.Attributes)
	return f
}

func validate(f model.Fields) error {
	if f.Name == "" && f.Category == "" {
		return fmt.Errorf("%w: name and category are required", ErrValidation)
	}
	if f.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if f.Category == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	return nil
}

// Add creates a new active item.
func (m *Manager) Add(ctx context.Context, f model.Fields) (*model.Item, error) {
	f = prepare(f)
	if err := validate(f); err != nil {
		return nil, err
	}
	key := model.Key{Name: f.Name, Category: f.Category}

	var item *model.Item
	err := store.InTx(ctx, m.DB, func(tx *sql.Tx) error {
		existing, err := store.FindItem(ctx, tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s already exists", ErrDuplicate, key)
		}

		item, err = store.InsertItem(ctx, tx, store.Active, f)
		return err
	})
	if err != nil {
		return nil, m.fail("adding item", err, ErrDuplicate)
	}

	m.logger().Info("item added", "id", item.ID, "name", item.Name, "category", item.Category)
	return item, nil
}

// Edit replaces all fields of the active item identified by original. The
// item keeps its ID and photo.
func (m *Manager) Edit(ctx context.Context, original model.Key, f model.Fields) (*model.Item, error) {
	f = prepare(f)
	if err := validate(f); err != nil {
		return nil, err
	}
	original.Name = strings.TrimSpace(original.Name)
	original.Category = schema.ParseCategory(string(original.Category))
	next := model.Key{Name: f.Name, Category: f.Category}

	var item *model.Item
	err := store.InTx(ctx, m.DB, func(tx *sql.Tx) error {
		existing, err := store.FindItem(ctx, tx, original)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: %w: %s", ErrValidation, ErrNotFound, original)
		}

		conflict, err := m.hasEditConflict(ctx, tx, original, next)
		if err != nil {
			return err
		}
		if conflict {
			return fmt.Errorf("%w: %s already exists", ErrConflict, next)
		}

		if _, err := store.UpdateItemByKey(ctx, tx, original, f); err != nil {
			return err
		}
		item, err = store.GetItem(ctx, tx, store.Active, existing.ID)
		return err
	})
	if err != nil {
		return nil, m.fail("editing item", err, ErrConflict)
	}

	m.logger().Info("item edited", "id", item.ID, "from", original.String(), "to", next.String())
	return item, nil
}

func (m *Manager) hasEditConflict(ctx context.Context, q store.Querier, original, next model.Key) (bool, error) {
	if m.ConflictCheck == ConflictLegacy {
		return store.HasLegacyEditConflict(ctx, q, original, next)
	}

	if next == original {
		return false, nil
	}
	other, err := store.FindItem(ctx, q, next)
	if err != nil {
		return false, err
	}
	return other != nil, nil
}

// List returns all active items.
func (m *Manager) List(ctx context.Context) ([]model.Item, error) {
	items, err := store.ListItems(ctx, m.DB, store.Active)
	if err != nil {
		return nil, m.fail("listing items", err, ErrDuplicate)
	}
	return items, nil
}

// ListDeleted returns all items in the recycle bin.
func (m *Manager) ListDeleted(ctx context.Context) ([]model.Item, error) {
	items, err := store.ListItems(ctx, m.DB, store.Deleted)
	if err != nil {
		return nil, m.fail("listing deleted items", err, ErrDuplicate)
	}
	return items, nil
}

// Get returns an item of collection c by ID.
func (m *Manager) Get(ctx context.Context, c store.Collection, id int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, m.DB, c, id)
	if err != nil {
		return nil, m.fail("getting item", err, ErrDuplicate)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %w: %s item %d", ErrValidation, ErrNotFound, c.Name(), id)
	}
	return item, nil
}

// Find returns the active item with the given name and category.
func (m *Manager) Find(ctx context.Context, key model.Key) (*model.Item, error) {
	key.Name = strings.TrimSpace(key.Name)
	key.Category = schema.ParseCategory(string(key.Category))

	item, err := store.FindItem(ctx, m.DB, key)
	if err != nil {
		return nil, m.fail("finding item", err, ErrDuplicate)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %w: %s", ErrValidation, ErrNotFound, key)
	}
	return item, nil
}

// SetPhoto processes the photo read from r and attaches it to active item id.
func (m *Manager) SetPhoto(ctx context.Context, id int64, r io.Reader) (*model.Item, error) {
	p, err := m.Photos.Process(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	ok, err := store.SetItemPhoto(ctx, m.DB, id, p.Data, p.MIME)
	if err != nil {
		return nil, m.fail("setting photo", err, ErrDuplicate)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %w: active item %d", ErrValidation, ErrNotFound, id)
	}

	m.logger().Info("photo attached", "id", id, "bytes", len(p.Data))
	return m.Get(ctx, store.Active, id)
}

// Photo returns the photo of an item in collection c.
func (m *Manager) Photo(ctx context.Context, c store.Collection, id int64) ([]byte, string, error) {
	data, mime, err := store.GetItemPhoto(ctx, m.DB, c, id)
	if err != nil {
		return nil, "", m.fail("getting photo", err, ErrDuplicate)
	}
	if data == nil {
		return nil, "", fmt.Errorf("%w: %w: no photo for %s item %d", ErrValidation, ErrNotFound, c.Name(), id)
	}
	return data, mime, nil
}

// fail classifies err and logs storage failures.
func (m *Manager) fail(op string, err error, dup error) error {
	err = classify(op, err, dup)
	var se *StorageError
	if errors.As(err, &se) {
		if se.Retryable {
			m.logger().Warn("database busy", "op", op, "error", err)
		} else {
			m.logger().Error("storage failure", "op", op, "error", err)
		}
	}
	return err
}
