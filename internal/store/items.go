package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/erazemk/revival/internal/model"
)

// Collection names one of the two item tables.
type Collection string

// Item collections.
const (
	Active  Collection = "items"
	Deleted Collection = "deleted_items"
)

// Name returns a short name for messages.
func (c Collection) Name() string {
	if c == Deleted {
		return "deleted"
	}
	return "active"
}

// itemColumns are the columns copied when a record moves between collections.
const itemColumns = `name, description, address, contact_phone, contact_email, category, attributes, photo, photo_mime`

// selectColumns are the columns read into model.Item. The photo itself is
// only loaded on request.
const selectColumns = `id, name, description, address, contact_phone, contact_email, category, attributes, photo_mime`

// InsertItem inserts a new record into c and returns it with its assigned ID.
// Attributes are stored as given; callers normalize them first.
func InsertItem(ctx context.Context, q Querier, c Collection, f model.Fields) (*model.Item, error) {
	attrs, err := encodeAttributes(f.Attributes)
	if err != nil {
		return nil, err
	}

	result, err := q.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (name, description, address, contact_phone, contact_email, category, attributes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`, string(c)),
		f.Name, f.Description, f.Address, f.ContactPhone, f.ContactEmail, string(f.Category), attrs,
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s item: %w", c.Name(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, q, c, id)
}

// GetItem returns a record by ID, or nil if c has no such record.
func GetItem(ctx context.Context, q Querier, c Collection, id int64) (*model.Item, error) {
	row := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, selectColumns, string(c)), id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s item: %w", c.Name(), err)
	}
	return item, nil
}

// FindItem returns the active record with the given key, or nil.
func FindItem(ctx context.Context, q Querier, key model.Key) (*model.Item, error) {
	row := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM items WHERE name = ? AND category = ?`, selectColumns),
		key.Name, string(key.Category),
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding item: %w", err)
	}
	return item, nil
}

// ListItems returns all records of c in insertion order.
func ListItems(ctx context.Context, q Querier, c Collection) ([]model.Item, error) {
	return SelectItems(ctx, q, c, "", nil)
}

// SelectItems returns the records of c matching the SQL condition where
// (empty for all), ordered by ID.
func SelectItems(ctx context.Context, q Querier, c Collection, where string, args []any) ([]model.Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s`, selectColumns, string(c))
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s items: %w", c.Name(), err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItemByKey replaces every field of the active record identified by key.
// The ID and photo are kept. Reports whether a record was updated.
func UpdateItemByKey(ctx context.Context, q Querier, key model.Key, f model.Fields) (bool, error) {
	attrs, err := encodeAttributes(f.Attributes)
	if err != nil {
		return false, err
	}

	result, err := q.ExecContext(ctx,
		`UPDATE items
		 SET name = ?, description = ?, address = ?, contact_phone = ?,
		     contact_email = ?, category = ?, attributes = ?
		 WHERE name = ? AND category = ?`,
		f.Name, f.Description, f.Address, f.ContactPhone, f.ContactEmail, string(f.Category), attrs,
		key.Name, string(key.Category),
	)
	if err != nil {
		return false, fmt.Errorf("updating item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking updated rows: %w", err)
	}
	return n > 0, nil
}

// DeleteItem removes a record from c. Reports whether a record was removed.
func DeleteItem(ctx context.Context, q Querier, c Collection, id int64) (bool, error) {
	result, err := q.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, string(c)), id,
	)
	if err != nil {
		return false, fmt.Errorf("deleting %s item: %w", c.Name(), err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking deleted rows: %w", err)
	}
	return n > 0, nil
}

// DeleteAllItems removes every record of c and returns how many were removed.
func DeleteAllItems(ctx context.Context, q Querier, c Collection) (int64, error) {
	result, err := q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, string(c)))
	if err != nil {
		return 0, fmt.Errorf("emptying %s items: %w", c.Name(), err)
	}
	return result.RowsAffected()
}

// MoveItem copies every field of record id from one collection into the other,
// where it gets a fresh ID, and removes the original. It must run inside a
// transaction to be atomic. Returns 0 if from has no such record.
func MoveItem(ctx context.Context, q Querier, from, to Collection, id int64) (int64, error) {
	result, err := q.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s) SELECT %s FROM %s WHERE id = ?`, string(to), itemColumns, itemColumns, string(from)),
		id,
	)
	if err != nil {
		return 0, fmt.Errorf("copying item to %s: %w", to.Name(), err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking copied rows: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	newID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}

	if _, err := DeleteItem(ctx, q, from, id); err != nil {
		return 0, err
	}
	return newID, nil
}

// SetItemPhoto sets an active item's photo data.
func SetItemPhoto(ctx context.Context, q Querier, id int64, photo []byte, mime string) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET photo = ?, photo_mime = ? WHERE id = ?`,
		photo, mime, id,
	)
	if err != nil {
		return false, fmt.Errorf("setting item photo: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking updated rows: %w", err)
	}
	return n > 0, nil
}

// GetItemPhoto returns a record's photo data and MIME type. Data is nil when
// the record has no photo or does not exist.
func GetItemPhoto(ctx context.Context, q Querier, c Collection, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT photo, photo_mime FROM %s WHERE id = ?`, string(c)), id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return photo, mime.String, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*model.Item, error) {
	var item model.Item
	var name, description, address, phone, email sql.NullString
	var category, attributes, photoMIME sql.NullString
	err := s.Scan(&item.ID, &name, &description, &address, &phone, &email, &category, &attributes, &photoMIME)
	if err != nil {
		return nil, err
	}

	item.Name = name.String
	item.Description = description.String
	item.Address = address.String
	item.ContactPhone = phone.String
	item.ContactEmail = email.String
	item.Category = model.Category(category.String)
	item.PhotoMIME = photoMIME.String

	item.Attributes, err = decodeAttributes(attributes.String)
	if err != nil {
		return nil, fmt.Errorf("item %d: %w", item.ID, err)
	}
	return &item, nil
}

// encodeAttributes serializes attributes as a JSON object. HTML escaping is
// disabled so values are stored as entered.
func encodeAttributes(attrs map[string]string) (string, error) {
	if attrs == nil {
		attrs = map[string]string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(attrs); err != nil {
		return "", fmt.Errorf("encoding attributes: %w", err)
	}
	return string(bytes.TrimSpace(buf.Bytes())), nil
}

func decodeAttributes(raw string) (map[string]string, error) {
	attrs := map[string]string{}
	if raw == "" {
		return attrs, nil
	}
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return nil, fmt.Errorf("decoding attributes: %w", err)
	}
	return attrs, nil
}

// HasLegacyEditConflict runs the edit conflict query of the first release
// verbatim. Because AND binds tighter than OR it matches any active record
// whose category differs from the original one, in addition to records
// already holding the new key under a different name.
func HasLegacyEditConflict(ctx context.Context, q Querier, original, next model.Key) (bool, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM items WHERE name = ? AND category = ? AND name != ? OR category != ? LIMIT 1`,
		next.Name, string(next.Category), original.Name, string(original.Category),
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking edit conflict: %w", err)
	}
	return true, nil
}
