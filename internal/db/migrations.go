package db

import (
	"database/sql"
	"fmt"
)

// Tables holding item records.
var itemTables = []string{"items", "deleted_items"}

// addedColumns are columns introduced after the original two-table layout.
// SQLite has no ADD COLUMN IF NOT EXISTS, so they are checked one by one.
var addedColumns = []struct {
	name string
	decl string
}{
	{"photo", "BLOB"},
	{"photo_mime", "TEXT"},
}

// legacyCategory describes a category name and attribute keys written by the
// first release, and what they map to now.
type legacyCategory struct {
	from, to string
	keys     [2][2]string // {old key, new key}
}

var legacyCategories = []legacyCategory{
	{"食品", "FOOD", [2][2]string{{"保质期", "expiry"}, {"数量", "quantity"}}},
	{"书籍", "BOOK", [2][2]string{{"作者", "author"}, {"出版社", "publisher"}}},
	{"工具", "TOOL", [2][2]string{{"品牌", "brand"}, {"型号", "model"}}},
}

// migrations returns the SQL statements applied in order after schema
// creation. Each statement must be idempotent. Append new migrations at the end.
func migrations() []string {
	var m []string

	// Migration 1: Records without attributes get an empty object so that
	// JSON functions can be applied to every row.
	for _, t := range itemTables {
		m = append(m, fmt.Sprintf(
			`UPDATE %s SET attributes = '{}' WHERE attributes IS NULL OR attributes = ''`, t))
	}

	// Migration 2: Rewrite localized category names and attribute keys from
	// the first release to the canonical ones.
	for _, t := range itemTables {
		for _, lc := range legacyCategories {
			m = append(m, fmt.Sprintf(
				`UPDATE %s SET category = '%s',
				     attributes = json_object(
				         '%s', COALESCE(CAST(json_extract(attributes, '$."%s"') AS TEXT), ''),
				         '%s', COALESCE(CAST(json_extract(attributes, '$."%s"') AS TEXT), ''))
				 WHERE category = '%s'`,
				t, lc.to,
				lc.keys[0][1], lc.keys[0][0],
				lc.keys[1][1], lc.keys[1][0],
				lc.from))
		}
	}

	// Migration 3: Enforce (name, category) uniqueness among active items.
	m = append(m, `CREATE UNIQUE INDEX IF NOT EXISTS idx_items_name_category
	     ON items(name, category)`)

	return m
}

// Migrate creates the schema and brings an existing database up to date.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for _, t := range itemTables {
		for _, c := range addedColumns {
			if err := ensureColumn(db, t, c.name, c.decl); err != nil {
				return err
			}
		}
	}

	for i, m := range migrations() {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}

// ensureColumn adds column to table unless it already exists.
func ensureColumn(db *sql.DB, table, column, decl string) error {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("inspecting %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}

	if _, err := db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl)); err != nil {
		return fmt.Errorf("adding column %s.%s: %w", table, column, err)
	}
	return nil
}
