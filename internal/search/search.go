// Package search filters active items by category and keyword.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/revival/internal/lifecycle"
	"github.com/erazemk/revival/internal/model"
	"github.com/erazemk/revival/internal/schema"
	"github.com/erazemk/revival/internal/store"
)

// Query selects active items. Empty fields do not filter.
type Query struct {
	Category string
	Keyword  string
}

// keywordColumns are the text columns a keyword is matched against, in
// addition to attribute values.
var keywordColumns = []string{"name", "description", "address", "contact_phone", "contact_email"}

// Search returns the active items matching q, ordered by ID. The category is
// compared after canonicalisation; the keyword is a case-sensitive substring
// of any text field or attribute value. Attribute names never match.
func Search(ctx context.Context, db *sql.DB, q Query) ([]model.Item, error) {
	category := schema.ParseCategory(q.Category)
	keyword := strings.TrimSpace(q.Keyword)
	if category == "" && keyword == "" {
		return nil, fmt.Errorf("%w: a category or keyword is required", lifecycle.ErrValidation)
	}

	where, args := buildFilter(category, keyword)
	items, err := store.SelectItems(ctx, db, store.Active, where, args)
	if err != nil {
		return nil, &lifecycle.StorageError{Op: "searching items", Err: err, Retryable: store.IsBusy(err)}
	}
	return items, nil
}

func buildFilter(category model.Category, keyword string) (string, []any) {
	var conds []string
	var args []any

	if category != "" {
		conds = append(conds, "category = ?")
		args = append(args, string(category))
	}

	if keyword != "" {
		var matches []string
		for _, col := range keywordColumns {
			matches = append(matches, fmt.Sprintf("instr(%s, ?) > 0", col))
			args = append(args, keyword)
		}
		matches = append(matches,
			"EXISTS (SELECT 1 FROM json_each(items.attributes) WHERE instr(json_each.value, ?) > 0)")
		args = append(args, keyword)
		conds = append(conds, "("+strings.Join(matches, " OR ")+")")
	}

	return strings.Join(conds, " AND "), args
}
