// Package schema maps item categories to the extended attributes they carry.
//
// Every place that builds or reads attributes (add, edit, prefilling an edit
// form) goes through this package so the mapping cannot drift.
package schema

import (
	"strings"

	"github.com/erazemk/revival/internal/model"
)

type field struct {
	name  string
	label string
}

var fields = map[model.Category][]field{
	model.CategoryFood: {
		{model.AttrExpiry, "Expiry date"},
		{model.AttrQuantity, "Quantity"},
	},
	model.CategoryBook: {
		{model.AttrAuthor, "Author"},
		{model.AttrPublisher, "Publisher"},
	},
	model.CategoryTool: {
		{model.AttrBrand, "Brand"},
		{model.AttrModel, "Model"},
	},
}

// legacyCategories maps category names written by older versions of the
// application to the built-in categories.
var legacyCategories = map[string]model.Category{
	"食品": model.CategoryFood,
	"书籍": model.CategoryBook,
	"工具": model.CategoryTool,
}

// Fields returns the ordered attribute names required for category. Unknown
// categories have no attributes.
func Fields(category model.Category) []string {
	fs := fields[category]
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.name
	}
	return names
}

// Label returns a human-readable label for an attribute of category.
func Label(category model.Category, name string) string {
	for _, f := range fields[category] {
		if f.name == name {
			return f.label
		}
	}
	return name
}

// ParseCategory canonicalises user input. Built-in categories match
// case-insensitively, legacy names map to their built-in counterpart, and
// anything else is returned trimmed but otherwise verbatim.
func ParseCategory(s string) model.Category {
	s = strings.TrimSpace(s)
	if c, ok := legacyCategories[s]; ok {
		return c
	}
	for _, c := range model.Categories {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return model.Category(s)
}

// Normalize returns the attribute map an item of category must carry: exactly
// the schema's keys, values trimmed, missing keys set to "" and extra keys
// dropped.
func Normalize(category model.Category, attrs map[string]string) map[string]string {
	names := Fields(category)
	out := make(map[string]string, len(names))
	for _, name := range names {
		out[name] = strings.TrimSpace(attrs[name])
	}
	return out
}

// Decode converts a stored attribute map into the typed record for category.
func Decode(category model.Category, attrs map[string]string) model.Attributes {
	switch category {
	case model.CategoryFood:
		return model.FoodAttributes{Expiry: attrs[model.AttrExpiry], Quantity: attrs[model.AttrQuantity]}
	case model.CategoryBook:
		return model.BookAttributes{Author: attrs[model.AttrAuthor], Publisher: attrs[model.AttrPublisher]}
	case model.CategoryTool:
		return model.ToolAttributes{Brand: attrs[model.AttrBrand], Model: attrs[model.AttrModel]}
	default:
		return model.NoAttributes{Cat: category}
	}
}

// Encode converts a typed attribute record into its stored map form.
func Encode(a model.Attributes) map[string]string {
	switch v := a.(type) {
	case model.FoodAttributes:
		return map[string]string{model.AttrExpiry: v.Expiry, model.AttrQuantity: v.Quantity}
	case model.BookAttributes:
		return map[string]string{model.AttrAuthor: v.Author, model.AttrPublisher: v.Publisher}
	case model.ToolAttributes:
		return map[string]string{model.AttrBrand: v.Brand, model.AttrModel: v.Model}
	default:
		return map[string]string{}
	}
}
