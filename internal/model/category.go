package model

// Category selects which extended attributes an item carries. The set is open:
// values outside the built-in ones are stored as given and carry no
// attributes.
type Category string

// Built-in categories.
const (
	CategoryFood Category = "FOOD"
	CategoryBook Category = "BOOK"
	CategoryTool Category = "TOOL"
)

// Categories lists the built-in categories in display order.
var Categories = []Category{CategoryFood, CategoryBook, CategoryTool}

// Known reports whether c is one of the built-in categories.
func (c Category) Known() bool {
	switch c {
	case CategoryFood, CategoryBook, CategoryTool:
		return true
	}
	return false
}

// Attribute names.
const (
	AttrExpiry    = "expiry"
	AttrQuantity  = "quantity"
	AttrAuthor    = "author"
	AttrPublisher = "publisher"
	AttrBrand     = "brand"
	AttrModel     = "model"
)

// Attributes is the typed attribute record of one category.
type Attributes interface {
	Category() Category
}

// FoodAttributes are carried by FOOD items.
type FoodAttributes struct {
	Expiry   string
	Quantity string
}

// Category implements Attributes.
func (FoodAttributes) Category() Category { return CategoryFood }

// BookAttributes are carried by BOOK items.
type BookAttributes struct {
	Author    string
	Publisher string
}

// Category implements Attributes.
func (BookAttributes) Category() Category { return CategoryBook }

// ToolAttributes are carried by TOOL items.
type ToolAttributes struct {
	Brand string
	Model string
}

// Category implements Attributes.
func (ToolAttributes) Category() Category { return CategoryTool }

// NoAttributes is used for categories without a schema.
type NoAttributes struct {
	Cat Category
}

// Category implements Attributes.
func (a NoAttributes) Category() Category { return a.Cat }
