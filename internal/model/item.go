package model

// Item is a tracked object held for return. The same shape is stored in the
// active and the deleted collection; ID is only meaningful within the table
// the record currently lives in.
type Item struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Address      string            `json:"address,omitempty"`
	ContactPhone string            `json:"contact_phone,omitempty"`
	ContactEmail string            `json:"contact_email,omitempty"`
	Category     Category          `json:"category"`
	Attributes   map[string]string `json:"attributes"`
	PhotoMIME    string            `json:"photo_mime,omitempty"`
}

// Key returns the (name, category) pair that identifies an active record.
func (it Item) Key() Key {
	return Key{Name: it.Name, Category: it.Category}
}

// HasPhoto reports whether a photo is attached to the record.
func (it Item) HasPhoto() bool {
	return it.PhotoMIME != ""
}

// Key is the natural key of an active item.
type Key struct {
	Name     string
	Category Category
}

func (k Key) String() string {
	return k.Name + " (" + string(k.Category) + ")"
}

// Fields holds user-entered values for creating or editing an item.
type Fields struct {
	Name         string
	Description  string
	Address      string
	ContactPhone string
	ContactEmail string
	Category     Category
	Attributes   map[string]string
}

// FieldsOf returns the editable fields of a stored item, e.g. to prefill an
// edit form.
func FieldsOf(it Item) Fields {
	attrs := make(map[string]string, len(it.Attributes))
	for k, v := range it.Attributes {
		attrs[k] = v
	}
	return Fields{
		Name:         it.Name,
		Description:  it.Description,
		Address:      it.Address,
		ContactPhone: it.ContactPhone,
		ContactEmail: it.ContactEmail,
		Category:     it.Category,
		Attributes:   attrs,
	}
}
