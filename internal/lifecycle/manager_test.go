package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/erazemk/revival/internal/db"
	"github.com/erazemk/revival/internal/model"
	"github.com/erazemk/revival/internal/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(db.NewTestDB(t))
	m.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return m
}

func hammer() model.Fields {
	return model.Fields{
		Name:         "Hammer",
		Description:  "Claw hammer",
		Address:      "Front desk",
		ContactPhone: "555-0100",
		ContactEmail: "desk@example.com",
		Category:     model.CategoryTool,
		Attributes:   map[string]string{model.AttrBrand: "Acme", model.AttrModel: "X1"},
	}
}

func novel() model.Fields {
	return model.Fields{
		Name:        "The Three-Body Problem",
		Description: "Paperback",
		Category:    model.CategoryBook,
		Attributes:  map[string]string{model.AttrAuthor: "Liu Cixin", model.AttrPublisher: "Tor"},
	}
}

func mustAdd(t *testing.T, m *Manager, f model.Fields) *model.Item {
	t.Helper()
	item, err := m.Add(context.Background(), f)
	if err != nil {
		t.Fatalf("Add %s: %v", f.Name, err)
	}
	return item
}

func mustList(t *testing.T, m *Manager) []model.Item {
	t.Helper()
	items, err := m.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return items
}

func mustListDeleted(t *testing.T, m *Manager) []model.Item {
	t.Helper()
	items, err := m.ListDeleted(context.Background())
	if err != nil {
		t.Fatalf("ListDeleted: %v", err)
	}
	return items
}

var ignoreID = cmpopts.IgnoreFields(model.Item{}, "ID")

func TestAddThenDuplicate(t *testing.T) {
	m := newTestManager(t)

	item := mustAdd(t, m, hammer())
	items := mustList(t, m)
	if len(items) != 1 || items[0].Name != "Hammer" || items[0].Category != model.CategoryTool {
		t.Fatalf("expected one TOOL named Hammer, got %+v", items)
	}
	if diff := cmp.Diff(*item, items[0]); diff != "" {
		t.Errorf("listed item differs from added (-added +listed):\n%s", diff)
	}

	_, err := m.Add(context.Background(), hammer())
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if diff := cmp.Diff(items, mustList(t, m)); diff != "" {
		t.Errorf("failed add changed the active collection:\n%s", diff)
	}
}

func TestAddSameNameOtherCategory(t *testing.T) {
	m := newTestManager(t)
	mustAdd(t, m, hammer())

	f := hammer()
	f.Category = model.CategoryBook
	f.Attributes = nil
	mustAdd(t, m, f)

	if n := len(mustList(t, m)); n != 2 {
		t.Errorf("expected 2 items, got %d", n)
	}
}

func TestAddValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	for _, f := range []model.Fields{
		{Category: model.CategoryTool},
		{Name: "Hammer"},
		{Name: "   ", Category: "  "},
	} {
		if _, err := m.Add(ctx, f); !errors.Is(err, ErrValidation) {
			t.Errorf("Add(%+v): expected ErrValidation, got %v", f, err)
		}
	}
	if n := len(mustList(t, m)); n != 0 {
		t.Errorf("expected no items, got %d", n)
	}
}

func TestAddNormalizesInput(t *testing.T) {
	m := newTestManager(t)

	f := hammer()
	f.Name = "  Hammer "
	f.Category = "tool"
	f.Attributes = map[string]string{model.AttrBrand: " Acme ", "colour": "red"}
	item := mustAdd(t, m, f)

	if item.Name != "Hammer" || item.Category != model.CategoryTool {
		t.Errorf("expected trimmed name and canonical category, got %q %q", item.Name, item.Category)
	}
	want := map[string]string{model.AttrBrand: "Acme", model.AttrModel: ""}
	if diff := cmp.Diff(want, item.Attributes); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}
}

func TestEditToOwnValues(t *testing.T) {
	m := newTestManager(t)
	item := mustAdd(t, m, hammer())
	mustAdd(t, m, novel())

	edited, err := m.Edit(context.Background(), item.Key(), hammer())
	if err != nil {
		t.Fatalf("Edit to own values: %v", err)
	}
	if diff := cmp.Diff(*item, *edited); diff != "" {
		t.Errorf("edit changed the item (-before +after):\n%s", diff)
	}
	if n := len(mustList(t, m)); n != 2 {
		t.Errorf("expected 2 items, got %d", n)
	}
}

func TestEditChangesCategoryAndAttributes(t *testing.T) {
	m := newTestManager(t)
	item := mustAdd(t, m, hammer())

	f := hammer()
	f.Name = "Hammer Handbook"
	f.Category = model.CategoryBook
	f.Attributes = map[string]string{model.AttrAuthor: "A. Smith", model.AttrBrand: "Acme"}
	edited, err := m.Edit(context.Background(), item.Key(), f)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}

	if edited.ID != item.ID {
		t.Errorf("edit should keep id %d, got %d", item.ID, edited.ID)
	}
	want := map[string]string{model.AttrAuthor: "A. Smith", model.AttrPublisher: ""}
	if diff := cmp.Diff(want, edited.Attributes); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}
}

func TestEditErrors(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	item := mustAdd(t, m, hammer())
	other := hammer()
	other.Name = "Mallet"
	mustAdd(t, m, other)

	f := hammer()
	f.Description = "Trimmed key"
	if _, err := m.Edit(ctx, model.Key{Name: "  Hammer ", Category: "tool"}, f); err != nil {
		t.Errorf("untrimmed original key: %v", err)
	}

	_, err := m.Edit(ctx, model.Key{Name: "Saw", Category: model.CategoryTool}, hammer())
	if !errors.Is(err, ErrValidation) || !errors.Is(err, ErrNotFound) {
		t.Errorf("missing original: expected ErrValidation and ErrNotFound, got %v", err)
	}

	f = hammer()
	f.Name = ""
	if _, err := m.Edit(ctx, item.Key(), f); !errors.Is(err, ErrValidation) {
		t.Errorf("empty name: expected ErrValidation, got %v", err)
	}

	f = hammer()
	f.Name = "Mallet"
	if _, err := m.Edit(ctx, item.Key(), f); !errors.Is(err, ErrConflict) {
		t.Errorf("taken key: expected ErrConflict, got %v", err)
	}

	got, err := m.Get(ctx, store.Active, item.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Hammer" {
		t.Errorf("failed edit changed the item: %+v", got)
	}
}

func TestLegacyEditCheckRejectsWhenOtherCategoriesExist(t *testing.T) {
	m := newTestManager(t)
	m.ConflictCheck = ConflictLegacy
	ctx := context.Background()
	item := mustAdd(t, m, hammer())

	f := hammer()
	f.Description = "Heavy claw hammer"
	if _, err := m.Edit(ctx, item.Key(), f); err != nil {
		t.Fatalf("legacy edit with a single category: %v", err)
	}

	mustAdd(t, m, novel())
	f.Description = "Light claw hammer"
	if _, err := m.Edit(ctx, item.Key(), f); !errors.Is(err, ErrConflict) {
		t.Errorf("legacy check should reject while a BOOK exists, got %v", err)
	}

	m.ConflictCheck = ConflictExact
	if _, err := m.Edit(ctx, item.Key(), f); err != nil {
		t.Errorf("exact check should allow the edit: %v", err)
	}
}

func TestParseConflictCheck(t *testing.T) {
	for in, want := range map[string]ConflictCheck{
		"":         ConflictExact,
		"exact":    ConflictExact,
		" Legacy ": ConflictLegacy,
	} {
		got, err := ParseConflictCheck(in)
		if err != nil || got != want {
			t.Errorf("ParseConflictCheck(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseConflictCheck("fuzzy"); err == nil {
		t.Error("expected an error for an unknown check")
	}
}

func TestGetMissing(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Get(context.Background(), store.Deleted, 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetPhoto(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	item := mustAdd(t, m, hammer())

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 30))); err != nil {
		t.Fatal(err)
	}

	updated, err := m.SetPhoto(ctx, item.ID, &buf)
	if err != nil {
		t.Fatalf("SetPhoto: %v", err)
	}
	if !updated.HasPhoto() || updated.PhotoMIME != "image/jpeg" {
		t.Errorf("expected a JPEG photo, got %q", updated.PhotoMIME)
	}

	data, mime, err := m.Photo(ctx, store.Active, item.ID)
	if err != nil {
		t.Fatalf("Photo: %v", err)
	}
	if len(data) == 0 || mime != "image/jpeg" {
		t.Errorf("unexpected photo %d bytes %q", len(data), mime)
	}

	if _, err := m.SetPhoto(ctx, item.ID, bytes.NewReader([]byte("text"))); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for a non-image, got %v", err)
	}
	if _, _, err := m.Photo(ctx, store.Active, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFind(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	item := mustAdd(t, m, hammer())

	got, err := m.Find(ctx, model.Key{Name: " Hammer ", Category: "tool"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.ID != item.ID {
		t.Errorf("expected item %d, got %d", item.ID, got.ID)
	}

	if _, err := m.Find(ctx, model.Key{Name: "Hammer", Category: model.CategoryBook}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
