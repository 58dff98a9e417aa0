package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/revival/internal/db"
	"github.com/erazemk/revival/internal/model"
)

func hammer() model.Fields {
	return model.Fields{
		Name:         "Hammer",
		Description:  "Claw hammer",
		Address:      "Front desk",
		ContactPhone: "555-0100",
		ContactEmail: "desk@example.com",
		Category:     model.CategoryTool,
		Attributes:   map[string]string{"brand": "Acme", "model": "X1"},
	}
}

func TestInsertAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := InsertItem(ctx, database, Active, hammer())
	if err != nil {
		t.Fatalf("InsertItem: %v", err)
	}
	if item.ID == 0 {
		t.Error("expected an assigned id")
	}
	if item.Name != "Hammer" || item.Category != model.CategoryTool {
		t.Errorf("unexpected item %+v", item)
	}
	if item.Attributes["brand"] != "Acme" {
		t.Errorf("expected brand 'Acme', got %q", item.Attributes["brand"])
	}

	got, err := GetItem(ctx, database, Active, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got == nil || got.ContactEmail != "desk@example.com" {
		t.Errorf("unexpected item %+v", got)
	}

	missing, err := GetItem(ctx, database, Deleted, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for item in the other collection")
	}
}

func TestFindItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	InsertItem(ctx, database, Active, hammer())

	found, err := FindItem(ctx, database, model.Key{Name: "Hammer", Category: model.CategoryTool})
	if err != nil {
		t.Fatalf("FindItem: %v", err)
	}
	if found == nil {
		t.Fatal("expected item, got nil")
	}

	// Same name, other category.
	missing, err := FindItem(ctx, database, model.Key{Name: "Hammer", Category: model.CategoryBook})
	if err != nil {
		t.Fatalf("FindItem: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for other category")
	}
}

func TestListItemsOrder(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"Zebra", "Apple", "Mango"} {
		f := hammer()
		f.Name = name
		if _, err := InsertItem(ctx, database, Active, f); err != nil {
			t.Fatalf("InsertItem %s: %v", name, err)
		}
	}

	items, err := ListItems(ctx, database, Active)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Name != "Zebra" || items[2].Name != "Mango" {
		t.Errorf("expected insertion order, got %s, %s, %s", items[0].Name, items[1].Name, items[2].Name)
	}

	deleted, _ := ListItems(ctx, database, Deleted)
	if len(deleted) != 0 {
		t.Errorf("expected empty deleted collection, got %d", len(deleted))
	}
}

func TestUpdateItemByKey(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := InsertItem(ctx, database, Active, hammer())

	f := hammer()
	f.Name = "Sledgehammer"
	f.Attributes = map[string]string{"brand": "Acme", "model": "S2"}
	ok, err := UpdateItemByKey(ctx, database, item.Key(), f)
	if err != nil {
		t.Fatalf("UpdateItemByKey: %v", err)
	}
	if !ok {
		t.Fatal("expected a row to be updated")
	}

	got, _ := GetItem(ctx, database, Active, item.ID)
	if got.Name != "Sledgehammer" || got.Attributes["model"] != "S2" {
		t.Errorf("unexpected item after update %+v", got)
	}

	ok, err = UpdateItemByKey(ctx, database, model.Key{Name: "Nope", Category: model.CategoryTool}, f)
	if err != nil {
		t.Fatalf("UpdateItemByKey: %v", err)
	}
	if ok {
		t.Error("expected no row to be updated for unknown key")
	}
}

func TestMoveItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := InsertItem(ctx, database, Active, hammer())
	SetItemPhoto(ctx, database, item.ID, []byte("jpeg"), "image/jpeg")

	var newID int64
	err := InTx(ctx, database, func(tx *sql.Tx) error {
		var err error
		newID, err = MoveItem(ctx, tx, Active, Deleted, item.ID)
		return err
	})
	if err != nil {
		t.Fatalf("MoveItem: %v", err)
	}
	if newID == 0 {
		t.Fatal("expected the item to be moved")
	}

	if got, _ := GetItem(ctx, database, Active, item.ID); got != nil {
		t.Error("expected item to be gone from active collection")
	}

	moved, _ := GetItem(ctx, database, Deleted, newID)
	if moved == nil {
		t.Fatal("expected item in deleted collection")
	}
	if moved.Name != item.Name || moved.Attributes["model"] != "X1" || moved.Address != item.Address {
		t.Errorf("fields not carried over: %+v", moved)
	}

	photo, mime, _ := GetItemPhoto(ctx, database, Deleted, newID)
	if string(photo) != "jpeg" || mime != "image/jpeg" {
		t.Errorf("expected photo to move with the item, got %q %q", photo, mime)
	}

	// Moving a missing record is not an error.
	id, err := MoveItem(ctx, database, Active, Deleted, 999)
	if err != nil {
		t.Fatalf("MoveItem missing: %v", err)
	}
	if id != 0 {
		t.Errorf("expected 0 for missing record, got %d", id)
	}
}

func TestDeleteItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := InsertItem(ctx, database, Deleted, hammer())
	InsertItem(ctx, database, Deleted, hammer())
	InsertItem(ctx, database, Deleted, hammer())

	ok, err := DeleteItem(ctx, database, Deleted, a.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteItem: ok=%v err=%v", ok, err)
	}
	ok, _ = DeleteItem(ctx, database, Deleted, a.ID)
	if ok {
		t.Error("expected second delete to report nothing removed")
	}

	n, err := DeleteAllItems(ctx, database, Deleted)
	if err != nil {
		t.Fatalf("DeleteAllItems: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
}

func TestInTxRollsBack(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := InTx(ctx, database, func(tx *sql.Tx) error {
		if _, err := InsertItem(ctx, tx, Active, hammer()); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}

	items, _ := ListItems(ctx, database, Active)
	if len(items) != 0 {
		t.Errorf("expected rollback to leave no items, got %d", len(items))
	}
}

func TestIsUniqueViolation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	InsertItem(ctx, database, Active, hammer())
	_, err := InsertItem(ctx, database, Active, hammer())
	if err == nil {
		t.Fatal("expected duplicate insert to fail")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
	if IsBusy(err) {
		t.Error("unique violation must not be reported as busy")
	}
	if IsUniqueViolation(errors.New("other")) {
		t.Error("plain errors are not unique violations")
	}
}
