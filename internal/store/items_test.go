package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/oit-labs/lostfound/internal/db"
	"github.com/oit-labs/lostfound/internal/model"
)

// seededCategory returns the seeded category with the given machine name.
func seededCategory(t *testing.T, database *sql.DB, tag string) *model.Category {
	t.Helper()
	categories, err := ListCategories(context.Background(), database)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	for i := range categories {
		if categories[i].MachineName == tag {
			return &categories[i]
		}
	}
	t.Fatalf("seeded category %q not found", tag)
	return nil
}

// newTestItem creates a location and an item in it, using the seeded OTHER
// category unless tag overrides it.
func newTestItem(t *testing.T, database *sql.DB, description, tag string) *model.Item {
	t.Helper()
	ctx := context.Background()

	if tag == "" {
		tag = model.CategoryOther
	}
	location, err := CreateLocation(ctx, database, "Front desk")
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}
	category := seededCategory(t, database, tag)

	item, err := CreateItem(ctx, database, location.ID, category.ID, description, false, nil)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item
}

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := newTestItem(t, database, "Black umbrella", "")
	if item.Description != "Black umbrella" {
		t.Errorf("expected description 'Black umbrella', got %q", item.Description)
	}
	if item.LocationName != "Front desk" {
		t.Errorf("expected joined location name, got %q", item.LocationName)
	}
	if item.CurrentAction != "" {
		t.Errorf("expected no current action before first event, got %q", item.CurrentAction)
	}

	got, err := GetItem(ctx, database, item.ID+100)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing item, got %+v", got)
	}
}

func TestSetItemReturnedTo(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := newTestItem(t, database, "Wallet", "")
	person, _ := CreatePlaceholder(ctx, database, "Jamie", "Doe", "jamie@example.edu")

	if err := SetItemReturnedTo(ctx, database, item.ID, &person.ID); err != nil {
		t.Fatalf("SetItemReturnedTo: %v", err)
	}
	got, _ := GetItem(ctx, database, item.ID)
	if got.ReturnedToName != "Doe, Jamie" {
		t.Errorf("expected returned-to name 'Doe, Jamie', got %q", got.ReturnedToName)
	}

	// Clearing reverts the return.
	if err := SetItemReturnedTo(ctx, database, item.ID, nil); err != nil {
		t.Fatalf("SetItemReturnedTo clear: %v", err)
	}
	got, _ = GetItem(ctx, database, item.ID)
	if got.ReturnedToID != nil || got.ReturnedToName != "" {
		t.Errorf("expected cleared returned-to, got id=%v name=%q", got.ReturnedToID, got.ReturnedToName)
	}
}

func TestSetItemArchived(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := newTestItem(t, database, "Old coat", "")
	if err := SetItemArchived(ctx, database, item.ID, true); err != nil {
		t.Fatalf("SetItemArchived: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if !got.IsArchived {
		t.Error("expected item to be archived")
	}
}

func TestItemPhoto(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := newTestItem(t, database, "Photo item", "")
	if err := SetItemPhoto(ctx, database, item.ID, []byte("fake image data"), "image/jpeg"); err != nil {
		t.Fatalf("SetItemPhoto: %v", err)
	}

	data, mime, err := GetItemPhoto(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItemPhoto: %v", err)
	}
	if string(data) != "fake image data" {
		t.Errorf("expected photo data to round-trip, got %q", string(data))
	}
	if mime != "image/jpeg" {
		t.Errorf("expected mime 'image/jpeg', got %q", mime)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.PhotoMime != "image/jpeg" {
		t.Errorf("expected photo mime on item, got %q", got.PhotoMime)
	}
}
