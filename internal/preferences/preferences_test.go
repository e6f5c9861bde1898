package preferences

import (
	"context"
	"testing"

	"github.com/jo-hoe/gowall/internal/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	ds, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteDatabase error: %v", err)
	}
	if _, err = ds.CreateDatabase(); err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return NewStore(ds)
}

func TestRead_Defaults(t *testing.T) {
	store := newTestStore(t)

	settings, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}

	expected := CustomizationSettings{
		Location:  "Mountains",
		Scene:     "Natural",
		Style:     "Photorealistic",
		FontStyle: "Bold",
		FontSize:  16,
	}
	if settings != expected {
		t.Errorf("expected defaults %+v, got %+v", expected, settings)
	}
}

func TestUpdate_FieldsAreIndependent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpdateScene(ctx, "Urban"); err != nil {
		t.Fatalf("UpdateScene error: %v", err)
	}
	if err := store.UpdateFontSize(ctx, 24); err != nil {
		t.Fatalf("UpdateFontSize error: %v", err)
	}

	settings, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if settings.Scene != "Urban" {
		t.Errorf("expected scene %q, got %q", "Urban", settings.Scene)
	}
	if settings.FontSize != 24 {
		t.Errorf("expected font size 24, got %d", settings.FontSize)
	}
	// Untouched fields keep their defaults.
	if settings.Location != DefaultLocation || settings.Style != DefaultStyle || settings.FontStyle != DefaultFontStyle {
		t.Errorf("unexpected change to untouched fields: %+v", settings)
	}
}

func TestUpdate_LastWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, location := range []string{"Coast", "Desert", "Forest"} {
		if err := store.UpdateLocation(ctx, location); err != nil {
			t.Fatalf("UpdateLocation(%q) error: %v", location, err)
		}
	}

	settings, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if settings.Location != "Forest" {
		t.Errorf("expected %q, got %q", "Forest", settings.Location)
	}
}
