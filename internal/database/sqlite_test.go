package database

import (
	"context"
	"errors"
	"testing"
)

func newTestDB(t *testing.T) DatabaseService {
	t.Helper()

	ds, err := NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteDatabase error: %v", err)
	}
	_, err = ds.CreateDatabase()
	if err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func TestSQLite_DoesDatabaseExist(t *testing.T) {
	ds := newTestDB(t)
	if !ds.DoesDatabaseExist() {
		t.Fatalf("expected DoesDatabaseExist to return true")
	}
}

func TestSQLite_CreateImage_Defaults(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	img, err := ds.CreateImage(ctx, "/data/images/wallpaper_a.png", "a prompt")
	if err != nil {
		t.Fatalf("CreateImage error: %v", err)
	}
	if img.ID == 0 {
		t.Errorf("expected non-zero id")
	}
	if !img.SelectedForRotation {
		t.Errorf("expected new image to be selected for rotation")
	}
	if img.CreatedAt.IsZero() {
		t.Errorf("expected created_at to be set")
	}

	stored, err := ds.GetImageByID(ctx, img.ID)
	if err != nil {
		t.Fatalf("GetImageByID error: %v", err)
	}
	if stored.Prompt != "a prompt" {
		t.Errorf("expected prompt %q, got %q", "a prompt", stored.Prompt)
	}
}

func TestSQLite_CreateImage_EmptyPromptStoredAsNull(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	img, err := ds.CreateImage(ctx, "/data/images/wallpaper_b.png", "")
	if err != nil {
		t.Fatalf("CreateImage error: %v", err)
	}

	stored, err := ds.GetImageByID(ctx, img.ID)
	if err != nil {
		t.Fatalf("GetImageByID error: %v", err)
	}
	if stored.Prompt != "" {
		t.Errorf("expected empty prompt, got %q", stored.Prompt)
	}
}

func TestSQLite_GetAllImages_NewestFirst(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	first, err := ds.CreateImage(ctx, "/a.png", "")
	if err != nil {
		t.Fatalf("CreateImage #1 error: %v", err)
	}
	second, err := ds.CreateImage(ctx, "/b.png", "")
	if err != nil {
		t.Fatalf("CreateImage #2 error: %v", err)
	}

	images, err := ds.GetAllImages(ctx)
	if err != nil {
		t.Fatalf("GetAllImages error: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
	if images[0].ID != second.ID || images[1].ID != first.ID {
		t.Errorf("expected order [%d %d], got [%d %d]", second.ID, first.ID, images[0].ID, images[1].ID)
	}
}

func TestSQLite_GetSelectedImages_OrderedByID(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	var ids []int64
	for _, path := range []string{"/1.png", "/2.png", "/3.png"} {
		img, err := ds.CreateImage(ctx, path, "")
		if err != nil {
			t.Fatalf("CreateImage error: %v", err)
		}
		ids = append(ids, img.ID)
	}

	// Deselect the middle record; it must disappear without touching the others.
	if err := ds.SetSelectedForRotation(ctx, ids[1], false); err != nil {
		t.Fatalf("SetSelectedForRotation error: %v", err)
	}

	selected, err := ds.GetSelectedImages(ctx)
	if err != nil {
		t.Fatalf("GetSelectedImages error: %v", err)
	}
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected images, got %d", len(selected))
	}
	if selected[0].ID != ids[0] || selected[1].ID != ids[2] {
		t.Errorf("expected ids [%d %d], got [%d %d]", ids[0], ids[2], selected[0].ID, selected[1].ID)
	}

	first, err := ds.GetFirstSelectedImage(ctx)
	if err != nil {
		t.Fatalf("GetFirstSelectedImage error: %v", err)
	}
	if first.ID != ids[0] {
		t.Errorf("expected first selected id %d, got %d", ids[0], first.ID)
	}
}

func TestSQLite_GetFirstSelectedImage_Empty(t *testing.T) {
	ds := newTestDB(t)

	_, err := ds.GetFirstSelectedImage(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLite_SetSelectedForRotation_UnknownID(t *testing.T) {
	ds := newTestDB(t)

	err := ds.SetSelectedForRotation(context.Background(), 42, true)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLite_DeleteImage_Idempotent(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	img, err := ds.CreateImage(ctx, "/c.png", "")
	if err != nil {
		t.Fatalf("CreateImage error: %v", err)
	}

	if err := ds.DeleteImage(ctx, img.ID); err != nil {
		t.Fatalf("DeleteImage error: %v", err)
	}
	// Deleting again must not fail.
	if err := ds.DeleteImage(ctx, img.ID); err != nil {
		t.Fatalf("second DeleteImage error: %v", err)
	}

	if _, err := ds.GetImageByID(ctx, img.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSQLite_DeleteImages_Bulk(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		img, err := ds.CreateImage(ctx, "/bulk.png", "")
		if err != nil {
			t.Fatalf("CreateImage error: %v", err)
		}
		ids = append(ids, img.ID)
	}

	if err := ds.DeleteImages(ctx, ids[:2]); err != nil {
		t.Fatalf("DeleteImages error: %v", err)
	}

	remaining, err := ds.GetAllImages(ctx)
	if err != nil {
		t.Fatalf("GetAllImages error: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != ids[2] {
		t.Fatalf("expected only id %d to remain, got %v", ids[2], remaining)
	}

	if err := ds.DeleteImages(ctx, nil); err != nil {
		t.Fatalf("DeleteImages with empty slice error: %v", err)
	}
}

func TestSQLite_Settings_ReadWrite(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	if _, err := ds.ReadSetting(ctx, "pref_location"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing setting, got %v", err)
	}

	if err := ds.WriteSetting(ctx, "pref_location", "Mountains"); err != nil {
		t.Fatalf("WriteSetting error: %v", err)
	}
	if err := ds.WriteSetting(ctx, "pref_location", "Coast"); err != nil {
		t.Fatalf("WriteSetting overwrite error: %v", err)
	}

	value, err := ds.ReadSetting(ctx, "pref_location")
	if err != nil {
		t.Fatalf("ReadSetting error: %v", err)
	}
	if value != "Coast" {
		t.Errorf("expected last write to win, got %q", value)
	}
}

func TestSQLite_SelectionChangeNotifications(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	changes, unsubscribe := ds.SubscribeSelectionChanges()
	defer unsubscribe()

	drain := func() bool {
		select {
		case <-changes:
			return true
		default:
			return false
		}
	}

	img, err := ds.CreateImage(ctx, "/n.png", "")
	if err != nil {
		t.Fatalf("CreateImage error: %v", err)
	}
	if !drain() {
		t.Errorf("expected notification after insert")
	}

	if err := ds.SetSelectedForRotation(ctx, img.ID, false); err != nil {
		t.Fatalf("SetSelectedForRotation error: %v", err)
	}
	if !drain() {
		t.Errorf("expected notification after selection change")
	}

	if err := ds.DeleteImage(ctx, img.ID); err != nil {
		t.Fatalf("DeleteImage error: %v", err)
	}
	if !drain() {
		t.Errorf("expected notification after delete")
	}

	unsubscribe()
	if err := ds.WriteSetting(ctx, "k", "v"); err != nil {
		t.Fatalf("WriteSetting error: %v", err)
	}
	if drain() {
		t.Errorf("did not expect notification for settings write")
	}
}
