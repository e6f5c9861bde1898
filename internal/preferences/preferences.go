package preferences

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jo-hoe/gowall/internal/database"
)

// Setting keys in the backing key-value table.
const (
	keyLocation  = "pref_location"
	keyScene     = "pref_scene"
	keyStyle     = "pref_style"
	keyFontStyle = "pref_font_style"
	keyFontSize  = "pref_font_size"
)

// Defaults applied when a field has never been written.
const (
	DefaultLocation  = "Mountains"
	DefaultScene     = "Natural"
	DefaultStyle     = "Photorealistic"
	DefaultFontStyle = "Bold"
	DefaultFontSize  = 16
)

// Font size bounds enforced at the input surface, not by the store.
const (
	MinFontSize = 8
	MaxFontSize = 72
)

// CustomizationSettings is the process-wide wallpaper customization state.
// Last write wins per field; there is no history.
type CustomizationSettings struct {
	Location  string
	Scene     string
	Style     string
	FontStyle string
	FontSize  int
}

// Store reads and writes CustomizationSettings through the key-value table.
// Every Read refreshes from the backing store so that no stale ambient copy
// of the settings exists.
type Store struct {
	db database.DatabaseService
}

func NewStore(db database.DatabaseService) *Store {
	return &Store{db: db}
}

func (s *Store) Read(ctx context.Context) (CustomizationSettings, error) {
	settings := CustomizationSettings{
		Location:  DefaultLocation,
		Scene:     DefaultScene,
		Style:     DefaultStyle,
		FontStyle: DefaultFontStyle,
		FontSize:  DefaultFontSize,
	}

	stringFields := map[string]*string{
		keyLocation:  &settings.Location,
		keyScene:     &settings.Scene,
		keyStyle:     &settings.Style,
		keyFontStyle: &settings.FontStyle,
	}
	for key, target := range stringFields {
		value, err := s.db.ReadSetting(ctx, key)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return CustomizationSettings{}, fmt.Errorf("failed to read %s: %w", key, err)
		}
		*target = value
	}

	value, err := s.db.ReadSetting(ctx, keyFontSize)
	if errors.Is(err, database.ErrNotFound) {
		return settings, nil
	}
	if err != nil {
		return CustomizationSettings{}, fmt.Errorf("failed to read %s: %w", keyFontSize, err)
	}
	if size, convErr := strconv.Atoi(value); convErr == nil {
		settings.FontSize = size
	}

	return settings, nil
}

func (s *Store) UpdateLocation(ctx context.Context, location string) error {
	return s.db.WriteSetting(ctx, keyLocation, location)
}

func (s *Store) UpdateScene(ctx context.Context, scene string) error {
	return s.db.WriteSetting(ctx, keyScene, scene)
}

func (s *Store) UpdateStyle(ctx context.Context, style string) error {
	return s.db.WriteSetting(ctx, keyStyle, style)
}

func (s *Store) UpdateFontStyle(ctx context.Context, fontStyle string) error {
	return s.db.WriteSetting(ctx, keyFontStyle, fontStyle)
}

func (s *Store) UpdateFontSize(ctx context.Context, fontSize int) error {
	return s.db.WriteSetting(ctx, keyFontSize, strconv.Itoa(fontSize))
}
