package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"

	"github.com/jo-hoe/gowall/internal/database"
	"github.com/jo-hoe/gowall/internal/imagegen"
	"github.com/jo-hoe/gowall/internal/postprocess"
	"github.com/jo-hoe/gowall/internal/preferences"
)

// ErrEmptyQuote rejects generation requests with no quote text before any
// network or file I/O happens.
var ErrEmptyQuote = errors.New("quote text must not be blank")

// ErrGenerationInFlight is returned when a generation is already running.
// Single-flight is normally enforced by the caller disabling re-entry; this
// check only catches accidental concurrent requests.
var ErrGenerationInFlight = errors.New("a generation is already in progress")

// CoreService orchestrates wallpaper generation and owns library management:
// selection toggling, deletion, and export of generated images.
type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	generator       imagegen.Client
	prefs           *preferences.Store
	notes           notificationLog
	busy            atomic.Bool
}

func NewCoreService(config *ServiceConfig, databaseService database.DatabaseService, generator imagegen.Client) *CoreService {
	return &CoreService{
		config:          config,
		databaseService: databaseService,
		generator:       generator,
		prefs:           preferences.NewStore(databaseService),
	}
}

func (s *CoreService) Preferences() *preferences.Store {
	return s.prefs
}

// Busy reports whether a generation is currently in flight.
func (s *CoreService) Busy() bool {
	return s.busy.Load()
}

// Notifications returns recent operation outcomes, oldest first.
func (s *CoreService) Notifications() []Notification {
	return s.notes.recent()
}

// Generate runs the full pipeline for one quote: prompt construction, API
// call, decode, crop, save, record insertion. The stages are strictly
// ordered; any failure aborts the pipeline, leaves no partial record, and
// produces exactly one notification.
func (s *CoreService) Generate(ctx context.Context, quoteText string) (*database.Image, error) {
	if strings.TrimSpace(quoteText) == "" {
		s.notes.add(LevelError, "Please enter a quote.")
		return nil, ErrEmptyQuote
	}

	if !s.busy.CompareAndSwap(false, true) {
		s.notes.add(LevelError, "A generation is already in progress.")
		return nil, ErrGenerationInFlight
	}
	defer s.busy.Store(false)

	settings, err := s.prefs.Read(ctx)
	if err != nil {
		return nil, s.fail("Failed to read customization settings.", err)
	}

	prompt := BuildPrompt(quoteText, settings)
	slog.Info("generating wallpaper",
		"location", settings.Location, "scene", settings.Scene, "style", settings.Style)

	data, err := s.generator.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, s.fail(generationFailureMessage(err), err)
	}

	decoded, err := postprocess.Decode(data)
	if err != nil {
		return nil, s.fail("Failed to decode image data.", err)
	}

	cropped, err := postprocess.CropToRatio(decoded,
		postprocess.WallpaperRatioWidth, postprocess.WallpaperRatioHeight)
	if err != nil {
		return nil, s.fail("Failed to crop image.", err)
	}

	filePath, err := postprocess.Save(cropped, s.config.Storage.ImagesDir)
	if err != nil {
		return nil, s.fail("Failed to save cropped image.", err)
	}

	img, err := s.databaseService.CreateImage(ctx, filePath, prompt)
	if err != nil {
		// The record was never created; do not leave the file behind either.
		if removeErr := os.Remove(filePath); removeErr != nil {
			slog.Warn("failed to remove orphaned image file", "path", filePath, "error", removeErr)
		}
		return nil, s.fail("Failed to record generated image.", err)
	}

	slog.Info("wallpaper generated", "id", img.ID, "path", img.FilePath)
	s.notes.add(LevelInfo, "Wallpaper generated successfully!")
	return img, nil
}

func (s *CoreService) fail(message string, err error) error {
	slog.Error("generation failed", "message", message, "error", err)
	s.notes.add(LevelError, message)
	return fmt.Errorf("%s: %w", strings.TrimSuffix(message, "."), err)
}

// generationFailureMessage maps API client failures onto distinct
// user-facing messages; the underlying category is kept in the logs only.
func generationFailureMessage(err error) string {
	var apiErr *imagegen.APIError
	switch {
	case errors.Is(err, imagegen.ErrMissingAPIKey):
		return "Image API key is missing. Please configure it."
	case errors.Is(err, imagegen.ErrTimeout):
		return "Request timed out. Please try again."
	case errors.Is(err, imagegen.ErrEmptyResponse):
		return "No image data received from the API."
	case errors.As(err, &apiErr):
		return "The image API rejected the request."
	default:
		return "Network error calling the image API."
	}
}

// ListImages returns all generated images, newest first.
func (s *CoreService) ListImages(ctx context.Context) ([]*database.Image, error) {
	return s.databaseService.GetAllImages(ctx)
}

// SetSelection marks or unmarks one image for rotation without touching any
// other record.
func (s *CoreService) SetSelection(ctx context.Context, id int64, selected bool) error {
	return s.databaseService.SetSelectedForRotation(ctx, id, selected)
}

// ToggleSelection flips the rotation flag of one image and returns the new
// value.
func (s *CoreService) ToggleSelection(ctx context.Context, id int64) (bool, error) {
	img, err := s.databaseService.GetImageByID(ctx, id)
	if err != nil {
		return false, err
	}
	selected := !img.SelectedForRotation
	if err := s.databaseService.SetSelectedForRotation(ctx, id, selected); err != nil {
		return false, err
	}
	return selected, nil
}

// DeleteImage removes one image. File removal is best-effort; the database
// record is removed regardless of the file-deletion outcome, which makes the
// operation idempotent.
func (s *CoreService) DeleteImage(ctx context.Context, id int64) error {
	img, err := s.databaseService.GetImageByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	removeFileBestEffort(img.FilePath)
	return s.databaseService.DeleteImage(ctx, id)
}

// DeleteImages removes the given images. Files are removed best-effort; the
// database rows are removed in a single transaction.
func (s *CoreService) DeleteImages(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	for _, id := range ids {
		img, err := s.databaseService.GetImageByID(ctx, id)
		if err != nil {
			continue
		}
		removeFileBestEffort(img.FilePath)
	}

	if err := s.databaseService.DeleteImages(ctx, ids); err != nil {
		s.notes.add(LevelError, "Failed to delete images.")
		return 0, err
	}

	s.notes.add(LevelInfo, fmt.Sprintf("Deleted %d image(s).", len(ids)))
	return len(ids), nil
}

// DeleteSelected removes every image currently marked for rotation.
func (s *CoreService) DeleteSelected(ctx context.Context) (int, error) {
	selected, err := s.databaseService.GetSelectedImages(ctx)
	if err != nil {
		return 0, err
	}
	if len(selected) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(selected))
	for i, img := range selected {
		ids[i] = img.ID
	}
	return s.DeleteImages(ctx, ids)
}

// ExportSelected writes JPEG copies of all selected images into the export
// directory and reports aggregate success and failure counts in a single
// notification. successCount+errorCount always equals the selected total.
func (s *CoreService) ExportSelected(ctx context.Context) (successCount, errorCount int, err error) {
	selected, err := s.databaseService.GetSelectedImages(ctx)
	if err != nil {
		return 0, 0, err
	}
	if len(selected) == 0 {
		s.notes.add(LevelInfo, "No images selected for export.")
		return 0, 0, nil
	}

	if s.config.Storage.ExportDir == "" {
		s.notes.add(LevelError, "No export directory is configured.")
		return 0, len(selected), nil
	}
	if err := os.MkdirAll(s.config.Storage.ExportDir, 0o755); err != nil {
		s.notes.add(LevelError, "Failed to export selected image(s).")
		return 0, len(selected), nil
	}

	exportedAt := time.Now().UnixMilli()
	for _, img := range selected {
		if exportErr := exportImage(img, s.config.Storage.ExportDir, exportedAt); exportErr != nil {
			slog.Error("failed to export image", "id", img.ID, "path", img.FilePath, "error", exportErr)
			errorCount++
			continue
		}
		successCount++
	}

	switch {
	case successCount > 0 && errorCount == 0:
		s.notes.add(LevelInfo, fmt.Sprintf("Exported %d image(s).", successCount))
	case successCount > 0:
		s.notes.add(LevelInfo, fmt.Sprintf("Exported %d image(s), failed for %d.", successCount, errorCount))
	default:
		s.notes.add(LevelError, "Failed to export selected image(s).")
	}

	return successCount, errorCount, nil
}

func exportImage(img *database.Image, exportDir string, exportedAt int64) error {
	source, err := imaging.Open(img.FilePath)
	if err != nil {
		return err
	}
	target := fmt.Sprintf("%s/gowall_%d_%d.jpg", exportDir, exportedAt, img.ID)
	return imaging.Save(source, target, imaging.JPEGQuality(95))
}

func removeFileBestEffort(path string) {
	err := os.Remove(path)
	switch {
	case err == nil:
		slog.Debug("deleted image file", "path", path)
	case os.IsNotExist(err):
		slog.Debug("image file already absent, skipping deletion", "path", path)
	default:
		slog.Warn("failed to delete image file", "path", path, "error", err)
	}
}

// Close releases the underlying database connection.
func (s *CoreService) Close() error {
	return s.databaseService.Close()
}
