package postprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Wallpaper aspect ratio (width:height) applied to every generated image.
const (
	WallpaperRatioWidth  = 9
	WallpaperRatioHeight = 20
)

const filenamePrefix = "wallpaper_"

// ErrInvalidCropBounds is returned when no non-degenerate crop rectangle
// exists for the requested ratio, e.g. for zero-sized sources.
var ErrInvalidCropBounds = errors.New("calculated crop bounds are invalid")

// Decode decodes raw image bytes in any of the registered formats.
func Decode(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	slog.Debug("decoded generated image", "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, nil
}

// CropToRatio returns a centered crop of src at the ratioW:ratioH aspect
// ratio. The crop keeps the full source height when possible; when the
// derived width would exceed the source, it keeps the full width instead and
// derives the height, clamped to the source.
func CropToRatio(src image.Image, ratioW, ratioH int) (image.Image, error) {
	bounds := src.Bounds()
	sourceWidth := bounds.Dx()
	sourceHeight := bounds.Dy()

	ratio := float64(ratioW) / float64(ratioH)

	targetWidth := int(float64(sourceHeight) * ratio)
	targetHeight := sourceHeight

	if targetWidth > sourceWidth {
		targetWidth = sourceWidth
		targetHeight = int(float64(sourceWidth) / ratio)
		if targetHeight > sourceHeight {
			targetHeight = sourceHeight
		}
	}

	left := (sourceWidth - targetWidth) / 2
	top := (sourceHeight - targetHeight) / 2

	if targetWidth <= 0 || targetHeight <= 0 ||
		left < 0 || top < 0 ||
		left+targetWidth > sourceWidth || top+targetHeight > sourceHeight {
		return nil, fmt.Errorf("%w: source %dx%d, target %dx%d",
			ErrInvalidCropBounds, sourceWidth, sourceHeight, targetWidth, targetHeight)
	}

	rect := image.Rect(left, top, left+targetWidth, top+targetHeight)
	return imaging.Crop(src, rect.Add(bounds.Min)), nil
}

// Save encodes img as PNG under a collision-resistant filename inside
// destinationDir and returns the absolute path of the written file.
func Save(img image.Image, destinationDir string) (string, error) {
	if err := os.MkdirAll(destinationDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory %s: %w", destinationDir, err)
	}

	filename := filenamePrefix + uuid.NewString() + ".png"
	path := filepath.Join(destinationDir, filename)

	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("failed to save image to %s: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path of %s: %w", path, err)
	}

	slog.Debug("saved wallpaper image", "path", absPath,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return absPath, nil
}
