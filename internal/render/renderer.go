package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	"github.com/disintegration/imaging"
)

// Surface is the platform display collaborator. It receives complete frames
// at its own size and presents them; it holds no engine state.
type Surface interface {
	Size() (width int, height int)
	Present(frame image.Image) error
}

// Placeholder kinds drawn when no wallpaper image is available.
type Placeholder int

const (
	// PlaceholderNoImages is shown when the rotation set is empty.
	PlaceholderNoImages Placeholder = iota
	// PlaceholderLoading is shown while a rotation reload is in flight.
	PlaceholderLoading
)

// Renderer composes display-sized frames from wallpaper images.
type Renderer struct {
	width  int
	height int
}

func NewRenderer(width, height int) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid renderer dimensions: %dx%d", width, height)
	}
	return &Renderer{width: width, height: height}, nil
}

// Frame scales img to cover the full display surface, preserving aspect
// ratio, centered, with overflow cropped.
func (r *Renderer) Frame(img image.Image) *image.NRGBA {
	return imaging.Fill(img, r.width, r.height, imaging.Center, imaging.Lanczos)
}

// PlaceholderFrame renders the placeholder of the given kind at display size.
func (r *Renderer) PlaceholderFrame(kind Placeholder) (*image.NRGBA, error) {
	rendered, err := renderPlaceholderSVG(kind, r.width, r.height)
	if err != nil {
		// A broken embedded asset should not take the display down; fall back
		// to a flat frame.
		slog.Error("failed to render placeholder", "kind", int(kind), "error", err)
		fallback := image.NewNRGBA(image.Rect(0, 0, r.width, r.height))
		draw.Draw(fallback, fallback.Bounds(), image.NewUniform(color.RGBA{R: 68, G: 68, B: 68, A: 255}), image.Point{}, draw.Src)
		return fallback, nil
	}
	return rendered, nil
}
