package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestNewRenderer_InvalidDimensions(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{name: "zero width", width: 0, height: 100},
		{name: "negative height", width: 100, height: -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRenderer(tc.width, tc.height); err == nil {
				t.Fatalf("expected error for %dx%d", tc.width, tc.height)
			}
		})
	}
}

func TestFrame_CoversSurface(t *testing.T) {
	renderer, err := NewRenderer(90, 200)
	if err != nil {
		t.Fatalf("NewRenderer error: %v", err)
	}

	// A wide source must still produce a full-size frame (cover, not contain).
	src := image.NewRGBA(image.Rect(0, 0, 400, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 400; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}

	frame := renderer.Frame(src)
	if frame.Bounds().Dx() != 90 || frame.Bounds().Dy() != 200 {
		t.Fatalf("expected 90x200 frame, got %dx%d", frame.Bounds().Dx(), frame.Bounds().Dy())
	}

	// Every corner must be filled with source content, not background.
	for _, pt := range []image.Point{{X: 0, Y: 0}, {X: 89, Y: 0}, {X: 0, Y: 199}, {X: 89, Y: 199}} {
		_, _, _, a := frame.At(pt.X, pt.Y).RGBA()
		if a == 0 {
			t.Errorf("expected opaque pixel at %v", pt)
		}
	}
}

func TestPlaceholderFrame_AllKinds(t *testing.T) {
	renderer, err := NewRenderer(90, 200)
	if err != nil {
		t.Fatalf("NewRenderer error: %v", err)
	}

	for _, kind := range []Placeholder{PlaceholderNoImages, PlaceholderLoading} {
		frame, err := renderer.PlaceholderFrame(kind)
		if err != nil {
			t.Fatalf("PlaceholderFrame(%d) error: %v", kind, err)
		}
		if frame.Bounds().Dx() != 90 || frame.Bounds().Dy() != 200 {
			t.Fatalf("expected 90x200 placeholder, got %dx%d", frame.Bounds().Dx(), frame.Bounds().Dy())
		}
	}
}

func TestFileSurface_PresentWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames", "current.png")
	surface, err := NewFileSurface(path, 9, 20)
	if err != nil {
		t.Fatalf("NewFileSurface error: %v", err)
	}

	if w, h := surface.Size(); w != 9 || h != 20 {
		t.Fatalf("unexpected size %dx%d", w, h)
	}

	if err := surface.Present(image.NewRGBA(image.Rect(0, 0, 9, 20))); err != nil {
		t.Fatalf("Present error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("expected frame file at %s: %v", path, err)
	}
	defer func() { _ = file.Close() }()
	if _, err := png.Decode(file); err != nil {
		t.Fatalf("frame file is not valid PNG: %v", err)
	}
}

func TestMemorySurface_RetainsLastFrame(t *testing.T) {
	surface := NewMemorySurface(9, 20)
	if surface.LastFrame() != nil {
		t.Fatalf("expected no frame before first Present")
	}

	frame := image.NewRGBA(image.Rect(0, 0, 9, 20))
	if err := surface.Present(frame); err != nil {
		t.Fatalf("Present error: %v", err)
	}
	if surface.LastFrame() != frame {
		t.Fatalf("expected last frame to be retained")
	}
	if surface.PresentCount() != 1 {
		t.Fatalf("expected 1 presented frame, got %d", surface.PresentCount())
	}
}
