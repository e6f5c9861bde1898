package render

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
)

// FileSurface presents frames by writing them as PNG to a fixed path. The
// display side (an e-ink frame, a kiosk browser, a wallpaper daemon) picks
// the file up from there.
type FileSurface struct {
	width  int
	height int
	path   string
}

func NewFileSurface(path string, width, height int) (*FileSurface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface dimensions: %dx%d", width, height)
	}
	if path == "" {
		return nil, fmt.Errorf("surface path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create surface directory: %w", err)
	}
	return &FileSurface{width: width, height: height, path: path}, nil
}

func (s *FileSurface) Size() (int, int) {
	return s.width, s.height
}

func (s *FileSurface) Present(frame image.Image) error {
	if err := imaging.Save(frame, s.path); err != nil {
		return fmt.Errorf("failed to write frame to %s: %w", s.path, err)
	}
	return nil
}

// MemorySurface retains the most recently presented frame. Used in tests and
// by the HTTP frame endpoint.
type MemorySurface struct {
	mu     sync.Mutex
	width  int
	height int
	frame  image.Image
	served int
}

func NewMemorySurface(width, height int) *MemorySurface {
	return &MemorySurface{width: width, height: height}
}

func (s *MemorySurface) Size() (int, int) {
	return s.width, s.height
}

func (s *MemorySurface) Present(frame image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = frame
	s.served++
	return nil
}

// LastFrame returns the most recently presented frame, or nil.
func (s *MemorySurface) LastFrame() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// PresentCount returns how many frames have been presented.
func (s *MemorySurface) PresentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.served
}
