package render

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed assets/*.svg
var placeholderAssets embed.FS

var placeholderFiles = map[Placeholder]string{
	PlaceholderNoImages: "assets/placeholder_no_images.svg",
	PlaceholderLoading:  "assets/placeholder_loading.svg",
}

// renderPlaceholderSVG rasterizes an embedded placeholder SVG into a frame of
// the given target dimensions.
func renderPlaceholderSVG(kind Placeholder, targetW, targetH int) (*image.NRGBA, error) {
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("invalid target dimensions for SVG rendering: %dx%d", targetW, targetH)
	}

	file, ok := placeholderFiles[kind]
	if !ok {
		return nil, fmt.Errorf("unknown placeholder kind: %d", kind)
	}

	svgData, err := placeholderAssets.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded placeholder %s: %w", file, err)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}

	// Set drawing target rectangle
	icon.SetTarget(0, 0, float64(targetW), float64(targetH))

	// Prepare target canvas (dark background, matching the display idle color)
	dst := image.NewNRGBA(image.Rect(0, 0, targetW, targetH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.RGBA{R: 68, G: 68, B: 68, A: 255}), image.Point{}, draw.Src)

	// Rasterize SVG into the target canvas
	scanner := rasterx.NewScannerGV(targetW, targetH, dst, dst.Bounds())
	dasher := rasterx.NewDasher(targetW, targetH, scanner)
	icon.Draw(dasher, 1.0)

	return dst, nil
}
