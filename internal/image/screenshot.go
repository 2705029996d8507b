// Package image provides screenshot loading and fast pixel access over
// normalised RGBA buffers.
package image

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"bomb-vision/internal/lighting"

	_ "golang.org/x/image/tiff"
)

// Screenshot is one captured frame of the bomb together with the lighting
// state it was taken under.
type Screenshot struct {
	Path     string         // Original file path, empty for in-memory frames
	Image    *image.RGBA    // Pixels, normalised to RGBA with origin (0,0)
	Lighting lighting.State // Ambient lighting for the whole frame
}

// NewScreenshot wraps an image, normalising it to RGBA. The lighting state is
// detected from the frame.
func NewScreenshot(img image.Image) *Screenshot {
	rgba := ToRGBA(img)
	return &Screenshot{
		Image:    rgba,
		Lighting: lighting.DetectState(rgba),
	}
}

// Load loads a screenshot from the specified path.
func Load(path string) (*Screenshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	shot, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	shot.Path = path
	return shot, nil
}

// Decode decodes a PNG, JPEG or TIFF screenshot from memory.
func Decode(data []byte) (*Screenshot, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return NewScreenshot(img), nil
}

// Width returns the image width in pixels.
func (s *Screenshot) Width() int {
	if s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (s *Screenshot) Height() int {
	if s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dy()
}

// ToRGBA returns img as an *image.RGBA whose bounds start at (0,0).
// RGBA inputs already at the origin are returned as-is.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// RGB returns the channels at (x, y), or black outside the image.
func RGB(img *image.RGBA, x, y int) (r, g, b uint8) {
	if !(image.Point{X: x, Y: y}.In(img.Rect)) {
		return 0, 0, 0
	}
	i := img.PixOffset(x, y)
	return img.Pix[i], img.Pix[i+1], img.Pix[i+2]
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
