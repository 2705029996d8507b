package main

import (
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"testing"

	bombimage "bomb-vision/internal/image"
	"bomb-vision/internal/overlay"
	"bomb-vision/internal/perception"
	"bomb-vision/pkg/geometry"
)

func TestWriteRectified(t *testing.T) {
	grey := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	red := color.RGBA{R: 255, A: 255}

	img := image.NewRGBA(image.Rect(0, 0, perception.Size, perception.Size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: grey}, image.Point{}, draw.Src)
	shot := bombimage.NewScreenshot(img)
	quad := geometry.QuadFromRect(geometry.RectFromImage(img.Bounds()))

	dbg := overlay.New()
	dbg.Rect(image.Rect(10, 10, 60, 60), red)

	path := filepath.Join(t.TempDir(), "rect.png")
	if err := writeRectified(perception.NewEngine(nil, nil), shot, quad, dbg, path); err != nil {
		t.Fatalf("writeRectified: %v", err)
	}
	out, err := bombimage.Load(path)
	if err != nil {
		t.Fatalf("reading back %s: %v", path, err)
	}
	if got := out.Image.Bounds().Size(); got != image.Pt(perception.Size, perception.Size) {
		t.Fatalf("size = %v, want %dx%d", got, perception.Size, perception.Size)
	}

	tests := []struct {
		name string
		at   image.Point
		want color.RGBA
	}{
		{"rect corner", image.Pt(10, 10), red},
		{"rect edge", image.Pt(35, 59), red},
		{"rect interior is not dimmed", image.Pt(35, 35), grey},
		{"outside the annotation", image.Pt(200, 200), grey},
	}
	for _, tc := range tests {
		if got := out.Image.RGBAAt(tc.at.X, tc.at.Y); got != tc.want {
			t.Errorf("%s: pixel %v = %v, want %v", tc.name, tc.at, got, tc.want)
		}
	}
}

func TestWriteRectifiedRejectsBadQuad(t *testing.T) {
	shot := bombimage.NewScreenshot(image.NewRGBA(image.Rect(0, 0, 64, 64)))
	far := geometry.QuadFromRect(geometry.RectInt{X: 500, Y: 500, Width: 32, Height: 32})
	err := writeRectified(perception.NewEngine(nil, nil), shot, far, nil, filepath.Join(t.TempDir(), "x.png"))
	if perception.KindOf(err) != perception.GeometryError {
		t.Errorf("KindOf(%v) = %v, want geometry", err, perception.KindOf(err))
	}
}
