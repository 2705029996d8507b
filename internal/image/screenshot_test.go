package image

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"bomb-vision/internal/lighting"
)

func TestDecodePNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	shot, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if shot.Width() != 40 || shot.Height() != 20 {
		t.Errorf("size = %dx%d, want 40x20", shot.Width(), shot.Height())
	}
	if shot.Lighting != lighting.On {
		t.Errorf("lighting = %v, want On", shot.Lighting)
	}
	if r, g, b := RGB(shot.Image, 5, 5); r != 200 || g != 200 || b != 200 {
		t.Errorf("pixel = %d,%d,%d", r, g, b)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte("not an image")); err == nil {
		t.Error("expected decode error")
	}
}

func TestToRGBARebasesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 20, 20))
	src.SetRGBA(10, 10, color.RGBA{R: 9, A: 255})
	out := ToRGBA(src)
	if out.Bounds().Min != (image.Point{}) {
		t.Fatalf("origin = %v", out.Bounds().Min)
	}
	if r, _, _ := RGB(out, 0, 0); r != 9 {
		t.Errorf("r = %d, want 9", r)
	}
	if r, g, b := RGB(out, -1, 0); r|g|b != 0 {
		t.Error("out of range pixels should be black")
	}
}

func TestIsSupportedFormat(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"frame.png", true},
		{"FRAME.TIFF", true},
		{"frame.jpeg", true},
		{"frame.bmp", false},
		{"frame", false},
	}
	for _, tt := range tests {
		if got := IsSupportedFormat(tt.path); got != tt.want {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
