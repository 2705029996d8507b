// Package palette names the handful of colours that appear on module faces.
// Pixels are corrected for the lighting state first, so the hue and value
// bands below hold under every lighting regime.
package palette

import (
	"fmt"
	"image"
	"image/color"

	"bomb-vision/internal/lighting"
	"bomb-vision/pkg/colorutil"
)

// Colour is a named face colour.
type Colour int

const (
	None Colour = iota
	Black
	White
	Grey
	Red
	Orange
	Yellow
	Green
	Blue
	Magenta
)

var names = [...]string{
	None:    "None",
	Black:   "Black",
	White:   "White",
	Grey:    "Grey",
	Red:     "Red",
	Orange:  "Orange",
	Yellow:  "Yellow",
	Green:   "Green",
	Blue:    "Blue",
	Magenta: "Magenta",
}

func (c Colour) String() string {
	if c >= 0 && int(c) < len(names) {
		return names[c]
	}
	return fmt.Sprintf("Colour(%d)", int(c))
}

// RGB is a representative normal-lighting value for c, used when drawing
// synthetic frames and overlays.
func (c Colour) RGB() color.RGBA {
	switch c {
	case Black:
		return color.RGBA{R: 20, G: 20, B: 20, A: 255}
	case White:
		return color.RGBA{R: 235, G: 235, B: 235, A: 255}
	case Grey:
		return color.RGBA{R: 128, G: 128, B: 128, A: 255}
	case Red:
		return color.RGBA{R: 210, G: 30, B: 30, A: 255}
	case Orange:
		return color.RGBA{R: 230, G: 120, B: 20, A: 255}
	case Yellow:
		return color.RGBA{R: 230, G: 210, B: 30, A: 255}
	case Green:
		return color.RGBA{R: 40, G: 180, B: 50, A: 255}
	case Blue:
		return color.RGBA{R: 30, G: 60, B: 210, A: 255}
	case Magenta:
		return color.RGBA{R: 200, G: 40, B: 200, A: 255}
	default:
		return color.RGBA{A: 255}
	}
}

// Classify names an already-corrected HSV colour.
func Classify(c colorutil.HSV) Colour {
	switch {
	case c.V < 0.2:
		return Black
	case c.S < 0.18 && c.V > 0.75:
		return White
	case c.S < 0.18:
		return Grey
	case c.H < 15 || c.H >= 340:
		return Red
	case c.H < 35:
		return Orange
	case c.H < 70:
		return Yellow
	case c.H < 170:
		return Green
	case c.H < 260:
		return Blue
	default:
		return Magenta
	}
}

// Name corrects (r, g, b) for state and classifies it.
func Name(r, g, b uint8, state lighting.State) Colour {
	r, g, b = lighting.CorrectRGB(r, g, b, state)
	return Classify(colorutil.RGBToHSV(r, g, b))
}

// Dominant returns the most frequent named colour in rect, ignoring the
// colours listed in skip. It returns None when every pixel is skipped.
func Dominant(img *image.RGBA, rect image.Rectangle, state lighting.State, skip ...Colour) Colour {
	var counts [len(names)]int
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			i := img.PixOffset(x, y)
			counts[Name(img.Pix[i], img.Pix[i+1], img.Pix[i+2], state)]++
		}
	}
	for _, s := range skip {
		if s >= 0 && int(s) < len(counts) {
			counts[s] = 0
		}
	}
	best := None
	for c := range counts {
		if counts[c] > counts[best] {
			best = Colour(c)
		}
	}
	return best
}

// Is returns a pixel predicate matching colour c under state.
func Is(c Colour, state lighting.State) func(r, g, b uint8) bool {
	return func(r, g, b uint8) bool { return Name(r, g, b, state) == c }
}
