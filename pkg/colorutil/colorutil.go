// Package colorutil provides shared color utilities for the bomb reader.
package colorutil

import (
	"fmt"
	"image/color"
	"math"
)

// Common overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Blue    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// HSV is a color in hue/saturation/value form.
// H is in [0,360), S and V in [0,1]; A carries the source alpha in [0,1].
type HSV struct {
	H, S, V, A float64
}

// RGBToHSV converts 8-bit RGB to HSV. It never fails: gray pixels get hue 0,
// black pixels saturation 0.
func RGBToHSV(r, g, b uint8) HSV {
	rf := float64(r) / 255.0
	gf := float64(g) / 255.0
	bf := float64(b) / 255.0

	maxC := math.Max(rf, math.Max(gf, bf))
	minC := math.Min(rf, math.Min(gf, bf))
	diff := maxC - minC

	hsv := HSV{V: maxC, A: 1}
	if maxC > 0 {
		hsv.S = diff / maxC
	}

	if diff == 0 {
		hsv.H = 0
	} else if maxC == rf {
		hsv.H = 60 * math.Mod((gf-bf)/diff, 6)
	} else if maxC == gf {
		hsv.H = 60 * ((bf-rf)/diff + 2)
	} else {
		hsv.H = 60 * ((rf-gf)/diff + 4)
	}

	if hsv.H < 0 {
		hsv.H += 360
	}
	if hsv.H >= 360 {
		hsv.H -= 360
	}
	return hsv
}

// FromColor converts any color.Color, keeping its alpha.
func FromColor(c color.Color) HSV {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	hsv := RGBToHSV(n.R, n.G, n.B)
	hsv.A = float64(n.A) / 255.0
	return hsv
}

// ToRGB converts back to 8-bit RGB.
func (c HSV) ToRGB() (r, g, b uint8) {
	h := math.Mod(c.H, 360)
	if h < 0 {
		h += 360
	}
	chroma := c.V * c.S
	x := chroma * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := c.V - chroma

	var rf, gf, bf float64
	switch {
	case h < 60:
		rf, gf, bf = chroma, x, 0
	case h < 120:
		rf, gf, bf = x, chroma, 0
	case h < 180:
		rf, gf, bf = 0, chroma, x
	case h < 240:
		rf, gf, bf = 0, x, chroma
	case h < 300:
		rf, gf, bf = x, 0, chroma
	default:
		rf, gf, bf = chroma, 0, x
	}
	return to8(rf + m), to8(gf + m), to8(bf + m)
}

// HueIn reports whether the hue lies in [lo, hi]. Ranges with lo > hi wrap
// through 0, so HueIn(345, 15) selects reds.
func (c HSV) HueIn(lo, hi float64) bool {
	if lo <= hi {
		return c.H >= lo && c.H <= hi
	}
	return c.H >= lo || c.H <= hi
}

func (c HSV) String() string {
	return fmt.Sprintf("HSV(%.0f, %.2f, %.2f)", c.H, c.S, c.V)
}

// Luma returns the Rec. 601 luminance of an 8-bit RGB triple.
func Luma(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

func to8(v float64) uint8 {
	v = math.Round(v * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
