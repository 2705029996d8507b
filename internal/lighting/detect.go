package lighting

import (
	"image"
	"image/color"

	"bomb-vision/pkg/colorutil"
)

// The lighting patch is a square of room wall in the top-left of the screen,
// expressed as fractions of the screenshot size so it survives resolution
// changes.
const (
	patchX0 = 0.02
	patchY0 = 0.02
	patchX1 = 0.08
	patchY1 = 0.08
)

// Thresholds on the patch mean colour, tuned against captured screenshots.
const (
	emergencyMinRed   = 90
	emergencyMaxRatio = 0.45
	offMaxLuma        = 25
	buzzMaxLuma       = 70
)

// DetectState derives the lighting state of a whole screenshot from the fixed
// wall patch.
func DetectState(img image.Image) State {
	r, g, b := patchMean(img)
	if r > emergencyMinRed && g < r*emergencyMaxRatio && b < r*emergencyMaxRatio {
		return Emergency
	}
	luma := colorutil.Luma(uint8(r), uint8(g), uint8(b))
	switch {
	case luma < offMaxLuma:
		return Off
	case luma < buzzMaxLuma:
		return Buzz
	default:
		return On
	}
}

func patchMean(img image.Image) (r, g, b float64) {
	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	x0 := bounds.Min.X + int(w*patchX0)
	y0 := bounds.Min.Y + int(h*patchY0)
	x1 := max(bounds.Min.X+int(w*patchX1), x0+1)
	y1 := max(bounds.Min.Y+int(h*patchY1), y0+1)

	var n float64
	for y := y0; y < y1 && y < bounds.Max.Y; y++ {
		for x := x0; x < x1 && x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			r += float64(c.R)
			g += float64(c.G)
			b += float64(c.B)
			n++
		}
	}
	if n == 0 {
		return 0, 0, 0
	}
	return r / n, g / n, b / n
}
