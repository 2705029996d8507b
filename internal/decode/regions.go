package decode

import (
	"image"

	"bomb-vision/pkg/colorutil"

	"gonum.org/v1/gonum/stat"
)

// PixelFunc classifies one pixel.
type PixelFunc = func(r, g, b uint8) bool

func each(img *image.RGBA, rect image.Rectangle, fn func(r, g, b uint8) bool) {
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		i := img.PixOffset(rect.Min.X, y)
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if !fn(img.Pix[i], img.Pix[i+1], img.Pix[i+2]) {
				return
			}
			i += 4
		}
	}
}

// AnyMatch reports whether any pixel in rect satisfies pred.
func AnyMatch(img *image.RGBA, rect image.Rectangle, pred PixelFunc) bool {
	found := false
	each(img, rect, func(r, g, b uint8) bool {
		found = pred(r, g, b)
		return !found
	})
	return found
}

// Count returns how many pixels of rect satisfy pred.
func Count(img *image.RGBA, rect image.Rectangle, pred PixelFunc) int {
	n := 0
	each(img, rect, func(r, g, b uint8) bool {
		if pred(r, g, b) {
			n++
		}
		return true
	})
	return n
}

// Fraction returns the share of rect's pixels (clipped to the image) that
// satisfy pred, or 0 for an empty rect.
func Fraction(img *image.RGBA, rect image.Rectangle, pred PixelFunc) float64 {
	area := rect.Intersect(img.Bounds())
	if area.Empty() {
		return 0
	}
	return float64(Count(img, rect, pred)) / float64(area.Dx()*area.Dy())
}

// AtLeast reports whether at least frac of rect satisfies pred.
func AtLeast(img *image.RGBA, rect image.Rectangle, pred PixelFunc, frac float64) bool {
	return Fraction(img, rect, pred) >= frac
}

// ChannelAbove returns a predicate testing one channel (0=R, 1=G, 2=B)
// against a threshold.
func ChannelAbove(channel int, threshold uint8) PixelFunc {
	return func(r, g, b uint8) bool {
		switch channel {
		case 0:
			return r >= threshold
		case 1:
			return g >= threshold
		default:
			return b >= threshold
		}
	}
}

// LumaStats returns the mean and standard deviation of luminance over rect.
func LumaStats(img *image.RGBA, rect image.Rectangle) (mean, std float64) {
	var values []float64
	each(img, rect, func(r, g, b uint8) bool {
		values = append(values, colorutil.Luma(r, g, b))
		return true
	})
	if len(values) == 0 {
		return 0, 0
	}
	return stat.MeanStdDev(values, nil)
}

func fill(img *image.RGBA, rect image.Rectangle, r, g, b uint8) {
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 255
		}
	}
}
