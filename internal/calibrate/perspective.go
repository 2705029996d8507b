package calibrate

import (
	"fmt"
	"image"
	"math"
	"strings"

	"bomb-vision/pkg/geometry"
)

// Interpolation selects how source pixels are sampled during rectification.
type Interpolation int

const (
	Bilinear Interpolation = iota
	NearestNeighbour
)

func (m Interpolation) String() string {
	switch m {
	case Bilinear:
		return "bilinear"
	case NearestNeighbour:
		return "nearest"
	default:
		return "unknown"
	}
}

// ParseInterpolation parses "bilinear" or "nearest".
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bilinear":
		return Bilinear, nil
	case "nearest", "nearestneighbour", "nearest-neighbour":
		return NearestNeighbour, nil
	default:
		return Bilinear, fmt.Errorf("unknown interpolation %q", s)
	}
}

// PerspectiveUndistort resamples the region inside quad into a width x height
// image. Output pixel (u, v) maps to quad.Map(u/(width-1), v/(height-1)):
// the left and right quad edges are interpolated by the row fraction, then
// the row between them by the column fraction. Corner pixels of the output
// therefore land exactly on the quad's corners.
func PerspectiveUndistort(img *image.RGBA, quad geometry.Quad, mode Interpolation, width, height int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	if width <= 0 || height <= 0 {
		return out
	}
	b := img.Bounds()

	fx := fractions(width)
	fy := fractions(height)

	for v := 0; v < height; v++ {
		left := quad[geometry.TopLeft].Lerp(quad[geometry.BottomLeft], fy[v])
		right := quad[geometry.TopRight].Lerp(quad[geometry.BottomRight], fy[v])
		row := out.Pix[out.PixOffset(0, v):]
		for u := 0; u < width; u++ {
			p := left.Lerp(right, fx[u])
			dst := row[u*4 : u*4+4]
			if mode == NearestNeighbour {
				sampleNearest(img, b, p, dst)
			} else {
				sampleBilinear(img, b, p, dst)
			}
		}
	}
	return out
}

// RectifiedToScreen returns the mapping from pixel coordinates of a
// width x height rectified image to the screen point PerspectiveUndistort
// sampled for that pixel. Non-integer coordinates interpolate the same way.
func RectifiedToScreen(quad geometry.Quad, width, height int) func(geometry.Point2D) geometry.Point2D {
	w, h := float64(max(width-1, 1)), float64(max(height-1, 1))
	return func(p geometry.Point2D) geometry.Point2D {
		return quad.Map(p.X/w, p.Y/h)
	}
}

func fractions(n int) []float64 {
	f := make([]float64, n)
	if n == 1 {
		return f
	}
	for i := range f {
		f[i] = float64(i) / float64(n-1)
	}
	return f
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sampleNearest(img *image.RGBA, b image.Rectangle, p geometry.Point2D, dst []uint8) {
	x := clampInt(int(math.Round(p.X)), b.Min.X, b.Max.X-1)
	y := clampInt(int(math.Round(p.Y)), b.Min.Y, b.Max.Y-1)
	i := img.PixOffset(x, y)
	copy(dst, img.Pix[i:i+4])
}

// sampleBilinear weights the four neighbours of p by their fractional
// distance and rounds each channel to the nearest integer.
func sampleBilinear(img *image.RGBA, b image.Rectangle, p geometry.Point2D, dst []uint8) {
	x0f, y0f := math.Floor(p.X), math.Floor(p.Y)
	wx1, wy1 := p.X-x0f, p.Y-y0f
	wx0, wy0 := 1-wx1, 1-wy1

	x0 := clampInt(int(x0f), b.Min.X, b.Max.X-1)
	y0 := clampInt(int(y0f), b.Min.Y, b.Max.Y-1)
	x1 := clampInt(int(x0f)+1, b.Min.X, b.Max.X-1)
	y1 := clampInt(int(y0f)+1, b.Min.Y, b.Max.Y-1)

	i00 := img.PixOffset(x0, y0)
	i10 := img.PixOffset(x1, y0)
	i01 := img.PixOffset(x0, y1)
	i11 := img.PixOffset(x1, y1)
	for c := 0; c < 4; c++ {
		v := wx0*wy0*float64(img.Pix[i00+c]) +
			wx1*wy0*float64(img.Pix[i10+c]) +
			wx0*wy1*float64(img.Pix[i01+c]) +
			wx1*wy1*float64(img.Pix[i11+c])
		dst[c] = uint8(clampInt(int(v+0.5), 0, 255))
	}
}
