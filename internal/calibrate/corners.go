// Package calibrate locates modules on screen and rectifies them into the
// canonical square view every reader's pixel coordinates are defined in.
package calibrate

import (
	"fmt"
	"image"

	"bomb-vision/pkg/geometry"
)

// Predicate selects pixels by colour.
type Predicate func(r, g, b uint8) bool

// continuityWindow is how many pixels past a candidate hit are examined when
// suppressing isolated noise.
const continuityWindow = 16

// sweep describes the diagonal search from one corner of the bounds: the
// origin pixel and the inward step direction along each axis.
type sweep struct {
	corner geometry.Corner
	ox, oy int
	sx, sy int
}

func sweepsFor(b image.Rectangle) [4]sweep {
	return [4]sweep{
		{geometry.TopLeft, b.Min.X, b.Min.Y, 1, 1},
		{geometry.TopRight, b.Max.X - 1, b.Min.Y, -1, 1},
		{geometry.BottomLeft, b.Min.X, b.Max.Y - 1, 1, -1},
		{geometry.BottomRight, b.Max.X - 1, b.Max.Y - 1, -1, -1},
	}
}

// FindCorners locates the four corners of the region selected by pred inside
// bounds. Each corner is found by sweeping diagonal lines inward from the
// matching corner of bounds, one step at a time. Every line is scanned from
// both of its ends (one arm starting on each adjacent edge); the first
// qualifying pixel of each arm is averaged into the corner position.
//
// With continuity > 0 a pixel only qualifies when at least continuity of the
// next 16 pixels further inward along the diagonal also match, which rejects
// single-pixel noise and anti-aliasing.
func FindCorners(img *image.RGBA, bounds image.Rectangle, pred Predicate, continuity int) (geometry.Quad, error) {
	var quad geometry.Quad
	bounds = bounds.Intersect(img.Bounds())
	if bounds.Empty() {
		return quad, fmt.Errorf("%w: empty search bounds", ErrCornerNotFound)
	}

	radius := min(bounds.Dx(), bounds.Dy())
	for _, s := range sweepsFor(bounds) {
		p, ok := findCorner(img, bounds, s, radius, pred, continuity)
		if !ok {
			return quad, fmt.Errorf("%w for index %d (%s)", ErrCornerNotFound, int(s.corner), s.corner)
		}
		quad[s.corner] = p
	}
	return quad, nil
}

func findCorner(img *image.RGBA, bounds image.Rectangle, s sweep, radius int, pred Predicate, continuity int) (geometry.Point2D, bool) {
	hit := func(x, y int) bool {
		if !(image.Point{X: x, Y: y}).In(bounds) || !match(img, x, y, pred) {
			return false
		}
		if continuity <= 0 {
			return true
		}
		n := 0
		for k := 1; k <= continuityWindow; k++ {
			nx, ny := x+s.sx*k, y+s.sy*k
			if (image.Point{X: nx, Y: ny}).In(bounds) && match(img, nx, ny, pred) {
				n++
			}
		}
		return n >= continuity
	}

	for d := 0; d < radius*2; d++ {
		// Arm A starts on the horizontal edge and walks towards the vertical one.
		ax, ay, okA := 0, 0, false
		for i := 0; i <= d; i++ {
			x, y := s.ox+s.sx*(d-i), s.oy+s.sy*i
			if hit(x, y) {
				ax, ay, okA = x, y, true
				break
			}
		}
		if !okA {
			continue
		}
		// Arm B walks the same line from the other end. It must find a hit
		// because arm A did.
		bx, by := ax, ay
		for i := 0; i <= d; i++ {
			x, y := s.ox+s.sx*i, s.oy+s.sy*(d-i)
			if hit(x, y) {
				bx, by = x, y
				break
			}
		}
		return geometry.Point2D{X: float64(ax+bx) / 2, Y: float64(ay+by) / 2}, true
	}
	return geometry.Point2D{}, false
}

func match(img *image.RGBA, x, y int, pred Predicate) bool {
	i := img.PixOffset(x, y)
	return pred(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
}
