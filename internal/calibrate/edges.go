package calibrate

import (
	"fmt"
	"image"
)

// FindEdges shrinks rect inward from each side until the scan line along that
// side contains at least one pixel matching pred. The result tightly bounds
// the matching pixels.
func FindEdges(img *image.RGBA, rect image.Rectangle, pred Predicate) (image.Rectangle, error) {
	r := rect.Intersect(img.Bounds())

	rowHas := func(y int) bool {
		for x := r.Min.X; x < r.Max.X; x++ {
			if match(img, x, y, pred) {
				return true
			}
		}
		return false
	}
	colHas := func(x int) bool {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			if match(img, x, y, pred) {
				return true
			}
		}
		return false
	}

	for r.Min.Y < r.Max.Y && !rowHas(r.Min.Y) {
		r.Min.Y++
	}
	for r.Max.Y > r.Min.Y && !rowHas(r.Max.Y-1) {
		r.Max.Y--
	}
	for r.Min.X < r.Max.X && !colHas(r.Min.X) {
		r.Min.X++
	}
	for r.Max.X > r.Min.X && !colHas(r.Max.X-1) {
		r.Max.X--
	}

	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w in %v", ErrEdgeNotFound, rect)
	}
	return r, nil
}
