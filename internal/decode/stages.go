package decode

import "image"

// CountPulses walks the vertical strip x in [y0, y1) top to bottom and counts
// rising edges of pred: every transition from a non-matching to a matching
// pixel is one pulse. A strip that starts inside a pulse counts it.
func CountPulses(img *image.RGBA, x, y0, y1 int, pred PixelFunc) int {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return 0
	}
	y0 = max(y0, b.Min.Y)
	y1 = min(y1, b.Max.Y)

	pulses := 0
	high := false
	for y := y0; y < y1; y++ {
		i := img.PixOffset(x, y)
		on := pred(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
		if on && !high {
			pulses++
		}
		high = on
	}
	return pulses
}

// Run is a maximal horizontal span of matching pixels, [X0, X1).
type Run struct {
	X0, X1 int
}

// Width returns the run length in pixels.
func (r Run) Width() int { return r.X1 - r.X0 }

// Runs returns the matching spans of row y between x0 and x1, left to right.
func Runs(img *image.RGBA, y, x0, x1 int, pred PixelFunc) []Run {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return nil
	}
	x0 = max(x0, b.Min.X)
	x1 = min(x1, b.Max.X)

	var runs []Run
	start := -1
	for x := x0; x < x1; x++ {
		i := img.PixOffset(x, y)
		on := pred(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
		switch {
		case on && start < 0:
			start = x
		case !on && start >= 0:
			runs = append(runs, Run{X0: start, X1: x})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, Run{X0: start, X1: x1})
	}
	return runs
}
