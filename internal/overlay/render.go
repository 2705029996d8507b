package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RenderOptions configures rasterisation.
type RenderOptions struct {
	LineWidth   int // Stroke width for rects and lines
	PointRadius int // Radius of point markers
	Dim         float64
}

// DefaultRenderOptions returns default rendering options.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		LineWidth:   1,
		PointRadius: 2,
		Dim:         0.3,
	}
}

// Render draws the canvas over a dimmed copy of base.
func Render(base image.Image, c *Canvas, opts RenderOptions) *image.RGBA {
	b := base.Bounds()
	img := image.NewRGBA(b)
	draw.Draw(img, b, base, b.Min, draw.Src)
	if opts.Dim > 0 {
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i] = uint8(float64(img.Pix[i]) * (1 - opts.Dim))
			img.Pix[i+1] = uint8(float64(img.Pix[i+1]) * (1 - opts.Dim))
			img.Pix[i+2] = uint8(float64(img.Pix[i+2]) * (1 - opts.Dim))
		}
	}

	for _, a := range c.Annotations() {
		switch a.Shape {
		case ShapeRect:
			x1, y1 := int(a.From.X), int(a.From.Y)
			x2, y2 := int(a.To.X)-1, int(a.To.Y)-1
			for w := 0; w < opts.LineWidth; w++ {
				drawRect(img, x1+w, y1+w, x2-w, y2-w, a.Color)
			}
		case ShapeLine:
			p, q := a.From.Round(), a.To.Round()
			drawThickLine(img, p.X, p.Y, q.X, q.Y, opts.LineWidth, a.Color)
		case ShapePoint:
			p := a.From.Round()
			fillCircle(img, p.X, p.Y, opts.PointRadius, a.Color)
		case ShapeLabel:
			p := a.From.Round()
			d := font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(a.Color),
				Face: basicfont.Face7x13,
				Dot:  fixed.P(p.X, p.Y),
			}
			d.DrawString(a.Text)
		}
	}
	return img
}

func set(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Rect) {
		img.SetRGBA(x, y, c)
	}
}

// fillCircle fills a circle with the given color.
func fillCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				set(img, x, y, c)
			}
		}
	}
}

// drawThickLine strokes parallel Bresenham lines across the width.
func drawThickLine(img *image.RGBA, x1, y1, x2, y2, width int, c color.RGBA) {
	if width <= 1 {
		drawLine(img, x1, y1, x2, y2, c)
		return
	}
	horizontal := abs(x2-x1) >= abs(y2-y1)
	for t := -width / 2; t < width-width/2; t++ {
		if horizontal {
			drawLine(img, x1, y1+t, x2, y2+t, c)
		} else {
			drawLine(img, x1+t, y1, x2+t, y2, c)
		}
	}
}

// drawLine draws a line using Bresenham's algorithm.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		set(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawRect draws a rectangle outline with inclusive corners.
func drawRect(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	for x := x1; x <= x2; x++ {
		set(img, x, y1, c)
		set(img, x, y2, c)
	}
	for y := y1; y <= y2; y++ {
		set(img, x1, y, c)
		set(img, x2, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
