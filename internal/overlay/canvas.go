// Package overlay collects debug annotations drawn by readers and renders
// them onto an image. A nil *Canvas accepts and discards every call, so
// readers annotate unconditionally.
package overlay

import (
	"image"
	"image/color"

	"bomb-vision/pkg/geometry"
)

// Shape is the kind of an annotation.
type Shape int

const (
	ShapeRect Shape = iota
	ShapeLine
	ShapePoint
	ShapeLabel
)

// Annotation is one drawing command in the canvas coordinate space.
type Annotation struct {
	Shape Shape
	From  geometry.Point2D // Rect min, line start, point or label origin
	To    geometry.Point2D // Rect max (exclusive) or line end
	Text  string
	Color color.RGBA
}

// Canvas is an append-only list of annotations for one read call.
type Canvas struct {
	items []Annotation
}

// New returns an empty canvas.
func New() *Canvas {
	return &Canvas{}
}

func pt(p image.Point) geometry.Point2D {
	return geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// Rect outlines r.
func (c *Canvas) Rect(r image.Rectangle, col color.RGBA) {
	if c == nil {
		return
	}
	c.items = append(c.items, Annotation{Shape: ShapeRect, From: pt(r.Min), To: pt(r.Max), Color: col})
}

// Line draws a segment from a to b.
func (c *Canvas) Line(a, b image.Point, col color.RGBA) {
	if c == nil {
		return
	}
	c.items = append(c.items, Annotation{Shape: ShapeLine, From: pt(a), To: pt(b), Color: col})
}

// Point marks a single sample position.
func (c *Canvas) Point(p image.Point, col color.RGBA) {
	if c == nil {
		return
	}
	c.items = append(c.items, Annotation{Shape: ShapePoint, From: pt(p), Color: col})
}

// Label writes text with its baseline starting at p.
func (c *Canvas) Label(p image.Point, text string, col color.RGBA) {
	if c == nil {
		return
	}
	c.items = append(c.items, Annotation{Shape: ShapeLabel, From: pt(p), Text: text, Color: col})
}

// Annotations returns the recorded commands in drawing order.
func (c *Canvas) Annotations() []Annotation {
	if c == nil {
		return nil
	}
	return c.items
}

// Len returns the number of recorded commands.
func (c *Canvas) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Project maps every annotation through fn, typically the homography from
// rectified to screen coordinates. Rectangles become four lines because
// their image is a general quadrilateral.
func (c *Canvas) Project(fn func(geometry.Point2D) geometry.Point2D) *Canvas {
	if c == nil {
		return nil
	}
	out := New()
	for _, a := range c.items {
		if a.Shape != ShapeRect {
			a.From = fn(a.From)
			if a.Shape == ShapeLine {
				a.To = fn(a.To)
			}
			out.items = append(out.items, a)
			continue
		}
		corners := [4]geometry.Point2D{
			fn(a.From),
			fn(geometry.Point2D{X: a.To.X, Y: a.From.Y}),
			fn(a.To),
			fn(geometry.Point2D{X: a.From.X, Y: a.To.Y}),
		}
		for i := range corners {
			out.items = append(out.items, Annotation{
				Shape: ShapeLine,
				From:  corners[i],
				To:    corners[(i+1)%4],
				Color: a.Color,
			})
		}
	}
	return out
}
