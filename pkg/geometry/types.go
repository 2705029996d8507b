// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"fmt"
	"image"
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Lerp returns the point a fraction t of the way from p to other.
func (p Point2D) Lerp(other Point2D, t float64) Point2D {
	return Point2D{X: p.X + (other.X-p.X)*t, Y: p.Y + (other.Y-p.Y)*t}
}

// Round returns the nearest integer point.
func (p Point2D) Round() PointInt {
	return PointInt{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RectFromImage converts an image.Rectangle.
func RectFromImage(r image.Rectangle) RectInt {
	return RectInt{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Image converts to an image.Rectangle.
func (r RectInt) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r RectInt) String() string {
	return fmt.Sprintf("[%d,%d %dx%d]", r.X, r.Y, r.Width, r.Height)
}

// Corner indexes a quadrilateral vertex.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	default:
		return "unknown"
	}
}

// Quad is a screen-space quadrilateral.
// Points are ordered TL, TR, BL, BR; swapping any two flips the rectified image.
type Quad [4]Point2D

// NewQuad builds a Quad from its four corners.
func NewQuad(tl, tr, bl, br Point2D) Quad {
	return Quad{tl, tr, bl, br}
}

// QuadFromRect returns the axis-aligned quad whose corners are the first and
// last pixel centers of r.
func QuadFromRect(r RectInt) Quad {
	x0, y0 := float64(r.X), float64(r.Y)
	x1, y1 := float64(r.X+r.Width-1), float64(r.Y+r.Height-1)
	return Quad{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}}
}

// Bounds returns the integer bounding rectangle of the quad.
func (q Quad) Bounds() RectInt {
	minX, minY := q[0].X, q[0].Y
	maxX, maxY := minX, minY
	for _, p := range q[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	x0, y0 := int(math.Floor(minX)), int(math.Floor(minY))
	return RectInt{X: x0, Y: y0, Width: int(math.Ceil(maxX)) - x0 + 1, Height: int(math.Ceil(maxY)) - y0 + 1}
}

// Map returns the point at fractional position (u, v) inside the quad using
// bilinear interpolation of its edges: the left and right edges are
// interpolated by v, then the resulting row is interpolated by u.
func (q Quad) Map(u, v float64) Point2D {
	left := q[TopLeft].Lerp(q[BottomLeft], v)
	right := q[TopRight].Lerp(q[BottomRight], v)
	return left.Lerp(right, u)
}

func (q Quad) String() string {
	return fmt.Sprintf("TL%s TR%s BL%s BR%s", q[0], q[1], q[2], q[3])
}
