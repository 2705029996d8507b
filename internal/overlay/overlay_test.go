package overlay_test

import (
	"image"
	"image/color"
	"testing"

	"bomb-vision/internal/overlay"
	"bomb-vision/pkg/geometry"

	"github.com/smartystreets/goconvey/convey"
)

var red = color.RGBA{R: 255, A: 255}

func TestNilCanvas(t *testing.T) {
	var c *overlay.Canvas
	c.Rect(image.Rect(0, 0, 4, 4), red)
	c.Line(image.Pt(0, 0), image.Pt(3, 3), red)
	c.Point(image.Pt(1, 1), red)
	c.Label(image.Pt(1, 1), "x", red)
	if c.Len() != 0 || c.Annotations() != nil || c.Project(nil) != nil {
		t.Error("nil canvas must discard everything")
	}
}

func TestCanvas(t *testing.T) {
	convey.Convey("Given a canvas with one of each shape", t, func() {
		c := overlay.New()
		c.Rect(image.Rect(2, 2, 10, 8), red)
		c.Line(image.Pt(0, 15), image.Pt(15, 15), red)
		c.Point(image.Pt(12, 3), red)
		c.Label(image.Pt(1, 13), "ok", red)
		convey.So(c.Len(), convey.ShouldEqual, 4)

		convey.Convey("Render draws each shape over the dimmed base", func() {
			base := image.NewRGBA(image.Rect(0, 0, 16, 16))
			for i := range base.Pix {
				base.Pix[i] = 200
			}
			out := overlay.Render(base, c, overlay.DefaultRenderOptions())
			convey.So(out.RGBAAt(2, 2), convey.ShouldResemble, red)
			convey.So(out.RGBAAt(9, 7), convey.ShouldResemble, red)
			convey.So(out.RGBAAt(5, 15), convey.ShouldResemble, red)
			convey.So(out.RGBAAt(12, 3), convey.ShouldResemble, red)
			convey.So(out.RGBAAt(4, 4).R, convey.ShouldBeBetweenOrEqual, 139, 140)
			convey.So(base.RGBAAt(2, 2).R, convey.ShouldEqual, 200)
		})

		convey.Convey("Project turns rectangles into four lines", func() {
			shift := func(p geometry.Point2D) geometry.Point2D { return geometry.Point2D{X: p.X + 100, Y: p.Y + 50} }
			p := c.Project(shift)
			convey.So(p.Len(), convey.ShouldEqual, 7)
			first := p.Annotations()[0]
			convey.So(first.Shape, convey.ShouldEqual, overlay.ShapeLine)
			convey.So(first.From, convey.ShouldResemble, geometry.Point2D{X: 102, Y: 52})
			convey.So(first.To, convey.ShouldResemble, geometry.Point2D{X: 110, Y: 52})
			last := p.Annotations()[6]
			convey.So(last.Text, convey.ShouldEqual, "ok")
			convey.So(last.From, convey.ShouldResemble, geometry.Point2D{X: 101, Y: 63})
		})
	})
}
