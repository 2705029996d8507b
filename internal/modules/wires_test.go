package modules

import (
	"image"
	"testing"

	"bomb-vision/internal/lighting"
	"bomb-vision/internal/palette"

	"github.com/smartystreets/goconvey/convey"
)

// wireSequenceScene wires 1 to A in red and 2 to C in black along their
// exact paths. Wire 3 runs to C in blue two pixels off its path, so only
// the loose pass finds it.
func wireSequenceScene(light lighting.State) *scene {
	s := newScene(faceplate, light)
	for _, t := range seqTerminals() {
		s.fill(t, white)
	}
	s.line(image.Pt(seqFromX, seqTerminalY[0]), image.Pt(seqToX, seqTerminalY[0]), 2, palette.Red.RGB())
	s.line(image.Pt(seqFromX, seqTerminalY[1]), image.Pt(seqToX, seqTerminalY[2]), 2, black)
	s.fill(image.Rect(seqFromX, seqTerminalY[2]+2, seqToX, seqTerminalY[2]+4), palette.Blue.RGB())
	s.stagePulses(2)
	return s
}

func TestWireSequence(t *testing.T) {
	convey.Convey("Given a wire sequence panel", t, func() {
		ws := NewWireSequence()
		s := wireSequenceScene(lighting.On)
		convey.So(ws.IsPresent(s.img, lighting.On), convey.ShouldAlmostEqual, 1.0)

		convey.Convey("exact paths and an offset wire are all found", func() {
			res, err := ws.Process(s.img, lighting.On, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res, convey.ShouldResemble, WireSequenceResult{
				Stage: 2,
				Wires: []SeqWire{
					{From: 1, To: 'A', Colour: palette.Red},
					{From: 2, To: 'C', Colour: palette.Black},
					{From: 3, To: 'C', Colour: palette.Blue},
				},
			})
		})

		convey.Convey("the offset wire fails the exact path and passes the loose one", func() {
			_, strict := pathScore(s.img, 2, 2, 0, lighting.On)
			c, loose := pathScore(s.img, 2, 2, 2, lighting.On)
			convey.So(strict, convey.ShouldBeLessThan, seqStrict)
			convey.So(loose, convey.ShouldBeGreaterThanOrEqualTo, seqLoose)
			convey.So(c, convey.ShouldEqual, palette.Blue)
		})

		convey.Convey("a panel missing two terminals is not a wire sequence", func() {
			ts := seqTerminals()
			s.fill(ts[0], faceplate)
			s.fill(ts[1], faceplate)
			convey.So(ws.IsPresent(s.img, lighting.On), convey.ShouldEqual, 0)
		})
	})
}

// complicatedWiresScene fills the six slots with, left to right: a white
// wire under a lit LED, a red and blue striped wire, nothing, a blue wire
// with a star, a red wire with LED and star, and a plain white wire.
func complicatedWiresScene(light lighting.State) *scene {
	s := newScene(faceplate, light)
	wire := func(slot int, top, bottom palette.Colour) {
		x := cwireX(slot)
		s.fill(image.Rect(x-3, 60, x+3, 102), top.RGB())
		s.fill(image.Rect(x-3, 102, x+3, 170), bottom.RGB())
	}
	led := func(slot int) {
		x := cwireX(slot)
		s.fill(image.Rect(x-6, 28, x+6, 40), white)
	}
	star := func(slot int) {
		c := cwireLabel(slot).Min.Add(image.Pt(8, 12))
		s.fill(image.Rect(c.X, c.Y, c.X+8, c.Y+8), black)
	}
	for slot := 0; slot < cwireSlots; slot++ {
		s.fill(cwireLabel(slot), white)
	}
	wire(0, palette.White, palette.White)
	led(0)
	wire(1, palette.Red, palette.Blue)
	wire(3, palette.Blue, palette.Blue)
	star(3)
	wire(4, palette.Red, palette.Red)
	led(4)
	star(4)
	wire(5, palette.White, palette.White)
	return s
}

func TestComplicatedWires(t *testing.T) {
	convey.Convey("Each slot reports its wire colours, LED and star", t, func() {
		cw := NewComplicatedWires()
		s := complicatedWiresScene(lighting.On)
		convey.So(cw.IsPresent(s.img, lighting.On), convey.ShouldAlmostEqual, 1.0)

		res, err := cw.Process(s.img, lighting.On, nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(res, convey.ShouldResemble, ComplicatedWiresResult{Slots: [cwireSlots]CWire{
			{Present: true, Colours: []palette.Colour{palette.White}, LED: true},
			{Present: true, Colours: []palette.Colour{palette.Red, palette.Blue}},
			{},
			{Present: true, Colours: []palette.Colour{palette.Blue}, Star: true},
			{Present: true, Colours: []palette.Colour{palette.Red}, LED: true, Star: true},
			{Present: true, Colours: []palette.Colour{palette.White}},
		}})
		convey.So(res.String(), convey.ShouldEqual, "[White+led Red/Blue - Blue+star Red+led+star White]")
	})
}
