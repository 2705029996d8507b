package modules

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
	"testing/fstest"

	"bomb-vision/internal/assets"
	"bomb-vision/internal/decode"
	"bomb-vision/internal/lighting"
	"bomb-vision/internal/match"
	"bomb-vision/internal/overlay"
	"bomb-vision/internal/palette"
	"bomb-vision/internal/perception"

	"github.com/smartystreets/goconvey/convey"
	"golang.org/x/image/draw"
)

// scene paints reference colours as they would appear under a lighting state.
type scene struct {
	img   *image.RGBA
	light lighting.State
}

func newScene(bg color.RGBA, light lighting.State) *scene {
	s := &scene{img: image.NewRGBA(image.Rect(0, 0, perception.Size, perception.Size)), light: light}
	s.fill(s.img.Bounds(), bg)
	return s
}

func (s *scene) fill(r image.Rectangle, c color.RGBA) {
	draw.Draw(s.img, r, &image.Uniform{C: lighting.Uncorrect(c, s.light)}, image.Point{}, draw.Src)
}

func (s *scene) digit(l decode.SegmentLayout, d int, c color.RGBA) {
	c = lighting.Uncorrect(c, s.light)
	decode.DrawDigit(s.img, l, decode.EncodeDigit(d), c.R, c.G, c.B)
}

// text stamps the rendered ink of word centred in r, shrunk to fit when it
// is larger than r.
func (s *scene) text(tr *match.TextRecognizer, word string, r image.Rectangle, c color.RGBA) {
	m := tr.Mask(word)
	if m == nil {
		panic("word not in vocabulary: " + word)
	}
	r = r.Inset(2)
	mw, mh := m.Bounds().Dx(), m.Bounds().Dy()
	scale := math.Min(1, math.Min(float64(r.Dx())/float64(mw), float64(r.Dy())/float64(mh)))
	ink := m
	if scale < 1 {
		ink = image.NewGray(image.Rect(0, 0, max(1, int(float64(mw)*scale)), max(1, int(float64(mh)*scale))))
		draw.CatmullRom.Scale(ink, ink.Bounds(), m, m.Bounds(), draw.Src, nil)
	}
	w, h := ink.Bounds().Dx(), ink.Bounds().Dy()
	origin := r.Min.Add(image.Pt((r.Dx()-w)/2, (r.Dy()-h)/2))
	c = lighting.Uncorrect(c, s.light)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if ink.GrayAt(x, y).Y < 120 {
				s.img.SetRGBA(origin.X+x, origin.Y+y, c)
			}
		}
	}
}

// line paints a band of half-width half along the segment from a to b,
// which must run left to right.
func (s *scene) line(a, b image.Point, half int, c color.RGBA) {
	for x := a.X; x < b.X; x++ {
		y := a.Y + int(math.Round(float64((x-a.X)*(b.Y-a.Y))/float64(b.X-a.X)))
		s.fill(image.Rect(x, y-half, x+1, y+half+1), c)
	}
}

// glyph paints shape over r, with ink where the shape covers the pixel.
func (s *scene) glyph(r image.Rectangle, shape glyphShape, ink, bg color.RGBA) {
	s.fill(r, bg)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			u := (float64(x-r.Min.X) + 0.5) / float64(r.Dx())
			v := (float64(y-r.Min.Y) + 0.5) / float64(r.Dy())
			if shape(u, v) {
				s.fill(image.Rect(x, y, x+1, y+1), ink)
			}
		}
	}
}

// stagePulses lights n lamps on the stage strip.
func (s *scene) stagePulses(n int) {
	for i := 0; i < n; i++ {
		y := stageStrip.y0 + 10 + 30*i
		s.fill(image.Rect(stageStrip.x-4, y, stageStrip.x+4, y+12), palette.Green.RGB())
	}
}

// glyphShape reports whether normalized position (u, v) is inked.
type glyphShape func(u, v float64) bool

func near(a, b float64) bool { return math.Abs(a-b) < 0.1 }

// glyphs are simple stand-ins for the module symbol sets.
var glyphs = map[string]glyphShape{
	"bar":   func(u, v float64) bool { return near(u, 0.5) },
	"dash":  func(u, v float64) bool { return near(v, 0.5) },
	"box":   func(u, v float64) bool { return u < 0.12 || u > 0.88 || v < 0.12 || v > 0.88 },
	"dot":   func(u, v float64) bool { return (u-0.5)*(u-0.5)+(v-0.5)*(v-0.5) < 0.04 },
	"slash": func(u, v float64) bool { return math.Abs(u+v-1) < 0.12 },
	"tee":   func(u, v float64) bool { return v < 0.15 || near(u, 0.5) },
	"ell":   func(u, v float64) bool { return u < 0.15 || v > 0.85 },
	"plus":  func(u, v float64) bool { return near(u, 0.5) || near(v, 0.5) },
}

// symbolAssets builds a bundle holding one PNG per named glyph under dir.
func symbolAssets(t *testing.T, dir string, names []string, ink, bg color.RGBA) assets.Bundle {
	t.Helper()
	fsys := fstest.MapFS{}
	for _, name := range names {
		ref := &scene{img: image.NewRGBA(image.Rect(0, 0, match.DefaultTemplateSize, match.DefaultTemplateSize)), light: lighting.On}
		ref.glyph(ref.img.Bounds(), glyphs[name], ink, bg)
		var buf bytes.Buffer
		if err := png.Encode(&buf, ref.img); err != nil {
			t.Fatal(err)
		}
		fsys[dir+"/"+name+".png"] = &fstest.MapFile{Data: buf.Bytes()}
	}
	return assets.Bundle{Symbols: fsys}
}

var (
	faceplate = palette.Grey.RGB()
	black     = palette.Black.RGB()
	white     = palette.White.RGB()
)

func wiresScene(light lighting.State, colours []palette.Colour) *scene {
	s := newScene(faceplate, light)
	for slot := 0; slot < wireSlots; slot++ {
		y := wireY(slot)
		s.fill(image.Rect(wireLeftX, y-6, wireLeftX+12, y+6), white)
		s.fill(image.Rect(wireRightX, y-6, wireRightX+12, y+6), white)
		if slot < len(colours) {
			s.fill(image.Rect(wireLeftX+12, y-3, wireRightX, y+3), colours[slot].RGB())
		}
	}
	return s
}

func TestRegistry(t *testing.T) {
	convey.Convey("All registers every module kind exactly once", t, func() {
		seen := map[perception.Kind]int{}
		for _, r := range All(assets.Empty()) {
			seen[r.Kind()]++
			convey.So(r.Name(), convey.ShouldEqual, r.Kind().String())

			want := perception.Solvable
			switch r.Kind() {
			case perception.KindTimer:
				want = perception.Timer
			case perception.KindVentingGas, perception.KindCapacitorDischarge, perception.KindKnobs:
				want = perception.Needy
			}
			convey.So(r.FrameType(), convey.ShouldEqual, want)
		}
		for _, k := range perception.Kinds() {
			if k.IsWidget() {
				convey.So(seen[k], convey.ShouldEqual, 0)
				continue
			}
			convey.So(seen[k], convey.ShouldEqual, 1)
		}
	})
}

func TestWires(t *testing.T) {
	want := []palette.Colour{palette.White, palette.Black, palette.Blue, palette.White, palette.White, palette.Red}

	convey.Convey("Given six wires", t, func() {
		for _, light := range []lighting.State{lighting.On, lighting.Off} {
			s := wiresScene(light, want)

			convey.Convey("under "+light.String()+" the colours read top to bottom", func() {
				w := NewWires()
				convey.So(w.IsPresent(s.img, light), convey.ShouldAlmostEqual, 1.0)
				res, err := w.Process(s.img, light, overlay.New())
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.(WiresResult).Colours, convey.ShouldResemble, want)
			})
		}

		convey.Convey("the engine selects the wires reader", func() {
			s := wiresScene(lighting.On, want)
			e := perception.NewEngine(All(assets.Empty()), nil)
			r, _, err := e.ClassifyRectified(s.img, lighting.On)
			convey.So(err, convey.ShouldBeNil)
			convey.So(r.Kind(), convey.ShouldEqual, perception.KindWires)
		})
	})

	convey.Convey("Fewer than three wires is not a wires module", t, func() {
		s := wiresScene(lighting.On, want[:2])
		convey.So(NewWires().IsPresent(s.img, lighting.On), convey.ShouldEqual, 0)
	})
}

func timerScene(light lighting.State, digits [4]int, colon bool, c color.RGBA) *scene {
	s := newScene(faceplate, light)
	s.fill(perception.TimerBand, black)
	s.fill(perception.StrikeBand, black)
	for i, l := range timerDigits {
		s.digit(l, digits[i], c)
	}
	if colon {
		s.fill(timerColon[0], c)
		s.fill(timerColon[1], c)
	} else {
		s.fill(timerPoint, c)
	}
	return s
}

func TestTimer(t *testing.T) {
	convey.Convey("Given a timer frame", t, func() {
		convey.Convey("seconds and hundredths under Emergency in Time mode", func() {
			s := timerScene(lighting.Emergency, [4]int{1, 4, 6, 0}, false, palette.Orange.RGB())
			convey.So(perception.ClassifyFrame(s.img, lighting.Emergency), convey.ShouldEqual, perception.Timer)

			res, err := NewTimer().Process(s.img, lighting.Emergency, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res, convey.ShouldResemble, TimerResult{Mode: ModeTime, Seconds: 14, Hundredths: 60})
		})

		convey.Convey("minutes and seconds with strikes in Normal mode", func() {
			s := timerScene(lighting.On, [4]int{0, 3, 2, 5}, true, palette.Red.RGB())
			s.fill(strikeCells[0].Inset(6), palette.Red.RGB())

			res, err := NewTimer().Process(s.img, lighting.On, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res, convey.ShouldResemble, TimerResult{Mode: ModeNormal, Seconds: 205, Strikes: 1})
		})

		convey.Convey("blue digits are Zen mode", func() {
			s := timerScene(lighting.On, [4]int{5, 9, 0, 0}, true, palette.Blue.RGB())
			res, err := NewTimer().Process(s.img, lighting.On, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.(TimerResult).Mode, convey.ShouldEqual, ModeZen)
		})

		convey.Convey("a missing separator is an error", func() {
			s := timerScene(lighting.On, [4]int{1, 2, 3, 4}, true, palette.Red.RGB())
			s.fill(timerColon[0], black)
			_, err := NewTimer().Process(s.img, lighting.On, nil)
			convey.So(errors.Is(err, decode.ErrUnrecognizedSegments), convey.ShouldBeTrue)
		})
	})
}

func TestSimonSays(t *testing.T) {
	dim := map[palette.Colour]color.RGBA{
		palette.Red:    {R: 120, G: 20, B: 20, A: 255},
		palette.Blue:   {R: 20, G: 30, B: 120, A: 255},
		palette.Green:  {R: 20, G: 110, B: 30, A: 255},
		palette.Yellow: {R: 130, G: 120, B: 20, A: 255},
	}
	pads := func(lit palette.Colour) *scene {
		s := newScene(faceplate, lighting.On)
		for _, p := range simonPads {
			c := dim[p.colour]
			if p.colour == lit {
				c = color.RGBA{R: 60, G: 100, B: 255, A: 255}
			}
			s.fill(p.rect, c)
		}
		return s
	}

	convey.Convey("Given the four Simon pads", t, func() {
		ss := NewSimonSays()

		convey.Convey("the flashing pad is reported", func() {
			s := pads(palette.Blue)
			convey.So(ss.IsPresent(s.img, lighting.On), convey.ShouldAlmostEqual, 1.0)
			res, err := ss.Process(s.img, lighting.On, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.(SimonResult).Lit, convey.ShouldEqual, palette.Blue)
		})

		convey.Convey("between flashes nothing is lit", func() {
			res, err := ss.Process(pads(palette.None).img, lighting.On, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.(SimonResult).Lit, convey.ShouldEqual, palette.None)
		})
	})
}

func switchesScene(light lighting.State, up, target [switchCount]bool) *scene {
	s := newScene(faceplate, light)
	for i, l := range switchLayouts {
		s.fill(l.upper.Union(l.lower), black)
		if up[i] {
			s.fill(l.upper, white)
		} else {
			s.fill(l.lower, white)
		}
		if target[i] {
			s.fill(l.upLED, palette.Green.RGB())
		} else {
			s.fill(l.downLED, palette.Green.RGB())
		}
	}
	return s
}

func TestSwitches(t *testing.T) {
	convey.Convey("Switch positions and target LEDs read left to right", t, func() {
		up := [switchCount]bool{true, false, true, true, false}
		target := [switchCount]bool{false, false, true, false, true}
		s := switchesScene(lighting.On, up, target)

		sw := NewSwitches()
		convey.So(sw.IsPresent(s.img, lighting.On), convey.ShouldAlmostEqual, 1.0)
		res, err := sw.Process(s.img, lighting.On, nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(res, convey.ShouldResemble, SwitchesResult{Up: up, Target: target})
		convey.So(res.String(), convey.ShouldEqual, "10110 -> 00101")
	})
}

func TestColouredSquares(t *testing.T) {
	convey.Convey("Each cell reports its colour and unlit cells read black", t, func() {
		cycle := []palette.Colour{palette.Red, palette.Blue, palette.Green, palette.Yellow, palette.Magenta, palette.White, palette.Black}
		s := newScene(black, lighting.On)
		var want [16]palette.Colour
		for i, cell := range squareCells {
			want[i] = cycle[i%len(cycle)]
			s.fill(cell, want[i].RGB())
		}

		cs := NewColouredSquares()
		convey.So(cs.IsPresent(s.img, lighting.On), convey.ShouldBeGreaterThan, 0.8)
		res, err := cs.Process(s.img, lighting.On, nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(res.(SquaresResult).Cells, convey.ShouldResemble, want)
	})

	convey.Convey("Cells carrying symbols do not count as lit squares", t, func() {
		s := newScene(black, lighting.On)
		for _, cell := range squareCells {
			s.fill(cell, palette.Red.RGB())
			for y := cell.Min.Y; y < cell.Max.Y; y += 4 {
				s.fill(image.Rect(cell.Min.X, y, cell.Max.X, y+2), white)
			}
		}
		convey.So(NewColouredSquares().IsPresent(s.img, lighting.On), convey.ShouldBeLessThanOrEqualTo, 0.5)
	})
}

func TestMorseCode(t *testing.T) {
	convey.Convey("The frequency display and the lamp are read", t, func() {
		s := newScene(faceplate, lighting.On)
		s.fill(morseDisplay, black)
		for i, d := range []int{5, 4, 5} {
			s.digit(morseDigits[i], d, palette.Red.RGB())
		}
		s.fill(morseTransmit, white)
		s.fill(morseLamp, palette.Orange.RGB())

		m := NewMorseCode()
		convey.So(m.IsPresent(s.img, lighting.On), convey.ShouldAlmostEqual, 1.0)
		res, err := m.Process(s.img, lighting.On, nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(res, convey.ShouldResemble, MorseResult{Lit: true, Frequency: 3545})
		convey.So(res.String(), convey.ShouldEqual, "lamp on, 3.545 MHz")
	})
}

func mazeScene(light lighting.State) *scene {
	s := newScene(faceplate, light)
	s.fill(mazeArea, black)
	for _, a := range mazeArrows {
		s.fill(a, white)
	}
	s.fill(mazeCellRect(0, 1), palette.Green.RGB())
	s.fill(mazeCellRect(5, 2), palette.Green.RGB())
	s.fill(mazeCellRect(3, 3), white)
	s.fill(mazeCellRect(1, 5), palette.Red.RGB())
	return s
}

func TestMaze(t *testing.T) {
	convey.Convey("Given a maze frame", t, func() {
		s := mazeScene(lighting.On)

		convey.Convey("it is a solvable frame, not a timer", func() {
			convey.So(perception.ClassifyFrame(s.img, lighting.On), convey.ShouldEqual, perception.Solvable)
		})

		convey.Convey("markers, start and goal are located by cell", func() {
			res, err := NewMaze().Process(s.img, lighting.On, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res, convey.ShouldResemble, MazeResult{
				Markers: []image.Point{{0, 1}, {5, 2}},
				Start:   image.Pt(3, 3),
				Goal:    image.Pt(1, 5),
			})
		})

		convey.Convey("a missing goal is reported", func() {
			s.fill(mazeCellRect(1, 5), black)
			_, err := NewMaze().Process(s.img, lighting.On, nil)
			convey.So(err, convey.ShouldEqual, ErrMazeIncomplete)
		})
	})
}

func TestSemaphoreDirections(t *testing.T) {
	cases := []struct {
		name string
		x, y float64
		want Direction
	}{
		{"straight up", 128, 60, 0},
		{"right", 220, 150, 2},
		{"down left", 60, 218, 5},
		{"up left", 60, 82, 7},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := directionOf(c.x, c.y); got != c.want {
				t.Errorf("directionOf(%v, %v) = %v, want %v", c.x, c.y, got, c.want)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	convey.Convey("Five letters are read from the LCD windows", t, func() {
		p := NewPassword(assets.Empty())
		tr, err := p.text.Get()
		convey.So(err, convey.ShouldBeNil)

		s := newScene(faceplate, lighting.On)
		for i, w := range passwordWindows {
			s.fill(w, palette.Green.RGB())
			m := tr.Mask(string("HOUSE"[i]))
			convey.So(m, convey.ShouldNotBeNil)
			origin := w.Min.Add(image.Pt(3, 12))
			for y := 0; y < m.Bounds().Dy(); y++ {
				for x := 0; x < m.Bounds().Dx(); x++ {
					if m.GrayAt(x, y).Y < 120 {
						s.img.Set(origin.X+x, origin.Y+y, black)
					}
				}
			}
		}

		convey.So(p.IsPresent(s.img, lighting.On), convey.ShouldAlmostEqual, 1.0)
		res, err := p.Process(s.img, lighting.On, nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(res.String(), convey.ShouldEqual, "HOUSE")
	})
}

func TestUnreadableFaceplates(t *testing.T) {
	blank := func() *scene { return newScene(faceplate, lighting.On) }
	bothLit := blank()
	bothLit.fill(simonPads[0].rect, white)
	bothLit.fill(simonPads[1].rect, white)
	darkClock := blank()
	darkClock.fill(perception.TimerBand, black)
	darkClock.fill(perception.StrikeBand, black)

	cases := []struct {
		name   string
		reader perception.Reader
		s      *scene
	}{
		{"a maze without start or goal", NewMaze(), blank()},
		{"a signaller without flags", NewSemaphore(), blank()},
		{"switches without target LEDs", NewSwitches(), blank()},
		{"a clock without digits", NewTimer(), darkClock},
		{"a button without a cap", NewButton(assets.Empty()), blank()},
		{"a square button without a cap", NewSquareButton(assets.Empty()), blank()},
		{"two Simon pads lit at once", NewSimonSays(), bothLit},
	}
	convey.Convey("Faceplates missing a required element are decode errors", t, func() {
		for _, c := range cases {
			convey.Convey(c.name, func() {
				_, err := c.reader.Process(c.s.img, lighting.On, nil)
				convey.So(errors.Is(err, decode.ErrUnreadable), convey.ShouldBeTrue)
				convey.So(perception.KindOf(err), convey.ShouldEqual, perception.DecodeError)
			})
		}
	})
}

func TestReadingsHoldUnderEveryLighting(t *testing.T) {
	memory := NewMemory(assets.Empty())
	digits, err := memory.digits.Get()
	if err != nil {
		t.Fatal(err)
	}
	button := NewButton(assets.Empty())
	labels, err := button.text.Get()
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		reader perception.Reader
		build  func(lighting.State) *scene
	}{
		{NewWires(), func(l lighting.State) *scene {
			return wiresScene(l, []palette.Colour{palette.Red, palette.Yellow, palette.Black, palette.White})
		}},
		{NewSwitches(), func(l lighting.State) *scene {
			return switchesScene(l, [switchCount]bool{false, true, true, false, false}, [switchCount]bool{true, true, false, false, true})
		}},
		{NewMaze(), mazeScene},
		{NewComplicatedWires(), complicatedWiresScene},
		{NewKnobs(), knobsScene},
		{memory, func(l lighting.State) *scene { return memoryScene(l, digits) }},
		{button, func(l lighting.State) *scene { return buttonScene(l, false, palette.Red, labels, "HOLD", palette.Blue) }},
	}
	for _, c := range cases {
		convey.Convey(c.reader.Name()+" reads the same under every lighting state", t, func() {
			want, err := c.reader.Process(c.build(lighting.On).img, lighting.On, nil)
			convey.So(err, convey.ShouldBeNil)
			for _, light := range lighting.States {
				s := c.build(light)
				convey.So(c.reader.IsPresent(s.img, light), convey.ShouldBeGreaterThan, 0.5)
				got, err := c.reader.Process(s.img, light, nil)
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldResemble, want)
			}
		})
	}
}
