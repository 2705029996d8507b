package perception_test

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"testing"
	"time"

	"bomb-vision/internal/calibrate"
	"bomb-vision/internal/decode"
	bombimage "bomb-vision/internal/image"
	"bomb-vision/internal/lighting"
	"bomb-vision/internal/match"
	"bomb-vision/internal/overlay"
	"bomb-vision/internal/palette"
	"bomb-vision/internal/perception"
	"bomb-vision/pkg/geometry"

	"github.com/smartystreets/goconvey/convey"
)

type stubResult string

func (s stubResult) String() string { return string(s) }

type stub struct {
	kind       perception.Kind
	frame      perception.FrameType
	confidence float64
	err        error
}

func (s stub) Kind() perception.Kind                         { return s.kind }
func (s stub) Name() string                                  { return s.kind.String() }
func (s stub) FrameType() perception.FrameType               { return s.frame }
func (s stub) IsPresent(*image.RGBA, lighting.State) float64 { return s.confidence }
func (s stub) Process(_ *image.RGBA, _ lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	dbg.Rect(image.Rect(10, 10, 20, 20), palette.Red.RGB())
	if s.err != nil {
		return nil, s.err
	}
	return stubResult(s.Name()), nil
}

type recorder struct {
	mu     sync.Mutex
	blanks int
	picks  []string
	reads  []error
}

func (r *recorder) ObserveBlank() { r.mu.Lock(); r.blanks++; r.mu.Unlock() }
func (r *recorder) ObserveClassification(reader string, _ float64) {
	r.mu.Lock()
	r.picks = append(r.picks, reader)
	r.mu.Unlock()
}
func (r *recorder) ObserveRead(_ string, _ time.Duration, err error) {
	r.mu.Lock()
	r.reads = append(r.reads, err)
	r.mu.Unlock()
}

func frame(c palette.Colour) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, perception.Size, perception.Size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c.RGB()}, image.Point{}, draw.Src)
	return img
}

func paint(img *image.RGBA, r image.Rectangle, c palette.Colour) {
	draw.Draw(img, r, &image.Uniform{C: c.RGB()}, image.Point{}, draw.Src)
}

func shot(img *image.RGBA) (*bombimage.Screenshot, geometry.Quad) {
	return &bombimage.Screenshot{Image: img, Lighting: lighting.On},
		geometry.QuadFromRect(geometry.RectFromImage(img.Bounds()))
}

func TestClassify(t *testing.T) {
	convey.Convey("Given an engine with stub readers", t, func() {
		rec := &recorder{}
		modules := []perception.Reader{
			stub{kind: perception.KindWires, frame: perception.Solvable, confidence: 0.4},
			stub{kind: perception.KindKeypad, frame: perception.Solvable, confidence: 0.9},
			stub{kind: perception.KindMaze, frame: perception.Solvable, confidence: 0.9},
			stub{kind: perception.KindKnobs, frame: perception.Needy, confidence: 5},
			stub{kind: perception.KindTimer, frame: perception.Timer, confidence: -1},
		}
		e := perception.NewEngine(modules, nil, perception.WithObserver(rec), perception.WithInterpolation(calibrate.NearestNeighbour))

		convey.Convey("A solvable frame only scores solvable readers, first registered wins ties", func() {
			r, conf, err := e.Classify(shot(frame(palette.Grey)))
			convey.So(err, convey.ShouldBeNil)
			convey.So(r.Kind(), convey.ShouldEqual, perception.KindKeypad)
			convey.So(conf, convey.ShouldEqual, 0.9)
			convey.So(rec.picks, convey.ShouldResemble, []string{"Keypad"})
		})

		convey.Convey("The needy stripe selects needy readers", func() {
			img := frame(palette.Grey)
			paint(img, perception.NeedyStripe, palette.Yellow)
			r, _, err := e.Classify(shot(img))
			convey.So(err, convey.ShouldBeNil)
			convey.So(r.Kind(), convey.ShouldEqual, perception.KindKnobs)
		})

		convey.Convey("A dark clock band selects the timer even with a negative score", func() {
			img := frame(palette.Grey)
			paint(img, perception.TimerBand, palette.Black)
			paint(img, perception.StrikeBand, palette.Black)
			r, conf, err := e.Classify(shot(img))
			convey.So(err, convey.ShouldBeNil)
			convey.So(r.Kind(), convey.ShouldEqual, perception.KindTimer)
			convey.So(conf, convey.ShouldEqual, -1)
		})

		convey.Convey("One large dark area is not a clock", func() {
			img := frame(palette.Grey)
			paint(img, image.Rect(32, 30, 224, 164), palette.Black)
			r, _, err := e.Classify(shot(img))
			convey.So(err, convey.ShouldBeNil)
			convey.So(r.Kind(), convey.ShouldEqual, perception.KindKeypad)
		})

		convey.Convey("A blank slot selects nothing", func() {
			r, _, err := e.Classify(shot(frame(palette.Orange)))
			convey.So(err, convey.ShouldBeNil)
			convey.So(r, convey.ShouldBeNil)
			convey.So(rec.blanks, convey.ShouldEqual, 1)
		})

		convey.Convey("A quad off the screenshot is a geometry error", func() {
			s, _ := shot(frame(palette.Grey))
			q := geometry.QuadFromRect(geometry.RectInt{X: 1000, Y: 1000, Width: 50, Height: 50})
			_, _, err := e.Classify(s, q)
			convey.So(errors.Is(err, perception.ErrBadQuad), convey.ShouldBeTrue)
			convey.So(perception.KindOf(err), convey.ShouldEqual, perception.GeometryError)
		})
	})
}

func TestIsBlankIsMonotonic(t *testing.T) {
	img := frame(palette.Grey)
	flips := 0
	prev := perception.IsBlank(img, lighting.On)
	for y := 0; y < perception.Size; y++ {
		paint(img, image.Rect(0, y, perception.Size, y+1), palette.Orange)
		now := perception.IsBlank(img, lighting.On)
		if now != prev {
			flips++
			if y != perception.Size/2-1 {
				t.Errorf("flipped after %d rows", y+1)
			}
		}
		prev = now
	}
	if flips != 1 || !prev {
		t.Errorf("flips = %d, final = %v; want one flip to blank", flips, prev)
	}
}

func TestClassifyWidget(t *testing.T) {
	for _, tc := range []struct {
		confidence float64
		want       bool
	}{
		{0.2, false},
		{0.25, true},
		{0.7, true},
	} {
		e := perception.NewEngine(nil, []perception.Reader{
			stub{kind: perception.KindBatteries, frame: perception.Widget, confidence: tc.confidence},
		})
		r, _, err := e.ClassifyWidget(shot(frame(palette.Orange)))
		if err != nil {
			t.Fatal(err)
		}
		if got := r != nil; got != tc.want {
			t.Errorf("confidence %.2f: accepted = %v, want %v", tc.confidence, got, tc.want)
		}
	}
}

func TestRead(t *testing.T) {
	convey.Convey("Given readers that succeed and fail", t, func() {
		rec := &recorder{}
		e := perception.NewEngine(nil, nil, perception.WithObserver(rec))
		s, q := shot(frame(palette.Grey))

		convey.Convey("A successful read returns the result and fills the overlay", func() {
			dbg := overlay.New()
			res, err := e.Read(s, q, stub{kind: perception.KindWires}, dbg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.String(), convey.ShouldEqual, "Wires")
			convey.So(dbg.Len(), convey.ShouldEqual, 1)
			convey.So(rec.reads, convey.ShouldResemble, []error{nil})

			screen := e.ScreenOverlay(q, dbg)
			convey.So(screen.Len(), convey.ShouldEqual, 4)
		})

		convey.Convey("Decode failures keep their kind through wrapping", func() {
			failing := stub{kind: perception.KindMemory, err: fmt.Errorf("display: %w", decode.ErrUnrecognizedSegments)}
			_, err := e.Read(s, q, failing, nil)
			convey.So(err.Error(), convey.ShouldStartWith, "Memory: ")
			convey.So(perception.KindOf(err), convey.ShouldEqual, perception.DecodeError)
			convey.So(len(rec.reads), convey.ShouldEqual, 1)
		})

		convey.Convey("Rectified input must have the canonical size", func() {
			_, err := e.ReadRectified(image.NewRGBA(image.Rect(0, 0, 10, 10)), lighting.On, stub{}, nil)
			convey.So(errors.Is(err, perception.ErrWrongSize), convey.ShouldBeTrue)
		})
	})
}

func TestModuleLightState(t *testing.T) {
	e := perception.NewEngine(nil, nil)
	for _, tc := range []struct {
		lamp palette.Colour
		want perception.LightState
	}{
		{palette.Black, perception.LightOff},
		{palette.Green, perception.LightSolved},
		{palette.Red, perception.LightStrike},
	} {
		img := frame(palette.Grey)
		paint(img, perception.StatusLight, tc.lamp)
		got, err := e.ModuleLightState(shot(img))
		if err != nil || got != tc.want {
			t.Errorf("%v lamp: got %v, %v; want %v", tc.lamp, got, err, tc.want)
		}
	}
}

func TestKinds(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range perception.Kinds() {
		name := k.String()
		if seen[name] {
			t.Errorf("duplicate name %s", name)
		}
		seen[name] = true
		got, err := perception.ParseKind(name)
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := perception.ParseKind("Bananas"); !errors.Is(err, perception.ErrUnknownReader) {
		t.Errorf("unknown name: %v", err)
	}
	if !perception.KindIndicator.IsWidget() || perception.KindTimer.IsWidget() {
		t.Error("widget family boundaries are wrong")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want perception.ErrorKind
	}{
		{nil, perception.NoError},
		{fmt.Errorf("x: %w", calibrate.ErrCornerNotFound), perception.GeometryError},
		{match.ErrNoCandidate, perception.DecodeError},
		{fmt.Errorf("load: %w", match.ErrBadAsset), perception.AssetError},
		{errors.New("boom"), perception.InternalError},
	}
	for _, tt := range tests {
		if got := perception.KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
