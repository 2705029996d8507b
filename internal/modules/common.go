// Package modules is the catalog of module readers. Every reader works on a
// perception.Size square and addresses it with fixed coordinates.
package modules

import (
	"fmt"
	"image"

	"bomb-vision/internal/assets"
	"bomb-vision/internal/decode"
	"bomb-vision/internal/lighting"
	"bomb-vision/internal/match"
	"bomb-vision/internal/overlay"
	"bomb-vision/internal/palette"
	"bomb-vision/internal/perception"
	"bomb-vision/pkg/colorutil"
)

type base struct {
	kind  perception.Kind
	frame perception.FrameType
}

func (b base) Kind() perception.Kind           { return b.kind }
func (b base) Name() string                    { return b.kind.String() }
func (b base) FrameType() perception.FrameType { return b.frame }

func solvable(k perception.Kind) base { return base{kind: k, frame: perception.Solvable} }
func needy(k perception.Kind) base    { return base{kind: k, frame: perception.Needy} }

type (
	lazyText      = match.Lazy[*match.TextRecognizer]
	lazyTemplates = match.Lazy[*match.TemplateClassifier]
)

// Text sizes in pixels for the two kinds of rendered vocabulary.
const (
	wordSize = 40
	charSize = 32
)

func newLazyText(font []byte, size float64, vocab []string) *lazyText {
	return match.NewLazy(func() (*match.TextRecognizer, error) {
		opts := match.DefaultTextOptions()
		opts.Font = font
		opts.Size = size
		return match.NewTextRecognizer(vocab, opts)
	})
}

func newLazyTemplates(b assets.Bundle, dir string) *lazyTemplates {
	return match.NewLazy(func() (*match.TemplateClassifier, error) {
		if b.Symbols == nil {
			return nil, fmt.Errorf("%w: %s", match.ErrNoTemplates, dir)
		}
		return match.LoadTemplates(b.Symbols, dir, match.DefaultTemplateSize)
	})
}

// keyFace matches the off-white plastic of keys and labels.
func keyFace(light lighting.State) decode.PixelFunc {
	return palette.Is(palette.White, light)
}

// inkOnKey matches dark print on a key.
func inkOnKey(light lighting.State) decode.PixelFunc {
	return func(r, g, b uint8) bool {
		r, g, b = lighting.CorrectRGB(r, g, b, light)
		return colorutil.Luma(r, g, b) < 100
	}
}

// litInk matches bright characters on a dark display.
func litInk(light lighting.State) decode.PixelFunc {
	return func(r, g, b uint8) bool {
		r, g, b = lighting.CorrectRGB(r, g, b, light)
		return colorutil.Luma(r, g, b) > 140
	}
}

// ledRed lights red seven-segment bars after correction.
func ledRed(light lighting.State) decode.LitFunc {
	return func(r, g, b uint8) bool {
		r, g, _ = lighting.CorrectRGB(r, g, b, light)
		return r >= 128 && g < 100
	}
}

// share returns the fraction of true conditions.
func share(conds ...bool) float64 {
	if len(conds) == 0 {
		return 0
	}
	n := 0
	for _, c := range conds {
		if c {
			n++
		}
	}
	return float64(n) / float64(len(conds))
}

// grid returns cols x rows cells of size w x h starting at (x, y) with the
// given pitch, row-major.
func grid(x, y, w, h, pitchX, pitchY, cols, rows int) []image.Rectangle {
	out := make([]image.Rectangle, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x0, y0 := x+c*pitchX, y+r*pitchY
			out = append(out, image.Rect(x0, y0, x0+w, y0+h))
		}
	}
	return out
}

// keysPresent counts keys whose face covers at least half of the rect.
func keysPresent(img *image.RGBA, keys []image.Rectangle, light lighting.State) int {
	n := 0
	for _, k := range keys {
		if decode.AtLeast(img, k, keyFace(light), 0.5) {
			n++
		}
	}
	return n
}

// readKeyLabels recognizes the dark print of every key.
func readKeyLabels(img *image.RGBA, keys []image.Rectangle, light lighting.State, tr *match.TextRecognizer, dbg *overlay.Canvas) ([]string, error) {
	out := make([]string, len(keys))
	for i, k := range keys {
		dbg.Rect(k, colorutil.Cyan)
		text, ok, err := tr.RecognizeInk(img, k.Inset(3), inkOnKey(light))
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		if ok {
			out[i] = text
		}
	}
	return out, nil
}

// classifySymbols runs the template classifier on every key.
func classifySymbols(img *image.RGBA, keys []image.Rectangle, light lighting.State, tc *match.TemplateClassifier, dbg *overlay.Canvas) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		inner := k.Inset(4)
		label, _ := tc.Classify(img, inner)
		out[i] = label
		dbg.Rect(inner, colorutil.Cyan)
		dbg.Label(inner.Min, label, colorutil.Yellow)
	}
	return out
}

// stageStrip is the column of green stage lamps on the right of some modules.
var stageStrip = struct {
	x, y0, y1 int
}{x: 234, y0: 60, y1: 232}

func readStage(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) int {
	dbg.Line(image.Pt(stageStrip.x, stageStrip.y0), image.Pt(stageStrip.x, stageStrip.y1), colorutil.Green)
	return decode.CountPulses(img, stageStrip.x, stageStrip.y0, stageStrip.y1, palette.Is(palette.Green, light))
}

// needyCountdown is the two-digit timer at the top of every needy module.
var needyCountdown = []decode.SegmentLayout{
	decode.NewSegmentLayout(104, 24, 20, 36, 4),
	decode.NewSegmentLayout(132, 24, 20, 36, 4),
}

// Countdown is the needy timer; Shown is false while the module sleeps.
type Countdown struct {
	Seconds int
	Shown   bool
}

func (c Countdown) String() string {
	if !c.Shown {
		return "--"
	}
	return fmt.Sprintf("%02d", c.Seconds)
}

func readCountdown(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (Countdown, error) {
	for _, l := range needyCountdown {
		for _, bar := range l {
			dbg.Rect(bar, colorutil.Red)
		}
	}
	n, ok, err := decode.ReadNumber(img, needyCountdown, ledRed(light))
	if err != nil {
		return Countdown{}, fmt.Errorf("countdown: %w", err)
	}
	return Countdown{Seconds: n, Shown: ok}, nil
}

// countdownHousing is the dark window behind the needy countdown.
var countdownHousing = image.Rect(100, 20, 156, 64)
