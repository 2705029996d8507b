package modules

import (
	"fmt"
	"image"
	"math"

	"bomb-vision/internal/assets"
	"bomb-vision/internal/decode"
	"bomb-vision/internal/lighting"
	"bomb-vision/internal/overlay"
	"bomb-vision/internal/palette"
	"bomb-vision/internal/perception"
	"bomb-vision/pkg/colorutil"
)

// Both buttons share one centre. The round cap has radius buttonRadius; the
// square cap is twice that across.
var buttonCentre = image.Pt(112, 140)

const (
	buttonRadius = 72
	// Isolation scoring, tuned against captured frames: sample the cap
	// colour on an inner ring, penalize it on an outer ring and on the
	// diagonals that only a square cap reaches.
	isolationInner   = 50
	isolationOuter   = 90
	isolationDiag    = 82
	isolationPenalty = 1.5
	isolationSamples = 32
)

var (
	buttonStrip     = image.Rect(204, 96, 224, 216)
	buttonColourBox = image.Rect(84, 82, 140, 104)
	buttonLabel     = image.Rect(56, 122, 168, 158)
)

// ButtonResult is the cap colour, its label and the strip colour shown
// while the button is held (None when released).
type ButtonResult struct {
	Colour palette.Colour
	Label  string
	Strip  palette.Colour
}

func (r ButtonResult) String() string {
	return fmt.Sprintf("%v %q strip=%v", r.Colour, r.Label, r.Strip)
}

func ringShare(img *image.RGBA, radius float64, c palette.Colour, light lighting.State) float64 {
	n := 0
	for i := 0; i < isolationSamples; i++ {
		a := 2 * math.Pi * float64(i) / isolationSamples
		x := buttonCentre.X + int(math.Round(radius*math.Cos(a)))
		y := buttonCentre.Y + int(math.Round(radius*math.Sin(a)))
		if decode.AnyMatch(img, image.Rect(x, y, x+1, y+1), palette.Is(c, light)) {
			n++
		}
	}
	return float64(n) / isolationSamples
}

func diagonalShare(img *image.RGBA, c palette.Colour, light lighting.State) float64 {
	diag := float64(isolationDiag)
	d := int(diag / math.Sqrt2)
	var conds []bool
	for _, s := range []image.Point{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		p := buttonCentre.Add(image.Pt(s.X*d, s.Y*d))
		conds = append(conds, palette.Dominant(img, image.Rect(p.X-3, p.Y-3, p.X+3, p.Y+3), light) == c)
	}
	return share(conds...)
}

func capColour(img *image.RGBA, light lighting.State, allowed []palette.Colour) (palette.Colour, bool) {
	c := palette.Dominant(img, buttonColourBox, light)
	return c, isWireColour(c, allowed)
}

func labelInk(c palette.Colour, light lighting.State) decode.PixelFunc {
	if c == palette.White || c == palette.Yellow {
		return inkOnKey(light)
	}
	return litInk(light)
}

func readButton(img *image.RGBA, light lighting.State, colours []palette.Colour, text *lazyText, dbg *overlay.Canvas) (ButtonResult, error) {
	c, ok := capColour(img, light, colours)
	if !ok {
		return ButtonResult{}, fmt.Errorf("%w: cap colour %v", decode.ErrUnreadable, c)
	}
	tr, err := text.Get()
	if err != nil {
		return ButtonResult{}, err
	}
	dbg.Rect(buttonColourBox, colorutil.Cyan)
	dbg.Rect(buttonLabel, colorutil.Magenta)
	dbg.Rect(buttonStrip, colorutil.Yellow)
	label, _, err := tr.RecognizeInk(img, buttonLabel, labelInk(c, light))
	if err != nil {
		return ButtonResult{}, fmt.Errorf("label: %w", err)
	}
	strip := palette.Dominant(img, buttonStrip, light, palette.Grey, palette.Black)
	if !decode.AtLeast(img, buttonStrip, palette.Is(strip, light), 0.5) {
		strip = palette.None
	}
	return ButtonResult{Colour: c, Label: label, Strip: strip}, nil
}

// Button

var buttonColours = []palette.Colour{palette.Red, palette.Blue, palette.Yellow, palette.White}

// Button reads the big round button.
type Button struct {
	base
	text *lazyText
}

func NewButton(b assets.Bundle) *Button {
	return &Button{
		base: solvable(perception.KindButton),
		text: newLazyText(b.Font, wordSize, []string{"ABORT", "DETONATE", "HOLD", "PRESS"}),
	}
}

func (b *Button) IsPresent(img *image.RGBA, light lighting.State) float64 {
	c, ok := capColour(img, light, buttonColours)
	if !ok {
		return 0
	}
	return ringShare(img, isolationInner, c, light) -
		isolationPenalty*ringShare(img, isolationOuter, c, light) -
		diagonalShare(img, c, light)
}

func (b *Button) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	return readButton(img, light, buttonColours, b.text, dbg)
}

// Square button

var squareColours = []palette.Colour{palette.Blue, palette.Yellow, palette.Green, palette.White}

// SquareButton reads the square variant of the button.
type SquareButton struct {
	base
	text *lazyText
}

func NewSquareButton(b assets.Bundle) *SquareButton {
	return &SquareButton{
		base: solvable(perception.KindSquareButton),
		text: newLazyText(b.Font, wordSize, []string{
			"ABORT", "DETONATE", "HOLD", "PRESS", "ELEVATE", "RUN",
			"PURPLE", "JADE", "MAROON", "INDIGO",
		}),
	}
}

func (s *SquareButton) IsPresent(img *image.RGBA, light lighting.State) float64 {
	c, ok := capColour(img, light, squareColours)
	if !ok {
		return 0
	}
	return 0.5*ringShare(img, isolationInner, c, light) +
		0.5*diagonalShare(img, c, light) -
		isolationPenalty*ringShare(img, isolationOuter, c, light)
}

func (s *SquareButton) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	return readButton(img, light, squareColours, s.text, dbg)
}
