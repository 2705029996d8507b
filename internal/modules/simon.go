package modules

import (
	"fmt"
	"image"

	"bomb-vision/internal/decode"
	"bomb-vision/internal/lighting"
	"bomb-vision/internal/overlay"
	"bomb-vision/internal/palette"
	"bomb-vision/internal/perception"
	"bomb-vision/pkg/colorutil"
)

func square(cx, cy, half int) image.Rectangle {
	return image.Rect(cx-half, cy-half, cx+half, cy+half)
}

// Simon says

var simonPads = []struct {
	colour palette.Colour
	rect   image.Rectangle
}{
	{palette.Red, square(128, 70, 18)},
	{palette.Blue, square(70, 128, 18)},
	{palette.Green, square(186, 128, 18)},
	{palette.Yellow, square(128, 186, 18)},
}

// flashing matches a pad at full brightness.
func flashing(light lighting.State) decode.PixelFunc {
	return func(r, g, b uint8) bool {
		r, g, b = lighting.CorrectRGB(r, g, b, light)
		return max(r, g, b) >= 220
	}
}

// SimonResult is the pad lit in this frame, palette.None between flashes.
type SimonResult struct {
	Lit palette.Colour
}

func (r SimonResult) String() string { return r.Lit.String() }

// SimonSays reports which of its four pads is flashing.
type SimonSays struct{ base }

func NewSimonSays() *SimonSays { return &SimonSays{solvable(perception.KindSimonSays)} }

func (s *SimonSays) IsPresent(img *image.RGBA, light lighting.State) float64 {
	var conds []bool
	for _, p := range simonPads {
		conds = append(conds, palette.Dominant(img, p.rect, light) == p.colour)
	}
	return share(conds...)
}

func (s *SimonSays) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	res := SimonResult{Lit: palette.None}
	for _, p := range simonPads {
		dbg.Rect(p.rect, colorutil.Cyan)
		if !decode.AtLeast(img, p.rect, flashing(light), 0.5) {
			continue
		}
		if res.Lit != palette.None {
			return nil, fmt.Errorf("%w: pads %v and %v both lit", decode.ErrUnreadable, res.Lit, p.colour)
		}
		res.Lit = p.colour
	}
	return res, nil
}

// Coloured squares

var (
	squareCells = grid(40, 56, 40, 40, 44, 44, 4, 4)
	squareGaps  = []image.Rectangle{
		image.Rect(40, 96, 216, 100),
		image.Rect(40, 140, 216, 144),
		image.Rect(40, 184, 216, 188),
	}
)

// squareFlatness is the largest luminance spread a lit cell shows; cells
// carrying symbols or text spread much wider. Tuned.
const squareFlatness = 24

// SquaresResult holds the colour of each cell in row-major order. Unlit
// cells read as palette.Black.
type SquaresResult struct {
	Cells [16]palette.Colour
}

func (r SquaresResult) String() string { return fmt.Sprint(r.Cells) }

// ColouredSquares reads a 4x4 grid of coloured cells.
type ColouredSquares struct{ base }

func NewColouredSquares() *ColouredSquares {
	return &ColouredSquares{solvable(perception.KindColouredSquares)}
}

func (c *ColouredSquares) IsPresent(img *image.RGBA, light lighting.State) float64 {
	var gaps []bool
	for _, g := range squareGaps {
		gaps = append(gaps, decode.AtLeast(img, g, perception.Dark(light), 0.7))
	}
	coloured := 0
	for _, cell := range squareCells {
		inner := cell.Inset(6)
		if _, std := decode.LumaStats(img, inner); std > squareFlatness {
			continue
		}
		switch palette.Dominant(img, inner, light) {
		case palette.Black, palette.Grey, palette.None:
		default:
			coloured++
		}
	}
	return 0.5*share(gaps...) + 0.5*float64(coloured)/float64(len(squareCells))
}

func (c *ColouredSquares) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	var res SquaresResult
	for i, cell := range squareCells {
		inner := cell.Inset(6)
		dbg.Rect(inner, colorutil.Cyan)
		res.Cells[i] = palette.Dominant(img, inner, light)
	}
	return res, nil
}
