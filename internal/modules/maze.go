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

const (
	mazeCells = 6
	mazeCell  = 28
)

var (
	mazeOrigin = image.Pt(44, 44)
	mazeArea   = image.Rect(44, 44, 44+mazeCells*mazeCell, 44+mazeCells*mazeCell)
	mazeArrows = []image.Rectangle{
		image.Rect(116, 20, 140, 36),
		image.Rect(116, 218, 140, 234),
		image.Rect(18, 116, 34, 140),
		image.Rect(222, 116, 238, 140),
	}
)

// ErrMazeIncomplete is returned when the start or goal cell cannot be found.
var ErrMazeIncomplete = fmt.Errorf("maze: %w: start or goal not visible", decode.ErrUnreadable)

// MazeResult holds cell coordinates (column, row) from the top left.
type MazeResult struct {
	Markers     []image.Point
	Start, Goal image.Point
}

func (r MazeResult) String() string {
	return fmt.Sprintf("markers %v start %v goal %v", r.Markers, r.Start, r.Goal)
}

// Maze locates the circle markers, the player and the goal on a 6x6 grid.
type Maze struct{ base }

func NewMaze() *Maze { return &Maze{solvable(perception.KindMaze)} }

func mazeCellRect(col, row int) image.Rectangle {
	cx := mazeOrigin.X + col*mazeCell + mazeCell/2
	cy := mazeOrigin.Y + row*mazeCell + mazeCell/2
	return square(cx, cy, 6)
}

func (m *Maze) IsPresent(img *image.RGBA, light lighting.State) float64 {
	return 0.5*darkShare(img, mazeArea, light, 0.7) +
		0.5*float64(keysPresent(img, mazeArrows, light))/float64(len(mazeArrows))
}

func (m *Maze) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	var res MazeResult
	start, goal := false, false
	for row := 0; row < mazeCells; row++ {
		for col := 0; col < mazeCells; col++ {
			r := mazeCellRect(col, row)
			p := image.Pt(col, row)
			switch palette.Dominant(img, r, light, palette.Black, palette.Grey) {
			case palette.Green:
				if decode.AtLeast(img, r, palette.Is(palette.Green, light), 0.2) {
					res.Markers = append(res.Markers, p)
					dbg.Rect(r, colorutil.Green)
				}
			case palette.White:
				if decode.AtLeast(img, r, keyFace(light), 0.2) {
					res.Start, start = p, true
					dbg.Rect(r, colorutil.White)
				}
			case palette.Red:
				if decode.AtLeast(img, r, palette.Is(palette.Red, light), 0.2) {
					res.Goal, goal = p, true
					dbg.Rect(r, colorutil.Red)
				}
			}
		}
	}
	if !start || !goal {
		return nil, ErrMazeIncomplete
	}
	return res, nil
}
