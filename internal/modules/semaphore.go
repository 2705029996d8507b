package modules

import (
	"fmt"
	"image"
	"math"

	"bomb-vision/internal/decode"
	"bomb-vision/internal/lighting"
	"bomb-vision/internal/overlay"
	"bomb-vision/internal/palette"
	"bomb-vision/internal/perception"
	"bomb-vision/pkg/colorutil"
)

var (
	semaphorePivot    = image.Pt(128, 150)
	semaphoreBackdrop = image.Rect(28, 28, 228, 228)
)

const (
	// semaphoreReach excludes the signaller's body around the pivot.
	semaphoreReach = 40
	// semaphoreMinFlag is the pixel count below which a half holds no flag.
	semaphoreMinFlag = 60
)

// Direction is a flag position in 45 degree steps clockwise from straight up.
type Direction int

func (d Direction) String() string {
	return [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}[d%8]
}

// SemaphoreResult is the direction of the flag in each hand as seen on screen.
type SemaphoreResult struct {
	Left, Right Direction
}

func (r SemaphoreResult) String() string { return fmt.Sprintf("%v/%v", r.Left, r.Right) }

// Semaphore reads the two flag directions of the signaller.
type Semaphore struct{ base }

func NewSemaphore() *Semaphore { return &Semaphore{solvable(perception.KindSemaphore)} }

func flagPixel(light lighting.State) func(r, g, b uint8) bool {
	red, yellow := palette.Is(palette.Red, light), palette.Is(palette.Yellow, light)
	return func(r, g, b uint8) bool { return red(r, g, b) || yellow(r, g, b) }
}

// flagCentroid averages flag pixels of one half of the backdrop that lie
// outside the reach radius.
func flagCentroid(img *image.RGBA, half image.Rectangle, light lighting.State) (float64, float64, int) {
	pred := flagPixel(light)
	var sx, sy float64
	n := 0
	half = half.Intersect(img.Bounds())
	for y := half.Min.Y; y < half.Max.Y; y++ {
		for x := half.Min.X; x < half.Max.X; x++ {
			dx, dy := x-semaphorePivot.X, y-semaphorePivot.Y
			if dx*dx+dy*dy < semaphoreReach*semaphoreReach {
				continue
			}
			i := img.PixOffset(x, y)
			if pred(img.Pix[i], img.Pix[i+1], img.Pix[i+2]) {
				sx += float64(x)
				sy += float64(y)
				n++
			}
		}
	}
	if n == 0 {
		return 0, 0, 0
	}
	return sx / float64(n), sy / float64(n), n
}

func semaphoreHalves() (left, right image.Rectangle) {
	left = semaphoreBackdrop
	left.Max.X = semaphorePivot.X
	right = semaphoreBackdrop
	right.Min.X = semaphorePivot.X
	return left, right
}

func directionOf(x, y float64) Direction {
	a := math.Atan2(x-float64(semaphorePivot.X), float64(semaphorePivot.Y)-y) * 180 / math.Pi
	if a < 0 {
		a += 360
	}
	return Direction(int(math.Round(a/45)) % 8)
}

func (s *Semaphore) IsPresent(img *image.RGBA, light lighting.State) float64 {
	left, right := semaphoreHalves()
	_, _, nl := flagCentroid(img, left, light)
	_, _, nr := flagCentroid(img, right, light)
	backdrop := 0.0
	if palette.Dominant(img, semaphoreBackdrop, light) == palette.Grey {
		backdrop = 1
	}
	return 0.4*backdrop + 0.3*share(nl >= semaphoreMinFlag) + 0.3*share(nr >= semaphoreMinFlag)
}

func (s *Semaphore) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	var res SemaphoreResult
	left, right := semaphoreHalves()
	for i, half := range []image.Rectangle{left, right} {
		x, y, n := flagCentroid(img, half, light)
		if n < semaphoreMinFlag {
			return nil, fmt.Errorf("flag %d: %w", i, decode.ErrUnreadable)
		}
		d := directionOf(x, y)
		dbg.Line(semaphorePivot, image.Pt(int(x), int(y)), colorutil.Magenta)
		if i == 0 {
			res.Left = d
		} else {
			res.Right = d
		}
	}
	return res, nil
}
