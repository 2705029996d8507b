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

// TimerMode is the game mode, told apart by the colour of the clock digits.
type TimerMode int

const (
	ModeNormal TimerMode = iota
	ModeTime
	ModeZen
)

func (m TimerMode) String() string {
	switch m {
	case ModeNormal:
		return "Normal"
	case ModeTime:
		return "Time"
	case ModeZen:
		return "Zen"
	default:
		return fmt.Sprintf("TimerMode(%d)", int(m))
	}
}

var (
	timerDigits = []decode.SegmentLayout{
		decode.NewSegmentLayout(52, 106, 28, 52, 6),
		decode.NewSegmentLayout(92, 106, 28, 52, 6),
		decode.NewSegmentLayout(144, 106, 28, 52, 6),
		decode.NewSegmentLayout(184, 106, 28, 52, 6),
	}
	timerColon  = []image.Rectangle{image.Rect(124, 116, 132, 124), image.Rect(124, 136, 132, 144)}
	timerPoint  = image.Rect(124, 148, 132, 156)
	strikeCells = []image.Rectangle{image.Rect(96, 36, 124, 64), image.Rect(132, 36, 160, 64)}
)

// TimerResult is the clock reading. Under a minute the clock shows
// seconds and hundredths, otherwise minutes and seconds with zero
// hundredths.
type TimerResult struct {
	Mode       TimerMode
	Seconds    int
	Hundredths int
	Strikes    int
}

func (r TimerResult) String() string {
	return fmt.Sprintf("%v %d.%02ds, %d strikes", r.Mode, r.Seconds, r.Hundredths, r.Strikes)
}

// Timer reads the bomb clock and strike counter.
type Timer struct{ base }

func NewTimer() *Timer {
	return &Timer{base{kind: perception.KindTimer, frame: perception.Timer}}
}

func (t *Timer) IsPresent(img *image.RGBA, light lighting.State) float64 {
	return share(
		decode.AtLeast(img, perception.TimerBand, perception.Dark(light), 0.5),
		decode.AtLeast(img, perception.StrikeBand, perception.Dark(light), 0.5),
	)
}

func digitsArea() image.Rectangle {
	var r image.Rectangle
	for _, l := range timerDigits {
		for _, bar := range l {
			r = r.Union(bar)
		}
	}
	return r
}

func timerMode(img *image.RGBA, light lighting.State) (TimerMode, error) {
	c := palette.Dominant(img, digitsArea(), light, palette.Black, palette.Grey, palette.White)
	switch c {
	case palette.Red:
		return ModeNormal, nil
	case palette.Orange, palette.Yellow:
		return ModeTime, nil
	case palette.Blue:
		return ModeZen, nil
	default:
		return 0, fmt.Errorf("timer: %w: digit colour %v", decode.ErrUnreadable, c)
	}
}

func (t *Timer) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	mode, err := timerMode(img, light)
	if err != nil {
		return nil, err
	}
	lit := decode.LitCorrected(light, 128)
	var d [4]int
	for i, l := range timerDigits {
		for _, bar := range l {
			dbg.Rect(bar, colorutil.Red)
		}
		v, ok, err := decode.ReadDigit(img, l, lit)
		if err != nil {
			return nil, fmt.Errorf("timer digit %d: %w", i, err)
		}
		if ok {
			d[i] = v
		}
	}

	res := TimerResult{Mode: mode}
	sep := func(r image.Rectangle) bool { return decode.AtLeast(img, r, lit, 0.5) }
	switch {
	case sep(timerColon[0]) && sep(timerColon[1]):
		res.Seconds = (d[0]*10+d[1])*60 + d[2]*10 + d[3]
	case sep(timerPoint):
		res.Seconds = d[0]*10 + d[1]
		res.Hundredths = d[2]*10 + d[3]
	default:
		return nil, fmt.Errorf("timer: %w: no separator", decode.ErrUnrecognizedSegments)
	}

	red := palette.Is(palette.Red, light)
	for _, c := range strikeCells {
		dbg.Rect(c, colorutil.Magenta)
		if decode.AtLeast(img, c, red, 0.15) {
			res.Strikes++
		}
	}
	return res, nil
}
