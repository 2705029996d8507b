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

const switchCount = 5

type switchLayout struct {
	upper, lower   image.Rectangle
	upLED, downLED image.Rectangle
}

var switchLayouts = func() [switchCount]switchLayout {
	var out [switchCount]switchLayout
	for i := range out {
		x := 48 + 40*i
		out[i] = switchLayout{
			upper:   image.Rect(x-10, 100, x+10, 135),
			lower:   image.Rect(x-10, 135, x+10, 170),
			upLED:   image.Rect(x-6, 80, x+6, 92),
			downLED: image.Rect(x-6, 178, x+6, 190),
		}
	}
	return out
}()

// SwitchesResult holds, left to right, whether each switch is up now and
// whether its lit target LED is the upper one.
type SwitchesResult struct {
	Up     [switchCount]bool
	Target [switchCount]bool
}

func (r SwitchesResult) String() string {
	bits := func(v [switchCount]bool) string {
		b := make([]byte, switchCount)
		for i, up := range v {
			b[i] = '0'
			if up {
				b[i] = '1'
			}
		}
		return string(b)
	}
	return fmt.Sprintf("%s -> %s", bits(r.Up), bits(r.Target))
}

// Switches reads five toggle switches and their target LEDs.
type Switches struct{ base }

func NewSwitches() *Switches { return &Switches{solvable(perception.KindSwitches)} }

func (s *Switches) IsPresent(img *image.RGBA, light lighting.State) float64 {
	dark := perception.Dark(light)
	var conds []bool
	for _, l := range switchLayouts {
		slot := l.upper.Union(l.lower)
		conds = append(conds,
			decode.AtLeast(img, slot, dark, 0.3) && decode.AtLeast(img, slot, keyFace(light), 0.2))
	}
	return share(conds...)
}

func (s *Switches) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	var res SwitchesResult
	lever := keyFace(light)
	led := palette.Is(palette.Green, light)
	for i, l := range switchLayouts {
		dbg.Rect(l.upper.Union(l.lower), colorutil.Cyan)
		res.Up[i] = decode.Count(img, l.upper, lever) > decode.Count(img, l.lower, lever)

		up := decode.AtLeast(img, l.upLED, led, 0.3)
		down := decode.AtLeast(img, l.downLED, led, 0.3)
		if up == down {
			return nil, fmt.Errorf("switch %d: %w: no single target LED lit", i, decode.ErrUnreadable)
		}
		res.Target[i] = up
		if up {
			dbg.Rect(l.upLED, colorutil.Green)
		} else {
			dbg.Rect(l.downLED, colorutil.Green)
		}
	}
	return res, nil
}
