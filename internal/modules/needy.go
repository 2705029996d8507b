package modules

import (
	"fmt"
	"image"

	"bomb-vision/internal/assets"
	"bomb-vision/internal/decode"
	"bomb-vision/internal/lighting"
	"bomb-vision/internal/overlay"
	"bomb-vision/internal/palette"
	"bomb-vision/internal/perception"
	"bomb-vision/pkg/colorutil"
)

func housingShare(img *image.RGBA, light lighting.State) float64 {
	return darkShare(img, countdownHousing, light, 0.6)
}

// Venting gas

var (
	ventDisplay = image.Rect(40, 70, 216, 130)
	ventKeys    = []image.Rectangle{image.Rect(56, 160, 112, 200), image.Rect(144, 160, 200, 200)}
)

// VentResult is the countdown and the question on the display, empty while
// the module sleeps.
type VentResult struct {
	Countdown Countdown
	Prompt    string
}

func (r VentResult) String() string { return fmt.Sprintf("%v %q", r.Countdown, r.Prompt) }

// VentingGas reads the countdown and the yes/no question.
type VentingGas struct {
	base
	text *lazyText
}

func NewVentingGas(b assets.Bundle) *VentingGas {
	return &VentingGas{
		base: needy(perception.KindVentingGas),
		text: newLazyText(b.Font, wordSize, []string{"VENT GAS?", "DETONATE?"}),
	}
}

func (v *VentingGas) IsPresent(img *image.RGBA, light lighting.State) float64 {
	return 0.4*housingShare(img, light) +
		0.3*darkShare(img, ventDisplay, light, 0.6) +
		0.3*float64(keysPresent(img, ventKeys, light))/float64(len(ventKeys))
}

func (v *VentingGas) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	cd, err := readCountdown(img, light, dbg)
	if err != nil {
		return nil, err
	}
	prompt, err := readDisplay(img, ventDisplay, light, v.text, dbg)
	if err != nil {
		return nil, err
	}
	return VentResult{Countdown: cd, Prompt: prompt}, nil
}

// Capacitor discharge

var (
	capGauge = image.Rect(60, 60, 90, 230)
	capLever = image.Rect(150, 90, 200, 210)
)

// CapacitorResult is the countdown and the gauge fill in [0, 1].
type CapacitorResult struct {
	Countdown Countdown
	Charge    float64
}

func (r CapacitorResult) String() string { return fmt.Sprintf("%v %.0f%%", r.Countdown, r.Charge*100) }

// CapacitorDischarge reads the countdown and the capacitor gauge.
type CapacitorDischarge struct{ base }

func NewCapacitorDischarge() *CapacitorDischarge {
	return &CapacitorDischarge{needy(perception.KindCapacitorDischarge)}
}

func (c *CapacitorDischarge) IsPresent(img *image.RGBA, light lighting.State) float64 {
	dark, charge := perception.Dark(light), palette.Is(palette.Yellow, light)
	gauge := func(r, g, b uint8) bool { return dark(r, g, b) || charge(r, g, b) }
	return 0.4*housingShare(img, light) +
		0.3*share(decode.AtLeast(img, capGauge, gauge, 0.8)) +
		0.3*share(decode.AtLeast(img, capLever, keyFace(light), 0.3))
}

// gaugeFill counts filled rows upwards from the bottom of the gauge.
func gaugeFill(img *image.RGBA, light lighting.State) float64 {
	charge := palette.Is(palette.Yellow, light)
	rows := 0
	for y := capGauge.Max.Y - 1; y >= capGauge.Min.Y; y-- {
		row := image.Rect(capGauge.Min.X, y, capGauge.Max.X, y+1)
		if !decode.AtLeast(img, row, charge, 0.5) {
			break
		}
		rows++
	}
	return float64(rows) / float64(capGauge.Dy())
}

func (c *CapacitorDischarge) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	cd, err := readCountdown(img, light, dbg)
	if err != nil {
		return nil, err
	}
	dbg.Rect(capGauge, colorutil.Yellow)
	return CapacitorResult{Countdown: cd, Charge: gaugeFill(img, light)}, nil
}

// Knobs

var (
	knobFace = square(128, 100, 30)
	knobLEDs = func() []image.Rectangle {
		out := make([]image.Rectangle, 0, 12)
		for _, y := range []int{150, 175} {
			for i := 0; i < 6; i++ {
				out = append(out, square(48+32*i, y, 5))
			}
		}
		return out
	}()
)

// KnobsResult is the countdown and the twelve LEDs in row-major order.
type KnobsResult struct {
	Countdown Countdown
	LEDs      [12]bool
}

func (r KnobsResult) String() string {
	b := make([]byte, 0, 13)
	for i, on := range r.LEDs {
		if i == 6 {
			b = append(b, '/')
		}
		if on {
			b = append(b, '*')
		} else {
			b = append(b, '.')
		}
	}
	return fmt.Sprintf("%v %s", r.Countdown, b)
}

// Knobs reads the countdown and the LED pattern.
type Knobs struct{ base }

func NewKnobs() *Knobs { return &Knobs{needy(perception.KindKnobs)} }

func (k *Knobs) IsPresent(img *image.RGBA, light lighting.State) float64 {
	dark, lit := perception.Dark(light), palette.Is(palette.Green, light)
	socket := func(r, g, b uint8) bool { return dark(r, g, b) || lit(r, g, b) }
	var sockets []bool
	for _, l := range knobLEDs {
		sockets = append(sockets, decode.AtLeast(img, l, socket, 0.8))
	}
	return 0.4*housingShare(img, light) +
		0.3*share(palette.Dominant(img, knobFace, light) == palette.Grey) +
		0.3*share(sockets...)
}

func (k *Knobs) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	cd, err := readCountdown(img, light, dbg)
	if err != nil {
		return nil, err
	}
	res := KnobsResult{Countdown: cd}
	lit := palette.Is(palette.Green, light)
	for i, l := range knobLEDs {
		res.LEDs[i] = decode.AtLeast(img, l, lit, 0.3)
		if res.LEDs[i] {
			dbg.Rect(l, colorutil.Green)
		}
	}
	return res, nil
}
