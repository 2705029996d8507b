package perception

import (
	"fmt"
	"image"

	"bomb-vision/internal/decode"
	"bomb-vision/internal/lighting"
	"bomb-vision/internal/palette"
	"bomb-vision/pkg/colorutil"
)

// Size is the edge length of every rectified module image. Reader layouts
// are expressed in this coordinate space.
const Size = 256

// Fixed regions of the rectified frame.
var (
	NeedyStripe = image.Rect(24, 4, 232, 16)    // yellow hazard stripe on needy modules
	TimerBand   = image.Rect(32, 100, 224, 164) // dark clock display
	StrikeBand  = image.Rect(88, 30, 168, 70)   // dark strike counter above the clock
	TimerGap    = image.Rect(88, 76, 168, 94)   // faceplate between the two
	StatusLight = image.Rect(220, 20, 237, 37)  // solve/strike lamp, top right
)

const (
	blankPixels   = Size * Size / 2
	needyFraction = 0.6
	timerFraction = 0.7
	lampFraction  = 0.25
	darkLuma      = 50
)

// Dark matches pixels whose corrected luminance is below the display level.
func Dark(light lighting.State) func(r, g, b uint8) bool {
	return func(r, g, b uint8) bool {
		r, g, b = lighting.CorrectRGB(r, g, b, light)
		return colorutil.Luma(r, g, b) < darkLuma
	}
}

// OrangePixels counts the saturated orange of an empty slot's cover.
func OrangePixels(img *image.RGBA, light lighting.State) int {
	return decode.Count(img, img.Bounds(), palette.Is(palette.Orange, light))
}

// IsBlank reports whether the slot is empty. It only depends on the orange
// pixel count, so painting more orange never turns a blank frame non-blank.
func IsBlank(img *image.RGBA, light lighting.State) bool {
	return OrangePixels(img, light) >= blankPixels
}

// ClassifyFrame triages a rectified image.
func ClassifyFrame(img *image.RGBA, light lighting.State) FrameType {
	switch {
	case IsBlank(img, light):
		return Blank
	case decode.AtLeast(img, NeedyStripe, palette.Is(palette.Yellow, light), needyFraction):
		return Needy
	case isTimer(img, light):
		return Timer
	default:
		return Solvable
	}
}

// isTimer needs two separate dark windows; one large dark area is not enough.
func isTimer(img *image.RGBA, light lighting.State) bool {
	dark := Dark(light)
	return decode.AtLeast(img, TimerBand, dark, timerFraction) &&
		decode.AtLeast(img, StrikeBand, dark, timerFraction) &&
		decode.Fraction(img, TimerGap, dark) < 0.3
}

// LightState is the module's status lamp.
type LightState int

const (
	LightOff LightState = iota
	LightSolved
	LightStrike
)

func (s LightState) String() string {
	switch s {
	case LightOff:
		return "Off"
	case LightSolved:
		return "Solved"
	case LightStrike:
		return "Strike"
	default:
		return fmt.Sprintf("LightState(%d)", int(s))
	}
}

// ReadStatusLight samples the lamp of a rectified solvable module.
func ReadStatusLight(img *image.RGBA, light lighting.State) LightState {
	switch {
	case decode.AtLeast(img, StatusLight, palette.Is(palette.Green, light), lampFraction):
		return LightSolved
	case decode.AtLeast(img, StatusLight, palette.Is(palette.Red, light), lampFraction):
		return LightStrike
	default:
		return LightOff
	}
}
