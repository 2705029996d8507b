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

var (
	morseLamp    = image.Rect(40, 30, 70, 60)
	morseDisplay = image.Rect(70, 110, 190, 150)
	morseDigits  = []decode.SegmentLayout{
		decode.NewSegmentLayout(80, 112, 28, 36, 4),
		decode.NewSegmentLayout(118, 112, 28, 36, 4),
		decode.NewSegmentLayout(156, 112, 28, 36, 4),
	}
	morseTransmit = image.Rect(96, 180, 160, 212)
)

// morseBase is the fixed part of every frequency, in kHz.
const morseBase = 3000

// MorseResult is the lamp state in this frame and the tuned frequency in kHz.
type MorseResult struct {
	Lit       bool
	Frequency int
}

func (r MorseResult) String() string {
	lamp := "off"
	if r.Lit {
		lamp = "on"
	}
	return fmt.Sprintf("lamp %s, %d.%03d MHz", lamp, r.Frequency/1000, r.Frequency%1000)
}

// MorseCode reads the signal lamp and the frequency display.
type MorseCode struct{ base }

func NewMorseCode() *MorseCode { return &MorseCode{solvable(perception.KindMorseCode)} }

func lampLit(light lighting.State) decode.PixelFunc {
	orange, yellow := palette.Is(palette.Orange, light), palette.Is(palette.Yellow, light)
	return func(r, g, b uint8) bool { return orange(r, g, b) || yellow(r, g, b) }
}

func (m *MorseCode) IsPresent(img *image.RGBA, light lighting.State) float64 {
	return 0.5*darkShare(img, morseDisplay, light, 0.6) +
		0.5*float64(keysPresent(img, []image.Rectangle{morseTransmit}, light))
}

func (m *MorseCode) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	dbg.Rect(morseLamp, colorutil.Yellow)
	dbg.Rect(morseDisplay, colorutil.Red)
	n, ok, err := decode.ReadNumber(img, morseDigits, ledRed(light))
	if err != nil {
		return nil, fmt.Errorf("frequency: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("frequency: %w", decode.ErrUnrecognizedSegments)
	}
	return MorseResult{
		Lit:       decode.AtLeast(img, morseLamp, lampLit(light), 0.4),
		Frequency: morseBase + n,
	}, nil
}
