// Package widgets reads the edgework around the bomb: serial number label,
// battery holders, port plates and indicators. Widgets are scored without
// frame triage and share the rectified coordinate space of the modules.
package widgets

import (
	"fmt"
	"image"
	"strings"

	"bomb-vision/internal/assets"
	"bomb-vision/internal/decode"
	"bomb-vision/internal/lighting"
	"bomb-vision/internal/match"
	"bomb-vision/internal/overlay"
	"bomb-vision/internal/palette"
	"bomb-vision/internal/perception"
	"bomb-vision/pkg/colorutil"
)

type base perception.Kind

func (b base) Kind() perception.Kind           { return perception.Kind(b) }
func (b base) Name() string                    { return perception.Kind(b).String() }
func (b base) FrameType() perception.FrameType { return perception.Widget }

const glyphSize = 32

func newText(font []byte, vocab []string) *match.Lazy[*match.TextRecognizer] {
	return match.NewLazy(func() (*match.TextRecognizer, error) {
		opts := match.DefaultTextOptions()
		opts.Font = font
		opts.Size = glyphSize
		return match.NewTextRecognizer(vocab, opts)
	})
}

func luma(light lighting.State, pred func(float64) bool) decode.PixelFunc {
	return func(r, g, b uint8) bool {
		r, g, b = lighting.CorrectRGB(r, g, b, light)
		return pred(colorutil.Luma(r, g, b))
	}
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Serial number

var (
	serialLabel  = image.Rect(20, 60, 236, 196)
	serialHeader = image.Rect(20, 60, 236, 100)
	serialChars  = func() []image.Rectangle {
		out := make([]image.Rectangle, 6)
		for i := range out {
			x := 32 + 32*i
			out[i] = image.Rect(x, 120, x+28, 180)
		}
		return out
	}()
)

// serialAlphabet omits O and Y, which never appear on serial numbers.
func serialAlphabet() []string {
	var out []string
	for c := '0'; c <= '9'; c++ {
		out = append(out, string(c))
	}
	for c := 'A'; c <= 'Z'; c++ {
		if c != 'O' && c != 'Y' {
			out = append(out, string(c))
		}
	}
	return out
}

// SerialResult is the six character serial number.
type SerialResult struct {
	Serial string
}

func (r SerialResult) String() string { return r.Serial }

// SerialNumber reads the serial label.
type SerialNumber struct {
	base
	text *match.Lazy[*match.TextRecognizer]
}

func NewSerialNumber(b assets.Bundle) *SerialNumber {
	return &SerialNumber{base: base(perception.KindSerialNumber), text: newText(b.Font, serialAlphabet())}
}

func (s *SerialNumber) IsPresent(img *image.RGBA, light lighting.State) float64 {
	body := serialLabel
	body.Min.Y = serialHeader.Max.Y
	return 0.5*boolScore(decode.AtLeast(img, serialHeader, palette.Is(palette.Red, light), 0.6)) +
		0.5*boolScore(decode.AtLeast(img, body, palette.Is(palette.White, light), 0.5))
}

func (s *SerialNumber) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	tr, err := s.text.Get()
	if err != nil {
		return nil, err
	}
	ink := luma(light, func(l float64) bool { return l < 100 })
	var sb strings.Builder
	for i, cell := range serialChars {
		dbg.Rect(cell, colorutil.Cyan)
		c, ok, err := tr.RecognizeInk(img, cell, ink)
		if err != nil {
			return nil, fmt.Errorf("serial character %d: %w", i, err)
		}
		if !ok {
			return nil, fmt.Errorf("serial character %d: %w", i, match.ErrNoCandidate)
		}
		sb.WriteString(c)
	}
	return SerialResult{Serial: sb.String()}, nil
}

// Batteries

var batteryHolder = image.Rect(16, 96, 240, 160)

const (
	batteryRow   = 128
	batteryMinAA = 8
	batteryMinD  = 60
)

// BatteriesResult counts batteries by type.
type BatteriesResult struct {
	D, AA int
}

// Total is the number of batteries on the holder.
func (r BatteriesResult) Total() int { return r.D + r.AA }

func (r BatteriesResult) String() string {
	return fmt.Sprintf("%d batteries (%d D, %d AA)", r.Total(), r.D, r.AA)
}

// Batteries counts the battery bodies on a holder. A D cell is one wide
// body; AA cells come as separate narrow bodies.
type Batteries struct{ base }

func NewBatteries() *Batteries { return &Batteries{base(perception.KindBatteries)} }

func batteryRuns(img *image.RGBA, light lighting.State) []decode.Run {
	var out []decode.Run
	for _, r := range decode.Runs(img, batteryRow, batteryHolder.Min.X, batteryHolder.Max.X, palette.Is(palette.Yellow, light)) {
		if r.Width() >= batteryMinAA {
			out = append(out, r)
		}
	}
	return out
}

func (b *Batteries) IsPresent(img *image.RGBA, light lighting.State) float64 {
	if len(batteryRuns(img, light)) == 0 {
		return 0
	}
	return 0.5 + 0.5*boolScore(decode.AtLeast(img, batteryHolder, perception.Dark(light), 0.3))
}

func (b *Batteries) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	var res BatteriesResult
	for _, r := range batteryRuns(img, light) {
		dbg.Line(image.Pt(r.X0, batteryRow), image.Pt(r.X1, batteryRow), colorutil.Yellow)
		if r.Width() > batteryMinD {
			res.D++
		} else {
			res.AA++
		}
	}
	return res, nil
}

// Port plate

var portPlate = image.Rect(16, 64, 240, 192)

// minPortPixels is the smallest visible connector.
const minPortPixels = 150

// Port names in the order they are reported.
var portColours = []struct {
	name   string
	colour palette.Colour
}{
	{"DVI-D", palette.Red},
	{"Parallel", palette.Magenta},
	{"PS/2", palette.Green},
	{"RJ-45", palette.Yellow},
	{"Serial", palette.Blue},
	{"StereoRCA", palette.Orange},
}

// PortsResult lists the ports on one plate; an empty plate has none.
type PortsResult struct {
	Ports []string
}

func (r PortsResult) String() string {
	if len(r.Ports) == 0 {
		return "empty plate"
	}
	return strings.Join(r.Ports, ", ")
}

// PortPlate identifies the connectors on a port plate by colour.
type PortPlate struct{ base }

func NewPortPlate() *PortPlate { return &PortPlate{base(perception.KindPortPlate)} }

func (p *PortPlate) IsPresent(img *image.RGBA, light lighting.State) float64 {
	skip := make([]palette.Colour, len(portColours))
	for i, pc := range portColours {
		skip[i] = pc.colour
	}
	if palette.Dominant(img, portPlate, light, skip...) != palette.Grey {
		return 0
	}
	res, _ := p.Process(img, light, nil)
	return 0.5 + 0.5*boolScore(len(res.(PortsResult).Ports) > 0)
}

func (p *PortPlate) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	dbg.Rect(portPlate, colorutil.Cyan)
	var res PortsResult
	for _, pc := range portColours {
		if decode.Count(img, portPlate, palette.Is(pc.colour, light)) >= minPortPixels {
			res.Ports = append(res.Ports, pc.name)
		}
	}
	return res, nil
}

// Indicator

var (
	indicatorPlate = image.Rect(24, 80, 232, 176)
	indicatorLED   = image.Rect(40, 112, 72, 144)
	indicatorLabel = image.Rect(96, 104, 224, 152)

	indicatorLabels = []string{"SND", "CLR", "CAR", "IND", "FRQ", "SIG", "NSA", "MSA", "TRN", "BOB", "FRK"}
)

// IndicatorResult is the three-letter label and whether its LED is lit.
type IndicatorResult struct {
	Label string
	Lit   bool
}

func (r IndicatorResult) String() string {
	if r.Lit {
		return "lit " + r.Label
	}
	return "unlit " + r.Label
}

// Indicator reads a labelled indicator light.
type Indicator struct {
	base
	text *match.Lazy[*match.TextRecognizer]
}

func NewIndicator(b assets.Bundle) *Indicator {
	return &Indicator{base: base(perception.KindIndicator), text: newText(b.Font, indicatorLabels)}
}

func (in *Indicator) IsPresent(img *image.RGBA, light lighting.State) float64 {
	score := 0.6*boolScore(decode.AtLeast(img, indicatorPlate, perception.Dark(light), 0.6)) +
		0.4*boolScore(decode.AnyMatch(img, indicatorLabel, luma(light, func(l float64) bool { return l > 140 })))
	// Battery bodies also sit on a dark background.
	if decode.AtLeast(img, indicatorPlate, palette.Is(palette.Yellow, light), 0.05) {
		score -= 0.5
	}
	return score
}

func (in *Indicator) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	tr, err := in.text.Get()
	if err != nil {
		return nil, err
	}
	dbg.Rect(indicatorLabel, colorutil.Green)
	label, ok, err := tr.RecognizeInk(img, indicatorLabel, luma(light, func(l float64) bool { return l > 140 }))
	if err != nil {
		return nil, fmt.Errorf("indicator label: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("indicator label: %w", match.ErrNoCandidate)
	}
	dbg.Rect(indicatorLED, colorutil.Yellow)
	return IndicatorResult{
		Label: label,
		Lit:   decode.AtLeast(img, indicatorLED, luma(light, func(l float64) bool { return l > 200 }), 0.4),
	}, nil
}

// All returns the widget readers in registration order.
func All(b assets.Bundle) []perception.Reader {
	return []perception.Reader{
		NewSerialNumber(b),
		NewBatteries(),
		NewPortPlate(),
		NewIndicator(b),
	}
}
