package modules

import (
	"fmt"
	"image"
	"math"
	"strings"

	"bomb-vision/internal/assets"
	"bomb-vision/internal/decode"
	"bomb-vision/internal/lighting"
	"bomb-vision/internal/overlay"
	"bomb-vision/internal/perception"
	"bomb-vision/pkg/colorutil"
)

// SymbolsResult lists symbol labels in reading order.
type SymbolsResult struct {
	Symbols []string
}

func (r SymbolsResult) String() string { return "[" + strings.Join(r.Symbols, " ") + "]" }

// Keypad

var (
	keypadKeys      = grid(48, 64, 72, 72, 88, 88, 2, 2)
	letterDisplay   = image.Rect(88, 36, 168, 96)
	letterDigits    = []decode.SegmentLayout{decode.NewSegmentLayout(100, 44, 24, 44, 5), decode.NewSegmentLayout(132, 44, 24, 44, 5)}
	letterKeys      = grid(56, 112, 64, 56, 80, 68, 2, 2)
	roundKeypadKeys = ringKeys(image.Pt(128, 136), 84, 8, 18)
	pianoDisplay    = image.Rect(40, 28, 216, 92)
	pianoSymbols    = grid(44, 32, 52, 56, 58, 0, 3, 1)
	pianoRow        = 214
)

// Keypad reads four symbol keys.
type Keypad struct {
	base
	symbols *lazyTemplates
}

func NewKeypad(b assets.Bundle) *Keypad {
	return &Keypad{base: solvable(perception.KindKeypad), symbols: newLazyTemplates(b, assets.KeypadDir)}
}

func (k *Keypad) IsPresent(img *image.RGBA, light lighting.State) float64 {
	score := float64(keysPresent(img, keypadKeys, light)) / float64(len(keypadKeys))
	if decode.AtLeast(img, letterDisplay, perception.Dark(light), 0.7) {
		score -= 0.5
	}
	return score
}

func (k *Keypad) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	tc, err := k.symbols.Get()
	if err != nil {
		return nil, err
	}
	return SymbolsResult{Symbols: classifySymbols(img, keypadKeys, light, tc, dbg)}, nil
}

// Round keypad

func ringKeys(centre image.Point, radius, n, half int) []image.Rectangle {
	out := make([]image.Rectangle, n)
	for i := range out {
		a := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		x := centre.X + int(math.Round(float64(radius)*math.Cos(a)))
		y := centre.Y + int(math.Round(float64(radius)*math.Sin(a)))
		out[i] = image.Rect(x-half, y-half, x+half, y+half)
	}
	return out
}

// RoundKeypad reads eight symbol keys on a ring, clockwise from the top.
type RoundKeypad struct {
	base
	symbols *lazyTemplates
}

func NewRoundKeypad(b assets.Bundle) *RoundKeypad {
	return &RoundKeypad{base: solvable(perception.KindRoundKeypad), symbols: newLazyTemplates(b, assets.RoundKeypadDir)}
}

func (k *RoundKeypad) IsPresent(img *image.RGBA, light lighting.State) float64 {
	score := float64(keysPresent(img, roundKeypadKeys, light)) / float64(len(roundKeypadKeys))
	if decode.AtLeast(img, image.Rect(116, 124, 140, 148), keyFace(light), 0.5) {
		score -= 0.5
	}
	return score
}

func (k *RoundKeypad) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	tc, err := k.symbols.Get()
	if err != nil {
		return nil, err
	}
	return SymbolsResult{Symbols: classifySymbols(img, roundKeypadKeys, light, tc, dbg)}, nil
}

// Piano keys

// PianoKeys reads the three musical symbols above the keyboard.
type PianoKeys struct {
	base
	symbols *lazyTemplates
}

func NewPianoKeys(b assets.Bundle) *PianoKeys {
	return &PianoKeys{base: solvable(perception.KindPianoKeys), symbols: newLazyTemplates(b, assets.PianoDir)}
}

func (p *PianoKeys) IsPresent(img *image.RGBA, light lighting.State) float64 {
	runs := decode.Runs(img, pianoRow, 24, 232, keyFace(light))
	if len(runs) < 6 || len(runs) > 9 {
		return 0
	}
	score := 0.6
	if decode.AtLeast(img, pianoDisplay, perception.Dark(light), 0.5) {
		score += 0.4
	}
	return score
}

func (p *PianoKeys) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	tc, err := p.symbols.Get()
	if err != nil {
		return nil, err
	}
	return SymbolsResult{Symbols: classifySymbols(img, pianoSymbols, light, tc, dbg)}, nil
}

// Letter keys

// LetterKeysResult is the displayed number and the letters on the keys.
// Shown is false while the display is dark.
type LetterKeysResult struct {
	Number  int
	Shown   bool
	Letters string
}

func (r LetterKeysResult) String() string {
	if !r.Shown {
		return "-- " + r.Letters
	}
	return fmt.Sprintf("%d %s", r.Number, r.Letters)
}

// LetterKeys reads a two-digit display over four lettered keys.
type LetterKeys struct {
	base
	text *lazyText
}

func NewLetterKeys(b assets.Bundle) *LetterKeys {
	return &LetterKeys{
		base: solvable(perception.KindLetterKeys),
		text: newLazyText(b.Font, charSize, []string{"A", "B", "C", "D"}),
	}
}

func (l *LetterKeys) IsPresent(img *image.RGBA, light lighting.State) float64 {
	score := 0.6 * float64(keysPresent(img, letterKeys, light)) / float64(len(letterKeys))
	if decode.AtLeast(img, letterDisplay, perception.Dark(light), 0.7) {
		score += 0.4
	}
	return score
}

func (l *LetterKeys) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	dbg.Rect(letterDisplay, colorutil.Red)
	n, ok, err := decode.ReadNumber(img, letterDigits, ledRed(light))
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	tr, err := l.text.Get()
	if err != nil {
		return nil, err
	}
	labels, err := readKeyLabels(img, letterKeys, light, tr, dbg)
	if err != nil {
		return nil, err
	}
	return LetterKeysResult{Number: n, Shown: ok, Letters: strings.Join(labels, "")}, nil
}
