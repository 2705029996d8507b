// Package lighting models the four ambient lighting regimes of the bomb room
// and the per-channel colour correction that maps a screenshot taken under any
// of them back towards normal lighting.
package lighting

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// State is the ambient lighting regime of a screenshot.
// Exactly one state applies to a whole screenshot.
type State int

const (
	On State = iota
	Off
	Buzz
	Emergency
)

// States lists every lighting state in declaration order.
var States = []State{On, Off, Buzz, Emergency}

func (s State) String() string {
	switch s {
	case On:
		return "On"
	case Off:
		return "Off"
	case Buzz:
		return "Buzz"
	case Emergency:
		return "Emergency"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ParseState parses a state name (case-insensitive).
func ParseState(s string) (State, error) {
	for _, st := range States {
		if strings.EqualFold(st.String(), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return On, fmt.Errorf("unknown lighting state %q", s)
}

// channel is one affine channel map y = (x*M + C) >> 16.
// C already includes the +0.5 rounding bias.
type channel struct {
	M, C int64
}

func (ch channel) apply(x uint8) uint8 {
	y := (int64(x)*ch.M + ch.C) >> 16
	if y < 0 {
		return 0
	}
	if y > 255 {
		return 255
	}
	return uint8(y)
}

// coefficients holds R, G, B channel maps for one state.
type coefficients [3]channel

const (
	fixedOne  = 1 << 16
	fixedHalf = 1 << 15
)

// correctTable maps each state towards normal lighting. Gains are pre-scaled
// by 2^16; offsets are pre-scaled by 2^16 with the rounding bias folded in.
// On is the identity and is never consulted.
var correctTable = [...]coefficients{
	On: {{fixedOne, 0}, {fixedOne, 0}, {fixedOne, 0}},
	// Off: only the bomb's own lamps; gains ~2.1/2.2/1.95, offsets -4/-4/-2.
	Off: {{137626, -229376}, {144179, -229376}, {127795, -98304}},
	// Buzz: flickering dim yellow light; gains ~1.45/1.5/1.8, offsets -6/-6/-3.
	Buzz: {{95027, -360448}, {98304, -360448}, {117965, -163840}},
	// Emergency: red alarm lamps; gains ~0.9/1.75/1.7, offsets -10/+2/+2.
	Emergency: {{58982, -622592}, {114688, 163840}, {111411, 163840}},
}

// uncorrectTable is the inverse of correctTable, derived once at init.
var uncorrectTable [len(correctTable)]coefficients

func init() {
	for s, coeffs := range correctTable {
		for c, ch := range coeffs {
			uncorrectTable[s][c] = invert(ch)
		}
	}
}

// invert computes the channel map x = (y - c) / g in the same fixed-point form.
func invert(ch channel) channel {
	offset := ch.C - fixedHalf // strip the rounding bias
	m := (int64(fixedOne)*fixedOne + ch.M/2) / ch.M
	c := roundDiv(-offset*m, fixedOne)
	return channel{M: m, C: c + fixedHalf}
}

func roundDiv(n, d int64) int64 {
	if n >= 0 {
		return (n + d/2) / d
	}
	return -((-n + d/2) / d)
}

func (s State) valid() bool {
	return s >= On && int(s) < len(correctTable)
}

// Correct maps a pixel captured under state s to its normal-lighting colour.
// Results saturate to [0,255]. Alpha is passed through.
func Correct(c color.RGBA, s State) color.RGBA {
	if s == On || !s.valid() {
		return c
	}
	t := &correctTable[s]
	return color.RGBA{R: t[0].apply(c.R), G: t[1].apply(c.G), B: t[2].apply(c.B), A: c.A}
}

// Uncorrect is the inverse of Correct: it predicts how a normal-lighting
// colour appears under state s.
func Uncorrect(c color.RGBA, s State) color.RGBA {
	if s == On || !s.valid() {
		return c
	}
	t := &uncorrectTable[s]
	return color.RGBA{R: t[0].apply(c.R), G: t[1].apply(c.G), B: t[2].apply(c.B), A: c.A}
}

// CorrectRGB is Correct on bare channels.
func CorrectRGB(r, g, b uint8, s State) (uint8, uint8, uint8) {
	c := Correct(color.RGBA{R: r, G: g, B: b, A: 255}, s)
	return c.R, c.G, c.B
}

// CorrectImage returns a corrected copy of img. For On the input is returned
// unchanged.
func CorrectImage(img *image.RGBA, s State) *image.RGBA {
	if s == On || !s.valid() {
		return img
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	t := &correctTable[s]
	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, y):]
		dst := out.Pix[out.PixOffset(b.Min.X, y):]
		for i := 0; i < b.Dx()*4; i += 4 {
			dst[i+0] = t[0].apply(src[i+0])
			dst[i+1] = t[1].apply(src[i+1])
			dst[i+2] = t[2].apply(src[i+2])
			dst[i+3] = src[i+3]
		}
	}
	return out
}
