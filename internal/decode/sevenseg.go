// Package decode turns small fixed regions of a rectified module image into
// symbols: seven-segment digits, stage indicator counts and rectangle
// aggregates.
package decode

import (
	"fmt"
	"image"

	"bomb-vision/internal/lighting"
)

// Segment indexes the seven bars of a digit, clockwise from the top, with the
// middle bar last. Bit i of a mask is segment i.
type Segment int

const (
	SegA Segment = iota // top
	SegB                // top right
	SegC                // bottom right
	SegD                // bottom
	SegE                // bottom left
	SegF                // top left
	SegG                // middle
)

// digitMasks is the segment pattern of each digit 0-9.
var digitMasks = [10]uint8{
	0x3F, // 0: a b c d e f
	0x06, // 1: b c
	0x5B, // 2: a b d e g
	0x4F, // 3: a b c d g
	0x66, // 4: b c f g
	0x6D, // 5: a c d f g
	0x7D, // 6: a c d e f g
	0x07, // 7: a b c
	0x7F, // 8: all
	0x6F, // 9: a b c d f g
}

// EncodeDigit returns the segment mask for d, or 0 if d is not a digit.
func EncodeDigit(d int) uint8 {
	if d < 0 || d > 9 {
		return 0
	}
	return digitMasks[d]
}

// DecodeMask maps a segment mask to its digit. ok is false for the all-dark
// mask, meaning nothing is displayed. Any other mask outside the digit table
// is ErrUnrecognizedSegments.
func DecodeMask(mask uint8) (digit int, ok bool, err error) {
	if mask == 0 {
		return 0, false, nil
	}
	for d, m := range digitMasks {
		if m == mask {
			return d, true, nil
		}
	}
	return 0, false, fmt.Errorf("%w: %#02x", ErrUnrecognizedSegments, mask)
}

// SegmentLayout holds the bar rectangle of each segment.
type SegmentLayout [7]image.Rectangle

// NewSegmentLayout builds sample bars for a digit whose cell starts at (x, y)
// and is w x h pixels, with bars t pixels thick. Bars stop short of the
// corners so that neighbouring bars never bleed into each other.
func NewSegmentLayout(x, y, w, h, t int) SegmentLayout {
	mid := h / 2
	r := func(x0, y0, x1, y1 int) image.Rectangle { return image.Rect(x+x0, y+y0, x+x1, y+y1) }
	return SegmentLayout{
		SegA: r(t, 0, w-t, t),
		SegB: r(w-t, t, w, mid-t/2),
		SegC: r(w-t, mid+t/2, w, h-t),
		SegD: r(t, h-t, w-t, h),
		SegE: r(0, mid+t/2, t, h-t),
		SegF: r(0, t, t, mid-t/2),
		SegG: r(t, mid-t/2, w-t, mid+t/2+t%2),
	}
}

// Offset returns the layout translated by (dx, dy).
func (l SegmentLayout) Offset(dx, dy int) SegmentLayout {
	d := image.Pt(dx, dy)
	for i := range l {
		l[i] = l[i].Add(d)
	}
	return l
}

// LitFunc decides whether a pixel belongs to a lit segment.
type LitFunc func(r, g, b uint8) bool

// LitRed is the plain detector for red LED displays.
func LitRed(r, _, _ uint8) bool { return r >= 128 }

// LitCorrected lights a pixel when any channel reaches threshold after
// correcting it for the lighting state.
func LitCorrected(state lighting.State, threshold uint8) LitFunc {
	return func(r, g, b uint8) bool {
		r, g, b = lighting.CorrectRGB(r, g, b, state)
		return r >= threshold || g >= threshold || b >= threshold
	}
}

// ReadMask samples every bar; a bar is lit if any of its pixels is.
func ReadMask(img *image.RGBA, layout SegmentLayout, lit LitFunc) uint8 {
	var mask uint8
	for seg, bar := range layout {
		if AnyMatch(img, bar, lit) {
			mask |= 1 << uint(seg)
		}
	}
	return mask
}

// ReadDigit reads and decodes one digit. See DecodeMask for ok and err.
func ReadDigit(img *image.RGBA, layout SegmentLayout, lit LitFunc) (int, bool, error) {
	return DecodeMask(ReadMask(img, layout, lit))
}

// ReadNumber reads consecutive digits most-significant first. ok is false if
// every digit is dark; a dark digit between lit ones reads as 0.
func ReadNumber(img *image.RGBA, layouts []SegmentLayout, lit LitFunc) (int, bool, error) {
	n, shown := 0, false
	for i, l := range layouts {
		d, ok, err := ReadDigit(img, l, lit)
		if err != nil {
			return 0, false, fmt.Errorf("digit %d: %w", i, err)
		}
		shown = shown || ok
		n = n*10 + d
	}
	return n, shown, nil
}

// DrawDigit paints the lit segments of mask with c. It exists for building
// synthetic frames and debug overlays.
func DrawDigit(img *image.RGBA, layout SegmentLayout, mask uint8, r, g, b uint8) {
	for seg, bar := range layout {
		if mask&(1<<uint(seg)) == 0 {
			continue
		}
		fill(img, bar, r, g, b)
	}
}
