package match

import (
	"errors"
	"fmt"
	"image"
	"math"

	"bomb-vision/internal/calibrate"
	"bomb-vision/pkg/colorutil"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TextOptions configures a TextRecognizer.
type TextOptions struct {
	Font            []byte  // TrueType/OpenType bytes; nil uses Go Regular
	Size            float64 // Render height in pixels (default 48)
	AspectTolerance float64 // Max relative aspect difference (default 0.25)
	Background      float64 // Expected luminance of the background (0-255)
	Foreground      float64 // Expected luminance of the text strokes (0-255)
}

// DefaultTextOptions renders dark-on-light text.
func DefaultTextOptions() TextOptions {
	return TextOptions{Size: 48, AspectTolerance: 0.25, Background: 220, Foreground: 20}
}

// LightOnDark is DefaultTextOptions with the levels swapped, for displays.
func LightOnDark() TextOptions {
	o := DefaultTextOptions()
	o.Background, o.Foreground = o.Foreground, o.Background
	return o
}

type textMask struct {
	text     string
	w, h     int
	coverage []uint8
	aspect   float64
}

// TextRecognizer picks the closest string from a closed vocabulary. Every
// string is rendered once at construction and cropped to its ink.
type TextRecognizer struct {
	opts  TextOptions
	masks []textMask
}

// NewTextRecognizer renders vocabulary with opts. Zero-valued options take
// their defaults, except the luminance levels which are used as given.
func NewTextRecognizer(vocabulary []string, opts TextOptions) (*TextRecognizer, error) {
	if len(vocabulary) == 0 {
		return nil, ErrNoTemplates
	}
	def := DefaultTextOptions()
	if opts.Size <= 0 {
		opts.Size = def.Size
	}
	if opts.AspectTolerance <= 0 {
		opts.AspectTolerance = def.AspectTolerance
	}
	if opts.Background == 0 && opts.Foreground == 0 {
		opts.Background, opts.Foreground = def.Background, def.Foreground
	}
	data := opts.Font
	if data == nil {
		data = goregular.TTF
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: font: %v", ErrBadAsset, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: opts.Size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("%w: face: %v", ErrBadAsset, err)
	}
	defer face.Close()

	tr := &TextRecognizer{opts: opts}
	for _, s := range vocabulary {
		m, ok := renderMask(face, s)
		if !ok {
			return nil, fmt.Errorf("%w: %q renders no ink", ErrBadAsset, s)
		}
		tr.masks = append(tr.masks, m)
	}
	return tr, nil
}

func renderMask(face font.Face, s string) (textMask, bool) {
	metrics := face.Metrics()
	pad := 4
	width := font.MeasureString(face, s).Ceil() + 2*pad
	height := (metrics.Ascent + metrics.Descent).Ceil() + 2*pad
	canvas := image.NewAlpha(image.Rect(0, 0, width, height))
	d := font.Drawer{
		Dst:  canvas,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(pad, pad+metrics.Ascent.Ceil()),
	}
	d.DrawString(s)

	ink := inkBounds(canvas)
	if ink.Empty() {
		return textMask{}, false
	}
	m := textMask{
		text:     s,
		w:        ink.Dx(),
		h:        ink.Dy(),
		coverage: make([]uint8, 0, ink.Dx()*ink.Dy()),
		aspect:   float64(ink.Dx()) / float64(ink.Dy()),
	}
	for y := ink.Min.Y; y < ink.Max.Y; y++ {
		for x := ink.Min.X; x < ink.Max.X; x++ {
			m.coverage = append(m.coverage, canvas.AlphaAt(x, y).A)
		}
	}
	return m, true
}

func inkBounds(a *image.Alpha) image.Rectangle {
	b := a.Bounds()
	ink := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if a.AlphaAt(x, y).A == 0 {
				continue
			}
			ink = ink.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return ink
}

// Mask returns the rendered ink of text as a grey image using the
// recognizer's luminance levels, or nil if text is not in the vocabulary.
func (tr *TextRecognizer) Mask(text string) *image.Gray {
	for _, m := range tr.masks {
		if m.text != text {
			continue
		}
		g := image.NewGray(image.Rect(0, 0, m.w, m.h))
		for i, c := range m.coverage {
			g.Pix[i] = uint8(tr.expected(c) + 0.5)
		}
		return g
	}
	return nil
}

// Vocabulary lists the recognizable strings in construction order.
func (tr *TextRecognizer) Vocabulary() []string {
	out := make([]string, len(tr.masks))
	for i, m := range tr.masks {
		out[i] = m.text
	}
	return out
}

func (tr *TextRecognizer) expected(coverage uint8) float64 {
	return tr.opts.Background + (tr.opts.Foreground-tr.opts.Background)*float64(coverage)/255
}

// Recognize scores region r of img, which should already be tight around
// the ink, against every candidate of similar aspect. It returns the best
// string and its mean per-pixel luminance error.
func (tr *TextRecognizer) Recognize(img *image.RGBA, r image.Rectangle) (string, float64, error) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return "", 0, fmt.Errorf("%w: empty region", ErrNoCandidate)
	}
	aspect := float64(r.Dx()) / float64(r.Dy())

	best, bestScore, scored := "", math.Inf(1), 0
	for _, m := range tr.masks {
		if math.Abs(aspect-m.aspect)/m.aspect > tr.opts.AspectTolerance {
			continue
		}
		scored++
		score := tr.score(img, r, m)
		if score < bestScore {
			best, bestScore = m.text, score
		}
	}
	if scored == 0 {
		return "", 0, fmt.Errorf("%w: aspect %.2f", ErrNoCandidate, aspect)
	}
	return best, bestScore, nil
}

// score samples the region at the mask's resolution with nearest-neighbour
// lookups.
func (tr *TextRecognizer) score(img *image.RGBA, r image.Rectangle, m textMask) float64 {
	sx := float64(r.Dx()) / float64(m.w)
	sy := float64(r.Dy()) / float64(m.h)
	total := 0.0
	for y := 0; y < m.h; y++ {
		py := r.Min.Y + int((float64(y)+0.5)*sy)
		for x := 0; x < m.w; x++ {
			px := r.Min.X + int((float64(x)+0.5)*sx)
			i := img.PixOffset(px, py)
			l := colorutil.Luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
			total += math.Abs(l - tr.expected(m.coverage[y*m.w+x]))
		}
	}
	return total / float64(m.w*m.h)
}

// RecognizeInk bounds the pixels of rect that satisfy ink, redraws them at
// the recognizer's two levels and recognizes the result. ok is false when
// rect holds no ink, which callers treat as an empty display.
func (tr *TextRecognizer) RecognizeInk(img *image.RGBA, rect image.Rectangle, ink func(r, g, b uint8) bool) (text string, ok bool, err error) {
	bounds, err := calibrate.FindEdges(img, rect, ink)
	if errors.Is(err, calibrate.ErrEdgeNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	fg := uint8(tr.opts.Foreground + 0.5)
	bg := uint8(tr.opts.Background + 0.5)
	bin := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			i := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			v := bg
			if ink(img.Pix[i], img.Pix[i+1], img.Pix[i+2]) {
				v = fg
			}
			o := bin.PixOffset(x, y)
			bin.Pix[o], bin.Pix[o+1], bin.Pix[o+2], bin.Pix[o+3] = v, v, v, 255
		}
	}
	text, _, err = tr.Recognize(bin, bin.Bounds())
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}
