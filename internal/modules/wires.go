package modules

import (
	"fmt"
	"image"
	"strings"

	"bomb-vision/internal/decode"
	"bomb-vision/internal/lighting"
	"bomb-vision/internal/overlay"
	"bomb-vision/internal/palette"
	"bomb-vision/internal/perception"
	"bomb-vision/pkg/colorutil"
)

func isWireColour(c palette.Colour, allowed []palette.Colour) bool {
	for _, a := range allowed {
		if c == a {
			return true
		}
	}
	return false
}

// Wires

var (
	wireColours  = []palette.Colour{palette.Red, palette.White, palette.Blue, palette.Yellow, palette.Black}
	wireSampleXs = []int{70, 120, 170}
)

const (
	wireSlots  = 6
	wireTop    = 52
	wirePitch  = 28
	wireLeftX  = 32
	wireRightX = 196
)

func wireY(slot int) int { return wireTop + slot*wirePitch }

// WiresResult lists the wires top to bottom.
type WiresResult struct {
	Colours []palette.Colour
}

func (r WiresResult) String() string { return fmt.Sprint(r.Colours) }

// Wires reads the simple wires module: up to six horizontal wires.
type Wires struct{ base }

func NewWires() *Wires { return &Wires{solvable(perception.KindWires)} }

func (w *Wires) wire(img *image.RGBA, slot int, light lighting.State, dbg *overlay.Canvas) (palette.Colour, bool) {
	y := wireY(slot)
	var first palette.Colour
	for i, x := range wireSampleXs {
		patch := image.Rect(x-6, y-2, x+6, y+2)
		dbg.Rect(patch, colorutil.Cyan)
		c := palette.Dominant(img, patch, light)
		if !isWireColour(c, wireColours) || (i > 0 && c != first) {
			return palette.None, false
		}
		first = c
	}
	return first, true
}

func terminalsPresent(img *image.RGBA, light lighting.State) float64 {
	var conds []bool
	for slot := 0; slot < wireSlots; slot++ {
		y := wireY(slot)
		for _, x := range []int{wireLeftX, wireRightX} {
			conds = append(conds, decode.AtLeast(img, image.Rect(x, y-6, x+12, y+6), keyFace(light), 0.5))
		}
	}
	return share(conds...)
}

func (w *Wires) IsPresent(img *image.RGBA, light lighting.State) float64 {
	n := 0
	for slot := 0; slot < wireSlots; slot++ {
		if _, ok := w.wire(img, slot, light, nil); ok {
			n++
		}
	}
	if n < 3 {
		return 0
	}
	return 0.6 + 0.4*terminalsPresent(img, light)
}

func (w *Wires) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	var res WiresResult
	for slot := 0; slot < wireSlots; slot++ {
		if c, ok := w.wire(img, slot, light, dbg); ok {
			res.Colours = append(res.Colours, c)
		}
	}
	return res, nil
}

// Complicated wires

var cwireColours = []palette.Colour{palette.White, palette.Red, palette.Blue}

const (
	cwireSlots = 6
	cwireLeft  = 48
	cwirePitch = 32
)

func cwireX(slot int) int { return cwireLeft + slot*cwirePitch }

// CWire is one slot of the complicated wires module.
type CWire struct {
	Present bool
	Colours []palette.Colour // distinct colours, top first; two for striped wires
	LED     bool
	Star    bool
}

func (w CWire) String() string {
	if !w.Present {
		return "-"
	}
	var parts []string
	for _, c := range w.Colours {
		parts = append(parts, c.String())
	}
	s := strings.Join(parts, "/")
	if w.LED {
		s += "+led"
	}
	if w.Star {
		s += "+star"
	}
	return s
}

// ComplicatedWiresResult lists the six slots left to right.
type ComplicatedWiresResult struct {
	Slots [cwireSlots]CWire
}

func (r ComplicatedWiresResult) String() string {
	parts := make([]string, len(r.Slots))
	for i, s := range r.Slots {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// ComplicatedWires reads six vertical wires with an LED above and a star
// label below each.
type ComplicatedWires struct{ base }

func NewComplicatedWires() *ComplicatedWires {
	return &ComplicatedWires{solvable(perception.KindComplicatedWires)}
}

func cwireLabel(slot int) image.Rectangle {
	x := cwireX(slot)
	return image.Rect(x-12, 196, x+12, 228)
}

func (c *ComplicatedWires) IsPresent(img *image.RGBA, light lighting.State) float64 {
	var labels []bool
	wires := 0
	for slot := 0; slot < cwireSlots; slot++ {
		labels = append(labels, decode.AtLeast(img, cwireLabel(slot), keyFace(light), 0.5))
		x := cwireX(slot)
		if isWireColour(palette.Dominant(img, image.Rect(x-2, 80, x+2, 110), light), cwireColours) {
			wires++
		}
	}
	score := 0.7 * share(labels...)
	if wires > 0 {
		score += 0.3
	}
	return score
}

func (c *ComplicatedWires) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	var res ComplicatedWiresResult
	bright := func(r, g, b uint8) bool {
		r, g, b = lighting.CorrectRGB(r, g, b, light)
		return colorutil.Luma(r, g, b) > 180
	}
	for slot := 0; slot < cwireSlots; slot++ {
		x := cwireX(slot)
		var w CWire
		for y := 72; y < 172; y += 20 {
			patch := image.Rect(x-2, y, x+2, y+12)
			dbg.Rect(patch, colorutil.Cyan)
			col := palette.Dominant(img, patch, light)
			if !isWireColour(col, cwireColours) {
				continue
			}
			w.Present = true
			if !isWireColour(col, w.Colours) {
				w.Colours = append(w.Colours, col)
			}
		}
		led := image.Rect(x-6, 28, x+6, 40)
		label := cwireLabel(slot)
		dbg.Rect(led, colorutil.Yellow)
		dbg.Rect(label, colorutil.Magenta)
		w.LED = decode.AtLeast(img, led, bright, 0.3)
		w.Star = decode.AtLeast(img, label.Inset(4), inkOnKey(light), 0.08)
		res.Slots[slot] = w
	}
	return res, nil
}

// Wire sequence

var (
	seqColours   = []palette.Colour{palette.Red, palette.Blue, palette.Black}
	seqTerminalY = []int{70, 120, 170}
)

const (
	seqFromX = 60
	seqToX   = 196
	// Share of samples along a candidate path that must show the wire
	// colour. Tuned heuristics: the strict pass reads the exact path pixel,
	// the loose pass accepts a neighbour within two pixels.
	seqStrict = 0.9
	seqLoose  = 0.6
)

// SeqWire is one wire of the current wire sequence panel.
type SeqWire struct {
	From   int  // 1-3
	To     byte // 'A'-'C'
	Colour palette.Colour
}

func (w SeqWire) String() string { return fmt.Sprintf("%d%c:%v", w.From, w.To, w.Colour) }

// WireSequenceResult is the visible panel and the stage number.
type WireSequenceResult struct {
	Stage int
	Wires []SeqWire
}

func (r WireSequenceResult) String() string {
	return fmt.Sprintf("stage %d %v", r.Stage, r.Wires)
}

// WireSequence reads one panel of up to three wires between numbered and
// lettered terminals.
type WireSequence struct{ base }

func NewWireSequence() *WireSequence { return &WireSequence{solvable(perception.KindWireSequence)} }

func seqTerminals() []image.Rectangle {
	var out []image.Rectangle
	for _, y := range seqTerminalY {
		out = append(out, image.Rect(40, y-8, seqFromX, y+8), image.Rect(seqToX, y-8, seqToX+20, y+8))
	}
	return out
}

func (s *WireSequence) IsPresent(img *image.RGBA, light lighting.State) float64 {
	n := keysPresent(img, seqTerminals(), light)
	if n < 5 {
		return 0
	}
	return float64(n) / 6
}

// pathScore returns the dominant wire colour along the straight path from
// terminal i to terminal j and the share of samples showing it. A sample
// matches if any pixel within radius of it has the colour.
func pathScore(img *image.RGBA, i, j, radius int, light lighting.State) (palette.Colour, float64) {
	const samples = 15
	counts := make([]int, len(seqColours))
	from := image.Pt(seqFromX, seqTerminalY[i])
	to := image.Pt(seqToX, seqTerminalY[j])
	for k := 0; k < samples; k++ {
		t := 0.15 + 0.7*float64(k)/float64(samples-1)
		x := from.X + int(t*float64(to.X-from.X)+0.5)
		y := from.Y + int(t*float64(to.Y-from.Y)+0.5)
		near := image.Rect(x-radius, y-radius, x+radius+1, y+radius+1)
		for ci, wc := range seqColours {
			if decode.AnyMatch(img, near, palette.Is(wc, light)) {
				counts[ci]++
			}
		}
	}
	best := 0
	for ci := range counts {
		if counts[ci] > counts[best] {
			best = ci
		}
	}
	return seqColours[best], float64(counts[best]) / samples
}

func (s *WireSequence) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	res := WireSequenceResult{Stage: readStage(img, light, dbg)}
	for i := range seqTerminalY {
		for _, pass := range []struct {
			radius    int
			threshold float64
		}{{0, seqStrict}, {2, seqLoose}} {
			bestJ, bestScore, bestColour := -1, pass.threshold, palette.None
			for j := range seqTerminalY {
				c, score := pathScore(img, i, j, pass.radius, light)
				if score >= bestScore {
					bestJ, bestScore, bestColour = j, score, c
				}
			}
			if bestJ >= 0 {
				res.Wires = append(res.Wires, SeqWire{From: i + 1, To: byte('A' + bestJ), Colour: bestColour})
				dbg.Line(image.Pt(seqFromX, seqTerminalY[i]), image.Pt(seqToX, seqTerminalY[bestJ]), colorutil.Yellow)
				break
			}
		}
	}
	return res, nil
}
