package modules

import (
	"fmt"
	"image"
	"strconv"
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

func letters() []string {
	out := make([]string, 0, 26)
	for c := 'A'; c <= 'Z'; c++ {
		out = append(out, string(c))
	}
	return out
}

func darkShare(img *image.RGBA, r image.Rectangle, light lighting.State, min float64) float64 {
	if decode.AtLeast(img, r, perception.Dark(light), min) {
		return 1
	}
	return 0
}

func readDisplay(img *image.RGBA, r image.Rectangle, light lighting.State, text *lazyText, dbg *overlay.Canvas) (string, error) {
	tr, err := text.Get()
	if err != nil {
		return "", err
	}
	dbg.Rect(r, colorutil.Green)
	word, _, err := tr.RecognizeInk(img, r, litInk(light))
	if err != nil {
		return "", fmt.Errorf("display: %w", err)
	}
	return word, nil
}

// Who's on First

var (
	wofDisplay = image.Rect(40, 28, 200, 72)
	wofKeys    = grid(40, 88, 80, 36, 96, 46, 2, 3)

	wofDisplayWords = []string{
		"YES", "FIRST", "DISPLAY", "OKAY", "SAYS", "NOTHING", "BLANK", "NO",
		"LED", "LEAD", "READ", "RED", "REED", "LEED", "HOLD ON", "YOU",
		"YOU ARE", "YOUR", "YOU'RE", "UR", "THERE", "THEY'RE", "THEIR",
		"THEY ARE", "SEE", "C", "CEE",
	}
	wofKeyWords = []string{
		"READY", "FIRST", "NO", "BLANK", "NOTHING", "YES", "WHAT", "UHHH",
		"LEFT", "RIGHT", "MIDDLE", "OKAY", "WAIT", "PRESS", "YOU", "YOU ARE",
		"YOUR", "YOU'RE", "UR", "U", "UH HUH", "UH UH", "WHAT?", "DONE",
		"NEXT", "HOLD", "SURE", "LIKE",
	}
)

// WhosOnFirstResult is the display word, the six key labels in reading
// order and the stage. An empty display reads as "".
type WhosOnFirstResult struct {
	Display string
	Labels  []string
	Stage   int
}

func (r WhosOnFirstResult) String() string {
	return fmt.Sprintf("%q %q stage %d", r.Display, r.Labels, r.Stage)
}

// WhosOnFirst reads a display word and six labelled keys.
type WhosOnFirst struct {
	base
	display *lazyText
	keys    *lazyText
}

func NewWhosOnFirst(b assets.Bundle) *WhosOnFirst {
	return &WhosOnFirst{
		base:    solvable(perception.KindWhosOnFirst),
		display: newLazyText(b.Font, wordSize, wofDisplayWords),
		keys:    newLazyText(b.Font, wordSize, wofKeyWords),
	}
}

func (w *WhosOnFirst) IsPresent(img *image.RGBA, light lighting.State) float64 {
	n := keysPresent(img, wofKeys, light)
	if n < 4 {
		return 0
	}
	return 0.4*darkShare(img, wofDisplay, light, 0.7) + 0.6*float64(n)/float64(len(wofKeys))
}

func (w *WhosOnFirst) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	display, err := readDisplay(img, wofDisplay, light, w.display, dbg)
	if err != nil {
		return nil, err
	}
	tr, err := w.keys.Get()
	if err != nil {
		return nil, err
	}
	labels, err := readKeyLabels(img, wofKeys, light, tr, dbg)
	if err != nil {
		return nil, err
	}
	return WhosOnFirstResult{Display: display, Labels: labels, Stage: readStage(img, light, dbg)}, nil
}

// Memory

var (
	memoryDisplay = image.Rect(76, 28, 164, 104)
	memoryKeys    = grid(36, 128, 38, 56, 46, 0, 4, 1)
	memoryDigits  = []string{"1", "2", "3", "4"}
)

// MemoryResult is the displayed digit, the key digits left to right and the
// stage. Zero means the position was blank.
type MemoryResult struct {
	Display int
	Labels  [4]int
	Stage   int
}

func (r MemoryResult) String() string {
	return fmt.Sprintf("%d %v stage %d", r.Display, r.Labels, r.Stage)
}

// Memory reads the big digit and the four numbered keys.
type Memory struct {
	base
	digits *lazyText
}

func NewMemory(b assets.Bundle) *Memory {
	return &Memory{
		base:   solvable(perception.KindMemory),
		digits: newLazyText(b.Font, wordSize, memoryDigits),
	}
}

func (m *Memory) IsPresent(img *image.RGBA, light lighting.State) float64 {
	n := keysPresent(img, memoryKeys, light)
	if n < 3 {
		return 0
	}
	return 0.4*darkShare(img, memoryDisplay, light, 0.7) + 0.6*float64(n)/float64(len(memoryKeys))
}

func (m *Memory) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	display, err := readDisplay(img, memoryDisplay, light, m.digits, dbg)
	if err != nil {
		return nil, err
	}
	tr, err := m.digits.Get()
	if err != nil {
		return nil, err
	}
	labels, err := readKeyLabels(img, memoryKeys, light, tr, dbg)
	if err != nil {
		return nil, err
	}
	res := MemoryResult{Stage: readStage(img, light, dbg)}
	res.Display, _ = strconv.Atoi(display)
	for i, l := range labels {
		res.Labels[i], _ = strconv.Atoi(l)
	}
	return res, nil
}

// Password

var passwordWindows = grid(36, 100, 32, 52, 38, 0, 5, 1)

// PasswordResult is the five visible letters.
type PasswordResult struct {
	Letters string
}

func (r PasswordResult) String() string { return r.Letters }

// Password reads five letter windows on a green LCD.
type Password struct {
	base
	text *lazyText
}

func NewPassword(b assets.Bundle) *Password {
	return &Password{base: solvable(perception.KindPassword), text: newLazyText(b.Font, charSize, letters())}
}

func (p *Password) IsPresent(img *image.RGBA, light lighting.State) float64 {
	var conds []bool
	for _, w := range passwordWindows {
		conds = append(conds, decode.AtLeast(img, w, palette.Is(palette.Green, light), 0.5))
	}
	return share(conds...)
}

func (p *Password) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	tr, err := p.text.Get()
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for i, w := range passwordWindows {
		dbg.Rect(w, colorutil.Cyan)
		letter, ok, err := tr.RecognizeInk(img, w.Inset(2), inkOnKey(light))
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		if !ok {
			return nil, fmt.Errorf("window %d: %w", i, match.ErrNoCandidate)
		}
		sb.WriteString(letter)
	}
	return PasswordResult{Letters: sb.String()}, nil
}

// Colour flash

var (
	flashDisplay = image.Rect(40, 56, 216, 128)
	flashKeys    = []image.Rectangle{image.Rect(40, 168, 112, 208), image.Rect(144, 168, 216, 208)}
)

// ColourFlashResult is the current word and the colour it is printed in.
type ColourFlashResult struct {
	Word   string
	Colour palette.Colour
}

func (r ColourFlashResult) String() string { return fmt.Sprintf("%s in %v", r.Word, r.Colour) }

// ColourFlash reads the coloured word on its display.
type ColourFlash struct {
	base
	text *lazyText
}

func NewColourFlash(b assets.Bundle) *ColourFlash {
	return &ColourFlash{
		base: solvable(perception.KindColourFlash),
		text: newLazyText(b.Font, wordSize, []string{"RED", "YELLOW", "GREEN", "BLUE", "MAGENTA", "WHITE"}),
	}
}

func (c *ColourFlash) IsPresent(img *image.RGBA, light lighting.State) float64 {
	return 0.5*darkShare(img, flashDisplay, light, 0.6) +
		0.5*float64(keysPresent(img, flashKeys, light))/float64(len(flashKeys))
}

func (c *ColourFlash) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	tr, err := c.text.Get()
	if err != nil {
		return nil, err
	}
	dark := perception.Dark(light)
	ink := func(r, g, b uint8) bool { return !dark(r, g, b) }
	dbg.Rect(flashDisplay, colorutil.Green)
	word, ok, err := tr.RecognizeInk(img, flashDisplay, ink)
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	if !ok {
		return ColourFlashResult{}, nil
	}
	return ColourFlashResult{
		Word:   word,
		Colour: palette.Dominant(img, flashDisplay, light, palette.Black, palette.Grey),
	}, nil
}

// Anagrams and word scramble share one face: a display over six letter
// keys and two command keys.

var (
	scrambleDisplay = image.Rect(40, 32, 216, 84)
	scrambleLetters = grid(34, 108, 28, 36, 32, 0, 6, 1)
	scrambleKeys    = append(append([]image.Rectangle{}, scrambleLetters...),
		image.Rect(40, 176, 120, 212), image.Rect(136, 176, 216, 212))

	anagramWords = []string{
		"STREAM", "MASTER", "TAMERS", "LOOPED", "POODLE", "POOLED",
		"CELLAR", "CALLER", "RECALL", "SEATED", "SEDATE", "TEASED",
		"RESCUE", "SECURE", "RECUSE", "RASHES", "SHEARS", "SHARES",
		"BARELY", "BARLEY", "BLEARY", "DUSTER", "RUSTED", "RUDEST",
	}
)

func scrambleLayout(img *image.RGBA, light lighting.State) (float64, bool) {
	n := keysPresent(img, scrambleKeys, light)
	if n < 6 || !decode.AtLeast(img, scrambleDisplay, perception.Dark(light), 0.6) {
		return 0, false
	}
	return 0.7 * float64(n) / float64(len(scrambleKeys)), decode.AnyMatch(img, scrambleDisplay, litInk(light))
}

// WordResult is a single recognized word.
type WordResult struct {
	Word string
}

func (r WordResult) String() string { return r.Word }

// Anagrams reads the word shown on the display.
type Anagrams struct {
	base
	text *lazyText
}

func NewAnagrams(b assets.Bundle) *Anagrams {
	return &Anagrams{base: solvable(perception.KindAnagrams), text: newLazyText(b.Font, wordSize, anagramWords)}
}

func (a *Anagrams) IsPresent(img *image.RGBA, light lighting.State) float64 {
	score, lit := scrambleLayout(img, light)
	if lit {
		return score + 0.3
	}
	return score - 0.3
}

func (a *Anagrams) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	word, err := readDisplay(img, scrambleDisplay, light, a.text, dbg)
	if err != nil {
		return nil, err
	}
	return WordResult{Word: word}, nil
}

// WordScramble reads the six letters printed on the keys.
type WordScramble struct {
	base
	text *lazyText
}

func NewWordScramble(b assets.Bundle) *WordScramble {
	return &WordScramble{base: solvable(perception.KindWordScramble), text: newLazyText(b.Font, charSize, letters())}
}

func (w *WordScramble) IsPresent(img *image.RGBA, light lighting.State) float64 {
	score, lit := scrambleLayout(img, light)
	if lit {
		return score - 0.3
	}
	return score + 0.3
}

func (w *WordScramble) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	tr, err := w.text.Get()
	if err != nil {
		return nil, err
	}
	labels, err := readKeyLabels(img, scrambleLetters, light, tr, dbg)
	if err != nil {
		return nil, err
	}
	return WordResult{Word: strings.Join(labels, "")}, nil
}

// Emoji math

var (
	emojiDisplay = image.Rect(24, 36, 232, 96)
	emojiCells   = grid(28, 40, 40, 52, 40, 0, 5, 1)
	emojiKeys    = grid(48, 116, 40, 26, 56, 32, 3, 4)

	// emojiDigits maps each emoticon to its digit by index.
	emojiDigits = []string{":)", "=(", "(:", ")=", ":(", "):", "=)", "(=", ":|", "|:"}
)

// EmojiMathResult is the displayed sum or difference.
type EmojiMathResult struct {
	Left, Right int
	Op          byte
}

func (r EmojiMathResult) String() string { return fmt.Sprintf("%d %c %d", r.Left, r.Op, r.Right) }

// EmojiMath reads two emoticon-encoded numbers and an operator.
type EmojiMath struct {
	base
	digits *lazyText
	ops    *lazyText
}

func NewEmojiMath(b assets.Bundle) *EmojiMath {
	return &EmojiMath{
		base:   solvable(perception.KindEmojiMath),
		digits: newLazyText(b.Font, charSize, emojiDigits),
		ops:    newLazyText(b.Font, charSize, []string{"+", "-"}),
	}
}

func (e *EmojiMath) IsPresent(img *image.RGBA, light lighting.State) float64 {
	return 0.4*darkShare(img, emojiDisplay, light, 0.6) +
		0.6*float64(keysPresent(img, emojiKeys, light))/float64(len(emojiKeys))
}

func (e *EmojiMath) number(img *image.RGBA, cells []image.Rectangle, light lighting.State, dbg *overlay.Canvas) (int, error) {
	tr, err := e.digits.Get()
	if err != nil {
		return 0, err
	}
	n, shown := 0, false
	for _, c := range cells {
		dbg.Rect(c, colorutil.Cyan)
		face, ok, err := tr.RecognizeInk(img, c, litInk(light))
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		for d, s := range emojiDigits {
			if s == face {
				n = n*10 + d
			}
		}
		shown = true
	}
	if !shown {
		return 0, fmt.Errorf("%w: empty operand", match.ErrNoCandidate)
	}
	return n, nil
}

func (e *EmojiMath) Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (perception.Result, error) {
	left, err := e.number(img, emojiCells[:2], light, dbg)
	if err != nil {
		return nil, fmt.Errorf("left: %w", err)
	}
	right, err := e.number(img, emojiCells[3:], light, dbg)
	if err != nil {
		return nil, fmt.Errorf("right: %w", err)
	}
	ops, err := e.ops.Get()
	if err != nil {
		return nil, err
	}
	op, ok, err := ops.RecognizeInk(img, emojiCells[2], litInk(light))
	if err != nil {
		return nil, fmt.Errorf("operator: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("operator: %w", match.ErrNoCandidate)
	}
	return EmojiMathResult{Left: left, Right: right, Op: op[0]}, nil
}
