// Package perception selects and runs the reader for one module region of
// a bomb screenshot.
package perception

import (
	"fmt"
	"image"
	"strings"

	"bomb-vision/internal/lighting"
	"bomb-vision/internal/overlay"
)

// FrameType is the coarse category of a rectified module image.
type FrameType int

const (
	Blank FrameType = iota
	Solvable
	Needy
	Timer
	Widget
)

func (f FrameType) String() string {
	switch f {
	case Blank:
		return "Blank"
	case Solvable:
		return "Solvable"
	case Needy:
		return "Needy"
	case Timer:
		return "Timer"
	case Widget:
		return "Widget"
	default:
		return fmt.Sprintf("FrameType(%d)", int(f))
	}
}

// Kind identifies a reader. The set is closed: every reader has exactly one
// Kind and every Kind is registered exactly once.
type Kind int

const (
	KindWires Kind = iota
	KindButton
	KindKeypad
	KindSimonSays
	KindWhosOnFirst
	KindMemory
	KindMorseCode
	KindComplicatedWires
	KindWireSequence
	KindMaze
	KindPassword
	KindColourFlash
	KindPianoKeys
	KindSemaphore
	KindEmojiMath
	KindSwitches
	KindLetterKeys
	KindSquareButton
	KindColouredSquares
	KindAnagrams
	KindWordScramble
	KindRoundKeypad
	KindVentingGas
	KindCapacitorDischarge
	KindKnobs
	KindTimer

	KindSerialNumber
	KindBatteries
	KindPortPlate
	KindIndicator

	kindCount
)

var kindNames = [kindCount]string{
	KindWires:              "Wires",
	KindButton:             "Button",
	KindKeypad:             "Keypad",
	KindSimonSays:          "SimonSays",
	KindWhosOnFirst:        "WhosOnFirst",
	KindMemory:             "Memory",
	KindMorseCode:          "MorseCode",
	KindComplicatedWires:   "ComplicatedWires",
	KindWireSequence:       "WireSequence",
	KindMaze:               "Maze",
	KindPassword:           "Password",
	KindColourFlash:        "ColourFlash",
	KindPianoKeys:          "PianoKeys",
	KindSemaphore:          "Semaphore",
	KindEmojiMath:          "EmojiMath",
	KindSwitches:           "Switches",
	KindLetterKeys:         "LetterKeys",
	KindSquareButton:       "SquareButton",
	KindColouredSquares:    "ColouredSquares",
	KindAnagrams:           "Anagrams",
	KindWordScramble:       "WordScramble",
	KindRoundKeypad:        "RoundKeypad",
	KindVentingGas:         "VentingGas",
	KindCapacitorDischarge: "CapacitorDischarge",
	KindKnobs:              "Knobs",
	KindTimer:              "Timer",
	KindSerialNumber:       "SerialNumber",
	KindBatteries:          "Batteries",
	KindPortPlate:          "PortPlate",
	KindIndicator:          "Indicator",
}

func (k Kind) String() string {
	if k >= 0 && k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kinds returns every Kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// IsWidget reports whether k belongs to the widget family.
func (k Kind) IsWidget() bool {
	return k >= KindSerialNumber && k < kindCount
}

// ParseKind parses a reader name (case-insensitive).
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownReader, s)
}

// Result is the structured reading of one module.
type Result interface {
	String() string
}

// Reader recognizes and decodes one module or widget type. Images passed to
// a Reader are rectified squares of the engine's size. Implementations hold
// only immutable reference data and are safe for concurrent use.
type Reader interface {
	Kind() Kind
	Name() string
	FrameType() FrameType

	// IsPresent returns an unbounded confidence that img shows this reader's
	// module. Negative values are strong anti-signals.
	IsPresent(img *image.RGBA, light lighting.State) float64

	// Process decodes the full state or fails; there are no partial results.
	// dbg may be nil.
	Process(img *image.RGBA, light lighting.State, dbg *overlay.Canvas) (Result, error)
}
