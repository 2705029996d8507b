package modules

import (
	"bomb-vision/internal/assets"
	"bomb-vision/internal/perception"
)

// All returns one reader per module kind in registration order. Ties in
// IsPresent resolve to the earlier entry, so the order is part of the
// classification contract.
func All(b assets.Bundle) []perception.Reader {
	return []perception.Reader{
		NewWires(),
		NewButton(b),
		NewKeypad(b),
		NewSimonSays(),
		NewWhosOnFirst(b),
		NewMemory(b),
		NewMorseCode(),
		NewComplicatedWires(),
		NewWireSequence(),
		NewMaze(),
		NewPassword(b),
		NewColourFlash(b),
		NewPianoKeys(b),
		NewSemaphore(),
		NewEmojiMath(b),
		NewSwitches(),
		NewLetterKeys(b),
		NewSquareButton(b),
		NewColouredSquares(),
		NewAnagrams(b),
		NewWordScramble(b),
		NewRoundKeypad(b),
		NewVentingGas(b),
		NewCapacitorDischarge(),
		NewKnobs(),
		NewTimer(),
	}
}
