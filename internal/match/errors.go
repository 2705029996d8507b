package match

import "errors"

var (
	// ErrNoCandidate is returned when every vocabulary entry was pruned
	// before scoring.
	ErrNoCandidate = errors.New("no text candidate survived pruning")

	// ErrNoTemplates is returned when a template set is empty.
	ErrNoTemplates = errors.New("no reference templates")

	// ErrBadAsset is returned when a reference bitmap or font cannot be decoded.
	ErrBadAsset = errors.New("bad reference asset")
)
