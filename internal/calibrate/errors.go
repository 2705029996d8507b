package calibrate

import "errors"

// Geometry failures. Both are fatal for the current screenshot; callers
// should retry with a fresh capture rather than trust the result.
var (
	ErrCornerNotFound = errors.New("corner not found")
	ErrEdgeNotFound   = errors.New("edge not found")
)
