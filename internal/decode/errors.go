package decode

import "errors"

// ErrUnrecognizedSegments means a seven-segment digit showed a lit pattern
// that is not one of the ten digits. An all-dark digit is not an error.
var ErrUnrecognizedSegments = errors.New("unrecognized segment pattern")

// ErrUnreadable means a faceplate element that must be present (a pad, a
// flag, a cap colour) could not be read from the image.
var ErrUnreadable = errors.New("unreadable faceplate")
