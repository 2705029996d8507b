package perception

import (
	"errors"

	"bomb-vision/internal/calibrate"
	"bomb-vision/internal/decode"
	"bomb-vision/internal/match"
)

var (
	// ErrUnknownReader is returned for a reader name or Kind that is not
	// registered.
	ErrUnknownReader = errors.New("unknown reader")

	// ErrWrongSize is returned when a rectified image does not have the
	// engine's canonical size.
	ErrWrongSize = errors.New("rectified image has the wrong size")

	// ErrBadQuad is returned for quadrilaterals that do not overlap the
	// screenshot or have no area.
	ErrBadQuad = errors.New("quadrilateral outside screenshot")
)

// ErrorKind tells a caller what to do about a failed read.
type ErrorKind int

const (
	NoError       ErrorKind = iota
	GeometryError           // retry with a fresh screenshot
	DecodeError             // the region holds something unreadable
	AssetError              // reference data is broken; retrying will not help
	InternalError
)

func (k ErrorKind) String() string {
	switch k {
	case NoError:
		return "none"
	case GeometryError:
		return "geometry"
	case DecodeError:
		return "decode"
	case AssetError:
		return "asset"
	default:
		return "internal"
	}
}

// KindOf classifies err by the sentinel it wraps.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return NoError
	case errors.Is(err, calibrate.ErrCornerNotFound),
		errors.Is(err, calibrate.ErrEdgeNotFound),
		errors.Is(err, ErrBadQuad):
		return GeometryError
	case errors.Is(err, decode.ErrUnrecognizedSegments),
		errors.Is(err, decode.ErrUnreadable),
		errors.Is(err, match.ErrNoCandidate):
		return DecodeError
	case errors.Is(err, match.ErrNoTemplates),
		errors.Is(err, match.ErrBadAsset):
		return AssetError
	default:
		return InternalError
	}
}
