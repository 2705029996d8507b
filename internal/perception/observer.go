package perception

import "time"

// Observer receives one event per engine call. The metrics manager
// implements it; a nil Observer disables instrumentation.
type Observer interface {
	ObserveBlank()
	ObserveClassification(reader string, confidence float64)
	ObserveRead(reader string, elapsed time.Duration, err error)
}
