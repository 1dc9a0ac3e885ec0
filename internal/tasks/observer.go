package tasks

import "time"

// Observer receives export telemetry. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveStage(stage Stage, elapsed time.Duration, err error)
	ObserveResolution(found bool)
	// ObserveExport records a finished export; kind is empty on success.
	ObserveExport(kind FailureKind)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) ObserveStage(Stage, time.Duration, error) {}
func (NopObserver) ObserveResolution(bool)                   {}
func (NopObserver) ObserveExport(FailureKind)                {}
