package tracker

import "blob-tracker/internal/calibration"

// EventType identifies tracker events.
type EventType int

const (
	EventBackgroundReset EventType = iota
	EventSampleCaptured
	EventCalibrated
	EventCalibrationFailed
	EventUncalibrated
	EventCalibrationSaved
	EventSaveFailed
)

func (e EventType) String() string {
	switch e {
	case EventBackgroundReset:
		return "background-reset"
	case EventSampleCaptured:
		return "sample-captured"
	case EventCalibrated:
		return "calibrated"
	case EventCalibrationFailed:
		return "calibration-failed"
	case EventUncalibrated:
		return "uncalibrated"
	case EventCalibrationSaved:
		return "calibration-saved"
	case EventSaveFailed:
		return "save-failed"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners synchronously from Tick.
type Event struct {
	Type    EventType
	Capture calibration.Capture
	Err     error
}

// EventListener is a callback for tracker events.
type EventListener func(Event)

// On registers an event listener for the specified event type.
func (t *Tracker) On(event EventType, listener EventListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners[event] = append(t.listeners[event], listener)
}

func (t *Tracker) emit(e Event) {
	t.mu.RLock()
	listeners := t.listeners[e.Type]
	t.mu.RUnlock()

	for _, listener := range listeners {
		listener(e)
	}
}
