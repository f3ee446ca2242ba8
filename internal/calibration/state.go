package calibration

import (
	"fmt"

	"blob-tracker/internal/blob"
	"blob-tracker/pkg/geometry"
)

// Phase is the capture state machine position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingTarget1
	PhaseAwaitingTarget2
	PhaseAwaitingTarget3
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingTarget1:
		return "awaiting target 1"
	case PhaseAwaitingTarget2:
		return "awaiting target 2"
	case PhaseAwaitingTarget3:
		return "awaiting target 3"
	default:
		return "unknown"
	}
}

// Capture describes what one Observe call did.
type Capture struct {
	// Recorded is true when a sample was stored this tick.
	Recorded bool
	// Target is the 1-based target number that was recorded.
	Target int
	// Raw is the recorded camera-space point.
	Raw geometry.Point2D
	// Solved is true when this capture completed the set and the solve
	// succeeded.
	Solved bool
	// Err holds the solve failure, if the solve ran and failed.
	Err error
}

// State is the calibration data carried from tick to tick: targets,
// captured samples, the solved coefficients and the capture phase.
// It is not safe for concurrent use; one tick owns it at a time.
type State struct {
	targets Targets
	samples Samples

	// solved holds the samples the current coefficients were derived
	// from. A failed re-solve changes samples but not solved.
	solved       Samples
	phase        Phase
	coefficients Coefficients
	calibrated   bool
}

// NewState creates an uncalibrated state with no samples captured.
func NewState(targets Targets) *State {
	return &State{
		targets: targets,
		samples: NewSamples(),
		solved:  NewSamples(),
	}
}

// Targets returns the fixed screen targets.
func (s *State) Targets() Targets { return s.targets }

// Samples returns a copy of the captured samples, including any recapture
// that has not solved yet.
func (s *State) Samples() Samples { return s.samples }

// SolvedSamples returns the samples behind the current coefficients, or an
// unset sample set when not calibrated.
func (s *State) SolvedSamples() Samples { return s.solved }

// Phase returns the current capture phase.
func (s *State) Phase() Phase { return s.phase }

// Calibrated reports whether coefficients are available.
func (s *State) Calibrated() bool { return s.calibrated }

// Coefficients returns the solved coefficients and whether they are valid.
func (s *State) Coefficients() (Coefficients, bool) {
	return s.coefficients, s.calibrated
}

// Select arms capture for target n (1-based). The next Observe with at least
// one blob records it. Selecting again before a capture replaces the request.
func (s *State) Select(n int) error {
	if n < 1 || n > NumTargets {
		return fmt.Errorf("%w: %d", ErrInvalidTarget, n)
	}
	s.phase = Phase(n)
	return nil
}

// Observe feeds one tick's detection result into the state machine. While a
// target is selected, the first blob's center is recorded for it and the
// phase returns to idle. When every row holds a sample the solver runs.
// No blobs is a wait condition, not an error.
func (s *State) Observe(blobs []blob.Blob, frameWidth, frameHeight int) Capture {
	if s.phase == PhaseIdle {
		return Capture{}
	}
	b, ok := blob.First(blobs)
	if !ok {
		return Capture{}
	}

	n := int(s.phase)
	raw := b.RawCenter(frameWidth, frameHeight)
	s.samples.Set(n-1, raw)
	s.phase = PhaseIdle

	c := Capture{Recorded: true, Target: n, Raw: raw}
	if !s.samples.Complete() {
		return c
	}

	coeffs, err := Solve(s.samples, s.targets)
	if err != nil {
		c.Err = err
		return c
	}
	s.coefficients = coeffs
	s.solved = s.samples
	s.calibrated = true
	c.Solved = true
	return c
}

// Uncalibrate drops the coefficients and every captured sample, so all
// three targets must be captured again before the next solve.
func (s *State) Uncalibrate() {
	s.calibrated = false
	s.coefficients = Coefficients{}
	s.samples.Clear()
	s.solved.Clear()
	s.phase = PhaseIdle
}

// Restore installs previously solved coefficients and the samples they
// came from, e.g. after loading a calibration file.
func (s *State) Restore(samples Samples, coeffs Coefficients) {
	s.samples = samples
	s.solved = samples
	s.coefficients = coeffs
	s.calibrated = true
	s.phase = PhaseIdle
}

// Map converts a raw camera-space point to screen space. ok is false when
// the state is not calibrated.
func (s *State) Map(raw geometry.Point2D) (geometry.Point2D, bool) {
	if !s.calibrated {
		return geometry.Point2D{}, false
	}
	return s.coefficients.Map(raw), true
}
