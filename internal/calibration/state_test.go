package calibration

import (
	"testing"

	"blob-tracker/internal/blob"
	"blob-tracker/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobAt returns a tiny blob whose raw center in a 100x100 frame is (x, y).
func blobAt(x, y float64) blob.Blob {
	return blob.Blob{XMin: x/100 - 0.01, YMin: y/100 - 0.01, XMax: x/100 + 0.01, YMax: y/100 + 0.01}
}

func workedTargets() Targets {
	return Targets{{X: 100, Y: 100}, {X: 100, Y: 200}, {X: 200, Y: 100}}
}

func capture(t *testing.T, s *State, n int, x, y float64) Capture {
	t.Helper()
	require.NoError(t, s.Select(n))
	return s.Observe([]blob.Blob{blobAt(x, y)}, 100, 100)
}

func TestStateCapturesAndSolves(t *testing.T) {
	s := NewState(workedTargets())
	assert.Equal(t, PhaseIdle, s.Phase())

	c := capture(t, s, 1, 0, 0)
	assert.True(t, c.Recorded)
	assert.Equal(t, 1, c.Target)
	assert.False(t, c.Solved)
	assert.Equal(t, PhaseIdle, s.Phase())

	capture(t, s, 2, 0, 10)
	c = capture(t, s, 3, 10, 0)
	require.NoError(t, c.Err)
	assert.True(t, c.Solved)
	assert.True(t, s.Calibrated())

	got, ok := s.Map(geometry.NewPoint2D(5, 5))
	require.True(t, ok)
	assert.InDelta(t, 150, got.X, 1e-6)
	assert.InDelta(t, 150, got.Y, 1e-6)
}

func TestStateWaitsForBlob(t *testing.T) {
	s := NewState(workedTargets())
	require.NoError(t, s.Select(2))
	assert.Equal(t, PhaseAwaitingTarget2, s.Phase())

	c := s.Observe(nil, 100, 100)
	assert.False(t, c.Recorded)
	assert.Equal(t, PhaseAwaitingTarget2, s.Phase())

	c = s.Observe([]blob.Blob{blobAt(30, 40), blobAt(90, 90)}, 100, 100)
	assert.True(t, c.Recorded)
	assert.InDelta(t, 30, c.Raw.X, 1e-9)
	assert.InDelta(t, 40, c.Raw.Y, 1e-9)
	p, ok := s.Samples().Point(1)
	assert.True(t, ok)
	assert.InDelta(t, 30, p.X, 1e-9)
}

func TestStateIdleIgnoresBlobs(t *testing.T) {
	s := NewState(workedTargets())
	c := s.Observe([]blob.Blob{blobAt(30, 40)}, 100, 100)
	assert.False(t, c.Recorded)
	assert.False(t, s.Samples().Complete())
}

func TestStateRecaptureInAnyOrder(t *testing.T) {
	s := NewState(workedTargets())
	capture(t, s, 3, 10, 0)
	capture(t, s, 1, 0, 0)
	capture(t, s, 2, 0, 10)
	require.True(t, s.Calibrated())

	// Redoing one target re-solves without touching the other two.
	c := capture(t, s, 3, 20, 0)
	require.True(t, c.Solved)
	coeffs, ok := s.Coefficients()
	require.True(t, ok)
	assert.InDelta(t, 5, coeffs.AlphaX, 1e-9)
}

func TestStateSingularLeavesUncalibrated(t *testing.T) {
	s := NewState(workedTargets())
	capture(t, s, 1, 10, 10)
	capture(t, s, 2, 20, 20)
	c := capture(t, s, 3, 30, 30)

	assert.True(t, c.Recorded)
	assert.False(t, c.Solved)
	assert.ErrorIs(t, c.Err, ErrSingular)
	assert.False(t, s.Calibrated())
	_, ok := s.Coefficients()
	assert.False(t, ok)

	// Recapturing a single target fixes it.
	c = capture(t, s, 3, 10, 30)
	assert.True(t, c.Solved)
	assert.True(t, s.Calibrated())
}

func TestFailedRecaptureKeepsSolvedSamples(t *testing.T) {
	s := NewState(workedTargets())
	capture(t, s, 1, 0, 0)
	capture(t, s, 2, 0, 10)
	capture(t, s, 3, 10, 0)
	require.True(t, s.Calibrated())
	before, _ := s.Coefficients()
	solved := s.SolvedSamples()

	c := capture(t, s, 3, 0, 20)
	assert.ErrorIs(t, c.Err, ErrSingular)
	assert.True(t, s.Calibrated())
	after, _ := s.Coefficients()
	assert.Equal(t, before, after)
	assert.Equal(t, solved, s.SolvedSamples())

	p, ok := s.Samples().Point(2)
	require.True(t, ok)
	assert.InDelta(t, 20, p.Y, 1e-9)
	assert.LessOrEqual(t, Residual(after, s.SolvedSamples(), s.Targets()), 1e-9)
}

func TestUncalibrateRequiresFullRecapture(t *testing.T) {
	s := NewState(workedTargets())
	capture(t, s, 1, 0, 0)
	capture(t, s, 2, 0, 10)
	capture(t, s, 3, 10, 0)
	require.True(t, s.Calibrated())

	s.Uncalibrate()
	assert.False(t, s.Calibrated())
	assert.False(t, s.SolvedSamples().Complete())
	_, ok := s.Map(geometry.NewPoint2D(1, 1))
	assert.False(t, ok)

	c := capture(t, s, 3, 10, 0)
	assert.False(t, c.Solved)
	c = capture(t, s, 1, 0, 0)
	assert.False(t, c.Solved)
	assert.False(t, s.Calibrated())
	c = capture(t, s, 2, 0, 10)
	assert.True(t, c.Solved)
	assert.True(t, s.Calibrated())
}

func TestSelectInvalid(t *testing.T) {
	s := NewState(workedTargets())
	assert.ErrorIs(t, s.Select(0), ErrInvalidTarget)
	assert.ErrorIs(t, s.Select(4), ErrInvalidTarget)
	assert.Equal(t, PhaseIdle, s.Phase())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "awaiting target 3", PhaseAwaitingTarget3.String())
	assert.Equal(t, "unknown", Phase(9).String())
}
