// Package tracker runs the per-frame pipeline: background subtraction, blob
// detection, calibration capture and camera-to-screen mapping.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"sync"

	"blob-tracker/internal/background"
	"blob-tracker/internal/blob"
	"blob-tracker/internal/calibration"
	"blob-tracker/internal/frame"
	"blob-tracker/pkg/colorutil"
	"blob-tracker/pkg/geometry"
)

// commandQueueSize bounds commands buffered between two ticks.
const commandQueueSize = 16

// Options configures a Tracker.
type Options struct {
	FrameWidth  int
	FrameHeight int

	// BackgroundColors are cycled by CmdCycleBackground. Defaults to
	// white then black.
	BackgroundColors []color.RGBA

	// CalibrationFile is written by CmdSaveCalibration. Empty disables
	// saving.
	CalibrationFile string
}

// Result is everything a renderer needs for one tick.
type Result struct {
	// Blobs is the detector output, in detector order.
	Blobs []blob.Blob
	// Raw holds each blob's center in camera pixels.
	Raw []geometry.Point2D
	// Screen holds each blob's mapped screen position. Empty when not
	// calibrated.
	Screen []geometry.Point2D

	Calibrated bool
	Phase      calibration.Phase
	Targets    calibration.Targets
	Capture    calibration.Capture

	Background color.RGBA
	Quit       bool
}

// Source yields one camera frame per call into a caller-owned buffer.
type Source interface {
	Read(dst *frame.Buffer) error
}

// ErrStopped is returned by Run when a quit command ends the loop.
var ErrStopped = errors.New("tracker: stopped")

// Tracker owns the differencer, the calibration state and the display
// state. Tick must be called from a single goroutine; commands may be sent
// from any goroutine.
type Tracker struct {
	width, height int

	detector blob.Detector
	diff     *background.Differencer
	calib    *calibration.State
	cmds     chan Command

	bgColors []color.RGBA
	bgIndex  int

	resetPending bool
	quit         bool

	calibrationFile string

	mu        sync.RWMutex
	listeners map[EventType][]EventListener
}

// New creates a Tracker. The first tick captures the background reference.
func New(opts Options, detector blob.Detector, calib *calibration.State) *Tracker {
	colors := opts.BackgroundColors
	if len(colors) == 0 {
		colors = []color.RGBA{colorutil.White, colorutil.Black}
	}
	return &Tracker{
		width:           opts.FrameWidth,
		height:          opts.FrameHeight,
		detector:        detector,
		diff:            background.New(opts.FrameWidth, opts.FrameHeight),
		calib:           calib,
		cmds:            make(chan Command, commandQueueSize),
		bgColors:        colors,
		calibrationFile: opts.CalibrationFile,
		listeners:       make(map[EventType][]EventListener),
	}
}

// Send queues a command without blocking. It reports false when the queue
// is full and the command was dropped.
func (t *Tracker) Send(c Command) bool {
	select {
	case t.cmds <- c:
		return true
	default:
		Logger().Warn("command queue full, dropping", "command", c.String())
		return false
	}
}

// Close releases the background reference.
func (t *Tracker) Close() error {
	return t.diff.Close()
}

// Tick processes one camera frame: pending commands, background reset,
// differencing, detection, calibration capture, then mapping.
func (t *Tracker) Tick(f *frame.Buffer) (*Result, error) {
	t.drainCommands()

	if t.resetPending || !t.diff.HasReference() {
		if err := t.diff.Reset(f); err != nil {
			return nil, err
		}
		t.resetPending = false
		Logger().Info("background reset")
		t.emit(Event{Type: EventBackgroundReset})
	}

	d, err := t.diff.Subtract(f)
	if err != nil {
		return nil, err
	}
	blobs, err := t.detector.Detect(d)
	if err != nil {
		return nil, fmt.Errorf("blob detection failed: %w", err)
	}
	Logger().Debug("tick", "blobs", len(blobs))

	res := &Result{
		Blobs:      blobs,
		Raw:        make([]geometry.Point2D, len(blobs)),
		Background: t.bgColors[t.bgIndex],
		Quit:       t.quit,
	}

	res.Capture = t.calib.Observe(blobs, t.width, t.height)
	t.reportCapture(res.Capture)

	for i, b := range blobs {
		res.Raw[i] = b.RawCenter(t.width, t.height)
	}
	if coeffs, ok := t.calib.Coefficients(); ok {
		res.Screen = make([]geometry.Point2D, len(blobs))
		for i, p := range res.Raw {
			res.Screen[i] = coeffs.Map(p)
		}
	}

	res.Calibrated = t.calib.Calibrated()
	res.Phase = t.calib.Phase()
	res.Targets = t.calib.Targets()
	return res, nil
}

// Run reads frames from src and ticks until ctx is done, a quit command
// arrives, or an error occurs. sink receives every result.
func (t *Tracker) Run(ctx context.Context, src Source, sink func(*Result) error) error {
	buf := frame.NewBuffer(t.width, t.height)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := src.Read(buf); err != nil {
			return fmt.Errorf("failed to read frame: %w", err)
		}
		res, err := t.Tick(buf)
		if err != nil {
			return err
		}
		if err := sink(res); err != nil {
			return err
		}
		if res.Quit {
			return ErrStopped
		}
	}
}

func (t *Tracker) drainCommands() {
	for {
		select {
		case c := <-t.cmds:
			t.apply(c)
		default:
			return
		}
	}
}

func (t *Tracker) apply(c Command) {
	log := Logger()
	if n, ok := c.target(); ok {
		if err := t.calib.Select(n); err != nil {
			log.Warn("select target failed", "target", n, "error", err)
			return
		}
		log.Info("awaiting calibration capture", "target", n)
		return
	}

	switch c {
	case CmdCycleBackground:
		t.bgIndex = (t.bgIndex + 1) % len(t.bgColors)
	case CmdUncalibrate:
		t.calib.Uncalibrate()
		log.Info("calibration cleared")
		t.emit(Event{Type: EventUncalibrated})
	case CmdSaveCalibration:
		t.saveCalibration()
	case CmdQuit:
		t.quit = true
	default:
		t.resetPending = true
	}
}

func (t *Tracker) saveCalibration() {
	log := Logger()
	if t.calibrationFile == "" {
		log.Warn("no calibration file configured")
		return
	}
	if err := calibration.Save(t.calibrationFile, t.calib); err != nil {
		log.Warn("failed to save calibration", "path", t.calibrationFile, "error", err)
		t.emit(Event{Type: EventSaveFailed, Err: err})
		return
	}
	log.Info("calibration saved", "path", t.calibrationFile)
	t.emit(Event{Type: EventCalibrationSaved})
}

func (t *Tracker) reportCapture(c calibration.Capture) {
	if !c.Recorded {
		return
	}
	log := Logger()
	log.Info("calibration sample captured", "target", c.Target, "x", c.Raw.X, "y", c.Raw.Y)
	t.emit(Event{Type: EventSampleCaptured, Capture: c})

	switch {
	case c.Solved:
		coeffs, _ := t.calib.Coefficients()
		log.Info("calibrated",
			"alpha_x", coeffs.AlphaX, "beta_x", coeffs.BetaX, "delta_x", coeffs.DeltaX,
			"alpha_y", coeffs.AlphaY, "beta_y", coeffs.BetaY, "delta_y", coeffs.DeltaY)
		t.emit(Event{Type: EventCalibrated, Capture: c})
	case c.Err != nil:
		log.Warn("calibration failed, recapture a target", "error", c.Err)
		t.emit(Event{Type: EventCalibrationFailed, Capture: c, Err: c.Err})
	}
}
