// Package blob locates foreground regions in a background-difference image.
package blob

import (
	"blob-tracker/internal/frame"
	"blob-tracker/pkg/geometry"
)

// DefaultThreshold is the brightness fraction a difference pixel must exceed
// to count as foreground.
const DefaultThreshold = 0.075

// Blob is an axis-aligned foreground region in normalized [0,1] coordinates
// relative to the frame it was detected in. XMax and YMax are inclusive: they
// locate the last foreground column and row, so a single pixel has zero
// width and its center is the pixel itself.
type Blob struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

// W returns the normalized width.
func (b Blob) W() float64 { return b.XMax - b.XMin }

// H returns the normalized height.
func (b Blob) H() float64 { return b.YMax - b.YMin }

// Center returns the normalized bounding-box center.
func (b Blob) Center() geometry.Point2D {
	return geometry.Point2D{X: (b.XMin + b.XMax) / 2, Y: (b.YMin + b.YMax) / 2}
}

// RawCenter returns the bounding-box center in frame pixel coordinates.
func (b Blob) RawCenter(frameWidth, frameHeight int) geometry.Point2D {
	c := b.Center()
	return geometry.Point2D{X: c.X * float64(frameWidth), Y: c.Y * float64(frameHeight)}
}

// Bounds returns the bounding box scaled to frame pixel coordinates.
func (b Blob) Bounds(frameWidth, frameHeight int) geometry.Rect {
	return geometry.NewRect(b.XMin, b.YMin, b.W(), b.H()).Scale(float64(frameWidth), float64(frameHeight))
}

// First returns the first blob of a detection result. The detector's order
// is not a stable identity across frames.
func First(blobs []Blob) (Blob, bool) {
	if len(blobs) == 0 {
		return Blob{}, false
	}
	return blobs[0], true
}

// Detector finds blobs in a difference image.
type Detector interface {
	Detect(diff *frame.Buffer) ([]Blob, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(diff *frame.Buffer) ([]Blob, error)

// Detect calls f(diff).
func (f DetectorFunc) Detect(diff *frame.Buffer) ([]Blob, error) {
	return f(diff)
}
