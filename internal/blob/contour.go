package blob

import (
	"fmt"
	"sort"
	"sync"

	"blob-tracker/internal/frame"

	"gocv.io/x/gocv"
)

// ContourParams tunes the contour-based detector.
type ContourParams struct {
	// Threshold is the minimum gray level, as a fraction of 255, for a
	// difference pixel to be foreground.
	Threshold float64
	// MinArea discards contours smaller than this many pixels.
	MinArea float64
	// MaxBlobs caps the result length; zero means unlimited.
	MaxBlobs int
}

// DefaultContourParams returns the parameters used by the live tracker.
func DefaultContourParams() ContourParams {
	return ContourParams{
		Threshold: DefaultThreshold,
		MinArea:   4,
		MaxBlobs:  0,
	}
}

// WithThreshold returns a copy of params with a different threshold.
func (p ContourParams) WithThreshold(threshold float64) ContourParams {
	p.Threshold = threshold
	return p
}

// ContourDetector thresholds the grayscale difference image and returns the
// bounding boxes of its external contours, ordered top-to-bottom then
// left-to-right like a raster scan.
type ContourDetector struct {
	mu     sync.RWMutex
	params ContourParams
}

// NewContourDetector creates a detector with the given parameters.
func NewContourDetector(params ContourParams) *ContourDetector {
	return &ContourDetector{params: params}
}

// Params returns the current parameters.
func (d *ContourDetector) Params() ContourParams {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.params
}

// SetThreshold changes the threshold. Safe to call while Detect runs on
// another goroutine, e.g. from a config watcher.
func (d *ContourDetector) SetThreshold(threshold float64) {
	d.mu.Lock()
	d.params.Threshold = threshold
	d.mu.Unlock()
}

// Detect implements Detector.
func (d *ContourDetector) Detect(diff *frame.Buffer) ([]Blob, error) {
	params := d.Params()

	src, err := diff.ToMat()
	if err != nil {
		return nil, fmt.Errorf("failed to convert difference image: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(gray, &mask, float32(params.Threshold*255), 255, gocv.ThresholdBinary)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	w := float64(diff.Width)
	h := float64(diff.Height)
	var blobs []Blob
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		rect := gocv.BoundingRect(contour)
		// Single-pixel and thin contours have zero polygon area, so
		// fall back to the bounding box size.
		area := gocv.ContourArea(contour)
		if boxArea := float64(rect.Dx() * rect.Dy()); boxArea > area {
			area = boxArea
		}
		if area < params.MinArea {
			continue
		}
		// image.Rectangle.Max is exclusive; blobs carry the last pixel.
		blobs = append(blobs, Blob{
			XMin: float64(rect.Min.X) / w,
			YMin: float64(rect.Min.Y) / h,
			XMax: float64(rect.Max.X-1) / w,
			YMax: float64(rect.Max.Y-1) / h,
		})
	}

	sort.SliceStable(blobs, func(i, j int) bool {
		if blobs[i].YMin != blobs[j].YMin {
			return blobs[i].YMin < blobs[j].YMin
		}
		return blobs[i].XMin < blobs[j].XMin
	})

	if params.MaxBlobs > 0 && len(blobs) > params.MaxBlobs {
		blobs = blobs[:params.MaxBlobs]
	}
	return blobs, nil
}
