// Package capture reads camera or video-file frames through OpenCV.
package capture

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strconv"

	"blob-tracker/internal/config"
	"blob-tracker/internal/frame"

	"gocv.io/x/gocv"
)

// ErrEndOfStream is returned when the device or file yields no more frames.
var ErrEndOfStream = errors.New("capture: end of stream")

// Camera is a frame source backed by gocv.VideoCapture. Frames are resized
// to the configured capture size when the device ignores the request.
type Camera struct {
	vc     *gocv.VideoCapture
	width  int
	height int
	raw    gocv.Mat
	sized  gocv.Mat
}

// Open opens a camera index or video file described by cfg.
func Open(cfg config.CaptureConfig) (*Camera, error) {
	var (
		vc  *gocv.VideoCapture
		err error
	)
	if _, statErr := os.Stat(cfg.Device); statErr == nil {
		vc, err = gocv.VideoCaptureFile(cfg.Device)
	} else {
		id, convErr := strconv.Atoi(cfg.Device)
		if convErr != nil {
			return nil, fmt.Errorf("capture device %q is neither a file nor a camera index", cfg.Device)
		}
		vc, err = gocv.VideoCaptureDevice(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open capture device %q: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("capture device %q did not open", cfg.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	if cfg.FPS > 0 {
		vc.Set(gocv.VideoCaptureFPS, cfg.FPS)
	}

	return &Camera{
		vc:     vc,
		width:  cfg.Width,
		height: cfg.Height,
		raw:    gocv.NewMat(),
		sized:  gocv.NewMat(),
	}, nil
}

// Read implements tracker.Source.
func (c *Camera) Read(dst *frame.Buffer) error {
	if ok := c.vc.Read(&c.raw); !ok || c.raw.Empty() {
		return ErrEndOfStream
	}
	src := c.raw
	if c.raw.Cols() != c.width || c.raw.Rows() != c.height {
		gocv.Resize(c.raw, &c.sized, image.Pt(c.width, c.height), 0, 0, gocv.InterpolationLinear)
		src = c.sized
	}
	return dst.ReadMat(src)
}

// Mat returns the last frame at capture size, for display. It is
// overwritten by the next Read.
func (c *Camera) Mat() gocv.Mat {
	if c.raw.Cols() != c.width || c.raw.Rows() != c.height {
		return c.sized
	}
	return c.raw
}

// Close releases the device and frame buffers.
func (c *Camera) Close() error {
	c.raw.Close()
	c.sized.Close()
	return c.vc.Close()
}
