// Package render draws the tracker overlay for one tick onto a screen-sized
// OpenCV canvas.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"blob-tracker/internal/config"
	"blob-tracker/internal/tracker"
	"blob-tracker/pkg/colorutil"
	"blob-tracker/pkg/geometry"

	"gocv.io/x/gocv"
)

// ringFractions are the concentric ring diameters of a calibration target,
// as fractions of the target diameter.
var ringFractions = []float64{0.25, 0.50, 0.75, 1.0}

// Options controls overlay geometry and colors.
type Options struct {
	ScreenWidth   int
	ScreenHeight  int
	CaptureWidth  int
	CaptureHeight int
	FlipX         bool
	FlipY         bool

	Stroke         color.RGBA
	StrokeWidth    int
	TargetDiameter float64
	MarkerDiameter float64

	// ShowCamera draws the live camera image under the overlay.
	ShowCamera bool
}

// OptionsFromConfig derives render options from the tracker configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	stroke, err := colorutil.ParseHex(cfg.Display.StrokeColor)
	if err != nil {
		return Options{}, err
	}
	return Options{
		ScreenWidth:    cfg.Screen.Width,
		ScreenHeight:   cfg.Screen.Height,
		CaptureWidth:   cfg.Capture.Width,
		CaptureHeight:  cfg.Capture.Height,
		FlipX:          cfg.Capture.FlipX,
		FlipY:          cfg.Capture.FlipY,
		Stroke:         stroke,
		StrokeWidth:    cfg.Display.StrokeWidth,
		TargetDiameter: cfg.Display.TargetDiameter,
		MarkerDiameter: cfg.Display.MarkerDiameter,
		ShowCamera:     true,
	}, nil
}

// CameraToScreen maps capture pixels to screen pixels, mirroring first and
// then stretching the capture area over the screen.
func (o Options) CameraToScreen() geometry.AffineTransform {
	cw, ch := float64(o.CaptureWidth), float64(o.CaptureHeight)
	scale := geometry.Scale(float64(o.ScreenWidth)/cw, float64(o.ScreenHeight)/ch)
	return scale.Compose(geometry.Mirror(cw, ch, o.FlipX, o.FlipY))
}

// flipCode returns the gocv.Flip code for the mirror flags, or false when
// no flip is needed.
func (o Options) flipCode() (int, bool) {
	switch {
	case o.FlipX && o.FlipY:
		return -1, true
	case o.FlipX:
		return 1, true
	case o.FlipY:
		return 0, true
	}
	return 0, false
}

// Renderer owns the screen canvas reused across ticks.
type Renderer struct {
	opts   Options
	canvas gocv.Mat
	camera geometry.AffineTransform
}

// New creates a renderer with a black canvas.
func New(opts Options) (*Renderer, error) {
	if opts.ScreenWidth <= 0 || opts.ScreenHeight <= 0 || opts.CaptureWidth <= 0 || opts.CaptureHeight <= 0 {
		return nil, fmt.Errorf("render: invalid sizes screen=%dx%d capture=%dx%d",
			opts.ScreenWidth, opts.ScreenHeight, opts.CaptureWidth, opts.CaptureHeight)
	}
	return &Renderer{
		opts:   opts,
		canvas: gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), opts.ScreenHeight, opts.ScreenWidth, gocv.MatTypeCV8UC3),
		camera: opts.CameraToScreen(),
	}, nil
}

// Close releases the canvas.
func (r *Renderer) Close() error {
	return r.canvas.Close()
}

// Draw renders one tick. cameraImg may be empty. The returned Mat is the
// renderer's canvas and stays valid until the next Draw or Close.
//
// Uncalibrated: background color, camera image, blob rectangles, targets.
// Calibrated: the canvas is not cleared and each mapped blob is drawn as a
// circle. Markers only persist as trails when ShowCamera is off.
func (r *Renderer) Draw(cameraImg gocv.Mat, res *tracker.Result) gocv.Mat {
	if !res.Calibrated {
		bg := res.Background
		r.canvas.SetTo(gocv.NewScalar(float64(bg.B), float64(bg.G), float64(bg.R), 0))
	}

	if r.opts.ShowCamera && !cameraImg.Empty() {
		r.drawCamera(cameraImg)
	}

	if !res.Calibrated {
		for _, b := range res.Blobs {
			r.drawBlobRect(b.Bounds(r.opts.CaptureWidth, r.opts.CaptureHeight))
		}
	} else {
		for _, p := range res.Screen {
			gocv.Circle(&r.canvas, toPoint(p), int(math.Round(r.opts.MarkerDiameter/2)), r.opts.Stroke, r.opts.StrokeWidth)
		}
	}

	if !res.Calibrated {
		r.drawTargets(res)
	}
	return r.canvas
}

func (r *Renderer) drawCamera(cameraImg gocv.Mat) {
	src := cameraImg
	if code, ok := r.opts.flipCode(); ok {
		flipped := gocv.NewMat()
		defer flipped.Close()
		gocv.Flip(cameraImg, &flipped, code)
		src = flipped
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, image.Pt(r.opts.ScreenWidth, r.opts.ScreenHeight), 0, 0, gocv.InterpolationLinear)
	resized.CopyTo(&r.canvas)
}

func (r *Renderer) drawBlobRect(bounds geometry.Rect) {
	a := r.camera.Apply(geometry.NewPoint2D(bounds.X, bounds.Y))
	b := r.camera.Apply(geometry.NewPoint2D(bounds.X+bounds.Width, bounds.Y+bounds.Height))
	rect := image.Rectangle{Min: toPoint(a), Max: toPoint(b)}.Canon()
	gocv.Rectangle(&r.canvas, rect, r.opts.Stroke, r.opts.StrokeWidth)
}

func (r *Renderer) drawTargets(res *tracker.Result) {
	for i, t := range res.Targets {
		center := toPoint(t)
		for _, f := range ringFractions {
			radius := int(math.Round(r.opts.TargetDiameter * f / 2))
			gocv.Circle(&r.canvas, center, radius, r.opts.Stroke, r.opts.StrokeWidth)
		}
		// Fill the center of the target awaiting capture.
		if int(res.Phase) == i+1 {
			radius := int(math.Round(r.opts.TargetDiameter * ringFractions[0] / 2))
			gocv.Circle(&r.canvas, center, radius, r.opts.Stroke, -1)
		}
	}
}

func toPoint(p geometry.Point2D) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}
