// Package background subtracts a stored reference frame from live camera
// frames, producing a per-channel absolute difference image.
package background

import (
	"errors"
	"fmt"

	"blob-tracker/internal/frame"

	"gocv.io/x/gocv"
)

// ErrSizeMismatch is returned when the frame and reference dimensions differ.
var ErrSizeMismatch = errors.New("background: frame size mismatch")

// ErrNoReference is returned by Subtract before the first Reset.
var ErrNoReference = errors.New("background: no reference frame")

// Differencer owns the reference frame and the difference output buffer.
// The output is overwritten on every Subtract call. Close releases the
// OpenCV memory behind the reference.
type Differencer struct {
	width, height int

	reference gocv.Mat
	absDiff   gocv.Mat
	diff      *frame.Buffer
	hasRef    bool
}

// New creates a Differencer for width×height frames.
func New(width, height int) *Differencer {
	return &Differencer{
		width:     width,
		height:    height,
		reference: gocv.NewMat(),
		absDiff:   gocv.NewMat(),
		diff:      frame.NewBuffer(width, height),
	}
}

// Reset replaces the reference with a full snapshot of f.
func (d *Differencer) Reset(f *frame.Buffer) error {
	if f.Width != d.width || f.Height != d.height {
		return fmt.Errorf("%w: reference %dx%d, frame %dx%d", ErrSizeMismatch,
			d.width, d.height, f.Width, f.Height)
	}
	m, err := f.ToMat()
	if err != nil {
		return err
	}
	defer m.Close()

	// Clone so the reference owns its pixels rather than sharing f's copy.
	ref := m.Clone()
	d.reference.Close()
	d.reference = ref
	d.hasRef = true
	return nil
}

// HasReference reports whether Reset has been called.
func (d *Differencer) HasReference() bool {
	return d.hasRef
}

// Subtract computes |f - reference| per channel into the owned difference
// buffer and returns it. The returned buffer is reused by the next call.
func (d *Differencer) Subtract(f *frame.Buffer) (*frame.Buffer, error) {
	if !d.hasRef {
		return nil, ErrNoReference
	}
	if !f.SameSize(d.diff) {
		return nil, fmt.Errorf("%w: reference %dx%d, frame %dx%d", ErrSizeMismatch,
			d.width, d.height, f.Width, f.Height)
	}
	cur, err := f.ToMat()
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	gocv.AbsDiff(cur, d.reference, &d.absDiff)
	if err := d.diff.ReadMat(d.absDiff); err != nil {
		return nil, err
	}
	return d.diff, nil
}

// Close releases the reference and scratch Mats.
func (d *Differencer) Close() error {
	d.hasRef = false
	if err := d.absDiff.Close(); err != nil {
		return err
	}
	return d.reference.Close()
}

// Diff writes the absolute per-channel difference of cur and ref into out
// with alpha forced opaque. All three buffers must share dimensions.
func Diff(cur, ref, out *frame.Buffer) error {
	if !cur.SameSize(ref) || !cur.SameSize(out) {
		return fmt.Errorf("%w: current %dx%d, reference %dx%d, output %dx%d", ErrSizeMismatch,
			cur.Width, cur.Height, ref.Width, ref.Height, out.Width, out.Height)
	}

	a, err := cur.ToMat()
	if err != nil {
		return err
	}
	defer a.Close()
	b, err := ref.ToMat()
	if err != nil {
		return err
	}
	defer b.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.AbsDiff(a, b, &dst)
	return out.ReadMat(dst)
}
