// Package calibration maps camera-space blob positions to screen space.
//
// Three fixed screen targets are paired with three captured camera-space
// samples; the exact affine map through those correspondences is found by
// inverting the 3x3 homogeneous sample matrix.
package calibration

import (
	"errors"
	"fmt"
	"math"

	"blob-tracker/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// NumTargets is the number of correspondences an affine 2D map needs.
const NumTargets = 3

// singularTolerance is the smallest determinant, relative to its Hadamard
// bound, accepted as non-singular.
const singularTolerance = 1e-12

// unset marks a sample coordinate that has not been captured.
const unset = -1

var (
	// ErrIncomplete is returned when a sample row has not been captured.
	ErrIncomplete = errors.New("calibration: samples incomplete")
	// ErrSingular is returned when the samples are collinear or coincident.
	ErrSingular = errors.New("calibration: sample matrix is singular")
	// ErrInvalidTarget is returned for a target number outside 1..NumTargets.
	ErrInvalidTarget = errors.New("calibration: invalid target")
)

// Targets are the fixed screen-space calibration points.
type Targets [NumTargets]geometry.Point2D

// DefaultTargets places the targets at the lower-left, upper-left and
// upper-right of a screenWidth×screenHeight display, inset by 10%.
func DefaultTargets(screenWidth, screenHeight float64) Targets {
	return TargetsFromFractions(screenWidth, screenHeight, [NumTargets]geometry.Point2D{
		{X: 0.10, Y: 0.90},
		{X: 0.10, Y: 0.10},
		{X: 0.90, Y: 0.10},
	})
}

// TargetsFromFractions scales fractional positions to screen pixels.
func TargetsFromFractions(screenWidth, screenHeight float64, fractions [NumTargets]geometry.Point2D) Targets {
	var t Targets
	for i, f := range fractions {
		t[i] = geometry.Point2D{X: screenWidth * f.X, Y: screenHeight * f.Y}
	}
	return t
}

// Samples holds one homogeneous row [rawX, rawY, 1] per target.
// Negative coordinates mean the row has not been captured.
type Samples [NumTargets][3]float64

// NewSamples returns a sample set with every row unset.
func NewSamples() Samples {
	var s Samples
	s.Clear()
	return s
}

// Clear marks every row as not captured.
func (s *Samples) Clear() {
	for i := range s {
		s[i] = [3]float64{unset, unset, 1}
	}
}

// Set records the raw point for target index i (0-based).
func (s *Samples) Set(i int, p geometry.Point2D) {
	s[i] = [3]float64{p.X, p.Y, 1}
}

// Point returns the raw point for row i and whether it has been captured.
func (s Samples) Point(i int) (geometry.Point2D, bool) {
	row := s[i]
	return geometry.Point2D{X: row[0], Y: row[1]}, row[0] >= 0 && row[1] >= 0
}

// Complete reports whether every row has been captured.
func (s Samples) Complete() bool {
	for _, row := range s {
		for _, v := range row {
			if v < 0 {
				return false
			}
		}
	}
	return true
}

// Coefficients define screen = alpha*rawX + beta*rawY + delta per axis.
type Coefficients struct {
	AlphaX float64 `json:"alpha_x"`
	BetaX  float64 `json:"beta_x"`
	DeltaX float64 `json:"delta_x"`
	AlphaY float64 `json:"alpha_y"`
	BetaY  float64 `json:"beta_y"`
	DeltaY float64 `json:"delta_y"`
}

// Map converts a raw camera-space point to screen space.
func (c Coefficients) Map(raw geometry.Point2D) geometry.Point2D {
	return c.Transform().Apply(raw)
}

// Transform returns the coefficients as an affine transform.
func (c Coefficients) Transform() geometry.AffineTransform {
	return geometry.AffineTransform{
		A: c.AlphaX, B: c.BetaX, TX: c.DeltaX,
		C: c.AlphaY, D: c.BetaY, TY: c.DeltaY,
	}
}

func (c Coefficients) finite() bool {
	for _, v := range []float64{c.AlphaX, c.BetaX, c.DeltaX, c.AlphaY, c.BetaY, c.DeltaY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Solve computes the affine coefficients that map each sample row exactly
// onto its target: C = R⁻¹·T for the x and y target columns.
func Solve(samples Samples, targets Targets) (Coefficients, error) {
	if !samples.Complete() {
		return Coefficients{}, ErrIncomplete
	}

	r := mat.NewDense(NumTargets, 3, nil)
	tx := mat.NewVecDense(NumTargets, nil)
	ty := mat.NewVecDense(NumTargets, nil)
	for i := 0; i < NumTargets; i++ {
		r.SetRow(i, samples[i][:])
		tx.SetVec(i, targets[i].X)
		ty.SetVec(i, targets[i].Y)
	}

	// Hadamard's bound: |det| never exceeds the product of the row norms.
	bound := 1.0
	for i := 0; i < NumTargets; i++ {
		bound *= mat.Norm(r.RowView(i), 2)
	}
	if math.Abs(mat.Det(r)) <= singularTolerance*bound {
		return Coefficients{}, ErrSingular
	}

	var inv mat.Dense
	if err := inv.Inverse(r); err != nil {
		// gonum reports singular and ill-conditioned matrices as a
		// Condition error; either way the result is unusable.
		return Coefficients{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var cx, cy mat.VecDense
	cx.MulVec(&inv, tx)
	cy.MulVec(&inv, ty)

	c := Coefficients{
		AlphaX: cx.AtVec(0),
		BetaX:  cx.AtVec(1),
		DeltaX: cx.AtVec(2),
		AlphaY: cy.AtVec(0),
		BetaY:  cy.AtVec(1),
		DeltaY: cy.AtVec(2),
	}
	if !c.finite() {
		return Coefficients{}, ErrSingular
	}
	return c, nil
}

// Residual returns the largest distance between a mapped sample and its
// target. A correct exact solve has a residual near zero.
func Residual(c Coefficients, samples Samples, targets Targets) float64 {
	var worst float64
	for i := range targets {
		p, ok := samples.Point(i)
		if !ok {
			return math.Inf(1)
		}
		if d := c.Map(p).Distance(targets[i]); d > worst {
			worst = d
		}
	}
	return worst
}
