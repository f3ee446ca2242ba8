package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAffineApply(t *testing.T) {
	tr := AffineTransform{A: 10, B: 0, TX: 100, C: 0, D: 10, TY: 100}
	got := tr.Apply(NewPoint2D(5, 5))
	assert.InDelta(t, 150.0, got.X, 1e-9)
	assert.InDelta(t, 150.0, got.Y, 1e-9)
}

func TestComposeAppliesRightFirst(t *testing.T) {
	s := Scale(2, 3)
	m := Mirror(10, 10, true, false)
	p := NewPoint2D(4, 5)

	got := s.Compose(m).Apply(p)
	want := s.Apply(m.Apply(p))
	assert.Equal(t, want, got)
	assert.Equal(t, NewPoint2D(12, 15), got)
}

func TestMirror(t *testing.T) {
	tests := []struct {
		name         string
		flipX, flipY bool
		in, want     Point2D
	}{
		{"none", false, false, NewPoint2D(10, 20), NewPoint2D(10, 20)},
		{"x", true, false, NewPoint2D(10, 20), NewPoint2D(310, 20)},
		{"y", false, true, NewPoint2D(10, 20), NewPoint2D(10, 220)},
		{"both", true, true, NewPoint2D(0, 0), NewPoint2D(320, 240)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mirror(320, 240, tt.flipX, tt.flipY).Apply(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRectScale(t *testing.T) {
	r := NewRect(0.25, 0.5, 0.5, 0.25).Scale(320, 240)
	assert.Equal(t, NewRect(80, 120, 160, 60), r)
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, NewPoint2D(1, 1).Distance(NewPoint2D(4, 5)), 1e-12)
}
