package blob

import (
	"testing"

	"blob-tracker/internal/frame"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillRect(b *frame.Buffer, x0, y0, x1, y1 int, c uint32) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			b.Set(x, y, c)
		}
	}
}

func TestContourDetectorFindsRegions(t *testing.T) {
	diff := frame.NewBuffer(100, 80)
	fillRect(diff, 0, 0, diff.Width, diff.Height, 0xFF000000)
	fillRect(diff, 60, 40, 70, 60, 0xFFFFFFFF)
	fillRect(diff, 10, 10, 30, 20, 0xFFFFFFFF)

	d := NewContourDetector(DefaultContourParams())
	blobs, err := d.Detect(diff)
	require.NoError(t, err)
	require.Len(t, blobs, 2)

	// Raster order: the upper region comes first.
	assert.InDelta(t, 10.0/100, blobs[0].XMin, 1e-12)
	assert.InDelta(t, 10.0/80, blobs[0].YMin, 1e-12)
	assert.InDelta(t, 29.0/100, blobs[0].XMax, 1e-12)
	assert.InDelta(t, 19.0/80, blobs[0].YMax, 1e-12)

	// Columns 60..69 and rows 40..59 center on (64.5, 49.5).
	c := blobs[1].RawCenter(100, 80)
	assert.InDelta(t, 64.5, c.X, 1e-9)
	assert.InDelta(t, 49.5, c.Y, 1e-9)
}

func TestContourDetectorInclusiveMax(t *testing.T) {
	diff := frame.NewBuffer(50, 40)
	fillRect(diff, 0, 0, diff.Width, diff.Height, 0xFF000000)
	diff.Set(7, 3, 0xFFFFFFFF)

	params := DefaultContourParams()
	params.MinArea = 0
	blobs, err := NewContourDetector(params).Detect(diff)
	require.NoError(t, err)
	require.Len(t, blobs, 1)

	assert.Equal(t, blobs[0].XMin, blobs[0].XMax)
	assert.Equal(t, blobs[0].YMin, blobs[0].YMax)
	c := blobs[0].RawCenter(50, 40)
	assert.InDelta(t, 7, c.X, 1e-9)
	assert.InDelta(t, 3, c.Y, 1e-9)
}

func TestContourDetectorThreshold(t *testing.T) {
	diff := frame.NewBuffer(40, 40)
	fillRect(diff, 0, 0, diff.Width, diff.Height, 0xFF000000)
	// Gray level 0x10 (~6%) sits below the default 7.5% threshold.
	fillRect(diff, 5, 5, 15, 15, 0xFF101010)

	d := NewContourDetector(DefaultContourParams())
	blobs, err := d.Detect(diff)
	require.NoError(t, err)
	assert.Empty(t, blobs)

	d.SetThreshold(0.03)
	assert.Equal(t, 0.03, d.Params().Threshold)
	blobs, err = d.Detect(diff)
	require.NoError(t, err)
	assert.Len(t, blobs, 1)
}

func TestContourDetectorMinAreaAndMax(t *testing.T) {
	diff := frame.NewBuffer(50, 50)
	fillRect(diff, 0, 0, diff.Width, diff.Height, 0xFF000000)
	diff.Set(2, 2, 0xFFFFFFFF)
	fillRect(diff, 10, 10, 20, 20, 0xFFFFFFFF)
	fillRect(diff, 30, 30, 40, 40, 0xFFFFFFFF)

	params := DefaultContourParams()
	params.MaxBlobs = 1
	blobs, err := NewContourDetector(params).Detect(diff)
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.InDelta(t, 0.2, blobs[0].XMin, 1e-12)
}
