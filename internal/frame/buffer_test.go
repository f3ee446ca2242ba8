package frame

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func TestFromImage(t *testing.T) {
	buf, err := FromImage(gradient(7, 5))
	require.NoError(t, err)
	assert.Equal(t, 7, buf.Width)
	assert.Equal(t, 5, buf.Height)
	assert.Equal(t, uint32(0xFF030205), buf.At(3, 2))
}

func TestFromImageOffsetBounds(t *testing.T) {
	sub := gradient(10, 10).SubImage(image.Rect(2, 3, 6, 8))
	buf, err := FromImage(sub)
	require.NoError(t, err)
	assert.Equal(t, 4, buf.Width)
	assert.Equal(t, 5, buf.Height)
	assert.Equal(t, uint32(0xFF020305), buf.At(0, 0))
}

func TestFromImageEmpty(t *testing.T) {
	_, err := FromImage(image.NewRGBA(image.Rect(0, 0, 0, 4)))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSetAt(t *testing.T) {
	buf := NewBuffer(3, 2)
	buf.Set(2, 1, 0xFF112233)
	assert.Equal(t, uint32(0xFF112233), buf.At(2, 1))
	assert.Equal(t, uint32(0xFF112233), buf.Pix[5])
	assert.True(t, buf.SameSize(NewBuffer(3, 2)))
	assert.False(t, buf.SameSize(NewBuffer(2, 3)))
}

func TestToRGBARoundTrip(t *testing.T) {
	src := gradient(4, 3)
	buf, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, buf.ToRGBA().Pix)
}

func TestForEachRowVisitsEveryRowOnce(t *testing.T) {
	const height = 97
	var visits [height]int32
	ForEachRow(height, func(y int) {
		atomic.AddInt32(&visits[y], 1)
	})
	for y, n := range visits {
		assert.Equal(t, int32(1), n, "row %d", y)
	}
}

func TestLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, gradient(6, 4)))
	require.NoError(t, f.Close())

	buf, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFF050308), buf.At(5, 3))

	_, err = LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
