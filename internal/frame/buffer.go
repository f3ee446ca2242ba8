// Package frame provides the fixed-size packed-pixel buffers that camera
// frames, background references and difference images are stored in.
package frame

import (
	"errors"
	"image"
	"image/color"
	"runtime"
	"sync"

	"blob-tracker/pkg/colorutil"
)

// ErrEmpty is returned when converting an image or Mat without pixels.
var ErrEmpty = errors.New("frame: empty image")

// Buffer is a row-major sequence of 0xAARRGGBB pixels of fixed size.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint32
}

// NewBuffer allocates a zeroed width×height buffer.
func NewBuffer(width, height int) *Buffer {
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint32, width*height),
	}
}

// SameSize reports whether both buffers have identical dimensions.
func (b *Buffer) SameSize(other *Buffer) bool {
	return b.Width == other.Width && b.Height == other.Height
}

// At returns the pixel at (x, y).
func (b *Buffer) At(x, y int) uint32 {
	return b.Pix[y*b.Width+x]
}

// Set stores the pixel at (x, y).
func (b *Buffer) Set(x, y int, c uint32) {
	b.Pix[y*b.Width+x] = c
}

// ToRGBA converts the buffer to a standard library image.
func (b *Buffer) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			img.SetRGBA(x, y, colorutil.ToRGBA(b.At(x, y)))
		}
	}
	return img
}

// FromImage converts any image to an opaque packed buffer.
func FromImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, ErrEmpty
	}

	buf := NewBuffer(width, height)
	ForEachRow(height, func(y int) {
		for x := 0; x < width; x++ {
			c := color.RGBAModel.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.RGBA)
			buf.Set(x, y, colorutil.Pack(0xFF, c.R, c.G, c.B))
		}
	})
	return buf, nil
}

// ForEachRow calls fn for every row in [0, height), spreading horizontal
// stripes across one goroutine per CPU. fn must only touch its own row.
func ForEachRow(height int, fn func(y int)) {
	numWorkers := runtime.NumCPU()
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		startY := w * rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > height {
			endY = height
		}
		if startY >= height {
			break
		}

		wg.Add(1)
		go func(yStart, yEnd int) {
			defer wg.Done()
			for y := yStart; y < yEnd; y++ {
				fn(y)
			}
		}(startY, endY)
	}
	wg.Wait()
}
