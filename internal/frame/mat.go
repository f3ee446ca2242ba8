package frame

import (
	"fmt"

	"blob-tracker/pkg/colorutil"

	"gocv.io/x/gocv"
)

// ReadMat overwrites b with the pixels of m, which must match b's size.
// Reusing one buffer per capture tick avoids a per-frame allocation.
func (b *Buffer) ReadMat(m gocv.Mat) error {
	if m.Cols() != b.Width || m.Rows() != b.Height {
		return fmt.Errorf("frame: mat %dx%d does not match buffer %dx%d",
			m.Cols(), m.Rows(), b.Width, b.Height)
	}

	channels := m.Channels()
	switch m.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
	default:
		return fmt.Errorf("frame: unsupported mat type %v", m.Type())
	}

	data := m.ToBytes()
	width := b.Width
	ForEachRow(b.Height, func(y int) {
		for x := 0; x < width; x++ {
			i := (y*width + x) * channels
			var r, g, bl uint8
			if channels == 1 {
				r, g, bl = data[i], data[i], data[i]
			} else {
				// OpenCV uses BGR format
				bl, g, r = data[i], data[i+1], data[i+2]
			}
			b.Set(x, y, colorutil.Pack(0xFF, r, g, bl))
		}
	})
	return nil
}

// ToMat converts the buffer to a new 8-bit BGR Mat. The caller owns it.
func (b *Buffer) ToMat() (gocv.Mat, error) {
	data := make([]byte, len(b.Pix)*3)
	for i, c := range b.Pix {
		_, r, g, bl := colorutil.Unpack(c)
		data[i*3+0] = bl
		data[i*3+1] = g
		data[i*3+2] = r
	}
	return gocv.NewMatFromBytes(b.Height, b.Width, gocv.MatTypeCV8UC3, data)
}
