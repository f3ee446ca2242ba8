// Package colorutil provides packed-pixel color helpers and the named colors
// used by the tracker overlay.
package colorutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Common overlay colors used throughout the application.
var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// OpaqueAlpha is the alpha bits of a fully opaque packed pixel.
const OpaqueAlpha uint32 = 0xFF000000

// Pack combines 8-bit channels into a 0xAARRGGBB value.
func Pack(a, r, g, b uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Unpack splits a 0xAARRGGBB value into 8-bit channels.
func Unpack(c uint32) (a, r, g, b uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// ToRGBA unpacks a packed pixel into an image/color value.
func ToRGBA(c uint32) color.RGBA {
	a, r, g, b := Unpack(c)
	return color.RGBA{R: r, G: g, B: b, A: a}
}

// ParseHex parses "#RRGGBB" or "#AARRGGBB" into an RGBA color.
// A six-digit value is treated as opaque.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(h) == 6 {
		v |= uint64(OpaqueAlpha)
	}
	return ToRGBA(uint32(v)), nil
}
