package fable

import (
	"log"
	"math"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// RGBA implements [image/color.Color]. Components are premultiplied per that
// interface's contract.
func (c Color) RGBA() (r, g, b, a uint32) {
	clamp := func(v float64) uint32 {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return uint32(v * 0xffff)
	}
	a = clamp(c.A)
	r = clamp(c.R) * a / 0xffff
	g = clamp(c.G) * a / 0xffff
	b = clamp(c.B) * a / 0xffff
	return
}

// ColorWhite is the default text color.
var ColorWhite = Color{1, 1, 1, 1}

// ColorBlack is the default panel color.
var ColorBlack = Color{0, 0, 0, 1}

// Vec2 is a 2D vector used for positions and offsets throughout the API.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// globalDebug enables internal stderr warnings. Toggle with SetDebug.
var globalDebug bool

// SetDebug enables or disables engine warnings on stderr (unknown glyphs,
// skipped behaviors, script failures).
func SetDebug(enabled bool) {
	globalDebug = enabled
}

func debugf(format string, args ...any) {
	if globalDebug {
		log.Printf("fable: "+format, args...)
	}
}

// ParseHexColor parses "#rgb" or "#rrggbb" into a Color with alpha 1.
// Returns ok=false for anything else.
func ParseHexColor(s string) (Color, bool) {
	if len(s) == 0 || s[0] != '#' {
		return Color{}, false
	}
	hex := s[1:]
	var r, g, b int
	switch len(hex) {
	case 3:
		r = hexNibble(hex[0]) * 17
		g = hexNibble(hex[1]) * 17
		b = hexNibble(hex[2]) * 17
	case 6:
		r = hexNibble(hex[0])<<4 | hexNibble(hex[1])
		g = hexNibble(hex[2])<<4 | hexNibble(hex[3])
		b = hexNibble(hex[4])<<4 | hexNibble(hex[5])
	default:
		return Color{}, false
	}
	if r < 0 || g < 0 || b < 0 {
		return Color{}, false
	}
	return Color{float64(r) / 255, float64(g) / 255, float64(b) / 255, 1}, true
}

// hexNibble returns a negative value for non-hex bytes so ParseHexColor can
// reject them after combining nibbles.
func hexNibble(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -0xFFFF
}

// HueColor returns a fully saturated color at the given hue in [0, 1),
// wrapping outside that range. Used by the rainbow text style.
func HueColor(hue float64) Color {
	hue = hue - math.Floor(hue)
	h := hue * 6
	f := h - math.Floor(h)
	switch int(h) % 6 {
	case 0:
		return Color{1, f, 0, 1}
	case 1:
		return Color{1 - f, 1, 0, 1}
	case 2:
		return Color{0, 1, f, 1}
	case 3:
		return Color{0, 1 - f, 1, 1}
	case 4:
		return Color{f, 0, 1, 1}
	default:
		return Color{1, 0, 1 - f, 1}
	}
}
