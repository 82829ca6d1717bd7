package game

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// fortifyDarken is the per-channel factor applied to a fortified tile's colour.
const fortifyDarken = 0.7

// RGB is a player's display colour. Alpha is always opaque when painting.
type RGB struct {
	R, G, B uint8
}

// NewRGB validates integer channels (0-255 each).
func NewRGB(r, g, b int) (RGB, error) {
	for _, v := range [3]int{r, g, b} {
		if v < 0 || v > 255 {
			return RGB{}, fmt.Errorf("%w: component %d outside 0..255", ErrInvalidColorFormat, v)
		}
	}
	return RGB{R: uint8(r), G: uint8(g), B: uint8(b)}, nil // #nosec G115 -- range checked above
}

// ParseHexColor parses "#rrggbb" or "rrggbb".
func ParseHexColor(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil // #nosec G115 -- masked by width
}

// Opaque returns the colour used to paint this player's regions.
func (c RGB) Opaque() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Hex formats the colour as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ColorMatches reports whether a and b belong to the same region: Euclidean
// distance over R,G,B (alpha ignored) is at most tolerance. Tolerance 0 is
// exact RGB equality.
func ColorMatches(a, b color.NRGBA, tolerance int) bool {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	if tolerance <= 0 {
		return dr == 0 && dg == 0 && db == 0
	}
	// Compare squared distances to stay in integers.
	return dr*dr+dg*dg+db*db <= tolerance*tolerance
}

// Darken scales R,G,B by factor, truncating toward zero.
// Alpha is kept.
func Darken(c color.NRGBA, factor float64) color.NRGBA {
	scale := func(v uint8) uint8 {
		f := float64(v) * factor
		if f < 0 {
			return 0
		}
		if f > 255 {
			return 255
		}
		return uint8(f)
	}
	return color.NRGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
}
