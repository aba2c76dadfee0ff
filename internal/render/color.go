package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseHex parses #rgb, #rgba, #rrggbb and #rrggbbaa colours.
func ParseHex(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")

	var digits []string
	scale := uint64(1)
	switch len(hex) {
	case 3, 4:
		scale = 17
		for i := range hex {
			digits = append(digits, hex[i:i+1])
		}
	case 6, 8:
		for i := 0; i < len(hex); i += 2 {
			digits = append(digits, hex[i:i+2])
		}
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}

	c := [4]uint8{0, 0, 0, 255}
	for i, d := range digits {
		v, err := strconv.ParseUint(d, 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
		}
		c[i] = uint8(v * scale)
	}
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}, nil
}

// Hex formats c as #rrggbb, or #rrggbbaa when it is not opaque.
func Hex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}
