package render

import (
	"image/color"

	"github.com/fogleman/gg"
)

// BrushPattern returns the stroke style for a brush painting with a two-stop linear
// gradient from start at the top-left corner to end at (width, height). Invalid
// colours fall back to white.
func BrushPattern(start, end string, width, height int) gg.Pattern {
	g := gg.NewLinearGradient(0, 0, float64(width), float64(height))
	g.AddColorStop(0, colorOrWhite(start))
	g.AddColorStop(1, colorOrWhite(end))
	return g
}

func colorOrWhite(hex string) color.Color {
	c, err := ParseHex(hex)
	if err != nil {
		return color.White
	}
	return c
}
