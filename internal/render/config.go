package render

import (
	"image/color"
	"strconv"
)

// Fixed colors used by tile decorations.
var (
	// ErrorGlyph marks a tile whose data is stale.
	ErrorGlyph = color.RGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF} // #ff0000
	// IconHalo is the disc drawn behind weather icons.
	IconHalo = color.RGBA{R: 0xB0, G: 0xB0, B: 0xFF, A: 0xFF} // #b0b0ff
)

// ParseColor converts "#RRGGBB" into an opaque color. Anything else is black.
func ParseColor(hex string) color.RGBA {
	black := color.RGBA{A: 0xFF}
	if len(hex) != 7 || hex[0] != '#' {
		return black
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}
