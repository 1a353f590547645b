package render

import (
	"image"
	"image/color"

	"github.com/DanCrank/shopclock/internal/render/layout"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Measure returns a width function for face suitable for layout.Wrap.
func Measure(face font.Face) layout.MeasureFunc {
	return func(s string) int {
		return font.MeasureString(face, s).Ceil()
	}
}

// LineHeight is the distance between consecutive baselines for face.
func LineHeight(face font.Face) int {
	return face.Metrics().Height.Ceil()
}

// TextBlock renders lines stacked top to bottom onto a transparent image
// just large enough to hold them. Empty lines still take vertical space.
// Each line is aligned within the width of the widest line.
func TextBlock(lines []string, face font.Face, fg color.Color, align TextAlign) *image.RGBA {
	measure := Measure(face)
	width := 0
	for _, line := range lines {
		if w := measure(line); w > width {
			width = w
		}
	}
	lineHeight := LineHeight(face)
	img := image.NewRGBA(image.Rect(0, 0, width, lineHeight*len(lines)))
	if width == 0 {
		return img
	}
	ascent := face.Metrics().Ascent.Ceil()
	for i, line := range lines {
		x := 0
		switch align {
		case TextAlignCenter:
			x = (width - measure(line)) / 2
		case TextAlignRight:
			x = width - measure(line)
		}
		drawTextAt(img, line, x, i*lineHeight+ascent, fg, face)
	}
	return img
}

// DrawText draws a single line with its top-left corner at (x, y) and
// returns the drawn width.
func DrawText(dst *image.RGBA, text string, x, y int, fg color.Color, face font.Face) int {
	return drawTextAt(dst, text, x, y+face.Metrics().Ascent.Ceil(), fg, face)
}

func drawTextAt(img *image.RGBA, text string, x, baselineY int, fg color.Color, face font.Face) int {
	drawer := &font.Drawer{Dst: img, Src: &image.Uniform{C: fg}, Face: face}
	drawer.Dot = fixed.P(x, baselineY)
	drawer.DrawString(text)
	return drawer.Dot.X.Ceil() - x
}
