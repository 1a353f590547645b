package tiles

import (
	"image"

	"github.com/DanCrank/shopclock/internal/config"
	"github.com/DanCrank/shopclock/internal/render"
)

// TextTile shows a fixed, possibly multi-line message centered on the tile.
type TextTile struct {
	*base
	text string
}

func NewTextTile(entry config.Tile, deps Deps) (*TextTile, error) {
	b, err := newBase(KindText, entry, deps)
	if err != nil {
		return nil, err
	}
	return &TextTile{base: b, text: entry.Text}, nil
}

func (t *TextTile) RenderLarge() *image.RGBA {
	return t.renderAt(t.size, t.fontSize)
}

// RenderSmall lays the text out again at smallFontSize so it stays legible
// in the flanking slots.
func (t *TextTile) RenderSmall(size int) (*image.RGBA, bool) {
	if t.smallFontSize <= 0 || size <= 0 {
		return nil, false
	}
	return t.renderAt(size, t.smallFontSize), true
}

func (t *TextTile) renderAt(size, fontSize int) *image.RGBA {
	img := t.canvasSized(size)
	face := t.face(fontSize)
	block := t.wrapped(t.text, size-2*margin, face, render.TextAlignCenter)
	blitCentered(img, block)
	return img
}
