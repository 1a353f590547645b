package tiles

import (
	"fmt"
	"image"

	"github.com/DanCrank/shopclock/internal/config"
	"github.com/DanCrank/shopclock/internal/render"
	"github.com/DanCrank/shopclock/internal/render/layout"
)

// QRCodeTile shows a caption above a QR code of a fixed payload, e.g. the
// shop's web page or wifi join string.
type QRCodeTile struct {
	*base
	title string
	code  image.Image
}

func NewQRCodeTile(entry config.Tile, deps Deps) (*QRCodeTile, error) {
	b, err := newBase(KindQRCode, entry, deps)
	if err != nil {
		return nil, err
	}
	if entry.Payload == "" {
		return nil, fmt.Errorf("tile %s: QRCode needs a payload", b.name)
	}
	t := &QRCodeTile{base: b, title: entry.Title}
	codeSize := b.size - 3*margin
	if t.title != "" {
		codeSize -= render.LineHeight(b.face(b.fontSize))
	}
	code, err := render.GenerateQRCodeImage(entry.Payload, codeSize, b.fg, b.bg)
	if err != nil {
		return nil, fmt.Errorf("tile %s: %w", b.name, err)
	}
	t.code = code
	return t, nil
}

func (t *QRCodeTile) RenderLarge() *image.RGBA {
	img := t.canvas()
	inner := layout.Inset(img.Bounds(), margin)
	topH := 0
	if t.title != "" {
		topH = blitCenteredX(img, t.text(t.title, t.face(t.fontSize), t.fg, render.TextAlignCenter), inner.Min.Y) + margin
	}
	_, rest := layout.SplitHorizontal(inner, topH)
	cb := t.code.Bounds()
	r := layout.CenterIn(rest, cb.Dx(), cb.Dy())
	blit(img, t.code, r.Min.X, r.Min.Y)
	return img
}
