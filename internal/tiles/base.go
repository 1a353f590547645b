package tiles

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/DanCrank/shopclock/internal/config"
	"github.com/DanCrank/shopclock/internal/render"
	"github.com/DanCrank/shopclock/internal/render/layout"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const (
	defaultFontSize = 36
	margin          = 10
)

// base holds the style every tile shares and draws its background.
type base struct {
	name  string
	kind  Kind
	size  int
	fonts *render.Fonts
	log   Logger

	fontName      string
	fontSize      int
	smallFontSize int
	fg            color.RGBA
	bg            color.RGBA

	bgSource image.Image
	bgLarge  *image.RGBA

	mu       sync.Mutex
	bgSmall  map[int]*image.RGBA
	fontWarn sync.Once

	// refreshing serializes Refresh so each snapshot has one writer at a
	// time. Renders never take it.
	refreshing sync.Mutex
}

func newBase(kind Kind, entry config.Tile, deps Deps) (*base, error) {
	b := &base{
		name:          entry.Name,
		kind:          kind,
		size:          deps.Size,
		fonts:         deps.Fonts,
		log:           deps.Logger,
		fontName:      entry.Font,
		fontSize:      entry.FontSize,
		smallFontSize: entry.SmallFontSize,
		fg:            render.ParseColor(orDefault(entry.TextColor, "#FFFFFF")),
		bg:            render.ParseColor(orDefault(entry.BackgroundColor, "#000000")),
		bgSmall:       map[int]*image.RGBA{},
	}
	if b.fontSize <= 0 {
		b.fontSize = defaultFontSize
	}
	if b.log == nil {
		b.log = nopLogger{}
	}
	if b.fonts == nil {
		b.fonts = render.NewFonts("")
	}
	if entry.BackgroundImage != "" {
		if deps.Images == nil {
			return nil, fmt.Errorf("tile %s: background image %s needs an image store", b.name, entry.BackgroundImage)
		}
		img, err := deps.Images.Image(entry.BackgroundImage)
		if err != nil {
			return nil, fmt.Errorf("tile %s: %w", b.name, err)
		}
		b.bgSource = img
		b.bgLarge = toRGBA(imaging.Fill(img, b.size, b.size, imaging.Center, imaging.Lanczos))
	}
	return b, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func toRGBA(img image.Image) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

func (b *base) Name() string { return b.name }
func (b *base) Kind() Kind   { return b.kind }

// canvas returns a fresh large-size image with the tile background.
func (b *base) canvas() *image.RGBA {
	return b.canvasSized(b.size)
}

func (b *base) canvasSized(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	var bg *image.RGBA
	switch {
	case b.bgSource == nil:
	case size == b.size:
		bg = b.bgLarge
	default:
		b.mu.Lock()
		bg = b.bgSmall[size]
		if bg == nil {
			bg = toRGBA(imaging.Fill(b.bgSource, size, size, imaging.Center, imaging.Lanczos))
			b.bgSmall[size] = bg
		}
		b.mu.Unlock()
	}
	if bg != nil {
		copy(img.Pix, bg.Pix)
	} else {
		draw.Draw(img, img.Bounds(), &image.Uniform{C: b.bg}, image.Point{}, draw.Src)
	}
	return img
}

// face falls back to basicfont when the configured font cannot be loaded,
// so a bad font name degrades the tile instead of breaking rendering.
func (b *base) face(size int) font.Face {
	face, err := b.fonts.Face(b.fontName, size)
	if err != nil {
		b.fontWarn.Do(func() { b.log.Errorf("tile", "%s: %v; using fallback font", b.name, err) })
		return basicfont.Face7x13
	}
	return face
}

// text renders text with its hard line breaks honored and no wrapping.
func (b *base) text(s string, face font.Face, fg color.Color, align render.TextAlign) *image.RGBA {
	return render.TextBlock(layout.SplitLines(s), face, fg, align)
}

// wrapped renders s word-wrapped to width.
func (b *base) wrapped(s string, width int, face font.Face, align render.TextAlign) *image.RGBA {
	return render.TextBlock(layout.Wrap(s, width, render.Measure(face)), face, b.fg, align)
}

// staleMarker draws a red X in the top-left corner.
func (b *base) staleMarker(dst *image.RGBA) {
	blit(dst, b.text("X", b.face(b.fontSize), render.ErrorGlyph, render.TextAlignLeft), 0, 0)
}

func blit(dst *image.RGBA, src image.Image, x, y int) {
	if src == nil {
		return
	}
	sb := src.Bounds()
	draw.Draw(dst, image.Rect(x, y, x+sb.Dx(), y+sb.Dy()), src, sb.Min, draw.Over)
}

// blitCenteredX draws src horizontally centered at row y and returns its height.
func blitCenteredX(dst *image.RGBA, src *image.RGBA, y int) int {
	x := (dst.Bounds().Dx() - src.Bounds().Dx()) / 2
	blit(dst, src, x, y)
	return src.Bounds().Dy()
}

// blitCentered draws src centered in dst.
func blitCentered(dst *image.RGBA, src *image.RGBA) {
	r := layout.CenterIn(dst.Bounds(), src.Bounds().Dx(), src.Bounds().Dy())
	blit(dst, src, r.Min.X, r.Min.Y)
}
