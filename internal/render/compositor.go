package render

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
)

// Band is a strip of text above or below the carousel.
type Band struct {
	Height     int
	Background color.Color
	Color      color.Color
	Face       font.Face
	Left       string
	Right      string
}

// Slot places one tile in the carousel strip. The tile image is scaled to a
// Size x Size square whose left edge is X and which is centered vertically
// in the strip.
type Slot struct {
	Image image.Image
	X     int
	Size  int
}

// Scene is everything needed to build one frame.
type Scene struct {
	Background  color.Color
	Top         *Band
	Bottom      *Band
	StripHeight int
	Slots       []Slot
	Quality     Quality
}

// Height is the total frame height the scene occupies.
func (s Scene) Height() int {
	h := s.StripHeight
	if s.Top != nil {
		h += s.Top.Height
	}
	if s.Bottom != nil {
		h += s.Bottom.Height
	}
	return h
}

// Compose draws scene onto dst, replacing all of its pixels. Given equal
// scenes it produces identical frames.
func Compose(dst *image.RGBA, scene Scene) {
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, &image.Uniform{C: scene.Background}, image.Point{}, draw.Src)

	y := bounds.Min.Y
	if scene.Top != nil && scene.Top.Height > 0 {
		drawBand(dst, image.Rect(bounds.Min.X, y, bounds.Max.X, y+scene.Top.Height), scene.Top)
		y += scene.Top.Height
	}

	var scaler xdraw.Scaler = xdraw.CatmullRom
	if scene.Quality == Fast {
		scaler = xdraw.NearestNeighbor
	}
	center := y + scene.StripHeight/2
	for _, slot := range scene.Slots {
		if slot.Image == nil || slot.Size <= 0 {
			continue
		}
		top := center - slot.Size/2
		rect := image.Rect(bounds.Min.X+slot.X, top, bounds.Min.X+slot.X+slot.Size, top+slot.Size)
		if !rect.Overlaps(bounds) {
			continue
		}
		scaler.Scale(dst, rect, slot.Image, slot.Image.Bounds(), draw.Over, nil)
	}
	y += scene.StripHeight

	if scene.Bottom != nil && scene.Bottom.Height > 0 {
		drawBand(dst, image.Rect(bounds.Min.X, y, bounds.Max.X, y+scene.Bottom.Height), scene.Bottom)
	}
}

func drawBand(dst *image.RGBA, rect image.Rectangle, band *Band) {
	if band.Background != nil {
		draw.Draw(dst, rect, &image.Uniform{C: band.Background}, image.Point{}, draw.Src)
	}
	if band.Face == nil {
		return
	}
	fg := band.Color
	if fg == nil {
		fg = color.White
	}
	sub, ok := dst.SubImage(rect).(*image.RGBA)
	if !ok {
		return
	}
	if band.Left != "" {
		DrawText(sub, band.Left, rect.Min.X, rect.Min.Y, fg, band.Face)
	}
	if band.Right != "" {
		w := Measure(band.Face)(band.Right)
		DrawText(sub, band.Right, rect.Max.X-w, rect.Min.Y, fg, band.Face)
	}
}
