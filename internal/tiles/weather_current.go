package tiles

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/DanCrank/shopclock/internal/config"
	"github.com/DanCrank/shopclock/internal/render"
	"github.com/DanCrank/shopclock/internal/state"
	"github.com/DanCrank/shopclock/internal/weather"
	"github.com/fogleman/gg"
)

const defaultIconSize = 75

type currentSnapshot struct {
	statusOf
	weather.Current
	windDir string
}

// WeatherCurrentTile shows current conditions with a halo'd icon. On a
// failed refresh it keeps the last good values and shows the stale marker.
type WeatherCurrentTile struct {
	*base
	client   weather.Client
	units    weather.Units
	interval time.Duration
	iconSize int
	images   ImageStore
	now      func() time.Time
	snap     *state.Value[currentSnapshot]
}

func NewWeatherCurrentTile(entry config.Tile, deps Deps) (*WeatherCurrentTile, error) {
	b, err := newBase(KindWeatherCurrent, entry, deps)
	if err != nil {
		return nil, err
	}
	if deps.Weather == nil {
		return nil, fmt.Errorf("tile %s: no weather client configured", b.name)
	}
	t := &WeatherCurrentTile{
		base:     b,
		client:   deps.Weather,
		units:    deps.Units,
		interval: deps.WeatherInterval,
		iconSize: entry.IconSize,
		images:   deps.Images,
		now:      deps.now(),
		snap:     state.NewValue(currentSnapshot{Current: weather.Current{Condition: "Error"}, windDir: "N/A"}),
	}
	if t.iconSize <= 0 {
		t.iconSize = defaultIconSize
	}
	return t, nil
}

func (t *WeatherCurrentTile) RefreshInterval() time.Duration { return t.interval }

func (t *WeatherCurrentTile) Refresh(ctx context.Context) error {
	t.refreshing.Lock()
	defer t.refreshing.Unlock()
	cur, err := t.client.Current(ctx)
	if err != nil {
		t.snap.Update(func(s currentSnapshot) currentSnapshot {
			s.statusOf = s.statusOf.failed(err)
			return s
		})
		return err
	}
	t.snap.Store(currentSnapshot{
		statusOf: statusOf{}.succeeded(t.now()),
		Current:  cur,
		windDir:  weather.BearingToDir(cur.WindDeg),
	})
	return nil
}

func (t *WeatherCurrentTile) Status() Status { return t.snap.Load().status() }

// Caption is the locale heading.
func (t *WeatherCurrentTile) Caption() string { return currentCaption(t.snap.Load()) }

// StatusText is the multi-line conditions block.
func (t *WeatherCurrentTile) StatusText() string { return t.statusText(t.snap.Load()) }

func currentCaption(s currentSnapshot) string {
	return strings.TrimSpace(s.Locale + " Weather")
}

func (t *WeatherCurrentTile) statusText(s currentSnapshot) string {
	deg, speed := t.units.Temp(), t.units.Speed()
	return fmt.Sprintf("%.0f %s and %s\nHumidity: %.0f%%\nFeels like: %.0f %s\nWind: %s at %.0f %s",
		s.Temp, deg, s.Condition, s.Humidity, s.FeelsLike, deg, s.windDir, s.WindSpeed, speed)
}

func (t *WeatherCurrentTile) RenderLarge() *image.RGBA {
	img := t.canvas()
	s := t.snap.Load()
	face := t.face(t.fontSize)
	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	top := t.text(currentCaption(s), face, t.fg, render.TextAlignCenter)
	topH := blitCenteredX(img, top, margin)

	bottom := t.text(t.statusText(s), face, t.fg, render.TextAlignCenter)
	bottomH := bottom.Bounds().Dy()
	blitCenteredX(img, bottom, height-bottomH-margin)

	if s.Icon != "" {
		emptyY := height - topH - bottomH - 2*margin
		x := width/2 - t.iconSize/2
		y := margin + topH + emptyY/2 - t.iconSize/2
		drawIcon(img, t.images, s.Icon, x, y, t.iconSize)
	}
	if s.stale {
		t.staleMarker(img)
	}
	return img
}

// drawIcon paints the halo disc and the weather icon at (x, y). A missing
// icon file leaves just the halo.
func drawIcon(dst *image.RGBA, images ImageStore, code string, x, y, size int) {
	dc := gg.NewContextForRGBA(dst)
	r := float64(size) / 2
	dc.DrawEllipse(float64(x)+r, float64(y)+r, r, r)
	dc.SetColor(render.IconHalo)
	dc.Fill()
	if images == nil || code == "" {
		return
	}
	icon, err := images.Icon("openweather/"+code+"@2x.png", size)
	if err != nil {
		return
	}
	blit(dst, icon, x, y)
}
