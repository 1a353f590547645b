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
)

const (
	forecastColumns  = 5
	forecastFontSize = 18
)

type forecastSnapshot struct {
	statusOf
	locale string
	days   [weather.DaySlots]weather.Day
	at     time.Time
}

// WeatherForecastTile shows five days in a row of three with two more
// centered beneath.
type WeatherForecastTile struct {
	*base
	client   weather.Client
	units    weather.Units
	interval time.Duration
	iconSize int
	images   ImageStore
	now      func() time.Time
	snap     *state.Value[forecastSnapshot]
}

func NewWeatherForecastTile(entry config.Tile, deps Deps) (*WeatherForecastTile, error) {
	b, err := newBase(KindWeatherForecast, entry, deps)
	if err != nil {
		return nil, err
	}
	if deps.Weather == nil {
		return nil, fmt.Errorf("tile %s: no weather client configured", b.name)
	}
	t := &WeatherForecastTile{
		base:     b,
		client:   deps.Weather,
		units:    deps.Units,
		interval: deps.WeatherInterval,
		iconSize: entry.IconSize,
		images:   deps.Images,
		now:      deps.now(),
	}
	if t.iconSize <= 0 {
		t.iconSize = defaultIconSize
	}
	t.snap = state.NewValue(forecastSnapshot{at: t.now()})
	return t, nil
}

func (t *WeatherForecastTile) RefreshInterval() time.Duration { return t.interval }

func (t *WeatherForecastTile) Refresh(ctx context.Context) error {
	t.refreshing.Lock()
	defer t.refreshing.Unlock()
	fc, err := t.client.Forecast(ctx)
	if err != nil {
		t.snap.Update(func(s forecastSnapshot) forecastSnapshot {
			s.statusOf = s.statusOf.failed(err)
			return s
		})
		return err
	}
	now := t.now()
	t.snap.Store(forecastSnapshot{
		statusOf: statusOf{}.succeeded(now),
		locale:   fc.Locale,
		days:     weather.Aggregate(fc.Points, now),
		at:       now,
	})
	return nil
}

func (t *WeatherForecastTile) Status() Status { return t.snap.Load().status() }

// Columns returns the five (label, stat block, icon) triples in display
// order, after skipping the empty leading slot when the data starts tomorrow.
func (t *WeatherForecastTile) Columns() [forecastColumns]Column {
	return t.columns(t.snap.Load(), t.now())
}

// columns lays out s. Slot 0 is labelled Today or Tonight from now; the
// other labels count days from the refresh that produced s.
func (t *WeatherForecastTile) columns(s forecastSnapshot, now time.Time) [forecastColumns]Column {
	offset := weather.Offset(s.days)
	var cols [forecastColumns]Column
	deg, speed := t.units.Temp(), t.units.Speed()
	for d := 0; d < forecastColumns; d++ {
		slot := d + offset
		day := s.days[slot]
		label := weather.DayLabel(slot, s.at)
		if slot == 0 {
			label = weather.DayLabel(0, now)
		}
		if !day.Valid {
			cols[d] = Column{Label: label, Text: label + ":\nN/A"}
			continue
		}
		cols[d] = Column{
			Label: label,
			Icon:  day.Icon,
			Text: fmt.Sprintf("%s:\nHigh: %.0f %s\nLow: %.0f %s\nWind: %.0f-%.0f %s\n%s",
				label, day.High, deg, day.Low, deg, day.WindLow, day.WindHigh, speed, day.ConditionName),
		}
	}
	return cols
}

// Column is one day of the forecast grid.
type Column struct {
	Label string
	Icon  string
	Text  string
}

func (t *WeatherForecastTile) RenderLarge() *image.RGBA {
	img := t.canvas()
	s := t.snap.Load()
	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	caption := strings.TrimSpace(s.locale + " Forecast")
	top := t.text(caption, t.face(t.fontSize), t.fg, render.TextAlignCenter)
	topH := blitCenteredX(img, top, margin)

	topRowY := topH + 2*margin
	bottomRowY := (height-topRowY)/2 + topRowY
	columnWidth := width / 3
	var x, y [forecastColumns]int
	for d := 0; d < 3; d++ {
		x[d] = d*columnWidth + margin/2
		y[d] = topRowY
	}
	x[3], y[3] = (x[0]+x[1])/2, bottomRowY
	x[4], y[4] = (x[1]+x[2])/2, bottomRowY
	iconOffset := (columnWidth - t.iconSize) / 2

	small := t.face(forecastFontSize)
	for d, col := range t.columns(s, t.now()) {
		drawIcon(img, t.images, col.Icon, x[d]+iconOffset, y[d], t.iconSize)
		block := t.text(col.Text, small, t.fg, render.TextAlignLeft)
		blit(img, block, x[d], y[d]+t.iconSize+margin/2)
	}
	if s.stale {
		t.staleMarker(img)
	}
	return img
}
