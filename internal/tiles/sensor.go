package tiles

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/DanCrank/shopclock/internal/config"
	"github.com/DanCrank/shopclock/internal/render"
	"github.com/DanCrank/shopclock/internal/render/layout"
	"github.com/DanCrank/shopclock/internal/state"
)

// SensorFunc reads a temperature in degrees Celsius.
type SensorFunc func() (float64, error)

const thermometerIcon = "thermometer.png"

type sensorSnapshot struct {
	statusOf
	celsius    int
	fahrenheit int
	valid      bool
}

// CPUTemperatureTile shows the board temperature in C and F under a
// thermometer icon.
type CPUTemperatureTile struct {
	*base
	read     SensorFunc
	interval time.Duration
	iconSize int
	icon     image.Image
	now      func() time.Time
	snap     *state.Value[sensorSnapshot]
}

func NewCPUTemperatureTile(entry config.Tile, deps Deps) (*CPUTemperatureTile, error) {
	b, err := newBase(KindCPUTemperature, entry, deps)
	if err != nil {
		return nil, err
	}
	if deps.Sensor == nil {
		return nil, fmt.Errorf("tile %s: no temperature sensor configured", b.name)
	}
	t := &CPUTemperatureTile{
		base:     b,
		read:     deps.Sensor,
		interval: deps.SensorInterval,
		iconSize: entry.IconSize,
		now:      deps.now(),
		snap:     state.NewValue(sensorSnapshot{}),
	}
	if t.iconSize <= 0 {
		t.iconSize = 150
	}
	if deps.Images != nil {
		if icon, err := deps.Images.Icon(thermometerIcon, t.iconSize); err == nil {
			t.icon = icon
		} else {
			b.log.Infof("tile", "%s: no thermometer icon: %v", b.name, err)
		}
	}
	return t, nil
}

func (t *CPUTemperatureTile) RefreshInterval() time.Duration { return t.interval }

func (t *CPUTemperatureTile) Refresh(ctx context.Context) error {
	t.refreshing.Lock()
	defer t.refreshing.Unlock()
	c, err := t.read()
	if err != nil {
		t.snap.Update(func(s sensorSnapshot) sensorSnapshot {
			s.statusOf = s.statusOf.failed(err)
			return s
		})
		return err
	}
	tempC := int(c)
	t.snap.Store(sensorSnapshot{
		statusOf:   statusOf{}.succeeded(t.now()),
		celsius:    tempC,
		fahrenheit: int(float64(tempC)*1.8 + 32),
		valid:      true,
	})
	return nil
}

func (t *CPUTemperatureTile) Status() Status { return t.snap.Load().status() }

// Reading is the text shown under the icon.
func (t *CPUTemperatureTile) Reading() string { return sensorReading(t.snap.Load()) }

func sensorReading(s sensorSnapshot) string {
	if !s.valid {
		return "-- C / -- F"
	}
	return fmt.Sprintf("%d C / %d F", s.celsius, s.fahrenheit)
}

func (t *CPUTemperatureTile) RenderLarge() *image.RGBA {
	img := t.canvas()
	s := t.snap.Load()
	face := t.face(t.fontSize)
	inner := layout.Inset(img.Bounds(), margin)

	caption := t.text("CPU Temp", face, t.fg, render.TextAlignCenter)
	topH := blitCenteredX(img, caption, inner.Min.Y)

	reading := t.text(sensorReading(s), face, t.fg, render.TextAlignCenter)
	bottomY := inner.Max.Y - reading.Bounds().Dy()
	blitCenteredX(img, reading, bottomY)

	if t.icon != nil {
		_, rest := layout.SplitHorizontal(inner, topH)
		rest.Max.Y = bottomY
		r := layout.CenterIn(rest, t.iconSize, t.iconSize)
		blit(img, t.icon, r.Min.X, r.Min.Y)
	}
	if s.stale {
		t.staleMarker(img)
	}
	return img
}
