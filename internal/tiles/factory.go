package tiles

import (
	"context"
	"fmt"
	"image"
	"math/rand"
	"time"

	"github.com/DanCrank/shopclock/internal/config"
	"github.com/DanCrank/shopclock/internal/feed"
	"github.com/DanCrank/shopclock/internal/render"
	"github.com/DanCrank/shopclock/internal/weather"
	"golang.org/x/sync/errgroup"
)

// ImageStore loads background images and icons.
type ImageStore interface {
	Image(name string) (image.Image, error)
	Icon(name string, size int) (image.Image, error)
}

// Deps are the shared collaborators handed to every tile at construction.
type Deps struct {
	Size   int
	Fonts  *render.Fonts
	Images ImageStore
	Logger Logger

	Weather         weather.Client
	Units           weather.Units
	WeatherInterval time.Duration

	Feed         feed.Client
	FeedInterval time.Duration

	Sensor         SensorFunc
	SensorInterval time.Duration

	Now  func() time.Time
	Rand *rand.Rand
}

func (d Deps) now() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return time.Now
}

// Build creates tiles in declared order. Entries with an unknown type are
// logged and skipped; any other construction error aborts.
func Build(entries []config.Tile, deps Deps) ([]Tile, error) {
	if deps.Logger == nil {
		deps.Logger = nopLogger{}
	}
	out := make([]Tile, 0, len(entries))
	for i, entry := range entries {
		kind, ok := ParseKind(entry.Type)
		if !ok {
			deps.Logger.Errorf("tiles", "entry %d: %v %q, skipping", i, ErrUnknownType, entry.Type)
			continue
		}
		if entry.Name == "" {
			entry.Name = fmt.Sprintf("%s#%d", kind, i)
		}
		tile, err := build(kind, entry, deps)
		if err != nil {
			return nil, err
		}
		deps.Logger.Infof("tiles", "built %s", entry.Name)
		out = append(out, tile)
	}
	return out, nil
}

func build(kind Kind, entry config.Tile, deps Deps) (Tile, error) {
	switch kind {
	case KindText:
		return NewTextTile(entry, deps)
	case KindCPUTemperature:
		return NewCPUTemperatureTile(entry, deps)
	case KindWeatherCurrent:
		return NewWeatherCurrentTile(entry, deps)
	case KindWeatherForecast:
		return NewWeatherForecastTile(entry, deps)
	case KindRandomPost:
		return NewRandomPostTile(entry, deps)
	case KindQRCode:
		return NewQRCodeTile(entry, deps)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownType, kind)
}

// RefreshLoop refreshes r every interval until ctx is done. The caller does
// the first refresh. Failures are logged; the tile keeps its last good data.
func RefreshLoop(ctx context.Context, name string, r Refresher, logger Logger) error {
	if logger == nil {
		logger = nopLogger{}
	}
	interval := r.RefreshInterval()
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
				logger.Errorf("tiles", "%s refresh failed: %v", name, err)
			}
		}
	}
}

// RefreshAll refreshes every Refresher in ts concurrently and returns the
// first failure. Every tile is attempted regardless.
func RefreshAll(ctx context.Context, ts []Tile, logger Logger) error {
	if logger == nil {
		logger = nopLogger{}
	}
	var g errgroup.Group
	for _, t := range ts {
		r, ok := t.(Refresher)
		if !ok {
			continue
		}
		name := t.Name()
		g.Go(func() error {
			if err := r.Refresh(ctx); err != nil {
				logger.Errorf("tiles", "%s refresh failed: %v", name, err)
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
