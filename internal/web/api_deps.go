package web

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/DanCrank/shopclock/internal/render"
	"github.com/DanCrank/shopclock/internal/state"
)

// StatusSource abstracts the carousel state used by the API.
type StatusSource interface {
	Snapshot() state.State
}

// Controller drives the carousel out of schedule. Both calls block on the
// render lock like the scheduled triggers.
type Controller interface {
	Rotate() error
	Tick() error
}

// TileStatus is the per-tile refresh bookkeeping shown by /status.
type TileStatus struct {
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Stale       bool      `json:"stale"`
	LastRefresh time.Time `json:"lastRefresh,omitzero"`
	LastError   string    `json:"lastError,omitempty"`
}

type APIV1Deps struct {
	Status  StatusSource
	Control Controller
	Frames  render.FrameSource
	Tiles   func() []TileStatus
	// RefreshTiles refreshes every data-backed tile now.
	RefreshTiles func(ctx context.Context) error
	// ConfigYAML returns the effective configuration.
	ConfigYAML func() ([]byte, error)
}

func (d APIV1Deps) withDefaults() APIV1Deps {
	out := d
	if out.Status == nil {
		out.Status = state.NewStore()
	}
	if out.Control == nil {
		out.Control = NoopController{Err: errors.New("carousel not configured")}
	}
	if out.Frames == nil {
		out.Frames = noFrames{}
	}
	if out.Tiles == nil {
		out.Tiles = func() []TileStatus { return nil }
	}
	return out
}

type NoopController struct{ Err error }

func (c NoopController) Rotate() error { return c.err() }
func (c NoopController) Tick() error   { return c.err() }

func (c NoopController) err() error {
	if c.Err != nil {
		return c.Err
	}
	return errors.New("carousel not configured")
}

type noFrames struct{}

func (noFrames) LastFrame() (image.Image, bool) { return nil, false }
