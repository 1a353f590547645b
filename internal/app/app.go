package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/DanCrank/shopclock/internal/carousel"
	"github.com/DanCrank/shopclock/internal/config"
	"github.com/DanCrank/shopclock/internal/feed"
	"github.com/DanCrank/shopclock/internal/render"
	"github.com/DanCrank/shopclock/internal/state"
	"github.com/DanCrank/shopclock/internal/system"
	"github.com/DanCrank/shopclock/internal/tiles"
	"github.com/DanCrank/shopclock/internal/weather"
	"github.com/DanCrank/shopclock/internal/web"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPollInterval   = 16 * time.Millisecond
	initialRefreshTimeout = 15 * time.Second
)

type App struct {
	Config    *config.Config
	Store     *state.Store
	Presenter render.Presenter
	Logger    Logger

	// Weather, Feed and Sensor replace the collaborators Build would
	// create from Config.
	Weather weather.Client
	Feed    feed.Client
	Sensor  tiles.SensorFunc

	// Routes adds handlers to the web mux next to /api/v1/.
	Routes func(mux *http.ServeMux)

	// TakeConsole switches the VT to graphics mode while running.
	TakeConsole bool
	// ExitKeys are evdev key codes that stop the app.
	ExitKeys     []uint16
	PollInterval time.Duration

	engine *carousel.Engine
	tiles  []tiles.Tile
	web    *web.HTTPServer

	exitOnce atomic.Bool
	exitCh   chan error
}

func New(cfg *config.Config, store *state.Store, presenter render.Presenter) *App {
	if store == nil {
		store = state.NewStore()
	}
	return &App{Config: cfg, Store: store, Presenter: presenter, Logger: NoopLogger{}, exitCh: make(chan error, 1)}
}

// Exit requests the app to stop running.
func (app *App) Exit(err error) {
	if app.exitCh == nil {
		return
	}
	if !app.exitOnce.CompareAndSwap(false, true) {
		return
	}
	select {
	case app.exitCh <- err:
	default:
	}
}

// Engine is the carousel built by Build, or nil before it.
func (app *App) Engine() *carousel.Engine { return app.engine }

// RefreshTiles refreshes every data-backed tile now.
func (app *App) RefreshTiles(ctx context.Context) error {
	return tiles.RefreshAll(ctx, app.tiles, app.Logger)
}

// Start runs the clock until ctx is done, the presenter reports a quit, an
// exit key is pressed or Exit is called. It must be called from the
// goroutine that owns the display; Pump runs here.
func (app *App) Start(ctx context.Context) error {
	if app.exitCh == nil {
		app.exitCh = make(chan error, 1)
	}
	app.exitOnce.Store(false)
	if app.engine == nil {
		if err := app.Build(); err != nil {
			return err
		}
	}

	if err := app.Presenter.Start(ctx); err != nil {
		app.Logger.Errorf("app", "presenter start error: %v", err)
		return err
	}
	defer app.Presenter.Stop()

	if app.TakeConsole {
		restore := system.TakeConsole(app.Logger)
		defer restore()
	}

	refreshCtx, cancelRefresh := context.WithTimeout(ctx, initialRefreshTimeout)
	if err := app.RefreshTiles(refreshCtx); err != nil {
		app.Logger.Errorf("app", "initial refresh incomplete: %v", err)
	}
	cancelRefresh()

	// Presenters may wait for Pump to show a frame, so every frame is
	// composed off this goroutine, Init included.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		if err := app.engine.Init(); err != nil {
			return fmt.Errorf("carousel init: %w", err)
		}
		return app.engine.Run(gctx)
	})
	for _, t := range app.tiles {
		r, ok := t.(tiles.Refresher)
		if !ok {
			continue
		}
		name := t.Name()
		g.Go(func() error { return tiles.RefreshLoop(gctx, name, r, app.Logger) })
	}
	if app.web != nil {
		if err := app.web.Start(gctx); err != nil {
			app.Logger.Errorf("web", "not serving: %v", err)
		}
	}
	system.StartExitOnKeys(gctx, app.Logger, app.ExitKeys, func() { app.Exit(nil) })

	err := app.foreground(gctx)
	cancel()
	if werr := app.drain(g); werr != nil && (err == nil || errors.Is(err, context.Canceled)) {
		err = werr
	}
	if app.web != nil {
		_ = app.web.Stop()
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	app.Logger.Infof("app", "stopped")
	return err
}

func (app *App) foreground(ctx context.Context) error {
	poll := app.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		if app.Presenter.Pump() {
			app.Logger.Infof("app", "quit requested by display")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-app.exitCh:
			return err
		case <-ticker.C:
		}
	}
}

// drain keeps servicing the display until the background goroutines have
// stopped, so a Present waiting on Pump can finish.
func (app *App) drain(g *errgroup.Group) error {
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	poll := app.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			app.Presenter.Pump()
		}
	}
}
