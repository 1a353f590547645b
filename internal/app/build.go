package app

import (
	"errors"
	"fmt"

	"github.com/DanCrank/shopclock/internal/assets"
	"github.com/DanCrank/shopclock/internal/carousel"
	"github.com/DanCrank/shopclock/internal/config"
	"github.com/DanCrank/shopclock/internal/feed"
	"github.com/DanCrank/shopclock/internal/render"
	"github.com/DanCrank/shopclock/internal/system"
	"github.com/DanCrank/shopclock/internal/tiles"
	"github.com/DanCrank/shopclock/internal/weather"
	"github.com/DanCrank/shopclock/internal/web"
)

var ErrNoTiles = errors.New("no usable tiles configured")

// bandFontScale sizes band text relative to the band height.
const bandFontScale = 0.9

// Build constructs fonts, images, collaborators, tiles, the engine and the
// web server from Config. Collaborators already set on App are kept; a nil
// Presenter becomes the framebuffer.
func (app *App) Build() error {
	cfg := app.Config
	if app.Logger == nil {
		app.Logger = NoopLogger{}
	}
	if app.Presenter == nil {
		app.Presenter = render.NewFBPresenter(cfg.FramebufferDevice)
	}
	if fb, ok := app.Presenter.(*render.FBPresenter); ok {
		fb.Logger = app.Logger
	}
	for _, w := range cfg.ColorWarnings() {
		app.Logger.Errorf("config", "malformed color %s, using black", w)
	}

	fonts := render.NewFonts(cfg.FontsDir)
	images := assets.NewStore(cfg.ImagesDir)
	units := weather.Imperial
	if cfg.OpenWeatherUnits == "metric" {
		units = weather.Metric
	}
	if app.Weather == nil && cfg.OpenWeatherAPIKey != "" {
		app.Weather = weather.NewOpenWeatherClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherCityID, units)
	}
	if app.Feed == nil && cfg.FeedBaseURL != "" {
		app.Feed = feed.NewMastodonClient(cfg.FeedBaseURL, cfg.FeedAccessToken)
	}
	if app.Sensor == nil {
		app.Sensor = system.TemperatureSensor(cfg.SensorPath, system.ShellRunner{})
	}

	built, err := tiles.Build(cfg.Tiles, tiles.Deps{
		Size:            cfg.TileSizeLarge,
		Fonts:           fonts,
		Images:          images,
		Logger:          app.Logger,
		Weather:         app.Weather,
		Units:           units,
		WeatherInterval: cfg.WeatherInterval(),
		Feed:            app.Feed,
		FeedInterval:    cfg.FeedInterval(),
		Sensor:          app.Sensor,
		SensorInterval:  cfg.SensorInterval(),
	})
	if err != nil {
		return err
	}
	if len(built) == 0 {
		return ErrNoTiles
	}
	app.tiles = built

	ring := make([]carousel.Tile, len(built))
	for i, t := range built {
		ring[i] = t
	}
	top, err := app.bandStyle(fonts, cfg.TopBandHeight, cfg.TimeDateColor, cfg.TimeDateBackgroundColor)
	if err != nil {
		return err
	}
	if top != nil {
		top.TimeFormat = cfg.TimeFormat
		top.DateFormat = cfg.DateFormat
	}
	bottom, err := app.bandStyle(fonts, cfg.BottomBandHeight, cfg.BottomBandColor, cfg.BottomBandBackgroundColor)
	if err != nil {
		return err
	}
	if bottom != nil {
		bottom.Text = cfg.BottomBandText
	}

	engine, err := carousel.New(ring, app.Presenter, app.Store, carousel.Options{
		ScreenWidth:    cfg.ScreenWidth,
		SmallSize:      cfg.TileSizeSmall,
		LargeSize:      cfg.TileSizeLarge,
		AnimationSteps: cfg.AnimationSteps,
		RotateInterval: cfg.RotateInterval(),
		Background:     render.ParseColor(cfg.BackgroundColor),
		Top:            top,
		Bottom:         bottom,
	})
	if err != nil {
		return err
	}
	engine.Logger = app.Logger
	app.engine = engine

	if cfg.Listen != "" {
		app.web = app.buildWeb(cfg)
	}
	app.Logger.Infof("app", "built %d tiles, frame %v", len(built), engine.Bounds().Size())
	return nil
}

func (app *App) bandStyle(fonts *render.Fonts, height int, fg, bg string) (*carousel.BandStyle, error) {
	if height <= 0 {
		return nil, nil
	}
	size := int(float64(height) * bandFontScale)
	if size < 1 {
		size = 1
	}
	face, err := fonts.Face(app.Config.TimeDateFont, size)
	if err != nil {
		return nil, fmt.Errorf("band font: %w", err)
	}
	return &carousel.BandStyle{
		Height:     height,
		Face:       face,
		Color:      render.ParseColor(fg),
		Background: render.ParseColor(bg),
	}, nil
}

func (app *App) buildWeb(cfg *config.Config) *web.HTTPServer {
	deps := web.APIV1Deps{
		Status:       app.Store,
		Control:      app.engine,
		Tiles:        app.TileStatuses,
		RefreshTiles: app.RefreshTiles,
		ConfigYAML:   cfg.YAML,
	}
	if frames, ok := app.Presenter.(render.FrameSource); ok {
		deps.Frames = frames
	}
	mux := web.NewDefaultMux("", deps)
	if app.Routes != nil {
		app.Routes(mux)
	}
	server := web.NewHTTPServer(cfg.Listen, web.ServerConfig{ListenAddr: cfg.Listen, DevMode: cfg.DevMode}.Wrap(mux))
	server.Logger = app.Logger
	return server
}

// TileStatuses reports the refresh bookkeeping of every tile.
func (app *App) TileStatuses() []web.TileStatus {
	out := make([]web.TileStatus, 0, len(app.tiles))
	for _, t := range app.tiles {
		ts := web.TileStatus{Name: t.Name(), Kind: string(t.Kind())}
		if sr, ok := t.(tiles.StatusReporter); ok {
			st := sr.Status()
			ts.Stale, ts.LastRefresh, ts.LastError = st.Stale, st.LastRefresh, st.LastError
		}
		out = append(out, ts)
	}
	return out
}
