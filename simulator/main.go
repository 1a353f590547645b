package main

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/DanCrank/shopclock/internal/app"
	"github.com/DanCrank/shopclock/internal/config"
	"github.com/DanCrank/shopclock/internal/render"
	"github.com/DanCrank/shopclock/internal/state"
	"github.com/pborman/getopt"
)

func init() {
	runtime.LockOSThread()
}

// simTiles exercise every tile type against the simulated collaborators.
var simTiles = []config.Tile{
	{Type: "Text", Text: "Welcome to the shop", FontSize: 64, SmallFontSize: 40},
	{Type: "WeatherCurrent"},
	{Type: "WeatherForecast"},
	{Type: "RandomPost", Title: "Shop Feed", Searches: []string{"blacksmithing", "woodworking"}, Query: "#%s", Freshness: 10},
	{Type: "CPUTemperature"},
	{Type: "QRCode", Title: "Shop wiki", Payload: "https://sim.invalid/wiki"},
}

func main() {
	configPath := getopt.StringLong("config", 'c', "", "configuration file merged over the defaults; its tiles replace the simulator's")
	listenAddr := getopt.StringLong("listen", 'l', ":8080", "http listen address")
	devMode := getopt.BoolLong("dev", 0, "enable dev mode (permissive CORS)")
	scenario := getopt.StringLong("scenario", 's', "ok", "simulator scenario: ok | weather-down | empty-feed")
	window := getopt.BoolLong("window", 'w', "show frames in an SDL window (needs the sdl build tag)")
	rotate := getopt.IntLong("rotate", 'r', 0, "seconds between rotations (default from config)")
	getopt.Parse()

	cfg, err := config.Load(*configPath, *configPath != "")
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}
	if *configPath == "" {
		cfg.Tiles = simTiles
	}
	cfg.Listen = *listenAddr
	cfg.DevMode = *devMode
	cfg.OpenWeatherAPIKey = ""
	if *rotate > 0 {
		cfg.TileRefreshTime = *rotate
	}

	processCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	control := NewSimControl(strings.TrimSpace(*scenario))
	if err := control.ApplyScenario(*scenario); err != nil {
		fmt.Println("scenario init error:", err)
		os.Exit(2)
	}

	memory := render.NewMemoryPresenter()
	var presenter render.Presenter = memory
	if *window {
		w, h := cfg.FrameSize()
		sdlPresenter, err := render.NewSDLPresenter(w, h, false)
		if err != nil {
			fmt.Println("window error:", err)
			os.Exit(1)
		}
		presenter = teePresenter{Presenter: sdlPresenter, memory: memory}
	}

	logger := app.WithLevel(app.NewFileLogger(os.Stdout), cfg.LogLevel)
	now := time.Now
	a := app.New(cfg, state.NewStore(), presenter)
	a.Logger = logger
	a.Weather = simWeather{control: control, now: now}
	a.Feed = simFeed{control: control, now: now}
	a.Sensor = simSensor(control, now)
	a.Routes = func(mux *http.ServeMux) { registerSimEndpoints(mux, control) }

	fmt.Println("shopclock simulator listening on", cfg.Listen)
	fmt.Println("Scenario:", control.Scenario())
	fmt.Println("API: http://" + trimLeadingColon(cfg.Listen) + "/api/v1/")

	if err := a.Start(processCtx); err != nil {
		fmt.Println("simulator error:", err)
		os.Exit(1)
	}
}

// teePresenter shows frames in a window and keeps a copy for the frame
// endpoint.
type teePresenter struct {
	render.Presenter
	memory *render.MemoryPresenter
}

func (t teePresenter) Present(frame *image.RGBA) error {
	_ = t.memory.Present(frame)
	return t.Presenter.Present(frame)
}

func (t teePresenter) LastFrame() (image.Image, bool) { return t.memory.LastFrame() }

func trimLeadingColon(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	if addr == "" {
		return "127.0.0.1:8080"
	}
	return addr
}
