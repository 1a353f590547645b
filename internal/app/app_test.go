package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DanCrank/shopclock/internal/config"
	"github.com/DanCrank/shopclock/internal/render"
	"github.com/DanCrank/shopclock/internal/state"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("", false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.ScreenWidth = 320
	cfg.TileSizeSmall = 60
	cfg.TileSizeLarge = 120
	cfg.TopBandHeight = 20
	cfg.AnimationSteps = 3
	cfg.Listen = ""
	return cfg
}

func newTestApp(t *testing.T) (*App, *render.MemoryPresenter) {
	t.Helper()
	p := render.NewMemoryPresenter()
	a := New(testConfig(t), nil, p)
	a.Sensor = func() (float64, error) { return 45, nil }
	a.PollInterval = time.Millisecond
	return a, p
}

func TestBuildFromDefaults(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if b := a.Engine().Bounds(); b.Dx() != 320 || b.Dy() != 140 {
		t.Fatalf("frame bounds = %v", b)
	}
	statuses := a.TileStatuses()
	if len(statuses) != 2 || statuses[0].Kind != "Text" || statuses[1].Kind != "CPUTemperature" {
		t.Fatalf("tiles = %+v", statuses)
	}
}

func TestBuildRejectsEmptyRing(t *testing.T) {
	a, _ := newTestApp(t)
	a.Config.Tiles = []config.Tile{{Type: "Clock"}}
	if err := a.Build(); !errors.Is(err, ErrNoTiles) {
		t.Fatalf("err = %v", err)
	}
}

func TestStartRunsUntilExit(t *testing.T) {
	a, p := newTestApp(t)
	done := make(chan error, 1)
	go func() { done <- a.Start(context.Background()) }()

	deadline := time.After(5 * time.Second)
	for p.Count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("no frame presented")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if phase := a.Store.Snapshot().Phase; phase == state.BOOTING {
		t.Fatalf("phase still booting")
	}
	a.Exit(nil)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Start did not return after Exit")
	}
	if a.Store.Snapshot().Phase != state.STOPPED {
		t.Fatalf("phase = %v", a.Store.Snapshot().Phase)
	}
	statuses := a.TileStatuses()
	if statuses[1].LastRefresh.IsZero() {
		t.Fatalf("sensor tile was not refreshed before the first frame")
	}
}

func TestStartStopsOnPresenterQuit(t *testing.T) {
	a, p := newTestApp(t)
	p.QuitNext = true
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatalf("Start returned only after the timeout")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	a, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func TestWithLevel(t *testing.T) {
	var buf bytes.Buffer
	l := WithLevel(NewFileLogger(&buf), "error")
	l.Infof("x", "hidden")
	l.Errorf("x", "shown %d", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "[ERROR] x: shown 1") {
		t.Fatalf("log output %q", out)
	}
	buf.Reset()
	WithLevel(NewFileLogger(&buf), "debug").Infof("y", "visible")
	if !strings.Contains(buf.String(), "[INFO] y: visible") {
		t.Fatalf("log output %q", buf.String())
	}
}

// pumpedPresenter shows a frame only when Pump runs, and Present waits for
// that, like a windowing backend bound to the main thread.
type pumpedPresenter struct {
	frames chan chan struct{}
	mu     sync.Mutex
	shown  int
}

func (p *pumpedPresenter) Start(ctx context.Context) error { return nil }
func (p *pumpedPresenter) Stop() error                     { return nil }

func (p *pumpedPresenter) Present(frame *image.RGBA) error {
	ack := make(chan struct{})
	p.frames <- ack
	<-ack
	return nil
}

func (p *pumpedPresenter) Pump() bool {
	select {
	case ack := <-p.frames:
		p.mu.Lock()
		p.shown++
		p.mu.Unlock()
		close(ack)
	default:
	}
	return false
}

func (p *pumpedPresenter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shown
}

func TestStartShowsFramesThroughPump(t *testing.T) {
	p := &pumpedPresenter{frames: make(chan chan struct{})}
	a := New(testConfig(t), nil, p)
	a.Sensor = func() (float64, error) { return 45, nil }
	a.PollInterval = time.Millisecond
	done := make(chan error, 1)
	go func() { done <- a.Start(context.Background()) }()

	deadline := time.After(5 * time.Second)
	for p.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("no frame shown")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if err := a.Engine().Rotate(); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	// init frame, one per animation step, the steady frame after rotation
	if got, want := p.count(), 1+a.Config.AnimationSteps+1; got < want {
		t.Fatalf("shown %d frames, want at least %d", got, want)
	}
	a.Exit(nil)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Start did not return after Exit")
	}
}
