package carousel

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DanCrank/shopclock/internal/state"
)

type solidTile struct {
	name    string
	c       color.RGBA
	size    int
	renders atomic.Int32
}

func (t *solidTile) Name() string { return t.name }

func (t *solidTile) RenderLarge() *image.RGBA {
	t.renders.Add(1)
	img := image.NewRGBA(image.Rect(0, 0, t.size, t.size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = t.c.R, t.c.G, t.c.B, 255
	}
	return img
}

type recordedFrame struct {
	version  uint64
	animated bool
}

// recordingPresenter logs the frame metadata published just before each
// Present call. If gate is set, the first animated frame blocks on it.
type recordingPresenter struct {
	store   *state.Store
	mu      sync.Mutex
	frames  []recordedFrame
	started chan struct{}
	gate    chan struct{}
	once    sync.Once
}

func (p *recordingPresenter) Start(ctx context.Context) error { return nil }
func (p *recordingPresenter) Stop() error                     { return nil }
func (p *recordingPresenter) Pump() bool                      { return false }

func (p *recordingPresenter) Present(frame *image.RGBA) error {
	info := p.store.Snapshot().Frame
	p.mu.Lock()
	p.frames = append(p.frames, recordedFrame{version: info.Version, animated: info.Animated})
	p.mu.Unlock()
	if info.Animated && p.gate != nil {
		p.once.Do(func() {
			close(p.started)
			<-p.gate
		})
	}
	return nil
}

func (p *recordingPresenter) snapshot() []recordedFrame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedFrame(nil), p.frames...)
}

func newTestEngine(t *testing.T, n int, presenter *recordingPresenter, steps int) (*Engine, []*solidTile) {
	t.Helper()
	var ring []Tile
	var tiles []*solidTile
	for i := 0; i < n; i++ {
		tile := &solidTile{name: string(rune('a' + i)), c: color.RGBA{R: uint8(40 * i), G: 100, B: 200}, size: 60}
		tiles = append(tiles, tile)
		ring = append(ring, tile)
	}
	e, err := New(ring, presenter, presenter.store, Options{
		ScreenWidth:    200,
		SmallSize:      20,
		LargeSize:      60,
		AnimationSteps: steps,
		Now:            func() time.Time { return time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, tiles
}

func TestEngineRotationOrdering(t *testing.T) {
	p := &recordingPresenter{store: state.NewStore()}
	e, _ := newTestEngine(t, 5, p, 8)
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := e.Rotate(); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	frames := p.snapshot()
	if len(frames) != 1+8+1 {
		t.Fatalf("frames = %d, want 10", len(frames))
	}
	for i, f := range frames {
		if f.version != uint64(i+1) {
			t.Fatalf("frame %d version %d", i, f.version)
		}
		wantAnimated := i >= 1 && i <= 8
		if f.animated != wantAnimated {
			t.Fatalf("frame %d animated=%v", i, f.animated)
		}
	}
	snap := p.store.Snapshot()
	if snap.LastIndex != 1 || snap.Rotations != 1 || snap.Phase != state.IDLE {
		t.Fatalf("unexpected state %+v", snap)
	}
}

func TestEngineTickBlocksBehindRotation(t *testing.T) {
	p := &recordingPresenter{store: state.NewStore(), started: make(chan struct{}), gate: make(chan struct{})}
	e, _ := newTestEngine(t, 4, p, 6)
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := e.Rotate(); err != nil {
			t.Errorf("Rotate: %v", err)
		}
	}()
	<-p.started
	tickDone := make(chan struct{})
	go func() {
		defer close(tickDone)
		if err := e.Tick(); err != nil {
			t.Errorf("Tick: %v", err)
		}
	}()
	time.Sleep(20 * time.Millisecond)
	close(p.gate)
	wg.Wait()
	<-tickDone

	frames := p.snapshot()
	// init, 6 animation frames, rotation's steady frame, tick's steady frame
	if len(frames) != 9 {
		t.Fatalf("frames = %d, want 9", len(frames))
	}
	for i := 1; i <= 6; i++ {
		if !frames[i].animated {
			t.Fatalf("frame %d should be animated", i)
		}
	}
	if frames[7].animated || frames[8].animated {
		t.Fatalf("last two frames must be steady: %+v", frames[7:])
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].version != frames[i-1].version+1 {
			t.Fatalf("versions not sequential at %d: %+v", i, frames)
		}
	}
}

func TestEngineRendersOnlyOnDeckPerRotation(t *testing.T) {
	p := &recordingPresenter{store: state.NewStore()}
	e, tiles := newTestEngine(t, 6, p, 3)
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for i := 0; i < 3; i++ {
		if got := tiles[i].renders.Load(); got != 1 {
			t.Fatalf("tile %d rendered %d times at init", i, got)
		}
	}
	if err := e.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if err := e.Rotate(); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if got := tiles[3].renders.Load(); got != 1 {
		t.Fatalf("on-deck tile rendered %d times", got)
	}
	if got := tiles[4].renders.Load(); got != 0 {
		t.Fatalf("tile outside the window rendered %d times", got)
	}
}

func TestEngineShortRing(t *testing.T) {
	for n := 1; n <= 3; n++ {
		p := &recordingPresenter{store: state.NewStore()}
		e, _ := newTestEngine(t, n, p, 2)
		if err := e.Init(); err != nil {
			t.Fatalf("Init: %v", err)
		}
		for r := 0; r < 4; r++ {
			if err := e.Rotate(); err != nil {
				t.Fatalf("ring %d rotate: %v", n, err)
			}
		}
		if got := p.store.Snapshot().LastIndex; got != 4%n {
			t.Fatalf("ring %d last index = %d", n, got)
		}
	}
}

func TestEngineCentersStrip(t *testing.T) {
	p := &recordingPresenter{store: state.NewStore()}
	e, _ := newTestEngine(t, 4, p, 2)
	if e.originX != (200-100)/2 {
		t.Fatalf("originX = %d", e.originX)
	}
	if b := e.Bounds(); b.Dx() != 200 || b.Dy() != 60 {
		t.Fatalf("bounds = %v", b)
	}
	if _, err := New(nil, p, p.store, Options{LargeSize: 10}); err != ErrEmptyRing {
		t.Fatalf("empty ring err = %v", err)
	}
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	p := &recordingPresenter{store: state.NewStore()}
	e, _ := newTestEngine(t, 4, p, 2)
	e.opts.TickInterval = 5 * time.Millisecond
	e.opts.RotateInterval = 15 * time.Millisecond
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil && err != context.DeadlineExceeded {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop")
	}
	if p.store.Snapshot().Phase != state.STOPPED {
		t.Fatalf("phase after Run = %v", p.store.Snapshot().Phase)
	}
	if e.Version() < 3 {
		t.Fatalf("expected some frames, version = %d", e.Version())
	}
}
