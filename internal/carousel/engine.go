package carousel

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/DanCrank/shopclock/internal/render"
	"github.com/DanCrank/shopclock/internal/state"
	"golang.org/x/image/font"
	"golang.org/x/sync/errgroup"
)

// Tile is what the engine needs from a carousel entry.
type Tile interface {
	Name() string
	RenderLarge() *image.RGBA
}

// SmallRenderer is implemented by tiles with a dedicated flank layout.
type SmallRenderer interface {
	RenderSmall(size int) (*image.RGBA, bool)
}

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

// BandStyle describes the top (clock) or bottom (text) band.
type BandStyle struct {
	Height     int
	Face       font.Face
	Color      color.Color
	Background color.Color
	TimeFormat string
	DateFormat string
	Text       string
}

type Options struct {
	ScreenWidth    int
	SmallSize      int
	LargeSize      int
	AnimationSteps int
	TickInterval   time.Duration
	RotateInterval time.Duration
	Background     color.Color
	Top            *BandStyle
	Bottom         *BandStyle
	Now            func() time.Time
}

var ErrEmptyRing = errors.New("carousel: no tiles")

type slotImage struct {
	large *image.RGBA
	small *image.RGBA
}

func (s slotImage) pick(size, small int) image.Image {
	if s.small != nil && size <= small {
		return s.small
	}
	if s.large == nil {
		return nil
	}
	return s.large
}

// Engine owns the frame, the tile ring and the four slot images. Every
// frame write happens under mu; Tick and Rotate block on it rather than
// skip, and a rotation holds it from the first animation frame through the
// final steady frame.
type Engine struct {
	opts      Options
	ring      []Tile
	presenter render.Presenter
	store     *state.Store
	Logger    Logger

	mu      sync.Mutex
	frame   *image.RGBA
	window  Window
	slots   [4]slotImage
	version uint64
	originX int
}

func New(ring []Tile, presenter render.Presenter, store *state.Store, opts Options) (*Engine, error) {
	if len(ring) == 0 {
		return nil, ErrEmptyRing
	}
	if opts.SmallSize < 0 || opts.LargeSize <= 0 {
		return nil, fmt.Errorf("carousel: invalid tile sizes small=%d large=%d", opts.SmallSize, opts.LargeSize)
	}
	if opts.AnimationSteps < 1 {
		opts.AnimationSteps = 1
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.RotateInterval <= 0 {
		opts.RotateInterval = 10 * time.Second
	}
	if opts.Background == nil {
		opts.Background = color.Black
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if presenter == nil {
		presenter = &render.NoopPresenter{}
	}
	if store == nil {
		store = state.NewStore()
	}

	strip := 2*opts.SmallSize + opts.LargeSize
	width := opts.ScreenWidth
	if width < strip {
		width = strip
	}
	e := &Engine{
		opts:      opts,
		ring:      ring,
		presenter: presenter,
		store:     store,
		Logger:    nopLogger{},
		window:    Window{Len: len(ring)},
		originX:   (width - strip) / 2,
	}
	height := render.Scene{StripHeight: opts.LargeSize, Top: e.band(opts.Top, time.Time{}, true), Bottom: e.band(opts.Bottom, time.Time{}, false)}.Height()
	e.frame = image.NewRGBA(image.Rect(0, 0, width, height))
	return e, nil
}

// Bounds is the frame size.
func (e *Engine) Bounds() image.Rectangle { return e.frame.Bounds() }

// Init renders the first three tiles and presents the first steady frame.
func (e *Engine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.slots[0] = e.renderTile(e.window.Previous())
	e.slots[1] = e.renderTile(e.window.Current())
	e.slots[2] = e.renderTile(e.window.Next())
	e.slots[3] = slotImage{}
	e.store.SetCursor(e.window.LastIndex, e.window.Len)
	e.store.SetPhase(state.IDLE)
	e.Logger.Infof("carousel", "initialized ring of %d tiles, frame %dx%d", len(e.ring), e.frame.Bounds().Dx(), e.frame.Bounds().Dy())
	return e.composeLocked(Steady(e.opts.SmallSize, e.opts.LargeSize), render.Smooth)
}

// Tick repaints the steady frame so the clock band stays current.
func (e *Engine) Tick() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.composeLocked(Steady(e.opts.SmallSize, e.opts.LargeSize), render.Smooth)
}

// Rotate animates the carousel one tile forward. Animation frames use fast
// scaling; exactly one smooth steady frame follows the slot shift.
func (e *Engine) Rotate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.SetPhase(state.ROTATING)
	defer e.store.SetPhase(state.IDLE)

	e.slots[3] = e.renderTile(e.window.OnDeck())
	var firstErr error
	for _, step := range Steps(e.opts.SmallSize, e.opts.LargeSize, e.opts.AnimationSteps) {
		if err := e.composeLocked(step, render.Fast); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.slots[0], e.slots[1], e.slots[2], e.slots[3] = e.slots[1], e.slots[2], e.slots[3], slotImage{}
	e.window = e.window.Advance()
	e.store.CompleteRotation(e.window.LastIndex)
	if err := e.composeLocked(Steady(e.opts.SmallSize, e.opts.LargeSize), render.Smooth); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Run drives Tick and Rotate from two tickers until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.every(ctx, "tick", e.opts.TickInterval, e.Tick) })
	g.Go(func() error { return e.every(ctx, "rotate", e.opts.RotateInterval, e.Rotate) })
	err := g.Wait()
	e.store.SetPhase(state.STOPPED)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (e *Engine) every(ctx context.Context, name string, interval time.Duration, fn func() error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := fn(); err != nil {
				e.Logger.Errorf("carousel", "%s: %v", name, err)
			}
		}
	}
}

// Status is the last published carousel state.
func (e *Engine) Status() state.State { return e.store.Snapshot() }

// Version is the number of frames composed so far.
func (e *Engine) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

func (e *Engine) renderTile(i int) slotImage {
	t := e.ring[i]
	s := slotImage{large: t.RenderLarge()}
	if sr, ok := t.(SmallRenderer); ok && e.opts.SmallSize > 0 {
		if img, ok := sr.RenderSmall(e.opts.SmallSize); ok {
			s.small = img
		}
	}
	return s
}

func (e *Engine) band(style *BandStyle, now time.Time, top bool) *render.Band {
	if style == nil || style.Height <= 0 {
		return nil
	}
	b := &render.Band{Height: style.Height, Background: style.Background, Color: style.Color, Face: style.Face}
	if top {
		if style.TimeFormat != "" {
			b.Left = now.Format(style.TimeFormat)
		}
		if style.DateFormat != "" {
			b.Right = now.Format(style.DateFormat)
		}
	} else {
		b.Left = style.Text
	}
	return b
}

// composeLocked builds and presents one frame. Callers hold mu.
func (e *Engine) composeLocked(step Step, quality render.Quality) error {
	now := e.opts.Now()
	small := e.opts.SmallSize
	x := e.originX
	slots := []render.Slot{
		{Image: e.slots[0].pick(step.Previous, small), X: x, Size: step.Previous},
		{Image: e.slots[1].pick(step.Current, small), X: x + step.Previous, Size: step.Current},
		{Image: e.slots[2].pick(step.Next, small), X: x + step.Previous + step.Current, Size: step.Next},
	}
	if step.OnDeck > 0 && e.slots[3].large != nil {
		slots = append(slots, render.Slot{Image: e.slots[3].pick(step.OnDeck, small), X: x + step.Previous + step.Current + step.Next, Size: step.OnDeck})
	}
	render.Compose(e.frame, render.Scene{
		Background:  e.opts.Background,
		Top:         e.band(e.opts.Top, now, true),
		Bottom:      e.band(e.opts.Bottom, now, false),
		StripHeight: e.opts.LargeSize,
		Slots:       slots,
		Quality:     quality,
	})
	e.version++
	e.store.UpdateFrame(state.FrameInfo{Version: e.version, Animated: quality == render.Fast, Presented: now})
	if err := e.presenter.Present(e.frame); err != nil {
		return fmt.Errorf("present frame %d: %w", e.version, err)
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Infof(string, string, ...interface{})  {}
func (nopLogger) Errorf(string, string, ...interface{}) {}
