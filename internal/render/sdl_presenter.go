//go:build sdl

package render

import (
	"context"
	"fmt"
	"image"

	"github.com/veandco/go-sdl2/sdl"
)

// SDLPresenter shows frames in a fullscreen SDL window. SDL calls must stay
// on the thread that called Start, so Present stages the frame and waits
// until Pump has uploaded it. Present must not be called from the goroutine
// that calls Pump.
type SDLPresenter struct {
	Fullscreen bool
	Width      int
	Height     int
	Logger     interface {
		Infof(string, string, ...interface{})
		Errorf(string, string, ...interface{})
	}

	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	texSize  image.Point

	frames *handoff
}

// NewSDLPresenter returns a presenter for a width x height window. Zero
// sizes fall back to the desktop resolution when fullscreen.
func NewSDLPresenter(width, height int, fullscreen bool) (Presenter, error) {
	return &SDLPresenter{Width: width, Height: height, Fullscreen: fullscreen}, nil
}

func (p *SDLPresenter) Start(ctx context.Context) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("sdl init: %w", err)
	}
	var flags uint32 = sdl.WINDOW_SHOWN
	if p.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}
	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 {
		w, h = 1280, 720
	}
	window, err := sdl.CreateWindow("shopclock", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(w), int32(h), flags)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("sdl window: %w", err)
	}
	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("sdl renderer: %w", err)
	}
	_, _ = sdl.ShowCursor(sdl.DISABLE)
	p.window = window
	p.renderer = renderer
	p.frames = newHandoff()
	if p.Logger != nil {
		p.Logger.Infof("sdl", "window open %dx%d fullscreen=%v", w, h, p.Fullscreen)
	}
	return nil
}

func (p *SDLPresenter) Stop() error {
	if p.frames != nil {
		p.frames.close()
	}
	if p.texture != nil {
		_ = p.texture.Destroy()
		p.texture = nil
	}
	if p.renderer != nil {
		_ = p.renderer.Destroy()
		p.renderer = nil
	}
	if p.window != nil {
		_ = p.window.Destroy()
		p.window = nil
	}
	_, _ = sdl.ShowCursor(sdl.ENABLE)
	sdl.Quit()
	return nil
}

func (p *SDLPresenter) Present(frame *image.RGBA) error {
	if p.frames == nil {
		return nil
	}
	p.frames.stage(frame)
	return nil
}

func (p *SDLPresenter) Pump() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return true
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && (e.Keysym.Sym == sdl.K_ESCAPE || e.Keysym.Sym == sdl.K_F4) {
				return true
			}
		}
	}
	if p.frames == nil || p.renderer == nil {
		return false
	}
	p.frames.take(func(frame *image.RGBA) {
		if err := p.upload(frame); err != nil && p.Logger != nil {
			p.Logger.Errorf("sdl", "upload failed: %v", err)
		}
	})
	return false
}

func (p *SDLPresenter) upload(frame *image.RGBA) error {
	size := frame.Bounds().Size()
	if p.texture == nil || p.texSize != size {
		if p.texture != nil {
			_ = p.texture.Destroy()
		}
		tex, err := p.renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING, int32(size.X), int32(size.Y))
		if err != nil {
			return err
		}
		p.texture = tex
		p.texSize = size
	}
	pixels, pitch, err := p.texture.Lock(nil)
	if err != nil {
		return err
	}
	rowBytes := size.X * 4
	for y := 0; y < size.Y; y++ {
		copy(pixels[y*pitch:y*pitch+rowBytes], frame.Pix[y*frame.Stride:y*frame.Stride+rowBytes])
	}
	p.texture.Unlock()
	if err := p.renderer.Clear(); err != nil {
		return err
	}
	if err := p.renderer.Copy(p.texture, nil, nil); err != nil {
		return err
	}
	p.renderer.Present()
	return nil
}
