package render

import (
	"context"
	"image"
	"image/color"
	"sync"

	fb "github.com/gonutz/framebuffer"
)

// FBPresenter writes frames to a Linux framebuffer device, scaling the frame
// to the device resolution with nearest-neighbour sampling.
type FBPresenter struct {
	Device string
	Logger interface {
		Infof(string, string, ...interface{})
		Errorf(string, string, ...interface{})
	}

	mu    sync.Mutex
	fbDev *fb.Device
}

func NewFBPresenter(device string) *FBPresenter {
	if device == "" {
		device = "/dev/fb0"
	}
	return &FBPresenter{Device: device}
}

func (p *FBPresenter) Start(ctx context.Context) error {
	dev, err := fb.Open(p.Device)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.fbDev = dev
	p.mu.Unlock()
	if p.Logger != nil {
		bounds := dev.Bounds()
		p.Logger.Infof("fb", "framebuffer %s open, bounds=%dx%d", p.Device, bounds.Dx(), bounds.Dy())
	}
	return nil
}

func (p *FBPresenter) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fbDev != nil {
		p.fbDev.Close()
		p.fbDev = nil
	}
	return nil
}

func (p *FBPresenter) Present(frame *image.RGBA) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return blitToFB(p.fbDev, frame)
}

// Pump has nothing to service; keyboard exit is watched separately.
func (p *FBPresenter) Pump() bool { return false }

// Helper: blit frame to framebuffer via nearest-neighbor scaling.
func blitToFB(dev *fb.Device, frame *image.RGBA) error {
	if dev == nil || frame == nil {
		return nil
	}
	bounds := dev.Bounds()
	fbWidth := bounds.Dx()
	fbHeight := bounds.Dy()
	src := frame.Bounds()
	if src.Empty() {
		return nil
	}
	for y := 0; y < fbHeight; y++ {
		sy := src.Min.Y + (y*src.Dy())/fbHeight
		for x := 0; x < fbWidth; x++ {
			sx := src.Min.X + (x*src.Dx())/fbWidth
			pixel := frame.RGBAAt(sx, sy)
			dev.Set(bounds.Min.X+x, bounds.Min.Y+y, color.RGBA{R: pixel.R, G: pixel.G, B: pixel.B, A: 0xFF})
		}
	}
	return nil
}
