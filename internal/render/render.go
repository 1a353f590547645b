package render

import (
	"context"
	"image"
)

// Presenter puts finished frames on a display.
//
// Present may be called from any goroutine. Pump is called only from the
// goroutine that called Start; backends with thread-affine windowing do
// their event and upload work there.
type Presenter interface {
	Start(ctx context.Context) error
	Stop() error
	Present(frame *image.RGBA) error
	// Pump services display events. It reports true when the user asked to quit.
	Pump() (quit bool)
}

// FrameSource exposes the last presented frame for out-of-band readers.
type FrameSource interface {
	LastFrame() (image.Image, bool)
}

// Stub implementation
type NoopPresenter struct{}

func (n *NoopPresenter) Start(ctx context.Context) error { return nil }
func (n *NoopPresenter) Stop() error                     { return nil }
func (n *NoopPresenter) Present(frame *image.RGBA) error { return nil }
func (n *NoopPresenter) Pump() bool                      { return false }

type TextAlign int

const (
	TextAlignLeft TextAlign = iota
	TextAlignCenter
	TextAlignRight
)

// Quality selects the scaler used when compositing tiles.
type Quality int

const (
	// Smooth is used for steady frames.
	Smooth Quality = iota
	// Fast is used for animation frames.
	Fast
)

func (q Quality) String() string {
	if q == Fast {
		return "fast"
	}
	return "smooth"
}
