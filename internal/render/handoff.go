package render

import (
	"image"
	"sync"
)

// handoff passes frames from Present callers to the goroutine that owns the
// display. stage blocks until take has shown the frame or the handoff is
// closed, so every composed frame reaches the screen.
type handoff struct {
	mu      sync.Mutex
	pending *image.RGBA
	shown   chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

func newHandoff() *handoff { return &handoff{closed: make(chan struct{})} }

func (h *handoff) stage(frame *image.RGBA) {
	h.mu.Lock()
	select {
	case <-h.closed:
		h.mu.Unlock()
		return
	default:
	}
	if h.pending == nil || h.pending.Bounds() != frame.Bounds() {
		h.pending = image.NewRGBA(frame.Bounds())
	}
	copy(h.pending.Pix, frame.Pix)
	if h.shown == nil {
		h.shown = make(chan struct{})
	}
	shown := h.shown
	h.mu.Unlock()

	select {
	case <-shown:
	case <-h.closed:
	}
}

// take hands the staged frame to show and releases the waiting stage call.
// It reports false when nothing was staged.
func (h *handoff) take(show func(frame *image.RGBA)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.shown == nil {
		return false
	}
	show(h.pending)
	close(h.shown)
	h.shown = nil
	return true
}

// close releases every current and future stage call.
func (h *handoff) close() {
	h.closeOnce.Do(func() { close(h.closed) })
}
