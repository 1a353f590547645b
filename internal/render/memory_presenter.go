package render

import (
	"context"
	"image"
	"image/draw"
	"sync"
)

// MemoryPresenter keeps a copy of the last presented frame. It backs the
// headless mode, the HTTP frame endpoint and tests.
type MemoryPresenter struct {
	mu       sync.Mutex
	last     *image.RGBA
	count    uint64
	OnFrame  func(frame *image.RGBA)
	QuitNext bool
}

func NewMemoryPresenter() *MemoryPresenter { return &MemoryPresenter{} }

func (m *MemoryPresenter) Start(ctx context.Context) error { return nil }
func (m *MemoryPresenter) Stop() error                     { return nil }

func (m *MemoryPresenter) Present(frame *image.RGBA) error {
	m.mu.Lock()
	if m.last == nil || m.last.Bounds() != frame.Bounds() {
		m.last = image.NewRGBA(frame.Bounds())
	}
	draw.Draw(m.last, frame.Bounds(), frame, frame.Bounds().Min, draw.Src)
	m.count++
	hook := m.OnFrame
	m.mu.Unlock()
	if hook != nil {
		hook(frame)
	}
	return nil
}

func (m *MemoryPresenter) Pump() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.QuitNext
}

// LastFrame returns a private copy of the most recent frame.
func (m *MemoryPresenter) LastFrame() (image.Image, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return nil, false
	}
	out := image.NewRGBA(m.last.Bounds())
	copy(out.Pix, m.last.Pix)
	return out, true
}

// Count is the number of frames presented so far.
func (m *MemoryPresenter) Count() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}
