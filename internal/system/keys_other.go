//go:build !linux

package system

import "context"

const (
	KeyEsc = 1
	KeyF4  = 62
)

var DefaultExitKeys = []uint16{KeyEsc, KeyF4}

// StartExitOnKeys is a no-op off Linux; the SDL presenter handles keys there.
func StartExitOnKeys(ctx context.Context, logger Logger, keys []uint16, onExit func()) {
	if logger != nil {
		logger.Infof("input", "evdev exit keys unsupported on this platform")
	}
}
