//go:build !sdl

package render

import "errors"

// ErrNoSDL is returned when the binary was built without the sdl tag.
var ErrNoSDL = errors.New("sdl presenter not available: build with -tags sdl")

func NewSDLPresenter(width, height int, fullscreen bool) (Presenter, error) {
	return nil, ErrNoSDL
}
