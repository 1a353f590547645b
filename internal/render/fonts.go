package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultFont is used when a tile or band does not name a font.
const DefaultFont = "Go-Bold"

var builtinFonts = map[string][]byte{
	"Go-Regular": goregular.TTF,
	"Go-Bold":    gobold.TTF,
	"Go-Medium":  gomedium.TTF,
	"Go-Mono":    gomono.TTF,
}

type faceKey struct {
	name string
	size int
}

// faceMaker builds a face of a given pixel size from a parsed font file.
type faceMaker func(size int) (font.Face, error)

// Fonts loads and caches font faces by (name, size). Names resolve first to
// the built-in Go fonts, then to Dir/<name>.ttf, then Dir/<name>.otf.
//
// Faces are not safe for concurrent drawing; callers draw under the carousel
// render lock.
type Fonts struct {
	Dir string

	mu     sync.Mutex
	makers map[string]faceMaker
	faces  map[faceKey]font.Face
}

func NewFonts(dir string) *Fonts {
	return &Fonts{Dir: dir, makers: map[string]faceMaker{}, faces: map[faceKey]font.Face{}}
}

// Face returns the face for name at size pixels, loading it on first use.
func (f *Fonts) Face(name string, size int) (font.Face, error) {
	if name == "" {
		name = DefaultFont
	}
	if size <= 0 {
		return nil, fmt.Errorf("font %s: invalid size %d", name, size)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	key := faceKey{name: name, size: size}
	if face, ok := f.faces[key]; ok {
		return face, nil
	}
	maker, ok := f.makers[name]
	if !ok {
		var err error
		maker, err = f.load(name)
		if err != nil {
			return nil, err
		}
		f.makers[name] = maker
	}
	face, err := maker(size)
	if err != nil {
		return nil, fmt.Errorf("font %s at %d: %w", name, size, err)
	}
	f.faces[key] = face
	return face, nil
}

func (f *Fonts) load(name string) (faceMaker, error) {
	if data, ok := builtinFonts[name]; ok {
		return truetypeMaker(data)
	}
	ttfPath := filepath.Join(f.Dir, name+".ttf")
	if data, err := os.ReadFile(ttfPath); err == nil {
		return truetypeMaker(data)
	}
	otfPath := filepath.Join(f.Dir, name+".otf")
	data, err := os.ReadFile(otfPath)
	if err != nil {
		return nil, fmt.Errorf("font %s: not found as %s or %s", name, ttfPath, otfPath)
	}
	return opentypeMaker(data)
}

func truetypeMaker(data []byte) (faceMaker, error) {
	tt, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("truetype parse: %w", err)
	}
	return func(size int) (font.Face, error) {
		return truetype.NewFace(tt, &truetype.Options{Size: float64(size), DPI: 72, Hinting: font.HintingFull}), nil
	}, nil
}

func opentypeMaker(data []byte) (faceMaker, error) {
	otf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("opentype parse: %w", err)
	}
	return func(size int) (font.Face, error) {
		return opentype.NewFace(otf, &opentype.FaceOptions{Size: float64(size), DPI: 72, Hinting: font.HintingFull})
	}, nil
}
