package assets

import (
	"embed"
	"fmt"
	"image"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
)

// DefaultConfigYAML holds the built-in configuration defaults.
//
//go:embed default-config.yaml
var DefaultConfigYAML []byte

//go:embed web
var webFS embed.FS

// WebUI is the status page served at "/", rooted at internal/assets/web.
var WebUI fs.FS

func init() {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	WebUI = sub
}

// Store loads images from a directory on disk. Icons are resized once per
// (name, size) and cached for the life of the process.
type Store struct {
	Dir string

	mu    sync.Mutex
	icons map[iconKey]image.Image
}

type iconKey struct {
	name string
	size int
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir, icons: map[iconKey]image.Image{}}
}

// Image decodes name relative to Dir.
func (s *Store) Image(name string) (image.Image, error) {
	path := filepath.Join(s.Dir, filepath.FromSlash(name))
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", path, err)
	}
	return img, nil
}

// Icon returns name scaled to a size x size square.
func (s *Store) Icon(name string, size int) (image.Image, error) {
	key := iconKey{name: name, size: size}
	s.mu.Lock()
	if icon, ok := s.icons[key]; ok {
		s.mu.Unlock()
		return icon, nil
	}
	s.mu.Unlock()

	img, err := s.Image(name)
	if err != nil {
		return nil, err
	}
	icon := imaging.Resize(img, size, size, imaging.CatmullRom)

	s.mu.Lock()
	s.icons[key] = icon
	s.mu.Unlock()
	return icon, nil
}
