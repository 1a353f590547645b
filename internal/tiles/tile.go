package tiles

import (
	"context"
	"errors"
	"image"
	"time"
)

// Kind is the closed set of tile types.
type Kind string

const (
	KindText            Kind = "Text"
	KindCPUTemperature  Kind = "CPUTemperature"
	KindWeatherCurrent  Kind = "WeatherCurrent"
	KindWeatherForecast Kind = "WeatherForecast"
	KindRandomPost      Kind = "RandomPost"
	KindQRCode          Kind = "QRCode"
)

var ErrUnknownType = errors.New("unknown tile type")

// ParseKind maps a configured type name to a Kind. RandomTweet is accepted
// for RandomPost.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindText, KindCPUTemperature, KindWeatherCurrent, KindWeatherForecast, KindRandomPost, KindQRCode:
		return Kind(s), true
	}
	if s == "RandomTweet" {
		return KindRandomPost, true
	}
	return "", false
}

// Tile renders itself into a square image of the large tile size. Render
// methods read the last published snapshot only and never block on I/O.
type Tile interface {
	Name() string
	Kind() Kind
	RenderLarge() *image.RGBA
}

// SmallRenderer is implemented by tiles with a dedicated layout for the
// flanking slots. ok is false when the tile has none configured.
type SmallRenderer interface {
	RenderSmall(size int) (img *image.RGBA, ok bool)
}

// Refresher is implemented by tiles whose data comes from a collaborator.
// Refresh may be called from several goroutines; a tile runs one refresh at
// a time.
type Refresher interface {
	Refresh(ctx context.Context) error
	RefreshInterval() time.Duration
}

type Status struct {
	Stale       bool
	LastRefresh time.Time
	LastError   string
}

type StatusReporter interface {
	Status() Status
}

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, string, ...interface{})  {}
func (nopLogger) Errorf(string, string, ...interface{}) {}

// statusOf is embedded in data snapshots to carry refresh bookkeeping.
type statusOf struct {
	stale       bool
	lastRefresh time.Time
	lastError   string
}

func (s statusOf) status() Status {
	return Status{Stale: s.stale, LastRefresh: s.lastRefresh, LastError: s.lastError}
}

func (s statusOf) failed(err error) statusOf {
	s.stale = true
	s.lastError = err.Error()
	return s
}

func (s statusOf) succeeded(at time.Time) statusOf {
	return statusOf{lastRefresh: at}
}
