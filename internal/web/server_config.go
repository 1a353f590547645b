package web

import "net/http"

// ServerConfig contains settings for running the HTTP server.
//
// The intended defaults differ per binary:
// - real device: :8080
// - simulator:   :8081
type ServerConfig struct {
	ListenAddr string
	DevMode    bool
}

// Wrap applies the middleware ServerConfig asks for.
func (c ServerConfig) Wrap(h http.Handler) http.Handler {
	if c.DevMode {
		return WithDevCORS(h)
	}
	return h
}
