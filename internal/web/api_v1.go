package web

import (
	"encoding/json"
	"image/png"
	"net/http"
	"time"
)

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type statusResponse struct {
	Phase        string       `json:"phase"`
	LastIndex    int          `json:"lastIndex"`
	RingLen      int          `json:"ringLen"`
	Rotations    uint64       `json:"rotations"`
	FrameVersion uint64       `json:"frameVersion"`
	Animated     bool         `json:"animated"`
	PresentedAt  time.Time    `json:"presentedAt,omitzero"`
	Tiles        []TileStatus `json:"tiles"`
}

func apiV1Router(deps APIV1Deps) http.Handler {
	deps = deps.withDefaults()
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) { handleStatus(w, r, deps) })
	mux.HandleFunc("/rotate", func(w http.ResponseWriter, r *http.Request) { handleRotate(w, r, deps) })
	mux.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) { handleRepaint(w, r, deps) })
	mux.HandleFunc("/tiles/refresh", func(w http.ResponseWriter, r *http.Request) { handleRefreshTiles(w, r, deps) })
	mux.HandleFunc("/frame.png", func(w http.ResponseWriter, r *http.Request) { handleFrame(w, r, deps) })
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) { handleConfig(w, r, deps) })
	return mux
}

func handleStatus(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	snap := deps.Status.Snapshot()
	resp := statusResponse{
		Phase:        snap.Phase.String(),
		LastIndex:    snap.LastIndex,
		RingLen:      snap.RingLen,
		Rotations:    snap.Rotations,
		FrameVersion: snap.Frame.Version,
		Animated:     snap.Frame.Animated,
		PresentedAt:  snap.Frame.Presented,
		Tiles:        deps.Tiles(),
	}
	if resp.Tiles == nil {
		resp.Tiles = []TileStatus{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleRotate(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if err := deps.Control.Rotate(); err != nil {
		writeAPIError(w, http.StatusInternalServerError, "rotate_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func handleRepaint(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if err := deps.Control.Tick(); err != nil {
		writeAPIError(w, http.StatusInternalServerError, "repaint_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func handleRefreshTiles(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if deps.RefreshTiles == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "tile refresh not configured")
		return
	}
	if err := deps.RefreshTiles(r.Context()); err != nil {
		writeAPIError(w, http.StatusBadGateway, "refresh_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func handleFrame(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	frame, ok := deps.Frames.LastFrame()
	if !ok {
		writeAPIError(w, http.StatusServiceUnavailable, "no_frame", "no frame presented yet")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_ = png.Encode(w, frame)
}

func handleConfig(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if deps.ConfigYAML == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "config not exposed")
		return
	}
	out, err := deps.ConfigYAML()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "config_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}
