package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

// SimFaults are the failures the simulated collaborators inject.
type SimFaults struct {
	WeatherDown bool `json:"weatherDown"`
	FeedDown    bool `json:"feedDown"`
	FeedEmpty   bool `json:"feedEmpty"`
	SensorFail  bool `json:"sensorFail"`
}

var scenarios = map[string]SimFaults{
	"ok":           {},
	"weather-down": {WeatherDown: true},
	"empty-feed":   {FeedEmpty: true},
}

type SimControl struct {
	startupScenario string
	currentScenario atomic.Value // string

	faults struct {
		mu sync.RWMutex
		v  SimFaults
	}
}

func NewSimControl(startupScenario string) *SimControl {
	c := &SimControl{startupScenario: strings.TrimSpace(startupScenario)}
	if c.startupScenario == "" {
		c.startupScenario = "ok"
	}
	c.currentScenario.Store(c.startupScenario)
	return c
}

func (c *SimControl) ApplyScenario(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = c.startupScenario
	}
	faults, ok := scenarios[name]
	if !ok {
		return fmt.Errorf("unknown scenario %q", name)
	}
	c.SetFaults(faults)
	c.currentScenario.Store(name)
	return nil
}

func (c *SimControl) Reset() error {
	return c.ApplyScenario(c.startupScenario)
}

func (c *SimControl) Scenario() string {
	return c.currentScenario.Load().(string)
}

func (c *SimControl) Faults() SimFaults {
	c.faults.mu.RLock()
	defer c.faults.mu.RUnlock()
	return c.faults.v
}

func (c *SimControl) SetFaults(v SimFaults) {
	c.faults.mu.Lock()
	c.faults.v = v
	c.faults.mu.Unlock()
}

func registerSimEndpoints(mux *http.ServeMux, control *SimControl) {
	mux.HandleFunc("/sim/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := control.Reset(); err != nil {
			writeSimError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"ok": true, "scenario": control.Scenario()})
	})

	mux.HandleFunc("/sim/scenario/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/sim/scenario/")
		name = strings.Trim(name, "/")
		if err := control.ApplyScenario(name); err != nil {
			writeSimError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"ok": true, "scenario": control.Scenario()})
	})

	mux.HandleFunc("/sim/faults", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeSimJSON(w, http.StatusOK, control.Faults())
			return
		case http.MethodPut, http.MethodPost:
			var patch struct {
				WeatherDown *bool `json:"weatherDown"`
				FeedDown    *bool `json:"feedDown"`
				FeedEmpty   *bool `json:"feedEmpty"`
				SensorFail  *bool `json:"sensorFail"`
			}
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				writeSimError(w, http.StatusBadRequest, "invalid json")
				return
			}
			current := control.Faults()
			if patch.WeatherDown != nil {
				current.WeatherDown = *patch.WeatherDown
			}
			if patch.FeedDown != nil {
				current.FeedDown = *patch.FeedDown
			}
			if patch.FeedEmpty != nil {
				current.FeedEmpty = *patch.FeedEmpty
			}
			if patch.SensorFail != nil {
				current.SensorFail = *patch.SensorFail
			}
			control.SetFaults(current)
			writeSimJSON(w, http.StatusOK, current)
			return
		default:
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
	})
}

func writeSimJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSimError(w http.ResponseWriter, status int, message string) {
	writeSimJSON(w, status, map[string]any{"error": message})
}
