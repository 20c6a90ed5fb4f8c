package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync/atomic"

	"signalsdr-engine/internal/config"
	"signalsdr-engine/internal/events"
)

const maxConfigBody = 1 << 20

// ConfigHandler serves the live config. Scans read it at the start of each
// run, so a saved change applies from the next run on.
type ConfigHandler struct {
	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
	Hub         *events.Hub
}

type configResponse struct {
	Config   config.Config `json:"config"`
	Warnings []string      `json:"warnings"`
}

func (h ConfigHandler) current() config.Config {
	return h.CfgVal.Load().(config.Config)
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.current())
}

// decodeConfig reads a full config document. Unknown keys are rejected so a
// typo does not silently fall back to a default.
func decodeConfig(r *http.Request) (config.Config, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxConfigBody))
	dec.DisallowUnknownFields()

	var cfg config.Config
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return cfg, errors.New("invalid JSON: trailing data")
	}
	return cfg, nil
}

func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	incoming, err := decodeConfig(r)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		WriteJSON(w, http.StatusUnprocessableEntity, vr)
		return
	}
	if err := config.SaveAtomic(h.UserCfgPath, normalized); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}

	// reload from disk so the live value is exactly what the next start sees
	saved, err := h.LoadCfg()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "reload_failed", "saved but reload failed: "+err.Error())
		return
	}
	h.CfgVal.Store(saved)
	h.Hub.Emit(RequestIDFrom(r.Context()), events.ConfigSaved, map[string]any{
		"path":       h.UserCfgPath,
		"categories": saved.CategoryOrder(),
	})
	writeJSON(w, configResponse{Config: saved, Warnings: nonNil(vr.Warnings)})
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, err := filepath.Abs(h.UserCfgPath)
	if err != nil {
		abs = h.UserCfgPath
	}
	writeJSON(w, map[string]any{"path": abs})
}

// Validate checks the live config on GET and a candidate document on POST.
// Nothing is saved either way.
func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	cfg := h.current()
	if r.Method == http.MethodPost {
		var err error
		if cfg, err = decodeConfig(r); err != nil {
			WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}
	_, vr := config.NormalizeAndValidate(cfg)
	writeJSON(w, vr)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
