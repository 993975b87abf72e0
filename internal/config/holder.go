package config

import (
	"fmt"
	"sync/atomic"
)

// Holder keeps the active Config and replaces it atomically on Reload.
type Holder struct {
	path    string
	current atomic.Pointer[Config]
}

// NewHolder wraps cfg, remembering the YAML path for later reloads.
func NewHolder(cfg *Config, yamlPath string) *Holder {
	h := &Holder{path: yamlPath}
	h.current.Store(cfg)
	return h
}

// Get returns the active config. Callers must not modify it.
func (h *Holder) Get() *Config {
	return h.current.Load()
}

// Reload re-reads defaults < YAML < ENV. On failure the active config is kept.
func (h *Holder) Reload() error {
	cfg, err := LoadFrom(h.path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", h.path, err)
	}
	h.current.Store(cfg)
	return nil
}
