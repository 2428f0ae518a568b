// Package modes maps UI modes to the backend behaviors the agent supports.
package modes

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Mode describes one backend behavior selectable through the request's
// mode field.
type Mode struct {
	ID           string `yaml:"id"`      // wire value sent to the agent
	Label        string `yaml:"label"`   // display name
	UIMode       string `yaml:"ui_mode"` // UI toggle value mapped to this mode
	Description  string `yaml:"description"`
	DefaultLimit int    `yaml:"default_limit"`
}

// DefaultModeID is the wire mode used when a UI mode has no mapping.
const DefaultModeID = "normal"

type modeConfig struct {
	Backend string `yaml:"backend"`
	Modes   []Mode `yaml:"modes"`
}

// Registry holds the known backend modes, loaded from the embedded YAML.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]Mode
	byUI   map[string]Mode
	listed []Mode
}

// NewRegistry loads the embedded mode configuration.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/modes.yaml")
	if err != nil {
		return nil, fmt.Errorf("read mode config: %w", err)
	}

	var cfg modeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal mode config: %w", err)
	}
	if len(cfg.Modes) == 0 {
		return nil, fmt.Errorf("mode config defines no modes")
	}

	r := &Registry{
		byID:   make(map[string]Mode, len(cfg.Modes)),
		byUI:   make(map[string]Mode, len(cfg.Modes)),
		listed: cfg.Modes,
	}
	for _, m := range cfg.Modes {
		r.byID[m.ID] = m
		r.byUI[m.UIMode] = m
	}

	if _, ok := r.byID[DefaultModeID]; !ok {
		return nil, fmt.Errorf("mode config missing default mode %q", DefaultModeID)
	}

	return r, nil
}

// Get returns the mode with the given wire id.
func (r *Registry) Get(id string) (Mode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	return m, ok
}

// ForUIMode maps a UI toggle value to its backend mode, falling back to the
// default mode for unknown values.
func (r *Registry) ForUIMode(uiMode string) Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.byUI[uiMode]; ok {
		return m
	}
	return r.byID[DefaultModeID]
}

// List returns all modes in configuration order.
func (r *Registry) List() []Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Mode, len(r.listed))
	copy(out, r.listed)
	return out
}
