// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with dynamic update and reload propagation.

package control

import (
	"fmt"
	"maps"
	"sync"

	"github.com/momentics/dualview/api"
)

// ConfigStore is a dynamic key/value map with snapshot reads and listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
	validate  func(map[string]any) error
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config: make(map[string]any),
	}
}

// SetValidator installs a check run against the merged result of every
// SetConfig; a failing check leaves the store unchanged.
func (cs *ConfigStore) SetValidator(fn func(map[string]any) error) {
	cs.mu.Lock()
	cs.validate = fn
	cs.mu.Unlock()
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return maps.Clone(cs.config)
}

// SetConfig merges new values and notifies listeners on the calling goroutine
// once the store is unlocked.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) error {
	cs.mu.Lock()
	merged := maps.Clone(cs.config)
	maps.Copy(merged, newCfg)
	if cs.validate != nil {
		if err := cs.validate(merged); err != nil {
			cs.mu.Unlock()
			return fmt.Errorf("control: rejected config: %w", err)
		}
	}
	cs.config = merged
	listeners := append([]func(){}, cs.listeners...)
	cs.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// Float32 reads a numeric key. TOML integers and floats both qualify;
// a missing key yields def.
func Float32(cfg map[string]any, key string, def float32) (float32, error) {
	v, ok := cfg[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return float32(n), nil
	case float32:
		return n, nil
	case int64:
		return float32(n), nil
	case int:
		return float32(n), nil
	default:
		return def, fmt.Errorf("control: key %q holds %T, want a number: %w", key, v, api.ErrInvalidArgument)
	}
}
