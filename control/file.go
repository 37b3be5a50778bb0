// control/file.go
// Author: momentics <momentics@gmail.com>
//
// TOML configuration files.

package control

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoadFile reads a TOML document into a flat-or-nested key map.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("control: read %s: %w", path, err)
	}
	cfg := make(map[string]any)
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("control: parse %s: %w", path, err)
	}
	return cfg, nil
}

// DecodeFile reads a TOML document into v.
func DecodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("control: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("control: parse %s: %w", path, err)
	}
	return nil
}

// SaveFile writes v as TOML.
func SaveFile(path string, v any) error {
	data, err := toml.Marshal(v)
	if err != nil {
		return fmt.Errorf("control: encode %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}
