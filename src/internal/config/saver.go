// FILE: src/internal/config/saver.go
package config

import (
	"fmt"

	"pgmoneta-mcp/src/internal/core"

	lconfig "github.com/lixenwraith/config"
)

// SaveToFile writes the configuration as TOML to path
func (c *Config) SaveToFile(path string) error {
	if path == "" {
		return fmt.Errorf("%w: cannot save config: path is empty", core.ErrConfig)
	}

	// Temporary lconfig instance used only for its atomic writer
	lcfg, err := lconfig.NewBuilder().
		WithTarget(c).
		WithFileFormat("toml").
		Build()
	if err != nil {
		return fmt.Errorf("%w: failed to create config builder: %w", core.ErrConfig, err)
	}

	if err := lcfg.Save(path); err != nil {
		return fmt.Errorf("%w: failed to save config: %w", core.ErrIO, err)
	}

	return nil
}
