package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/brag/internal/atomicfile"
)

type persistedConfig struct {
	WorkspaceRoot *string              `toml:"workspace_root,omitempty"`
	Name          *string              `toml:"name,omitempty"`
	Template      *string              `toml:"template,omitempty"`
	History       *bool                `toml:"history,omitempty"`
	LockTimeout   *string              `toml:"lock_timeout,omitempty"`
	UI            *persistedUISettings `toml:"ui,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SaveTo writes the global config to a specific path atomically.
// Empty settings are omitted so defaults keep applying.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		WorkspaceRoot: nonEmptyPtr(cfg.WorkspaceRoot),
		Name:          nonEmptyPtr(cfg.Name),
		Template:      nonEmptyPtr(cfg.Template),
		History:       cfg.History,
		LockTimeout:   nonEmptyPtr(cfg.LockTimeout),
	}

	accent := nonEmptyPtr(cfg.UI.Accent)
	codeTheme := nonEmptyPtr(cfg.UI.CodeTheme)
	if accent != nil || codeTheme != nil {
		out.UI = &persistedUISettings{
			Accent:    accent,
			CodeTheme: codeTheme,
		}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := atomicfile.WriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}
