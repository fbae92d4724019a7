// Package config handles global brag configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/brag/internal/paths"
)

// WorkspaceEnv overrides workspace_root from the config file.
const WorkspaceEnv = "BRAG_WORKSPACE"

// Config represents the global brag configuration.
type Config struct {
	// WorkspaceRoot is the directory holding Templates/ and BragDocuments/.
	WorkspaceRoot string `toml:"workspace_root"`

	// Name is the default full name when --name is not given.
	Name string `toml:"name"`

	// Template overrides the template location. Relative paths are taken
	// relative to the workspace root.
	Template string `toml:"template"`

	// History enables the SQLite change history. Defaults to true.
	History *bool `toml:"history"`

	// LockTimeout bounds the wait for a document held by another process,
	// as a Go duration string such as "5s".
	LockTimeout string `toml:"lock_timeout"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown code blocks.
	CodeTheme string `toml:"code_theme"`
}

// HistoryEnabled reports whether changes should be recorded.
func (c *Config) HistoryEnabled() bool {
	return c.History == nil || *c.History
}

// LockTimeoutDuration parses lock_timeout. Zero means the default.
func (c *Config) LockTimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(c.LockTimeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(c.LockTimeout))
	if err != nil {
		return 0, fmt.Errorf("invalid lock_timeout %q: %w", c.LockTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("lock_timeout %q must not be negative", c.LockTimeout)
	}
	return d, nil
}

// ResolveWorkspace picks the workspace root: flag, then $BRAG_WORKSPACE,
// then workspace_root from the config file.
func (c *Config) ResolveWorkspace(flag string) (string, error) {
	for _, candidate := range []string{flag, os.Getenv(WorkspaceEnv), c.WorkspaceRoot} {
		if strings.TrimSpace(candidate) != "" {
			return paths.ExpandHome(strings.TrimSpace(candidate)), nil
		}
	}
	return "", fmt.Errorf("no workspace configured")
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if _, err := config.LockTimeoutDuration(); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// ResolveConfigPath returns the config path that Load or LoadFrom would use.
func ResolveConfigPath(flag string) string {
	if strings.TrimSpace(flag) != "" {
		return paths.ExpandHome(flag)
	}
	return DefaultPath()
}

// DefaultPath returns the default config file path.
// Checks ~/.config/brag/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	// Prefer XDG-style ~/.config/brag/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "brag", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	// Fall back to XDG config dir or OS-specific location
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "brag", "config.toml")
	}

	// Last resort fallback
	return filepath.Join(".", "config.toml")
}

// XDGPath returns the XDG-style config path (~/.config/brag/config.toml).
func XDGPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "brag", "config.toml"), nil
}
