package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFrom(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `workspace_root = "/path/to/workspace"
name = "Jane Doe"
template = "Templates/custom.md"
lock_timeout = "250ms"

[ui]
accent = "#ff8800"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.WorkspaceRoot != "/path/to/workspace" {
		t.Errorf("expected workspace_root '/path/to/workspace', got %q", cfg.WorkspaceRoot)
	}
	if cfg.Name != "Jane Doe" {
		t.Errorf("expected name 'Jane Doe', got %q", cfg.Name)
	}
	if cfg.Template != "Templates/custom.md" {
		t.Errorf("expected template, got %q", cfg.Template)
	}
	if !cfg.HistoryEnabled() {
		t.Error("history should default to enabled")
	}
	if d, err := cfg.LockTimeoutDuration(); err != nil || d != 250*time.Millisecond {
		t.Errorf("LockTimeoutDuration() = %v, %v", d, err)
	}
	if cfg.UI.Accent != "#ff8800" {
		t.Errorf("expected accent '#ff8800', got %q", cfg.UI.Accent)
	}
}

func TestLoadFromInvalid(t *testing.T) {
	tests := map[string]string{
		"bad toml":     "this is not valid toml [[[",
		"bad duration": `lock_timeout = "soon"`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			if _, err := LoadFrom(configPath); err == nil {
				t.Error("expected error for invalid config")
			}
		})
	}
}

func TestResolveWorkspace(t *testing.T) {
	cfg := &Config{WorkspaceRoot: "/from/config"}

	t.Run("config", func(t *testing.T) {
		t.Setenv(WorkspaceEnv, "")
		got, err := cfg.ResolveWorkspace("")
		if err != nil || got != "/from/config" {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("env beats config", func(t *testing.T) {
		t.Setenv(WorkspaceEnv, "/from/env")
		got, err := cfg.ResolveWorkspace("")
		if err != nil || got != "/from/env" {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("flag beats env", func(t *testing.T) {
		t.Setenv(WorkspaceEnv, "/from/env")
		got, err := cfg.ResolveWorkspace("/from/flag")
		if err != nil || got != "/from/flag" {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv(WorkspaceEnv, "")
		if _, err := (&Config{}).ResolveWorkspace(""); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("home expansion", func(t *testing.T) {
		t.Setenv(WorkspaceEnv, "")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}
		got, err := (&Config{WorkspaceRoot: "~/brag"}).ResolveWorkspace("")
		if err != nil || got != filepath.Join(home, "brag") {
			t.Errorf("got %q, %v", got, err)
		}
	})
}

func TestXDGPath(t *testing.T) {
	path, err := XDGPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(".config", "brag", "config.toml")) {
		t.Errorf("unexpected XDG path: %s", path)
	}
}
