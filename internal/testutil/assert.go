package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/aidanlsb/brag/internal/model"
)

// AssertFileExists fails the test if the file does not exist.
func (w *TestWorkspace) AssertFileExists(relPath string) {
	w.t.Helper()
	if _, err := os.Stat(filepath.Join(w.Path, relPath)); os.IsNotExist(err) {
		w.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileNotExists fails the test if the file exists.
func (w *TestWorkspace) AssertFileNotExists(relPath string) {
	w.t.Helper()
	if _, err := os.Stat(filepath.Join(w.Path, relPath)); err == nil {
		w.t.Errorf("expected file to not exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the substring.
func (w *TestWorkspace) AssertFileContains(relPath, substr string) {
	w.t.Helper()
	content := w.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		w.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertFileNotContains fails the test if the file contains the substring.
func (w *TestWorkspace) AssertFileNotContains(relPath, substr string) {
	w.t.Helper()
	content := w.ReadFile(relPath)
	if strings.Contains(content, substr) {
		w.t.Errorf("expected file %s to not contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertErrorKind fails the test unless err carries the given error kind.
func (w *TestWorkspace) AssertErrorKind(err error, kind model.Kind) {
	w.t.Helper()
	if err == nil {
		w.t.Fatalf("expected %s error, got nil", kind)
	}
	var me *model.Error
	if !errors.As(err, &me) || me.Kind != kind {
		w.t.Fatalf("expected %s error, got %v", kind, err)
	}
}
