// Package testutil provides reusable test utilities for brag workspaces.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aidanlsb/brag/internal/document"
	"github.com/aidanlsb/brag/internal/paths"
)

// TestWorkspace represents a temporary brag workspace for testing.
type TestWorkspace struct {
	Path     string
	t        *testing.T
	template *string
	files    map[string]string
}

// NewTestWorkspace creates a new test workspace builder with the built-in
// template. Call Build() to create the actual directory.
func NewTestWorkspace(t *testing.T) *TestWorkspace {
	t.Helper()
	tpl := string(document.DefaultTemplate())
	return &TestWorkspace{
		t:        t,
		template: &tpl,
		files:    make(map[string]string),
	}
}

// WithTemplate replaces the workspace template content.
func (w *TestWorkspace) WithTemplate(content string) *TestWorkspace {
	w.template = &content
	return w
}

// WithoutTemplate builds the workspace with no template file.
func (w *TestWorkspace) WithoutTemplate() *TestWorkspace {
	w.template = nil
	return w
}

// WithFile adds a file to the workspace.
// The path is relative to the workspace root.
func (w *TestWorkspace) WithFile(path, content string) *TestWorkspace {
	w.files[path] = content
	return w
}

// WithDocument adds a brag document for fullName and year.
func (w *TestWorkspace) WithDocument(fullName string, year int, content string) *TestWorkspace {
	return w.WithFile(DocumentPath(fullName, year), content)
}

// Build creates the workspace directory and all configured files.
// Returns the TestWorkspace for method chaining.
func (w *TestWorkspace) Build() *TestWorkspace {
	w.t.Helper()

	w.Path = w.t.TempDir()
	if w.template != nil {
		w.writeFile(filepath.Join(paths.TemplatesDir, paths.TemplateName), *w.template)
	}
	for path, content := range w.files {
		w.writeFile(path, content)
	}
	return w
}

// DocumentPath returns the workspace-relative path of a brag document.
func DocumentPath(fullName string, year int) string {
	return filepath.Join(paths.DocumentsDir, fullName, paths.DocumentName(fullName, year)+".md")
}

// IndexPath returns the workspace-relative path of a document's index.
func IndexPath(fullName string, year int) string {
	return filepath.Join(paths.DocumentsDir, fullName, paths.IndexDir, paths.DocumentName(fullName, year)+".json")
}

// Abs returns the absolute path of a workspace-relative path.
func (w *TestWorkspace) Abs(relPath string) string {
	return filepath.Join(w.Path, relPath)
}

// writeFile writes a file to the workspace, creating directories as needed.
func (w *TestWorkspace) writeFile(relPath, content string) {
	w.t.Helper()
	fullPath := filepath.Join(w.Path, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		w.t.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		w.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// WriteFile replaces a file in a built workspace, simulating an edit made
// outside brag.
func (w *TestWorkspace) WriteFile(relPath, content string) {
	w.t.Helper()
	w.writeFile(relPath, content)
}

// ReadFile reads a file from the workspace.
// Returns the content as a string.
func (w *TestWorkspace) ReadFile(relPath string) string {
	w.t.Helper()
	fullPath := filepath.Join(w.Path, relPath)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		w.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}
	return string(content)
}

// FileExists checks if a file exists in the workspace.
func (w *TestWorkspace) FileExists(relPath string) bool {
	w.t.Helper()
	_, err := os.Stat(filepath.Join(w.Path, relPath))
	return err == nil
}
