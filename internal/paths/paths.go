// Package paths provides canonical helpers for locating brag documents and
// their companion files inside a workspace:
// - the template: "Templates/A brag document template.md"
// - documents:    "BragDocuments/<Full Name>/Brag Document - <Full Name> (<Year>).md"
// - indices:      "BragDocuments/<Full Name>/.index/<document name>.json"
// - lock files:   "BragDocuments/<Full Name>/.index/<document name>.lock"
//
// Every component that touches the filesystem derives its paths here so the
// CLI, the MCP server, and tests agree on the layout.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/aidanlsb/brag/internal/model"
)

const (
	TemplatesDir = "Templates"
	DocumentsDir = "BragDocuments"
	IndexDir     = ".index"

	// TemplateName is the file name of the workspace template.
	TemplateName = "A brag document template.md"

	MinYear = 1
	MaxYear = 9999
)

// Document holds every path belonging to one brag document.
type Document struct {
	Name     string // "Brag Document - Jane Doe (2025)"
	Dir      string
	Path     string
	Index    string
	Lock     string
	Template string
}

// ValidateFullName trims a person's name and checks it can be used as a
// single directory name.
func ValidateFullName(fullName string) (string, error) {
	name := strings.TrimSpace(fullName)
	switch {
	case name == "":
		return "", model.Errorf(model.KindInvalidInput, "full name is required")
	case name == "." || name == "..":
		return "", model.Errorf(model.KindInvalidInput, "full name %q is not allowed", name)
	case strings.ContainsAny(name, `/\`):
		return "", model.Errorf(model.KindInvalidInput, "full name %q cannot contain path separators", name)
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return "", model.Errorf(model.KindInvalidInput, "full name cannot contain control characters")
	}
	return name, nil
}

// ValidateYear checks that year fits the document naming scheme.
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return model.Errorf(model.KindInvalidInput, "year %d must be between %d and %d", year, MinYear, MaxYear)
	}
	return nil
}

// DocumentName returns the file stem of a document.
func DocumentName(fullName string, year int) string {
	return fmt.Sprintf("Brag Document - %s (%d)", fullName, year)
}

// DefaultTemplatePath returns the template location inside a workspace.
func DefaultTemplatePath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, TemplatesDir, TemplateName)
}

// Resolve validates the name and year and returns the document's paths.
// A relative templateOverride is taken relative to the workspace root; an
// empty one selects the default template location.
func Resolve(workspaceRoot, fullName string, year int, templateOverride string) (Document, error) {
	name, err := ValidateFullName(fullName)
	if err != nil {
		return Document{}, err
	}
	if err := ValidateYear(year); err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(workspaceRoot) == "" {
		return Document{}, model.Errorf(model.KindInvalidInput, "workspace root is required")
	}

	stem := DocumentName(name, year)
	dir := filepath.Join(workspaceRoot, DocumentsDir, name)
	tpl := DefaultTemplatePath(workspaceRoot)
	if templateOverride != "" {
		tpl = ExpandHome(templateOverride)
		if !filepath.IsAbs(tpl) {
			tpl = filepath.Join(workspaceRoot, tpl)
		}
	}
	return Document{
		Name:     stem,
		Dir:      dir,
		Path:     filepath.Join(dir, stem+".md"),
		Index:    filepath.Join(dir, IndexDir, stem+".json"),
		Lock:     filepath.Join(dir, IndexDir, stem+".lock"),
		Template: tpl,
	}, nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Canonical returns an absolute, symlink-resolved form of path suitable as
// a map key. The file itself need not exist; the deepest existing ancestor
// is resolved and the rest appended.
func Canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	rest := ""
	dir := abs
	for {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}
