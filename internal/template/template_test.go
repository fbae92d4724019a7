package template

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aidanlsb/brag/internal/model"
)

func TestApply(t *testing.T) {
	vars := Variables{
		FullName: "Jane Doe",
		Year:     2025,
		Created:  time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{name: "full name", template: "# Brag Document - {{full_name}}", expected: "# Brag Document - Jane Doe"},
		{name: "name alias", template: "Owner: {{name}}", expected: "Owner: Jane Doe"},
		{name: "year", template: "({{year}})", expected: "(2025)"},
		{name: "date", template: "Started {{date}}", expected: "Started 2025-01-06"},
		{name: "unknown preserved", template: "{{unknown}}", expected: "{{unknown}}"},
		{name: "escaped braces", template: `\{{year}}`, expected: "{{year}}"},
		{name: "empty", template: "", expected: ""},
		{
			name:     "multiple",
			template: "# Brag Document - {{name}} ({{year}})\n\n## Projects\n",
			expected: "# Brag Document - Jane Doe (2025)\n\n## Projects\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Apply(tt.template, vars); got != tt.expected {
				t.Errorf("Apply() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.md"))
	if !errors.Is(err, model.ErrTemplateMissing) {
		t.Fatalf("Load(missing) error = %v, want TEMPLATE_MISSING", err)
	}

	path := filepath.Join(dir, "template.md")
	if err := os.WriteFile(path, []byte("# {{name}}"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "# {{name}}" {
		t.Errorf("Load = %q", data)
	}
}
