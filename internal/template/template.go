// Package template loads brag document templates and substitutes placeholders.
package template

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aidanlsb/brag/internal/model"
)

// Variables holds the available template variables for substitution.
type Variables struct {
	// FullName is the document owner, e.g. "Jane Doe".
	FullName string
	// Year is the document year.
	Year int
	// Created is the creation time, used for {{date}}.
	Created time.Time
}

// Load reads a template file. A missing file is reported as TEMPLATE_MISSING.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.Errorf(model.KindTemplateMissing, "template not found at %s", path)
		}
		return nil, fmt.Errorf("read template: %w", err)
	}
	return data, nil
}

// Apply substitutes template variables in the content.
// Variables use {{name}} syntax. Unknown variables are left as-is.
// Escaped variables \{{name}} are converted to literal {{name}}.
func Apply(content string, vars Variables) string {
	if content == "" {
		return content
	}

	content = strings.ReplaceAll(content, "\\{{", "«BRAG_ESC_OPEN»")
	content = strings.ReplaceAll(content, "\\}}", "«BRAG_ESC_CLOSE»")

	created := vars.Created
	if created.IsZero() {
		created = time.Now()
	}
	year := ""
	if vars.Year != 0 {
		year = strconv.Itoa(vars.Year)
	}

	replacements := map[string]string{
		"{{full_name}}": vars.FullName,
		"{{name}}":      vars.FullName,
		"{{year}}":      year,
		"{{date}}":      created.Format("2006-01-02"),
	}
	for placeholder, value := range replacements {
		content = strings.ReplaceAll(content, placeholder, value)
	}

	content = strings.ReplaceAll(content, "«BRAG_ESC_OPEN»", "{{")
	content = strings.ReplaceAll(content, "«BRAG_ESC_CLOSE»", "}}")
	return content
}
