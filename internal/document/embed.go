package document

import _ "embed"

// DefaultTemplateName is the file name of the template under the workspace's
// Templates directory.
const DefaultTemplateName = "A brag document template.md"

//go:embed default_template.md
var defaultTemplate []byte

// DefaultTemplate returns the built-in document template.
func DefaultTemplate() []byte {
	return append([]byte(nil), defaultTemplate...)
}
