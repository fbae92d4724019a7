package commands

import (
	"github.com/aidanlsb/brag/internal/model"
)

// Response is the standard JSON envelope for CLI and MCP output.
type Response struct {
	OK       bool            `json:"ok"`
	Data     interface{}     `json:"data,omitempty"`
	Error    *ErrorInfo      `json:"error,omitempty"`
	Warnings []model.Warning `json:"warnings,omitempty"`
}

// ErrorInfo contains structured error information.
type ErrorInfo struct {
	Code       model.Kind `json:"code"`
	Message    string     `json:"message"`
	Suggestion string     `json:"suggestion,omitempty"`
}

// Success wraps a command output.
func Success(out Output) Response {
	return Response{OK: true, Data: out.Data, Warnings: out.Warnings}
}

// Failure wraps an error. Errors without a brag kind become INTERNAL_ERROR.
func Failure(err error) Response {
	kind := model.KindOf(err)
	return Response{
		OK: false,
		Error: &ErrorInfo{
			Code:       kind,
			Message:    err.Error(),
			Suggestion: Suggestion(kind),
		},
	}
}

// Suggestion returns a next step for an error kind, or "".
func Suggestion(kind model.Kind) string {
	switch kind {
	case model.KindTemplateMissing:
		return `Run "brag init" to write the default template, or set "template" in the config`
	case model.KindDocumentNotFound:
		return "Create the document with ensure first"
	case model.KindUnknownSection:
		return "Use a section path listed by outline"
	case model.KindSectionNotFound:
		return "The section heading was removed from the document; restore it or pick another section"
	case model.KindEntryNotFound:
		return "List entries with outline or section to find the entry"
	case model.KindStaleIndex:
		return "The document was edited outside brag; select the entry by section and old text, or run repair"
	case model.KindIndexCorrupt:
		return "Fix or remove the index file, then run repair to rebuild ids"
	case model.KindLocked:
		return "Another process is changing this document; retry shortly"
	case model.KindPositionOutOfRange:
		return "Use a position between 0 and the number of entries in the section"
	}
	return ""
}
