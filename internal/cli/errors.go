package cli

import (
	"errors"

	"github.com/aidanlsb/brag/internal/commands"
	"github.com/aidanlsb/brag/internal/model"
)

// CLI-level error codes, alongside the document error kinds.
// These codes are stable and can be relied upon by agents.
const (
	codeConfigInvalid   model.Kind = "CONFIG_INVALID"
	codeWorkspaceNotSet model.Kind = "WORKSPACE_NOT_SET"
	codeCancelled       model.Kind = "CANCELLED"
)

// codedError carries a CLI-level code and suggestion.
type codedError struct {
	code       model.Kind
	err        error
	suggestion string
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

// reportedError marks an error whose JSON envelope was already written.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func errAlreadyReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// handleError reports err under code. In JSON mode the envelope is written
// immediately and the returned error only sets the exit status.
func handleError(code model.Kind, err error, suggestion string) error {
	ce := &codedError{code: code, err: err, suggestion: suggestion}
	if jsonOutput {
		outputError(ce)
		return &reportedError{err: ce}
	}
	return ce
}

// codeFor returns the stable code of err.
func codeFor(err error) model.Kind {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	return model.KindOf(err)
}

func suggestionFor(err error) string {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.suggestion
	}
	return commands.Suggestion(model.KindOf(err))
}
