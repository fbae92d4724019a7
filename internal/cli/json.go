package cli

import (
	"encoding/json"
	"os"

	"github.com/aidanlsb/brag/internal/commands"
)

// Global JSON output flag
var jsonOutput bool

// outputJSON writes the response envelope to stdout.
func outputJSON(resp commands.Response) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
}

// outputSuccess writes a successful envelope.
func outputSuccess(out commands.Output) {
	outputJSON(commands.Success(out))
}

// outputError writes an error envelope.
func outputError(err error) {
	resp := commands.Failure(err)
	resp.Error.Code = codeFor(err)
	resp.Error.Suggestion = suggestionFor(err)
	outputJSON(resp)
}

// isJSONOutput returns true if JSON output is enabled.
func isJSONOutput() bool {
	return jsonOutput
}
