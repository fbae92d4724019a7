package mcp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aidanlsb/brag/internal/brag"
	"github.com/aidanlsb/brag/internal/commands"
	"github.com/aidanlsb/brag/internal/model"
)

const toolPrefix = "brag_"

// GenerateToolSchemas generates MCP tool schemas from the command registry.
// This keeps MCP tools in sync with CLI commands automatically.
func GenerateToolSchemas() []Tool {
	var tools []Tool

	for _, meta := range commands.Registry {
		tool := Tool{
			Name:        mcpToolName(meta.Tool),
			Description: meta.Description,
			InputSchema: InputSchema{
				Type:       "object",
				Properties: documentProperties(),
			},
		}
		if meta.LongDesc != "" {
			tool.Description = meta.LongDesc
		}

		required := []string{commands.ArgFullName, commands.ArgYear}
		for _, arg := range meta.Args {
			tool.InputSchema.Properties[arg.Name] = map[string]interface{}{
				"type":        "string",
				"description": arg.Description,
			}
			if arg.Required {
				required = append(required, arg.Name)
			}
		}

		for _, flag := range meta.Flags {
			if flag.CLIOnly {
				continue
			}
			prop := map[string]interface{}{
				"description": flag.Description,
			}
			switch flag.Type {
			case commands.FlagTypeBool:
				prop["type"] = "boolean"
			case commands.FlagTypeInt:
				prop["type"] = "integer"
			case commands.FlagTypeStringSlice:
				prop["type"] = "array"
				prop["items"] = map[string]interface{}{"type": "string"}
			default:
				prop["type"] = "string"
			}
			if len(flag.Examples) > 0 {
				prop["examples"] = flag.Examples
			}
			tool.InputSchema.Properties[propertyName(flag.Name)] = prop
		}

		tool.InputSchema.Required = required
		tools = append(tools, tool)
	}

	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

func documentProperties() map[string]interface{} {
	return map[string]interface{}{
		commands.ArgFullName: map[string]interface{}{
			"type":        "string",
			"description": `Full name of the document owner, e.g. "Jane Doe"`,
		},
		commands.ArgYear: map[string]interface{}{
			"type":        "integer",
			"description": "Year of the brag document, e.g. 2025",
		},
		commands.ArgWorkspaceRoot: map[string]interface{}{
			"type":        "string",
			"description": "Workspace directory (default: the server's workspace)",
		},
	}
}

// mcpToolName converts a registry tool name to an MCP tool name.
// e.g., "add_entry" -> "brag_add_entry"
func mcpToolName(tool string) string {
	return toolPrefix + tool
}

// propertyName converts a CLI flag name to its MCP property name.
// e.g., "entry-id" -> "entry_id"
func propertyName(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// LookupTool finds the command behind an MCP tool name.
func LookupTool(name string) (commands.Meta, bool) {
	if !strings.HasPrefix(name, toolPrefix) {
		return commands.Meta{}, false
	}
	return commands.ByTool(strings.TrimPrefix(name, toolPrefix))
}

// BuildInput converts MCP tool arguments into a document ref and command
// input. Property names are accepted with either hyphens or underscores.
func BuildInput(meta commands.Meta, args map[string]interface{}) (brag.DocumentRef, commands.Input, error) {
	normalized := normalizeArgs(args)

	ref := brag.DocumentRef{
		FullName:      toString(normalized[commands.ArgFullName]),
		WorkspaceRoot: toString(normalized[commands.ArgWorkspaceRoot]),
	}
	year, err := toInt(normalized[commands.ArgYear])
	if err != nil {
		return brag.DocumentRef{}, commands.Input{}, err
	}
	ref.Year = year

	in := commands.Input{Args: make(map[string]string), Flags: make(map[string]interface{})}
	for _, arg := range meta.Args {
		if val, ok := normalized[arg.Name]; ok {
			in.Args[arg.Name] = toString(val)
		}
	}
	for _, flag := range meta.Flags {
		if flag.CLIOnly {
			continue
		}
		if val, ok := normalized[propertyName(flag.Name)]; ok && val != nil {
			in.Flags[flag.Name] = val
		}
	}
	return ref, in, nil
}

// normalizeArgs maps hyphenated property names to their underscore form.
func normalizeArgs(args map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		out[propertyName(k)] = v
	}
	return out
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func toInt(v interface{}) (int, error) {
	switch val := v.(type) {
	case nil:
		return 0, model.Errorf(model.KindInvalidInput, "year is required")
	case float64:
		if val != float64(int(val)) {
			return 0, model.Errorf(model.KindInvalidInput, "year must be an integer, got %v", val)
		}
		return int(val), nil
	case int:
		return val, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, model.Errorf(model.KindInvalidInput, "year must be an integer, got %q", val)
		}
		return n, nil
	}
	return 0, model.Errorf(model.KindInvalidInput, "year must be an integer")
}
