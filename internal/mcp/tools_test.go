package mcp

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aidanlsb/brag/internal/brag"
	"github.com/aidanlsb/brag/internal/commands"
	"github.com/aidanlsb/brag/internal/model"
)

// TestMCPToolsMatchRegistry verifies that all registry commands
// have corresponding MCP tools with matching schemas.
func TestMCPToolsMatchRegistry(t *testing.T) {
	tools := GenerateToolSchemas()

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		toolMap[tool.Name] = tool
	}

	for cmdName, meta := range commands.Registry {
		toolName := mcpToolName(meta.Tool)
		tool, ok := toolMap[toolName]
		if !ok {
			t.Errorf("Command %q missing MCP tool %q", cmdName, toolName)
			continue
		}

		for _, name := range []string{commands.ArgFullName, commands.ArgYear} {
			if !slices.Contains(tool.InputSchema.Required, name) {
				t.Errorf("Tool %q does not require %q", toolName, name)
			}
		}
		for _, arg := range meta.Args {
			if arg.Required && !slices.Contains(tool.InputSchema.Required, arg.Name) {
				t.Errorf("Tool %q missing required arg %q", toolName, arg.Name)
			}
			if _, ok := tool.InputSchema.Properties[arg.Name]; !ok {
				t.Errorf("Tool %q missing property for arg %q", toolName, arg.Name)
			}
		}
		for _, flag := range meta.Flags {
			_, ok := tool.InputSchema.Properties[propertyName(flag.Name)]
			if ok == flag.CLIOnly {
				t.Errorf("Tool %q property for flag %q present = %v, CLIOnly = %v", toolName, flag.Name, ok, flag.CLIOnly)
			}
		}
	}

	if len(tools) != len(commands.Registry) {
		t.Errorf("Tool count mismatch: got %d tools, expected %d from registry",
			len(tools), len(commands.Registry))
	}
}

func TestToolNames(t *testing.T) {
	var got []string
	for _, tool := range GenerateToolSchemas() {
		got = append(got, tool.Name)
	}
	want := []string{
		"brag_add_entry",
		"brag_delete_entry",
		"brag_ensure_document",
		"brag_get_outline",
		"brag_get_section",
		"brag_history",
		"brag_repair",
		"brag_update_entry",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tool names mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildInput(t *testing.T) {
	meta, ok := LookupTool("brag_update_entry")
	if !ok {
		t.Fatal("brag_update_entry not found")
	}

	ref, in, err := BuildInput(meta, map[string]interface{}{
		"full_name":        "Jane Doe",
		"year":             float64(2025),
		"new_text":         "Shipped",
		"section-path":     "Projects",
		"old_text":         "Ship",
		"occurrence_index": float64(1),
		"force":            true,
	})
	if err != nil {
		t.Fatalf("BuildInput() error = %v", err)
	}
	if diff := cmp.Diff(brag.DocumentRef{FullName: "Jane Doe", Year: 2025}, ref); diff != "" {
		t.Errorf("ref mismatch (-want +got):\n%s", diff)
	}
	wantFlags := map[string]interface{}{
		"section-path":     "Projects",
		"old-text":         "Ship",
		"occurrence-index": float64(1),
	}
	if diff := cmp.Diff(wantFlags, in.Flags); diff != "" {
		t.Errorf("flags mismatch (-want +got):\n%s", diff)
	}
	if in.String("new_text") != "Shipped" {
		t.Errorf("new_text = %q", in.String("new_text"))
	}
}

func TestBuildInputYear(t *testing.T) {
	meta, _ := LookupTool("brag_get_outline")
	tests := []struct {
		year    interface{}
		want    int
		wantErr bool
	}{
		{float64(2025), 2025, false},
		{"2024", 2024, false},
		{nil, 0, true},
		{2025.5, 0, true},
		{"next", 0, true},
	}
	for _, tt := range tests {
		ref, _, err := BuildInput(meta, map[string]interface{}{"full_name": "Jane Doe", "year": tt.year})
		if (err != nil) != tt.wantErr {
			t.Errorf("year %v: err = %v, wantErr %v", tt.year, err, tt.wantErr)
			continue
		}
		if err != nil && model.KindOf(err) != model.KindInvalidInput {
			t.Errorf("year %v: kind = %q", tt.year, model.KindOf(err))
		}
		if err == nil && ref.Year != tt.want {
			t.Errorf("year %v: got %d, want %d", tt.year, ref.Year, tt.want)
		}
	}
}

func TestLookupToolRequiresPrefix(t *testing.T) {
	if _, ok := LookupTool("add_entry"); ok {
		t.Error("LookupTool accepted a name without prefix")
	}
	if _, ok := LookupTool("brag_rename"); ok {
		t.Error("LookupTool accepted an unknown tool")
	}
}
