package commands

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistryHasRequiredCommands(t *testing.T) {
	required := []string{"ensure", "outline", "section", "add", "update", "delete", "repair", "history"}
	for _, cmd := range required {
		if _, ok := Registry[cmd]; !ok {
			t.Errorf("Registry missing required command %q", cmd)
		}
	}
}

func TestRegistryMetadataComplete(t *testing.T) {
	tools := make(map[string]string)
	for name, meta := range Registry {
		t.Run(name, func(t *testing.T) {
			if meta.Name != name {
				t.Errorf("Name = %q, want %q", meta.Name, name)
			}
			if meta.Description == "" {
				t.Error("Command has empty Description")
			}
			if meta.Run == nil {
				t.Error("Command has no Run")
			}
			if meta.Tool == "" {
				t.Error("Command has empty Tool")
			}
			if other, ok := tools[meta.Tool]; ok {
				t.Errorf("Tool %q also used by %q", meta.Tool, other)
			}
			tools[meta.Tool] = name

			for i, arg := range meta.Args {
				if arg.Name == "" {
					t.Errorf("Arg %d has empty Name", i)
				}
				if arg.Description == "" {
					t.Errorf("Arg %q has empty Description", arg.Name)
				}
			}
			for i, flag := range meta.Flags {
				if flag.Name == "" {
					t.Errorf("Flag %d has empty Name", i)
				}
				if flag.Description == "" {
					t.Errorf("Flag %q has empty Description", flag.Name)
				}
				if flag.Type == "" {
					t.Errorf("Flag %q has empty Type", flag.Name)
				}
			}
		})
	}
}

func TestByTool(t *testing.T) {
	meta, ok := ByTool("add_entry")
	if !ok || meta.Name != "add" {
		t.Fatalf("ByTool(add_entry) = %q, %v", meta.Name, ok)
	}
	if _, ok := ByTool("query"); ok {
		t.Error("ByTool(query) found a command")
	}
}

func TestCobraCommandGeneration(t *testing.T) {
	cmd := GenerateCobraCommand("add", nil)
	if cmd == nil {
		t.Fatal("GenerateCobraCommand returned nil for 'add'")
	}
	if cmd.Use != "add <section_path> <text>" {
		t.Errorf("Use = %q", cmd.Use)
	}
	pos := cmd.Flags().Lookup("position")
	if pos == nil {
		t.Fatal("Missing 'position' flag")
	}
	if pos.Shorthand != "p" {
		t.Errorf("position shorthand = %q, want p", pos.Shorthand)
	}
	if err := cmd.Args(cmd, []string{"Projects"}); err == nil {
		t.Error("expected error for missing text argument")
	}
}

func TestCobraCommandWithNoArgs(t *testing.T) {
	cmd := GenerateCobraCommand("outline", nil)
	if cmd == nil {
		t.Fatal("GenerateCobraCommand returned nil for 'outline'")
	}
	if cmd.Use != "outline" {
		t.Errorf("Use = %q, want 'outline'", cmd.Use)
	}
	if err := cmd.Args(cmd, []string{"extra"}); err == nil {
		t.Error("expected error for unexpected argument")
	}
}

func TestCobraCommandUnknown(t *testing.T) {
	if cmd := GenerateCobraCommand("nonexistent", nil); cmd != nil {
		t.Error("expected nil for unknown command")
	}
}

func TestParseInputOmitsUnsetInts(t *testing.T) {
	cmd := GenerateCobraCommand("update", nil)
	if err := cmd.ParseFlags([]string{"--section-path", "Projects", "--old-text", "x"}); err != nil {
		t.Fatal(err)
	}
	in := ParseInput(cmd, Registry["update"], []string{"new"})
	if _, set := in.Flags["occurrence-index"]; set {
		t.Error("occurrence-index present although not given")
	}
	want := map[string]string{"new_text": "new"}
	if diff := cmp.Diff(want, in.Args); diff != "" {
		t.Errorf("Args mismatch (-want +got):\n%s", diff)
	}
	if got := in.String("old-text"); got != "x" {
		t.Errorf("old-text = %q", got)
	}

	cmd = GenerateCobraCommand("history", nil)
	in = ParseInput(cmd, Registry["history"], nil)
	if n, ok, _ := in.Int("limit"); !ok || n != 20 {
		t.Errorf("limit = %d, %v, want default 20", n, ok)
	}
}

func TestSectionCompletion(t *testing.T) {
	cmd := GenerateCobraCommand("section", nil)
	got, _ := cmd.ValidArgsFunction(cmd, nil, "outside of work/t")
	want := []string{"Outside of work/Talks"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("completions mismatch (-want +got):\n%s", diff)
	}
}
