package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/brag/internal/config"
	"github.com/aidanlsb/brag/internal/model"
	"github.com/aidanlsb/brag/internal/reconcile"
	"github.com/aidanlsb/brag/internal/testutil"
)

var captureStdoutMu sync.Mutex

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	captureStdoutMu.Lock()
	defer captureStdoutMu.Unlock()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	outputCh := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		_ = r.Close()
		outputCh <- buf.String()
	}()

	fn()

	os.Stdout = orig
	_ = w.Close()
	return <-outputCh
}

// resetFlags restores every flag to its default so commands can run again
// within one test binary.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code       model.Kind `json:"code"`
		Message    string     `json:"message"`
		Suggestion string     `json:"suggestion"`
	} `json:"error"`
	Warnings []model.Warning `json:"warnings"`
}

// cliEnv is a workspace plus a config file naming Jane Doe.
type cliEnv struct {
	ws     *testutil.TestWorkspace
	config string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv(config.WorkspaceEnv, "")
	ws := testutil.NewTestWorkspace(t).Build()
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte("name = \"Jane Doe\"\nhistory = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &cliEnv{ws: ws, config: cfgPath}
}

// run executes brag with the workspace, config, and year 2025 set.
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	full := append([]string{"--config", e.config, "--workspace", e.ws.Path, "--year", "2025"}, args...)
	var err error
	out := captureStdout(t, func() {
		resetFlags(rootCmd)
		err = execute(full)
	})
	return out, err
}

func (e *cliEnv) runJSON(t *testing.T, args ...string) envelope {
	t.Helper()
	out, _ := e.run(t, append(args, "--json")...)
	var env envelope
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("brag %v: bad JSON %q: %v", args, out, err)
	}
	return env
}

func TestJSONLifecycle(t *testing.T) {
	e := newCLIEnv(t)

	env := e.runJSON(t, "ensure")
	if !env.OK || !strings.Contains(string(env.Data), `"status": "created"`) {
		t.Fatalf("ensure = %s", env.Data)
	}

	env = e.runJSON(t, "add", "Projects", "Shipped billing")
	var added struct {
		Entry model.Entry `json:"entry"`
	}
	if err := json.Unmarshal(env.Data, &added); err != nil || !env.OK {
		t.Fatalf("add = %s (%v)", env.Data, err)
	}
	id := added.Entry.ID
	if id == "" {
		t.Fatal("add returned no entry id")
	}

	env = e.runJSON(t, "add", "Projects", "Led review", "--position", "0")
	if !env.OK {
		t.Fatalf("add at 0 = %+v", env.Error)
	}

	env = e.runJSON(t, "update", "Shipped billing v2", "--entry-id", id)
	if !env.OK || !strings.Contains(string(env.Data), `"old_text": "Shipped billing"`) {
		t.Fatalf("update = %s %+v", env.Data, env.Error)
	}

	env = e.runJSON(t, "delete", "--section-path", "Projects", "--old-text", "Led review")
	if !env.OK {
		t.Fatalf("delete = %+v", env.Error)
	}

	env = e.runJSON(t, "section", "Projects")
	var section model.SectionEntries
	if err := json.Unmarshal(env.Data, &section); err != nil {
		t.Fatal(err)
	}
	if len(section.Entries) != 1 || section.Entries[0].ID != id || section.Entries[0].Text != "Shipped billing v2" {
		t.Errorf("section = %+v", section.Entries)
	}

	env = e.runJSON(t, "history", "--op", "add")
	if !env.OK || strings.Count(string(env.Data), `"op": "add"`) != 2 {
		t.Errorf("history = %s", env.Data)
	}

	e.ws.AssertFileContains(testutil.DocumentPath("Jane Doe", 2025), "- Shipped billing v2")
}

func TestJSONErrors(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "outline", "--json")
	if err == nil {
		t.Fatal("expected error for missing document")
	}
	var env envelope
	if jerr := json.Unmarshal([]byte(out), &env); jerr != nil {
		t.Fatalf("bad JSON %q", out)
	}
	if env.OK || env.Error.Code != model.KindDocumentNotFound || env.Error.Suggestion == "" {
		t.Errorf("error = %+v", env.Error)
	}
	if strings.Count(out, `"ok"`) != 1 {
		t.Errorf("expected exactly one envelope, got %q", out)
	}

	e.runJSON(t, "ensure")
	env = e.runJSON(t, "add", "Hobbies", "Knitting")
	if env.OK || env.Error.Code != model.KindUnknownSection {
		t.Errorf("unknown section error = %+v", env.Error)
	}
	env = e.runJSON(t, "delete", "--entry-id", "nope")
	if env.OK || env.Error.Code != model.KindEntryNotFound {
		t.Errorf("missing entry error = %+v", env.Error)
	}
}

func TestWorkspaceNotSet(t *testing.T) {
	t.Setenv(config.WorkspaceEnv, "")
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte("name = \"Jane Doe\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var err error
	out := captureStdout(t, func() {
		resetFlags(rootCmd)
		err = execute([]string{"--config", cfgPath, "outline", "--json"})
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out, string(codeWorkspaceNotSet)) {
		t.Errorf("output = %q", out)
	}
}

func TestHumanOutput(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "ensure")
	if err != nil || !strings.Contains(out, "Created") {
		t.Fatalf("ensure: %q, %v", out, err)
	}
	out, err = e.run(t, "add", "Outside of work/Talks", "Spoke at GopherCon")
	if err != nil || !strings.Contains(out, "Added entry") || !strings.Contains(out, "Outside of work/Talks") {
		t.Fatalf("add: %q, %v", out, err)
	}
	out, err = e.run(t, "outline")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Brag Document - Jane Doe (2025)", "Talks", "Spoke at GopherCon", "no entries"} {
		if !strings.Contains(out, want) {
			t.Errorf("outline missing %q:\n%s", want, out)
		}
	}
	out, err = e.run(t, "delete", "--section-path", "Outside of work/Talks", "--old-text", "Spoke at GopherCon", "--force")
	if err != nil || !strings.Contains(out, "Deleted") {
		t.Fatalf("delete: %q, %v", out, err)
	}
}

func TestInitWorkspace(t *testing.T) {
	t.Setenv(config.WorkspaceEnv, "")
	dir := filepath.Join(t.TempDir(), "brag")
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte("name = \"Jane Doe\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var err error
	captureStdout(t, func() {
		resetFlags(rootCmd)
		err = execute([]string{"--config", cfgPath, "init", dir, "--save"})
	})
	if err != nil {
		t.Fatalf("init error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Templates", "A brag document template.md")); err != nil {
		t.Errorf("template not written: %v", err)
	}
	saved, err := config.LoadFrom(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.WorkspaceRoot != dir || saved.Name != "Jane Doe" {
		t.Errorf("saved config = %+v", saved)
	}

	res, err := initWorkspace(dir)
	if err != nil || res.TemplateCreated {
		t.Errorf("second init = %+v, %v", res, err)
	}
}

func TestEnsureStatusConstants(t *testing.T) {
	e := newCLIEnv(t)
	e.runJSON(t, "ensure")
	env := e.runJSON(t, "ensure")
	if !strings.Contains(string(env.Data), string(reconcile.StatusExists)) {
		t.Errorf("second ensure = %s", env.Data)
	}
}
