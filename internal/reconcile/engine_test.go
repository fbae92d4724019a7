package reconcile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/aidanlsb/brag/internal/document"
	"github.com/aidanlsb/brag/internal/index"
	"github.com/aidanlsb/brag/internal/model"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTarget(t *testing.T) Target {
	t.Helper()
	root := t.TempDir()
	tpl := filepath.Join(root, "Templates", document.DefaultTemplateName)
	if err := os.MkdirAll(filepath.Dir(tpl), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tpl, document.DefaultTemplate(), 0o644); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(root, "BragDocuments", "Jane Doe")
	name := "Brag Document - Jane Doe (2025)"
	return Target{
		DocumentPath: filepath.Join(dir, name+".md"),
		IndexPath:    filepath.Join(dir, ".index", name+".json"),
		TemplatePath: tpl,
		FullName:     "Jane Doe",
		Year:         2025,
	}
}

// seqIDs hands out the given ids in order, then id-N.
func seqIDs(ids ...string) func() string {
	n := 0
	return func() string {
		n++
		if n <= len(ids) {
			return ids[n-1]
		}
		return fmt.Sprintf("id-%d", n)
	}
}

func newEngine(ids ...string) *Engine {
	return &Engine{IDs: seqIDs(ids...), Now: func() time.Time { return testNow }}
}

func ensure(t *testing.T, e *Engine, tgt Target) {
	t.Helper()
	res, err := e.EnsureExists(tgt)
	if err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}
	if res.Status != StatusCreated {
		t.Fatalf("EnsureExists() status = %s, want created", res.Status)
	}
}

func add(t *testing.T, e *Engine, tgt Target, section, text string) model.Entry {
	t.Helper()
	res, err := e.AddEntry(tgt, section, text, nil)
	if err != nil {
		t.Fatalf("AddEntry(%q, %q) error = %v", section, text, err)
	}
	if len(res.Warnings) > 0 {
		t.Fatalf("AddEntry(%q) warnings = %v", text, res.Warnings)
	}
	return res.Entry
}

func texts(t *testing.T, e *Engine, tgt Target, section string) []string {
	t.Helper()
	se, err := e.ReadSection(tgt, section)
	if err != nil {
		t.Fatalf("ReadSection(%q) error = %v", section, err)
	}
	var out []string
	for _, entry := range se.Entries {
		out = append(out, entry.Text)
	}
	return out
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func editDocument(t *testing.T, path, old, new string) {
	t.Helper()
	data := readFile(t, path)
	if !bytes.Contains(data, []byte(old)) {
		t.Fatalf("document does not contain %q", old)
	}
	data = bytes.Replace(data, []byte(old), []byte(new), 1)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func wantKind(t *testing.T, err error, want *model.Error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %s", err, want.Kind)
	}
}

func TestEnsureExistsIsIdempotent(t *testing.T) {
	tgt := newTarget(t)
	e := newEngine()
	ensure(t, e, tgt)

	first := readFile(t, tgt.DocumentPath)
	if !bytes.Contains(first, []byte("# Brag Document - Jane Doe (2025)")) {
		t.Errorf("title not substituted:\n%s", first)
	}
	if bytes.Contains(first, []byte("List your major goals")) {
		t.Errorf("sample bullets not stripped:\n%s", first)
	}
	if !index.Exists(tgt.IndexPath) {
		t.Error("index not created")
	}

	res, err := e.EnsureExists(tgt)
	if err != nil {
		t.Fatalf("second EnsureExists() error = %v", err)
	}
	if res.Status != StatusExists {
		t.Errorf("second status = %s, want exists", res.Status)
	}
	if second := readFile(t, tgt.DocumentPath); !bytes.Equal(first, second) {
		t.Error("document changed on second EnsureExists")
	}
}

func TestEnsureExistsTemplateMissing(t *testing.T) {
	tgt := newTarget(t)
	tgt.TemplatePath = filepath.Join(filepath.Dir(tgt.TemplatePath), "missing.md")

	_, err := newEngine().EnsureExists(tgt)
	wantKind(t, err, model.ErrTemplateMissing)
	if _, statErr := os.Stat(tgt.DocumentPath); !os.IsNotExist(statErr) {
		t.Error("document should not be created")
	}
}

func TestEnsureExistsRecreatesMissingIndex(t *testing.T) {
	tgt := newTarget(t)
	e := newEngine()
	ensure(t, e, tgt)
	if err := os.Remove(tgt.IndexPath); err != nil {
		t.Fatal(err)
	}

	res, err := e.EnsureExists(tgt)
	if err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}
	if res.Status != StatusExists || !index.Exists(tgt.IndexPath) {
		t.Errorf("status = %s, index exists = %v", res.Status, index.Exists(tgt.IndexPath))
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Code != model.WarnIndexCreated {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestJaneDoeScenario(t *testing.T) {
	tgt := newTarget(t)
	e := New(nil)
	ensure(t, e, tgt)

	v1 := add(t, e, tgt, "Projects", "Shipped v1")
	zero := 0
	res, err := e.AddEntry(tgt, "Projects", "Shipped v2", &zero)
	if err != nil {
		t.Fatalf("AddEntry(position 0) error = %v", err)
	}
	v2 := res.Entry

	se, err := e.ReadSection(tgt, "Projects")
	if err != nil {
		t.Fatalf("ReadSection() error = %v", err)
	}
	if len(se.Entries) != 2 {
		t.Fatalf("entries = %+v", se.Entries)
	}
	if se.Entries[0].Text != "Shipped v2" || se.Entries[1].Text != "Shipped v1" {
		t.Errorf("order = %q, %q", se.Entries[0].Text, se.Entries[1].Text)
	}
	if se.Entries[0].ID != v2.ID || se.Entries[1].ID != v1.ID || v1.ID == v2.ID {
		t.Errorf("ids = %q, %q; added %q, %q", se.Entries[0].ID, se.Entries[1].ID, v2.ID, v1.ID)
	}

	if _, err := e.DeleteEntry(tgt, ByID(v2.ID)); err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Shipped v1"}, texts(t, e, tgt, "Projects")); diff != "" {
		t.Errorf("after delete (-want +got):\n%s", diff)
	}
}

func TestAddEntryAssignsFreshIDs(t *testing.T) {
	tgt := newTarget(t)
	e := New(nil)
	ensure(t, e, tgt)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		entry := add(t, e, tgt, "Outside of work/Talks", fmt.Sprintf("Talk %d", i))
		if entry.ID == "" || seen[entry.ID] {
			t.Fatalf("id %q is empty or reused", entry.ID)
		}
		seen[entry.ID] = true
		if entry.Position != i {
			t.Errorf("position = %d, want %d", entry.Position, i)
		}
	}

	set, err := index.Load(tgt.IndexPath)
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 5 {
		t.Errorf("index has %d records, want 5", set.Len())
	}
}

func TestAddEntryRejectsBadInput(t *testing.T) {
	tgt := newTarget(t)
	e := newEngine()
	ensure(t, e, tgt)
	before := readFile(t, tgt.DocumentPath)

	five, negative := 5, -2
	tests := []struct {
		name     string
		section  string
		text     string
		position *int
		want     *model.Error
	}{
		{"position past end", "Projects", "x", &five, model.ErrPositionOutOfRange},
		{"negative position", "Projects", "x", &negative, model.ErrPositionOutOfRange},
		{"unknown section", "Hobbies", "x", nil, model.ErrUnknownSection},
		{"unknown child", "Goals/Goals for last year", "x", nil, model.ErrUnknownSection},
		{"empty text", "Projects", "  ", nil, model.ErrInvalidInput},
		{"multi-line text", "Projects", "a\nb", nil, model.ErrInvalidInput},
		{"heading text", "Projects", "## Sneaky", nil, model.ErrInvalidInput},
		{"invalid utf-8", "Projects", "Shipped \xff v1", nil, model.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.AddEntry(tgt, tt.section, tt.text, tt.position)
			wantKind(t, err, tt.want)
		})
	}

	if after := readFile(t, tgt.DocumentPath); !bytes.Equal(before, after) {
		t.Error("document changed by rejected adds")
	}
}

func TestAddEntryRetriesIDCollisions(t *testing.T) {
	tgt := newTarget(t)
	ensure(t, newEngine(), tgt)

	add(t, newEngine("taken"), tgt, "Projects", "first")
	entry := add(t, newEngine("taken", "taken", "fresh"), tgt, "Projects", "second")
	if entry.ID != "fresh" {
		t.Errorf("id = %q, want fresh", entry.ID)
	}

	// Retired ids are never handed out again.
	if _, err := newEngine().DeleteEntry(tgt, ByID("taken")); err != nil {
		t.Fatal(err)
	}
	entry = add(t, newEngine("taken", "newer"), tgt, "Projects", "third")
	if entry.ID != "newer" {
		t.Errorf("id = %q, want newer", entry.ID)
	}

	before := readFile(t, tgt.DocumentPath)
	always := &Engine{IDs: func() string { return "fresh" }, Now: func() time.Time { return testNow }}
	_, err := always.AddEntry(tgt, "Projects", "never", nil)
	wantKind(t, err, model.ErrIDCollision)
	if after := readFile(t, tgt.DocumentPath); !bytes.Equal(before, after) {
		t.Error("document changed despite ID_COLLISION")
	}
}

func TestUpdateByIDTouchesOnlyThatEntry(t *testing.T) {
	tgt := newTarget(t)
	e := newEngine("a", "b", "c")
	ensure(t, e, tgt)
	add(t, e, tgt, "Projects", "one")
	add(t, e, tgt, "Projects", "two")
	add(t, e, tgt, "What you learned", "three")

	before, err := index.Load(tgt.IndexPath)
	if err != nil {
		t.Fatal(err)
	}

	later := testNow.Add(time.Hour)
	e.Now = func() time.Time { return later }
	res, err := e.UpdateEntry(tgt, ByID("b"), "two, revised")
	if err != nil {
		t.Fatalf("UpdateEntry() error = %v", err)
	}
	if res.Adopted || res.Entry.ID != "b" || res.Entry.Position != 1 {
		t.Errorf("result = %+v", res)
	}

	after, err := index.Load(tgt.IndexPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "c"} {
		want, _ := before.Find(id)
		got, _ := after.Find(id)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("record %s changed (-want +got):\n%s", id, diff)
		}
	}
	b, _ := after.Find("b")
	if b.Text != "two, revised" || !b.UpdatedAt.Equal(later) || !b.CreatedAt.Equal(testNow) {
		t.Errorf("record b = %+v", b)
	}
	if diff := cmp.Diff([]string{"one", "two, revised"}, texts(t, e, tgt, "Projects")); diff != "" {
		t.Errorf("Projects (-want +got):\n%s", diff)
	}
}

func TestUpdateByOccurrence(t *testing.T) {
	tgt := newTarget(t)
	e := newEngine("a", "b", "c")
	ensure(t, e, tgt)
	for i := 0; i < 3; i++ {
		add(t, e, tgt, "Projects", "Reviewed PR")
	}

	res, err := e.UpdateEntry(tgt, ByText("Projects", "Reviewed PR", 1), "Reviewed PR #42")
	if err != nil {
		t.Fatalf("UpdateEntry() error = %v", err)
	}
	if res.Entry.ID != "b" || res.Entry.Position != 1 {
		t.Errorf("updated %+v, want b at 1", res.Entry)
	}
	want := []string{"Reviewed PR", "Reviewed PR #42", "Reviewed PR"}
	if diff := cmp.Diff(want, texts(t, e, tgt, "Projects")); diff != "" {
		t.Errorf("Projects (-want +got):\n%s", diff)
	}

	se, err := e.ReadSection(tgt, "Projects")
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, entry := range se.Entries {
		ids = append(ids, entry.ID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
}

func TestSelectorErrors(t *testing.T) {
	tgt := newTarget(t)
	e := newEngine("a")
	ensure(t, e, tgt)
	add(t, e, tgt, "Projects", "Reviewed PR")
	if _, err := e.DeleteEntry(tgt, ByID("a")); err != nil {
		t.Fatal(err)
	}
	add(t, e, tgt, "Projects", "Reviewed PR")

	tests := []struct {
		name string
		sel  Selector
		want *model.Error
	}{
		{"occurrence beyond matches", ByText("Projects", "Reviewed PR", 1), model.ErrEntryNotFound},
		{"no matching text", ByText("Projects", "Nope", 0), model.ErrEntryNotFound},
		{"negative occurrence", ByText("Projects", "Reviewed PR", -1), model.ErrInvalidInput},
		{"empty selector", Selector{}, model.ErrInvalidInput},
		{"text without section", Selector{OldText: "Reviewed PR"}, model.ErrInvalidInput},
		{"unknown id", ByID("missing"), model.ErrEntryNotFound},
		{"retired id", ByID("a"), model.ErrEntryNotFound},
		{"unknown section", ByText("Hobbies", "x", 0), model.ErrUnknownSection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.UpdateEntry(tgt, tt.sel, "changed")
			wantKind(t, err, tt.want)
			_, err = e.DeleteEntry(tgt, tt.sel)
			wantKind(t, err, tt.want)
		})
	}
}

func TestUpdateByIDDetectsStaleIndex(t *testing.T) {
	tgt := newTarget(t)
	e := newEngine("a", "b")
	ensure(t, e, tgt)
	add(t, e, tgt, "Projects", "Shipped v1")
	add(t, e, tgt, "Projects", "Shipped v2")

	editDocument(t, tgt.DocumentPath, "- Shipped v1", "- Shipped v1 (edited by hand)")
	before := readFile(t, tgt.DocumentPath)

	_, err := e.UpdateEntry(tgt, ByID("a"), "Shipped v1.1")
	wantKind(t, err, model.ErrStaleIndex)
	_, err = e.DeleteEntry(tgt, ByID("a"))
	wantKind(t, err, model.ErrStaleIndex)
	if after := readFile(t, tgt.DocumentPath); !bytes.Equal(before, after) {
		t.Error("document changed despite STALE_INDEX")
	}

	// The untouched entry still resolves after the external edit.
	if _, err := e.UpdateEntry(tgt, ByID("b"), "Shipped v2.1"); err != nil {
		t.Fatalf("UpdateEntry(b) error = %v", err)
	}

	se, err := e.ReadSection(tgt, "Projects")
	if err != nil {
		t.Fatal(err)
	}
	if se.Entries[0].ID != "" || se.Unindexed() != 1 {
		t.Errorf("edited bullet should be unindexed: %+v", se.Entries)
	}
}

func TestStaleIndexWhenSectionRemoved(t *testing.T) {
	tgt := newTarget(t)
	e := newEngine("a")
	ensure(t, e, tgt)
	add(t, e, tgt, "Company building", "Ran interviews")
	editDocument(t, tgt.DocumentPath, "## Company building", "## Company stuff")

	_, err := e.UpdateEntry(tgt, ByID("a"), "Ran more interviews")
	wantKind(t, err, model.ErrStaleIndex)

	outline, err := e.ReadOutline(tgt)
	if err != nil {
		t.Fatalf("ReadOutline() error = %v", err)
	}
	for _, se := range outline {
		if se.Path == "Company building" && !se.Missing {
			t.Error("Company building should be reported missing")
		}
	}
	_, err = e.ReadSection(tgt, "Company building")
	wantKind(t, err, model.ErrSectionNotFound)
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	tgt := newTarget(t)
	e := newEngine("a", "b", "c")
	ensure(t, e, tgt)
	add(t, e, tgt, "Goals/Goals for this year", "Lead a project")
	add(t, e, tgt, "Goals/Goals for this year", "Mentor someone")
	add(t, e, tgt, "Goals/Goals for next year", "Lead a project")

	res, err := e.DeleteEntry(tgt, ByID("a"))
	if err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	if res.Entry.Text != "Lead a project" || res.Entry.SectionPath != "Goals/Goals for this year" {
		t.Errorf("deleted %+v", res.Entry)
	}

	if diff := cmp.Diff([]string{"Mentor someone"}, texts(t, e, tgt, "Goals/Goals for this year")); diff != "" {
		t.Errorf("this year (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Lead a project"}, texts(t, e, tgt, "Goals/Goals for next year")); diff != "" {
		t.Errorf("next year (-want +got):\n%s", diff)
	}

	set, err := index.Load(tgt.IndexPath)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "c"}, set.IDs()); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
	if !set.IsRetired("a") {
		t.Error("a should be retired")
	}

	_, err = e.DeleteEntry(tgt, ByID("a"))
	wantKind(t, err, model.ErrEntryNotFound)
	_, err = e.UpdateEntry(tgt, ByID("a"), "again")
	wantKind(t, err, model.ErrEntryNotFound)
}

func TestUpdateAdoptsUnindexedBullet(t *testing.T) {
	tgt := newTarget(t)
	e := newEngine("a", "adopted")
	ensure(t, e, tgt)
	add(t, e, tgt, "What you learned", "Go generics")
	editDocument(t, tgt.DocumentPath, "- Go generics", "- Go generics\n- Written by hand")

	res, err := e.UpdateEntry(tgt, ByText("What you learned", "Written by hand", 0), "Written by hand, then indexed")
	if err != nil {
		t.Fatalf("UpdateEntry() error = %v", err)
	}
	if !res.Adopted || res.Entry.ID != "adopted" || res.Entry.CreatedAt == nil {
		t.Errorf("result = %+v", res)
	}

	se, err := e.ReadSection(tgt, "What you learned")
	if err != nil {
		t.Fatal(err)
	}
	if se.Unindexed() != 0 || se.Entries[1].ID != "adopted" {
		t.Errorf("entries = %+v", se.Entries)
	}
}

func TestDeleteUnindexedBulletByText(t *testing.T) {
	tgt := newTarget(t)
	e := newEngine()
	ensure(t, e, tgt)
	editDocument(t, tgt.DocumentPath, "### Talks\n", "### Talks\n\n- Lightning talk\n")

	res, err := e.DeleteEntry(tgt, ByText("Outside of work/Talks", "Lightning talk", 0))
	if err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	if res.Entry.ID != "" {
		t.Errorf("id = %q, want empty", res.Entry.ID)
	}
	if got := texts(t, e, tgt, "Outside of work/Talks"); len(got) != 0 {
		t.Errorf("Talks = %q", got)
	}
}

func TestIndexWriteFailureIsWarning(t *testing.T) {
	tgt := newTarget(t)
	e := newEngine()
	ensure(t, e, tgt)

	indexDir := filepath.Dir(tgt.IndexPath)
	if err := os.RemoveAll(indexDir); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(t.TempDir(), "gone", "nowhere"), indexDir); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	res, err := e.AddEntry(tgt, "Projects", "Survived", nil)
	if err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Code != model.WarnIndexWriteFailed {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if !strings.Contains(string(readFile(t, tgt.DocumentPath)), "- Survived") {
		t.Error("document should contain the new bullet")
	}
}

func TestCorruptIndexFailsLoudly(t *testing.T) {
	tgt := newTarget(t)
	e := newEngine()
	ensure(t, e, tgt)
	if err := os.WriteFile(tgt.IndexPath, []byte(`{"entries": [`), 0o644); err != nil {
		t.Fatal(err)
	}
	before := readFile(t, tgt.DocumentPath)

	_, err := e.AddEntry(tgt, "Projects", "x", nil)
	wantKind(t, err, model.ErrIndexCorrupt)
	_, err = e.ReadOutline(tgt)
	wantKind(t, err, model.ErrIndexCorrupt)

	if after := readFile(t, tgt.DocumentPath); !bytes.Equal(before, after) {
		t.Error("document changed despite corrupt index")
	}
	if got := readFile(t, tgt.IndexPath); string(got) != `{"entries": [` {
		t.Error("corrupt index was rewritten")
	}
}

func TestOperationsOnMissingDocument(t *testing.T) {
	tgt := newTarget(t)
	e := newEngine()

	_, err := e.ReadOutline(tgt)
	wantKind(t, err, model.ErrDocumentNotFound)
	_, err = e.AddEntry(tgt, "Projects", "x", nil)
	wantKind(t, err, model.ErrDocumentNotFound)
	_, err = e.UpdateEntry(tgt, ByID("a"), "x")
	wantKind(t, err, model.ErrDocumentNotFound)
}
