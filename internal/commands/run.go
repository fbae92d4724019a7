package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aidanlsb/brag/internal/audit"
	"github.com/aidanlsb/brag/internal/brag"
	"github.com/aidanlsb/brag/internal/model"
	"github.com/aidanlsb/brag/internal/reconcile"
)

// Input is a parsed invocation. Args are keyed by ArgMeta.Name and flags by
// FlagMeta.Name (hyphenated).
type Input struct {
	Args  map[string]string
	Flags map[string]interface{}
}

// Output is the result of a command.
type Output struct {
	Data     interface{}
	Warnings []model.Warning
}

// RunFunc executes a command against one document.
type RunFunc func(svc *brag.Service, ref brag.DocumentRef, in Input) (Output, error)

// Execute runs the named command.
func Execute(svc *brag.Service, ref brag.DocumentRef, name string, in Input) (Output, error) {
	meta, ok := GetCommandMeta(name)
	if !ok || meta.Run == nil {
		return Output{}, model.Errorf(model.KindInvalidInput, "unknown command %q", name)
	}
	for _, arg := range meta.Args {
		if arg.Required && in.String(arg.Name) == "" {
			return Output{}, model.Errorf(model.KindInvalidInput, "%s is required", arg.Name)
		}
	}
	return meta.Run(svc, ref, in)
}

// String returns an argument or string flag, or "".
func (in Input) String(name string) string {
	if v, ok := in.Args[name]; ok {
		return v
	}
	if v, ok := in.Flags[name].(string); ok {
		return v
	}
	return ""
}

// Bool returns a boolean flag.
func (in Input) Bool(name string) bool {
	switch v := in.Flags[name].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// Int returns an integer flag and whether it was given.
func (in Input) Int(name string) (int, bool, error) {
	switch v := in.Flags[name].(type) {
	case nil:
		return 0, false, nil
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		if v != float64(int(v)) {
			return 0, true, model.Errorf(model.KindInvalidInput, "%s must be an integer", name)
		}
		return int(v), true, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, true, model.Errorf(model.KindInvalidInput, "%s must be an integer, got %q", name, v)
		}
		return n, true, nil
	}
	return 0, true, model.Errorf(model.KindInvalidInput, "%s must be an integer", name)
}

// Strings returns a repeatable flag.
func (in Input) Strings(name string) []string {
	switch v := in.Flags[name].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}

func runEnsure(svc *brag.Service, ref brag.DocumentRef, _ Input) (Output, error) {
	res, err := svc.EnsureDocument(ref)
	if err != nil {
		return Output{}, err
	}
	return Output{Data: res, Warnings: res.Warnings}, nil
}

func runOutline(svc *brag.Service, ref brag.DocumentRef, _ Input) (Output, error) {
	outline, err := svc.GetOutline(ref)
	if err != nil {
		return Output{}, err
	}
	return Output{Data: outline}, nil
}

func runSection(svc *brag.Service, ref brag.DocumentRef, in Input) (Output, error) {
	section, err := svc.GetSection(ref, in.String("section_path"))
	if err != nil {
		return Output{}, err
	}
	return Output{Data: section}, nil
}

func runAdd(svc *brag.Service, ref brag.DocumentRef, in Input) (Output, error) {
	req := brag.AddRequest{
		SectionPath: in.String("section_path"),
		Text:        in.String("text"),
	}
	pos, ok, err := in.Int("position")
	if err != nil {
		return Output{}, err
	}
	if ok {
		req.Position = &pos
	}
	res, err := svc.AddEntry(ref, req)
	if err != nil {
		return Output{}, err
	}
	return Output{Data: res, Warnings: res.Warnings}, nil
}

func selector(in Input) (reconcile.Selector, error) {
	occ, _, err := in.Int("occurrence-index")
	if err != nil {
		return reconcile.Selector{}, err
	}
	return reconcile.Selector{
		EntryID:     in.String("entry-id"),
		SectionPath: in.String("section-path"),
		OldText:     in.String("old-text"),
		Occurrence:  occ,
	}, nil
}

func runUpdate(svc *brag.Service, ref brag.DocumentRef, in Input) (Output, error) {
	sel, err := selector(in)
	if err != nil {
		return Output{}, err
	}
	res, err := svc.UpdateEntry(ref, sel, in.String("new_text"))
	if err != nil {
		return Output{}, err
	}
	return Output{Data: res, Warnings: res.Warnings}, nil
}

func runDelete(svc *brag.Service, ref brag.DocumentRef, in Input) (Output, error) {
	sel, err := selector(in)
	if err != nil {
		return Output{}, err
	}
	res, err := svc.DeleteEntry(ref, sel)
	if err != nil {
		return Output{}, err
	}
	return Output{Data: res, Warnings: res.Warnings}, nil
}

func runRepair(svc *brag.Service, ref brag.DocumentRef, in Input) (Output, error) {
	res, err := svc.Repair(ref, in.Bool("prune"))
	if err != nil {
		return Output{}, err
	}
	return Output{Data: res}, nil
}

// HistoryData is the payload of the history command.
type HistoryData struct {
	Changes []audit.Entry `json:"changes"`
}

func runHistory(svc *brag.Service, ref brag.DocumentRef, in Input) (Output, error) {
	limit, ok, err := in.Int("limit")
	if err != nil {
		return Output{}, err
	}
	if !ok {
		limit = 20
	}
	if limit < 0 {
		return Output{}, model.Errorf(model.KindInvalidInput, "limit must not be negative")
	}
	f := audit.Filter{EntryID: in.String("entry-id"), Limit: limit}
	for _, op := range in.Strings("op") {
		op = strings.ToLower(op)
		if !audit.ValidOperation(op) {
			return Output{}, model.Errorf(model.KindInvalidInput, "unknown operation %q", op)
		}
		f.Operations = append(f.Operations, audit.Operation(op))
	}
	changes, err := svc.History(ref, f)
	if err != nil {
		return Output{}, err
	}
	return Output{Data: HistoryData{Changes: changes}}, nil
}
