// Package reconcile keeps the entry index of a brag document consistent with
// the bullets actually present in the document.
//
// The document is authoritative. Index records are hints that are matched
// against the current bullet text on every call; nothing positional is cached
// between calls.
package reconcile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aidanlsb/brag/internal/document"
	"github.com/aidanlsb/brag/internal/index"
	"github.com/aidanlsb/brag/internal/model"
	"github.com/aidanlsb/brag/internal/sections"
)

// maxIDAttempts bounds how many fresh ids are drawn before ID_COLLISION is
// surfaced.
const maxIDAttempts = 8

// Status reports what EnsureExists did.
type Status string

const (
	StatusCreated Status = "created"
	StatusExists  Status = "exists"
)

// Target names one document and its companion files.
type Target struct {
	DocumentPath string
	IndexPath    string
	TemplatePath string
	FullName     string
	Year         int
}

// Engine performs reconciled reads and edits of brag documents.
// The zero value is usable.
type Engine struct {
	IDs    func() string
	Now    func() time.Time
	Logger *zap.Logger
}

// New returns an engine with random UUID ids and wall-clock timestamps.
func New(logger *zap.Logger) *Engine {
	return &Engine{IDs: uuid.NewString, Now: time.Now, Logger: logger}
}

// Result is the outcome of a single-entry mutation.
type Result struct {
	Entry    model.Entry     `json:"entry"`
	OldText  string          `json:"old_text,omitempty"` // updates: text before the change
	Adopted  bool            `json:"adopted,omitempty"`
	Warnings []model.Warning `json:"-"`
}

// EnsureResult is the outcome of EnsureExists.
type EnsureResult struct {
	Status   Status          `json:"status"`
	Path     string          `json:"path"`
	Warnings []model.Warning `json:"-"`
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

func (e *Engine) nextID() string {
	if e.IDs == nil {
		return uuid.NewString()
	}
	return e.IDs()
}

// EnsureExists creates the document from its template when it does not
// exist yet. An existing document is left untouched; only a missing index
// file is created next to it.
func (e *Engine) EnsureExists(t Target) (EnsureResult, error) {
	log := e.logger().With(zap.String("document", t.DocumentPath))
	res := EnsureResult{Path: t.DocumentPath}

	_, err := os.Stat(t.DocumentPath)
	switch {
	case err == nil:
		res.Status = StatusExists
		if !index.Exists(t.IndexPath) {
			if werr := e.writeEmptyIndex(t); werr != nil {
				return res, werr
			}
			log.Info("created missing index", zap.String("index", t.IndexPath))
			res.Warnings = append(res.Warnings, model.Warning{
				Code:    model.WarnIndexCreated,
				Message: "index file was missing and has been created; run repair to assign ids to existing bullets",
			})
		}
		return res, nil
	case !errors.Is(err, fs.ErrNotExist):
		return res, fmt.Errorf("stat document: %w", err)
	}

	err = document.CreateFromTemplate(t.TemplatePath, t.DocumentPath, document.Substitutions{
		FullName: t.FullName,
		Year:     t.Year,
		Created:  e.now(),
	})
	if errors.Is(err, model.ErrDestinationExists) {
		// Created concurrently by another process.
		res.Status = StatusExists
		return res, nil
	}
	if err != nil {
		return res, err
	}
	log.Info("created document", zap.String("template", t.TemplatePath))

	res.Status = StatusCreated
	if err := e.writeEmptyIndex(t); err != nil {
		log.Warn("index write failed", zap.Error(err))
		res.Warnings = append(res.Warnings, indexWriteWarning(err))
	}
	return res, nil
}

func (e *Engine) writeEmptyIndex(t Target) error {
	return index.Save(t.IndexPath, index.New(index.DocumentName(t.IndexPath), e.now()))
}

// ReadOutline returns every schema section with its resolved entries.
// Sections whose heading is absent are reported as missing.
func (e *Engine) ReadOutline(t Target) ([]model.SectionEntries, error) {
	doc, set, err := e.load(t)
	if err != nil {
		return nil, err
	}

	var out []model.SectionEntries
	for _, desc := range sections.All() {
		se, err := resolveSection(doc, set, desc)
		if errors.Is(err, model.ErrSectionNotFound) {
			se.Missing = true
			e.logger().Debug("section missing from document", zap.String("section", desc.Path))
		} else if err != nil {
			return nil, err
		}
		out = append(out, se)
	}
	return out, nil
}

// ReadSection returns the entries of one section.
func (e *Engine) ReadSection(t Target, sectionPath string) (model.SectionEntries, error) {
	desc, err := sections.Resolve(sectionPath)
	if err != nil {
		return model.SectionEntries{}, err
	}
	doc, set, err := e.load(t)
	if err != nil {
		return model.SectionEntries{}, err
	}
	return resolveSection(doc, set, desc)
}

// AddEntry inserts a bullet with a fresh id. A nil position appends.
func (e *Engine) AddEntry(t Target, sectionPath, text string, position *int) (Result, error) {
	text, err := document.ValidateText(text)
	if err != nil {
		return Result{}, err
	}
	pos := document.End
	if position != nil {
		pos = *position
		if pos < 0 {
			return Result{}, model.Errorf(model.KindPositionOutOfRange, "position %d is negative", pos)
		}
	}

	doc, set, err := e.load(t)
	if err != nil {
		return Result{}, err
	}
	h, err := doc.LocateSection(sectionPath)
	if err != nil {
		return Result{}, err
	}
	before, err := doc.ListBullets(h)
	if err != nil {
		return Result{}, err
	}
	if pos == document.End {
		pos = len(before)
	}

	id, err := e.freshID(set)
	if err != nil {
		return Result{}, err
	}
	if err := doc.InsertBullet(h, pos, text); err != nil {
		return Result{}, err
	}
	if err := doc.Save(); err != nil {
		return Result{}, fmt.Errorf("save document: %w", err)
	}

	now := e.now()
	set.Upsert(id, h.Section.Path, text, now, now)
	res := Result{Entry: entryFor(id, h.Section.Path, text, pos, now, now)}
	res.Warnings = e.saveIndex(t, set)

	e.logger().Info("added entry",
		zap.String("entry_id", id),
		zap.String("section", h.Section.Path),
		zap.Int("position", pos))
	return res, nil
}

// UpdateEntry replaces the text of the selected bullet.
func (e *Engine) UpdateEntry(t Target, sel Selector, newText string) (Result, error) {
	newText, err := document.ValidateText(newText)
	if err != nil {
		return Result{}, err
	}
	doc, set, err := e.load(t)
	if err != nil {
		return Result{}, err
	}
	loc, err := resolve(doc, set, sel)
	if err != nil {
		return Result{}, err
	}

	res := Result{OldText: loc.text}
	id := loc.recordID
	if id == "" {
		// A bullet without a record gets one now.
		id, err = e.freshID(set)
		if err != nil {
			return Result{}, err
		}
		res.Adopted = true
	}

	if err := doc.SetBulletText(loc.handle, loc.position, newText); err != nil {
		return Result{}, err
	}
	if err := doc.Save(); err != nil {
		return Result{}, fmt.Errorf("save document: %w", err)
	}

	now := e.now()
	sectionPath := loc.handle.Section.Path
	created := time.Time{}
	if res.Adopted {
		created = now
	}
	set.Upsert(id, sectionPath, newText, created, now)
	rec, _ := set.Find(id)
	res.Entry = entryFor(id, sectionPath, newText, loc.position, rec.CreatedAt, rec.UpdatedAt)
	res.Warnings = e.saveIndex(t, set)

	e.logger().Info("updated entry",
		zap.String("entry_id", id),
		zap.String("section", sectionPath),
		zap.Bool("adopted", res.Adopted))
	return res, nil
}

// DeleteEntry removes the selected bullet and retires its id.
func (e *Engine) DeleteEntry(t Target, sel Selector) (Result, error) {
	doc, set, err := e.load(t)
	if err != nil {
		return Result{}, err
	}
	loc, err := resolve(doc, set, sel)
	if err != nil {
		return Result{}, err
	}

	if err := doc.RemoveBullet(loc.handle, loc.position); err != nil {
		return Result{}, err
	}
	if err := doc.Save(); err != nil {
		return Result{}, fmt.Errorf("save document: %w", err)
	}

	res := Result{Entry: model.Entry{
		ID:          loc.recordID,
		SectionPath: loc.handle.Section.Path,
		Text:        loc.text,
		Position:    loc.position,
	}}
	if loc.recordID != "" {
		if rec, ok := set.Find(loc.recordID); ok {
			res.Entry = entryFor(rec.ID, rec.SectionPath, loc.text, loc.position, rec.CreatedAt, rec.UpdatedAt)
		}
		set.Remove(loc.recordID)
		res.Warnings = e.saveIndex(t, set)
	}

	e.logger().Info("deleted entry",
		zap.String("entry_id", loc.recordID),
		zap.String("section", loc.handle.Section.Path))
	return res, nil
}

// freshID draws ids until one is unknown to the set, live or retired.
func (e *Engine) freshID(set *index.RecordSet) (string, error) {
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id := e.nextID()
		if id != "" && !set.Known(id) {
			return id, nil
		}
		e.logger().Debug("entry id collision", zap.String("entry_id", id), zap.Int("attempt", attempt))
	}
	return "", model.Errorf(model.KindIDCollision, "could not generate an unused entry id after %d attempts", maxIDAttempts)
}

func (e *Engine) load(t Target) (*document.Document, *index.RecordSet, error) {
	doc, err := document.Open(t.DocumentPath)
	if err != nil {
		return nil, nil, err
	}
	set, err := index.Load(t.IndexPath)
	if err != nil {
		return nil, nil, err
	}
	return doc, set, nil
}

// saveIndex persists the set after the document has been written. A failure
// here leaves the document ahead of the index, which later reads reconcile,
// so it is reported as a warning.
func (e *Engine) saveIndex(t Target, set *index.RecordSet) []model.Warning {
	set.Touch(e.now())
	if err := index.Save(t.IndexPath, set); err != nil {
		e.logger().Warn("index write failed",
			zap.String("index", t.IndexPath),
			zap.Error(err))
		return []model.Warning{indexWriteWarning(err)}
	}
	return nil
}

func indexWriteWarning(err error) model.Warning {
	return model.Warning{
		Code:    model.WarnIndexWriteFailed,
		Message: fmt.Sprintf("document saved but index was not updated: %v", err),
	}
}

func entryFor(id, sectionPath, text string, position int, created, updated time.Time) model.Entry {
	e := model.Entry{ID: id, SectionPath: sectionPath, Text: text, Position: position}
	if !created.IsZero() {
		c := created
		e.CreatedAt = &c
	}
	if !updated.IsZero() {
		u := updated
		e.UpdatedAt = &u
	}
	return e
}
