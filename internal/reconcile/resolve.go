package reconcile

import (
	"errors"
	"strings"

	"github.com/aidanlsb/brag/internal/document"
	"github.com/aidanlsb/brag/internal/index"
	"github.com/aidanlsb/brag/internal/model"
	"github.com/aidanlsb/brag/internal/sections"
)

// Selector picks the bullet an update or delete applies to: either by entry
// id, or by section and exact text. Occurrence disambiguates identical texts
// and counts from zero.
type Selector struct {
	EntryID     string
	SectionPath string
	OldText     string
	Occurrence  int
}

// ByID selects an entry by its id.
func ByID(id string) Selector { return Selector{EntryID: id} }

// ByText selects the occurrence-th bullet of a section with the given text.
func ByText(sectionPath, text string, occurrence int) Selector {
	return Selector{SectionPath: sectionPath, OldText: text, Occurrence: occurrence}
}

// location is a bullet found by a strategy.
type location struct {
	handle   document.SectionHandle
	position int
	text     string
	recordID string // empty when no record matches the bullet
}

// errNotApplicable means a strategy cannot use the selector; the next one is tried.
var errNotApplicable = errors.New("strategy not applicable")

type strategy func(doc *document.Document, set *index.RecordSet, sel Selector) (location, error)

// strategies are tried in order. The first that applies decides the outcome.
var strategies = []strategy{byID, byText}

func resolve(doc *document.Document, set *index.RecordSet, sel Selector) (location, error) {
	if sel.Occurrence < 0 {
		return location{}, model.Errorf(model.KindInvalidInput, "occurrence index %d is negative", sel.Occurrence)
	}
	for _, try := range strategies {
		loc, err := try(doc, set, sel)
		if errors.Is(err, errNotApplicable) {
			continue
		}
		return loc, err
	}
	return location{}, model.Errorf(model.KindInvalidInput, "either an entry id or a section path and old text is required")
}

func byID(doc *document.Document, set *index.RecordSet, sel Selector) (location, error) {
	id := strings.TrimSpace(sel.EntryID)
	if id == "" {
		return location{}, errNotApplicable
	}
	rec, ok := set.Find(id)
	if !ok {
		if set.IsRetired(id) {
			return location{}, model.Errorf(model.KindEntryNotFound, "entry %s was deleted", id)
		}
		return location{}, model.Errorf(model.KindEntryNotFound, "no entry with id %s", id)
	}

	h, err := doc.LocateSection(rec.SectionPath)
	if errors.Is(err, model.ErrSectionNotFound) {
		return location{}, model.Wrap(model.KindStaleIndex, err, "entry %s belongs to a section that is no longer in the document", id)
	}
	if err != nil {
		return location{}, err
	}
	bullets, err := doc.ListBullets(h)
	if err != nil {
		return location{}, err
	}
	ids := matchIDs(bullets, set.InSection(rec.SectionPath))
	for i, b := range bullets {
		if ids[i] == id {
			return location{handle: h, position: b.Position, text: b.Text, recordID: id}, nil
		}
	}
	return location{}, model.Errorf(model.KindStaleIndex,
		"entry %s was last seen as %q in %s, but no bullet has that text anymore", id, rec.Text, rec.SectionPath)
}

func byText(doc *document.Document, set *index.RecordSet, sel Selector) (location, error) {
	oldText := strings.TrimSpace(sel.OldText)
	if strings.TrimSpace(sel.SectionPath) == "" || oldText == "" {
		return location{}, errNotApplicable
	}
	h, err := doc.LocateSection(sel.SectionPath)
	if err != nil {
		return location{}, err
	}
	bullets, err := doc.ListBullets(h)
	if err != nil {
		return location{}, err
	}
	ids := matchIDs(bullets, set.InSection(h.Section.Path))

	seen := 0
	for i, b := range bullets {
		if b.Text != oldText {
			continue
		}
		if seen == sel.Occurrence {
			return location{handle: h, position: b.Position, text: b.Text, recordID: ids[i]}, nil
		}
		seen++
	}
	if seen == 0 {
		return location{}, model.Errorf(model.KindEntryNotFound, "no bullet in %s has text %q", h.Section.Path, oldText)
	}
	return location{}, model.Errorf(model.KindEntryNotFound,
		"occurrence %d requested but %s has only %d bullet(s) with text %q", sel.Occurrence, h.Section.Path, seen, oldText)
}

// matchIDs pairs bullets with records by exact text. Bullets are visited in
// document order and each takes the first unused record with the same text,
// in index insertion order. Unmatched bullets get an empty id.
func matchIDs(bullets []document.Entry, records []index.Record) []string {
	used := make([]bool, len(records))
	ids := make([]string, len(bullets))
	for i, b := range bullets {
		for j, r := range records {
			if !used[j] && r.Text == b.Text {
				used[j] = true
				ids[i] = r.ID
				break
			}
		}
	}
	return ids
}

// resolveSection lists a section's bullets with ids attached.
func resolveSection(doc *document.Document, set *index.RecordSet, desc *sections.Descriptor) (model.SectionEntries, error) {
	se := model.SectionEntries{
		Path:    desc.Path,
		Heading: desc.Heading,
		Slug:    desc.Slug,
		Nested:  desc.IsNested(),
		Entries: []model.Entry{},
	}
	h, err := doc.LocateSection(desc.Path)
	if err != nil {
		return se, err
	}
	bullets, err := doc.ListBullets(h)
	if err != nil {
		return se, err
	}
	records := set.InSection(desc.Path)
	byID := make(map[string]index.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	ids := matchIDs(bullets, records)
	for i, b := range bullets {
		if ids[i] == "" {
			se.Entries = append(se.Entries, model.Entry{SectionPath: desc.Path, Text: b.Text, Position: b.Position})
			continue
		}
		r := byID[ids[i]]
		se.Entries = append(se.Entries, entryFor(r.ID, desc.Path, b.Text, b.Position, r.CreatedAt, r.UpdatedAt))
	}
	return se, nil
}
