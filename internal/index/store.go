// Package index persists the entry index of a brag document: one record per
// entry id, holding the section and last known text of the entry.
//
// The index is a hint cache. The document's bullets are authoritative and
// every lookup is re-validated against them by the caller.
package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aidanlsb/brag/internal/atomicfile"
	"github.com/aidanlsb/brag/internal/model"
	"github.com/aidanlsb/brag/internal/sections"
)

// Record is the index entry for one bullet.
type Record struct {
	ID          string
	SectionPath string
	Text        string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Extra holds unknown fields so they survive a load/save cycle.
	Extra map[string]json.RawMessage
}

type recordJSON struct {
	ID          string    `json:"entry_id"`
	SectionPath string    `json:"section_path"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var recordKeys = []string{"entry_id", "section_path", "text", "created_at", "updated_at"}

// RecordSet is the in-memory form of an index file.
type RecordSet struct {
	DocumentName string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	records []*Record // insertion order
	byID    map[string]*Record
	retired []string
	isGone  map[string]bool
	extra   map[string]json.RawMessage
}

type setJSON struct {
	DocumentName string          `json:"document_name,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Entries      json.RawMessage `json:"entries"`
	RetiredIDs   []string        `json:"retired_ids,omitempty"`
}

var setKeys = []string{"document_name", "created_at", "updated_at", "entries", "retired_ids"}

// New returns an empty record set.
func New(documentName string, now time.Time) *RecordSet {
	return &RecordSet{
		DocumentName: documentName,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
		byID:         make(map[string]*Record),
		isGone:       make(map[string]bool),
	}
}

// DocumentName derives the index's document name from its file path.
func DocumentName(indexPath string) string {
	base := filepath.Base(indexPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads the index at path. A missing file yields an empty set.
// A file that exists but cannot be parsed or validated is INDEX_CORRUPT.
func Load(path string) (*RecordSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(DocumentName(path), time.Now()), nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}

	set, err := Parse(data)
	if err != nil {
		return nil, model.Wrap(model.KindIndexCorrupt, err, "index file %s is corrupt", path)
	}
	return set, nil
}

// Exists reports whether an index file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Save writes the full record set to path atomically.
func Save(path string, set *RecordSet) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	data = append(data, '\n')
	if err := atomicfile.WriteFile(path, data); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}

// Parse decodes and validates index file content.
func Parse(data []byte) (*RecordSet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("index file is empty")
	}
	set := New("", time.Time{})
	if err := json.Unmarshal(data, set); err != nil {
		return nil, err
	}
	return set, nil
}

// UnmarshalJSON decodes an index file. Both the record list form and the
// legacy form where entries is an object keyed by id are accepted.
func (s *RecordSet) UnmarshalJSON(data []byte) error {
	var known setJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*s = *New(known.DocumentName, time.Time{})
	s.CreatedAt = known.CreatedAt
	s.UpdatedAt = known.UpdatedAt
	s.extra = withoutKeys(all, setKeys)

	records, err := decodeEntries(known.Entries)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := s.validate(r); err != nil {
			return err
		}
		s.records = append(s.records, r)
		s.byID[r.ID] = r
	}
	for _, id := range known.RetiredIDs {
		if id == "" || s.isGone[id] {
			continue
		}
		if _, live := s.byID[id]; live {
			return fmt.Errorf("entry %q is both live and retired", id)
		}
		s.retired = append(s.retired, id)
		s.isGone[id] = true
	}
	return nil
}

func decodeEntries(raw json.RawMessage) ([]*Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var records []*Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode entries: %w", err)
		}
		return records, nil
	case '{':
		var byID map[string]*Record
		if err := json.Unmarshal(trimmed, &byID); err != nil {
			return nil, fmt.Errorf("decode entries: %w", err)
		}
		records := make([]*Record, 0, len(byID))
		for id, r := range byID {
			if r == nil {
				return nil, fmt.Errorf("entry %q is null", id)
			}
			if r.ID == "" {
				r.ID = id
			}
			if r.ID != id {
				return nil, fmt.Errorf("entry key %q does not match entry_id %q", id, r.ID)
			}
			records = append(records, r)
		}
		sort.SliceStable(records, func(i, j int) bool {
			if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
				return records[i].CreatedAt.Before(records[j].CreatedAt)
			}
			return records[i].ID < records[j].ID
		})
		return records, nil
	default:
		return nil, errors.New("entries must be a list or an object")
	}
}

func (s *RecordSet) validate(r *Record) error {
	if r == nil {
		return errors.New("null entry")
	}
	if r.ID == "" {
		return errors.New("entry without entry_id")
	}
	if _, dup := s.byID[r.ID]; dup {
		return fmt.Errorf("duplicate entry_id %q", r.ID)
	}
	desc, err := sections.Resolve(r.SectionPath)
	if err != nil {
		return fmt.Errorf("entry %q: %w", r.ID, err)
	}
	r.SectionPath = desc.Path
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("entry %q has empty text", r.ID)
	}
	return nil
}

// MarshalJSON encodes the set with known fields first and unknown fields kept.
func (s *RecordSet) MarshalJSON() ([]byte, error) {
	records := s.records
	if records == nil {
		records = []*Record{}
	}
	entries, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	known, err := json.Marshal(setJSON{
		DocumentName: s.DocumentName,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Entries:      entries,
		RetiredIDs:   s.retired,
	})
	if err != nil {
		return nil, err
	}
	return mergeExtra(known, s.extra)
}

// UnmarshalJSON decodes a record, keeping unknown fields in Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var known recordJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	*r = Record{
		ID:          known.ID,
		SectionPath: known.SectionPath,
		Text:        known.Text,
		CreatedAt:   known.CreatedAt,
		UpdatedAt:   known.UpdatedAt,
		Extra:       withoutKeys(all, recordKeys),
	}
	return nil
}

// MarshalJSON encodes a record, appending any preserved unknown fields.
func (r *Record) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(recordJSON{
		ID:          r.ID,
		SectionPath: r.SectionPath,
		Text:        r.Text,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	return mergeExtra(known, r.Extra)
}

func withoutKeys(all map[string]json.RawMessage, keys []string) map[string]json.RawMessage {
	for _, k := range keys {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

// mergeExtra appends extra fields to an encoded JSON object.
func mergeExtra(object []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return object, nil
	}
	more, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(object)+len(more))
	out = append(out, object[:len(object)-1]...)
	out = append(out, ',')
	out = append(out, more[1:]...)
	return out, nil
}
