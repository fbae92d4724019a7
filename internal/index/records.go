package index

import (
	"encoding/json"
	"time"
)

// Len returns the number of live records.
func (s *RecordSet) Len() int { return len(s.records) }

// Find returns a copy of the record with the given id.
func (s *RecordSet) Find(id string) (Record, bool) {
	r, ok := s.byID[id]
	if !ok {
		return Record{}, false
	}
	return r.clone(), true
}

// Has reports whether id belongs to a live record.
func (s *RecordSet) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// IsRetired reports whether id belonged to a deleted entry.
func (s *RecordSet) IsRetired(id string) bool { return s.isGone[id] }

// Known reports whether id is live or retired. New ids must not be known.
func (s *RecordSet) Known(id string) bool { return s.Has(id) || s.IsRetired(id) }

// IDs returns live ids in insertion order.
func (s *RecordSet) IDs() []string {
	ids := make([]string, 0, len(s.records))
	for _, r := range s.records {
		ids = append(ids, r.ID)
	}
	return ids
}

// InSection returns the records of one section in insertion order.
func (s *RecordSet) InSection(sectionPath string) []Record {
	var out []Record
	for _, r := range s.records {
		if r.SectionPath == sectionPath {
			out = append(out, r.clone())
		}
	}
	return out
}

// FindByText returns ids of records in the section whose text matches
// exactly, in insertion order.
func (s *RecordSet) FindByText(sectionPath, text string) []string {
	var ids []string
	for _, r := range s.records {
		if r.SectionPath == sectionPath && r.Text == text {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Upsert inserts a record or updates an existing one in place. An existing
// record keeps its position and its created_at when created is zero.
func (s *RecordSet) Upsert(id, sectionPath, text string, created, updated time.Time) {
	if r, ok := s.byID[id]; ok {
		r.SectionPath = sectionPath
		r.Text = text
		if !created.IsZero() {
			r.CreatedAt = created.UTC()
		}
		r.UpdatedAt = updated.UTC()
		return
	}
	r := &Record{
		ID:          id,
		SectionPath: sectionPath,
		Text:        text,
		CreatedAt:   created.UTC(),
		UpdatedAt:   updated.UTC(),
	}
	s.records = append(s.records, r)
	s.byID[id] = r
}

// Remove deletes the record and retires its id. It reports whether a record
// was present.
func (s *RecordSet) Remove(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
	if !s.isGone[id] {
		s.retired = append(s.retired, id)
		s.isGone[id] = true
	}
	return true
}

// Touch records a modification time on the set.
func (s *RecordSet) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = s.UpdatedAt
	}
}

func (r *Record) clone() Record {
	c := *r
	if r.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = v
		}
	}
	return c
}
