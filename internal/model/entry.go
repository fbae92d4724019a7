// Package model defines canonical types for brag document concepts.
// These types are shared by the reconciliation engine, the operation facade,
// CLI output, and MCP tools.
package model

import (
	"encoding/json"
	"time"
)

// Entry is a single bullet in a brag document with a durable identity.
type Entry struct {
	// ID is the opaque entry identifier. Empty when the bullet has no
	// matching index record (drift).
	ID string `json:"entry_id"`

	// SectionPath is the slash-delimited section address, e.g. "Outside of work/Articles".
	SectionPath string `json:"section_path"`

	// Text is the bullet text as written in the document.
	Text string `json:"text"`

	// Position is the 0-based index among the bullets of the section.
	Position int `json:"position"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// MarshalJSON writes a null entry_id for bullets without an index record.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	var id *string
	if e.ID != "" {
		id = &e.ID
	}
	return json.Marshal(struct {
		ID *string `json:"entry_id"`
		plain
	}{ID: id, plain: plain(e)})
}

// Indexed reports whether the entry is backed by an index record.
func (e Entry) Indexed() bool { return e.ID != "" }

// SectionEntries is one section of a document outline.
type SectionEntries struct {
	Path    string  `json:"section_path"`
	Heading string  `json:"heading"`
	Slug    string  `json:"slug"`
	Nested  bool    `json:"nested"`
	Missing bool    `json:"missing,omitempty"` // heading not found in the document
	Entries []Entry `json:"entries"`
}

// Unindexed counts entries without an identifier.
func (s SectionEntries) Unindexed() int {
	n := 0
	for _, e := range s.Entries {
		if !e.Indexed() {
			n++
		}
	}
	return n
}
