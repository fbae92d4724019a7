// Package document reads and edits the structural paragraphs of a brag
// document: section headings and the bullet entries beneath them.
//
// Positions are never cached. Every call rescans the document, because any
// structural edit shifts the bullets that follow it.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/aidanlsb/brag/internal/atomicfile"
	"github.com/aidanlsb/brag/internal/model"
	"github.com/aidanlsb/brag/internal/sections"
)

// End requests insertion after the last bullet of a section.
const End = -1

const defaultPrefix = "- "

// Document is an open brag document held in memory.
type Document struct {
	path   string
	src    []byte
	crlf   bool
	schema *sections.Schema
}

// SectionHandle identifies a section located in a document.
type SectionHandle struct {
	Section *sections.Descriptor
}

// Entry is one bullet of a section as it currently appears.
type Entry struct {
	Position int
	Text     string
}

// Open reads the document at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.Wrap(model.KindDocumentNotFound, err, "document not found at %s", path)
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	return FromBytes(path, data), nil
}

// FromBytes wraps document content that was read elsewhere.
func FromBytes(path string, data []byte) *Document {
	d := &Document{path: path, schema: sections.Default()}
	if bytes.Contains(data, []byte("\r\n")) {
		d.crlf = true
		data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	}
	d.src = data
	return d
}

// Path returns the file path of the document.
func (d *Document) Path() string { return d.path }

// Bytes returns the current content with the original line endings.
func (d *Document) Bytes() []byte {
	if d.crlf {
		return bytes.ReplaceAll(d.src, []byte("\n"), []byte("\r\n"))
	}
	return append([]byte(nil), d.src...)
}

// Save atomically replaces the file on disk with the current content.
func (d *Document) Save() error {
	return atomicfile.WriteFile(d.path, d.Bytes())
}

// Paragraphs returns the classified top-level blocks.
func (d *Document) Paragraphs() []Paragraph {
	return Scan(d.src)
}

// LocateSection finds the heading of a section.
func (d *Document) LocateSection(sectionPath string) (SectionHandle, error) {
	desc, err := d.schema.Resolve(sectionPath)
	if err != nil {
		return SectionHandle{}, err
	}
	h := SectionHandle{Section: desc}
	if _, err := locate(d.Paragraphs(), desc); err != nil {
		return SectionHandle{}, err
	}
	return h, nil
}

// ListBullets returns the bullets directly under the section heading,
// before any sub-heading, in document order.
func (d *Document) ListBullets(h SectionHandle) ([]Entry, error) {
	bullets, _, err := d.sectionBullets(h)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(bullets))
	for i, b := range bullets {
		out[i] = Entry{Position: i, Text: b.Text}
	}
	return out, nil
}

// InsertBullet inserts a bullet at position, shifting later bullets down.
// Position End, or the current bullet count, appends after the last bullet.
func (d *Document) InsertBullet(h SectionHandle, position int, text string) error {
	text, err := ValidateText(text)
	if err != nil {
		return err
	}
	bullets, region, err := d.sectionBullets(h)
	if err != nil {
		return err
	}
	if position == End {
		position = len(bullets)
	}
	if position < 0 || position > len(bullets) {
		return model.Errorf(model.KindPositionOutOfRange,
			"position %d out of range for section %q with %d entries", position, h.Section.Path, len(bullets))
	}

	lines := splitLines(string(d.src))
	var at int
	var insert []string
	switch {
	case position < len(bullets):
		b := bullets[position]
		at = b.StartLine
		insert = []string{b.Prefix + text}
	case len(bullets) > 0:
		b := bullets[len(bullets)-1]
		at = b.EndLine + 1
		insert = []string{b.Prefix + text}
	default:
		at = lastContentLine(lines, region.headingLine, region.endLine) + 1
		insert = []string{"", defaultPrefix + text}
		if at < len(lines) && strings.TrimSpace(lines[at]) != "" {
			insert = append(insert, "")
		}
	}

	lines = spliceLines(lines, at, 0, insert)
	return d.commit(lines, h, position, text)
}

// SetBulletText replaces the text of the bullet at position, keeping its
// marker and any nested content.
func (d *Document) SetBulletText(h SectionHandle, position int, text string) error {
	text, err := ValidateText(text)
	if err != nil {
		return err
	}
	bullets, _, err := d.sectionBullets(h)
	if err != nil {
		return err
	}
	if err := checkPosition(h, position, len(bullets)); err != nil {
		return err
	}

	b := bullets[position]
	lines := splitLines(string(d.src))
	lines = spliceLines(lines, b.StartLine, b.TextEndLine-b.StartLine+1, []string{b.Prefix + text})
	return d.commit(lines, h, position, text)
}

// RemoveBullet deletes the bullet at position including nested content.
func (d *Document) RemoveBullet(h SectionHandle, position int) error {
	bullets, _, err := d.sectionBullets(h)
	if err != nil {
		return err
	}
	if err := checkPosition(h, position, len(bullets)); err != nil {
		return err
	}

	b := bullets[position]
	lines := splitLines(string(d.src))
	lines = spliceLines(lines, b.StartLine, b.EndLine-b.StartLine+1, nil)
	// Collapse the blank line pair left behind by removing a separated item.
	if b.StartLine > 0 && b.StartLine < len(lines) &&
		strings.TrimSpace(lines[b.StartLine-1]) == "" && strings.TrimSpace(lines[b.StartLine]) == "" {
		lines = spliceLines(lines, b.StartLine, 1, nil)
	}
	d.src = []byte(strings.Join(lines, "\n"))
	return nil
}

// ValidateText normalizes entry text and rejects empty, multi-line or
// non-UTF-8 text.
func ValidateText(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", model.Errorf(model.KindInvalidInput, "entry text is not valid UTF-8")
	}
	if strings.ContainsAny(text, "\r\n") {
		return "", model.Errorf(model.KindInvalidInput, "entry text cannot contain line breaks")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", model.Errorf(model.KindInvalidInput, "entry text cannot be empty")
	}
	return text, nil
}

// commit applies edited lines and verifies that the bullet at position reads
// back as text. Text that markdown would parse as something other than a
// plain bullet (a heading, a rule, a nested list) is rejected.
func (d *Document) commit(lines []string, h SectionHandle, position int, text string) error {
	prev := d.src
	d.src = []byte(strings.Join(lines, "\n"))

	bullets, _, err := d.sectionBullets(h)
	if err == nil && (position >= len(bullets) || bullets[position].Text != text) {
		err = model.Errorf(model.KindInvalidInput, "entry text %q does not read back as a plain bullet", text)
	}
	if err != nil {
		d.src = prev
		return err
	}
	return nil
}

type sectionRegion struct {
	headingLine int
	endLine     int // exclusive: first line of the next heading, or line count
}

func (d *Document) sectionBullets(h SectionHandle) ([]Paragraph, sectionRegion, error) {
	if h.Section == nil {
		return nil, sectionRegion{}, model.Errorf(model.KindSectionNotFound, "no section given")
	}
	paras := d.Paragraphs()
	idx, err := locate(paras, h.Section)
	if err != nil {
		return nil, sectionRegion{}, err
	}

	region := sectionRegion{headingLine: paras[idx].StartLine, endLine: len(splitLines(string(d.src)))}
	var bullets []Paragraph
	for _, p := range paras[idx+1:] {
		if p.Kind == Heading {
			region.endLine = p.StartLine
			break
		}
		if p.Kind == Bullet {
			bullets = append(bullets, p)
		}
	}
	return bullets, region, nil
}

// locate returns the index of the section's heading paragraph.
// A nested section must appear inside its parent's scope, at a deeper level.
func locate(paras []Paragraph, desc *sections.Descriptor) (int, error) {
	if desc.Parent == nil {
		for i, p := range paras {
			if p.Kind == Heading && p.Text == desc.Heading {
				return i, nil
			}
		}
		return -1, model.Errorf(model.KindSectionNotFound, "section %q not found in document", desc.Path)
	}

	parent, err := locate(paras, desc.Parent)
	if err != nil {
		return -1, model.Errorf(model.KindSectionNotFound,
			"section %q not found in document: parent %q is missing", desc.Path, desc.Parent.Path)
	}
	parentLevel := paras[parent].Level
	for i := parent + 1; i < len(paras); i++ {
		p := paras[i]
		if p.Kind != Heading {
			continue
		}
		if p.Level <= parentLevel {
			break
		}
		if p.Text == desc.Heading {
			return i, nil
		}
	}
	return -1, model.Errorf(model.KindSectionNotFound, "section %q not found in document", desc.Path)
}

func checkPosition(h SectionHandle, position, count int) error {
	if position < 0 || position >= count {
		return model.Errorf(model.KindPositionOutOfRange,
			"position %d out of range for section %q with %d entries", position, h.Section.Path, count)
	}
	return nil
}

// lastContentLine returns the last non-blank line in [from, to).
func lastContentLine(lines []string, from, to int) int {
	if to > len(lines) {
		to = len(lines)
	}
	for i := to - 1; i > from; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return from
}

func spliceLines(lines []string, at, remove int, insert []string) []string {
	out := make([]string, 0, len(lines)-remove+len(insert))
	out = append(out, lines[:at]...)
	out = append(out, insert...)
	out = append(out, lines[at+remove:]...)
	return out
}
