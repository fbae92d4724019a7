// Package sections describes the fixed section hierarchy of a brag document
// and parses slash-delimited section paths against it.
package sections

import (
	_ "embed"
	"fmt"
	"strings"

	goslug "github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/brag/internal/model"
)

// Separator joins a parent and child section name in a section path.
const Separator = "/"

//go:embed sections.yaml
var schemaYAML []byte

// Descriptor describes one section of the schema.
type Descriptor struct {
	Path     string        // canonical section path, e.g. "Outside of work/Articles"
	Name     string        // last path component
	Heading  string        // heading text in the document
	Slug     string        // URL-friendly anchor
	Parent   *Descriptor   // nil for top-level sections
	Children []*Descriptor // nested sections, in document order
}

// IsNested reports whether the section lives under a top-level parent.
func (d *Descriptor) IsNested() bool { return d.Parent != nil }

type schemaFile struct {
	Sections []schemaNode `yaml:"sections"`
}

type schemaNode struct {
	Name     string       `yaml:"name"`
	Heading  string       `yaml:"heading,omitempty"`
	Children []schemaNode `yaml:"children,omitempty"`
}

// Schema is a loaded section hierarchy.
type Schema struct {
	top    []*Descriptor
	byPath map[string]*Descriptor
}

var defaultSchema = mustLoad(schemaYAML)

// Default returns the built-in schema.
func Default() *Schema { return defaultSchema }

// Resolve is shorthand for Default().Resolve.
func Resolve(sectionPath string) (*Descriptor, error) {
	return defaultSchema.Resolve(sectionPath)
}

// All is shorthand for Default().All.
func All() []*Descriptor { return defaultSchema.All() }

func mustLoad(data []byte) *Schema {
	s, err := Load(data)
	if err != nil {
		panic(fmt.Sprintf("sections: invalid embedded schema: %v", err))
	}
	return s
}

// Load parses a schema definition.
func Load(data []byte) (*Schema, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse section schema: %w", err)
	}
	if len(f.Sections) == 0 {
		return nil, fmt.Errorf("section schema has no sections")
	}

	s := &Schema{byPath: make(map[string]*Descriptor)}
	for _, node := range f.Sections {
		top, err := s.add(node, nil)
		if err != nil {
			return nil, err
		}
		for _, child := range node.Children {
			if len(child.Children) > 0 {
				return nil, fmt.Errorf("section %q: nesting deeper than two levels is not supported", child.Name)
			}
			if _, err := s.add(child, top); err != nil {
				return nil, err
			}
		}
		s.top = append(s.top, top)
	}
	return s, nil
}

func (s *Schema) add(node schemaNode, parent *Descriptor) (*Descriptor, error) {
	name := strings.TrimSpace(node.Name)
	if name == "" {
		return nil, fmt.Errorf("section name cannot be empty")
	}
	if strings.Contains(name, Separator) {
		return nil, fmt.Errorf("section name %q cannot contain %q", name, Separator)
	}
	heading := strings.TrimSpace(node.Heading)
	if heading == "" {
		heading = name
	}

	d := &Descriptor{Name: name, Heading: heading, Parent: parent, Path: name}
	if parent != nil {
		d.Path = parent.Path + Separator + name
		d.Slug = parent.Slug + "--" + goslug.Make(name)
		parent.Children = append(parent.Children, d)
	} else {
		d.Slug = goslug.Make(name)
	}
	if _, dup := s.byPath[d.Path]; dup {
		return nil, fmt.Errorf("duplicate section %q", d.Path)
	}
	s.byPath[d.Path] = d
	return d, nil
}

// Resolve parses a section path and returns its descriptor.
// Components are trimmed and matched case-sensitively.
func (s *Schema) Resolve(sectionPath string) (*Descriptor, error) {
	parts, err := Split(sectionPath)
	if err != nil {
		return nil, err
	}

	d, ok := s.byPath[strings.Join(parts, Separator)]
	if !ok {
		if len(parts) == 2 {
			if _, parentOK := s.byPath[parts[0]]; !parentOK {
				return nil, model.Errorf(model.KindUnknownSection, "unknown parent section %q in %q", parts[0], sectionPath)
			}
		}
		return nil, model.Errorf(model.KindUnknownSection, "unknown section %q", sectionPath)
	}
	return d, nil
}

// Split breaks a section path into trimmed components.
func Split(sectionPath string) ([]string, error) {
	raw := strings.Split(sectionPath, Separator)
	if len(raw) > 2 {
		return nil, model.Errorf(model.KindUnknownSection, "section path %q is nested too deeply", sectionPath)
	}
	parts := make([]string, len(raw))
	for i, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, model.Errorf(model.KindUnknownSection, "section path %q has an empty component", sectionPath)
		}
		parts[i] = p
	}
	return parts, nil
}

// All returns every section in document order: each parent, then its children.
func (s *Schema) All() []*Descriptor {
	out := make([]*Descriptor, 0, len(s.byPath))
	for _, top := range s.top {
		out = append(out, top)
		out = append(out, top.Children...)
	}
	return out
}

// TopLevel returns the top-level sections in document order.
func (s *Schema) TopLevel() []*Descriptor {
	return append([]*Descriptor(nil), s.top...)
}

// Paths returns every section path in document order.
func (s *Schema) Paths() []string {
	all := s.All()
	out := make([]string, len(all))
	for i, d := range all {
		out[i] = d.Path
	}
	return out
}
