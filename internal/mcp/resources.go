package mcp

import (
	"encoding/json"

	"github.com/aidanlsb/brag/docs"
	"github.com/aidanlsb/brag/internal/sections"
)

// Resource represents an MCP resource.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContent is the body of a read resource.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

const (
	guideURI    = "brag://guide"
	sectionsURI = "brag://sections"
)

func listResources() []Resource {
	return []Resource{
		{URI: guideURI, Name: "Agent guide", Description: "How to keep a brag document up to date", MimeType: "text/markdown"},
		{URI: sectionsURI, Name: "Sections", Description: "Section paths accepted by the entry tools", MimeType: "application/json"},
	}
}

func (s *Server) handleResourcesRead(req *Request) {
	var params struct {
		URI string `json:"uri"`
	}
	if req.Params == nil {
		s.sendError(req.ID, -32602, "Invalid params", "missing params")
		return
	}
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		s.sendError(req.ID, -32602, "Invalid params", err.Error())
		return
	}

	var content ResourceContent
	switch params.URI {
	case guideURI:
		guide, err := docs.FS.ReadFile("guide/agent.md")
		if err != nil {
			s.sendError(req.ID, -32603, "Internal error", err.Error())
			return
		}
		content = ResourceContent{URI: guideURI, MimeType: "text/markdown", Text: string(guide)}
	case sectionsURI:
		text, err := sectionsJSON()
		if err != nil {
			s.sendError(req.ID, -32603, "Internal error", err.Error())
			return
		}
		content = ResourceContent{URI: sectionsURI, MimeType: "application/json", Text: text}
	default:
		s.sendError(req.ID, -32002, "Resource not found", params.URI)
		return
	}
	s.sendResult(req.ID, map[string]interface{}{"contents": []ResourceContent{content}})
}

type sectionResource struct {
	Path    string   `json:"section_path"`
	Heading string   `json:"heading"`
	Slug    string   `json:"slug"`
	Nested  []string `json:"nested,omitempty"`
}

func sectionsJSON() (string, error) {
	var out []sectionResource
	for _, top := range sections.Default().TopLevel() {
		r := sectionResource{Path: top.Path, Heading: top.Heading, Slug: top.Slug}
		for _, child := range top.Children {
			r.Nested = append(r.Nested, child.Path)
		}
		out = append(out, r)
	}
	b, err := json.MarshalIndent(map[string]interface{}{"sections": out}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
