package document

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Kind classifies a top-level block of the document.
type Kind int

const (
	Other Kind = iota
	Heading
	Bullet
)

func (k Kind) String() string {
	switch k {
	case Heading:
		return "heading"
	case Bullet:
		return "bullet"
	default:
		return "other"
	}
}

// Paragraph is one classified block. Line numbers are 0-indexed.
type Paragraph struct {
	Kind  Kind
	Level int    // heading level, 0 otherwise
	Text  string // heading text or bullet text (raw markdown, single line)

	StartLine   int
	TextEndLine int    // bullets: last line of the item's first paragraph
	EndLine     int    // last line belonging to the block
	Prefix      string // bullets: indentation plus list marker, e.g. "- "
}

var markdown = goldmark.New()

// Scan classifies the top-level blocks of a markdown document.
// Only items of unordered top-level lists whose first block is a paragraph
// are bullets; everything that is neither a heading nor a bullet is Other.
func Scan(src []byte) []Paragraph {
	doc := markdown.Parser().Parse(text.NewReader(src))
	lines := splitLines(string(src))
	starts := computeLineStarts(src)

	var out []Paragraph
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if node.Lines().Len() == 0 {
				continue
			}
			first := node.Lines().At(0)
			last := node.Lines().At(node.Lines().Len() - 1)
			out = append(out, Paragraph{
				Kind:      Heading,
				Level:     node.Level,
				Text:      joinSegments(node.Lines(), src),
				StartLine: offsetToLine(starts, first.Start),
				EndLine:   offsetToLine(starts, last.Start),
			})
		case *ast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if p, ok := scanItem(item, node, src, starts, lines); ok {
					out = append(out, p)
				} else if line, ok := firstBlockLine(item, starts); ok {
					out = append(out, Paragraph{Kind: Other, StartLine: line, EndLine: line})
				}
			}
		default:
			if n.Lines().Len() == 0 {
				continue
			}
			first := n.Lines().At(0)
			last := n.Lines().At(n.Lines().Len() - 1)
			out = append(out, Paragraph{
				Kind:      Other,
				StartLine: offsetToLine(starts, first.Start),
				EndLine:   offsetToLine(starts, last.Start),
			})
		}
	}
	return out
}

func scanItem(item ast.Node, list *ast.List, src []byte, starts []int, lines []string) (Paragraph, bool) {
	if list.IsOrdered() {
		return Paragraph{}, false
	}
	first := item.FirstChild()
	if first == nil {
		return Paragraph{}, false
	}
	switch first.(type) {
	case *ast.Paragraph, *ast.TextBlock:
	default:
		return Paragraph{}, false
	}
	segs := first.Lines()
	if segs.Len() == 0 {
		return Paragraph{}, false
	}

	textStart := segs.At(0).Start
	startLine := offsetToLine(starts, textStart)
	prefix := string(src[starts[startLine]:textStart])
	marker := strings.TrimLeft(prefix, " \t")
	if marker == "" || !strings.ContainsRune("-*+", rune(marker[0])) {
		// Content starts on a line after the marker; not a single-line bullet.
		return Paragraph{}, false
	}

	textEnd := offsetToLine(starts, segs.At(segs.Len()-1).Start)
	end := textEnd
	_ = ast.Walk(item, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		if l := n.Lines(); l.Len() > 0 {
			if line := offsetToLine(starts, l.At(l.Len()-1).Start); line > end {
				end = line
			}
		}
		return ast.WalkContinue, nil
	})
	if ext := indentExtent(lines, startLine, len(prefix)); ext > end {
		end = ext
	}

	return Paragraph{
		Kind:        Bullet,
		Text:        joinSegments(segs, src),
		StartLine:   startLine,
		TextEndLine: textEnd,
		EndLine:     end,
		Prefix:      prefix,
	}, true
}

func firstBlockLine(n ast.Node, starts []int) (int, bool) {
	line, found := 0, false
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || c.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		if l := c.Lines(); l.Len() > 0 {
			line, found = offsetToLine(starts, l.At(0).Start), true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return line, found
}

// indentExtent returns the last line of an item starting at start whose
// continuation lines are indented by at least width. Trailing blank lines
// are not part of the item.
func indentExtent(lines []string, start, width int) int {
	end := start
	for i := start + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		if leadingSpaces(line) < width {
			break
		}
		end = i
	}
	return end
}

func leadingSpaces(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

func joinSegments(segs *text.Segments, src []byte) string {
	parts := make([]string, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		if p := strings.TrimSpace(string(seg.Value(src))); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// computeLineStarts computes the byte offset of each line start.
func computeLineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// offsetToLine converts a byte offset to a 0-indexed line number.
func offsetToLine(starts []int, offset int) int {
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > offset })
	if i == 0 {
		return 0
	}
	return i - 1
}

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}
