package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table aligns columns with spaces, no borders. Cell widths are measured
// without ANSI styling.
type Table struct {
	rows       [][]string
	colWidths  []int
	colPadding int
}

// NewTable creates a table with the given number of columns.
func NewTable(cols int) *Table {
	return &Table{
		colWidths:  make([]int, cols),
		colPadding: 2,
	}
}

// AddRow adds a row. Extra cells are dropped; missing cells are blank.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.colWidths))
	for i := 0; i < len(t.colWidths) && i < len(cells); i++ {
		row[i] = cells[i]
		if w := lipgloss.Width(cells[i]); w > t.colWidths[i] {
			t.colWidths[i] = w
		}
	}
	t.rows = append(t.rows, row)
}

// String renders the table. The last column is not padded.
func (t *Table) String() string {
	if len(t.rows) == 0 {
		return ""
	}

	var sb strings.Builder
	padding := strings.Repeat(" ", t.colPadding)
	for _, row := range t.rows {
		for i, cell := range row {
			if i > 0 {
				sb.WriteString(padding)
			}
			sb.WriteString(cell)
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", t.colWidths[i]-lipgloss.Width(cell)))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// List renders indented bullet items.
type List struct {
	items  []string
	indent string
	bullet string
}

// NewList creates a list with a two-space indent and a dash bullet.
func NewList() *List {
	return &List{indent: "  ", bullet: "-"}
}

// SetIndent sets the indentation string.
func (l *List) SetIndent(indent string) {
	l.indent = indent
}

// Add adds an item.
func (l *List) Add(item string) {
	l.items = append(l.items, item)
}

// String renders the list.
func (l *List) String() string {
	var sb strings.Builder
	for _, item := range l.items {
		sb.WriteString(l.indent)
		sb.WriteString(l.bullet)
		sb.WriteString(" ")
		sb.WriteString(item)
		sb.WriteString("\n")
	}
	return sb.String()
}
