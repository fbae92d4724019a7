package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

// fallbackWidth is used when stdout is not a terminal or its size is unknown.
const fallbackWidth = 100

// TermWidth reports the width of stdout and whether stdout is a terminal.
func TermWidth() (int, bool) {
	fd := os.Stdout.Fd()
	if !term.IsTerminal(fd) {
		return fallbackWidth, false
	}
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		return w, true
	}
	return fallbackWidth, true
}

// Truncate shortens s to at most width cells, ending with an ellipsis when cut.
func Truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
