package bubbletea

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// tabWidth is the distance between tab stops.
const tabWidth = 8

// ExpandTabs replaces tabs with spaces up to the next 8-column tab stop.
// startCol is the display column at which s begins.
func ExpandTabs(s string, startCol int) string {
	if !strings.Contains(s, "\t") {
		return s
	}

	var sb strings.Builder
	col := startCol
	for _, r := range s {
		if r != '\t' {
			sb.WriteRune(r)
			col += lipgloss.Width(string(r))
			continue
		}
		next := (col/tabWidth + 1) * tabWidth
		sb.WriteString(strings.Repeat(" ", next-col))
		col = next
	}
	return sb.String()
}
