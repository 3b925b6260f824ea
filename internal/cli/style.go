package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stagegate/internal/engine"
)

// maxPendingLines caps the uncommitted-changes listing in status output.
const maxPendingLines = 10

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#AAAAAA")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

// renderReport formats a status report for the terminal.
func renderReport(r *engine.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("stagegate: "+string(r.Stage)) + "\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + " " + valueStyle.Render(value) + "\n")
	}
	row("Stage", string(r.Stage))
	row("Requirement", fmt.Sprintf("%d", r.Requirement))
	if r.LastCommitSHA != "" {
		row("Last commit", r.LastCommitSHA)
	}

	b.WriteString("\n" + hintStyle.Render("Next: "+r.NextAction) + "\n")

	if r.PendingChanges != "" {
		b.WriteString("\n" + warnStyle.Render("Uncommitted changes:") + "\n")
		b.WriteString(truncateLines(r.PendingChanges, maxPendingLines) + "\n")
	}
	return b.String()
}

// truncateLines keeps the first max lines of s, noting how many were cut.
func truncateLines(s string, max int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s
	}
	kept := strings.Join(lines[:max], "\n")
	return fmt.Sprintf("%s\n  ... (%d more lines)", kept, len(lines)-max)
}
