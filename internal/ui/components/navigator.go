package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/assessly/internal/assessment"
	"github.com/abhisek/assessly/internal/ui/theme"
)

// Navigator renders the grid of question numbers. Current questions are
// bracketed, answered ones green and flagged ones amber with a marker.
func Navigator(statuses []assessment.QuestionStatus, width int) string {
	const cell = 6
	perRow := max(width/cell, 1)

	var rows []string
	var row strings.Builder
	for i, s := range statuses {
		label := fmt.Sprintf("%d", s.Index+1)
		if s.Flagged {
			label += "⚑"
		}
		if s.Current {
			label = "[" + label + "]"
		}

		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		switch {
		case s.Flagged:
			style = theme.Flagged
		case s.Answered:
			style = theme.Correct
		}
		if s.Current {
			style = style.Underline(true)
		}
		row.WriteString(style.Width(cell).Render(label))

		if (i+1)%perRow == 0 {
			rows = append(rows, row.String())
			row.Reset()
		}
	}
	if row.Len() > 0 {
		rows = append(rows, row.String())
	}
	return strings.Join(rows, "\n")
}
