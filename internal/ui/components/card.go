package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/assessly/internal/ui/theme"
)

// ContentWidth returns the uniform inner width used for screen sections.
func ContentWidth(frameWidth int) int {
	return min(max(frameWidth-6, 20), 76)
}

// Card wraps content in a rounded-border card at the given content width.
func Card(content string, cw int, highlighted bool) string {
	style := theme.Card
	if highlighted {
		style = theme.SelectedCard
	}
	return style.Width(cw).Render(content)
}

// SectionTitle renders a bold heading line.
func SectionTitle(s string) string {
	return lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(s)
}
