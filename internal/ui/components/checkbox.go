package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/assessly/internal/ui/theme"
)

// Checkbox renders a labelled tick box.
type Checkbox struct {
	Label   string
	Checked bool
	Focused bool
}

// View renders the checkbox.
func (c Checkbox) View() string {
	box := "[ ]"
	if c.Checked {
		box = "[x]"
	}
	prefix := "  "
	style := lipgloss.NewStyle().Foreground(theme.Text)
	if c.Focused {
		prefix = "▸ "
		style = theme.Selected
	}
	if c.Checked {
		box = theme.Correct.Render(box)
	}
	return prefix + box + " " + style.Render(c.Label)
}
