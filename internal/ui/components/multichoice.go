package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/assessly/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector. Unlike a quiz widget it never
// reveals the correct option; it only shows the cursor and the chosen option.
type MultiChoice struct {
	Question string
	Options  []string
	Cursor   int
	Chosen   string
}

// NewMultiChoice creates a selector with the cursor on the chosen option, if any.
func NewMultiChoice(question string, options []string, chosen string) MultiChoice {
	m := MultiChoice{Question: question, Options: options, Chosen: chosen}
	for i, o := range options {
		if o == chosen {
			m.Cursor = i
			break
		}
	}
	return m
}

// OptionLabel returns the letter shown next to option i.
func OptionLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprint(i + 1)
}

// Update moves the cursor. It returns the option picked with enter, space or
// a letter key, or "" when nothing was picked.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, string) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.Options) == 0 {
		return m, ""
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Options)-1 {
			m.Cursor++
		}
	case "enter", "space":
		m.Chosen = m.Options[m.Cursor]
		return m, m.Chosen
	default:
		if len(key) == 1 {
			i := int(strings.ToUpper(key)[0]) - 'A'
			if i >= 0 && i < len(m.Options) {
				m.Cursor = i
				m.Chosen = m.Options[i]
				return m, m.Chosen
			}
		}
	}
	return m, ""
}

// View renders the question and its options.
func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Question))
	b.WriteString("\n\n")

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Cursor {
			prefix = "▸ "
		}
		mark := "( )"
		if opt == m.Chosen {
			mark = "(•)"
		}
		line := fmt.Sprintf("%s%s %s)  %s", prefix, mark, OptionLabel(i), opt)

		switch {
		case opt == m.Chosen:
			b.WriteString(theme.Correct.Render(line))
		case i == m.Cursor:
			b.WriteString(theme.Selected.Render(line))
		default:
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
