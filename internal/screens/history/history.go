package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/assessly/internal/catalog"
	"github.com/abhisek/assessly/internal/router"
	"github.com/abhisek/assessly/internal/screen"
	"github.com/abhisek/assessly/internal/store"
	"github.com/abhisek/assessly/internal/ui/layout"
	"github.com/abhisek/assessly/internal/ui/theme"
)

// Limit is how many attempts the screen loads.
const Limit = 50

type historyLoadedMsg struct {
	Attempts []store.Attempt
	Err      error
}

// HistoryScreen lists past attempts recorded on this machine.
type HistoryScreen struct {
	attempts store.AttemptRepo
	rows     []store.Attempt
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(attempts store.AttemptRepo) *HistoryScreen {
	return &HistoryScreen{
		attempts: attempts,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		rows, err := s.attempts.Recent(context.Background(), Limit)
		return historyLoadedMsg{Attempts: rows, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.rows = msg.Attempts
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, router.Pop()
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.rows)-1 {
				s.selected++
			}
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.rows) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No attempts yet. Take your first assessment!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, a := range s.rows {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			style.Render(prefix+summaryLine(a))))
		b.WriteString("\n")

		if s.expanded[i] {
			detail := lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true)
			for _, line := range detailLines(a) {
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, detail.Render(line)))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

func summaryLine(a store.Attempt) string {
	date := a.StartedAt.Local().Format("Jan 02, 2006 15:04")
	step := fmt.Sprintf("Step %d", a.Step)
	if s, ok := catalog.Lookup(a.Step); ok {
		step += " (" + s.LevelLabel() + ")"
	}
	if !a.Completed() {
		return fmt.Sprintf("%s  %-16s  not submitted", date, step)
	}
	return fmt.Sprintf("%s  %-16s  %3d%%  %s", date, step, *a.Score, a.CertifiedLevel)
}

func detailLines(a store.Attempt) []string {
	lines := []string{
		fmt.Sprintf("    Assessment %s", a.AssessmentID),
		fmt.Sprintf("    %d of %d questions answered", a.Answered, a.Total),
	}
	if a.CompletedAt != nil {
		took := a.CompletedAt.Sub(a.StartedAt).Round(1e9)
		lines = append(lines, fmt.Sprintf("    Submitted after %s", took))
	}
	if a.Forced {
		lines = append(lines, "    Submitted automatically when time ran out")
	}
	return lines
}
