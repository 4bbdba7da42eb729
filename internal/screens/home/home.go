package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/assessly/internal/auth"
	"github.com/abhisek/assessly/internal/catalog"
	"github.com/abhisek/assessly/internal/router"
	"github.com/abhisek/assessly/internal/screen"
	"github.com/abhisek/assessly/internal/store"
	"github.com/abhisek/assessly/internal/ui/components"
	"github.com/abhisek/assessly/internal/ui/layout"
	"github.com/abhisek/assessly/internal/ui/theme"
)

// Deps wires the home screen to the rest of the app. Screen factories are
// called each time the item is chosen.
type Deps struct {
	Identity      *auth.Identity
	Attempts      store.AttemptRepo
	NewAssessment func() screen.Screen
	NewHistory    func() screen.Screen
	Logout        func() tea.Cmd
}

type lastAttemptMsg struct {
	attempt *store.Attempt
}

// HomeScreen is the main menu.
type HomeScreen struct {
	deps Deps
	menu components.Menu
	last *store.Attempt
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps Deps) *HomeScreen {
	items := []components.MenuItem{
		{Label: "Take Assessment", Action: func() tea.Cmd {
			return router.Push(deps.NewAssessment())
		}},
		{Label: "History", Disabled: deps.NewHistory == nil, Action: func() tea.Cmd {
			return router.Push(deps.NewHistory())
		}},
		{Label: "Log out", Disabled: deps.Logout == nil, Action: func() tea.Cmd {
			return deps.Logout()
		}},
		{Label: "Quit", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
	return &HomeScreen{deps: deps, menu: components.NewMenu(items)}
}

func (h *HomeScreen) Init() tea.Cmd {
	if h.deps.Attempts == nil {
		return nil
	}
	repo := h.deps.Attempts
	return func() tea.Msg {
		rows, err := repo.Recent(context.Background(), 1)
		if err != nil || len(rows) == 0 {
			return lastAttemptMsg{}
		}
		return lastAttemptMsg{attempt: &rows[0]}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if m, ok := msg.(lastAttemptMsg); ok {
		h.last = m.attempt
		return h, nil
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var sections []string

	greeting := "Welcome to Assessly"
	if h.deps.Identity != nil {
		greeting = "Welcome, " + h.deps.Identity.DisplayName()
	}
	sections = append(sections, theme.Title.Width(cw).Render(greeting))

	if !layout.IsCompactHeight(height + 8) {
		sections = append(sections, components.Card(stepsOverview(), cw, false))
	}

	if h.last != nil {
		sections = append(sections, theme.Hint.Width(cw).Align(lipgloss.Center).Render(lastAttemptLine(*h.last)))
	}

	sections = append(sections, components.Card(strings.TrimRight(h.menu.View(), "\n"), cw, true))

	return layout.Center(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) HeaderStatus() string {
	if h.deps.Identity == nil {
		return ""
	}
	return lipgloss.NewStyle().Foreground(theme.TextDim).Render(h.deps.Identity.Email)
}

func stepsOverview() string {
	var b strings.Builder
	b.WriteString(components.SectionTitle("Digital competency assessment"))
	for _, s := range catalog.Steps() {
		fmt.Fprintf(&b, "\n%s  %s",
			theme.Selected.Render(fmt.Sprintf("Step %d", s.Number)),
			theme.Body.Render(fmt.Sprintf("%-13s %s · %d min", s.Name, s.LevelLabel(), s.DurationMinutes)))
	}
	return b.String()
}

func lastAttemptLine(a store.Attempt) string {
	if !a.Completed() {
		return fmt.Sprintf("Last attempt: Step %d, not submitted", a.Step)
	}
	return fmt.Sprintf("Last attempt: Step %d · %d%% · %s", a.Step, *a.Score, a.CertifiedLevel)
}
