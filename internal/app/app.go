package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/assessly/internal/api"
	"github.com/abhisek/assessly/internal/auth"
	"github.com/abhisek/assessly/internal/coach"
	"github.com/abhisek/assessly/internal/router"
	"github.com/abhisek/assessly/internal/screen"
	assessmentscreen "github.com/abhisek/assessly/internal/screens/assessment"
	"github.com/abhisek/assessly/internal/screens/history"
	"github.com/abhisek/assessly/internal/screens/home"
	"github.com/abhisek/assessly/internal/screens/login"
	"github.com/abhisek/assessly/internal/store"
	"github.com/abhisek/assessly/internal/ui/layout"
)

// Options holds the dependencies for the TUI.
type Options struct {
	Client      *api.Client
	Store       *store.Store // nil disables history and remembered sessions
	Identity    *auth.Identity
	Coach       *coach.Service // nil disables study plans
	DownloadDir string
	Email       string
	Logger      zerolog.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

// newAppModel starts on the home screen when a session exists, otherwise on
// the login screen.
func newAppModel(opts Options) AppModel {
	w := &wiring{opts: opts}
	var initial screen.Screen
	if opts.Identity != nil {
		initial = w.home(opts.Identity)
	} else {
		initial = w.login()
	}
	return AppModel{router: router.New(initial)}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if l, ok := m.router.Active().(screen.Leaver); ok {
				l.Leave()
			}
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.EscapeHandler); ok && h.HandlesEscape() {
				break
			}
			if m.router.Depth() > 1 {
				return m, router.Pop()
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	status := ""
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.HeaderStatus()
		}
	}

	header := layout.RenderHeader(title, status, m.width)

	var footerHints []layout.KeyHint
	if kp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = kp.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}

// wiring builds screens on demand so screens never import each other in
// cycles.
type wiring struct {
	opts Options
}

func (w *wiring) attempts() store.AttemptRepo {
	if w.opts.Store == nil {
		return nil
	}
	return w.opts.Store.Attempts()
}

func (w *wiring) credentials() store.CredentialRepo {
	if w.opts.Store == nil {
		return nil
	}
	return w.opts.Store.Credentials()
}

func (w *wiring) login() screen.Screen {
	return login.New(login.Deps{
		Auth:        w.opts.Client,
		Credentials: w.credentials(),
		APIURL:      w.opts.Client.BaseURL(),
		Email:       w.opts.Email,
		OnLogin:     w.home,
		Logger:      w.opts.Logger,
	})
}

func (w *wiring) home(id *auth.Identity) screen.Screen {
	deps := home.Deps{
		Identity: id,
		Attempts: w.attempts(),
		NewAssessment: func() screen.Screen {
			return assessmentscreen.New(assessmentscreen.Deps{
				Backend:     w.opts.Client,
				Identity:    id,
				Attempts:    w.attempts(),
				Coach:       w.opts.Coach,
				DownloadDir: w.opts.DownloadDir,
				Logger:      w.opts.Logger,
			})
		},
		Logout: func() tea.Cmd {
			w.logout()
			return router.Reset(w.login())
		},
	}
	if repo := w.attempts(); repo != nil {
		deps.NewHistory = func() screen.Screen { return history.New(repo) }
	}
	return home.New(deps)
}

func (w *wiring) logout() {
	w.opts.Client.SetToken("")
	if creds := w.credentials(); creds != nil {
		if err := creds.Clear(context.Background()); err != nil {
			w.opts.Logger.Warn().Err(err).Msg("failed to clear credentials")
		}
	}
	w.opts.Logger.Info().Msg("logged out")
}
