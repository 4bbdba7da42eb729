package login

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/assessly/internal/api"
	"github.com/abhisek/assessly/internal/auth"
	"github.com/abhisek/assessly/internal/router"
	"github.com/abhisek/assessly/internal/screen"
	"github.com/abhisek/assessly/internal/store"
	"github.com/abhisek/assessly/internal/ui/components"
	"github.com/abhisek/assessly/internal/ui/layout"
	"github.com/abhisek/assessly/internal/ui/theme"
)

// Authenticator exchanges credentials for a session.
type Authenticator interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.Session, error)
}

// Deps are the collaborators of the login screen. Credentials may be nil,
// in which case the session is not remembered.
type Deps struct {
	Auth        Authenticator
	Credentials store.CredentialRepo
	APIURL      string
	Email       string
	OnLogin     func(*auth.Identity) screen.Screen
	Logger      zerolog.Logger
}

type loginResultMsg struct {
	identity *auth.Identity
	err      error
}

// LoginScreen asks for email and password.
type LoginScreen struct {
	deps     Deps
	email    components.TextInput
	password components.TextInput
	focus    int
	pending  bool
	errMsg   string
}

var _ screen.Screen = (*LoginScreen)(nil)

// New creates a new LoginScreen, pre-filling the email if known.
func New(deps Deps) *LoginScreen {
	s := &LoginScreen{
		deps:     deps,
		email:    components.NewTextInput("Email", "you@example.com", false, 254),
		password: components.NewTextInput("Password", "", true, 72),
	}
	if deps.Email != "" {
		s.email.SetValue(deps.Email)
		s.focus = 1
	}
	return s
}

func (s *LoginScreen) Init() tea.Cmd {
	if s.focus == 1 {
		return s.password.Focus()
	}
	return s.email.Focus()
}

func (s *LoginScreen) Title() string {
	return "Sign In"
}

func (s *LoginScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Sign in"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		s.pending = false
		if msg.err != nil {
			s.errMsg = describe(msg.err)
			s.password.SetValue("")
			return s, s.setFocus(1)
		}
		return s, router.Reset(s.deps.OnLogin(msg.identity))

	case tea.KeyMsg:
		if s.pending {
			return s, nil
		}
		switch msg.String() {
		case "tab", "down", "shift+tab", "up":
			return s, s.setFocus(1 - s.focus)
		case "enter":
			if s.focus == 0 {
				return s, s.setFocus(1)
			}
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	if s.focus == 0 {
		s.email, cmd = s.email.Update(msg)
	} else {
		s.password, cmd = s.password.Update(msg)
	}
	return s, cmd
}

func (s *LoginScreen) setFocus(i int) tea.Cmd {
	s.focus = i
	if i == 0 {
		s.password.Blur()
		return s.email.Focus()
	}
	s.email.Blur()
	return s.password.Focus()
}

func (s *LoginScreen) submit() tea.Cmd {
	req := api.LoginRequest{
		Email:    strings.TrimSpace(s.email.Value()),
		Password: s.password.Value(),
	}
	s.pending = true
	s.errMsg = ""
	deps := s.deps

	return func() tea.Msg {
		ctx := context.Background()
		sess, err := deps.Auth.Login(ctx, req)
		if err != nil {
			return loginResultMsg{err: err}
		}
		id, err := auth.ParseIdentity(sess.Token)
		if err != nil {
			return loginResultMsg{err: err}
		}
		if deps.Credentials != nil {
			err := deps.Credentials.Save(ctx, store.Credentials{
				Token:   sess.Token,
				Email:   req.Email,
				APIURL:  deps.APIURL,
				SavedAt: time.Now(),
			})
			if err != nil {
				deps.Logger.Warn().Err(err).Msg("failed to save credentials")
			}
		}
		return loginResultMsg{identity: id}
	}
}

func describe(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case api.CodeInvalidCredentials:
			return "Email or password is incorrect."
		case api.CodeEmailNotVerified:
			return "Verify your email first: assessly verify --email <email> --token <token>"
		}
		return apiErr.Message
	}
	return err.Error()
}

func (s *LoginScreen) View(width, height int) string {
	cw := min(components.ContentWidth(width), 60)

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render("Sign in to Assessly"))
	b.WriteString("\n\n")
	b.WriteString(s.email.View())
	b.WriteString("\n\n")
	b.WriteString(s.password.View())
	b.WriteString("\n\n")

	switch {
	case s.pending:
		b.WriteString(theme.Hint.Render("Signing in…"))
	case s.errMsg != "":
		b.WriteString(theme.ErrorText.Width(cw).Render(s.errMsg))
	default:
		b.WriteString(theme.Hint.Render("No account yet? Run: assessly register"))
	}

	return layout.Center(components.Card(b.String(), cw, true), width, height)
}
