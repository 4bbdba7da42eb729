package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/assessly/internal/ui/components"
)

var errPromptCancelled = errors.New("cancelled")

// promptModel asks for a single value in a one-line inline program.
type promptModel struct {
	input     components.TextInput
	done      bool
	cancelled bool
}

func (m promptModel) Init() tea.Cmd {
	return m.input.Focus()
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case "enter":
			m.done = true
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() tea.View {
	if m.done || m.cancelled {
		return tea.NewView("")
	}
	return tea.NewView(m.input.View() + "\n")
}

// promptSecret reads a masked value from the terminal.
func promptSecret(label string) (string, error) {
	m := promptModel{input: components.NewTextInput(label, "", true, 72)}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	res := final.(promptModel)
	if res.cancelled {
		return "", errPromptCancelled
	}
	return res.input.Value(), nil
}

// readLine reads one line from r, for --password-stdin.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// password returns the password from stdin or an interactive prompt.
func password(fromStdin bool, in io.Reader) (string, error) {
	if fromStdin {
		return readLine(in)
	}
	return promptSecret("Password")
}
