package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/assessly/internal/assessment"
)

func TestMultiChoicePicksWithEnterAndLetters(t *testing.T) {
	m := NewMultiChoice("Q?", []string{"red", "green", "blue"}, "")

	m, picked := m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if picked != "" || m.Cursor != 1 {
		t.Fatalf("cursor=%d picked=%q", m.Cursor, picked)
	}
	m, picked = m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if picked != "green" || m.Chosen != "green" {
		t.Fatalf("picked=%q chosen=%q", picked, m.Chosen)
	}
	m, picked = m.Update(tea.KeyPressMsg{Code: 'c', Text: "c"})
	if picked != "blue" || m.Cursor != 2 {
		t.Fatalf("letter pick: cursor=%d picked=%q", m.Cursor, picked)
	}
	_, picked = m.Update(tea.KeyPressMsg{Code: 'z', Text: "z"})
	if picked != "" {
		t.Fatalf("out of range letter picked %q", picked)
	}
}

func TestMultiChoiceStartsOnChosen(t *testing.T) {
	m := NewMultiChoice("Q?", []string{"a", "b", "c"}, "c")
	if m.Cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.Cursor)
	}
	if !strings.Contains(m.View(), "(•) C)") {
		t.Errorf("chosen option not marked:\n%s", m.View())
	}
}

func TestMenuSkipsDisabled(t *testing.T) {
	called := false
	m := NewMenu([]MenuItem{
		{Label: "off", Disabled: true},
		{Label: "one"},
		{Label: "skip", Disabled: true},
		{Label: "two", Action: func() tea.Cmd { called = true; return nil }},
	})
	if m.Selected != 1 {
		t.Fatalf("initial selection = %d", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 3 {
		t.Fatalf("selection after down = %d", m.Selected)
	}
	m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !called {
		t.Error("expected action to run")
	}
}

func TestNavigatorMarksStatuses(t *testing.T) {
	out := Navigator([]assessment.QuestionStatus{
		{Index: 0, Answered: true},
		{Index: 1, Flagged: true, Current: true},
		{Index: 2},
	}, 60)
	if !strings.Contains(out, "[2⚑]") {
		t.Errorf("current flagged question not marked:\n%s", out)
	}
	if !strings.Contains(out, "3") {
		t.Errorf("missing question 3:\n%s", out)
	}
}

func TestCheckboxView(t *testing.T) {
	if !strings.Contains(Checkbox{Label: "ok", Checked: true}.View(), "[x]") {
		t.Error("checked box not rendered")
	}
	if !strings.Contains(Checkbox{Label: "ok"}.View(), "[ ]") {
		t.Error("unchecked box not rendered")
	}
}
