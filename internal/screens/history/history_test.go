package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/assessly/internal/router"
	"github.com/abhisek/assessly/internal/store"
)

type stubAttempts struct {
	rows []store.Attempt
	err  error
}

func (s *stubAttempts) RecordStart(context.Context, store.Attempt) (string, error) { return "", nil }
func (s *stubAttempts) RecordCompletion(context.Context, string, store.Completion) error {
	return nil
}
func (s *stubAttempts) Recent(context.Context, int) ([]store.Attempt, error) { return s.rows, s.err }
func (s *stubAttempts) ByAssessment(context.Context, string) (*store.Attempt, error) {
	return nil, store.ErrNotFound
}

func load(t *testing.T, repo store.AttemptRepo) *HistoryScreen {
	t.Helper()
	s := New(repo)
	s.Update(s.Init()())
	return s
}

func TestHistoryListsAttempts(t *testing.T) {
	score := 80
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	done := started.Add(25 * time.Minute)
	s := load(t, &stubAttempts{rows: []store.Attempt{
		{AssessmentID: "a1", Step: 1, Total: 20, Answered: 20, StartedAt: started, CompletedAt: &done, Score: &score, CertifiedLevel: "A1/A2 Certified"},
		{AssessmentID: "a2", Step: 2, Total: 20, StartedAt: started},
	}})

	view := s.View(120, 30)
	if !strings.Contains(view, "A1/A2 Certified") {
		t.Errorf("expected certified row:\n%s", view)
	}
	if !strings.Contains(view, "not submitted") {
		t.Errorf("expected unfinished row:\n%s", view)
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !strings.Contains(s.View(120, 30), "Submitted after 25m0s") {
		t.Errorf("expected expanded details:\n%s", s.View(120, 30))
	}
}

func TestHistoryEmptyAndError(t *testing.T) {
	if v := load(t, &stubAttempts{}).View(80, 24); !strings.Contains(v, "No attempts yet") {
		t.Errorf("unexpected empty view:\n%s", v)
	}
	if v := load(t, &stubAttempts{err: errors.New("disk")}).View(80, 24); !strings.Contains(v, "Error: disk") {
		t.Errorf("unexpected error view:\n%s", v)
	}
}

func TestHistoryEscPops(t *testing.T) {
	s := load(t, &stubAttempts{})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}
