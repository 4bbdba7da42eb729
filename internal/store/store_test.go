package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is checked in TestOpenFile.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "assessly.db")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	s, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	// Reopening runs the migration again without error.
	s.Close()
	s2, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s2.Close()
}

func TestCredentialsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.Credentials()
	ctx := context.Background()

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil credentials, got %+v", got)
	}

	if err := repo.Save(ctx, Credentials{Token: "t1", Email: "a@example.com", APIURL: "http://x"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(ctx, Credentials{Token: "t2", Email: "b@example.com", APIURL: "http://y"}); err != nil {
		t.Fatalf("Save again: %v", err)
	}

	got, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.Token != "t2" || got.Email != "b@example.com" || got.APIURL != "http://y" {
		t.Fatalf("Load = %+v, want t2/b@example.com", got)
	}
	if got.SavedAt.IsZero() {
		t.Error("expected SavedAt to be set")
	}

	var n int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM credentials").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("credentials rows = %d, want 1", n)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err = repo.Load(ctx)
	if err != nil || got != nil {
		t.Fatalf("Load after clear = %+v, %v", got, err)
	}
}

func TestAttemptLifecycle(t *testing.T) {
	s := openTestStore(t)
	repo := s.Attempts()
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	id, err := repo.RecordStart(ctx, Attempt{AssessmentID: "asm-1", StudentID: "stu", Step: 2, Total: 20, StartedAt: started})
	if err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	a, err := repo.ByAssessment(ctx, "asm-1")
	if err != nil {
		t.Fatalf("ByAssessment: %v", err)
	}
	if a.Completed() || a.Score != nil || a.Step != 2 || a.Total != 20 || !a.StartedAt.Equal(started) {
		t.Fatalf("unexpected started attempt: %+v", a)
	}

	err = repo.RecordCompletion(ctx, "asm-1", Completion{Score: 80, CertifiedLevel: "B1/B2 Certified", Answered: 18, Forced: true})
	if err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}

	a, err = repo.ByAssessment(ctx, "asm-1")
	if err != nil {
		t.Fatalf("ByAssessment: %v", err)
	}
	if !a.Completed() || a.Score == nil || *a.Score != 80 || a.CertifiedLevel != "B1/B2 Certified" || a.Answered != 18 || !a.Forced {
		t.Fatalf("unexpected completed attempt: %+v", a)
	}
}

func TestAttemptNotFound(t *testing.T) {
	s := openTestStore(t)
	repo := s.Attempts()
	ctx := context.Background()

	if _, err := repo.ByAssessment(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ByAssessment err = %v, want ErrNotFound", err)
	}
	if err := repo.RecordCompletion(ctx, "missing", Completion{Score: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("RecordCompletion err = %v, want ErrNotFound", err)
	}
}

func TestAttemptDuplicateAssessment(t *testing.T) {
	s := openTestStore(t)
	repo := s.Attempts()
	ctx := context.Background()

	if _, err := repo.RecordStart(ctx, Attempt{AssessmentID: "asm-1", Step: 1}); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if _, err := repo.RecordStart(ctx, Attempt{AssessmentID: "asm-1", Step: 1}); err == nil {
		t.Error("expected unique violation for duplicate assessment id")
	}
}

func TestAttemptRecentOrdering(t *testing.T) {
	s := openTestStore(t)
	repo := s.Attempts()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, asm := range []string{"a", "b", "c"} {
		if _, err := repo.RecordStart(ctx, Attempt{AssessmentID: asm, Step: 1, StartedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("RecordStart %s: %v", asm, err)
		}
	}

	got, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].AssessmentID != "c" || got[1].AssessmentID != "b" {
		t.Fatalf("Recent(2) = %+v, want c, b", got)
	}

	all, err := repo.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent(0): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Recent(0) returned %d, want 3", len(all))
	}
}

func TestLLMRequests(t *testing.T) {
	s := openTestStore(t)
	repo := s.LLMRequests()
	ctx := context.Background()

	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "study-plan", InputTokens: 10, OutputTokens: 5, LatencyMs: 12, Success: true}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "study-plan", ErrorMessage: "boom"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := repo.RecentLLMRequests(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].ErrorMessage != "boom" || got[0].Success {
		t.Errorf("newest event = %+v", got[0])
	}
	if got[1].InputTokens != 10 || !got[1].Success {
		t.Errorf("oldest event = %+v", got[1])
	}
}
