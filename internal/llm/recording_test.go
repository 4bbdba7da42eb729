package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/abhisek/assessly/internal/store"
)

type fakeRecorder struct {
	events []store.LLMRequestEventData
	err    error
}

func (f *fakeRecorder) AppendLLMRequest(_ context.Context, d store.LLMRequestEventData) error {
	f.events = append(f.events, d)
	return f.err
}

func TestRecordingProvider(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`), Usage: Usage{InputTokens: 3, OutputTokens: 4}},
		MockResponse{Err: errors.New("boom")},
	)
	rec := &fakeRecorder{}
	var logs bytes.Buffer
	p := WithRecording(mock, "mock", rec, zerolog.New(&logs))

	ctx := WithPurpose(context.Background(), "study-plan")
	if _, err := p.Generate(ctx, Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected error")
	}

	if len(rec.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(rec.events))
	}
	ok, failed := rec.events[0], rec.events[1]
	if !ok.Success || ok.InputTokens != 3 || ok.Purpose != "study-plan" || ok.Provider != "mock" {
		t.Errorf("success event = %+v", ok)
	}
	if failed.Success || failed.ErrorMessage != "boom" {
		t.Errorf("failure event = %+v", failed)
	}
	if strings.Count(logs.String(), "llm request") != 2 {
		t.Errorf("expected two log lines, got %q", logs.String())
	}
}

func TestRecordingFailureDoesNotFailRequest(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	p := WithRecording(mock, "mock", &fakeRecorder{err: errors.New("disk full")}, zerolog.Nop())

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("recording error leaked: %v", err)
	}
}

func TestNewProviderMock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "mock"
	p, err := NewProvider(context.Background(), cfg, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Errorf("ModelID = %q", p.ModelID())
	}
}

func TestNewProviderRejectsMissingKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openai"
	if _, err := NewProvider(context.Background(), cfg, nil, zerolog.Nop()); err == nil {
		t.Fatal("expected validation error")
	}
}
