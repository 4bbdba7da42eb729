package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/abhisek/assessly/internal/llm"
)

// Service generates study plans asynchronously.
type Service struct {
	provider llm.Provider
	cfg      Config

	mu      sync.Mutex
	pending *Outcome
	seq     uint64
}

// NewService creates a study plan service.
func NewService(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

// RequestPlan starts async generation. A newer request supersedes any
// in-flight one; the older result is dropped when it arrives.
func (s *Service) RequestPlan(ctx context.Context, input PlanInput) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.pending = nil
	s.mu.Unlock()

	go func() {
		plan, err := s.Generate(ctx, input)
		s.mu.Lock()
		defer s.mu.Unlock()
		if seq != s.seq {
			return
		}
		s.pending = &Outcome{Plan: plan, Err: err}
	}()
}

// ConsumePlan returns the finished outcome if one is ready and clears it.
func (s *Service) ConsumePlan() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Outcome{}, false
	}
	out := *s.pending
	s.pending = nil
	return out, true
}

type planOutput struct {
	Summary    string `json:"summary"`
	FocusAreas []struct {
		Competency string `json:"competency"`
		Advice     string `json:"advice"`
	} `json:"focus_areas"`
}

// Generate builds a study plan synchronously.
func (s *Service) Generate(ctx context.Context, input PlanInput) (*StudyPlan, error) {
	ctx = llm.WithPurpose(ctx, "study-plan")

	req := llm.Request{
		System: studyPlanSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildStudyPlanUserMessage(input, s.cfg)},
		},
		Schema:      StudyPlanSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("study plan generation: %w", err)
	}

	var out planOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse study plan response: %w", err)
	}

	plan := &StudyPlan{Summary: out.Summary}
	for _, fa := range out.FocusAreas {
		plan.FocusAreas = append(plan.FocusAreas, FocusArea{Competency: fa.Competency, Advice: fa.Advice})
	}
	return plan, nil
}
