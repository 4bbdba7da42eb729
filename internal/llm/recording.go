package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/assessly/internal/store"
)

// RequestRecorder persists LLM request events.
type RequestRecorder interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

// RecordingProvider records every request as an event and a log line.
type RecordingProvider struct {
	inner    Provider
	provider string
	recorder RequestRecorder
	log      zerolog.Logger
}

// WithRecording wraps a Provider with event recording. recorder may be nil.
func WithRecording(p Provider, provider string, recorder RequestRecorder, log zerolog.Logger) Provider {
	return &RecordingProvider{inner: p, provider: provider, recorder: recorder, log: log}
}

func (r *RecordingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := r.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:  r.provider,
		Model:     r.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	ev := r.log.Info()
	if err != nil {
		ev = r.log.Warn().Err(err)
	}
	ev.Str("provider", data.Provider).
		Str("model", data.Model).
		Str("purpose", data.Purpose).
		Int("input_tokens", data.InputTokens).
		Int("output_tokens", data.OutputTokens).
		Int64("latency_ms", data.LatencyMs).
		Msg("llm request")

	// Recording failures never fail the request.
	if r.recorder != nil {
		if recErr := r.recorder.AppendLLMRequest(ctx, data); recErr != nil {
			r.log.Warn().Err(recErr).Msg("failed to record llm request")
		}
	}

	return resp, err
}

func (r *RecordingProvider) ModelID() string {
	return r.inner.ModelID()
}
