package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// LLMRequest is a stored LLM request event.
type LLMRequest struct {
	ID        int
	CreatedAt time.Time
	LLMRequestEventData
}

// LLMRequestRepo provides append access to LLM request events.
type LLMRequestRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// RecentLLMRequests returns up to limit events, newest first.
	RecentLLMRequests(ctx context.Context, limit int) ([]LLMRequest, error)
}

type llmRequestRepo struct {
	db *sql.DB
}

func (r *llmRequestRepo) AppendLLMRequest(ctx context.Context, d LLMRequestEventData) error {
	var errMsg any
	if d.ErrorMessage != "" {
		errMsg = d.ErrorMessage
	}
	query, args := builder().Insert(LlmRequestsTable.Name).
		Columns("created_at", "provider", "model", "purpose", "input_tokens", "output_tokens", "latency_ms", "success", "error_message").
		Values(time.Now().UTC(), d.Provider, d.Model, d.Purpose, d.InputTokens, d.OutputTokens, d.LatencyMs, d.Success, errMsg).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append llm request: %w", err)
	}
	return nil
}

func (r *llmRequestRepo) RecentLLMRequests(ctx context.Context, limit int) ([]LLMRequest, error) {
	sel := builder().
		Select("id", "created_at", "provider", "model", "purpose", "input_tokens", "output_tokens", "latency_ms", "success", "error_message").
		From(entsql.Table(LlmRequestsTable.Name)).
		OrderBy(entsql.Desc("id"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query llm requests: %w", err)
	}
	defer rows.Close()

	var out []LLMRequest
	for rows.Next() {
		var (
			e      LLMRequest
			errMsg sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Provider, &e.Model, &e.Purpose,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success, &errMsg); err != nil {
			return nil, fmt.Errorf("scan llm request: %w", err)
		}
		e.ErrorMessage = errMsg.String
		out = append(out, e)
	}
	return out, rows.Err()
}
