package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Attempt is the local record of one assessment attempt.
type Attempt struct {
	ID             string
	AssessmentID   string
	StudentID      string
	Step           int
	Total          int
	StartedAt      time.Time
	CompletedAt    *time.Time
	Score          *int
	CertifiedLevel string
	Answered       int
	Forced         bool
}

// Completed reports whether the attempt was submitted and scored.
func (a Attempt) Completed() bool {
	return a.CompletedAt != nil
}

// Completion is the outcome recorded when an attempt is submitted.
type Completion struct {
	Score          int
	CertifiedLevel string
	Answered       int
	Forced         bool
	CompletedAt    time.Time
}

// AttemptRepo records the local attempt history.
type AttemptRepo interface {
	// RecordStart stores a newly started attempt and returns its local ID.
	RecordStart(ctx context.Context, a Attempt) (string, error)

	// RecordCompletion stores the server result for an attempt.
	RecordCompletion(ctx context.Context, assessmentID string, c Completion) error

	// Recent returns up to limit attempts, newest first.
	Recent(ctx context.Context, limit int) ([]Attempt, error)

	// ByAssessment returns the attempt for a server assessment ID.
	ByAssessment(ctx context.Context, assessmentID string) (*Attempt, error)
}

var attemptColumns = []string{
	"id", "assessment_id", "student_id", "step", "total",
	"started_at", "completed_at", "score", "certified_level", "answered", "forced",
}

type attemptRepo struct {
	db  *sql.DB
	log zerolog.Logger
}

func (r *attemptRepo) RecordStart(ctx context.Context, a Attempt) (string, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now()
	}
	query, args := builder().Insert(AttemptsTable.Name).
		Columns("id", "assessment_id", "student_id", "step", "total", "started_at", "answered", "forced").
		Values(a.ID, a.AssessmentID, a.StudentID, a.Step, a.Total, a.StartedAt.UTC(), 0, false).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("record attempt start: %w", err)
	}
	r.log.Info().
		Str("attempt_id", a.ID).
		Str("assessment_id", a.AssessmentID).
		Int("step", a.Step).
		Msg("attempt started")
	return a.ID, nil
}

func (r *attemptRepo) RecordCompletion(ctx context.Context, assessmentID string, c Completion) error {
	if c.CompletedAt.IsZero() {
		c.CompletedAt = time.Now()
	}
	query, args := builder().Update(AttemptsTable.Name).
		Set("completed_at", c.CompletedAt.UTC()).
		Set("score", c.Score).
		Set("certified_level", c.CertifiedLevel).
		Set("answered", c.Answered).
		Set("forced", c.Forced).
		Where(entsql.EQ("assessment_id", assessmentID)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("record attempt completion: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record attempt completion %s: %w", assessmentID, ErrNotFound)
	}
	r.log.Info().
		Str("assessment_id", assessmentID).
		Int("score", c.Score).
		Str("certified_level", c.CertifiedLevel).
		Bool("forced", c.Forced).
		Msg("attempt completed")
	return nil
}

func (r *attemptRepo) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	sel := builder().
		Select(attemptColumns...).
		From(entsql.Table(AttemptsTable.Name)).
		OrderBy(entsql.Desc("started_at"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *attemptRepo) ByAssessment(ctx context.Context, assessmentID string) (*Attempt, error) {
	query, args := builder().
		Select(attemptColumns...).
		From(entsql.Table(AttemptsTable.Name)).
		Where(entsql.EQ("assessment_id", assessmentID)).
		Query()

	a, err := scanAttempt(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attempt %s: %w", assessmentID, ErrNotFound)
	}
	return a, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (*Attempt, error) {
	var (
		a           Attempt
		completedAt sql.NullTime
		score       sql.NullInt64
		level       sql.NullString
	)
	err := row.Scan(&a.ID, &a.AssessmentID, &a.StudentID, &a.Step, &a.Total,
		&a.StartedAt, &completedAt, &score, &level, &a.Answered, &a.Forced)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan attempt: %w", err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	if score.Valid {
		s := int(score.Int64)
		a.Score = &s
	}
	a.CertifiedLevel = level.String
	return &a, nil
}
