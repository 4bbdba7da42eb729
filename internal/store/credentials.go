package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/rs/zerolog"
)

// Credentials is the saved login session.
type Credentials struct {
	Token   string
	Email   string
	APIURL  string
	SavedAt time.Time
}

// CredentialRepo persists the single saved login session.
type CredentialRepo interface {
	// Save replaces any saved session.
	Save(ctx context.Context, c Credentials) error

	// Load returns the saved session, or nil if none exists.
	Load(ctx context.Context) (*Credentials, error)

	// Clear removes the saved session.
	Clear(ctx context.Context) error
}

const credentialsRowID = 1

type credentialRepo struct {
	db  *sql.DB
	log zerolog.Logger
}

func (r *credentialRepo) Save(ctx context.Context, c Credentials) error {
	if c.SavedAt.IsZero() {
		c.SavedAt = time.Now()
	}
	query, args := builder().Insert(CredentialsTable.Name).
		Columns("id", "token", "email", "api_url", "saved_at").
		Values(credentialsRowID, c.Token, c.Email, c.APIURL, c.SavedAt.UTC()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	r.log.Debug().Str("email", c.Email).Msg("credentials saved")
	return nil
}

func (r *credentialRepo) Load(ctx context.Context) (*Credentials, error) {
	query, args := builder().
		Select("token", "email", "api_url", "saved_at").
		From(entsql.Table(CredentialsTable.Name)).
		Where(entsql.EQ("id", credentialsRowID)).
		Query()

	var c Credentials
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&c.Token, &c.Email, &c.APIURL, &c.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	return &c, nil
}

func (r *credentialRepo) Clear(ctx context.Context) error {
	query, args := builder().Delete(CredentialsTable.Name).Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	r.log.Debug().Msg("credentials cleared")
	return nil
}
