package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/assessly/internal/api"
	"github.com/abhisek/assessly/internal/auth"
	"github.com/abhisek/assessly/internal/store"
)

var errNotLoggedIn = errors.New("not logged in (run `assessly login`)")

// savedSession loads the remembered login. Expired sessions are cleared.
func savedSession(ctx context.Context, st *store.Store) (*store.Credentials, *auth.Identity, error) {
	creds, err := st.Credentials().Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load credentials: %w", err)
	}
	if creds == nil {
		return nil, nil, errNotLoggedIn
	}

	id, err := auth.ParseIdentity(creds.Token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			if clearErr := st.Credentials().Clear(ctx); clearErr != nil {
				log.Warn().Err(clearErr).Msg("failed to clear expired credentials")
			}
			return creds, nil, fmt.Errorf("session expired: %w", errNotLoggedIn)
		}
		return creds, nil, fmt.Errorf("saved session: %w", err)
	}
	if creds.APIURL != "" && creds.APIURL != cfg.APIURL {
		log.Warn().Str("saved", creds.APIURL).Str("configured", cfg.APIURL).Msg("saved session belongs to a different API")
	}
	return creds, id, nil
}

// authedClient returns a client carrying the saved session token.
func authedClient(ctx context.Context, st *store.Store) (*api.Client, *auth.Identity, error) {
	creds, id, err := savedSession(ctx, st)
	if err != nil {
		return nil, nil, err
	}
	return newClient(creds.Token), id, nil
}

// checkServer verifies the server is reachable and speaks a compatible API.
func checkServer(ctx context.Context, client *api.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	h, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("reach API at %s: %w", client.BaseURL(), err)
	}
	if err := api.CheckCompatibility(h.Version, cfg.MinAPIVersion); err != nil {
		return err
	}
	log.Debug().Str("version", h.Version).Msg("API compatible")
	return nil
}

func saveSession(ctx context.Context, st *store.Store, email string, s *api.Session) error {
	return st.Credentials().Save(ctx, store.Credentials{
		Token:   s.Token,
		Email:   email,
		APIURL:  cfg.APIURL,
		SavedAt: time.Now(),
	})
}
