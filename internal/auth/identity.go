// Package auth extracts the caller's identity from a session token.
//
// The client never holds the signing key, so claims are read without
// signature verification. The server verifies every request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMissing   = errors.New("no session token")
	ErrTokenMalformed = errors.New("malformed session token")
	ErrTokenExpired   = errors.New("session token expired")
)

// Claims is the token payload issued by the API.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Identity is who the client is acting as.
type Identity struct {
	StudentID string
	Email     string
	Name      string
	Role      string
	ExpiresAt time.Time
}

// DisplayName prefers the name, falling back to the email.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}

// ParseIdentity reads the identity from token. Expired tokens are rejected.
func ParseIdentity(token string) (*Identity, error) {
	return parseIdentityAt(token, time.Now())
}

func parseIdentityAt(token string, now time.Time) (*Identity, error) {
	if token == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}

	id := &Identity{
		StudentID: claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		Role:      claims.Role,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
		if !now.Before(id.ExpiresAt) {
			return nil, ErrTokenExpired
		}
	}
	return id, nil
}
