package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-server-secret"))
	require.NoError(t, err)
	return tok
}

func TestParseIdentity(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signed(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "stu-42", ExpiresAt: jwt.NewNumericDate(exp)},
		Email:            "ada@example.com",
		Name:             "Ada",
		Role:             "student",
	})

	id, err := ParseIdentity(tok)
	require.NoError(t, err)
	assert.Equal(t, "stu-42", id.StudentID)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.Equal(t, "Ada", id.DisplayName())
	assert.Equal(t, "student", id.Role)
	assert.True(t, exp.Equal(id.ExpiresAt))
}

func TestParseIdentityExpired(t *testing.T) {
	tok := signed(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "stu-42", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	_, err := ParseIdentity(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseIdentityAtBoundary(t *testing.T) {
	exp := time.Unix(1_800_000_000, 0)
	tok := signed(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "s", ExpiresAt: jwt.NewNumericDate(exp)}})

	_, err := parseIdentityAt(tok, exp.Add(-time.Second))
	assert.NoError(t, err)
	_, err = parseIdentityAt(tok, exp)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseIdentityInvalid(t *testing.T) {
	_, err := ParseIdentity("")
	assert.ErrorIs(t, err, ErrTokenMissing)

	_, err = ParseIdentity("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	noSub := signed(t, Claims{Email: "x@example.com"})
	_, err = ParseIdentity(noSub)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestDisplayNameFallsBackToEmail(t *testing.T) {
	assert.Equal(t, "x@example.com", Identity{Email: "x@example.com"}.DisplayName())
}
