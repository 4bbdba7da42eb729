package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var body LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ada@example.com", body.Email)
			writeEnvelope(t, w, http.StatusOK, map[string]any{
				"token": "jwt-token",
				"user":  map[string]any{"id": "u1", "email": body.Email, "name": "Ada", "role": "student", "verified": true},
			})
		case "/api/auth/me":
			assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
			writeEnvelope(t, w, http.StatusOK, map[string]any{"id": "u1", "email": "ada@example.com"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	assert.False(t, c.Authenticated())

	s, err := c.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "u1", s.User.ID)
	assert.True(t, c.Authenticated())

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
}

func TestRegisterValidatesLocally(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := New(srv.URL).Register(context.Background(), RegisterRequest{Email: "not-an-email", Password: "short", Name: "A"})
	require.Error(t, err)
	assert.False(t, called)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeValidation, apiErr.Code)
	assert.Contains(t, apiErr.Fields, "email")
	assert.Contains(t, apiErr.Fields, "password")
	assert.Contains(t, apiErr.Fields, "name")
}

func TestRegisterAndVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/register":
			writeEnvelope(t, w, http.StatusCreated, map[string]any{"id": "u1", "email": "ada@example.com", "verified": false})
		case "/api/auth/verify":
			var body VerifyRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "123456", body.Token)
			writeEnvelope(t, w, http.StatusOK, map[string]any{"id": "u1", "email": "ada@example.com", "verified": true})
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	u, err := c.Register(context.Background(), RegisterRequest{Email: "ada@example.com", Password: "long-enough", Name: "Ada"})
	require.NoError(t, err)
	assert.False(t, u.Verified)

	u, err = c.VerifyEmail(context.Background(), VerifyRequest{Email: "ada@example.com", Token: "123456"})
	require.NoError(t, err)
	assert.True(t, u.Verified)
}

func TestLoginFieldErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelopeError(t, w, http.StatusUnauthorized, CodeInvalidCredentials, "invalid credentials", nil)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.True(t, HasCode(err, CodeInvalidCredentials))
	assert.False(t, c.Authenticated())
}

func TestErrorMessageIncludesFields(t *testing.T) {
	e := &Error{StatusCode: 422, Code: CodeValidation, Message: "invalid", Fields: map[string]string{"b": "bad", "a": "worse"}}
	assert.Equal(t, "api error 422 VALIDATION_ERROR: invalid (a: worse; b: bad)", e.Error())
}
