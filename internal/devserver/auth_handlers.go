package devserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/assessly/internal/api"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,min=2,max=100"`
}

type verifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Token string `json:"token" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/register
func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if fields := bind(c, &req); fields != nil {
		failWithFields(c, http.StatusUnprocessableEntity, api.CodeValidation, fields)
		return
	}

	u, err := s.users.Register(req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, errEmailTaken) {
			failWithFields(c, http.StatusConflict, api.CodeConflict, map[string]string{"email": "email is already registered"})
			return
		}
		s.log.Error().Err(err).Msg("register")
		fail(c, http.StatusInternalServerError, api.CodeInternal)
		return
	}

	s.log.Info().
		Str("email", u.Email).
		Str("verification_token", u.VerifyToken).
		Msg("account registered, verification token issued")
	success(c, http.StatusCreated, u.toAPI())
}

// POST /api/auth/verify
func (s *Server) verify(c *gin.Context) {
	var req verifyRequest
	if fields := bind(c, &req); fields != nil {
		failWithFields(c, http.StatusUnprocessableEntity, api.CodeValidation, fields)
		return
	}

	u, err := s.users.Verify(req.Email, req.Token)
	if err != nil {
		failWithFields(c, http.StatusUnprocessableEntity, api.CodeValidation, map[string]string{"token": "verification token is invalid"})
		return
	}
	success(c, http.StatusOK, u.toAPI())
}

// POST /api/auth/login
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if fields := bind(c, &req); fields != nil {
		failWithFields(c, http.StatusUnprocessableEntity, api.CodeValidation, fields)
		return
	}

	u, err := s.users.Authenticate(req.Email, req.Password)
	switch {
	case errors.Is(err, errNotVerified):
		fail(c, http.StatusForbidden, api.CodeEmailNotVerified)
		return
	case err != nil:
		fail(c, http.StatusUnauthorized, api.CodeInvalidCredentials)
		return
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		s.log.Error().Err(err).Msg("issue token")
		fail(c, http.StatusInternalServerError, api.CodeInternal)
		return
	}
	success(c, http.StatusOK, api.Session{Token: token, User: u.toAPI()})
}

// GET /api/auth/me
func (s *Server) me(c *gin.Context) {
	claims := claimsFrom(c)
	if claims == nil {
		fail(c, http.StatusUnauthorized, api.CodeTokenRequired)
		return
	}
	u, err := s.users.Get(claims.Subject)
	if err != nil {
		notFound(c)
		return
	}
	success(c, http.StatusOK, u.toAPI())
}
