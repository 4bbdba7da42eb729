// Package devserver is an in-memory implementation of the Assessly REST API
// for local development and end-to-end tests of the client.
//
// Accounts, attempts and issued tokens live only as long as the process.
// Email verification tokens are logged instead of mailed.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Config configures the development server.
type Config struct {
	JWTSecret string
	JWTExpiry time.Duration
	// Version is reported by /api/health.
	Version string
	// BcryptCost defaults to bcrypt.DefaultCost when zero.
	BcryptCost int
	// QuestionBank overrides the embedded seed questions (YAML).
	QuestionBank []byte
}

// Server holds the in-memory state behind the API.
type Server struct {
	cfg      Config
	log      zerolog.Logger
	tokens   *tokenIssuer
	users    *userStore
	attempts *attemptStore
	bank     *questionBank
}

// New creates a server with an empty user table and the seeded question bank.
func New(cfg Config, log zerolog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("devserver: JWT secret is required")
	}
	if cfg.JWTExpiry <= 0 {
		cfg.JWTExpiry = 24 * time.Hour
	}
	if cfg.Version == "" {
		cfg.Version = "v1.0.0"
	}
	data := cfg.QuestionBank
	if data == nil {
		data = seedQuestions
	}
	bank, err := loadBank(data)
	if err != nil {
		return nil, fmt.Errorf("devserver: %w", err)
	}

	setupBinding()

	return &Server{
		cfg:      cfg,
		log:      log.With().Str("component", "devserver").Logger(),
		tokens:   newTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry),
		users:    newUserStore(cfg.BcryptCost),
		attempts: newAttemptStore(),
		bank:     bank,
	}, nil
}

// Handler builds the gin engine with all routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	r.Use(requestID())
	r.Use(accessLog(s.log))

	r.NoRoute(notFound)

	apiGroup := r.Group("/api")
	apiGroup.GET("/health", s.health)

	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/verify", s.verify)
		authGroup.POST("/login", s.login)
		authGroup.GET("/me", s.requireAuth(), s.me)
	}

	assessments := apiGroup.Group("/assessments")
	assessments.Use(s.requireAuth())
	{
		assessments.GET("", s.listAssessments)
		assessments.POST("/start", s.startAssessment)
		assessments.GET("/:id/questions", s.questions)
		assessments.POST("/:id/submit", s.submit)
		assessments.GET("/:id/certificate", s.certificate)
	}

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Str("version", s.cfg.Version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	success(c, http.StatusOK, gin.H{"status": "ok", "version": s.cfg.Version})
}
