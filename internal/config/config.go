package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	APIURL         string        `validate:"required,url"`
	DBPath         string        `validate:"required"`
	LogLevel       string        `validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogFormat      string        `validate:"oneof=json pretty"`
	LogFile        string        `validate:"required"`
	DownloadDir    string        `validate:"required"`
	RequestTimeout time.Duration `validate:"min=1s"`
	// MinAPIVersion is the oldest server version this client talks to.
	MinAPIVersion string `validate:"required,startswith=v"`

	// Development server.
	ServerAddr string        `validate:"required,hostname_port"`
	JWTSecret  string        `validate:"required,min=16"`
	JWTExpiry  time.Duration `validate:"min=1m"`
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir, err := DataDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIURL:         getEnv("ASSESSLY_API_URL", "http://localhost:8080"),
		DBPath:         getEnv("ASSESSLY_DB", filepath.Join(dataDir, "assessly.db")),
		LogLevel:       getEnv("ASSESSLY_LOG_LEVEL", "info"),
		LogFormat:      getEnv("ASSESSLY_LOG_FORMAT", "json"),
		LogFile:        getEnv("ASSESSLY_LOG_FILE", filepath.Join(dataDir, "assessly.log")),
		DownloadDir:    getEnv("ASSESSLY_DOWNLOAD_DIR", "."),
		RequestTimeout: time.Duration(getEnvInt("ASSESSLY_REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		MinAPIVersion:  getEnv("ASSESSLY_MIN_API_VERSION", "v1.0.0"),
		ServerAddr:     getEnv("ASSESSLY_SERVER_ADDR", "localhost:8080"),
		JWTSecret:      getEnv("ASSESSLY_JWT_SECRET", "change-this-to-a-secure-random-string"),
		JWTExpiry:      time.Duration(getEnvInt("ASSESSLY_JWT_EXPIRY_HOURS", 24)) * time.Hour,
	}
	return cfg, nil
}

// Validate checks the configuration after flags have been applied.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return fmt.Errorf("invalid config %s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("invalid config: %w", err)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DataDir resolves the application data directory:
// $XDG_DATA_HOME/assessly, falling back to ~/.local/share/assessly.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "assessly"), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
