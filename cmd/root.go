package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/assessly/internal/api"
	"github.com/abhisek/assessly/internal/config"
	"github.com/abhisek/assessly/internal/logging"
	"github.com/abhisek/assessly/internal/store"
)

// Commands annotated with logTarget write logs somewhere other than stderr.
const (
	logTarget     = "log-target"
	logTargetFile = "file"
	logTargetOut  = "stdout"
)

var (
	cfg       *config.Config
	log       = zerolog.Nop()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "assessly",
	Short:         "Digital competency assessments in your terminal",
	Long:          "Assessly — take timed, three-step digital competency assessments (A1 to C2) and earn certificates from the terminal.",
	Annotations:   map[string]string{logTarget: logTargetFile},
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("api-url", "", "Assessly API base URL (overrides ASSESSLY_API_URL)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides ASSESSLY_DB)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error (overrides ASSESSLY_LOG_LEVEL)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(certificateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration, applies flag overrides, and configures logging
// for the command being run.
func setup(cmd *cobra.Command) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("api-url"); v != "" {
		c.APIURL = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		c.DBPath = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		c.LogLevel = v
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	switch cmd.Annotations[logTarget] {
	case logTargetFile:
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return err
		}
		logCloser = f
		log = logging.Setup(cfg.LogLevel, "json", f)
	case logTargetOut:
		log = logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	default:
		log = logging.Setup(cfg.LogLevel, "pretty", os.Stderr)
	}
	return nil
}

// openStore opens the local database at the configured path.
func openStore() (*store.Store, error) {
	if err := store.EnsureDir(cfg.DBPath); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	st, err := store.Open(cfg.DBPath, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newClient builds an API client for the configured server.
func newClient(token string) *api.Client {
	return api.New(cfg.APIURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithToken(token),
		api.WithLogger(log),
	)
}
