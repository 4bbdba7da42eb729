package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/assessly/internal/app"
	"github.com/abhisek/assessly/internal/coach"
	"github.com/abhisek/assessly/internal/llm"
)

var playCmd = &cobra.Command{
	Use:         "play",
	Short:       "Open the assessment TUI",
	Annotations: map[string]string{logTarget: logTargetFile},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

// runApp opens the store, restores the saved session, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	opts := app.Options{
		Store:       st,
		DownloadDir: cfg.DownloadDir,
		Logger:      log,
	}

	creds, id, err := savedSession(ctx, st)
	switch {
	case err == nil:
		opts.Client = newClient(creds.Token)
		opts.Identity = id
		opts.Email = creds.Email
	case errors.Is(err, errNotLoggedIn):
		opts.Client = newClient("")
		if creds != nil {
			opts.Email = creds.Email
		}
	default:
		return err
	}

	if err := checkServer(ctx, opts.Client); err != nil {
		return err
	}

	// The study coach is optional; the app works without it.
	if llmCfg, ok := llm.ResolveConfig(); ok {
		provider, err := llm.NewProvider(ctx, llmCfg, st.LLMRequests(), log)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Study coach not configured:", err)
			fmt.Fprintln(os.Stderr, "Study plans will be unavailable.")
		} else {
			opts.Coach = coach.NewService(provider, coach.DefaultConfig())
		}
	}

	log.Info().
		Str("api_url", cfg.APIURL).
		Bool("logged_in", opts.Identity != nil).
		Bool("coach", opts.Coach != nil).
		Msg("starting TUI")
	return app.Run(opts)
}
