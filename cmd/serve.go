package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/assessly/internal/devserver"
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the in-memory development API server",
	Annotations: map[string]string{logTarget: logTargetOut},
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.ServerAddr
		}

		srv, err := devserver.New(devserver.Config{
			JWTSecret: cfg.JWTSecret,
			JWTExpiry: cfg.JWTExpiry,
		}, log)
		if err != nil {
			return err
		}
		return srv.Run(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (defaults to ASSESSLY_SERVER_ADDR)")
}
