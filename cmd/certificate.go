package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var certificateCmd = &cobra.Command{
	Use:   "certificate <assessment-id>",
	Short: "Download the certificate of a passed assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir, _ := cmd.Flags().GetString("out")
		if dir == "" {
			dir = cfg.DownloadDir
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		client, _, err := authedClient(ctx, st)
		if err != nil {
			return err
		}
		cert, err := client.GenerateCertificate(ctx, args[0])
		if err != nil {
			return describeAPIError(err)
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create download dir: %w", err)
		}
		path, err := cert.SavePath(dir)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, cert.Body, 0o644); err != nil {
			return fmt.Errorf("write certificate: %w", err)
		}
		log.Info().Str("assessment_id", args[0]).Str("path", path).Msg("certificate saved")
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
		return nil
	},
}

func init() {
	certificateCmd.Flags().String("out", "", "Directory to save into (defaults to ASSESSLY_DOWNLOAD_DIR)")
}
