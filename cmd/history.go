package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/assessly/internal/api"
	"github.com/abhisek/assessly/internal/catalog"
	"github.com/abhisek/assessly/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past assessment attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		remote, _ := cmd.Flags().GetBool("remote")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if remote {
			return printRemoteHistory(cmd, st)
		}

		attempts, err := st.Attempts().Recent(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query attempts: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(attempts) == 0 {
			fmt.Fprintln(out, "No attempts recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-16s  %-22s  %-6s  %-20s  %-8s  %s\n",
			"Started", "Step", "Score", "Result", "Answered", "Assessment")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, a := range attempts {
			score, result := "-", "in progress"
			if a.Score != nil {
				score = fmt.Sprintf("%d%%", *a.Score)
				result = a.CertifiedLevel
				if a.Forced {
					result += " (time)"
				}
			}
			fmt.Fprintf(out, "%-16s  %-22s  %-6s  %-20s  %-8s  %s\n",
				a.StartedAt.Local().Format("2006-01-02 15:04"),
				stepLabel(a.Step),
				score,
				result,
				fmt.Sprintf("%d/%d", a.Answered, a.Total),
				a.AssessmentID,
			)
		}
		return nil
	},
}

func printRemoteHistory(cmd *cobra.Command, st *store.Store) error {
	ctx := cmd.Context()
	client, id, err := authedClient(ctx, st)
	if err != nil {
		return err
	}
	list, err := client.ListAssessments(ctx, id.StudentID)
	if err != nil {
		return describeAPIError(err)
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No assessments on the server yet.")
		return nil
	}
	for _, a := range list {
		fmt.Fprintf(out, "%s  %-22s  %s\n", a.StartedAt.Local().Format("2006-01-02 15:04"), stepLabel(a.Step), remoteResult(a))
		fmt.Fprintf(out, "  id: %s\n", a.ID)
	}
	return nil
}

func remoteResult(a api.Assessment) string {
	if a.Score == nil {
		return "not submitted"
	}
	return fmt.Sprintf("%d%% %s", *a.Score, a.CertifiedLevel)
}

func stepLabel(n int) string {
	s, ok := catalog.Lookup(n)
	if !ok {
		return fmt.Sprintf("Step %d", n)
	}
	return fmt.Sprintf("%d %s (%s)", s.Number, s.Name, s.LevelLabel())
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Number of attempts to show")
	historyCmd.Flags().Bool("remote", false, "List attempts recorded by the server instead")
}
