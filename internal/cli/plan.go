package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/id8-org/id8/internal/idea"
	"github.com/id8-org/id8/internal/router"
)

func newPlanCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <from-stage> <to-stage>",
		Short: "Preview the analysis jobs a transition would run",
		Long: `Preview which background analysis jobs a stage transition requires,
in the order they would run, without touching any idea.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to := idea.Stage(args[0]), idea.Stage(args[1])

			jobs, err := router.RequiredJobs(from, to)
			if err != nil {
				return fmt.Errorf("%w (valid: %v)", err, idea.Stages())
			}

			if len(jobs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s → %s: no analysis jobs required\n", from, to)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s → %s:\n", from, to)
			for i, kind := range jobs {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, kind)
			}
			return nil
		},
	}
}
