package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/id8-org/id8/internal/idea"
	"github.com/id8-org/id8/internal/orchestrator"
)

// flagClosureGate confirms a move to closed from the --reason flag.
// An empty reason declines, aborting the transition before any state
// is applied.
type flagClosureGate struct {
	reason string
}

func (g flagClosureGate) Confirm(ctx context.Context, it *idea.Idea) (string, bool, error) {
	if g.reason == "" {
		return "", false, nil
	}
	return g.reason, true, nil
}

func newAdvanceCommand(app *App) *cobra.Command {
	var (
		fromFlag   string
		reasonFlag string
	)

	cmd := &cobra.Command{
		Use:   "advance <idea-id> <to-stage>",
		Short: "Move an idea to another lifecycle stage",
		Long: `Move an idea to another lifecycle stage, running every background
analysis job the destination stage requires, in dependency order.

Skipping forward back-fills all intermediate stages: advancing a
suggested idea straight to considering runs deep-dive, iteration, and
consideration analysis in sequence. Moving backward runs no jobs.

On failure the idea's status is rolled back and the exit code is 2;
results already produced by completed analysis stages are kept.

Moving to closed requires --reason; omitting it aborts the move.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ideaID := args[0]
			to := idea.Stage(args[1])
			if !to.IsValid() {
				return fmt.Errorf("invalid stage %q (valid: %v)", args[1], idea.Stages())
			}

			from := idea.Stage(fromFlag)
			if fromFlag == "" {
				it, err := app.Store.FetchIdea(cmd.Context(), ideaID)
				if err != nil {
					return err
				}
				from = it.Status
			} else if !from.IsValid() {
				return fmt.Errorf("invalid stage %q (valid: %v)", fromFlag, idea.Stages())
			}

			app.Orchestrator.SetClosureGate(flagClosureGate{reason: reasonFlag})

			result, err := app.Orchestrator.Transition(cmd.Context(), orchestrator.Request{
				IdeaID: ideaID,
				From:   from,
				To:     to,
			})
			if err != nil {
				switch {
				case errors.Is(err, orchestrator.ErrClosureDeclined):
					fmt.Fprintln(cmd.OutOrStdout(), "Closure needs a reason; pass --reason to confirm.")
					return NewExitError(1)
				case errors.Is(err, orchestrator.ErrIdeaVanished):
					fmt.Fprintf(cmd.OutOrStdout(), "Idea %s no longer exists; remove it from your board.\n", ideaID)
					return NewExitError(1)
				case errors.Is(err, orchestrator.ErrTransitionInFlight):
					fmt.Fprintf(cmd.OutOrStdout(), "Idea %s already has a transition running; try again once it finishes.\n", ideaID)
					return NewExitError(1)
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			if result.State == orchestrator.StateRolledBack {
				return NewExitError(2)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "current stage (default: fetched from the backend)")
	cmd.Flags().StringVar(&reasonFlag, "reason", "", "closure reason, required when moving to closed")

	return cmd
}
