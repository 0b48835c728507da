package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/id8-org/id8/internal/idea"
)

func newWatchCommand(app *App) *cobra.Command {
	var intervalFlag time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the background board reconciler",
		Long: `Poll the backend on a fixed period, keep a local board snapshot
fresh, and record newly surfaced ideas into the seen set. Ideas with a
transition in flight keep their local state until it commits or rolls
back. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			recon := app.Reconciler
			done := make(chan error, 1)
			go func() { done <- recon.Run(ctx) }()

			ticker := time.NewTicker(intervalFlag)
			defer ticker.Stop()

			for {
				select {
				case err := <-done:
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				case <-ticker.C:
					printBoard(cmd, recon.Snapshot())
				}
			}
		},
	}

	cmd.Flags().DurationVar(&intervalFlag, "print-interval", 10*time.Second, "how often to print the board snapshot")

	return cmd
}

// printBoard writes a per-stage count summary plus one line per idea.
func printBoard(cmd *cobra.Command, board []idea.Idea) {
	out := cmd.OutOrStdout()

	counts := make(map[idea.Stage]int, len(board))
	for _, it := range board {
		counts[it.Status]++
	}

	fmt.Fprintf(out, "-- board: %d ideas --\n", len(board))
	for _, stage := range idea.Stages() {
		if counts[stage] == 0 {
			continue
		}
		fmt.Fprintf(out, "%s (%d):\n", stage, counts[stage])
		for _, it := range board {
			if it.Status == stage {
				fmt.Fprintf(out, "  %s  %s\n", it.ID, it.Title)
			}
		}
	}
}
