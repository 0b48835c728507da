// Package cli wires the id8 commands together.
//
// The [App] container holds the shared collaborators (backend client,
// orchestrator, reconciler, shortlist store) built once from the
// loaded configuration. Commands receive the App and stay thin:
// argument parsing, a call into the orchestration packages, and
// output.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/id8-org/id8/internal/api"
	"github.com/id8-org/id8/internal/cascade"
	"github.com/id8-org/id8/internal/config"
	"github.com/id8-org/id8/internal/jobs"
	"github.com/id8-org/id8/internal/notify"
	"github.com/id8-org/id8/internal/orchestrator"
	"github.com/id8-org/id8/internal/poll"
	"github.com/id8-org/id8/internal/router"
	"github.com/id8-org/id8/internal/shortlist"
)

// App holds the wired collaborators shared by all commands.
type App struct {
	Config       *config.Config
	Store        *api.Client
	Orchestrator *orchestrator.Orchestrator
	Reconciler   *orchestrator.Reconciler
	Shortlist    *shortlist.Store
}

// NewApp builds the full collaborator graph from a configuration.
func NewApp(cfg *config.Config) *App {
	store := api.NewClient(cfg.API.BaseURL, api.WithTimeout(cfg.API.Timeout))

	var sink notify.Sink = notify.Noop{}
	if cfg.Notifications.Enabled {
		sink = notify.NewConsole(os.Stdout)
	}

	executor := cascade.NewExecutor(
		jobs.NewClient(store),
		poll.NewWithPolicy(store, cfg.Poll.Interval, cfg.Poll.MaxAttempts),
		sink,
	)

	orch := orchestrator.New(store, router.NewRouter(), executor)

	recon := orchestrator.NewReconciler(store, orch, cfg.Reconcile.Interval)
	sl := shortlist.NewStoreWithPath("", cfg.Shortlist.Path)
	recon.SetSeenStore(sl)

	return &App{
		Config:       cfg,
		Store:        store,
		Orchestrator: orch,
		Reconciler:   recon,
		Shortlist:    sl,
	}
}

// NewRootCommand builds the id8 command tree over an App.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "id8",
		Short:         "Drive ideas through their lifecycle stages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newAdvanceCommand(app))
	root.AddCommand(newPlanCommand(app))
	root.AddCommand(newWatchCommand(app))
	root.AddCommand(newShortlistCommand(app))

	return root
}

// ExecuteResult reports how a CLI invocation ended.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// RunWithConfig executes the command tree with the given configuration
// and arguments, returning the exit code instead of terminating the
// process. Tests use this entry point.
func RunWithConfig(cfg *config.Config, args []string) ExecuteResult {
	app := NewApp(cfg)
	root := NewRootCommand(app)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return ExecuteResult{ExitCode: 0}
}

// Execute is the process entry point: it loads configuration, runs the
// command tree, and exits with the resulting code.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	result := RunWithConfig(cfg, os.Args[1:])
	if result.ExitCode != 0 {
		os.Exit(result.ExitCode)
	}
}
