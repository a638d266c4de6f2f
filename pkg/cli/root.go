package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"focusflow/pkg/commands"
	"focusflow/pkg/keymaps"
	"focusflow/pkg/ui"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// NewRootCmd builds the focusflow command tree. Without a subcommand it
// starts the terminal UI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "focusflow",
		Short:         "FocusFlow - a pomodoro timer and task list that keeps score",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &exitError{code: exitUsage, err: err}
	})

	root.AddCommand(
		newTaskCmd(opts),
		newSettingsCmd(opts),
		newStatsCmd(opts),
		newAnalyticsCmd(opts),
		newTimerCmd(opts),
	)
	return root
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return exitFailure
}

// withApp opens the stores for the duration of one command
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app, env *commands.Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, opts)
	if err != nil {
		return classify(err)
	}
	defer a.Close()
	return classify(fn(ctx, a, a.env(cmd.OutOrStdout(), cmd.InOrStdin())))
}

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return usageErrorf("the interactive UI needs a terminal, try 'focusflow task list' or 'focusflow --help'")
	}

	return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
		model := ui.New(ui.Options{
			Session:   a.session,
			Tasks:     a.tasks,
			Analytics: a.analytics,
			Styles:    a.styles,
			KeyMap:    keymaps.BuildKeyMap(a.cfg.KeyMap),
			Context:   ctx,
		})
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
}
