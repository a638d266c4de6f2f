package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"focusflow/pkg/analytics"
	"focusflow/pkg/commands"
	"focusflow/pkg/timer"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show level, points, streak and today's goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				return commands.HandleStats(ctx, env, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print json")
	return cmd
}

func newAnalyticsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	r := rangeValue{r: analytics.RangeWeek}
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Summarize completed tasks and focus sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				_, err := commands.HandleAnalytics(ctx, env, r.r, asJSON)
				return err
			})
		},
	}
	cmd.Flags().VarP(&r, "range", "r", "Period (today, week, month, year)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print json")
	return cmd
}

func newTimerCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Run the pomodoro timer without the UI",
	}

	var (
		interval time.Duration
		quiet    bool
	)
	mode := modeValue{mode: timer.ModeFocus}
	run := &cobra.Command{
		Use:   "run",
		Short: "Count one session down, a completed focus session earns its bonus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				_, err := commands.HandleTimerRun(ctx, env, commands.TimerOptions{
					Mode:     mode.mode,
					Interval: interval,
					Quiet:    quiet,
				})
				return err
			})
		},
	}
	run.Flags().VarP(&mode, "mode", "m", "Session to run (focus, short_break, long_break)")
	run.Flags().DurationVar(&interval, "interval", 0, "Length of one timer second, defaults to timer.tick_interval")
	run.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the start and the result")

	cmd.AddCommand(run)
	return cmd
}
