package cli

import (
	"context"

	"github.com/spf13/cobra"

	"focusflow/pkg/commands"
)

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change timer and goal preferences",
	}

	var showFormat string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				return commands.HandleSettingsShow(env, showFormat)
			})
		},
	}
	show.Flags().StringVarP(&showFormat, "format", "f", "yaml", "Output format (yaml, json, toml)")

	set := &cobra.Command{
		Use:     "set <key=value>...",
		Short:   "Change settings, e.g. focus_minutes=50 auto_start_breaks=false",
		Args:    cobra.MinimumNArgs(1),
		Example: "  focusflow settings set focus_minutes=50 daily_goal=6",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				_, err := commands.HandleSettingsSet(ctx, env, args)
				return err
			})
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				_, err := commands.HandleSettingsReset(ctx, env)
				return err
			})
		},
	}

	var exportFormat string
	export := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the settings to a json, yaml or toml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				return commands.HandleSettingsExport(env, args[0], exportFormat)
			})
		},
	}
	export.Flags().StringVarP(&exportFormat, "format", "f", "", "File format, defaults to the extension")

	var importFormat string
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge settings from a json, yaml or toml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				_, err := commands.HandleSettingsImport(ctx, env, args[0], importFormat)
				return err
			})
		},
	}
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "File format, defaults to the extension")

	cmd.AddCommand(show, set, reset, export, importCmd)
	return cmd
}
