package cli

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"focusflow/pkg/commands"
	"focusflow/pkg/database"
)

func newTaskCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Short:   "Manage tasks",
		Aliases: []string{"tasks"},
	}
	cmd.AddCommand(
		newTaskAddCmd(opts),
		newTaskListCmd(opts),
		newTaskDoneCmd(opts),
		newTaskUndoCmd(opts),
		newTaskRemoveCmd(opts),
		newTaskMoveCmd(opts),
		newTaskImportCmd(opts),
		newTaskExportCmd(opts),
		newTaskPurgeCmd(opts),
	)
	return cmd
}

func newTaskAddCmd(opts *rootOptions) *cobra.Command {
	var (
		priority    priorityValue
		date        string
		description string
	)
	cmd := &cobra.Command{
		Use:   "add <text>...",
		Short: "Add a task, !high, !medium or !low in the text set its priority",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				_, err := commands.HandleAddTask(ctx, env, commands.AddOptions{
					Text:        strings.Join(args, " "),
					Description: description,
					Date:        date,
					Priority:    priority.priority,
				})
				return err
			})
		},
	}
	cmd.Flags().VarP(&priority, "priority", "p", "Priority (low, medium, high)")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Due date (YYYY-MM-DD, today or tomorrow)")
	cmd.Flags().StringVar(&description, "description", "", "Longer description")
	return cmd
}

func newTaskListCmd(opts *rootOptions) *cobra.Command {
	var (
		status   statusFlags
		priority priorityValue
		search   string
		due      string
		width    int
	)
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List tasks in display order",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := database.TaskQuery{
				Status:   status.filter(),
				Priority: priority.priority,
				Search:   search,
			}
			if due != "" {
				day, err := time.ParseInLocation("2006-01-02", due, time.Local)
				if err != nil {
					return usageErrorf("invalid --due %q, use YYYY-MM-DD", due)
				}
				query.DueOn = &day
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				_, err := commands.HandleListTasks(ctx, env, commands.ListOptions{Query: query, TitleWidth: width})
				return err
			})
		},
	}
	status.register(cmd.Flags())
	cmd.MarkFlagsMutuallyExclusive("done", "undone")
	cmd.Flags().Var(&priority, "priority", "Only tasks of this priority")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only tasks whose title or description contains this text")
	cmd.Flags().StringVar(&due, "due", "", "Only tasks due on this day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&width, "width", 60, "Truncate titles to this many columns, 0 disables")
	return cmd
}

func newTaskDoneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "done <id>...",
		Short:   "Complete tasks and collect their points",
		Aliases: []string{"complete"},
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				return commands.HandleDone(ctx, env, ids)
			})
		},
	}
}

func newTaskUndoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "undo <id>...",
		Short:   "Reopen completed tasks",
		Aliases: []string{"reopen"},
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				return commands.HandleUndo(ctx, env, ids)
			})
		},
	}
}

func newTaskRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Short:   "Delete tasks",
		Aliases: []string{"delete"},
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				return commands.HandleRemove(ctx, env, ids)
			})
		},
	}
}

func newTaskMoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <position>",
		Short: "Move a task to a zero-based position in the list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[:1])
			if err != nil {
				return err
			}
			position, err := strconv.Atoi(args[1])
			if err != nil || position < 0 {
				return usageErrorf("invalid position %q", args[1])
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				_, err := commands.HandleMove(ctx, env, ids[0], position)
				return err
			})
		},
	}
}

func newTaskImportCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import tasks from a json export or a text list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				_, err := commands.HandleImportCommand(ctx, env, args[0], format)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&format, "type", "t", "", "File type (json, txt), defaults to the extension")
	return cmd
}

func newTaskExportCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export every task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				return commands.HandleExportCommand(ctx, env, args[0], commands.ImportFormatFor(args[0], format))
			})
		},
	}
	cmd.Flags().StringVarP(&format, "type", "t", "", "File type (json, txt), defaults to the extension")
	return cmd
}

func newTaskPurgeCmd(opts *rootOptions) *cobra.Command {
	var (
		status   statusFlags
		priority priorityValue
		date     string
		yes      bool
	)
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every task matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := database.TaskQuery{Status: status.filter(), Priority: priority.priority}
			if date != "" {
				day, err := time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return usageErrorf("invalid --date %q, use YYYY-MM-DD", date)
				}
				query.DueOn = &day
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, env *commands.Env) error {
				_, err := commands.HandlePurgeCommand(ctx, env, commands.PurgeOptions{Query: query, SkipConfirm: yes})
				return err
			})
		},
	}
	status.register(cmd.Flags())
	cmd.MarkFlagsMutuallyExclusive("done", "undone")
	cmd.Flags().Var(&priority, "priority", "Only tasks of this priority")
	cmd.Flags().StringVar(&date, "date", "", "Only tasks due on this day (YYYY-MM-DD)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}
