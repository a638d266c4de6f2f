package commands

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"focusflow/pkg/database"
)

// PurgeOptions selects the tasks to delete
type PurgeOptions struct {
	Query       database.TaskQuery
	SkipConfirm bool
}

// HandlePurgeCommand deletes every task matching the options after asking
// for confirmation on env.In
func HandlePurgeCommand(ctx context.Context, env *Env, opts PurgeOptions) (int64, error) {
	out := env.out()
	if !opts.SkipConfirm {
		fmt.Fprint(out, "Are you sure you want to delete these tasks? (y/N): ")
		response, _ := bufio.NewReader(env.in()).ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(out, "Operation cancelled.")
			return 0, nil
		}
	}

	affected, err := env.Tasks.Purge(ctx, opts.Query)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(out, "Successfully deleted %d task(s)\n", affected)
	return affected, nil
}
