package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"

	"focusflow/pkg/database"
)

// ListOptions narrows and formats the list command
type ListOptions struct {
	Query database.TaskQuery
	// TitleWidth truncates titles, 0 keeps them whole
	TitleWidth int
}

// HandleListTasks prints tasks in display order
func HandleListTasks(ctx context.Context, env *Env, opts ListOptions) ([]database.Task, error) {
	tasks, err := env.Tasks.List(ctx, opts.Query)
	if err != nil {
		return nil, err
	}

	out := env.out()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return tasks, nil
	}

	for _, task := range tasks {
		fmt.Fprintln(out, formatTaskLine(task, opts.TitleWidth))
	}
	return tasks, nil
}

func formatTaskLine(task database.Task, titleWidth int) string {
	status := "[ ]"
	if task.Completed {
		status = "[x]"
	}
	title := task.Title
	if titleWidth > 0 {
		title = truncate.StringWithTail(title, uint(titleWidth), "…")
	}

	cols := []string{
		padding.String(fmt.Sprintf("%d", task.ID), 4),
		status,
		padding.String(string(task.Priority), 7),
		padding.String(fmt.Sprintf("%dpt", task.Points), 5),
		title,
	}
	if task.DueDate != nil {
		cols = append(cols, "due "+task.DueDate.Format("2006-01-02"))
	}
	return strings.TrimRight(strings.Join(cols, " "), " ")
}
