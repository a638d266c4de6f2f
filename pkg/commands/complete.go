package commands

import (
	"context"
	"fmt"
	"io"

	"focusflow/pkg/database"
	"focusflow/pkg/progress"
)

// HandleDone completes tasks through the session so their points are awarded
func HandleDone(ctx context.Context, env *Env, ids []int64) error {
	out := env.out()
	for _, id := range ids {
		before, err := env.Tasks.Get(ctx, id)
		if err != nil {
			return err
		}
		if before.Completed {
			fmt.Fprintf(out, "Task %d already completed: %s\n", before.ID, before.Title)
			continue
		}
		task, events, err := env.Session.CompleteTask(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Completed task %d: %s\n", task.ID, task.Title)
		if len(events) == 0 {
			fmt.Fprintln(out, "  points were already awarded")
		}
		printEvents(out, events)
	}
	return nil
}

// HandleUndo reopens completed tasks. Points stay awarded.
func HandleUndo(ctx context.Context, env *Env, ids []int64) error {
	for _, id := range ids {
		task, err := env.Session.ReopenTask(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.out(), "Reopened task %d: %s\n", task.ID, task.Title)
	}
	return nil
}

// HandleRemove deletes tasks
func HandleRemove(ctx context.Context, env *Env, ids []int64) error {
	for _, id := range ids {
		if _, err := env.Tasks.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(env.out(), "Deleted task %d\n", id)
	}
	return nil
}

// HandleMove places a task at a zero-based position in the list
func HandleMove(ctx context.Context, env *Env, id int64, position int) ([]database.Task, error) {
	tasks, err := env.Tasks.Move(ctx, id, position)
	if err != nil {
		return nil, err
	}
	for i, task := range tasks {
		if task.ID == id {
			fmt.Fprintf(env.out(), "Moved task %d to position %d\n", id, i)
			break
		}
	}
	return tasks, nil
}

func printEvents(out io.Writer, events []progress.Event) {
	for _, e := range events {
		fmt.Fprintf(out, "  %s\n", progress.Describe(e))
	}
}
