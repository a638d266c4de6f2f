package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"focusflow/pkg/database"
)

// HandleExportCommand writes every task to filename as json or txt
func HandleExportCommand(ctx context.Context, env *Env, filename, exportType string) error {
	tasks, err := env.Tasks.List(ctx, database.TaskQuery{})
	if err != nil {
		return err
	}

	var content []byte
	switch exportType {
	case "json":
		content, err = json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal tasks to json: %w", err)
		}
	case "txt":
		content = []byte(formatTextTasks(tasks))
	default:
		return fmt.Errorf("unknown export type: %s", exportType)
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(filename, content, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}

	fmt.Fprintf(env.out(), "Successfully exported %d task(s) to %s\n", len(tasks), filename)
	return nil
}

// formatTextTasks groups tasks under their due date, undated tasks first
func formatTextTasks(tasks []database.Task) string {
	var lines []string
	lastDate := ""
	for _, undated := range []bool{true, false} {
		for _, task := range tasks {
			if (task.DueDate == nil) != undated {
				continue
			}
			if task.DueDate != nil {
				dateStr := task.DueDate.Format("02.01.2006")
				if dateStr != lastDate {
					lines = append(lines, "", dateStr+":")
					lastDate = dateStr
				}
			}

			status := " "
			if task.Completed {
				status = "x"
			}
			line := fmt.Sprintf("- [%s] %s", status, task.Title)
			if task.Priority != database.PriorityMedium {
				line += " !" + string(task.Priority)
			}
			lines = append(lines, line)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}
