package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"focusflow/pkg/database"
)

// ImportFormatFor picks the task import format from a file extension
func ImportFormatFor(filename, explicit string) string {
	if explicit != "" {
		return strings.ToLower(explicit)
	}
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return "json"
	}
	return "txt"
}

// HandleImportCommand reads tasks from a json export or a plain text list
func HandleImportCommand(ctx context.Context, env *Env, filename, format string) (int, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", filename, err)
	}

	var inputs []database.TaskInput
	switch ImportFormatFor(filename, format) {
	case "json":
		inputs, err = parseJSONTasks(content)
	case "txt":
		inputs, err = parseTextTasks(string(content), env.now().Location())
	default:
		return 0, fmt.Errorf("unknown import type: %s", format)
	}
	if err != nil {
		return 0, err
	}

	added := 0
	for _, in := range inputs {
		if _, err := env.Tasks.Create(ctx, in); err != nil {
			return added, fmt.Errorf("add task %q: %w", in.Title, err)
		}
		added++
	}

	fmt.Fprintf(env.out(), "Successfully imported %d task(s) from %s\n", added, filename)
	return added, nil
}

func parseJSONTasks(content []byte) ([]database.TaskInput, error) {
	var tasks []database.Task
	if err := json.Unmarshal(content, &tasks); err != nil {
		return nil, fmt.Errorf("%w: parse json: %v", database.ErrInvalidTask, err)
	}
	inputs := make([]database.TaskInput, 0, len(tasks))
	for _, task := range tasks {
		inputs = append(inputs, database.TaskInput{
			Title:       task.Title,
			Description: task.Description,
			Priority:    task.Priority,
			DueDate:     task.DueDate,
			Completed:   task.Completed,
		})
	}
	return inputs, nil
}

var dateHeader = regexp.MustCompile(`^(?:(\d{2})\.(\d{2})\.(\d{4})|(\d{4})-(\d{2})-(\d{2})):?$`)

// parseTextTasks reads date headers (DD.MM.YYYY: or YYYY-MM-DD:) followed by
// "- [x] title !priority" lines
func parseTextTasks(content string, loc *time.Location) ([]database.TaskInput, error) {
	var inputs []database.TaskInput
	var currentDate *time.Time

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if dateMatch := dateHeader.FindStringSubmatch(line); dateMatch != nil {
			var day, month, year int
			if dateMatch[1] != "" {
				day, _ = strconv.Atoi(dateMatch[1])
				month, _ = strconv.Atoi(dateMatch[2])
				year, _ = strconv.Atoi(dateMatch[3])
			} else {
				year, _ = strconv.Atoi(dateMatch[4])
				month, _ = strconv.Atoi(dateMatch[5])
				day, _ = strconv.Atoi(dateMatch[6])
			}
			due := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
			currentDate = &due
			continue
		}

		if !strings.HasPrefix(line, "- ") {
			continue
		}
		taskText := strings.TrimSpace(strings.TrimPrefix(line, "- "))

		completed := false
		if strings.HasPrefix(taskText, "[x]") {
			completed = true
			taskText = strings.TrimSpace(strings.TrimPrefix(taskText, "[x]"))
		} else if strings.HasPrefix(taskText, "[ ]") {
			taskText = strings.TrimSpace(strings.TrimPrefix(taskText, "[ ]"))
		}
		if taskText == "" {
			continue
		}

		priority, title, err := extractPriority(taskText)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, database.TaskInput{
			Title:     title,
			Priority:  priority,
			DueDate:   currentDate,
			Completed: completed,
		})
	}
	return inputs, nil
}
