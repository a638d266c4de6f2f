package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"focusflow/pkg/database"
)

// AddOptions are the inputs of the add command
type AddOptions struct {
	Text        string
	Description string
	Date        string
	// Priority overrides any !priority tag in Text when set
	Priority database.Priority
}

// HandleAddTask creates a task from free text such as "write report !high"
func HandleAddTask(ctx context.Context, env *Env, opts AddOptions) (database.Task, error) {
	dueDate, err := parseDueDate(opts.Date, env.now())
	if err != nil {
		return database.Task{}, err
	}

	priority, title, err := extractPriority(opts.Text)
	if err != nil {
		return database.Task{}, err
	}
	if opts.Priority != "" {
		priority = opts.Priority
	}

	task, err := env.Tasks.Create(ctx, database.TaskInput{
		Title:       title,
		Description: opts.Description,
		Priority:    priority,
		DueDate:     dueDate,
	})
	if err != nil {
		return database.Task{}, err
	}

	fmt.Fprintf(env.out(), "Added task %d: %s [%s, %d pts]\n", task.ID, task.Title, task.Priority, task.Points)
	return task, nil
}

var priorityTag = regexp.MustCompile(`(?:^|\s)!(\w+)`)

// extractPriority finds the last !priority tag in text and strips all of them
func extractPriority(text string) (database.Priority, string, error) {
	priority := database.PriorityMedium
	for _, match := range priorityTag.FindAllStringSubmatch(text, -1) {
		p, err := database.ParsePriority(match[1])
		if err != nil {
			return "", "", err
		}
		priority = p
	}
	title := strings.Join(strings.Fields(priorityTag.ReplaceAllString(text, " ")), " ")
	return priority, title, nil
}

// parseDueDate accepts YYYY-MM-DD, "today" and "tomorrow". Empty means no due date.
func parseDueDate(s string, now time.Time) (*time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch s {
	case "":
		return nil, nil
	case "today":
		return &today, nil
	case "tomorrow":
		tomorrow := today.AddDate(0, 0, 1)
		return &tomorrow, nil
	}
	due, err := time.ParseInLocation("2006-01-02", s, now.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: parse date %q: use YYYY-MM-DD", database.ErrInvalidTask, s)
	}
	return &due, nil
}
