package ui

import (
	"sort"
	"strings"

	"focusflow/pkg/database"
)

const (
	sortFieldCount   = 6
	groupOptionCount = 4
)

var sortByNames = []string{"order", "priority", "title", "due date", "created", "status"}

var groupByNames = []string{"", "priority", "status", "due date"}

// GroupedTasks represents tasks grouped by a common attribute
type GroupedTasks struct {
	GroupName string
	Tasks     []database.Task
}

// SortTasks sorts tasks based on the specified criteria. Ties keep the
// manual order.
func (m *Model) SortTasks(tasks []database.Task) []database.Task {
	sortedTasks := make([]database.Task, len(tasks))
	copy(sortedTasks, tasks)

	less := func(a, b database.Task) bool {
		switch m.sortBy {
		case database.SortByPriority:
			// most important first when ascending
			if a.Priority != b.Priority {
				return a.Priority.Rank() > b.Priority.Rank()
			}
		case database.SortByTitle:
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
		case database.SortByDueDate:
			switch {
			case a.DueDate == nil && b.DueDate != nil:
				return false
			case a.DueDate != nil && b.DueDate == nil:
				return true
			case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
				return a.DueDate.Before(*b.DueDate)
			}
		case database.SortByCreated:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		case database.SortByStatus:
			if a.Completed != b.Completed {
				return !a.Completed // pending first
			}
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	}

	sort.SliceStable(sortedTasks, func(i, j int) bool {
		if m.sortOrder == database.SortDesc {
			return less(sortedTasks[j], sortedTasks[i])
		}
		return less(sortedTasks[i], sortedTasks[j])
	})

	return sortedTasks
}

// GroupTasks groups tasks based on the specified criteria
func (m *Model) GroupTasks(tasks []database.Task) []GroupedTasks {
	if m.groupBy == database.GroupByNone {
		return []GroupedTasks{{GroupName: "", Tasks: m.SortTasks(tasks)}}
	}

	groups := make(map[string][]database.Task)
	rank := make(map[string]string)

	for _, task := range tasks {
		var groupKey, sortKey string

		switch m.groupBy {
		case database.GroupByPriority:
			groupKey = priorityLabel(task.Priority)
			sortKey = string(rune('9' - task.Priority.Rank()))

		case database.GroupByStatus:
			groupKey, sortKey = "Pending", "0"
			if task.Completed {
				groupKey, sortKey = "Done", "1"
			}

		case database.GroupByDueDate:
			if task.DueDate == nil {
				groupKey, sortKey = "No Due Date", "~"
			} else {
				groupKey = task.DueDate.Format("2006-01-02")
				sortKey = groupKey
			}
		}

		groups[groupKey] = append(groups[groupKey], task)
		rank[groupKey] = sortKey
	}

	var groupNames []string
	for name := range groups {
		groupNames = append(groupNames, name)
	}
	sort.Slice(groupNames, func(i, j int) bool {
		return rank[groupNames[i]] < rank[groupNames[j]]
	})

	var result []GroupedTasks
	for _, name := range groupNames {
		result = append(result, GroupedTasks{
			GroupName: name,
			Tasks:     m.SortTasks(groups[name]),
		})
	}

	return result
}

// priorityLabel capitalizes a priority for headings
func priorityLabel(p database.Priority) string {
	if p == "" {
		return "None"
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}
