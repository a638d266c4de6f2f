package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/muesli/reflow/truncate"

	"focusflow/pkg/analytics"
	"focusflow/pkg/database"
)

// statsData is what the statistics view renders
type statsData struct {
	overview analytics.Overview
	daily    analytics.DailyProgress
	priority []analytics.PriorityStat
	streaks  analytics.StreakHistory
}

// columns other than the title, plus cell padding
const fixedColumnsWidth = 3 + 6 + 4 + 10 + 10

const defaultTitleWidth = 48

// loadTasks retrieves and displays tasks based on current filters
func (m *Model) loadTasks() {
	items, err := m.tasks.List(m.ctx, database.TaskQuery{
		Status:   m.taskFilter,
		Priority: m.priorityFilter,
		Search:   m.searchTerm,
	})
	if err != nil {
		m.err = err
		return
	}

	m.items = items
	titleWidth := m.titleWidth()

	groupedTasks := m.GroupTasks(items)
	tableRows := []table.Row{}
	rowIDs := []int64{}

	for _, group := range groupedTasks {
		if m.groupBy != database.GroupByNone {
			tableRows = append(tableRows, table.Row{"", "", "", fmt.Sprintf("== %s ==", group.GroupName), ""})
			rowIDs = append(rowIDs, 0)
		}

		for _, item := range group.Tasks {
			status := "[ ]"
			if item.Completed {
				status = "[x]"
			}
			due := ""
			if item.DueDate != nil {
				due = item.DueDate.Format("2006-01-02")
			}
			tableRows = append(tableRows, table.Row{
				status,
				string(item.Priority),
				fmt.Sprintf("%d", item.Points),
				truncate.StringWithTail(item.Title, uint(titleWidth), "…"),
				due,
			})
			rowIDs = append(rowIDs, item.ID)
		}

		if m.groupBy != database.GroupByNone && len(groupedTasks) > 1 {
			tableRows = append(tableRows, table.Row{"", "", "", "", ""})
			rowIDs = append(rowIDs, 0)
		}
	}

	m.rowIDs = rowIDs
	m.table.SetRows(tableRows)
	if m.table.Cursor() >= len(tableRows) && len(tableRows) > 0 {
		m.table.SetCursor(len(tableRows) - 1)
	}
}

// selectedTask returns the task under the cursor, group headers have none
func (m *Model) selectedTask() (database.Task, bool) {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.rowIDs) || m.rowIDs[cursor] == 0 {
		return database.Task{}, false
	}
	id := m.rowIDs[cursor]
	for _, item := range m.items {
		if item.ID == id {
			return item, true
		}
	}
	return database.Task{}, false
}

// moveSelected swaps the selected task with its visible neighbour. Only the
// manual order can be rearranged.
func (m *Model) moveSelected(delta int) {
	if m.sortBy != database.SortByOrder || m.groupBy != database.GroupByNone {
		m.showToast("Switch to manual order to move tasks")
		return
	}
	task, ok := m.selectedTask()
	if !ok {
		return
	}
	target := m.table.Cursor() + delta
	if target < 0 || target >= len(m.rowIDs) {
		return
	}
	neighbour := m.rowIDs[target]

	all, err := m.tasks.List(m.ctx, database.TaskQuery{})
	if err != nil {
		m.err = err
		return
	}
	position := -1
	for i, item := range all {
		if item.ID == neighbour {
			position = i
			break
		}
	}
	if position == -1 {
		return
	}

	if _, err := m.tasks.Move(m.ctx, task.ID, position); err != nil {
		m.err = err
		return
	}
	m.loadTasks()
	m.table.SetCursor(target)
}

func (m *Model) titleWidth() int {
	if m.width == 0 {
		return defaultTitleWidth
	}
	width := m.width - fixedColumnsWidth
	if width < 20 {
		width = 20
	}
	return width
}

// resize fits the table into the window below the timer panel
func (m *Model) resize() {
	cols := m.table.Columns()
	cols[3].Width = m.titleWidth()
	m.table.SetColumns(cols)
	m.table.SetWidth(m.width - 2)

	height := m.height - 14
	if height < 3 {
		height = 3
	}
	m.table.SetHeight(height)

	barWidth := m.width - 20
	if barWidth > 60 {
		barWidth = 60
	}
	if barWidth < 10 {
		barWidth = 10
	}
	m.bar.Width = barWidth
}

// loadStats fetches everything the statistics view shows
func (m *Model) loadStats() {
	var data statsData
	var err error

	if data.overview, err = m.analytics.Overview(m.ctx, analytics.RangeWeek); err != nil {
		m.err = err
		return
	}
	if data.daily, err = m.analytics.DailyProgress(m.ctx, m.session.Settings(), m.session.Progress()); err != nil {
		m.err = err
		return
	}
	if data.priority, err = m.analytics.PriorityBreakdown(m.ctx); err != nil {
		m.err = err
		return
	}
	if data.streaks, err = m.analytics.StreakHistory(m.ctx, 28); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.stats = &data
}

// focusNextInput cycles through the form inputs
func (m *Model) focusNextInput() {
	m.focusInput((m.activeInput + 1) % formInputs)
}

// focusPreviousInput cycles through the form inputs
func (m *Model) focusPreviousInput() {
	m.focusInput((m.activeInput + formInputs - 1) % formInputs)
}

func (m *Model) focusInput(i int) {
	m.activeInput = i
	m.titleInput.Blur()
	m.descInput.Blur()
	m.dueDateInput.Blur()
	m.priorityInput.Blur()
	switch i {
	case 0:
		m.titleInput.Focus()
	case 1:
		m.descInput.Focus()
	case 2:
		m.dueDateInput.Focus()
	case 3:
		m.priorityInput.Focus()
	}
}

// submitForm processes the form data based on the current mode
func (m *Model) submitForm() {
	title := strings.TrimSpace(m.titleInput.Value())
	desc := strings.TrimSpace(m.descInput.Value())
	dueDate := strings.TrimSpace(m.dueDateInput.Value())

	if title == "" {
		m.err = fmt.Errorf("%w: title is required", database.ErrInvalidTask)
		return
	}

	priority, err := database.ParsePriority(m.priorityInput.Value())
	if err != nil {
		m.err = err
		return
	}

	var parsedDueDate *time.Time
	if dueDate != "" {
		due, err := time.ParseInLocation("2006-01-02", dueDate, time.Local)
		if err != nil {
			m.err = fmt.Errorf("%w: invalid date format, use YYYY-MM-DD", database.ErrInvalidTask)
			return
		}
		parsedDueDate = &due
	}

	switch m.mode {
	case AddMode:
		_, err = m.tasks.Create(m.ctx, database.TaskInput{
			Title:       title,
			Description: desc,
			Priority:    priority,
			DueDate:     parsedDueDate,
		})

	case EditMode:
		if m.editingItem != nil {
			_, err = m.tasks.Update(m.ctx, m.editingItem.ID, database.TaskPatch{
				Title:       &title,
				Description: &desc,
				Priority:    &priority,
				DueDate:     parsedDueDate,
				ClearDue:    parsedDueDate == nil,
			})
		}
	}
	if err != nil {
		m.err = err
		return
	}

	m.err = nil
	m.mode = NormalMode
	m.resetInputs()
	m.editingItem = nil
	m.loadTasks()
}

// nextPriority cycles low, medium, high
func nextPriority(p database.Priority) database.Priority {
	switch p {
	case database.PriorityLow:
		return database.PriorityMedium
	case database.PriorityMedium:
		return database.PriorityHigh
	}
	return database.PriorityLow
}

// nextPriorityFilter cycles through no filter and every priority
func nextPriorityFilter(p database.Priority) database.Priority {
	switch p {
	case "":
		return database.PriorityHigh
	case database.PriorityHigh:
		return database.PriorityMedium
	case database.PriorityMedium:
		return database.PriorityLow
	}
	return ""
}
