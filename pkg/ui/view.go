package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"focusflow/pkg/analytics"
	"focusflow/pkg/database"
	"focusflow/pkg/timer"
)

// View renders the UI based on the current mode
func (m Model) View() string {
	var sb strings.Builder

	switch m.mode {
	case NormalMode:
		sb.WriteString(m.titleBar(" FocusFlow ", m.styles.AccentColor))
		sb.WriteString("\n\n")
		sb.WriteString(m.renderTimer())
		sb.WriteString("\n")
		sb.WriteString(m.renderProgress())
		sb.WriteString("\n\n")

		sb.WriteString(m.table.View())
		sb.WriteString("\n")
		if task, ok := m.selectedTask(); ok {
			sb.WriteString(m.renderDetail(task))
			sb.WriteString("\n")
		}
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.NormalTextColor)).Render(m.statusLine()))
		sb.WriteString("\n")

		if m.toast != "" {
			sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.styles.AccentColor)).Render(m.toast))
			sb.WriteString("\n")
		}

	case AddMode:
		sb.WriteString(m.titleBar(" Add New Task ", m.styles.AccentColor))
		sb.WriteString("\n\n")
		sb.WriteString(m.renderForm())

	case EditMode:
		sb.WriteString(m.titleBar(" Edit Task ", m.styles.AccentColor))
		sb.WriteString("\n\n")
		sb.WriteString(m.renderForm())

	case DeleteConfirmMode:
		sb.WriteString(m.titleBar(" Delete Task ", m.styles.ErrorColor))
		sb.WriteString("\n\n")

		if m.editingItem != nil {
			sb.WriteString("Are you sure you want to delete this task?\n\n")
			sb.WriteString(fmt.Sprintf("Title: %s\n", m.editingItem.Title))
			sb.WriteString(fmt.Sprintf("Description: %s\n", m.editingItem.Description))
			sb.WriteString("\n")
			sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Press Y to confirm, N to cancel"))
		}

	case SearchMode:
		sb.WriteString(m.titleBar(" Search Tasks ", m.styles.AccentColor))
		sb.WriteString("\n\n")
		sb.WriteString("Enter search term to find tasks:")
		sb.WriteString("\n\n")
		sb.WriteString(m.searchInput.View())

	case HelpViewMode:
		sb.WriteString(m.renderHelp())

	case StatsViewMode:
		sb.WriteString(m.titleBar(" Statistics ", m.styles.AccentColor))
		sb.WriteString("\n\n")
		sb.WriteString(m.renderStats())
	}

	if m.err != nil {
		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.ErrorColor)).Render(fmt.Sprintf("Error: %v", m.err)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.helpBar())

	return sb.String()
}

func (m Model) titleBar(text, bg string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(m.styles.SelectedTextColor)).
		Background(lipgloss.Color(bg)).
		Padding(0, 1).
		Render(text)
}

func (m Model) modeColor(mode timer.Mode) string {
	if mode.IsBreak() {
		return m.styles.BreakColor
	}
	return m.styles.FocusColor
}

// renderTimer draws the mode tabs, the clock and the cycle position
func (m Model) renderTimer() string {
	var tabs []string
	for _, mode := range timer.Modes {
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color(m.styles.NormalTextColor))
		if mode == m.timer.Mode {
			style = style.Bold(true).
				Foreground(lipgloss.Color(m.styles.SelectedTextColor)).
				Background(lipgloss.Color(m.modeColor(mode)))
		}
		tabs = append(tabs, style.Render(mode.Label()))
	}

	clock := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(m.modeColor(m.timer.Mode))).
		Render(m.timer.Clock())

	status := string(m.timer.Status)
	if m.timer.Status == timer.StatusCompleted && m.timer.Next != "" {
		status = fmt.Sprintf("completed, %s next", m.timer.Next.Label())
	}

	bar := m.bar.ViewAs(m.timer.Progress())
	cycle := fmt.Sprintf("Cycle %d/%d", m.timer.CycleCount+1, timer.LongBreakEvery)

	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n" +
		fmt.Sprintf("%s  %s  %s\n", clock, status, cycle) +
		bar
}

// renderProgress shows level, points and streak
func (m Model) renderProgress() string {
	p := m.progress
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.BorderColor))
	value := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.styles.AccentColor))

	goal := m.session.Settings().DailyGoal
	parts := []string{
		label.Render("Level ") + value.Render(fmt.Sprintf("%d", p.Level)) +
			label.Render(fmt.Sprintf(" (%.0f%%)", analytics.LevelProgress(p.TotalPoints)*100)),
		label.Render("Today ") + value.Render(fmt.Sprintf("%d pts", p.TodayPoints)),
		label.Render("Total ") + value.Render(fmt.Sprintf("%d pts", p.TotalPoints)),
		label.Render("Tasks ") + value.Render(fmt.Sprintf("%d/%d", p.TasksCompletedToday, goal)),
		label.Render("Pomodoros ") + value.Render(fmt.Sprintf("%d", p.PomodorosToday)),
		label.Render("Streak ") + value.Render(fmt.Sprintf("%d", p.Streak)),
	}
	return strings.Join(parts, label.Render("  │  "))
}

func (m Model) priorityColor(p database.Priority) string {
	switch p {
	case database.PriorityHigh:
		return m.styles.HighColor
	case database.PriorityLow:
		return m.styles.LowColor
	}
	return m.styles.MediumColor
}

// renderDetail describes the selected task below the table
func (m Model) renderDetail(task database.Task) string {
	prio := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.priorityColor(task.Priority))).
		Render(fmt.Sprintf("%s (%d pts)", priorityLabel(task.Priority), task.Points))
	detail := prio
	if task.Description != "" {
		detail += "  " + task.Description
	}
	return detail
}

// statusLine describes filters, search and ordering
func (m Model) statusLine() string {
	var filterPart string
	switch m.taskFilter {
	case database.AllTasksFilter:
		filterPart = "all tasks"
	case database.DoneTasksFilter:
		filterPart = "completed tasks"
	case database.PendingTasksFilter:
		filterPart = "pending tasks"
	}
	if m.priorityFilter != "" {
		filterPart += fmt.Sprintf(" (%s priority)", m.priorityFilter)
	}
	if m.searchTerm != "" {
		filterPart += fmt.Sprintf(" (search filter: %s)", m.searchTerm)
	}

	orderStr := "asc"
	if m.sortOrder == database.SortDesc {
		orderStr = "desc"
	}
	sortInfo := fmt.Sprintf(" | sorted by %s (%s)", sortByNames[m.sortBy], orderStr)
	if m.groupBy != database.GroupByNone {
		sortInfo += fmt.Sprintf(", grouped by %s", groupByNames[m.groupBy])
	}

	return fmt.Sprintf("Showing %d %s%s", len(m.items), filterPart, sortInfo)
}

// renderStats draws the weekly overview, goal and streak calendar
func (m Model) renderStats() string {
	if m.stats == nil {
		return "No statistics loaded."
	}
	var sb strings.Builder
	heading := lipgloss.NewStyle().Bold(true)
	o, d := m.stats.overview, m.stats.daily

	sb.WriteString(heading.Render("Today"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  %d/%d tasks (%.0f%%), %d points, %d focus minutes\n",
		d.Completed, d.Goal, d.Rate*100, d.PointsToday, d.FocusMinutesToday))
	if d.GoalReached {
		sb.WriteString("  Daily goal reached!\n")
	}
	sb.WriteString(fmt.Sprintf("  Level %d, %.0f%% to the next\n\n", d.Level, d.LevelProgress*100))

	sb.WriteString(heading.Render("Last 7 days"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  %d created, %d completed (%.0f%%)\n", o.TasksCreated, o.TasksCompleted, o.CompletionRate*100))
	sb.WriteString(fmt.Sprintf("  %d pomodoros, %d focus minutes, %d points\n\n", o.Pomodoros, o.FocusMinutes, o.Points))

	sb.WriteString(heading.Render("By priority"))
	sb.WriteString("\n")
	for _, ps := range m.stats.priority {
		name := lipgloss.NewStyle().Foreground(lipgloss.Color(m.priorityColor(ps.Priority))).
			Render(fmt.Sprintf("%-7s", ps.Priority))
		sb.WriteString(fmt.Sprintf("  %s %d/%d done, %d points\n", name, ps.Completed, ps.Total, ps.Points))
	}
	sb.WriteString("\n")

	sb.WriteString(heading.Render(fmt.Sprintf("Streak: current %d, longest %d", m.stats.streaks.Current, m.stats.streaks.Longest)))
	sb.WriteString("\n  ")
	active := lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.FocusColor)).Render("■")
	idle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.BorderColor)).Render("□")
	for i, day := range m.stats.streaks.Days {
		if i > 0 && i%7 == 0 {
			sb.WriteString("\n  ")
		}
		if day.Active {
			sb.WriteString(active)
		} else {
			sb.WriteString(idle)
		}
		sb.WriteString(" ")
	}
	sb.WriteString("\n")

	return sb.String()
}

// renderHelp lists every binding
func (m Model) renderHelp() string {
	var sb strings.Builder

	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Available Commands"))
	sb.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.styles.AccentColor)).
		Bold(true)
	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.styles.NormalTextColor))

	addCommand := func(binding key.Binding) {
		sb.WriteString(fmt.Sprintf("%s: %s\n",
			descStyle.Render(binding.Help().Desc),
			keyStyle.Render(binding.Help().Key)))
	}

	addCommand(m.keyMap.QuitApp)
	addCommand(m.keyMap.ShowHelp)
	addCommand(m.keyMap.ToggleStats)
	addCommand(m.keyMap.ToggleStatus)
	addCommand(m.keyMap.AddTask)
	addCommand(m.keyMap.EditTask)
	addCommand(m.keyMap.DeleteTask)
	addCommand(m.keyMap.MoveTaskUp)
	addCommand(m.keyMap.MoveTaskDown)
	addCommand(m.keyMap.CyclePriority)

	sb.WriteString("\n")
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Filter and Sort"))
	sb.WriteString("\n\n")
	addCommand(m.keyMap.ShowDoneTasks)
	addCommand(m.keyMap.ShowUndoneTasks)
	addCommand(m.keyMap.FilterPriority)
	addCommand(m.keyMap.SearchTasks)
	addCommand(m.keyMap.ToggleSortBy)
	addCommand(m.keyMap.ToggleGroupBy)
	addCommand(m.keyMap.ToggleSortOrder)

	sb.WriteString("\n")
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Timer"))
	sb.WriteString("\n\n")
	addCommand(m.keyMap.StartPause)
	addCommand(m.keyMap.StopTimer)
	addCommand(m.keyMap.FocusMode)
	addCommand(m.keyMap.ShortBreakMode)
	addCommand(m.keyMap.LongBreakMode)

	return sb.String()
}

// helpBar renders a sleek status bar with available actions
func (m Model) helpBar() string {
	var actions []string

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.styles.AccentColor)).
		Bold(true)
	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.styles.NormalTextColor))
	separatorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.styles.BorderColor))

	separator := separatorStyle.Render(" • ")

	addAction := func(k, desc string) {
		actions = append(actions, fmt.Sprintf("%s %s", keyStyle.Render(k), descStyle.Render(desc)))
	}
	addBinding := func(binding key.Binding, desc string) {
		addAction(binding.Help().Key, desc)
	}

	switch m.mode {
	case NormalMode:
		addBinding(m.keyMap.StartPause, "start/pause")
		addBinding(m.keyMap.StopTimer, "stop")
		addAction("1/2/3", "mode")
		addBinding(m.keyMap.AddTask, "add")
		addBinding(m.keyMap.EditTask, "edit")
		addBinding(m.keyMap.DeleteTask, "del")
		addBinding(m.keyMap.ToggleStatus, "done")
		addBinding(m.keyMap.SearchTasks, "search")
		addBinding(m.keyMap.ToggleStats, "stats")
		addBinding(m.keyMap.ShowHelp, "help")
		addBinding(m.keyMap.QuitApp, "quit")

	case AddMode, EditMode:
		addAction("tab", "next field")
		addAction("↑/↓", "priority")
		addAction("enter", "save")
		addAction("esc", "cancel")

	case DeleteConfirmMode:
		addAction("y", "confirm")
		addAction("n", "cancel")

	case SearchMode:
		addAction("enter", "search")
		addAction("esc", "cancel")

	case HelpViewMode:
		addAction(m.keyMap.ShowHelp.Help().Key+"/esc", "back")
		addBinding(m.keyMap.QuitApp, "quit")

	case StatsViewMode:
		addAction(m.keyMap.ToggleStats.Help().Key+"/esc", "back")
		addBinding(m.keyMap.QuitApp, "quit")
	}

	return strings.Join(actions, separator)
}

// renderForm renders the input form for adding/editing tasks
func (m Model) renderForm() string {
	var sb strings.Builder

	sb.WriteString("Title:\n")
	sb.WriteString(m.titleInput.View())
	sb.WriteString("\n\n")

	sb.WriteString("Description:\n")
	sb.WriteString(m.descInput.View())
	sb.WriteString("\n\n")

	sb.WriteString("Due Date (YYYY-MM-DD):\n")
	sb.WriteString(m.dueDateInput.View())
	sb.WriteString("\n\n")

	sb.WriteString("Priority (up/down to cycle):\n")
	sb.WriteString(m.priorityInput.View())

	return sb.String()
}
