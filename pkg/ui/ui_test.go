package ui

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusflow/pkg/analytics"
	"focusflow/pkg/config"
	"focusflow/pkg/database"
	"focusflow/pkg/keymaps"
	"focusflow/pkg/progress"
	"focusflow/pkg/session"
	"focusflow/pkg/timer"
)

type fixture struct {
	tasks   *database.TaskStore
	stats   *database.StatsStore
	session *session.Session
	clock   *session.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := database.NewConnector(database.Options{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	clock := session.NewFakeClock(time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local))
	tasks := database.NewTaskStore(conn).WithClock(clock.Now)
	stats := database.NewStatsStore(conn).WithClock(clock.Now)

	var n atomic.Int64
	s, err := session.Open(context.Background(), session.Deps{
		Tasks:        tasks,
		Settings:     database.NewSettingsStore(conn),
		Stats:        stats,
		Clock:        clock,
		TickInterval: time.Millisecond,
		NewID:        func() string { return fmt.Sprintf("rec-%d", n.Add(1)) },
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return &fixture{tasks: tasks, stats: stats, session: s, clock: clock}
}

func (f *fixture) model(t *testing.T) Model {
	t.Helper()
	return New(Options{
		Session:     f.session,
		Tasks:       f.tasks,
		Analytics:   analytics.New(f.tasks, f.stats, f.clock.Now),
		Styles:      config.DefaultStyles(),
		KeyMap:      keymaps.BuildKeyMap(nil),
		Now:         f.clock.Now,
		ManualClock: true,
	})
}

func (f *fixture) add(t *testing.T, title string, p database.Priority) database.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), database.TaskInput{Title: title, Priority: p})
	require.NoError(t, err)
	return task
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m
}

func titles(tasks []database.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Title
	}
	return out
}

func TestSortTasks(t *testing.T) {
	day := func(d int) *time.Time {
		v := time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	tasks := []database.Task{
		{ID: 1, Title: "beta", Priority: database.PriorityLow, Order: 0, DueDate: day(21)},
		{ID: 2, Title: "Alpha", Priority: database.PriorityHigh, Order: 1, Completed: true},
		{ID: 3, Title: "gamma", Priority: database.PriorityMedium, Order: 2, DueDate: day(20)},
	}

	m := &Model{sortBy: database.SortByPriority}
	assert.Equal(t, []string{"Alpha", "gamma", "beta"}, titles(m.SortTasks(tasks)))

	m.sortBy = database.SortByTitle
	assert.Equal(t, []string{"Alpha", "beta", "gamma"}, titles(m.SortTasks(tasks)))

	m.sortBy = database.SortByDueDate
	assert.Equal(t, []string{"gamma", "beta", "Alpha"}, titles(m.SortTasks(tasks)))

	m.sortBy = database.SortByStatus
	assert.Equal(t, []string{"beta", "gamma", "Alpha"}, titles(m.SortTasks(tasks)))

	m.sortBy = database.SortByOrder
	m.sortOrder = database.SortDesc
	assert.Equal(t, []string{"gamma", "Alpha", "beta"}, titles(m.SortTasks(tasks)))
}

func TestGroupTasks(t *testing.T) {
	tasks := []database.Task{
		{ID: 1, Title: "a", Priority: database.PriorityLow},
		{ID: 2, Title: "b", Priority: database.PriorityHigh, Completed: true},
		{ID: 3, Title: "c", Priority: database.PriorityHigh, Order: 1},
	}

	m := &Model{groupBy: database.GroupByPriority}
	groups := m.GroupTasks(tasks)
	require.Len(t, groups, 2)
	assert.Equal(t, "High", groups[0].GroupName)
	assert.Equal(t, []string{"b", "c"}, titles(groups[0].Tasks))
	assert.Equal(t, "Low", groups[1].GroupName)

	m.groupBy = database.GroupByStatus
	groups = m.GroupTasks(tasks)
	require.Len(t, groups, 2)
	assert.Equal(t, "Pending", groups[0].GroupName)
	assert.Equal(t, "Done", groups[1].GroupName)

	m.groupBy = database.GroupByDueDate
	groups = m.GroupTasks(tasks)
	require.Len(t, groups, 1)
	assert.Equal(t, "No Due Date", groups[0].GroupName)
}

func TestAddTaskThroughForm(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m = press(t, m, "a")
	assert.Equal(t, AddMode, m.mode)
	m = press(t, m, "write docs", "tab", "tab", "2026-10-21", "tab", "up", "enter")

	assert.Equal(t, NormalMode, m.mode)
	require.NoError(t, m.err)
	require.Len(t, m.items, 1)
	task := m.items[0]
	assert.Equal(t, "write docs", task.Title)
	assert.Equal(t, database.PriorityHigh, task.Priority)
	assert.Equal(t, 10, task.Points)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2026-10-21", task.DueDate.Format("2006-01-02"))
}

func TestFormRejectsBadDate(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m = press(t, m, "a", "x", "tab", "tab", "tomorrow-ish", "tab", "enter")
	assert.Equal(t, AddMode, m.mode)
	assert.ErrorIs(t, m.err, database.ErrInvalidTask)

	m = press(t, m, "esc")
	assert.Equal(t, NormalMode, m.mode)
	assert.Empty(t, m.items)
}

func TestToggleAwardsPointsOnce(t *testing.T) {
	f := newFixture(t)
	f.add(t, "ship", database.PriorityHigh)
	m := f.model(t)

	m = press(t, m, " ")
	require.NoError(t, m.err)
	assert.True(t, m.items[0].Completed)
	assert.Equal(t, 10, m.progress.TotalPoints)

	m = press(t, m, " ", " ")
	assert.True(t, m.items[0].Completed)
	assert.Equal(t, 10, m.progress.TotalPoints)
}

func TestFiltersAndSearch(t *testing.T) {
	f := newFixture(t)
	f.add(t, "read book", database.PriorityLow)
	done := f.add(t, "pay rent", database.PriorityHigh)
	_, _, err := f.session.CompleteTask(context.Background(), done.ID)
	require.NoError(t, err)
	m := f.model(t)
	require.Len(t, m.items, 2)

	m = press(t, m, "ctrl+d")
	assert.Equal(t, []string{"pay rent"}, titles(m.items))
	m = press(t, m, "ctrl+u")
	assert.Equal(t, []string{"read book"}, titles(m.items))
	m = press(t, m, "ctrl+u")
	assert.Len(t, m.items, 2)

	m = press(t, m, "f")
	assert.Equal(t, []string{"pay rent"}, titles(m.items))
	m = press(t, m, "f", "f", "f")
	assert.Len(t, m.items, 2)

	m = press(t, m, "/")
	assert.Equal(t, SearchMode, m.mode)
	m = press(t, m, "book", "enter")
	assert.Equal(t, NormalMode, m.mode)
	assert.Equal(t, []string{"read book"}, titles(m.items))
	assert.Contains(t, m.statusLine(), "search filter: book")
}

func TestMoveAndCyclePriority(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a", database.PriorityLow)
	f.add(t, "b", database.PriorityLow)
	f.add(t, "c", database.PriorityLow)
	m := f.model(t)

	m = press(t, m, "J")
	require.NoError(t, m.err)
	assert.Equal(t, []string{"b", "a", "c"}, titles(m.items))
	assert.Equal(t, 1, m.table.Cursor())

	m = press(t, m, "p")
	task, ok := m.selectedTask()
	require.True(t, ok)
	assert.Equal(t, "a", task.Title)
	assert.Equal(t, database.PriorityMedium, task.Priority)
	assert.Equal(t, 5, task.Points)

	m = press(t, m, "s")
	m = press(t, m, "K")
	assert.Equal(t, "Switch to manual order to move tasks", m.toast)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.add(t, "temp", database.PriorityMedium)
	m := f.model(t)

	m = press(t, m, "d", "n")
	assert.Len(t, m.items, 1)
	m = press(t, m, "d", "y")
	assert.Equal(t, NormalMode, m.mode)
	assert.Empty(t, m.items)
}

func TestTimerKeys(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m = press(t, m, "2")
	assert.Equal(t, timer.ModeShortBreak, m.timer.Mode)
	assert.Equal(t, timer.StatusIdle, m.timer.Status)

	m = press(t, m, "t")
	assert.Equal(t, timer.StatusRunning, m.timer.Status)
	f.session.Tick()
	m = press(t, m, "t")
	assert.Equal(t, timer.StatusPaused, m.timer.Status)
	assert.Equal(t, 5*60-1, m.timer.Remaining)

	m = press(t, m, "x")
	assert.Equal(t, timer.StatusIdle, m.timer.Status)
	assert.Contains(t, m.View(), "05:00")
}

func TestNotificationsShowToast(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	next, cmd := m.Update(notificationMsg{
		Kind:   session.KindLedger,
		Ledger: progress.Event{Type: progress.EventLevelUp, Level: 2},
	})
	m = next.(Model)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.toast, "Welcome to level 2")

	f.clock.Advance(toastTTL)
	next, _ = m.Update(refreshMsg(f.clock.Now()))
	m = next.(Model)
	assert.Empty(t, m.toast)
}

func TestStatsAndHelpViews(t *testing.T) {
	f := newFixture(t)
	f.add(t, "x", database.PriorityHigh)
	m := f.model(t)

	m = press(t, m, "v")
	require.NoError(t, m.err)
	assert.Equal(t, StatsViewMode, m.mode)
	assert.Contains(t, m.View(), "By priority")
	m = press(t, m, "esc")
	assert.Equal(t, NormalMode, m.mode)

	m = press(t, m, "?")
	assert.Equal(t, HelpViewMode, m.mode)
	assert.Contains(t, m.View(), "start/pause timer")
	m = press(t, m, "?")
	assert.Equal(t, NormalMode, m.mode)
}
