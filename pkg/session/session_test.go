package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusflow/pkg/database"
	"focusflow/pkg/progress"
	"focusflow/pkg/timer"
)

type fixture struct {
	conn     *database.Connector
	tasks    *database.TaskStore
	settings *database.SQLSettingsStore
	stats    *database.StatsStore
	clock    *FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := database.NewConnector(database.Options{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	clock := NewFakeClock(time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local))
	return &fixture{
		conn:     conn,
		tasks:    database.NewTaskStore(conn).WithClock(clock.Now),
		settings: database.NewSettingsStore(conn),
		stats:    database.NewStatsStore(conn).WithClock(clock.Now),
		clock:    clock,
	}
}

func (f *fixture) open(t *testing.T, stats StatsStore) *Session {
	t.Helper()
	if stats == nil {
		stats = f.stats
	}
	var n atomic.Int64
	s, err := Open(context.Background(), Deps{
		Tasks:           f.tasks,
		Settings:        f.settings,
		Stats:           stats,
		Clock:           f.clock,
		TransitionDelay: 0,
		NewID:           func() string { return fmt.Sprintf("rec-%d", n.Add(1)) },
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func (f *fixture) addTask(t *testing.T, title string, priority database.Priority) database.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), database.TaskInput{Title: title, Priority: priority})
	require.NoError(t, err)
	return task
}

type flakyStats struct {
	*database.StatsStore
	fail atomic.Bool
}

func (s *flakyStats) Apply(ctx context.Context, key string, mutate func(p *database.UserProgress)) (database.UserProgress, error) {
	if s.fail.Load() {
		return database.UserProgress{}, fmt.Errorf("apply %s: %w: connection refused", key, database.ErrStoreUnavailable)
	}
	return s.StatsStore.Apply(ctx, key, mutate)
}

func TestOpenUsesStoredSettings(t *testing.T) {
	f := newFixture(t)
	focus := 1
	_, err := f.settings.Set(context.Background(), database.SettingsPatch{FocusMinutes: &focus})
	require.NoError(t, err)

	s := f.open(t, nil)
	snap := s.Timer()
	assert.Equal(t, timer.ModeFocus, snap.Mode)
	assert.Equal(t, 60, snap.Remaining)
	assert.Equal(t, "2026-10-19", s.Progress().Day)
}

func TestCompleteTaskAwardsPointsOnce(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, nil)
	ctx := context.Background()
	task := f.addTask(t, "Ship release", database.PriorityHigh)

	done, events, err := s.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotEmpty(t, events)
	assert.Equal(t, 10, s.Progress().TotalPoints)

	_, events, err = s.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	reopened, err := s.ReopenTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, reopened.Completed)

	again, _, err := s.ToggleTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, again.Completed)
	assert.Equal(t, 10, s.Progress().TotalPoints)
	assert.Equal(t, 10, s.Progress().TodayPoints)

	stored, err := f.stats.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.TotalPoints)
}

func TestCompleteUnknownTask(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, nil)

	_, _, err := s.CompleteTask(context.Background(), 404)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestFailedLedgerCommitLeavesTaskOpen(t *testing.T) {
	f := newFixture(t)
	stats := &flakyStats{StatsStore: f.stats}
	s := f.open(t, stats)
	ctx := context.Background()
	task := f.addTask(t, "Write report", database.PriorityMedium)

	before := s.Progress()
	stats.fail.Store(true)
	_, _, err := s.CompleteTask(ctx, task.ID)
	assert.ErrorIs(t, err, database.ErrStoreUnavailable)
	assert.Equal(t, before, s.Progress())

	stored, err := f.tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, stored.Completed)

	stats.fail.Store(false)
	_, _, err = s.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Progress().TotalPoints)
}

func TestFocusCompletionRecordsPomodoroAndBonus(t *testing.T) {
	f := newFixture(t)
	focus := 1
	_, err := f.settings.Set(context.Background(), database.SettingsPatch{FocusMinutes: &focus})
	require.NoError(t, err)
	s := f.open(t, nil)
	notes := s.Subscribe(256)

	s.StartTimer()
	for i := 0; i < 60; i++ {
		f.clock.Advance(time.Second)
		s.Tick()
	}
	s.Flush()

	p := s.Progress()
	assert.Equal(t, 15, p.TotalPoints)
	assert.Equal(t, 1, p.PomodorosToday)
	assert.Equal(t, timer.ModeShortBreak, s.Timer().Mode)

	records, err := f.stats.ListPomodoros(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rec-1", records[0].ID)
	assert.Equal(t, "focus", records[0].Mode)
	assert.Equal(t, 60, records[0].PlannedSeconds)

	var sawCompleted, sawPoints bool
	for len(notes) > 0 {
		n := <-notes
		if n.Kind == KindTimer && n.Timer.Type == timer.EventSessionCompleted {
			sawCompleted = true
		}
		if n.Kind == KindLedger && n.Ledger.Type == progress.EventPointsAwarded {
			sawPoints = true
		}
	}
	assert.True(t, sawCompleted)
	assert.True(t, sawPoints)
}

func TestBreakCompletionAwardsNothing(t *testing.T) {
	f := newFixture(t)
	short := 1
	_, err := f.settings.Set(context.Background(), database.SettingsPatch{ShortBreakMinutes: &short})
	require.NoError(t, err)
	s := f.open(t, nil)

	require.NoError(t, s.SwitchMode(timer.ModeShortBreak))
	s.StartTimer()
	for i := 0; i < 60; i++ {
		s.Tick()
	}
	s.Flush()

	assert.Zero(t, s.Progress().TotalPoints)
	records, err := f.stats.ListPomodoros(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "short_break", records[0].Mode)
}

func TestFailedBonusIsRetriedOnNextMutation(t *testing.T) {
	f := newFixture(t)
	focus := 1
	_, err := f.settings.Set(context.Background(), database.SettingsPatch{FocusMinutes: &focus})
	require.NoError(t, err)
	stats := &flakyStats{StatsStore: f.stats}
	s := f.open(t, stats)

	stats.fail.Store(true)
	s.StartTimer()
	for i := 0; i < 60; i++ {
		s.Tick()
	}
	s.Flush()
	assert.Zero(t, s.Progress().TotalPoints)

	stats.fail.Store(false)
	task := f.addTask(t, "Inbox zero", database.PriorityLow)
	_, _, err = s.CompleteTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, 18, s.Progress().TotalPoints)
}

func TestDayRolloverBeforeMutation(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, nil)
	ctx := context.Background()

	first := f.addTask(t, "Day one", database.PriorityHigh)
	_, _, err := s.CompleteTask(ctx, first.ID)
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	second := f.addTask(t, "Day two", database.PriorityLow)
	_, _, err = s.CompleteTask(ctx, second.ID)
	require.NoError(t, err)

	p := s.Progress()
	assert.Equal(t, "2026-10-20", p.Day)
	assert.Equal(t, 3, p.TodayPoints)
	assert.Equal(t, 13, p.TotalPoints)
	assert.Equal(t, 2, p.Streak)
	assert.Equal(t, 1, p.TasksCompletedToday)
}

func TestFailedRolloverHoldsBackAward(t *testing.T) {
	f := newFixture(t)
	stats := &flakyStats{StatsStore: f.stats}
	s := f.open(t, stats)
	ctx := context.Background()

	first := f.addTask(t, "Day one", database.PriorityHigh)
	_, _, err := s.CompleteTask(ctx, first.ID)
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	second := f.addTask(t, "Day two", database.PriorityLow)
	stats.fail.Store(true)
	_, _, err = s.CompleteTask(ctx, second.ID)
	assert.ErrorIs(t, err, database.ErrStoreUnavailable)
	assert.Equal(t, "2026-10-19", s.Progress().Day)
	assert.Equal(t, 10, s.Progress().TotalPoints)

	stored, err := f.tasks.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, stored.Completed)

	stats.fail.Store(false)
	_, _, err = s.CompleteTask(ctx, second.ID)
	require.NoError(t, err)

	p := s.Progress()
	assert.Equal(t, "2026-10-20", p.Day)
	assert.Equal(t, 3, p.TodayPoints)
	assert.Equal(t, 1, p.TasksCompletedToday)
	assert.Equal(t, 13, p.TotalPoints)
}

func TestApplySettingsUpdatesTimer(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, nil)

	focus := 40
	autoFocus := true
	settings, err := s.ApplySettings(context.Background(), database.SettingsPatch{FocusMinutes: &focus, AutoStartPomodoros: &autoFocus})
	require.NoError(t, err)
	assert.Equal(t, 40, settings.FocusMinutes)
	assert.Equal(t, 2400, s.Timer().Remaining)
	assert.True(t, s.Settings().AutoStartPomodoros)

	bad := 0
	_, err = s.ApplySettings(context.Background(), database.SettingsPatch{FocusMinutes: &bad})
	assert.ErrorIs(t, err, database.ErrInvalidSettings)
	assert.Equal(t, 2400, s.Timer().Remaining)

	_, err = s.ResetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1500, s.Timer().Remaining)
}

func TestRunClockDrivesTimer(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, nil)

	s.StartTimer()
	s.RunClock(time.Millisecond)
	require.Eventually(t, func() bool { return s.Timer().Remaining < 1500 }, time.Second, time.Millisecond)
	s.StopClock()
	assert.False(t, s.ClockRunning())

	frozen := s.Timer().Remaining
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, frozen, s.Timer().Remaining)
}

func TestCloseClosesSubscribers(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, nil)
	notes := s.Subscribe(1)

	s.Close()
	_, ok := <-notes
	assert.False(t, ok)

	late := s.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok)
}

func TestOpenRequiresStores(t *testing.T) {
	_, err := Open(context.Background(), Deps{})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, database.ErrStoreUnavailable))
}
