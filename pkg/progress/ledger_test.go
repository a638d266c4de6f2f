package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusflow/pkg/database"
)

type fakeStore struct {
	progress database.UserProgress
	keys     map[string]bool
	fail     error
	applies  int
}

func newFakeStore(day string) *fakeStore {
	return &fakeStore{progress: database.NewUserProgress(day), keys: map[string]bool{}}
}

func (s *fakeStore) Get(context.Context) (database.UserProgress, error) {
	return s.progress, nil
}

func (s *fakeStore) Apply(_ context.Context, key string, mutate func(p *database.UserProgress)) (database.UserProgress, error) {
	s.applies++
	if s.fail != nil {
		return database.UserProgress{}, s.fail
	}
	if s.keys[key] {
		return database.UserProgress{}, database.ErrDuplicateEvent
	}
	s.keys[key] = true
	next := s.progress
	mutate(&next)
	next.Level = database.LevelFor(next.TotalPoints)
	s.progress = next
	return next, nil
}

func newLedger(t *testing.T, policy StreakPolicy) (*Ledger, *fakeStore) {
	t.Helper()
	store := newFakeStore("2026-10-19")
	ledger := New(store, policy)
	require.NoError(t, ledger.Load(context.Background()))
	return ledger, store
}

func task(id int64, priority database.Priority) database.Task {
	return database.Task{ID: id, Title: "t", Priority: priority, Points: database.PointsFor(priority)}
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestHighPriorityTaskAwardsTenOnce(t *testing.T) {
	ledger, _ := newLedger(t, StreakPerTask)
	ctx := context.Background()

	events, err := ledger.OnTaskCompleted(ctx, task(1, database.PriorityHigh))
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, EventPointsAwarded, events[0].Type)
	assert.Equal(t, 10, events[0].Points)

	p := ledger.Snapshot()
	assert.Equal(t, 10, p.TodayPoints)
	assert.Equal(t, 10, p.TotalPoints)

	_, err = ledger.OnTaskCompleted(ctx, task(1, database.PriorityHigh))
	assert.ErrorIs(t, err, database.ErrDuplicateEvent)
	p = ledger.Snapshot()
	assert.Equal(t, 10, p.TotalPoints)
	assert.Equal(t, 1, p.Streak)
}

func TestPointsFollowPrioritySchedule(t *testing.T) {
	ledger, _ := newLedger(t, StreakPerTask)
	ctx := context.Background()

	for i, priority := range []database.Priority{database.PriorityLow, database.PriorityMedium, database.PriorityHigh} {
		_, err := ledger.OnTaskCompleted(ctx, task(int64(i+1), priority))
		require.NoError(t, err)
	}
	assert.Equal(t, 18, ledger.Snapshot().TotalPoints)
}

func TestLevelUpEvent(t *testing.T) {
	ledger, store := newLedger(t, StreakPerTask)
	store.progress.TotalPoints = 95
	require.NoError(t, ledger.Load(context.Background()))
	assert.Equal(t, 1, ledger.Snapshot().Level)

	events, err := ledger.OnTaskCompleted(context.Background(), task(7, database.PriorityMedium))
	require.NoError(t, err)
	assert.Contains(t, eventTypes(events), EventLevelUp)
	assert.Equal(t, 2, ledger.Snapshot().Level)
	assert.Equal(t, 100, ledger.Snapshot().TotalPoints)
}

func TestLevelAlwaysDerivedFromTotal(t *testing.T) {
	ledger, _ := newLedger(t, StreakPerTask)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := ledger.OnPomodoroCompleted(ctx, string(rune('a'+i)))
		require.NoError(t, err)
		p := ledger.Snapshot()
		assert.Equal(t, p.TotalPoints/100+1, p.Level)
	}
	assert.Equal(t, 300, ledger.Snapshot().TotalPoints)
	assert.Equal(t, 4, ledger.Snapshot().Level)
}

func TestPomodoroBonusLeavesStreakAlone(t *testing.T) {
	ledger, _ := newLedger(t, StreakPerTask)

	events, err := ledger.OnPomodoroCompleted(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventPointsAwarded}, eventTypes(events))

	p := ledger.Snapshot()
	assert.Equal(t, 15, p.TotalPoints)
	assert.Equal(t, 15, p.TodayPoints)
	assert.Equal(t, 1, p.PomodorosToday)
	assert.Zero(t, p.Streak)

	_, err = ledger.OnPomodoroCompleted(context.Background(), "s1")
	assert.ErrorIs(t, err, database.ErrDuplicateEvent)
	assert.Equal(t, 15, ledger.Snapshot().TotalPoints)
}

func TestPerTaskStreakAndMilestones(t *testing.T) {
	ledger, _ := newLedger(t, StreakPerTask)
	ctx := context.Background()

	var milestones []int
	previous := 0
	for id := int64(1); id <= 6; id++ {
		events, err := ledger.OnTaskCompleted(ctx, task(id, database.PriorityLow))
		require.NoError(t, err)
		for _, e := range events {
			if e.Type == EventStreakMilestone {
				milestones = append(milestones, e.Streak)
			}
		}
		p := ledger.Snapshot()
		assert.GreaterOrEqual(t, p.Streak, previous)
		assert.GreaterOrEqual(t, p.LongestStreak, p.Streak)
		previous = p.Streak
	}
	assert.Equal(t, []int{3, 6}, milestones)
	assert.Equal(t, 6, ledger.Snapshot().Streak)
}

func TestDailyStreakIncrementsOncePerDay(t *testing.T) {
	ledger, _ := newLedger(t, StreakDaily)
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		_, err := ledger.OnTaskCompleted(ctx, task(id, database.PriorityLow))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, ledger.Snapshot().Streak)
	assert.Equal(t, 3, ledger.Snapshot().TasksCompletedToday)

	_, err := ledger.OnNewDay(ctx, "2026-10-20")
	require.NoError(t, err)
	_, err = ledger.OnTaskCompleted(ctx, task(4, database.PriorityLow))
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.Snapshot().Streak)
	assert.Equal(t, 2, ledger.Snapshot().LongestStreak)
}

func TestOnNewDayResetsTodayCounters(t *testing.T) {
	ledger, _ := newLedger(t, StreakPerTask)
	ctx := context.Background()

	_, err := ledger.OnTaskCompleted(ctx, task(1, database.PriorityHigh))
	require.NoError(t, err)
	_, err = ledger.OnPomodoroCompleted(ctx, "p")
	require.NoError(t, err)

	events, err := ledger.OnNewDay(ctx, "2026-10-20")
	require.NoError(t, err)
	assert.Empty(t, events)

	p := ledger.Snapshot()
	assert.Equal(t, "2026-10-20", p.Day)
	assert.Zero(t, p.TodayPoints)
	assert.Zero(t, p.TasksCompletedToday)
	assert.Zero(t, p.PomodorosToday)
	assert.Equal(t, 25, p.TotalPoints)
	assert.Equal(t, 1, p.Streak)
}

func TestOnNewDayResetsStreakAfterEmptyDay(t *testing.T) {
	ledger, _ := newLedger(t, StreakPerTask)
	ctx := context.Background()

	_, err := ledger.OnTaskCompleted(ctx, task(1, database.PriorityHigh))
	require.NoError(t, err)
	_, err = ledger.OnNewDay(ctx, "2026-10-20")
	require.NoError(t, err)

	events, err := ledger.OnNewDay(ctx, "2026-10-21")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventStreakReset, events[0].Type)
	assert.Equal(t, 1, events[0].Previous)

	p := ledger.Snapshot()
	assert.Zero(t, p.Streak)
	assert.Equal(t, 1, p.LongestStreak)
}

func TestOnNewDayResetsStreakAcrossGap(t *testing.T) {
	ledger, _ := newLedger(t, StreakPerTask)
	ctx := context.Background()

	_, err := ledger.OnTaskCompleted(ctx, task(1, database.PriorityHigh))
	require.NoError(t, err)

	events, err := ledger.OnNewDay(ctx, "2026-10-22")
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventStreakReset}, eventTypes(events))
}

func TestOnNewDayIgnoresPastDays(t *testing.T) {
	ledger, store := newLedger(t, StreakPerTask)

	events, err := ledger.OnNewDay(context.Background(), "2026-10-19")
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = ledger.OnNewDay(context.Background(), "2026-10-01")
	require.NoError(t, err)
	assert.Zero(t, store.applies)
}

func TestFailedCommitRollsBack(t *testing.T) {
	ledger, store := newLedger(t, StreakPerTask)
	ctx := context.Background()

	_, err := ledger.OnTaskCompleted(ctx, task(1, database.PriorityMedium))
	require.NoError(t, err)
	before := ledger.Snapshot()

	store.fail = errors.New("connection refused")
	_, err = ledger.OnTaskCompleted(ctx, task(2, database.PriorityHigh))
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrStoreUnavailable)
	assert.Equal(t, before, ledger.Snapshot())

	_, err = ledger.OnPomodoroCompleted(ctx, "x")
	assert.ErrorIs(t, err, database.ErrStoreUnavailable)
	assert.Equal(t, before, ledger.Snapshot())

	store.fail = nil
	_, err = ledger.OnTaskCompleted(ctx, task(2, database.PriorityHigh))
	require.NoError(t, err)
	assert.Equal(t, 15, ledger.Snapshot().TotalPoints)
}

func TestParseStreakPolicy(t *testing.T) {
	policy, err := ParseStreakPolicy("")
	require.NoError(t, err)
	assert.Equal(t, StreakPerTask, policy)

	policy, err = ParseStreakPolicy("Daily")
	require.NoError(t, err)
	assert.Equal(t, StreakDaily, policy)

	_, err = ParseStreakPolicy("weekly")
	assert.Error(t, err)
}

func TestLedgerWithSQLStore(t *testing.T) {
	conn, err := database.NewConnector(database.Options{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	store := database.NewStatsStore(conn)
	ledger := New(store, StreakPerTask)
	ctx := context.Background()
	require.NoError(t, ledger.Load(ctx))

	_, err = ledger.OnTaskCompleted(ctx, task(3, database.PriorityHigh))
	require.NoError(t, err)
	_, err = ledger.OnTaskCompleted(ctx, task(3, database.PriorityHigh))
	assert.ErrorIs(t, err, database.ErrDuplicateEvent)

	stored, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.TotalPoints)
	assert.Equal(t, ledger.Snapshot().TotalPoints, stored.TotalPoints)
}

func TestLedgersSharingStoreKeepEachOthersProgress(t *testing.T) {
	conn, err := database.NewConnector(database.Options{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	store := database.NewStatsStore(conn)
	ctx := context.Background()
	tui := New(store, StreakPerTask)
	cli := New(store, StreakPerTask)
	require.NoError(t, tui.Load(ctx))
	require.NoError(t, cli.Load(ctx))

	_, err = cli.OnTaskCompleted(ctx, task(1, database.PriorityHigh))
	require.NoError(t, err)
	_, err = tui.OnPomodoroCompleted(ctx, "abc")
	require.NoError(t, err)

	stored, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, stored.TotalPoints)
	assert.Equal(t, 1, stored.Streak)
	assert.Equal(t, 1, stored.TasksCompletedToday)
	assert.Equal(t, 1, stored.PomodorosToday)
	assert.Equal(t, stored.TotalPoints, tui.Snapshot().TotalPoints)

	_, err = tui.OnTaskCompleted(ctx, task(1, database.PriorityHigh))
	assert.ErrorIs(t, err, database.ErrDuplicateEvent)
	assert.Equal(t, 25, tui.Snapshot().TotalPoints)
	assert.Equal(t, 1, tui.Snapshot().Streak)
}
