package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTaskStoreCreateDerivesPoints(t *testing.T) {
	store := NewTaskStore(newTestConnector(t))
	ctx := context.Background()

	cases := map[Priority]int{PriorityHigh: 10, PriorityMedium: 5, PriorityLow: 3}
	for priority, points := range cases {
		task, err := store.Create(ctx, TaskInput{Title: "write " + string(priority), Priority: priority})
		require.NoError(t, err)
		assert.Equal(t, points, task.Points, priority)
		assert.False(t, task.Completed)
		assert.NotZero(t, task.ID)
	}
}

func TestTaskStoreCreateValidates(t *testing.T) {
	store := NewTaskStore(newTestConnector(t))
	ctx := context.Background()

	_, err := store.Create(ctx, TaskInput{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidTask)

	_, err = store.Create(ctx, TaskInput{Title: "x", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidTask)

	task, err := store.Create(ctx, TaskInput{Title: "defaults"})
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, task.Priority)
}

func TestTaskStoreListOrdersByOrder(t *testing.T) {
	store := NewTaskStore(newTestConnector(t))
	ctx := context.Background()

	first, err := store.Create(ctx, TaskInput{Title: "first"})
	require.NoError(t, err)
	second, err := store.Create(ctx, TaskInput{Title: "second"})
	require.NoError(t, err)
	zero := 0
	_, err = store.Update(ctx, second.ID, TaskPatch{Order: &zero})
	require.NoError(t, err)
	one := 1
	_, err = store.Update(ctx, first.ID, TaskPatch{Order: &one})
	require.NoError(t, err)

	tasks, err := store.List(ctx, TaskQuery{})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "second", tasks[0].Title)
	assert.Equal(t, "first", tasks[1].Title)
}

func TestTaskStoreUpdateCompletion(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 30, 0, 0, time.Local)
	store := NewTaskStore(newTestConnector(t)).WithClock(fixedClock(now))
	ctx := context.Background()

	task, err := store.Create(ctx, TaskInput{Title: "ship", Priority: PriorityLow})
	require.NoError(t, err)

	done := true
	updated, err := store.Update(ctx, task.ID, TaskPatch{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	require.NotNil(t, updated.CompletedAt)

	high := PriorityHigh
	updated, err = store.Update(ctx, task.ID, TaskPatch{Priority: &high})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Points)

	undone := false
	updated, err = store.Update(ctx, task.ID, TaskPatch{Completed: &undone})
	require.NoError(t, err)
	assert.False(t, updated.Completed)
	assert.Nil(t, updated.CompletedAt)

	stored, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Title, stored.Title)
	assert.Equal(t, 10, stored.Points)
	assert.Nil(t, stored.CompletedAt)
}

func TestTaskStoreNotFound(t *testing.T) {
	store := NewTaskStore(newTestConnector(t))
	ctx := context.Background()

	_, err := store.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	title := "x"
	_, err = store.Update(ctx, 42, TaskPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := store.Delete(ctx, 42)
	assert.False(t, deleted)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskStoreDelete(t *testing.T) {
	store := NewTaskStore(newTestConnector(t))
	ctx := context.Background()

	task, err := store.Create(ctx, TaskInput{Title: "temporary"})
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	tasks, err := store.List(ctx, TaskQuery{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskStoreReorderAndMove(t *testing.T) {
	store := NewTaskStore(newTestConnector(t))
	ctx := context.Background()

	var ids []int64
	for _, title := range []string{"a", "b", "c", "d"} {
		task, err := store.Create(ctx, TaskInput{Title: title})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}

	require.NoError(t, store.Reorder(ctx, []int64{ids[3], ids[2], ids[1], ids[0]}))
	tasks, err := store.List(ctx, TaskQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b", "a"}, titles(tasks))
	for i, task := range tasks {
		assert.Equal(t, i, task.Order)
	}

	tasks, err = store.Move(ctx, ids[0], 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a", "c", "b"}, titles(tasks))

	err = store.Reorder(ctx, []int64{999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveID(t *testing.T) {
	got, err := MoveID([]int64{1, 2, 3}, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, got)

	got, err = MoveID([]int64{1, 2, 3}, 1, 99)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 1}, got)

	_, err = MoveID([]int64{1, 2, 3}, 7, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskStoreFilters(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.Local)
	store := NewTaskStore(newTestConnector(t)).WithClock(fixedClock(now))
	ctx := context.Background()

	today := now
	tomorrow := now.AddDate(0, 0, 1)
	_, err := store.Create(ctx, TaskInput{Title: "Review PR", Priority: PriorityHigh, DueDate: &today})
	require.NoError(t, err)
	_, err = store.Create(ctx, TaskInput{Title: "Groceries", Priority: PriorityLow, DueDate: &tomorrow, Completed: true})
	require.NoError(t, err)
	_, err = store.Create(ctx, TaskInput{Title: "Plan sprint", Description: "review backlog", Priority: PriorityHigh})
	require.NoError(t, err)

	tasks, err := store.List(ctx, TaskQuery{Priority: PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, []string{"Review PR", "Plan sprint"}, titles(tasks))

	tasks, err = store.List(ctx, TaskQuery{Status: DoneTasksFilter})
	require.NoError(t, err)
	assert.Equal(t, []string{"Groceries"}, titles(tasks))

	tasks, err = store.List(ctx, TaskQuery{Status: PendingTasksFilter})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = store.List(ctx, TaskQuery{DueOn: &today})
	require.NoError(t, err)
	assert.Equal(t, []string{"Review PR"}, titles(tasks))

	tasks, err = store.List(ctx, TaskQuery{Search: "REVIEW"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Review PR", "Plan sprint"}, titles(tasks))

	removed, err := store.Purge(ctx, TaskQuery{Status: DoneTasksFilter})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestBuildWhereClause(t *testing.T) {
	where, args := BuildWhereClause(TaskQuery{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = BuildWhereClause(TaskQuery{Status: PendingTasksFilter, Priority: PriorityLow})
	assert.Equal(t, "completed = ? AND priority = ?", where)
	assert.Equal(t, []any{false, "low"}, args)
}

func titles(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Title
	}
	return out
}
