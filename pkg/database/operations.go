package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"focusflow/pkg/utils"
)

const taskColumns = `id, title, description, priority, points, completed, sort_order, due_date, created_at, updated_at, completed_at`

// TaskStore persists tasks through the shared Connector
type TaskStore struct {
	conn *Connector
	now  func() time.Time
}

// NewTaskStore creates a task store on top of conn
func NewTaskStore(conn *Connector) *TaskStore {
	return &TaskStore{conn: conn, now: time.Now}
}

// WithClock replaces the time source, used by tests
func (s *TaskStore) WithClock(now func() time.Time) *TaskStore {
	s.now = now
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var task Task
	var priority string
	var dueDate, completedAt sql.NullTime
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&priority,
		&task.Points,
		&task.Completed,
		&task.Order,
		&dueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completedAt,
	); err != nil {
		return Task{}, err
	}
	task.Priority = Priority(priority)
	if dueDate.Valid {
		due := dueDate.Time
		task.DueDate = &due
	}
	if completedAt.Valid {
		done := completedAt.Time
		task.CompletedAt = &done
	}
	return task, nil
}

// List retrieves tasks matching q ordered by their display order
func (s *TaskStore) List(ctx context.Context, q TaskQuery) ([]Task, error) {
	var items []Task
	err := s.conn.run(ctx, "list tasks", func(db *sql.DB) error {
		where, args := BuildWhereClause(q)
		query := "SELECT " + taskColumns + " FROM tasks"
		if where != "" {
			query += " WHERE " + where
		}
		query += " ORDER BY sort_order ASC, id ASC"

		rows, err := db.QueryContext(ctx, s.conn.Rebind(query), args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				return err
			}
			items = append(items, task)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	utils.Log("Loaded %d tasks from database", len(items))
	return items, nil
}

// Get returns a single task
func (s *TaskStore) Get(ctx context.Context, id int64) (Task, error) {
	var task Task
	err := s.conn.run(ctx, fmt.Sprintf("get task %d", id), func(db *sql.DB) error {
		var err error
		task, err = getTask(ctx, db, s.conn, id)
		return err
	})
	return task, err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTask(ctx context.Context, q queryer, conn *Connector, id int64) (Task, error) {
	row := q.QueryRowContext(ctx, conn.Rebind("SELECT "+taskColumns+" FROM tasks WHERE id = ?"), id)
	return scanTask(row)
}

// Create inserts a new task and returns it with its id
func (s *TaskStore) Create(ctx context.Context, in TaskInput) (Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, fmt.Errorf("create task: %w: title is required", ErrInvalidTask)
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Priority.Valid() {
		return Task{}, fmt.Errorf("create task: %w: unknown priority %q", ErrInvalidTask, in.Priority)
	}

	now := s.now()
	task := Task{
		Title:       title,
		Description: in.Description,
		Priority:    in.Priority,
		Points:      PointsFor(in.Priority),
		Completed:   in.Completed,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Completed {
		task.CompletedAt = &now
	}

	err := s.conn.runTx(ctx, "create task", func(tx *sql.Tx) error {
		if in.Order != nil {
			task.Order = *in.Order
		} else {
			var next int
			if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(sort_order), -1) + 1 FROM tasks").Scan(&next); err != nil {
				return err
			}
			task.Order = next
		}

		return tx.QueryRowContext(ctx, s.conn.Rebind(
			`INSERT INTO tasks (title, description, priority, points, completed, sort_order, due_date, created_at, updated_at, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			task.Title,
			task.Description,
			string(task.Priority),
			task.Points,
			task.Completed,
			task.Order,
			nullTime(task.DueDate),
			task.CreatedAt,
			task.UpdatedAt,
			nullTime(task.CompletedAt),
		).Scan(&task.ID)
	})
	if err != nil {
		return Task{}, err
	}

	utils.Log("Added task: %d", task.ID)
	return task, nil
}

// Update applies a partial update and returns the stored task
func (s *TaskStore) Update(ctx context.Context, id int64, patch TaskPatch) (Task, error) {
	var task Task
	err := s.conn.runTx(ctx, fmt.Sprintf("update task %d", id), func(tx *sql.Tx) error {
		current, err := getTask(ctx, tx, s.conn, id)
		if err != nil {
			return err
		}
		task, err = applyTaskPatch(current, patch, s.now())
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, s.conn.Rebind(
			`UPDATE tasks SET title = ?, description = ?, priority = ?, points = ?, completed = ?, sort_order = ?,
			 due_date = ?, updated_at = ?, completed_at = ? WHERE id = ?`),
			task.Title,
			task.Description,
			string(task.Priority),
			task.Points,
			task.Completed,
			task.Order,
			nullTime(task.DueDate),
			task.UpdatedAt,
			nullTime(task.CompletedAt),
			task.ID,
		)
		return err
	})
	if err != nil {
		return Task{}, err
	}

	utils.Log("Updated task: %d", task.ID)
	return task, nil
}

func applyTaskPatch(task Task, patch TaskPatch, now time.Time) (Task, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return Task{}, fmt.Errorf("%w: title is required", ErrInvalidTask)
		}
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return Task{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, *patch.Priority)
		}
		task.Priority = *patch.Priority
		task.Points = PointsFor(task.Priority)
	}
	if patch.Completed != nil && *patch.Completed != task.Completed {
		task.Completed = *patch.Completed
		if task.Completed {
			task.CompletedAt = &now
		} else {
			task.CompletedAt = nil
		}
	}
	if patch.Order != nil {
		task.Order = *patch.Order
	}
	if patch.ClearDue {
		task.DueDate = nil
	} else if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	task.UpdatedAt = now
	return task, nil
}

// Delete removes a task from the database
func (s *TaskStore) Delete(ctx context.Context, id int64) (bool, error) {
	err := s.conn.run(ctx, fmt.Sprintf("delete task %d", id), func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, s.conn.Rebind("DELETE FROM tasks WHERE id = ?"), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	utils.Log("Deleted task: %d", id)
	return true, nil
}

// Reorder assigns order 0..n-1 following ids
func (s *TaskStore) Reorder(ctx context.Context, ids []int64) error {
	now := s.now()
	return s.conn.runTx(ctx, "reorder tasks", func(tx *sql.Tx) error {
		stmt := s.conn.Rebind("UPDATE tasks SET sort_order = ?, updated_at = ? WHERE id = ?")
		for i, id := range ids {
			res, err := tx.ExecContext(ctx, stmt, i, now, id)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("task %d: %w", id, ErrNotFound)
			}
		}
		return nil
	})
}

// Move places the task at position and resequences the whole list
func (s *TaskStore) Move(ctx context.Context, id int64, position int) ([]Task, error) {
	tasks, err := s.List(ctx, TaskQuery{})
	if err != nil {
		return nil, err
	}
	ids, err := MoveID(taskIDs(tasks), id, position)
	if err != nil {
		return nil, err
	}
	if err := s.Reorder(ctx, ids); err != nil {
		return nil, err
	}
	return s.List(ctx, TaskQuery{})
}

// MoveID returns ids with id moved to position (clamped to the list bounds)
func MoveID(ids []int64, id int64, position int) ([]int64, error) {
	from := -1
	for i, candidate := range ids {
		if candidate == id {
			from = i
			break
		}
	}
	if from == -1 {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}

	rest := make([]int64, 0, len(ids))
	rest = append(rest, ids[:from]...)
	rest = append(rest, ids[from+1:]...)
	if position < 0 {
		position = 0
	}
	if position > len(rest) {
		position = len(rest)
	}

	out := make([]int64, 0, len(ids))
	out = append(out, rest[:position]...)
	out = append(out, id)
	out = append(out, rest[position:]...)
	return out, nil
}

func taskIDs(tasks []Task) []int64 {
	ids := make([]int64, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}

// Purge deletes every task matching q and returns how many were removed
func (s *TaskStore) Purge(ctx context.Context, q TaskQuery) (int64, error) {
	var affected int64
	err := s.conn.run(ctx, "purge tasks", func(db *sql.DB) error {
		where, args := BuildWhereClause(q)
		query := "DELETE FROM tasks"
		if where != "" {
			query += " WHERE " + where
		}
		res, err := db.ExecContext(ctx, s.conn.Rebind(query), args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

// BuildWhereClause builds a parameterised where clause for q
func BuildWhereClause(q TaskQuery) (string, []any) {
	var conditions []string
	var args []any

	switch q.Status {
	case DoneTasksFilter:
		conditions = append(conditions, "completed = ?")
		args = append(args, true)
	case PendingTasksFilter:
		conditions = append(conditions, "completed = ?")
		args = append(args, false)
	}

	if q.Priority != "" {
		conditions = append(conditions, "priority = ?")
		args = append(args, string(q.Priority))
	}

	if q.DueOn != nil {
		start := time.Date(q.DueOn.Year(), q.DueOn.Month(), q.DueOn.Day(), 0, 0, 0, 0, q.DueOn.Location())
		conditions = append(conditions, "due_date >= ? AND due_date < ?")
		args = append(args, start, start.AddDate(0, 0, 1))
	}

	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		conditions = append(conditions, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern)
	}

	whereClause := strings.Join(conditions, " AND ")
	utils.Log("Built where clause: %s", whereClause)
	return whereClause, args
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
