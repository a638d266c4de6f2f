package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focusflow/pkg/utils"
)

// StatsStore keeps the user progress row, the applied ledger event keys
// and the pomodoro history
type StatsStore struct {
	conn *Connector
	now  func() time.Time
}

// NewStatsStore creates a stats store on top of conn
func NewStatsStore(conn *Connector) *StatsStore {
	return &StatsStore{conn: conn, now: time.Now}
}

// WithClock replaces the time source, used by tests
func (s *StatsStore) WithClock(now func() time.Time) *StatsStore {
	s.now = now
	return s
}

const statsColumns = `total_points, today_points, level, streak, longest_streak, tasks_completed_today, pomodoros_today, day, last_streak_day, updated_at`

// Get returns the stored progress, or a fresh record for today
func (s *StatsStore) Get(ctx context.Context) (UserProgress, error) {
	var progress UserProgress
	err := s.conn.run(ctx, "get stats", func(db *sql.DB) error {
		var err error
		progress, err = s.load(ctx, db, false)
		return err
	})
	return progress, err
}

func (s *StatsStore) load(ctx context.Context, q queryer, lock bool) (UserProgress, error) {
	query := "SELECT " + statsColumns + " FROM user_stats WHERE id = 1"
	if lock && s.conn.Driver() == DriverPostgres {
		query += " FOR UPDATE"
	}
	var p UserProgress
	err := q.QueryRowContext(ctx, query).Scan(
		&p.TotalPoints,
		&p.TodayPoints,
		&p.Level,
		&p.Streak,
		&p.LongestStreak,
		&p.TasksCompletedToday,
		&p.PomodorosToday,
		&p.Day,
		&p.LastStreakDay,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return NewUserProgress(DayKey(s.now())), nil
	}
	if err != nil {
		return UserProgress{}, err
	}
	p.Level = LevelFor(p.TotalPoints)
	return p, nil
}

// Set merges patch into the stored progress outside of the ledger
func (s *StatsStore) Set(ctx context.Context, patch UserProgressPatch) (UserProgress, error) {
	var progress UserProgress
	err := s.conn.runTx(ctx, "set stats", func(tx *sql.Tx) error {
		current, err := s.load(ctx, tx, true)
		if err != nil {
			return err
		}
		progress = patch.Apply(current)
		progress.UpdatedAt = s.now()
		return s.save(ctx, tx, progress)
	})
	if err != nil {
		return UserProgress{}, err
	}
	return progress, nil
}

// Apply runs mutate on the stored progress and commits the result together
// with the event key that produced it, all in one transaction. A key that
// was already committed returns ErrDuplicateEvent and changes nothing.
func (s *StatsStore) Apply(ctx context.Context, key string, mutate func(p *UserProgress)) (UserProgress, error) {
	var progress UserProgress
	err := s.conn.runTx(ctx, fmt.Sprintf("apply %s", key), func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, s.conn.Rebind("SELECT 1 FROM ledger_events WHERE event_key = ?"), key).Scan(&exists)
		if err == nil {
			return ErrDuplicateEvent
		}
		if err != sql.ErrNoRows {
			return err
		}

		now := s.now()
		// the key insert takes the sqlite write lock before the row is read
		if _, err := tx.ExecContext(ctx, s.conn.Rebind(
			"INSERT INTO ledger_events (event_key, applied_at) VALUES (?, ?)"), key, now); err != nil {
			return err
		}
		current, err := s.load(ctx, tx, true)
		if err != nil {
			return err
		}
		mutate(&current)
		current.Level = LevelFor(current.TotalPoints)
		current.UpdatedAt = now
		if err := s.save(ctx, tx, current); err != nil {
			return err
		}
		progress = current
		return nil
	})
	if err != nil {
		return UserProgress{}, err
	}
	utils.Log("stats: applied %s (total=%d today=%d streak=%d)", key, progress.TotalPoints, progress.TodayPoints, progress.Streak)
	return progress, nil
}

// Applied reports whether key was already committed
func (s *StatsStore) Applied(ctx context.Context, key string) (bool, error) {
	var applied bool
	err := s.conn.run(ctx, "check event", func(db *sql.DB) error {
		var exists int
		err := db.QueryRowContext(ctx, s.conn.Rebind("SELECT 1 FROM ledger_events WHERE event_key = ?"), key).Scan(&exists)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (s *StatsStore) save(ctx context.Context, tx *sql.Tx, p UserProgress) error {
	_, err := tx.ExecContext(ctx, s.conn.Rebind(
		`INSERT INTO user_stats (id, `+statsColumns+`)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			total_points = excluded.total_points,
			today_points = excluded.today_points,
			level = excluded.level,
			streak = excluded.streak,
			longest_streak = excluded.longest_streak,
			tasks_completed_today = excluded.tasks_completed_today,
			pomodoros_today = excluded.pomodoros_today,
			day = excluded.day,
			last_streak_day = excluded.last_streak_day,
			updated_at = excluded.updated_at`),
		p.TotalPoints,
		p.TodayPoints,
		LevelFor(p.TotalPoints),
		p.Streak,
		p.LongestStreak,
		p.TasksCompletedToday,
		p.PomodorosToday,
		p.Day,
		p.LastStreakDay,
		p.UpdatedAt,
	)
	return err
}

// RecordPomodoro stores a finished timer session
func (s *StatsStore) RecordPomodoro(ctx context.Context, rec PomodoroRecord) error {
	return s.conn.run(ctx, "record pomodoro", func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, s.conn.Rebind(
			`INSERT INTO pomodoro_sessions (id, mode, planned_seconds, started_at, ended_at) VALUES (?, ?, ?, ?, ?)`),
			rec.ID, rec.Mode, rec.PlannedSeconds, rec.StartedAt, rec.EndedAt)
		return err
	})
}

// ListPomodoros returns sessions that ended at or after since, oldest first
func (s *StatsStore) ListPomodoros(ctx context.Context, since time.Time) ([]PomodoroRecord, error) {
	var records []PomodoroRecord
	err := s.conn.run(ctx, "list pomodoros", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, s.conn.Rebind(
			`SELECT id, mode, planned_seconds, started_at, ended_at FROM pomodoro_sessions
			 WHERE ended_at >= ? ORDER BY ended_at ASC`), since)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var rec PomodoroRecord
			if err := rows.Scan(&rec.ID, &rec.Mode, &rec.PlannedSeconds, &rec.StartedAt, &rec.EndedAt); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	return records, err
}
