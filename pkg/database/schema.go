package database

import (
	"context"
	"database/sql"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'medium',
		points INTEGER NOT NULL DEFAULT 5,
		completed BOOLEAN NOT NULL DEFAULT 0,
		sort_order INTEGER NOT NULL DEFAULT 0,
		due_date TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY,
		focus_minutes INTEGER NOT NULL,
		short_break_minutes INTEGER NOT NULL,
		long_break_minutes INTEGER NOT NULL,
		auto_start_breaks BOOLEAN NOT NULL,
		auto_start_pomodoros BOOLEAN NOT NULL,
		notifications BOOLEAN NOT NULL,
		sound_enabled BOOLEAN NOT NULL,
		daily_goal INTEGER NOT NULL,
		work_start_time TEXT NOT NULL,
		work_end_time TEXT NOT NULL,
		motivational_messages BOOLEAN NOT NULL,
		streak_reminders BOOLEAN NOT NULL,
		weekend_mode BOOLEAN NOT NULL,
		theme TEXT NOT NULL,
		language TEXT NOT NULL,
		timezone TEXT NOT NULL,
		email_notifications BOOLEAN NOT NULL,
		weekly_reports BOOLEAN NOT NULL,
		data_retention INTEGER NOT NULL,
		privacy_mode BOOLEAN NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_stats (
		id INTEGER PRIMARY KEY,
		total_points INTEGER NOT NULL DEFAULT 0,
		today_points INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1,
		streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		tasks_completed_today INTEGER NOT NULL DEFAULT 0,
		pomodoros_today INTEGER NOT NULL DEFAULT 0,
		day TEXT NOT NULL DEFAULT '',
		last_streak_day TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_events (
		event_key TEXT PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pomodoro_sessions (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		planned_seconds INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_order ON tasks (sort_order, id)`,
	`CREATE INDEX IF NOT EXISTS idx_pomodoro_ended ON pomodoro_sessions (ended_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'medium',
		points INTEGER NOT NULL DEFAULT 5,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		sort_order INTEGER NOT NULL DEFAULT 0,
		due_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY,
		focus_minutes INTEGER NOT NULL,
		short_break_minutes INTEGER NOT NULL,
		long_break_minutes INTEGER NOT NULL,
		auto_start_breaks BOOLEAN NOT NULL,
		auto_start_pomodoros BOOLEAN NOT NULL,
		notifications BOOLEAN NOT NULL,
		sound_enabled BOOLEAN NOT NULL,
		daily_goal INTEGER NOT NULL,
		work_start_time TEXT NOT NULL,
		work_end_time TEXT NOT NULL,
		motivational_messages BOOLEAN NOT NULL,
		streak_reminders BOOLEAN NOT NULL,
		weekend_mode BOOLEAN NOT NULL,
		theme TEXT NOT NULL,
		language TEXT NOT NULL,
		timezone TEXT NOT NULL,
		email_notifications BOOLEAN NOT NULL,
		weekly_reports BOOLEAN NOT NULL,
		data_retention INTEGER NOT NULL,
		privacy_mode BOOLEAN NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_stats (
		id INTEGER PRIMARY KEY,
		total_points INTEGER NOT NULL DEFAULT 0,
		today_points INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1,
		streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		tasks_completed_today INTEGER NOT NULL DEFAULT 0,
		pomodoros_today INTEGER NOT NULL DEFAULT 0,
		day TEXT NOT NULL DEFAULT '',
		last_streak_day TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_events (
		event_key TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pomodoro_sessions (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		planned_seconds INTEGER NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_order ON tasks (sort_order, id)`,
	`CREATE INDEX IF NOT EXISTS idx_pomodoro_ended ON pomodoro_sessions (ended_at)`,
}

// EnsureSchema creates the database schema if it doesn't exist
func EnsureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	statements := sqliteSchema
	if driver == DriverPostgres {
		statements = postgresSchema
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
