package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"
)

// Settings is the canonical user preference record. Storage formats
// translate to and from it at their own boundary.
type Settings struct {
	FocusMinutes         int       `json:"pomodoroDuration"`
	ShortBreakMinutes    int       `json:"shortBreakDuration"`
	LongBreakMinutes     int       `json:"longBreakDuration"`
	AutoStartBreaks      bool      `json:"autoStartBreaks"`
	AutoStartPomodoros   bool      `json:"autoStartPomodoros"`
	Notifications        bool      `json:"notifications"`
	SoundEnabled         bool      `json:"soundEnabled"`
	DailyGoal            int       `json:"dailyGoal"`
	WorkStartTime        string    `json:"workStartTime"`
	WorkEndTime          string    `json:"workEndTime"`
	MotivationalMessages bool      `json:"motivationalMessages"`
	StreakReminders      bool      `json:"streakReminders"`
	WeekendMode          bool      `json:"weekendMode"`
	Theme                string    `json:"theme"`
	Language             string    `json:"language"`
	Timezone             string    `json:"timezone"`
	EmailNotifications   bool      `json:"emailNotifications"`
	WeeklyReports        bool      `json:"weeklyReports"`
	DataRetention        int       `json:"dataRetention"`
	PrivacyMode          bool      `json:"privacyMode"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// DefaultSettings returns the factory preferences
func DefaultSettings() Settings {
	return Settings{
		FocusMinutes:         25,
		ShortBreakMinutes:    5,
		LongBreakMinutes:     15,
		AutoStartBreaks:      true,
		AutoStartPomodoros:   false,
		Notifications:        true,
		SoundEnabled:         true,
		DailyGoal:            8,
		WorkStartTime:        "09:00",
		WorkEndTime:          "17:00",
		MotivationalMessages: true,
		StreakReminders:      true,
		WeekendMode:          false,
		Theme:                "light",
		Language:             "en",
		Timezone:             "America/New_York",
		EmailNotifications:   false,
		WeeklyReports:        true,
		DataRetention:        365,
		PrivacyMode:          false,
	}
}

// FocusDuration returns the focus length as a duration
func (s Settings) FocusDuration() time.Duration {
	return time.Duration(s.FocusMinutes) * time.Minute
}

// ShortBreakDuration returns the short break length as a duration
func (s Settings) ShortBreakDuration() time.Duration {
	return time.Duration(s.ShortBreakMinutes) * time.Minute
}

// LongBreakDuration returns the long break length as a duration
func (s Settings) LongBreakDuration() time.Duration {
	return time.Duration(s.LongBreakMinutes) * time.Minute
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Validate checks ranges and enumerations
func (s Settings) Validate() error {
	if s.FocusMinutes < 1 || s.FocusMinutes > 180 {
		return fmt.Errorf("%w: focus duration must be 1-180 minutes", ErrInvalidSettings)
	}
	if s.ShortBreakMinutes < 1 || s.ShortBreakMinutes > 60 {
		return fmt.Errorf("%w: short break must be 1-60 minutes", ErrInvalidSettings)
	}
	if s.LongBreakMinutes < 1 || s.LongBreakMinutes > 120 {
		return fmt.Errorf("%w: long break must be 1-120 minutes", ErrInvalidSettings)
	}
	if s.DailyGoal < 1 {
		return fmt.Errorf("%w: daily goal must be at least 1", ErrInvalidSettings)
	}
	if !clockPattern.MatchString(s.WorkStartTime) || !clockPattern.MatchString(s.WorkEndTime) {
		return fmt.Errorf("%w: work hours must use HH:MM", ErrInvalidSettings)
	}
	if s.WorkStartTime >= s.WorkEndTime {
		return fmt.Errorf("%w: work hours must end after they start", ErrInvalidSettings)
	}
	switch s.Theme {
	case "light", "dark", "auto":
	default:
		return fmt.Errorf("%w: unknown theme %q", ErrInvalidSettings, s.Theme)
	}
	if s.DataRetention < 1 {
		return fmt.Errorf("%w: data retention must be at least 1 day", ErrInvalidSettings)
	}
	return nil
}

// SettingsPatch is a partial settings update, nil fields are untouched
type SettingsPatch struct {
	FocusMinutes         *int    `json:"pomodoroDuration,omitempty" yaml:"focus_minutes,omitempty" toml:"focus_minutes"`
	ShortBreakMinutes    *int    `json:"shortBreakDuration,omitempty" yaml:"short_break_minutes,omitempty" toml:"short_break_minutes"`
	LongBreakMinutes     *int    `json:"longBreakDuration,omitempty" yaml:"long_break_minutes,omitempty" toml:"long_break_minutes"`
	AutoStartBreaks      *bool   `json:"autoStartBreaks,omitempty" yaml:"auto_start_breaks,omitempty" toml:"auto_start_breaks"`
	AutoStartPomodoros   *bool   `json:"autoStartPomodoros,omitempty" yaml:"auto_start_pomodoros,omitempty" toml:"auto_start_pomodoros"`
	Notifications        *bool   `json:"notifications,omitempty" yaml:"notifications,omitempty" toml:"notifications"`
	SoundEnabled         *bool   `json:"soundEnabled,omitempty" yaml:"sound_enabled,omitempty" toml:"sound_enabled"`
	DailyGoal            *int    `json:"dailyGoal,omitempty" yaml:"daily_goal,omitempty" toml:"daily_goal"`
	WorkStartTime        *string `json:"workStartTime,omitempty" yaml:"work_start_time,omitempty" toml:"work_start_time"`
	WorkEndTime          *string `json:"workEndTime,omitempty" yaml:"work_end_time,omitempty" toml:"work_end_time"`
	MotivationalMessages *bool   `json:"motivationalMessages,omitempty" yaml:"motivational_messages,omitempty" toml:"motivational_messages"`
	StreakReminders      *bool   `json:"streakReminders,omitempty" yaml:"streak_reminders,omitempty" toml:"streak_reminders"`
	WeekendMode          *bool   `json:"weekendMode,omitempty" yaml:"weekend_mode,omitempty" toml:"weekend_mode"`
	Theme                *string `json:"theme,omitempty" yaml:"theme,omitempty" toml:"theme"`
	Language             *string `json:"language,omitempty" yaml:"language,omitempty" toml:"language"`
	Timezone             *string `json:"timezone,omitempty" yaml:"timezone,omitempty" toml:"timezone"`
	EmailNotifications   *bool   `json:"emailNotifications,omitempty" yaml:"email_notifications,omitempty" toml:"email_notifications"`
	WeeklyReports        *bool   `json:"weeklyReports,omitempty" yaml:"weekly_reports,omitempty" toml:"weekly_reports"`
	DataRetention        *int    `json:"dataRetention,omitempty" yaml:"data_retention,omitempty" toml:"data_retention"`
	PrivacyMode          *bool   `json:"privacyMode,omitempty" yaml:"privacy_mode,omitempty" toml:"privacy_mode"`
}

// Apply merges the patch into s
func (p SettingsPatch) Apply(s Settings) Settings {
	setInt(&s.FocusMinutes, p.FocusMinutes)
	setInt(&s.ShortBreakMinutes, p.ShortBreakMinutes)
	setInt(&s.LongBreakMinutes, p.LongBreakMinutes)
	setBool(&s.AutoStartBreaks, p.AutoStartBreaks)
	setBool(&s.AutoStartPomodoros, p.AutoStartPomodoros)
	setBool(&s.Notifications, p.Notifications)
	setBool(&s.SoundEnabled, p.SoundEnabled)
	setInt(&s.DailyGoal, p.DailyGoal)
	setString(&s.WorkStartTime, p.WorkStartTime)
	setString(&s.WorkEndTime, p.WorkEndTime)
	setBool(&s.MotivationalMessages, p.MotivationalMessages)
	setBool(&s.StreakReminders, p.StreakReminders)
	setBool(&s.WeekendMode, p.WeekendMode)
	setString(&s.Theme, p.Theme)
	setString(&s.Language, p.Language)
	setString(&s.Timezone, p.Timezone)
	setBool(&s.EmailNotifications, p.EmailNotifications)
	setBool(&s.WeeklyReports, p.WeeklyReports)
	setInt(&s.DataRetention, p.DataRetention)
	setBool(&s.PrivacyMode, p.PrivacyMode)
	return s
}

// PatchFrom returns a patch that sets every field of s
func PatchFrom(s Settings) SettingsPatch {
	return SettingsPatch{
		FocusMinutes:         &s.FocusMinutes,
		ShortBreakMinutes:    &s.ShortBreakMinutes,
		LongBreakMinutes:     &s.LongBreakMinutes,
		AutoStartBreaks:      &s.AutoStartBreaks,
		AutoStartPomodoros:   &s.AutoStartPomodoros,
		Notifications:        &s.Notifications,
		SoundEnabled:         &s.SoundEnabled,
		DailyGoal:            &s.DailyGoal,
		WorkStartTime:        &s.WorkStartTime,
		WorkEndTime:          &s.WorkEndTime,
		MotivationalMessages: &s.MotivationalMessages,
		StreakReminders:      &s.StreakReminders,
		WeekendMode:          &s.WeekendMode,
		Theme:                &s.Theme,
		Language:             &s.Language,
		Timezone:             &s.Timezone,
		EmailNotifications:   &s.EmailNotifications,
		WeeklyReports:        &s.WeeklyReports,
		DataRetention:        &s.DataRetention,
		PrivacyMode:          &s.PrivacyMode,
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// SQLSettingsStore keeps the settings in a single-row table
type SQLSettingsStore struct {
	conn *Connector
	now  func() time.Time
}

// NewSettingsStore creates a settings store on top of conn
func NewSettingsStore(conn *Connector) *SQLSettingsStore {
	return &SQLSettingsStore{conn: conn, now: time.Now}
}

const settingsColumns = `focus_minutes, short_break_minutes, long_break_minutes, auto_start_breaks, auto_start_pomodoros,
	notifications, sound_enabled, daily_goal, work_start_time, work_end_time, motivational_messages, streak_reminders,
	weekend_mode, theme, language, timezone, email_notifications, weekly_reports, data_retention, privacy_mode, updated_at`

// Get returns the stored settings, or the defaults when none were saved
func (s *SQLSettingsStore) Get(ctx context.Context) (Settings, error) {
	var settings Settings
	err := s.conn.run(ctx, "get settings", func(db *sql.DB) error {
		var err error
		settings, err = s.load(ctx, db)
		return err
	})
	return settings, err
}

func (s *SQLSettingsStore) load(ctx context.Context, q queryer) (Settings, error) {
	var st Settings
	err := q.QueryRowContext(ctx, "SELECT "+settingsColumns+" FROM settings WHERE id = 1").Scan(
		&st.FocusMinutes,
		&st.ShortBreakMinutes,
		&st.LongBreakMinutes,
		&st.AutoStartBreaks,
		&st.AutoStartPomodoros,
		&st.Notifications,
		&st.SoundEnabled,
		&st.DailyGoal,
		&st.WorkStartTime,
		&st.WorkEndTime,
		&st.MotivationalMessages,
		&st.StreakReminders,
		&st.WeekendMode,
		&st.Theme,
		&st.Language,
		&st.Timezone,
		&st.EmailNotifications,
		&st.WeeklyReports,
		&st.DataRetention,
		&st.PrivacyMode,
		&st.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return DefaultSettings(), nil
	}
	return st, err
}

// Set merges patch into the stored settings
func (s *SQLSettingsStore) Set(ctx context.Context, patch SettingsPatch) (Settings, error) {
	var settings Settings
	err := s.conn.runTx(ctx, "set settings", func(tx *sql.Tx) error {
		current, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		settings = patch.Apply(current)
		if err := settings.Validate(); err != nil {
			return err
		}
		settings.UpdatedAt = s.now()
		return s.save(ctx, tx, settings)
	})
	if err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// ResetToDefaults overwrites the stored settings with the defaults
func (s *SQLSettingsStore) ResetToDefaults(ctx context.Context) (Settings, error) {
	settings := DefaultSettings()
	settings.UpdatedAt = s.now()
	err := s.conn.runTx(ctx, "reset settings", func(tx *sql.Tx) error {
		return s.save(ctx, tx, settings)
	})
	if err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (s *SQLSettingsStore) save(ctx context.Context, tx *sql.Tx, st Settings) error {
	_, err := tx.ExecContext(ctx, s.conn.Rebind(
		`INSERT INTO settings (id, `+settingsColumns+`)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			focus_minutes = excluded.focus_minutes,
			short_break_minutes = excluded.short_break_minutes,
			long_break_minutes = excluded.long_break_minutes,
			auto_start_breaks = excluded.auto_start_breaks,
			auto_start_pomodoros = excluded.auto_start_pomodoros,
			notifications = excluded.notifications,
			sound_enabled = excluded.sound_enabled,
			daily_goal = excluded.daily_goal,
			work_start_time = excluded.work_start_time,
			work_end_time = excluded.work_end_time,
			motivational_messages = excluded.motivational_messages,
			streak_reminders = excluded.streak_reminders,
			weekend_mode = excluded.weekend_mode,
			theme = excluded.theme,
			language = excluded.language,
			timezone = excluded.timezone,
			email_notifications = excluded.email_notifications,
			weekly_reports = excluded.weekly_reports,
			data_retention = excluded.data_retention,
			privacy_mode = excluded.privacy_mode,
			updated_at = excluded.updated_at`),
		st.FocusMinutes,
		st.ShortBreakMinutes,
		st.LongBreakMinutes,
		st.AutoStartBreaks,
		st.AutoStartPomodoros,
		st.Notifications,
		st.SoundEnabled,
		st.DailyGoal,
		st.WorkStartTime,
		st.WorkEndTime,
		st.MotivationalMessages,
		st.StreakReminders,
		st.WeekendMode,
		st.Theme,
		st.Language,
		st.Timezone,
		st.EmailNotifications,
		st.WeeklyReports,
		st.DataRetention,
		st.PrivacyMode,
		st.UpdatedAt,
	)
	return err
}
