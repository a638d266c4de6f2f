package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"focusflow/pkg/database"
	"focusflow/pkg/progress"
	"focusflow/pkg/timer"
	"focusflow/pkg/utils"
)

// TaskStore is the part of the task store a session drives
type TaskStore interface {
	Get(ctx context.Context, id int64) (database.Task, error)
	Update(ctx context.Context, id int64, patch database.TaskPatch) (database.Task, error)
}

// SettingsStore reads and writes user preferences
type SettingsStore interface {
	Get(ctx context.Context) (database.Settings, error)
	Set(ctx context.Context, patch database.SettingsPatch) (database.Settings, error)
	ResetToDefaults(ctx context.Context) (database.Settings, error)
}

// StatsStore persists progress and the pomodoro history
type StatsStore interface {
	progress.Store
	RecordPomodoro(ctx context.Context, rec database.PomodoroRecord) error
}

// Deps are the collaborators of a Session
type Deps struct {
	Tasks    TaskStore
	Settings SettingsStore
	Stats    StatsStore

	Clock           Clock
	StreakPolicy    progress.StreakPolicy
	TransitionDelay int
	TickInterval    time.Duration

	// NewID generates pomodoro record ids
	NewID func() string
}

// Session owns the timer engine and the progress ledger of one user and
// routes every mutation through them
type Session struct {
	deps   Deps
	clock  Clock
	engine *timer.Engine
	runner *timer.Runner
	ledger *progress.Ledger

	mu            sync.Mutex
	settings      database.Settings
	intervalStart time.Time
	subscribers   []chan Notification
	jobs          []func(context.Context)
	pending       []string
	closed        bool

	wake       chan struct{}
	quit       chan struct{}
	workerDone chan struct{}
}

// Open loads settings and progress and returns a ready session
func Open(ctx context.Context, deps Deps) (*Session, error) {
	if deps.Tasks == nil || deps.Settings == nil || deps.Stats == nil {
		return nil, errors.New("session: task, settings and stats stores are required")
	}
	if deps.Clock == nil {
		deps.Clock = RealClock{}
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.TickInterval <= 0 {
		deps.TickInterval = time.Second
	}

	settings, err := deps.Settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	ledger := progress.New(deps.Stats, deps.StreakPolicy)
	if err := ledger.Load(ctx); err != nil {
		return nil, err
	}

	engine := timer.New(timer.Config{
		Durations:       DurationsFrom(settings),
		TransitionDelay: deps.TransitionDelay,
		AutoStartBreaks: settings.AutoStartBreaks,
		AutoStartFocus:  settings.AutoStartPomodoros,
	})

	s := &Session{
		deps:       deps,
		clock:      deps.Clock,
		engine:     engine,
		runner:     timer.NewRunner(engine),
		ledger:     ledger,
		settings:   settings,
		wake:       make(chan struct{}, 1),
		quit:       make(chan struct{}),
		workerDone: make(chan struct{}),
	}
	if _, err := s.RolloverDay(ctx); err != nil {
		utils.Log("session: day rollover failed: %v", err)
	}
	engine.OnEvent(s.onTimerEvent)
	go s.work()

	utils.Log("session: opened (focus=%ds policy=%s)", settings.FocusMinutes*60, ledger.Policy())
	return s, nil
}

// DurationsFrom converts minute settings into engine durations
func DurationsFrom(settings database.Settings) timer.Durations {
	return timer.Durations{
		Focus:      settings.FocusMinutes * 60,
		ShortBreak: settings.ShortBreakMinutes * 60,
		LongBreak:  settings.LongBreakMinutes * 60,
	}
}

// Timer returns the current timer state
func (s *Session) Timer() timer.Session {
	return s.engine.Snapshot()
}

// Progress returns the current user progress
func (s *Session) Progress() database.UserProgress {
	return s.ledger.Snapshot()
}

// Settings returns the settings the session runs with
func (s *Session) Settings() database.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// StartTimer starts or resumes the current interval
func (s *Session) StartTimer() { s.engine.Start() }

// PauseTimer freezes the current interval
func (s *Session) PauseTimer() { s.engine.Pause() }

// StopTimer resets the current interval
func (s *Session) StopTimer() { s.engine.Stop() }

// SwitchMode replaces the current interval with an idle one in mode
func (s *Session) SwitchMode(mode timer.Mode) error { return s.engine.SwitchMode(mode) }

// Tick advances the timer by one second
func (s *Session) Tick() { s.engine.Tick() }

// RunClock drives the timer from the wall clock. A zero interval uses the
// configured tick interval.
func (s *Session) RunClock(interval time.Duration) {
	if interval <= 0 {
		interval = s.deps.TickInterval
	}
	s.runner.Start(interval)
}

// StopClock stops the wall clock, no tick is delivered after it returns
func (s *Session) StopClock() {
	s.runner.Stop()
}

// ClockRunning reports whether the wall clock drives the timer
func (s *Session) ClockRunning() bool {
	return s.runner.Running()
}

// CompleteTask marks a task completed and awards its points. Completing an
// already completed task changes nothing.
func (s *Session) CompleteTask(ctx context.Context, id int64) (database.Task, []progress.Event, error) {
	task, err := s.deps.Tasks.Get(ctx, id)
	if err != nil {
		return database.Task{}, nil, err
	}
	if task.Completed {
		return task, nil, nil
	}

	if err := s.prepareLedger(ctx); err != nil {
		return task, nil, err
	}
	events, err := s.ledger.OnTaskCompleted(ctx, task)
	if err != nil && !errors.Is(err, database.ErrDuplicateEvent) {
		return task, nil, err
	}

	done := true
	updated, err := s.deps.Tasks.Update(ctx, id, database.TaskPatch{Completed: &done})
	if err != nil {
		return task, events, err
	}
	s.publish(Notification{Kind: KindTask, Task: updated})
	s.publishLedger(events)
	return updated, events, nil
}

// ReopenTask clears the completion flag. Points already awarded are kept
// and are not awarded again when the task is completed once more.
func (s *Session) ReopenTask(ctx context.Context, id int64) (database.Task, error) {
	task, err := s.deps.Tasks.Get(ctx, id)
	if err != nil {
		return database.Task{}, err
	}
	if !task.Completed {
		return task, nil
	}
	open := false
	updated, err := s.deps.Tasks.Update(ctx, id, database.TaskPatch{Completed: &open})
	if err != nil {
		return task, err
	}
	s.publish(Notification{Kind: KindTask, Task: updated})
	return updated, nil
}

// ToggleTask completes an open task or reopens a completed one
func (s *Session) ToggleTask(ctx context.Context, id int64) (database.Task, []progress.Event, error) {
	task, err := s.deps.Tasks.Get(ctx, id)
	if err != nil {
		return database.Task{}, nil, err
	}
	if task.Completed {
		updated, err := s.ReopenTask(ctx, id)
		return updated, nil, err
	}
	return s.CompleteTask(ctx, id)
}

// RolloverDay closes the accounting day when the clock has moved past it
func (s *Session) RolloverDay(ctx context.Context) ([]progress.Event, error) {
	today := database.DayKey(s.clock.Now())
	events, err := s.ledger.OnNewDay(ctx, today)
	if errors.Is(err, database.ErrDuplicateEvent) {
		if loadErr := s.ledger.Load(ctx); loadErr != nil {
			return nil, loadErr
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.publishLedger(events)
	return events, nil
}

// ApplySettings stores a settings patch and pushes durations and auto-start
// flags into the timer
func (s *Session) ApplySettings(ctx context.Context, patch database.SettingsPatch) (database.Settings, error) {
	settings, err := s.deps.Settings.Set(ctx, patch)
	if err != nil {
		return database.Settings{}, err
	}
	s.useSettings(settings)
	return settings, nil
}

// ResetSettings restores the factory settings
func (s *Session) ResetSettings(ctx context.Context) (database.Settings, error) {
	settings, err := s.deps.Settings.ResetToDefaults(ctx)
	if err != nil {
		return database.Settings{}, err
	}
	s.useSettings(settings)
	return settings, nil
}

func (s *Session) useSettings(settings database.Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	s.engine.UpdateDurations(DurationsFrom(settings))
	s.engine.SetAutoStart(settings.AutoStartBreaks, settings.AutoStartPomodoros)
}

// Close stops the clock, finishes queued ledger work and closes subscribers
func (s *Session) Close() {
	s.runner.Stop()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.quit)
	s.mu.Unlock()

	<-s.workerDone

	s.mu.Lock()
	subscribers := s.subscribers
	s.subscribers = nil
	s.mu.Unlock()
	for _, ch := range subscribers {
		close(ch)
	}
}

// Flush waits until every queued ledger job has run
func (s *Session) Flush() {
	done := make(chan struct{})
	if !s.enqueue(func(context.Context) { close(done) }) {
		return
	}
	<-done
}

func (s *Session) onTimerEvent(e timer.Event) {
	now := s.clock.Now()
	s.publish(Notification{Kind: KindTimer, Timer: e, At: now})

	switch e.Type {
	case timer.EventModeSwitched:
		s.setIntervalStart(time.Time{})
	case timer.EventStatusChanged:
		switch e.Status {
		case timer.StatusIdle:
			s.setIntervalStart(time.Time{})
		case timer.StatusRunning:
			s.mu.Lock()
			if s.intervalStart.IsZero() {
				s.intervalStart = now
			}
			s.mu.Unlock()
		}
	case timer.EventSessionCompleted:
		s.mu.Lock()
		started := s.intervalStart
		s.mu.Unlock()
		if started.IsZero() {
			started = now.Add(-time.Duration(e.Duration) * time.Second)
		}
		rec := database.PomodoroRecord{
			ID:             s.deps.NewID(),
			Mode:           string(e.Mode),
			PlannedSeconds: e.Duration,
			StartedAt:      started,
			EndedAt:        now,
		}
		s.enqueue(func(ctx context.Context) { s.finishInterval(ctx, rec) })
	}
}

func (s *Session) setIntervalStart(t time.Time) {
	s.mu.Lock()
	s.intervalStart = t
	s.mu.Unlock()
}

func (s *Session) finishInterval(ctx context.Context, rec database.PomodoroRecord) {
	if err := s.deps.Stats.RecordPomodoro(ctx, rec); err != nil {
		utils.Log("session: record %s failed: %v", rec.ID, err)
		s.publishError(err)
	}
	if rec.Mode != string(timer.ModeFocus) {
		return
	}
	if err := s.prepareLedger(ctx); err != nil {
		s.mu.Lock()
		s.pending = append(s.pending, rec.ID)
		s.mu.Unlock()
		s.publishError(err)
		return
	}
	s.awardPomodoro(ctx, rec.ID)
}

func (s *Session) awardPomodoro(ctx context.Context, id string) bool {
	events, err := s.ledger.OnPomodoroCompleted(ctx, id)
	if errors.Is(err, database.ErrDuplicateEvent) {
		return true
	}
	if err != nil {
		s.mu.Lock()
		s.pending = append(s.pending, id)
		s.mu.Unlock()
		s.publishError(err)
		return false
	}
	s.publishLedger(events)
	return true
}

// prepareLedger rolls the day over and retries bonuses whose commit failed.
// Nothing is awarded while the rollover fails, the award would land on the
// closed day.
func (s *Session) prepareLedger(ctx context.Context) error {
	if _, err := s.RolloverDay(ctx); err != nil {
		utils.Log("session: day rollover failed: %v", err)
		return err
	}

	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for i, id := range pending {
		if !s.awardPomodoro(ctx, id) {
			// awardPomodoro queued id again, keep the rest behind it
			s.mu.Lock()
			s.pending = append(s.pending, pending[i+1:]...)
			s.mu.Unlock()
			return nil
		}
	}
	return nil
}

func (s *Session) enqueue(job func(context.Context)) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

func (s *Session) work() {
	defer close(s.workerDone)
	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.quit:
			s.drain()
			return
		}
	}
}

func (s *Session) drain() {
	for {
		s.mu.Lock()
		if len(s.jobs) == 0 {
			s.mu.Unlock()
			return
		}
		job := s.jobs[0]
		s.jobs = s.jobs[1:]
		s.mu.Unlock()
		job(context.Background())
	}
}
