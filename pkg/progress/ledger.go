package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"focusflow/pkg/database"
	"focusflow/pkg/utils"
)

const (
	// PomodoroBonus is awarded for every completed focus session
	PomodoroBonus = 15
	// StreakMilestoneEvery is the streak interval that raises a milestone
	StreakMilestoneEvery = 3
)

// Store persists progress together with the key of the event that produced
// it. Apply runs mutate on the stored record, not on a caller's copy, so
// several ledgers can share one store.
type Store interface {
	Get(ctx context.Context) (database.UserProgress, error)
	Apply(ctx context.Context, key string, mutate func(p *database.UserProgress)) (database.UserProgress, error)
}

// Ledger turns completion events into points, level and streak changes.
// Every change is committed to the store before it becomes visible, a
// failed commit leaves the previous state in place.
type Ledger struct {
	mu       sync.Mutex
	store    Store
	policy   StreakPolicy
	progress database.UserProgress
}

// New creates a ledger with an empty progress record
func New(store Store, policy StreakPolicy) *Ledger {
	if policy == "" {
		policy = StreakPerTask
	}
	return &Ledger{
		store:    store,
		policy:   policy,
		progress: database.NewUserProgress(""),
	}
}

// Load replaces the in-memory progress with the stored one
func (ledger *Ledger) Load(ctx context.Context) error {
	progress, err := ledger.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	progress.Level = database.LevelFor(progress.TotalPoints)
	ledger.mu.Lock()
	ledger.progress = progress
	ledger.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current progress
func (ledger *Ledger) Snapshot() database.UserProgress {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	return ledger.progress
}

// Policy returns the streak policy in use
func (ledger *Ledger) Policy() StreakPolicy {
	return ledger.policy
}

// TaskKey is the event key of a task completion
func TaskKey(id int64) string {
	return fmt.Sprintf("task:%d", id)
}

// PomodoroKey is the event key of a completed focus session
func PomodoroKey(sessionID string) string {
	return "pomodoro:" + sessionID
}

// DayKey is the event key of a day rollover
func DayKey(day string) string {
	return "day:" + day
}

// OnTaskCompleted awards the task points. It must only be driven on the
// incomplete to complete edge; a task that was already rewarded returns
// database.ErrDuplicateEvent.
func (ledger *Ledger) OnTaskCompleted(ctx context.Context, task database.Task) ([]Event, error) {
	points := task.Points
	if points <= 0 {
		points = database.PointsFor(task.Priority)
	}

	return ledger.commit(ctx, TaskKey(task.ID), func(p *database.UserProgress) []Event {
		events := award(p, points, "task")

		previous := p.Streak
		switch ledger.policy {
		case StreakDaily:
			if p.LastStreakDay != p.Day {
				p.Streak++
			}
		default:
			p.Streak++
		}
		p.LastStreakDay = p.Day
		p.TasksCompletedToday++
		if p.Streak > p.LongestStreak {
			p.LongestStreak = p.Streak
		}
		if p.Streak != previous && p.Streak > 0 && p.Streak%StreakMilestoneEvery == 0 {
			events = append(events, Event{Type: EventStreakMilestone, Streak: p.Streak})
		}
		return events
	})
}

// OnPomodoroCompleted awards the focus session bonus once per session id
func (ledger *Ledger) OnPomodoroCompleted(ctx context.Context, sessionID string) ([]Event, error) {
	return ledger.commit(ctx, PomodoroKey(sessionID), func(p *database.UserProgress) []Event {
		p.PomodorosToday++
		return award(p, PomodoroBonus, "pomodoro")
	})
}

// OnNewDay closes the current accounting day and opens day. Today's
// counters start over; the streak resets when a closed day had no
// completed task. Days that are not after the current one are ignored.
func (ledger *Ledger) OnNewDay(ctx context.Context, day string) ([]Event, error) {
	ledger.mu.Lock()
	current := ledger.progress.Day
	ledger.mu.Unlock()
	if current != "" && day <= current {
		return nil, nil
	}

	return ledger.commit(ctx, DayKey(day), func(p *database.UserProgress) []Event {
		if p.Day != "" && day <= p.Day {
			return nil
		}
		var events []Event
		if p.Day != "" && p.Streak > 0 && (p.TasksCompletedToday == 0 || skippedDays(p.Day, day)) {
			events = append(events, Event{Type: EventStreakReset, Previous: p.Streak})
			p.Streak = 0
		}
		p.Day = day
		p.TodayPoints = 0
		p.TasksCompletedToday = 0
		p.PomodorosToday = 0
		return events
	})
}

func (ledger *Ledger) commit(ctx context.Context, key string, mutate func(p *database.UserProgress) []Event) ([]Event, error) {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	var events []Event
	next, err := ledger.store.Apply(ctx, key, func(p *database.UserProgress) {
		events = mutate(p)
	})
	if err != nil {
		utils.Log("ledger: %s rolled back: %v", key, err)
		if errors.Is(err, database.ErrDuplicateEvent) {
			// another writer got there first, pick up what it stored
			if stored, getErr := ledger.store.Get(ctx); getErr == nil {
				stored.Level = database.LevelFor(stored.TotalPoints)
				ledger.progress = stored
			}
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if !errors.Is(err, database.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", database.ErrStoreUnavailable, err)
		}
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	next.Level = database.LevelFor(next.TotalPoints)
	ledger.progress = next
	return events, nil
}

func award(p *database.UserProgress, points int, reason string) []Event {
	before := database.LevelFor(p.TotalPoints)
	p.TodayPoints += points
	p.TotalPoints += points
	events := []Event{{Type: EventPointsAwarded, Points: points, Reason: reason}}
	if after := database.LevelFor(p.TotalPoints); after > before {
		events = append(events, Event{Type: EventLevelUp, Level: after})
	}
	return events
}

// skippedDays reports whether at least one whole day lies between from and to
func skippedDays(from, to string) bool {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return false
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return false
	}
	return end.Sub(start) > 24*time.Hour
}
