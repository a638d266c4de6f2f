package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"focusflow/pkg/database"
	"focusflow/pkg/progress"
)

// TaskLister lists stored tasks
type TaskLister interface {
	List(ctx context.Context, q database.TaskQuery) ([]database.Task, error)
}

// PomodoroLister lists recorded timer sessions
type PomodoroLister interface {
	ListPomodoros(ctx context.Context, since time.Time) ([]database.PomodoroRecord, error)
}

// Range is the period an overview covers
type Range string

const (
	RangeToday Range = "today"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
)

// ParseRange validates a range name
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case RangeToday, RangeWeek, RangeMonth, RangeYear:
		return r, nil
	case "":
		return RangeWeek, nil
	}
	return "", fmt.Errorf("unknown range %q (want today, week, month or year)", s)
}

// Days returns the number of calendar days in the range
func (r Range) Days() int {
	switch r {
	case RangeToday:
		return 1
	case RangeMonth:
		return 30
	case RangeYear:
		return 365
	}
	return 7
}

// Service computes statistics from stored tasks and pomodoro records
type Service struct {
	tasks     TaskLister
	pomodoros PomodoroLister
	now       func() time.Time
}

// New creates an analytics service
func New(tasks TaskLister, pomodoros PomodoroLister, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{tasks: tasks, pomodoros: pomodoros, now: now}
}

// Overview summarizes a range
type Overview struct {
	Range          Range     `json:"range"`
	From           time.Time `json:"from"`
	TasksCreated   int       `json:"tasksCreated"`
	TasksCompleted int       `json:"tasksCompleted"`
	Pomodoros      int       `json:"pomodoros"`
	FocusMinutes   int       `json:"focusMinutes"`
	Points         int       `json:"points"`
	CompletionRate float64   `json:"completionRate"`
}

// DayStat is the activity of one calendar day
type DayStat struct {
	Day            string `json:"day"`
	TasksCompleted int    `json:"tasksCompleted"`
	Pomodoros      int    `json:"pomodoros"`
	FocusMinutes   int    `json:"focusMinutes"`
	Points         int    `json:"points"`
}

// PriorityStat counts tasks of one priority
type PriorityStat struct {
	Priority  database.Priority `json:"priority"`
	Total     int               `json:"total"`
	Completed int               `json:"completed"`
	Points    int               `json:"points"`
}

// DayActivity marks whether a day had a completed task
type DayActivity struct {
	Day    string `json:"day"`
	Active bool   `json:"active"`
}

// StreakHistory is the activity calendar with its runs
type StreakHistory struct {
	Days    []DayActivity `json:"days"`
	Current int           `json:"current"`
	Longest int           `json:"longest"`
}

// DailyProgress compares today's work with the daily goal
type DailyProgress struct {
	Goal              int     `json:"goal"`
	Completed         int     `json:"completed"`
	Rate              float64 `json:"rate"`
	GoalReached       bool    `json:"goalReached"`
	PointsToday       int     `json:"pointsToday"`
	FocusMinutesToday int     `json:"focusMinutesToday"`
	Streak            int     `json:"streak"`
	Level             int     `json:"level"`
	LevelProgress     float64 `json:"levelProgress"`
}

// Overview returns the totals of r ending today
func (s *Service) Overview(ctx context.Context, r Range) (Overview, error) {
	from := s.rangeStart(r.Days())
	tasks, records, err := s.load(ctx, from)
	if err != nil {
		return Overview{}, err
	}

	o := Overview{Range: r, From: from}
	for _, task := range tasks {
		if !task.CreatedAt.Before(from) {
			o.TasksCreated++
		}
		if completedSince(task, from) {
			o.TasksCompleted++
			o.Points += task.Points
		}
	}
	for _, rec := range focusOnly(records) {
		o.Pomodoros++
		o.FocusMinutes += rec.PlannedSeconds / 60
		o.Points += progress.PomodoroBonus
	}
	if o.TasksCreated > 0 {
		o.CompletionRate = ratio(o.TasksCompleted, o.TasksCreated)
	}
	return o, nil
}

// DailyStats returns one entry per day for the last days, oldest first
func (s *Service) DailyStats(ctx context.Context, days int) ([]DayStat, error) {
	if days <= 0 {
		days = 7
	}
	from := s.rangeStart(days)
	tasks, records, err := s.load(ctx, from)
	if err != nil {
		return nil, err
	}

	stats := make([]DayStat, days)
	index := make(map[string]int, days)
	for i := range stats {
		day := database.DayKey(from.AddDate(0, 0, i))
		stats[i].Day = day
		index[day] = i
	}
	for _, task := range tasks {
		if !completedSince(task, from) {
			continue
		}
		if i, ok := index[database.DayKey(*task.CompletedAt)]; ok {
			stats[i].TasksCompleted++
			stats[i].Points += task.Points
		}
	}
	for _, rec := range focusOnly(records) {
		if i, ok := index[database.DayKey(rec.EndedAt)]; ok {
			stats[i].Pomodoros++
			stats[i].FocusMinutes += rec.PlannedSeconds / 60
			stats[i].Points += progress.PomodoroBonus
		}
	}
	return stats, nil
}

// PriorityBreakdown counts all tasks per priority, highest first
func (s *Service) PriorityBreakdown(ctx context.Context) ([]PriorityStat, error) {
	tasks, err := s.tasks.List(ctx, database.TaskQuery{Status: database.AllTasksFilter})
	if err != nil {
		return nil, err
	}
	out := make([]PriorityStat, 0, len(database.Priorities))
	for i := len(database.Priorities) - 1; i >= 0; i-- {
		stat := PriorityStat{Priority: database.Priorities[i]}
		for _, task := range tasks {
			if task.Priority != stat.Priority {
				continue
			}
			stat.Total++
			if task.Completed {
				stat.Completed++
				stat.Points += task.Points
			}
		}
		out = append(out, stat)
	}
	return out, nil
}

// StreakHistory marks the last days with completed tasks. Current counts
// back from today, or from yesterday while today has no activity yet.
func (s *Service) StreakHistory(ctx context.Context, days int) (StreakHistory, error) {
	stats, err := s.DailyStats(ctx, days)
	if err != nil {
		return StreakHistory{}, err
	}

	var h StreakHistory
	run := 0
	for _, stat := range stats {
		active := stat.TasksCompleted > 0
		h.Days = append(h.Days, DayActivity{Day: stat.Day, Active: active})
		if active {
			run++
			if run > h.Longest {
				h.Longest = run
			}
		} else {
			run = 0
		}
	}

	i := len(h.Days) - 1
	if i >= 0 && !h.Days[i].Active {
		i--
	}
	for ; i >= 0 && h.Days[i].Active; i-- {
		h.Current++
	}
	return h, nil
}

// DailyProgress measures today against the daily goal
func (s *Service) DailyProgress(ctx context.Context, settings database.Settings, p database.UserProgress) (DailyProgress, error) {
	from := s.rangeStart(1)
	records, err := s.pomodoros.ListPomodoros(ctx, from)
	if err != nil {
		return DailyProgress{}, err
	}

	d := DailyProgress{
		Goal:          settings.DailyGoal,
		Completed:     p.TasksCompletedToday,
		PointsToday:   p.TodayPoints,
		Streak:        p.Streak,
		Level:         database.LevelFor(p.TotalPoints),
		LevelProgress: LevelProgress(p.TotalPoints),
	}
	if d.Goal > 0 {
		d.Rate = ratio(d.Completed, d.Goal)
		d.GoalReached = d.Completed >= d.Goal
	}
	for _, rec := range focusOnly(records) {
		d.FocusMinutesToday += rec.PlannedSeconds / 60
	}
	return d, nil
}

// FocusPatterns counts completed focus sessions per hour of day
func (s *Service) FocusPatterns(ctx context.Context, days int) ([24]int, error) {
	var hours [24]int
	if days <= 0 {
		days = 30
	}
	records, err := s.pomodoros.ListPomodoros(ctx, s.rangeStart(days))
	if err != nil {
		return hours, err
	}
	for _, rec := range focusOnly(records) {
		hours[rec.StartedAt.Hour()]++
	}
	return hours, nil
}

// LevelProgress returns the fraction of the current level already earned
func LevelProgress(totalPoints int) float64 {
	if totalPoints < 0 {
		return 0
	}
	return float64(totalPoints%database.PointsPerLevel) / float64(database.PointsPerLevel)
}

// rangeStart returns local midnight days-1 days ago
func (s *Service) rangeStart(days int) time.Time {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight.AddDate(0, 0, -(days - 1))
}

func (s *Service) load(ctx context.Context, from time.Time) ([]database.Task, []database.PomodoroRecord, error) {
	tasks, err := s.tasks.List(ctx, database.TaskQuery{Status: database.AllTasksFilter})
	if err != nil {
		return nil, nil, err
	}
	records, err := s.pomodoros.ListPomodoros(ctx, from)
	if err != nil {
		return nil, nil, err
	}
	return tasks, records, nil
}

func completedSince(task database.Task, from time.Time) bool {
	return task.Completed && task.CompletedAt != nil && !task.CompletedAt.Before(from)
}

func focusOnly(records []database.PomodoroRecord) []database.PomodoroRecord {
	out := records[:0:0]
	for _, rec := range records {
		if rec.Mode == "focus" {
			out = append(out, rec)
		}
	}
	return out
}

func ratio(a, b int) float64 {
	if b <= 0 {
		return 0
	}
	r := float64(a) / float64(b)
	if r > 1 {
		return 1
	}
	return r
}
