package database

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the importance of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from lowest to highest
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// pointSchedule is the only place task points are defined
var pointSchedule = map[Priority]int{
	PriorityHigh:   10,
	PriorityMedium: 5,
	PriorityLow:    3,
}

// PointsFor returns the points a task of the given priority is worth
func PointsFor(p Priority) int {
	return pointSchedule[p]
}

// ParsePriority converts user input into a Priority
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "l":
		return PriorityLow, nil
	case "medium", "med", "m", "":
		return PriorityMedium, nil
	case "high", "h":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, s)
}

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	_, ok := pointSchedule[p]
	return ok
}

// Rank orders priorities, higher is more important
func (p Priority) Rank() int {
	for i, candidate := range Priorities {
		if candidate == p {
			return i
		}
	}
	return -1
}

// Task represents a single task on the list
type Task struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description,omitempty"`
	Priority    Priority   `db:"priority" json:"priority"`
	Points      int        `db:"points" json:"points"`
	Completed   bool       `db:"completed" json:"completed"`
	Order       int        `db:"sort_order" json:"order"`
	DueDate     *time.Time `db:"due_date" json:"dueDate,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// TaskInput holds the fields needed to create a task
type TaskInput struct {
	Title       string
	Description string
	Priority    Priority
	DueDate     *time.Time
	Completed   bool
	// Order is appended after the last task when nil
	Order *int
}

// TaskPatch holds a partial task update, nil fields are left untouched
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *Priority
	Completed   *bool
	Order       *int
	DueDate     *time.Time
	ClearDue    bool
}

// TaskFilter represents the current task filter mode
type TaskFilter int

const (
	AllTasksFilter     TaskFilter = iota // Show all tasks regardless of status
	DoneTasksFilter                      // Show only completed tasks
	PendingTasksFilter                   // Show only uncompleted tasks
)

// TaskQuery narrows down the tasks returned by List
type TaskQuery struct {
	Status   TaskFilter
	Priority Priority
	// DueOn keeps only tasks due on the same calendar day
	DueOn  *time.Time
	Search string
}

// UserProgress is the gamification state of the single user
type UserProgress struct {
	TotalPoints         int       `db:"total_points" json:"totalPoints"`
	TodayPoints         int       `db:"today_points" json:"todayPoints"`
	Level               int       `db:"level" json:"level"`
	Streak              int       `db:"streak" json:"streak"`
	LongestStreak       int       `db:"longest_streak" json:"longestStreak"`
	TasksCompletedToday int       `db:"tasks_completed_today" json:"tasksCompletedToday"`
	PomodorosToday      int       `db:"pomodoros_today" json:"pomodorosToday"`
	Day                 string    `db:"day" json:"day"`
	LastStreakDay       string    `db:"last_streak_day" json:"lastStreakDay,omitempty"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}

// PointsPerLevel is the number of points separating two levels
const PointsPerLevel = 100

// LevelFor derives the level from the cumulative points
func LevelFor(totalPoints int) int {
	if totalPoints < 0 {
		totalPoints = 0
	}
	return totalPoints/PointsPerLevel + 1
}

// NewUserProgress returns an empty progress record for the given day
func NewUserProgress(day string) UserProgress {
	return UserProgress{Level: 1, Day: day}
}

// UserProgressPatch holds a partial progress update
type UserProgressPatch struct {
	TotalPoints         *int
	TodayPoints         *int
	Streak              *int
	LongestStreak       *int
	TasksCompletedToday *int
	PomodorosToday      *int
	Day                 *string
	LastStreakDay       *string
}

// Apply merges the patch into p and recomputes derived fields
func (patch UserProgressPatch) Apply(p UserProgress) UserProgress {
	if patch.TotalPoints != nil {
		p.TotalPoints = *patch.TotalPoints
	}
	if patch.TodayPoints != nil {
		p.TodayPoints = *patch.TodayPoints
	}
	if patch.Streak != nil {
		p.Streak = *patch.Streak
	}
	if patch.LongestStreak != nil {
		p.LongestStreak = *patch.LongestStreak
	}
	if patch.TasksCompletedToday != nil {
		p.TasksCompletedToday = *patch.TasksCompletedToday
	}
	if patch.PomodorosToday != nil {
		p.PomodorosToday = *patch.PomodorosToday
	}
	if patch.Day != nil {
		p.Day = *patch.Day
	}
	if patch.LastStreakDay != nil {
		p.LastStreakDay = *patch.LastStreakDay
	}
	p.Level = LevelFor(p.TotalPoints)
	if p.LongestStreak < p.Streak {
		p.LongestStreak = p.Streak
	}
	return p
}

// PomodoroRecord is one finished timer session
type PomodoroRecord struct {
	ID             string    `db:"id" json:"id"`
	Mode           string    `db:"mode" json:"mode"`
	PlannedSeconds int       `db:"planned_seconds" json:"plannedSeconds"`
	StartedAt      time.Time `db:"started_at" json:"startedAt"`
	EndedAt        time.Time `db:"ended_at" json:"endedAt"`
}

// DayKey formats t as the calendar day used for accounting
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// SortBy represents the field used to order tasks
type SortBy int

const (
	SortByOrder SortBy = iota
	SortByPriority
	SortByTitle
	SortByDueDate
	SortByCreated
	SortByStatus
)

// GroupBy represents how tasks are grouped in the list
type GroupBy int

const (
	GroupByNone GroupBy = iota
	GroupByPriority
	GroupByStatus
	GroupByDueDate
)

// SortOrder represents the direction of sorting
type SortOrder int

const (
	SortAsc SortOrder = iota
	SortDesc
)
