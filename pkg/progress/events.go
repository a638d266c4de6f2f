package progress

import (
	"fmt"
	"strings"
)

// EventType defines the type of ledger event
type EventType string

const (
	EventPointsAwarded   EventType = "points_awarded"
	EventLevelUp         EventType = "level_up"
	EventStreakMilestone EventType = "streak_milestone"
	EventStreakReset     EventType = "streak_reset"
)

// Event is a typed outcome of a ledger operation
type Event struct {
	Type     EventType
	Points   int
	Reason   string
	Level    int
	Streak   int
	Previous int
}

// StreakPolicy decides how completed tasks extend the streak
type StreakPolicy string

const (
	// StreakPerTask increments the streak for every completed task
	StreakPerTask StreakPolicy = "per_task"
	// StreakDaily increments the streak at most once per calendar day
	StreakDaily StreakPolicy = "daily"
)

// ParseStreakPolicy validates a policy name from configuration
func ParseStreakPolicy(s string) (StreakPolicy, error) {
	switch StreakPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StreakPerTask:
		return StreakPerTask, nil
	case StreakDaily:
		return StreakDaily, nil
	}
	return "", fmt.Errorf("unknown streak policy %q", s)
}
