package progress

import (
	"fmt"
	"math/rand"
)

var motivationalMessages = []string{
	"Amazing work! You're building great habits!",
	"Look at you go! Another task conquered!",
	"You're on fire! Keep this momentum going!",
	"Fantastic! Your future self will thank you!",
	"Way to go! You're making real progress!",
	"Excellent! Every small step counts!",
	"Brilliant! You're developing your focus superpower!",
	"Outstanding! Your consistency is paying off!",
	"Incredible! You're turning goals into achievements!",
	"Perfect! You're showing what focus looks like!",
}

var levelUpMessages = []string{
	"Level up! Your focus skills are growing!",
	"New level unlocked! You're getting stronger!",
	"Achievement unlocked! Focus master in training!",
}

// Describe renders an event as a plain status line
func Describe(e Event) string {
	switch e.Type {
	case EventPointsAwarded:
		return fmt.Sprintf("+%d points (%s)", e.Points, e.Reason)
	case EventLevelUp:
		return fmt.Sprintf("Level up! Welcome to level %d", e.Level)
	case EventStreakMilestone:
		return fmt.Sprintf("%d-task streak!", e.Streak)
	case EventStreakReset:
		return fmt.Sprintf("Streak of %d reset", e.Previous)
	}
	return string(e.Type)
}

// Motivate returns an encouraging message for e. pick chooses among the
// candidate lines and defaults to a random choice.
func Motivate(e Event, pick func(n int) int) string {
	if pick == nil {
		pick = rand.Intn
	}
	switch e.Type {
	case EventPointsAwarded:
		if e.Reason == "pomodoro" {
			return fmt.Sprintf("Pomodoro complete! Great focus session! +%d points", e.Points)
		}
		return fmt.Sprintf("%s +%d points earned!", motivationalMessages[pick(len(motivationalMessages))], e.Points)
	case EventLevelUp:
		return fmt.Sprintf("%s Welcome to level %d!", levelUpMessages[pick(len(levelUpMessages))], e.Level)
	case EventStreakMilestone:
		return streakMessage(e.Streak)
	case EventStreakReset:
		return "Fresh start! Complete a task to begin a new streak."
	}
	return Describe(e)
}

func streakMessage(streak int) string {
	switch {
	case streak >= 30:
		return fmt.Sprintf("%d in a row! Habit master!", streak)
	case streak >= 14:
		return fmt.Sprintf("%d in a row! Consistency champion!", streak)
	case streak >= 7:
		return fmt.Sprintf("%d in a row! You're on a roll!", streak)
	}
	return fmt.Sprintf("%d in a row! You're building momentum!", streak)
}
