package timer

import (
	"fmt"
	"strings"
)

// Mode is the kind of interval the timer is counting down
type Mode string

const (
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "short_break"
	ModeLongBreak  Mode = "long_break"
)

// Modes lists the modes in display order
var Modes = []Mode{ModeFocus, ModeShortBreak, ModeLongBreak}

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	switch m {
	case ModeFocus, ModeShortBreak, ModeLongBreak:
		return true
	}
	return false
}

// IsBreak reports whether m is one of the break modes
func (m Mode) IsBreak() bool {
	return m == ModeShortBreak || m == ModeLongBreak
}

// Label returns a human readable name
func (m Mode) Label() string {
	switch m {
	case ModeFocus:
		return "Focus"
	case ModeShortBreak:
		return "Short Break"
	case ModeLongBreak:
		return "Long Break"
	}
	return string(m)
}

// ParseMode converts user input into a Mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "focus", "pomodoro", "work":
		return ModeFocus, nil
	case "short_break", "short", "shortbreak":
		return ModeShortBreak, nil
	case "long_break", "long", "longbreak":
		return ModeLongBreak, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Status is the lifecycle state of the current interval
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// EventType defines the type of engine event
type EventType string

const (
	EventSessionCompleted EventType = "session_completed"
	EventModeSwitched     EventType = "mode_switched"
	EventStatusChanged    EventType = "status_changed"
	EventTicked           EventType = "ticked"
)

// Event is an engine update for listeners
type Event struct {
	Type      EventType
	Mode      Mode
	Status    Status
	Remaining int
	Duration  int

	// Next is the mode the engine will switch to after a completion
	Next Mode
}

// Listener receives engine events. It is called outside the engine lock
// and must not block.
type Listener func(Event)
