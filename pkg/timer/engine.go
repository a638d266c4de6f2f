package timer

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidMode is returned when switching to an unknown mode
var ErrInvalidMode = errors.New("invalid timer mode")

// LongBreakEvery is the number of focus sessions per cycle
const LongBreakEvery = 4

// Durations holds the length of each mode in seconds
type Durations struct {
	Focus      int
	ShortBreak int
	LongBreak  int
}

// DefaultDurations returns 25/5/15 minutes
func DefaultDurations() Durations {
	return Durations{Focus: 1500, ShortBreak: 300, LongBreak: 900}
}

// For returns the duration of m in seconds
func (d Durations) For(m Mode) int {
	switch m {
	case ModeShortBreak:
		return d.ShortBreak
	case ModeLongBreak:
		return d.LongBreak
	}
	return d.Focus
}

func (d Durations) normalized() Durations {
	def := DefaultDurations()
	if d.Focus <= 0 {
		d.Focus = def.Focus
	}
	if d.ShortBreak <= 0 {
		d.ShortBreak = def.ShortBreak
	}
	if d.LongBreak <= 0 {
		d.LongBreak = def.LongBreak
	}
	return d
}

// Config contains the engine options
type Config struct {
	Durations Durations

	// TransitionDelay is the number of ticks the engine stays Completed
	// before switching to the next mode. Zero switches immediately.
	TransitionDelay int

	AutoStartBreaks bool
	AutoStartFocus  bool
}

// DefaultConfig returns the configuration used when settings are missing
func DefaultConfig() Config {
	return Config{
		Durations:       DefaultDurations(),
		TransitionDelay: 1,
		AutoStartBreaks: true,
	}
}

// Session is an immutable copy of the engine state
type Session struct {
	Mode      Mode
	Status    Status
	Remaining int
	Duration  int

	// CycleCount is the number of focus sessions completed in the
	// current cycle, 0 to LongBreakEvery-1
	CycleCount int

	// Next is set while Completed and names the upcoming mode
	Next Mode
}

// Progress returns the elapsed fraction of the interval
func (s Session) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := float64(s.Duration-s.Remaining) / float64(s.Duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Clock returns the remaining time as mm:ss
func (s Session) Clock() string {
	return FormatSeconds(s.Remaining)
}

// FormatSeconds formats n seconds as mm:ss
func FormatSeconds(n int) string {
	if n < 0 {
		n = 0
	}
	return fmt.Sprintf("%02d:%02d", n/60, n%60)
}

// Engine is a countdown state machine cycling focus and break intervals.
// It holds no timer of its own, callers drive it with Tick.
type Engine struct {
	mu        sync.Mutex
	config    Config
	mode      Mode
	status    Status
	remaining int
	duration  int
	cycle     int
	next      Mode
	delayLeft int
	listeners []Listener
}

// New creates an Idle engine in focus mode
func New(config Config) *Engine {
	config.Durations = config.Durations.normalized()
	if config.TransitionDelay < 0 {
		config.TransitionDelay = 0
	}
	engine := &Engine{
		config: config,
		mode:   ModeFocus,
		status: StatusIdle,
	}
	engine.duration = config.Durations.For(ModeFocus)
	engine.remaining = engine.duration
	return engine
}

// OnEvent registers a listener
func (engine *Engine) OnEvent(listener Listener) {
	engine.mu.Lock()
	engine.listeners = append(engine.listeners, listener)
	engine.mu.Unlock()
}

// Snapshot returns a copy of the current state
func (engine *Engine) Snapshot() Session {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.snapshotLocked()
}

func (engine *Engine) snapshotLocked() Session {
	return Session{
		Mode:       engine.mode,
		Status:     engine.status,
		Remaining:  engine.remaining,
		Duration:   engine.duration,
		CycleCount: engine.cycle,
		Next:       engine.next,
	}
}

// Start runs an Idle or Paused session
func (engine *Engine) Start() {
	engine.mu.Lock()
	var events []Event
	if engine.status == StatusIdle || engine.status == StatusPaused {
		events = engine.setStatusLocked(events, StatusRunning)
	}
	engine.mu.Unlock()
	engine.dispatch(events)
}

// Pause freezes a running session
func (engine *Engine) Pause() {
	engine.mu.Lock()
	var events []Event
	if engine.status == StatusRunning {
		events = engine.setStatusLocked(events, StatusPaused)
	}
	engine.mu.Unlock()
	engine.dispatch(events)
}

// Stop returns to Idle with the full duration of the current mode
func (engine *Engine) Stop() {
	engine.mu.Lock()
	engine.next = ""
	engine.delayLeft = 0
	engine.duration = engine.config.Durations.For(engine.mode)
	engine.remaining = engine.duration
	var events []Event
	if engine.status != StatusIdle {
		events = engine.setStatusLocked(events, StatusIdle)
	}
	engine.mu.Unlock()
	engine.dispatch(events)
}

// SwitchMode replaces the session with an Idle one in mode
func (engine *Engine) SwitchMode(mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	engine.mu.Lock()
	events := engine.switchLocked(nil, mode)
	engine.mu.Unlock()
	engine.dispatch(events)
	return nil
}

// Tick advances the countdown by one second while Running. While Completed
// it only counts down the transition delay and then switches to the next
// mode; the finished countdown stays at zero. Any other state ignores it.
func (engine *Engine) Tick() {
	engine.mu.Lock()
	var events []Event
	switch engine.status {
	case StatusRunning:
		events = engine.advanceLocked(events)
	case StatusCompleted:
		if engine.delayLeft > 0 {
			engine.delayLeft--
		}
		if engine.delayLeft == 0 {
			events = engine.followUpLocked(events)
		}
	}
	engine.mu.Unlock()
	engine.dispatch(events)
}

// UpdateDurations replaces the mode durations. An Idle session is
// refilled right away, other states pick them up on the next switch.
func (engine *Engine) UpdateDurations(durations Durations) {
	engine.mu.Lock()
	engine.config.Durations = durations.normalized()
	var events []Event
	if engine.status == StatusIdle {
		engine.duration = engine.config.Durations.For(engine.mode)
		engine.remaining = engine.duration
		events = append(events, engine.eventLocked(EventTicked))
	}
	engine.mu.Unlock()
	engine.dispatch(events)
}

// SetAutoStart controls whether automatic switches start the new session
func (engine *Engine) SetAutoStart(breaks, focus bool) {
	engine.mu.Lock()
	engine.config.AutoStartBreaks = breaks
	engine.config.AutoStartFocus = focus
	engine.mu.Unlock()
}

// Config returns the current configuration
func (engine *Engine) Config() Config {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.config
}

func (engine *Engine) advanceLocked(events []Event) []Event {
	if engine.remaining > 0 {
		engine.remaining--
	}
	events = append(events, engine.eventLocked(EventTicked))
	if engine.remaining > 0 {
		return events
	}

	completed := engine.mode
	if completed == ModeFocus {
		before := engine.cycle
		engine.cycle = (before + 1) % LongBreakEvery
		if before%LongBreakEvery == LongBreakEvery-1 {
			engine.next = ModeLongBreak
		} else {
			engine.next = ModeShortBreak
		}
	} else {
		engine.next = ModeFocus
	}

	events = engine.setStatusLocked(events, StatusCompleted)
	done := engine.eventLocked(EventSessionCompleted)
	done.Mode = completed
	events = append(events, done)

	engine.delayLeft = engine.config.TransitionDelay
	if engine.delayLeft == 0 {
		events = engine.followUpLocked(events)
	}
	return events
}

func (engine *Engine) followUpLocked(events []Event) []Event {
	next := engine.next
	if next == "" {
		next = ModeFocus
	}
	events = engine.switchLocked(events, next)
	if (next.IsBreak() && engine.config.AutoStartBreaks) || (next == ModeFocus && engine.config.AutoStartFocus) {
		events = engine.setStatusLocked(events, StatusRunning)
	}
	return events
}

func (engine *Engine) switchLocked(events []Event, mode Mode) []Event {
	engine.mode = mode
	engine.next = ""
	engine.delayLeft = 0
	engine.duration = engine.config.Durations.For(mode)
	engine.remaining = engine.duration
	engine.status = StatusIdle
	return append(events, engine.eventLocked(EventModeSwitched))
}

func (engine *Engine) setStatusLocked(events []Event, status Status) []Event {
	engine.status = status
	return append(events, engine.eventLocked(EventStatusChanged))
}

func (engine *Engine) eventLocked(eventType EventType) Event {
	return Event{
		Type:      eventType,
		Mode:      engine.mode,
		Status:    engine.status,
		Remaining: engine.remaining,
		Duration:  engine.duration,
		Next:      engine.next,
	}
}

func (engine *Engine) dispatch(events []Event) {
	if len(events) == 0 {
		return
	}
	engine.mu.Lock()
	listeners := append([]Listener(nil), engine.listeners...)
	engine.mu.Unlock()
	for _, event := range events {
		for _, listener := range listeners {
			listener(event)
		}
	}
}
