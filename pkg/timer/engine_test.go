package timer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortConfig() Config {
	return Config{
		Durations:       Durations{Focus: 5, ShortBreak: 2, LongBreak: 3},
		TransitionDelay: 0,
	}
}

type recorder struct {
	events []Event
}

func (r *recorder) listen(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) completions() []Event {
	var out []Event
	for _, e := range r.events {
		if e.Type == EventSessionCompleted {
			out = append(out, e)
		}
	}
	return out
}

func ticks(engine *Engine, n int) {
	for i := 0; i < n; i++ {
		engine.Tick()
	}
}

func TestNewEngineIsIdleWithFullDuration(t *testing.T) {
	engine := New(DefaultConfig())
	s := engine.Snapshot()
	assert.Equal(t, ModeFocus, s.Mode)
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, 1500, s.Remaining)
	assert.Equal(t, 1500, s.Duration)
	assert.Equal(t, "25:00", s.Clock())
}

func TestTickArithmetic(t *testing.T) {
	for _, n := range []int{0, 1, 4, 5, 9} {
		engine := New(Config{Durations: Durations{Focus: 5, ShortBreak: 2, LongBreak: 3}, TransitionDelay: 100})
		rec := &recorder{}
		engine.OnEvent(rec.listen)
		engine.Start()
		ticks(engine, n)

		s := engine.Snapshot()
		assert.Equal(t, max(0, 5-n), s.Remaining, "ticks=%d", n)
		if n >= 5 {
			assert.Equal(t, StatusCompleted, s.Status)
			assert.Len(t, rec.completions(), 1)
		} else {
			assert.Equal(t, StatusRunning, s.Status)
			assert.Empty(t, rec.completions())
		}
	}
}

func TestTickIgnoredUnlessRunning(t *testing.T) {
	engine := New(shortConfig())
	ticks(engine, 3)
	assert.Equal(t, 5, engine.Snapshot().Remaining)

	engine.Start()
	ticks(engine, 2)
	engine.Pause()
	ticks(engine, 10)
	s := engine.Snapshot()
	assert.Equal(t, StatusPaused, s.Status)
	assert.Equal(t, 3, s.Remaining)

	engine.Start()
	engine.Tick()
	assert.Equal(t, 2, engine.Snapshot().Remaining)
}

func TestStartAndPauseAreIdempotent(t *testing.T) {
	engine := New(shortConfig())
	rec := &recorder{}
	engine.OnEvent(rec.listen)

	engine.Pause()
	assert.Empty(t, rec.events)

	engine.Start()
	engine.Start()
	assert.Len(t, rec.events, 1)
	assert.Equal(t, StatusRunning, rec.events[0].Status)
}

func TestStopResetsToFullDuration(t *testing.T) {
	engine := New(shortConfig())
	engine.Start()
	ticks(engine, 3)
	engine.Stop()

	s := engine.Snapshot()
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, 5, s.Remaining)
	assert.Equal(t, ModeFocus, s.Mode)
}

func TestSwitchMode(t *testing.T) {
	engine := New(shortConfig())
	engine.Start()
	engine.Tick()

	require.NoError(t, engine.SwitchMode(ModeLongBreak))
	s := engine.Snapshot()
	assert.Equal(t, ModeLongBreak, s.Mode)
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, 3, s.Remaining)

	err := engine.SwitchMode(Mode("nap"))
	assert.True(t, errors.Is(err, ErrInvalidMode))
	assert.Equal(t, ModeLongBreak, engine.Snapshot().Mode)
}

func TestBreakCycleShortShortShortLong(t *testing.T) {
	engine := New(shortConfig())
	rec := &recorder{}
	engine.OnEvent(rec.listen)

	var breaks []Mode
	for i := 0; i < 8; i++ {
		require.NoError(t, engine.SwitchMode(ModeFocus))
		engine.Start()
		ticks(engine, 5)
		s := engine.Snapshot()
		breaks = append(breaks, s.Mode)
	}

	assert.Equal(t, []Mode{
		ModeShortBreak, ModeShortBreak, ModeShortBreak, ModeLongBreak,
		ModeShortBreak, ModeShortBreak, ModeShortBreak, ModeLongBreak,
	}, breaks)
	assert.Len(t, rec.completions(), 8)
	assert.Equal(t, 0, engine.Snapshot().CycleCount)
}

func TestTransitionDelayHoldsCompleted(t *testing.T) {
	cfg := shortConfig()
	cfg.TransitionDelay = 2
	engine := New(cfg)
	engine.Start()
	ticks(engine, 5)

	s := engine.Snapshot()
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, ModeShortBreak, s.Next)

	engine.Tick()
	s = engine.Snapshot()
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Zero(t, s.Remaining)
	assert.Equal(t, ModeFocus, s.Mode)

	engine.Tick()
	s = engine.Snapshot()
	assert.Equal(t, ModeShortBreak, s.Mode)
	assert.Empty(t, s.Next)
}

func TestAutoStartFlags(t *testing.T) {
	cfg := shortConfig()
	cfg.AutoStartBreaks = true
	cfg.AutoStartFocus = false
	engine := New(cfg)

	engine.Start()
	ticks(engine, 5)
	s := engine.Snapshot()
	assert.Equal(t, ModeShortBreak, s.Mode)
	assert.Equal(t, StatusRunning, s.Status)

	ticks(engine, 2)
	s = engine.Snapshot()
	assert.Equal(t, ModeFocus, s.Mode)
	assert.Equal(t, StatusIdle, s.Status)

	engine.SetAutoStart(false, true)
	engine.Start()
	ticks(engine, 5)
	assert.Equal(t, StatusIdle, engine.Snapshot().Status)
}

func TestBreakCompletionEmitsEventAndReturnsToFocus(t *testing.T) {
	engine := New(shortConfig())
	rec := &recorder{}
	engine.OnEvent(rec.listen)

	require.NoError(t, engine.SwitchMode(ModeShortBreak))
	engine.Start()
	ticks(engine, 2)

	done := rec.completions()
	require.Len(t, done, 1)
	assert.Equal(t, ModeShortBreak, done[0].Mode)
	assert.Equal(t, ModeFocus, done[0].Next)
	assert.Equal(t, ModeFocus, engine.Snapshot().Mode)
	assert.Equal(t, 0, engine.Snapshot().CycleCount)
}

func TestDefaultFocusSessionCompletesAfter1500Ticks(t *testing.T) {
	engine := New(DefaultConfig())
	rec := &recorder{}
	engine.OnEvent(rec.listen)

	engine.Start()
	ticks(engine, 1500)

	s := engine.Snapshot()
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, 0, s.Remaining)
	done := rec.completions()
	require.Len(t, done, 1)
	assert.Equal(t, ModeFocus, done[0].Mode)

	engine.Tick()
	s = engine.Snapshot()
	assert.Equal(t, ModeShortBreak, s.Mode)
	assert.Equal(t, StatusRunning, s.Status)
	assert.Len(t, rec.completions(), 1)
}

func TestUpdateDurationsRefillsIdleSession(t *testing.T) {
	engine := New(shortConfig())
	engine.UpdateDurations(Durations{Focus: 60, ShortBreak: 10, LongBreak: 20})
	assert.Equal(t, 60, engine.Snapshot().Remaining)

	engine.Start()
	engine.Tick()
	engine.UpdateDurations(Durations{Focus: 30, ShortBreak: 10, LongBreak: 20})
	s := engine.Snapshot()
	assert.Equal(t, 59, s.Remaining)
	assert.Equal(t, 60, s.Duration)

	engine.Stop()
	assert.Equal(t, 30, engine.Snapshot().Remaining)
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("Short")
	require.NoError(t, err)
	assert.Equal(t, ModeShortBreak, mode)

	_, err = ParseMode("lunch")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestSessionProgress(t *testing.T) {
	s := Session{Duration: 100, Remaining: 25}
	assert.InDelta(t, 0.75, s.Progress(), 1e-9)
	assert.Equal(t, "00:25", s.Clock())
	assert.Zero(t, Session{}.Progress())
}
