package commands

import (
	"context"
	"fmt"
	"time"

	"focusflow/pkg/session"
	"focusflow/pkg/timer"
)

// TimerOptions configures a headless countdown
type TimerOptions struct {
	Mode timer.Mode
	// Interval is the wall time of one timer second, 0 uses the session default
	Interval time.Duration
	// Quiet suppresses the per-minute progress lines
	Quiet bool
}

// TimerResult reports how a headless countdown ended
type TimerResult struct {
	Completed bool
	Points    int
}

const timerPollInterval = 50 * time.Millisecond

// HandleTimerRun counts one session down in the foreground. A completed
// focus session earns its bonus before the command returns; cancelling ctx
// stops the timer without awarding anything.
func HandleTimerRun(ctx context.Context, env *Env, opts TimerOptions) (TimerResult, error) {
	if opts.Mode == "" {
		opts.Mode = timer.ModeFocus
	}
	s := env.Session
	out := env.out()

	notifications := s.Subscribe(64)
	before := s.Progress().TotalPoints

	if err := s.SwitchMode(opts.Mode); err != nil {
		return TimerResult{}, err
	}
	snap := s.Timer()
	fmt.Fprintf(out, "%s started: %s\n", opts.Mode.Label(), snap.Clock())
	s.StartTimer()
	s.RunClock(opts.Interval)

	poll := time.NewTicker(timerPollInterval)
	defer poll.Stop()

	completed := false
	for !completed {
		select {
		case <-ctx.Done():
			s.StopClock()
			s.StopTimer()
			fmt.Fprintln(out, "Timer stopped.")
			return TimerResult{}, nil
		case n, ok := <-notifications:
			if !ok {
				return TimerResult{}, fmt.Errorf("session closed")
			}
			completed = finishedBy(n, opts)
			if !completed && !opts.Quiet && n.Kind == session.KindTimer && n.Timer.Type == timer.EventTicked &&
				n.Timer.Remaining > 0 && n.Timer.Remaining%60 == 0 {
				fmt.Fprintf(out, "  %s remaining\n", timer.FormatSeconds(n.Timer.Remaining))
			}
		case <-poll.C:
			// a slow reader can miss notifications, the snapshot cannot
			snap := s.Timer()
			completed = snap.Status == timer.StatusCompleted || snap.Mode != opts.Mode
		}
	}

	// joins the ticking goroutine, so the completion job is already queued
	s.StopClock()
	s.StopTimer()
	s.Flush()

	result := TimerResult{Completed: true, Points: s.Progress().TotalPoints - before}
	fmt.Fprintf(out, "%s complete!\n", opts.Mode.Label())
	if result.Points > 0 {
		fmt.Fprintf(out, "  +%d points (total %d)\n", result.Points, s.Progress().TotalPoints)
	}
	return result, nil
}

func finishedBy(n session.Notification, opts TimerOptions) bool {
	if n.Kind != session.KindTimer {
		return false
	}
	return n.Timer.Type == timer.EventSessionCompleted && n.Timer.Mode == opts.Mode
}
