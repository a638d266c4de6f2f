package session

import (
	"time"

	"focusflow/pkg/database"
	"focusflow/pkg/progress"
	"focusflow/pkg/timer"
)

// Kind classifies a Notification
type Kind string

const (
	KindTimer  Kind = "timer"
	KindLedger Kind = "ledger"
	KindTask   Kind = "task"
	KindError  Kind = "error"
)

// Notification is a fire-and-forget update for the presentation layer.
// Only the field matching Kind is set.
type Notification struct {
	Kind   Kind
	Timer  timer.Event
	Ledger progress.Event
	Task   database.Task
	Err    error
	At     time.Time
}

// Subscribe registers a new observer channel. Sends never block, a slow
// subscriber misses notifications instead of stalling the timer.
func (s *Session) Subscribe(buffer int) <-chan Notification {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Notification, buffer)
	s.mu.Lock()
	if s.closed {
		close(ch)
	} else {
		s.subscribers = append(s.subscribers, ch)
	}
	s.mu.Unlock()
	return ch
}

func (s *Session) publish(n Notification) {
	if n.At.IsZero() {
		n.At = s.clock.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- n:
		default:
		}
	}
}

func (s *Session) publishLedger(events []progress.Event) {
	for _, e := range events {
		s.publish(Notification{Kind: KindLedger, Ledger: e})
	}
}

func (s *Session) publishError(err error) {
	s.publish(Notification{Kind: KindError, Err: err})
}
