package timer

import (
	"sync"
	"time"
)

// Ticker is anything driven by a periodic clock
type Ticker interface {
	Tick()
}

// Runner is the wall clock for an Engine. It calls Tick once per interval
// on its own goroutine.
type Runner struct {
	mu      sync.Mutex
	target  Ticker
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewRunner creates a stopped runner for target
func NewRunner(target Ticker) *Runner {
	return &Runner{target: target}
}

// Start launches the ticking loop. Calling Start on a running runner is a no-op.
func (runner *Runner) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if runner.running {
		return
	}
	runner.running = true
	runner.stopCh = make(chan struct{})
	runner.doneCh = make(chan struct{})
	go runner.run(interval, runner.stopCh, runner.doneCh)
}

// Stop terminates the loop and waits for it to exit, no tick is delivered
// after Stop returns. It must not be called from inside Tick.
func (runner *Runner) Stop() {
	runner.mu.Lock()
	if !runner.running {
		runner.mu.Unlock()
		return
	}
	runner.running = false
	close(runner.stopCh)
	done := runner.doneCh
	runner.mu.Unlock()
	<-done
}

// Running reports whether the loop is active
func (runner *Runner) Running() bool {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	return runner.running
}

func (runner *Runner) run(interval time.Duration, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			select {
			case <-stopCh:
				return
			default:
			}
			runner.target.Tick()
		}
	}
}
