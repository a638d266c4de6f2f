package commands

import (
	"io"
	"os"
	"time"

	"focusflow/pkg/analytics"
	"focusflow/pkg/database"
	"focusflow/pkg/session"
)

// Env carries the stores and streams a command works with
type Env struct {
	Tasks     *database.TaskStore
	Stats     *database.StatsStore
	Session   *session.Session
	Analytics *analytics.Service

	Out io.Writer
	In  io.Reader
	Now func() time.Time
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

func (e *Env) in() io.Reader {
	if e.In == nil {
		return os.Stdin
	}
	return e.In
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
