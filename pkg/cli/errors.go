package cli

import (
	"errors"
	"fmt"

	"focusflow/pkg/database"
)

const (
	exitFailure     = 1
	exitUsage       = 2
	exitUnavailable = 3
	exitNotFound    = 4
)

// exitError carries the process exit code of a failed command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

func usageErrorf(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

// classify maps store errors onto exit codes
func classify(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return err
	}
	switch {
	case errors.Is(err, database.ErrNotFound):
		return &exitError{code: exitNotFound, err: err}
	case errors.Is(err, database.ErrStoreUnavailable):
		return &exitError{code: exitUnavailable, err: err}
	case errors.Is(err, database.ErrInvalidTask), errors.Is(err, database.ErrInvalidSettings):
		return &exitError{code: exitUsage, err: err}
	}
	return &exitError{code: exitFailure, err: err}
}
