package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

var (
	// ErrStoreUnavailable is returned when the backing store cannot be reached
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNotFound is returned when a record id does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEvent is returned when a ledger event key was already committed
	ErrDuplicateEvent = errors.New("event already applied")
	// ErrInvalidTask is returned for task input that fails validation
	ErrInvalidTask = errors.New("invalid task")
	// ErrInvalidSettings is returned for settings that fail validation
	ErrInvalidSettings = errors.New("invalid settings")
)

// isConnectionError reports whether err means the connection itself is gone
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "unable to open database file")
}

// wrapStoreError maps driver errors onto the package error taxonomy
func wrapStoreError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicateEvent),
		errors.Is(err, ErrInvalidTask), errors.Is(err, ErrInvalidSettings),
		errors.Is(err, ErrStoreUnavailable):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}
}
