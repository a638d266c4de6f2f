package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"focusflow/pkg/utils"
)

// Driver names a supported database/sql driver
type Driver string

const (
	DriverSQLite   Driver = "sqlite3"
	DriverPostgres Driver = "postgres"
)

// ParseDriver validates a driver name from configuration
func ParseDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pq":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", name)
}

// State is the lifecycle state of a Connector
type State int

const (
	Disconnected State = iota
	Connecting
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// RetryPolicy is a capped exponential backoff
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryPolicy returns the policy used when configuration is silent
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialBackoff < 0 {
		p.InitialBackoff = 0
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = def.MaxBackoff
	}
	if p.Multiplier < 1 {
		p.Multiplier = def.Multiplier
	}
	return p
}

// Backoff returns the wait after the given failed attempt (1-based)
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	p = p.normalized()
	delay := float64(p.InitialBackoff)
	for i := 1; i < attempt; i++ {
		delay *= p.Multiplier
		if delay >= float64(p.MaxBackoff) {
			return p.MaxBackoff
		}
	}
	if time.Duration(delay) > p.MaxBackoff {
		return p.MaxBackoff
	}
	return time.Duration(delay)
}

// Options configures a Connector
type Options struct {
	Driver Driver
	DSN    string
	Retry  RetryPolicy

	// Open replaces sql.Open, used by tests
	Open func(driver, dsn string) (*sql.DB, error)
}

// Connector owns the single database handle and its lifecycle.
// Every store reaches the database through it.
type Connector struct {
	mu      sync.Mutex
	opts    Options
	state   State
	db      *sql.DB
	lastErr error
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewConnector creates a disconnected Connector
func NewConnector(opts Options) (*Connector, error) {
	if opts.Driver == "" {
		opts.Driver = DriverSQLite
	}
	if opts.Driver != DriverSQLite && opts.Driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	if opts.Open == nil {
		opts.Open = sql.Open
	}
	opts.Retry = opts.Retry.normalized()
	return &Connector{opts: opts, state: Disconnected, sleep: sleepContext}, nil
}

// Driver returns the configured driver
func (c *Connector) Driver() Driver {
	return c.opts.Driver
}

// State returns the current lifecycle state
func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the error that moved the connector to Failed
func (c *Connector) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// DB returns a ready handle, connecting with the retry policy if needed
func (c *Connector) DB(ctx context.Context) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Ready && c.db != nil {
		return c.db, nil
	}

	c.state = Connecting
	var lastErr error
	for attempt := 1; attempt <= c.opts.Retry.MaxAttempts; attempt++ {
		db, err := c.connectOnce(ctx)
		if err == nil {
			c.db = db
			c.state = Ready
			c.lastErr = nil
			utils.Log("database: connected (%s) after %d attempt(s)", c.opts.Driver, attempt)
			return db, nil
		}
		lastErr = err
		utils.Log("database: connect attempt %d failed: %v", attempt, err)
		if attempt == c.opts.Retry.MaxAttempts {
			break
		}
		if err := c.sleep(ctx, c.opts.Retry.Backoff(attempt)); err != nil {
			lastErr = err
			break
		}
	}

	c.state = Failed
	c.lastErr = lastErr
	return nil, fmt.Errorf("connect %s: %w: %v", c.opts.Driver, ErrStoreUnavailable, lastErr)
}

func (c *Connector) connectOnce(ctx context.Context) (*sql.DB, error) {
	dsn := c.opts.DSN
	if c.opts.Driver == DriverSQLite {
		var err error
		dsn, err = prepareSQLitePath(dsn)
		if err != nil {
			return nil, err
		}
	}

	db, err := c.opts.Open(string(c.opts.Driver), dsn)
	if err != nil {
		return nil, err
	}
	if c.opts.Driver == DriverSQLite {
		// a single connection keeps :memory: databases shared and avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := EnsureSchema(ctx, db, c.opts.Driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// markFailed drops the handle after a connection-class error
func (c *Connector) markFailed(err error) {
	if !isConnectionError(err) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		c.db.Close()
		c.db = nil
	}
	c.state = Failed
	c.lastErr = err
	utils.Log("database: connection failed: %v", err)
}

// Close releases the handle and returns to Disconnected
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Disconnected
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Rebind rewrites ? placeholders for the configured driver
func (c *Connector) Rebind(query string) string {
	return rebind(c.opts.Driver, query)
}

func rebind(driver Driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// run executes fn against a ready handle and classifies its error
func (c *Connector) run(ctx context.Context, op string, fn func(db *sql.DB) error) error {
	db, err := c.DB(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = fn(db)
	c.markFailed(err)
	return wrapStoreError(op, err)
}

// runTx executes fn inside a transaction that commits only when fn succeeds
func (c *Connector) runTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	return c.run(ctx, op, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

// prepareSQLitePath expands ~ and creates the parent directory
func prepareSQLitePath(dbPath string) (string, error) {
	if dbPath == ":memory:" || strings.HasPrefix(dbPath, "file:") {
		return dbPath, nil
	}

	// Expand tilde to home directory if present
	if strings.HasPrefix(dbPath, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dbPath = homeDir + dbPath[1:]
	}

	dbDir := filepath.Dir(dbPath)
	if dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return "", err
		}
	}
	return dbPath, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
