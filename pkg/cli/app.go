package cli

import (
	"context"
	"fmt"
	"io"

	"focusflow/pkg/analytics"
	"focusflow/pkg/commands"
	"focusflow/pkg/config"
	"focusflow/pkg/database"
	"focusflow/pkg/progress"
	"focusflow/pkg/session"
	"focusflow/pkg/storage"
	"focusflow/pkg/utils"
)

// app is everything a command needs, wired from the configuration
type app struct {
	cfg    config.Config
	styles config.Styles

	conn      *database.Connector
	tasks     *database.TaskStore
	stats     *database.StatsStore
	session   *session.Session
	analytics *analytics.Service
}

func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, styles, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := utils.InitLogger(opts.verbose || cfg.Log.Verbose, cfg.Log.File); err != nil {
		return nil, err
	}
	utils.Log("Using config %s", cfg.Path)

	driver, err := database.ParseDriver(cfg.Database.Driver)
	if err != nil {
		return nil, usageErrorf("%v", err)
	}
	policy, err := progress.ParseStreakPolicy(cfg.Ledger.StreakPolicy)
	if err != nil {
		return nil, usageErrorf("%v", err)
	}

	conn, err := database.NewConnector(database.Options{
		Driver: driver,
		DSN:    cfg.Database.DSN,
		Retry: database.RetryPolicy{
			MaxAttempts:    cfg.Database.MaxAttempts,
			InitialBackoff: cfg.Database.InitialBackoff,
			MaxBackoff:     cfg.Database.MaxBackoff,
		},
	})
	if err != nil {
		return nil, usageErrorf("%v", err)
	}

	a := &app{
		cfg:    cfg,
		styles: styles,
		conn:   conn,
		tasks:  database.NewTaskStore(conn),
		stats:  database.NewStatsStore(conn),
	}

	var settings session.SettingsStore = database.NewSettingsStore(conn)
	if cfg.Settings.Backend == config.SettingsBackendFile {
		settings = storage.NewYAMLSettingsStore(cfg.Settings.File)
		utils.Log("Settings stored in %s", cfg.Settings.File)
	}

	a.session, err = session.Open(ctx, session.Deps{
		Tasks:           a.tasks,
		Settings:        settings,
		Stats:           a.stats,
		StreakPolicy:    policy,
		TransitionDelay: cfg.Timer.TransitionDelay,
		TickInterval:    cfg.Timer.TickInterval,
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	a.analytics = analytics.New(a.tasks, a.stats, nil)
	return a, nil
}

func (a *app) env(out io.Writer, in io.Reader) *commands.Env {
	return &commands.Env{
		Tasks:     a.tasks,
		Stats:     a.stats,
		Session:   a.session,
		Analytics: a.analytics,
		Out:       out,
		In:        in,
	}
}

func (a *app) Close() {
	a.session.Close()
	if err := a.conn.Close(); err != nil {
		utils.Log("Error closing database: %v", err)
	}
	utils.CloseLogger()
}
