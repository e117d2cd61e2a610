package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/brandoo/console/internal/brandoo"
	"github.com/brandoo/console/internal/contacts"
	"github.com/brandoo/console/internal/events"
	"github.com/brandoo/console/internal/journal"
	"github.com/brandoo/console/internal/session"
	"github.com/brandoo/console/internal/stats"
	"github.com/brandoo/console/internal/storage"
	"github.com/brandoo/console/internal/workspace"
)

// journalRetention is how long journaled writes are kept.
const journalRetention = 30 * 24 * time.Hour

// core holds the services shared by every command.
type core struct {
	cfg      *Config
	logger   *slog.Logger
	session  *session.Store
	client   *brandoo.Client
	journal  *journal.DB
	ws       *workspace.Workspace
	stats    *stats.Service
	contacts *contacts.Service
	events   *events.Service
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logOutput == nil {
		app.logOutput = os.Stdout
	}
	return app, nil
}

func (a *application) newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// newCore opens the data directory, restores the session and builds the
// backend client with the services on top of it. Close releases the
// journal.
func newCore(ctx context.Context, cfg *Config, logger *slog.Logger) (*core, error) {
	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	fs, err := storage.NewFS(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	store := session.NewStore(fs, logger)
	if err := store.Hydrate(); err != nil {
		// A corrupt session file only signs the user out.
		logger.Warn("session restore failed", slog.String("error", err.Error()))
	}

	client := brandoo.New(brandoo.Options{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.Timeout,
		RetryCount: cfg.Backend.RetryCount,
	}, store, logger)

	db, err := journal.Open(cfg.Data.JournalPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}
	if n, err := db.Prune(ctx, time.Now().Add(-journalRetention)); err != nil {
		logger.Warn("journal prune failed", slog.String("error", err.Error()))
	} else if n > 0 {
		logger.Debug("journal pruned", slog.Int64("entries", n))
	}
	client.SetRecorder(db)

	return &core{
		cfg:      cfg,
		logger:   logger,
		session:  store,
		client:   client,
		journal:  db,
		ws:       workspace.New(client, logger),
		stats:    stats.NewService(client),
		contacts: contacts.NewService(client),
		events:   events.NewService(client),
	}, nil
}

func (c *core) Close() error {
	return c.journal.Close()
}

// requireSignedIn fails with a hint when no usable session is stored.
func (c *core) requireSignedIn() (string, error) {
	uid, err := c.client.UserID()
	if err != nil {
		return "", fmt.Errorf("not signed in, run the login command first: %w", err)
	}
	return uid, nil
}
