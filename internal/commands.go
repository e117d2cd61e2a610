package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/brandoo/console/internal/mcpserver"
	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/session"
)

// RunMCP serves the MCP tools on stdin/stdout until stdin is closed. The
// session is shared with the HTTP console through the data directory.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.newLogger()

	c, err := newCore(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	c.session.OnChange(func(session.State) { c.ws.Reset() })
	watchCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		if err := c.session.Watch(watchCtx); err != nil {
			logger.Warn("session watcher stopped", slog.String("error", err.Error()))
		}
	}()

	srv := mcpserver.New(c.client, c.ws, c.stats, logger)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}

// Login signs in against the backend and stores the session in the data
// directory.
func Login(ctx context.Context, email, password string, opts ...Option) (models.User, error) {
	app, err := newApplication(opts)
	if err != nil {
		return models.User{}, err
	}
	c, err := newCore(ctx, app.config, app.newLogger())
	if err != nil {
		return models.User{}, err
	}
	defer c.Close()

	return c.session.SignIn(ctx, c.client, email, password)
}

// Logout removes the stored session. Running consoles pick the change up
// through their session watcher.
func Logout(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := newCore(ctx, app.config, app.newLogger())
	if err != nil {
		return err
	}
	defer c.Close()

	return c.session.SignOut()
}

// ExportContacts writes the xlsx export of formID's responses to w.
func ExportContacts(ctx context.Context, formID string, w io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := newCore(ctx, app.config, app.newLogger())
	if err != nil {
		return err
	}
	defer c.Close()

	uid, err := c.requireSignedIn()
	if err != nil {
		return err
	}
	if err := c.contacts.ExportForm(ctx, uid, formID, w); err != nil {
		return fmt.Errorf("export contacts: %w", err)
	}
	return nil
}

// EventICS writes the iCalendar file of event id to w and returns the
// suggested file name.
func EventICS(ctx context.Context, id string, w io.Writer, opts ...Option) (string, error) {
	app, err := newApplication(opts)
	if err != nil {
		return "", err
	}
	c, err := newCore(ctx, app.config, app.newLogger())
	if err != nil {
		return "", err
	}
	defer c.Close()

	if _, err := c.requireSignedIn(); err != nil {
		return "", err
	}
	name, data, err := c.events.Calendar(ctx, id)
	if err != nil {
		return "", fmt.Errorf("event calendar: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("write calendar: %w", err)
	}
	return name, nil
}
