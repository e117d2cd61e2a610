// Package journal keeps a SQLite log of the writes the console sends to
// the backend.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS writes (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	at     DATETIME NOT NULL,
	method TEXT NOT NULL,
	path   TEXT NOT NULL,
	status INTEGER NOT NULL DEFAULT 0,
	error  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_writes_at ON writes(at);
`

// Entry is one journaled write.
type Entry struct {
	ID     int64     `json:"id"`
	At     time.Time `json:"at"`
	Method string    `json:"method"`
	Path   string    `json:"path"`
	Status int       `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// Failed reports whether the write did not succeed.
func (e Entry) Failed() bool {
	return e.Error != "" || e.Status == 0 || e.Status >= 400
}

// DB wraps a sql.DB holding the journal.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (or creates) the journal database and applies the schema.
func Open(dsn string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &DB{conn: conn, logger: logger, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// RecordWrite implements brandoo.Recorder. Failures to journal are logged
// and never reach the caller.
func (db *DB) RecordWrite(ctx context.Context, method, path string, status int, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	_, execErr := db.conn.ExecContext(context.WithoutCancel(ctx),
		`INSERT INTO writes (at, method, path, status, error) VALUES (?, ?, ?, ?, ?)`,
		db.now().UTC(), method, path, status, msg)
	if execErr != nil {
		db.logger.Warn("journal: record failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", execErr.Error()))
	}
}

// Recent returns up to limit entries, newest first.
func (db *DB) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, at, method, path, status, error FROM writes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.At, &e.Method, &e.Path, &e.Status, &e.Error); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes entries older than before and returns how many went.
func (db *DB) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM writes WHERE at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}
	return res.RowsAffected()
}
