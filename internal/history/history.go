// Package history persists session state transitions observed by the watch
// daemon to a SQLite database, so "what happened while I was away" survives
// the short-lived status files.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/twistedxcom/woodeye/internal/status"
)

// DBFileName is the history database file inside the status directory.
const DBFileName = "history.db"

// DB wraps a SQLite database recording state transitions.
// Thread-safe for concurrent use within one process; WAL mode + busy
// timeout make cross-process access safe too.
type DB struct {
	db *sql.DB
}

// Transition is one observed state change for a project path.
type Transition struct {
	ID          int64
	ProjectPath string
	SessionKey  string
	FromState   status.SessionState
	ToState     status.SessionState
	LastTool    string
	At          time.Time
}

// Open creates or opens the history database at dbPath.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("history: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}

	// WAL mode: allows concurrent readers while writing
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: wal mode: %w", err)
	}

	// Busy timeout: wait up to 5s if another process holds a lock
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: busy timeout: %w", err)
	}

	h := &DB{db: db}
	if err := h.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

// Close checkpoints WAL and closes the database.
func (h *DB) Close() error {
	_, _ = h.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return h.db.Close()
}

func (h *DB) migrate() error {
	_, err := h.db.Exec(`
		CREATE TABLE IF NOT EXISTS transitions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			project_path TEXT NOT NULL,
			session_key  TEXT NOT NULL,
			from_state   TEXT NOT NULL,
			to_state     TEXT NOT NULL,
			last_tool    TEXT NOT NULL DEFAULT '',
			at           INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_transitions_path_at
			ON transitions (project_path, at DESC);
	`)
	if err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// Record inserts one transition.
func (h *DB) Record(t Transition) error {
	at := t.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := h.db.Exec(`
		INSERT INTO transitions (project_path, session_key, from_state, to_state, last_tool, at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ProjectPath, t.SessionKey, string(t.FromState), string(t.ToState), t.LastTool, at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Recent returns the newest transitions, optionally filtered by project
// path, newest first.
func (h *DB) Recent(projectPath string, limit int) ([]Transition, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, project_path, session_key, from_state, to_state, last_tool, at
		FROM transitions`
	args := []any{}
	if projectPath != "" {
		query += ` WHERE project_path = ?`
		args = append(args, projectPath)
	}
	query += ` ORDER BY at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		var from, to string
		var at int64
		if err := rows.Scan(&t.ID, &t.ProjectPath, &t.SessionKey, &from, &to, &t.LastTool, &at); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		t.FromState = status.SessionState(from)
		t.ToState = status.SessionState(to)
		t.At = time.Unix(at, 0)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Prune deletes transitions older than the retention window.
func (h *DB) Prune(olderThan time.Duration) (int64, error) {
	res, err := h.db.Exec(`DELETE FROM transitions WHERE at < ?`, time.Now().Add(-olderThan).Unix())
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
