// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a local SQLite log of fetch diagnostics and of the
// query and detail outcomes a session applied. Writes never fail the caller:
// the observer path logs errors, and the recorder path returns them for the
// session to log.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/pdiddy/agroscope/internal/dataaccess"
	"github.com/pdiddy/agroscope/internal/session"
)

const (
	dbFile       = "agroscope.db"
	defaultLimit = 20
	writeTimeout = 2 * time.Second
)

// Store manages the history SQLite database.
type Store struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
}

// Open opens or creates dir/agroscope.db and its schema.
func Open(dir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	path := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS diagnostics (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL,
			resource TEXT NOT NULL,
			params TEXT,
			outcome TEXT NOT NULL,
			cause TEXT,
			status INTEGER,
			elapsed_ns INTEGER,
			at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_diagnostics_resource ON diagnostics(resource)`,
		`CREATE TABLE IF NOT EXISTS queries (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			subject TEXT NOT NULL,
			outcome TEXT NOT NULL,
			reason TEXT,
			matches INTEGER,
			at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_queries_subject ON queries(subject)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Observe records a diagnostic. It satisfies dataaccess.Observer; errors are
// logged, not returned.
func (s *Store) Observe(d dataaccess.Diagnostic) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	params := ""
	if len(d.Params) > 0 {
		data, _ := json.Marshal(d.Params)
		params = string(data)
	}
	at := d.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO diagnostics (request_id, resource, params, outcome, cause, status, elapsed_ns, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.RequestID, string(d.Resource), params, d.Kind.String(), d.Cause,
		d.Status, int64(d.Elapsed), at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.logger.Warn().Err(err).Str("request_id", d.RequestID).Msg("recording diagnostic")
	}
}

// Record stores an applied session outcome. It satisfies session.Recorder.
func (s *Store) Record(ctx context.Context, ev session.Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (kind, subject, outcome, reason, matches, at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(ev.Kind), ev.Subject, ev.Outcome.String(), ev.Reason, ev.Matches,
		at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording %s %s: %w", ev.Kind, ev.Subject, err)
	}
	return nil
}

// Recent returns the most recently applied outcomes, newest first. A
// non-positive limit uses the default.
func (s *Store) Recent(ctx context.Context, limit int) ([]session.Event, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, subject, outcome, reason, matches, at
		 FROM queries ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var events []session.Event
	for rows.Next() {
		var (
			ev            session.Event
			kind, outcome string
			reason, atStr sql.NullString
			matches       sql.NullInt64
		)
		if err := rows.Scan(&kind, &ev.Subject, &outcome, &reason, &matches, &atStr); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		ev.Kind = session.EventKind(kind)
		ev.Outcome, _ = dataaccess.ParseKind(outcome)
		ev.Reason = reason.String
		ev.Matches = int(matches.Int64)
		ev.At = parseTime(atStr.String)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Diagnostics returns the most recent fetch diagnostics, newest first.
func (s *Store) Diagnostics(ctx context.Context, limit int) ([]dataaccess.Diagnostic, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, resource, params, outcome, cause, status, elapsed_ns, at
		 FROM diagnostics ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying diagnostics: %w", err)
	}
	defer rows.Close()

	var diags []dataaccess.Diagnostic
	for rows.Next() {
		var (
			d                    dataaccess.Diagnostic
			resource, outcome    string
			params, cause, atStr sql.NullString
			status, elapsed      sql.NullInt64
		)
		if err := rows.Scan(&d.RequestID, &resource, &params, &outcome, &cause, &status, &elapsed, &atStr); err != nil {
			return nil, fmt.Errorf("scanning diagnostic row: %w", err)
		}
		d.Resource = dataaccess.Resource(resource)
		d.Kind, _ = dataaccess.ParseKind(outcome)
		d.Cause = cause.String
		d.Status = int(status.Int64)
		d.Elapsed = time.Duration(elapsed.Int64)
		d.At = parseTime(atStr.String)
		if params.String != "" {
			if err := json.Unmarshal([]byte(params.String), &d.Params); err != nil {
				return nil, fmt.Errorf("decoding params for %s: %w", d.RequestID, err)
			}
		}
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
