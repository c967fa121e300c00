// Package diagnostics keeps an operator-facing SQLite journal of failed scans.
// Nothing in here is ever shown to the person who submitted the URL.
package diagnostics

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/scan"
)

//go:embed schema.sql
var schemaFS embed.FS

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Entry is a stored FailureRecord.
type Entry struct {
	ID string `json:"id"`
	scan.FailureRecord
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Kind  scan.FailureKind
	Since time.Time
	Limit int
}

type Store struct {
	db     *sql.DB
	logger logging.Logger
}

var _ scan.Recorder = (*Store)(nil)

// Open opens (creating if needed) the journal database at path.
func Open(path string, logger logging.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("diagnostics: empty path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create diagnostics dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s, err := NewStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore applies pragmas and the schema to db. Writes are serialized through
// a single connection.
func NewStore(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("diagnostics: db is nil")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "diagnostics"}),
	}, nil
}

// RecordFailure stores rec.
func (s *Store) RecordFailure(ctx context.Context, rec scan.FailureRecord) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_failures (id, session_id, generation, url, kind, status_code, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), rec.SessionID, int64(rec.Generation), rec.URL,
		string(rec.Kind), rec.StatusCode, rec.Detail, at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert scan failure: %w", err)
	}
	return nil
}

// List returns the newest entries first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := `SELECT id, session_id, generation, url, kind, status_code, detail, created_at
		FROM scan_failures WHERE 1=1`
	var args []any
	if f.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(f.Kind))
	}
	if !f.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, f.Since.UnixNano())
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scan failures: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e    Entry
			gen  int64
			kind string
			at   int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &gen, &e.URL, &kind, &e.StatusCode, &e.Detail, &at); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Generation = uint64(gen)
		e.Kind = scan.FailureKind(kind)
		e.At = time.Unix(0, at).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountByKind summarizes the journal.
func (s *Store) CountByKind(ctx context.Context) (map[scan.FailureKind]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM scan_failures GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count scan failures: %w", err)
	}
	defer rows.Close()

	out := make(map[scan.FailureKind]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out[scan.FailureKind(kind)] = n
	}
	return out, rows.Err()
}

// Prune deletes entries older than before and returns how many were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scan_failures WHERE created_at < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune scan failures: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Info("pruned diagnostics", logging.Field{Key: "count", Value: n})
	}
	return n, nil
}

// RunRetention prunes entries older than retention every interval until ctx is done.
func (s *Store) RunRetention(ctx context.Context, retention, interval time.Duration) {
	if retention <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}
	prune := func() {
		if _, err := s.Prune(ctx, time.Now().Add(-retention)); err != nil && ctx.Err() == nil {
			s.logger.Warn("diagnostics retention failed", logging.Field{Key: "error", Value: err.Error()})
		}
	}
	prune()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			prune()
		}
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}
