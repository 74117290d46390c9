// Package history persists finished dictation sessions in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one terminal session.
type Entry struct {
	ID               int64
	SessionID        string
	CreatedAt        time.Time
	RawText          string
	FinalText        string
	DetectedLanguage string
	Confidence       float64
	OutputMode       string
	SourceApp        string
	Outcome          string
	Error            string
	CleanupProvider  string
	Duration         time.Duration
}

// Store is a SQLite-backed history log.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	raw_text TEXT NOT NULL,
	final_text TEXT NOT NULL,
	detected_language TEXT,
	confidence REAL,
	output_mode TEXT NOT NULL,
	source_app TEXT,
	outcome TEXT NOT NULL,
	error TEXT,
	cleanup_provider TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts (created_at DESC);
`

// DefaultPath is $XDG_DATA_HOME/speakflow/history.sqlite3, falling back to
// ~/.local/share.
func DefaultPath() string {
	base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "speakflow", "history.sqlite3")
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", (&url.URL{Path: path}).EscapedPath())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends e. A zero CreatedAt is stamped with the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transcripts (
			session_id, created_at, raw_text, final_text, detected_language,
			confidence, output_mode, source_app, outcome, error, cleanup_provider, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.SessionID,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
		e.RawText,
		e.FinalText,
		nullString(e.DetectedLanguage),
		e.Confidence,
		e.OutputMode,
		nullString(e.SourceApp),
		e.Outcome,
		nullString(e.Error),
		nullString(e.CleanupProvider),
		e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return s.Search(ctx, "", limit)
}

// Search returns up to limit entries whose text or source app contains
// query, newest first. An empty query matches everything.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + strings.TrimSpace(query) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, created_at, raw_text, final_text, detected_language,
			confidence, output_mode, source_app, outcome, error, cleanup_provider, duration_ms
		FROM transcripts
		WHERE raw_text LIKE ? OR final_text LIKE ? OR COALESCE(source_app, '') LIKE ?
		ORDER BY id DESC
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                                Entry
			createdAt                        string
			language, app, errText, provider sql.NullString
			confidence                       sql.NullFloat64
			durationMS                       int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &createdAt, &e.RawText, &e.FinalText, &language,
			&confidence, &e.OutputMode, &app, &e.Outcome, &errText, &provider, &durationMS); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		e.DetectedLanguage = language.String
		e.Confidence = confidence.Float64
		e.SourceApp = app.String
		e.Error = errText.String
		e.CleanupProvider = provider.String
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
