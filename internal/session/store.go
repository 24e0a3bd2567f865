// Package session keeps the text extracted for each browser session and the
// last summary computed for it. Sessions are ephemeral and pruned when idle.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Extractor   string    `json:"extractor"`
	Text        string    `json:"text"`
	Summary     *string   `json:"summary,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL DEFAULT '',
	content_type TEXT NOT NULL DEFAULT '',
	extractor    TEXT NOT NULL DEFAULT '',
	text         TEXT NOT NULL DEFAULT '',
	summary      TEXT,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_updated_at ON sessions(updated_at);`

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the SQLite database at path. ":memory:" keeps
// everything in process.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// Each connection to ":memory:" is its own database, and SQLite allows a
	// single writer anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init session schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Create stores a new session with a fresh ID and no summary.
func (s *Store) Create(ctx context.Context, in Session) (Session, error) {
	now := s.now().UTC()
	in.ID = uuid.NewString()
	in.Summary = nil
	in.CreatedAt, in.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, filename, content_type, extractor, text, summary, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, NULL, ?, ?)`,
		in.ID, in.Filename, in.ContentType, in.Extractor, in.Text, now.UnixNano(), now.UnixNano())
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return in, nil
}

func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Session{}, ErrNotFound
	}
	var (
		out              Session
		summary          sql.NullString
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, content_type, extractor, text, summary, created_at, updated_at
		 FROM sessions WHERE id = ?`, id).
		Scan(&out.ID, &out.Filename, &out.ContentType, &out.Extractor, &out.Text, &summary, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	if summary.Valid {
		out.Summary = &summary.String
	}
	out.CreatedAt = time.Unix(0, created).UTC()
	out.UpdatedAt = time.Unix(0, updated).UTC()
	return out, nil
}

// SetSummary caches summary on the session until it is regenerated.
func (s *Store) SetSummary(ctx context.Context, id, summary string) error {
	return s.update(ctx, `UPDATE sessions SET summary = ?, updated_at = ? WHERE id = ?`, summary, s.now().UTC().UnixNano(), id)
}

func (s *Store) ClearSummary(ctx context.Context, id string) error {
	return s.update(ctx, `UPDATE sessions SET summary = NULL, updated_at = ? WHERE id = ?`, s.now().UTC().UnixNano(), id)
}

// Touch marks the session as used so Prune keeps it.
func (s *Store) Touch(ctx context.Context, id string) error {
	return s.update(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, s.now().UTC().UnixNano(), id)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.update(ctx, `DELETE FROM sessions WHERE id = ?`, id)
}

func (s *Store) update(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Prune deletes sessions not updated within maxIdle and returns how many.
func (s *Store) Prune(ctx context.Context, maxIdle time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-maxIdle).UnixNano()
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return res.RowsAffected()
}
