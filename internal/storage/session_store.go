package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"smartexpense/internal/session"

	_ "modernc.org/sqlite"
)

// SessionStore keeps token slots in SQLite so logins survive restarts.
type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ session.Store = (*SessionStore)(nil)

func NewSessionStore(dbPath string) (*SessionStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return &SessionStore{db: db, now: time.Now}, nil
}

func (s *SessionStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SessionStore) Load(ctx context.Context, id string) (session.Session, error) {
	var (
		sess      session.Session
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, token, flash, expires_at FROM sessions WHERE id = ? AND expires_at > ?`,
		id, s.now().UnixMilli(),
	).Scan(&sess.ID, &sess.Token, &sess.Flash, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, session.ErrNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}
	sess.ExpiresAt = time.UnixMilli(expiresAt)
	return sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess session.Session) error {
	if sess.ID == "" {
		return errors.New("session id is required")
	}
	now := s.now().UnixMilli()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token, flash, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			flash = excluded.flash,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		sess.ID, sess.Token, sess.Flash, sess.ExpiresAt.UnixMilli(), now, now)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every slot past its expiry and returns how many went.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		slog.DebugContext(ctx, "Expired sessions removed", "component", "storage", "count", n)
	}
	return n, nil
}

// CleanExpired adapts DeleteExpired to cache.Cleaner so the cache manager can sweep this store.
func (s *SessionStore) CleanExpired() int {
	n, err := s.DeleteExpired(context.Background())
	if err != nil {
		slog.Error("Session sweep failed", "component", "storage", "error", err)
		return 0
	}
	return int(n)
}
