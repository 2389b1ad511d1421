package session

import (
	"context"
	"database/sql"
	_ "embed"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// SqliteStore keeps sessions in a local sqlite database. Expired rows are
// ignored on read and reaped by a background daemon.
type SqliteStore struct {
	db *sql.DB
}

// NewSqliteStore applies the schema and starts the reaper daemon, which
// stops when ctx is cancelled.
func NewSqliteStore(ctx context.Context, db *sql.DB) (*SqliteStore, error) {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, err
	}
	s := &SqliteStore{db: db}
	go s.reapDaemon(ctx)
	return s, nil
}

func (s *SqliteStore) reapDaemon(ctx context.Context) {
	slog.InfoContext(ctx, "start daemon", "task", "delete expired sessions every 10 minutes")

	ticker := time.NewTicker(time.Minute * 10)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_, err := s.db.ExecContext(
				ctx,
				`DELETE FROM sessions WHERE expires_at < ?`,
				time.Now().Unix(),
			)
			if err != nil {
				slog.WarnContext(ctx, "failed to delete expired sessions", "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *SqliteStore) Get(ctx context.Context, id string) (Session, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT username, cookie_jar, expires_at FROM sessions WHERE id = ?`,
		id,
	)

	var sess Session
	var expiresAt int64
	err := row.Scan(&sess.Username, &sess.CookieJar, &expiresAt)
	if err == sql.ErrNoRows {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	if expiresAt < time.Now().Unix() {
		return Session{}, false, nil
	}
	return sess, true, nil
}

func (s *SqliteStore) Put(ctx context.Context, id string, sess Session) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (id, username, cookie_jar, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			cookie_jar = excluded.cookie_jar,
			expires_at = excluded.expires_at`,
		id, sess.Username, sess.CookieJar, time.Now().Add(InactivityExpiry).Unix(),
	)
	return err
}

func (s *SqliteStore) Destroy(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}
