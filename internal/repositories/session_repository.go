package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/sipstreak/backend/internal/auth"
	"github.com/sipstreak/backend/internal/db"
)

var sessionColumns = []string{"refresh_token", "user_id", "email", "name", "expires_at"}

// PostgresSessionStore keeps refresh tokens in the sessions table.
type PostgresSessionStore struct {
	pool db.Pool
}

func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save inserts the session, replacing any row with the same refresh token.
func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	stmt := psql.Insert("sessions").
		Columns(sessionColumns...).
		Values(session.RefreshToken, session.UserID, session.Email, session.Name, session.ExpiresAt.UTC()).
		Suffix(`ON CONFLICT (refresh_token) DO UPDATE SET
			user_id = EXCLUDED.user_id, email = EXCLUDED.email,
			name = EXCLUDED.name, expires_at = EXCLUDED.expires_at`)
	return execStatement(ctx, s.pool, stmt, "save session")
}

func (s *PostgresSessionStore) Find(ctx context.Context, refreshToken string) (auth.Session, error) {
	query, args, err := psql.Select(sessionColumns...).
		From("sessions").
		Where(squirrel.Eq{"refresh_token": refreshToken}).
		ToSql()
	if err != nil {
		return auth.Session{}, fmt.Errorf("build find session: %w", err)
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return auth.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var session auth.Session
	err = conn.QueryRow(ctx, query, args...).
		Scan(&session.RefreshToken, &session.UserID, &session.Email, &session.Name, &session.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Session{}, auth.ErrSessionNotFound
	}
	if err != nil {
		return auth.Session{}, fmt.Errorf("find session: %w", err)
	}
	session.ExpiresAt = session.ExpiresAt.UTC()
	return session, nil
}

func (s *PostgresSessionStore) Delete(ctx context.Context, refreshToken string) error {
	stmt := psql.Delete("sessions").Where(squirrel.Eq{"refresh_token": refreshToken})
	if err := execStatement(ctx, s.pool, stmt, "delete session"); err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.ErrSessionNotFound
		}
		return err
	}
	return nil
}

// PurgeExpired deletes every session whose expiry is before the cutoff.
func (s *PostgresSessionStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	query, args, err := psql.Delete("sessions").
		Where(squirrel.Lt{"expires_at": before.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge sessions: %w", err)
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)
