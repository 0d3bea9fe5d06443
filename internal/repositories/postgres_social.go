package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/sipstreak/backend/internal/db"
	"github.com/sipstreak/backend/internal/models"
)

var profileColumns = []string{"id", "user_id", "display_name", "email", "avatar_file_id", "friend_code", "created_at", "updated_at"}

// PostgresProfileRepository provides PostgreSQL-backed persistence for user profiles.
type PostgresProfileRepository struct {
	pool db.Pool
}

// NewPostgresProfileRepository constructs a profile repository backed by PostgreSQL.
func NewPostgresProfileRepository(pool db.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// Create inserts a new profile. Duplicate users or friend codes yield ErrConflict.
func (r *PostgresProfileRepository) Create(ctx context.Context, profile models.UserProfile) error {
	query, args, err := psql.Insert("user_profiles").
		Columns(profileColumns...).
		Values(profile.ID, profile.UserID, profile.DisplayName, profile.Email, profile.AvatarFileID, profile.FriendCode, profile.CreatedAt, profile.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert profile: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, query, args...); err != nil {
		return classifyWriteError(err, "insert profile")
	}

	return nil
}

// FindByUserID loads the profile owned by userID.
func (r *PostgresProfileRepository) FindByUserID(ctx context.Context, userID string) (models.UserProfile, error) {
	return r.findOne(ctx, squirrel.Eq{"user_id": userID})
}

// FindByFriendCode loads the profile that owns code.
func (r *PostgresProfileRepository) FindByFriendCode(ctx context.Context, code string) (models.UserProfile, error) {
	return r.findOne(ctx, squirrel.Eq{"friend_code": code})
}

func (r *PostgresProfileRepository) findOne(ctx context.Context, where squirrel.Eq) (models.UserProfile, error) {
	query, args, err := psql.Select(profileColumns...).From("user_profiles").Where(where).Limit(1).ToSql()
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("build select profile: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var p models.UserProfile
	row := conn.QueryRow(ctx, query, args...)
	if err := row.Scan(&p.ID, &p.UserID, &p.DisplayName, &p.Email, &p.AvatarFileID, &p.FriendCode, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UserProfile{}, ErrNotFound
		}
		return models.UserProfile{}, fmt.Errorf("select profile: %w", err)
	}

	return p, nil
}

// Update changes the mutable profile fields. The friend code is never rewritten.
func (r *PostgresProfileRepository) Update(ctx context.Context, profile models.UserProfile) error {
	stmt := psql.Update("user_profiles").
		Set("display_name", profile.DisplayName).
		Set("avatar_file_id", profile.AvatarFileID).
		Set("updated_at", profile.UpdatedAt).
		Where(squirrel.Eq{"id": profile.ID})

	return execStatement(ctx, r.pool, stmt, "update profile")
}

var friendshipColumns = []string{"id", "user_id", "friend_user_id", "status", "friend_name", "friend_email", "created_at", "updated_at"}

// PostgresFriendRepository provides PostgreSQL-backed persistence for friendship edges.
type PostgresFriendRepository struct {
	pool db.Pool
}

// NewPostgresFriendRepository constructs a friend repository backed by PostgreSQL.
func NewPostgresFriendRepository(pool db.Pool) *PostgresFriendRepository {
	return &PostgresFriendRepository{pool: pool}
}

// Create persists a new directed edge.
func (r *PostgresFriendRepository) Create(ctx context.Context, f models.Friendship) error {
	query, args, err := psql.Insert("friendships").
		Columns(friendshipColumns...).
		Values(f.ID, f.UserID, f.FriendUserID, string(f.Status), f.FriendName, f.FriendEmail, f.CreatedAt, f.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert friendship: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, query, args...); err != nil {
		return classifyWriteError(err, "insert friendship")
	}

	return nil
}

// Get loads an edge by identifier.
func (r *PostgresFriendRepository) Get(ctx context.Context, id string) (models.Friendship, error) {
	rows, err := r.list(ctx, psql.Select(friendshipColumns...).From("friendships").Where(squirrel.Eq{"id": id}).Limit(1))
	if err != nil {
		return models.Friendship{}, err
	}
	if len(rows) == 0 {
		return models.Friendship{}, ErrNotFound
	}
	return rows[0], nil
}

// FindEdge loads the edge from userID to friendUserID, if any.
func (r *PostgresFriendRepository) FindEdge(ctx context.Context, userID, friendUserID string) (models.Friendship, error) {
	rows, err := r.list(ctx, psql.Select(friendshipColumns...).
		From("friendships").
		Where(squirrel.Eq{"user_id": userID, "friend_user_id": friendUserID}).
		Limit(1))
	if err != nil {
		return models.Friendship{}, err
	}
	if len(rows) == 0 {
		return models.Friendship{}, ErrNotFound
	}
	return rows[0], nil
}

// UpdateStatus changes the status of an edge.
func (r *PostgresFriendRepository) UpdateStatus(ctx context.Context, id string, status models.FriendshipStatus) error {
	stmt := psql.Update("friendships").
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id})

	return execStatement(ctx, r.pool, stmt, "update friendship status")
}

// Delete removes an edge.
func (r *PostgresFriendRepository) Delete(ctx context.Context, id string) error {
	return execStatement(ctx, r.pool, psql.Delete("friendships").Where(squirrel.Eq{"id": id}), "delete friendship")
}

// ListByOwner returns the user's outgoing edges with the given status.
func (r *PostgresFriendRepository) ListByOwner(ctx context.Context, userID string, status models.FriendshipStatus) ([]models.Friendship, error) {
	return r.list(ctx, psql.Select(friendshipColumns...).
		From("friendships").
		Where(squirrel.Eq{"user_id": userID, "status": string(status)}).
		OrderBy("created_at ASC", "id ASC"))
}

// ListByTarget returns edges pointing at the user with the given status.
func (r *PostgresFriendRepository) ListByTarget(ctx context.Context, friendUserID string, status models.FriendshipStatus) ([]models.Friendship, error) {
	return r.list(ctx, psql.Select(friendshipColumns...).
		From("friendships").
		Where(squirrel.Eq{"friend_user_id": friendUserID, "status": string(status)}).
		OrderBy("created_at DESC", "id ASC"))
}

func (r *PostgresFriendRepository) list(ctx context.Context, stmt squirrel.SelectBuilder) ([]models.Friendship, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select friendships: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query friendships: %w", err)
	}
	defer rows.Close()

	var out []models.Friendship
	for rows.Next() {
		var (
			f      models.Friendship
			status string
		)
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendUserID, &status, &f.FriendName, &f.FriendEmail, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		f.Status = models.FriendshipStatus(status)
		out = append(out, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friendships: %w", err)
	}

	return out, nil
}

var _ ProfileRepository = (*PostgresProfileRepository)(nil)
var _ FriendshipRepository = (*PostgresFriendRepository)(nil)
