package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/sipstreak/backend/internal/db"
	"github.com/sipstreak/backend/internal/models"
)

var intakeColumns = []string{"id", "user_id", "amount", "unit", "logged_at", "photo_file_id", "created_at"}

// PostgresIntakeRepository provides PostgreSQL-backed persistence for water intake.
type PostgresIntakeRepository struct {
	pool db.Pool
}

// NewPostgresIntakeRepository constructs an intake repository backed by PostgreSQL.
func NewPostgresIntakeRepository(pool db.Pool) *PostgresIntakeRepository {
	return &PostgresIntakeRepository{pool: pool}
}

// Create stores a new intake record.
func (r *PostgresIntakeRepository) Create(ctx context.Context, in models.WaterIntake) error {
	query, args, err := psql.Insert("water_intake").
		Columns(intakeColumns...).
		Values(in.ID, in.UserID, in.Amount, in.Unit, in.LoggedAt.UTC(), in.PhotoFileID, in.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert intake: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, query, args...); err != nil {
		return classifyWriteError(err, "insert intake")
	}

	return nil
}

// Get loads an intake record by identifier.
func (r *PostgresIntakeRepository) Get(ctx context.Context, id string) (models.WaterIntake, error) {
	rows, err := r.query(ctx, psql.Select(intakeColumns...).From("water_intake").Where(squirrel.Eq{"id": id}).Limit(1))
	if err != nil {
		return models.WaterIntake{}, err
	}
	if len(rows) == 0 {
		return models.WaterIntake{}, ErrNotFound
	}
	return rows[0], nil
}

// Update rewrites the amount and unit of an intake record.
func (r *PostgresIntakeRepository) Update(ctx context.Context, in models.WaterIntake) error {
	stmt := psql.Update("water_intake").
		Set("amount", in.Amount).
		Set("unit", in.Unit).
		Where(squirrel.Eq{"id": in.ID})

	return execStatement(ctx, r.pool, stmt, "update intake")
}

// Delete removes an intake record.
func (r *PostgresIntakeRepository) Delete(ctx context.Context, id string) error {
	return execStatement(ctx, r.pool, psql.Delete("water_intake").Where(squirrel.Eq{"id": id}), "delete intake")
}

// List returns intake records matching query, oldest first unless Newest is set.
func (r *PostgresIntakeRepository) List(ctx context.Context, q models.IntakeQuery) ([]models.WaterIntake, error) {
	return r.query(ctx, intakeSelect(q))
}

// Exists reports whether userID logged at least one drink in [from, to).
func (r *PostgresIntakeRepository) Exists(ctx context.Context, userID string, from, to time.Time) (bool, error) {
	query, args, err := psql.Select("1").
		From("water_intake").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.GtOrEq{"logged_at": from.UTC()}).
		Where(squirrel.Lt{"logged_at": to.UTC()}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build intake existence query: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var one int
	if err := conn.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query intake existence: %w", err)
	}

	return true, nil
}

func intakeSelect(q models.IntakeQuery) squirrel.SelectBuilder {
	stmt := psql.Select(intakeColumns...).From("water_intake")
	if q.UserID != "" {
		stmt = stmt.Where(squirrel.Eq{"user_id": q.UserID})
	}
	if !q.From.IsZero() {
		stmt = stmt.Where(squirrel.GtOrEq{"logged_at": q.From.UTC()})
	}
	if !q.To.IsZero() {
		stmt = stmt.Where(squirrel.Lt{"logged_at": q.To.UTC()})
	}
	if q.Newest {
		stmt = stmt.OrderBy("logged_at DESC", "id DESC")
	} else {
		stmt = stmt.OrderBy("logged_at ASC", "id ASC")
	}
	if q.Limit > 0 {
		stmt = stmt.Limit(uint64(q.Limit))
	}
	return stmt
}

func (r *PostgresIntakeRepository) query(ctx context.Context, stmt squirrel.SelectBuilder) ([]models.WaterIntake, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select intake: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query intake: %w", err)
	}
	defer rows.Close()

	var out []models.WaterIntake
	for rows.Next() {
		var in models.WaterIntake
		if err := rows.Scan(&in.ID, &in.UserID, &in.Amount, &in.Unit, &in.LoggedAt, &in.PhotoFileID, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan intake: %w", err)
		}
		in.LoggedAt = in.LoggedAt.UTC()
		in.CreatedAt = in.CreatedAt.UTC()
		out = append(out, in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intake: %w", err)
	}

	return out, nil
}

var settingsColumns = []string{
	"id", "user_id", "daily_goal", "goal_unit", "notifications_enabled", "reminder_interval_minutes",
	"quiet_hours_enabled", "quiet_hours_start", "quiet_hours_end", "updated_at",
}

// PostgresSettingsRepository provides PostgreSQL-backed persistence for user settings.
type PostgresSettingsRepository struct {
	pool db.Pool
}

// NewPostgresSettingsRepository constructs a settings repository backed by PostgreSQL.
func NewPostgresSettingsRepository(pool db.Pool) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{pool: pool}
}

// FindByUserID loads the settings saved by userID.
func (r *PostgresSettingsRepository) FindByUserID(ctx context.Context, userID string) (models.UserSettings, error) {
	query, args, err := psql.Select(settingsColumns...).From("user_settings").Where(squirrel.Eq{"user_id": userID}).Limit(1).ToSql()
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("build select settings: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	s, err := scanSettings(conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UserSettings{}, ErrNotFound
		}
		return models.UserSettings{}, fmt.Errorf("select settings: %w", err)
	}
	return s, nil
}

// Upsert creates the user's settings row or replaces its values.
func (r *PostgresSettingsRepository) Upsert(ctx context.Context, s models.UserSettings) (models.UserSettings, error) {
	query, args, err := psql.Insert("user_settings").
		Columns(settingsColumns...).
		Values(s.ID, s.UserID, s.DailyGoal, s.GoalUnit, s.NotificationsEnabled, s.ReminderIntervalMinutes,
			s.QuietHoursEnabled, s.QuietHoursStart, s.QuietHoursEnd, s.UpdatedAt.UTC()).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
            daily_goal = EXCLUDED.daily_goal,
            goal_unit = EXCLUDED.goal_unit,
            notifications_enabled = EXCLUDED.notifications_enabled,
            reminder_interval_minutes = EXCLUDED.reminder_interval_minutes,
            quiet_hours_enabled = EXCLUDED.quiet_hours_enabled,
            quiet_hours_start = EXCLUDED.quiet_hours_start,
            quiet_hours_end = EXCLUDED.quiet_hours_end,
            updated_at = EXCLUDED.updated_at
        RETURNING ` + strings.Join(settingsColumns, ", ")).
		ToSql()
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("build upsert settings: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	saved, err := scanSettings(conn.QueryRow(ctx, query, args...))
	if err != nil {
		return models.UserSettings{}, classifyWriteError(err, "upsert settings")
	}
	return saved, nil
}

func scanSettings(row pgx.Row) (models.UserSettings, error) {
	var s models.UserSettings
	err := row.Scan(&s.ID, &s.UserID, &s.DailyGoal, &s.GoalUnit, &s.NotificationsEnabled, &s.ReminderIntervalMinutes,
		&s.QuietHoursEnabled, &s.QuietHoursStart, &s.QuietHoursEnd, &s.UpdatedAt)
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, err
}

var _ IntakeRepository = (*PostgresIntakeRepository)(nil)
var _ SettingsRepository = (*PostgresSettingsRepository)(nil)
