package repositories

import (
	"context"
	"time"

	"github.com/sipstreak/backend/internal/models"
)

// IntakeRepository defines data access for water intake records.
type IntakeRepository interface {
	Create(ctx context.Context, intake models.WaterIntake) error
	Get(ctx context.Context, id string) (models.WaterIntake, error)
	Update(ctx context.Context, intake models.WaterIntake) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, query models.IntakeQuery) ([]models.WaterIntake, error)
	// Exists reports whether the user logged anything in [from, to).
	Exists(ctx context.Context, userID string, from, to time.Time) (bool, error)
}

// SettingsRepository defines data access for per-user settings.
type SettingsRepository interface {
	FindByUserID(ctx context.Context, userID string) (models.UserSettings, error)
	Upsert(ctx context.Context, settings models.UserSettings) (models.UserSettings, error)
}
