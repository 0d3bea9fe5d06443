// Package hydration records drinks and per-user goal settings.
package hydration

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sipstreak/backend/internal/apperr"
	"github.com/sipstreak/backend/internal/auth"
	"github.com/sipstreak/backend/internal/calendar"
	"github.com/sipstreak/backend/internal/logging"
	"github.com/sipstreak/backend/internal/models"
	"github.com/sipstreak/backend/internal/repositories"
)

const (
	MinAmount    = 1
	MaxAmount    = 5000
	historyLimit = 500
	photoFanout  = 8
	maxUnitLen   = 10
)

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// PhotoStore holds verification photos.
type PhotoStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// PhotoCleaner deletes photos in the background. Enqueue reports false when
// the work could not be queued.
type PhotoCleaner interface {
	Enqueue(key string) bool
}

// Service implements the intake log and settings operations.
type Service struct {
	intakes  repositories.IntakeRepository
	settings repositories.SettingsRepository
	photos   PhotoStore
	cleaner  PhotoCleaner
	clock    calendar.Clock
}

// NewService constructs a Service. cleaner may be nil, in which case photos
// are deleted inline.
func NewService(intakes repositories.IntakeRepository, settings repositories.SettingsRepository, photos PhotoStore, cleaner PhotoCleaner, clock calendar.Clock) *Service {
	return &Service{
		intakes:  intakes,
		settings: settings,
		photos:   photos,
		cleaner:  cleaner,
		clock:    clock,
	}
}

// LogIntakeInput describes a drink being logged.
type LogIntakeInput struct {
	Amount      int    `json:"amount"`
	Unit        string `json:"unit"`
	PhotoBase64 string `json:"photoBase64"`
}

// Intake is a stored record with its photo URL resolved.
type Intake struct {
	models.WaterIntake
	PhotoURL string `json:"photoUrl,omitempty"`
}

// DayIntakes lists one calendar day's records, newest first.
type DayIntakes struct {
	Date        string   `json:"date"`
	Intakes     []Intake `json:"intakes"`
	Count       int      `json:"total"`
	TotalAmount int      `json:"totalAmount"`
}

// DayGroup aggregates a day inside a history listing.
type DayGroup struct {
	Total   int                  `json:"total"`
	Count   int                  `json:"count"`
	Entries []models.WaterIntake `json:"entries"`
}

// History is a newest-first slice of records grouped by calendar day.
type History struct {
	Intakes []models.WaterIntake `json:"intakes"`
	Total   int                  `json:"total"`
	ByDate  map[string]DayGroup  `json:"byDate"`
}

// UpdateIntakeInput corrects an existing record. Nil fields are left unchanged.
type UpdateIntakeInput struct {
	ID     string  `json:"id"`
	Amount *int    `json:"amount,omitempty"`
	Unit   *string `json:"unit,omitempty"`
}

// Summary reports progress towards today's goal.
type Summary struct {
	TotalIntake  int    `json:"totalIntake"`
	DailyGoal    int    `json:"dailyGoal"`
	Percentage   int    `json:"percentage"`
	EntriesCount int    `json:"entriesCount"`
	Unit         string `json:"unit"`
}

// LogIntake uploads the verification photo and records the drink. When the
// record cannot be stored the uploaded photo is removed again.
func (s *Service) LogIntake(ctx context.Context, id auth.Identity, in LogIntakeInput) (models.WaterIntake, error) {
	const op = "log intake"
	if err := id.Validate(op); err != nil {
		return models.WaterIntake{}, err
	}
	if err := validateAmount(op, in.Amount); err != nil {
		return models.WaterIntake{}, err
	}
	unit, err := normalizeUnit(op, in.Unit)
	if err != nil {
		return models.WaterIntake{}, err
	}
	if strings.TrimSpace(in.PhotoBase64) == "" {
		return models.WaterIntake{}, apperr.New(apperr.KindInvalidOperation, op, "a verification photo is required")
	}
	photo, err := decodeImage(in.PhotoBase64)
	if err != nil {
		return models.WaterIntake{}, apperr.New(apperr.KindInvalidOperation, op, "photo must be base64 encoded image data")
	}

	key := fmt.Sprintf("photos/%s/%s.jpg", id.UserID, uuid.NewString())
	if err := s.photos.Put(ctx, key, "image/jpeg", photo); err != nil {
		return models.WaterIntake{}, apperr.Internal(op, err)
	}

	now := s.clock.Now().UTC()
	record := models.WaterIntake{
		ID:          uuid.NewString(),
		UserID:      id.UserID,
		Amount:      in.Amount,
		Unit:        unit,
		LoggedAt:    now,
		PhotoFileID: key,
		CreatedAt:   now,
	}
	if err := s.intakes.Create(ctx, record); err != nil {
		if delErr := s.photos.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			logging.FromContext(ctx).Warn("remove orphaned photo failed",
				slog.String("key", key), slog.Any("error", delErr))
		}
		return models.WaterIntake{}, apperr.Internal(op, err)
	}

	logging.FromContext(ctx).Info("intake logged",
		slog.String("user_id", id.UserID), slog.Int("amount", record.Amount))
	return record, nil
}

// TodayIntake lists the caller's drinks for the current day.
func (s *Service) TodayIntake(ctx context.Context, id auth.Identity) (DayIntakes, error) {
	if err := id.Validate("today intake"); err != nil {
		return DayIntakes{}, err
	}
	return s.day(ctx, id.UserID, s.clock.Today())
}

// IntakeByDate lists the caller's drinks for a YYYY-MM-DD day.
func (s *Service) IntakeByDate(ctx context.Context, id auth.Identity, date string) (DayIntakes, error) {
	const op = "intake by date"
	if err := id.Validate(op); err != nil {
		return DayIntakes{}, err
	}
	day, err := s.clock.ParseDay(date)
	if err != nil {
		return DayIntakes{}, apperr.New(apperr.KindInvalidOperation, op, "date must use the YYYY-MM-DD format")
	}
	return s.day(ctx, id.UserID, day)
}

func (s *Service) day(ctx context.Context, userID string, day time.Time) (DayIntakes, error) {
	records, err := s.intakes.List(ctx, models.IntakeQuery{
		UserID: userID,
		From:   day,
		To:     calendar.NextDay(day),
		Newest: true,
	})
	if err != nil {
		return DayIntakes{}, apperr.Internal("list intake", err)
	}

	out := DayIntakes{
		Date:    s.clock.DayKey(day),
		Intakes: s.withPhotoURLs(ctx, records),
		Count:   len(records),
	}
	for _, r := range records {
		out.TotalAmount += r.Amount
	}
	return out, nil
}

// History returns up to 500 of the caller's newest records inside the optional
// [start, end) range of YYYY-MM-DD days, grouped by day.
func (s *Service) History(ctx context.Context, id auth.Identity, start, end string) (History, error) {
	const op = "intake history"
	if err := id.Validate(op); err != nil {
		return History{}, err
	}

	q := models.IntakeQuery{UserID: id.UserID, Newest: true, Limit: historyLimit}
	if start != "" {
		from, err := s.clock.ParseDay(start)
		if err != nil {
			return History{}, apperr.New(apperr.KindInvalidOperation, op, "start must use the YYYY-MM-DD format")
		}
		q.From = from
	}
	if end != "" {
		to, err := s.clock.ParseDay(end)
		if err != nil {
			return History{}, apperr.New(apperr.KindInvalidOperation, op, "end must use the YYYY-MM-DD format")
		}
		q.To = to
	}
	if !q.From.IsZero() && !q.To.IsZero() && !q.From.Before(q.To) {
		return History{}, apperr.New(apperr.KindInvalidOperation, op, "start must be before end")
	}

	records, err := s.intakes.List(ctx, q)
	if err != nil {
		return History{}, apperr.Internal(op, err)
	}
	if records == nil {
		records = []models.WaterIntake{}
	}

	byDate := make(map[string]DayGroup)
	for _, r := range records {
		key := s.clock.DayKey(r.LoggedAt)
		g := byDate[key]
		g.Total += r.Amount
		g.Count++
		g.Entries = append(g.Entries, r)
		byDate[key] = g
	}

	return History{Intakes: records, Total: len(records), ByDate: byDate}, nil
}

// UpdateIntake corrects the amount or unit of one of the caller's records.
func (s *Service) UpdateIntake(ctx context.Context, id auth.Identity, in UpdateIntakeInput) (models.WaterIntake, error) {
	const op = "update intake"
	record, err := s.owned(ctx, id, op, in.ID)
	if err != nil {
		return models.WaterIntake{}, err
	}

	if in.Amount != nil {
		if err := validateAmount(op, *in.Amount); err != nil {
			return models.WaterIntake{}, err
		}
		record.Amount = *in.Amount
	}
	if in.Unit != nil {
		unit, err := normalizeUnit(op, *in.Unit)
		if err != nil {
			return models.WaterIntake{}, err
		}
		record.Unit = unit
	}

	if err := s.intakes.Update(ctx, record); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.WaterIntake{}, apperr.New(apperr.KindNotFound, op, "intake not found")
		}
		return models.WaterIntake{}, apperr.Internal(op, err)
	}
	return record, nil
}

// DeleteIntake removes one of the caller's records and schedules deletion of
// its photo. Photo removal is best-effort.
func (s *Service) DeleteIntake(ctx context.Context, id auth.Identity, intakeID string) error {
	const op = "delete intake"
	record, err := s.owned(ctx, id, op, intakeID)
	if err != nil {
		return err
	}

	if err := s.intakes.Delete(ctx, record.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, op, "intake not found")
		}
		return apperr.Internal(op, err)
	}

	if record.PhotoFileID != "" {
		s.removePhoto(ctx, record.PhotoFileID)
	}
	return nil
}

func (s *Service) removePhoto(ctx context.Context, key string) {
	if s.cleaner != nil && s.cleaner.Enqueue(key) {
		return
	}
	if err := s.photos.Delete(ctx, key); err != nil {
		logging.FromContext(ctx).Warn("delete photo failed", slog.String("key", key), slog.Any("error", err))
	}
}

func (s *Service) owned(ctx context.Context, id auth.Identity, op, intakeID string) (models.WaterIntake, error) {
	if err := id.Validate(op); err != nil {
		return models.WaterIntake{}, err
	}
	record, err := s.intakes.Get(ctx, intakeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.WaterIntake{}, apperr.New(apperr.KindNotFound, op, "intake not found")
		}
		return models.WaterIntake{}, apperr.Internal(op, err)
	}
	if record.UserID != id.UserID {
		return models.WaterIntake{}, apperr.New(apperr.KindUnauthorized, op, "intake belongs to another user")
	}
	return record, nil
}

// DailySummary reports today's total against the caller's goal.
func (s *Service) DailySummary(ctx context.Context, id auth.Identity) (Summary, error) {
	const op = "daily summary"
	if err := id.Validate(op); err != nil {
		return Summary{}, err
	}

	settings, _, err := s.GetSettings(ctx, id)
	if err != nil {
		return Summary{}, err
	}

	today := s.clock.Today()
	records, err := s.intakes.List(ctx, models.IntakeQuery{UserID: id.UserID, From: today, To: calendar.NextDay(today)})
	if err != nil {
		return Summary{}, apperr.Internal(op, err)
	}

	total := 0
	for _, r := range records {
		total += r.Amount
	}
	return Summary{
		TotalIntake:  total,
		DailyGoal:    settings.DailyGoal,
		Percentage:   models.GoalPercentage(total, settings.DailyGoal),
		EntriesCount: len(records),
		Unit:         settings.GoalUnit,
	}, nil
}

func (s *Service) withPhotoURLs(ctx context.Context, records []models.WaterIntake) []Intake {
	out := make([]Intake, len(records))

	var g errgroup.Group
	g.SetLimit(photoFanout)
	for i, r := range records {
		out[i] = Intake{WaterIntake: r}
		if r.PhotoFileID == "" {
			continue
		}
		g.Go(func() error {
			url, err := s.photos.URL(ctx, r.PhotoFileID)
			if err != nil {
				logging.FromContext(ctx).Warn("resolve photo url failed",
					slog.String("intake_id", r.ID), slog.Any("error", err))
				return nil
			}
			out[i].PhotoURL = url
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(out, func(i, j int) bool { return out[i].LoggedAt.After(out[j].LoggedAt) })
	return out
}

func validateAmount(op string, amount int) error {
	if amount < MinAmount || amount > MaxAmount {
		return apperr.Newf(apperr.KindInvalidOperation, op, "amount must be between %d and %d", MinAmount, MaxAmount)
	}
	return nil
}

func normalizeUnit(op, unit string) (string, error) {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return models.DefaultUnit, nil
	}
	if len(unit) > maxUnitLen {
		return "", apperr.New(apperr.KindInvalidOperation, op, "unit is too long")
	}
	return unit, nil
}

func decodeImage(encoded string) ([]byte, error) {
	body, err := base64.StdEncoding.DecodeString(dataURLPrefix.ReplaceAllString(strings.TrimSpace(encoded), ""))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.New("empty image")
	}
	return body, nil
}
