package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/sipstreak/backend/internal/hydration"
	"github.com/sipstreak/backend/internal/models"
)

// HydrationHandler exposes the caller's intake log, settings and reminders.
type HydrationHandler struct {
	Hydration HydrationService
}

// Log handles POST /api/v1/intakes.
func (h HydrationHandler) Log(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	ctx := r.Context()
	var req hydration.LogIntakeInput
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := h.Hydration.LogIntake(ctx, identity(r), req)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, record)
}

// Today handles GET /api/v1/intakes/today.
func (h HydrationHandler) Today(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx := r.Context()
	day, err := h.Hydration.TodayIntake(ctx, identity(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, day)
}

// ByDate handles GET /api/v1/intakes/date?date=YYYY-MM-DD.
func (h HydrationHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx := r.Context()
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		respondMessage(ctx, w, http.StatusBadRequest, "date is required")
		return
	}

	day, err := h.Hydration.IntakeByDate(ctx, identity(r), date)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, day)
}

// History handles GET /api/v1/intakes/history?start=&end=.
func (h HydrationHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx := r.Context()
	q := r.URL.Query()
	history, err := h.Hydration.History(ctx, identity(r), strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end")))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, history)
}

// Update handles PATCH /api/v1/intakes/update.
func (h HydrationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, http.MethodPatch)
		return
	}

	ctx := r.Context()
	var req hydration.UpdateIntakeInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		respondMessage(ctx, w, http.StatusBadRequest, "id is required")
		return
	}

	record, err := h.Hydration.UpdateIntake(ctx, identity(r), req)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, record)
}

// Delete handles POST /api/v1/intakes/delete.
func (h HydrationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	ctx := r.Context()
	var req deleteIntakeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		respondMessage(ctx, w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.Hydration.DeleteIntake(ctx, identity(r), req.ID); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, statusResponse{Success: true})
}

// Settings handles GET and PUT /api/v1/settings.
func (h HydrationHandler) Settings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		settings, saved, err := h.Hydration.GetSettings(ctx, identity(r))
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		respondJSON(ctx, w, http.StatusOK, settingsResponse{Settings: settings, IsDefault: !saved})
	case http.MethodPut:
		var req models.UserSettings
		if !decodeJSON(w, r, &req) {
			return
		}
		settings, err := h.Hydration.SaveSettings(ctx, identity(r), req)
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		respondJSON(ctx, w, http.StatusOK, settingsResponse{Settings: settings})
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

// RegisterNotifications handles POST /api/v1/notifications/register.
func (h HydrationHandler) RegisterNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	ctx := r.Context()
	settings, err := h.Hydration.RegisterForNotifications(ctx, identity(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, settingsResponse{Settings: settings})
}

// Summary handles GET /api/v1/summary.
func (h HydrationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx := r.Context()
	summary, err := h.Hydration.DailySummary(ctx, identity(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, summary)
}

// NextReminder handles GET /api/v1/reminders/next?last=RFC3339.
func (h HydrationHandler) NextReminder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx := r.Context()
	var last time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("last")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondMessage(ctx, w, http.StatusBadRequest, "last must be an RFC 3339 timestamp")
			return
		}
		last = parsed
	}

	reminder, err := h.Hydration.ReminderStatus(ctx, identity(r), last)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, reminder)
}

type deleteIntakeRequest struct {
	ID string `json:"id"`
}

type settingsResponse struct {
	Settings  models.UserSettings `json:"settings"`
	IsDefault bool                `json:"isDefault"`
}
