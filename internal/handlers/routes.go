package handlers

import (
	"net/http"

	"github.com/sipstreak/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users     UserStore
	Sessions  SessionManager
	Tokens    TokenVerifier
	Social    SocialService
	Hydration HydrationService
	// Limiter guards the auth and add-friend endpoints. Nil disables limiting.
	Limiter RateLimiter
	// Metrics instruments every route. Nil disables instrumentation.
	Metrics *middleware.Metrics
	Health  HealthHandler
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.Limiter}
	social := SocialHandler{Social: deps.Social, Limiter: deps.Limiter}
	hydration := HydrationHandler{Hydration: deps.Hydration}
	authenticate := middleware.Authenticate(deps.Tokens)

	public := func(route string, h http.HandlerFunc) {
		mux.Handle(route, deps.Metrics.Instrument(route, h))
	}
	protected := func(route string, h http.HandlerFunc) {
		mux.Handle(route, deps.Metrics.Instrument(route, authenticate(h)))
	}

	public("/healthz", deps.Health.Handle)
	public("/api/v1/auth/login", auth.Login)
	public("/api/v1/auth/signup", auth.SignUp)
	public("/api/v1/auth/refresh", auth.Refresh)
	public("/api/v1/auth/logout", auth.Logout)
	protected("/api/v1/auth/me", auth.Me)

	protected("/api/v1/profile", social.Profile)
	protected("/api/v1/friends", social.Friends)
	protected("/api/v1/friends/requests", social.Requests)
	protected("/api/v1/friends/requests/respond", social.Respond)
	protected("/api/v1/friends/remove", social.Remove)
	protected("/api/v1/friends/activity", social.Activity)
	protected("/api/v1/leaderboard", social.Leaderboard)

	protected("/api/v1/intakes", hydration.Log)
	protected("/api/v1/intakes/today", hydration.Today)
	protected("/api/v1/intakes/date", hydration.ByDate)
	protected("/api/v1/intakes/history", hydration.History)
	protected("/api/v1/intakes/update", hydration.Update)
	protected("/api/v1/intakes/delete", hydration.Delete)
	protected("/api/v1/settings", hydration.Settings)
	protected("/api/v1/notifications/register", hydration.RegisterNotifications)
	protected("/api/v1/summary", hydration.Summary)
	protected("/api/v1/reminders/next", hydration.NextReminder)
}
