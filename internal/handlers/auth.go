package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sipstreak/backend/internal/auth"
	"github.com/sipstreak/backend/internal/logging"
	"github.com/sipstreak/backend/internal/models"
	"github.com/sipstreak/backend/internal/repositories"
)

const (
	minPasswordLength = 8
	maxNameLength     = 50
	authScope         = "auth"
)

const accountExistsMessage = "account already exists"

// AuthHandler implements account creation and session endpoints.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// normalize lowercases the email and reports the first missing field.
func (c *credentials) normalize() string {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Email == "" || c.Password == "" {
		return "email and password are required"
	}
	return ""
}

type loginRequest = credentials

type signUpRequest struct {
	credentials
	Name string `json:"name"`
}

func (r *signUpRequest) validate() string {
	if msg := r.normalize(); msg != "" {
		return msg
	}
	r.Name = strings.TrimSpace(r.Name)
	switch {
	case !validEmail(r.Email):
		return "invalid email address"
	case len(r.Password) < minPasswordLength:
		return fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	case utf8.RuneCountInString(r.Name) > maxNameLength:
		return fmt.Sprintf("name must be at most %d characters", maxNameLength)
	}
	return ""
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	Tokens models.SessionTokens `json:"tokens"`
}

type accountResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Login handles POST /api/v1/auth/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.admit(w, r, &req) {
		return
	}

	ctx := r.Context()
	if msg := req.normalize(); msg != "" {
		respondMessage(ctx, w, http.StatusBadRequest, msg)
		return
	}

	user, err := h.Users.FindByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondMessage(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	case err != nil:
		logging.FromContext(ctx).Error("login lookup failed", "email", req.Email, "error", err)
		respondMessage(ctx, w, http.StatusInternalServerError, "unable to sign in")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		logging.FromContext(ctx).Warn("login password mismatch", "user_id", user.ID)
		respondMessage(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.startSession(ctx, w, http.StatusOK, user)
}

// SignUp handles POST /api/v1/auth/signup. The account's display name seeds
// the social profile created on first use.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !h.admit(w, r, &req) {
		return
	}

	ctx := r.Context()
	if msg := req.validate(); msg != "" {
		respondMessage(ctx, w, http.StatusBadRequest, msg)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logging.FromContext(ctx).Error("hash password", "error", err)
		respondMessage(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Name:      req.Name,
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondMessage(ctx, w, http.StatusConflict, accountExistsMessage)
			return
		}
		logging.FromContext(ctx).Error("create account", "email", req.Email, "error", err)
		respondMessage(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	logging.FromContext(ctx).Info("account created", "user_id", user.ID)
	h.startSession(ctx, w, http.StatusCreated, user)
}

// Refresh rotates a refresh token into a new token pair.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	ctx := r.Context()
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		respondMessage(ctx, w, http.StatusBadRequest, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			status = http.StatusUnauthorized
		}
		logging.FromContext(ctx).Warn("refresh rejected", "status", status, "error", err)
		respondMessage(ctx, w, status, "unable to refresh session")
		return
	}
	respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens})
}

// Logout handles POST /api/v1/auth/logout by revoking the refresh token.
// Unknown tokens are accepted so the call is safe to repeat.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.Sessions.Revoke(r.Context(), strings.TrimSpace(req.RefreshToken))
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me for the authenticated caller.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx := r.Context()
	user, err := h.Users.FindByID(ctx, identity(r).UserID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondMessage(ctx, w, http.StatusUnauthorized, "account no longer exists")
		return
	case err != nil:
		logging.FromContext(ctx).Error("load account", "error", err)
		respondMessage(ctx, w, http.StatusInternalServerError, "unable to load account")
		return
	}

	respondJSON(ctx, w, http.StatusOK, accountResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	})
}

// admit applies the method check and rate limit shared by the credential
// endpoints, then decodes the body into dst.
func (h AuthHandler) admit(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return false
	}
	if !allowRequest(h.Limiter, r, authScope) {
		respondMessage(r.Context(), w, http.StatusTooManyRequests, "too many attempts, try again later")
		return false
	}
	return decodeJSON(w, r, dst)
}

func (h AuthHandler) startSession(ctx context.Context, w http.ResponseWriter, status int, user models.User) {
	tokens, err := h.Sessions.Issue(ctx, auth.Identity{UserID: user.ID, Email: user.Email, Name: user.Name})
	if err != nil {
		logging.FromContext(ctx).Error("issue session", "user_id", user.ID, "error", err)
		respondMessage(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}
	respondJSON(ctx, w, status, authResponse{Tokens: tokens})
}

func validEmail(address string) bool {
	parsed, err := mail.ParseAddress(address)
	return err == nil && parsed.Address == address
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
