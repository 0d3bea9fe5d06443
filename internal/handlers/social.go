package handlers

import (
	"net/http"
	"strings"

	"github.com/sipstreak/backend/internal/social"
)

// SocialHandler exposes profiles, friends and the friend aggregates.
type SocialHandler struct {
	Social  SocialService
	Limiter RateLimiter
}

// Profile handles GET and PUT /api/v1/profile.
func (h SocialHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		profile, err := h.Social.GetOrCreateProfile(ctx, identity(r))
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		respondJSON(ctx, w, http.StatusOK, profile)
	case http.MethodPut:
		var req social.UpdateProfileInput
		if !decodeJSON(w, r, &req) {
			return
		}
		profile, err := h.Social.UpdateProfile(ctx, identity(r), req)
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		respondJSON(ctx, w, http.StatusOK, profile)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

// Friends handles GET /api/v1/friends (list) and POST /api/v1/friends (add by code).
func (h SocialHandler) Friends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		friends, err := h.Social.ListFriends(ctx, identity(r))
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		respondJSON(ctx, w, http.StatusOK, friendsResponse{Friends: friends})
	case http.MethodPost:
		if !allowRequest(h.Limiter, r, "add-friend") {
			respondMessage(ctx, w, http.StatusTooManyRequests, "too many friend requests, try again later")
			return
		}
		var req addFriendRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		status, err := h.Social.AddFriend(ctx, identity(r), req.FriendCode)
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		respondJSON(ctx, w, http.StatusOK, statusResponse{Success: true, Status: status})
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// Requests handles GET /api/v1/friends/requests.
func (h SocialHandler) Requests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx := r.Context()
	requests, err := h.Social.ListFriendRequests(ctx, identity(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, requestsResponse{Requests: requests})
}

// Respond handles POST /api/v1/friends/requests/respond.
func (h SocialHandler) Respond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	ctx := r.Context()
	var req respondRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FriendshipID) == "" || req.Accept == nil {
		respondMessage(ctx, w, http.StatusBadRequest, "friendshipId and accept are required")
		return
	}

	status, err := h.Social.RespondToRequest(ctx, identity(r), req.FriendshipID, *req.Accept)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, statusResponse{Success: true, Status: status})
}

// Remove handles POST /api/v1/friends/remove.
func (h SocialHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	ctx := r.Context()
	var req removeFriendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FriendshipID) == "" {
		respondMessage(ctx, w, http.StatusBadRequest, "friendshipId is required")
		return
	}

	if err := h.Social.RemoveFriend(ctx, identity(r), req.FriendshipID); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, statusResponse{Success: true})
}

// Leaderboard handles GET /api/v1/leaderboard.
func (h SocialHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx := r.Context()
	board, err := h.Social.Leaderboard(ctx, identity(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, board)
}

// Activity handles GET /api/v1/friends/activity.
func (h SocialHandler) Activity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx := r.Context()
	feed, err := h.Social.FriendActivity(ctx, identity(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, activityResponse{Activities: feed})
}

type addFriendRequest struct {
	FriendCode string `json:"friendCode"`
}

type respondRequest struct {
	FriendshipID string `json:"friendshipId"`
	Accept       *bool  `json:"accept"`
}

type removeFriendRequest struct {
	FriendshipID string `json:"friendshipId"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
}

type friendsResponse struct {
	Friends []social.Friend `json:"friends"`
}

type requestsResponse struct {
	Requests []social.FriendRequest `json:"requests"`
}

type activityResponse struct {
	Activities []social.Activity `json:"activities"`
}
