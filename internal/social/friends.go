package social

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sipstreak/backend/internal/apperr"
	"github.com/sipstreak/backend/internal/auth"
	"github.com/sipstreak/backend/internal/logging"
	"github.com/sipstreak/backend/internal/models"
	"github.com/sipstreak/backend/internal/repositories"
)

// Outcomes reported by AddFriend and RespondToRequest.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

// FriendRequest is an incoming pending edge with the requester's profile.
type FriendRequest struct {
	models.Friendship
	Requester *Profile `json:"requesterProfile"`
}

// Friend is an accepted outgoing edge with the friend's profile.
type Friend struct {
	models.Friendship
	Profile *Profile `json:"profile"`
}

// AddFriend sends a friend request to the owner of code. When the owner has
// already asked the caller, the pending request is accepted instead.
func (s *Service) AddFriend(ctx context.Context, id auth.Identity, code string) (string, error) {
	const op = "add friend"
	if err := id.Validate(op); err != nil {
		return "", err
	}

	normalized, ok := normalizeFriendCode(code)
	if !ok {
		return "", apperr.Newf(apperr.KindInvalidOperation, op,
			"friend code must be between %d and %d characters", FriendCodeLength, maxFriendCodeInput)
	}

	target, err := s.profiles.FindByFriendCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperr.New(apperr.KindNotFound, op, "friend code not found")
		}
		return "", apperr.Internal(op, err)
	}

	if target.UserID == id.UserID {
		return "", apperr.New(apperr.KindInvalidOperation, op, "you can't add yourself as a friend")
	}

	if _, err := s.friendships.FindEdge(ctx, id.UserID, target.UserID); err == nil {
		return "", apperr.New(apperr.KindConflict, op, "friend request already sent or already friends")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return "", apperr.Internal(op, err)
	}

	reverse, err := s.friendships.FindEdge(ctx, target.UserID, id.UserID)
	switch {
	case err == nil:
		if reverse.Status == models.FriendshipAccepted {
			return "", apperr.New(apperr.KindConflict, op, "already friends")
		}
		if err := s.linkAccepted(ctx, reverse, target.DisplayName, target.Email); err != nil {
			return "", err
		}
		return StatusAccepted, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return "", apperr.Internal(op, err)
	}

	now := s.clock.Now().UTC()
	request := models.Friendship{
		ID:           uuid.NewString(),
		UserID:       id.UserID,
		FriendUserID: target.UserID,
		Status:       models.FriendshipPending,
		FriendName:   target.DisplayName,
		FriendEmail:  target.Email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.friendships.Create(ctx, request); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return "", apperr.New(apperr.KindConflict, op, "friend request already sent or already friends")
		}
		return "", apperr.Internal(op, err)
	}

	logging.FromContext(ctx).Info("friend request sent",
		slog.String("user_id", id.UserID), slog.String("target_user_id", target.UserID))
	return StatusPending, nil
}

// RespondToRequest accepts or declines a pending request addressed to the caller.
func (s *Service) RespondToRequest(ctx context.Context, id auth.Identity, friendshipID string, accept bool) (string, error) {
	const op = "respond to friend request"
	if err := id.Validate(op); err != nil {
		return "", err
	}

	request, err := s.friendships.Get(ctx, friendshipID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperr.New(apperr.KindNotFound, op, "friend request not found")
		}
		return "", apperr.Internal(op, err)
	}
	if request.FriendUserID != id.UserID {
		return "", apperr.New(apperr.KindUnauthorized, op, "friend request is not addressed to you")
	}
	if request.Status != models.FriendshipPending {
		return "", apperr.New(apperr.KindConflict, op, "friend request already processed")
	}

	if !accept {
		if err := s.friendships.Delete(ctx, request.ID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return "", apperr.New(apperr.KindConflict, op, "friend request already processed")
			}
			return "", apperr.Internal(op, err)
		}
		return StatusDeclined, nil
	}

	var requesterName, requesterEmail string
	if p := s.lookupProfile(ctx, request.UserID); p != nil {
		requesterName, requesterEmail = p.DisplayName, p.Email
	}
	if err := s.linkAccepted(ctx, request, requesterName, requesterEmail); err != nil {
		return "", err
	}
	return StatusAccepted, nil
}

// RemoveFriend deletes an edge owned by the caller together with its mirror.
func (s *Service) RemoveFriend(ctx context.Context, id auth.Identity, friendshipID string) error {
	const op = "remove friend"
	if err := id.Validate(op); err != nil {
		return err
	}

	edge, err := s.friendships.Get(ctx, friendshipID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, op, "friendship not found")
		}
		return apperr.Internal(op, err)
	}
	if edge.UserID != id.UserID {
		return apperr.New(apperr.KindUnauthorized, op, "friendship is not yours to remove")
	}

	if err := s.friendships.Delete(ctx, edge.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, op, "friendship not found")
		}
		return apperr.Internal(op, err)
	}

	reverse, err := s.friendships.FindEdge(ctx, edge.FriendUserID, edge.UserID)
	switch {
	case err == nil:
		if err := s.friendships.Delete(ctx, reverse.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return apperr.Internal(op, err)
		}
	case !errors.Is(err, repositories.ErrNotFound):
		return apperr.Internal(op, err)
	}
	return nil
}

// ListFriendRequests returns pending requests addressed to the caller, newest first.
func (s *Service) ListFriendRequests(ctx context.Context, id auth.Identity) ([]FriendRequest, error) {
	const op = "list friend requests"
	if err := id.Validate(op); err != nil {
		return nil, err
	}

	edges, err := s.friendships.ListByTarget(ctx, id.UserID, models.FriendshipPending)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	ids := make([]string, len(edges))
	for i, edge := range edges {
		ids[i] = edge.UserID
	}
	profiles := s.resolveProfiles(ctx, ids)

	out := make([]FriendRequest, len(edges))
	for i, edge := range edges {
		out[i] = FriendRequest{Friendship: edge, Requester: profiles[i]}
	}
	return out, nil
}

// ListFriends returns the caller's accepted friends.
func (s *Service) ListFriends(ctx context.Context, id auth.Identity) ([]Friend, error) {
	const op = "list friends"
	if err := id.Validate(op); err != nil {
		return nil, err
	}

	edges, err := s.friendships.ListByOwner(ctx, id.UserID, models.FriendshipAccepted)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	ids := make([]string, len(edges))
	for i, edge := range edges {
		ids[i] = edge.FriendUserID
	}
	profiles := s.resolveProfiles(ctx, ids)

	out := make([]Friend, len(edges))
	for i, edge := range edges {
		out[i] = Friend{Friendship: edge, Profile: profiles[i]}
	}
	return out, nil
}

// linkAccepted turns edge into one half of an accepted pair and makes sure the
// mirrored half exists. The first write marks edge accepted; the second
// creates the mirror and treats an existing mirror as done, upgrading it when
// it is still pending. The second write is retried, and if it keeps failing
// the first is rolled back so the request can be answered again.
func (s *Service) linkAccepted(ctx context.Context, edge models.Friendship, mirrorName, mirrorEmail string) error {
	const op = "accept friendship"

	if edge.Status != models.FriendshipAccepted {
		if err := s.friendships.UpdateStatus(ctx, edge.ID, models.FriendshipAccepted); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.New(apperr.KindNotFound, op, "friend request not found")
			}
			return apperr.Internal(op, err)
		}
	}

	now := s.clock.Now().UTC()
	mirror := models.Friendship{
		ID:           uuid.NewString(),
		UserID:       edge.FriendUserID,
		FriendUserID: edge.UserID,
		Status:       models.FriendshipAccepted,
		FriendName:   mirrorName,
		FriendEmail:  mirrorEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ensureMirror := func() error {
		err := s.friendships.Create(ctx, mirror)
		if err == nil || !errors.Is(err, repositories.ErrConflict) {
			return err
		}
		existing, err := s.friendships.FindEdge(ctx, mirror.UserID, mirror.FriendUserID)
		if err != nil {
			return err
		}
		if existing.Status == models.FriendshipAccepted {
			return nil
		}
		return s.friendships.UpdateStatus(ctx, existing.ID, models.FriendshipAccepted)
	}

	err := backoff.Retry(ensureMirror, backoff.WithContext(s.newBackOff(), ctx))
	if err == nil {
		logging.FromContext(ctx).Info("friendship accepted",
			slog.String("user_id", edge.FriendUserID), slog.String("friend_user_id", edge.UserID))
		return nil
	}

	if edge.Status != models.FriendshipAccepted {
		if rbErr := s.friendships.UpdateStatus(context.WithoutCancel(ctx), edge.ID, models.FriendshipPending); rbErr != nil {
			logging.FromContext(ctx).Error("roll back friendship acceptance failed",
				slog.String("friendship_id", edge.ID), slog.Any("error", rbErr))
		}
	}
	return apperr.Internal(op, err)
}

// resolveProfiles looks up profiles for userIDs concurrently. The result is
// index-aligned with userIDs; unresolvable entries are nil.
func (s *Service) resolveProfiles(ctx context.Context, userIDs []string) []*Profile {
	out := make([]*Profile, len(userIDs))

	var g errgroup.Group
	g.SetLimit(s.fanoutLimit)
	for i, userID := range userIDs {
		g.Go(func() error {
			out[i] = s.lookupProfile(ctx, userID)
			return nil
		})
	}
	_ = g.Wait()

	return out
}
