package social

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sipstreak/backend/internal/apperr"
	"github.com/sipstreak/backend/internal/auth"
	"github.com/sipstreak/backend/internal/logging"
	"github.com/sipstreak/backend/internal/models"
	"github.com/sipstreak/backend/internal/repositories"
)

const (
	maxDisplayNameLength = 50
	unknownDisplayName   = "Unknown"
)

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// Profile is a stored profile enriched with a resolvable avatar URL.
type Profile struct {
	models.UserProfile
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// UpdateProfileInput carries the mutable profile fields.
type UpdateProfileInput struct {
	DisplayName string `json:"displayName"`
	// AvatarBase64 is an optional image, raw base64 or a data URL.
	AvatarBase64 string `json:"avatarBase64,omitempty"`
}

// GetOrCreateProfile returns the caller's profile, creating it with a fresh
// friend code on first use.
func (s *Service) GetOrCreateProfile(ctx context.Context, id auth.Identity) (Profile, error) {
	const op = "get profile"
	if err := id.Validate(op); err != nil {
		return Profile{}, err
	}

	existing, err := s.profiles.FindByUserID(ctx, id.UserID)
	if err == nil {
		return s.enrich(ctx, existing), nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return Profile{}, apperr.Internal(op, err)
	}

	now := s.clock.Now().UTC()
	profile := models.UserProfile{
		ID:          uuid.NewString(),
		UserID:      id.UserID,
		DisplayName: s.defaultDisplayName(id),
		Email:       id.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for attempt := 0; attempt < maxFriendCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return Profile{}, apperr.Internal(op, err)
		}

		if _, err := s.profiles.FindByFriendCode(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return Profile{}, apperr.Internal(op, err)
		}

		profile.FriendCode = code
		err = s.profiles.Create(ctx, profile)
		if err == nil {
			logging.FromContext(ctx).Info("profile created", slog.String("user_id", id.UserID))
			return s.enrich(ctx, profile), nil
		}
		if !errors.Is(err, repositories.ErrConflict) {
			return Profile{}, apperr.Internal(op, err)
		}

		// Either a concurrent request created the profile or the code was taken.
		raced, findErr := s.profiles.FindByUserID(ctx, id.UserID)
		if findErr == nil {
			return s.enrich(ctx, raced), nil
		}
		if !errors.Is(findErr, repositories.ErrNotFound) {
			return Profile{}, apperr.Internal(op, findErr)
		}
	}

	return Profile{}, apperr.Newf(apperr.KindResourceExhausted, op,
		"could not allocate a unique friend code after %d attempts", maxFriendCodeAttempts)
}

// UpdateProfile renames the caller and optionally replaces their avatar.
func (s *Service) UpdateProfile(ctx context.Context, id auth.Identity, in UpdateProfileInput) (Profile, error) {
	const op = "update profile"
	if err := id.Validate(op); err != nil {
		return Profile{}, err
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(in.DisplayName))
	if name == "" || utf8.RuneCountInString(name) > maxDisplayNameLength {
		return Profile{}, apperr.Newf(apperr.KindInvalidOperation, op,
			"display name must be between 1 and %d characters", maxDisplayNameLength)
	}

	profile, err := s.profiles.FindByUserID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Profile{}, apperr.New(apperr.KindNotFound, op, "profile not found")
		}
		return Profile{}, apperr.Internal(op, err)
	}

	oldAvatar := profile.AvatarFileID
	if in.AvatarBase64 != "" {
		key, err := s.uploadAvatar(ctx, id.UserID, in.AvatarBase64)
		if err != nil {
			return Profile{}, err
		}
		profile.AvatarFileID = key
	}

	profile.DisplayName = name
	profile.UpdatedAt = s.clock.Now().UTC()
	if err := s.profiles.Update(ctx, profile); err != nil {
		return Profile{}, apperr.Internal(op, err)
	}
	s.directory.Invalidate(id.UserID)

	if oldAvatar != "" && oldAvatar != profile.AvatarFileID {
		if err := s.avatars.Delete(ctx, oldAvatar); err != nil {
			logging.FromContext(ctx).Warn("delete previous avatar failed",
				slog.String("key", oldAvatar), slog.Any("error", err))
		}
	}

	return s.enrich(ctx, profile), nil
}

func (s *Service) uploadAvatar(ctx context.Context, userID, encoded string) (string, error) {
	const op = "upload avatar"
	if s.avatars == nil {
		return "", apperr.New(apperr.KindInternal, op, "avatar storage is not configured")
	}

	body, err := base64.StdEncoding.DecodeString(dataURLPrefix.ReplaceAllString(strings.TrimSpace(encoded), ""))
	if err != nil || len(body) == 0 {
		return "", apperr.New(apperr.KindInvalidOperation, op, "avatar must be base64 encoded image data")
	}

	key := fmt.Sprintf("avatars/%s/%s.jpg", userID, uuid.NewString())
	if err := s.avatars.Put(ctx, key, "image/jpeg", body); err != nil {
		return "", apperr.Internal(op, err)
	}
	return key, nil
}

func (s *Service) defaultDisplayName(id auth.Identity) string {
	name := strings.TrimSpace(s.sanitizer.Sanitize(id.Name))
	if name == "" {
		name, _, _ = strings.Cut(id.Email, "@")
		name = strings.TrimSpace(s.sanitizer.Sanitize(name))
	}
	if name == "" {
		name = unknownDisplayName
	}
	if utf8.RuneCountInString(name) > maxDisplayNameLength {
		name = string([]rune(name)[:maxDisplayNameLength])
	}
	return name
}

// enrich resolves the avatar URL. Storage failures leave the URL empty.
func (s *Service) enrich(ctx context.Context, p models.UserProfile) Profile {
	out := Profile{UserProfile: p}
	if p.AvatarFileID == "" || s.avatars == nil {
		return out
	}
	url, err := s.avatars.URL(ctx, p.AvatarFileID)
	if err != nil {
		logging.FromContext(ctx).Warn("resolve avatar url failed",
			slog.String("user_id", p.UserID), slog.Any("error", err))
		return out
	}
	out.AvatarURL = url
	return out
}

func (s *Service) loadProfile(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	enriched := s.enrich(ctx, p)
	return &enriched, nil
}

// lookupProfile returns the user's enriched profile or nil. Failures are
// logged and reported as a missing profile.
func (s *Service) lookupProfile(ctx context.Context, userID string) *Profile {
	p, err := s.directory.Lookup(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Warn("resolve profile failed",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil
	}
	return p
}

// displayOf returns the name and avatar shown for a possibly missing profile.
func displayOf(p *Profile) (string, string) {
	if p == nil || p.DisplayName == "" {
		return unknownDisplayName, ""
	}
	return p.DisplayName, p.AvatarURL
}
