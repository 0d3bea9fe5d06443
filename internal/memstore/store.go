// Package memstore provides in-memory implementations of the repository
// contracts. They back the service tests and the --in-memory server mode.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sipstreak/backend/internal/models"
	"github.com/sipstreak/backend/internal/repositories"
)

// Users stores accounts keyed by identifier.
type Users struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewUsers constructs an empty user store.
func NewUsers() *Users {
	return &Users{users: make(map[string]models.User)}
}

func (s *Users) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return repositories.ErrConflict
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *Users) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

// Profiles stores user profiles and enforces unique owners and friend codes.
type Profiles struct {
	mu       sync.RWMutex
	profiles map[string]models.UserProfile // keyed by user id

	// FindHook, when set, runs before every lookup and may inject a failure.
	FindHook func(userID string) error
}

// NewProfiles constructs an empty profile store.
func NewProfiles() *Profiles {
	return &Profiles{profiles: make(map[string]models.UserProfile)}
}

func (s *Profiles) Create(_ context.Context, profile models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.UserID]; ok {
		return repositories.ErrConflict
	}
	for _, existing := range s.profiles {
		if existing.FriendCode == profile.FriendCode {
			return repositories.ErrConflict
		}
	}
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *Profiles) FindByUserID(_ context.Context, userID string) (models.UserProfile, error) {
	if s.FindHook != nil {
		if err := s.FindHook(userID); err != nil {
			return models.UserProfile{}, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return models.UserProfile{}, repositories.ErrNotFound
	}
	return profile, nil
}

func (s *Profiles) FindByFriendCode(_ context.Context, code string) (models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, profile := range s.profiles {
		if profile.FriendCode == code {
			return profile, nil
		}
	}
	return models.UserProfile{}, repositories.ErrNotFound
}

func (s *Profiles) Update(_ context.Context, profile models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[profile.UserID]
	if !ok || existing.ID != profile.ID {
		return repositories.ErrNotFound
	}
	existing.DisplayName = profile.DisplayName
	existing.AvatarFileID = profile.AvatarFileID
	existing.UpdatedAt = profile.UpdatedAt
	s.profiles[profile.UserID] = existing
	return nil
}

// Friendships stores directed friendship edges.
type Friendships struct {
	mu    sync.RWMutex
	edges map[string]models.Friendship
	seq   int64
	order map[string]int64

	// CreateHook, when set, runs before every insert and may inject a failure.
	CreateHook func(f models.Friendship) error
}

// NewFriendships constructs an empty edge store.
func NewFriendships() *Friendships {
	return &Friendships{edges: make(map[string]models.Friendship), order: make(map[string]int64)}
}

func (s *Friendships) Create(_ context.Context, f models.Friendship) error {
	if s.CreateHook != nil {
		if err := s.CreateHook(f); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.edges[f.ID]; ok {
		return repositories.ErrConflict
	}
	for _, existing := range s.edges {
		if existing.UserID == f.UserID && existing.FriendUserID == f.FriendUserID {
			return repositories.ErrConflict
		}
	}
	s.seq++
	s.edges[f.ID] = f
	s.order[f.ID] = s.seq
	return nil
}

func (s *Friendships) Get(_ context.Context, id string) (models.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.edges[id]
	if !ok {
		return models.Friendship{}, repositories.ErrNotFound
	}
	return f, nil
}

func (s *Friendships) FindEdge(_ context.Context, userID, friendUserID string) (models.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.edges {
		if f.UserID == userID && f.FriendUserID == friendUserID {
			return f, nil
		}
	}
	return models.Friendship{}, repositories.ErrNotFound
}

func (s *Friendships) UpdateStatus(_ context.Context, id string, status models.FriendshipStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.edges[id]
	if !ok {
		return repositories.ErrNotFound
	}
	f.Status = status
	f.UpdatedAt = time.Now().UTC()
	s.edges[id] = f
	return nil
}

func (s *Friendships) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.edges[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.edges, id)
	delete(s.order, id)
	return nil
}

// ListByOwner returns outgoing edges in insertion order.
func (s *Friendships) ListByOwner(_ context.Context, userID string, status models.FriendshipStatus) ([]models.Friendship, error) {
	out := s.filter(func(f models.Friendship) bool { return f.UserID == userID && f.Status == status })
	return out, nil
}

// ListByTarget returns incoming edges, newest first.
func (s *Friendships) ListByTarget(_ context.Context, friendUserID string, status models.FriendshipStatus) ([]models.Friendship, error) {
	out := s.filter(func(f models.Friendship) bool { return f.FriendUserID == friendUserID && f.Status == status })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Len reports how many edges are stored.
func (s *Friendships) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

func (s *Friendships) filter(keep func(models.Friendship) bool) []models.Friendship {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Friendship
	for _, f := range s.edges {
		if keep(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].ID] < s.order[out[j].ID] })
	return out
}

// Intakes stores water intake records.
type Intakes struct {
	mu      sync.RWMutex
	records map[string]models.WaterIntake

	// ListHook, when set, runs before every listing and may inject a failure.
	ListHook func(q models.IntakeQuery) error
	// CreateHook, when set, runs before every insert and may inject a failure.
	CreateHook func(in models.WaterIntake) error
}

// NewIntakes constructs an empty intake store.
func NewIntakes() *Intakes {
	return &Intakes{records: make(map[string]models.WaterIntake)}
}

func (s *Intakes) Create(_ context.Context, in models.WaterIntake) error {
	if s.CreateHook != nil {
		if err := s.CreateHook(in); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[in.ID]; ok {
		return repositories.ErrConflict
	}
	s.records[in.ID] = in
	return nil
}

func (s *Intakes) Get(_ context.Context, id string) (models.WaterIntake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in, ok := s.records[id]
	if !ok {
		return models.WaterIntake{}, repositories.ErrNotFound
	}
	return in, nil
}

func (s *Intakes) Update(_ context.Context, in models.WaterIntake) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[in.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	existing.Amount = in.Amount
	existing.Unit = in.Unit
	s.records[in.ID] = existing
	return nil
}

func (s *Intakes) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *Intakes) List(_ context.Context, q models.IntakeQuery) ([]models.WaterIntake, error) {
	if s.ListHook != nil {
		if err := s.ListHook(q); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	var out []models.WaterIntake
	for _, in := range s.records {
		if matches(in, q) {
			out = append(out, in)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LoggedAt.Equal(out[j].LoggedAt) {
			if q.Newest {
				return out[i].ID > out[j].ID
			}
			return out[i].ID < out[j].ID
		}
		if q.Newest {
			return out[i].LoggedAt.After(out[j].LoggedAt)
		}
		return out[i].LoggedAt.Before(out[j].LoggedAt)
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Intakes) Exists(_ context.Context, userID string, from, to time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := models.IntakeQuery{UserID: userID, From: from, To: to}
	for _, in := range s.records {
		if matches(in, q) {
			return true, nil
		}
	}
	return false, nil
}

func matches(in models.WaterIntake, q models.IntakeQuery) bool {
	if q.UserID != "" && in.UserID != q.UserID {
		return false
	}
	if !q.From.IsZero() && in.LoggedAt.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && !in.LoggedAt.Before(q.To) {
		return false
	}
	return true
}

// Settings stores per-user settings.
type Settings struct {
	mu       sync.RWMutex
	settings map[string]models.UserSettings
}

// NewSettings constructs an empty settings store.
func NewSettings() *Settings {
	return &Settings{settings: make(map[string]models.UserSettings)}
}

func (s *Settings) FindByUserID(_ context.Context, userID string) (models.UserSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, ok := s.settings[userID]
	if !ok {
		return models.UserSettings{}, repositories.ErrNotFound
	}
	return settings, nil
}

func (s *Settings) Upsert(_ context.Context, settings models.UserSettings) (models.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.settings[settings.UserID]; ok {
		settings.ID = existing.ID
	}
	s.settings[settings.UserID] = settings
	return settings, nil
}

var (
	_ repositories.UserRepository       = (*Users)(nil)
	_ repositories.ProfileRepository    = (*Profiles)(nil)
	_ repositories.FriendshipRepository = (*Friendships)(nil)
	_ repositories.IntakeRepository     = (*Intakes)(nil)
	_ repositories.SettingsRepository   = (*Settings)(nil)
)
