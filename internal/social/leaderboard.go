package social

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sipstreak/backend/internal/apperr"
	"github.com/sipstreak/backend/internal/auth"
	"github.com/sipstreak/backend/internal/calendar"
	"github.com/sipstreak/backend/internal/logging"
	"github.com/sipstreak/backend/internal/models"
)

// LeaderboardEntry holds one user's totals across the ranking periods.
type LeaderboardEntry struct {
	UserID          string `json:"userId"`
	IsMe            bool   `json:"isMe"`
	DisplayName     string `json:"displayName"`
	AvatarURL       string `json:"avatarUrl,omitempty"`
	DailyTotal      int    `json:"dailyTotal"`
	WeeklyTotal     int    `json:"weeklyTotal"`
	AllTimeTotal    int    `json:"allTimeTotal"`
	DailyGoal       int    `json:"dailyGoal"`
	DailyPercentage int    `json:"dailyPercentage"`
	Streak          int    `json:"streak"`
	TotalDays       int    `json:"totalDays"`
	AvgDaily        int    `json:"avgDaily"`
}

// Leaderboard ranks the caller and their friends by each period's total.
type Leaderboard struct {
	Daily   []LeaderboardEntry `json:"daily"`
	Weekly  []LeaderboardEntry `json:"weekly"`
	AllTime []LeaderboardEntry `json:"allTime"`
}

type periods struct {
	today      time.Time
	tomorrow   time.Time
	weekStart  time.Time
	daysInWeek int
}

// Leaderboard computes the caller's leaderboard. Users with equal totals keep
// their relative order: the caller first, then friends in the order they were added.
func (s *Service) Leaderboard(ctx context.Context, id auth.Identity) (Leaderboard, error) {
	const op = "leaderboard"
	if err := id.Validate(op); err != nil {
		return Leaderboard{}, err
	}

	ctx, span := logging.StartSpan(ctx, "social.leaderboard")
	defer span.End()

	friendIDs, err := s.acceptedFriendIDs(ctx, id.UserID)
	if err != nil {
		return Leaderboard{}, err
	}
	userIDs := append([]string{id.UserID}, friendIDs...)

	today := s.clock.Today()
	tomorrow := calendar.NextDay(today)
	weekStart := calendar.WeekStart(today)
	p := periods{
		today:      today,
		tomorrow:   tomorrow,
		weekStart:  weekStart,
		daysInWeek: min(7, calendar.DaysBetween(weekStart, tomorrow)),
	}

	entries := make([]LeaderboardEntry, len(userIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanoutLimit)
	for i, userID := range userIDs {
		g.Go(func() error {
			entry, err := s.leaderboardEntry(gctx, userID, p)
			if err != nil {
				return err
			}
			entry.IsMe = userID == id.UserID
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.Fail(err)
		return Leaderboard{}, err
	}

	logging.FromContext(ctx).Debug("leaderboard computed", slog.Int("users", len(entries)))

	return Leaderboard{
		Daily:   rankBy(entries, func(e LeaderboardEntry) int { return e.DailyTotal }),
		Weekly:  rankBy(entries, func(e LeaderboardEntry) int { return e.WeeklyTotal }),
		AllTime: rankBy(entries, func(e LeaderboardEntry) int { return e.AllTimeTotal }),
	}, nil
}

func (s *Service) leaderboardEntry(ctx context.Context, userID string, p periods) (LeaderboardEntry, error) {
	const op = "leaderboard entry"

	week, err := s.intakes.List(ctx, models.IntakeQuery{UserID: userID, From: p.weekStart, To: p.tomorrow})
	if err != nil {
		return LeaderboardEntry{}, apperr.Internal(op, err)
	}

	var daily, weekly int
	for _, in := range week {
		weekly += in.Amount
		if !in.LoggedAt.Before(p.today) {
			daily += in.Amount
		}
	}

	history, err := s.intakes.List(ctx, models.IntakeQuery{UserID: userID, Newest: true, Limit: s.historyCap})
	if err != nil {
		return LeaderboardEntry{}, apperr.Internal(op, err)
	}
	var allTime int
	days := make(map[string]struct{})
	for _, in := range history {
		allTime += in.Amount
		days[s.clock.DayKey(in.LoggedAt)] = struct{}{}
	}

	goal, _, err := s.dailyGoal(ctx, userID)
	if err != nil {
		return LeaderboardEntry{}, err
	}

	streak, err := s.Streak(ctx, userID)
	if err != nil {
		return LeaderboardEntry{}, err
	}

	name, avatar := displayOf(s.lookupProfile(ctx, userID))

	avg := 0
	if p.daysInWeek > 0 {
		avg = int(math.Round(float64(weekly) / float64(p.daysInWeek)))
	}

	return LeaderboardEntry{
		UserID:          userID,
		DisplayName:     name,
		AvatarURL:       avatar,
		DailyTotal:      daily,
		WeeklyTotal:     weekly,
		AllTimeTotal:    allTime,
		DailyGoal:       goal,
		DailyPercentage: models.GoalPercentage(daily, goal),
		Streak:          streak,
		TotalDays:       len(days),
		AvgDaily:        avg,
	}, nil
}

func rankBy(entries []LeaderboardEntry, total func(LeaderboardEntry) int) []LeaderboardEntry {
	ranked := make([]LeaderboardEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool { return total(ranked[i]) > total(ranked[j]) })
	return ranked
}
