package social

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sipstreak/backend/internal/apperr"
	"github.com/sipstreak/backend/internal/auth"
	"github.com/sipstreak/backend/internal/calendar"
	"github.com/sipstreak/backend/internal/logging"
	"github.com/sipstreak/backend/internal/models"
)

// ActivityType names the kind of event shown in the friend feed.
type ActivityType string

const (
	ActivityIntake      ActivityType = "intake"
	ActivityGoalReached ActivityType = "goal_reached"
	ActivityStreak      ActivityType = "streak"
)

const (
	feedLimit          = 20
	feedWindow         = 24 * time.Hour
	recentIntakesLimit = 5
	streakMilestone    = 7
)

// Activity is a single feed event about a friend.
type Activity struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	DisplayName string       `json:"displayName"`
	AvatarURL   string       `json:"avatarUrl,omitempty"`
	Type        ActivityType `json:"type"`
	Message     string       `json:"message"`
	Timestamp   time.Time    `json:"timestamp"`
	Amount      int          `json:"amount,omitempty"`
	Streak      int          `json:"streak,omitempty"`
}

// FriendActivity builds the caller's feed from their friends' recent drinks,
// goals reached today and weekly streak milestones, newest first.
func (s *Service) FriendActivity(ctx context.Context, id auth.Identity) ([]Activity, error) {
	const op = "friend activity"
	if err := id.Validate(op); err != nil {
		return nil, err
	}

	ctx, span := logging.StartSpan(ctx, "social.activity")
	defer span.End()

	friendIDs, err := s.acceptedFriendIDs(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if len(friendIDs) == 0 {
		return []Activity{}, nil
	}

	now := s.clock.Now()
	today := s.clock.Today()

	perFriend := make([][]Activity, len(friendIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanoutLimit)
	for i, friendID := range friendIDs {
		g.Go(func() error {
			events, err := s.friendEvents(gctx, friendID, now, today)
			if err != nil {
				return err
			}
			perFriend[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.Fail(err)
		return nil, err
	}

	var feed []Activity
	goals := make(map[string]struct{})
	for _, events := range perFriend {
		for _, event := range events {
			if event.Type == ActivityGoalReached {
				if _, dup := goals[event.ID]; dup {
					continue
				}
				goals[event.ID] = struct{}{}
			}
			feed = append(feed, event)
		}
	}

	sort.SliceStable(feed, func(i, j int) bool { return feed[i].Timestamp.After(feed[j].Timestamp) })
	if len(feed) > feedLimit {
		feed = feed[:feedLimit]
	}
	if feed == nil {
		feed = []Activity{}
	}
	return feed, nil
}

func (s *Service) friendEvents(ctx context.Context, friendID string, now, today time.Time) ([]Activity, error) {
	const op = "friend events"

	name, avatar := displayOf(s.lookupProfile(ctx, friendID))
	event := func(t ActivityType) Activity {
		return Activity{UserID: friendID, DisplayName: name, AvatarURL: avatar, Type: t}
	}

	var events []Activity

	recent, err := s.intakes.List(ctx, models.IntakeQuery{
		UserID: friendID,
		From:   now.Add(-feedWindow),
		Newest: true,
		Limit:  recentIntakesLimit,
	})
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	for _, in := range recent {
		e := event(ActivityIntake)
		e.ID = in.ID
		e.Message = fmt.Sprintf("drank %d%s of water", in.Amount, unitOrDefault(in.Unit))
		e.Timestamp = in.LoggedAt
		e.Amount = in.Amount
		events = append(events, e)
	}

	todays, err := s.intakes.List(ctx, models.IntakeQuery{UserID: friendID, From: today, To: calendar.NextDay(today)})
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	goal, unit, err := s.dailyGoal(ctx, friendID)
	if err != nil {
		return nil, err
	}
	if crossing, ok := goalCrossing(todays, goal); ok {
		e := event(ActivityGoalReached)
		e.ID = goalEventID(friendID, s.clock.DayKey(today))
		e.Message = fmt.Sprintf("reached their daily goal of %d%s!", goal, unit)
		e.Timestamp = crossing.LoggedAt
		events = append(events, e)
	}

	streak, err := s.Streak(ctx, friendID)
	if err != nil {
		return nil, err
	}
	if IsStreakMilestone(streak) {
		e := event(ActivityStreak)
		e.ID = fmt.Sprintf("streak-%s-%d", friendID, streak)
		e.Message = fmt.Sprintf("is on a %d-day hydration streak!", streak)
		e.Timestamp = now
		e.Streak = streak
		events = append(events, e)
	}

	return events, nil
}

// goalCrossing returns the record whose running total, in chronological
// order, first reaches goal.
func goalCrossing(records []models.WaterIntake, goal int) (models.WaterIntake, bool) {
	sorted := make([]models.WaterIntake, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].LoggedAt.Before(sorted[j].LoggedAt) })

	running := 0
	for _, in := range sorted {
		running += in.Amount
		if running >= goal {
			return in, true
		}
	}
	return models.WaterIntake{}, false
}

// goalEventID keys goal events by friend and calendar day.
func goalEventID(friendID, day string) string {
	return "goal-" + friendID + "-" + day
}

// IsStreakMilestone reports whether streak is a whole number of weeks.
func IsStreakMilestone(streak int) bool {
	return streak >= streakMilestone && streak%streakMilestone == 0
}

func unitOrDefault(unit string) string {
	if unit == "" {
		return models.DefaultUnit
	}
	return unit
}
