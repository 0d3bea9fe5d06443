package social

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sipstreak/backend/internal/models"
)

func TestStreak(t *testing.T) {
	cases := []struct {
		name    string
		daysAgo []int
		want    int
	}{
		{"todayAndTwoBefore", []int{0, 1, 2}, 3},
		{"todayEmpty", []int{1, 2}, 2},
		{"gapEndsStreak", []int{0, 2, 3}, 1},
		{"gapBeforeYesterday", []int{2, 3}, 0},
		{"nothing", nil, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			for _, n := range tc.daysAgo {
				f.log("alice", 250, f.day(n).Add(9*time.Hour))
			}
			got, err := f.svc.Streak(f.ctx, "alice")
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestStreakIsBoundedToAYear(t *testing.T) {
	f := newFixture(t)
	for n := 0; n < 400; n++ {
		f.log("alice", 100, f.day(n).Add(12*time.Hour))
	}
	got, err := f.svc.Streak(f.ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, maxStreakDays, got)
}

func TestLeaderboardEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.befriend("alice", "bob")

	f.log("alice", 800, f.day(0).Add(8*time.Hour))
	f.log("alice", 700, f.day(0).Add(12*time.Hour))
	f.log("alice", 700, f.day(0).Add(16*time.Hour))

	board, err := f.svc.Leaderboard(f.ctx, ident("bob"))
	require.NoError(t, err)
	require.Len(t, board.Daily, 2)

	top := board.Daily[0]
	require.Equal(t, "alice", top.UserID)
	require.False(t, top.IsMe)
	require.Equal(t, 2200, top.DailyTotal)
	require.Equal(t, 100, top.DailyPercentage)
	require.Equal(t, 2000, top.DailyGoal)
	require.Equal(t, "alice", top.DisplayName)
	require.True(t, board.Daily[1].IsMe)

	feed, err := f.svc.FriendActivity(f.ctx, ident("bob"))
	require.NoError(t, err)

	var intakes, goals []Activity
	for _, a := range feed {
		switch a.Type {
		case ActivityIntake:
			intakes = append(intakes, a)
		case ActivityGoalReached:
			goals = append(goals, a)
		}
	}
	require.Len(t, intakes, 3)
	require.Len(t, goals, 1)
	require.Equal(t, f.day(0).Add(16*time.Hour), goals[0].Timestamp)
	require.Equal(t, "goal-alice-2024-05-15", goals[0].ID)
	require.Equal(t, "drank 800ml of water", intakes[len(intakes)-1].Message)
}

func TestLeaderboardPeriods(t *testing.T) {
	// fixture day is a Wednesday
	f := newFixture(t)
	f.log("alice", 1000, f.day(2).Add(10*time.Hour)) // Monday
	f.log("alice", 1000, f.day(1).Add(10*time.Hour)) // Tuesday
	f.log("alice", 1000, f.day(0).Add(10*time.Hour)) // Wednesday
	f.log("alice", 500, f.day(3).Add(10*time.Hour))  // previous Sunday

	board, err := f.svc.Leaderboard(f.ctx, ident("alice"))
	require.NoError(t, err)
	require.Len(t, board.Daily, 1)

	me := board.Daily[0]
	require.True(t, me.IsMe)
	require.Equal(t, 1000, me.DailyTotal)
	require.Equal(t, 50, me.DailyPercentage)
	require.Equal(t, 3000, me.WeeklyTotal)
	require.Equal(t, 1000, me.AvgDaily)
	require.Equal(t, 3500, me.AllTimeTotal)
	require.Equal(t, 4, me.TotalDays)
	require.Equal(t, 4, me.Streak)
}

func TestLeaderboardWeekOnSunday(t *testing.T) {
	sunday := time.Date(2024, time.May, 19, 20, 0, 0, 0, time.UTC)
	f := newFixtureAt(t, sunday)
	f.log("alice", 1400, time.Date(2024, time.May, 13, 9, 0, 0, 0, time.UTC))

	board, err := f.svc.Leaderboard(f.ctx, ident("alice"))
	require.NoError(t, err)
	require.Equal(t, 1400, board.Weekly[0].WeeklyTotal)
	require.Equal(t, 200, board.Weekly[0].AvgDaily)
}

func TestLeaderboardUsesGoalsAndSkipsPending(t *testing.T) {
	f := newFixture(t)
	f.befriend("alice", "bob")
	f.profile("carol")
	_, err := f.svc.AddFriend(f.ctx, ident("alice"), f.profile("carol"))
	require.NoError(t, err)

	_, err = f.settings.Upsert(f.ctx, models.UserSettings{UserID: "bob", DailyGoal: 3000, GoalUnit: "ml"})
	require.NoError(t, err)
	f.log("bob", 1500, f.day(0).Add(9*time.Hour))
	f.log("carol", 9000, f.day(0).Add(9*time.Hour))

	board, err := f.svc.Leaderboard(f.ctx, ident("alice"))
	require.NoError(t, err)
	require.Len(t, board.AllTime, 2)
	for _, e := range board.AllTime {
		require.NotEqual(t, "carol", e.UserID)
	}
	require.Equal(t, "bob", board.Daily[0].UserID)
	require.Equal(t, 3000, board.Daily[0].DailyGoal)
	require.Equal(t, 50, board.Daily[0].DailyPercentage)
}

func TestLeaderboardTiesKeepInputOrder(t *testing.T) {
	f := newFixture(t)
	f.befriend("alice", "bob")
	f.befriend("alice", "carol")

	board, err := f.svc.Leaderboard(f.ctx, ident("alice"))
	require.NoError(t, err)
	for _, ranked := range [][]LeaderboardEntry{board.Daily, board.Weekly, board.AllTime} {
		require.Equal(t, []string{"alice", "bob", "carol"}, userIDs(ranked))
	}
}

func TestLeaderboardProfileFailureFallsBackToUnknown(t *testing.T) {
	f := newFixture(t)
	f.befriend("alice", "bob")
	f.profiles.FindHook = func(userID string) error {
		if userID == "bob" {
			return errors.New("profile store unavailable")
		}
		return nil
	}

	board, err := f.svc.Leaderboard(f.ctx, ident("alice"))
	require.NoError(t, err)
	for _, e := range board.Daily {
		if e.UserID == "bob" {
			require.Equal(t, "Unknown", e.DisplayName)
		}
	}
}

func TestLeaderboardHistoryCap(t *testing.T) {
	f := newFixture(t)
	f.svc.historyCap = 2
	f.log("alice", 100, f.day(2).Add(time.Hour))
	f.log("alice", 200, f.day(1).Add(time.Hour))
	f.log("alice", 300, f.day(0).Add(time.Hour))

	board, err := f.svc.Leaderboard(f.ctx, ident("alice"))
	require.NoError(t, err)
	require.Equal(t, 500, board.AllTime[0].AllTimeTotal)
	require.Equal(t, 2, board.AllTime[0].TotalDays)
}

func TestLeaderboardIntakeFailure(t *testing.T) {
	f := newFixture(t)
	f.intakes.ListHook = func(models.IntakeQuery) error { return errors.New("timeout") }

	_, err := f.svc.Leaderboard(f.ctx, ident("alice"))
	require.Error(t, err)
}

func TestFriendActivityWithoutFriends(t *testing.T) {
	f := newFixture(t)
	f.log("alice", 500, f.day(0).Add(9*time.Hour))

	feed, err := f.svc.FriendActivity(f.ctx, ident("alice"))
	require.NoError(t, err)
	require.NotNil(t, feed)
	require.Empty(t, feed)
}

func TestFriendActivityStreakMilestones(t *testing.T) {
	f := newFixture(t)
	f.befriend("alice", "bob")
	f.befriend("alice", "carol")
	for n := 0; n < 14; n++ {
		f.log("bob", 200, f.day(n).Add(9*time.Hour))
	}
	for n := 0; n < 10; n++ {
		f.log("carol", 200, f.day(n).Add(9*time.Hour))
	}

	feed, err := f.svc.FriendActivity(f.ctx, ident("alice"))
	require.NoError(t, err)

	var streaks []Activity
	for _, a := range feed {
		if a.Type == ActivityStreak {
			streaks = append(streaks, a)
		}
	}
	require.Len(t, streaks, 1)
	require.Equal(t, "bob", streaks[0].UserID)
	require.Equal(t, 14, streaks[0].Streak)
	require.Equal(t, f.now, streaks[0].Timestamp)
	require.Equal(t, ActivityStreak, feed[0].Type, "milestones are stamped now and sort first")

	require.True(t, IsStreakMilestone(7))
	require.False(t, IsStreakMilestone(0))
	require.False(t, IsStreakMilestone(10))
}

func TestFriendActivityCapsAndOrders(t *testing.T) {
	f := newFixture(t)
	for _, friend := range []string{"b", "c", "d", "e", "g"} {
		f.befriend("alice", friend)
		for k := 1; k <= 6; k++ {
			f.log(friend, 100, f.now.Add(-time.Duration(k)*time.Hour))
		}
	}

	feed, err := f.svc.FriendActivity(f.ctx, ident("alice"))
	require.NoError(t, err)
	require.Len(t, feed, feedLimit)
	for i := 1; i < len(feed); i++ {
		require.False(t, feed[i].Timestamp.After(feed[i-1].Timestamp), "feed not newest first at %d", i)
	}
}

func TestFriendActivityWindowAndGoal(t *testing.T) {
	f := newFixture(t)
	f.befriend("alice", "bob")
	_, err := f.settings.Upsert(f.ctx, models.UserSettings{UserID: "bob", DailyGoal: 500, GoalUnit: "ml"})
	require.NoError(t, err)

	f.log("bob", 900, f.now.Add(-25*time.Hour))
	f.log("bob", 300, f.day(0).Add(10*time.Hour))
	f.log("bob", 300, f.day(0).Add(11*time.Hour))
	f.log("bob", 300, f.day(0).Add(12*time.Hour))

	feed, err := f.svc.FriendActivity(f.ctx, ident("alice"))
	require.NoError(t, err)

	var goal *Activity
	intakes := 0
	for i, a := range feed {
		switch a.Type {
		case ActivityIntake:
			intakes++
			require.NotEqual(t, 900, a.Amount, "records older than a day are not in the feed")
		case ActivityGoalReached:
			require.Nil(t, goal, "one goal event per friend and day")
			goal = &feed[i]
		}
	}
	require.Equal(t, 3, intakes)
	require.NotNil(t, goal)
	require.Equal(t, f.day(0).Add(11*time.Hour), goal.Timestamp)
	require.Equal(t, "reached their daily goal of 500ml!", goal.Message)
}

func TestFriendActivityUnknownProfile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.friends.Create(f.ctx, models.Friendship{ID: "e1", UserID: "alice", FriendUserID: "ghost", Status: models.FriendshipAccepted}))
	f.log("ghost", 250, f.now.Add(-time.Hour))

	feed, err := f.svc.FriendActivity(f.ctx, ident("alice"))
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, "Unknown", feed[0].DisplayName)
}

func userIDs(entries []LeaderboardEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.UserID
	}
	return out
}
