package models

import "testing"

func TestGoalPercentage(t *testing.T) {
	cases := []struct {
		total, goal, want int
	}{
		{5000, 2000, 100},
		{2000, 2000, 100},
		{1000, 2000, 50},
		{0, 2000, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1000, 0, 50},
	}
	for _, tc := range cases {
		if got := GoalPercentage(tc.total, tc.goal); got != tc.want {
			t.Fatalf("GoalPercentage(%d, %d) = %d, want %d", tc.total, tc.goal, got, tc.want)
		}
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings("u1")
	if s.UserID != "u1" || s.DailyGoal != DefaultDailyGoal || s.GoalUnit != DefaultUnit {
		t.Fatalf("unexpected defaults %+v", s)
	}
	if s.QuietHoursStart != "22:00" || s.QuietHoursEnd != "07:00" {
		t.Fatalf("unexpected quiet hours %+v", s)
	}
}
