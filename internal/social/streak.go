package social

import (
	"context"

	"github.com/sipstreak/backend/internal/apperr"
	"github.com/sipstreak/backend/internal/calendar"
)

const maxStreakDays = 365

// Streak counts consecutive days with at least one logged drink, walking back
// from today. An empty today does not end the streak; an empty earlier day does.
func (s *Service) Streak(ctx context.Context, userID string) (int, error) {
	day := s.clock.Today()
	streak := 0

	for i := 0; i < maxStreakDays; i++ {
		logged, err := s.intakes.Exists(ctx, userID, day, calendar.NextDay(day))
		if err != nil {
			return 0, apperr.Internal("compute streak", err)
		}
		if logged {
			streak++
		} else if i > 0 {
			break
		}
		day = day.AddDate(0, 0, -1)
	}

	return streak, nil
}
