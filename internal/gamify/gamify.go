// Package gamify maintains the dashboard counters: daily streak, badges
// and the weekly summary marker.
package gamify

import (
	"context"
	"time"

	"github.com/nutricoach/nutricoach/internal/userdata"
)

const dateLayout = "2006-01-02"

// Badge thresholds on the daily streak.
var streakBadges = map[int]string{
	3:  "3-Day Streak",
	7:  "Week Warrior",
	30: "Monthly Master",
}

type Service struct {
	repo *userdata.Repo
}

func NewService(repo *userdata.Repo) *Service {
	return &Service{repo: repo}
}

// TouchStreak advances the streak for today: +1 when yesterday was the
// last active day, reset to 1 after a gap, unchanged when already counted
// today. Newly crossed thresholds unlock badges.
func (s *Service) TouchStreak(ctx context.Context, userID string, today time.Time) (userdata.StreakData, error) {
	streak, err := s.repo.GetStreak(ctx, userID)
	if err != nil {
		return userdata.StreakData{}, err
	}

	todayStr := today.Format(dateLayout)
	yesterdayStr := today.AddDate(0, 0, -1).Format(dateLayout)

	switch streak.LastDate {
	case todayStr:
		return streak, nil
	case yesterdayStr:
		streak.Count++
	default:
		streak.Count = 1
	}
	streak.LastDate = todayStr

	if err := s.repo.SaveStreak(ctx, userID, streak); err != nil {
		return userdata.StreakData{}, err
	}

	if name, ok := streakBadges[streak.Count]; ok {
		if err := s.UnlockBadge(ctx, userID, name); err != nil {
			return userdata.StreakData{}, err
		}
	}
	return streak, nil
}

// UnlockBadge adds the badge once; unlocking an owned badge is a no-op.
func (s *Service) UnlockBadge(ctx context.Context, userID, name string) error {
	badges, err := s.repo.GetBadges(ctx, userID)
	if err != nil {
		return err
	}
	for _, b := range badges {
		if b == name {
			return nil
		}
	}
	badges = append(badges, name)
	return s.repo.SaveBadges(ctx, userID, badges)
}

// WeeklySummaryDue reports whether a new weekly summary should be
// generated, and records today as the summary date when it is.
func (s *Service) WeeklySummaryDue(ctx context.Context, userID string, today time.Time) (bool, error) {
	last, err := s.repo.GetWeeklySummaryDate(ctx, userID)
	if err != nil {
		return false, err
	}
	if last != "" {
		lastDate, err := time.Parse(dateLayout, last)
		if err == nil && today.Sub(lastDate) < 7*24*time.Hour {
			return false, nil
		}
	}
	if err := s.repo.SetWeeklySummaryDate(ctx, userID, today.Format(dateLayout)); err != nil {
		return false, err
	}
	return true, nil
}
