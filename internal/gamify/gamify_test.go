package gamify

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/nutricoach/nutricoach/internal/kvstore"
	"github.com/nutricoach/nutricoach/internal/userdata"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store, err := kvstore.NewGormStore(gdb)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return NewService(userdata.NewRepo(store))
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestStreakIncrementsOnConsecutiveDays(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	s, err := svc.TouchStreak(ctx, "u1", day("2026-03-01"))
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if s.Count != 1 {
		t.Fatalf("expected 1, got %d", s.Count)
	}

	s, _ = svc.TouchStreak(ctx, "u1", day("2026-03-02"))
	if s.Count != 2 {
		t.Fatalf("expected 2, got %d", s.Count)
	}

	// same day is a no-op
	s, _ = svc.TouchStreak(ctx, "u1", day("2026-03-02"))
	if s.Count != 2 {
		t.Fatalf("same-day touch changed the streak: %d", s.Count)
	}
}

func TestStreakResetsAfterGap(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.TouchStreak(ctx, "u1", day("2026-03-01"))
	svc.TouchStreak(ctx, "u1", day("2026-03-02"))
	s, _ := svc.TouchStreak(ctx, "u1", day("2026-03-05"))
	if s.Count != 1 {
		t.Fatalf("expected reset to 1 after gap, got %d", s.Count)
	}
}

func TestStreakUnlocksBadge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, d := range []string{"2026-03-01", "2026-03-02", "2026-03-03"} {
		if _, err := svc.TouchStreak(ctx, "u1", day(d)); err != nil {
			t.Fatalf("touch %s: %v", d, err)
		}
	}
	badges, err := svc.repo.GetBadges(ctx, "u1")
	if err != nil {
		t.Fatalf("get badges: %v", err)
	}
	if len(badges) != 1 || badges[0] != "3-Day Streak" {
		t.Fatalf("unexpected badges: %v", badges)
	}

	// unlocking again stays a single entry
	if err := svc.UnlockBadge(ctx, "u1", "3-Day Streak"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	badges, _ = svc.repo.GetBadges(ctx, "u1")
	if len(badges) != 1 {
		t.Fatalf("badge duplicated: %v", badges)
	}
}

func TestWeeklySummaryDue(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	due, err := svc.WeeklySummaryDue(ctx, "u1", day("2026-03-01"))
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if !due {
		t.Fatalf("first check should be due")
	}

	due, _ = svc.WeeklySummaryDue(ctx, "u1", day("2026-03-04"))
	if due {
		t.Fatalf("three days later should not be due")
	}

	due, _ = svc.WeeklySummaryDue(ctx, "u1", day("2026-03-08"))
	if !due {
		t.Fatalf("seven days later should be due")
	}
}
