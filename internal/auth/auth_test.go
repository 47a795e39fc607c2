package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/nutricoach/nutricoach/internal/kvstore"
	"github.com/nutricoach/nutricoach/internal/userdata"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *userdata.Repo) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store, err := kvstore.NewGormStore(gdb)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	repo := userdata.NewRepo(store)
	svc := NewService(repo, "test-secret")
	svc.SetDelay(0)
	return svc, repo
}

func TestLoginDemoAccount(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	user, token, err := svc.Login(ctx, "demo", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Username != DemoUsername || token == "" {
		t.Fatalf("unexpected login result: %+v token=%q", user, token)
	}

	stored, err := repo.GetAuthUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored == nil || stored.Username != DemoUsername {
		t.Fatalf("auth user marker not persisted: %+v", stored)
	}

	uid, err := ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if uid != user.ID {
		t.Fatalf("token subject mismatch: %q != %q", uid, user.ID)
	}
}

func TestLoginRejectsWrongCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Login(ctx, "demo", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "someone", "password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogoutRemovesMarkerAndResetsCounters(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	user, _, err := svc.Login(ctx, "demo", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := repo.SaveStreak(ctx, user.ID, userdata.StreakData{Count: 9, LastDate: "2026-03-01"}); err != nil {
		t.Fatalf("save streak: %v", err)
	}

	if err := svc.Logout(ctx, user.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if stored, _ := repo.GetAuthUser(ctx, user.ID); stored != nil {
		t.Fatalf("auth user marker survived logout")
	}
	if streak, _ := repo.GetStreak(ctx, user.ID); streak.Count != 0 {
		t.Fatalf("streak survived logout: %+v", streak)
	}
}

func TestParseTokenRejectsTampered(t *testing.T) {
	token, err := IssueToken("secret-a", "u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseToken("secret-b", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	if _, err := ParseToken("secret-a", token+"x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}
