// Package auth implements the simulated account layer: a fixed demo
// credential check with an artificial delay, issuing real JWTs so the
// HTTP layer can keep its normal middleware.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nutricoach/nutricoach/internal/common"
	"github.com/nutricoach/nutricoach/internal/userdata"
	"golang.org/x/crypto/bcrypt"
)

// The one account the simulated check accepts.
const (
	DemoUsername = "demo"
	DemoEmail    = "demo@nutricoach.app"
	demoPassword = "password"
)

// simulatedDelay mimics the latency of a real account backend.
const simulatedDelay = 600 * time.Millisecond

var ErrInvalidCredentials = errors.New("invalid username or password")

var demoPasswordHash []byte

func init() {
	h, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	demoPasswordHash = h
}

type Service struct {
	repo      *userdata.Repo
	jwtSecret string
	delay     time.Duration
}

func NewService(repo *userdata.Repo, jwtSecret string) *Service {
	return &Service{repo: repo, jwtSecret: jwtSecret, delay: simulatedDelay}
}

// SetDelay overrides the artificial latency, mainly for tests.
func (s *Service) SetDelay(d time.Duration) { s.delay = d }

func (s *Service) sleep(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login checks the fixed demo credentials after the artificial delay,
// stores the AuthUser marker and returns it with a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (*userdata.AuthUser, string, error) {
	if err := s.sleep(ctx); err != nil {
		return nil, "", err
	}

	if !strings.EqualFold(strings.TrimSpace(username), DemoUsername) {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(demoPasswordHash, []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	user := userdata.AuthUser{
		ID:       DemoUsername,
		Username: DemoUsername,
		Email:    DemoEmail,
	}
	if err := s.repo.SaveAuthUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := IssueToken(s.jwtSecret, user.ID)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// Signup pretends to create an account: after the delay it stores a
// fresh AuthUser and returns it with a token. No uniqueness or
// verification is enforced anywhere.
func (s *Service) Signup(ctx context.Context, username, email string) (*userdata.AuthUser, string, error) {
	if err := s.sleep(ctx); err != nil {
		return nil, "", err
	}

	id, err := common.NewULID()
	if err != nil {
		return nil, "", err
	}
	user := userdata.AuthUser{
		ID:       id,
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
	}
	if err := s.repo.SaveAuthUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := IssueToken(s.jwtSecret, user.ID)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// Logout drops the AuthUser marker and resets gamification counters.
// Token invalidation is client-side: the caller discards it.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.repo.RemoveAuthUser(ctx, userID); err != nil {
		return err
	}
	return s.repo.ResetGamification(ctx, userID)
}

// DeleteAccount wipes every record kind for the user.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	return s.repo.ClearAll(ctx, userID)
}
