// Package chat implements the chat session state machine: named persisted
// sessions, drafts, pins, persona selection and feedback, all stored
// through the user-data repository.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nutricoach/nutricoach/internal/actions"
	"github.com/nutricoach/nutricoach/internal/common"
	"github.com/nutricoach/nutricoach/internal/flows"
	"github.com/nutricoach/nutricoach/internal/userdata"
)

// Greeting is the single system message every fresh session starts with.
const Greeting = "Hi! I'm NutriCoach, your personal nutrition assistant. Ask me anything about food, meal plans, or how you're feeling after meals."

const defaultTitle = "New Chat"

// defaultHistoryWindow caps how much conversation is sent to the model
// per turn when no window is configured.
const defaultHistoryWindow = 10

const titleMaxRunes = 40

// ErrSessionNotFound is returned by Send for an unknown session id.
var ErrSessionNotFound = errors.New("chat: session not found")

type Service struct {
	repo    *userdata.Repo
	actions *actions.Actions
	window  int
}

func NewService(repo *userdata.Repo, a *actions.Actions, window int) *Service {
	if window <= 0 {
		window = defaultHistoryWindow
	}
	return &Service{repo: repo, actions: a, window: window}
}

// NewChat persists a fresh session holding exactly the greeting message,
// makes it active, and clears the previously active session's draft.
func (s *Service) NewChat(ctx context.Context, userID string) (*userdata.ChatSession, error) {
	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}

	persona, err := s.repo.GetPersona(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := userdata.ChatSession{
		ID:    id,
		Title: defaultTitle,
		Messages: []userdata.ChatMessage{{
			ID:        uuid.NewString(),
			Role:      userdata.RoleSystem,
			Content:   Greeting,
			CreatedAt: now,
		}},
		Persona:   persona,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.UpsertChatSession(ctx, userID, session); err != nil {
		return nil, err
	}

	if prev, err := s.repo.GetActiveChatID(ctx, userID); err != nil {
		return nil, err
	} else if prev != "" {
		if err := s.repo.ClearDraft(ctx, userID, prev); err != nil {
			return nil, err
		}
	}

	if err := s.repo.SetActiveChatID(ctx, userID, session.ID); err != nil {
		return nil, err
	}
	return &session, nil
}

// LoadSession activates the session with the given id. A missing id falls
// back to a fresh chat.
func (s *Service) LoadSession(ctx context.Context, userID, sessionID string) (*userdata.ChatSession, error) {
	session, err := s.repo.GetChatSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return s.NewChat(ctx, userID)
	}
	if err := s.repo.SetActiveChatID(ctx, userID, session.ID); err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns all sessions plus the pinned ids.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]userdata.ChatSession, []string, error) {
	sessions, err := s.repo.GetChatSessions(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	pins, err := s.repo.GetPinnedIDs(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return sessions, pins, nil
}

// Send appends the user message optimistically, issues one outbound
// request, and appends either the model reply or a system-role error
// message. Both outcomes persist the session.
func (s *Service) Send(ctx context.Context, userID, sessionID, text string) (*userdata.ChatSession, error) {
	session, err := s.repo.GetChatSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	// History for the flow is the conversation before this turn,
	// truncated to the last window messages.
	history := session.Messages
	if len(history) > s.window {
		history = history[len(history)-s.window:]
	}

	now := time.Now()
	userMsg := userdata.ChatMessage{
		ID:        uuid.NewString(),
		Role:      userdata.RoleUser,
		Content:   text,
		CreatedAt: now,
	}
	session.Messages = append(session.Messages, userMsg)
	session.UpdatedAt = now
	if session.Title == defaultTitle {
		session.Title = titleFrom(text)
	}

	if err := s.repo.UpsertChatSession(ctx, userID, *session); err != nil {
		return nil, err
	}
	if err := s.repo.ClearDraft(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	apiKey, err := s.repo.GetAPIKey(ctx, userID)
	if err != nil {
		return nil, err
	}
	persona, err := s.repo.GetPersona(ctx, userID)
	if err != nil {
		return nil, err
	}
	if persona == "" {
		persona = session.Persona
	}

	reply, sendErr := s.actions.Chat(ctx, flows.ChatbotInput{
		History: history,
		Message: text,
		Persona: persona,
		APIKey:  apiKey,
	})

	var responseMsg userdata.ChatMessage
	if sendErr != nil {
		responseMsg = userdata.ChatMessage{
			ID:        uuid.NewString(),
			Role:      userdata.RoleSystem,
			Content:   sendErr.Error(),
			CreatedAt: time.Now(),
		}
	} else {
		responseMsg = userdata.ChatMessage{
			ID:          uuid.NewString(),
			Role:        userdata.RoleModel,
			Content:     reply.Response,
			Suggestions: deriveSuggestions(reply.Response),
			CreatedAt:   time.Now(),
		}
	}

	session.Messages = append(session.Messages, responseMsg)
	session.UpdatedAt = responseMsg.CreatedAt
	if err := s.repo.UpsertChatSession(ctx, userID, *session); err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes one session; deleting the active one falls back
// to a fresh chat.
func (s *Service) DeleteSession(ctx context.Context, userID, sessionID string) (*userdata.ChatSession, error) {
	if err := s.repo.DeleteChatSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if err := s.repo.ClearDraft(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if err := s.repo.Unpin(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	active, err := s.repo.GetActiveChatID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active == sessionID {
		return s.NewChat(ctx, userID)
	}
	return nil, nil
}

// ClearAll removes every session for the user and starts over.
func (s *Service) ClearAll(ctx context.Context, userID string) (*userdata.ChatSession, error) {
	if err := s.repo.ClearChatSessions(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.ClearPins(ctx, userID); err != nil {
		return nil, err
	}
	return s.NewChat(ctx, userID)
}

func (s *Service) SaveDraft(ctx context.Context, userID, sessionID, text string) error {
	return s.repo.SaveDraft(ctx, userID, sessionID, text)
}

func (s *Service) GetDraft(ctx context.Context, userID, sessionID string) (string, error) {
	return s.repo.GetDraft(ctx, userID, sessionID)
}

func (s *Service) TogglePin(ctx context.Context, userID, sessionID string) (bool, error) {
	return s.repo.TogglePin(ctx, userID, sessionID)
}

// SetPersona applies to future turns only; existing messages are never
// rewritten.
func (s *Service) SetPersona(ctx context.Context, userID, persona string) error {
	return s.repo.SetPersona(ctx, userID, persona)
}

func (s *Service) AddFeedback(ctx context.Context, userID string, fb userdata.FeedbackEntry) error {
	fb.CreatedAt = time.Now()
	return s.repo.AddFeedback(ctx, userID, fb)
}

// deriveSuggestions keyword-matches the reply text for follow-up chips.
func deriveSuggestions(reply string) []string {
	lower := strings.ToLower(reply)
	var out []string
	if strings.Contains(lower, "water") || strings.Contains(lower, "hydrat") {
		out = append(out, "Track today's water intake")
	}
	if strings.Contains(lower, "meal") || strings.Contains(lower, "recipe") {
		out = append(out, "Generate a new meal plan")
	}
	return out
}

func titleFrom(text string) string {
	title := strings.TrimSpace(text)
	runes := []rune(title)
	if len(runes) > titleMaxRunes {
		title = string(runes[:titleMaxRunes]) + "…"
	}
	if title == "" {
		return defaultTitle
	}
	return title
}
