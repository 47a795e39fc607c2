package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/nutricoach/nutricoach/internal/actions"
	"github.com/nutricoach/nutricoach/internal/ai"
	"github.com/nutricoach/nutricoach/internal/kvstore"
	"github.com/nutricoach/nutricoach/internal/userdata"
	"gorm.io/gorm"
)

type scriptedProvider struct {
	reply string
	err   error
	last  []ai.Message
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []ai.Message, opts ai.Options) (string, error) {
	_ = ctx
	_ = opts
	p.last = append([]ai.Message(nil), messages...)
	return p.reply, p.err
}

func newTestService(t *testing.T, provider ai.Provider) (*Service, *userdata.Repo) {
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
	return NewService(repo, actions.New(ai.NewClient(provider)), 0), repo
}

func TestNewChatHasExactlyOneGreeting(t *testing.T) {
	svc, repo := newTestService(t, &scriptedProvider{})
	ctx := context.Background()

	session, err := svc.NewChat(ctx, "u1")
	if err != nil {
		t.Fatalf("new chat: %v", err)
	}
	if len(session.Messages) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(session.Messages))
	}
	msg := session.Messages[0]
	if msg.Role != userdata.RoleSystem || msg.Content != Greeting {
		t.Fatalf("unexpected greeting message: %+v", msg)
	}

	active, err := repo.GetActiveChatID(ctx, "u1")
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active != session.ID {
		t.Fatalf("new session not active: %q != %q", active, session.ID)
	}
}

func TestSendSuccessAppendsModelMessage(t *testing.T) {
	p := &scriptedProvider{reply: `{"response":"Remember to drink water through the day."}`}
	svc, repo := newTestService(t, p)
	ctx := context.Background()

	session, err := svc.NewChat(ctx, "u1")
	if err != nil {
		t.Fatalf("new chat: %v", err)
	}

	updated, err := svc.Send(ctx, "u1", session.ID, "any tips for energy?")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	// greeting + user + model
	if len(updated.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(updated.Messages))
	}
	userMsg := updated.Messages[1]
	modelMsg := updated.Messages[2]
	if userMsg.Role != userdata.RoleUser || userMsg.Content != "any tips for energy?" {
		t.Fatalf("unexpected user message: %+v", userMsg)
	}
	if modelMsg.Role != userdata.RoleModel {
		t.Fatalf("unexpected model message: %+v", modelMsg)
	}
	// "water" in the reply triggers the hydration suggestion
	found := false
	for _, s := range modelMsg.Suggestions {
		if strings.Contains(strings.ToLower(s), "water") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected hydration suggestion, got %v", modelMsg.Suggestions)
	}

	// persisted, not just in memory
	stored, err := repo.GetChatSession(ctx, "u1", session.ID)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored == nil || len(stored.Messages) != 3 {
		t.Fatalf("session not persisted: %+v", stored)
	}
	// title derived from the first user message
	if stored.Title != "any tips for energy?" {
		t.Fatalf("unexpected title: %q", stored.Title)
	}
}

func TestSendFailureAppendsSystemError(t *testing.T) {
	p := &scriptedProvider{err: errors.New("connection refused")}
	svc, repo := newTestService(t, p)
	ctx := context.Background()

	session, err := svc.NewChat(ctx, "u1")
	if err != nil {
		t.Fatalf("new chat: %v", err)
	}

	updated, err := svc.Send(ctx, "u1", session.ID, "hello?")
	if err != nil {
		t.Fatalf("send should not propagate the remote failure: %v", err)
	}
	if len(updated.Messages) != 3 {
		t.Fatalf("expected exactly one user and one error message appended, got %d total", len(updated.Messages))
	}
	if updated.Messages[1].Role != userdata.RoleUser {
		t.Fatalf("user message missing: %+v", updated.Messages[1])
	}
	errMsg := updated.Messages[2]
	if errMsg.Role != userdata.RoleSystem || !strings.Contains(errMsg.Content, "Chatbot interaction failed") {
		t.Fatalf("unexpected error message: %+v", errMsg)
	}

	stored, _ := repo.GetChatSession(ctx, "u1", session.ID)
	if stored == nil || len(stored.Messages) != 3 {
		t.Fatalf("both messages should be persisted: %+v", stored)
	}
}

func TestSendTruncatesHistory(t *testing.T) {
	p := &scriptedProvider{reply: `{"response":"ok"}`}
	svc, _ := newTestService(t, p)
	ctx := context.Background()

	session, err := svc.NewChat(ctx, "u1")
	if err != nil {
		t.Fatalf("new chat: %v", err)
	}
	for i := 0; i < 8; i++ {
		if _, err := svc.Send(ctx, "u1", session.ID, "turn"); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	// 1 greeting + 16 turn messages exist; the linearized prompt must
	// carry at most defaultHistoryWindow of them plus the latest message.
	prompt := p.last[1].Content
	lines := strings.Count(strings.TrimSpace(prompt), "\n")
	if lines > defaultHistoryWindow+1 {
		t.Fatalf("history not truncated: %d prompt lines", lines)
	}
}

func TestConfiguredHistoryWindowApplied(t *testing.T) {
	p := &scriptedProvider{reply: `{"response":"ok"}`}
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store, err := kvstore.NewGormStore(gdb)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	repo := userdata.NewRepo(store)
	svc := NewService(repo, actions.New(ai.NewClient(p)), 2)
	ctx := context.Background()

	session, err := svc.NewChat(ctx, "u1")
	if err != nil {
		t.Fatalf("new chat: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := svc.Send(ctx, "u1", session.ID, "turn"); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	// 2 history lines plus the latest user line.
	prompt := p.last[1].Content
	lines := strings.Count(strings.TrimSpace(prompt), "\n")
	if lines > 3 {
		t.Fatalf("window of 2 not applied: %d prompt lines", lines)
	}
}

func TestSendUnknownSession(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProvider{reply: `{"response":"ok"}`})
	if _, err := svc.Send(context.Background(), "u1", "missing", "hi"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestLoadMissingSessionFallsBackToNewChat(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProvider{})
	ctx := context.Background()

	session, err := svc.LoadSession(ctx, "u1", "does-not-exist")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(session.Messages) != 1 || session.Messages[0].Content != Greeting {
		t.Fatalf("expected fresh session, got %+v", session)
	}
}

func TestDeleteActiveSessionStartsNewChat(t *testing.T) {
	svc, repo := newTestService(t, &scriptedProvider{})
	ctx := context.Background()

	first, err := svc.NewChat(ctx, "u1")
	if err != nil {
		t.Fatalf("new chat: %v", err)
	}
	replacement, err := svc.DeleteSession(ctx, "u1", first.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if replacement == nil || replacement.ID == first.ID {
		t.Fatalf("expected a fresh replacement session, got %+v", replacement)
	}
	sessions, _ := repo.GetChatSessions(ctx, "u1")
	if len(sessions) != 1 || sessions[0].ID != replacement.ID {
		t.Fatalf("unexpected sessions after delete: %+v", sessions)
	}
}

func TestDeleteInactiveSessionKeepsActive(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProvider{})
	ctx := context.Background()

	first, _ := svc.NewChat(ctx, "u1")
	second, _ := svc.NewChat(ctx, "u1")

	replacement, err := svc.DeleteSession(ctx, "u1", first.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if replacement != nil {
		t.Fatalf("deleting an inactive session should not start a new chat")
	}
	_ = second
}

func TestClearAllLeavesSingleFreshSession(t *testing.T) {
	p := &scriptedProvider{reply: `{"response":"sure"}`}
	svc, repo := newTestService(t, p)
	ctx := context.Background()

	s1, _ := svc.NewChat(ctx, "u1")
	if _, err := svc.Send(ctx, "u1", s1.ID, "remember this"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.NewChat(ctx, "u1"); err != nil {
		t.Fatalf("second chat: %v", err)
	}

	fresh, err := svc.ClearAll(ctx, "u1")
	if err != nil {
		t.Fatalf("clear all: %v", err)
	}

	sessions, _ := repo.GetChatSessions(ctx, "u1")
	if len(sessions) != 1 {
		t.Fatalf("expected exactly one session after clear, got %d", len(sessions))
	}
	if sessions[0].ID != fresh.ID {
		t.Fatalf("surviving session is not the fresh one")
	}
	if len(sessions[0].Messages) != 1 || sessions[0].Messages[0].Content != Greeting {
		t.Fatalf("fresh session carries prior history: %+v", sessions[0].Messages)
	}
}

func TestDraftClearedOnSend(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProvider{reply: `{"response":"ok"}`})
	ctx := context.Background()

	session, _ := svc.NewChat(ctx, "u1")
	if err := svc.SaveDraft(ctx, "u1", session.ID, "half typed"); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if _, err := svc.Send(ctx, "u1", session.ID, "half typed done"); err != nil {
		t.Fatalf("send: %v", err)
	}
	draft, _ := svc.GetDraft(ctx, "u1", session.ID)
	if draft != "" {
		t.Fatalf("draft should be cleared on send, got %q", draft)
	}
}

func TestPersonaAppliedToFutureTurns(t *testing.T) {
	p := &scriptedProvider{reply: `{"response":"ok"}`}
	svc, _ := newTestService(t, p)
	ctx := context.Background()

	session, _ := svc.NewChat(ctx, "u1")
	if err := svc.SetPersona(ctx, "u1", "drill sergeant"); err != nil {
		t.Fatalf("set persona: %v", err)
	}
	if _, err := svc.Send(ctx, "u1", session.ID, "motivate me"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(p.last[0].Content, "drill sergeant") {
		t.Fatalf("persona not applied: %q", p.last[0].Content)
	}
}

func TestDeleteSessionUnpins(t *testing.T) {
	svc, repo := newTestService(t, &scriptedProvider{reply: `{"response":"ok"}`})
	ctx := context.Background()

	first, err := svc.NewChat(ctx, "u1")
	if err != nil {
		t.Fatalf("new chat: %v", err)
	}
	if _, err := svc.NewChat(ctx, "u1"); err != nil {
		t.Fatalf("second chat: %v", err)
	}
	if _, err := svc.TogglePin(ctx, "u1", first.ID); err != nil {
		t.Fatalf("pin: %v", err)
	}

	if _, err := svc.DeleteSession(ctx, "u1", first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	pinned, err := repo.GetPinnedIDs(ctx, "u1")
	if err != nil {
		t.Fatalf("get pinned: %v", err)
	}
	for _, id := range pinned {
		if id == first.ID {
			t.Fatalf("deleted session %s still pinned", first.ID)
		}
	}
}

func TestClearAllClearsPins(t *testing.T) {
	svc, repo := newTestService(t, &scriptedProvider{reply: `{"response":"ok"}`})
	ctx := context.Background()

	session, err := svc.NewChat(ctx, "u1")
	if err != nil {
		t.Fatalf("new chat: %v", err)
	}
	if _, err := svc.TogglePin(ctx, "u1", session.ID); err != nil {
		t.Fatalf("pin: %v", err)
	}

	if _, err := svc.ClearAll(ctx, "u1"); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	pinned, err := repo.GetPinnedIDs(ctx, "u1")
	if err != nil {
		t.Fatalf("get pinned: %v", err)
	}
	if len(pinned) != 0 {
		t.Fatalf("pins survived clear-all: %v", pinned)
	}
}
