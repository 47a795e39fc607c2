package userdata

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/nutricoach/nutricoach/internal/kvstore"
)

// Record kind prefixes. Every record key is <prefix><userId>; no
// cross-user record ever shares a key.
const (
	prefixAuthUser   = "nutricoach_user_"
	prefixDetails    = "nutricoach_details_"
	prefixAPIKey     = "nutricoach_apikey_"
	prefixMealPlan   = "nutricoach_mealplan_"
	prefixSymptoms   = "nutricoach_symptoms_"
	prefixChats      = "nutricoach_chats_"
	prefixActiveChat = "nutricoach_activechat_"
	prefixPins       = "nutricoach_pins_"
	prefixDrafts     = "nutricoach_drafts_"
	prefixPersona    = "nutricoach_persona_"
	prefixFeedback   = "nutricoach_feedback_"
	prefixStreak     = "nutricoach_streak_"
	prefixBadges     = "nutricoach_badges_"
	prefixWeekly     = "nutricoach_weekly_"
	prefixJob        = "nutricoach_job_"
)

// Repo exposes one typed accessor set per record kind over the flat store.
// List-typed kinds (chat sessions, symptom logs) are read-modify-rewrite:
// O(n) per write, fine at tens-to-hundreds of records per user.
type Repo struct {
	store kvstore.Store
}

func NewRepo(store kvstore.Store) *Repo {
	return &Repo{store: store}
}

func (r *Repo) get(ctx context.Context, key string, out any) (bool, error) {
	err := kvstore.GetJSON(ctx, r.store, key, out)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// --- AuthUser ---

func (r *Repo) SaveAuthUser(ctx context.Context, u AuthUser) error {
	return kvstore.PutJSON(ctx, r.store, prefixAuthUser+u.ID, u)
}

func (r *Repo) GetAuthUser(ctx context.Context, userID string) (*AuthUser, error) {
	var u AuthUser
	found, err := r.get(ctx, prefixAuthUser+userID, &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) RemoveAuthUser(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, prefixAuthUser+userID)
}

// --- UserDetails ---

func (r *Repo) SaveDetails(ctx context.Context, userID string, d UserDetails) error {
	return kvstore.PutJSON(ctx, r.store, prefixDetails+userID, d)
}

func (r *Repo) GetDetails(ctx context.Context, userID string) (*UserDetails, error) {
	var d UserDetails
	found, err := r.get(ctx, prefixDetails+userID, &d)
	if err != nil || !found {
		return nil, err
	}
	return &d, nil
}

func (r *Repo) RemoveDetails(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, prefixDetails+userID)
}

// --- per-user API key ---

func (r *Repo) SaveAPIKey(ctx context.Context, userID, key string) error {
	return kvstore.PutJSON(ctx, r.store, prefixAPIKey+userID, key)
}

func (r *Repo) GetAPIKey(ctx context.Context, userID string) (string, error) {
	var key string
	_, err := r.get(ctx, prefixAPIKey+userID, &key)
	return key, err
}

func (r *Repo) RemoveAPIKey(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, prefixAPIKey+userID)
}

// --- CachedMealPlan ---

func (r *Repo) SaveMealPlan(ctx context.Context, userID string, p CachedMealPlan) error {
	return kvstore.PutJSON(ctx, r.store, prefixMealPlan+userID, p)
}

func (r *Repo) GetMealPlan(ctx context.Context, userID string) (*CachedMealPlan, error) {
	var p CachedMealPlan
	found, err := r.get(ctx, prefixMealPlan+userID, &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) RemoveMealPlan(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, prefixMealPlan+userID)
}

// --- Symptom logs ---

// AddSymptomLog inserts the entry and rewrites the list sorted by LogTime
// descending, so reads never have to sort.
func (r *Repo) AddSymptomLog(ctx context.Context, userID string, entry SymptomLogEntry) error {
	logs, err := r.GetSymptomLogs(ctx, userID)
	if err != nil {
		return err
	}
	logs = append(logs, entry)
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].LogTime.After(logs[j].LogTime)
	})
	return kvstore.PutJSON(ctx, r.store, prefixSymptoms+userID, logs)
}

func (r *Repo) GetSymptomLogs(ctx context.Context, userID string) ([]SymptomLogEntry, error) {
	var logs []SymptomLogEntry
	if _, err := r.get(ctx, prefixSymptoms+userID, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// --- Chat sessions ---

func (r *Repo) GetChatSessions(ctx context.Context, userID string) ([]ChatSession, error) {
	var sessions []ChatSession
	if _, err := r.get(ctx, prefixChats+userID, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *Repo) GetChatSession(ctx context.Context, userID, sessionID string) (*ChatSession, error) {
	sessions, err := r.GetChatSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID == sessionID {
			return &sessions[i], nil
		}
	}
	return nil, nil
}

// UpsertChatSession replaces the session with a matching id, or appends it.
func (r *Repo) UpsertChatSession(ctx context.Context, userID string, session ChatSession) error {
	sessions, err := r.GetChatSessions(ctx, userID)
	if err != nil {
		return err
	}
	replaced := false
	for i := range sessions {
		if sessions[i].ID == session.ID {
			sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, session)
	}
	return kvstore.PutJSON(ctx, r.store, prefixChats+userID, sessions)
}

func (r *Repo) DeleteChatSession(ctx context.Context, userID, sessionID string) error {
	sessions, err := r.GetChatSessions(ctx, userID)
	if err != nil {
		return err
	}
	kept := sessions[:0]
	for _, s := range sessions {
		if s.ID != sessionID {
			kept = append(kept, s)
		}
	}
	return kvstore.PutJSON(ctx, r.store, prefixChats+userID, kept)
}

func (r *Repo) ClearChatSessions(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, prefixChats+userID)
}

// --- Chat side records ---
// Kept outside the session objects so draft/pin changes do not rewrite
// whole conversations.

func (r *Repo) SetActiveChatID(ctx context.Context, userID, sessionID string) error {
	return kvstore.PutJSON(ctx, r.store, prefixActiveChat+userID, sessionID)
}

func (r *Repo) GetActiveChatID(ctx context.Context, userID string) (string, error) {
	var id string
	_, err := r.get(ctx, prefixActiveChat+userID, &id)
	return id, err
}

func (r *Repo) GetPinnedIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if _, err := r.get(ctx, prefixPins+userID, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// TogglePin flips the pinned state of a session, returning the new state.
func (r *Repo) TogglePin(ctx context.Context, userID, sessionID string) (bool, error) {
	ids, err := r.GetPinnedIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	for i, id := range ids {
		if id == sessionID {
			ids = append(ids[:i], ids[i+1:]...)
			return false, kvstore.PutJSON(ctx, r.store, prefixPins+userID, ids)
		}
	}
	ids = append(ids, sessionID)
	return true, kvstore.PutJSON(ctx, r.store, prefixPins+userID, ids)
}

// Unpin removes the session from the pinned set; an absent id is a no-op.
func (r *Repo) Unpin(ctx context.Context, userID, sessionID string) error {
	ids, err := r.GetPinnedIDs(ctx, userID)
	if err != nil {
		return err
	}
	for i, id := range ids {
		if id == sessionID {
			ids = append(ids[:i], ids[i+1:]...)
			return kvstore.PutJSON(ctx, r.store, prefixPins+userID, ids)
		}
	}
	return nil
}

func (r *Repo) ClearPins(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, prefixPins+userID)
}

func (r *Repo) drafts(ctx context.Context, userID string) (map[string]string, error) {
	drafts := map[string]string{}
	if _, err := r.get(ctx, prefixDrafts+userID, &drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

func (r *Repo) SaveDraft(ctx context.Context, userID, sessionID, text string) error {
	drafts, err := r.drafts(ctx, userID)
	if err != nil {
		return err
	}
	drafts[sessionID] = text
	return kvstore.PutJSON(ctx, r.store, prefixDrafts+userID, drafts)
}

func (r *Repo) GetDraft(ctx context.Context, userID, sessionID string) (string, error) {
	drafts, err := r.drafts(ctx, userID)
	if err != nil {
		return "", err
	}
	return drafts[sessionID], nil
}

func (r *Repo) ClearDraft(ctx context.Context, userID, sessionID string) error {
	drafts, err := r.drafts(ctx, userID)
	if err != nil {
		return err
	}
	if _, ok := drafts[sessionID]; !ok {
		return nil
	}
	delete(drafts, sessionID)
	return kvstore.PutJSON(ctx, r.store, prefixDrafts+userID, drafts)
}

func (r *Repo) SetPersona(ctx context.Context, userID, persona string) error {
	return kvstore.PutJSON(ctx, r.store, prefixPersona+userID, persona)
}

func (r *Repo) GetPersona(ctx context.Context, userID string) (string, error) {
	var p string
	_, err := r.get(ctx, prefixPersona+userID, &p)
	return p, err
}

func (r *Repo) AddFeedback(ctx context.Context, userID string, fb FeedbackEntry) error {
	var entries []FeedbackEntry
	if _, err := r.get(ctx, prefixFeedback+userID, &entries); err != nil {
		return err
	}
	entries = append(entries, fb)
	return kvstore.PutJSON(ctx, r.store, prefixFeedback+userID, entries)
}

func (r *Repo) GetFeedback(ctx context.Context, userID string) ([]FeedbackEntry, error) {
	var entries []FeedbackEntry
	if _, err := r.get(ctx, prefixFeedback+userID, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// --- Gamification counters ---

func (r *Repo) SaveStreak(ctx context.Context, userID string, s StreakData) error {
	return kvstore.PutJSON(ctx, r.store, prefixStreak+userID, s)
}

func (r *Repo) GetStreak(ctx context.Context, userID string) (StreakData, error) {
	var s StreakData
	_, err := r.get(ctx, prefixStreak+userID, &s)
	return s, err
}

func (r *Repo) SaveBadges(ctx context.Context, userID string, badges []string) error {
	return kvstore.PutJSON(ctx, r.store, prefixBadges+userID, badges)
}

func (r *Repo) GetBadges(ctx context.Context, userID string) ([]string, error) {
	var badges []string
	if _, err := r.get(ctx, prefixBadges+userID, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *Repo) SetWeeklySummaryDate(ctx context.Context, userID, date string) error {
	return kvstore.PutJSON(ctx, r.store, prefixWeekly+userID, date)
}

func (r *Repo) GetWeeklySummaryDate(ctx context.Context, userID string) (string, error) {
	var d string
	_, err := r.get(ctx, prefixWeekly+userID, &d)
	return d, err
}

// ResetGamification clears streak, badges and summary date, as on logout.
func (r *Repo) ResetGamification(ctx context.Context, userID string) error {
	for _, prefix := range []string{prefixStreak, prefixBadges, prefixWeekly} {
		if err := r.store.Delete(ctx, prefix+userID); err != nil {
			return err
		}
	}
	return nil
}

// --- Meal-plan jobs (keyed by job id, not user id) ---

func (r *Repo) SaveJob(ctx context.Context, job MealPlanJob) error {
	job.UpdatedAt = time.Now()
	return kvstore.PutJSON(ctx, r.store, prefixJob+job.ID, job)
}

func (r *Repo) GetJob(ctx context.Context, jobID string) (*MealPlanJob, error) {
	var j MealPlanJob
	found, err := r.get(ctx, prefixJob+jobID, &j)
	if err != nil || !found {
		return nil, err
	}
	return &j, nil
}

// ClearAll removes every per-user record kind. Used for account deletion
// and the bulk user-data clear.
func (r *Repo) ClearAll(ctx context.Context, userID string) error {
	prefixes := []string{
		prefixAuthUser, prefixDetails, prefixAPIKey, prefixMealPlan,
		prefixSymptoms, prefixChats, prefixActiveChat, prefixPins,
		prefixDrafts, prefixPersona, prefixFeedback, prefixStreak,
		prefixBadges, prefixWeekly,
	}
	for _, prefix := range prefixes {
		if err := r.store.Delete(ctx, prefix+userID); err != nil {
			return err
		}
	}
	return nil
}
