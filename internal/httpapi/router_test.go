package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/nutricoach/nutricoach/internal/ai"
	"github.com/nutricoach/nutricoach/internal/config"
	"github.com/nutricoach/nutricoach/internal/httpapi/handlers"
	"github.com/nutricoach/nutricoach/internal/kvstore"
	"github.com/nutricoach/nutricoach/internal/userdata"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestRouterWith(t *testing.T, client *ai.Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store, err := kvstore.NewGormStore(gdb)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	repo := userdata.NewRepo(store)

	cfg := config.Config{JWTSecret: "test-secret"}
	h := handlers.NewHandler(cfg, repo, client, nil, zap.NewNop().Sugar())
	h.Auth.SetDelay(0)
	return NewRouter(h)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return newTestRouterWith(t, ai.Unconfigured())
}

// capturingProvider records the per-call key override it was handed.
type capturingProvider struct {
	reply  string
	apiKey string
}

func (p *capturingProvider) Chat(ctx context.Context, messages []ai.Message, opts ai.Options) (string, error) {
	_ = ctx
	_ = messages
	p.apiKey = opts.APIKey
	return p.reply, nil
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "demo",
		"password": "password",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if resp.Data.Token == "" {
		t.Fatal("empty token")
	}
	return resp.Data.Token
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("/me without token = %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/me", "not-a-jwt", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("/me with garbage token = %d", w.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "demo",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d", w.Code)
	}
}

func TestLoginThenMe(t *testing.T) {
	r := newTestRouter(t)
	token := loginToken(t, r)

	w := doJSON(t, r, http.MethodGet, "/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("/me status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data userdata.AuthUser `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if resp.Data.Username != "demo" {
		t.Fatalf("unexpected user: %+v", resp.Data)
	}
}

func TestSymptomLogRoundTrip(t *testing.T) {
	r := newTestRouter(t)
	token := loginToken(t, r)

	w := doJSON(t, r, http.MethodPost, "/symptoms", token, map[string]any{
		"mealName":    "lentil soup",
		"logTime":     time.Now().Format(time.RFC3339),
		"energyLevel": "medium",
		"mood":        "content",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/symptoms", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var resp struct {
		Data struct {
			Logs []userdata.SymptomLogEntry `json:"logs"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(resp.Data.Logs) != 1 || resp.Data.Logs[0].MealName != "lentil soup" {
		t.Fatalf("unexpected logs: %+v", resp.Data.Logs)
	}
}

func TestSymptomLogRejectsBadEnergyLevel(t *testing.T) {
	r := newTestRouter(t)
	token := loginToken(t, r)

	w := doJSON(t, r, http.MethodPost, "/symptoms", token, map[string]any{
		"mealName":    "toast",
		"logTime":     time.Now().Format(time.RFC3339),
		"energyLevel": "supersonic",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad energy level status = %d", w.Code)
	}
}

func TestMealPlanGenerateUnavailableWithoutProviderOrKey(t *testing.T) {
	r := newTestRouter(t)
	token := loginToken(t, r)

	w := doJSON(t, r, http.MethodPost, "/mealplan/generate", token, map[string]any{
		"dietaryPreferences": "vegetarian",
		"calorieIntake":      2000,
	})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("generate without provider = %d, body %s", w.Code, w.Body.String())
	}
}

func TestStoredAPIKeyUsedForGeneration(t *testing.T) {
	p := &capturingProvider{
		reply: `{"days":[{"day":"Monday","breakfast":"oats","lunch":"salad","dinner":"soup"}],"totalCalories":2000}`,
	}
	r := newTestRouterWith(t, ai.NewClient(p))
	token := loginToken(t, r)

	w := doJSON(t, r, http.MethodPut, "/settings/api-key", token, map[string]string{
		"apiKey": "sk-user-supplied",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("set api key status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/mealplan/generate", token, map[string]any{
		"dietaryPreferences": "vegetarian",
		"calorieIntake":      2000,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body %s", w.Code, w.Body.String())
	}
	if p.apiKey != "sk-user-supplied" {
		t.Fatalf("provider saw key %q, want the stored user key", p.apiKey)
	}
}

func TestAsyncJobsUnavailableWithoutBroker(t *testing.T) {
	r := newTestRouter(t)
	token := loginToken(t, r)

	w := doJSON(t, r, http.MethodPost, "/mealplan/jobs", token, map[string]any{
		"dietaryPreferences": "vegan",
		"calorieIntake":      1800,
	})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("jobs without broker = %d", w.Code)
	}
}
