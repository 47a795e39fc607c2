package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/nutricoach/nutricoach/internal/actions"
	"github.com/nutricoach/nutricoach/internal/ai"
	"github.com/nutricoach/nutricoach/internal/auth"
	"github.com/nutricoach/nutricoach/internal/chat"
	"github.com/nutricoach/nutricoach/internal/common"
	"github.com/nutricoach/nutricoach/internal/config"
	"github.com/nutricoach/nutricoach/internal/gamify"
	"github.com/nutricoach/nutricoach/internal/httpapi/middleware"
	"github.com/nutricoach/nutricoach/internal/store/rabbitmq"
	"github.com/nutricoach/nutricoach/internal/userdata"
	"go.uber.org/zap"
)

// Handler bundles the services every endpoint needs.
type Handler struct {
	Cfg     config.Config
	Repo    *userdata.Repo
	Auth    *auth.Service
	Chat    *chat.Service
	Actions *actions.Actions
	Gamify  *gamify.Service
	AI      *ai.Client
	Jobs    *rabbitmq.Publisher // nil when the broker is not configured
	Log     *zap.SugaredLogger

	// inflight tracks pending chat sends per (user, session). The guard
	// lives here, not in the data layer: it mirrors a disabled send
	// control, nothing stronger.
	inflight sync.Map
}

func NewHandler(cfg config.Config, repo *userdata.Repo, aiClient *ai.Client, jobs *rabbitmq.Publisher, log *zap.SugaredLogger) *Handler {
	acts := actions.New(aiClient)
	return &Handler{
		Cfg:     cfg,
		Repo:    repo,
		Auth:    auth.NewService(repo, cfg.JWTSecret),
		Chat:    chat.NewService(repo, acts, cfg.ChatHistoryWindow),
		Actions: acts,
		Gamify:  gamify.NewService(repo),
		AI:      aiClient,
		Jobs:    jobs,
		Log:     log,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"ai_available": h.AI.IsAvailable()})
}

func userIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// requireUser fetches the authenticated user id or writes the 401.
func requireUser(c *gin.Context) (string, bool) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
	}
	return uid, ok
}

// failWithData is like common.Fail but keeps a data payload, used where
// a stale cached result is served alongside the error banner.
func failWithData(c *gin.Context, httpStatus int, code int, msg string, data any) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
		"data":    data,
	})
}
