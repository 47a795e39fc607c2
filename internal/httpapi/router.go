package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nutricoach/nutricoach/internal/common"
	"github.com/nutricoach/nutricoach/internal/httpapi/handlers"
	"github.com/nutricoach/nutricoach/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(h.Log))
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	// auth
	r.POST("/auth/login", h.Login)
	r.POST("/auth/signup", h.Signup)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(h.Cfg.JWTSecret))

	authGroup.GET("/me", h.Me)
	authGroup.POST("/auth/logout", h.Logout)
	authGroup.DELETE("/account", h.DeleteAccount)

	// profile and settings
	authGroup.GET("/profile", h.GetDetails)
	authGroup.PUT("/profile", h.SaveDetails)
	authGroup.PUT("/settings/api-key", h.SetAPIKey)
	authGroup.GET("/settings/api-key", h.GetAPIKeyStatus)

	// meal plans
	authGroup.POST("/mealplan/generate", h.GenerateMealPlan)
	authGroup.GET("/mealplan", h.GetMealPlan)
	authGroup.POST("/mealplan/jobs", h.CreateMealPlanJob)
	authGroup.GET("/mealplan/jobs/:job_id", h.GetMealPlanJob)

	// insights
	authGroup.POST("/insights/dietary", h.AnalyzeDietaryHabits)
	authGroup.POST("/insights/shopping-list", h.GenerateShoppingList)

	// symptom journal
	authGroup.POST("/symptoms", h.CreateSymptomLog)
	authGroup.GET("/symptoms", h.ListSymptomLogs)

	// chat
	authGroup.POST("/chat/sessions", h.CreateChatSession)
	authGroup.GET("/chat/sessions", h.ListChatSessions)
	authGroup.POST("/chat/sessions/:session_id/activate", h.LoadChatSession)
	authGroup.POST("/chat/sessions/:session_id/messages", h.SendChatMessage)
	authGroup.DELETE("/chat/sessions/:session_id", h.DeleteChatSession)
	authGroup.DELETE("/chat/sessions", h.ClearChatSessions)
	authGroup.PUT("/chat/sessions/:session_id/draft", h.SaveChatDraft)
	authGroup.GET("/chat/sessions/:session_id/draft", h.GetChatDraft)
	authGroup.POST("/chat/sessions/:session_id/pin", h.TogglePin)
	authGroup.PUT("/chat/persona", h.SetPersona)
	authGroup.POST("/chat/feedback", h.AddFeedback)

	// dashboard
	authGroup.GET("/dashboard", h.Dashboard)
	authGroup.POST("/dashboard/weekly-summary", h.WeeklySummary)

	return r
}
