package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nutricoach/nutricoach/internal/actions"
	"github.com/nutricoach/nutricoach/internal/common"
	"github.com/nutricoach/nutricoach/internal/flows"
	"github.com/nutricoach/nutricoach/internal/store/rabbitmq"
	"github.com/nutricoach/nutricoach/internal/userdata"
)

type mealPlanReq struct {
	DietaryPreferences string   `json:"dietaryPreferences"`
	CalorieIntake      int      `json:"calorieIntake"`
	Allergies          []string `json:"allergies"`
	Cuisine            string   `json:"cuisine"`
	CookingTime        string   `json:"cookingTime"`
}

func (h *Handler) mealPlanInput(c *gin.Context, uid string) (flows.MealPlanInput, bool) {
	var req mealPlanReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return flows.MealPlanInput{}, false
	}

	apiKey, err := h.Repo.GetAPIKey(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return flows.MealPlanInput{}, false
	}
	if !h.AI.IsAvailable() && apiKey == "" {
		common.Fail(c, http.StatusServiceUnavailable, 50301, actions.CredentialErrorMessage)
		return flows.MealPlanInput{}, false
	}

	return flows.MealPlanInput{
		DietaryPreferences: req.DietaryPreferences,
		CalorieIntake:      req.CalorieIntake,
		Allergies:          req.Allergies,
		Cuisine:            req.Cuisine,
		CookingTime:        req.CookingTime,
		APIKey:             apiKey,
	}, true
}

// GenerateMealPlan runs generation synchronously. On failure the last
// cached plan, if any, rides along with the error so the client can keep
// showing it.
func (h *Handler) GenerateMealPlan(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	input, ok := h.mealPlanInput(c, uid)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	out, err := h.Actions.GenerateMealPlan(ctx, input)
	if err != nil {
		cached, _ := h.Repo.GetMealPlan(ctx, uid)
		status := http.StatusBadGateway
		code := 50201
		if errors.Is(err, actions.ErrCredential) {
			status, code = http.StatusUnauthorized, 40120
		}
		failWithData(c, status, code, err.Error(), gin.H{"cached": cached})
		return
	}

	cached := userdata.CachedMealPlan{
		Plan: userdata.MealPlan{
			Days:          out.Days,
			TotalCalories: out.TotalCalories,
			Notes:         out.Notes,
		},
		GeneratedAt: time.Now(),
	}
	if err := h.Repo.SaveMealPlan(ctx, uid, cached); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"plan": cached})
}

func (h *Handler) GetMealPlan(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	cached, err := h.Repo.GetMealPlan(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"plan": cached})
}

// CreateMealPlanJob queues generation on the broker instead of blocking
// the request. Available only when a publisher is configured.
func (h *Handler) CreateMealPlanJob(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Jobs == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50302, "async generation not available")
		return
	}
	input, ok := h.mealPlanInput(c, uid)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	jobID, err := common.NewULID()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "id generation failed")
		return
	}
	now := time.Now()
	job := userdata.MealPlanJob{
		ID:        jobID,
		UserID:    uid,
		Status:    userdata.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Repo.SaveJob(ctx, job); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	msg := rabbitmq.JobMessage{JobID: jobID, UserID: uid, Input: input}
	if err := h.Jobs.PublishJob(ctx, msg); err != nil {
		h.Log.Errorw("publish job failed", "job_id", jobID, "err", err)
		job.Status = userdata.JobFailed
		job.Error = "queueing failed"
		job.UpdatedAt = time.Now()
		_ = h.Repo.SaveJob(ctx, job)
		common.Fail(c, http.StatusInternalServerError, 20002, "queueing failed")
		return
	}

	common.OK(c, gin.H{"job": job})
}

func (h *Handler) GetMealPlanJob(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	job, err := h.Repo.GetJob(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	if job == nil || job.UserID != uid {
		common.Fail(c, http.StatusNotFound, 40401, "job not found")
		return
	}
	common.OK(c, gin.H{"job": job})
}
