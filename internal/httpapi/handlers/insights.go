package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nutricoach/nutricoach/internal/actions"
	"github.com/nutricoach/nutricoach/internal/common"
	"github.com/nutricoach/nutricoach/internal/flows"
)

type dietaryReq struct {
	Habits       string   `json:"habits"`
	Restrictions []string `json:"restrictions"`
	Preferences  string   `json:"preferences"`
}

type shoppingListReq struct {
	MealPlan string `json:"mealPlan"`
}

func failFlow(c *gin.Context, err error) {
	if errors.Is(err, actions.ErrCredential) {
		common.Fail(c, http.StatusUnauthorized, 40120, err.Error())
		return
	}
	common.Fail(c, http.StatusBadGateway, 50201, err.Error())
}

func (h *Handler) AnalyzeDietaryHabits(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req dietaryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Habits == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "habits required")
		return
	}

	ctx := c.Request.Context()
	apiKey, err := h.Repo.GetAPIKey(ctx, uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	out, err := h.Actions.AnalyzeDietaryHabits(ctx, flows.DietaryHabitsInput{
		Habits:       req.Habits,
		Restrictions: req.Restrictions,
		Preferences:  req.Preferences,
		APIKey:       apiKey,
	})
	if err != nil {
		failFlow(c, err)
		return
	}
	common.OK(c, out)
}

func (h *Handler) GenerateShoppingList(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req shoppingListReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.MealPlan == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "mealPlan required")
		return
	}

	ctx := c.Request.Context()
	apiKey, err := h.Repo.GetAPIKey(ctx, uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	out, err := h.Actions.GenerateShoppingList(ctx, flows.ShoppingListInput{
		MealPlan: req.MealPlan,
		APIKey:   apiKey,
	})
	if err != nil {
		failFlow(c, err)
		return
	}
	common.OK(c, out)
}
