package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nutricoach/nutricoach/internal/common"
	"github.com/nutricoach/nutricoach/internal/userdata"
)

type symptomLogReq struct {
	MealName          string    `json:"mealName"`
	LogTime           time.Time `json:"logTime"`
	EnergyLevel       string    `json:"energyLevel"`
	Mood              string    `json:"mood"`
	DigestiveSymptoms []string  `json:"digestiveSymptoms"`
	OtherSymptoms     []string  `json:"otherSymptoms"`
	Notes             string    `json:"notes"`
}

var validEnergyLevels = map[string]bool{
	userdata.EnergyLow:    true,
	userdata.EnergyMedium: true,
	userdata.EnergyHigh:   true,
}

func (h *Handler) CreateSymptomLog(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req symptomLogReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.MealName == "" || req.LogTime.IsZero() {
		common.Fail(c, http.StatusBadRequest, 10002, "mealName and logTime required")
		return
	}
	if req.EnergyLevel != "" && !validEnergyLevels[req.EnergyLevel] {
		common.Fail(c, http.StatusBadRequest, 10003, "energyLevel must be low, medium or high")
		return
	}

	entry := userdata.SymptomLogEntry{
		ID:                uuid.NewString(),
		MealName:          req.MealName,
		LogTime:           req.LogTime,
		EnergyLevel:       req.EnergyLevel,
		Mood:              req.Mood,
		DigestiveSymptoms: req.DigestiveSymptoms,
		OtherSymptoms:     req.OtherSymptoms,
		Notes:             req.Notes,
		LoggedAt:          time.Now(),
	}
	if err := h.Repo.AddSymptomLog(c.Request.Context(), uid, entry); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"entry": entry})
}

// ListSymptomLogs returns the journal newest first.
func (h *Handler) ListSymptomLogs(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	logs, err := h.Repo.GetSymptomLogs(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"logs": logs})
}
