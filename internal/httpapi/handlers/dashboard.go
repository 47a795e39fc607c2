package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nutricoach/nutricoach/internal/common"
	"github.com/nutricoach/nutricoach/internal/flows"
	"github.com/nutricoach/nutricoach/internal/userdata"
)

// Dashboard records today's visit on the streak and returns the
// gamification state in one call.
func (h *Handler) Dashboard(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	streak, err := h.Gamify.TouchStreak(ctx, uid, time.Now())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	badges, err := h.Repo.GetBadges(ctx, uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{
		"streak": streak,
		"badges": badges,
	})
}

// WeeklySummary generates the recap when one is due. When the last
// summary is under a week old it reports due=false and skips the flow.
func (h *Handler) WeeklySummary(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	due, err := h.Gamify.WeeklySummaryDue(ctx, uid, time.Now())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	if !due {
		common.OK(c, gin.H{"due": false})
		return
	}

	logs, err := h.Repo.GetSymptomLogs(ctx, uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	cutoff := time.Now().AddDate(0, 0, -7)
	var week []userdata.SymptomLogEntry
	for _, l := range logs {
		if l.LogTime.After(cutoff) {
			week = append(week, l)
		}
	}

	streak, err := h.Repo.GetStreak(ctx, uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	var healthGoal string
	if details, err := h.Repo.GetDetails(ctx, uid); err == nil && details != nil {
		healthGoal = details.HealthGoal
	}
	apiKey, err := h.Repo.GetAPIKey(ctx, uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}

	out, err := h.Actions.SummarizeWeek(ctx, flows.WeeklySummaryInput{
		SymptomLogs: week,
		StreakCount: streak.Count,
		HealthGoal:  healthGoal,
		APIKey:      apiKey,
	})
	if err != nil {
		failFlow(c, err)
		return
	}
	common.OK(c, gin.H{"due": true, "summary": out})
}
