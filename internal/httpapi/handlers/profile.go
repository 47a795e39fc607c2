package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nutricoach/nutricoach/internal/common"
	"github.com/nutricoach/nutricoach/internal/userdata"
)

func (h *Handler) GetDetails(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	details, err := h.Repo.GetDetails(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	if details == nil {
		// Onboarding not done yet; the client shows the form.
		common.OK(c, gin.H{"details": nil})
		return
	}
	common.OK(c, gin.H{"details": details})
}

func (h *Handler) SaveDetails(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req userdata.UserDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := h.Repo.SaveDetails(c.Request.Context(), uid, req); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"details": req})
}

type apiKeyReq struct {
	APIKey string `json:"apiKey"`
}

// SetAPIKey stores the user-supplied provider key. An empty key clears
// the stored one.
func (h *Handler) SetAPIKey(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req apiKeyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	ctx := c.Request.Context()
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		if err := h.Repo.RemoveAPIKey(ctx, uid); err != nil {
			common.Fail(c, http.StatusInternalServerError, 20001, "store error")
			return
		}
		common.OK(c, gin.H{"configured": false})
		return
	}
	if err := h.Repo.SaveAPIKey(ctx, uid, key); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"configured": true})
}

// GetAPIKeyStatus never returns the key itself, only whether one is set.
func (h *Handler) GetAPIKeyStatus(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	key, err := h.Repo.GetAPIKey(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"configured": key != ""})
}
