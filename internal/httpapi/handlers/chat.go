package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nutricoach/nutricoach/internal/chat"
	"github.com/nutricoach/nutricoach/internal/common"
	"github.com/nutricoach/nutricoach/internal/userdata"
)

type sendMessageReq struct {
	Message string `json:"message"`
}

type draftReq struct {
	Text string `json:"text"`
}

type personaReq struct {
	Persona string `json:"persona"`
}

type feedbackReq struct {
	SessionID string `json:"sessionId"`
	MessageID string `json:"messageId"`
	Helpful   bool   `json:"helpful"`
	Comment   string `json:"comment"`
}

func (h *Handler) CreateChatSession(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	session, err := h.Chat.NewChat(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"session": session})
}

func (h *Handler) ListChatSessions(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sessions, pinned, err := h.Chat.ListSessions(ctx, uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	activeID, err := h.Repo.GetActiveChatID(ctx, uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{
		"sessions":  sessions,
		"pinned":    pinned,
		"active_id": activeID,
	})
}

// LoadChatSession activates the named session; a missing id falls back to
// a fresh one rather than erroring.
func (h *Handler) LoadChatSession(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	session, err := h.Chat.LoadSession(c.Request.Context(), uid, c.Param("session_id"))
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"session": session})
}

// SendChatMessage appends the user turn and runs the assistant. One send
// per session at a time; a second concurrent send gets 409.
func (h *Handler) SendChatMessage(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID := c.Param("session_id")
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Message == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "message required")
		return
	}

	guard := uid + "/" + sessionID
	if _, busy := h.inflight.LoadOrStore(guard, struct{}{}); busy {
		common.Fail(c, http.StatusConflict, 40901, "a message is already being processed")
		return
	}
	defer h.inflight.Delete(guard)

	session, err := h.Chat.Send(c.Request.Context(), uid, sessionID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "session not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"session": session})
}

func (h *Handler) DeleteChatSession(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	session, err := h.Chat.DeleteSession(c.Request.Context(), uid, c.Param("session_id"))
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"session": session})
}

func (h *Handler) ClearChatSessions(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	session, err := h.Chat.ClearAll(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"session": session})
}

func (h *Handler) SaveChatDraft(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req draftReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := h.Chat.SaveDraft(c.Request.Context(), uid, c.Param("session_id"), req.Text); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"saved": true})
}

func (h *Handler) GetChatDraft(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	text, err := h.Chat.GetDraft(c.Request.Context(), uid, c.Param("session_id"))
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"text": text})
}

func (h *Handler) TogglePin(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	pinned, err := h.Chat.TogglePin(c.Request.Context(), uid, c.Param("session_id"))
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"pinned": pinned})
}

func (h *Handler) SetPersona(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req personaReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := h.Chat.SetPersona(c.Request.Context(), uid, req.Persona); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"persona": req.Persona})
}

func (h *Handler) AddFeedback(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req feedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.SessionID == "" || req.MessageID == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "sessionId and messageId required")
		return
	}
	fb := userdata.FeedbackEntry{
		SessionID: req.SessionID,
		MessageID: req.MessageID,
		Helpful:   req.Helpful,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}
	if err := h.Chat.AddFeedback(c.Request.Context(), uid, fb); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"recorded": true})
}
