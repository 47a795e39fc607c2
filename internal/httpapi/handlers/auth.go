package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nutricoach/nutricoach/internal/auth"
	"github.com/nutricoach/nutricoach/internal/common"
)

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signupReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Username == "" || req.Password == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "username and password required")
		return
	}

	user, token, err := h.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			common.Fail(c, http.StatusUnauthorized, 40110, "invalid username or password")
			return
		}
		h.Log.Errorw("login failed", "err", err)
		common.Fail(c, http.StatusInternalServerError, 20001, "login failed")
		return
	}

	common.OK(c, gin.H{"user": user, "token": token})
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "username, email and password required")
		return
	}

	user, token, err := h.Auth.Signup(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		h.Log.Errorw("signup failed", "err", err)
		common.Fail(c, http.StatusInternalServerError, 20001, "signup failed")
		return
	}

	common.OK(c, gin.H{"user": user, "token": token})
}

func (h *Handler) Me(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	user, err := h.Repo.GetAuthUser(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	if user == nil {
		common.Fail(c, http.StatusUnauthorized, 40103, "session expired")
		return
	}
	common.OK(c, user)
}

func (h *Handler) Logout(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.Auth.Logout(c.Request.Context(), uid); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "logout failed")
		return
	}
	common.OK(c, gin.H{"logged_out": true})
}

func (h *Handler) DeleteAccount(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.Auth.DeleteAccount(c.Request.Context(), uid); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "delete failed")
		return
	}
	common.OK(c, gin.H{"deleted": true})
}
