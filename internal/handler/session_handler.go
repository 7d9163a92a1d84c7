package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "studytimer/backend/internal/errors"
	"studytimer/backend/internal/service"
)

type SessionHandler struct {
	sessions *service.SessionService
}

type joinRequest struct {
	MemberID string `json:"memberId"`
	Mode     string `json:"mode"`
}

type leaveRequest struct {
	MemberID string `json:"memberId"`
}

func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}
	if req.MemberID == "" {
		writeError(c, apperrors.BadRequest("invalid_member_id", "memberId is required"))
		return
	}

	participant, apiErr := h.sessions.Join(c.Request.Context(), c.Param("id"), req.MemberID, req.Mode)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participant": participant})
}

func (h *SessionHandler) Leave(c *gin.Context) {
	var req leaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}
	if req.MemberID == "" {
		writeError(c, apperrors.BadRequest("invalid_member_id", "memberId is required"))
		return
	}

	result, apiErr := h.sessions.Leave(c.Request.Context(), c.Param("id"), req.MemberID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mode":            result.Mode,
		"minutesCredited": result.MinutesCredited,
	})
}

func (h *SessionHandler) Active(c *gin.Context) {
	mode := c.Query("mode")
	members, apiErr := h.sessions.Active(c.Request.Context(), c.Param("id"), mode)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *SessionHandler) Phase(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"phases": h.sessions.PhaseStatus(time.Now())})
}
