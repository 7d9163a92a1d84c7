package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studytimer/backend/internal/service"
)

// AdminHandler exposes the destructive operations behind the admin guard.
type AdminHandler struct {
	sessions *service.SessionService
	stats    *service.StatsService
}

func NewAdminHandler(sessions *service.SessionService, stats *service.StatsService) *AdminHandler {
	return &AdminHandler{sessions: sessions, stats: stats}
}

func (h *AdminHandler) ToggleMaintenance(c *gin.Context) {
	on, evicted, apiErr := h.sessions.ToggleMaintenance(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"maintenance": on,
		"evicted":     evicted,
	})
}

func (h *AdminHandler) ClearStats(c *gin.Context) {
	if apiErr := h.stats.Clear(c.Request.Context(), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
