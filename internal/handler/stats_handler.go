package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studytimer/backend/internal/service"
)

type StatsHandler struct {
	stats *service.StatsService
}

func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) Leaderboard(c *gin.Context) {
	rows, apiErr := h.stats.Leaderboard(
		c.Request.Context(),
		c.Param("id"),
		c.Query("key"),
		queryInt(c, "limit"),
	)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": rows})
}

func (h *StatsHandler) MemberStats(c *gin.Context) {
	stats, apiErr := h.stats.Stats(c.Request.Context(), c.Param("id"), c.Param("memberId"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *StatsHandler) MemberStreak(c *gin.Context) {
	streak, apiErr := h.stats.Streak(c.Request.Context(), c.Param("id"), c.Param("memberId"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streak": streak})
}

func (h *StatsHandler) TopStreaks(c *gin.Context) {
	streaks, apiErr := h.stats.TopStreaks(c.Request.Context(), c.Param("id"), queryInt(c, "limit"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streaks": streaks})
}

func queryInt(c *gin.Context, name string) int {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}
