package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillquest/skillquest-backend/internal/services"
)

type LeaderboardHandler struct {
	progressService services.ProgressService
}

func NewLeaderboardHandler(progressService services.ProgressService) *LeaderboardHandler {
	return &LeaderboardHandler{progressService: progressService}
}

func (h *LeaderboardHandler) Get(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	entries, err := h.progressService.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"entries": entries, "total_count": len(entries)})
}

func (h *LeaderboardHandler) GetProgress(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	progress, err := h.progressService.GetProgress(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, progress)
}
