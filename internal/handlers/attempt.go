package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/skillquest/skillquest-backend/internal/pkg/errors"
	"github.com/skillquest/skillquest-backend/internal/requestdata"
	"github.com/skillquest/skillquest-backend/internal/services"
)

type AttemptHandler struct {
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", apperrors.ErrUnauthorized)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

type startAttemptRequest struct {
	ChallengeID uuid.UUID `json:"challenge_id" binding:"required"`
}

func (h *AttemptHandler) Start(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req startAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	attempt, err := h.attemptService.Start(c.Request.Context(), userID, req.ChallengeID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"attempt": attempt})
}

type submitAttemptRequest struct {
	Score    *int   `json:"score" binding:"required"`
	Solution string `json:"solution"`
}

func (h *AttemptHandler) Submit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	var req submitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	attempt, err := h.attemptService.Submit(c.Request.Context(), userID, attemptID, *req.Score, req.Solution)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"attempt": attempt})
}

func (h *AttemptHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	attempts, err := h.attemptService.ListForUser(c.Request.Context(), userID, 0)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"attempts": attempts})
}
