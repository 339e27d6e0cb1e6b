package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/skillquest/skillquest-backend/internal/repos"
	"github.com/skillquest/skillquest-backend/internal/services"
	"github.com/skillquest/skillquest-backend/internal/types"
)

type ChallengeHandler struct {
	challengeService services.ChallengeService
}

func NewChallengeHandler(challengeService services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

type challengeRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	XP          int      `json:"xp" binding:"required"`
	Difficulty  string   `json:"difficulty" binding:"required"`
	Tags        []string `json:"tags"`
	Published   *bool    `json:"published"`
}

func (h *ChallengeHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req challengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	tags, _ := json.Marshal(req.Tags)
	published := true
	if req.Published != nil {
		published = *req.Published
	}
	challenge, err := h.challengeService.Create(c.Request.Context(), &types.Challenge{
		Title:       req.Title,
		Description: req.Description,
		XP:          req.XP,
		Difficulty:  req.Difficulty,
		Tags:        datatypes.JSON(tags),
		CreatedBy:   &userID,
		Published:   published,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"challenge": challenge})
}

func (h *ChallengeHandler) List(c *gin.Context) {
	challenges, err := h.challengeService.List(c.Request.Context(), repos.ChallengeFilter{
		Difficulty:    c.Query("difficulty"),
		PublishedOnly: true,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"challenges": challenges})
}

func (h *ChallengeHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	challenge, err := h.challengeService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"challenge": challenge})
}

func (h *ChallengeHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	updates := map[string]interface{}{}
	for _, field := range []string{"title", "description", "xp", "difficulty", "published"} {
		if v, ok := req[field]; ok {
			updates[field] = v
		}
	}
	challenge, err := h.challengeService.Update(c.Request.Context(), id, updates)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"challenge": challenge})
}

func (h *ChallengeHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	if err := h.challengeService.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
