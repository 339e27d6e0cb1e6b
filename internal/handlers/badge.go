package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/skillquest/skillquest-backend/internal/services"
	"github.com/skillquest/skillquest-backend/internal/types"
)

type BadgeHandler struct {
	badgeService services.BadgeService
}

func NewBadgeHandler(badgeService services.BadgeService) *BadgeHandler {
	return &BadgeHandler{badgeService: badgeService}
}

type badgeRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Condition   json.RawMessage `json:"condition" binding:"required"`
	IconURL     string          `json:"icon_url"`
}

func (h *BadgeHandler) Create(c *gin.Context) {
	var req badgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	badge, err := h.badgeService.Create(c.Request.Context(), &types.Badge{
		Name:        req.Name,
		Description: req.Description,
		Condition:   datatypes.JSON(req.Condition),
		IconURL:     req.IconURL,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"badge": badge})
}

func (h *BadgeHandler) List(c *gin.Context) {
	badges, err := h.badgeService.List(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"badges": badges})
}

func (h *BadgeHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	badge, err := h.badgeService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"badge": badge})
}

func (h *BadgeHandler) ListForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	awards, err := h.badgeService.GetUserBadges(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"badges": awards})
}
