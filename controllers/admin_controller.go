package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-learning-backend/models"
	"github.com/vnkhanh/e-learning-backend/services"
	"github.com/vnkhanh/e-learning-backend/utils"
)

type BanInput struct {
	IsBanned bool `json:"is_banned"`
}

// TimeoutInput is capped at ten years.
type TimeoutInput struct {
	TimeoutHours int `json:"timeout_hours" binding:"lte=87600"`
}

type ActiveInput struct {
	IsActive bool `json:"is_active"`
}

// AdminController exposes user management and direct sanctions.
type AdminController struct {
	users      *services.UserService
	moderation *services.ModerationService
	now        func() time.Time
}

func NewAdminController(users *services.UserService, moderation *services.ModerationService) *AdminController {
	return &AdminController{users: users, moderation: moderation, now: func() time.Time { return time.Now().UTC() }}
}

func (h *AdminController) ListUsers(c *gin.Context) {
	role := models.UserRole(c.Query("role"))
	if role != "" && !role.Valid() {
		respondError(c, services.ErrInvalidRole)
		return
	}
	users, err := h.users.ListUsers(c.Request.Context(), role)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", users)
}

func (h *AdminController) Sanction(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	status, err := h.moderation.Status(c.Request.Context(), userID)
	if err != nil {
		respondAccess(c, err)
		return
	}
	utils.Success(c, "", status)
}

func (h *AdminController) Ban(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input BanInput
	if !bindJSON(c, &input) {
		return
	}
	ctx := c.Request.Context()
	if err := h.moderation.Ban(ctx, userID, input.IsBanned); err != nil {
		respondError(c, err)
		return
	}
	h.respondStatus(c, userID, "ban updated")
}

// Timeout suspends the user for the given hours. Zero or less lifts the
// current timeout.
func (h *AdminController) Timeout(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input TimeoutInput
	if !bindJSON(c, &input) {
		return
	}
	var until *time.Time
	if input.TimeoutHours > 0 {
		t := h.now().Add(time.Duration(input.TimeoutHours) * time.Hour)
		until = &t
	}
	if err := h.moderation.SetTimeout(c.Request.Context(), userID, until); err != nil {
		respondError(c, err)
		return
	}
	h.respondStatus(c, userID, "timeout updated")
}

func (h *AdminController) SetActive(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input ActiveInput
	if !bindJSON(c, &input) {
		return
	}
	if err := h.moderation.SetActive(c.Request.Context(), userID, input.IsActive); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "account updated", gin.H{"user_id": userID, "is_active": input.IsActive})
}

func (h *AdminController) respondStatus(c *gin.Context, userID uint, msg string) {
	status, err := h.moderation.Status(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, msg, status)
}
