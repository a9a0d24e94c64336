package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-learning-backend/middleware"
	"github.com/vnkhanh/e-learning-backend/models"
	"github.com/vnkhanh/e-learning-backend/services"
	"github.com/vnkhanh/e-learning-backend/utils"
)

type RegisterInput struct {
	Username  string `json:"username" binding:"required,min=3,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role" binding:"omitempty,oneof=Student Instructor"`
}

type LoginInput struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ProfileInput struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Bio               string `json:"bio"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

type AuthController struct {
	users  *services.UserService
	tokens *utils.TokenIssuer
}

func NewAuthController(users *services.UserService, tokens *utils.TokenIssuer) *AuthController {
	return &AuthController{users: users, tokens: tokens}
}

func (h *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Username:  input.Username,
		Email:     input.Email,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Role:      models.UserRole(input.Role),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "registered", user)
}

func (h *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.users.Authenticate(c.Request.Context(), input.Login, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := h.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "logged in", gin.H{"token": token, "user": user})
}

func (h *AuthController) Me(c *gin.Context) {
	id, _ := middleware.CurrentUserID(c)
	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", user)
}

func (h *AuthController) UpdateMe(c *gin.Context) {
	var input ProfileInput
	if !bindJSON(c, &input) {
		return
	}
	id, _ := middleware.CurrentUserID(c)
	user, err := h.users.UpdateProfile(c.Request.Context(), id, services.ProfileInput{
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		Bio:               input.Bio,
		ProfilePictureURL: input.ProfilePictureURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "profile updated", user)
}
