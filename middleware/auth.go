package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-learning-backend/models"
	"github.com/vnkhanh/e-learning-backend/services"
	"github.com/vnkhanh/e-learning-backend/utils"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

type Auth struct {
	tokens     *utils.TokenIssuer
	users      *services.UserService
	moderation *services.ModerationService
}

func NewAuth(tokens *utils.TokenIssuer, users *services.UserService, moderation *services.ModerationService) *Auth {
	return &Auth{tokens: tokens, users: users, moderation: moderation}
}

// bearerToken reads "Bearer <token>" from Authorization, falling back to
// X-Auth-Token for mobile clients.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		header = c.GetHeader("X-Auth-Token")
	}
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// authenticate verifies the token and the account behind it. On failure it
// aborts the request and returns false.
func (a *Auth) authenticate(c *gin.Context) bool {
	token, ok := bearerToken(c)
	if !ok {
		utils.Abort(c, http.StatusUnauthorized, "missing or malformed Authorization header")
		return false
	}
	claims, err := a.tokens.VerifyToken(token)
	if err != nil {
		utils.Abort(c, http.StatusUnauthorized, "invalid or expired token")
		return false
	}

	user, err := a.users.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		utils.Abort(c, http.StatusUnauthorized, "user not found")
		return false
	}
	if !user.IsActive {
		utils.Abort(c, http.StatusForbidden, "account is deactivated")
		return false
	}
	if user.IsBanned {
		utils.Abort(c, http.StatusForbidden, "account is banned")
		return false
	}

	c.Set(ctxUserID, user.ID)
	c.Set(ctxRole, string(user.Role))
	return true
}

// AuthMiddleware requires a valid token of an active, unbanned user.
func (a *Auth) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware identifies the caller when a valid token is sent
// and lets anonymous requests through otherwise.
func (a *Auth) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := a.tokens.VerifyToken(token)
		if err != nil {
			c.Next()
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// NotTimedOut rejects users serving a moderation timeout. An expired
// timeout is cleared by the check itself.
func (a *Auth) NotTimedOut() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			utils.Abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		status, err := a.moderation.Status(c.Request.Context(), userID)
		if err != nil {
			utils.Abort(c, http.StatusUnauthorized, "user not found")
			return
		}
		if status.IsTimedOut {
			c.JSON(http.StatusForbidden, utils.Response{
				Success:    false,
				Message:    "account is timed out",
				Data:       status,
				StatusCode: http.StatusForbidden,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func CurrentRole(c *gin.Context) models.UserRole {
	return models.UserRole(c.GetString(ctxRole))
}

// CurrentActor is the caller as seen by the catalog service.
func CurrentActor(c *gin.Context) services.Actor {
	id, _ := CurrentUserID(c)
	return services.Actor{ID: id, Role: CurrentRole(c)}
}
