package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"event-chat/internal/models"
	"event-chat/internal/repositories"
)

const (
	// SessionCookie carries the login session token.
	SessionCookie = "sessionid"

	userContextKey = "user"
)

// SessionAuth resolves the viewer from the sessionid cookie or a bearer token.
// Anonymous requests pass through without a user; RequireUser enforces one.
func SessionAuth(users repositories.UserRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.Next()
			return
		}

		user, err := users.GetUserBySession(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, repositories.ErrSessionNotFound) {
				logger.Warn("session lookup failed", zap.Error(err))
			}
			c.Next()
			return
		}

		c.Set(userContextKey, &user)
		c.Set("userID", user.ID)
		c.Next()
	}
}

// RequireUser rejects requests without an authenticated viewer.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authentication required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the viewer resolved by SessionAuth, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if val, ok := c.Get(userContextKey); ok {
		if user, ok := val.(*models.User); ok {
			return user
		}
	}
	return nil
}

// SetCurrentUser stores user as the request's viewer.
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(userContextKey, user)
	c.Set("userID", user.ID)
}

func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}
