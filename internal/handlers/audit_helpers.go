package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"event-chat/internal/middleware"
)

func requestIDFromContext(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}

	requestID := c.GetHeader(middleware.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *int64 {
	if user := middleware.CurrentUser(c); user != nil {
		id := user.ID
		return &id
	}
	return nil
}
