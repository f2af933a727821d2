package handlers

import (
	"github.com/gin-gonic/gin"

	"event-chat/internal/middleware"
)

// RegisterChatRoutes mounts the chat page and endpoints under /chat. Viewer
// resolution (middleware.SessionAuth) must run before these routes.
func RegisterChatRoutes(router gin.IRouter, h *ChatHandler, secureCookies bool) {
	chat := router.Group("/chat")
	chat.GET("/:event_id/", middleware.EnsureCSRFCookie(secureCookies), h.ChatPage)
	chat.GET("/:event_id/messages/", h.LoadMessages)

	mutating := chat.Group("", middleware.RequireUser(), middleware.CSRFProtect())
	mutating.POST("/:event_id/send/", h.SendMessage)
	mutating.POST("/message/:id/delete/", h.DeleteMessage)
	mutating.POST("/message/:id/highlight/", h.HighlightMessage)
}
