package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Akin1234dot/Fifthlasb/internal/handlers"
	"github.com/Akin1234dot/Fifthlasb/internal/middleware"
)

func RegisterChatRoutes(r gin.IRouter) {
	chat := r.Group("/chat")
	chat.Use(middleware.AuthMiddleware())
	{
		chat.GET("/conversations", handlers.GetConversations)
		chat.GET("/messages", handlers.GetMessages) // ?userId= or ?conversationId=
		chat.POST("/messages", middleware.ChatRateLimit(), handlers.SendMessage)
		chat.DELETE("/messages/:id", handlers.DeleteMessage)
		chat.POST("/read/:conversationId", handlers.MarkRead)
	}
}
