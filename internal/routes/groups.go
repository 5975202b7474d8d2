package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Akin1234dot/Fifthlasb/internal/handlers"
	"github.com/Akin1234dot/Fifthlasb/internal/middleware"
)

func RegisterGroupRoutes(r gin.IRouter) {
	groups := r.Group("/groups")
	groups.Use(middleware.AuthMiddleware())
	{
		groups.POST("", handlers.CreateGroup)
		groups.GET("", handlers.ListGroups)
		groups.GET("/:id", handlers.GetGroup)
		groups.DELETE("/:id", handlers.DeleteGroup)
	}
}
