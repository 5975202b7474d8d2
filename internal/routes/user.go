package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Akin1234dot/Fifthlasb/internal/handlers"
	"github.com/Akin1234dot/Fifthlasb/internal/middleware"
)

func RegisterUserRoutes(r gin.IRouter) {
	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.GET("/me", handlers.GetMe)
		users.PUT("/me", handlers.UpdateProfile)

		// Directory & search: ?search=
		users.GET("", handlers.GetDirectory)
	}

	r.GET("/dashboard", middleware.AuthMiddleware(), handlers.GetDashboard)
}
