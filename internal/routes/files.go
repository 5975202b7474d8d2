package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Akin1234dot/Fifthlasb/internal/handlers"
	"github.com/Akin1234dot/Fifthlasb/internal/middleware"
)

func RegisterFileRoutes(r gin.IRouter) {
	files := r.Group("/files")
	files.Use(middleware.AuthMiddleware())
	{
		files.GET("", handlers.ListFiles) // ?search=
		files.POST("", middleware.UploadRateLimit(), handlers.UploadSharedFile)
		files.DELETE("/:id", handlers.DeleteFile)
	}

	r.POST("/upload/avatar", middleware.AuthMiddleware(), middleware.UploadRateLimit(), handlers.UploadAvatar)
}
