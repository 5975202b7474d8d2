package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Akin1234dot/Fifthlasb/internal/handlers"
	"github.com/Akin1234dot/Fifthlasb/internal/middleware"
)

func RegisterAuthRoutes(r gin.IRouter) {
	r.POST("/register", handlers.Register)
	r.POST("/login", handlers.Login)
	r.POST("/logout", middleware.AuthMiddleware(), handlers.Logout)

	// Provider sign-in
	r.GET("/google/login", handlers.GoogleLogin)
	r.GET("/google/callback", handlers.GoogleCallback)

	// Password reset
	r.POST("/forgot-password", handlers.ForgotPassword)
	r.POST("/reset-password", handlers.ResetPassword)
}
