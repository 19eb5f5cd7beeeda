package routes

import (
	"urbanfix-be/controllers"
	"urbanfix-be/middlewares"

	"github.com/gin-gonic/gin"
)

// FlagRoutes sets up the moderation routes
func FlagRoutes(r *gin.Engine) {
	flag := r.Group("/api/flag")
	{
		flag.POST("/issue/:id", middlewares.AuthMiddleware(), middlewares.RateLimiter("flag", 20), controllers.FileFlag)
		flag.GET("", middlewares.AuthMiddleware(), controllers.GetFlags)
		flag.GET("/issue/:id/count", controllers.CountIssueFlags)
		flag.PUT("/admin/:id/review", middlewares.AuthMiddleware(), middlewares.RequireAdmin(), controllers.ReviewFlag)
	}
}
