package routes

import (
	"urbanfix-be/controllers"
	"urbanfix-be/middlewares"

	"github.com/gin-gonic/gin"
)

// StatsRoutes sets up the admin statistics routes
func StatsRoutes(r *gin.Engine) {
	stats := r.Group("/api/stats")
	{
		stats.GET("/dashboard", middlewares.AuthMiddleware(), middlewares.RequireAdmin(), controllers.GetDashboard)
	}
}
