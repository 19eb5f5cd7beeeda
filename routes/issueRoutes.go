package routes

import (
	"urbanfix-be/controllers"
	"urbanfix-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine) {
	issue := r.Group("/api/issue")
	{
		issue.POST("/create", middlewares.AuthMiddleware(), middlewares.RateLimiter("issue", 10), controllers.CreateIssue)
		issue.GET("", middlewares.OptionalAuth(), controllers.GetAllIssues)
		issue.GET("/nearby", controllers.NearbyIssues)
		issue.GET("/mine", middlewares.AuthMiddleware(), controllers.GetMyIssues)
		issue.GET("/:id", middlewares.OptionalAuth(), controllers.GetIssue)
		issue.PUT("/:id", middlewares.AuthMiddleware(), controllers.UpdateIssue)
		issue.DELETE("/:id", middlewares.AuthMiddleware(), controllers.DeleteIssue)
		issue.PUT("/:id/upvote", middlewares.AuthMiddleware(), controllers.ToggleUpvote)
		issue.PUT("/:id/status", middlewares.AuthMiddleware(), middlewares.RequireAdmin(), controllers.UpdateIssueStatus)
	}
}
