package main

import (
	"net/http"
	"os"
	"strings"

	"urbanfix-be/config"
	"urbanfix-be/controllers"
	"urbanfix-be/models"
	"urbanfix-be/routes"
	"urbanfix-be/services/notify"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	db := config.ConnectDB()
	if db == nil {
		logrus.Fatal("Failed to connect to MongoDB")
	}

	if err := models.EnsureIssueIndexes(config.GetCollection("issues")); err != nil {
		logrus.Fatalf("Failed to create issue indexes: %v", err)
	}
	if err := models.EnsureUserIndexes(config.GetCollection("users")); err != nil {
		logrus.Fatalf("Failed to create user indexes: %v", err)
	}
	if err := models.EnsureFlagIndexes(config.GetCollection("flags")); err != nil {
		logrus.Fatalf("Failed to create flag indexes: %v", err)
	}

	config.ConnectRedis()
	controllers.Notifier = notify.NewRedisNotifier(config.RedisClient, os.Getenv("NOTIFY_CHANNEL"))

	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = strings.Split(origins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	corsConfig.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsConfig))

	routes.AuthRoutes(r)
	routes.IssueRoutes(r)
	routes.FlagRoutes(r)
	routes.StatsRoutes(r)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
