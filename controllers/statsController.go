package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"urbanfix-be/config"
	"urbanfix-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func groupCounts(ctx context.Context, collection *mongo.Collection, field string) ([]bson.M, error) {
	pipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$" + field,
				"count": bson.M{"$sum": 1},
			},
		},
		{
			"$project": bson.M{
				"name":  "$_id",
				"value": "$count",
				"_id":   0,
			},
		},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []bson.M
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDashboard returns aggregate counts and breakdowns for the admin panel
func GetDashboard(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")
	flagCollection := config.GetCollection("flags")
	userCollection := config.GetCollection("users")

	issuesByCategory, err := groupCounts(ctx, issueCollection, "category")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get category breakdown"})
		return
	}

	issuesByStatus, err := groupCounts(ctx, issueCollection, "status")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get status breakdown"})
		return
	}

	// Last 7 days of issue volume
	var last7Days []gin.H
	for i := 6; i >= 0; i-- {
		date := time.Now().AddDate(0, 0, -i)
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		nextDate := date.AddDate(0, 0, 1)

		count, err := issueCollection.CountDocuments(ctx, bson.M{
			"createdAt": bson.M{
				"$gte": date,
				"$lt":  nextDate,
			},
		})
		if err != nil {
			count = 0
		}

		last7Days = append(last7Days, gin.H{
			"date":  date.Format("2006-01-02"),
			"count": count,
		})
	}

	totalIssues, err := issueCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		totalIssues = 0
	}

	openIssues, err := issueCollection.CountDocuments(ctx, bson.M{
		"status": bson.M{"$in": []models.IssueStatus{models.Reported, models.InProgress}},
	})
	if err != nil {
		openIssues = 0
	}

	pendingFlags, err := flagCollection.CountDocuments(ctx, bson.M{"status": models.FlagPending})
	if err != nil {
		pendingFlags = 0
	}

	totalUsers, err := userCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		totalUsers = 0
	}

	topUpvoted, err := topUpvotedIssues(ctx, issueCollection, 5)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rank upvoted issues"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"issuesByCategory": issuesByCategory,
		"issuesByStatus":   issuesByStatus,
		"last7Days":        last7Days,
		"topUpvotedIssues": topUpvoted,
		"totalIssues":      totalIssues,
		"openIssues":       openIssues,
		"pendingFlags":     pendingFlags,
		"totalUsers":       totalUsers,
	})
}

type rankedIssue struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Upvotes  int    `json:"upvotes"`
}

// topUpvotedIssues ranks the 50 most recent issues by upvote count and keeps
// the top n.
func topUpvotedIssues(ctx context.Context, collection *mongo.Collection, n int) ([]rankedIssue, error) {
	pipeline := []bson.M{
		{"$sort": bson.M{"createdAt": -1}},
		{"$limit": 50},
		{"$project": bson.M{
			"title":    1,
			"category": 1,
			"upvoteCount": bson.M{
				"$size": bson.M{"$ifNull": bson.A{"$upvotes", bson.A{}}},
			},
		}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID          primitive.ObjectID `bson:"_id"`
		Title       string             `bson:"title"`
		Category    string             `bson:"category"`
		UpvoteCount int                `bson:"upvoteCount"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	ranked := make([]rankedIssue, 0, len(rows))
	for _, row := range rows {
		ranked = append(ranked, rankedIssue{
			ID:       row.ID.Hex(),
			Title:    row.Title,
			Category: row.Category,
			Upvotes:  row.UpvoteCount,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Upvotes > ranked[j].Upvotes
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}
