package controllers

import (
	"context"
	"net/http"
	"time"

	"urbanfix-be/config"
	"urbanfix-be/middlewares"
	"urbanfix-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FileFlag creates a pending flag on an issue. The unique (issue, user)
// index is the duplicate check; a concurrent second submission loses at the
// index, not at a racy pre-read.
func FileFlag(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	userObjID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		Reason      string `json:"reason" binding:"required"`
		Description string `json:"description" binding:"max=500"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidFlagReason(input.Reason) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reason"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := config.GetCollection("issues").CountDocuments(ctx, bson.M{"_id": issueID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}

	flag := models.Flag{
		ID:          primitive.NewObjectID(),
		Issue:       issueID,
		User:        userObjID,
		Reason:      models.FlagReason(input.Reason),
		Description: input.Description,
		Status:      models.FlagPending,
		CreatedAt:   time.Now(),
	}

	if _, err := config.GetCollection("flags").InsertOne(ctx, flag); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "You have already flagged this issue"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create flag"})
		return
	}

	c.JSON(http.StatusCreated, flag)
}

// ReviewFlag resolves a pending flag. The transition guard is part of the
// update filter, so only one review can ever win; approval forces the
// flagged issue to Closed and emits a status notification.
func ReviewFlag(c *gin.Context) {
	flagID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid flag ID"})
		return
	}

	reviewerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		Action      string `json:"action" binding:"required"`
		ReviewNotes string `json:"review_notes" binding:"max=500"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var newStatus models.FlagStatus
	switch input.Action {
	case "approve":
		newStatus = models.FlagApproved
	case "reject":
		newStatus = models.FlagRejected
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Action must be approve or reject"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	flagCollection := config.GetCollection("flags")

	var updated models.Flag
	err = flagCollection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": flagID, "status": models.FlagPending},
		bson.M{"$set": bson.M{
			"status":      newStatus,
			"reviewedBy":  reviewerID,
			"reviewedAt":  now,
			"reviewNotes": input.ReviewNotes,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to review flag"})
			return
		}
		// Distinguish a missing flag from one already reviewed
		count, countErr := flagCollection.CountDocuments(ctx, bson.M{"_id": flagID})
		if countErr == nil && count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Flag has already been reviewed"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Flag not found"})
		return
	}

	if newStatus == models.FlagApproved {
		// A validated flag takes the issue down
		var previous models.Issue
		err = config.GetCollection("issues").FindOneAndUpdate(
			ctx,
			bson.M{"_id": updated.Issue},
			bson.M{"$set": bson.M{"status": models.Closed, "updatedAt": now}},
		).Decode(&previous)
		if err == nil && previous.Status != models.Closed {
			notifyStatusChange(updated.Issue, string(models.Closed))
		}
	}

	c.JSON(http.StatusOK, updated)
}

// CountIssueFlags reports the visible flag pressure on an issue: pending and
// approved flags count, rejected ones do not.
func CountIssueFlags(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := config.GetCollection("flags").CountDocuments(ctx, bson.M{
		"issue":  issueID,
		"status": bson.M{"$in": []models.FlagStatus{models.FlagPending, models.FlagApproved}},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count flags"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"issueId": issueID.Hex(), "flagCount": count})
}

// GetFlags lists flags, paginated, filtered by status (pending by default).
// Admins see every flag; other users only the ones they filed.
func GetFlags(c *gin.Context) {
	userObjID, ok := currentUserID(c)
	if !ok {
		return
	}

	status := c.DefaultQuery("status", string(models.FlagPending))
	if status != "all" && !models.ValidFlagStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	params, err := ParseIssueListParams(map[string]string{
		"page":  c.Query("page"),
		"limit": c.Query("limit"),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := bson.M{}
	if status != "all" {
		filter["status"] = status
	}
	if !middlewares.IsAdmin(c) {
		filter["user"] = userObjID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	flagCollection := config.GetCollection("flags")

	totalCount, err := flagCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count flags"})
		return
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(params.Skip())).
		SetLimit(int64(params.Limit))

	cursor, err := flagCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve flags"})
		return
	}
	defer cursor.Close(ctx)

	var flags []models.Flag
	if err := cursor.All(ctx, &flags); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode flags"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"flags":      flags,
		"pagination": NewPaginationMeta(totalCount, params.Page, params.Limit),
	})
}
