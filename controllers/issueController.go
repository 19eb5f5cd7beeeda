package controllers

import (
	"context"
	"net/http"
	"time"

	"urbanfix-be/config"
	"urbanfix-be/middlewares"
	"urbanfix-be/models"
	"urbanfix-be/services/notify"

	"github.com/gin-gonic/gin"
	"github.com/golang/geo/s2"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Notifier receives status-change events; main swaps in the Redis-backed one.
var Notifier notify.Notifier = notify.LogNotifier{}

// currentUserID extracts the authenticated user's id set by the auth middleware.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return primitive.NilObjectID, false
	}

	objID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return primitive.NilObjectID, false
	}
	return objID, true
}

// viewerID returns the requester's id when a valid token was presented,
// without failing the request otherwise.
func viewerID(c *gin.Context) *primitive.ObjectID {
	if userIDStr, exists := c.Get("user_id"); exists {
		if objID, err := primitive.ObjectIDFromHex(userIDStr.(string)); err == nil {
			return &objID
		}
	}
	return nil
}

// serializeIssue renders an issue, suppressing creator identity on anonymous
// issues unless the viewer owns it or is an admin. Anonymity hides display,
// not linkage.
func serializeIssue(ctx context.Context, issue models.Issue, viewer *primitive.ObjectID, admin bool) gin.H {
	out := gin.H{
		"id":          issue.ID,
		"title":       issue.Title,
		"description": issue.Description,
		"category":    issue.Category,
		"location":    issue.Location,
		"images":      issue.Images,
		"status":      issue.Status,
		"isAnonymous": issue.IsAnonymous,
		"upvoteCount": len(issue.Upvotes),
		"createdAt":   issue.CreatedAt,
		"updatedAt":   issue.UpdatedAt,
	}

	if viewer != nil {
		voted := false
		for _, u := range issue.Upvotes {
			if u == *viewer {
				voted = true
				break
			}
		}
		out["userHasVoted"] = voted
	}

	isOwner := viewer != nil && *viewer == issue.CreatedBy
	if issue.IsAnonymous && !isOwner && !admin {
		out["createdBy"] = nil
		return out
	}

	createdByMap := gin.H{"id": issue.CreatedBy}
	var creator models.User
	userCollection := config.GetCollection("users")
	if err := userCollection.FindOne(ctx, bson.M{"_id": issue.CreatedBy}).Decode(&creator); err == nil {
		createdByMap["username"] = creator.Username
		createdByMap["email"] = creator.Email
	}
	out["createdBy"] = createdByMap

	return out
}

// CreateIssue handles the creation of a new issue
func CreateIssue(c *gin.Context) {
	createdByID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		Title       string          `json:"title" binding:"required,max=200"`
		Description string          `json:"description" binding:"required,max=1000"`
		Category    string          `json:"category" binding:"required"`
		Location    models.GeoPoint `json:"location" binding:"required"`
		Images      []string        `json:"images"`
		IsAnonymous bool            `json:"isAnonymous"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidCategory(input.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}

	if input.Location.Type != "Point" || len(input.Location.Coordinates) != 2 ||
		!models.ValidCoordinates(input.Location.Coordinates[0], input.Location.Coordinates[1]) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location"})
		return
	}

	images := input.Images
	if images == nil {
		images = []string{}
	}

	issue := models.Issue{
		ID:          primitive.NewObjectID(),
		Title:       input.Title,
		Description: input.Description,
		Category:    models.IssueCategory(input.Category),
		Location:    input.Location,
		Images:      images,
		Status:      models.Reported,
		CreatedBy:   createdByID,
		IsAnonymous: input.IsAnonymous,
		Upvotes:     []primitive.ObjectID{},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := config.GetCollection("issues").InsertOne(ctx, issue); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	c.JSON(http.StatusCreated, issue)
}

// GetAllIssues retrieves issues with geo/category/status filtering and
// offset pagination, newest first.
func GetAllIssues(c *gin.Context) {
	params, err := ParseIssueListParams(map[string]string{
		"lat":      c.Query("lat"),
		"lng":      c.Query("lng"),
		"radius":   c.Query("radius"),
		"category": c.Query("category"),
		"status":   c.Query("status"),
		"page":     c.Query("page"),
		"limit":    c.Query("limit"),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")
	filter := BuildIssueFilter(params)

	totalCount, err := issueCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count issues"})
		return
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(params.Skip())).
		SetLimit(int64(params.Limit))

	cursor, err := issueCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode issues"})
		return
	}

	viewer := viewerID(c)
	admin := middlewares.IsAdmin(c)

	serialized := make([]gin.H, 0, len(issues))
	for _, issue := range issues {
		serialized = append(serialized, serializeIssue(ctx, issue, viewer, admin))
	}

	c.JSON(http.StatusOK, gin.H{
		"issues":     serialized,
		"pagination": NewPaginationMeta(totalCount, params.Page, params.Limit),
	})
}

// GetIssue retrieves an issue by its ID
func GetIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = config.GetCollection("issues").FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	c.JSON(http.StatusOK, serializeIssue(ctx, issue, viewerID(c), middlewares.IsAdmin(c)))
}

// GetMyIssues retrieves issues created by the authenticated user, with an
// optional status filter and the standard pagination envelope.
func GetMyIssues(c *gin.Context) {
	userObjID, ok := currentUserID(c)
	if !ok {
		return
	}

	params, err := ParseIssueListParams(map[string]string{
		"status": c.Query("status"),
		"page":   c.Query("page"),
		"limit":  c.Query("limit"),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := bson.M{"createdBy": userObjID}
	if params.Status != "" {
		filter["status"] = params.Status
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")

	totalCount, err := issueCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count issues"})
		return
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(params.Skip())).
		SetLimit(int64(params.Limit))

	cursor, err := issueCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode issues"})
		return
	}

	serialized := make([]gin.H, 0, len(issues))
	for _, issue := range issues {
		serialized = append(serialized, serializeIssue(ctx, issue, &userObjID, middlewares.IsAdmin(c)))
	}

	c.JSON(http.StatusOK, gin.H{
		"issues":     serialized,
		"pagination": NewPaginationMeta(totalCount, params.Page, params.Limit),
	})
}

// loadIssueForActor fetches an issue and enforces the shared mutation rule:
// the actor must own the issue or hold the admin role.
func loadIssueForActor(ctx context.Context, c *gin.Context, issueID, actor primitive.ObjectID) (*models.Issue, bool) {
	var issue models.Issue
	err := config.GetCollection("issues").FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return nil, false
	}

	if issue.CreatedBy != actor && !middlewares.IsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to modify this issue"})
		return nil, false
	}

	return &issue, true
}

// UpdateIssue allows the creator or an admin to update issue details
func UpdateIssue(c *gin.Context) {
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
		Title       *string   `json:"title,omitempty"`
		Description *string   `json:"description,omitempty"`
		Category    *string   `json:"category,omitempty"`
		Images      *[]string `json:"images,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, ok := loadIssueForActor(ctx, c, issueID, userObjID); !ok {
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.Title != nil {
		if *input.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title cannot be empty"})
			return
		}
		update["title"] = *input.Title
	}
	if input.Description != nil {
		if *input.Description == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Description cannot be empty"})
			return
		}
		update["description"] = *input.Description
	}
	if input.Category != nil {
		if !models.ValidCategory(*input.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
			return
		}
		update["category"] = *input.Category
	}
	if input.Images != nil {
		update["images"] = *input.Images
	}

	issueCollection := config.GetCollection("issues")
	var updated models.Issue
	err = issueCollection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": issueID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
		return
	}

	c.JSON(http.StatusOK, serializeIssue(ctx, updated, &userObjID, middlewares.IsAdmin(c)))
}

// DeleteIssue allows the creator or an admin to delete an issue
func DeleteIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	userObjID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, ok := loadIssueForActor(ctx, c, issueID, userObjID); !ok {
		return
	}

	if _, err := config.GetCollection("issues").DeleteOne(ctx, bson.M{"_id": issueID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete issue"})
		return
	}

	// Flags pointing at a deleted issue are meaningless
	_, _ = config.GetCollection("flags").DeleteMany(ctx, bson.M{"issue": issueID})

	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

// UpdateIssueStatus lets an admin overwrite an issue's status. A changed
// value emits a best-effort notification off the request path.
func UpdateIssueStatus(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var previous models.Issue
	err = config.GetCollection("issues").FindOneAndUpdate(
		ctx,
		bson.M{"_id": issueID},
		bson.M{"$set": bson.M{"status": input.Status, "updatedAt": time.Now()}},
	).Decode(&previous)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
		}
		return
	}

	if previous.Status != models.IssueStatus(input.Status) {
		notifyStatusChange(issueID, input.Status)
	}

	updated := previous
	updated.Status = models.IssueStatus(input.Status)
	updated.UpdatedAt = time.Now()

	c.JSON(http.StatusOK, serializeIssue(ctx, updated, viewerID(c), true))
}

// notifyStatusChange hands the event to the sink without blocking or failing
// the request.
func notifyStatusChange(issueID primitive.ObjectID, status string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("recover", r).Error("Status notification panicked")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Notifier.Notify(ctx, issueID.Hex(), status)
	}()
}

// ToggleUpvote flips the user's membership in the issue's upvote set. The
// whole toggle is a single update pipeline, so concurrent toggles serialize
// at the document and can never produce a duplicate entry.
func ToggleUpvote(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	userObjID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	upvotes := bson.D{{Key: "$ifNull", Value: bson.A{"$upvotes", bson.A{}}}}
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "upvotes", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$in", Value: bson.A{userObjID, upvotes}}},
				bson.D{{Key: "$setDifference", Value: bson.A{upvotes, bson.A{userObjID}}}},
				bson.D{{Key: "$concatArrays", Value: bson.A{upvotes, bson.A{userObjID}}}},
			}}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
	}

	var updated models.Issue
	err = config.GetCollection("issues").FindOneAndUpdate(
		ctx,
		bson.M{"_id": issueID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle upvote"})
		}
		return
	}

	voted := false
	for _, u := range updated.Upvotes {
		if u == userObjID {
			voted = true
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"issue":        serializeIssue(ctx, updated, &userObjID, middlewares.IsAdmin(c)),
		"voted":        voted,
		"upvoteCount":  len(updated.Upvotes),
		"userHasVoted": voted,
	})
}

// NearbyIssues returns a reduced projection of issues around a point, capped
// at 20, for map-pin rendering. Each pin carries its great-circle distance
// from the query center.
func NearbyIssues(c *gin.Context) {
	params, err := ParseIssueListParams(map[string]string{
		"lat":    c.Query("lat"),
		"lng":    c.Query("lng"),
		"radius": c.Query("radius"),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if params.Lat == nil || params.Lng == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	projection := bson.M{
		"_id":      1,
		"title":    1,
		"category": 1,
		"status":   1,
		"location": 1,
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(20).
		SetProjection(projection)

	cursor, err := config.GetCollection("issues").Find(ctx, BuildIssueFilter(params), findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve nearby issues"})
		return
	}
	defer cursor.Close(ctx)

	type issuePin struct {
		ID       primitive.ObjectID `bson:"_id"`
		Title    string             `bson:"title"`
		Category string             `bson:"category"`
		Status   string             `bson:"status"`
		Location models.GeoPoint    `bson:"location"`
	}

	var pins []issuePin
	if err := cursor.All(ctx, &pins); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode nearby issues"})
		return
	}

	center := s2.LatLngFromDegrees(*params.Lat, *params.Lng)

	response := make([]gin.H, 0, len(pins))
	for _, pin := range pins {
		if len(pin.Location.Coordinates) != 2 {
			continue
		}
		point := s2.LatLngFromDegrees(pin.Location.Coordinates[1], pin.Location.Coordinates[0])
		distance := center.Distance(point).Radians() * earthRadiusMeters

		response = append(response, gin.H{
			"id":             pin.ID.Hex(),
			"title":          pin.Title,
			"category":       pin.Category,
			"status":         pin.Status,
			"location":       pin.Location,
			"distanceMeters": distance,
		})
	}

	c.JSON(http.StatusOK, gin.H{"issues": response})
}
