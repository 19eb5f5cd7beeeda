package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IssueCategory enum
type IssueCategory string

const (
	Roads        IssueCategory = "Roads"
	Lighting     IssueCategory = "Lighting"
	WaterSupply  IssueCategory = "Water Supply"
	Cleanliness  IssueCategory = "Cleanliness"
	PublicSafety IssueCategory = "Public Safety"
	Obstructions IssueCategory = "Obstructions"
)

// IssueStatus enum. Closed is only reachable through flag approval.
type IssueStatus string

const (
	Reported   IssueStatus = "Reported"
	InProgress IssueStatus = "In Progress"
	Resolved   IssueStatus = "Resolved"
	Closed     IssueStatus = "Closed"
)

// GeoPoint is a GeoJSON Point, coordinates ordered [lng, lat].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Issue represents a civic issue reported by a user
type Issue struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Category    IssueCategory        `bson:"category" json:"category"`
	Location    GeoPoint             `bson:"location" json:"location"`
	Images      []string             `bson:"images" json:"images"`
	Status      IssueStatus          `bson:"status" json:"status"`
	CreatedBy   primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	IsAnonymous bool                 `bson:"isAnonymous" json:"isAnonymous"`
	Upvotes     []primitive.ObjectID `bson:"upvotes" json:"upvotes"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ValidCategory reports whether c is a member of the persisted category enum.
func ValidCategory(c string) bool {
	switch IssueCategory(c) {
	case Roads, Lighting, WaterSupply, Cleanliness, PublicSafety, Obstructions:
		return true
	}
	return false
}

// ValidStatus reports whether s is a member of the persisted status enum.
func ValidStatus(s string) bool {
	switch IssueStatus(s) {
	case Reported, InProgress, Resolved, Closed:
		return true
	}
	return false
}

// ValidCoordinates checks a [lng, lat] pair is in range.
func ValidCoordinates(lng, lat float64) bool {
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

// EnsureIssueIndexes creates the 2dsphere index backing radius queries.
func EnsureIssueIndexes(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: "2dsphere"}},
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
