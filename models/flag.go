package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FlagReason enum
type FlagReason string

const (
	ReasonSpam           FlagReason = "spam"
	ReasonInappropriate  FlagReason = "inappropriate"
	ReasonDuplicate      FlagReason = "duplicate"
	ReasonMisinformation FlagReason = "misinformation"
	ReasonOther          FlagReason = "other"
)

// FlagStatus enum. Pending is the only reviewable state; approved and
// rejected are terminal.
type FlagStatus string

const (
	FlagPending  FlagStatus = "pending"
	FlagApproved FlagStatus = "approved"
	FlagRejected FlagStatus = "rejected"
)

// Flag represents a user's report that an issue is spam or invalid.
type Flag struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Issue       primitive.ObjectID  `bson:"issue" json:"issue"`
	User        primitive.ObjectID  `bson:"user" json:"user"`
	Reason      FlagReason          `bson:"reason" json:"reason"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Status      FlagStatus          `bson:"status" json:"status"`
	ReviewedBy  *primitive.ObjectID `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time          `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	ReviewNotes string              `bson:"reviewNotes,omitempty" json:"reviewNotes,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}

// ValidFlagReason reports whether r is a member of the reason enum.
func ValidFlagReason(r string) bool {
	switch FlagReason(r) {
	case ReasonSpam, ReasonInappropriate, ReasonDuplicate, ReasonMisinformation, ReasonOther:
		return true
	}
	return false
}

// ValidFlagStatus reports whether s is a member of the status enum.
func ValidFlagStatus(s string) bool {
	switch FlagStatus(s) {
	case FlagPending, FlagApproved, FlagRejected:
		return true
	}
	return false
}

// EnsureFlagIndexes creates a unique compound index for (issue, user) so a
// duplicate flag fails at insert time instead of racing a pre-check.
func EnsureFlagIndexes(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "issue", Value: 1}, {Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
