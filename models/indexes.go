package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique constraints the repositories rely on for
// ErrDuplicate, plus the query indexes for event listings.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		ColUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "phoneNumber", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "profileType", Value: 1}}},
		},
		ColEvents: {
			{Keys: bson.D{{Key: "geoCoordinates", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "eventName", Value: "text"}}},
			{Keys: bson.D{{Key: "startDate", Value: 1}, {Key: "endDate", Value: 1}}},
			{Keys: bson.D{{Key: "approved", Value: 1}}},
			{Keys: bson.D{{Key: "user", Value: 1}}},
		},
		ColBookings: {
			{Keys: bson.D{{Key: "event", Value: 1}}},
			{Keys: bson.D{{Key: "user", Value: 1}}},
		},
		ColLikes: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "eventId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "eventId", Value: 1}}},
		},
		ColSubscriptions: {
			{Keys: bson.D{{Key: "subscriber", Value: 1}, {Key: "subscribedTo", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "subscribedTo", Value: 1}}},
		},
		ColAdmins: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ColBlogs: {
			{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for col, models := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("indexes on %s: %w", col, err)
		}
	}
	return nil
}
