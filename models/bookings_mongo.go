package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoBookingRepo struct {
	col *mongo.Collection
}

func NewMongoBookingRepository(col *mongo.Collection) BookingRepository {
	return &mongoBookingRepo{col: col}
}

func (r *mongoBookingRepo) Create(ctx context.Context, b *Booking) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	now := time.Now()
	b.CreatedAt, b.UpdatedAt = now, now
	_, err := r.col.InsertOne(ctx, b)
	return mapErr(err)
}

func (r *mongoBookingRepo) GetByID(ctx context.Context, id primitive.ObjectID) (Booking, error) {
	return findOne[Booking](ctx, r.col, bson.M{"_id": id})
}

func (r *mongoBookingRepo) ByEvent(ctx context.Context, eventID primitive.ObjectID) ([]Booking, error) {
	return findAll[Booking](ctx, r.col, bson.M{"event": eventID}, options.Find().SetSort(bson.M{"_id": 1}))
}

func (r *mongoBookingRepo) ByUser(ctx context.Context, userID primitive.ObjectID) ([]Booking, error) {
	return findAll[Booking](ctx, r.col, bson.M{"user": userID}, options.Find().SetSort(bson.M{"_id": -1}))
}

func (r *mongoBookingRepo) TotalAttendees(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$noOfAttendee"}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
