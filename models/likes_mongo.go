package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoLikeRepo struct {
	col *mongo.Collection
}

func NewMongoLikeRepository(col *mongo.Collection) LikeRepository {
	return &mongoLikeRepo{col: col}
}

func (r *mongoLikeRepo) Create(ctx context.Context, l *Like) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	l.CreatedAt = time.Now()
	_, err := r.col.InsertOne(ctx, l)
	return mapErr(err)
}

func (r *mongoLikeRepo) Get(ctx context.Context, userID, eventID primitive.ObjectID) (Like, error) {
	return findOne[Like](ctx, r.col, bson.M{"userId": userID, "eventId": eventID})
}

func (r *mongoLikeRepo) CountByEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return r.col.CountDocuments(ctx, bson.M{"eventId": eventID})
}

func (r *mongoLikeRepo) EventIDsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	likes, err := findAll[Like](ctx, r.col, bson.M{"userId": userID}, options.Find().SetSort(bson.M{"_id": -1}))
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(likes))
	for _, l := range likes {
		out = append(out, l.EventID)
	}
	return out, nil
}

type mongoSubscriptionRepo struct {
	col *mongo.Collection
}

func NewMongoSubscriptionRepository(col *mongo.Collection) SubscriptionRepository {
	return &mongoSubscriptionRepo{col: col}
}

func (r *mongoSubscriptionRepo) Create(ctx context.Context, s *Subscription) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	s.CreatedAt = time.Now()
	_, err := r.col.InsertOne(ctx, s)
	return mapErr(err)
}

func (r *mongoSubscriptionRepo) Get(ctx context.Context, subscriber, subscribedTo primitive.ObjectID) (Subscription, error) {
	return findOne[Subscription](ctx, r.col, bson.M{"subscriber": subscriber, "subscribedTo": subscribedTo})
}

func (r *mongoSubscriptionRepo) BySubscriber(ctx context.Context, subscriber primitive.ObjectID) ([]Subscription, error) {
	return findAll[Subscription](ctx, r.col, bson.M{"subscriber": subscriber}, options.Find().SetSort(bson.M{"_id": 1}))
}

func (r *mongoSubscriptionRepo) BySubscribedTo(ctx context.Context, subscribedTo primitive.ObjectID) ([]Subscription, error) {
	return findAll[Subscription](ctx, r.col, bson.M{"subscribedTo": subscribedTo}, options.Find().SetSort(bson.M{"_id": 1}))
}
