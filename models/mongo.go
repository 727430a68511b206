package models

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// Collection names.
const (
	ColUsers         = "users"
	ColEvents        = "events"
	ColBookings      = "bookings"
	ColLikes         = "likes"
	ColSubscriptions = "subscriptions"
	ColAdmins        = "admins"
	ColBlogs         = "blogs"
)

// NewMongoStore wires every repository to its collection in db. Transactions
// need db's client to be connected to a replica set.
func NewMongoStore(db *mongo.Database, log *slog.Logger) *Store {
	tx := mongoTx{client: db.Client()}
	raw := &mongoIntegrity{
		users:    db.Collection(ColUsers),
		events:   db.Collection(ColEvents),
		bookings: db.Collection(ColBookings),
		likes:    db.Collection(ColLikes),
		subs:     db.Collection(ColSubscriptions),
		blogs:    db.Collection(ColBlogs),
	}
	return &Store{
		Users:         NewMongoUserRepository(raw.users),
		Events:        NewMongoEventRepository(raw.events),
		Bookings:      NewMongoBookingRepository(raw.bookings),
		Likes:         NewMongoLikeRepository(raw.likes),
		Subscriptions: NewMongoSubscriptionRepository(raw.subs),
		Admins:        NewMongoAdminRepository(db.Collection(ColAdmins)),
		Blogs:         NewMongoBlogRepository(raw.blogs),
		Tx:            tx,
		Integrity:     newIntegrity(raw, tx, log),
	}
}

type mongoTx struct{ client *mongo.Client }

func (t mongoTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	sess, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cur, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []T{}
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, cur.Err()
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter any) (T, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var v T
	err := col.FindOne(ctx, filter).Decode(&v)
	return v, mapErr(err)
}

func idsOf(ctx context.Context, col *mongo.Collection, filter any) ([]primitive.ObjectID, error) {
	type idOnly struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	docs, err := findAll[idOnly](ctx, col, filter, options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out, nil
}
