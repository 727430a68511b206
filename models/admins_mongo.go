package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoAdminRepo struct {
	col *mongo.Collection
}

func NewMongoAdminRepository(col *mongo.Collection) AdminRepository {
	return &mongoAdminRepo{col: col}
}

func (r *mongoAdminRepo) Create(ctx context.Context, a *Admin) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.Designation == "" {
		a.Designation = DesignationAdmin
	}
	a.CreatedAt = time.Now()
	_, err := r.col.InsertOne(ctx, a)
	return mapErr(err)
}

func (r *mongoAdminRepo) GetByEmail(ctx context.Context, email string) (Admin, error) {
	return findOne[Admin](ctx, r.col, bson.M{"email": email})
}

func (r *mongoAdminRepo) GetByID(ctx context.Context, id primitive.ObjectID) (Admin, error) {
	return findOne[Admin](ctx, r.col, bson.M{"_id": id})
}

type mongoBlogRepo struct {
	col *mongo.Collection
}

func NewMongoBlogRepository(col *mongo.Collection) BlogRepository {
	return &mongoBlogRepo{col: col}
}

func (r *mongoBlogRepo) Create(ctx context.Context, b *Blog) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	b.Images = emptyIfNil(b.Images)
	_, err := r.col.InsertOne(ctx, b)
	return mapErr(err)
}

func (r *mongoBlogRepo) GetByID(ctx context.Context, id primitive.ObjectID) (Blog, error) {
	return findOne[Blog](ctx, r.col, bson.M{"_id": id})
}

func (r *mongoBlogRepo) List(ctx context.Context) ([]Blog, error) {
	return findAll[Blog](ctx, r.col, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
}
