package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoUserRepo struct {
	col *mongo.Collection
}

func NewMongoUserRepository(col *mongo.Collection) UserRepository {
	return &mongoUserRepo{col: col}
}

func (r *mongoUserRepo) Create(ctx context.Context, u *User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.Interests = emptyIfNil(u.Interests)
	u.PreferredEventTypes = emptyIfNil(u.PreferredEventTypes)
	u.Document = emptyIfNil(u.Document)
	u.Bookings = emptyIfNil(u.Bookings)
	u.Events = emptyIfNil(u.Events)
	u.FCMToken = emptyIfNil(u.FCMToken)

	_, err := r.col.InsertOne(ctx, u)
	return mapErr(err)
}

func (r *mongoUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (User, error) {
	return findOne[User](ctx, r.col, bson.M{"_id": id})
}

func (r *mongoUserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return findOne[User](ctx, r.col, bson.M{"email": email})
}

func (r *mongoUserRepo) GetByPhone(ctx context.Context, phone string) (User, error) {
	if phone == "" {
		return User{}, ErrNotFound
	}
	return findOne[User](ctx, r.col, bson.M{"phoneNumber": phone})
}

func (r *mongoUserRepo) List(ctx context.Context) ([]User, error) {
	return findAll[User](ctx, r.col, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
}

func (r *mongoUserRepo) ListByProfileType(ctx context.Context, profileType string) ([]User, error) {
	return findAll[User](ctx, r.col, bson.M{"profileType": profileType}, options.Find().SetSort(bson.M{"_id": 1}))
}

func (r *mongoUserRepo) Update(ctx context.Context, id primitive.ObjectID, p UserPatch) (User, error) {
	set := bson.M{}
	put := func(k string, v any) { set[k] = v }
	if p.Name != nil {
		put("name", *p.Name)
	}
	if p.Email != nil {
		put("email", *p.Email)
	}
	if p.PhoneNumber != nil {
		put("phoneNumber", *p.PhoneNumber)
	}
	if p.UserType != nil {
		put("userType", *p.UserType)
	}
	if p.ProfileType != nil {
		put("profileType", *p.ProfileType)
	}
	if p.Desc != nil {
		put("desc", *p.Desc)
	}
	if loc := p.Location; loc != nil {
		// field by field so stored coordinates survive an address edit
		put("location.address", loc.Address)
		put("location.address2", loc.Address2)
		put("location.city", loc.City)
		put("location.state", loc.State)
		put("location.postalCode", loc.PostalCode)
		put("location.country", loc.Country)
		if loc.Coordinates != nil {
			put("location.coordinates", loc.Coordinates)
		}
	}
	if p.Coordinates != nil {
		put("location.coordinates", p.Coordinates)
	}
	if p.Interests != nil {
		put("interests", p.Interests)
	}
	if p.PreferredEventTypes != nil {
		put("preferredEventTypes", p.PreferredEventTypes)
	}
	if p.Social != nil {
		put("social", p.Social)
	}
	if p.Profile != nil {
		put("profile", *p.Profile)
	}
	if p.Document != nil {
		put("document", p.Document)
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}
	return r.findAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *mongoUserRepo) findAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var u User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	return u, mapErr(err)
}

func (r *mongoUserRepo) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUserRepo) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"password": hash}})
}

func (r *mongoUserRepo) AddDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return r.updateOne(ctx, id, bson.M{"$addToSet": bson.M{"fcmToken": token}})
}

func (r *mongoUserRepo) AddEvent(ctx context.Context, id, eventID primitive.ObjectID) error {
	return r.updateOne(ctx, id, bson.M{"$addToSet": bson.M{"events": eventID}})
}

func (r *mongoUserRepo) AddBooking(ctx context.Context, id, bookingID primitive.ObjectID) error {
	return r.updateOne(ctx, id, bson.M{"$push": bson.M{"bookings": bookingID}})
}

func (r *mongoUserRepo) Count(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return r.col.CountDocuments(ctx, bson.M{})
}
