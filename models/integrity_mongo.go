package models

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoIntegrity holds the raw collections behind Integrity.
type mongoIntegrity struct {
	users, events, bookings, likes, subs, blogs *mongo.Collection
}

func (m *mongoIntegrity) event(ctx context.Context, id primitive.ObjectID) (Event, error) {
	return findOne[Event](ctx, m.events, bson.M{"_id": id})
}

func (m *mongoIntegrity) booking(ctx context.Context, id primitive.ObjectID) (Booking, error) {
	return findOne[Booking](ctx, m.bookings, bson.M{"_id": id})
}

func (m *mongoIntegrity) like(ctx context.Context, id primitive.ObjectID) (Like, error) {
	return findOne[Like](ctx, m.likes, bson.M{"_id": id})
}

func (m *mongoIntegrity) eventIDsOwnedBy(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return idsOf(ctx, m.events, bson.M{"user": userID})
}

func (m *mongoIntegrity) allEventIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	return idsOf(ctx, m.events, bson.M{})
}

func (m *mongoIntegrity) bookingsOfEvent(ctx context.Context, eventID primitive.ObjectID) ([]Booking, error) {
	return findAll[Booking](ctx, m.bookings, bson.M{"event": eventID}, options.Find().SetSort(bson.M{"_id": 1}))
}

func (m *mongoIntegrity) bookingsOfUser(ctx context.Context, userID primitive.ObjectID) ([]Booking, error) {
	return findAll[Booking](ctx, m.bookings, bson.M{"user": userID}, options.Find().SetSort(bson.M{"_id": 1}))
}

func (m *mongoIntegrity) likeIDsOfUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return idsOf(ctx, m.likes, bson.M{"userId": userID})
}

func (m *mongoIntegrity) countLikes(ctx context.Context, eventID primitive.ObjectID) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	n, err := m.likes.CountDocuments(ctx, bson.M{"eventId": eventID})
	return int(n), err
}

func removeOne(ctx context.Context, col *mongo.Collection, id primitive.ObjectID) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

func removeMany(ctx context.Context, col *mongo.Collection, filter bson.M) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	res, err := col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *mongoIntegrity) removeUser(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return removeOne(ctx, m.users, id)
}

func (m *mongoIntegrity) removeEvent(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return removeOne(ctx, m.events, id)
}

func (m *mongoIntegrity) removeBooking(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return removeOne(ctx, m.bookings, id)
}

func (m *mongoIntegrity) removeLike(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return removeOne(ctx, m.likes, id)
}

func (m *mongoIntegrity) removeSubscription(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return removeOne(ctx, m.subs, id)
}

func (m *mongoIntegrity) removeBlog(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return removeOne(ctx, m.blogs, id)
}

func (m *mongoIntegrity) removeLikesOfEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	return removeMany(ctx, m.likes, bson.M{"eventId": eventID})
}

func (m *mongoIntegrity) removeSubscriptionsOf(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return removeMany(ctx, m.subs, bson.M{"$or": bson.A{
		bson.M{"subscriber": userID},
		bson.M{"subscribedTo": userID},
	}})
}

func (m *mongoIntegrity) updateEvent(ctx context.Context, id primitive.ObjectID, update any) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	_, err := m.events.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// incLikeCount uses a pipeline update so the floor is applied server side.
func (m *mongoIntegrity) incLikeCount(ctx context.Context, eventID primitive.ObjectID, delta int) error {
	return m.updateEvent(ctx, eventID, mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"likeCount": bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$likeCount", 0}}, delta}}}},
		}}},
	})
}

func (m *mongoIntegrity) incAttendees(ctx context.Context, eventID primitive.ObjectID, delta int) error {
	return m.updateEvent(ctx, eventID, bson.M{"$inc": bson.M{"currentNoOfAttendees": delta}})
}

func (m *mongoIntegrity) pullEventBooking(ctx context.Context, eventID, bookingID primitive.ObjectID) error {
	return m.updateEvent(ctx, eventID, bson.M{"$pull": bson.M{"bookings": bookingID}})
}

func (m *mongoIntegrity) pullUserBooking(ctx context.Context, userID, bookingID primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	_, err := m.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$pull": bson.M{"bookings": bookingID}})
	return err
}

func (m *mongoIntegrity) pullEventFromUsers(ctx context.Context, eventID primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	_, err := m.users.UpdateMany(ctx, bson.M{"events": eventID}, bson.M{"$pull": bson.M{"events": eventID}})
	return err
}

func (m *mongoIntegrity) setDerived(ctx context.Context, eventID primitive.ObjectID, attendees, likes int, bookings []primitive.ObjectID) error {
	return m.updateEvent(ctx, eventID, bson.M{"$set": bson.M{
		"currentNoOfAttendees": attendees,
		"likeCount":            likes,
		"bookings":             emptyIfNil(bookings),
	}})
}
