package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Like is unique per (UserID, EventID).
type Like struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	EventID   primitive.ObjectID `bson:"eventId" json:"eventId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Subscription is unique per (Subscriber, SubscribedTo) and never self-referencing.
type Subscription struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Subscriber   primitive.ObjectID `bson:"subscriber" json:"subscriber"`
	SubscribedTo primitive.ObjectID `bson:"subscribedTo" json:"subscribedTo"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
