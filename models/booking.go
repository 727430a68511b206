package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking is the authoritative record an event's attendee counter and the
// user's booking list derive from. It is never updated after creation.
type Booking struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Event           primitive.ObjectID `bson:"event" json:"event"`
	AttendeeContact string             `bson:"attendeeContact" json:"attendeeContact"`
	NoOfAttendee    int                `bson:"noOfAttendee" json:"noOfAttendee"`
	AmountPaid      string             `bson:"amountPaid" json:"amountPaid"`
	PaymentID       *string            `bson:"paymentId" json:"paymentId"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
