package models

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicate        = errors.New("duplicate key")
	ErrCapacityExceeded = errors.New("event capacity exceeded")
	ErrEventNotApproved = errors.New("event not approved")
	ErrInvalidID        = errors.New("invalid id")
)

// None of the repositories below can delete. Deletes go through Integrity,
// which owns the cascade rules.

// ===== Users =====
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByPhone(ctx context.Context, phone string) (User, error)
	List(ctx context.Context) ([]User, error)
	ListByProfileType(ctx context.Context, profileType string) ([]User, error)
	Update(ctx context.Context, id primitive.ObjectID, p UserPatch) (User, error)
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
	AddDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error
	AddEvent(ctx context.Context, id, eventID primitive.ObjectID) error
	AddBooking(ctx context.Context, id, bookingID primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

// ===== Events =====
type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id primitive.ObjectID) (Event, error)
	Find(ctx context.Context, f EventFilter, p Page) ([]Event, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, p EventPatch) (Event, error)
	SetApproved(ctx context.Context, id primitive.ObjectID, approved bool) (Event, error)
	// ReserveSeats pushes bookingID and adds n to currentNoOfAttendees in a
	// single conditional write that only matches an approved event with room
	// for n more. On no match it reports ErrNotFound, ErrEventNotApproved or
	// ErrCapacityExceeded.
	ReserveSeats(ctx context.Context, id, bookingID primitive.ObjectID, n int) error
	Count(ctx context.Context, f EventFilter) (int64, error)
}

// ===== Bookings =====
type BookingRepository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id primitive.ObjectID) (Booking, error)
	ByEvent(ctx context.Context, eventID primitive.ObjectID) ([]Booking, error)
	// ByUser is newest first.
	ByUser(ctx context.Context, userID primitive.ObjectID) ([]Booking, error)
	TotalAttendees(ctx context.Context) (int64, error)
}

// ===== Likes =====
type LikeRepository interface {
	Create(ctx context.Context, l *Like) error
	Get(ctx context.Context, userID, eventID primitive.ObjectID) (Like, error)
	CountByEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error)
	EventIDsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// ===== Subscriptions =====
type SubscriptionRepository interface {
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, subscriber, subscribedTo primitive.ObjectID) (Subscription, error)
	BySubscriber(ctx context.Context, subscriber primitive.ObjectID) ([]Subscription, error)
	BySubscribedTo(ctx context.Context, subscribedTo primitive.ObjectID) ([]Subscription, error)
}

// ===== Admins / Blogs =====
type AdminRepository interface {
	Create(ctx context.Context, a *Admin) error
	GetByEmail(ctx context.Context, email string) (Admin, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (Admin, error)
}

type BlogRepository interface {
	Create(ctx context.Context, b *Blog) error
	GetByID(ctx context.Context, id primitive.ObjectID) (Blog, error)
	List(ctx context.Context) ([]Blog, error)
}

// TxRunner runs fn as one all-or-nothing unit. Calls nested inside fn reuse
// the outer transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Users         UserRepository
	Events        EventRepository
	Bookings      BookingRepository
	Likes         LikeRepository
	Subscriptions SubscriptionRepository
	Admins        AdminRepository
	Blogs         BlogRepository
	Tx            TxRunner
	Integrity     *Integrity
}

// ParseID turns a hex id from a URL or token into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}
