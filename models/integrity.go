package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// integrityBackend is the raw persistence surface Integrity drives. It is
// implemented per backend and never handed out, so nothing outside Integrity
// can remove a document without running its cascade.
type integrityBackend interface {
	event(ctx context.Context, id primitive.ObjectID) (Event, error)
	booking(ctx context.Context, id primitive.ObjectID) (Booking, error)
	like(ctx context.Context, id primitive.ObjectID) (Like, error)

	eventIDsOwnedBy(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	allEventIDs(ctx context.Context) ([]primitive.ObjectID, error)
	bookingsOfEvent(ctx context.Context, eventID primitive.ObjectID) ([]Booking, error)
	bookingsOfUser(ctx context.Context, userID primitive.ObjectID) ([]Booking, error)
	likeIDsOfUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	countLikes(ctx context.Context, eventID primitive.ObjectID) (int, error)

	removeUser(ctx context.Context, id primitive.ObjectID) (bool, error)
	removeEvent(ctx context.Context, id primitive.ObjectID) (bool, error)
	removeBooking(ctx context.Context, id primitive.ObjectID) (bool, error)
	removeLike(ctx context.Context, id primitive.ObjectID) (bool, error)
	removeLikesOfEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error)
	removeSubscription(ctx context.Context, id primitive.ObjectID) (bool, error)
	removeSubscriptionsOf(ctx context.Context, userID primitive.ObjectID) (int64, error)
	removeBlog(ctx context.Context, id primitive.ObjectID) (bool, error)

	incLikeCount(ctx context.Context, eventID primitive.ObjectID, delta int) error
	incAttendees(ctx context.Context, eventID primitive.ObjectID, delta int) error
	pullUserBooking(ctx context.Context, userID, bookingID primitive.ObjectID) error
	pullEventBooking(ctx context.Context, eventID, bookingID primitive.ObjectID) error
	pullEventFromUsers(ctx context.Context, eventID primitive.ObjectID) error
	setDerived(ctx context.Context, eventID primitive.ObjectID, attendees, likes int, bookings []primitive.ObjectID) error
}

type entityKind int

const (
	kindUser entityKind = iota
	kindEvent
	kindBooking
	kindLike
	kindSubscription
	kindBlog
)

func (k entityKind) String() string {
	return [...]string{"user", "event", "booking", "like", "subscription", "blog"}[k]
}

// Integrity keeps the user/event/booking/like/subscription graph consistent.
// Every delete in the system goes through one of its Delete methods, and
// every one of those runs inside a transaction.
type Integrity struct {
	b   integrityBackend
	tx  TxRunner
	log *slog.Logger
}

func newIntegrity(b integrityBackend, tx TxRunner, log *slog.Logger) *Integrity {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Integrity{b: b, tx: tx, log: log}
}

/* -------------------- delete entry points -------------------- */

func (in *Integrity) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	return in.deleteEntity(ctx, kindUser, id)
}

func (in *Integrity) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	return in.deleteEntity(ctx, kindEvent, id)
}

func (in *Integrity) DeleteBooking(ctx context.Context, id primitive.ObjectID) error {
	return in.deleteEntity(ctx, kindBooking, id)
}

func (in *Integrity) DeleteLike(ctx context.Context, id primitive.ObjectID) error {
	return in.deleteEntity(ctx, kindLike, id)
}

func (in *Integrity) DeleteSubscription(ctx context.Context, id primitive.ObjectID) error {
	return in.deleteEntity(ctx, kindSubscription, id)
}

func (in *Integrity) DeleteBlog(ctx context.Context, id primitive.ObjectID) error {
	return in.deleteEntity(ctx, kindBlog, id)
}

// DeleteBookingsOfEvent removes every booking of an event, one deleteEntity
// per booking, and returns how many went.
func (in *Integrity) DeleteBookingsOfEvent(ctx context.Context, eventID primitive.ObjectID) (int, error) {
	n := 0
	err := in.tx.WithTransaction(ctx, func(ctx context.Context) error {
		n = 0
		bookings, err := in.b.bookingsOfEvent(ctx, eventID)
		if err != nil {
			return err
		}
		for _, bk := range bookings {
			if err := in.deleteEntity(ctx, kindBooking, bk.ID); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// deleteEntity is the single funnel for removing a document: it runs the
// cascade for the kind and then removes the document itself.
func (in *Integrity) deleteEntity(ctx context.Context, k entityKind, id primitive.ObjectID) error {
	err := in.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var (
			removed bool
			err     error
		)
		switch k {
		case kindUser:
			if err = in.CascadeOnUserDelete(ctx, id); err != nil {
				return err
			}
			removed, err = in.b.removeUser(ctx, id)
		case kindEvent:
			if _, err = in.b.event(ctx, id); err != nil {
				return err
			}
			if err = in.CascadeOnEventDelete(ctx, id); err != nil {
				return err
			}
			removed, err = in.b.removeEvent(ctx, id)
		case kindBooking:
			var bk Booking
			if bk, err = in.b.booking(ctx, id); err != nil {
				return err
			}
			if err = in.RemoveBookingReferences(ctx, bk.ID, bk.User, bk.Event, bk.NoOfAttendee); err != nil {
				return err
			}
			removed, err = in.b.removeBooking(ctx, id)
		case kindLike:
			var l Like
			if l, err = in.b.like(ctx, id); err != nil {
				return err
			}
			if err = in.AdjustLikeCount(ctx, l.EventID, -1); err != nil {
				return err
			}
			removed, err = in.b.removeLike(ctx, id)
		case kindSubscription:
			removed, err = in.b.removeSubscription(ctx, id)
		case kindBlog:
			removed, err = in.b.removeBlog(ctx, id)
		}
		if err != nil {
			return err
		}
		if !removed {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", k, id.Hex(), err)
	}
	return nil
}

/* -------------------- cascade primitives -------------------- */

// CascadeOnUserDelete removes everything hanging off a user: owned events
// (each with its own cascade), bookings placed, likes made and
// subscriptions in either role. The user document itself is left alone.
func (in *Integrity) CascadeOnUserDelete(ctx context.Context, userID primitive.ObjectID) error {
	return in.tx.WithTransaction(ctx, func(ctx context.Context) error {
		eventIDs, err := in.b.eventIDsOwnedBy(ctx, userID)
		if err != nil {
			return err
		}
		for _, id := range eventIDs {
			if err := in.deleteEntity(ctx, kindEvent, id); err != nil {
				return err
			}
		}

		bookings, err := in.b.bookingsOfUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, bk := range bookings {
			if err := in.deleteEntity(ctx, kindBooking, bk.ID); err != nil {
				return err
			}
		}

		likeIDs, err := in.b.likeIDsOfUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, id := range likeIDs {
			if err := in.deleteEntity(ctx, kindLike, id); err != nil {
				return err
			}
		}

		n, err := in.b.removeSubscriptionsOf(ctx, userID)
		if err != nil {
			return err
		}
		in.log.DebugContext(ctx, "user cascade",
			slog.String("user", userID.Hex()),
			slog.Int("events", len(eventIDs)),
			slog.Int("bookings", len(bookings)),
			slog.Int("likes", len(likeIDs)),
			slog.Int64("subscriptions", n),
		)
		return nil
	})
}

// CascadeOnEventDelete removes the event's bookings and likes and pulls the
// event from every user's list. The like counter is not touched since the
// event goes with them.
func (in *Integrity) CascadeOnEventDelete(ctx context.Context, eventID primitive.ObjectID) error {
	return in.tx.WithTransaction(ctx, func(ctx context.Context) error {
		bookings, err := in.b.bookingsOfEvent(ctx, eventID)
		if err != nil {
			return err
		}
		for _, bk := range bookings {
			if err := in.deleteEntity(ctx, kindBooking, bk.ID); err != nil {
				return err
			}
		}
		if _, err := in.b.removeLikesOfEvent(ctx, eventID); err != nil {
			return err
		}
		return in.b.pullEventFromUsers(ctx, eventID)
	})
}

// AdjustLikeCount applies delta to likeCount, floored at 0.
func (in *Integrity) AdjustLikeCount(ctx context.Context, eventID primitive.ObjectID, delta int) error {
	return in.b.incLikeCount(ctx, eventID, delta)
}

func (in *Integrity) AdjustAttendeeCount(ctx context.Context, eventID primitive.ObjectID, delta int) error {
	return in.b.incAttendees(ctx, eventID, delta)
}

// RemoveBookingReferences pulls bookingID from the user's and the event's
// lists and gives the seats back.
func (in *Integrity) RemoveBookingReferences(ctx context.Context, bookingID, userID, eventID primitive.ObjectID, attendees int) error {
	return in.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := in.b.pullUserBooking(ctx, userID, bookingID); err != nil {
			return err
		}
		if err := in.b.pullEventBooking(ctx, eventID, bookingID); err != nil {
			return err
		}
		return in.AdjustAttendeeCount(ctx, eventID, -attendees)
	})
}

/* -------------------- reconciliation -------------------- */

// Reconcile recomputes every event's attendee counter, like counter and
// booking list from the bookings and likes collections. It returns how many
// events were corrected.
func (in *Integrity) Reconcile(ctx context.Context) (int, error) {
	ids, err := in.b.allEventIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile: %w", err)
	}
	fixed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return fixed, err
		}
		changed := false
		err := in.tx.WithTransaction(ctx, func(ctx context.Context) error {
			changed = false
			ev, err := in.b.event(ctx, id)
			if err != nil {
				return err
			}
			bookings, err := in.b.bookingsOfEvent(ctx, id)
			if err != nil {
				return err
			}
			likes, err := in.b.countLikes(ctx, id)
			if err != nil {
				return err
			}
			attendees := 0
			bookingIDs := make([]primitive.ObjectID, 0, len(bookings))
			for _, bk := range bookings {
				attendees += bk.NoOfAttendee
				bookingIDs = append(bookingIDs, bk.ID)
			}
			if ev.CurrentNoOfAttendees == attendees && ev.LikeCount == likes && sameIDs(ev.Bookings, bookingIDs) {
				return nil
			}
			changed = true
			in.log.InfoContext(ctx, "reconciled event counters",
				slog.String("event", id.Hex()),
				slog.Int("attendees_was", ev.CurrentNoOfAttendees),
				slog.Int("attendees", attendees),
				slog.Int("likes_was", ev.LikeCount),
				slog.Int("likes", likes),
			)
			return in.b.setDerived(ctx, id, attendees, likes, bookingIDs)
		})
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return fixed, fmt.Errorf("reconcile event %s: %w", id.Hex(), err)
		}
		if changed {
			fixed++
		}
	}
	return fixed, nil
}

func sameIDs(a, b []primitive.ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	x := slices.Clone(a)
	y := slices.Clone(b)
	cmp := func(p, q primitive.ObjectID) int { return slices.Compare(p[:], q[:]) }
	slices.SortFunc(x, cmp)
	slices.SortFunc(y, cmp)
	return slices.Equal(x, y)
}
