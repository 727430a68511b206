package models

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memDB implements integrityBackend.

func (m *memDB) event(ctx context.Context, id primitive.ObjectID) (Event, error) {
	return memEvents{m}.GetByID(ctx, id)
}

func (m *memDB) booking(ctx context.Context, id primitive.ObjectID) (Booking, error) {
	return memBookings{m}.GetByID(ctx, id)
}

func (m *memDB) like(ctx context.Context, id primitive.ObjectID) (Like, error) {
	var out Like
	err := m.read(ctx, func(d *memData) error {
		l, ok := d.likes[id]
		if !ok {
			return ErrNotFound
		}
		out = l
		return nil
	})
	return out, err
}

func (m *memDB) eventIDsOwnedBy(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	err := m.read(ctx, func(d *memData) error {
		for _, e := range sortedValues(d.events, func(e *Event) bool { return e.User == userID }, func(e Event) primitive.ObjectID { return e.ID }) {
			out = append(out, e.ID)
		}
		return nil
	})
	return out, err
}

func (m *memDB) allEventIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	err := m.read(ctx, func(d *memData) error {
		for _, e := range sortedValues(d.events, nil, func(e Event) primitive.ObjectID { return e.ID }) {
			out = append(out, e.ID)
		}
		return nil
	})
	return out, err
}

func (m *memDB) bookingsOfEvent(ctx context.Context, eventID primitive.ObjectID) ([]Booking, error) {
	return memBookings{m}.ByEvent(ctx, eventID)
}

func (m *memDB) bookingsOfUser(ctx context.Context, userID primitive.ObjectID) ([]Booking, error) {
	return memBookings{m}.ByUser(ctx, userID)
}

func (m *memDB) likeIDsOfUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	err := m.read(ctx, func(d *memData) error {
		for _, l := range sortedValues(d.likes, func(l *Like) bool { return l.UserID == userID }, func(l Like) primitive.ObjectID { return l.ID }) {
			out = append(out, l.ID)
		}
		return nil
	})
	return out, err
}

func (m *memDB) countLikes(ctx context.Context, eventID primitive.ObjectID) (int, error) {
	n, err := memLikes{m}.CountByEvent(ctx, eventID)
	return int(n), err
}

func removeFrom[T any](ctx context.Context, m *memDB, pick func(d *memData) map[primitive.ObjectID]T, id primitive.ObjectID) (bool, error) {
	removed := false
	err := m.write(ctx, func(d *memData) error {
		set := pick(d)
		if _, ok := set[id]; ok {
			delete(set, id)
			removed = true
		}
		return nil
	})
	return removed, err
}

func (m *memDB) removeUser(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return removeFrom(ctx, m, func(d *memData) map[primitive.ObjectID]User { return d.users }, id)
}

func (m *memDB) removeEvent(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return removeFrom(ctx, m, func(d *memData) map[primitive.ObjectID]Event { return d.events }, id)
}

func (m *memDB) removeBooking(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return removeFrom(ctx, m, func(d *memData) map[primitive.ObjectID]Booking { return d.bookings }, id)
}

func (m *memDB) removeLike(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return removeFrom(ctx, m, func(d *memData) map[primitive.ObjectID]Like { return d.likes }, id)
}

func (m *memDB) removeSubscription(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return removeFrom(ctx, m, func(d *memData) map[primitive.ObjectID]Subscription { return d.subs }, id)
}

func (m *memDB) removeBlog(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return removeFrom(ctx, m, func(d *memData) map[primitive.ObjectID]Blog { return d.blogs }, id)
}

func (m *memDB) removeLikesOfEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	var n int64
	err := m.write(ctx, func(d *memData) error {
		for id, l := range d.likes {
			if l.EventID == eventID {
				delete(d.likes, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (m *memDB) removeSubscriptionsOf(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	var n int64
	err := m.write(ctx, func(d *memData) error {
		for id, s := range d.subs {
			if s.Subscriber == userID || s.SubscribedTo == userID {
				delete(d.subs, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (m *memDB) updateEvent(ctx context.Context, id primitive.ObjectID, fn func(e *Event)) error {
	return m.write(ctx, func(d *memData) error {
		e, ok := d.events[id]
		if !ok {
			return nil
		}
		fn(&e)
		d.events[id] = e
		return nil
	})
}

func (m *memDB) incLikeCount(ctx context.Context, eventID primitive.ObjectID, delta int) error {
	return m.updateEvent(ctx, eventID, func(e *Event) {
		e.LikeCount = max(e.LikeCount+delta, 0)
	})
}

func (m *memDB) incAttendees(ctx context.Context, eventID primitive.ObjectID, delta int) error {
	return m.updateEvent(ctx, eventID, func(e *Event) {
		e.CurrentNoOfAttendees += delta
	})
}

func (m *memDB) pullEventBooking(ctx context.Context, eventID, bookingID primitive.ObjectID) error {
	return m.updateEvent(ctx, eventID, func(e *Event) {
		e.Bookings = withoutID(e.Bookings, bookingID)
	})
}

func (m *memDB) pullUserBooking(ctx context.Context, userID, bookingID primitive.ObjectID) error {
	return m.write(ctx, func(d *memData) error {
		u, ok := d.users[userID]
		if !ok {
			return nil
		}
		u.Bookings = withoutID(u.Bookings, bookingID)
		d.users[userID] = u
		return nil
	})
}

func (m *memDB) pullEventFromUsers(ctx context.Context, eventID primitive.ObjectID) error {
	return m.write(ctx, func(d *memData) error {
		for id, u := range d.users {
			if next := withoutID(u.Events, eventID); len(next) != len(u.Events) {
				u.Events = next
				d.users[id] = u
			}
		}
		return nil
	})
}

func (m *memDB) setDerived(ctx context.Context, eventID primitive.ObjectID, attendees, likes int, bookings []primitive.ObjectID) error {
	return m.updateEvent(ctx, eventID, func(e *Event) {
		e.CurrentNoOfAttendees = attendees
		e.LikeCount = likes
		e.Bookings = bookings
	})
}
