package models

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memData struct {
	users    map[primitive.ObjectID]User
	events   map[primitive.ObjectID]Event
	bookings map[primitive.ObjectID]Booking
	likes    map[primitive.ObjectID]Like
	subs     map[primitive.ObjectID]Subscription
	admins   map[primitive.ObjectID]Admin
	blogs    map[primitive.ObjectID]Blog
}

// clone is shallow: stored values are only ever replaced, and slices inside
// them are copied on write, so a snapshot never sees later changes.
func (d memData) clone() memData {
	return memData{
		users:    maps.Clone(d.users),
		events:   maps.Clone(d.events),
		bookings: maps.Clone(d.bookings),
		likes:    maps.Clone(d.likes),
		subs:     maps.Clone(d.subs),
		admins:   maps.Clone(d.admins),
		blogs:    maps.Clone(d.blogs),
	}
}

// memDB backs the in-memory Store. Transactions are serialized with every
// other write and roll back to a snapshot on error.
type memDB struct {
	mu   sync.RWMutex // guards d
	txMu sync.Mutex   // held by a transaction, or by a write outside one
	d    memData
	now  func() time.Time
}

type memTxKey struct{}

// NewMemoryStore returns a Store kept entirely in process memory.
func NewMemoryStore(log *slog.Logger) *Store {
	m := &memDB{
		d: memData{
			users:    map[primitive.ObjectID]User{},
			events:   map[primitive.ObjectID]Event{},
			bookings: map[primitive.ObjectID]Booking{},
			likes:    map[primitive.ObjectID]Like{},
			subs:     map[primitive.ObjectID]Subscription{},
			admins:   map[primitive.ObjectID]Admin{},
			blogs:    map[primitive.ObjectID]Blog{},
		},
		now: time.Now,
	}
	tx := memTx{m}
	return &Store{
		Users:         memUsers{m},
		Events:        memEvents{m},
		Bookings:      memBookings{m},
		Likes:         memLikes{m},
		Subscriptions: memSubscriptions{m},
		Admins:        memAdmins{m},
		Blogs:         memBlogs{m},
		Tx:            tx,
		Integrity:     newIntegrity(m, tx, log),
	}
}

func (m *memDB) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(memTxKey{}).(*memDB)
	return owner == m
}

func (m *memDB) write(ctx context.Context, fn func(d *memData) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.inTx(ctx) {
		m.txMu.Lock()
		defer m.txMu.Unlock()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&m.d)
}

func (m *memDB) read(ctx context.Context, fn func(d *memData) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&m.d)
}

type memTx struct{ m *memDB }

func (t memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.m.inTx(ctx) {
		return fn(ctx)
	}
	t.m.txMu.Lock()
	defer t.m.txMu.Unlock()

	t.m.mu.RLock()
	snap := t.m.d.clone()
	t.m.mu.RUnlock()

	if err := fn(context.WithValue(ctx, memTxKey{}, t.m)); err != nil {
		t.m.mu.Lock()
		t.m.d = snap
		t.m.mu.Unlock()
		return err
	}
	return nil
}

func appendID(s []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	return append(slices.Clip(s), id)
}

func addID(s []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if slices.Contains(s, id) {
		return s
	}
	return appendID(s, id)
}

func withoutID(s []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if !slices.Contains(s, id) {
		return s
	}
	return slices.DeleteFunc(slices.Clone(s), func(x primitive.ObjectID) bool { return x == id })
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func sortedValues[T any](m map[primitive.ObjectID]T, keep func(*T) bool, id func(T) primitive.ObjectID) []T {
	out := []T{}
	for _, v := range m {
		if keep == nil || keep(&v) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, byObjectID(id))
	return out
}

/* -------------------- users -------------------- */

type memUsers struct{ m *memDB }

func userID(u User) primitive.ObjectID { return u.ID }

func (r memUsers) Create(ctx context.Context, u *User) error {
	return r.m.write(ctx, func(d *memData) error {
		for _, other := range d.users {
			if strings.EqualFold(other.Email, u.Email) {
				return ErrDuplicate
			}
			if u.PhoneNumber != "" && other.PhoneNumber == u.PhoneNumber {
				return ErrDuplicate
			}
		}
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = r.m.now()
		}
		u.Interests = emptyIfNil(u.Interests)
		u.PreferredEventTypes = emptyIfNil(u.PreferredEventTypes)
		u.Document = emptyIfNil(u.Document)
		u.Bookings = emptyIfNil(u.Bookings)
		u.Events = emptyIfNil(u.Events)
		u.FCMToken = emptyIfNil(u.FCMToken)
		d.users[u.ID] = *u
		return nil
	})
}

func (r memUsers) GetByID(ctx context.Context, id primitive.ObjectID) (User, error) {
	var out User
	err := r.m.read(ctx, func(d *memData) error {
		u, ok := d.users[id]
		if !ok {
			return ErrNotFound
		}
		out = u
		return nil
	})
	return out, err
}

func (r memUsers) findOne(ctx context.Context, match func(*User) bool) (User, error) {
	var out User
	err := r.m.read(ctx, func(d *memData) error {
		for _, u := range d.users {
			if match(&u) {
				out = u
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, func(u *User) bool { return strings.EqualFold(u.Email, email) })
}

func (r memUsers) GetByPhone(ctx context.Context, phone string) (User, error) {
	return r.findOne(ctx, func(u *User) bool { return phone != "" && u.PhoneNumber == phone })
}

func (r memUsers) List(ctx context.Context) ([]User, error) {
	var out []User
	err := r.m.read(ctx, func(d *memData) error {
		out = sortedValues(d.users, nil, userID)
		return nil
	})
	return out, err
}

func (r memUsers) ListByProfileType(ctx context.Context, profileType string) ([]User, error) {
	var out []User
	err := r.m.read(ctx, func(d *memData) error {
		out = sortedValues(d.users, func(u *User) bool { return u.ProfileType == profileType }, userID)
		return nil
	})
	return out, err
}

func (r memUsers) mutate(ctx context.Context, id primitive.ObjectID, fn func(u *User) error) (User, error) {
	var out User
	err := r.m.write(ctx, func(d *memData) error {
		u, ok := d.users[id]
		if !ok {
			return ErrNotFound
		}
		if err := fn(&u); err != nil {
			return err
		}
		d.users[id] = u
		out = u
		return nil
	})
	return out, err
}

func (r memUsers) Update(ctx context.Context, id primitive.ObjectID, p UserPatch) (User, error) {
	return r.mutate(ctx, id, func(u *User) error {
		if p.PhoneNumber != nil && *p.PhoneNumber != "" && *p.PhoneNumber != u.PhoneNumber {
			for _, other := range r.m.d.users {
				if other.ID != id && other.PhoneNumber == *p.PhoneNumber {
					return ErrDuplicate
				}
			}
		}
		if p.Email != nil && !strings.EqualFold(*p.Email, u.Email) {
			for _, other := range r.m.d.users {
				if other.ID != id && strings.EqualFold(other.Email, *p.Email) {
					return ErrDuplicate
				}
			}
		}
		p.apply(u)
		return nil
	})
}

func (r memUsers) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := r.mutate(ctx, id, func(u *User) error {
		u.Password = hash
		return nil
	})
	return err
}

func (r memUsers) AddDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error {
	_, err := r.mutate(ctx, id, func(u *User) error {
		if !slices.Contains(u.FCMToken, token) {
			u.FCMToken = append(slices.Clip(u.FCMToken), token)
		}
		return nil
	})
	return err
}

func (r memUsers) AddEvent(ctx context.Context, id, eventID primitive.ObjectID) error {
	_, err := r.mutate(ctx, id, func(u *User) error {
		u.Events = addID(u.Events, eventID)
		return nil
	})
	return err
}

func (r memUsers) AddBooking(ctx context.Context, id, bookingID primitive.ObjectID) error {
	_, err := r.mutate(ctx, id, func(u *User) error {
		u.Bookings = appendID(u.Bookings, bookingID)
		return nil
	})
	return err
}

func (r memUsers) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.m.read(ctx, func(d *memData) error {
		n = int64(len(d.users))
		return nil
	})
	return n, err
}

/* -------------------- events -------------------- */

type memEvents struct{ m *memDB }

func (r memEvents) Create(ctx context.Context, e *Event) error {
	return r.m.write(ctx, func(d *memData) error {
		if e.ID.IsZero() {
			e.ID = primitive.NewObjectID()
		}
		now := r.m.now()
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.UpdatedAt = now
		e.EventCategory = emptyIfNil(e.EventCategory)
		e.EventPosters = emptyIfNil(e.EventPosters)
		e.EventAgenda = emptyIfNil(e.EventAgenda)
		e.Bookings = emptyIfNil(e.Bookings)
		d.events[e.ID] = *e
		return nil
	})
}

func (r memEvents) GetByID(ctx context.Context, id primitive.ObjectID) (Event, error) {
	var out Event
	err := r.m.read(ctx, func(d *memData) error {
		e, ok := d.events[id]
		if !ok {
			return ErrNotFound
		}
		out = e
		return nil
	})
	return out, err
}

func (r memEvents) Find(ctx context.Context, f EventFilter, p Page) ([]Event, int64, error) {
	var (
		out   []Event
		total int64
	)
	err := r.m.read(ctx, func(d *memData) error {
		all := sortedValues(d.events, f.matches, func(e Event) primitive.ObjectID { return e.ID })
		slices.SortStableFunc(all, func(a, b Event) int { return f.compare(&a, &b) })
		total = int64(len(all))
		out = window(all, p)
		return nil
	})
	return out, total, err
}

func (r memEvents) Count(ctx context.Context, f EventFilter) (int64, error) {
	_, n, err := r.Find(ctx, f, Page{Limit: 1})
	return n, err
}

func (r memEvents) mutate(ctx context.Context, id primitive.ObjectID, fn func(e *Event) error) (Event, error) {
	var out Event
	err := r.m.write(ctx, func(d *memData) error {
		e, ok := d.events[id]
		if !ok {
			return ErrNotFound
		}
		if err := fn(&e); err != nil {
			return err
		}
		d.events[id] = e
		out = e
		return nil
	})
	return out, err
}

func (r memEvents) Update(ctx context.Context, id primitive.ObjectID, p EventPatch) (Event, error) {
	return r.mutate(ctx, id, func(e *Event) error {
		p.Apply(e)
		e.UpdatedAt = r.m.now()
		return nil
	})
}

func (r memEvents) SetApproved(ctx context.Context, id primitive.ObjectID, approved bool) (Event, error) {
	return r.mutate(ctx, id, func(e *Event) error {
		e.Approved = approved
		if approved {
			at := r.m.now()
			e.ApprovedAt = &at
		}
		e.UpdatedAt = r.m.now()
		return nil
	})
}

func (r memEvents) ReserveSeats(ctx context.Context, id, bookingID primitive.ObjectID, n int) error {
	_, err := r.mutate(ctx, id, func(e *Event) error {
		if !e.Approved {
			return ErrEventNotApproved
		}
		if !e.HasRoomFor(n) {
			return ErrCapacityExceeded
		}
		e.CurrentNoOfAttendees += n
		e.Bookings = appendID(e.Bookings, bookingID)
		return nil
	})
	return err
}

/* -------------------- bookings -------------------- */

type memBookings struct{ m *memDB }

func bookingID(b Booking) primitive.ObjectID { return b.ID }

func (r memBookings) Create(ctx context.Context, b *Booking) error {
	return r.m.write(ctx, func(d *memData) error {
		if b.ID.IsZero() {
			b.ID = primitive.NewObjectID()
		}
		now := r.m.now()
		b.CreatedAt, b.UpdatedAt = now, now
		d.bookings[b.ID] = *b
		return nil
	})
}

func (r memBookings) GetByID(ctx context.Context, id primitive.ObjectID) (Booking, error) {
	var out Booking
	err := r.m.read(ctx, func(d *memData) error {
		b, ok := d.bookings[id]
		if !ok {
			return ErrNotFound
		}
		out = b
		return nil
	})
	return out, err
}

func (r memBookings) ByEvent(ctx context.Context, eventID primitive.ObjectID) ([]Booking, error) {
	var out []Booking
	err := r.m.read(ctx, func(d *memData) error {
		out = sortedValues(d.bookings, func(b *Booking) bool { return b.Event == eventID }, bookingID)
		return nil
	})
	return out, err
}

func (r memBookings) ByUser(ctx context.Context, userID primitive.ObjectID) ([]Booking, error) {
	var out []Booking
	err := r.m.read(ctx, func(d *memData) error {
		out = sortedValues(d.bookings, func(b *Booking) bool { return b.User == userID }, bookingID)
		slices.Reverse(out)
		return nil
	})
	return out, err
}

func (r memBookings) TotalAttendees(ctx context.Context) (int64, error) {
	var n int64
	err := r.m.read(ctx, func(d *memData) error {
		for _, b := range d.bookings {
			n += int64(b.NoOfAttendee)
		}
		return nil
	})
	return n, err
}

/* -------------------- likes -------------------- */

type memLikes struct{ m *memDB }

func (r memLikes) Create(ctx context.Context, l *Like) error {
	return r.m.write(ctx, func(d *memData) error {
		for _, other := range d.likes {
			if other.UserID == l.UserID && other.EventID == l.EventID {
				return ErrDuplicate
			}
		}
		if l.ID.IsZero() {
			l.ID = primitive.NewObjectID()
		}
		l.CreatedAt = r.m.now()
		d.likes[l.ID] = *l
		return nil
	})
}

func (r memLikes) Get(ctx context.Context, userID, eventID primitive.ObjectID) (Like, error) {
	var out Like
	err := r.m.read(ctx, func(d *memData) error {
		for _, l := range d.likes {
			if l.UserID == userID && l.EventID == eventID {
				out = l
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (r memLikes) CountByEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	var n int64
	err := r.m.read(ctx, func(d *memData) error {
		for _, l := range d.likes {
			if l.EventID == eventID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r memLikes) EventIDsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	err := r.m.read(ctx, func(d *memData) error {
		likes := sortedValues(d.likes, func(l *Like) bool { return l.UserID == userID }, func(l Like) primitive.ObjectID { return l.ID })
		slices.Reverse(likes)
		out = make([]primitive.ObjectID, 0, len(likes))
		for _, l := range likes {
			out = append(out, l.EventID)
		}
		return nil
	})
	return out, err
}

/* -------------------- subscriptions -------------------- */

type memSubscriptions struct{ m *memDB }

func subscriptionID(s Subscription) primitive.ObjectID { return s.ID }

func (r memSubscriptions) Create(ctx context.Context, s *Subscription) error {
	return r.m.write(ctx, func(d *memData) error {
		for _, other := range d.subs {
			if other.Subscriber == s.Subscriber && other.SubscribedTo == s.SubscribedTo {
				return ErrDuplicate
			}
		}
		if s.ID.IsZero() {
			s.ID = primitive.NewObjectID()
		}
		s.CreatedAt = r.m.now()
		d.subs[s.ID] = *s
		return nil
	})
}

func (r memSubscriptions) Get(ctx context.Context, subscriber, subscribedTo primitive.ObjectID) (Subscription, error) {
	var out Subscription
	err := r.m.read(ctx, func(d *memData) error {
		for _, s := range d.subs {
			if s.Subscriber == subscriber && s.SubscribedTo == subscribedTo {
				out = s
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (r memSubscriptions) BySubscriber(ctx context.Context, subscriber primitive.ObjectID) ([]Subscription, error) {
	var out []Subscription
	err := r.m.read(ctx, func(d *memData) error {
		out = sortedValues(d.subs, func(s *Subscription) bool { return s.Subscriber == subscriber }, subscriptionID)
		return nil
	})
	return out, err
}

func (r memSubscriptions) BySubscribedTo(ctx context.Context, subscribedTo primitive.ObjectID) ([]Subscription, error) {
	var out []Subscription
	err := r.m.read(ctx, func(d *memData) error {
		out = sortedValues(d.subs, func(s *Subscription) bool { return s.SubscribedTo == subscribedTo }, subscriptionID)
		return nil
	})
	return out, err
}

/* -------------------- admins / blogs -------------------- */

type memAdmins struct{ m *memDB }

func (r memAdmins) Create(ctx context.Context, a *Admin) error {
	return r.m.write(ctx, func(d *memData) error {
		for _, other := range d.admins {
			if strings.EqualFold(other.Email, a.Email) {
				return ErrDuplicate
			}
		}
		if a.ID.IsZero() {
			a.ID = primitive.NewObjectID()
		}
		if a.Designation == "" {
			a.Designation = DesignationAdmin
		}
		a.CreatedAt = r.m.now()
		d.admins[a.ID] = *a
		return nil
	})
}

func (r memAdmins) GetByEmail(ctx context.Context, email string) (Admin, error) {
	var out Admin
	err := r.m.read(ctx, func(d *memData) error {
		for _, a := range d.admins {
			if strings.EqualFold(a.Email, email) {
				out = a
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (r memAdmins) GetByID(ctx context.Context, id primitive.ObjectID) (Admin, error) {
	var out Admin
	err := r.m.read(ctx, func(d *memData) error {
		a, ok := d.admins[id]
		if !ok {
			return ErrNotFound
		}
		out = a
		return nil
	})
	return out, err
}

type memBlogs struct{ m *memDB }

func (r memBlogs) Create(ctx context.Context, b *Blog) error {
	return r.m.write(ctx, func(d *memData) error {
		for _, other := range d.blogs {
			if other.Title == b.Title {
				return ErrDuplicate
			}
		}
		if b.ID.IsZero() {
			b.ID = primitive.NewObjectID()
		}
		b.Images = emptyIfNil(b.Images)
		d.blogs[b.ID] = *b
		return nil
	})
}

func (r memBlogs) GetByID(ctx context.Context, id primitive.ObjectID) (Blog, error) {
	var out Blog
	err := r.m.read(ctx, func(d *memData) error {
		b, ok := d.blogs[id]
		if !ok {
			return ErrNotFound
		}
		out = b
		return nil
	})
	return out, err
}

func (r memBlogs) List(ctx context.Context) ([]Blog, error) {
	var out []Blog
	err := r.m.read(ctx, func(d *memData) error {
		out = sortedValues(d.blogs, nil, func(b Blog) primitive.ObjectID { return b.ID })
		return nil
	})
	return out, err
}
