package models

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"eventhub/geo"
)

type mongoEventRepo struct {
	col *mongo.Collection
}

func NewMongoEventRepository(col *mongo.Collection) EventRepository {
	return &mongoEventRepo{col: col}
}

func (r *mongoEventRepo) Create(ctx context.Context, e *Event) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	e.EventCategory = emptyIfNil(e.EventCategory)
	e.EventPosters = emptyIfNil(e.EventPosters)
	e.EventAgenda = emptyIfNil(e.EventAgenda)
	e.Bookings = emptyIfNil(e.Bookings)

	_, err := r.col.InsertOne(ctx, e)
	return mapErr(err)
}

func (r *mongoEventRepo) GetByID(ctx context.Context, id primitive.ObjectID) (Event, error) {
	return findOne[Event](ctx, r.col, bson.M{"_id": id})
}

func (r *mongoEventRepo) Find(ctx context.Context, f EventFilter, p Page) ([]Event, int64, error) {
	q := eventQuery(f)
	find := q
	opts := options.Find().SetSkip(p.Skip)
	if f.Sort == SortNearest && f.Near != nil {
		// $nearSphere orders by distance itself but is not allowed in counts.
		find = nearestQuery(q, *f.Near)
	} else {
		opts.SetSort(eventSort(f.Sort))
	}
	if p.Limit > 0 {
		opts.SetLimit(p.Limit)
	}

	var (
		events []Event
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = findAll[Event](gctx, r.col, find, opts)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = r.count(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *mongoEventRepo) Count(ctx context.Context, f EventFilter) (int64, error) {
	return r.count(ctx, eventQuery(f))
}

func (r *mongoEventRepo) count(ctx context.Context, q bson.M) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return r.col.CountDocuments(ctx, q)
}

// Update applies p to the stored event and writes back only the editable
// fields; counters and the booking list are never part of the $set.
func (r *mongoEventRepo) Update(ctx context.Context, id primitive.ObjectID, p EventPatch) (Event, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return Event{}, err
	}
	p.Apply(&e)
	e.UpdatedAt = time.Now()

	set := bson.M{
		"isPrivate":          e.IsPrivate,
		"eventName":          e.EventName,
		"eventCategory":      e.EventCategory,
		"eventPosters":       e.EventPosters,
		"eventDesc":          e.EventDesc,
		"eventPrice":         e.EventPrice,
		"eventLang":          e.EventLang,
		"noOfAttendees":      e.NoOfAttendees,
		"maxAttendees":       e.MaxAttendees,
		"eventAgenda":        e.EventAgenda,
		"artistOrOratorName": e.ArtistOrOratorName,
		"organizerName":      e.OrganizerName,
		"organizerWhatsapp":  e.OrganizerWhatsapp,
		"eventLink":          e.EventLink,
		"bookingLink":        e.BookingLink,
		"locationLink":       e.LocationLink,
		"address":            e.Address,
		"startDate":          e.StartDate,
		"endDate":            e.EndDate,
		"startTime":          e.StartTime,
		"endTime":            e.EndTime,
		"updatedAt":          e.UpdatedAt,
	}
	if e.GeoCoordinates != nil {
		set["geoCoordinates"] = e.GeoCoordinates
	}
	return r.findAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *mongoEventRepo) SetApproved(ctx context.Context, id primitive.ObjectID, approved bool) (Event, error) {
	now := time.Now()
	set := bson.M{"approved": approved, "updatedAt": now}
	if approved {
		set["approvedAt"] = now
	}
	return r.findAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *mongoEventRepo) findAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (Event, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var e Event
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&e)
	return e, mapErr(err)
}

func (r *mongoEventRepo) ReserveSeats(ctx context.Context, id, bookingID primitive.ObjectID, n int) error {
	cctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{
		"_id":      id,
		"approved": true,
		"$or": bson.A{
			bson.M{"maxAttendees": nil},
			bson.M{"$expr": bson.M{"$gte": bson.A{
				"$maxAttendees",
				bson.M{"$add": bson.A{"$currentNoOfAttendees", n}},
			}}},
		},
	}
	update := bson.M{
		"$inc":  bson.M{"currentNoOfAttendees": n},
		"$push": bson.M{"bookings": bookingID},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	res, err := r.col.UpdateOne(cctx, filter, update)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	e, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !e.Approved {
		return ErrEventNotApproved
	}
	return ErrCapacityExceeded
}

func eventQuery(f EventFilter) bson.M {
	q := bson.M{}
	if f.Approved != nil {
		q["approved"] = *f.Approved
	}
	if !f.Owner.IsZero() {
		q["user"] = f.Owner
	}

	start := bson.M{}
	if !f.StartFrom.IsZero() {
		start["$gte"] = f.StartFrom
	}
	if !f.StartUntil.IsZero() {
		start["$lte"] = f.StartUntil
	}
	if len(start) > 0 {
		q["startDate"] = start
	}

	end := bson.M{}
	if !f.EndFrom.IsZero() {
		end["$gte"] = f.EndFrom
	}
	if !f.EndAfter.IsZero() {
		end["$gt"] = f.EndAfter
	}
	if !f.EndBefore.IsZero() {
		end["$lt"] = f.EndBefore
	}
	if len(end) > 0 {
		q["endDate"] = end
	}

	if f.Near != nil {
		if f.Near.Km > 0 {
			q["geoCoordinates"] = bson.M{"$geoWithin": bson.M{
				"$centerSphere": bson.A{bson.A{f.Near.Lng, f.Near.Lat}, f.Near.Km / geo.EarthRadiusKm},
			}}
		} else {
			q["geoCoordinates"] = bson.M{"$exists": true}
		}
	}

	var text bson.A
	regex := func(term string) primitive.Regex {
		return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	}
	like := func(term string, fields ...string) {
		if term == "" {
			return
		}
		if len(fields) == 1 {
			text = append(text, bson.M{fields[0]: regex(term)})
			return
		}
		alt := bson.A{}
		for _, fld := range fields {
			alt = append(alt, bson.M{fld: regex(term)})
		}
		text = append(text, bson.M{"$or": alt})
	}
	anyOf := func(field string, terms []string) {
		if len(terms) == 0 {
			return
		}
		in := bson.A{}
		for _, t := range terms {
			in = append(in, regex(t))
		}
		text = append(text, bson.M{field: bson.M{"$in": in}})
	}
	like(f.NameLike, "eventName")
	like(f.AddressLike, "address.address", "address.city")
	like(f.LanguageLike, "eventLang")
	anyOf("eventCategory", f.Categories)
	anyOf("artistOrOratorName", f.Artists)
	anyOf("organizerName", f.Organizers)
	if !f.OnDate.IsZero() {
		day := f.OnDate.UTC().Truncate(24 * time.Hour)
		text = append(text, bson.M{"startDate": bson.M{"$gte": day, "$lt": day.Add(24 * time.Hour)}})
	}
	if len(text) > 0 {
		if f.AnyText {
			q["$or"] = text
		} else {
			q["$and"] = text
		}
	}
	return q
}

func nearestQuery(q bson.M, c GeoCircle) bson.M {
	out := bson.M{}
	for k, v := range q {
		out[k] = v
	}
	near := bson.M{"$geometry": bson.M{"type": "Point", "coordinates": bson.A{c.Lng, c.Lat}}}
	if c.Km > 0 {
		near["$maxDistance"] = c.Km * 1000
	}
	out["geoCoordinates"] = bson.M{"$nearSphere": near}
	return out
}

func eventSort(s EventSort) bson.D {
	switch s {
	case SortEndAsc:
		return bson.D{{Key: "endDate", Value: 1}, {Key: "_id", Value: 1}}
	case SortEndDesc:
		return bson.D{{Key: "endDate", Value: -1}, {Key: "_id", Value: 1}}
	case SortCreatedDesc:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "startDate", Value: 1}, {Key: "_id", Value: 1}}
	}
}
