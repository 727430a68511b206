package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"eventhub/media"
	"eventhub/models"
)

func poster(name string) Upload {
	return Upload{Filename: name, Body: strings.NewReader("jpeg bytes of " + name)}
}

func eventInput(t *testing.T, raw string) EventInput {
	t.Helper()
	var in EventInput
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	return in
}

const kirtanJSON = `{
	"eventName": " Kirtan Night ",
	"eventCategory": "Music, devotional ,music",
	"eventPrice": 250,
	"noOfAttendees": "100",
	"maxAttendees": "80",
	"startDate": "2030-03-01",
	"endDate": "2030-03-01T22:00",
	"startTime": "19:00",
	"endTime": "22:00",
	"locationLink": "https://maps.google.com/?q=12.9716,77.5946",
	"address": {"address": "1 MG Road", "city": "Bengaluru", "state": "KA", "postalCode": "560001", "country": "India"}
}`

func TestEventInput_AcceptsLooseShapes(t *testing.T) {
	in := eventInput(t, kirtanJSON)
	assert.Equal(t, Categories{"Music", "devotional"}, in.EventCategory)
	require.NotNil(t, in.EventPrice)
	assert.Equal(t, Text("250"), *in.EventPrice)

	p, err := in.patch(models.Event{})
	require.NoError(t, err)
	assert.Equal(t, "Kirtan Night", *p.EventName)
	require.NotNil(t, p.GeoCoordinates)
	lat, lng := p.GeoCoordinates.LatLng()
	assert.InDelta(t, 12.9716, lat, 1e-9)
	assert.InDelta(t, 77.5946, lng, 1e-9)
	require.NotNil(t, p.MaxAttendees.Limit)
	assert.Equal(t, 80, *p.MaxAttendees.Limit)
}

func TestEventInput_Rejections(t *testing.T) {
	cases := map[string]string{
		"inverted range": `{"startDate":"2030-03-02","endDate":"2030-03-01"}`,
		"bad date":       `{"startDate":"next tuesday"}`,
		"bad time":       `{"startTime":"7pm"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			in := eventInput(t, raw)
			_, err := in.patch(models.Event{})
			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}

	partial := eventInput(t, `{"endDate":"2030-01-01"}`)
	_, err := partial.patch(models.Event{
		StartDate: time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2030, 2, 2, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err)
}

func TestEventCreate(t *testing.T) {
	s := models.NewMemoryStore(nil)
	ctx := context.Background()
	host := seedUser(t, s, "host")
	images := media.NewMemoryHost()
	svc := NewEventService(s, images, nil)

	_, err := svc.Create(ctx, host.ID, eventInput(t, kirtanJSON), nil)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "At least one event poster is required", vErr.Msg)

	_, err = svc.Create(ctx, host.ID, eventInput(t, `{"eventName":"x"}`), []Upload{poster("a.jpg")})
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "startDate")
	assert.Zero(t, images.Len())

	e, err := svc.Create(ctx, host.ID, eventInput(t, kirtanJSON), []Upload{poster("a.jpg"), poster("b.jpg")})
	require.NoError(t, err)
	assert.False(t, e.Approved)
	assert.Len(t, e.EventPosters, 2)
	assert.Equal(t, 2, images.Len())

	u, err := s.Users.GetByID(ctx, host.ID)
	require.NoError(t, err)
	assert.Contains(t, u.Events, e.ID)

	_, err = svc.Create(ctx, primitive.NewObjectID(), eventInput(t, kirtanJSON), []Upload{poster("c.jpg")})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, images.Len())
}

func TestEventUpdate_OwnerOnlyAndPosterSwap(t *testing.T) {
	s := models.NewMemoryStore(nil)
	ctx := context.Background()
	host := seedUser(t, s, "host")
	stranger := seedUser(t, s, "stranger")
	images := media.NewMemoryHost()
	svc := NewEventService(s, images, nil)

	e, err := svc.Create(ctx, host.ID, eventInput(t, kirtanJSON), []Upload{poster("a.jpg")})
	require.NoError(t, err)

	rename := eventInput(t, `{"eventName":"Bhajan Evening"}`)
	_, err = svc.Update(ctx, stranger.ID, false, e.ID.Hex(), &rename, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, host.ID, false, e.ID.Hex(), nil, nil)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	got, err := svc.Update(ctx, host.ID, false, e.ID.Hex(), &rename, []Upload{poster("new.jpg")})
	require.NoError(t, err)
	assert.Equal(t, "Bhajan Evening", got.EventName)
	require.Len(t, got.EventPosters, 1)
	assert.NotEqual(t, e.EventPosters[0], got.EventPosters[0])
	assert.Equal(t, 1, images.Len())

	got, err = svc.Update(ctx, stranger.ID, true, e.ID.Hex(), &EventInput{StartTime: strPtr("18:30")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "18:30", got.StartTime)
}

func TestEventListings(t *testing.T) {
	s := models.NewMemoryStore(nil)
	ctx := context.Background()
	host := seedUser(t, s, "host")
	fan := seedUser(t, s, "fan")
	svc := NewEventService(s, media.NewMemoryHost(), nil)

	_, err := svc.List(ctx, fan.ID, ListUpcoming, PageRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "No upcoming events found")

	for range 3 {
		seedEvent(t, s, host, nil, true)
	}
	pending := seedEvent(t, s, host, nil, false)
	liked := seedEvent(t, s, host, nil, true)
	_, _, err = NewSocialService(s).ToggleLike(ctx, fan.ID, liked.ID.Hex())
	require.NoError(t, err)

	page, err := svc.List(ctx, fan.ID, ListUpcoming, PageRequest{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page.Events, 1)
	assert.Equal(t, Pagination{Page: 2, Limit: 3, TotalEvents: 4, TotalPages: 2, HasPrevPage: true}, page.Pagination)

	all, err := svc.List(ctx, fan.ID, ListUpcoming, PageRequest{})
	require.NoError(t, err)
	var likedSeen bool
	for _, v := range all.Events {
		require.NotNil(t, v.Creator)
		assert.Equal(t, "host", v.Creator.Name)
		if v.ID == liked.ID {
			likedSeen = v.IsLiked
		}
	}
	assert.True(t, likedSeen)

	waiting, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, pending.ID, waiting[0].ID)

	_, err = svc.Approve(ctx, pending.ID.Hex())
	require.NoError(t, err)
	_, err = svc.Pending(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.List(ctx, fan.ID, ListPast, PageRequest{})
	assert.ErrorIs(t, err, ErrNotFound)

	owned, err := svc.OwnedBy(ctx, host.ID, true)
	require.NoError(t, err)
	assert.Len(t, owned, 5)

	_, err = svc.Get(ctx, fan.ID, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventNearbyAndSearch(t *testing.T) {
	s := models.NewMemoryStore(nil)
	ctx := context.Background()
	host := seedUser(t, s, "host")
	svc := NewEventService(s, media.NewMemoryHost(), nil)

	place := func(name string, lat, lng float64, artist string) models.Event {
		e := seedEvent(t, s, host, nil, true)
		in := EventInput{
			EventName:          &name,
			ArtistOrOratorName: &artist,
			LocationLink:       strPtr("https://maps.google.com/?q=" + ftoa(lat) + "," + ftoa(lng)),
		}
		out, err := svc.Update(ctx, host.ID, false, e.ID.Hex(), &in, nil)
		require.NoError(t, err)
		return out
	}
	place("Bengaluru Bhajans", 12.9716, 77.5946, "Ravi")
	place("Mysuru Music", 12.2958, 76.6394, "Meera")
	place("Mumbai Meetup", 19.0760, 72.8777, "Ravi")

	near, err := svc.Nearby(ctx, primitive.NilObjectID, NearbyQuery{Lat: 12.97, Lng: 77.59, Km: 200}, PageRequest{})
	require.NoError(t, err)
	require.Len(t, near.Events, 2)
	assert.Equal(t, "Bengaluru Bhajans", near.Events[0].EventName)
	require.NotNil(t, near.Events[1].DistanceInKm)
	assert.Greater(t, *near.Events[1].DistanceInKm, 100.0)

	_, err = svc.Nearby(ctx, primitive.NilObjectID, NearbyQuery{Lat: 95, Lng: 0}, PageRequest{})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	lat, lng := 19.0, 72.8
	found, err := svc.Search(ctx, primitive.NilObjectID, SearchQuery{Artist: "ravi", Lat: &lat, Lng: &lng}, PageRequest{})
	require.NoError(t, err)
	require.Len(t, found.Events, 2)
	assert.Equal(t, "Mumbai Meetup", found.Events[0].EventName)

	either, err := svc.Search(ctx, primitive.NilObjectID, SearchQuery{Name: "mysuru", Artist: "nobody"}, PageRequest{})
	require.NoError(t, err)
	assert.Len(t, either.Events, 1)

	_, err = svc.Search(ctx, primitive.NilObjectID, SearchQuery{Name: "zzz"}, PageRequest{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Suggest(ctx, primitive.NilObjectID, " ", PageRequest{})
	assert.ErrorAs(t, err, &vErr)
	sugg, err := svc.Suggest(ctx, primitive.NilObjectID, "mu", PageRequest{})
	require.NoError(t, err)
	assert.Len(t, sugg.Events, 2)
	assert.EqualValues(t, 10, sugg.Pagination.Limit)
}

func TestEventDistances(t *testing.T) {
	s := models.NewMemoryStore(nil)
	ctx := context.Background()
	host := seedUser(t, s, "host")
	svc := NewEventService(s, media.NewMemoryHost(), nil)
	e := seedEvent(t, s, host, nil, true)
	_, err := s.Events.Update(ctx, e.ID, models.EventPatch{GeoCoordinates: models.NewGeoPoint(12.9716, 77.5946)})
	require.NoError(t, err)
	seedEvent(t, s, host, nil, true)

	_, err = svc.Distances(ctx, host.ID.Hex())
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "User location not found.", vErr.Msg)

	_, err = s.Users.Update(ctx, host.ID, models.UserPatch{Coordinates: &models.Coordinates{Lat: "12.9716", Lng: "77.5946"}})
	require.NoError(t, err)
	out, err := svc.Distances(ctx, host.ID.Hex())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Zero(t, out[0].DistanceInKm)
}

func TestEventDelete_CascadesAndRemovesPosters(t *testing.T) {
	s := models.NewMemoryStore(nil)
	ctx := context.Background()
	host := seedUser(t, s, "host")
	guest := seedUser(t, s, "guest")
	images := media.NewMemoryHost()
	svc := NewEventService(s, images, nil)

	e, err := svc.Create(ctx, host.ID, eventInput(t, kirtanJSON), []Upload{poster("a.jpg")})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, e.ID.Hex())
	require.NoError(t, err)
	b, err := newBookingService(s, nil, nil).Create(ctx, request(e, guest, 2))
	require.NoError(t, err)
	_, _, err = NewSocialService(s).ToggleLike(ctx, guest.ID, e.ID.Hex())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, guest.ID, false, e.ID.Hex()), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, host.ID, false, e.ID.Hex()))

	assert.Zero(t, images.Len())
	_, err = s.Bookings.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	u, err := s.Users.GetByID(ctx, guest.ID)
	require.NoError(t, err)
	assert.Empty(t, u.Bookings)
	ids, err := s.Likes.EventIDsByUser(ctx, guest.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
	owner, err := s.Users.GetByID(ctx, host.ID)
	require.NoError(t, err)
	assert.NotContains(t, owner.Events, e.ID)

	assert.ErrorIs(t, svc.Delete(ctx, host.ID, false, e.ID.Hex()), ErrNotFound)
}

func TestEventInsight(t *testing.T) {
	s := models.NewMemoryStore(nil)
	ctx := context.Background()
	host := seedUser(t, s, "host")
	guest := seedUser(t, s, "guest")
	e := seedEvent(t, s, host, nil, true)
	bs := newBookingService(s, nil, nil)
	_, err := bs.Create(ctx, request(e, guest, 2))
	require.NoError(t, err)
	_, err = bs.Create(ctx, request(e, guest, 3))
	require.NoError(t, err)
	svc := NewEventService(s, media.NewMemoryHost(), nil)

	_, err = svc.Insight(ctx, guest.ID, e.ID.Hex())
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Insight(ctx, host.ID, "bad")
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	in, err := svc.Insight(ctx, host.ID, e.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 2, in.TotalBookings)
	assert.Equal(t, 5, in.TotalAttendees)
	assert.InDelta(t, 500.0, in.Revenue, 1e-9)
	assert.Len(t, in.WeeklyStats, 7)
	now := time.Now()
	assert.Equal(t, 2, in.WeeklyStats[int(now.Weekday())])
	assert.Equal(t, 2, in.MonthlyStats[now.Day()-1])
	assert.Equal(t, "guest", in.Bookings[0].UserName)
}

func strPtr(s string) *string { return &s }

func ftoa(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
