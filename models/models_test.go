package models

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCount_AcceptsNumberOrNumericString(t *testing.T) {
	var body struct {
		N Count `json:"n"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"n":5}`), &body))
	assert.Equal(t, Count(5), body.N)
	require.NoError(t, json.Unmarshal([]byte(`{"n":"12"}`), &body))
	assert.Equal(t, Count(12), body.N)

	assert.Error(t, json.Unmarshal([]byte(`{"n":"abc"}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"n":2.5}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"n":9000000000000000000}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"n":"9000000000000000000"}`), &body))
	require.NoError(t, json.Unmarshal([]byte(`{"n":2147483647}`), &body))
	assert.Equal(t, Count(math.MaxInt32), body.N)
}

func TestCapacity(t *testing.T) {
	cases := map[string]*int{
		`{"max":"50"}`:       intPtr(50),
		`{"max":50}`:         intPtr(50),
		`{"max":"Infinity"}`: nil,
		`{"max":null}`:       nil,
		`{"max":""}`:         nil,
		`{}`:                 nil,
	}
	for in, want := range cases {
		var body struct {
			Max Capacity `json:"max"`
		}
		require.NoError(t, json.Unmarshal([]byte(in), &body), in)
		assert.Equal(t, want, body.Max.Limit, in)
	}

	var body struct {
		Max Capacity `json:"max"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"max":"-1"}`), &body))

	out, err := json.Marshal(Capacity{Limit: intPtr(3)})
	require.NoError(t, err)
	assert.JSONEq(t, `3`, string(out))
}

func TestSocialLinks_BothShapesNormalize(t *testing.T) {
	var fromArray, fromObject SocialLinks
	require.NoError(t, json.Unmarshal([]byte(`[
		{"type":"facebook","link":"https://fb.com/a"},
		{"type":"Instagram","link":"https://ig.com/a"}
	]`), &fromArray))
	require.NoError(t, json.Unmarshal([]byte(`{
		"facebook":"https://fb.com/a",
		"instagram":"https://ig.com/a",
		"youtube":null
	}`), &fromObject))

	assert.Equal(t, fromArray, fromObject)
	require.NotNil(t, fromArray.Facebook)
	assert.Equal(t, "https://fb.com/a", *fromArray.Facebook)
	assert.Nil(t, fromArray.Youtube)

	var bad SocialLinks
	assert.Error(t, json.Unmarshal([]byte(`[{"type":"myspace","link":"x"}]`), &bad))
}

func TestEventFind_FilterSortAndPage(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	host := seedUser(t, s, "host")
	now := time.Now()

	mk := func(name string, startIn time.Duration, approved bool, lat, lng float64) {
		e := Event{
			EventName:      name,
			Approved:       approved,
			User:           host.ID,
			StartDate:      now.Add(startIn),
			EndDate:        now.Add(startIn + 2*time.Hour),
			GeoCoordinates: NewGeoPoint(lat, lng),
			EventCategory:  []string{"Music"},
		}
		require.NoError(t, s.Events.Create(ctx, &e))
	}
	mk("Kirtan Night", 48*time.Hour, true, 12.97, 77.59)
	mk("Morning Yoga", 24*time.Hour, true, 12.98, 77.60)
	mk("Old Talk", -72*time.Hour, true, 19.07, 72.87)
	mk("Pending Kirtan", 72*time.Hour, false, 12.97, 77.59)

	yes := true
	upcoming, total, err := s.Events.Find(ctx, EventFilter{Approved: &yes, StartFrom: now}, Page{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Morning Yoga", upcoming[0].EventName)

	page2, _, err := s.Events.Find(ctx, EventFilter{Approved: &yes, StartFrom: now}, Page{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "Kirtan Night", page2[0].EventName)

	kirtans, _, err := s.Events.Find(ctx, EventFilter{NameLike: "kirtan"}, Page{})
	require.NoError(t, err)
	assert.Len(t, kirtans, 2)

	near, _, err := s.Events.Find(ctx, EventFilter{Approved: &yes, Near: &GeoCircle{Lat: 12.97, Lng: 77.59, Km: 10}}, Page{})
	require.NoError(t, err)
	assert.Len(t, near, 2)

	either, _, err := s.Events.Find(ctx, EventFilter{NameLike: "yoga", Artists: []string{"nobody"}, AnyText: true}, Page{})
	require.NoError(t, err)
	assert.Len(t, either, 1)

	both, _, err := s.Events.Find(ctx, EventFilter{NameLike: "yoga", Artists: []string{"nobody"}}, Page{})
	require.NoError(t, err)
	assert.Empty(t, both)
}

func TestUsers_UniqueEmailAndPhone(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	require.NoError(t, s.Users.Create(ctx, &User{Email: "a@x.io", PhoneNumber: "+911"}))
	assert.ErrorIs(t, s.Users.Create(ctx, &User{Email: "A@x.io"}), ErrDuplicate)
	assert.ErrorIs(t, s.Users.Create(ctx, &User{Email: "b@x.io", PhoneNumber: "+911"}), ErrDuplicate)
	assert.NoError(t, s.Users.Create(ctx, &User{Email: "c@x.io"}))
	assert.NoError(t, s.Users.Create(ctx, &User{Email: "d@x.io"}))
}

func TestUserPatch_KeepsCoordinatesOnAddressEdit(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	u := seedUser(t, s, "geo")

	_, err := s.Users.Update(ctx, u.ID, UserPatch{Coordinates: &Coordinates{Lat: "12.9", Lng: "77.5"}})
	require.NoError(t, err)
	got, err := s.Users.Update(ctx, u.ID, UserPatch{Location: &UserLocation{Address: "MG Road", City: "Bengaluru"}})
	require.NoError(t, err)

	lat, lng, ok := got.Point()
	require.True(t, ok)
	assert.InDelta(t, 12.9, lat, 1e-9)
	assert.InDelta(t, 77.5, lng, 1e-9)
	assert.Equal(t, "MG Road", got.Location.Address)
}
