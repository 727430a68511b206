//go:build integration

// Runs the integrity and capacity checks against a real MongoDB replica set.
// MONGO_URI must point at a replica set (transactions need one).
package models

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func newMongoStore(t *testing.T) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	uri := getenv("MONGO_URI", "mongodb://127.0.0.1:27017/?replicaSet=rs0")
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, cli.Ping(ctx, nil))

	db := cli.Database(fmt.Sprintf("eventhub_it_%d", time.Now().UnixNano()))
	require.NoError(t, EnsureIndexes(ctx, db))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = cli.Disconnect(context.Background())
	})
	return NewMongoStore(db, nil)
}

func TestMongo_CascadeOnUserDelete(t *testing.T) {
	s := newMongoStore(t)
	ctx := context.Background()

	host := seedUser(t, s, "host")
	fan := seedUser(t, s, "fan")
	ev := seedEvent(t, s, host, intPtr(20))
	other := seedEvent(t, s, fan, nil)

	book(t, s, fan, ev, 3)
	like(t, s, fan, ev)
	book(t, s, host, other, 2)
	like(t, s, host, other)
	subscribe(t, s, fan, host)

	require.NoError(t, s.Integrity.DeleteUser(ctx, host.ID))

	_, err := s.Events.GetByID(ctx, ev.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	f, err := s.Users.GetByID(ctx, fan.ID)
	require.NoError(t, err)
	assert.Empty(t, f.Bookings)
	subs, _ := s.Subscriptions.BySubscriber(ctx, fan.ID)
	assert.Empty(t, subs)
	assertCounters(t, s, other.ID)
}

func TestMongo_ConcurrentBookingsNeverOverfill(t *testing.T) {
	s := newMongoStore(t)
	host := seedUser(t, s, "host")
	ev := seedEvent(t, s, host, intPtr(10))
	guest := seedUser(t, s, "guest")

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Tx.WithTransaction(context.Background(), func(ctx context.Context) error {
				b := Booking{Event: ev.ID, User: guest.ID, NoOfAttendee: 3}
				if err := s.Bookings.Create(ctx, &b); err != nil {
					return err
				}
				return s.Events.ReserveSeats(ctx, ev.ID, b.ID, 3)
			})
		}()
	}
	wg.Wait()

	e, err := s.Events.GetByID(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, e.CurrentNoOfAttendees, 10)
	assert.Equal(t, 9, e.CurrentNoOfAttendees)
	assertCounters(t, s, ev.ID)
}

func TestMongo_LikeCountFloor(t *testing.T) {
	s := newMongoStore(t)
	ctx := context.Background()
	ev := seedEvent(t, s, seedUser(t, s, "host"), nil)

	require.NoError(t, s.Integrity.AdjustLikeCount(ctx, ev.ID, -1))
	e, _ := s.Events.GetByID(ctx, ev.ID)
	assert.Equal(t, 0, e.LikeCount)

	assert.ErrorIs(t, s.Events.ReserveSeats(ctx, primitive.NewObjectID(), primitive.NewObjectID(), 1), ErrNotFound)
}
