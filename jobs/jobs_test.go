package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/logger"
	"eventhub/models"
	"eventhub/utils"
)

type countingReconciler struct {
	calls atomic.Int32
	fixed int
	err   error
}

func (r *countingReconciler) Reconcile(context.Context) (int, error) {
	r.calls.Add(1)
	return r.fixed, r.err
}

func TestRunReconcile_RepairsAndPurges(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	inv := utils.NewCacheInvalidator(rdb)

	s := models.NewMemoryStore(nil)
	host := models.User{Name: "host", Email: "host@example.com", UserType: models.UserTypeHostAndParticipant}
	require.NoError(t, s.Users.Create(ctx, &host))
	ev := models.Event{EventName: "Satsang", Approved: true, User: host.ID, StartDate: time.Now().Add(time.Hour)}
	require.NoError(t, s.Events.Create(ctx, &ev))
	require.NoError(t, s.Integrity.AdjustAttendeeCount(ctx, ev.ID, 6))

	key := utils.CacheEventItem + ev.ID.Hex() + ":abc"
	require.NoError(t, mr.Set(key, "stale"))

	assert.Equal(t, 1, RunReconcile(ctx, s.Integrity, inv, logger.Discard()))
	got, err := s.Events.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Zero(t, got.CurrentNoOfAttendees)
	assert.False(t, mr.Exists(key))

	require.NoError(t, mr.Set(key, "fresh"))
	assert.Equal(t, 0, RunReconcile(ctx, s.Integrity, inv, logger.Discard()))
	assert.True(t, mr.Exists(key), "nothing fixed, nothing purged")
}

func TestRunReconcile_Failure(t *testing.T) {
	r := &countingReconciler{err: errors.New("mongo down")}
	assert.Equal(t, -1, RunReconcile(context.Background(), r, nil, logger.Discard()))
}

func TestScheduler(t *testing.T) {
	s := NewScheduler(nil)
	r := &countingReconciler{}

	assert.Error(t, s.AddReconcile("every tuesday", r, nil, time.Second))
	require.NoError(t, s.AddReconcile("", r, nil, time.Second))
	require.NoError(t, s.AddReconcile("@every 1s", r, nil, time.Second))

	s.Start()
	require.Eventually(t, func() bool { return r.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
