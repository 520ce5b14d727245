package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Timi2001/AI-Email-Assistant/internal/models"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func statusOf(t *testing.T, statuses []models.ActionStatus, action models.ActionType) models.ActionStatus {
	t.Helper()
	for _, st := range statuses {
		if st.Action == action {
			return st
		}
	}
	t.Fatalf("no status for %s", action)
	return models.ActionStatus{}
}

func trackers(t *testing.T) map[string]StatusTracker {
	client := newTestRedis(t)
	return map[string]StatusTracker{
		"memory": NewMemoryStatusTracker(),
		"redis":  NewRedisStatusTracker(client, client, time.Hour),
	}
}

func TestStatusTracker_OverlappingCallsKeepLoading(t *testing.T) {
	for name, tracker := range trackers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id := uuid.New()

			require.NoError(t, tracker.Begin(ctx, id, models.ActionSubject))
			require.NoError(t, tracker.Begin(ctx, id, models.ActionSubject))

			// First call fails; the second is still running.
			require.NoError(t, tracker.Finish(ctx, id, models.ActionSubject, "Sorry, there was an error generating subject lines."))

			snap, err := tracker.Snapshot(ctx, id)
			require.NoError(t, err)
			st := statusOf(t, snap, models.ActionSubject)
			assert.True(t, st.Loading)
			assert.Equal(t, 1, st.InFlight)

			require.NoError(t, tracker.Finish(ctx, id, models.ActionSubject, ""))
			snap, err = tracker.Snapshot(ctx, id)
			require.NoError(t, err)
			st = statusOf(t, snap, models.ActionSubject)
			assert.False(t, st.Loading)
			assert.Empty(t, st.Error)
		})
	}
}

func TestStatusTracker_ActionsAreIndependent(t *testing.T) {
	for name, tracker := range trackers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id := uuid.New()

			require.NoError(t, tracker.Begin(ctx, id, models.ActionSpam))
			require.NoError(t, tracker.Begin(ctx, id, models.ActionCta))
			require.NoError(t, tracker.Finish(ctx, id, models.ActionCta, "Sorry, there was an error generating CTAs."))

			snap, err := tracker.Snapshot(ctx, id)
			require.NoError(t, err)
			assert.Len(t, snap, len(models.ActionTypes))
			assert.True(t, statusOf(t, snap, models.ActionSpam).Loading)
			assert.False(t, statusOf(t, snap, models.ActionCta).Loading)
			assert.Equal(t, "Sorry, there was an error generating CTAs.", statusOf(t, snap, models.ActionCta).Error)
			assert.False(t, statusOf(t, snap, models.ActionBody).Loading)
		})
	}
}

func TestStatusTracker_FinishWithoutBeginClampsAtZero(t *testing.T) {
	for name, tracker := range trackers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id := uuid.New()

			require.NoError(t, tracker.Finish(ctx, id, models.ActionAbTest, ""))
			snap, err := tracker.Snapshot(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, 0, statusOf(t, snap, models.ActionAbTest).InFlight)
		})
	}
}

func TestStatusTracker_SubscribeReceivesUpdates(t *testing.T) {
	for name, tracker := range trackers(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			id := uuid.New()

			updates, err := tracker.Subscribe(ctx, id)
			require.NoError(t, err)

			require.NoError(t, tracker.Begin(ctx, id, models.ActionSummary))

			select {
			case st := <-updates:
				assert.Equal(t, models.ActionSummary, st.Action)
				assert.True(t, st.Loading)
			case <-time.After(2 * time.Second):
				t.Fatal("no status update received")
			}

			// Updates of other sessions are not delivered.
			require.NoError(t, tracker.Begin(ctx, uuid.New(), models.ActionSummary))
			select {
			case st := <-updates:
				t.Fatalf("unexpected update %+v", st)
			case <-time.After(100 * time.Millisecond):
			}

			cancel()
			select {
			case _, ok := <-updates:
				assert.False(t, ok)
			case <-time.After(2 * time.Second):
				t.Fatal("subscription was not closed")
			}
		})
	}
}

func TestStatusTracker_Forget(t *testing.T) {
	for name, tracker := range trackers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id := uuid.New()

			require.NoError(t, tracker.Begin(ctx, id, models.ActionBody))
			require.NoError(t, tracker.Forget(ctx, id))

			snap, err := tracker.Snapshot(ctx, id)
			require.NoError(t, err)
			assert.False(t, statusOf(t, snap, models.ActionBody).Loading)
		})
	}
}
