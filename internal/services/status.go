package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Timi2001/AI-Email-Assistant/internal/models"
)

// StatusTracker keeps the loading/error slot of every action per session.
// Each call increments and later decrements its own in-flight count, so
// overlapping calls of the same action never clear each other's flag.
type StatusTracker interface {
	Begin(ctx context.Context, sessionID uuid.UUID, action models.ActionType) error
	Finish(ctx context.Context, sessionID uuid.UUID, action models.ActionType, errMsg string) error
	Snapshot(ctx context.Context, sessionID uuid.UUID) ([]models.ActionStatus, error)
	// Subscribe streams status changes of one session until ctx is done.
	Subscribe(ctx context.Context, sessionID uuid.UUID) (<-chan models.ActionStatus, error)
	// Forget drops all state of a discarded session.
	Forget(ctx context.Context, sessionID uuid.UUID) error
}

func emptySnapshot() map[models.ActionType]*models.ActionStatus {
	out := make(map[models.ActionType]*models.ActionStatus, len(models.ActionTypes))
	for _, a := range models.ActionTypes {
		out[a] = &models.ActionStatus{Action: a}
	}
	return out
}

func orderedStatuses(m map[models.ActionType]*models.ActionStatus) []models.ActionStatus {
	out := make([]models.ActionStatus, 0, len(models.ActionTypes))
	for _, a := range models.ActionTypes {
		st := *m[a]
		st.Loading = st.InFlight > 0
		out = append(out, st)
	}
	return out
}

// ──── In-memory tracker ────

type MemoryStatusTracker struct {
	mu          sync.Mutex
	sessions    map[uuid.UUID]map[models.ActionType]*models.ActionStatus
	subscribers map[uuid.UUID][]chan models.ActionStatus
}

func NewMemoryStatusTracker() *MemoryStatusTracker {
	return &MemoryStatusTracker{
		sessions:    make(map[uuid.UUID]map[models.ActionType]*models.ActionStatus),
		subscribers: make(map[uuid.UUID][]chan models.ActionStatus),
	}
}

func (t *MemoryStatusTracker) slot(sessionID uuid.UUID, action models.ActionType) *models.ActionStatus {
	statuses, ok := t.sessions[sessionID]
	if !ok {
		statuses = emptySnapshot()
		t.sessions[sessionID] = statuses
	}
	st, ok := statuses[action]
	if !ok {
		st = &models.ActionStatus{Action: action}
		statuses[action] = st
	}
	return st
}

func (t *MemoryStatusTracker) Begin(ctx context.Context, sessionID uuid.UUID, action models.ActionType) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.slot(sessionID, action)
	st.InFlight++
	st.Loading = true
	st.Error = ""
	st.UpdatedAt = time.Now()
	t.notify(sessionID, *st)
	return nil
}

func (t *MemoryStatusTracker) Finish(ctx context.Context, sessionID uuid.UUID, action models.ActionType, errMsg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.slot(sessionID, action)
	if st.InFlight > 0 {
		st.InFlight--
	}
	st.Loading = st.InFlight > 0
	st.Error = errMsg
	st.UpdatedAt = time.Now()
	t.notify(sessionID, *st)
	return nil
}

func (t *MemoryStatusTracker) Snapshot(ctx context.Context, sessionID uuid.UUID) ([]models.ActionStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	statuses, ok := t.sessions[sessionID]
	if !ok {
		statuses = emptySnapshot()
	}
	return orderedStatuses(statuses), nil
}

func (t *MemoryStatusTracker) Subscribe(ctx context.Context, sessionID uuid.UUID) (<-chan models.ActionStatus, error) {
	ch := make(chan models.ActionStatus, 16)

	t.mu.Lock()
	t.subscribers[sessionID] = append(t.subscribers[sessionID], ch)
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		t.mu.Lock()
		defer t.mu.Unlock()

		subs := t.subscribers[sessionID]
		for i, c := range subs {
			if c == ch {
				t.subscribers[sessionID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(t.subscribers[sessionID]) == 0 {
			delete(t.subscribers, sessionID)
		}
		close(ch)
	}()

	return ch, nil
}

func (t *MemoryStatusTracker) Forget(ctx context.Context, sessionID uuid.UUID) error {
	t.mu.Lock()
	delete(t.sessions, sessionID)
	t.mu.Unlock()
	return nil
}

// notify must be called with t.mu held. Slow subscribers miss updates
// rather than block the action.
func (t *MemoryStatusTracker) notify(sessionID uuid.UUID, st models.ActionStatus) {
	for _, ch := range t.subscribers[sessionID] {
		select {
		case ch <- st:
		default:
		}
	}
}

// ──── Redis tracker ────

// RedisStatusTracker stores slots in a hash per session and publishes every
// change on the session's update channel, so any server instance can serve
// the session's sockets.
type RedisStatusTracker struct {
	redis  *redis.Client
	pubsub *redis.Client
	ttl    time.Duration
}

// NewRedisStatusTracker keeps slots through store and subscribes through
// pubsub. Both may be the same client.
func NewRedisStatusTracker(store, pubsub *redis.Client, ttl time.Duration) *RedisStatusTracker {
	return &RedisStatusTracker{redis: store, pubsub: pubsub, ttl: ttl}
}

func statusKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("action_status:%s", sessionID.String())
}

// UpdatesChannel is the pub/sub channel carrying one session's status changes.
func UpdatesChannel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session_updates:%s", sessionID.String())
}

func (t *RedisStatusTracker) Begin(ctx context.Context, sessionID uuid.UUID, action models.ActionType) error {
	key := statusKey(sessionID)
	now := time.Now().UTC()

	var inFlight *redis.IntCmd
	_, err := t.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		inFlight = pipe.HIncrBy(ctx, key, string(action)+":in_flight", 1)
		pipe.HDel(ctx, key, string(action)+":error")
		pipe.HSet(ctx, key, string(action)+":updated_at", now.Format(time.RFC3339Nano))
		pipe.Expire(ctx, key, t.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark %s loading: %w", action, err)
	}

	return t.publish(ctx, sessionID, models.ActionStatus{
		Action:    action,
		InFlight:  int(inFlight.Val()),
		Loading:   inFlight.Val() > 0,
		UpdatedAt: now,
	})
}

func (t *RedisStatusTracker) Finish(ctx context.Context, sessionID uuid.UUID, action models.ActionType, errMsg string) error {
	key := statusKey(sessionID)
	now := time.Now().UTC()

	var inFlight *redis.IntCmd
	_, err := t.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		inFlight = pipe.HIncrBy(ctx, key, string(action)+":in_flight", -1)
		if errMsg != "" {
			pipe.HSet(ctx, key, string(action)+":error", errMsg)
		} else {
			pipe.HDel(ctx, key, string(action)+":error")
		}
		pipe.HSet(ctx, key, string(action)+":updated_at", now.Format(time.RFC3339Nano))
		pipe.Expire(ctx, key, t.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear %s loading: %w", action, err)
	}

	count := int(inFlight.Val())
	if count < 0 {
		// Finish without a matching Begin, e.g. after the key expired.
		t.redis.HSet(ctx, key, string(action)+":in_flight", 0)
		count = 0
	}

	return t.publish(ctx, sessionID, models.ActionStatus{
		Action:    action,
		InFlight:  count,
		Loading:   count > 0,
		Error:     errMsg,
		UpdatedAt: now,
	})
}

func (t *RedisStatusTracker) Snapshot(ctx context.Context, sessionID uuid.UUID) ([]models.ActionStatus, error) {
	fields, err := t.redis.HGetAll(ctx, statusKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load action status: %w", err)
	}

	statuses := emptySnapshot()
	for _, a := range models.ActionTypes {
		st := statuses[a]
		if v, ok := fields[string(a)+":in_flight"]; ok {
			n, _ := strconv.Atoi(v)
			st.InFlight = max(n, 0)
		}
		st.Error = fields[string(a)+":error"]
		if v, ok := fields[string(a)+":updated_at"]; ok {
			st.UpdatedAt, _ = time.Parse(time.RFC3339Nano, v)
		}
	}
	return orderedStatuses(statuses), nil
}

func (t *RedisStatusTracker) Subscribe(ctx context.Context, sessionID uuid.UUID) (<-chan models.ActionStatus, error) {
	pubsub := t.pubsub.Subscribe(ctx, UpdatesChannel(sessionID))
	// Wait for the subscription to be confirmed so no update published after
	// this call returns is lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to session updates: %w", err)
	}

	out := make(chan models.ActionStatus, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var st models.ActionStatus
				if err := json.Unmarshal([]byte(msg.Payload), &st); err != nil {
					slog.Warn("dropping malformed status update", "session", sessionID, "error", err)
					continue
				}
				select {
				case out <- st:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (t *RedisStatusTracker) Forget(ctx context.Context, sessionID uuid.UUID) error {
	return t.redis.Del(ctx, statusKey(sessionID)).Err()
}

func (t *RedisStatusTracker) publish(ctx context.Context, sessionID uuid.UUID, st models.ActionStatus) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return t.redis.Publish(ctx, UpdatesChannel(sessionID), string(data)).Err()
}

var (
	_ StatusTracker = (*MemoryStatusTracker)(nil)
	_ StatusTracker = (*RedisStatusTracker)(nil)
)
