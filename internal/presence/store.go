package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
)

// StatusStore holds the per-user liveness records. Writers are disjoint by
// identity (a user only heartbeats their own record), so individual field
// updates rely on the backend's own atomicity and nothing else.
type StatusStore interface {
	WriteHeartbeat(ctx context.Context, userID int64, clientTime int64) (*models.LivenessRecord, error)
	MarkOffline(ctx context.Context, userID int64) (*models.LivenessRecord, error)
	Get(ctx context.Context, userID int64) (*models.LivenessRecord, error)
}

// RedisStatusStore keeps one hash per user at userStatus:{id}. Records are
// given a TTL well past the staleness threshold so dead entries age out on
// their own; a missing key reads as "no record", which resolves to offline.
type RedisStatusStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStatusStore(client *redis.Client, ttl time.Duration) *RedisStatusStore {
	return &RedisStatusStore{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

func statusKey(userID int64) string {
	return fmt.Sprintf("userStatus:%d", userID)
}

func (s *RedisStatusStore) WriteHeartbeat(
	ctx context.Context,
	userID int64,
	clientTime int64,
) (*models.LivenessRecord, error) {
	key := statusKey(userID)
	lastSeen := s.now().UTC()

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"online", 1,
		"lastSeen", lastSeen.UnixMilli(),
		"clientTime", clientTime,
	)
	beat := pipe.HIncrBy(ctx, key, "lastHeartbeat", 1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("write heartbeat: %w", err)
	}

	return &models.LivenessRecord{
		UserID:        userID,
		Online:        true,
		LastSeen:      lastSeen,
		ClientTime:    clientTime,
		LastHeartbeat: beat.Val(),
	}, nil
}

// MarkOffline is the explicit-offline override: lastHeartbeat drops to zero
// so the record reads offline even before it goes stale.
func (s *RedisStatusStore) MarkOffline(ctx context.Context, userID int64) (*models.LivenessRecord, error) {
	key := statusKey(userID)
	lastSeen := s.now().UTC()

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"online", 0,
		"lastSeen", lastSeen.UnixMilli(),
		"lastHeartbeat", 0,
	)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("mark offline: %w", err)
	}

	return &models.LivenessRecord{
		UserID:   userID,
		Online:   false,
		LastSeen: lastSeen,
	}, nil
}

func (s *RedisStatusStore) Get(ctx context.Context, userID int64) (*models.LivenessRecord, error) {
	fields, err := s.client.HGetAll(ctx, statusKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get liveness record: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	record := &models.LivenessRecord{UserID: userID}
	if fields["online"] == "1" {
		record.Online = true
	}
	if millis, err := strconv.ParseInt(fields["lastSeen"], 10, 64); err == nil {
		record.LastSeen = time.UnixMilli(millis).UTC()
	}
	if clientTime, err := strconv.ParseInt(fields["clientTime"], 10, 64); err == nil {
		record.ClientTime = clientTime
	}
	if beat, err := strconv.ParseInt(fields["lastHeartbeat"], 10, 64); err == nil {
		record.LastHeartbeat = beat
	}
	return record, nil
}
