package queue

import (
	"context"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Deduplicator remembers which events were already handled.
type Deduplicator interface {
	// Claim returns false when eventID was claimed before and has not been released.
	Claim(ctx context.Context, eventID string) (bool, error)
	// Release forgets a claim so a redelivery is handled again.
	Release(ctx context.Context, eventID string) error
}

const dedupeKeyPrefix = "booking-event:"

type RedisDeduplicator struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduplicator(client *redis.Client, ttl time.Duration) *RedisDeduplicator {
	return &RedisDeduplicator{client: client, ttl: ttl}
}

// NewRedisClient connects to addr and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func dedupeKey(eventID string) string {
	return dedupeKeyPrefix + eventID
}

func (d *RedisDeduplicator) Claim(ctx context.Context, eventID string) (bool, error) {
	logger.ExternalServiceCall("redis", "setnx", "eventID", eventID)
	claimed, err := d.client.SetNX(ctx, dedupeKey(eventID), time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	logger.ExternalServiceResult("redis", "setnx", err, "eventID", eventID, "claimed", claimed)
	return claimed, err
}

func (d *RedisDeduplicator) Release(ctx context.Context, eventID string) error {
	logger.ExternalServiceCall("redis", "del", "eventID", eventID)
	err := d.client.Del(ctx, dedupeKey(eventID)).Err()
	logger.ExternalServiceResult("redis", "del", err, "eventID", eventID)
	return err
}
