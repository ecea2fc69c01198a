package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tbourn/go-songcard-backend/internal/domain"
)

// RedisStore keeps each window as a hash at ratelimit:<action>:<ip> with
// fields count and start (unix nanoseconds). Keys expire with the window.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.Cmdable) *RedisStore { return &RedisStore{client: client} }

// NewRedisClient dials addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func windowKey(ip string, action domain.Action) string {
	return fmt.Sprintf("ratelimit:%s:%s", action, ip)
}

// Current implements Store.
func (s *RedisStore) Current(ctx context.Context, ip string, action domain.Action, since time.Time) (*Window, error) {
	vals, err := s.client.HGetAll(ctx, windowKey(ip, action)).Result()
	if err != nil {
		return nil, err
	}
	raw, ok := vals["start"]
	if !ok || raw == "" {
		return nil, nil
	}
	startNS, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: bad window start %q: %w", raw, err)
	}
	count, err := strconv.Atoi(vals["count"])
	if err != nil {
		return nil, fmt.Errorf("ratelimit: bad window count %q: %w", vals["count"], err)
	}
	start := time.Unix(0, startNS).UTC()
	if start.Before(since) {
		return nil, nil
	}
	return &Window{Count: count, Start: start}, nil
}

// Open implements Store.
func (s *RedisStore) Open(ctx context.Context, ip string, action domain.Action, start time.Time, ttl time.Duration) error {
	key := windowKey(ip, action)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "count", 1, "start", start.UnixNano())
		p.PExpire(ctx, key, ttl)
		return nil
	})
	return err
}

// incrementScript bumps count only while the window hash still exists, so an
// expired key is never recreated without start and TTL.
var incrementScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
return redis.call("HINCRBY", KEYS[1], "count", 1)
`)

// Increment implements Store. It returns ErrWindowGone when the key expired
// after Current read it.
func (s *RedisStore) Increment(ctx context.Context, ip string, action domain.Action, _ *Window) error {
	n, err := incrementScript.Run(ctx, s.client, []string{windowKey(ip, action)}).Int64()
	if err != nil {
		return err
	}
	if n < 0 {
		return ErrWindowGone
	}
	return nil
}
