package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingLog keeps one sorted set per key, scored by hit time in ms.
//
// KEYS[1] key; ARGV now_ms, window_ms, limit, member.
// Returns {allowed, count, retry_after_ms}.
var slidingLog = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  local retry = window
  if oldest[2] then
    retry = tonumber(oldest[2]) + window - now
  end
  return {0, count, retry}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, count + 1, 0}
`)

// Redis is a sliding-log limiter shared by every replica that talks to the
// same Redis.
type Redis struct {
	client redis.Scripter
	rule   Rule
	prefix string
	now    func() time.Time
}

func NewRedis(client redis.Scripter, rule Rule, prefix string) (*Redis, error) {
	if !rule.valid() {
		return nil, fmt.Errorf("ratelimit: invalid rule %+v", rule)
	}
	if prefix == "" {
		prefix = "shuma:rl:"
	}
	return &Redis{client: client, rule: rule, prefix: prefix, now: time.Now}, nil
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := slidingLog.Run(ctx, r.client, []string{r.prefix + key},
		r.now().UnixMilli(),
		r.rule.Window.Milliseconds(),
		r.rule.Limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit redis: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit redis: unexpected reply %v", res)
	}

	d := Decision{Allowed: res[0] == 1, Limit: r.rule.Limit}
	if d.Allowed {
		d.Remaining = r.rule.Limit - int(res[1])
	} else {
		d.RetryAfter = time.Duration(res[2]) * time.Millisecond
	}
	return d, nil
}

// NewRedisClient builds the client used by Redis limiters.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
