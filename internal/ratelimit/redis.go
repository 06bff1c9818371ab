package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aaronds650/MovieMeV2/internal/logging"
	"github.com/aaronds650/MovieMeV2/internal/metrics"
)

// slidingLogScript prunes the window and records the call in one round trip so
// concurrent instances see the same window.
//
// KEYS[1] sorted set; ARGV: now (ms), window (ms), max, member.
// Returns 1 when admitted, 0 when rejected.
var slidingLogScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= max then
	return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// RedisSlidingLog is a SlidingLog backed by a Redis sorted set per identity.
// When Redis is unreachable it admits the call and logs the failure.
type RedisSlidingLog struct {
	cfg    Config
	client redis.Scripter
	prefix string
	now    func() time.Time
}

func NewRedisSlidingLog(client redis.Scripter, prefix string, cfg Config) *RedisSlidingLog {
	return &RedisSlidingLog{
		cfg:    cfg,
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (l *RedisSlidingLog) Admit(ctx context.Context, identity string) bool {
	key := l.prefix + l.cfg.Name + ":" + identity
	now := l.now().UnixMilli()

	admitted, err := slidingLogScript.Run(ctx, l.client, []string{key},
		now, l.cfg.Window.Milliseconds(), l.cfg.Max, uuid.NewString()).Int()
	if err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("limiter", l.cfg.Name).
			Msg("redis rate limiter unavailable, admitting request")
		metrics.RecordRateLimitFailOpen(l.cfg.Name)
		return true
	}

	metrics.RecordRateLimit(l.cfg.Name, admitted == 1)
	return admitted == 1
}
