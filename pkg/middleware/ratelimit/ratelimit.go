package ratelimit

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/repair_shop/pkg/logging"
)

type Config struct {
	Prefix    string
	PerMinute int
	Burst     int
}

func (c Config) interval() time.Duration {
	if c.PerMinute <= 0 {
		return 0
	}
	return time.Minute / time.Duration(c.PerMinute)
}

// bucketScript refills one token per interval up to capacity and takes one.
// Returns {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now_ms
end

if interval_ms > 0 then
  local n = math.floor(math.max(0, now_ms - ts) / interval_ms)
  if n > 0 then
    tokens = math.min(capacity, tokens + n)
    ts = ts + n * interval_ms
  end
end

local allowed = 0
local retry = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry = math.max(0, interval_ms - (now_ms - ts))
end

redis.call('HSET', key, 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', key, ttl)
return {allowed, tokens, retry}
`)

type decision struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

type limiter interface {
	take(ctx context.Context, key string) (decision, error)
}

// New limits requests per client IP. With a redis client the bucket is shared
// across instances; without one each process keeps its own buckets.
// Redis failures let the request through.
func New(cfg Config, rdb *redis.Client) echo.MiddlewareFunc {
	if cfg.PerMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "rl"
	}

	var lim limiter
	if rdb != nil {
		lim = &redisLimiter{rdb: rdb, cfg: cfg}
	} else {
		lim = newLocalLimiter(cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("mw", "ratelimit")

			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key := cfg.Prefix + ":" + c.Path() + ":" + ip

			d, err := lim.take(ctx, key)
			if err != nil {
				l.Warn("ratelimit_error", "reason", "limiter unavailable", "key", key, "error", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))

			if !d.allowed {
				secs := int(math.Ceil(d.retry.Seconds()))
				h.Set("Retry-After", strconv.Itoa(secs))
				l.Warn("ratelimit_block", "status", 429, "key", key)
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
			}
			return next(c)
		}
	}
}

type redisLimiter struct {
	rdb *redis.Client
	cfg Config
}

func (r *redisLimiter) take(ctx context.Context, key string) (decision, error) {
	interval := r.cfg.interval()
	ttl := int64((interval*time.Duration(r.cfg.Burst))/time.Second) + 1

	vals, err := bucketScript.Run(ctx, r.rdb, []string{key},
		time.Now().UnixMilli(), r.cfg.Burst, interval.Milliseconds(), ttl,
	).Int64Slice()
	if err != nil {
		return decision{}, err
	}
	if len(vals) != 3 {
		return decision{}, fmt.Errorf("unexpected limiter reply: %v", vals)
	}
	return decision{
		allowed:   vals[0] == 1,
		remaining: vals[1],
		retry:     time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// sweepEvery bounds how often idle buckets are dropped from a local limiter.
const sweepEvery = time.Minute

type localLimiter struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	buckets   map[string]*rate.Limiter
	lastSweep time.Time
}

func newLocalLimiter(cfg Config) *localLimiter {
	return &localLimiter{cfg: cfg, now: time.Now, buckets: make(map[string]*rate.Limiter)}
}

func (l *localLimiter) take(_ context.Context, key string) (decision, error) {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= sweepEvery {
		l.sweep(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(rate.Every(l.cfg.interval()), l.cfg.Burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()

	r := b.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return decision{allowed: false, retry: delay}, nil
	}
	return decision{allowed: true, remaining: int64(b.TokensAt(now))}, nil
}

// sweep drops buckets that have refilled completely; a new bucket for the same
// key starts in the same state. Callers hold l.mu.
func (l *localLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if b.TokensAt(now) >= float64(l.cfg.Burst) {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// NewRedisClient returns nil when addr is empty or the server does not answer,
// so callers fall back to in-process limiting.
func NewRedisClient(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
