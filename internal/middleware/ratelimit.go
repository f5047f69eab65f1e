package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-manager/internal/config"
)

// bucketScript takes one token from the bucket at KEYS[1] after adding the
// tokens earned by whole elapsed intervals.
// ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_s.
// Returns {allowed, remaining, retry_ms}.
var bucketScript = redis.NewScript(`
local now, cap, per, every, ttl =
	tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

local b = redis.call('HMGET', KEYS[1], 'n', 'ts')
local n, ts = tonumber(b[1]), tonumber(b[2])
if n == nil or ts == nil then
	n, ts = cap, now
end

local steps = math.floor(math.max(0, now - ts) / every)
if steps > 0 then
	n = math.min(cap, n + steps * per)
	ts = ts + steps * every
end

local ok, wait = 0, 0
if n >= 1 then
	ok, n = 1, n - 1
else
	wait = math.max(0, every - (now - ts))
end

redis.call('HSET', KEYS[1], 'n', n, 'ts', ts)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, n, wait}
`)

// NewTokenBucket limits requests per key with a Redis token bucket.  It is
// a pass-through when disabled or when rdb is nil, and fails open on Redis
// errors.  Run it after OptionalJWT so user and org key parts resolve.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, logger *log.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	limit := strconv.Itoa(cfg.Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			vals, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Result()
			if err != nil {
				logger.Warn("rate limit redis error", "key", key, "err", err)
				return next(c)
			}
			allowed, remaining, retryMs, ok := parseBucketResult(vals)
			if !ok {
				logger.Warn("rate limit unexpected script result", "key", key, "result", vals)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if allowed {
				return next(c)
			}

			secs := int(math.Ceil(float64(retryMs) / 1000))
			h.Set("Retry-After", strconv.Itoa(secs))
			logger.Debug("rate limited", "key", key, "retry_ms", retryMs)
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}

func parseBucketResult(vals any) (allowed bool, remaining, retryMs int64, ok bool) {
	arr, ok := vals.([]any)
	if !ok || len(arr) != 3 {
		return false, 0, 0, false
	}
	return asInt64(arr[0]) == 1, asInt64(arr[1]), asInt64(arr[2]), true
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

// buildRateKey joins the parts named by cfg.KeyStrategy, an underscore
// separated list of client, ip, user, org and route.  "client" is the user
// id for authenticated requests and the IP otherwise; "org" makes every
// member of an organization share one bucket.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	strategy := strings.ToLower(cfg.KeyStrategy)
	if strategy == "" {
		strategy = "client"
	}
	parts := []string{cfg.Prefix}
	for _, p := range strings.Split(strategy, "_") {
		switch p {
		case "client":
			if id, ok := UserID(c); ok {
				parts = append(parts, "user", strconv.FormatUint(id, 10))
			} else {
				parts = append(parts, "ip", realIP(c))
			}
		case "ip":
			parts = append(parts, "ip", realIP(c))
		case "user":
			parts = append(parts, "user", currentUserID(c))
		case "org":
			org := "anon"
			if id, ok := OrgID(c); ok {
				org = strconv.FormatUint(id, 10)
			}
			parts = append(parts, "org", org)
		case "route":
			parts = append(parts, "route", c.Request().Method+" "+c.Path())
		}
	}
	return strings.Join(parts, ":")
}

func realIP(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "unknown"
}
