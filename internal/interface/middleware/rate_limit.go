package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/enterprise/user-service/pkg/response"
)

// ipFromCtx prefers the address resolved by RealIP.
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// KeyFunc builds a rate-limit key from the request.
type KeyFunc func(c *gin.Context) string

// KeyByIP limits by client IP only.
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + ipFromCtx(c)
	}
}

// KeyByUsername limits by the authenticated account, falling back to the IP
// for anonymous requests.
func KeyByUsername() KeyFunc {
	return func(c *gin.Context) string {
		name := c.GetString(CtxUsernameKey)
		if name == "" {
			return "rl:user:anon:ip:" + ipFromCtx(c)
		}
		return "rl:user:" + name
	}
}

// INCR the counter and start the window on the first hit, atomically.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// Counter counts hits on key inside a fixed window and reports the time
// left before the window resets.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

type redisCounter struct {
	rdb *redis.Client
}

// NewRedisCounter returns a Redis-backed Counter, or nil when rdb is nil.
func NewRedisCounter(rdb *redis.Client) Counter {
	if rdb == nil {
		return nil
	}
	return &redisCounter{rdb: rdb}
}

func (r *redisCounter) Incr(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	count, err := incrExpireScript.Run(ctx, r.rdb, []string{key}, window.Milliseconds()).Int()
	if err != nil {
		return 0, 0, err
	}
	ttl, err := r.rdb.PTTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = 0
	}
	return count, ttl, nil
}

// AllowFunc returns true to bypass the limit for a request.
type AllowFunc func(*gin.Context) bool

// RateLimit is a fixed-window limiter. It sets the X-RateLimit-* headers,
// skips OPTIONS, and fails open when the counter errors or is not configured.
func RateLimit(counter Counter, max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if counter == nil || max <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if allow != nil && allow(c) {
			c.Next()
			return
		}
		if strings.EqualFold(c.Request.Method, http.MethodOptions) {
			c.Next()
			return
		}

		count, ttl, err := counter.Incr(c.Request.Context(), keyFn(c), window)
		if err != nil {
			c.Next()
			return
		}

		resetSec := 0
		if ttl > 0 {
			resetSec = int((ttl + time.Second - 1) / time.Second)
		}

		remaining := max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if count > max {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}
