package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterprise/user-service/internal/application"
	"github.com/enterprise/user-service/internal/domain/entity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ---------------------------------------------------------------------------
// BasicAuth
// ---------------------------------------------------------------------------

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	auth, err := application.NewAuthService(
		application.Credential{Username: "admin", Password: "admin-pass", Roles: []string{entity.RoleAdmin}},
	)
	require.NoError(t, err)

	r := gin.New()
	r.Use(BasicAuth(auth, "users"))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": c.GetString(CtxUsernameKey), "roles": c.GetStringSlice(CtxRolesKey)})
	})
	return r
}

func TestBasicAuth(t *testing.T) {
	r := newAuthRouter(t)

	tests := []struct {
		name     string
		user     string
		pass     string
		noHeader bool
		want     int
	}{
		{name: "valid", user: "admin", pass: "admin-pass", want: http.StatusOK},
		{name: "wrong password", user: "admin", pass: "nope", want: http.StatusUnauthorized},
		{name: "unknown user", user: "ghost", pass: "admin-pass", want: http.StatusUnauthorized},
		{name: "no header", noHeader: true, want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if !tt.noHeader {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := serve(r, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, w.Header().Get("WWW-Authenticate"), `Basic realm="users"`)
			} else {
				assert.JSONEq(t, `{"username":"admin","roles":["ADMIN"]}`, w.Body.String())
			}
		})
	}
}

// ---------------------------------------------------------------------------
// RequireSecureChannel
// ---------------------------------------------------------------------------

func TestRequireSecureChannel(t *testing.T) {
	r := gin.New()
	r.Use(RequireSecureChannel())
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	r.GET("/api/users", ok)
	r.POST("/api/users", ok)

	tests := []struct {
		name     string
		method   string
		proto    string
		fwdHost  string
		want     int
		location string
	}{
		{name: "no proxy header", method: http.MethodGet, want: http.StatusNoContent},
		{name: "https", method: http.MethodGet, proto: "https", want: http.StatusNoContent},
		{name: "https list", method: http.MethodGet, proto: "HTTPS, http", want: http.StatusNoContent},
		{name: "http get", method: http.MethodGet, proto: "http", want: http.StatusMovedPermanently, location: "https://api.example.com/api/users?x=1"},
		{name: "http post", method: http.MethodPost, proto: "http", want: http.StatusTemporaryRedirect, location: "https://api.example.com/api/users?x=1"},
		{name: "forwarded host ignored", method: http.MethodGet, proto: "http", fwdHost: "evil.example", want: http.StatusMovedPermanently, location: "https://api.example.com/api/users?x=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://api.example.com/api/users?x=1", nil)
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			if tt.fwdHost != "" {
				req.Header.Set("X-Forwarded-Host", tt.fwdHost)
			}
			w := serve(r, req)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}
}

// ---------------------------------------------------------------------------
// RequestID / RealIP
// ---------------------------------------------------------------------------

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Body.String())
	require.NoError(t, err)
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", given)
	assert.Equal(t, given, serve(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "<script>")
	assert.NotEqual(t, "<script>", serve(r, req).Body.String())
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", serve(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "198.51.100.2")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	assert.Equal(t, "198.51.100.2", serve(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "garbage")
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", serve(r, req).Body.String())
}

// ---------------------------------------------------------------------------
// RateLimit
// ---------------------------------------------------------------------------

func TestRateLimitWithoutRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(nil, 1, time.Minute, KeyByIP(), nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

// memCounter is a fixed-window Counter that never expires.
type memCounter struct {
	mu   sync.Mutex
	hits map[string]int
}

func (m *memCounter) Incr(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hits == nil {
		m.hits = map[string]int{}
	}
	m.hits[key]++
	return m.hits[key], window, nil
}

type failingCounter struct{}

func (failingCounter) Incr(context.Context, string, time.Duration) (int, time.Duration, error) {
	return 0, 0, errors.New("counter down")
}

func TestRateLimitWithCounter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(&memCounter{}, 2, time.Minute, KeyByIP(), nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	first := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", first.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	third := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Equal(t, "60", third.Header().Get("Retry-After"))
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(failingCounter{}, 1, time.Minute, KeyByIP(), nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestNewRedisCounterNil(t *testing.T) {
	assert.Nil(t, NewRedisCounter(nil))
}

func TestKeyByUsername(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("real_ip", "192.0.2.9")
	assert.Equal(t, "rl:user:anon:ip:192.0.2.9", KeyByUsername()(c))

	c.Set(CtxUsernameKey, "admin")
	assert.Equal(t, "rl:user:admin", KeyByUsername()(c))
}

func TestAllowPrivateIP(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	c.Set("real_ip", "10.1.2.3")
	assert.True(t, AllowPrivateIP()(c))
	c.Set("real_ip", "203.0.113.7")
	assert.False(t, AllowPrivateIP()(c))
}

func TestRateLimitWithRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available, skipping integration test: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	prefix := "test:" + uuid.NewString()
	key := func(*gin.Context) string { return prefix }
	t.Cleanup(func() { rdb.Del(context.Background(), prefix) })

	r := gin.New()
	r.Use(RateLimit(NewRedisCounter(rdb), 2, time.Minute, key, nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	first := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)

	third := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Equal(t, "0", third.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, third.Header().Get("Retry-After"))

	opts := httptest.NewRequest(http.MethodOptions, "/", nil)
	assert.NotEqual(t, http.StatusTooManyRequests, serve(r, opts).Code)
}
