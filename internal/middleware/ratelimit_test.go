// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/estate-market/internal/config"
	"github.com/carterperez-dev/estate-market/internal/core"
)

// unreachableRedis points at a closed port so every Allow call errors.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

var budget = config.RateLimitConfig{
	Requests:     1,
	Burst:        2,
	Window:       time.Hour,
	AuthRequests: 1,
	AuthBurst:    1,
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func call(h http.Handler, method, target, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPIBudgetFallsBackToLocalWhenRedisIsDown(t *testing.T) {
	h := NewRateLimiter(unreachableRedis(t), APIPolicy(budget)).
		Handler(http.HandlerFunc(okHandler))

	const jane = "203.0.113.7:5555"

	for i := 0; i < 2; i++ {
		rec := call(h, http.MethodGet, "/properties", jane)
		require.Equal(t, http.StatusOK, rec.Code, "request %d within burst", i+1)
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := call(h, http.MethodGet, "/properties", jane)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retryAfter, 1)

	var body core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, core.CodeRateLimited, body.Error.Code)

	// other clients and health checks are unaffected
	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/properties", "203.0.113.8:5555").Code)
	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/readyz", jane).Code)
}

func TestCredentialBudgetIsPerEndpoint(t *testing.T) {
	h := AuthLimit(unreachableRedis(t), budget)(http.HandlerFunc(okHandler))

	const ip = "198.51.100.4:4000"

	assert.Equal(t, http.StatusOK, call(h, http.MethodPost, "/auth/login", ip).Code)
	assert.Equal(t, http.StatusTooManyRequests, call(h, http.MethodPost, "/auth/login", ip).Code)
	assert.Equal(t, http.StatusOK, call(h, http.MethodPost, "/auth/register", ip).Code)
}

func TestLocalLimiterRefillsAndSweeps(t *testing.T) {
	l := newLocalLimiter(time.Minute)
	limit := redis_rate.Limit{Rate: 60, Burst: 1, Period: time.Minute}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	res := l.allow("a", limit, now)
	assert.Equal(t, 1, res.Allowed)

	res = l.allow("a", limit, now)
	assert.Equal(t, 0, res.Allowed)
	assert.Equal(t, time.Second, res.RetryAfter)

	res = l.allow("a", limit, now.Add(time.Second))
	assert.Equal(t, 1, res.Allowed)

	l.allow("b", limit, now.Add(2*time.Minute))
	assert.Len(t, l.buckets, 1)
	assert.Contains(t, l.buckets, "b")
}

func TestLimitForDefaults(t *testing.T) {
	got := limitFor(30, 0, 0)
	assert.Equal(t, redis_rate.Limit{Rate: 30, Burst: 30, Period: time.Minute}, got)
}

func TestKeyByIPAndEndpointCollapsesIDs(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 192.0.2.9")

	assert.Equal(t, "ip:192.0.2.9:POST:/auth/login", KeyByIPAndEndpoint(req))
}
