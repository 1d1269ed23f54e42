// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/estate-market/internal/config"
	"github.com/carterperez-dev/estate-market/internal/core"
)

const rateLimitPrefix = "estate:rl:"

// Policy is one named request budget. Buckets are namespaced by policy
// name, so the API and credential budgets never share a counter.
type Policy struct {
	Name  string
	Limit redis_rate.Limit
	Key   func(*http.Request) string
	// Skip exempts requests such as health checks from the budget.
	Skip func(*http.Request) bool
}

// APIPolicy is the router-wide budget, keyed by client address.
func APIPolicy(cfg config.RateLimitConfig) Policy {
	return Policy{
		Name:  "api",
		Limit: limitFor(cfg.Requests, cfg.Burst, cfg.Window),
		Key:   KeyByIP,
		Skip:  isHealthCheck,
	}
}

// CredentialPolicy is the tighter budget on login and registration,
// keyed by client address and endpoint.
func CredentialPolicy(cfg config.RateLimitConfig) Policy {
	return Policy{
		Name:  "credentials",
		Limit: limitFor(cfg.AuthRequests, cfg.AuthBurst, cfg.Window),
		Key:   KeyByIPAndEndpoint,
	}
}

func limitFor(requests, burst int, window time.Duration) redis_rate.Limit {
	if window <= 0 {
		window = time.Minute
	}
	if burst <= 0 {
		burst = requests
	}
	return redis_rate.Limit{Rate: requests, Burst: burst, Period: window}
}

type counter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimiter enforces a Policy against Redis. When Redis cannot answer,
// an in-process token bucket takes over so the budget still holds per
// instance.
type RateLimiter struct {
	redis    counter
	fallback *localLimiter
	policy   Policy
}

func NewRateLimiter(rdb *redis.Client, policy Policy) *RateLimiter {
	if policy.Key == nil {
		policy.Key = KeyByIP
	}

	return &RateLimiter{
		redis:    redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(10 * time.Minute),
		policy:   policy,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.policy.Skip != nil && rl.policy.Skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rateLimitPrefix + rl.policy.Name + ":" + rl.policy.Key(r)
		res := rl.allow(r.Context(), key)

		setRateLimitHeaders(w, res, rl.policy)

		if res.Allowed == 0 {
			retryAfter := max(int(res.RetryAfter.Seconds()), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			core.JSONError(w, core.RateLimitedError(retryAfter))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ctx context.Context, key string) *redis_rate.Result {
	res, err := rl.redis.Allow(ctx, key, rl.policy.Limit)
	if err == nil {
		core.RecordRateLimit(rl.policy.Name, "redis", res.Allowed > 0)
		return res
	}

	slog.WarnContext(ctx, "rate limiter using local fallback",
		"policy", rl.policy.Name,
		"error", err,
	)

	res = rl.fallback.allow(key, rl.policy.Limit, time.Now())
	core.RecordRateLimit(rl.policy.Name, "local", res.Allowed > 0)
	return res
}

// AuthLimit guards the credential endpoints.
func AuthLimit(rdb *redis.Client, cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	return NewRateLimiter(rdb, CredentialPolicy(cfg)).Handler
}

func KeyByIP(r *http.Request) string {
	return "ip:" + clientIP(r)
}

func KeyByIPAndEndpoint(r *http.Request) string {
	return KeyByIP(r) + ":" + r.Method + ":" + normalizeEndpoint(r.URL.Path)
}

func isHealthCheck(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/livez", "/readyz", "/metrics":
		return true
	}
	return false
}

// clientIP trusts the last X-Forwarded-For hop, which is the one the edge
// proxy appended.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// normalizeEndpoint replaces listing and account ids with {id}.
func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if isUUID(part) || isNumeric(part) {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func isUUID(s string) bool {
	return len(s) == 36 && s[8] == '-' && s[13] == '-' && s[18] == '-' && s[23] == '-'
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func setRateLimitHeaders(w http.ResponseWriter, res *redis_rate.Result, policy Policy) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(policy.Limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf(
		`%d;w=%d;name=%q`,
		policy.Limit.Rate,
		int(policy.Limit.Period.Seconds()),
		policy.Name,
	))
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter is a per-process token bucket map. Idle buckets are swept
// lazily on access, so no background goroutine is needed.
type localLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	idleTTL   time.Duration
	lastSweep time.Time
}

func newLocalLimiter(idleTTL time.Duration) *localLimiter {
	return &localLimiter{
		buckets: make(map[string]*bucket),
		idleTTL: idleTTL,
	}
}

func (l *localLimiter) allow(
	key string,
	limit redis_rate.Limit,
	now time.Time,
) *redis_rate.Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	interval := tokenInterval(limit)

	b, ok := l.buckets[key]
	if !ok {
		every := rate.Inf
		if interval > 0 {
			every = rate.Every(interval)
		}
		b = &bucket{limiter: rate.NewLimiter(every, limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := &redis_rate.Result{Limit: limit, RetryAfter: -1}
	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	res.Remaining = max(int(b.limiter.TokensAt(now)), 0)
	res.ResetAfter = time.Duration(limit.Burst-res.Remaining) * interval

	return res
}

func (l *localLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now

	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, key)
		}
	}
}

func tokenInterval(limit redis_rate.Limit) time.Duration {
	if limit.Rate <= 0 {
		return 0
	}
	return limit.Period / time.Duration(limit.Rate)
}
