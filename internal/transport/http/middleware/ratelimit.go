package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/shared"
)

// WindowCounter counts hits per key in fixed windows. Hit returns the count
// including this hit and the time left in the window.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error)
}

type memoryWindow struct {
	count int
	reset time.Time
}

// MemoryCounter keeps windows in process. Used when Redis is not configured.
type MemoryCounter struct {
	now func() time.Time

	mu      sync.Mutex
	windows map[string]*memoryWindow
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{now: time.Now, windows: map[string]*memoryWindow{}}
}

func (c *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &memoryWindow{reset: now.Add(window)}
		c.windows[key] = w
	}
	w.count++
	return w.count, w.reset.Sub(now), nil
}

// RedisCounter shares windows between instances behind a load balancer.
type RedisCounter struct {
	client redis.Cmdable
	prefix string
}

func NewRedisCounter(client redis.Cmdable, prefix string) *RedisCounter {
	return &RedisCounter{client: client, prefix: prefix}
}

func (c *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	redisKey := fmt.Sprintf("%s:%s", c.prefix, key)
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, window)
		ttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("rate window %s: %w", key, err)
	}
	resetIn := ttl.Val()
	if resetIn < 0 {
		resetIn = window
	}
	return int(incr.Val()), resetIn, nil
}

type RateLimitKeyFunc func(r *http.Request) string

type limitRule struct {
	name    string
	counter WindowCounter
	limit   int
	window  time.Duration
	keyFn   RateLimitKeyFunc
}

// RateLimit applies one budget per signed-in account, or per client IP for
// anonymous callers.
func RateLimit(counter WindowCounter, limit int, window time.Duration) func(http.Handler) http.Handler {
	rule := limitRule{name: "api", counter: counter, limit: limit, window: window, keyFn: actorOrIPKey}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rule.allow(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit adds tighter budgets on top of RateLimit:
// a quarter of the base for credential endpoints (per IP and per submitted
// email) and half of it for privileged writes (per account).
func SensitiveMutationRateLimit(counter WindowCounter, baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	credentialRules := []limitRule{
		{name: "auth_ip", counter: counter, limit: max(baseLimit/4, 1), window: window, keyFn: clientIPKey},
		{name: "auth_email", counter: counter, limit: max(baseLimit/4, 1), window: window, keyFn: AuthEmailOrIPKey("email")},
	}
	privileged := limitRule{name: "privileged", counter: counter, limit: max(baseLimit/2, 1), window: window, keyFn: actorOrIPKey}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch classifyMutation(r) {
			case mutationCredential:
				for _, rule := range credentialRules {
					if !rule.allow(w, r) {
						return
					}
				}
			case mutationPrivileged:
				if !privileged.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func AuthEmailOrIPKey(field string) RateLimitKeyFunc {
	if strings.TrimSpace(field) == "" {
		field = "email"
	}
	return func(r *http.Request) string {
		email := peekJSONString(r, field)
		if email == "" {
			return clientIPKey(r)
		}
		return "email:" + strings.ToLower(email)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.AccountID != "" {
		return "account:" + user.AccountID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	return "ip:" + shared.ClientIP(r)
}

// allow writes the limit headers and, once the budget is spent, the 429.
// A counter failure lets the request through.
func (rule limitRule) allow(w http.ResponseWriter, r *http.Request) bool {
	if rule.limit <= 0 || rule.counter == nil {
		return true
	}
	key := rule.name + ":" + rule.keyFn(r)
	count, resetIn, err := rule.counter.Hit(r.Context(), key, rule.window)
	if err != nil {
		slog.Warn("rate limit counter unavailable", "rule", rule.name, "err", err)
		return true
	}

	resetSec := ceilSeconds(resetIn)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rule.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(rule.limit-count, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSec))
	if count <= rule.limit {
		return true
	}

	w.Header().Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
	slog.Warn("rate limit exceeded",
		"rule", rule.name,
		"key", key,
		"method", r.Method,
		"path", r.URL.Path,
		"limit", rule.limit,
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// peekJSONString reads one top-level string field and restores the body.
func peekJSONString(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	var payload map[string]any
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

type mutationClass int

const (
	mutationOrdinary mutationClass = iota
	mutationCredential
	mutationPrivileged
)

type mutationRoute struct {
	method string
	prefix string
	suffix string
	exact  bool
	class  mutationClass
}

// Paths are relative to /api/v1. An empty method matches every write.
var sensitiveRoutes = []mutationRoute{
	{prefix: "/auth/login", exact: true, class: mutationCredential},
	{prefix: "/auth/signup", exact: true, class: mutationCredential},
	{prefix: "/auth/mfa/", class: mutationCredential},
	{prefix: "/careers/applications", exact: true, class: mutationPrivileged},
	{prefix: "/settings/flags", exact: true, class: mutationPrivileged},
	{prefix: "/settings/roles/", class: mutationPrivileged},
	{prefix: "/tasks", exact: true, class: mutationPrivileged},
	{prefix: "/transfers/", suffix: "/decision", class: mutationPrivileged},
	{method: http.MethodPut, prefix: "/payroll/", class: mutationPrivileged},
}

func classifyMutation(r *http.Request) mutationClass {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return mutationOrdinary
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	for _, route := range sensitiveRoutes {
		if route.method != "" && route.method != r.Method {
			continue
		}
		if route.exact && path != route.prefix {
			continue
		}
		if !route.exact && (!strings.HasPrefix(path, route.prefix) || !strings.HasSuffix(path, route.suffix)) {
			continue
		}
		return route.class
	}
	return mutationOrdinary
}
