package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter throttles repeated failed sign-ins per key (normalized email).
type AttemptLimiter interface {
	Blocked(ctx context.Context, key string) (bool, error)
	Failed(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type attemptWindow struct {
	count int
	start time.Time
}

type MemoryLimiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*attemptWindow
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{max: max, window: window, now: time.Now, entries: map[string]*attemptWindow{}}
}

func (l *MemoryLimiter) Blocked(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.current(key)
	return entry != nil && entry.count >= l.max, nil
}

func (l *MemoryLimiter) Failed(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.current(key)
	if entry == nil {
		entry = &attemptWindow{start: l.now()}
		l.entries[key] = entry
	}
	entry.count++
	return nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
	return nil
}

// current drops an expired window. Caller holds mu.
func (l *MemoryLimiter) current(key string) *attemptWindow {
	entry, ok := l.entries[key]
	if !ok {
		return nil
	}
	if l.now().Sub(entry.start) >= l.window {
		delete(l.entries, key)
		return nil
	}
	return entry
}

// RedisLimiter shares the failure counter across instances.
type RedisLimiter struct {
	client redis.Cmdable
	max    int
	window time.Duration
}

func NewRedisLimiter(client redis.Cmdable, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: max, window: window}
}

func (l *RedisLimiter) key(key string) string {
	return fmt.Sprintf("login_attempts:%s", key)
}

func (l *RedisLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Get(ctx, l.key(key)).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read login attempts: %w", err)
	}
	return count >= l.max, nil
}

func (l *RedisLimiter) Failed(ctx context.Context, key string) error {
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, l.key(key))
		pipe.ExpireNX(ctx, l.key(key), l.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}
	return nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.key(key)).Err()
}
