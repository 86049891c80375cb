package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestMemoryLimiterBlocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(3, time.Minute)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		blocked, _ := limiter.Blocked(ctx, "a@b.c")
		if blocked {
			t.Fatalf("blocked after %d failures", i)
		}
		_ = limiter.Failed(ctx, "a@b.c")
	}
	if blocked, _ := limiter.Blocked(ctx, "a@b.c"); !blocked {
		t.Fatal("expected key to be blocked")
	}
	if blocked, _ := limiter.Blocked(ctx, "other@b.c"); blocked {
		t.Fatal("expected other key to be unaffected")
	}

	now = now.Add(time.Minute)
	if blocked, _ := limiter.Blocked(ctx, "a@b.c"); blocked {
		t.Fatal("expected window to expire")
	}
}

func TestMemoryLimiterReset(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(1, time.Hour)
	_ = limiter.Failed(ctx, "k")
	if blocked, _ := limiter.Blocked(ctx, "k"); !blocked {
		t.Fatal("expected block")
	}
	_ = limiter.Reset(ctx, "k")
	if blocked, _ := limiter.Blocked(ctx, "k"); blocked {
		t.Fatal("expected reset to clear block")
	}
}

func TestRedisLimiter(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	key := "test-" + uuid.NewString()
	limiter := NewRedisLimiter(client, 2, time.Minute)
	defer limiter.Reset(ctx, key)

	for i := 0; i < 2; i++ {
		if err := limiter.Failed(ctx, key); err != nil {
			t.Fatalf("Failed: %v", err)
		}
	}
	blocked, err := limiter.Blocked(ctx, key)
	if err != nil || !blocked {
		t.Fatalf("expected blocked, got %v %v", blocked, err)
	}
	ttl, err := client.TTL(ctx, limiter.key(key)).Result()
	if err != nil || ttl <= 0 {
		t.Fatalf("expected expiry on counter, got %v %v", ttl, err)
	}
	if err := limiter.Reset(ctx, key); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if blocked, _ := limiter.Blocked(ctx, key); blocked {
		t.Fatal("expected reset to clear block")
	}
}
