package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testRedisAddr requires Redis running locally; tests skip otherwise.
const testRedisAddr = "localhost:6379"

type cachedProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func setupTestCache(t *testing.T, prefix string) *Cache {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return New(client, prefix, time.Minute)
}

func TestNew(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	defer client.Close()

	c := New(client, "test:", 5*time.Minute)
	if c.prefix != "test:" {
		t.Errorf("prefix = %q, want %q", c.prefix, "test:")
	}
	if c.ttl != 5*time.Minute {
		t.Errorf("ttl = %v, want %v", c.ttl, 5*time.Minute)
	}

	stats := c.GetStats()
	if stats.Hits != 0 || stats.Misses != 0 || stats.HitRate != 0 {
		t.Errorf("fresh cache stats = %+v, want zero", stats)
	}
}

func TestCache_SetGetDelete(t *testing.T) {
	c := setupTestCache(t, "test-cache-sgd:")
	ctx := context.Background()

	var miss cachedProfile
	found, err := c.Get(ctx, "profile:1", &miss)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Fatal("Get() on empty cache reported a hit")
	}

	want := cachedProfile{ID: "1", Name: "Alice"}
	if err := c.Set(ctx, "profile:1", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got cachedProfile
	found, err = c.Get(ctx, "profile:1", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || got != want {
		t.Errorf("Get() = %+v (found=%v), want %+v", got, found, want)
	}

	if err := c.Delete(ctx, "profile:1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	found, _ = c.Get(ctx, "profile:1", &got)
	if found {
		t.Error("Get() after Delete() reported a hit")
	}

	stats := c.GetStats()
	if stats.Hits != 1 || stats.Misses != 2 || stats.Sets != 1 {
		t.Errorf("stats = %+v, want hits=1 misses=2 sets=1", stats)
	}
}
