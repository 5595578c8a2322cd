package ratelimit

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("expected RedisAddr 'localhost:6379', got %q", cfg.RedisAddr)
	}
	if cfg.DefaultLimit != 10 {
		t.Errorf("expected DefaultLimit 10, got %d", cfg.DefaultLimit)
	}
	if cfg.DefaultWindow != time.Minute {
		t.Errorf("expected DefaultWindow 1m, got %v", cfg.DefaultWindow)
	}
	if cfg.KeyPrefix != "ratelimit:" {
		t.Errorf("expected KeyPrefix 'ratelimit:', got %q", cfg.KeyPrefix)
	}
	if cfg.FallbackClientID != "anonymous" {
		t.Errorf("expected FallbackClientID 'anonymous', got %q", cfg.FallbackClientID)
	}
	if cfg.RouteLimits == nil {
		t.Error("expected RouteLimits to be initialized")
	}
}

func TestOptions(t *testing.T) {
	cfg := DefaultConfig()
	for _, opt := range []Option{
		WithRedisAddr("redis.example.com:6380"),
		WithRedisPassword("secret123"),
		WithRedisDB(5),
		WithDefaultLimit(200, 30*time.Second),
		WithRouteLimit("login", 5, time.Minute),
		WithKeyPrefix("chat:rl:"),
	} {
		opt(&cfg)
	}

	if cfg.RedisAddr != "redis.example.com:6380" {
		t.Errorf("expected RedisAddr 'redis.example.com:6380', got %q", cfg.RedisAddr)
	}
	if cfg.RedisPassword != "secret123" {
		t.Errorf("expected RedisPassword 'secret123', got %q", cfg.RedisPassword)
	}
	if cfg.RedisDB != 5 {
		t.Errorf("expected RedisDB 5, got %d", cfg.RedisDB)
	}
	if cfg.DefaultLimit != 200 || cfg.DefaultWindow != 30*time.Second {
		t.Errorf("expected default 200/30s, got %d/%v", cfg.DefaultLimit, cfg.DefaultWindow)
	}
	if got := cfg.RouteLimits["login"]; got.Limit != 5 || got.Window != time.Minute {
		t.Errorf("expected login limit 5/1m, got %d/%v", got.Limit, got.Window)
	}
	if cfg.KeyPrefix != "chat:rl:" {
		t.Errorf("expected KeyPrefix 'chat:rl:', got %q", cfg.KeyPrefix)
	}
}

func TestLimitFor(t *testing.T) {
	m := New(WithDefaultLimit(50, time.Minute), WithRouteLimit("register", 3, time.Hour))

	tests := []struct {
		route      string
		wantLimit  int
		wantWindow time.Duration
	}{
		{route: "register", wantLimit: 3, wantWindow: time.Hour},
		{route: "login", wantLimit: 50, wantWindow: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			limit, window := m.limitFor(tt.route)
			if limit != tt.wantLimit || window != tt.wantWindow {
				t.Errorf("limitFor(%q) = %d/%v, want %d/%v", tt.route, limit, window, tt.wantLimit, tt.wantWindow)
			}
		})
	}
}
