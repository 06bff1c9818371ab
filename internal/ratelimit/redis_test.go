//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}
	return url
}

func TestRedisSlidingLog(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(ctx, setupRedis(t))
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	defer client.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewRedisSlidingLog(client, "test:", Config{Name: "recommend", Window: time.Minute, Max: 3})
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Admit(ctx, "ip") {
			t.Fatalf("call %d should be admitted", i+1)
		}
	}
	if l.Admit(ctx, "ip") {
		t.Error("4th call should be rejected")
	}
	if !l.Admit(ctx, "other") {
		t.Error("other identity should be admitted")
	}

	now = now.Add(time.Minute)
	if !l.Admit(ctx, "ip") {
		t.Error("window elapsed, expected admission")
	}
}

func TestRedisSlidingLog_FailsOpen(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(ctx, setupRedis(t))
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}

	l := NewRedisSlidingLog(client, "test:", Config{Name: "recommend", Window: time.Minute, Max: 1})
	_ = client.Close()

	for i := 0; i < 3; i++ {
		if !l.Admit(ctx, "ip") {
			t.Fatal("closed client should fail open")
		}
	}
}
