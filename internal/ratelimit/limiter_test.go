package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(max int) (*SlidingLog, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewSlidingLog(Config{Name: "test", Window: time.Minute, Max: max}).WithClock(clock.Now)
	return l, clock
}

func TestSlidingLog_RejectsOverLimit(t *testing.T) {
	l, _ := newTestLimiter(10)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if !l.Admit(ctx, "1.2.3.4") {
			t.Fatalf("call %d should be admitted", i+1)
		}
	}

	if l.Admit(ctx, "1.2.3.4") {
		t.Error("11th call within the window should be rejected")
	}
}

func TestSlidingLog_AdmitsAfterWindow(t *testing.T) {
	l, clock := newTestLimiter(10)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		l.Admit(ctx, "id")
	}
	if l.Admit(ctx, "id") {
		t.Fatal("expected rejection at the limit")
	}

	clock.Advance(59 * time.Second)
	if l.Admit(ctx, "id") {
		t.Error("still inside the window, expected rejection")
	}

	clock.Advance(time.Second)
	if !l.Admit(ctx, "id") {
		t.Error("oldest timestamps left the window, expected admission")
	}
}

func TestSlidingLog_RejectedCallsAreNotRecorded(t *testing.T) {
	l, clock := newTestLimiter(2)
	ctx := context.Background()

	l.Admit(ctx, "id")
	clock.Advance(30 * time.Second)
	l.Admit(ctx, "id")

	// Rejections must not extend the window.
	for i := 0; i < 5; i++ {
		if l.Admit(ctx, "id") {
			t.Fatal("expected rejection")
		}
	}

	clock.Advance(30 * time.Second)
	if !l.Admit(ctx, "id") {
		t.Error("first timestamp expired, expected admission")
	}
}

func TestSlidingLog_IdentitiesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1)
	ctx := context.Background()

	if !l.Admit(ctx, "a") {
		t.Fatal("a should be admitted")
	}
	if l.Admit(ctx, "a") {
		t.Error("a should be rejected")
	}
	if !l.Admit(ctx, "b") {
		t.Error("b should be admitted regardless of a")
	}
}

func TestSlidingLog_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(50)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Admit(ctx, "shared") {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 50 {
		t.Errorf("Expected 50 admitted calls, got %d", admitted)
	}
}

func TestSlidingLog_Prune(t *testing.T) {
	l, clock := newTestLimiter(5)
	ctx := context.Background()

	l.Admit(ctx, "a")
	l.Admit(ctx, "b")
	clock.Advance(2 * time.Minute)
	l.Admit(ctx, "c")

	l.Prune()
	if got := l.Len(); got != 1 {
		t.Errorf("Expected 1 identity after prune, got %d", got)
	}
}

func TestSlidingLog_AdmitDropsIdleIdentities(t *testing.T) {
	l, clock := newTestLimiter(5)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		l.Admit(ctx, fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	if got := l.Len(); got != 1000 {
		t.Fatalf("Expected 1000 identities, got %d", got)
	}

	clock.Advance(time.Hour)
	if !l.Admit(ctx, "10.9.9.9") {
		t.Fatal("Expected new identity to be admitted")
	}

	if got := l.Len(); got != 1 {
		t.Errorf("Expected 1 identity an hour later, got %d", got)
	}
}

func TestSlidingLog_KeepsActiveIdentitiesWhenSweeping(t *testing.T) {
	l, clock := newTestLimiter(2)
	ctx := context.Background()

	l.Admit(ctx, "idle")
	clock.Advance(50 * time.Second)
	l.Admit(ctx, "busy")
	l.Admit(ctx, "busy")
	clock.Advance(20 * time.Second)

	if l.Admit(ctx, "busy") {
		t.Error("Expected busy identity to stay limited across a sweep")
	}
	if got := l.Len(); got != 1 {
		t.Errorf("Expected only the busy identity to remain, got %d", got)
	}
}
