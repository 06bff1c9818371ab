// Package ratelimit implements sliding-window admission control keyed by
// caller identity.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/aaronds650/MovieMeV2/internal/metrics"
)

// Limiter decides whether a call from identity may proceed. Implementations
// record the call when they admit it.
type Limiter interface {
	Admit(ctx context.Context, identity string) bool
}

// Config describes a sliding window of Window duration allowing Max calls.
type Config struct {
	Name   string
	Window time.Duration
	Max    int
}

// SlidingLog keeps per-identity timestamps in memory. State is lost on
// restart and is not shared between processes; use RedisSlidingLog for that.
type SlidingLog struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	logs      map[string][]time.Time
	lastPrune time.Time
}

func NewSlidingLog(cfg Config) *SlidingLog {
	return &SlidingLog{
		cfg:  cfg,
		now:  time.Now,
		logs: make(map[string][]time.Time),
	}
}

// WithClock replaces the time source. Intended for tests.
func (l *SlidingLog) WithClock(now func() time.Time) *SlidingLog {
	l.now = now
	return l
}

func (l *SlidingLog) Admit(_ context.Context, identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) >= l.cfg.Window {
		l.prune(now)
		l.lastPrune = now
	}

	kept := l.logs[identity][:0]
	for _, ts := range l.logs[identity] {
		if now.Sub(ts) < l.cfg.Window {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.cfg.Max {
		l.logs[identity] = kept
		metrics.RecordRateLimit(l.cfg.Name, false)
		return false
	}

	l.logs[identity] = append(kept, now)
	metrics.RecordRateLimit(l.cfg.Name, true)
	return true
}

// Len reports how many identities currently hold timestamps.
func (l *SlidingLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.logs)
}

// Prune drops identities whose timestamps have all left the window. Admit
// also does this at most once per window.
func (l *SlidingLog) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
}

func (l *SlidingLog) prune(now time.Time) {
	for id, ts := range l.logs {
		if len(ts) == 0 || now.Sub(ts[len(ts)-1]) >= l.cfg.Window {
			delete(l.logs, id)
		}
	}
}
