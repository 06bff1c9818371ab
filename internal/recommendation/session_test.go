package recommendation

import (
	"errors"
	"testing"
)

func TestBatchStateAdvance(t *testing.T) {
	errGateway := errors.New("gateway down")

	tests := []struct {
		name        string
		target      int
		outcomes    []outcome
		wantState   State
		wantAccum   int
		wantRetries int
	}{
		{
			name:      "filled in one attempt",
			target:    5,
			outcomes:  []outcome{{accepted: 5}},
			wantState: StateDone,
			wantAccum: 5,
		},
		{
			name:        "under-filled then filled",
			target:      5,
			outcomes:    []outcome{{accepted: 4}, {accepted: 1}},
			wantState:   StateDone,
			wantAccum:   5,
			wantRetries: 1,
		},
		{
			name:        "error then filled",
			target:      5,
			outcomes:    []outcome{{err: errGateway}, {accepted: 5}},
			wantState:   StateDone,
			wantAccum:   5,
			wantRetries: 1,
		},
		{
			name:        "partial after retries",
			target:      5,
			outcomes:    []outcome{{accepted: 2}, {err: errGateway}, {accepted: 1}},
			wantState:   StateExhausted,
			wantAccum:   3,
			wantRetries: 3,
		},
		{
			name:        "nothing after retries",
			target:      5,
			outcomes:    []outcome{{err: errGateway}, {accepted: 0}, {err: errGateway}},
			wantState:   StateExhausted,
			wantRetries: 3,
		},
		{
			name:        "still retrying",
			target:      5,
			outcomes:    []outcome{{accepted: 1}},
			wantState:   StateRetrying,
			wantAccum:   1,
			wantRetries: 1,
		},
		{
			name:        "terminal state ignores further outcomes",
			target:      2,
			outcomes:    []outcome{{accepted: 2}, {err: errGateway}, {accepted: 2}},
			wantState:   StateDone,
			wantAccum:   2,
			wantRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBatchState(tt.target, 3)
			for _, o := range tt.outcomes {
				b = b.advance(o)
			}

			if b.state != tt.wantState {
				t.Errorf("Expected state %s, got %s", tt.wantState, b.state)
			}
			if b.accumulated != tt.wantAccum {
				t.Errorf("Expected accumulated %d, got %d", tt.wantAccum, b.accumulated)
			}
			if b.retries != tt.wantRetries {
				t.Errorf("Expected retries %d, got %d", tt.wantRetries, b.retries)
			}
		})
	}
}

func TestBatchStateAdvance_KeepsLastError(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	b := newBatchState(5, 3)
	b = b.advance(outcome{err: first})
	b = b.advance(outcome{err: second})
	b = b.advance(outcome{accepted: 0})

	if b.state != StateExhausted {
		t.Fatalf("Expected exhausted, got %s", b.state)
	}
	if !errors.Is(b.lastErr, second) {
		t.Errorf("Expected last error %v, got %v", second, b.lastErr)
	}
}

func TestBatchStateRemaining(t *testing.T) {
	b := newBatchState(5, 3).advance(outcome{accepted: 3})
	if got := b.remaining(); got != 2 {
		t.Errorf("Expected remaining 2, got %d", got)
	}
}
