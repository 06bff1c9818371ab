package database

import (
	"context"
	"testing"
	"time"
)

func TestUsageRepository_GetCreates(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUsageRepository(db)

	usage, err := repo.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Failed to get usage: %v", err)
	}
	if usage.SearchCount != 0 {
		t.Errorf("Expected count 0, got %d", usage.SearchCount)
	}
	if usage.LastReset.IsZero() {
		t.Error("Expected last reset to be set")
	}
}

func TestUsageRepository_IncrementPastLimit(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUsageRepository(db)
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		usage, err := repo.Increment(ctx, "user-1")
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
		if usage.SearchCount != i {
			t.Errorf("Expected count %d, got %d", i, usage.SearchCount)
		}
	}

	usage, err := repo.Get(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if usage.SearchCount != 7 {
		t.Errorf("Expected stored count 7, got %d", usage.SearchCount)
	}
	if usage.Remaining() != 0 {
		t.Errorf("Expected 0 remaining, got %d", usage.Remaining())
	}
}

func TestUsageRepository_DailyReset(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUsageRepository(db)
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	for range 3 {
		if _, err := repo.Increment(ctx, "user-1"); err != nil {
			t.Fatal(err)
		}
	}

	now = now.Add(23 * time.Hour)
	usage, err := repo.Get(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if usage.SearchCount != 3 {
		t.Errorf("Expected count kept within a day, got %d", usage.SearchCount)
	}

	now = now.Add(time.Hour)
	usage, err = repo.Increment(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if usage.SearchCount != 1 {
		t.Errorf("Expected count reset then incremented to 1, got %d", usage.SearchCount)
	}
	if !usage.LastReset.Equal(now) {
		t.Errorf("Expected last reset %v, got %v", now, usage.LastReset)
	}
}
