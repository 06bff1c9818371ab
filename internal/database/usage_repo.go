package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aaronds650/MovieMeV2/internal/models"
)

// UsageResetInterval is how long a search count lives before it resets.
const UsageResetInterval = 24 * time.Hour

type UsageRepository struct {
	db  *DB
	now func() time.Time
}

func NewUsageRepository(db *DB) *UsageRepository {
	return &UsageRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the user's usage, creating the row on first sight and
// resetting the count once a full interval has passed.
func (r *UsageRepository) Get(ctx context.Context, userID string) (*models.SearchUsage, error) {
	var usage *models.SearchUsage
	err := r.db.GORM().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		usage, err = r.current(tx, userID, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// Increment adds one search to the user's count. It never refuses.
func (r *UsageRepository) Increment(ctx context.Context, userID string) (*models.SearchUsage, error) {
	var usage *models.SearchUsage
	err := r.db.GORM().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		usage, err = r.current(tx, userID, 1)
		return err
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// current loads or creates the row, applies the daily reset, then adds delta.
func (r *UsageRepository) current(tx *gorm.DB, userID string, delta int) (*models.SearchUsage, error) {
	now := r.now()

	var usage models.SearchUsage
	err := tx.First(&usage, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		usage = models.SearchUsage{UserID: userID, SearchCount: delta, LastReset: now}
		if err := tx.Create(&usage).Error; err != nil {
			return nil, fmt.Errorf("failed to create search usage: %w", err)
		}
		return &usage, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search usage: %w", err)
	}

	updates := map[string]any{}
	if now.Sub(usage.LastReset) >= UsageResetInterval {
		usage.SearchCount = 0
		usage.LastReset = now
		updates["search_count"] = 0
		updates["last_reset"] = now
	}
	if delta != 0 {
		usage.SearchCount += delta
		updates["search_count"] = usage.SearchCount
	}
	if len(updates) == 0 {
		return &usage, nil
	}

	if err := tx.Model(&models.SearchUsage{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update search usage: %w", err)
	}
	return &usage, nil
}
