package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/aaronds650/MovieMeV2/internal/models"
)

var ErrAlreadyWatched = errors.New("movie already watched")

type WatchedRepository struct {
	db *DB
}

func NewWatchedRepository(db *DB) *WatchedRepository {
	return &WatchedRepository{db: db}
}

// Add records a watched movie. Adding the same TMDb id twice for a user
// returns ErrAlreadyWatched.
func (r *WatchedRepository) Add(ctx context.Context, movie *models.WatchedMovie) error {
	exists, err := r.IsWatched(ctx, movie.UserID, movie.TMDbID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyWatched
	}

	if result := r.db.GORM().WithContext(ctx).Create(movie); result.Error != nil {
		return fmt.Errorf("failed to insert watched movie: %w", result.Error)
	}
	return nil
}

func (r *WatchedRepository) IsWatched(ctx context.Context, userID string, tmdbID int) (bool, error) {
	var count int64
	result := r.db.GORM().WithContext(ctx).
		Model(&models.WatchedMovie{}).
		Where("user_id = ? AND tmdb_id = ?", userID, tmdbID).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check watched movie: %w", result.Error)
	}
	return count > 0, nil
}

// List returns the user's watched movies, most recent first.
func (r *WatchedRepository) List(ctx context.Context, userID string) ([]models.WatchedMovie, error) {
	var movies []models.WatchedMovie
	result := r.db.GORM().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("watched_at DESC").
		Find(&movies)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list watched movies: %w", result.Error)
	}
	return movies, nil
}

// ListTitles returns only the titles, for seeding a session's exclusions.
func (r *WatchedRepository) ListTitles(ctx context.Context, userID string) ([]string, error) {
	var titles []string
	result := r.db.GORM().WithContext(ctx).
		Model(&models.WatchedMovie{}).
		Where("user_id = ?", userID).
		Order("watched_at DESC").
		Pluck("title", &titles)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list watched titles: %w", result.Error)
	}
	return titles, nil
}

func (r *WatchedRepository) Remove(ctx context.Context, userID string, tmdbID int) error {
	result := r.db.GORM().WithContext(ctx).
		Where("user_id = ? AND tmdb_id = ?", userID, tmdbID).
		Delete(&models.WatchedMovie{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove watched movie: %w", result.Error)
	}
	return nil
}
