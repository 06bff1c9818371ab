package models

import (
	"time"

	"github.com/google/uuid"
)

// WatchedMovie is a title the user has marked as seen. Watched titles are
// excluded from every recommendation session the user starts.
type WatchedMovie struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;index;uniqueIndex:idx_watched_user_tmdb" json:"user_id"`
	TMDbID    int       `gorm:"column:tmdb_id;not null;uniqueIndex:idx_watched_user_tmdb" json:"tmdb_id"`
	Title     string    `gorm:"not null" json:"title"`
	Year      int       `json:"year,omitempty"`
	PosterURL string    `json:"poster_url,omitempty"`
	Overview  string    `json:"overview,omitempty"`
	Rating    *float64  `json:"rating,omitempty"`
	Review    string    `json:"review,omitempty"`
	WatchedAt time.Time `gorm:"not null" json:"watched_at"`
}

func (WatchedMovie) TableName() string {
	return "watched_movies"
}

func NewWatchedMovie(userID string, tmdbID int, title string, year int) *WatchedMovie {
	return &WatchedMovie{
		ID:        uuid.New().String(),
		UserID:    userID,
		TMDbID:    tmdbID,
		Title:     title,
		Year:      year,
		WatchedAt: time.Now().UTC(),
	}
}
