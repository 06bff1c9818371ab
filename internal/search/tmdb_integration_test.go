//go:build integration

package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	envPath := filepath.Join("..", "..", ".env")
	_ = godotenv.Load(envPath)
}

func TestTMDbClient_SearchMovies_Live(t *testing.T) {
	apiKey := os.Getenv("TMDB_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping TMDb integration test: TMDB_API_KEY not set")
	}

	client := NewTMDbClient(TMDbConfig{APIKey: apiKey})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results, err := client.SearchMovies(ctx, "The Matrix", 1999)
	if err != nil {
		t.Fatalf("SearchMovies failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Expected at least one movie result, got none")
	}

	t.Logf("First result: %s (ID: %d, Release: %s)", results[0].Title, results[0].ID, results[0].ReleaseDate)
}

func TestTMDbClient_LookupPoster_Live(t *testing.T) {
	apiKey := os.Getenv("TMDB_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping TMDb integration test: TMDB_API_KEY not set")
	}

	client := NewTMDbClient(TMDbConfig{APIKey: apiKey})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	poster, err := client.LookupPoster(ctx, "Inception", 2010)
	if err != nil {
		t.Fatalf("LookupPoster failed: %v", err)
	}
	if poster.URL == "" || poster.TMDbID == 0 {
		t.Errorf("Expected poster URL and id, got %+v", poster)
	}
	t.Logf("Poster: %s", poster.URL)
}
