package recommendation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aaronds650/MovieMeV2/internal/search"
)

type fakeCatalog struct {
	mu      sync.Mutex
	posters map[string]search.Poster
	errs    map[string]error
	delay   time.Duration
	calls   []string
}

func (f *fakeCatalog) LookupPoster(ctx context.Context, title string, year int) (search.Poster, error) {
	f.mu.Lock()
	f.calls = append(f.calls, title)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err, ok := f.errs[title]; ok {
		return search.Poster{}, err
	}
	if p, ok := f.posters[title]; ok {
		return p, nil
	}
	return search.Poster{}, search.ErrNotFound
}

func TestEnrich(t *testing.T) {
	catalog := &fakeCatalog{
		posters: map[string]search.Poster{
			"Heat": {URL: "https://image.tmdb.org/t/p/w500/heat.jpg", TMDbID: 949},
		},
		errs: map[string]error{
			"Broken": errors.New("connection refused"),
		},
	}

	movies := []CandidateMovie{
		{Title: "Heat", Year: 1995},
		{Title: "Broken", Year: 2001},
		{Title: "Unknown Film", Year: 2003},
	}

	Enrich(context.Background(), catalog, movies)

	if movies[0].PosterURL != "https://image.tmdb.org/t/p/w500/heat.jpg" {
		t.Errorf("Expected poster for Heat, got %s", movies[0].PosterURL)
	}
	if movies[0].TMDbID == nil || *movies[0].TMDbID != 949 {
		t.Errorf("Expected tmdb id 949, got %v", movies[0].TMDbID)
	}

	for _, m := range movies[1:] {
		if m.PosterURL != PlaceholderPosterURL {
			t.Errorf("%s: Expected placeholder, got %s", m.Title, m.PosterURL)
		}
		if m.TMDbID != nil {
			t.Errorf("%s: Expected nil id", m.Title)
		}
	}
}

func TestEnrich_Concurrent(t *testing.T) {
	catalog := &fakeCatalog{delay: 50 * time.Millisecond}
	movies := make([]CandidateMovie, 5)
	for i := range movies {
		movies[i] = CandidateMovie{Title: string(rune('A' + i)), Year: 2000}
	}

	start := time.Now()
	Enrich(context.Background(), catalog, movies)
	elapsed := time.Since(start)

	if elapsed > 200*time.Millisecond {
		t.Errorf("Expected lookups to run concurrently, took %v", elapsed)
	}
	if len(catalog.calls) != 5 {
		t.Errorf("Expected 5 lookups, got %d", len(catalog.calls))
	}
}

func TestEnrich_NilCatalog(t *testing.T) {
	movies := []CandidateMovie{{Title: "Heat", Year: 1995}}
	Enrich(context.Background(), nil, movies)
	if movies[0].PosterURL != PlaceholderPosterURL {
		t.Errorf("Expected placeholder, got %s", movies[0].PosterURL)
	}
}

func TestEnrich_IDWithoutPoster(t *testing.T) {
	catalog := &fakeCatalog{
		posters: map[string]search.Poster{"Obscure": {TMDbID: 4242}},
	}
	movies := []CandidateMovie{{Title: "Obscure", Year: 1999}}

	Enrich(context.Background(), catalog, movies)

	if movies[0].PosterURL != PlaceholderPosterURL {
		t.Errorf("Expected placeholder poster, got %s", movies[0].PosterURL)
	}
	if movies[0].TMDbID == nil || *movies[0].TMDbID != 4242 {
		t.Errorf("Expected tmdb id 4242, got %v", movies[0].TMDbID)
	}
}

func TestRankByScore(t *testing.T) {
	movies := []CandidateMovie{
		{Title: "a", MatchScore: 70},
		{Title: "b", MatchScore: 90},
		{Title: "c", MatchScore: 70},
		{Title: "d", MatchScore: 95},
		{Title: "e", MatchScore: 70},
	}

	RankByScore(movies)

	want := []string{"d", "b", "a", "c", "e"}
	for i, m := range movies {
		if m.Title != want[i] {
			t.Errorf("position %d: Expected %s, got %s", i, want[i], m.Title)
		}
	}
}
