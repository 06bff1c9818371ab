package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/aaronds650/MovieMeV2/internal/logging"
	"github.com/aaronds650/MovieMeV2/internal/metrics"
)

const (
	defaultTMDbBaseURL = "https://api.themoviedb.org/3"
	imageBaseURL       = "https://image.tmdb.org/t/p/"
	PosterSize         = "w500"
)

var (
	// ErrNotFound means the search returned no usable result.
	ErrNotFound = errors.New("no matching movie in catalog")

	ErrMissingAPIKey = errors.New("TMDb API key not configured")
)

type TMDbConfig struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// TMDbClient searches The Movie Database. Requests are paced by a token
// bucket and wrapped in a circuit breaker so a failing catalog stops being
// called for a while.
type TMDbClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[[]Movie]
}

type SearchMovieResult struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalResults int     `json:"total_results"`
}

type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
}

// Poster is the result of a poster lookup.
type Poster struct {
	URL    string
	TMDbID int
}

func NewTMDbClient(cfg TMDbConfig) *TMDbClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTMDbBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &TMDbClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		cb:      newCircuitBreaker("tmdb"),
	}
}

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker[[]Movie] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[[]Movie](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// Cancelled requests say nothing about the catalog's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// SearchMovies runs /search/movie. A year of zero searches all years.
func (c *TMDbClient) SearchMovies(ctx context.Context, query string, year int) ([]Movie, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	return c.cb.Execute(func() ([]Movie, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
		return c.searchMovies(ctx, query, year)
	})
}

func (c *TMDbClient) searchMovies(ctx context.Context, query string, year int) ([]Movie, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	params.Set("page", "1")
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	fullURL := fmt.Sprintf("%s/search/movie?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TMDb API returned status %d", resp.StatusCode)
	}

	var searchResult SearchMovieResult
	if err := json.NewDecoder(resp.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return searchResult.Results, nil
}

// LookupPoster returns the w500 poster of the first search hit for title in
// year. ErrNotFound is returned when there is no hit. A hit without a poster
// keeps its id and has an empty URL.
func (c *TMDbClient) LookupPoster(ctx context.Context, title string, year int) (Poster, error) {
	movies, err := c.SearchMovies(ctx, title, year)
	if err != nil {
		return Poster{}, err
	}
	if len(movies) == 0 {
		return Poster{}, ErrNotFound
	}

	return Poster{
		URL:    c.GetImageURL(movies[0].PosterPath, PosterSize),
		TMDbID: movies[0].ID,
	}, nil
}

func (c *TMDbClient) GetImageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s%s%s", imageBaseURL, size, path)
}
