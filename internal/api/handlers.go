package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aaronds650/MovieMeV2/internal/ai"
	"github.com/aaronds650/MovieMeV2/internal/models"
	"github.com/aaronds650/MovieMeV2/internal/ratelimit"
	"github.com/aaronds650/MovieMeV2/internal/recommendation"
)

type WatchedStore interface {
	List(ctx context.Context, userID string) ([]models.WatchedMovie, error)
	IsWatched(ctx context.Context, userID string, tmdbID int) (bool, error)
	Add(ctx context.Context, movie *models.WatchedMovie) error
	Remove(ctx context.Context, userID string, tmdbID int) error
}

type UsageStore interface {
	Get(ctx context.Context, userID string) (*models.SearchUsage, error)
	Increment(ctx context.Context, userID string) (*models.SearchUsage, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the collaborators behind the HTTP API. Limiter, Watched,
// Usage and DB may be nil.
type Handlers struct {
	Completer ai.Completer
	Limiter   ratelimit.Limiter
	Sessions  *recommendation.Service
	Watched   WatchedStore
	Usage     UsageStore
	DB        Pinger

	OpenAIKeyPresent bool
	TMDbKeyPresent   bool
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

type recommendRequest struct {
	RemainingCount int      `json:"remainingCount" validate:"required,gt=0"`
	SystemMessage  string   `json:"systemMessage" validate:"required"`
	Prompt         string   `json:"prompt" validate:"required"`
	Model          string   `json:"model,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens      *int     `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
}

type recommendResponse struct {
	Content string `json:"content"`
}

// RecommendHandler forwards a caller-built prompt through the completion
// gateway and returns the raw content. Every request counts against the
// caller's window, malformed ones included.
func (h *Handlers) RecommendHandler(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Admit(r.Context(), clientIP(r)) {
		respondError(w, r, ai.RateLimitedError())
		return
	}

	var req recommendRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	content, err := h.Completer.Complete(r.Context(), ai.Request{
		BatchSize:     req.RemainingCount,
		SystemMessage: req.SystemMessage,
		Prompt:        req.Prompt,
		Model:         req.Model,
		Temperature:   req.Temperature,
		MaxTokens:     req.MaxTokens,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, recommendResponse{Content: content})
}

type sessionRequest struct {
	UserID  string                      `json:"userId" validate:"omitempty,max=255"`
	Profile recommendation.TasteProfile `json:"profile"`
	Exclude []string                    `json:"exclude" validate:"omitempty,max=500,dive,max=300"`
}

type batchResponse struct {
	Session recommendation.SessionView      `json:"session"`
	Batch   []recommendation.CandidateMovie `json:"batch"`
}

func newBatchResponse(s *recommendation.Session, batch []recommendation.CandidateMovie) batchResponse {
	if batch == nil {
		batch = []recommendation.CandidateMovie{}
	}
	return batchResponse{Session: s.Snapshot(), Batch: batch}
}

func (h *Handlers) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	session, batch, err := h.Sessions.StartSession(r.Context(), recommendation.StartRequest{
		UserID:   req.UserID,
		Identity: clientIP(r),
		Profile:  req.Profile,
		Exclude:  req.Exclude,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, newBatchResponse(session, batch))
}

func (h *Handlers) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Sessions.Session(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, r, recommendation.ErrSessionNotFound)
		return
	}
	respondJSON(w, http.StatusOK, session.Snapshot())
}

func (h *Handlers) LoadMoreHandler(w http.ResponseWriter, r *http.Request) {
	session, batch, err := h.Sessions.LoadMore(r.Context(), chi.URLParam(r, "id"), clientIP(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newBatchResponse(session, batch))
}

type watchedRequest struct {
	TMDbID    int      `json:"tmdbId" validate:"required,gt=0"`
	Title     string   `json:"title" validate:"required,max=300"`
	Year      int      `json:"year" validate:"omitempty,gte=1870,lte=2100"`
	PosterURL string   `json:"posterUrl" validate:"omitempty,url"`
	Overview  string   `json:"overview"`
	Rating    *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=10"`
	Review    string   `json:"review" validate:"omitempty,max=5000"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

// ListWatchedHandler lists a user's watched movies, or with ?tmdb_id=
// reports whether that one movie is watched.
func (h *Handlers) ListWatchedHandler(w http.ResponseWriter, r *http.Request) {
	if h.Watched == nil {
		respondError(w, r, errNotFound)
		return
	}
	userID := chi.URLParam(r, "userId")

	if raw := r.URL.Query().Get("tmdb_id"); raw != "" {
		tmdbID, err := strconv.Atoi(raw)
		if err != nil || tmdbID <= 0 {
			respondError(w, r, ai.ValidationError("tmdb_id", "must be a positive integer"))
			return
		}
		exists, err := h.Watched.IsWatched(r.Context(), userID, tmdbID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, existsResponse{Exists: exists})
		return
	}

	movies, err := h.Watched.List(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if movies == nil {
		movies = []models.WatchedMovie{}
	}
	respondJSON(w, http.StatusOK, movies)
}

func (h *Handlers) AddWatchedHandler(w http.ResponseWriter, r *http.Request) {
	if h.Watched == nil {
		respondError(w, r, errNotFound)
		return
	}

	var req watchedRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	movie := models.NewWatchedMovie(chi.URLParam(r, "userId"), req.TMDbID, strings.TrimSpace(req.Title), req.Year)
	movie.PosterURL = req.PosterURL
	movie.Overview = req.Overview
	movie.Rating = req.Rating
	movie.Review = req.Review

	if err := h.Watched.Add(r.Context(), movie); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, movie)
}

func (h *Handlers) RemoveWatchedHandler(w http.ResponseWriter, r *http.Request) {
	if h.Watched == nil {
		respondError(w, r, errNotFound)
		return
	}

	tmdbID, err := strconv.Atoi(chi.URLParam(r, "tmdbId"))
	if err != nil || tmdbID <= 0 {
		respondError(w, r, ai.ValidationError("tmdbId", "must be a positive integer"))
		return
	}

	if err := h.Watched.Remove(r.Context(), chi.URLParam(r, "userId"), tmdbID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type usageRequest struct {
	Increment bool `json:"increment" validate:"required"`
}

type usageResponse struct {
	SearchCount int       `json:"search_count"`
	LastReset   time.Time `json:"last_reset"`
	Limit       int       `json:"limit"`
	Remaining   int       `json:"remaining"`
}

func newUsageResponse(u *models.SearchUsage) usageResponse {
	return usageResponse{
		SearchCount: u.SearchCount,
		LastReset:   u.LastReset,
		Limit:       models.DailySearchLimit,
		Remaining:   u.Remaining(),
	}
}

func (h *Handlers) GetUsageHandler(w http.ResponseWriter, r *http.Request) {
	if h.Usage == nil {
		respondError(w, r, errNotFound)
		return
	}

	usage, err := h.Usage.Get(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newUsageResponse(usage))
}

// IncrementUsageHandler counts one search. Searches past the daily limit
// are still counted; nothing is blocked here.
func (h *Handlers) IncrementUsageHandler(w http.ResponseWriter, r *http.Request) {
	if h.Usage == nil {
		respondError(w, r, errNotFound)
		return
	}

	var req usageRequest
	if err := bind(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	usage, err := h.Usage.Increment(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newUsageResponse(usage))
}

type check struct {
	Status       string `json:"status"`
	KeyPresent   *bool  `json:"keyPresent,omitempty"`
	ResponseTime string `json:"responseTime,omitempty"`
	Error        string `json:"error,omitempty"`
}

type healthResponse struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]check `json:"checks"`
}

func keyCheck(present bool, missing string) check {
	if present {
		return check{Status: "ok", KeyPresent: &present}
	}
	return check{Status: "error", KeyPresent: &present, Error: missing}
}

// HealthHandler reports database reachability and provider key presence.
// Any failing check answers 503 with status "degraded".
func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]check),
	}

	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		start := time.Now()
		err := h.DB.Ping(ctx)
		cancel()

		if err != nil {
			resp.Checks["db"] = check{Status: "error", Error: err.Error()}
		} else {
			resp.Checks["db"] = check{Status: "ok", ResponseTime: time.Since(start).Round(time.Millisecond).String()}
		}
	}

	resp.Checks["openai"] = keyCheck(h.OpenAIKeyPresent, "OpenAI API key missing")
	resp.Checks["tmdb"] = keyCheck(h.TMDbKeyPresent, "TMDB API key missing")

	status := http.StatusOK
	for _, c := range resp.Checks {
		if c.Status != "ok" {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			break
		}
	}

	respondJSON(w, status, resp)
}
