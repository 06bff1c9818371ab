package recommendation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aaronds650/MovieMeV2/internal/ai"
	"github.com/aaronds650/MovieMeV2/internal/logging"
	"github.com/aaronds650/MovieMeV2/internal/metrics"
	"github.com/aaronds650/MovieMeV2/internal/ratelimit"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionBusy       = errors.New("a batch is already being fetched for this session")
	ErrSessionExhausted  = errors.New("no more recommendations available for this session")
	ErrSessionCapReached = errors.New("session recommendation limit reached")
)

// ExhaustedError is returned when every attempt of a batch failed to yield
// a single usable movie. Last is the final attempt's failure, if any.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("no recommendations after %d attempts: %v", e.Attempts, e.Last)
	}
	return fmt.Sprintf("no recommendations after %d attempts", e.Attempts)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// WatchedSource lists titles a user has already seen.
type WatchedSource interface {
	ListTitles(ctx context.Context, userID string) ([]string, error)
}

type Config struct {
	BatchSize  int
	MaxRetries int
	SessionCap int
	SessionTTL time.Duration
}

type Service struct {
	completer ai.Completer
	limiter   ratelimit.Limiter
	catalog   Catalog
	watched   WatchedSource
	config    Config
	now       func() time.Time

	sessions   map[string]*Session
	sessionsMu sync.RWMutex
}

// NewService wires the orchestrator. limiter, catalog and watched may be nil.
func NewService(
	completer ai.Completer,
	limiter ratelimit.Limiter,
	catalog Catalog,
	watched WatchedSource,
	config Config,
) *Service {
	if config.BatchSize <= 0 {
		config.BatchSize = 5
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.SessionCap <= 0 {
		config.SessionCap = 15
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = time.Hour
	}

	return &Service{
		completer: completer,
		limiter:   limiter,
		catalog:   catalog,
		watched:   watched,
		config:    config,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// StartRequest opens a session. Identity keys the rate limiter.
type StartRequest struct {
	UserID   string
	Identity string
	Profile  TasteProfile
	Exclude  []string
}

// StartSession validates the profile, seeds the exclusion set from
// favorites, caller excludes and watched titles, and fetches the first batch.
// The session is discarded if the first batch fails.
func (s *Service) StartSession(ctx context.Context, req StartRequest) (*Session, []CandidateMovie, error) {
	if err := req.Profile.Validate(); err != nil {
		return nil, nil, err
	}

	exclusions := NewExclusionSet(req.Profile.Favorites...)
	exclusions.Add(req.Exclude...)
	if s.watched != nil && req.UserID != "" {
		titles, err := s.watched.ListTitles(ctx, req.UserID)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("user_id", req.UserID).Msg("could not load watched titles")
		}
		exclusions.Add(titles...)
	}

	session := &Session{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		Profile:    req.Profile,
		CreatedAt:  s.now(),
		exclusions: exclusions,
		cap:        s.config.SessionCap,
	}
	session.run.Lock()
	defer session.run.Unlock()

	s.evictExpired()
	s.sessionsMu.Lock()
	s.sessions[session.ID] = session
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.sessionsMu.Unlock()

	ctx = logging.ContextWithSessionID(ctx, session.ID)
	logging.Ctx(ctx).Info().
		Int("excluded", exclusions.Len()).
		Strs("eras", req.Profile.Eras).
		Msg("recommendation session started")

	batch, err := s.fetchBatch(ctx, session, min(s.config.BatchSize, s.config.SessionCap), req.Identity)
	if err != nil {
		s.remove(session.ID)
		return nil, nil, err
	}
	return session, batch, nil
}

// LoadMore fetches the next batch for an existing session. A batch that
// yields nothing marks the session exhausted for good.
func (s *Service) LoadMore(ctx context.Context, sessionID, identity string) (*Session, []CandidateMovie, error) {
	session, ok := s.Session(sessionID)
	if !ok {
		return nil, nil, ErrSessionNotFound
	}

	if !session.run.TryLock() {
		return session, nil, ErrSessionBusy
	}
	defer session.run.Unlock()

	if session.Exhausted() {
		return session, nil, ErrSessionExhausted
	}
	room := s.config.SessionCap - session.Total()
	if room <= 0 {
		return session, nil, ErrSessionCapReached
	}

	ctx = logging.ContextWithSessionID(ctx, session.ID)
	batch, err := s.fetchBatch(ctx, session, min(s.config.BatchSize, room), identity)
	if err != nil {
		var exhausted *ExhaustedError
		if errors.As(err, &exhausted) && ctx.Err() == nil {
			session.markExhausted()
			logging.Ctx(ctx).Info().Int("total", session.Total()).Msg("session exhausted")
		}
		return session, nil, err
	}
	return session, batch, nil
}

func (s *Service) Session(id string) (*Session, bool) {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()

	session, ok := s.sessions[id]
	return session, ok
}

func (s *Service) remove(id string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	delete(s.sessions, id)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
}

// evictExpired drops idle sessions older than the TTL.
func (s *Service) evictExpired() {
	cutoff := s.now().Add(-s.config.SessionTTL)

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	for id, session := range s.sessions {
		if !session.CreatedAt.Before(cutoff) {
			continue
		}
		if !session.run.TryLock() {
			continue
		}
		delete(s.sessions, id)
		session.run.Unlock()
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
}

func (s *Service) completerFor(identity string) ai.Completer {
	if s.limiter == nil {
		return s.completer
	}
	if identity == "" {
		identity = "unknown"
	}
	return &ai.Limited{Completer: s.completer, Limiter: s.limiter, Identity: identity}
}

// fetchBatch runs the retry loop for one batch of size movies. The caller
// must hold session.run.
func (s *Service) fetchBatch(ctx context.Context, session *Session, size int, identity string) ([]CandidateMovie, error) {
	completer := s.completerFor(identity)
	state := newBatchState(size, s.config.MaxRetries)
	var batch []CandidateMovie

	for !state.state.terminal() {
		accepted, err := s.attempt(ctx, session, completer, state.remaining())
		batch = append(batch, accepted...)
		state = state.advance(outcome{accepted: len(accepted), err: err})

		logging.Ctx(ctx).Debug().
			Str("state", state.state.String()).
			Int("accumulated", state.accumulated).
			Int("target", state.target).
			Int("retries", state.retries).
			Msg("batch attempt complete")

		if ctx.Err() != nil && !state.state.terminal() {
			state.state = StateExhausted
			state.lastErr = ctx.Err()
		}
	}

	if len(batch) == 0 {
		kind := ai.KindNoResults
		var aerr *ai.Error
		if errors.As(state.lastErr, &aerr) {
			kind = aerr.Kind
		}
		metrics.RecordBatch(0)
		return nil, &ai.Error{
			Kind:    kind,
			Message: ai.PublicMessage(kind),
			Err:     &ExhaustedError{Attempts: state.retries, Last: state.lastErr},
		}
	}

	RankByScore(batch)
	session.appendMovies(batch)
	metrics.RecordBatch(len(batch))

	logging.Ctx(ctx).Info().
		Int("returned", len(batch)).
		Int("requested", size).
		Int("attempts", state.retries+1).
		Int("total", session.Total()).
		Msg("batch complete")

	return batch, nil
}

// attempt makes one completion call for count movies and returns the
// accepted, enriched candidates.
func (s *Service) attempt(ctx context.Context, session *Session, completer ai.Completer, count int) ([]CandidateMovie, error) {
	req := ai.Request{
		BatchSize:     count,
		SystemMessage: BuildSystemMessage(count, session.Profile.Acclaimed),
		Prompt:        BuildPrompt(session.Profile, count, session.exclusionList()),
	}

	content, err := completer.Complete(ctx, req)
	if err != nil {
		metrics.RecordAttempt("gateway_error")
		logging.Ctx(ctx).Warn().Err(err).Int("count", count).Msg("completion attempt failed")
		return nil, err
	}

	raws, err := ParseRecommendations(content, count)
	if err != nil {
		var mismatch *CountMismatchError
		if errors.As(err, &mismatch) {
			metrics.RecordAttempt("count_mismatch")
		} else {
			metrics.RecordAttempt("parse_error")
		}
		logging.Ctx(ctx).Warn().Err(err).Msg("discarding provider response")
		return nil, err
	}
	metrics.RecordAttempt("ok")

	accepted, rejected := session.accept(raws)
	for _, v := range rejected {
		metrics.RecordRejection(string(v.Reason))
		logging.Ctx(ctx).Debug().Str("reason", string(v.Reason)).Msg(v.Detail)
	}

	Enrich(ctx, s.catalog, accepted)
	return accepted, nil
}
