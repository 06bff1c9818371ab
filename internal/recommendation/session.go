package recommendation

import (
	"sync"
	"time"
)

// State is the phase of a single batch fetch.
type State int

const (
	StateCollecting State = iota
	StateRetrying
	StateDone
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateRetrying:
		return "retrying"
	case StateDone:
		return "done"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

func (s State) terminal() bool {
	return s == StateDone || s == StateExhausted
}

// outcome is what one completion attempt produced.
type outcome struct {
	accepted int
	err      error
}

// batchState tracks one batch fetch. advance is pure so the retry policy can
// be tested without a gateway.
type batchState struct {
	state       State
	target      int
	accumulated int
	retries     int
	maxRetries  int
	lastErr     error
}

func newBatchState(target, maxRetries int) batchState {
	return batchState{state: StateCollecting, target: target, maxRetries: maxRetries}
}

func (b batchState) remaining() int {
	return b.target - b.accumulated
}

// advance applies one attempt. A failed attempt and an attempt that leaves
// the batch under-filled both count as a retry.
func (b batchState) advance(o outcome) batchState {
	if b.state.terminal() {
		return b
	}

	next := b
	if o.err != nil {
		next.retries++
		next.lastErr = o.err
	} else {
		next.accumulated += o.accepted
		if next.accumulated < next.target {
			next.retries++
		}
	}

	switch {
	case next.accumulated >= next.target:
		next.state = StateDone
	case next.retries >= next.maxRetries:
		next.state = StateExhausted
	default:
		next.state = StateRetrying
	}
	return next
}

// Session holds the exclusion set and accepted movies across batches.
type Session struct {
	ID        string
	UserID    string
	Profile   TasteProfile
	CreatedAt time.Time

	// run is held for the duration of a batch fetch.
	run sync.Mutex

	mu         sync.RWMutex
	exclusions *ExclusionSet
	movies     []CandidateMovie
	exhausted  bool
	cap        int
}

// SessionView is a point-in-time copy of a session.
type SessionView struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId,omitempty"`
	Profile     TasteProfile     `json:"profile"`
	Movies      []CandidateMovie `json:"movies"`
	Total       int              `json:"total"`
	Cap         int              `json:"cap"`
	Exhausted   bool             `json:"exhausted"`
	CanLoadMore bool             `json:"canLoadMore"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func (s *Session) Snapshot() SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	movies := make([]CandidateMovie, len(s.movies))
	copy(movies, s.movies)

	return SessionView{
		ID:          s.ID,
		UserID:      s.UserID,
		Profile:     s.Profile,
		Movies:      movies,
		Total:       len(s.movies),
		Cap:         s.cap,
		Exhausted:   s.exhausted,
		CanLoadMore: !s.exhausted && len(s.movies) < s.cap,
		CreatedAt:   s.CreatedAt,
	}
}

func (s *Session) Exhausted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exhausted
}

func (s *Session) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movies)
}

func (s *Session) exclusionList() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exclusions.Sorted()
}

// accept validates raw items in order and adds each accepted title to the
// exclusion set immediately, so a duplicate later in the same response is
// rejected.
func (s *Session) accept(raws []any) ([]CandidateMovie, []Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accepted []CandidateMovie
	var rejected []Verdict
	for _, raw := range raws {
		v := Validate(raw, s.exclusions, s.Profile.Eras)
		if !v.Accepted {
			rejected = append(rejected, v)
			continue
		}
		s.exclusions.Add(v.Movie.Title)
		accepted = append(accepted, v.Movie)
	}
	return accepted, rejected
}

func (s *Session) appendMovies(movies []CandidateMovie) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movies = append(s.movies, movies...)
}

func (s *Session) markExhausted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exhausted = true
}
