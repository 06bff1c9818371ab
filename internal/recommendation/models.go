package recommendation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aaronds650/MovieMeV2/internal/ai"
)

// TasteProfile is the user's selection for one session. It is not modified
// after the session starts.
type TasteProfile struct {
	Genres    []string `json:"genres"`
	Subgenres []string `json:"subgenres"`
	Favorites []string `json:"favorites"`
	Moods     []string `json:"moods"`
	Acclaimed bool     `json:"acclaimed"`
	Eras      []string `json:"eras"`
}

// Validate requires at least one genre or mood and only known era tags.
func (p TasteProfile) Validate() error {
	if len(nonEmpty(p.Genres)) == 0 && len(nonEmpty(p.Moods)) == 0 {
		return ai.ValidationError("profile.genres", "Please select at least one genre or mood")
	}
	if len(p.Eras) == 0 {
		return ai.ValidationError("profile.eras", "Please select at least one time period")
	}
	for _, tag := range p.Eras {
		if _, ok := LookupEra(tag); !ok && tag != EraAny {
			return ai.ValidationError("profile.eras", fmt.Sprintf("unknown time period %q", tag))
		}
	}
	return nil
}

func (p TasteProfile) hasMoods() bool {
	return len(nonEmpty(p.Moods)) > 0
}

// CandidateMovie is a validated, enriched recommendation.
type CandidateMovie struct {
	Title               string   `json:"title"`
	Year                int      `json:"year"`
	Description         string   `json:"description"`
	Rating              string   `json:"rating"`
	Genres              []string `json:"genres"`
	Cast                []string `json:"cast"`
	Director            string   `json:"director"`
	RottenTomatoesScore *float64 `json:"rottenTomatoesScore,omitempty"`
	IMDbRating          *float64 `json:"imdbRating,omitempty"`
	Runtime             *int     `json:"runtime,omitempty"`
	PosterURL           string   `json:"posterUrl"`
	MatchReason         string   `json:"matchReason"`
	MatchScore          float64  `json:"matchScore"`
	SimilarToFavorites  []string `json:"similarToFavorites"`
	TMDbID              *int     `json:"tmdbId,omitempty"`
}

// ExclusionSet holds normalized titles that may not be recommended. It only
// grows. It is not safe for concurrent use; the owning session guards it.
type ExclusionSet struct {
	titles map[string]struct{}
}

func NewExclusionSet(titles ...string) *ExclusionSet {
	e := &ExclusionSet{titles: make(map[string]struct{}, len(titles))}
	e.Add(titles...)
	return e
}

func (e *ExclusionSet) Add(titles ...string) {
	for _, t := range titles {
		if n := NormalizeTitle(t); n != "" {
			e.titles[n] = struct{}{}
		}
	}
}

func (e *ExclusionSet) Contains(title string) bool {
	if e == nil {
		return false
	}
	_, ok := e.titles[NormalizeTitle(title)]
	return ok
}

func (e *ExclusionSet) Len() int {
	if e == nil {
		return 0
	}
	return len(e.titles)
}

// Sorted returns the normalized titles in lexical order.
func (e *ExclusionSet) Sorted() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.titles))
	for t := range e.titles {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// NormalizeTitle is the comparison key for titles: trimmed and lower-cased.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
