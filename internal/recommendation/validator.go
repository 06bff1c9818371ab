package recommendation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultRating      = "Not Rated"
	DefaultDirector    = "Unknown"
	DefaultMatchReason = "Matches your selected preferences"
)

// RejectReason says why a raw candidate was dropped.
type RejectReason string

const (
	RejectMissingField RejectReason = "missing_field"
	RejectExcluded     RejectReason = "excluded"
	RejectOutOfEra     RejectReason = "out_of_era"
)

// Verdict is the result of validating one raw candidate. Movie is set only
// when Accepted is true.
type Verdict struct {
	Accepted bool
	Movie    CandidateMovie
	Reason   RejectReason
	Detail   string
}

func reject(reason RejectReason, format string, args ...any) Verdict {
	return Verdict{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Validate checks one decoded provider item against the exclusion set and
// the selected eras, then normalizes loosely typed fields. It does not
// modify exclusions.
func Validate(item any, exclusions *ExclusionSet, eraTags []string) Verdict {
	raw, ok := item.(map[string]any)
	if !ok {
		return reject(RejectMissingField, "item is a %T, not an object", item)
	}

	title := stringField(raw, "title")
	if title == "" {
		return reject(RejectMissingField, "title is missing")
	}
	year, ok := yearField(raw["year"])
	if !ok {
		return reject(RejectMissingField, "%q has no valid year", title)
	}
	description := stringField(raw, "description")
	if description == "" {
		return reject(RejectMissingField, "%q has no description", title)
	}

	if exclusions.Contains(title) {
		return reject(RejectExcluded, "%q was already recommended, watched or selected", title)
	}

	if !yearInEras(year, eraTags) {
		return reject(RejectOutOfEra, "%q (%d) is outside the selected time periods", title, year)
	}

	movie := CandidateMovie{
		Title:               title,
		Year:                year,
		Description:         description,
		Rating:              withDefault(stringField(raw, "rating"), DefaultRating),
		Genres:              listField(raw["genres"]),
		Cast:                listField(raw["cast"]),
		Director:            withDefault(stringField(raw, "director"), DefaultDirector),
		RottenTomatoesScore: floatField(raw["rottenTomatoesScore"]),
		IMDbRating:          floatField(raw["imdbRating"]),
		Runtime:             intField(raw["runtime"]),
		MatchReason:         withDefault(stringField(raw, "matchReason"), DefaultMatchReason),
		SimilarToFavorites:  listField(raw["similarToFavorites"]),
	}
	if score, ok := raw["matchScore"].(float64); ok && !math.IsNaN(score) && !math.IsInf(score, 0) {
		movie.MatchScore = score
	}

	return Verdict{Accepted: true, Movie: movie}
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// yearField accepts a whole positive number or a numeric string.
func yearField(v any) (int, bool) {
	switch y := v.(type) {
	case float64:
		if y > 0 && y == math.Trunc(y) {
			return int(y), true
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(y))
		if err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

func floatField(v any) *float64 {
	switch f := v.(type) {
	case float64:
		return &f
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(f), 64); err == nil {
			return &n
		}
	}
	return nil
}

func intField(v any) *int {
	if f := floatField(v); f != nil && *f > 0 {
		n := int(math.Round(*f))
		return &n
	}
	return nil
}

// listField wraps a scalar in a one-element list and maps nil to an empty
// list.
func listField(v any) []string {
	switch l := v.(type) {
	case nil:
		return []string{}
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := scalarString(l); s != "" {
			return []string{s}
		}
		return []string{}
	}
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64, bool:
		return fmt.Sprint(s)
	default:
		return ""
	}
}
