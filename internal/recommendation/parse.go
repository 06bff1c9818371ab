package recommendation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ErrParse means the provider content was not a recommendations object.
var ErrParse = errors.New("invalid response format from provider")

// CountMismatchError means the provider returned the wrong number of items.
type CountMismatchError struct {
	Got  int
	Want int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("received %d recommendations, expected %d", e.Got, e.Want)
}

type recommendationsEnvelope struct {
	Recommendations []any `json:"recommendations"`
}

// ParseRecommendations decodes {"recommendations": [...]} and requires
// exactly want items. Items are left undecoded beyond JSON values; shape
// checks per item belong to Validate.
func ParseRecommendations(content string, want int) ([]any, error) {
	var env recommendationsEnvelope
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if env.Recommendations == nil {
		return nil, fmt.Errorf("%w: recommendations array missing", ErrParse)
	}
	if len(env.Recommendations) != want {
		return nil, &CountMismatchError{Got: len(env.Recommendations), Want: want}
	}
	return env.Recommendations, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
