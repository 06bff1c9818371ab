package recommendation

import (
	"errors"
	"strings"
	"testing"

	"github.com/aaronds650/MovieMeV2/internal/ai"
)

func fieldOf(err error) string {
	var e *ai.Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

func TestBuildPrompt_Moods(t *testing.T) {
	p := TasteProfile{
		Genres:    []string{"Drama"},
		Subgenres: []string{"Legal"},
		Moods:     []string{"Uplifting", "Cozy"},
		Favorites: []string{"Paddington 2"},
		Eras:      []string{"2010-2019", "2020-present"},
	}

	got := BuildPrompt(p, 3, []string{"heat", "paddington 2"})

	for _, want := range []string{
		"Recommend EXACTLY 3 unique movies",
		"1. Moods: Uplifting, Cozy",
		"Favorites: Paddington 2",
		"Critically Acclaimed: any rating",
		"Time periods: 2010s, 2020 to present",
		"- Mood Match: 40%",
		"- Similarity to Favorites: 35%",
		"- Critical Acclaim: 20%",
		"- Time Period Match: 15%",
		"heat, paddington 2",
		`"recommendations": [`,
		`"similarToFavorites": ["string"]`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q\n%s", want, got)
		}
	}
	if strings.Contains(got, "Genres: Drama") || strings.Contains(got, "Subgenres") {
		t.Error("mood prompts should not list genres")
	}
}

func TestBuildPrompt_Genres(t *testing.T) {
	p := TasteProfile{
		Genres:    []string{"Horror"},
		Subgenres: []string{"Slasher"},
		Acclaimed: true,
		Eras:      []string{EraAny, "1990-1999"},
	}

	got := BuildPrompt(p, 5, nil)

	for _, want := range []string{
		"1. Genres: Horror",
		"2. Subgenres: Slasher",
		"Critically Acclaimed: prioritize highly-rated films",
		"Time periods: any release year",
		"- Genre Match: 30%",
		"them):\nNone",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q\n%s", want, got)
		}
	}
}

func TestBuildSystemMessage(t *testing.T) {
	plain := BuildSystemMessage(4, false)
	if !strings.Contains(plain, "EXACTLY 4 high-quality recommendations") {
		t.Errorf("unexpected system message %q", plain)
	}
	if strings.Contains(plain, "Rotten Tomatoes") {
		t.Error("acclaim sentence should only appear when acclaim is prioritized")
	}

	acclaimed := BuildSystemMessage(4, true)
	if !strings.Contains(acclaimed, ">80% on Rotten Tomatoes, >7.5 on IMDb") {
		t.Errorf("missing acclaim sentence: %q", acclaimed)
	}
}

func TestParseRecommendations(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		want      int
		wantErr   error
		wantCount bool
	}{
		{"valid", `{"recommendations":[{"title":"A"},{"title":"B"}]}`, 2, nil, false},
		{"fenced", "```json\n{\"recommendations\":[{\"title\":\"A\"}]}\n```", 1, nil, false},
		{"not json", `Sure! Here are some movies`, 1, ErrParse, false},
		{"missing array", `{"movies":[]}`, 1, ErrParse, false},
		{"non-object items", `{"recommendations":["A",{"title":"B"},3]}`, 3, nil, false},
		{"recommendations not an array", `{"recommendations":{"title":"A"}}`, 1, ErrParse, false},
		{"too few", `{"recommendations":[{"title":"A"}]}`, 2, nil, true},
		{"too many", `{"recommendations":[{"title":"A"},{"title":"B"}]}`, 1, nil, true},
		{"empty", `{"recommendations":[]}`, 3, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := ParseRecommendations(tt.content, tt.want)

			var mismatch *CountMismatchError
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
			case tt.wantCount:
				if !errors.As(err, &mismatch) {
					t.Errorf("Expected CountMismatchError, got %v", err)
				} else if mismatch.Want != tt.want {
					t.Errorf("Expected want %d, got %d", tt.want, mismatch.Want)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				if len(items) != tt.want {
					t.Errorf("Expected %d items, got %d", tt.want, len(items))
				}
			}
		})
	}
}
