package recommendation

import (
	"fmt"
	"strings"
)

// Relative weights described to the provider. Genre replaces mood when the
// profile has no moods.
const (
	MoodWeight      = 0.40
	GenreWeight     = 0.30
	FavoritesWeight = 0.35
	AcclaimedWeight = 0.20
	TimeframeWeight = 0.15
)

const responseShape = `{
  "recommendations": [
    {
      "title": "string",
      "year": number,
      "description": "string (max 200 chars)",
      "rating": "string",
      "genres": ["string"],
      "cast": ["string"],
      "director": "string",
      "rottenTomatoesScore": number,
      "imdbRating": number,
      "runtime": number,
      "matchReason": "string (max 150 chars)",
      "matchScore": number,
      "similarToFavorites": ["string"]
    }
  ]
}`

// BuildSystemMessage returns the system instruction for a request of count
// movies.
func BuildSystemMessage(count int, acclaimed bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a movie recommendation expert. Provide EXACTLY %d high-quality recommendations in the specified JSON format. ", count)
	b.WriteString("Each recommendation must be complete with all required fields. ")
	b.WriteString("Keep descriptions and match reasons concise. ")
	b.WriteString("NEVER recommend movies that are in the exclusion list.")
	if acclaimed {
		b.WriteString(" Prioritize movies with high critic scores (>80% on Rotten Tomatoes, >7.5 on IMDb) or significant award recognition.")
	}
	return b.String()
}

// BuildPrompt returns the user prompt asking for exactly count movies that
// avoid every title in exclusions.
func BuildPrompt(p TasteProfile, count int, exclusions []string) string {
	var lines []string
	if p.hasMoods() {
		lines = append(lines, "Moods: "+strings.Join(nonEmpty(p.Moods), ", "))
	} else {
		lines = append(lines, "Genres: "+strings.Join(nonEmpty(p.Genres), ", "))
		if subs := nonEmpty(p.Subgenres); len(subs) > 0 {
			lines = append(lines, "Subgenres: "+strings.Join(subs, ", "))
		}
	}
	if favs := nonEmpty(p.Favorites); len(favs) > 0 {
		lines = append(lines, "Favorites: "+strings.Join(favs, ", "))
	}
	if p.Acclaimed {
		lines = append(lines, "Critically Acclaimed: prioritize highly-rated films")
	} else {
		lines = append(lines, "Critically Acclaimed: any rating")
	}
	lines = append(lines, "Time periods: "+eraLabels(p.Eras))

	var b strings.Builder
	fmt.Fprintf(&b, "Recommend EXACTLY %d unique movies based on:\n", count)
	for i, l := range lines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, l)
	}

	matchLabel, matchWeight := "Genre", GenreWeight
	if p.hasMoods() {
		matchLabel, matchWeight = "Mood", MoodWeight
	}
	b.WriteString("\nWeighting factors for recommendations:\n")
	fmt.Fprintf(&b, "- %s Match: %s\n", matchLabel, percent(matchWeight))
	fmt.Fprintf(&b, "- Similarity to Favorites: %s\n", percent(FavoritesWeight))
	fmt.Fprintf(&b, "- Critical Acclaim: %s\n", percent(AcclaimedWeight))
	fmt.Fprintf(&b, "- Time Period Match: %s\n", percent(TimeframeWeight))

	b.WriteString("\nCRITICAL: Exclude these movies (user has already watched or selected them):\n")
	if len(exclusions) == 0 {
		b.WriteString("None")
	} else {
		b.WriteString(strings.Join(exclusions, ", "))
	}

	b.WriteString("\n\nReturn in this format:\n")
	b.WriteString(responseShape)
	return b.String()
}

func percent(w float64) string {
	return fmt.Sprintf("%.0f%%", w*100)
}
