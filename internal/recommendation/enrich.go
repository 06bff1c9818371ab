package recommendation

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/aaronds650/MovieMeV2/internal/logging"
	"github.com/aaronds650/MovieMeV2/internal/metrics"
	"github.com/aaronds650/MovieMeV2/internal/search"
)

const PlaceholderPosterURL = "https://via.placeholder.com/500x750?text=No+Poster"

// Catalog looks up poster metadata for a title released in year.
type Catalog interface {
	LookupPoster(ctx context.Context, title string, year int) (search.Poster, error)
}

// Enrich fills PosterURL and TMDbID for every movie concurrently. A failed
// lookup leaves the placeholder poster and a nil id on that movie only.
func Enrich(ctx context.Context, catalog Catalog, movies []CandidateMovie) {
	var wg sync.WaitGroup
	for i := range movies {
		movies[i].PosterURL = PlaceholderPosterURL
		movies[i].TMDbID = nil
		if catalog == nil {
			continue
		}

		wg.Add(1)
		go func(m *CandidateMovie) {
			defer wg.Done()

			poster, err := catalog.LookupPoster(ctx, m.Title, m.Year)
			switch {
			case errors.Is(err, search.ErrNotFound):
				metrics.RecordCatalogLookup("miss")
				logging.Ctx(ctx).Debug().Str("title", m.Title).Int("year", m.Year).Msg("no poster found")
				return
			case err != nil:
				metrics.RecordCatalogLookup("error")
				logging.Ctx(ctx).Warn().Err(err).Str("title", m.Title).Msg("poster lookup failed")
				return
			}

			metrics.RecordCatalogLookup("hit")
			if poster.URL != "" {
				m.PosterURL = poster.URL
			}
			if poster.TMDbID != 0 {
				id := poster.TMDbID
				m.TMDbID = &id
			}
		}(&movies[i])
	}
	wg.Wait()
}

// RankByScore orders movies by descending match score, keeping arrival
// order for ties.
func RankByScore(movies []CandidateMovie) {
	sort.SliceStable(movies, func(i, j int) bool {
		return movies[i].MatchScore > movies[j].MatchScore
	})
}
